package admins

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	passwordConsonants = "bdfghjklmnprstvz"
	passwordVowels     = "aeiou"
	passwordWordCount  = 4
)

// GenerateTemporaryPassword returns a password of four pronounceable
// five-letter words and a two-digit number, such as
// Bodak-Fimul-Tazer-Nopih-42!. Each word is drawn from 16·5·16·5·16
// possibilities, about 73 bits in total with the number.
func GenerateTemporaryPassword() (string, error) {
	words := make([]string, 0, passwordWordCount+1)
	for i := 0; i < passwordWordCount; i++ {
		word, err := pronounceableWord()
		if err != nil {
			return "", err
		}
		words = append(words, word)
	}
	number, err := randomInt(90)
	if err != nil {
		return "", err
	}
	words = append(words, fmt.Sprintf("%02d!", number+10))
	return strings.Join(words, "-"), nil
}

// pronounceableWord builds a capitalized consonant-vowel-consonant-vowel-
// consonant word.
func pronounceableWord() (string, error) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		letters := passwordConsonants
		if i%2 == 1 {
			letters = passwordVowels
		}
		n, err := randomInt(len(letters))
		if err != nil {
			return "", err
		}
		c := letters[n]
		if i == 0 {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String(), nil
}

func randomInt(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
