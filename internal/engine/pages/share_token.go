package pages

import "github.com/google/uuid"

// NewShareToken returns a fresh 128-bit random token rendered as a UUID.
func NewShareToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func IsShareToken(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil && len(s) == 36
}
