package pages

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "zettanote/internal/pkg/errors"
)

const MaxNameLength = 200

func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.New(apperrors.KindValidation, "page name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", apperrors.New(apperrors.KindValidation, fmt.Sprintf("page name must be at most %d characters", MaxNameLength))
	}
	return name, nil
}

func ValidateBody(body string, maxBytes int) error {
	if maxBytes > 0 && len(body) > maxBytes {
		return apperrors.New(apperrors.KindValidation, fmt.Sprintf("page content must be at most %d bytes", maxBytes))
	}
	if !utf8.ValidString(body) {
		return apperrors.New(apperrors.KindValidation, "page content must be valid UTF-8")
	}
	return nil
}
