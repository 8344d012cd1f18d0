package utils

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign-up, reset
// and change.
const MinPasswordLength = 8

var (
	ErrPasswordTooShort   = errors.New("password must contain at least 8 characters")
	ErrPasswordNumeric    = errors.New("password can't be entirely numeric")
	ErrPasswordTooSimilar = errors.New("password is too similar to the email address")
)

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// CheckPasswordStrength applies the account password rules. email may be
// empty when it is not known.
func CheckPasswordStrength(plain, email string) error {
	if len([]rune(plain)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if strings.IndexFunc(plain, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return ErrPasswordNumeric
	}
	if local, _, ok := strings.Cut(strings.ToLower(email), "@"); ok && local != "" &&
		strings.Contains(strings.ToLower(plain), local) {
		return ErrPasswordTooSimilar
	}
	return nil
}
