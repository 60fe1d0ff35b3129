package local

import (
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

var bcryptCost = 14

// HashPassword derives a bcrypt hash for storage alongside the account.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password").
			WithTextCode("PASSWORD_HASH_FAILED")
	}
	return string(bytes), nil
}

// ComparePasswordAndHash reports whether password matches the stored hash.
func ComparePasswordAndHash(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return false, nil
	}
	return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to compare password hash").
		WithTextCode("PASSWORD_COMPARE_FAILED")
}
