package identity

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost the service has always used; raise it
// through BcryptHasher for new deployments.
const DefaultBcryptCost = 10

// HashPassword will generate a password hash at the default cost.
func HashPassword(password string) (string, error) {
	return hashPasswordWithCost(password, DefaultBcryptCost)
}

// ComparePasswordAndHash will validate the given cleartext password
// matches the hashed password.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to compare password and hash")
	}
	return nil
}

func hashPasswordWithCost(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}
	if cost == 0 {
		cost = DefaultBcryptCost
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "unable to hash password")
	}
	return string(h), nil
}

// BcryptHasher is the default PasswordHasher.
type BcryptHasher struct {
	Cost int
}

var _ PasswordHasher = BcryptHasher{}

func (b BcryptHasher) HashPassword(password string) (string, error) {
	return hashPasswordWithCost(password, b.Cost)
}

func (b BcryptHasher) ComparePasswordAndHash(password, hash string) error {
	return ComparePasswordAndHash(password, hash)
}
