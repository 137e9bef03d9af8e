package identity

import (
	"crypto/rsa"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// ParsePrivateKeyPEM parses a PEM-encoded RSA private key.
func ParsePrivateKeyPEM(pemBytes []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse RSA private key").
			WithTextCode(TextCodeSigningFailure)
	}
	return key, nil
}

// ParsePublicKeyPEM parses a PEM-encoded RSA public key. Certificates
// wrapping a public key are accepted as well.
func ParsePublicKeyPEM(pemBytes []byte) (*rsa.PublicKey, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to parse RSA public key").
			WithTextCode(TextCodeTokenInvalid)
	}
	return key, nil
}
