package identity

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenPayload is the structured payload carried by every token this
// service issues. Extra claims are spread top-level into the payload next
// to id/username/email. ExpirationDate is derived from the exp claim; a
// token without exp yields the zero time, which every expiry check treats
// as already past.
type TokenPayload struct {
	ID             int64             `json:"id"`
	Username       string            `json:"username"`
	Email          string            `json:"email"`
	Extra          map[string]string `json:"extra,omitempty"`
	ExpirationDate time.Time         `json:"expiration_date"`
}

// reservedClaimKeys are the registered JWT claims plus the identity claims
// minted on every token. Extra claims never shadow them in either
// direction.
var reservedClaimKeys = map[string]bool{
	"exp": true, "iat": true, "nbf": true,
	"jti": true, "iss": true, "sub": true, "aud": true,
	"id": true, "username": true, "email": true,
}

// CreateToken signs payload with the private key and embeds an expiry ttl
// in the future. Extra claims land top-level in the payload; identity and
// registered claims win on key collision. Each token gets a fresh jti so
// two tokens minted within the same second still differ.
func CreateToken(payload TokenPayload, ttl time.Duration, privateKey *rsa.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", ErrSigningFailure
	}

	now := time.Now()
	claims := jwt.MapClaims{}
	for key, value := range payload.Extra {
		claims[key] = value
	}
	claims["jti"] = uuid.NewString()
	claims["iat"] = jwt.NewNumericDate(now)
	claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	claims["id"] = payload.ID
	claims["username"] = payload.Username
	claims["email"] = payload.Email

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)

	signed, err := token.SignedString(privateKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, ErrSigningFailure.Message).
			WithTextCode(TextCodeSigningFailure)
	}

	return signed, nil
}

// VerifyToken verifies signature and expiry against the public key and
// returns the structured payload. Signature mismatch, key mismatch,
// algorithm mismatch, and bare-string payloads all surface as
// ErrTokenInvalid; expiry as ErrTokenExpired.
func VerifyToken(tokenString string, publicKey *rsa.PublicKey) (*TokenPayload, error) {
	if publicKey == nil {
		return nil, ErrTokenInvalid
	}

	token, err := jwt.ParseWithClaims(tokenString, jwt.MapClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, goerrors.New("unexpected signing method", goerrors.CategoryAuth).
				WithMetadata(map[string]any{"alg": t.Header["alg"]})
		}
		return publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, ErrTokenInvalid.Message).
			WithTextCode(TextCodeTokenInvalid)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return payloadFromClaims(claims), nil
}

// DecodeToken extracts the payload without verifying the signature. It is
// meant only for inspecting tokens this same service already issued, such
// as local expiry checks during session sweep; never feed it tokens of
// external origin.
func DecodeToken(tokenString string) (*TokenPayload, error) {
	parser := jwt.NewParser()

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryAuth, ErrTokenInvalid.Message).
			WithTextCode(TextCodeTokenInvalid)
	}

	return payloadFromClaims(claims), nil
}

func payloadFromClaims(claims jwt.MapClaims) *TokenPayload {
	payload := &TokenPayload{}

	if id, ok := claims["id"].(float64); ok {
		payload.ID = int64(id)
	}
	if username, ok := claims["username"].(string); ok {
		payload.Username = username
	}
	if email, ok := claims["email"].(string); ok {
		payload.Email = email
	}

	for key, value := range claims {
		if reservedClaimKeys[key] {
			continue
		}
		str, ok := value.(string)
		if !ok {
			continue
		}
		if payload.Extra == nil {
			payload.Extra = map[string]string{}
		}
		payload.Extra[key] = str
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		payload.ExpirationDate = exp.Time
	}

	return payload
}
