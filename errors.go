package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeUserNotFound       = "identity_user_not_found"
	TextCodeUserExists         = "identity_user_exists"
	TextCodeInvalidData        = "identity_invalid_data"
	TextCodePasswordNotSet     = "identity_password_not_set"
	TextCodeAccountDisabled    = "identity_account_disabled"
	TextCodeAccountNotVerified = "identity_account_not_verified"
	TextCodeTokenMismatch      = "identity_token_mismatch"
	TextCodeRefreshConflict    = "identity_refresh_conflict"
	TextCodeSessionExpired     = "identity_session_expired"
	TextCodeSessionNotFound    = "identity_session_not_found"
	TextCodeStoreCorrupted     = "identity_store_corrupted"
	TextCodeUnexpected         = "identity_unexpected"
	TextCodeTokenInvalid       = "identity_token_invalid"
	TextCodeTokenExpired       = "identity_token_expired"
	TextCodeSigningFailure     = "identity_signing_failure"
	TextCodeEmptyPassword      = "identity_empty_password"
	TextCodeInvalidCreds       = "identity_invalid_credentials"
)

// ErrUserNotFound is returned when a lookup matches no user. Login reuses
// it for wrong passwords so callers cannot enumerate usernames.
var ErrUserNotFound = goerrors.New("there is no user with the identifier received", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUserExists is returned when a unique key (email, username) is taken.
var ErrUserExists = goerrors.New("user is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(goerrors.CodeConflict)

// ErrInvalidUserData is returned when user fields violate length bounds.
var ErrInvalidUserData = goerrors.New("invalid user data", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidData).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordNotSet is returned when an account has no password hash and
// needs a reset before it can authenticate.
var ErrPasswordNotSet = goerrors.New("password is not set", goerrors.CategoryAuth).
	WithTextCode(TextCodePasswordNotSet).
	WithCode(goerrors.CodeForbidden)

// ErrAccountDisabled is returned for disabled accounts.
var ErrAccountDisabled = goerrors.New("user is disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrAccountNotVerified is returned for accounts pending verification.
var ErrAccountNotVerified = goerrors.New("user is not verified", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountNotVerified).
	WithCode(goerrors.CodeForbidden)

// ErrTokenMismatch is returned when the claimed username does not match
// the identity embedded in a refresh token.
var ErrTokenMismatch = goerrors.New("username does not match refresh token", goerrors.CategoryConflict).
	WithTextCode(TextCodeTokenMismatch).
	WithCode(goerrors.CodeConflict)

// ErrRefreshConflict is returned when a cryptographically valid refresh
// token names a user the store cannot resolve.
var ErrRefreshConflict = goerrors.New("username or refresh token is incorrect", goerrors.CategoryConflict).
	WithTextCode(TextCodeRefreshConflict).
	WithCode(goerrors.CodeConflict)

// ErrSessionExpired is returned when no live Session row backs the
// presented refresh token.
var ErrSessionExpired = goerrors.New("the session has been finished", goerrors.CategoryAuth).
	WithTextCode(TextCodeSessionExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrSessionNotFound is returned by stores when deleting an absent session.
var ErrSessionNotFound = goerrors.New("session not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeSessionNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrStoreCorrupted signals more than one row for a supposedly unique key.
var ErrStoreCorrupted = goerrors.New("storage uniqueness invariant broken", goerrors.CategoryInternal).
	WithTextCode(TextCodeStoreCorrupted)

// ErrTokenInvalid covers signature, key, algorithm, and payload-shape
// failures during verification.
var ErrTokenInvalid = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their expiry.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrSigningFailure is returned when a token cannot be signed.
var ErrSigningFailure = goerrors.New("unable to sign token", goerrors.CategoryInternal).
	WithTextCode(TextCodeSigningFailure)

// ErrNoEmptyPassword rejects empty plaintext passwords before hashing.
var ErrNoEmptyPassword = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the store-agnostic bcrypt mismatch error.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// IsNotFound reports whether err is a not-found outcome from a store or
// the service.
func IsNotFound(err error) bool {
	return goerrors.IsNotFound(err)
}

// IsAlreadyExists reports whether err signals a taken unique key.
func IsAlreadyExists(err error) bool {
	return hasTextCode(err, TextCodeUserExists)
}

// IsInvalidData reports whether err signals field bound violations.
func IsInvalidData(err error) bool {
	return hasTextCode(err, TextCodeInvalidData)
}

// IsInvalidState reports whether err signals an account that exists but
// cannot authenticate: unverified, disabled, or passwordless.
func IsInvalidState(err error) bool {
	return hasTextCode(err, TextCodeAccountDisabled, TextCodeAccountNotVerified, TextCodePasswordNotSet)
}

// IsConflict reports whether err signals an identity/token mismatch.
func IsConflict(err error) bool {
	return hasTextCode(err, TextCodeTokenMismatch, TextCodeRefreshConflict)
}

// IsSessionExpired reports whether err signals a revoked or missing session.
func IsSessionExpired(err error) bool {
	return hasTextCode(err, TextCodeSessionExpired)
}

// IsCorrupted reports whether err signals a broken store uniqueness invariant.
func IsCorrupted(err error) bool {
	return hasTextCode(err, TextCodeStoreCorrupted)
}

// IsTokenExpired reports whether err came from verifying an expired token.
func IsTokenExpired(err error) bool {
	return hasTextCode(err, TextCodeTokenExpired)
}

// IsTokenInvalid reports whether err came from a failed token verification
// other than expiry.
func IsTokenInvalid(err error) bool {
	return hasTextCode(err, TextCodeTokenInvalid)
}

func hasTextCode(err error, codes ...string) bool {
	if err == nil {
		return false
	}
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		return false
	}
	for _, code := range codes {
		if rich.TextCode == code {
			return true
		}
	}
	return false
}
