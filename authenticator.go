package identity

import (
	"context"
	"crypto/rsa"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// SignupData carries pre-validated signup input. The transport layer owns
// request-schema validation; the store still enforces field bounds.
type SignupData struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Verified  bool   `json:"verified"`
}

// MagicSignupData registers a passwordless, pre-verified account and mints
// an access token in the same call.
type MagicSignupData struct {
	Username  string            `json:"username"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	ExtraData map[string]string `json:"extra_data,omitempty"`
}

// Credentials is the login input.
type Credentials struct {
	Username  string            `json:"username"`
	Password  string            `json:"password"`
	ExtraData map[string]string `json:"extra_data,omitempty"`
}

// LoginResult bundles the sanitized user with both freshly minted tokens.
type LoginResult struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RefreshRequest exchanges a refresh token for a new access token. The
// claimed username must match the identity embedded in the token.
type RefreshRequest struct {
	Username     string            `json:"username"`
	RefreshToken string            `json:"refresh_token"`
	ExtraData    map[string]string `json:"extra_data,omitempty"`
}

// RefreshResult carries the new access token. No refresh rotation happens
// on this path; the presented token stays live until swept or revoked.
type RefreshResult struct {
	User        *User  `json:"user"`
	AccessToken string `json:"access_token"`
}

// Auther orchestrates signup, login, refresh, password updates, and the
// session sweep. All durable state lives in the injected stores.
type Auther struct {
	users      UserStore
	sessions   SessionStore
	hasher     PasswordHasher
	privateKey *rsa.PrivateKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     Logger
	timeNow    func() time.Time
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Auther backed by the given stores. The
// config supplies the signing key, TTL policy, and hash cost.
func NewAuthenticator(users UserStore, sessions SessionStore, cfg Config) (*Auther, error) {
	privateKey, err := ParsePrivateKeyPEM([]byte(cfg.GetPrivateKeyPEM()))
	if err != nil {
		return nil, err
	}

	return &Auther{
		users:      users,
		sessions:   sessions,
		hasher:     BcryptHasher{Cost: cfg.GetBcryptCost()},
		privateKey: privateKey,
		accessTTL:  cfg.GetAccessTokenTTL(),
		refreshTTL: cfg.GetRefreshTokenTTL(),
		logger:     defLogger{},
		timeNow:    time.Now,
	}, nil
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithHasher swaps the password hasher, mostly to lower cost in tests.
func (s *Auther) WithHasher(hasher PasswordHasher) *Auther {
	if hasher != nil {
		s.hasher = hasher
	}
	return s
}

// WithClock overrides the time source used by expiry checks.
func (s *Auther) WithClock(now func() time.Time) *Auther {
	if now != nil {
		s.timeNow = now
	}
	return s
}

// Signup registers a new user. Both unique keys are checked up front; a
// not-found outcome from either lookup is the "OK, proceed" signal.
func (s *Auther) Signup(ctx context.Context, data SignupData) (*User, error) {
	if err := s.verifyUserDoesNotExist(ctx, data.Username, data.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(data.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.AddUser(ctx, &User{
		Username:     data.Username,
		Email:        data.Email,
		Verified:     data.Verified,
		Disabled:     false,
		FirstName:    data.FirstName,
		LastName:     data.LastName,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, s.storeError("signup add user", err)
	}

	return user.Sanitize(), nil
}

// SignupMagic registers a pre-verified, passwordless user and returns the
// persisted record plus a freshly minted access token.
func (s *Auther) SignupMagic(ctx context.Context, data MagicSignupData) (*User, string, error) {
	if err := s.verifyUserDoesNotExist(ctx, data.Username, data.Email); err != nil {
		return nil, "", err
	}

	user, err := s.users.AddUser(ctx, &User{
		Username:  data.Username,
		Email:     data.Email,
		Verified:  true,
		Disabled:  false,
		FirstName: data.FirstName,
		LastName:  data.LastName,
	})
	if err != nil {
		return nil, "", s.storeError("magic signup add user", err)
	}

	accessToken, err := s.createAccessToken(user, data.ExtraData)
	if err != nil {
		return nil, "", err
	}

	return user.Sanitize(), accessToken, nil
}

// Login resolves the user, verifies the password, sweeps expired sessions,
// and mints an access token plus a refresh token persisted as a new
// Session. Unknown usernames and wrong passwords fail with the same kind
// so callers cannot enumerate accounts.
func (s *Auther) Login(ctx context.Context, credentials Credentials) (*LoginResult, error) {
	user, err := s.users.GetUserByUsername(ctx, credentials.Username)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, s.storeError("login get user", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrPasswordNotSet
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	if err := s.hasher.ComparePasswordAndHash(credentials.Password, user.PasswordHash); err != nil {
		s.logger.Debug("login password mismatch for %s", credentials.Username)
		return nil, ErrUserNotFound
	}

	if !user.Verified {
		return nil, ErrAccountNotVerified
	}

	sessions, err := s.sessions.GetSessionsByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.storeError("login get sessions", err)
	}
	user.Sessions = s.sweepSessions(ctx, sessions)

	accessToken, err := s.createAccessToken(user, credentials.ExtraData)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.createRefreshToken(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:         user.Sanitize(),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// LoginByRefreshToken exchanges a refresh token for a new access token.
// Cryptographic validity is necessary but not sufficient: the exact token
// string must still exist as a live Session row.
func (s *Auther) LoginByRefreshToken(ctx context.Context, publicKey *rsa.PublicKey, request RefreshRequest) (*RefreshResult, error) {
	payload, err := VerifyToken(request.RefreshToken, publicKey)
	if err != nil {
		return nil, err
	}

	if payload.Username != request.Username {
		return nil, ErrTokenMismatch
	}

	user, err := s.users.GetUserByUsername(ctx, request.Username)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrRefreshConflict
		}
		return nil, s.storeError("refresh get user", err)
	}

	if user.Disabled {
		return nil, ErrAccountDisabled
	}
	if !user.Verified {
		return nil, ErrAccountNotVerified
	}

	sessions, err := s.sessions.GetSessionsByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.storeError("refresh get sessions", err)
	}

	live := false
	for _, session := range sessions {
		if session.RefreshToken == request.RefreshToken {
			live = true
			break
		}
	}
	if !live {
		return nil, ErrSessionExpired
	}

	user.Sessions = s.sweepSessions(ctx, sessions)

	accessToken, err := s.createAccessToken(user, request.ExtraData)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		User:        user.Sanitize(),
		AccessToken: accessToken,
	}, nil
}

// UpdatePassword replaces the user's password hash and revokes every
// session, live or stale. A password change invalidates all existing
// refresh tokens immediately.
func (s *Auther) UpdatePassword(ctx context.Context, username, newPassword string) (*User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, s.storeError("update password get user", err)
	}

	if !user.Verified {
		return nil, ErrAccountNotVerified
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	sessions, err := s.sessions.GetSessionsByUserID(ctx, user.ID)
	if err != nil {
		return nil, s.storeError("update password get sessions", err)
	}
	if err := s.revokeSessions(ctx, sessions); err != nil {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateUserPassword(ctx, username, hash)
	if err != nil {
		return nil, s.storeError("update password persist", err)
	}

	remaining, err := s.sessions.GetSessionsByUserID(ctx, updated.ID)
	if err != nil {
		return nil, s.storeError("update password reload sessions", err)
	}
	updated.Sessions = remaining

	return updated.Sanitize(), nil
}

// UpdateUser applies the mutable subset of fields: email, verified flag,
// first and last name. Username and password never change through here.
func (s *Auther) UpdateUser(ctx context.Context, patch UserPatch) (*User, error) {
	if _, err := s.users.GetUserByUsername(ctx, patch.Username); err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, s.storeError("update user get user", err)
	}

	updated, err := s.users.UpdateUser(ctx, patch.Username, patch)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, s.storeError("update user persist", err)
	}

	return updated.Sanitize(), nil
}

// verifyUserDoesNotExist treats a not-found lookup as the success path:
// the key is free.
func (s *Auther) verifyUserDoesNotExist(ctx context.Context, username, email string) error {
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return ErrUserExists.Clone().WithMetadata(map[string]any{"email": email})
	} else if !goerrors.IsNotFound(err) {
		return s.storeError("signup email lookup", err)
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return ErrUserExists.Clone().WithMetadata(map[string]any{"username": username})
	} else if !goerrors.IsNotFound(err) {
		return s.storeError("signup username lookup", err)
	}

	return nil
}

// sweepSessions deletes expired sessions inline and returns the
// survivors: only sessions whose locally decoded refresh token expired
// strictly before now are removed. Sweep is an optimization, not a safety
// boundary: deletion failures are tolerated because refresh-time
// existence checks enforce true revocation.
func (s *Auther) sweepSessions(ctx context.Context, sessions []*Session) []*Session {
	now := s.timeNow()
	kept := make([]*Session, 0, len(sessions))

	for _, session := range sessions {
		stale := false
		payload, err := DecodeToken(session.RefreshToken)
		if err != nil {
			// A session row we cannot decode was never minted by us;
			// treat it like any other stale entry.
			s.logger.Warn("sweep found undecodable refresh token in session %d: %v", session.ID, err)
			stale = true
		} else {
			stale = payload.ExpirationDate.Before(now)
		}

		if !stale {
			kept = append(kept, session)
			continue
		}

		if err := s.sessions.DeleteSession(ctx, session.ID); err != nil && !goerrors.IsNotFound(err) {
			s.logger.Warn("sweep failed to delete session %d: %v", session.ID, err)
		}
	}

	return kept
}

// revokeSessions deletes every session unconditionally. Unlike the
// opportunistic sweep, a failed delete aborts the caller: a password
// change must not report success while any session row is still live,
// since a surviving row keeps its refresh token honored.
func (s *Auther) revokeSessions(ctx context.Context, sessions []*Session) error {
	for _, session := range sessions {
		if err := s.sessions.DeleteSession(ctx, session.ID); err != nil && !goerrors.IsNotFound(err) {
			return s.storeError("revoke session", err)
		}
	}
	return nil
}

func (s *Auther) createAccessToken(user *User, extra map[string]string) (string, error) {
	return CreateToken(TokenPayload{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Extra:    extra,
	}, s.accessTTL, s.privateKey)
}

func (s *Auther) createRefreshToken(ctx context.Context, user *User) (string, error) {
	refreshToken, err := CreateToken(TokenPayload{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, s.refreshTTL, s.privateKey)
	if err != nil {
		return "", err
	}

	session, err := s.sessions.AddSession(ctx, &Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
	})
	if err != nil {
		return "", s.storeError("persist session", err)
	}
	user.Sessions = append(user.Sessions, session)

	return refreshToken, nil
}

// storeError maps a store-level failure once at the service boundary.
// Known kinds pass through; corrupted and unclassified faults are logged
// with full detail and surfaced with a generic message so storage
// internals never leak to callers.
func (s *Auther) storeError(op string, err error) error {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		switch rich.TextCode {
		case TextCodeStoreCorrupted:
			s.logger.Error("%s: corrupted store: %v", op, err)
			return goerrors.New("internal storage failure", goerrors.CategoryInternal).
				WithTextCode(TextCodeStoreCorrupted)
		case TextCodeUnexpected:
			s.logger.Error("%s: %v", op, err)
			return goerrors.New("internal storage failure", goerrors.CategoryInternal).
				WithTextCode(TextCodeUnexpected)
		}
		return err
	}

	s.logger.Error("%s: unclassified store error: %v", op, err)
	return goerrors.Wrap(err, goerrors.CategoryInternal, "internal storage failure").
		WithTextCode(TextCodeUnexpected)
}
