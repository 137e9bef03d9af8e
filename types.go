package identity

import (
	"context"
	"crypto/rsa"
	"fmt"
)

// Logger is the minimal logging surface the package needs.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// UserStore is the user persistence contract. Lookups for a unique key
// fail not-found on zero matches and corrupted on more than one.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUsersByUsernames(ctx context.Context, usernames []string) ([]*User, error)
	AddUser(ctx context.Context, user *User) (*User, error)
	UpdateUserPassword(ctx context.Context, username, passwordHash string) (*User, error)
	UpdateUser(ctx context.Context, username string, patch UserPatch) (*User, error)
}

// SessionStore is the session persistence contract. AddSession assigns the
// real id, ignoring any caller-supplied placeholder.
type SessionStore interface {
	AddSession(ctx context.Context, session *Session) (*Session, error)
	DeleteSession(ctx context.Context, id int64) error
	GetSessionsByUserID(ctx context.Context, userID int64) ([]*Session, error)
}

// PasswordHasher abstracts the one-way adaptive hash the service composes.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Authenticator holds the authentication and session lifecycle operations.
type Authenticator interface {
	Signup(ctx context.Context, data SignupData) (*User, error)
	SignupMagic(ctx context.Context, data MagicSignupData) (*User, string, error)
	Login(ctx context.Context, credentials Credentials) (*LoginResult, error)
	LoginByRefreshToken(ctx context.Context, publicKey *rsa.PublicKey, request RefreshRequest) (*RefreshResult, error)
	UpdatePassword(ctx context.Context, username, newPassword string) (*User, error)
	UpdateUser(ctx context.Context, patch UserPatch) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
