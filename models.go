package identity

import (
	"github.com/uptrace/bun"
)

// User is the user model shared by every storage backend. IDs are assigned
// by the store on insert; a zero ID means the record was never persisted.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Username     string `bun:"username,notnull,unique" json:"username"`
	Email        string `bun:"email,notnull,unique" json:"email"`
	Verified     bool   `bun:"verified,notnull" json:"verified"`
	Disabled     bool   `bun:"disabled,notnull" json:"disabled"`
	FirstName    string `bun:"first_name,notnull" json:"first_name"`
	LastName     string `bun:"last_name,notnull" json:"last_name"`
	PasswordHash string `bun:"password_hash,nullzero" json:"password,omitempty"`

	// Sessions is populated on demand by the service, never persisted as
	// part of the user row.
	Sessions []*Session `bun:"-" json:"sessions,omitempty"`
}

// Clone returns a deep copy, sessions included, so callers never alias
// store-owned records.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	if u.Sessions != nil {
		clone.Sessions = make([]*Session, len(u.Sessions))
		for i, s := range u.Sessions {
			clone.Sessions[i] = s.Clone()
		}
	}
	return &clone
}

// Sanitize returns a copy with the password hash stripped. Every user the
// service hands back to callers goes through this.
func (u *User) Sanitize() *User {
	clone := u.Clone()
	if clone != nil {
		clone.PasswordHash = ""
	}
	return clone
}

// UserPatch carries the mutable subset of user fields. Username selects
// the record and is never changed; passwords only move through
// UpdatePassword.
type UserPatch struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Verified  bool   `json:"verified"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Session binds a refresh token to its owning user. Deleting the row is
// the sole revocation mechanism.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	UserID       int64  `bun:"user_id,notnull" json:"user_id"`
	RefreshToken string `bun:"refresh_token,notnull" json:"refresh_token"`
}

// Clone returns a copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
