// Package memory ships the non-durable reference implementation of the
// identity storage contracts. Each Store owns its records outright; there
// is no process-wide collection, so tests and embedded deployments get
// full isolation by constructing their own instance.
package memory

import (
	"context"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
)

// Store implements identity.UserStore and identity.SessionStore behind a
// single mutex. Uniqueness is enforced as read-then-write under that lock;
// a durable backend must provide a native unique constraint instead.
type Store struct {
	mu            sync.Mutex
	users         []*identity.User
	sessions      []*identity.Session
	nextUserID    int64
	nextSessionID int64
	policy        identity.ValidationPolicy
}

var (
	_ identity.UserStore    = (*Store)(nil)
	_ identity.SessionStore = (*Store)(nil)
)

// New returns an empty store using the default validation policy.
func New() *Store {
	return &Store{
		nextUserID:    1,
		nextSessionID: 1,
		policy:        identity.DefaultValidationPolicy,
	}
}

// WithPolicy swaps the validation policy applied on AddUser.
func (s *Store) WithPolicy(policy identity.ValidationPolicy) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policy = policy
	return s
}

// Seed inserts records verbatim, bypassing validation and uniqueness
// checks. It exists for fixtures and for reproducing corrupted states in
// tests.
func (s *Store) Seed(users ...*identity.User) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range users {
		record := user.Clone()
		if record.ID == 0 {
			record.ID = s.nextUserID
		}
		if record.ID >= s.nextUserID {
			s.nextUserID = record.ID + 1
		}
		s.users = append(s.users, record)
	}
	return s
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUniqueUser("email", email, func(u *identity.User) bool {
		return u.Email == email
	})
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findUniqueUser("username", username, func(u *identity.User) bool {
		return u.Username == username
	})
}

func (s *Store) GetUsersByUsernames(ctx context.Context, usernames []string) ([]*identity.User, error) {
	wanted := make(map[string]bool, len(usernames))
	for _, name := range usernames {
		wanted[name] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]*identity.User, 0, len(usernames))
	for _, user := range s.users {
		if wanted[user.Username] {
			found = append(found, user.Clone())
		}
	}
	return found, nil
}

func (s *Store) AddUser(ctx context.Context, user *identity.User) (*identity.User, error) {
	if err := identity.ValidateUserWithPolicy(user, s.policy); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return nil, userExists("email", user.Email)
		}
		if existing.Username == user.Username {
			return nil, userExists("username", user.Username)
		}
	}

	record := user.Clone()
	record.ID = s.nextUserID
	record.Sessions = nil
	s.nextUserID++
	s.users = append(s.users, record)

	return record.Clone(), nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.findUniqueUserLocked("username", username, func(u *identity.User) bool {
		return u.Username == username
	})
	if err != nil {
		return nil, err
	}

	record.PasswordHash = passwordHash
	return record.Clone(), nil
}

func (s *Store) UpdateUser(ctx context.Context, username string, patch identity.UserPatch) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.findUniqueUserLocked("username", username, func(u *identity.User) bool {
		return u.Username == username
	})
	if err != nil {
		return nil, err
	}

	record.Email = patch.Email
	record.Verified = patch.Verified
	record.FirstName = patch.FirstName
	record.LastName = patch.LastName

	return record.Clone(), nil
}

func (s *Store) AddSession(ctx context.Context, session *identity.Session) (*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := session.Clone()
	record.ID = s.nextSessionID
	s.nextSessionID++
	s.sessions = append(s.sessions, record)

	return record.Clone(), nil
}

func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, session := range s.sessions {
		if session.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return nil
		}
	}

	return identity.ErrSessionNotFound.Clone().
		WithMetadata(map[string]any{"session_id": id})
}

func (s *Store) GetSessionsByUserID(ctx context.Context, userID int64) ([]*identity.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := make([]*identity.Session, 0)
	for _, session := range s.sessions {
		if session.UserID == userID {
			found = append(found, session.Clone())
		}
	}
	return found, nil
}

// findUniqueUser returns a clone; findUniqueUserLocked returns the live
// record for in-place mutation. Both require s.mu held.
func (s *Store) findUniqueUser(field, value string, match func(*identity.User) bool) (*identity.User, error) {
	record, err := s.findUniqueUserLocked(field, value, match)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

func (s *Store) findUniqueUserLocked(field, value string, match func(*identity.User) bool) (*identity.User, error) {
	var found *identity.User
	count := 0
	for _, user := range s.users {
		if match(user) {
			found = user
			count++
		}
	}

	switch {
	case count == 0:
		return nil, goerrors.New(
			fmt.Sprintf("there is no user with the %s %q", field, value),
			goerrors.CategoryNotFound,
		).WithTextCode(identity.TextCodeUserNotFound).WithCode(goerrors.CodeNotFound)
	case count > 1:
		return nil, goerrors.New(
			fmt.Sprintf("there are %d users with the %s %q", count, field, value),
			goerrors.CategoryInternal,
		).WithTextCode(identity.TextCodeStoreCorrupted)
	}

	return found, nil
}

func userExists(field, value string) error {
	return goerrors.New(
		fmt.Sprintf("there is a user with the %s %q", field, value),
		goerrors.CategoryConflict,
	).WithTextCode(identity.TextCodeUserExists).WithCode(goerrors.CodeConflict)
}
