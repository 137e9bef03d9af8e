package identity

import (
	"context"
)

// DirectoryEntry is the public projection of a user record.
type DirectoryEntry struct {
	Username string `json:"username"`
	Verified bool   `json:"verified"`
}

// Directory answers user discovery queries. The store returns every match
// regardless of verification; the directory only exposes verified ones.
type Directory struct {
	users  UserStore
	logger Logger
}

// NewDirectory returns a Directory backed by the given user store.
func NewDirectory(users UserStore) *Directory {
	return &Directory{
		users:  users,
		logger: defLogger{},
	}
}

func (d *Directory) WithLogger(logger Logger) *Directory {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// FindUsersByUsernames returns the verified subset of the requested
// usernames. Unknown names are silently absent from the result.
func (d *Directory) FindUsersByUsernames(ctx context.Context, usernames []string) ([]DirectoryEntry, error) {
	users, err := d.users.GetUsersByUsernames(ctx, usernames)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectoryEntry, 0, len(users))
	for _, user := range users {
		if !user.Verified {
			continue
		}
		entries = append(entries, DirectoryEntry{
			Username: user.Username,
			Verified: user.Verified,
		})
	}

	return entries, nil
}
