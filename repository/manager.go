package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-identity"
	"github.com/uptrace/bun"
)

// Manager bundles the Bun-backed stores behind one handle so composition
// code wires a single dependency.
type Manager struct {
	db       *bun.DB
	users    *Users
	sessions *Sessions
}

// NewManager creates the stores on a shared *bun.DB.
func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:       db,
		users:    NewUsers(db),
		sessions: NewSessions(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository manager requires a database handle")
	}
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}
	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}
	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// DB exposes the underlying handle for schema work and ad hoc queries.
func (m *Manager) DB() *bun.DB {
	return m.db
}

func (m *Manager) Users() *Users {
	return m.users
}

func (m *Manager) Sessions() *Sessions {
	return m.sessions
}

// CreateTables bootstraps the schema from the Bun models. Production
// deployments should run the SQL migrations under data/sql/migrations
// instead; this exists for tests and throwaway databases.
func (m *Manager) CreateTables(ctx context.Context) error {
	if _, err := m.db.NewCreateTable().
		Model((*identity.User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return err
	}

	if _, err := m.db.NewCreateTable().
		Model((*identity.Session)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return err
	}

	return nil
}
