package repository

import (
	"context"

	"github.com/goliatone/go-identity"
	"github.com/uptrace/bun"
)

// Sessions implements identity.SessionStore.
type Sessions struct {
	db *bun.DB
}

var _ identity.SessionStore = (*Sessions)(nil)

// NewSessions returns a Bun-backed session store.
func NewSessions(db *bun.DB) *Sessions {
	return &Sessions{db: db}
}

func (r *Sessions) AddSession(ctx context.Context, session *identity.Session) (*identity.Session, error) {
	record := session.Clone()
	record.ID = 0

	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		return nil, unexpected("insert session", err)
	}

	return record, nil
}

func (r *Sessions) DeleteSession(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().
		Model((*identity.Session)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return unexpected("delete session", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return unexpected("read rows affected", err)
	}
	if rows == 0 {
		return identity.ErrSessionNotFound.Clone().
			WithMetadata(map[string]any{"session_id": id})
	}

	return nil
}

func (r *Sessions) GetSessionsByUserID(ctx context.Context, userID int64) ([]*identity.Session, error) {
	var records []*identity.Session
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, unexpected("select sessions by user", err)
	}

	if records == nil {
		records = []*identity.Session{}
	}
	return records, nil
}
