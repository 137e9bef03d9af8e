// Package repository implements the identity storage contracts on top of
// Bun. Uniqueness is enforced by native constraints, not read-then-write,
// so concurrent signups for the same key cannot both land.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-identity"
	"github.com/uptrace/bun"
)

// Users implements identity.UserStore.
type Users struct {
	db     *bun.DB
	policy identity.ValidationPolicy
}

var _ identity.UserStore = (*Users)(nil)

// NewUsers returns a Bun-backed user store.
func NewUsers(db *bun.DB) *Users {
	return &Users{
		db:     db,
		policy: identity.DefaultValidationPolicy,
	}
}

// WithPolicy swaps the validation policy applied on AddUser.
func (r *Users) WithPolicy(policy identity.ValidationPolicy) *Users {
	r.policy = policy
	return r
}

func (r *Users) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.getUniqueUser(ctx, "email", email)
}

func (r *Users) GetUserByUsername(ctx context.Context, username string) (*identity.User, error) {
	return r.getUniqueUser(ctx, "username", username)
}

func (r *Users) GetUsersByUsernames(ctx context.Context, usernames []string) ([]*identity.User, error) {
	if len(usernames) == 0 {
		return []*identity.User{}, nil
	}

	var records []*identity.User
	err := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.username IN (?)", bun.In(usernames)).
		Scan(ctx)
	if err != nil {
		return nil, unexpected("select users by usernames", err)
	}

	if records == nil {
		records = []*identity.User{}
	}
	return records, nil
}

func (r *Users) AddUser(ctx context.Context, user *identity.User) (*identity.User, error) {
	if err := identity.ValidateUserWithPolicy(user, r.policy); err != nil {
		return nil, err
	}

	record := user.Clone()
	record.ID = 0
	record.Sessions = nil

	_, err := r.db.NewInsert().Model(record).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerrors.New(
				fmt.Sprintf("there is a user with the username %q or email %q", user.Username, user.Email),
				goerrors.CategoryConflict,
			).WithTextCode(identity.TextCodeUserExists).WithCode(goerrors.CodeConflict)
		}
		return nil, unexpected("insert user", err)
	}

	return record, nil
}

func (r *Users) UpdateUserPassword(ctx context.Context, username, passwordHash string) (*identity.User, error) {
	res, err := r.db.NewUpdate().
		Model((*identity.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return nil, unexpected("update user password", err)
	}
	if err := requireRows(res, "username", username); err != nil {
		return nil, err
	}

	return r.GetUserByUsername(ctx, username)
}

func (r *Users) UpdateUser(ctx context.Context, username string, patch identity.UserPatch) (*identity.User, error) {
	res, err := r.db.NewUpdate().
		Model((*identity.User)(nil)).
		Set("email = ?", patch.Email).
		Set("verified = ?", patch.Verified).
		Set("first_name = ?", patch.FirstName).
		Set("last_name = ?", patch.LastName).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, goerrors.New(
				fmt.Sprintf("there is a user with the email %q", patch.Email),
				goerrors.CategoryConflict,
			).WithTextCode(identity.TextCodeUserExists).WithCode(goerrors.CodeConflict)
		}
		return nil, unexpected("update user", err)
	}
	if err := requireRows(res, "username", username); err != nil {
		return nil, err
	}

	return r.GetUserByUsername(ctx, username)
}

// getUniqueUser scans up to two rows so a broken unique constraint is
// reported as corruption instead of silently returning the first match.
func (r *Users) getUniqueUser(ctx context.Context, column, value string) (*identity.User, error) {
	var records []*identity.User
	err := r.db.NewSelect().
		Model(&records).
		Where(fmt.Sprintf("?TableAlias.%s = ?", column), value).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return nil, unexpected(fmt.Sprintf("select user by %s", column), err)
	}

	switch {
	case len(records) == 0:
		return nil, goerrors.New(
			fmt.Sprintf("there is no user with the %s %q", column, value),
			goerrors.CategoryNotFound,
		).WithTextCode(identity.TextCodeUserNotFound).WithCode(goerrors.CodeNotFound)
	case len(records) > 1:
		return nil, goerrors.New(
			fmt.Sprintf("there is more than one user with the %s %q", column, value),
			goerrors.CategoryInternal,
		).WithTextCode(identity.TextCodeStoreCorrupted)
	}

	return records[0], nil
}

func requireRows(res sql.Result, field, value string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return unexpected("read rows affected", err)
	}
	if rows == 0 {
		return goerrors.New(
			fmt.Sprintf("there is no user with the %s %q", field, value),
			goerrors.CategoryNotFound,
		).WithTextCode(identity.TextCodeUserNotFound).WithCode(goerrors.CodeNotFound)
	}
	return nil
}

func unexpected(op string, err error) error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, op+" failed").
		WithTextCode(identity.TextCodeUnexpected)
}

// isUniqueViolation matches the unique-constraint wording of the sqlite
// and postgres drivers without importing either.
func isUniqueViolation(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
