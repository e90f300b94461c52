package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"posada/internal/core/apperror"
	"posada/internal/core/id"
	"posada/internal/domain/auth"
)

const (
	usersTable     = "users"
	userRolesTable = "user_roles"
)

var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	columns []string
}

// NewUserRepo creates a new user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{
		columns: ExtractDBColumns[auth.User](),
	}
}

func (r *UserRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *UserRepo) getByColumn(ctx context.Context, col string, val any) (*auth.User, error) {
	sql, args, err := r.builder().
		Select(r.columns...).
		From(usersTable).
		Where(squirrel.Eq{col: val}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var user auth.User
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &user, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("user", val)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	return r.getByColumn(ctx, "id", userID)
}

// GetByEmail retrieves a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	return r.getByColumn(ctx, "email", email)
}

// Update persists login bookkeeping fields.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	sql, args, err := r.builder().
		Update(usersTable).
		Set("last_login_at", user.LastLoginAt).
		Set("failed_login_attempts", user.FailedLoginAttempts).
		Set("locked_until", user.LockedUntil).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

// LoadRoles loads the user's role codes.
func (r *UserRepo) LoadRoles(ctx context.Context, userID id.ID) ([]string, error) {
	sql, args, err := r.builder().
		Select("role").
		From(userRolesTable).
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("role").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var roles []string
	querier := MustGetTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &roles, sql, args...); err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	return roles, nil
}
