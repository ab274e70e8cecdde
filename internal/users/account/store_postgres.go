// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lms/internal/platform/dberr"
	"github.com/taibuivan/lms/internal/platform/sec"
	"github.com/taibuivan/lms/internal/users/auth"
	"github.com/taibuivan/lms/pkg/pagination"
)

// # Repository Implementation

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new Postgres implementation for profile management.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// FindByID retrieves a user record from the users table.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id int64) (*auth.User, error) {
	query := `SELECT ` + auth.UserColumns + ` FROM users WHERE id = $1`

	user, err := auth.ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_account_repo_find_by_id")
	}
	return user, nil
}

/*
UpdateProfile syncs the first name, last name and bio, and refreshes
updated_at on the entity.
*/
func (repository *PostgresAccountRepository) UpdateProfile(context context.Context, user *auth.User) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, bio = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := repository.pool.QueryRow(context, query, user.ID, user.FirstName, user.LastName, user.Bio).Scan(&user.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_account_repo_update_profile")
	}
	return nil
}

// UpdateAccess sets role and active flag.
func (repository *PostgresAccountRepository) UpdateAccess(context context.Context, id int64, role sec.UserRole, isActive bool) error {
	const query = `UPDATE users SET role = $2, is_active = $3, updated_at = NOW() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, id, role, isActive)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_account_repo_update_access")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User", "postgres_account_repo_update_access")
	}
	return nil
}

/*
List returns one page of users ordered by creation, newest first.

Description: Filters are appended as positional arguments; the count and
page queries share the same WHERE clause.
*/
func (repository *PostgresAccountRepository) List(context context.Context, filter ListFilter, params pagination.Params) ([]*auth.User, int, error) {
	where, args := buildListFilter(filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM users` + where
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "User", "postgres_account_repo_count")
	}

	pageQuery := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		auth.UserColumns, where, len(args)+1, len(args)+2)

	rows, err := repository.pool.Query(context, pageQuery, append(args, params.Limit, params.Offset())...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "User", "postgres_account_repo_list")
	}
	defer rows.Close()

	users := make([]*auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := auth.ScanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "User", "postgres_account_repo_list_scan")
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "User", "postgres_account_repo_list_rows")
	}

	return users, total, nil
}

// buildListFilter renders the WHERE clause for [ListFilter].
func buildListFilter(filter ListFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", n, n, n))
	}
	if len(filter.Roles) > 0 {
		roles := make([]string, len(filter.Roles))
		for i, role := range filter.Roles {
			roles[i] = string(role)
		}
		args = append(args, roles)
		conditions = append(conditions, fmt.Sprintf("role = ANY($%d)", len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}
