// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/lms/internal/platform/dberr"
)

// UserColumns is the column list every user query selects, in [ScanUser] order.
const UserColumns = `id, email, first_name, last_name, hashed_password, bio, role,
	is_active, is_verified, last_login_at, created_at, updated_at`

// ScanUser reads one row selected with [UserColumns].
func ScanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.PasswordHash,
		&user.Bio,
		&user.Role,
		&user.IsActive,
		&user.IsVerified,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// # User Repository

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// FindByID returns the account with the given ID.
func (repository *PostgresUserRepository) FindByID(context context.Context, id int64) (*User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE id = $1`

	user, err := ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_id")
	}
	return user, nil
}

// FindByEmail returns the account registered under email, ignoring case.
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `SELECT ` + UserColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`

	user, err := ScanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_email")
	}
	return user, nil
}

// Create inserts a new account and back-fills its generated fields.
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users (email, first_name, last_name, hashed_password, bio, role, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := repository.pool.QueryRow(context, query,
		user.Email,
		user.FirstName,
		user.LastName,
		user.PasswordHash,
		user.Bio,
		user.Role,
		user.IsActive,
		user.IsVerified,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_create")
	}
	return nil
}

// UpdatePassword replaces only the password hash.
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID int64, passwordHash string) error {
	const query = `UPDATE users SET hashed_password = $2, updated_at = NOW() WHERE id = $1`

	tag, err := repository.pool.Exec(context, query, userID, passwordHash)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_update_password")
	}
	if tag.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, "User", "postgres_user_repo_update_password")
	}
	return nil
}

// TouchLastLogin stamps last_login_at without bumping updated_at.
func (repository *PostgresUserRepository) TouchLastLogin(context context.Context, userID int64, at time.Time) error {
	const query = `UPDATE users SET last_login_at = $2 WHERE id = $1`

	if _, err := repository.pool.Exec(context, query, userID, at); err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_touch_last_login")
	}
	return nil
}

// # Resource Repository

// PostgresResourceRepository implements [ResourceRepository] over the
// courses and blog_posts tables.
type PostgresResourceRepository struct {
	pool *pgxpool.Pool
}

// NewResourceRepository creates a new PostgreSQL implementation of the ResourceRepository.
func NewResourceRepository(pool *pgxpool.Pool) *PostgresResourceRepository {
	return &PostgresResourceRepository{pool: pool}
}

// FindCourse returns the course owner view.
func (repository *PostgresResourceRepository) FindCourse(context context.Context, id int64) (*CourseRecord, error) {
	const query = `SELECT id, instructor_id FROM courses WHERE id = $1`

	record := &CourseRecord{}
	if err := repository.pool.QueryRow(context, query, id).Scan(&record.ID, &record.InstructorID); err != nil {
		return nil, dberr.Wrap(err, "Course", "postgres_resource_repo_find_course")
	}
	return record, nil
}

// FindPost returns the blog post owner view.
func (repository *PostgresResourceRepository) FindPost(context context.Context, id int64) (*PostRecord, error) {
	const query = `SELECT id, author_id FROM blog_posts WHERE id = $1`

	record := &PostRecord{}
	if err := repository.pool.QueryRow(context, query, id).Scan(&record.ID, &record.AuthorID); err != nil {
		return nil, dberr.Wrap(err, "Post", "postgres_resource_repo_find_post")
	}
	return record, nil
}
