package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gittogether/api/internal/models"
)

const userColumns = `
	u.id, u.first_name, u.last_name, u.email, u.password_hash, u.date_of_birth, u.age,
	u.gender, u.about, u.skills, u.image_key, u.image_content_type, u.image_user_uploaded,
	u.image_version, u.created_at, u.updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, user models.User) error {
	const query = `
		INSERT INTO users (
			id, first_name, last_name, email, password_hash, date_of_birth, age, gender, about, skills,
			image_key, image_content_type, image_user_uploaded, image_version, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW()
		)
	`

	skills := user.Skills
	if skills == nil {
		skills = []string{}
	}

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.DateOfBirth,
		user.Age,
		user.Gender,
		user.About,
		skills,
		user.ProfileImage.Key,
		user.ProfileImage.ContentType,
		user.ProfileImage.IsUserUploaded,
		user.ProfileImage.Version,
	)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.email = $1`
	return r.queryOne(ctx, query, email)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.queryOne(ctx, query, id)
}

// ListExcluding returns users whose id is not in exclude, in insertion order.
func (r *UserRepository) ListExcluding(ctx context.Context, exclude []string, limit, offset int) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		WHERE u.id <> ALL($1)
		ORDER BY u.created_at, u.id
		LIMIT $2 OFFSET $3
	`
	if exclude == nil {
		exclude = []string{}
	}

	rows, err := r.pool.Query(ctx, query, exclude, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return collectUsers(rows)
}

func (r *UserRepository) queryOne(ctx context.Context, query string, args ...any) (models.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("query user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row, extra ...any) (models.User, error) {
	var user models.User
	dest := []any{
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.DateOfBirth,
		&user.Age,
		&user.Gender,
		&user.About,
		&user.Skills,
		&user.ProfileImage.Key,
		&user.ProfileImage.ContentType,
		&user.ProfileImage.IsUserUploaded,
		&user.ProfileImage.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]models.User, error) {
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
