package repository

import (
	"context"
	"database/sql"
	"fmt"

	"bulletin/internal/user/model"
	"bulletin/pkg/apperr"
	"bulletin/pkg/logger"
)

type UserRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(ctx context.Context, username, hashedPassword, email string) (*model.User, error) {
	user := &model.User{Username: username, Password: hashedPassword, Email: email}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, password, email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		username, hashedPassword, email,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create user %s: %v", username, err)
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, username, password, email, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", username, apperr.ErrNotFound)
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load user %s: %v", username, err)
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, username, password, email, created_at FROM users ORDER BY id`)
	if err != nil {
		logger.Sugar.Errorf("Failed to list users: %v", err)
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var user model.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Password, &user.Email, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete user %d: %v", id, err)
	}
	return err
}
