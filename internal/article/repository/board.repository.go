package repository

import (
	"context"
	"database/sql"

	"bulletin/pkg/logger"
)

type BoardRepository struct {
	DB *sql.DB
}

func NewBoardRepository(db *sql.DB) *BoardRepository {
	return &BoardRepository{DB: db}
}

func (r *BoardRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM boards WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		logger.Sugar.Errorf("Failed to check board %d: %v", id, err)
	}
	return exists, err
}
