package repository

import (
	"context"
	"database/sql"
	"time"

	"bulletin/pkg/logger"
)

// BlacklistRepository persists token revocation records. Rows are append-only:
// multiple revocations for the same user coexist and only the most recently
// expiring one is ever consulted.
type BlacklistRepository struct {
	DB *sql.DB
}

func NewBlacklistRepository(db *sql.DB) *BlacklistRepository {
	return &BlacklistRepository{DB: db}
}

func (r *BlacklistRepository) Insert(ctx context.Context, tokenString, username string, expiration time.Time) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO jwt_blacklist (token, username, expiration_time) VALUES ($1, $2, $3)`,
		tokenString, username, expiration)
	if err != nil {
		logger.Sugar.Errorf("Failed to record token revocation for %s: %v", username, err)
	}
	return err
}

// LatestExpiration returns the most recently expiring revocation record for a
// user, or nil when no revocation exists.
func (r *BlacklistRepository) LatestExpiration(ctx context.Context, username string) (*time.Time, error) {
	var ts time.Time
	err := r.DB.QueryRowContext(ctx, `
		SELECT expiration_time FROM jwt_blacklist
		WHERE username = $1
		ORDER BY expiration_time DESC LIMIT 1`, username).Scan(&ts)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to load revocation record for %s: %v", username, err)
		return nil, err
	}
	return &ts, nil
}

// DeleteExpiredBefore drops records whose expiration lies before the cutoff.
func (r *BlacklistRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		`DELETE FROM jwt_blacklist WHERE expiration_time < $1`, cutoff)
	if err != nil {
		logger.Sugar.Errorf("Failed to garbage-collect revocation records: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}
