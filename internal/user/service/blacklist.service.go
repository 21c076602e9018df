package service

import (
	"context"
	"fmt"
	"time"

	"bulletin/internal/user/repository"
	"bulletin/pkg/apperr"
	"bulletin/pkg/clock"
	"bulletin/pkg/logger"
	"bulletin/pkg/token"
)

// RevocationSkew extends the revocation window past a token's own expiration
// to absorb clock skew between token issuance and the check.
const RevocationSkew = 60 * time.Minute

type BlacklistService struct {
	Repo   *repository.BlacklistRepository
	Secret []byte
	Clock  clock.Clock
}

func NewBlacklistService(repo *repository.BlacklistRepository, secret []byte, clk clock.Clock) *BlacklistService {
	return &BlacklistService{Repo: repo, Secret: secret, Clock: clk}
}

// RevokeAll records a revocation for the presented token's user, copying the
// expiration from the token's own exp claim. The append is not deduplicated;
// older records for the same user become inert history.
func (s *BlacklistService) RevokeAll(ctx context.Context, tokenString string) error {
	claims, err := token.Parse(s.Secret, tokenString)
	if err != nil {
		return err
	}
	return s.Repo.Insert(ctx, tokenString, claims.Username, claims.ExpiresAt)
}

// IsRevoked reports whether the presented token falls inside its user's
// revocation window: the stored expiration must lie after the presented
// token's expiration minus the skew allowance. An unparseable token fails
// closed as an invalid-token error, never as "not revoked".
func (s *BlacklistService) IsRevoked(ctx context.Context, tokenString string) (bool, error) {
	claims, err := token.Parse(s.Secret, tokenString)
	if err != nil {
		return false, err
	}
	stored, err := s.Repo.LatestExpiration(ctx, claims.Username)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, nil
	}
	return stored.After(claims.ExpiresAt.Add(-RevocationSkew)), nil
}

// ValidateToken combines signature/expiry validity with the revocation check.
func (s *BlacklistService) ValidateToken(ctx context.Context, tokenString string) error {
	revoked, err := s.IsRevoked(ctx, tokenString)
	if err != nil {
		return err
	}
	if revoked {
		return fmt.Errorf("token revoked: %w", apperr.ErrInvalidToken)
	}
	return nil
}

// GCWorker periodically deletes revocation records whose expiration plus the
// grace window has passed. Run it in its own goroutine.
func (s *BlacklistService) GCWorker(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := s.Clock.Now().Add(-RevocationSkew)
		n, err := s.Repo.DeleteExpiredBefore(context.Background(), cutoff)
		if err != nil {
			continue // Logged by the repository; retry on the next tick.
		}
		if n > 0 {
			logger.Sugar.Infof("Garbage-collected %d expired revocation records", n)
		}
	}
}
