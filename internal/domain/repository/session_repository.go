package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credtrack/internal/common"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	resetKeyPrefix   = "pwreset:"
)

// SessionRepository tracks live auth tokens and password reset tokens.
// A token is valid only while its jti is present here, which is what makes
// single-token revocation on logout possible.
type SessionRepository interface {
	Create(ctx context.Context, jti, userID string, ttl time.Duration) error
	Exists(ctx context.Context, jti string) (bool, error)
	Delete(ctx context.Context, jti string) error

	CreateResetToken(ctx context.Context, token, userID string, ttl time.Duration) error
	ConsumeResetToken(ctx context.Context, token string) (string, error)
}

type redisSessionRepository struct {
	rdb *redis.Client
}

func NewRedisSessionRepository(rdb *redis.Client) SessionRepository {
	return &redisSessionRepository{rdb: rdb}
}

func (r *redisSessionRepository) Create(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, sessionKeyPrefix+jti, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redisSessionRepository.Create: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, sessionKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("redisSessionRepository.Exists: %w", err)
	}
	return n > 0, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, jti string) error {
	if err := r.rdb.Del(ctx, sessionKeyPrefix+jti).Err(); err != nil {
		return fmt.Errorf("redisSessionRepository.Delete: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) CreateResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, resetKeyPrefix+token, userID, ttl).Err(); err != nil {
		return fmt.Errorf("redisSessionRepository.CreateResetToken: %w", err)
	}
	return nil
}

// ConsumeResetToken returns the owning user id and invalidates the token in
// one round trip, so a reset link can be used at most once.
func (r *redisSessionRepository) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	userID, err := r.rdb.GetDel(ctx, resetKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", common.ErrNotFound
		}
		return "", fmt.Errorf("redisSessionRepository.ConsumeResetToken: %w", err)
	}
	return userID, nil
}
