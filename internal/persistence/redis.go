package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/studio-booking/internal/config"
)

// Redis holds the shared client plus the namespace every key is written under,
// so several deployments can share one instance.
type Redis struct {
	Client *redis.Client
	prefix string
}

// NewRedis builds the client. An unreachable server is logged, not fatal:
// the rate limiter fails open and the health endpoint reports it.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	r := &Redis{Client: client, prefix: strings.Trim(cfg.KeyPrefix, ":")}

	if err := r.Ping(context.Background()); err != nil {
		logger.Warn("redis unreachable, rate limiting will fail open",
			zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis ready", zap.String("addr", cfg.Addr), zap.String("prefix", r.prefix))
	}
	return r
}

// Key joins parts under the configured namespace, e.g. "studio:ratelimit".
func (r *Redis) Key(parts ...string) string {
	segments := make([]string, 0, len(parts)+1)
	if r != nil && r.prefix != "" {
		segments = append(segments, r.prefix)
	}
	for _, part := range parts {
		if part = strings.Trim(part, ":"); part != "" {
			segments = append(segments, part)
		}
	}
	return strings.Join(segments, ":")
}

func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping is used by the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
