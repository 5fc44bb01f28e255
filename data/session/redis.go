package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/investgame/investgame/config"
	"github.com/investgame/investgame/internal/model"
	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// RedisSession stores login state under opaque uuid tokens, for users and
// admins alike. The token is the only thing the client ever holds.
type RedisSession struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisSession(redisClient *redis.Client, cfg *config.Config) *RedisSession {
	return &RedisSession{redis: redisClient, cfg: cfg}
}

func (s *RedisSession) Create(ctx context.Context, sess model.Session) (token string, err error) {
	token = uuid.NewString()

	sessJson, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	err = s.redis.Set(ctx, sessionKeyPrefix+token, sessJson, s.cfg.Session.Expiration).Err()
	if err != nil {
		return "", err
	}

	return token, nil
}

func (s *RedisSession) Get(ctx context.Context, token string) (model.Session, error) {
	res, err := s.redis.Get(ctx, sessionKeyPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.Session{}, ErrNotFound
		}
		return model.Session{}, err
	}

	sess := model.Session{}
	err = json.Unmarshal([]byte(res), &sess)
	if err != nil {
		return model.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}

	// Sliding expiration: touching a session keeps it alive.
	s.redis.Expire(ctx, sessionKeyPrefix+token, s.cfg.Session.Expiration)

	return sess, nil
}

func (s *RedisSession) Delete(ctx context.Context, token string) error {
	return s.redis.Del(ctx, sessionKeyPrefix+token).Err()
}
