package progress

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ekaraca/hazirlik/internal/model"
)

// checkpointTTL bounds how long an abandoned attempt stays resumable.
const checkpointTTL = 7 * 24 * time.Hour

// RedisStore keeps checkpoints in Redis, one key per user/kind pair.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func checkpointKey(userID int64, kind model.SessionKind) string {
	return fmt.Sprintf("progress:%d:%s", userID, kind)
}

func (s *RedisStore) Save(userID int64, kind model.SessionKind, state *model.SessionState) error {
	if userID == 0 {
		return nil
	}
	payload, err := marshalState(state)
	if err != nil {
		return err
	}
	return s.client.Set(context.Background(), checkpointKey(userID, kind), payload, checkpointTTL).Err()
}

func (s *RedisStore) Load(userID int64, kind model.SessionKind) (*model.SessionState, error) {
	if userID == 0 {
		return nil, nil
	}
	payload, err := s.client.Get(context.Background(), checkpointKey(userID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalState(userID, kind, payload), nil
}

func (s *RedisStore) Clear(userID int64, kind model.SessionKind) error {
	if userID == 0 {
		return nil
	}
	return s.client.Del(context.Background(), checkpointKey(userID, kind)).Err()
}
