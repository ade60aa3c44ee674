package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dharmasatrya/flightfinder/internal/models"
)

const maxTxRetries = 16

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      30 * time.Minute,
	}
}

func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultRedisConfig().TTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisStore{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.State, error) {
	return load(ctx, s.client, generateKey(id))
}

// Update runs fn inside a WATCH transaction and retries when another writer
// touched the session in between.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*models.State) error) (*models.State, error) {
	key := generateKey(id)

	for attempt := 0; attempt < maxTxRetries; attempt++ {
		var st *models.State
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var err error
			st, err = load(ctx, tx, key)
			if err != nil {
				return err
			}
			if err := fn(st); err != nil {
				return err
			}
			st.UpdatedAt = time.Now()

			data, err := json.Marshal(st)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, s.ttl)
				return nil
			})
			return err
		}, key)

		if err == nil {
			return st, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("session: update of %s kept conflicting", id)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c getter, key string) (*models.State, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.State{}, nil
	}
	if err != nil {
		return nil, err
	}

	var st models.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("session: decode state: %w", err)
	}
	return &st, nil
}

func generateKey(id string) string {
	hash := sha256.Sum256([]byte(id))
	return "session:" + hex.EncodeToString(hash[:])
}
