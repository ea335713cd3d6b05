package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/melodymind/internal/models"
	"github.com/desertthunder/melodymind/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "melodymind:status:"
	statusTTL        = 24 * time.Hour
	maxTxRetries     = 10
)

// getter is satisfied by both *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStatusStore shares transfer statuses through Redis.
//
// Every write is also published on "{prefix}updates:{session}".
type RedisStatusStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStatusStore wraps client. An empty prefix uses "melodymind:status:".
func NewRedisStatusStore(client *redis.Client, prefix string) *RedisStatusStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStatusStore{client: client, prefix: prefix, ttl: statusTTL}
}

// DialRedisStatusStore connects using cfg and verifies the server answers.
func DialRedisStatusStore(ctx context.Context, cfg shared.StatusConfig) (*RedisStatusStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", shared.ErrServiceUnavailable, cfg.RedisAddr, err)
	}
	return NewRedisStatusStore(client, cfg.KeyPrefix), nil
}

// Close closes the client.
func (r *RedisStatusStore) Close() error {
	return r.client.Close()
}

// Key returns the Redis key for session.
func (r *RedisStatusStore) Key(session string) string {
	return r.prefix + session
}

// Channel returns the pub/sub channel for session.
func (r *RedisStatusStore) Channel(session string) string {
	return r.prefix + "updates:" + session
}

// Get implements [StatusStore].
func (r *RedisStatusStore) Get(ctx context.Context, session string) (models.TransferStatus, error) {
	return r.read(ctx, r.client, session)
}

// Set implements [StatusStore].
func (r *RedisStatusStore) Set(ctx context.Context, session string, status models.TransferStatus) error {
	status.UpdatedAt = time.Now()
	data, err := encodeStatus(status)
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.Key(session), data, r.ttl)
		pipe.Publish(ctx, r.Channel(session), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: redis set: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

// Update implements [StatusStore] with WATCH/MULTI, retrying when another writer wins.
func (r *RedisStatusStore) Update(ctx context.Context, session string, fn func(*models.TransferStatus)) error {
	key := r.Key(session)

	txf := func(tx *redis.Tx) error {
		status, err := r.read(ctx, tx, session)
		if err != nil {
			return err
		}
		fn(&status)
		status.UpdatedAt = time.Now()

		data, err := encodeStatus(status)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, r.ttl)
			pipe.Publish(ctx, r.Channel(session), data)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: redis update: %v", shared.ErrServiceUnavailable, err)
		}
		return nil
	}
	return fmt.Errorf("%w: redis update of %s kept conflicting", shared.ErrServiceUnavailable, key)
}

func (r *RedisStatusStore) read(ctx context.Context, c getter, session string) (models.TransferStatus, error) {
	data, err := c.Get(ctx, r.Key(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.IdleStatus(), nil
	}
	if err != nil {
		return models.TransferStatus{}, fmt.Errorf("%w: redis get: %v", shared.ErrServiceUnavailable, err)
	}
	return decodeStatus(data)
}

func encodeStatus(s models.TransferStatus) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return data, nil
}

func decodeStatus(data []byte) (models.TransferStatus, error) {
	var s models.TransferStatus
	if err := json.Unmarshal(data, &s); err != nil {
		return models.TransferStatus{}, fmt.Errorf("%w: corrupt status record: %v", shared.ErrInvalidInput, err)
	}
	if s.Status == "" {
		s.Status = models.StatusIdle
	}
	return s, nil
}
