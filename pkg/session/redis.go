package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/coprodeli/coprodelito/pkg/config"
)

// RedisStore keeps snapshots in redis so sessions survive restarts and can
// be shared between processes. Snapshots are stored as JSON under
// {prefix}{subject} with the configured TTL.
type RedisStore struct {
	client *redis.Client
	opts   options
}

func NewRedisStore(cfg config.RedisConfig, opts ...Option) (*RedisStore, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, opts: o}, nil
}

func (r *RedisStore) Save(ctx context.Context, sess *Session) error {
	key := r.key(sess.SubjectID)

	// The registry serializes turns per subject in-process; the version
	// check here catches a second process writing the same subject.
	if data, err := r.client.Get(ctx, key).Bytes(); err == nil {
		var stored Session
		if err := json.Unmarshal(data, &stored); err == nil && stored.Version > sess.Version {
			return ErrVersionConflict
		}
	} else if !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis get: %w", err)
	}

	sess.Version++
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.client.Set(ctx, key, data, r.opts.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, subjectID string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(subjectID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (r *RedisStore) Delete(ctx context.Context, subjectID string) error {
	if err := r.client.Del(ctx, r.key(subjectID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(subjectID string) string {
	return r.opts.keyPrefix + subjectID
}

var _ Store = (*RedisStore)(nil)
