package compare

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix     = "driveops:compare:"
	channelPrefix = "driveops:compare:events:"

	// selections of idle owners expire after this long
	selectionTTL = 30 * 24 * time.Hour

	maxTxRetries = 5
)

// RedisStore keeps selections as JSON strings in Redis and fans changes out
// over pub/sub, so every API instance sees the same selection.
type RedisStore struct {
	client *redis.Client
	limit  int
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, limit int) *RedisStore {
	return &RedisStore{client: client, limit: capOrDefault(limit)}
}

// DialRedis parses url, connects, and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Cap implements Store.
func (s *RedisStore) Cap() int { return s.limit }

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, owner string) ([]string, error) {
	return get(ctx, s.client, owner)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, owner string) ([]string, error) {
	raw, err := c.Get(ctx, keyPrefix+owner).Bytes()
	if errors.Is(err, redis.Nil) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	return ids, nil
}

// Replace implements Store.
func (s *RedisStore) Replace(ctx context.Context, owner string, ids []string) ([]string, error) {
	next := clean(ids)
	if len(next) > s.limit {
		return nil, ErrFull
	}
	if err := s.write(ctx, s.client, owner, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Toggle implements Store. The read-modify-write runs under WATCH and is
// retried when another writer got there first.
func (s *RedisStore) Toggle(ctx context.Context, owner, id string) ([]string, error) {
	id = strings.TrimSpace(id)
	key := keyPrefix + owner
	var next []string
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			cur, err := get(ctx, tx, owner)
			if err != nil {
				return err
			}
			next, err = toggle(cur, id, s.limit)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				return s.write(ctx, p, owner, next)
			})
			return err
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return next, nil
	}
	return nil, fmt.Errorf("toggle selection: %w", redis.TxFailedErr)
}

// Clear implements Store.
func (s *RedisStore) Clear(ctx context.Context, owner string) error {
	return s.write(ctx, s.client, owner, nil)
}

// Subscribe implements Store.
func (s *RedisStore) Subscribe(ctx context.Context, owner string) (<-chan []string, error) {
	ps := s.client.Subscribe(ctx, channelPrefix+owner)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	out := make(chan []string, 1)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ids []string
				if err := json.Unmarshal([]byte(m.Payload), &ids); err != nil {
					log.Warn().Err(err).Str("owner", owner).Msg("compare: bad selection event")
					continue
				}
				select {
				case <-out:
				default:
				}
				out <- ids
			}
		}
	}()
	return out, nil
}

type writer interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

func (s *RedisStore) write(ctx context.Context, w writer, owner string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		err = w.Del(ctx, keyPrefix+owner).Err()
	} else {
		err = w.Set(ctx, keyPrefix+owner, payload, selectionTTL).Err()
	}
	if err != nil {
		return err
	}
	return w.Publish(ctx, channelPrefix+owner, payload).Err()
}
