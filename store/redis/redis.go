/*
Package redis provides a Redis-backed implementation of booking.Store.

The collection is a hash under booking.CollectionKey with two fields:
"data" (JSON blob) and "version". Writes run inside WATCH/MULTI so a write
based on a stale read aborts with booking.ErrConcurrentModification.

Client construction follows the usual environment layout:
REDIS_ADDR, REDIS_PASSWORD, REDIS_DB.
*/
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/oneearth/travel-engine/booking"
)

const (
	fieldData    = "data"
	fieldVersion = "version"
)

// Options configure the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

type Store struct {
	client *goredis.Client
	key    string
}

// New connects to Redis and pings it with a short timeout.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}
	return NewWithClient(client, booking.CollectionKey), nil
}

// NewWithClient wraps an existing client. key names the hash holding the
// collection.
func NewWithClient(client *goredis.Client, key string) *Store {
	return &Store{client: client, key: key}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) Read(ctx context.Context) (booking.Snapshot, error) {
	vals, err := s.client.HMGet(ctx, s.key, fieldData, fieldVersion).Result()
	if err != nil {
		return booking.Snapshot{}, fmt.Errorf("failed to read collection: %w", err)
	}
	return snapshotFrom(vals)
}

func (s *Store) Write(ctx context.Context, data []byte, expectedVersion int64) error {
	err := s.client.Watch(ctx, func(tx *goredis.Tx) error {
		vals, err := tx.HMGet(ctx, s.key, fieldData, fieldVersion).Result()
		if err != nil {
			return err
		}
		current, err := snapshotFrom(vals)
		if err != nil {
			return err
		}
		if current.Version != expectedVersion {
			return booking.ErrConcurrentModification
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.HSet(ctx, s.key, fieldData, data, fieldVersion, expectedVersion+1)
			return nil
		})
		return err
	}, s.key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, goredis.TxFailedErr), errors.Is(err, booking.ErrConcurrentModification):
		return booking.ErrConcurrentModification
	default:
		return fmt.Errorf("failed to write collection: %w", err)
	}
}

// Reset deletes the collection key (dev only).
func (s *Store) Reset(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func snapshotFrom(vals []any) (booking.Snapshot, error) {
	var snap booking.Snapshot
	if len(vals) != 2 || vals[0] == nil {
		return snap, nil
	}
	data, ok := vals[0].(string)
	if !ok {
		return snap, fmt.Errorf("unexpected data type %T", vals[0])
	}
	snap.Data = []byte(data)
	if v, ok := vals[1].(string); ok {
		if _, err := fmt.Sscan(v, &snap.Version); err != nil {
			return snap, fmt.Errorf("bad version %q: %w", v, err)
		}
	}
	return snap, nil
}
