// Package redis provides a [store.Store] backed by Redis.
//
// Keys for a planogram id:
//
//	<prefix>:<id>:head       latest version number
//	<prefix>:<id>:v:<n>      hash {data, saved_at} for version n
//
// Put watches the head key and writes the new version hash and head inside a
// MULTI/EXEC transaction, so a concurrent writer aborts the transaction and
// surfaces as [store.ErrConflict].
package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfworks/planogram/pkg/store"
)

// DefaultPrefix namespaces all keys written by the store.
const DefaultPrefix = "planogram"

// Store is a Redis-backed versioned document store.
type Store struct {
	rdb    *redis.Client
	prefix string
	now    func() time.Time
}

// Open parses url, connects and verifies connectivity.
func Open(ctx context.Context, url, prefix string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, prefix), nil
}

// New wraps an existing client. An empty prefix selects DefaultPrefix.
func New(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix, now: time.Now}
}

func (s *Store) headKey(id string) string {
	return s.prefix + ":" + id + ":head"
}

func (s *Store) versionKey(id string, version int) string {
	return s.prefix + ":" + id + ":v:" + strconv.Itoa(version)
}

func (s *Store) head(ctx context.Context, c redis.Cmdable, id string) (int, error) {
	v, err := c.Get(ctx, s.headKey(id)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, classify("read head", err)
	}
	return v, nil
}

func (s *Store) Get(ctx context.Context, id string) (store.Document, error) {
	v, err := s.head(ctx, s.rdb, id)
	if err != nil {
		return store.Document{}, err
	}
	if v == 0 {
		return store.Document{}, store.ErrNotFound
	}
	return s.GetVersion(ctx, id, v)
}

func (s *Store) GetVersion(ctx context.Context, id string, version int) (store.Document, error) {
	if version < 1 {
		return store.Document{}, store.ErrNotFound
	}
	fields, err := s.rdb.HGetAll(ctx, s.versionKey(id, version)).Result()
	if err != nil {
		return store.Document{}, classify("read version", err)
	}
	data, ok := fields["data"]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	return store.Document{
		ID:      id,
		Version: version,
		Data:    []byte(data),
		SavedAt: parseMillis(fields["saved_at"]),
	}, nil
}

func (s *Store) Versions(ctx context.Context, id string) ([]store.VersionInfo, error) {
	latest, err := s.head(ctx, s.rdb, id)
	if err != nil {
		return nil, err
	}
	if latest == 0 {
		return nil, store.ErrNotFound
	}

	pipe := s.rdb.Pipeline()
	sizes := make([]*redis.IntCmd, latest)
	stamps := make([]*redis.StringCmd, latest)
	for v := 1; v <= latest; v++ {
		sizes[v-1] = pipe.HStrLen(ctx, s.versionKey(id, v), "data")
		stamps[v-1] = pipe.HGet(ctx, s.versionKey(id, v), "saved_at")
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, classify("list versions", err)
	}

	out := make([]store.VersionInfo, 0, latest)
	for v := 1; v <= latest; v++ {
		stamp, err := stamps[v-1].Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		out = append(out, store.VersionInfo{
			Version: v,
			SavedAt: parseMillis(stamp),
			Size:    int(sizes[v-1].Val()),
		})
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, id string, data []byte, expectedVersion int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := store.ValidateID(id); err != nil {
		return 0, err
	}

	next := expectedVersion + 1
	txf := func(tx *redis.Tx) error {
		latest, err := s.head(ctx, tx, id)
		if err != nil {
			return err
		}
		if latest != expectedVersion {
			return store.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.versionKey(id, next),
				"data", data,
				"saved_at", strconv.FormatInt(s.now().UTC().UnixMilli(), 10))
			pipe.Set(ctx, s.headKey(id), next, 0)
			return nil
		})
		return err
	}

	err := s.rdb.Watch(ctx, txf, s.headKey(id))
	switch {
	case err == nil:
		return next, nil
	case errors.Is(err, redis.TxFailedErr), errors.Is(err, store.ErrConflict):
		return 0, store.ErrConflict
	case store.IsRetryable(err):
		return 0, err
	default:
		return 0, classify("put version", err)
	}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.rdb.Close()
}

// classify wraps err, marking connection failures as retryable.
func classify(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.Retryable(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func parseMillis(s string) time.Time {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

var _ store.Store = (*Store)(nil)
