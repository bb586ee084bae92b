// Package redis keeps the decision ID index in Redis so several readers can
// share it.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "xai:audit:decision:"

// Index is an audit.Index backed by Redis string keys.
type Index struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

type Option func(*Index)

// WithKeyPrefix namespaces keys, for example per environment.
func WithKeyPrefix(prefix string) Option {
	return func(i *Index) {
		i.prefix = prefix
	}
}

// WithTTL expires entries after ttl. Expired IDs fall back to a store scan.
func WithTTL(ttl time.Duration) Option {
	return func(i *Index) {
		i.ttl = ttl
	}
}

func New(client redis.Cmdable, opts ...Option) *Index {
	i := &Index{client: client, prefix: keyPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Put records pos for decisionID unless an earlier position is already set.
func (i *Index) Put(ctx context.Context, decisionID string, pos int64) error {
	if err := i.client.SetArgs(ctx, i.prefix+decisionID, pos, redis.SetArgs{Mode: "NX", TTL: i.ttl}).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("index put: %w", err)
	}
	return nil
}

func (i *Index) Lookup(ctx context.Context, decisionID string) (int64, bool, error) {
	v, err := i.client.Get(ctx, i.prefix+decisionID).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("index lookup: %w", err)
	}
	pos, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("index lookup: bad position %q", v)
	}
	return pos, true, nil
}
