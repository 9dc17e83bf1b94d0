package cache

import (
	"context"
	"time"
)

// Cache is the read-through JSON cache used by listing queries. Auth and
// role state are never cached here; the guard re-reads those from the record
// store on every pass.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (hit bool, err error)
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}
