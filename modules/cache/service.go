// Package cache provides a Redis-based caching layer with cache-aside pattern.
package cache

import (
	"context"
	"time"
)

// Service defines the caching operations used by the task service.
// Implementations must tolerate being called with any JSON-marshalable
// value; the task service treats every cache failure as a miss.
type Service interface {
	// Get retrieves a value and unmarshals it into dest. Returns true
	// on a cache hit.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a value with the default TTL.
	Set(ctx context.Context, key string, value any) error

	// SetWithTTL stores a value with a custom TTL.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching a glob pattern, scoped to
	// this cache's prefix.
	DeletePattern(ctx context.Context, pattern string) error

	// Stats returns a snapshot of hit/miss counters.
	Stats() StatsSnapshot

	// ResetStats zeroes all counters.
	ResetStats()

	// Ping checks the backing store connection.
	Ping(ctx context.Context) error

	// Close releases the backing store connection.
	Close() error
}

// noop is the Service used when no Redis server is configured. Every
// Get is a miss, every write succeeds without effect.
type noop struct{}

// NewNoop returns a Service that caches nothing.
func NewNoop() Service {
	return noop{}
}

func (noop) Get(context.Context, string, any) (bool, error)               { return false, nil }
func (noop) Set(context.Context, string, any) error                       { return nil }
func (noop) SetWithTTL(context.Context, string, any, time.Duration) error { return nil }
func (noop) Delete(context.Context, string) error                         { return nil }
func (noop) DeletePattern(context.Context, string) error                  { return nil }
func (noop) Stats() StatsSnapshot                                         { return StatsSnapshot{} }
func (noop) ResetStats()                                                  {}
func (noop) Ping(context.Context) error                                   { return nil }
func (noop) Close() error                                                 { return nil }
