package cache

import (
	"context"
	"log"
	"time"

	"github.com/go-monolith/mono"
	"github.com/redis/go-redis/v9"
)

// Module provides the caching service as a mono module. When no Redis
// address is configured, or the server is unreachable at startup, the
// module degrades to a no-op cache and the service runs uncached.
type Module struct {
	service   Service
	client    *redis.Client
	redisAddr string
	prefix    string
	ttl       time.Duration
}

// NewModule creates a cache module. An empty redisAddr disables caching.
func NewModule(redisAddr, prefix string, ttl time.Duration) *Module {
	return &Module{
		redisAddr: redisAddr,
		prefix:    prefix,
		ttl:       ttl,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Init connects to Redis, falling back to the no-op cache when the
// server is not reachable.
func (m *Module) Init(_ mono.ServiceContainer) error {
	if m.redisAddr == "" {
		log.Println("[cache] No Redis address configured, caching disabled")
		m.service = NewNoop()
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:         m.redisAddr,
		PoolSize:     50,
		MinIdleConns: 5,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.client.Ping(ctx).Err(); err != nil {
		log.Printf("[cache] Redis not reachable at %s, caching disabled: %v", m.redisAddr, err)
		_ = m.client.Close()
		m.client = nil
		m.service = NewNoop()
		return nil
	}

	m.service = New(m.client, m.prefix, m.ttl)
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.redisAddr, m.prefix, m.ttl)
	return nil
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	// Init may not have run when the module is used standalone.
	if m.service == nil {
		m.service = NewNoop()
	}
	log.Println("[cache] Module started")
	return nil
}

// Stop closes the Redis connection.
func (m *Module) Stop(_ context.Context) error {
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			log.Printf("[cache] Error closing Redis connection: %v", err)
			return err
		}
	}
	log.Println("[cache] Module stopped")
	return nil
}

// GetService returns the cache service.
func (m *Module) GetService() Service {
	return m.service
}

// HealthCheck verifies the backing store is reachable.
func (m *Module) HealthCheck(ctx context.Context) error {
	if m.service == nil {
		return nil
	}
	return m.service.Ping(ctx)
}
