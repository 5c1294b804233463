package cache

import "time"

// RedisOption configures NewRedisCache.
type RedisOption func(*redisOptions)

type redisOptions struct {
	host     string
	port     int
	password string
	db       int
	prefix   string
}

func defaultRedisOptions() redisOptions {
	return redisOptions{
		host:   "localhost",
		port:   6379,
		prefix: "newsedge",
	}
}

// WithRedisHost sets the Redis host.
func WithRedisHost(host string) RedisOption {
	return func(o *redisOptions) {
		if host != "" {
			o.host = host
		}
	}
}

// WithRedisPort sets the Redis port.
func WithRedisPort(port int) RedisOption {
	return func(o *redisOptions) {
		if port > 0 {
			o.port = port
		}
	}
}

// WithRedisPassword sets the Redis password.
func WithRedisPassword(password string) RedisOption {
	return func(o *redisOptions) {
		o.password = password
	}
}

// WithRedisDB selects the Redis logical database.
func WithRedisDB(db int) RedisOption {
	return func(o *redisOptions) {
		if db >= 0 {
			o.db = db
		}
	}
}

// MemoryOption configures NewMemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	maxEntries      int
	cleanupInterval time.Duration
}

func defaultMemoryOptions() memoryOptions {
	return memoryOptions{
		maxEntries:      1000,
		cleanupInterval: 5 * time.Minute,
	}
}

// WithMemoryMaxSize caps the entry count before eviction kicks in.
func WithMemoryMaxSize(n int) MemoryOption {
	return func(o *memoryOptions) {
		if n > 0 {
			o.maxEntries = n
		}
	}
}

// WithMemoryCleanup sets how often expired entries are swept out.
func WithMemoryCleanup(interval time.Duration) MemoryOption {
	return func(o *memoryOptions) {
		if interval > 0 {
			o.cleanupInterval = interval
		}
	}
}

// LayeredOption configures NewLayeredCache.
type LayeredOption func(*layeredOptions)

type layeredOptions struct {
	memoryMaxSize int
}

// WithLayeredMemorySize caps the in-process layer's entry count.
func WithLayeredMemorySize(n int) LayeredOption {
	return func(o *layeredOptions) {
		if n > 0 {
			o.memoryMaxSize = n
		}
	}
}
