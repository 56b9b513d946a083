// Package redis implements the store-driver boundary over a Redis
// connection.
package redis

import (
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	// Address is the Redis server address (host:port).
	Address string

	// Username for authentication (optional).
	Username string

	// Password for authentication (optional).
	Password string

	// DB selects the Redis database index.
	DB int

	// UseTLS enables TLS on the connection.
	UseTLS bool

	// DialTimeout is the timeout for establishing new connections.
	DialTimeout time.Duration

	// ReadTimeout is the timeout for socket reads.
	ReadTimeout time.Duration

	// WriteTimeout is the timeout for socket writes.
	WriteTimeout time.Duration

	// PoolSize is the maximum number of socket connections.
	PoolSize int

	// MinIdleConns is the minimum number of idle connections.
	MinIdleConns int

	// ScanPageSize is the COUNT hint for scan pages issued by
	// FetchAllKeys.
	ScanPageSize int64

	// DeleteBatchSize bounds the number of keys per DEL round trip.
	DeleteBatchSize int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Address:         "localhost:6379",
		DialTimeout:     5 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		PoolSize:        10,
		MinIdleConns:    2,
		ScanPageSize:    1000,
		DeleteBatchSize: 1000,
	}
}

// ConfigOption configures the Redis connection.
type ConfigOption func(*Config)

// WithAddress sets the Redis server address.
func WithAddress(addr string) ConfigOption {
	return func(c *Config) {
		c.Address = addr
	}
}

// WithAuth sets the authentication credentials.
func WithAuth(username, password string) ConfigOption {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithDB sets the database index.
func WithDB(db int) ConfigOption {
	return func(c *Config) {
		c.DB = db
	}
}

// WithTLS enables TLS.
func WithTLS() ConfigOption {
	return func(c *Config) {
		c.UseTLS = true
	}
}

// WithScanPageSize sets the COUNT hint for scan pages.
func WithScanPageSize(n int64) ConfigOption {
	return func(c *Config) {
		c.ScanPageSize = n
	}
}

// WithDeleteBatchSize sets the batch size for bulk deletes.
func WithDeleteBatchSize(n int) ConfigOption {
	return func(c *Config) {
		c.DeleteBatchSize = n
	}
}

// WithPoolSize sets the connection pool size.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithTimeouts sets connection timeouts.
func WithTimeouts(dial, read, write time.Duration) ConfigOption {
	return func(c *Config) {
		c.DialTimeout = dial
		c.ReadTimeout = read
		c.WriteTimeout = write
	}
}

// options builds the go-redis client options for the config.
func (c Config) options() *redis.Options {
	opts := &redis.Options{
		Addr:         c.Address,
		Username:     c.Username,
		Password:     c.Password,
		DB:           c.DB,
		DialTimeout:  c.DialTimeout,
		ReadTimeout:  c.ReadTimeout,
		WriteTimeout: c.WriteTimeout,
		PoolSize:     c.PoolSize,
		MinIdleConns: c.MinIdleConns,
	}
	if c.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}
