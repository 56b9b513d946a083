// Package resilience bounds the latency and concurrency of store page
// fetches using fortify.
package resilience

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"

	"github.com/felixgeelhaar/keyscope/domain/browse"
)

// PageExecutor runs page fetches behind a bulkhead and a per-fetch
// timeout. There is deliberately no retry and no circuit breaker: a
// failed enumeration is surfaced to the caller with its partial result
// discarded, and a browsing client wants the next user action to try
// again immediately.
type PageExecutor struct {
	keyPages   bulkhead.Bulkhead[browse.KeyPage]
	memberSets bulkhead.Bulkhead[bool]
	timeout    time.Duration
}

// Config configures the page executor.
type Config struct {
	// MaxConcurrent limits concurrently running page fetches. Prefix
	// enumerations are independent server-side queries, so a multi-prefix
	// scan fans out up to this many at once.
	MaxConcurrent int

	// FetchTimeout bounds a single page fetch.
	FetchTimeout time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
		FetchTimeout:  10 * time.Second,
	}
}

// NewPageExecutor creates a new page executor.
func NewPageExecutor(config Config) *PageExecutor {
	maxConcurrent := config.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultConfig().MaxConcurrent
	}
	timeout := config.FetchTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().FetchTimeout
	}

	return &PageExecutor{
		keyPages: bulkhead.New[browse.KeyPage](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		memberSets: bulkhead.New[bool](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
		}),
		timeout: timeout,
	}
}

// FetchKeyPage runs one key-page fetch within the bulkhead and timeout.
func (e *PageExecutor) FetchKeyPage(ctx context.Context, fetch func(context.Context) (browse.KeyPage, error)) (browse.KeyPage, error) {
	return e.keyPages.Execute(ctx, func(ctx context.Context) (browse.KeyPage, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return fetch(ctx)
	})
}

// Probe runs one existence probe within the bulkhead and timeout.
func (e *PageExecutor) Probe(ctx context.Context, probe func(context.Context) (bool, error)) (bool, error) {
	return e.memberSets.Execute(ctx, func(ctx context.Context) (bool, error) {
		ctx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		return probe(ctx)
	})
}
