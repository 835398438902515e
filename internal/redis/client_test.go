package redisclient

import (
	"testing"
	"time"
)

func TestClientOptions(t *testing.T) {
	opts := clientOptions("cache.internal:6380", "app", "hunter2")

	if opts.Addr != "cache.internal:6380" || opts.Username != "app" || opts.Password != "hunter2" {
		t.Errorf("connection fields not applied: %s %s", opts.Addr, opts.Username)
	}
	if opts.ReadTimeout != 500*time.Millisecond || opts.WriteTimeout != 500*time.Millisecond {
		t.Errorf("command timeouts = %s/%s, want 500ms", opts.ReadTimeout, opts.WriteTimeout)
	}
	// Command timeouts must be far below the default 5s lock TTL, or a stalled
	// command could outlive the lock it holds.
	if opts.ReadTimeout >= 5*time.Second {
		t.Errorf("read timeout %s not below the lock TTL", opts.ReadTimeout)
	}
	if opts.PoolSize != 16 || opts.MinIdleConns != 2 {
		t.Errorf("pool sizing = %d/%d", opts.PoolSize, opts.MinIdleConns)
	}
}
