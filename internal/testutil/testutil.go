//go:build integration

// Package testutil provides test helpers for integration tests that need a
// real Redis instance or firewall-cmd binary.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisAddr returns the address of the test Redis instance, from
// FWCTL_TEST_REDIS_ADDR, or empty if unset.
func RedisAddr() string {
	return os.Getenv("FWCTL_TEST_REDIS_ADDR")
}

// SkipIfNoRedis skips the test if no reachable test Redis instance is
// configured.
func SkipIfNoRedis(t *testing.T) {
	t.Helper()

	addr := RedisAddr()
	if addr == "" {
		t.Skip("test Redis not available: set FWCTL_TEST_REDIS_ADDR")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("test Redis not reachable at %s: %v", addr, err)
	}
}
