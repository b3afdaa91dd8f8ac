// Package testutil runs an in-memory Redis for tests.
package testutil

import (
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/kbukum/authgate/logger"
	"github.com/kbukum/authgate/redis"
)

// Start launches miniredis and returns a client connected to it. Both are
// closed when the test ends.
func Start(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client, err := redis.New(redis.Config{Addr: mini.Addr(), MaxRetries: 1}, logger.NewNop())
	if err != nil {
		t.Fatalf("failed to create redis client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}
