package testutil

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// GetTestRedisAddr returns the first reachable Redis address: REDIS_ADDR, the CI service
// names, then the local test port 56379.
func GetTestRedisAddr(t TestingTB) (string, bool) {
	t.Helper()
	candidates := []string{"redis:6379", "localhost:6379", "localhost:56379"}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		candidates = []string{addr}
	}
	for _, addr := range candidates {
		if pingRedis(addr) {
			return addr, true
		}
	}
	return candidates[len(candidates)-1], false
}

func pingRedis(addr string) bool {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

// SetupTestRedis returns a client on a flushed test DB (TEST_REDIS_DB, default 1).
// Tests will be skipped if Redis is not available.
func SetupTestRedis(t TestingTB) *redis.Client {
	t.Helper()

	addr, ok := GetTestRedisAddr(t)
	if !ok {
		skipOrFail(t, requireRedis(), "Redis not available for testing")
	}

	dbIndex := 1
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			dbIndex = i
		}
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: dbIndex})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.FlushDB(ctx).Err(); err != nil {
		closeAndLog(t, "redis client", client)
		skipOrFail(t, requireRedis(), "Redis not available for testing:", err)
	}
	return client
}
