package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type testValue struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// setupTestCache connects to a local Redis instance. Tests are skipped when
// Redis is not reachable.
func setupTestCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DB:          15, // keep test keys away from application data
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Skipping integration test: Redis not available: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush test database: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return New(client, "test:", 1*time.Minute)
}

func TestCache_GetMiss(t *testing.T) {
	c := setupTestCache(t)

	var dest testValue
	found, err := c.Get(context.Background(), "absent", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected miss for absent key")
	}
}

func TestCache_SetAndGet(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	want := testValue{Name: "widget", Count: 7}
	if err := c.Set(ctx, "widget", want); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	var got testValue
	found, err := c.Get(ctx, "widget", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("expected hit after Set")
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestCache_Delete(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "doomed", testValue{Name: "x"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "doomed"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	var dest testValue
	found, err := c.Get(ctx, "doomed", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected miss after Delete")
	}
}

func TestCache_DeletePattern(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	for _, key := range []string{"list:all", "list:done", "id:1"} {
		if err := c.Set(ctx, key, testValue{Name: key}); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := c.DeletePattern(ctx, "list:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	var dest testValue
	for _, key := range []string{"list:all", "list:done"} {
		found, err := c.Get(ctx, key, &dest)
		if err != nil {
			t.Fatalf("Get(%q) error = %v", key, err)
		}
		if found {
			t.Errorf("expected %q to be deleted", key)
		}
	}

	// Keys outside the pattern survive.
	found, err := c.Get(ctx, "id:1", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Error("expected id:1 to survive the pattern delete")
	}
}

func TestCache_Stats(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	var dest testValue
	if _, err := c.Get(ctx, "missing", &dest); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if err := c.Set(ctx, "present", testValue{Name: "y"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := c.Get(ctx, "present", &dest); err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	stats := c.GetStats()
	if stats.Hits != 1 {
		t.Errorf("expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("expected 1 miss, got %d", stats.Misses)
	}
	if stats.Sets != 1 {
		t.Errorf("expected 1 set, got %d", stats.Sets)
	}
	if stats.HitRate != 50.0 {
		t.Errorf("expected 50%% hit rate, got %.1f", stats.HitRate)
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := setupTestCache(t)
	ctx := context.Background()

	short := New(c.client, "ttl:", 50*time.Millisecond)
	if err := short.Set(ctx, "fleeting", testValue{Name: "z"}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	var dest testValue
	found, err := short.Get(ctx, "fleeting", &dest)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected key to expire")
	}
}
