package kv_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"StudioMemories/internal/kv"
)

func openPostgres(t *testing.T) *kv.PostgresStore {
	t.Helper()

	dsn := os.Getenv("KV_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("KV_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := kv.OpenPostgres(ctx, dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresStore_NotifiesOtherInstances(t *testing.T) {
	a := openPostgres(t)
	other := openPostgres(t)

	self := make(chan kv.Change, 4)
	a.Subscribe(func(c kv.Change) { self <- c })
	got := make(chan kv.Change, 4)
	other.Subscribe(func(c kv.Change) { got <- c })

	// Give both listeners time to issue LISTEN.
	time.Sleep(300 * time.Millisecond)

	ctx := context.Background()
	key := "test_" + uuid.NewString()
	t.Cleanup(func() { _ = a.Delete(context.Background(), key) })

	if err := a.Set(ctx, key, `[1,3,5]`); err != nil {
		t.Fatalf("set: %v", err)
	}

	c := waitChange(t, got)
	if c.Key != key || c.Value != `[1,3,5]` {
		t.Fatalf("change=%+v", c)
	}

	v, ok, err := other.Get(ctx, key)
	if err != nil || !ok || v != `[1,3,5]` {
		t.Fatalf("get: v=%q ok=%v err=%v", v, ok, err)
	}

	select {
	case c := <-self:
		t.Fatalf("writer received its own change: %+v", c)
	case <-time.After(200 * time.Millisecond):
	}
}
