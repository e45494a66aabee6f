package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, func() {
		client.Close()
		mr.Close()
	}
}

func TestLock_Acquire(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	acquired, err := lock.Acquire(ctx, "index:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !acquired {
		t.Fatal("expected to acquire lock")
	}

	// The key lands in the ingest keyspace and carries the owner token
	owner, err := client.Get(ctx, "quarry:ingest:index:doc-1").Result()
	if err != nil {
		t.Fatalf("lock key missing: %v", err)
	}
	if owner != lock.OwnerID() {
		t.Errorf("lock value = %q, want owner token %q", owner, lock.OwnerID())
	}
}

func TestLock_Acquire_DocumentAlreadyBeingIndexed(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	acquired, err := worker1.Acquire(ctx, "index:doc-1", 10*time.Second)
	if err != nil || !acquired {
		t.Fatalf("worker1 Acquire() = %v, %v", acquired, err)
	}

	// A second worker must skip the document
	acquired, err = worker2.Acquire(ctx, "index:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("worker2 Acquire() error = %v", err)
	}
	if acquired {
		t.Error("two workers acquired the same document lock")
	}

	// A different document is free
	acquired, err = worker2.Acquire(ctx, "index:doc-2", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !acquired {
		t.Error("unrelated document should not be locked")
	}
}

func TestLock_Acquire_NotReentrant(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	if acquired, err := lock.Acquire(ctx, "index:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("Acquire() = %v, %v", acquired, err)
	}

	acquired, err := lock.Acquire(ctx, "index:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if acquired {
		t.Error("re-acquiring a held lock should fail")
	}
}

func TestLock_ReleaseFreesDocument(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	if acquired, err := lock.Acquire(ctx, "index:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("Acquire() = %v, %v", acquired, err)
	}
	if err := lock.Release(ctx, "index:doc-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	acquired, err := lock.Acquire(ctx, "index:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if !acquired {
		t.Error("expected to re-acquire after release")
	}
}

func TestLock_Release_NotHeldIsNoop(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)

	if err := lock.Release(context.Background(), "index:doc-1"); err != nil {
		t.Errorf("releasing an unheld lock: %v", err)
	}
}

func TestLock_Release_OnlyOwnerReleases(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	if acquired, err := worker1.Acquire(ctx, "index:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("Acquire() = %v, %v", acquired, err)
	}

	// Another worker's release must not free worker1's document
	if err := worker2.Release(ctx, "index:doc-1"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	acquired, err := worker2.Acquire(ctx, "index:doc-1", 10*time.Second)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if acquired {
		t.Error("lock should still belong to worker1")
	}
}

func TestLock_ExtendKeepsLongPipelineRunAlive(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)
	ctx := context.Background()

	if acquired, err := lock.Acquire(ctx, "index:doc-1", time.Second); err != nil || !acquired {
		t.Fatalf("Acquire() = %v, %v", acquired, err)
	}

	if err := lock.Extend(ctx, "index:doc-1", 30*time.Second); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
}

func TestLock_Extend_NotHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	lock := NewLock(client)

	if err := lock.Extend(context.Background(), "index:doc-1", 10*time.Second); err == nil {
		t.Error("extending an unheld lock should fail")
	}
}

func TestLock_Extend_OnlyOwnerExtends(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	worker1 := NewLock(client)
	worker2 := NewLock(client)
	ctx := context.Background()

	if acquired, err := worker1.Acquire(ctx, "index:doc-1", 10*time.Second); err != nil || !acquired {
		t.Fatalf("Acquire() = %v, %v", acquired, err)
	}

	if err := worker2.Extend(ctx, "index:doc-1", 30*time.Second); err == nil {
		t.Error("a different worker must not extend the lock")
	}
}

func TestLock_OwnerTokensUniquePerProcess(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	if NewLock(client).OwnerID() == NewLock(client).OwnerID() {
		t.Error("owner tokens must be unique")
	}
}

func TestLock_Ping(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	if err := NewLock(client).Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}
