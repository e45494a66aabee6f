package redis

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

// ingestLockPrefix is the keyspace for indexing locks. Workers lock
// per-document keys (index:<id>, delete:<id>) before running the
// pipeline, so quarry:ingest:index:<id> guards a single document's
// chunk-and-embed run.
const ingestLockPrefix = "quarry:ingest:"

// Lock serializes indexing work across workers using Redis SET NX with
// a TTL. Unlike the advisory lock fallback the TTL is real: a worker
// that dies mid-pipeline frees its documents when the keys expire, and
// long embedding runs call Extend to keep theirs alive.
//
// Each worker process holds a unique owner token so release and extend
// only act on locks this process took.
type Lock struct {
	client *redis.Client
	owner  string
}

// NewLock creates a Redis-backed lock with a fresh owner token.
func NewLock(client *redis.Client) *Lock {
	return &Lock{
		client: client,
		owner:  newOwnerToken(),
	}
}

// newOwnerToken builds hostname:pid:random, unique per worker process
// and readable in Redis when debugging a stuck document.
func newOwnerToken() string {
	hostname, _ := os.Hostname()
	suffix := make([]byte, 8)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), hex.EncodeToString(suffix))
}

// Acquire takes the lock for name if no one holds it. Returns false
// when another worker is already processing the document.
func (l *Lock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, ingestLockPrefix+name, l.owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	return acquired, nil
}

// releaseScript deletes the lock only when the owner token matches, so
// a worker whose lock expired and was re-taken cannot release the new
// holder's lock.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Release frees the lock if this process holds it. Releasing an expired
// or foreign lock is a no-op, not an error.
func (l *Lock) Release(ctx context.Context, name string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{ingestLockPrefix + name}, l.owner).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", name, err)
	}
	return nil
}

// extendScript resets the TTL only when the owner token matches.
var extendScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Extend pushes out the TTL of a held lock. Errors when the lock
// expired or belongs to another worker; the caller should treat the
// document as lost to a competitor.
func (l *Lock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	result, err := extendScript.Run(ctx, l.client,
		[]string{ingestLockPrefix + name}, l.owner, ttl.Milliseconds()).Result()
	if err != nil {
		return fmt.Errorf("extend lock %s: %w", name, err)
	}
	if result.(int64) == 0 {
		return fmt.Errorf("lock %s not held by this instance", name)
	}
	return nil
}

// Ping reports whether the lock backend is reachable.
func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID returns this process's owner token for logging.
func (l *Lock) OwnerID() string {
	return l.owner
}
