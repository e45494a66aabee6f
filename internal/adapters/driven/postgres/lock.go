package postgres

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/helix-labs/quarry-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// lockNamespace is the classid for quarry's advisory locks, keeping
// them apart from any other application sharing the database. Arbitrary
// but fixed; changing it orphans nothing since advisory locks don't
// persist.
const lockNamespace = int32(0x5158) // "QX"

// AdvisoryLock serializes indexing work using PostgreSQL advisory
// locks. Workers lock per-document keys (index:<id>, delete:<id>) so
// two workers never chunk and embed the same document at once.
//
// Advisory locks are session-scoped, not TTL-based: the lock holds
// until released or the connection drops, and the ttl argument is
// ignored. That is safe for ingest serialization, where a crashed
// worker's connection closing is exactly when the lock should free.
// Deployments running many workers should prefer the Redis lock.
type AdvisoryLock struct {
	db *DB
}

// NewAdvisoryLock creates an advisory lock adapter on the shared pool.
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db}
}

// lockObjectID hashes a lock name into the objid half of the advisory
// lock key. FNV-1a keeps document IDs well distributed across the
// 32-bit space.
func lockObjectID(name string) int32 {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int32(h.Sum32())
}

// Acquire tries to take the lock without blocking. Returns false when
// another session already holds it, which the worker treats as "someone
// else is indexing this document".
func (l *AdvisoryLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	var acquired bool
	err := l.db.QueryRowContext(ctx,
		"SELECT pg_try_advisory_lock($1, $2)",
		lockNamespace, lockObjectID(name),
	).Scan(&acquired)
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// Release unlocks a held lock. Releasing a lock this session does not
// hold is not an error; Postgres just returns false.
func (l *AdvisoryLock) Release(ctx context.Context, name string) error {
	var released bool
	return l.db.QueryRowContext(ctx,
		"SELECT pg_advisory_unlock($1, $2)",
		lockNamespace, lockObjectID(name),
	).Scan(&released)
}

// Extend is a no-op: session-scoped locks have no TTL to extend.
func (l *AdvisoryLock) Extend(ctx context.Context, name string, ttl time.Duration) error {
	return nil
}

// Ping reports whether the lock backend is reachable.
func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}
