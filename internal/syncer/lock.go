package syncer

import (
	"context"
	"fmt"
	"time"

	"voicedash/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// Locker serializes externally triggered syncs per (org, operation) with a
// redis SETNX lease. It is advisory: the datastore stays correct without
// it because every write is an upsert, but overlapping HTTP-triggered runs
// waste vendor quota for no benefit.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

const defaultLockTTL = 2 * time.Minute

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{rdb: rdb, ttl: ttl}
}

func lockKey(orgID, op string) string {
	return fmt.Sprintf("sync:lock:%s:%s", orgID, op)
}

func lastSyncKey(orgID, op string) string {
	return fmt.Sprintf("sync:last:%s:%s", orgID, op)
}

// TryAcquire takes the lease. false means another run holds it.
func (l *Locker) TryAcquire(ctx context.Context, orgID, op string) (bool, error) {
	return l.rdb.SetNX(ctx, lockKey(orgID, op), 1, l.ttl).Result()
}

func (l *Locker) Release(ctx context.Context, orgID, op string) {
	// The TTL covers a missed release; a failed DEL only delays re-sync.
	_ = l.rdb.Del(ctx, lockKey(orgID, op)).Err()
}

// AcquireSlot takes one slot of the org's concurrent-sync cap. Independent
// of the per-operation lease: the lease serializes repeats of one
// operation, the cap bounds how many different operations an org can run
// at once.
func (l *Locker) AcquireSlot(ctx context.Context, orgID string, limit int) (bool, error) {
	return utils.AcquireConcurrencyCap(ctx, l.rdb, "sync:cap:"+orgID, limit, l.ttl)
}

func (l *Locker) ReleaseSlot(ctx context.Context, orgID string) {
	_ = utils.ReleaseConcurrencyCap(ctx, l.rdb, "sync:cap:"+orgID)
}

// RecordLastSync stamps the completion time for dashboard display.
func (l *Locker) RecordLastSync(ctx context.Context, orgID, op string, at time.Time) error {
	return l.rdb.Set(ctx, lastSyncKey(orgID, op), at.UTC().Format(time.RFC3339), 0).Err()
}

// LastSync returns the stamped completion time, zero when never synced.
func (l *Locker) LastSync(ctx context.Context, orgID, op string) (time.Time, error) {
	raw, err := l.rdb.Get(ctx, lastSyncKey(orgID, op)).Result()
	if err == redis.Nil {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}
