package cache

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LeaseTable hands out exclusive, expiring, process-local leases keyed by
// claim id. A lease left behind by a crashed run expires after its TTL.
type LeaseTable struct {
	mu     sync.Mutex // orders Add against release's check and delete
	leases *gocache.Cache
	ttl    time.Duration
}

// NewLeaseTable creates a lease table whose leases expire after ttl
func NewLeaseTable(ttl time.Duration) *LeaseTable {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LeaseTable{
		leases: gocache.New(ttl, time.Minute),
		ttl:    ttl,
	}
}

// Acquire takes the lease for key. It returns a release func, or false when
// another holder has it.
func (t *LeaseTable) Acquire(key, holder string) (func(), bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.leases.Add(key, holder, t.ttl); err != nil {
		return nil, false
	}
	return func() { t.release(key, holder) }, true
}

// Holder returns the current holder of key, if any
func (t *LeaseTable) Holder(key string) (string, bool) {
	v, ok := t.leases.Get(key)
	if !ok {
		return "", false
	}
	holder, _ := v.(string)
	return holder, true
}

// release only drops the lease if holder still owns it
func (t *LeaseTable) release(key, holder string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if current, ok := t.Holder(key); ok && current == holder {
		t.leases.Delete(key)
	}
}
