package spark

import "github.com/cespare/xxhash/v2"

// Store is the external-store contract the bridge adapts: subscribing
// yields every value (current one first, by convention) until the
// returned closure is called.
type Store interface {
	Subscribe(observer func(v any)) (unsubscribe func())
}

// WritableStore is a Store that also accepts writes.
type WritableStore interface {
	Store
	Set(v any)
}

// IsStore reports whether x satisfies the store contract.
func IsStore(x any) bool {
	_, ok := x.(Store)
	return ok
}

// StoreContainer holds one component's store bridges, one record per
// store name.
type StoreContainer struct {
	records map[uint64]*storeRecord
}

type storeRecord struct {
	store       Store
	signal      *Node
	lastValue   any
	unsubscribe func()
	tornDown    bool
}

// NewStoreContainer creates an empty bridge container for one component.
func NewStoreContainer() *StoreContainer {
	return &StoreContainer{records: make(map[uint64]*storeRecord)}
}

// StoreGet bridges a read of the named store into the signal graph. The
// first read subscribes; the observer writes into the backing signal with
// mutation validation bypassed. Handing in a different store under the
// same name swaps the subscription. After teardown the preserved last
// value is returned instead of the uninitialized sentinel.
func (rt *Runtime) StoreGet(store Store, name string, c *StoreContainer) any {
	key := xxhash.Sum64String(name)
	rec, ok := c.records[key]
	if !ok {
		rec = &storeRecord{signal: rt.Source(Uninitialized, Equals)}
		c.records[key] = rec
	}
	if rec.tornDown {
		return rec.lastValue
	}
	if rec.store != store {
		if rec.unsubscribe != nil {
			rec.unsubscribe()
		}
		rec.store = store
		rec.unsubscribe = store.Subscribe(func(v any) {
			rec.lastValue = v
			prev := rt.mutationBypass
			rt.mutationBypass = true
			rt.setInternal(rec.signal, v)
			rt.mutationBypass = prev
			rt.kickoff()
		})
	}
	return rt.Get(rec.signal)
}

// StoreSet forwards a write to the store itself; the new value comes back
// through the subscription like any external change.
func (rt *Runtime) StoreSet(store Store, v any) any {
	if ws, ok := store.(WritableStore); ok {
		ws.Set(v)
	}
	return v
}

// UnsubscribeOnTeardown arranges for every record in the container to
// unsubscribe and release its signal when the owning effect tears down.
// Call it from a root or mount effect that does not re-run; a re-running
// owner would tear the bridges down on its next execution.
func (rt *Runtime) UnsubscribeOnTeardown(c *StoreContainer) {
	owner := rt.activeEffect()
	if owner == nil {
		rt.handleError(nil, &EffectOutsideInitError{})
		return
	}
	rt.PushTeardown(owner, func() error {
		for _, rec := range c.records {
			if rec.tornDown {
				continue
			}
			rec.tornDown = true
			if rec.unsubscribe != nil {
				rec.unsubscribe()
				rec.unsubscribe = nil
			}
			rt.destroyNode(rec.signal)
		}
		return nil
	})
}
