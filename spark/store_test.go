package spark_test

import (
	"testing"

	"github.com/spindleworks/spindle/spark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	value     any
	observers []*func(any)
	subCount  int
	unsubs    int
}

func (s *fakeStore) Subscribe(observer func(v any)) func() {
	s.subCount++
	ptr := &observer
	s.observers = append(s.observers, ptr)
	observer(s.value)
	return func() {
		s.unsubs++
		for i, o := range s.observers {
			if o == ptr {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *fakeStore) Set(v any) {
	s.value = v
	for _, o := range s.observers {
		(*o)(v)
	}
}

// should subscribe on first read and feed writes into the graph
func TestStoreBridgeFirstReadSubscribes(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	store := &fakeStore{value: 1}
	container := spark.NewStoreContainer()

	runs := 0
	seen := 0
	rs.ManagedEffect(func() (spark.TeardownFunc, error) {
		runs++
		seen = rs.StoreGet(store, "count", container).(int)
		return nil, nil
	})
	assert.Equal(t, 1, store.subCount)
	assert.Equal(t, 1, runs)
	assert.Equal(t, 1, seen)

	rs.StoreSet(store, 5)
	assert.Equal(t, 2, runs)
	assert.Equal(t, 5, seen)

	// a second read does not resubscribe
	assert.Equal(t, 1, store.subCount)
}

// should swap the subscription when a different store arrives under the same name
func TestStoreBridgeSwapsStores(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	first := &fakeStore{value: "one"}
	second := &fakeStore{value: "two"}
	container := spark.NewStoreContainer()

	which := spark.NewSignal[spark.Store](rs, first)
	seen := ""
	rs.ManagedEffect(func() (spark.TeardownFunc, error) {
		seen = rs.StoreGet(which.Value(), "name", container).(string)
		return nil, nil
	})
	assert.Equal(t, "one", seen)
	assert.Equal(t, 1, first.subCount)

	which.SetValue(second)
	assert.Equal(t, "two", seen)
	assert.Equal(t, 1, first.unsubs)
	assert.Equal(t, 1, second.subCount)

	// writes to the abandoned store no longer propagate
	first.Set("one!")
	assert.Equal(t, "two", seen)
}

// should unsubscribe on teardown and preserve the last value
func TestStoreBridgeUnsubscribeOnTeardown(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	store := &fakeStore{value: 42}
	container := spark.NewStoreContainer()

	var owner *spark.Node
	owner = rs.ManagedEffect(func() (spark.TeardownFunc, error) {
		_ = rs.StoreGet(store, "answer", container)
		rs.UnsubscribeOnTeardown(container)
		return nil, nil
	})
	assert.Equal(t, 1, store.subCount)

	rs.Destroy(owner)
	assert.Equal(t, 1, store.unsubs)

	// reads after teardown return the preserved value, not the sentinel
	assert.Equal(t, 42, rs.StoreGet(store, "answer", container))
}

// should recognize the store contract
func TestIsStore(t *testing.T) {
	assert.True(t, spark.IsStore(&fakeStore{}))
	assert.False(t, spark.IsStore(42))
	require.False(t, spark.IsStore(nil))
}
