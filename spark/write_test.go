package spark_test

import (
	"testing"

	"github.com/spindleworks/spindle/spark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// should reject writes during a derivation in strict mode
func TestStrictModeForbidsMutationDuringDerivation(t *testing.T) {
	var caught error
	rs := spark.New(func(from *spark.Node, err error) {
		caught = err
	})
	s := rs.Source(1)
	other := rs.Source(0)

	d := rs.Derived(func(oldValue any) (any, error) {
		rs.Set(other, 99)
		return rs.Get(s), nil
	})

	rs.Get(d)
	var mutErr *spark.MutationDuringDerivationError
	require.ErrorAs(t, caught, &mutErr)
	assert.Equal(t, 0, rs.Get(other)) // the write did not land
}

// should permit writes during a derivation in legacy mode
func TestLegacyModePermitsMutationDuringDerivation(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})

	rs.PushComponent(nil, false, false)
	s := rs.Source(1)
	other := rs.Source(0)
	d := rs.Derived(func(oldValue any) (any, error) {
		rs.Set(other, 99)
		return rs.Get(s), nil
	})
	rs.PopComponent(nil)

	assert.Equal(t, 1, rs.Get(d))
	assert.Equal(t, 99, rs.Get(other))
}

// should force propagation for identity-unequal but structurally-equal objects
func TestInvalidateInnerSignalsObjectIdentity(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})

	type box struct{ x int }
	rs.PushComponent(nil, false, false)
	s := rs.Source(&box{x: 1}, func(a, b any) bool {
		return a.(*box).x == b.(*box).x
	})
	derivedRuns := 0
	d := rs.Derived(func(oldValue any) (any, error) {
		derivedRuns++
		return rs.Get(s).(*box).x, nil
	})
	rs.PopComponent(nil)

	effectRuns := 0
	rs.ManagedEffect(func() (spark.TeardownFunc, error) {
		effectRuns++
		_ = rs.Get(d)
		_ = rs.Get(s)
		return nil, nil
	})
	assert.Equal(t, 1, derivedRuns)
	assert.Equal(t, 1, effectRuns)

	// structurally equal: the predicate suppresses the write entirely
	rs.Set(s, &box{x: 1})
	assert.Equal(t, 1, effectRuns)

	// the legacy helper bypasses the predicate and re-propagates
	rs.InvalidateInnerSignals(func() {
		rs.Get(s)
	})
	assert.Equal(t, 2, effectRuns)
	assert.Equal(t, 2, derivedRuns)
}

// should support the numeric update helpers
func TestNumericUpdateHelpers(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	n := rs.Source(10)

	assert.Equal(t, 10, rs.Increment(n)) // x++ returns the old value
	assert.Equal(t, 11, rs.Get(n))
	assert.Equal(t, 12, rs.PreIncrement(n)) // ++x returns the new one
	assert.Equal(t, 12, rs.Decrement(n))
	assert.Equal(t, 10, rs.PreDecrement(n))

	f := rs.Source(1.5)
	assert.Equal(t, 2.5, rs.PreIncrement(f))
}

// should treat writes to destroyed nodes as errors and reads as sentinel
func TestAccessAfterDestroy(t *testing.T) {
	var caught error
	rs := spark.New(func(from *spark.Node, err error) {
		caught = err
	})
	s := rs.Source(1)
	rs.Destroy(s)

	assert.Equal(t, spark.Uninitialized, rs.Get(s))

	rs.Set(s, 2)
	var destErr *spark.DestroyedNodeError
	require.ErrorAs(t, caught, &destErr)
}

// should record only sources in a capture
func TestCaptureReads(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	a := rs.Source(1)
	b := rs.Source(2)
	d := rs.Derived(func(oldValue any) (any, error) {
		return rs.Get(a).(int) + rs.Get(b).(int), nil
	})

	reads := rs.CaptureReads(func() {
		rs.Get(d)
		rs.Get(b)
	})
	assert.True(t, reads.Contains(a))
	assert.True(t, reads.Contains(b))
	assert.False(t, reads.Contains(d))
}

// should hand back the node itself through Expose
func TestExpose(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	s := rs.Source("hello")

	out := rs.Expose(func() any {
		return rs.Get(s)
	})
	require.True(t, spark.IsNode(out))
	assert.Same(t, s, out.(*spark.Node))

	plain := rs.Expose(func() any {
		return "constant"
	})
	assert.Equal(t, "constant", plain)
}

// should compare NaN and reference values the safe way
func TestSafeEquals(t *testing.T) {
	nan := func() float64 {
		var zero float64
		return 0 / zero // NaN without tripping constant folding
	}()

	assert.True(t, spark.SafeEquals(nan, nan))
	assert.True(t, spark.SafeEquals(1, 1))
	assert.False(t, spark.SafeEquals(1, 2))
	assert.False(t, spark.SafeEquals(map[string]int{}, map[string]int{}))

	m := map[string]int{"x": 1}
	assert.False(t, spark.SafeEquals(m, m)) // mutable objects always propagate

	fn := func() {}
	assert.False(t, spark.SafeEquals(fn, fn))
}
