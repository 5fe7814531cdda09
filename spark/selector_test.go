package spark_test

import (
	"testing"

	"github.com/spindleworks/spindle/spark"
	"github.com/stretchr/testify/assert"
)

// should mark only the consumers of the old and new keys
func TestSelectorMarksTwoConsumersPerChange(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	sel := rs.NewSelector(0)

	const items = 1000
	runs := make([]int, items)
	selected := make([]bool, items)
	for i := 0; i < items; i++ {
		i := i
		rs.ManagedEffect(func() (spark.TeardownFunc, error) {
			runs[i]++
			selected[i] = sel.Is(i)
			return nil, nil
		})
	}
	for i := 0; i < items; i++ {
		assert.Equal(t, 1, runs[i])
	}
	assert.True(t, selected[0])

	sel.Set(500)

	reran := 0
	for i := 0; i < items; i++ {
		if runs[i] > 1 {
			reran++
			assert.Contains(t, []int{0, 500}, i)
		}
	}
	assert.Equal(t, 2, reran)
	assert.False(t, selected[0])
	assert.True(t, selected[500])
}

// should do nothing when the key does not change
func TestSelectorSetSameKey(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	sel := rs.NewSelector("a")

	runs := 0
	rs.ManagedEffect(func() (spark.TeardownFunc, error) {
		runs++
		sel.Is("a")
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	sel.Set("a")
	assert.Equal(t, 1, runs)
	assert.Equal(t, "a", sel.Key())
}

// should drop a consumer from the key set when it is destroyed
func TestSelectorConsumerTeardown(t *testing.T) {
	rs := spark.New(func(from *spark.Node, err error) {
		assert.FailNow(t, err.Error())
	})
	sel := rs.NewSelector(1)

	runs := 0
	stop := spark.NewEffect(rs, func() (spark.TeardownFunc, error) {
		runs++
		sel.Is(2)
		return nil, nil
	})
	assert.Equal(t, 1, runs)

	stop()
	sel.Set(2)
	assert.Equal(t, 1, runs) // the destroyed consumer is gone from the set
}
