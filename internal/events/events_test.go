package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitterOrderAndUnsubscribe(t *testing.T) {
	e := NewEmitter()
	var calls []string

	a := e.Subscribe(func() { calls = append(calls, "a") })
	e.Subscribe(func() { calls = append(calls, "b") })

	e.Emit()
	assert.Equal(t, []string{"a", "b"}, calls)

	a.Unsubscribe()
	a.Unsubscribe()
	assert.Equal(t, 1, e.Len())

	calls = nil
	e.Emit()
	assert.Equal(t, []string{"b"}, calls)
}

func TestEmitterZeroValue(t *testing.T) {
	var e Emitter
	n := 0
	e.Subscribe(func() { n++ })
	e.Emit()
	assert.Equal(t, 1, n)
}

func TestFrameQueueDefersNestedSchedules(t *testing.T) {
	q := NewFrameQueue()
	var order []int

	q.Schedule(func() {
		order = append(order, 1)
		q.Schedule(func() { order = append(order, 2) })
	})
	q.Schedule(nil)
	require.Equal(t, 1, q.Pending())

	assert.Equal(t, 1, q.Flush())
	assert.Equal(t, []int{1}, order)
	assert.Equal(t, 1, q.Pending())

	assert.Equal(t, 1, q.Flush())
	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, 0, q.Flush())
}
