package live

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRoundTripsTopics(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryEnqueue("conv:c1", "user:alice", "presence"))

	it := <-q.Out()
	assert.Equal(t, []string{"conv:c1", "user:alice", "presence"}, it.Event.Topics())
	it.Done()
}

func TestQueueEmptyEnqueueIsNoop(t *testing.T) {
	q := NewQueue(4)
	require.NoError(t, q.TryEnqueue())
	select {
	case <-q.Out():
		t.Fatalf("no item expected")
	default:
	}
}

func TestQueueDropsAtCapacity(t *testing.T) {
	q := NewQueue(2)
	require.NoError(t, q.TryEnqueue("a"))
	require.NoError(t, q.TryEnqueue("b"))
	err := q.TryEnqueue("c")
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Equal(t, uint64(1), q.Dropped())

	// draining frees capacity again
	it := <-q.Out()
	it.Done()
	require.NoError(t, q.TryEnqueue("d"))
}

func TestItemDoneIsIdempotent(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.TryEnqueue("a"))
	it := <-q.Out()
	it.Done()
	it.Done()
	assert.Nil(t, it.Event)
}

func TestEnqueueSequenceIsMonotonic(t *testing.T) {
	q := NewQueue(8)
	var last uint64
	for i := 0; i < 5; i++ {
		require.NoError(t, q.TryEnqueue("t"))
		it := <-q.Out()
		assert.Greater(t, it.Event.EnqSeq, last)
		last = it.Event.EnqSeq
		it.Done()
	}
}
