package live

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"
)

// Event is an invalidation notice: one committed mutation touched records
// under these topics. Payload is the newline-joined topic list and may be
// backed by a pooled buffer; consumers must call Item.Done() when finished.
type Event struct {
	Payload []byte
	// EnqSeq is a monotonic enqueue sequence assigned when the event is
	// accepted into the queue.
	EnqSeq uint64
}

// Topics decodes the topic list from the payload.
func (e *Event) Topics() []string {
	if len(e.Payload) == 0 {
		return nil
	}
	return strings.Split(string(e.Payload), "\n")
}

// ErrQueueFull is returned by TryEnqueue when the queue is at capacity.
var ErrQueueFull = errors.New("live queue full")

// Item wraps an Event and owns its pooled buffer. Consumers MUST call
// Done() exactly once after processing.
type Item struct {
	Event *Event

	buf  *bytebufferpool.ByteBuffer
	once sync.Once
}

// maxPooledBuffer caps buffers returned to the pool so a single huge topic
// list cannot pin resident memory.
const maxPooledBuffer = 64 * 1024

// Done releases pooled resources back to their pools.
func (it *Item) Done() {
	it.once.Do(func() {
		if it.buf != nil {
			if cap(it.buf.B) > maxPooledBuffer {
				it.buf = nil
			} else {
				bytebufferpool.Put(it.buf)
				it.buf = nil
			}
		}
		if it.Event != nil {
			it.Event.Payload = nil
			eventPool.Put(it.Event)
			it.Event = nil
		}
	})
}

var eventPool = sync.Pool{New: func() any { return &Event{} }}

// Queue is a bounded in-memory queue carrying invalidation events from
// mutation sites to the broker's dispatcher. Safe for concurrent producers;
// a single consumer ranges over Out().
type Queue struct {
	ch       chan *Item
	capacity int
	dropped  uint64
	enqSeq   uint64
}

// NewQueue creates a bounded Queue. Non-positive capacities fall back to a
// sensible default.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 4096
	}
	return &Queue{ch: make(chan *Item, capacity), capacity: capacity}
}

// Out returns the consumer channel. Do not close it from callers.
func (q *Queue) Out() <-chan *Item { return q.ch }

// Dropped returns how many events were rejected because the queue was full.
func (q *Queue) Dropped() uint64 { return atomic.LoadUint64(&q.dropped) }

// TryEnqueue copies the topic list into a pooled buffer and enqueues an
// event. Returns ErrQueueFull when at capacity; the caller's mutation has
// already committed, so the caller decides whether a lost push matters.
func (q *Queue) TryEnqueue(topics ...string) error {
	if len(topics) == 0 {
		return nil
	}
	bb := bytebufferpool.Get()
	for i, t := range topics {
		if i > 0 {
			_ = bb.WriteByte('\n')
		}
		_, _ = bb.WriteString(t)
	}
	ev := eventPool.Get().(*Event)
	ev.Payload = bb.B
	ev.EnqSeq = atomic.AddUint64(&q.enqSeq, 1)

	it := &Item{Event: ev, buf: bb}
	select {
	case q.ch <- it:
		return nil
	default:
		it.Done()
		atomic.AddUint64(&q.dropped, 1)
		return ErrQueueFull
	}
}
