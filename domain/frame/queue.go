package frame

// Queue is a fixed-capacity FIFO of frames with a drop-oldest overflow
// policy: a frame arriving at capacity evicts the head so the newest frame
// is always admitted. Freshness wins over completeness.
//
// Queue is not safe for concurrent use; it is owned by a single event loop.
type Queue struct {
	buf  []Frame
	head int
	size int
}

// NewQueue returns an empty queue holding at most capacity frames.
// Capacities below one are raised to one.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{buf: make([]Frame, capacity)}
}

// Enqueue appends f, evicting the oldest frame first when the queue is full.
// It reports whether an eviction happened.
func (q *Queue) Enqueue(f Frame) (evicted bool) {
	if q.size == len(q.buf) {
		q.buf[q.head] = Frame{}
		q.head = (q.head + 1) % len(q.buf)
		q.size--
		evicted = true
	}
	q.buf[(q.head+q.size)%len(q.buf)] = f
	q.size++
	return evicted
}

// Dequeue removes and returns the oldest frame. ok is false when the queue is empty.
func (q *Queue) Dequeue() (f Frame, ok bool) {
	if q.size == 0 {
		return Frame{}, false
	}
	f = q.buf[q.head]
	q.buf[q.head] = Frame{}
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return f, true
}

// Clear discards all buffered frames and returns how many were dropped.
func (q *Queue) Clear() int {
	n := q.size
	for i := range q.buf {
		q.buf[i] = Frame{}
	}
	q.head, q.size = 0, 0
	return n
}

func (q *Queue) Len() int { return q.size }

func (q *Queue) Cap() int { return len(q.buf) }

// Frames returns a copy of the buffered frames, oldest first.
func (q *Queue) Frames() []Frame {
	out := make([]Frame, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.buf[(q.head+i)%len(q.buf)])
	}
	return out
}
