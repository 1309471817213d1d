package session

// Queue is a FIFO of pending commands backed by a growable ring buffer.
// It is not safe for concurrent use; the owning Session guards it.
type Queue struct {
	buf  []Command
	head int
	n    int
}

// NewQueue returns a queue holding cmds in order.
func NewQueue(cmds ...Command) *Queue {
	q := &Queue{}
	for _, c := range cmds {
		q.Push(c)
	}
	return q
}

// Len returns the number of queued commands.
func (q *Queue) Len() int { return q.n }

// Push appends c at the tail.
func (q *Queue) Push(c Command) {
	if q.n == len(q.buf) {
		q.grow()
	}
	q.buf[(q.head+q.n)%len(q.buf)] = c
	q.n++
}

// Pop removes and returns the head. ok is false when the queue is empty.
func (q *Queue) Pop() (c Command, ok bool) {
	if q.n == 0 {
		return Command{}, false
	}
	c = q.buf[q.head]
	q.buf[q.head] = Command{}
	q.head = (q.head + 1) % len(q.buf)
	q.n--
	return c, true
}

// Peek returns the head without removing it.
func (q *Queue) Peek() (Command, bool) {
	if q.n == 0 {
		return Command{}, false
	}
	return q.buf[q.head], true
}

// Items returns the queued commands in FIFO order.
func (q *Queue) Items() []Command {
	out := make([]Command, q.n)
	for i := 0; i < q.n; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

func (q *Queue) grow() {
	size := len(q.buf) * 2
	if size == 0 {
		size = 4
	}
	buf := make([]Command, size)
	copy(buf, q.Items())
	q.buf = buf
	q.head = 0
}
