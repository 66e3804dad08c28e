package ringbuf

// Buffer is a fixed-capacity string deque. Appending past capacity
// evicts the oldest entry.
type Buffer struct {
	cap   int
	items []string
	start int
}

func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{cap: capacity, items: make([]string, 0, capacity)}
}

func (b *Buffer) Append(item string) {
	if b == nil {
		return
	}
	if len(b.items) < b.cap {
		b.items = append(b.items, item)
		return
	}
	b.items[b.start] = item
	b.start = (b.start + 1) % b.cap
}

func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}

func (b *Buffer) Cap() int {
	if b == nil {
		return 0
	}
	return b.cap
}

// Items returns the buffered entries oldest first.
func (b *Buffer) Items() []string {
	if b == nil || len(b.items) == 0 {
		return nil
	}
	out := make([]string, 0, len(b.items))
	for i := 0; i < len(b.items); i++ {
		out = append(out, b.items[(b.start+i)%len(b.items)])
	}
	return out
}

func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.items = b.items[:0]
	b.start = 0
}
