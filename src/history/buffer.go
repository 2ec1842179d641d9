package history

import "github.com/campus-connect/relay/src/types"

// DefaultCapacity is the number of messages kept per room.
const DefaultCapacity = 100

// Buffer is a fixed-capacity FIFO ring of messages. When full, appending
// evicts the oldest entry. Buffer is not safe for concurrent use.
type Buffer struct {
	items []types.ChatMessage
	head  int // index of the oldest entry
	size  int
}

// NewBuffer creates a ring holding at most capacity messages.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{items: make([]types.ChatMessage, capacity)}
}

// Append adds msg as the newest entry and reports whether an entry was evicted.
func (b *Buffer) Append(msg types.ChatMessage) (evicted bool) {
	capacity := len(b.items)
	if b.size < capacity {
		b.items[(b.head+b.size)%capacity] = msg
		b.size++
		return false
	}
	b.items[b.head] = msg
	b.head = (b.head + 1) % capacity
	return true
}

// Messages returns the buffered messages, oldest first.
func (b *Buffer) Messages() []types.ChatMessage {
	out := make([]types.ChatMessage, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Len returns the number of buffered messages.
func (b *Buffer) Len() int { return b.size }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return len(b.items) }
