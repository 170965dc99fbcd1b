package audit

import (
	"sync"

	"claimguard/internal/claims/models"
)

// queue is a bounded FIFO ring of entries. Entries leave only through
// Discard, after a store accepted them, so a failed flush retries the same
// head of the queue.
type queue struct {
	mu       sync.Mutex
	entries  []models.AuditEntry
	head     int // next read position
	tail     int // next write position
	count    int
	capacity int
}

func newQueue(capacity int) *queue {
	if capacity <= 0 {
		capacity = 10000
	}
	return &queue{
		entries:  make([]models.AuditEntry, capacity),
		capacity: capacity,
	}
}

// TryEnqueue adds e, or reports false when the queue is full.
func (q *queue) TryEnqueue(e models.AuditEntry) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.count >= q.capacity {
		return false
	}
	q.entries[q.tail] = e
	q.tail = (q.tail + 1) % q.capacity
	q.count++
	return true
}

// Peek copies up to n entries from the head without removing them.
func (q *queue) Peek(n int) []models.AuditEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > q.count {
		n = q.count
	}
	if n == 0 {
		return nil
	}
	out := make([]models.AuditEntry, n)
	for i := range n {
		out[i] = q.entries[(q.head+i)%q.capacity]
	}
	return out
}

// Discard drops up to n entries from the head.
func (q *queue) Discard(n int) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > q.count {
		n = q.count
	}
	for range n {
		q.entries[q.head] = models.AuditEntry{}
		q.head = (q.head + 1) % q.capacity
	}
	q.count -= n
}

func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
