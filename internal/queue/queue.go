// Package queue holds discovered posts and drains them one classification at a time.
package queue

import (
	"sync"

	"linkedlens/internal/models"
)

// Queue is an unbounded FIFO of discovered posts, kept in memory for the session only.
type Queue struct {
	mu    sync.Mutex
	items []models.PostDescriptor
}

func New() *Queue {
	return &Queue{}
}

func (q *Queue) Push(post models.PostDescriptor) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, post)
}

// Pop removes and returns the head.
func (q *Queue) Pop() (models.PostDescriptor, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return models.PostDescriptor{}, false
	}
	head := q.items[0]
	q.items[0] = models.PostDescriptor{}
	q.items = q.items[1:]
	return head, true
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns a copy of the waiting posts, head first.
func (q *Queue) Pending() []models.PostDescriptor {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]models.PostDescriptor(nil), q.items...)
}
