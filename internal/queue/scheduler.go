package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"linkedlens/internal/models"
)

// DefaultInterval is the floor between two classifications.
const DefaultInterval = 3000 * time.Millisecond

// Processor classifies one post and leaves it annotated.
type Processor interface {
	Process(ctx context.Context, post models.PostDescriptor) (models.ProcessingState, error)
}

// Document tells the scheduler whether a queued element is still on the page.
type Document interface {
	Contains(n *html.Node) bool
}

// Target reports whether the page is still the feed.
type Target interface {
	IsTargetPage() bool
}

// Scheduler pops at most one post per tick and never runs two classifications at once.
type Scheduler struct {
	queue     *Queue
	doc       Document
	target    Target
	processor Processor
	interval  time.Duration

	inFlight atomic.Bool
	wg       sync.WaitGroup
	dropped  atomic.Int64
}

func NewScheduler(q *Queue, doc Document, target Target, processor Processor, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{queue: q, doc: doc, target: target, processor: processor, interval: interval}
}

// Tick runs one scheduling step and reports whether a classification was started.
func (s *Scheduler) Tick(ctx context.Context) bool {
	if !s.inFlight.CompareAndSwap(false, true) {
		return false
	}
	if s.queue.Len() == 0 || !s.target.IsTargetPage() {
		s.inFlight.Store(false)
		return false
	}

	post, ok := s.queue.Pop()
	if !ok {
		s.inFlight.Store(false)
		return false
	}
	// Posts removed from the page while waiting are dropped without a retry.
	if !s.doc.Contains(post.Element) {
		s.dropped.Add(1)
		log.WithField("post", post.ID).Debug("Skipping post no longer in the document")
		s.inFlight.Store(false)
		return false
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inFlight.Store(false)
		defer func() {
			if r := recover(); r != nil {
				log.WithField("post", post.ID).Errorf("Error processing post: panic: %v", r)
			}
		}()

		if _, err := s.processor.Process(ctx, post); err != nil {
			log.WithField("post", post.ID).Debugf("Post ended in error: %v", err)
		}
	}()
	return true
}

// Run ticks until ctx is done, then waits for the in-flight classification.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	log.Infof("Processing queue every %s", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.Wait()
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Wait blocks until no classification is running.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// InFlight reports whether a classification is running.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}

// Len is the number of posts waiting.
func (s *Scheduler) Len() int {
	return s.queue.Len()
}

// Dropped counts posts discarded because they left the document before their turn.
func (s *Scheduler) Dropped() int64 {
	return s.dropped.Load()
}
