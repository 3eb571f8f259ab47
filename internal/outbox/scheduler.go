// Package outbox delivers delayed counterparty replies.
package outbox

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matheus3301/lnf/internal/conversation"
)

// Task is a reply waiting to be appended to a conversation.
type Task struct {
	ID             string
	ConversationID string
	// Gen is the conversation generation the task was scheduled under. The deliverer
	// drops tasks whose generation is no longer current.
	Gen     uint64
	Message conversation.Message
	Due     time.Time

	seq uint64
}

// DeliverFunc appends a fired task. It runs on the scheduler goroutine, one task at a time.
type DeliverFunc func(ctx context.Context, t Task)

// Scheduler fires tasks after their delay, FIFO per conversation.
type Scheduler struct {
	deliver DeliverFunc
	logger  *zap.Logger
	now     func() time.Time

	mu      sync.Mutex
	queue   []Task
	lastDue map[string]time.Time
	seq     uint64

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler. Call Start before tasks can fire.
func NewScheduler(deliver DeliverFunc, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		deliver: deliver,
		logger:  logger,
		now:     time.Now,
		lastDue: make(map[string]time.Time),
		wake:    make(chan struct{}, 1),
	}
}

// Start begins firing due tasks.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the worker and waits for an in-flight delivery to return.
// Queued tasks are discarded.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done

	s.mu.Lock()
	dropped := len(s.queue)
	s.queue = nil
	clear(s.lastDue)
	s.mu.Unlock()
	if dropped > 0 {
		s.logger.Debug("dropped pending replies on stop", zap.Int("count", dropped))
	}
}

// Schedule queues msg for convID after delay. A task never fires before an earlier task
// of the same conversation.
func (s *Scheduler) Schedule(convID string, gen uint64, msg conversation.Message, delay time.Duration) Task {
	s.mu.Lock()
	due := s.now().Add(delay)
	if last, ok := s.lastDue[convID]; ok && last.After(due) {
		due = last
	}
	s.lastDue[convID] = due
	s.seq++
	t := Task{
		ID:             uuid.NewString(),
		ConversationID: convID,
		Gen:            gen,
		Message:        msg,
		Due:            due,
		seq:            s.seq,
	}
	i := sort.Search(len(s.queue), func(i int) bool { return s.queue[i].after(t) })
	s.queue = append(s.queue, Task{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = t
	s.mu.Unlock()

	s.logger.Debug("reply scheduled",
		zap.String("conversation", convID),
		zap.String("task", t.ID),
		zap.Duration("delay", delay),
	)
	s.notify()
	return t
}

// Cancel drops every queued task of convID and returns how many were dropped.
func (s *Scheduler) Cancel(convID string) int {
	s.mu.Lock()
	kept := s.queue[:0]
	n := 0
	for _, t := range s.queue {
		if t.ConversationID == convID {
			n++
			continue
		}
		kept = append(kept, t)
	}
	clear(s.queue[len(kept):])
	s.queue = kept
	delete(s.lastDue, convID)
	s.mu.Unlock()

	if n > 0 {
		s.logger.Debug("replies cancelled", zap.String("conversation", convID), zap.Int("count", n))
		s.notify()
	}
	return n
}

// Pending returns the number of queued tasks for convID.
func (s *Scheduler) Pending(convID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.queue {
		if t.ConversationID == convID {
			n++
		}
	}
	return n
}

// Len returns the number of queued tasks.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (t Task) after(o Task) bool {
	if t.Due.Equal(o.Due) {
		return t.seq > o.seq
	}
	return t.Due.After(o.Due)
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		due, wait := s.popDue()
		for _, t := range due {
			if ctx.Err() != nil {
				return
			}
			s.deliver(ctx, t)
		}
		if len(due) > 0 {
			continue
		}

		var fire <-chan time.Time
		if wait >= 0 {
			timer.Reset(wait)
			fire = timer.C
		}
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
			timer.Stop()
		case <-fire:
		}
	}
}

// popDue removes the tasks due now. wait is the time until the next task, or -1 when idle.
func (s *Scheduler) popDue() ([]Task, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for n < len(s.queue) && !s.queue[n].Due.After(now) {
		n++
	}
	due := make([]Task, n)
	copy(due, s.queue[:n])
	s.queue = s.queue[n:]
	for _, t := range due {
		if last, ok := s.lastDue[t.ConversationID]; ok && !last.After(t.Due) {
			delete(s.lastDue, t.ConversationID)
		}
	}
	if len(s.queue) == 0 {
		return due, -1
	}
	return due, s.queue[0].Due.Sub(now)
}
