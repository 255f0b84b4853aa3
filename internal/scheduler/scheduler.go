package scheduler

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/medtrack/notify/internal/domain"
	"github.com/medtrack/notify/internal/mailer"
)

// maxWait caps a single worker sleep. A paused or suspended process can
// oversleep its timer by an arbitrary amount; re-peeking at least daily
// bounds the staleness without busy-polling.
const maxWait = 24 * time.Hour

// Hooks carries optional metric callbacks, injected by main so the
// scheduler stays metrics-agnostic.
type Hooks struct {
	OnFired     func()
	OnSendError func()
}

// Scheduler owns an in-memory priority queue of pending expiry tasks and
// one worker goroutine that sleeps until the earliest task is due, wakes
// early whenever a mutation changes the queue head, and fires the task
// through the mail sender.
//
// The trigger for a product is the start of day (in the clock's zone) of
// expiryDate minus leadDays. All mutations hold the mutex for short,
// I/O-free critical sections; the actual send happens after the task has
// been popped and the lock released.
type Scheduler struct {
	mu    sync.Mutex
	tasks taskHeap
	byID  map[int64]*ExpiryTask

	// wake has capacity 1: a mutation that changes the head does a
	// non-blocking send, and the worker drains it to recompute its wait.
	wake chan struct{}

	clock    Clock
	sender   mailer.Sender
	leadDays int
	logger   *zap.Logger
	hooks    Hooks

	wg sync.WaitGroup
}

// New constructs a scheduler with an injected clock and sender. Call
// Start exactly once to launch the worker.
func New(clock Clock, sender mailer.Sender, leadDays int, logger *zap.Logger, hooks Hooks) *Scheduler {
	if hooks.OnFired == nil {
		hooks.OnFired = func() {}
	}
	if hooks.OnSendError == nil {
		hooks.OnSendError = func() {}
	}
	return &Scheduler{
		byID:     make(map[int64]*ExpiryTask),
		wake:     make(chan struct{}, 1),
		clock:    clock,
		sender:   sender,
		leadDays: leadDays,
		logger:   logger,
		hooks:    hooks,
	}
}

// Start launches the worker goroutine. Cancelling ctx stops it; Wait
// blocks until it has exited.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Wait blocks until the worker has returned after ctx is cancelled.
func (s *Scheduler) Wait() { s.wg.Wait() }

// Schedule inserts an expiry task for the product. It returns false and
// does not insert when the product's expiry date is strictly before
// today; a product expiring today is still accepted. Scheduling a product
// that is already tracked replaces its task.
func (s *Scheduler) Schedule(p *domain.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(p)
}

// Update atomically removes any existing task for the product and
// re-schedules it, returning the Schedule result.
func (s *Scheduler) Update(p *domain.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(p.ID)
	return s.scheduleLocked(p)
}

// Remove deletes the product's task if present and reports whether one
// was removed.
func (s *Scheduler) Remove(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(productID)
}

// Find returns a copy of the product's pending task.
func (s *Scheduler) Find(productID int64) (ExpiryTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.byID[productID]
	if !ok {
		return ExpiryTask{}, false
	}
	return *t, true
}

// List returns a snapshot of all pending tasks in trigger order.
func (s *Scheduler) List() []ExpiryTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExpiryTask, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trigger.Before(out[j].Trigger) })
	return out
}

// Len reports the number of pending tasks. Used by the metrics gauge.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *Scheduler) scheduleLocked(p *domain.Product) bool {
	now := s.clock.Now()
	expiry := startOfDay(p.ExpiryDate.In(now.Location()))
	if expiry.Before(startOfDay(now)) {
		return false
	}

	s.removeLocked(p.ID)

	t := &ExpiryTask{
		ProductID:   p.ID,
		ProductName: p.SafeName(),
		ExpiryDate:  p.ExpiryDate,
		Trigger:     expiry.AddDate(0, 0, -s.leadDays),
	}
	heap.Push(&s.tasks, t)
	s.byID[p.ID] = t

	// Only a head change invalidates the worker's current wait.
	if s.tasks[0] == t {
		s.signalWake()
	}
	return true
}

func (s *Scheduler) removeLocked(productID int64) bool {
	t, ok := s.byID[productID]
	if !ok {
		return false
	}
	wasHead := s.tasks[0] == t
	heap.Remove(&s.tasks, t.index)
	delete(s.byID, productID)
	if wasHead {
		s.signalWake()
	}
	return true
}

func (s *Scheduler) signalWake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run is the worker loop: pop and fire due tasks, otherwise wait for
// either the head's trigger time or a wake signal, whichever comes
// first. The wait is capped so a suspended process re-peeks within a day.
func (s *Scheduler) run(ctx context.Context) {
	s.logger.Info("expiry scheduler started", zap.Int("lead_days", s.leadDays))
	for {
		due, wait := s.next()
		if due != nil {
			s.fire(ctx, due)
			continue
		}

		if wait < 0 {
			// Queue empty: block until a mutation arrives.
			select {
			case <-s.wake:
			case <-ctx.Done():
				s.logger.Info("expiry scheduler stopping")
				return
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-s.wake:
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("expiry scheduler stopping")
			return
		}
		timer.Stop()
	}
}

// next pops the head if it is due. Otherwise it returns how long to wait:
// a negative duration means the queue is empty.
func (s *Scheduler) next() (*ExpiryTask, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.tasks) == 0 {
		return nil, -1
	}

	head := s.tasks[0]
	now := s.clock.Now()
	if !now.Before(head.Trigger) {
		heap.Pop(&s.tasks)
		delete(s.byID, head.ProductID)
		return head, 0
	}

	return nil, min(head.Trigger.Sub(now), maxWait)
}

// fire sends the expiry alert for one popped task. A send failure is
// isolated: it is logged, counted, and the task stays dropped. The
// scheduler never retries.
func (s *Scheduler) fire(ctx context.Context, t *ExpiryTask) {
	err := s.sender.SendExpiryAlert(ctx, t.ProductID, t.ProductName, t.ExpiryDate)
	if err != nil {
		s.hooks.OnSendError()
		s.logger.Error("failed to send expiry alert",
			zap.Int64("product_id", t.ProductID),
			zap.String("product_name", t.ProductName),
			zap.Error(err),
		)
		return
	}
	s.hooks.OnFired()
	s.logger.Info("expiry alert sent",
		zap.Int64("product_id", t.ProductID),
		zap.Time("expiry_date", t.ExpiryDate),
	)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
