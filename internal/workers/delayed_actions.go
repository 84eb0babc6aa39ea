package workers

import (
	"sync"
	"time"

	"infinite-experiment/garrison/internal/logging"
)

// DelayedActions runs keyed callbacks after a delay. Scheduling a key that
// is already pending keeps the existing timer.
type DelayedActions struct {
	mu      sync.Mutex
	pending map[string]*delayedAction
	stopped bool
	wg      sync.WaitGroup
}

type delayedAction struct {
	timer *time.Timer
	due   time.Time
}

func NewDelayedActions() *DelayedActions {
	return &DelayedActions{pending: make(map[string]*delayedAction)}
}

// Schedule arranges fn to run after delay. It returns the due time and false
// when key was already scheduled or the scheduler is stopped.
func (d *DelayedActions) Schedule(key string, delay time.Duration, fn func()) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return time.Time{}, false
	}
	if existing, ok := d.pending[key]; ok {
		return existing.due, false
	}

	action := &delayedAction{due: time.Now().Add(delay)}
	d.wg.Add(1)
	action.timer = time.AfterFunc(delay, func() {
		defer d.wg.Done()

		d.mu.Lock()
		current, ok := d.pending[key]
		if !ok || current != action {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		d.mu.Unlock()

		defer func() {
			if r := recover(); r != nil {
				logging.Error("Delayed action panicked", "key", key, "panic", r)
			}
		}()
		fn()
	})
	d.pending[key] = action
	return action.due, true
}

// Cancel stops a pending action. It reports whether one was pending.
func (d *DelayedActions) Cancel(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	action, ok := d.pending[key]
	if !ok {
		return false
	}
	delete(d.pending, key)
	if action.timer.Stop() {
		d.wg.Done()
	}
	return true
}

// Pending reports whether key is scheduled and when it is due.
func (d *DelayedActions) Pending(key string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	action, ok := d.pending[key]
	if !ok {
		return time.Time{}, false
	}
	return action.due, true
}

// Stop cancels everything still pending and waits for running callbacks.
func (d *DelayedActions) Stop() {
	d.mu.Lock()
	d.stopped = true
	for key, action := range d.pending {
		if action.timer.Stop() {
			d.wg.Done()
		}
		delete(d.pending, key)
	}
	d.mu.Unlock()

	d.wg.Wait()
}

// Len is the number of actions still waiting to run.
func (d *DelayedActions) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
