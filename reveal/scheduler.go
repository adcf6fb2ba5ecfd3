package reveal

import (
	"sort"
	"time"
)

// Timer is a pending scheduled call.
type Timer interface {
	// Stop cancels the call. It reports whether the call was still pending.
	Stop() bool
}

// Scheduler defers a call by d. Calls must be delivered on the goroutine
// that owns the renderer.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) Timer
}

type queued struct {
	q       *Queue
	due     time.Time
	seq     uint64
	fn      func()
	stopped bool
}

func (t *queued) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.q.remove(t)
	return true
}

// Queue is a single-threaded scheduler. Nothing runs until the owner calls
// RunDue, typically from its event loop after waiting Next.
type Queue struct {
	now   func() time.Time
	items []*queued
	seq   uint64
}

// NewQueue creates a queue reading time from now (time.Now if nil).
func NewQueue(now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{now: now}
}

// Schedule implements Scheduler.
func (q *Queue) Schedule(d time.Duration, fn func()) Timer {
	q.seq++
	t := &queued{q: q, due: q.now().Add(d), seq: q.seq, fn: fn}
	q.items = append(q.items, t)
	sort.SliceStable(q.items, func(i, j int) bool {
		if q.items[i].due.Equal(q.items[j].due) {
			return q.items[i].seq < q.items[j].seq
		}
		return q.items[i].due.Before(q.items[j].due)
	})
	return t
}

// Len returns the number of pending calls.
func (q *Queue) Len() int {
	return len(q.items)
}

// Next returns the wait until the earliest pending call, or false when
// the queue is empty.
func (q *Queue) Next() (time.Duration, bool) {
	if len(q.items) == 0 {
		return 0, false
	}
	return max(q.items[0].due.Sub(q.now()), 0), true
}

// RunDue runs every call that is due, including calls scheduled by those
// calls when they are already due. It returns the number run.
func (q *Queue) RunDue() int {
	ran := 0
	for len(q.items) > 0 {
		t := q.items[0]
		if t.due.After(q.now()) {
			break
		}
		q.items = q.items[1:]
		t.stopped = true
		t.fn()
		ran++
	}
	return ran
}

func (q *Queue) remove(t *queued) {
	for i, it := range q.items {
		if it == t {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Manual is a Queue on a virtual clock, advanced explicitly.
type Manual struct {
	*Queue
	clock time.Time
}

// NewManual creates a virtual-clock scheduler starting at the Unix epoch.
func NewManual() *Manual {
	m := &Manual{clock: time.Unix(0, 0)}
	m.Queue = NewQueue(func() time.Time { return m.clock })
	return m
}

// Elapsed returns the virtual time passed since creation.
func (m *Manual) Elapsed() time.Duration {
	return m.clock.Sub(time.Unix(0, 0))
}

// Advance moves the clock forward by d, running calls as they fall due.
func (m *Manual) Advance(d time.Duration) {
	target := m.clock.Add(d)
	for len(m.items) > 0 && !m.items[0].due.After(target) {
		m.clock = m.items[0].due
		m.RunDue()
	}
	m.clock = target
}

// Drain runs pending calls in order until the queue is empty or limit
// calls have run. It returns the number run.
func (m *Manual) Drain(limit int) int {
	ran := 0
	for len(m.items) > 0 && ran < limit {
		m.clock = m.items[0].due
		ran += m.RunDue()
	}
	return ran
}
