// Package timer is the single-threaded scheduled-callback queue that drives every
// delayed and looping behavior in a scene: enemy AI choices, spawn cadence,
// invulnerability windows, animation completions and question advances.
//
// Time only moves when the owner calls Advance, so a scene is fully deterministic
// under test. Nothing in this package starts goroutines.
package timer

import (
	"container/heap"
	"time"
)

// ID identifies a scheduled callback.
type ID uint64

// DelayFunc returns the next delay of a looping timer. It is called once per
// cycle, so randomized cadences are re-rolled every time.
type DelayFunc func() time.Duration

type entry struct {
	id       ID
	due      time.Duration
	seq      uint64
	fn       func()
	next     DelayFunc // nil for one-shot timers
	index    int
	canceled bool
}

type queue []*entry

func (q queue) Len() int { return len(q) }
func (q queue) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}
func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *queue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}
func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

// Scheduler orders callbacks by due time, then by scheduling order.
type Scheduler struct {
	now     time.Duration
	q       queue
	entries map[ID]*entry
	nextID  ID
	seq     uint64
}

// NewScheduler creates an empty scheduler at time zero.
func NewScheduler() *Scheduler {
	return &Scheduler{entries: make(map[ID]*entry)}
}

// Now returns the scheduler's simulated time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Pending returns the number of live timers.
func (s *Scheduler) Pending() int {
	return len(s.entries)
}

// After runs fn once, d after the current time.
func (s *Scheduler) After(d time.Duration, fn func()) Handle {
	return s.schedule(d, fn, nil)
}

// Every runs fn repeatedly. The first delay and every following one come from next.
func (s *Scheduler) Every(next DelayFunc, fn func()) Handle {
	return s.schedule(next(), fn, next)
}

func (s *Scheduler) schedule(d time.Duration, fn func(), next DelayFunc) Handle {
	if d < 0 {
		d = 0
	}
	s.nextID++
	s.seq++
	e := &entry{
		id:   s.nextID,
		due:  s.now + d,
		seq:  s.seq,
		fn:   fn,
		next: next,
	}
	heap.Push(&s.q, e)
	s.entries[e.id] = e
	return Handle{id: e.id, s: s}
}

// Cancel removes a timer. Returns false if it already fired or was canceled.
func (s *Scheduler) Cancel(id ID) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.canceled = true
	delete(s.entries, id)
	if e.index >= 0 {
		heap.Remove(&s.q, e.index)
	}
	return true
}

// Active reports whether a timer is still scheduled.
func (s *Scheduler) Active(id ID) bool {
	_, ok := s.entries[id]
	return ok
}

// Remaining returns the time left on a timer, or 0 if it is not scheduled.
func (s *Scheduler) Remaining(id ID) time.Duration {
	e, ok := s.entries[id]
	if !ok {
		return 0
	}
	return e.due - s.now
}

// Advance moves time forward by dt and fires every callback that comes due, in
// order. Callbacks may schedule or cancel other timers; a timer scheduled with a
// zero delay from inside a callback fires in the same Advance.
func (s *Scheduler) Advance(dt time.Duration) int {
	target := s.now + dt
	fired := 0
	for len(s.q) > 0 && s.q[0].due <= target {
		e := heap.Pop(&s.q).(*entry)
		if e.canceled {
			continue
		}
		s.now = e.due

		if e.next != nil {
			s.seq++
			e.due = s.now + maxDuration(e.next(), time.Millisecond)
			e.seq = s.seq
			heap.Push(&s.q, e)
		} else {
			delete(s.entries, e.id)
		}

		e.fn()
		fired++
	}
	s.now = target
	return fired
}

// Clear cancels every timer.
func (s *Scheduler) Clear() {
	for _, e := range s.q {
		e.canceled = true
	}
	s.q = s.q[:0]
	s.entries = make(map[ID]*entry)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

// Handle is a reference to one scheduled timer.
type Handle struct {
	id ID
	s  *Scheduler
}

// ID returns the timer id (zero for an empty handle).
func (h Handle) ID() ID {
	return h.id
}

// Stop cancels the timer. Safe on an empty handle.
func (h Handle) Stop() bool {
	if h.s == nil {
		return false
	}
	return h.s.Cancel(h.id)
}

// Active reports whether the timer is still scheduled.
func (h Handle) Active() bool {
	return h.s != nil && h.s.Active(h.id)
}

// Remaining returns the time left before the timer fires.
func (h Handle) Remaining() time.Duration {
	if h.s == nil {
		return 0
	}
	return h.s.Remaining(h.id)
}

// Group tracks the timers owned by one scene, lane or actor so they can be
// cancelled together on teardown, restart or pool return.
type Group struct {
	s   *Scheduler
	ids map[ID]struct{}
}

// NewGroup creates an empty group on this scheduler.
func (s *Scheduler) NewGroup() *Group {
	return &Group{s: s, ids: make(map[ID]struct{})}
}

// After schedules a one-shot timer owned by the group.
func (g *Group) After(d time.Duration, fn func()) Handle {
	var id ID
	h := g.s.After(d, func() {
		delete(g.ids, id)
		fn()
	})
	id = h.id
	g.ids[id] = struct{}{}
	return h
}

// Every schedules a looping timer owned by the group.
func (g *Group) Every(next DelayFunc, fn func()) Handle {
	h := g.s.Every(next, fn)
	g.ids[h.id] = struct{}{}
	return h
}

// Cancel stops one timer of the group.
func (g *Group) Cancel(h Handle) bool {
	delete(g.ids, h.id)
	return g.s.Cancel(h.id)
}

// CancelAll stops every timer in the group and returns how many were live.
func (g *Group) CancelAll() int {
	n := 0
	for id := range g.ids {
		if g.s.Cancel(id) {
			n++
		}
	}
	clear(g.ids)
	return n
}

// Len returns the number of live timers in the group.
func (g *Group) Len() int {
	n := 0
	for id := range g.ids {
		if g.s.Active(id) {
			n++
		}
	}
	return n
}
