// Per-node priority queue of live Schedules, ordered by each schedule's next
// pending event time. Grounded on the teacher's EventQueue
// (container/heap.Interface over a concrete slice), generalized to carry
// *Schedule instead of Event and to support in-place cancellation without a
// heap removal (spec.md §4.4: "stable handles... O(log n) cancel").

package sim

import "container/heap"

// ScheduleQueue is a min-heap of *Schedule ordered by PeekNextTime. Canceled
// schedules are left in place until they surface at the top of the heap,
// matching original_source's pop-then-check pattern in simulate().
type ScheduleQueue []*Schedule

func (q ScheduleQueue) Len() int { return len(q) }

func (q ScheduleQueue) Less(i, j int) bool {
	ti, oki := q[i].PeekNextTime()
	tj, okj := q[j].PeekNextTime()
	if !oki {
		return false
	}
	if !okj {
		return true
	}
	return ti < tj
}

func (q ScheduleQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].queueIndex = i
	q[j].queueIndex = j
}

func (q *ScheduleQueue) Push(x any) {
	s := x.(*Schedule)
	s.queueIndex = len(*q)
	*q = append(*q, s)
}

func (q *ScheduleQueue) Pop() any {
	old := *q
	n := len(old)
	s := old[n-1]
	old[n-1] = nil
	s.queueIndex = -1
	*q = old[:n-1]
	return s
}

// NewScheduleQueue returns an empty, heap-ready queue.
func NewScheduleQueue() *ScheduleQueue {
	q := make(ScheduleQueue, 0)
	heap.Init(&q)
	return &q
}

// Insert adds a schedule to the queue. Empty schedules (nothing pending) are
// not inserted.
func (q *ScheduleQueue) Insert(s *Schedule) {
	if s.Empty() {
		return
	}
	heap.Push(q, s)
}

// Fix restores heap order after an external mutation to s's pending events
// (such as canceling it, which does not change ordering, or re-deriving its
// next event time). Safe to call even if s is not currently in the queue.
func (q *ScheduleQueue) Fix(s *Schedule) {
	if s.queueIndex < 0 || s.queueIndex >= len(*q) {
		return
	}
	heap.Fix(q, s.queueIndex)
}

// PeekTop returns the schedule with the earliest next event, without
// removing it, or false if the queue is empty.
func (q *ScheduleQueue) PeekTop() (*Schedule, bool) {
	if len(*q) == 0 {
		return nil, false
	}
	return (*q)[0], true
}

// PopTop removes and returns the schedule with the earliest next event.
func (q *ScheduleQueue) PopTop() (*Schedule, bool) {
	if len(*q) == 0 {
		return nil, false
	}
	return heap.Pop(q).(*Schedule), true
}

// Requeue pops a schedule's next event for execution, then reinserts the
// schedule if it still has pending events (original_source's drain loop:
// pop, process, push back if non-empty). Canceled schedules still have their
// event consumed (so the heap drains), but no population effects should be
// applied by the caller for canceled schedules.
func (q *ScheduleQueue) Requeue(s *Schedule) (Event, bool) {
	e, ok := s.PopNext()
	if !ok {
		return Event{}, false
	}
	if !s.Empty() {
		heap.Push(q, s)
	}
	return e, true
}
