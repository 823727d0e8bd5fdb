package sim

import "testing"

func scheduleWithEvents(times ...float64) *Schedule {
	s := &Schedule{State: StateE, Stratum: Stratum{Age: 0, Risk: 0, Vax: 0}}
	for _, t := range times {
		s.push(Event{Type: EventEtoA, Time: t})
	}
	s.heapify()
	return s
}

func TestScheduleQueue_PopTopReturnsEarliest(t *testing.T) {
	q := NewScheduleQueue()
	q.Insert(scheduleWithEvents(5))
	q.Insert(scheduleWithEvents(1))
	q.Insert(scheduleWithEvents(3))

	top, ok := q.PopTop()
	if !ok {
		t.Fatal("PopTop() returned false on non-empty queue")
	}
	tm, _ := top.PeekNextTime()
	if tm != 1 {
		t.Errorf("earliest popped time = %v, want 1", tm)
	}
}

func TestScheduleQueue_EmptyScheduleNotInserted(t *testing.T) {
	q := NewScheduleQueue()
	empty := &Schedule{}
	q.Insert(empty)
	if q.Len() != 0 {
		t.Errorf("Len() = %d after inserting empty schedule, want 0", q.Len())
	}
}

func TestScheduleQueue_RequeueKeepsScheduleUntilDrained(t *testing.T) {
	q := NewScheduleQueue()
	s := scheduleWithEvents(1, 2)
	q.Insert(s)

	q.PopTop()
	e, ok := q.Requeue(s)
	if !ok || e.Time != 1 {
		t.Fatalf("first Requeue: got (%v, %v), want (time=1, true)", e, ok)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d after first Requeue, want 1 (schedule still has one pending event)", q.Len())
	}

	top, _ := q.PopTop()
	e2, ok := q.Requeue(top)
	if !ok || e2.Time != 2 {
		t.Fatalf("second Requeue: got (%v, %v), want (time=2, true)", e2, ok)
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d after schedule drained, want 0", q.Len())
	}
}

func TestScheduleQueue_PopTopOnEmptyReturnsFalse(t *testing.T) {
	q := NewScheduleQueue()
	if _, ok := q.PopTop(); ok {
		t.Error("PopTop() on empty queue: ok = true, want false")
	}
}

func TestScheduleQueue_PeekTopDoesNotRemove(t *testing.T) {
	q := NewScheduleQueue()
	q.Insert(scheduleWithEvents(9))
	if _, ok := q.PeekTop(); !ok {
		t.Fatal("PeekTop() returned false on non-empty queue")
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d after PeekTop, want 1 (peek must not remove)", q.Len())
	}
}

func TestScheduleQueue_HeapOrderMaintainedAcrossMixedSchedules(t *testing.T) {
	q := NewScheduleQueue()
	q.Insert(scheduleWithEvents(10, 20))
	q.Insert(scheduleWithEvents(2, 30))
	q.Insert(scheduleWithEvents(15))

	var seen []float64
	for q.Len() > 0 {
		top, _ := q.PopTop()
		e, _ := q.Requeue(top)
		seen = append(seen, e.Time)
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("events dequeued out of order: %v", seen)
		}
	}
}
