package scheduler

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func counts(events []Event) []uint32 {
	c := make([]uint32, len(events))
	for i, e := range events {
		c[i] = e.Count
	}
	return c
}

func mustSchedule(t *testing.T, s *Scheduler, typ Type, at uint32) {
	t.Helper()

	if err := s.Schedule(typ, at); err != nil {
		t.Fatalf("Schedule(%v, %d): %v", typ, at, err)
	}
}

func TestPopDueOrder(t *testing.T) {
	t.Parallel()

	s := New()
	mustSchedule(t, s, VI, 100)
	mustSchedule(t, s, AI, 50)
	mustSchedule(t, s, SI, 75)
	mustSchedule(t, s, PI, 5000)

	due := s.PopDue(1000)
	if got, want := counts(due), []uint32{50, 75, 100}; !slices.Equal(got, want) {
		t.Fatalf("PopDue(1000) = %v, want %v", got, want)
	}

	next, ok := s.Next()
	if !ok || next.Count != 5000 {
		t.Errorf("event beyond the current cycle must stay queued, got %+v %v", next, ok)
	}
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	t.Parallel()

	s := New()
	mustSchedule(t, s, VI, 10)
	mustSchedule(t, s, AI, 10)
	mustSchedule(t, s, SP, 5)
	mustSchedule(t, s, DP, 10)

	due := s.PopDue(10)
	want := []Type{SP, VI, AI, DP}
	for i, e := range due {
		if e.Type != want[i] {
			t.Fatalf("event %d is %v, want %v", i, e.Type, want[i])
		}
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	s := New()
	mustSchedule(t, s, VI, 10)
	mustSchedule(t, s, AI, 20)

	if !s.Remove(VI) {
		t.Fatal("Remove(VI) found nothing")
	}
	if s.Remove(VI) {
		t.Error("VI was already removed")
	}
	if s.Len() != 1 {
		t.Errorf("Expected 1 event left, but got %d", s.Len())
	}
}

func TestCapacityBoundary(t *testing.T) {
	t.Parallel()

	s := New()
	for i := 0; i < MaxEvents; i++ {
		mustSchedule(t, s, Check, uint32(i))
	}
	before := s.Serialize()
	if len(before) > QueueBytes {
		t.Fatalf("full queue serializes to %d bytes", len(before))
	}

	err := s.Schedule(VI, 1)
	if !errors.Is(err, ErrQueueCapacityExceeded) {
		t.Fatalf("Schedule on a full queue returned %v", err)
	}
	if !bytes.Equal(s.Serialize(), before) {
		t.Error("failed Schedule modified the queue")
	}
}

func TestDispatchCallsHandlers(t *testing.T) {
	t.Parallel()

	s := New()
	var fired []Type

	s.Handle(VI, func() {
		fired = append(fired, VI)
		// reschedule inside the handler, already due
		if len(fired) == 1 {
			_ = s.Schedule(AI, 40)
		}
	})
	s.Handle(AI, func() { fired = append(fired, AI) })

	mustSchedule(t, s, VI, 30)
	mustSchedule(t, s, AI, 500)

	if n := s.Dispatch(100); n != 2 {
		t.Errorf("Dispatch fired %d events, want 2", n)
	}
	if !slices.Equal(fired, []Type{VI, AI}) {
		t.Errorf("fired %v", fired)
	}
	if s.Len() != 1 {
		t.Errorf("Expected the AI event at 500 to remain, queue has %d", s.Len())
	}
}

func TestOrderAcrossWrap(t *testing.T) {
	t.Parallel()

	now := uint32(0xFFFFF000)
	s := New()
	s.SetClock(func() uint32 { return now })
	mustSchedule(t, s, Compare, 0x100)
	mustSchedule(t, s, VI, 0xFFFFFF00)
	mustSchedule(t, s, AI, 0x50)

	if got, want := counts(s.Events()), []uint32{0xFFFFFF00, 0x50, 0x100}; !slices.Equal(got, want) {
		t.Fatalf("Expected queue %v, but got %v", want, got)
	}
	if due := s.PopDue(now); len(due) != 0 {
		t.Errorf("nothing is due yet, got %v", due)
	}

	now = 0x60
	due := s.PopDue(now)
	if got, want := counts(due), []uint32{0xFFFFFF00, 0x50}; !slices.Equal(got, want) {
		t.Errorf("PopDue(%#x) = %v, want %v", now, got, want)
	}
}

func TestDue(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		at, now uint32
		want    bool
	}{
		{10, 10, true},
		{10, 11, true},
		{11, 10, false},
		{0xFFFFFFF0, 0x10, true},
		{0x10, 0xFFFFFFF0, false},
	} {
		if got := Due(tt.at, tt.now); got != tt.want {
			t.Errorf("Due(%#x, %#x) = %v, want %v", tt.at, tt.now, got, tt.want)
		}
	}
}
