// Package scheduler keeps the ordered queue of pending hardware events and
// dispatches them to the devices that own them.
package scheduler

import (
	"errors"
	"fmt"
	"log"
	"slices"
)

// Type tags an event with the device interrupt it belongs to.
type Type uint32

const (
	VI      Type = 0x001
	Compare Type = 0x002
	Check   Type = 0x004
	SI      Type = 0x008
	PI      Type = 0x010
	Special Type = 0x020
	AI      Type = 0x040
	SP      Type = 0x080
	DP      Type = 0x100
	HW2     Type = 0x200
	NMI     Type = 0x400
)

func (t Type) String() string {
	switch t {
	case VI:
		return "VI"
	case Compare:
		return "COMPARE"
	case Check:
		return "CHECK"
	case SI:
		return "SI"
	case PI:
		return "PI"
	case Special:
		return "SPECIAL"
	case AI:
		return "AI"
	case SP:
		return "SP"
	case DP:
		return "DP"
	case HW2:
		return "HW2"
	case NMI:
		return "NMI"
	}
	return fmt.Sprintf("Type(%#x)", uint32(t))
}

// Event is a pending action that fires when the cycle counter reaches Count.
type Event struct {
	Type  Type
	Count uint32
}

var (
	ErrQueueCapacityExceeded = errors.New("event queue capacity exceeded")
	ErrUnknownEventType      = errors.New("unknown event type")
)

// Handler fires an event on behalf of its owning device.
type Handler func()

// Scheduler holds pending events sorted by how far ahead of the cycle
// counter they trigger, so ordering survives the counter wrapping. Events
// with the same count fire in the order they were scheduled.
type Scheduler struct {
	events   []Event
	handlers map[Type]Handler
	clock    func() uint32
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{handlers: make(map[Type]Handler)}
}

// Handle registers the handler for an event type.
func (s *Scheduler) Handle(t Type, h Handler) {
	s.handlers[t] = h
}

// SetClock sets the cycle counter new events are ordered against. Without
// one the counter reads as zero.
func (s *Scheduler) SetClock(now func() uint32) {
	s.clock = now
}

func (s *Scheduler) now() uint32 {
	if s.clock == nil {
		return 0
	}
	return s.clock()
}

// Until returns the signed distance from now to at. Negative values are
// in the past.
func Until(at, now uint32) int32 {
	return int32(at - now)
}

// Due reports whether an event at count at has come due by now.
func Due(at, now uint32) bool {
	return Until(at, now) <= 0
}

// Known reports whether a handler is registered for t.
func (s *Scheduler) Known(t Type) bool {
	_, ok := s.handlers[t]
	return ok
}

// Schedule inserts an event. It fails, leaving the queue untouched, when the
// queue could no longer be persisted.
func (s *Scheduler) Schedule(t Type, at uint32) error {
	if len(s.events)+1 > MaxEvents {
		return fmt.Errorf("schedule %v at %d: %w", t, at, ErrQueueCapacityExceeded)
	}
	i := s.insertIndex(at)
	s.events = slices.Insert(s.events, i, Event{Type: t, Count: at})
	return nil
}

func (s *Scheduler) insertIndex(at uint32) int {
	now := s.now()
	i, _ := slices.BinarySearchFunc(s.events, Until(at, now), func(e Event, d int32) int {
		if Until(e.Count, now) <= d {
			return -1
		}
		return 1
	})
	return i
}

// Remove cancels the earliest pending event of type t.
func (s *Scheduler) Remove(t Type) bool {
	for i, e := range s.events {
		if e.Type == t {
			s.events = slices.Delete(s.events, i, i+1)
			return true
		}
	}
	return false
}

// Find returns the earliest pending event of type t.
func (s *Scheduler) Find(t Type) (Event, bool) {
	for _, e := range s.events {
		if e.Type == t {
			return e, true
		}
	}
	return Event{}, false
}

// Next returns the earliest pending event.
func (s *Scheduler) Next() (Event, bool) {
	if len(s.events) == 0 {
		return Event{}, false
	}
	return s.events[0], true
}

// Len returns the number of pending events.
func (s *Scheduler) Len() int {
	return len(s.events)
}

// Events returns a copy of the pending events in firing order.
func (s *Scheduler) Events() []Event {
	return slices.Clone(s.events)
}

// Clear drops every pending event.
func (s *Scheduler) Clear() {
	s.events = s.events[:0]
}

// Replace swaps the whole queue for events. The events are taken in firing
// order, as Serialize writes them.
func (s *Scheduler) Replace(events []Event) error {
	if len(events) > MaxEvents {
		return fmt.Errorf("replace queue with %d events: %w", len(events), ErrQueueCapacityExceeded)
	}
	s.events = slices.Clone(events)
	return nil
}

// PopDue removes and returns every leading event that is due at now.
func (s *Scheduler) PopDue(now uint32) []Event {
	n := 0
	for n < len(s.events) && Due(s.events[n].Count, now) {
		n++
	}
	due := slices.Clone(s.events[:n])
	s.events = slices.Delete(s.events, 0, n)
	return due
}

// Dispatch fires due events one at a time, so that events scheduled by a
// handler are considered as well. It returns the number of events fired.
func (s *Scheduler) Dispatch(now uint32) int {
	fired := 0
	for len(s.events) > 0 && Due(s.events[0].Count, now) {
		e := s.events[0]
		s.events = slices.Delete(s.events, 0, 1)
		fired++

		h, ok := s.handlers[e.Type]
		if !ok {
			log.Printf("scheduler: no handler for %v event at %d", e.Type, e.Count)
			continue
		}
		h()
	}
	return fired
}
