package scheduler

import (
	"bytes"
	"errors"
	"slices"
	"testing"
)

func TestSerializeFormat(t *testing.T) {
	t.Parallel()

	s := New()
	mustSchedule(t, s, VI, 0x01020304)

	want := []byte{
		0x01, 0x00, 0x00, 0x00,
		0x04, 0x03, 0x02, 0x01,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if got := s.Serialize(); !bytes.Equal(got, want) {
		t.Errorf("Serialize() = % x, want % x", got, want)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	t.Parallel()

	s := New()
	mustSchedule(t, s, Compare, 900)
	mustSchedule(t, s, VI, 100)
	mustSchedule(t, s, AI, 100)

	events, err := Deserialize(s.Serialize())
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if !slices.Equal(events, s.Events()) {
		t.Errorf("Expected %v, but got %v", s.Events(), events)
	}
}

func TestDeserializeIgnoresTrailingBytes(t *testing.T) {
	t.Parallel()

	buf := make([]byte, QueueBytes)
	copy(buf, Serialize([]Event{{VI, 7}}))
	buf[20] = 0xAA

	events, err := Deserialize(buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(events) != 1 || events[0] != (Event{VI, 7}) {
		t.Errorf("unexpected events %v", events)
	}
}

func TestDeserializeRequiresTerminator(t *testing.T) {
	t.Parallel()

	buf := Serialize([]Event{{VI, 7}})
	if _, err := Deserialize(buf[:len(buf)-4]); !errors.Is(err, ErrCorruptQueue) {
		t.Errorf("missing terminator returned %v", err)
	}
	if _, err := Deserialize(buf[:6]); !errors.Is(err, ErrCorruptQueue) {
		t.Errorf("truncated event returned %v", err)
	}
}

func TestLoadRejectsUnknownTypes(t *testing.T) {
	t.Parallel()

	s := New()
	s.Handle(VI, func() {})
	mustSchedule(t, s, VI, 1)

	err := s.Load(Serialize([]Event{{VI, 2}, {Type(0x8000), 3}}))
	if !errors.Is(err, ErrUnknownEventType) {
		t.Fatalf("Load returned %v", err)
	}
	if got := s.Events(); len(got) != 1 || got[0].Count != 1 {
		t.Errorf("rejected load must keep the old queue, got %v", got)
	}
}

func TestLoadReplacesQueue(t *testing.T) {
	t.Parallel()

	s := New()
	s.Handle(VI, func() {})
	s.Handle(AI, func() {})
	mustSchedule(t, s, VI, 1)

	if err := s.Load(Serialize([]Event{{VI, 10}, {AI, 20}})); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := counts(s.Events()); !slices.Equal(got, []uint32{10, 20}) {
		t.Errorf("Expected queue [10 20], but got %v", got)
	}
}

func TestLoadKeepsOrderAcrossWrap(t *testing.T) {
	t.Parallel()

	s := New()
	s.Handle(VI, func() {})
	s.Handle(Compare, func() {})

	written := []Event{{VI, 0xFFFFFF00}, {Compare, 0x100}}
	if err := s.Load(Serialize(written)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := s.Events(); !slices.Equal(got, written) {
		t.Errorf("Expected queue %v, but got %v", written, got)
	}
}
