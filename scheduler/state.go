package scheduler

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// QueueBytes is the fixed budget of the persisted event queue.
	QueueBytes = 1024

	eventBytes = 8
	terminator = 0xFFFFFFFF

	// MaxEvents is the largest queue that fits QueueBytes with its
	// terminator.
	MaxEvents = (QueueBytes - 4) / eventBytes
)

var ErrCorruptQueue = errors.New("corrupt event queue")

// Serialize encodes the queue as little-endian (type, count) pairs followed
// by a 0xFFFFFFFF terminator.
func (s *Scheduler) Serialize() []byte {
	return Serialize(s.events)
}

// Serialize encodes events in the persisted queue format.
func Serialize(events []Event) []byte {
	buf := make([]byte, 0, len(events)*eventBytes+4)
	for _, e := range events {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(e.Type))
		buf = binary.LittleEndian.AppendUint32(buf, e.Count)
	}
	return binary.LittleEndian.AppendUint32(buf, terminator)
}

// Deserialize decodes a persisted queue. Bytes after the terminator are
// ignored; at most QueueBytes are examined.
func Deserialize(buf []byte) ([]Event, error) {
	if len(buf) > QueueBytes {
		buf = buf[:QueueBytes]
	}

	var events []Event
	for off := 0; ; off += eventBytes {
		if off+4 > len(buf) {
			return nil, fmt.Errorf("%w: no terminator in %d bytes", ErrCorruptQueue, len(buf))
		}
		t := binary.LittleEndian.Uint32(buf[off:])
		if t == terminator {
			return events, nil
		}
		if off+eventBytes > len(buf) {
			return nil, fmt.Errorf("%w: event at offset %d truncated", ErrCorruptQueue, off)
		}
		events = append(events, Event{Type: Type(t), Count: binary.LittleEndian.Uint32(buf[off+4:])})
	}
}

// Load replaces the queue with the events decoded from buf. Every event type
// must have a registered handler; otherwise the queue is left as it was.
func (s *Scheduler) Load(buf []byte) error {
	events, err := Deserialize(buf)
	if err != nil {
		return err
	}
	if err := s.Validate(events); err != nil {
		return err
	}
	return s.Replace(events)
}

// Validate checks that every event type has a registered handler.
func (s *Scheduler) Validate(events []Event) error {
	for _, e := range events {
		if !s.Known(e.Type) {
			return fmt.Errorf("%w: %v at %d", ErrUnknownEventType, e.Type, e.Count)
		}
	}
	return nil
}
