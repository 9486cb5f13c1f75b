package savestate

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/meadori/vibe64/cartridge"
	"github.com/meadori/vibe64/scheduler"
)

const (
	Magic   = "M64+SAVE"
	Version = 0x00010000

	// HeaderSize covers the magic, the version and the ROM digest.
	HeaderSize = len(Magic) + 4 + cartridge.DigestSize
)

// FixedSize is the size of a blob without its event queue.
func FixedSize() int {
	return HeaderSize + bodySize
}

// ReadHeader validates the magic and version of data and returns its
// header.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < len(Magic) || !bytes.Equal(data[:len(Magic)], []byte(Magic)) {
		return h, ErrFormatMismatch
	}
	if len(data) < HeaderSize {
		return h, fmt.Errorf("%w: %d byte header", ErrTruncated, len(data))
	}
	h.Version = binary.BigEndian.Uint32(data[len(Magic):])
	if h.Version != Version {
		return h, fmt.Errorf("%w: %#08x", ErrVersionMismatch, h.Version)
	}
	copy(h.Digest[:], data[len(Magic)+4:HeaderSize])
	return h, nil
}

// Encode serializes s for the ROM identified by digest.
func Encode(s *Snapshot, digest cartridge.Digest) ([]byte, error) {
	if len(s.Events) > scheduler.MaxEvents {
		return nil, fmt.Errorf("%w: %d events", scheduler.ErrQueueCapacityExceeded, len(s.Events))
	}
	queue := scheduler.Serialize(s.Events)

	buf := make([]byte, FixedSize(), FixedSize()+len(queue))
	copy(buf, Magic)
	binary.BigEndian.PutUint32(buf[len(Magic):], Version)
	copy(buf[len(Magic)+4:], digest[:])

	off := HeaderSize
	for _, f := range schema {
		f.put(buf[off:off+f.size], s)
		off += f.size
	}
	return append(buf, queue...), nil
}

// Decode parses data into a new Snapshot. data must carry the given ROM
// digest. Nothing outside the returned Snapshot is touched, so a failed
// decode leaves the caller's machine as it was.
func Decode(data []byte, digest cartridge.Digest) (*Snapshot, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Digest != digest {
		return nil, fmt.Errorf("%w: have %s, want %s", ErrIdentityMismatch, h.Digest, digest)
	}
	if len(data) < FixedSize()+4 {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrTruncated, len(data), FixedSize()+4)
	}

	s := new(Snapshot)
	off := HeaderSize
	for _, f := range schema {
		if f.get != nil {
			f.get(data[off:off+f.size], s)
		}
		off += f.size
	}

	s.Events, err = scheduler.Deserialize(data[off:])
	if err != nil {
		return nil, err
	}
	return s, nil
}
