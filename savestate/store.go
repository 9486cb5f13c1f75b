package savestate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/meadori/vibe64/cartridge"
)

// Slots is the number of save slots per ROM.
const Slots = 10

var (
	ErrBadSlot   = errors.New("slot out of range")
	ErrEmptySlot = errors.New("slot is empty")
)

// SlotInfo describes one occupied slot.
type SlotInfo struct {
	Slot    int
	Path    string
	Size    int64
	ModTime time.Time
}

// Store keeps gzip-compressed blobs in numbered slots, one set per ROM
// digest. Recently read blobs are cached uncompressed.
type Store struct {
	fs    afero.Fs
	dir   string
	cache *lru.Cache[string, []byte]
}

// NewStore returns a store rooted at dir on fs, caching up to cacheSize
// blobs.
func NewStore(fs afero.Fs, dir string, cacheSize int) (*Store, error) {
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create slot cache: %w", err)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create save directory: %w", err)
	}
	return &Store{fs: fs, dir: dir, cache: cache}, nil
}

// Path returns the file name used for a slot.
func (st *Store) Path(digest cartridge.Digest, slot int) string {
	return filepath.Join(st.dir, fmt.Sprintf("%s.st%d", digest, slot))
}

func checkSlot(slot int) error {
	if slot < 0 || slot >= Slots {
		return fmt.Errorf("%w: %d", ErrBadSlot, slot)
	}
	return nil
}

// Write compresses blob into the slot, replacing any previous content.
func (st *Store) Write(digest cartridge.Digest, slot int, blob []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	path := st.Path(digest, slot)
	tmp := path + ".tmp"

	if err := st.writeTemp(tmp, blob); err != nil {
		st.fs.Remove(tmp)
		return err
	}
	if err := st.fs.Rename(tmp, path); err != nil {
		st.fs.Remove(tmp)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	st.cache.Add(path, blob)
	return nil
}

func (st *Store) writeTemp(tmp string, blob []byte) error {
	f, err := st.fs.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write(blob); err != nil {
		f.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// Read returns the uncompressed blob in a slot. Uncompressed files are
// accepted as is.
func (st *Store) Read(digest cartridge.Digest, slot int) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	path := st.Path(digest, slot)
	if blob, ok := st.cache.Get(path); ok {
		return blob, nil
	}

	raw, err := afero.ReadFile(st.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %d", ErrEmptySlot, slot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	blob := raw
	if len(raw) >= 2 && raw[0] == 0x1f && raw[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to open state file: %w", err)
		}
		defer zr.Close()
		if blob, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("failed to decompress state file: %w", err)
		}
	}

	st.cache.Add(path, blob)
	return blob, nil
}

// List returns the occupied slots for a ROM in slot order.
func (st *Store) List(digest cartridge.Digest) ([]SlotInfo, error) {
	var out []SlotInfo
	for slot := range Slots {
		path := st.Path(digest, slot)
		fi, err := st.fs.Stat(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, SlotInfo{Slot: slot, Path: path, Size: fi.Size(), ModTime: fi.ModTime()})
	}
	return out, nil
}
