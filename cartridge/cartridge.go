package cartridge

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/meadori/vibe64/plugin"
)

// DigestSize is the size of the identity digest stored in save states.
const DigestSize = 32

// Digest identifies a program image: the upper-case hex MD5 of its bytes.
type Digest [DigestSize]byte

func (d Digest) String() string { return string(d[:]) }

// ParseDigest converts a 32 character hex string into a Digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != DigestSize {
		return d, fmt.Errorf("digest %q: want %d hex characters", s, DigestSize)
	}
	if _, err := hex.DecodeString(s); err != nil {
		return d, fmt.Errorf("digest %q: %w", s, err)
	}
	copy(d[:], strings.ToUpper(s))
	return d, nil
}

// Sum computes the identity digest of image.
func Sum(image []byte) Digest {
	sum := md5.Sum(image)
	var d Digest
	copy(d[:], strings.ToUpper(hex.EncodeToString(sum[:])))
	return d
}

// Cartridge is the loaded program image together with its save hardware.
type Cartridge struct {
	Image    []byte
	Digest   Digest
	System   plugin.SystemType
	FlashRAM FlashRAM
}

// New creates a Cartridge for an image already in memory.
func New(image []byte, system plugin.SystemType) *Cartridge {
	c := &Cartridge{
		Image:  image,
		Digest: Sum(image),
		System: system,
	}
	c.FlashRAM.Reset()
	return c
}

// Open reads a program image from path.
func Open(path string, system plugin.SystemType) (*Cartridge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image %s is empty", path)
	}
	return New(data, system), nil
}
