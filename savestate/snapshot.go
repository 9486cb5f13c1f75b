// Package savestate encodes and decodes whole-machine snapshots in the
// Mupen64Plus "M64+SAVE" version 1.0 format.
//
// Blob layout:
//
//	[8-byte magic "M64+SAVE"][4-byte big-endian version][32-byte ROM MD5]
//	[fixed little-endian body, see Layout][event queue, at most 1024 bytes]
package savestate

import (
	"github.com/meadori/vibe64/ai"
	"github.com/meadori/vibe64/cartridge"
	"github.com/meadori/vibe64/cpu"
	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/scheduler"
	"github.com/meadori/vibe64/vi"
)

// Snapshot is a complete machine state, staged between the live machine
// and a blob. It is large; always pass it by pointer.
type Snapshot struct {
	Regs device.File
	MI   [device.MIRegs]uint32
	VI   vi.State
	AI   ai.State

	RDRAM  [device.RDRAMWords]uint32
	SPMem  [device.SPMemWords]uint32
	PIFRAM [device.PIFRAMSize]byte

	FlashRAM cartridge.FlashRAM

	LUTR [cpu.LUTSize]uint32
	LUTW [cpu.LUTSize]uint32

	// CPU.FGR is in the live layout selected by CPU.CP0[cpu.CP0Status].
	CPU cpu.State
	PC  uint32

	NextInterrupt uint32
	Events        []scheduler.Event
}

// Header is the identifying prefix of a blob.
type Header struct {
	Version uint32
	Digest  cartridge.Digest
}
