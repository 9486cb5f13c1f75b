// Package device holds the memory-mapped register files of the RCP devices
// and the MIPS interface interrupt controller.
package device

import (
	"errors"
	"fmt"
)

// ID names a register bank in the physical address space.
type ID int

const (
	RDRAM ID = iota
	MI
	PI
	SP
	SP2
	SI
	VI
	RI
	AI
	DPC
	DPS
)

var names = [...]string{"RDRAM", "MI", "PI", "SP", "SP2", "SI", "VI", "RI", "AI", "DPC", "DPS"}

func (id ID) String() string {
	if id < 0 || int(id) >= len(names) {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return names[id]
}

// Register counts per bank. They never change.
const (
	RDRAMRegs = 10
	MIRegs    = 4
	PIRegs    = 13
	SPRegs    = 8
	SP2Regs   = 2
	SIRegs    = 4
	VIRegs    = 14
	RIRegs    = 8
	AIRegs    = 6
	DPCRegs   = 8
	DPSRegs   = 4
)

// Count returns the number of registers in bank id.
func Count(id ID) int {
	switch id {
	case RDRAM:
		return RDRAMRegs
	case MI:
		return MIRegs
	case PI:
		return PIRegs
	case SP:
		return SPRegs
	case SP2:
		return SP2Regs
	case SI:
		return SIRegs
	case VI:
		return VIRegs
	case RI:
		return RIRegs
	case AI:
		return AIRegs
	case DPC:
		return DPCRegs
	case DPS:
		return DPSRegs
	}
	return 0
}

// RDRAM registers.
const (
	RDRAMConfig = iota
	RDRAMDeviceID
	RDRAMDelay
	RDRAMMode
	RDRAMRefInterval
	RDRAMRefRow
	RDRAMRASInterval
	RDRAMMinInterval
	RDRAMAddrSelect
	RDRAMDeviceManuf
)

// PI registers.
const (
	PIDRAMAddr = iota
	PICartAddr
	PIRdLen
	PIWrLen
	PIStatus
	PIBSDDom1Lat
	PIBSDDom1Pwd
	PIBSDDom1Pgs
	PIBSDDom1Rls
	PIBSDDom2Lat
	PIBSDDom2Pwd
	PIBSDDom2Pgs
	PIBSDDom2Rls
)

// SP registers.
const (
	SPMemAddr = iota
	SPDRAMAddr
	SPRdLen
	SPWrLen
	SPStatus
	SPDMAFull
	SPDMABusy
	SPSemaphore
)

// SP2 registers.
const (
	SPPC = iota
	SPIBIST
)

// SI registers.
const (
	SIDRAMAddr = iota
	SIPIFAddrRd64B
	SIPIFAddrWr64B
	SIStatus
)

// RI registers.
const (
	RIMode = iota
	RIConfig
	RICurrentLoad
	RISelect
	RIRefresh
	RILatency
	RIError
	RIWError
)

// DPC registers.
const (
	DPCStart = iota
	DPCEnd
	DPCCurrent
	DPCStatus
	DPCClock
	DPCBufBusy
	DPCPipeBusy
	DPCTMEM
)

// DPS registers.
const (
	DPSTBIST = iota
	DPSTestMode
	DPSBufTestAddr
	DPSBufTestData
)

var ErrNoRegister = errors.New("no such register")

// MaskedWrite updates the bits of *dst selected by mask.
func MaskedWrite(dst *uint32, value, mask uint32) {
	*dst = (*dst &^ mask) | (value & mask)
}

// File holds the register banks whose registers are plain storage.
type File struct {
	RDRAM [RDRAMRegs]uint32
	PI    [PIRegs]uint32
	SP    [SPRegs]uint32
	SP2   [SP2Regs]uint32
	SI    [SIRegs]uint32
	RI    [RIRegs]uint32
	DPC   [DPCRegs]uint32
	DPS   [DPSRegs]uint32
}

// Reset sets every register to its power-on value.
func (f *File) Reset() {
	*f = File{}
	f.SP[SPStatus] = 1
}

func (f *File) bank(id ID) []uint32 {
	switch id {
	case RDRAM:
		return f.RDRAM[:]
	case PI:
		return f.PI[:]
	case SP:
		return f.SP[:]
	case SP2:
		return f.SP2[:]
	case SI:
		return f.SI[:]
	case RI:
		return f.RI[:]
	case DPC:
		return f.DPC[:]
	case DPS:
		return f.DPS[:]
	}
	return nil
}

// Read returns register reg of bank id.
func (f *File) Read(id ID, reg int) (uint32, error) {
	regs := f.bank(id)
	if reg < 0 || reg >= len(regs) {
		return 0, fmt.Errorf("read %v[%d]: %w", id, reg, ErrNoRegister)
	}
	return regs[reg], nil
}

// Write applies a masked write to register reg of bank id.
func (f *File) Write(id ID, reg int, value, mask uint32) error {
	regs := f.bank(id)
	if reg < 0 || reg >= len(regs) {
		return fmt.Errorf("write %v[%d]: %w", id, reg, ErrNoRegister)
	}
	MaskedWrite(&regs[reg], value, mask)
	return nil
}
