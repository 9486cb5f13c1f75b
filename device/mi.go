package device

import (
	"fmt"

	"github.com/meadori/vibe64/cpu"
)

// MI registers.
const (
	MIInitMode = iota
	MIVersion
	MIIntr
	MIIntrMask
)

// MI interrupt bits.
const (
	IntrSP = 0x01
	IntrSI = 0x02
	IntrAI = 0x04
	IntrVI = 0x08
	IntrPI = 0x10
	IntrDP = 0x20
)

// Interrupts is the MIPS interface: it collects RCP interrupts and drives
// the CPU's IP2 line when any enabled one is pending.
type Interrupts struct {
	Regs [MIRegs]uint32

	cpu *cpu.CPU
}

// NewInterrupts creates the MIPS interface wired to c.
func NewInterrupts(c *cpu.CPU) *Interrupts {
	m := &Interrupts{cpu: c}
	m.Reset()
	return m
}

// Reset sets the registers to their power-on values.
func (m *Interrupts) Reset() {
	m.Regs = [MIRegs]uint32{}
	m.Regs[MIVersion] = 0x02020102
}

// Raise flags bits as pending.
func (m *Interrupts) Raise(bits uint32) {
	m.Regs[MIIntr] |= bits
	m.update()
}

// Clear acknowledges bits.
func (m *Interrupts) Clear(bits uint32) {
	m.Regs[MIIntr] &^= bits
	m.update()
}

// Pending reports whether any enabled interrupt is raised.
func (m *Interrupts) Pending() bool {
	return m.Regs[MIIntr]&m.Regs[MIIntrMask] != 0
}

func (m *Interrupts) update() {
	if m.cpu == nil {
		return
	}
	if m.Pending() {
		m.cpu.RaiseCause(cpu.CauseIP2)
	} else {
		m.cpu.ClearCause(cpu.CauseIP2)
	}
}

// Read returns register reg.
func (m *Interrupts) Read(reg int) (uint32, error) {
	if reg < 0 || reg >= MIRegs {
		return 0, fmt.Errorf("read MI[%d]: %w", reg, ErrNoRegister)
	}
	return m.Regs[reg], nil
}

// Write handles a CPU write. INIT_MODE and INTR_MASK take set/clear bit
// pairs rather than plain values; INTR is read only.
func (m *Interrupts) Write(reg int, value, mask uint32) error {
	w := value & mask
	switch reg {
	case MIInitMode:
		m.writeInitMode(w)
	case MIIntrMask:
		m.writeIntrMask(w)
	case MIVersion, MIIntr:
	default:
		return fmt.Errorf("write MI[%d]: %w", reg, ErrNoRegister)
	}
	return nil
}

func (m *Interrupts) writeInitMode(w uint32) {
	mode := &m.Regs[MIInitMode]
	*mode = *mode&^0x7F | w&0x7F

	setClear := func(clearBit, setBit, flag uint32) {
		if w&clearBit != 0 {
			*mode &^= flag
		}
		if w&setBit != 0 {
			*mode |= flag
		}
	}
	setClear(0x80, 0x100, 0x80)     // init
	setClear(0x200, 0x400, 0x100)   // ebus test
	setClear(0x1000, 0x2000, 0x200) // RDRAM register mode

	if w&0x800 != 0 {
		m.Clear(IntrDP)
	}
}

func (m *Interrupts) writeIntrMask(w uint32) {
	for i := uint32(0); i < 6; i++ {
		if w&(1<<(2*i)) != 0 {
			m.Regs[MIIntrMask] &^= 1 << i
		}
		if w&(2<<(2*i)) != 0 {
			m.Regs[MIIntrMask] |= 1 << i
		}
	}
	m.update()
}

func (m *Interrupts) SaveState() [MIRegs]uint32 {
	return m.Regs
}

func (m *Interrupts) LoadState(s [MIRegs]uint32) {
	m.Regs = s
}
