package cpu

// Coprocessor 0 register indices.
const (
	CP0Index    = 0
	CP0Random   = 1
	CP0EntryLo0 = 2
	CP0EntryLo1 = 3
	CP0Context  = 4
	CP0PageMask = 5
	CP0Wired    = 6
	CP0BadVAddr = 8
	CP0Count    = 9
	CP0EntryHi  = 10
	CP0Compare  = 11
	CP0Status   = 12
	CP0Cause    = 13
	CP0EPC      = 14
	CP0PRevID   = 15
	CP0Config   = 16
	CP0LLAddr   = 17
	CP0ErrorEPC = 30
)

// Status and Cause register bits.
const (
	StatusIE = 0x00000001
	StatusFR = 0x04000000

	CauseIP2 = 0x00000400 // RCP interrupt line
	CauseIP7 = 0x00008000 // timer interrupt
)

// CPU represents the VR4300 register file: general purpose registers,
// coprocessor 0 and coprocessor 1, plus the TLB. Instruction execution is
// delegated to an Engine.
type CPU struct {
	GPR [32]int64
	CP0 [32]uint32

	// FGR holds the floating point registers in their live layout, which
	// depends on Status.FR. See ToWide and ToNarrow.
	FGR   [32]uint64
	FCR0  uint32
	FCR31 uint32

	Hi    int64
	Lo    int64
	LLBit uint32

	TLB TLB

	Engine Engine
}

// New creates a new CPU instance driven by the given execution engine.
func New(engine Engine) *CPU {
	c := &CPU{Engine: engine}
	c.Reset()
	return c
}

// Reset resets the CPU to its power-on state.
func (c *CPU) Reset() {
	c.GPR = [32]int64{}
	c.CP0 = [32]uint32{}
	c.FGR = [32]uint64{}
	c.Hi, c.Lo, c.LLBit = 0, 0, 0
	c.FCR0 = 0x511
	c.FCR31 = 0

	c.CP0[CP0Random] = 31
	c.CP0[CP0Status] = 0x34000000
	c.CP0[CP0PRevID] = 0x00000B00
	c.CP0[CP0Config] = 0x0006E463

	c.TLB.Reset()
}

// Narrow reports whether the FPU is in 32-bit (MIPS I) register mode.
func (c *CPU) Narrow() bool {
	return c.CP0[CP0Status]&StatusFR == 0
}

// SetStatus writes the Status register, reshaping the live FPU registers
// when the FR bit flips.
func (c *CPU) SetStatus(v uint32) {
	old := c.CP0[CP0Status]
	if (old^v)&StatusFR != 0 {
		if v&StatusFR != 0 {
			c.FGR = ToWide(c.FGR)
		} else {
			c.FGR = ToNarrow(c.FGR)
		}
	}
	c.CP0[CP0Status] = v
}

// RaiseCause sets bits in the Cause register.
func (c *CPU) RaiseCause(bits uint32) {
	c.CP0[CP0Cause] |= bits
}

// ClearCause clears bits in the Cause register.
func (c *CPU) ClearCause(bits uint32) {
	c.CP0[CP0Cause] &^= bits
}

// InterruptPending reports whether an enabled interrupt is waiting.
func (c *CPU) InterruptPending() bool {
	status := c.CP0[CP0Status]
	return status&StatusIE != 0 && c.CP0[CP0Cause]&status&0xFF00 != 0
}
