package cpu

// Engine is the instruction execution strategy driving the CPU. The
// save-state core only needs the resume point and the ability to drop
// translated code.
type Engine interface {
	// ResumePC returns the address execution resumes at. ok is false when
	// there is no current instruction context.
	ResumePC() (pc uint32, ok bool)

	// JumpTo moves execution to pc.
	JumpTo(pc uint32)

	// InvalidateCode drops any translated or cached code.
	InvalidateCode()
}

// PureInterpreter decodes every instruction as it is executed.
type PureInterpreter struct {
	pc    uint32
	valid bool
}

// NewPureInterpreter creates an interpreter with no current instruction.
func NewPureInterpreter() *PureInterpreter {
	return &PureInterpreter{}
}

func (p *PureInterpreter) ResumePC() (uint32, bool) { return p.pc, p.valid }

func (p *PureInterpreter) JumpTo(pc uint32) {
	p.pc = pc
	p.valid = true
}

func (p *PureInterpreter) InvalidateCode() {}

// pageCount is the number of 4 KiB pages tracked by the code caches.
const pageCount = 0x100000

// CachedInterpreter keeps pre-decoded blocks per page and marks pages
// invalid when their code must be decoded again.
type CachedInterpreter struct {
	PureInterpreter
	invalid []bool
}

// NewCachedInterpreter creates a cached interpreter with every page invalid.
func NewCachedInterpreter() *CachedInterpreter {
	c := &CachedInterpreter{invalid: make([]bool, pageCount)}
	c.InvalidateCode()
	return c
}

func (c *CachedInterpreter) InvalidateCode() {
	for i := range c.invalid {
		c.invalid[i] = true
	}
}

// MarkValid records that the block for the page containing addr is decoded.
func (c *CachedInterpreter) MarkValid(addr uint32) {
	c.invalid[addr>>12] = false
}

// Invalid reports whether the page containing addr must be decoded again.
func (c *CachedInterpreter) Invalid(addr uint32) bool {
	return c.invalid[addr>>12]
}

// Dynarec is the recompiling engine. Its resume point is a plain address
// that is picked up through a pending exception, so it is always present.
type Dynarec struct {
	PCAddr           uint32
	PendingException bool
	Flushes          int
}

// NewDynarec creates a recompiling engine.
func NewDynarec() *Dynarec {
	return &Dynarec{}
}

func (d *Dynarec) ResumePC() (uint32, bool) { return d.PCAddr, true }

func (d *Dynarec) JumpTo(pc uint32) {
	d.PCAddr = pc
	d.PendingException = true
}

func (d *Dynarec) InvalidateCode() {
	d.Flushes++
}
