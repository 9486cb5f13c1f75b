package cpu

// State is the persisted register state of the CPU. FGR is kept in the live
// layout matching CP0[CP0Status]; the save-state codec widens it on disk.
type State struct {
	LLBit uint32
	GPR   [32]int64
	CP0   [32]uint32
	Lo    int64
	Hi    int64
	FGR   [32]uint64
	FCR0  uint32
	FCR31 uint32
	TLB   [TLBEntries]TLBEntry
}

func (c *CPU) SaveState() State {
	return State{c.LLBit, c.GPR, c.CP0, c.Lo, c.Hi, c.FGR, c.FCR0, c.FCR31, c.TLB.Entries}
}

// LoadState restores the registers and TLB entries. Derived TLB ranges are
// recomputed from the restored entries.
func (c *CPU) LoadState(s State) {
	c.LLBit, c.GPR, c.CP0, c.Lo, c.Hi, c.FGR, c.FCR0, c.FCR31 = s.LLBit, s.GPR, s.CP0, s.Lo, s.Hi, s.FGR, s.FCR0, s.FCR31
	c.TLB.Entries = s.TLB
	c.TLB.Recompute()
}
