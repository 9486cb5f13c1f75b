package ai

import "github.com/meadori/vibe64/device"

type State struct {
	Regs [device.AIRegs]uint32
	FIFO [2]DMA
}

func (a *Controller) SaveState() State {
	return State{a.Regs, a.FIFO}
}

func (a *Controller) LoadState(s State) {
	a.Regs, a.FIFO = s.Regs, s.FIFO
}
