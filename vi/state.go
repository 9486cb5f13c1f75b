package vi

import "github.com/meadori/vibe64/device"

type State struct {
	Regs          [device.VIRegs]uint32
	Delay, NextVI uint32
	Field         uint32
}

func (v *Controller) SaveState() State {
	return State{v.Regs, v.Delay, v.NextVI, v.Field}
}

func (v *Controller) LoadState(s State) {
	v.Regs, v.Delay, v.NextVI, v.Field = s.Regs, s.Delay, s.NextVI, s.Field
}
