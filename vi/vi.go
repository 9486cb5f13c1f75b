// Package vi implements the video interface register bank and its vertical
// interrupt timing.
package vi

import (
	"fmt"

	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/plugin"
	"github.com/meadori/vibe64/scheduler"
)

// VI registers.
const (
	Status = iota
	Origin
	Width
	VIntr
	Current
	Burst
	VSync
	HSync
	Leap
	HStart
	VStart
	VBurst
	XScale
	YScale
)

const (
	// Refresh is the number of CPU cycles per half-line.
	Refresh = 1500

	// alternateLines is the line count used by the alternate timing mode.
	alternateLines = 0x20E

	// idleDelay is used when VI_V_SYNC is zero.
	idleDelay = 500000

	// resetDelay is the power-on distance to the first vertical interrupt.
	resetDelay = 5000

	interlaced = 0x40
)

// Clock brings the CPU cycle counter up to date and returns it.
type Clock interface {
	UpdateCount() uint32
}

// Controller is the video interface.
type Controller struct {
	Regs [device.VIRegs]uint32

	// Field is the interlace field parity reported in VI_CURRENT.
	Field uint32
	// Delay is the number of cycles between vertical interrupts.
	Delay uint32
	// NextVI is the cycle count of the next vertical interrupt.
	NextVI uint32

	AlternateTiming bool

	// OnVerticalInterrupt is called on every vertical interrupt, after the
	// screen update.
	OnVerticalInterrupt func()

	clock Clock
	mi    *device.Interrupts
	sched *scheduler.Scheduler
	video plugin.Video
}

// New creates a video interface.
func New(clock Clock, mi *device.Interrupts, sched *scheduler.Scheduler, video plugin.Video) *Controller {
	v := &Controller{clock: clock, mi: mi, sched: sched, video: video}
	v.Reset()
	return v
}

// Reset clears the registers and restarts frame timing.
func (v *Controller) Reset() {
	v.Regs = [device.VIRegs]uint32{}
	v.Field = 0
	v.Delay = resetDelay
	v.NextVI = resetDelay
}

// Read returns register reg. VI_CURRENT is computed from the time left
// until the next vertical interrupt.
func (v *Controller) Read(reg int) (uint32, error) {
	if reg < 0 || reg >= device.VIRegs {
		return 0, fmt.Errorf("read VI[%d]: %w", reg, device.ErrNoRegister)
	}

	if reg == Current {
		count := v.clock.UpdateCount()
		elapsed := v.Delay - (v.NextVI - count)
		if v.AlternateTiming {
			v.Regs[Current] = elapsed % alternateLines
		} else {
			v.Regs[Current] = elapsed / Refresh
		}
		v.Regs[Current] = v.Regs[Current]&^1 | v.Field
	}

	return v.Regs[reg], nil
}

// Write applies a masked write to register reg.
func (v *Controller) Write(reg int, value, mask uint32) error {
	if reg < 0 || reg >= device.VIRegs {
		return fmt.Errorf("write VI[%d]: %w", reg, device.ErrNoRegister)
	}

	switch reg {
	case Status:
		if v.Regs[Status]&mask != value&mask {
			device.MaskedWrite(&v.Regs[Status], value, mask)
			v.video.StatusChanged()
		}
		return nil
	case Width:
		if v.Regs[Width]&mask != value&mask {
			device.MaskedWrite(&v.Regs[Width], value, mask)
			v.video.WidthChanged()
		}
		return nil
	case Current:
		v.mi.Clear(device.IntrVI)
		return nil
	}

	device.MaskedWrite(&v.Regs[reg], value, mask)
	return nil
}

// VerticalInterrupt fires the pending VI event: the frame is presented,
// the next interrupt is scheduled and MI is notified.
func (v *Controller) VerticalInterrupt() error {
	v.video.UpdateScreen()

	if v.OnVerticalInterrupt != nil {
		v.OnVerticalInterrupt()
	}

	v.Field ^= (v.Regs[Status] & interlaced) >> 6

	if v.Regs[VSync] == 0 {
		v.Delay = idleDelay
	} else {
		v.Delay = (v.Regs[VSync] + 1) * Refresh
	}
	v.NextVI += v.Delay

	if err := v.sched.Schedule(scheduler.VI, v.NextVI); err != nil {
		return fmt.Errorf("vertical interrupt: %w", err)
	}

	v.mi.Raise(device.IntrVI)
	return nil
}
