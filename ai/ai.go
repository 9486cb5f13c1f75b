// Package ai implements the audio interface: its registers and the two
// entry DMA FIFO feeding the audio plugin.
package ai

import (
	"fmt"
	"math"

	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/plugin"
	"github.com/meadori/vibe64/scheduler"
)

// AI registers.
const (
	DRAMAddr = iota
	Len
	Control
	Status
	Dacrate
	Bitrate
)

const (
	StatusBusy = 0x40000000
	StatusFull = 0x80000000

	// dacrateMask is the width of the DAC rate divider.
	dacrateMask = 0x3FFF
)

// Clock returns the up to date CPU cycle counter.
type Clock interface {
	UpdateCount() uint32
}

// FrameTiming reports the current number of CPU cycles per frame.
type FrameTiming interface {
	FrameDelay() uint32
}

// DMA is one FIFO slot: the transfer length and how long it plays for.
type DMA struct {
	Delay  uint32
	Length uint32
}

// Controller is the audio interface.
type Controller struct {
	Regs [device.AIRegs]uint32
	FIFO [2]DMA

	System plugin.SystemType

	clock  Clock
	timing FrameTiming
	mi     *device.Interrupts
	sched  *scheduler.Scheduler
	audio  plugin.Audio
}

// New creates an audio interface.
func New(clock Clock, timing FrameTiming, mi *device.Interrupts, sched *scheduler.Scheduler, audio plugin.Audio) *Controller {
	return &Controller{clock: clock, timing: timing, mi: mi, sched: sched, audio: audio}
}

// Reset clears the registers and the FIFO.
func (a *Controller) Reset() {
	a.Regs = [device.AIRegs]uint32{}
	a.FIFO = [2]DMA{}
}

func videoClock(s plugin.SystemType) uint64 {
	switch s {
	case plugin.PAL:
		return 49656530
	case plugin.MPAL:
		return 48628316
	}
	return 48681812
}

func refreshRate(s plugin.SystemType) uint64 {
	if s == plugin.PAL {
		return 50
	}
	return 60
}

// dmaDuration is the number of CPU cycles the current AI_LEN takes to play.
// Only the low bits of AI_DACRATE reach the divider.
func (a *Controller) dmaDuration() uint32 {
	samplesPerSec := videoClock(a.System) / (1 + uint64(a.Regs[Dacrate]&dacrateMask))
	countsPerSec := uint64(a.timing.FrameDelay()) * refreshRate(a.System)
	const bytesPerSample = 4
	d := uint64(a.Regs[Len]) * countsPerSec / (bytesPerSample * samplesPerSec)
	return uint32(min(d, math.MaxInt32))
}

// remaining returns the number of bytes of the playing DMA not yet consumed.
func (a *Controller) remaining() uint32 {
	if a.FIFO[0].Delay == 0 {
		return 0
	}
	e, ok := a.sched.Find(scheduler.AI)
	if !ok {
		return 0
	}
	left := e.Count - a.clock.UpdateCount()
	if left >= 0x80000000 {
		return 0
	}
	length := uint64(left) * uint64(a.FIFO[0].Length) / uint64(a.FIFO[0].Delay)
	return uint32(length) &^ 7
}

// Read returns register reg; AI_LEN reports the bytes left in the playing
// DMA.
func (a *Controller) Read(reg int) (uint32, error) {
	if reg < 0 || reg >= device.AIRegs {
		return 0, fmt.Errorf("read AI[%d]: %w", reg, device.ErrNoRegister)
	}
	if reg == Len {
		return a.remaining(), nil
	}
	return a.Regs[reg], nil
}

// Write applies a masked write to register reg.
func (a *Controller) Write(reg int, value, mask uint32) error {
	if reg < 0 || reg >= device.AIRegs {
		return fmt.Errorf("write AI[%d]: %w", reg, device.ErrNoRegister)
	}

	switch reg {
	case Len:
		device.MaskedWrite(&a.Regs[Len], value, mask)
		return a.push()
	case Status:
		a.mi.Clear(device.IntrAI)
		return nil
	case Dacrate:
		if a.Regs[Dacrate]&mask != value&mask {
			device.MaskedWrite(&a.Regs[Dacrate], value, mask)
			a.audio.DacrateChanged(a.System)
		}
		return nil
	}

	device.MaskedWrite(&a.Regs[reg], value, mask)
	return nil
}

func (a *Controller) push() error {
	dma := DMA{Delay: a.dmaDuration(), Length: a.Regs[Len]}
	if a.Regs[Status]&StatusBusy != 0 {
		a.FIFO[1] = dma
		a.Regs[Status] |= StatusFull
		return nil
	}
	a.FIFO[0] = dma
	a.Regs[Status] |= StatusBusy
	return a.start()
}

func (a *Controller) start() error {
	at := a.clock.UpdateCount() + a.FIFO[0].Delay
	if err := a.sched.Schedule(scheduler.AI, at); err != nil {
		return fmt.Errorf("start audio DMA: %w", err)
	}
	return nil
}

// EndOfDMA fires the pending AI event: the next queued DMA starts and MI
// is notified.
func (a *Controller) EndOfDMA() error {
	if a.Regs[Status]&StatusFull != 0 {
		a.FIFO[0] = a.FIFO[1]
		a.Regs[Status] &^= StatusFull
		if err := a.start(); err != nil {
			return err
		}
	} else {
		a.Regs[Status] &^= StatusBusy
	}
	a.mi.Raise(device.IntrAI)
	return nil
}
