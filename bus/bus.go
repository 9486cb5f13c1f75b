// Package bus ties the CPU, the RCP devices, memory and the event scheduler
// into one machine.
package bus

import (
	"fmt"
	"sync"

	"github.com/meadori/vibe64/ai"
	"github.com/meadori/vibe64/cartridge"
	"github.com/meadori/vibe64/cpu"
	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/plugin"
	"github.com/meadori/vibe64/scheduler"
	"github.com/meadori/vibe64/vi"
)

// bootPC is where execution starts once the PIF boot code has run.
const bootPC = 0xA4000040

// Config holds the machine options fixed at construction.
type Config struct {
	// Engine is one of "pure", "cached" or "dynarec".
	Engine string
	// AlternateVITiming selects the alternate VI_CURRENT computation.
	AlternateVITiming bool
}

// Plugins are the collaborators notified by the core. Nil members are
// replaced with plugin.Nop.
type Plugins struct {
	Video    plugin.Video
	Audio    plugin.Audio
	Frontend plugin.Frontend
}

// NewEngine returns the execution engine called name.
func NewEngine(name string) (cpu.Engine, error) {
	switch name {
	case "", "pure":
		return cpu.NewPureInterpreter(), nil
	case "cached":
		return cpu.NewCachedInterpreter(), nil
	case "dynarec":
		return cpu.NewDynarec(), nil
	}
	return nil, fmt.Errorf("unknown execution engine %q", name)
}

// Bus is the machine context. Its exported methods are safe for concurrent
// use.
type Bus struct {
	mu sync.Mutex

	CPU   *cpu.CPU
	Regs  device.File
	MI    *device.Interrupts
	VI    *vi.Controller
	AI    *ai.Controller
	Sched *scheduler.Scheduler
	Cart  *cartridge.Cartridge

	// OnVerticalInterrupt is called on every vertical interrupt, after the
	// screen update.
	OnVerticalInterrupt func()

	rdram  [device.RDRAMWords]uint32
	spmem  [device.SPMemWords]uint32
	pifram [device.PIFRAMSize]byte

	video    plugin.Video
	audio    plugin.Audio
	frontend plugin.Frontend

	// err is the first fatal error raised by an event handler.
	err error
}

// New creates a machine for cart and resets it.
func New(cart *cartridge.Cartridge, cfg Config, p Plugins) (*Bus, error) {
	engine, err := NewEngine(cfg.Engine)
	if err != nil {
		return nil, err
	}
	if p.Video == nil {
		p.Video = plugin.Nop{}
	}
	if p.Audio == nil {
		p.Audio = plugin.Nop{}
	}
	if p.Frontend == nil {
		p.Frontend = plugin.Nop{}
	}

	b := &Bus{
		CPU:      cpu.New(engine),
		Sched:    scheduler.New(),
		Cart:     cart,
		video:    p.Video,
		audio:    p.Audio,
		frontend: p.Frontend,
	}
	b.MI = device.NewInterrupts(b.CPU)
	b.VI = vi.New(b, b.MI, b.Sched, b.video)
	b.VI.AlternateTiming = cfg.AlternateVITiming
	b.VI.OnVerticalInterrupt = b.verticalInterrupt
	b.AI = ai.New(b, b, b.MI, b.Sched, b.audio)
	b.AI.System = cart.System
	b.Sched.SetClock(b.UpdateCount)
	b.registerHandlers()

	if err := b.Reset(); err != nil {
		return nil, err
	}
	return b, nil
}

// Reset returns the machine to its power-on state.
func (b *Bus) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.CPU.Reset()
	b.Regs.Reset()
	b.MI.Reset()
	b.VI.Reset()
	b.AI.Reset()
	b.Cart.FlashRAM.Reset()
	clear(b.rdram[:])
	clear(b.spmem[:])
	clear(b.pifram[:])
	b.err = nil

	b.Sched.Clear()
	if err := b.Sched.Schedule(scheduler.VI, b.VI.NextVI); err != nil {
		return err
	}
	if err := b.Sched.Schedule(scheduler.Special, b.CPU.CP0[cpu.CP0Count]+checkInterval); err != nil {
		return err
	}
	b.CPU.Engine.InvalidateCode()
	b.CPU.Engine.JumpTo(bootPC)
	return nil
}

// UpdateCount returns the current CPU cycle count.
func (b *Bus) UpdateCount() uint32 {
	return b.CPU.CP0[cpu.CP0Count]
}

// FrameDelay returns the number of cycles per video frame.
func (b *Bus) FrameDelay() uint32 {
	return b.VI.Delay
}

func (b *Bus) verticalInterrupt() {
	if b.OnVerticalInterrupt != nil {
		b.OnVerticalInterrupt()
	}
}

// Run advances the cycle counter by cycles, firing every event that comes
// due on the way. A fatal handler error stops the machine; it is returned
// by this and every later call until Reset or LoadState.
func (b *Bus) Run(cycles uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.run(cycles)
}

// RunFrame runs for the current vertical interrupt period.
func (b *Bus) RunFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.run(b.VI.Delay)
}

func (b *Bus) run(cycles uint32) error {
	if b.err != nil {
		return b.err
	}
	count := &b.CPU.CP0[cpu.CP0Count]
	target := *count + cycles
	for {
		e, ok := b.Sched.Next()
		if !ok {
			break
		}
		if d := scheduler.Until(e.Count, *count); d > 0 {
			if uint32(d) > target-*count {
				break
			}
			*count = e.Count
		}
		b.Sched.Dispatch(*count)
		if b.err != nil {
			return b.err
		}
	}
	*count = target
	return nil
}

// Err returns the fatal error that stopped the machine, if any.
func (b *Bus) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// ReadRegister returns register reg of device id.
func (b *Bus) ReadRegister(id device.ID, reg int) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch id {
	case device.MI:
		return b.MI.Read(reg)
	case device.VI:
		return b.VI.Read(reg)
	case device.AI:
		return b.AI.Read(reg)
	}
	return b.Regs.Read(id, reg)
}

// WriteRegister applies a masked write to register reg of device id.
func (b *Bus) WriteRegister(id device.ID, reg int, value, mask uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch id {
	case device.MI:
		return b.MI.Write(reg, value, mask)
	case device.VI:
		return b.VI.Write(reg, value, mask)
	case device.AI:
		return b.AI.Write(reg, value, mask)
	}
	return b.Regs.Write(id, reg, value, mask)
}

// SetCompare writes CP0 Compare, acknowledging the timer interrupt and
// moving the COMPARE event.
func (b *Bus) SetCompare(v uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.CPU.CP0[cpu.CP0Compare] = v
	b.CPU.ClearCause(cpu.CauseIP7)
	b.Sched.Remove(scheduler.Compare)
	return b.armCompare()
}

// armCompare queues the COMPARE event when Compare lies within the next
// half period of the counter. Matches further out are picked up by the
// SPECIAL checkpoint as the counter approaches them.
func (b *Bus) armCompare() error {
	if _, ok := b.Sched.Find(scheduler.Compare); ok {
		return nil
	}
	v := b.CPU.CP0[cpu.CP0Compare]
	if scheduler.Until(v, b.CPU.CP0[cpu.CP0Count]) <= 0 {
		return nil
	}
	return b.Sched.Schedule(scheduler.Compare, v)
}

// ReadWord returns the RDRAM word at byte address addr.
func (b *Bus) ReadWord(addr uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rdram[(addr&(device.RDRAMSize-1))>>2]
}

// WriteWord stores v at byte address addr in RDRAM.
func (b *Bus) WriteWord(addr, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rdram[(addr&(device.RDRAMSize-1))>>2] = v
}

// Digest returns the identity of the loaded ROM.
func (b *Bus) Digest() cartridge.Digest {
	return b.Cart.Digest
}

// Count returns the current CPU cycle count.
func (b *Bus) Count() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.CPU.CP0[cpu.CP0Count]
}
