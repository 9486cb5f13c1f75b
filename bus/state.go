package bus

import (
	"fmt"

	"github.com/meadori/vibe64/cpu"
	"github.com/meadori/vibe64/plugin"
	"github.com/meadori/vibe64/savestate"
)

// snapshot captures the machine. pc is the address execution resumes at.
func (b *Bus) snapshot(pc uint32) *savestate.Snapshot {
	s := new(savestate.Snapshot)
	s.Regs = b.Regs
	s.MI = b.MI.SaveState()
	s.VI = b.VI.SaveState()
	s.AI = b.AI.SaveState()
	s.RDRAM = b.rdram
	s.SPMem = b.spmem
	s.PIFRAM = b.pifram
	s.FlashRAM = b.Cart.FlashRAM.SaveState()
	s.LUTR = b.CPU.TLB.LUTR
	s.LUTW = b.CPU.TLB.LUTW
	s.CPU = b.CPU.SaveState()
	s.PC = pc
	s.Events = b.Sched.Events()
	s.NextInterrupt = b.CPU.CP0[cpu.CP0Count]
	if e, ok := b.Sched.Next(); ok {
		s.NextInterrupt = e.Count
	}
	return s
}

// SaveState serializes the whole machine. The frontend is told once the
// state has been saved.
func (b *Bus) SaveState() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	blob, err := b.saveState()
	if err != nil {
		return nil, err
	}
	b.frontend.StateChanged(plugin.StateSaveComplete, 1)
	return blob, nil
}

func (b *Bus) saveState() ([]byte, error) {
	pc, ok := b.CPU.Engine.ResumePC()
	if !ok {
		return nil, savestate.ErrMissingResumeContext
	}
	blob, err := savestate.Encode(b.snapshot(pc), b.Cart.Digest)
	if err != nil {
		return nil, fmt.Errorf("save state: %w", err)
	}
	return blob, nil
}

// LoadState restores the machine from blob. The blob is fully decoded and
// checked before anything is changed; on error the machine is untouched.
func (b *Bus) LoadState(blob []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	err := b.loadState(blob)
	b.frontend.StateChanged(plugin.StateLoadComplete, success(err))
	return err
}

func (b *Bus) loadState(blob []byte) error {
	s, err := savestate.Decode(blob, b.Cart.Digest)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := b.Sched.Validate(s.Events); err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	if err := b.Sched.Replace(s.Events); err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	b.Regs = s.Regs
	b.MI.LoadState(s.MI)
	b.VI.LoadState(s.VI)
	b.AI.LoadState(s.AI)
	b.rdram = s.RDRAM
	b.spmem = s.SPMem
	b.pifram = s.PIFRAM
	b.Cart.FlashRAM.LoadState(s.FlashRAM)
	b.CPU.TLB.LUTR = s.LUTR
	b.CPU.TLB.LUTW = s.LUTW
	b.CPU.LoadState(s.CPU)
	b.err = nil
	b.ensureCheckpoint()

	b.CPU.Engine.InvalidateCode()
	b.CPU.Engine.JumpTo(s.PC)

	b.video.StatusChanged()
	b.video.WidthChanged()
	b.audio.DacrateChanged(b.AI.System)
	return nil
}

func success(err error) int {
	if err != nil {
		return 0
	}
	return 1
}
