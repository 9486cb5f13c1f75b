package bus

import (
	"log"

	"github.com/meadori/vibe64/cpu"
	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/scheduler"
)

const (
	siStatusInterrupt = 0x1000
	piStatusBusy      = 0x3

	spStatusHalt      = 0x1
	spStatusBroke     = 0x2
	spStatusIntrBreak = 0x40

	dpcStatusTMEMBusy  = 0x10
	dpcStatusPipeBusy  = 0x20
	dpcStatusCmdBusy   = 0x40
	dpcStatusCBufReady = 0x80

	causeIP4  = 0x1000
	resetPC   = 0xBFC00000
	nmiStatus = 0x00500004

	// checkInterval spaces the SPECIAL checkpoints. It is under half the
	// counter period, so every Compare value enters the schedulable window
	// at some checkpoint before the counter reaches it.
	checkInterval = 0x40000000
)

func (b *Bus) registerHandlers() {
	b.Sched.Handle(scheduler.VI, func() {
		b.fail(b.VI.VerticalInterrupt())
	})
	b.Sched.Handle(scheduler.Compare, func() {
		b.CPU.RaiseCause(cpu.CauseIP7)
	})
	b.Sched.Handle(scheduler.Check, func() {})
	b.Sched.Handle(scheduler.SI, func() {
		b.Regs.SI[device.SIStatus] |= siStatusInterrupt
		b.MI.Raise(device.IntrSI)
	})
	b.Sched.Handle(scheduler.PI, func() {
		b.Regs.PI[device.PIStatus] &^= piStatusBusy
		b.MI.Raise(device.IntrPI)
	})
	b.Sched.Handle(scheduler.Special, b.checkpoint)
	b.Sched.Handle(scheduler.AI, func() {
		b.fail(b.AI.EndOfDMA())
	})
	b.Sched.Handle(scheduler.SP, func() {
		status := &b.Regs.SP[device.SPStatus]
		*status |= spStatusHalt | spStatusBroke
		if *status&spStatusIntrBreak != 0 {
			b.MI.Raise(device.IntrSP)
		}
	})
	b.Sched.Handle(scheduler.DP, func() {
		status := &b.Regs.DPC[device.DPCStatus]
		*status &^= dpcStatusTMEMBusy | dpcStatusPipeBusy | dpcStatusCmdBusy
		*status |= dpcStatusCBufReady
		b.MI.Raise(device.IntrDP)
	})
	b.Sched.Handle(scheduler.HW2, func() {
		b.CPU.RaiseCause(causeIP4)
	})
	b.Sched.Handle(scheduler.NMI, b.nmi)
}

// checkpoint re-arms itself and the COMPARE event as the counter advances.
func (b *Bus) checkpoint() {
	b.fail(b.Sched.Schedule(scheduler.Special, b.CPU.CP0[cpu.CP0Count]+checkInterval))
	b.fail(b.armCompare())
}

// ensureCheckpoint queues a SPECIAL checkpoint if the queue has none, as
// after loading a queue written without one.
func (b *Bus) ensureCheckpoint() {
	if _, ok := b.Sched.Find(scheduler.Special); ok {
		return
	}
	if err := b.Sched.Schedule(scheduler.Special, b.CPU.CP0[cpu.CP0Count]+checkInterval); err != nil {
		log.Printf("no counter checkpoint: %v", err)
	}
}

// nmi performs a soft reset: execution restarts at the reset vector with
// the interrupted address kept in ErrorEPC.
func (b *Bus) nmi() {
	if pc, ok := b.CPU.Engine.ResumePC(); ok {
		b.CPU.CP0[cpu.CP0ErrorEPC] = pc
	} else {
		log.Printf("NMI without a resume address, ErrorEPC left at %#08x", b.CPU.CP0[cpu.CP0ErrorEPC])
	}
	b.CPU.SetStatus(b.CPU.CP0[cpu.CP0Status]&^0x00380000 | nmiStatus)
	b.CPU.Engine.InvalidateCode()
	b.CPU.Engine.JumpTo(resetPC)
}

// fail records the first fatal handler error.
func (b *Bus) fail(err error) {
	if err == nil || b.err != nil {
		return
	}
	log.Printf("machine stopped: %v", err)
	b.err = err
}
