package ai

import (
	"testing"

	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/plugin"
	"github.com/meadori/vibe64/scheduler"
)

type fakeClock struct{ count uint32 }

func (c *fakeClock) UpdateCount() uint32 { return c.count }

type fixedTiming uint32

func (f fixedTiming) FrameDelay() uint32 { return uint32(f) }

type audioRecorder struct{ changes int }

func (a *audioRecorder) DacrateChanged(plugin.SystemType) { a.changes++ }

func setup() (*Controller, *fakeClock, *scheduler.Scheduler, *device.Interrupts, *audioRecorder) {
	clock := &fakeClock{}
	sched := scheduler.New()
	mi := device.NewInterrupts(nil)
	rec := &audioRecorder{}
	a := New(clock, fixedTiming(781250), mi, sched, rec)
	return a, clock, sched, mi, rec
}

func TestLenWriteQueuesDMA(t *testing.T) {
	a, _, sched, _, _ := setup()
	_ = a.Write(Dacrate, 1103, 0xFFFFFFFF)

	_ = a.Write(Len, 0x1000, 0xFFFFFFFF)
	if a.Regs[Status]&StatusBusy == 0 {
		t.Fatal("first DMA must mark the interface busy")
	}
	if a.FIFO[0].Length != 0x1000 || a.FIFO[0].Delay == 0 {
		t.Errorf("unexpected FIFO[0] %+v", a.FIFO[0])
	}
	if e, ok := sched.Next(); !ok || e.Type != scheduler.AI || e.Count != a.FIFO[0].Delay {
		t.Errorf("AI event not scheduled at the DMA end, got %+v", e)
	}

	_ = a.Write(Len, 0x800, 0xFFFFFFFF)
	if a.Regs[Status]&StatusFull == 0 || a.FIFO[1].Length != 0x800 {
		t.Errorf("second DMA must fill the FIFO, status %#x fifo %+v", a.Regs[Status], a.FIFO)
	}
	if sched.Len() != 1 {
		t.Errorf("queued DMA must not schedule yet, have %d events", sched.Len())
	}
}

func TestEndOfDMA(t *testing.T) {
	a, _, sched, mi, _ := setup()
	_ = a.Write(Len, 0x1000, 0xFFFFFFFF)
	_ = a.Write(Len, 0x800, 0xFFFFFFFF)
	sched.Remove(scheduler.AI)

	if err := a.EndOfDMA(); err != nil {
		t.Fatal(err)
	}
	if a.FIFO[0].Length != 0x800 || a.Regs[Status]&StatusFull != 0 {
		t.Errorf("FIFO did not advance: %+v status %#x", a.FIFO, a.Regs[Status])
	}
	if sched.Len() != 1 {
		t.Error("next DMA must be scheduled")
	}
	if mi.Regs[device.MIIntr]&device.IntrAI == 0 {
		t.Error("end of DMA must raise MI AI")
	}

	_ = a.EndOfDMA()
	if a.Regs[Status]&StatusBusy != 0 {
		t.Error("empty FIFO must clear busy")
	}
}

func TestRemainingLength(t *testing.T) {
	a, clock, _, _, _ := setup()
	_ = a.Write(Len, 0x1000, 0xFFFFFFFF)

	clock.count = a.FIFO[0].Delay / 2
	got, _ := a.Read(Len)
	if got < 0x7F0 || got > 0x808 || got&7 != 0 {
		t.Errorf("Expected about half of 0x1000 left, but got %#x", got)
	}
}

func TestStatusWriteAcknowledges(t *testing.T) {
	a, _, _, mi, _ := setup()
	mi.Raise(device.IntrAI)

	_ = a.Write(Status, 0, 0xFFFFFFFF)
	if mi.Regs[device.MIIntr]&device.IntrAI != 0 {
		t.Error("AI_STATUS write must clear the AI interrupt")
	}
}

func TestDacrateNotification(t *testing.T) {
	a, _, _, _, rec := setup()

	_ = a.Write(Dacrate, 1103, 0xFFFFFFFF)
	_ = a.Write(Dacrate, 1103, 0xFFFFFFFF)
	if rec.changes != 1 {
		t.Errorf("Expected 1 dacrate notification, but got %d", rec.changes)
	}
}

func TestOutOfRangeDacrate(t *testing.T) {
	for _, rate := range []uint32{0xFFFFFFFF, 0x10000000, 0x3FFF} {
		a, _, sched, _, _ := setup()
		_ = a.Write(Dacrate, rate, 0xFFFFFFFF)

		if err := a.Write(Len, 0x3FFF8, 0xFFFFFFFF); err != nil {
			t.Fatalf("dacrate %#x: %v", rate, err)
		}
		if a.FIFO[0].Delay == 0 || a.FIFO[0].Delay > 0x7FFFFFFF {
			t.Errorf("dacrate %#x: DMA delay %d", rate, a.FIFO[0].Delay)
		}
		if _, ok := sched.Find(scheduler.AI); !ok {
			t.Errorf("dacrate %#x: AI event not scheduled", rate)
		}
	}
}
