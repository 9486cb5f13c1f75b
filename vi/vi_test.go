package vi

import (
	"testing"

	"github.com/meadori/vibe64/cpu"
	"github.com/meadori/vibe64/device"
	"github.com/meadori/vibe64/scheduler"
)

type fakeClock struct {
	count   uint32
	updates int
}

func (c *fakeClock) UpdateCount() uint32 {
	c.updates++
	return c.count
}

type recorder struct {
	status, width, frames int
}

func (r *recorder) StatusChanged() { r.status++ }
func (r *recorder) WidthChanged() { r.width++ }
func (r *recorder) UpdateScreen() { r.frames++ }

type fixture struct {
	vi    *Controller
	clock *fakeClock
	video *recorder
	mi    *device.Interrupts
	sched *scheduler.Scheduler
}

func setup(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		clock: &fakeClock{},
		video: &recorder{},
		mi:    device.NewInterrupts(cpu.New(cpu.NewPureInterpreter())),
		sched: scheduler.New(),
	}
	f.vi = New(f.clock, f.mi, f.sched, f.video)
	return f
}

func TestCurrentLine(t *testing.T) {
	f := setup(t)
	f.clock.count = 123456
	f.vi.Delay = Refresh * 0x20E
	f.vi.NextVI = f.clock.count + f.vi.Delay

	for _, field := range []uint32{0, 1} {
		f.vi.Field = field
		got, err := f.vi.Read(Current)
		if err != nil {
			t.Fatal(err)
		}
		if got != field {
			t.Errorf("field %d: Expected VI_CURRENT %d, but got %d", field, field, got)
		}
	}
	if f.clock.updates != 2 {
		t.Errorf("VI_CURRENT reads must update the count, got %d updates", f.clock.updates)
	}
}

func TestCurrentLineProgress(t *testing.T) {
	f := setup(t)
	f.vi.Delay = Refresh * 0x20E
	f.vi.NextVI = f.vi.Delay
	f.clock.count = Refresh * 10

	got, _ := f.vi.Read(Current)
	if got != 10 {
		t.Errorf("Expected line 10, but got %d", got)
	}

	f.vi.AlternateTiming = true
	f.clock.count = 0x20E + 7
	got, _ = f.vi.Read(Current)
	if got != 6 {
		t.Errorf("alternate timing: Expected line 6 (7 with low bit cleared), but got %d", got)
	}
}

func TestMaskedWrite(t *testing.T) {
	f := setup(t)
	f.vi.Regs[Origin] = 0x12345678

	if err := f.vi.Write(Origin, 0xFFFFFFFF, 0x0000FF00); err != nil {
		t.Fatal(err)
	}
	if got := f.vi.Regs[Origin]; got != 0x1234FF78 {
		t.Errorf("Expected 0x1234FF78, but got %#x", got)
	}
}

func TestStatusNotification(t *testing.T) {
	f := setup(t)
	f.vi.Regs[Status] = 0x0000300E

	// masked bits already hold the written value
	_ = f.vi.Write(Status, 0xFFFF300E, 0x0000FFFF)
	if f.video.status != 0 {
		t.Errorf("unchanged status must not notify, got %d", f.video.status)
	}
	if f.vi.Regs[Status] != 0x0000300E {
		t.Errorf("unchanged status must not be written, got %#x", f.vi.Regs[Status])
	}

	_ = f.vi.Write(Status, 0x00003002, 0x0000FFFF)
	if f.video.status != 1 {
		t.Errorf("changed status must notify once, got %d", f.video.status)
	}
	if f.vi.Regs[Status] != 0x00003002 {
		t.Errorf("Expected status 0x3002, but got %#x", f.vi.Regs[Status])
	}
}

func TestWidthNotification(t *testing.T) {
	f := setup(t)

	_ = f.vi.Write(Width, 320, 0xFFFFFFFF)
	_ = f.vi.Write(Width, 320, 0xFFFFFFFF)
	if f.video.width != 1 {
		t.Errorf("Expected 1 width notification, but got %d", f.video.width)
	}
}

func TestCurrentWriteAcknowledges(t *testing.T) {
	f := setup(t)
	f.vi.Regs[Current] = 0x42
	f.mi.Raise(device.IntrVI)

	_ = f.vi.Write(Current, 0xFFFFFFFF, 0xFFFFFFFF)

	if f.mi.Regs[device.MIIntr]&device.IntrVI != 0 {
		t.Error("writing VI_CURRENT must clear the VI interrupt")
	}
	if f.vi.Regs[Current] != 0x42 {
		t.Errorf("writing VI_CURRENT must not store, got %#x", f.vi.Regs[Current])
	}
}

func TestVerticalInterrupt(t *testing.T) {
	f := setup(t)
	hooks := 0
	f.vi.OnVerticalInterrupt = func() { hooks++ }
	f.vi.Regs[VSync] = 0x20D
	f.vi.Regs[Status] = interlaced

	if err := f.vi.VerticalInterrupt(); err != nil {
		t.Fatal(err)
	}

	if f.video.frames != 1 || hooks != 1 {
		t.Errorf("Expected one frame and one hook, got %d and %d", f.video.frames, hooks)
	}
	if f.vi.Field != 1 {
		t.Error("interlaced mode must toggle the field")
	}
	wantDelay := uint32(0x20E * Refresh)
	if f.vi.Delay != wantDelay || f.vi.NextVI != resetDelay+wantDelay {
		t.Errorf("Expected delay %d next %d, got %d %d", wantDelay, resetDelay+wantDelay, f.vi.Delay, f.vi.NextVI)
	}
	next, ok := f.sched.Next()
	if !ok || next.Type != scheduler.VI || next.Count != f.vi.NextVI {
		t.Errorf("next VI event not scheduled, got %+v", next)
	}
	if f.mi.Regs[device.MIIntr]&device.IntrVI == 0 {
		t.Error("vertical interrupt must raise MI VI")
	}
}

func TestVerticalInterruptIdle(t *testing.T) {
	f := setup(t)

	_ = f.vi.VerticalInterrupt()
	if f.vi.Delay != idleDelay {
		t.Errorf("V_SYNC of zero must use the idle delay, got %d", f.vi.Delay)
	}
	if f.vi.Field != 0 {
		t.Error("progressive mode must not toggle the field")
	}
}
