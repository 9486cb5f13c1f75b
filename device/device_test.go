package device

import (
	"errors"
	"testing"

	"github.com/meadori/vibe64/cpu"
)

func TestMaskedWrite(t *testing.T) {
	tests := []struct {
		old, value, mask, want uint32
	}{
		{0x12345678, 0xFFFFFFFF, 0x0000FF00, 0x1234FF78},
		{0x12345678, 0x00000000, 0xFFFFFFFF, 0x00000000},
		{0x12345678, 0xFFFFFFFF, 0x00000000, 0x12345678},
		{0x00000000, 0xAABBCCDD, 0xFF0000FF, 0xAA0000DD},
	}
	for _, tt := range tests {
		r := tt.old
		MaskedWrite(&r, tt.value, tt.mask)
		if r != tt.want {
			t.Errorf("MaskedWrite(%#x, %#x, %#x) = %#x, want %#x", tt.old, tt.value, tt.mask, r, tt.want)
		}
	}
}

func TestFileAddressing(t *testing.T) {
	var f File
	f.Reset()

	if err := f.Write(PI, PICartAddr, 0x10001000, 0xFFFFFFFF); err != nil {
		t.Fatalf("Write: %v", err)
	}
	v, err := f.Read(PI, PICartAddr)
	if err != nil || v != 0x10001000 {
		t.Errorf("Read(PI, PICartAddr) = %#x, %v", v, err)
	}

	if _, err := f.Read(DPS, DPSRegs); !errors.Is(err, ErrNoRegister) {
		t.Errorf("out of range read returned %v", err)
	}
	if err := f.Write(VI, 0, 0, 0); !errors.Is(err, ErrNoRegister) {
		t.Errorf("VI is not part of the plain file, got %v", err)
	}
}

func TestCount(t *testing.T) {
	var f File
	for id := RDRAM; id <= DPS; id++ {
		if regs := f.bank(id); regs != nil && len(regs) != Count(id) {
			t.Errorf("%v has %d registers, Count says %d", id, len(regs), Count(id))
		}
	}
}

func TestInterruptsDriveIP2(t *testing.T) {
	c := cpu.New(cpu.NewPureInterpreter())
	mi := NewInterrupts(c)

	// enable VI: set bit for source 3 is 0x80
	if err := mi.Write(MIIntrMask, 0x80, 0xFFFFFFFF); err != nil {
		t.Fatal(err)
	}
	if mi.Regs[MIIntrMask] != IntrVI {
		t.Fatalf("Expected mask %#x, but got %#x", IntrVI, mi.Regs[MIIntrMask])
	}

	mi.Raise(IntrVI)
	if c.CP0[cpu.CP0Cause]&cpu.CauseIP2 == 0 {
		t.Error("enabled VI interrupt must raise IP2")
	}

	mi.Clear(IntrVI)
	if c.CP0[cpu.CP0Cause]&cpu.CauseIP2 != 0 {
		t.Error("acknowledged VI interrupt must clear IP2")
	}

	mi.Raise(IntrAI)
	if c.CP0[cpu.CP0Cause]&cpu.CauseIP2 != 0 {
		t.Error("masked AI interrupt must not raise IP2")
	}
}

func TestInitModeWrite(t *testing.T) {
	mi := NewInterrupts(nil)

	_ = mi.Write(MIInitMode, 0x100|0x2000|0x15, 0xFFFFFFFF)
	if got := mi.Regs[MIInitMode]; got != 0x80|0x200|0x15 {
		t.Errorf("Expected init mode %#x, but got %#x", 0x80|0x200|0x15, got)
	}

	_ = mi.Write(MIInitMode, 0x80, 0xFFFFFFFF)
	if got := mi.Regs[MIInitMode]; got != 0x200 {
		t.Errorf("Expected init mode 0x200, but got %#x", got)
	}
}
