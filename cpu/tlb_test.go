package cpu

import "testing"

func TestTLBEntryRecompute(t *testing.T) {
	e := TLBEntry{Mask: 0x3, VPN2: 0x40, PFNEven: 0x200, PFNOdd: 0x300}
	e.Recompute()

	tests := []struct {
		name      string
		got, want uint32
	}{
		{"StartEven", e.StartEven, 0x80000},
		{"EndEven", e.EndEven, 0x80000 + 0x3000 + 0xFFF},
		{"PhysEven", e.PhysEven, 0x200000},
		{"StartOdd", e.StartOdd, 0x80000 + 0x3000 + 0x1000},
		{"EndOdd", e.EndOdd, 0x80000 + 0x3000 + 0x1000 + 0x3000 + 0xFFF},
		{"PhysOdd", e.PhysOdd, 0x300000},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %#x, want %#x", tt.name, tt.got, tt.want)
		}
	}
}

func TestTLBWriteMapsAndUnmaps(t *testing.T) {
	tlb := &TLB{}
	tlb.Write(0, TLBEntry{VPN2: 0x1, PFNEven: 0x5, VEven: 1, DEven: 1})

	paddr, ok := tlb.Translate(0x2010, false)
	if !ok || paddr != 0x5010 {
		t.Fatalf("read translation = %#x, %v; want 0x5010, true", paddr, ok)
	}
	if _, ok := tlb.Translate(0x2010, true); !ok {
		t.Error("dirty page must be writable")
	}

	tlb.Write(0, TLBEntry{})
	if _, ok := tlb.Translate(0x2010, false); ok {
		t.Error("overwritten entry must be unmapped")
	}
}

func TestTLBCleanPageIsReadOnly(t *testing.T) {
	tlb := &TLB{}
	tlb.Write(1, TLBEntry{VPN2: 0x2, PFNOdd: 0x9, VOdd: 1})

	// odd half starts right after the even page
	if _, ok := tlb.Translate(0x5000, false); !ok {
		t.Error("odd page must be readable")
	}
	if _, ok := tlb.Translate(0x5000, true); ok {
		t.Error("clean page must not be writable")
	}
}

func TestTLBSkipsKernelSegment(t *testing.T) {
	tlb := &TLB{}
	tlb.Write(0, TLBEntry{VPN2: 0x80000000 >> 13, PFNEven: 0x1, VEven: 1})

	if _, ok := tlb.Translate(0x80000000, false); ok {
		t.Error("kseg0 addresses are never mapped through the TLB")
	}
}
