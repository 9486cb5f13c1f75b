package cpu

const (
	// TLBEntries is the number of entries in the VR4300 TLB.
	TLBEntries = 32

	// LUTSize covers the full 20-bit virtual page space.
	LUTSize = 0x100000
)

// TLBEntry is a single translation record. The Start/End/Phys fields are
// derived from Mask, VPN2 and the PFNs and are kept only as a cache.
type TLBEntry struct {
	Mask uint16
	VPN2 uint32
	G    uint8
	ASID uint8

	PFNEven uint32
	CEven   uint8
	DEven   uint8
	VEven   uint8

	PFNOdd uint32
	COdd   uint8
	DOdd   uint8
	VOdd   uint8
	R      uint8

	StartEven uint32
	EndEven   uint32
	PhysEven  uint32
	StartOdd  uint32
	EndOdd    uint32
	PhysOdd   uint32
}

// Recompute refreshes the derived address ranges.
func (e *TLBEntry) Recompute() {
	e.StartEven = e.VPN2 << 13
	e.EndEven = e.StartEven + uint32(e.Mask)<<12 + 0xFFF
	e.PhysEven = e.PFNEven << 12
	e.StartOdd = e.EndEven + 1
	e.EndOdd = e.StartOdd + uint32(e.Mask)<<12 + 0xFFF
	e.PhysOdd = e.PFNOdd << 12
}

// TLB holds the translation entries and the read/write lookup tables used
// for fast virtual to physical translation.
type TLB struct {
	Entries [TLBEntries]TLBEntry
	LUTR    [LUTSize]uint32
	LUTW    [LUTSize]uint32
}

// Reset clears every entry and both lookup tables.
func (t *TLB) Reset() {
	t.Entries = [TLBEntries]TLBEntry{}
	clear(t.LUTR[:])
	clear(t.LUTW[:])
}

// Write replaces entry i, recomputing its ranges and refreshing the lookup
// tables for both the old and the new mapping.
func (t *TLB) Write(i int, e TLBEntry) {
	t.unmap(&t.Entries[i])
	e.Recompute()
	t.Entries[i] = e
	t.mapEntry(&t.Entries[i])
}

// Recompute refreshes the derived ranges of every entry.
func (t *TLB) Recompute() {
	for i := range t.Entries {
		t.Entries[i].Recompute()
	}
}

// Translate returns the physical address for a virtual address, using the
// read or write table. ok is false on a TLB miss.
func (t *TLB) Translate(vaddr uint32, write bool) (paddr uint32, ok bool) {
	lut := &t.LUTR
	if write {
		lut = &t.LUTW
	}
	v := lut[vaddr>>12]
	if v == 0 {
		return 0, false
	}
	return (v & 0x7FFFF000) | (vaddr & 0xFFF), true
}

func mappable(start, end, phys uint32) bool {
	return start < end &&
		!(start >= 0x80000000 && end < 0xC0000000) &&
		phys < 0x20000000
}

func (t *TLB) fill(start, end, phys uint32, dirty bool) {
	if !mappable(start, end, phys) {
		return
	}
	for a := uint64(start); a < uint64(end); a += 0x1000 {
		v := 0x80000000 | (phys + (uint32(a) - start) + 0xFFF)
		t.LUTR[a>>12] = v
		if dirty {
			t.LUTW[a>>12] = v
		}
	}
}

func (t *TLB) drain(start, end, phys uint32) {
	if !mappable(start, end, phys) {
		return
	}
	for a := uint64(start); a < uint64(end); a += 0x1000 {
		t.LUTR[a>>12] = 0
		t.LUTW[a>>12] = 0
	}
}

func (t *TLB) mapEntry(e *TLBEntry) {
	if e.VEven != 0 {
		t.fill(e.StartEven, e.EndEven, e.PhysEven, e.DEven != 0)
	}
	if e.VOdd != 0 {
		t.fill(e.StartOdd, e.EndOdd, e.PhysOdd, e.DOdd != 0)
	}
}

func (t *TLB) unmap(e *TLBEntry) {
	if e.VEven != 0 {
		t.drain(e.StartEven, e.EndEven, e.PhysEven)
	}
	if e.VOdd != 0 {
		t.drain(e.StartOdd, e.EndOdd, e.PhysOdd)
	}
}
