package cpu

// In 32-bit FPU mode (Status.FR clear) the 32 single precision registers
// are packed two per 64-bit slot: slot k holds FGR 2k in its low word and
// FGR 2k+1 in its high word, so an even/odd pair reads as one double.
// The upper halves of the 64-bit registers, which the program cannot see in
// that mode, are packed the same way into slots 16..31.
//
// The save-state format always stores the wide layout, where slot i is the
// full 64-bit register i.

// ToWide converts a narrow (FR=0) register layout into the wide layout.
func ToWide(narrow [32]uint64) [32]uint64 {
	var wide [32]uint64
	for i := 0; i < 32; i++ {
		lo := word(narrow, i)
		hi := word(narrow, 32+i)
		wide[i] = uint64(hi)<<32 | uint64(lo)
	}
	return wide
}

// ToNarrow converts a wide (FR=1) register layout into the narrow layout.
// It is the exact inverse of ToWide.
func ToNarrow(wide [32]uint64) [32]uint64 {
	var narrow [32]uint64
	for i := 0; i < 32; i++ {
		setWord(&narrow, i, uint32(wide[i]))
		setWord(&narrow, 32+i, uint32(wide[i]>>32))
	}
	return narrow
}

// FPRWide returns the canonical wide form of live registers for the given
// Status value. Wide-mode registers are returned unchanged.
func FPRWide(status uint32, live [32]uint64) [32]uint64 {
	if status&StatusFR == 0 {
		return ToWide(live)
	}
	return live
}

// FPRLive reshapes canonical wide registers into the live layout selected
// by the given Status value.
func FPRLive(status uint32, wide [32]uint64) [32]uint64 {
	if status&StatusFR == 0 {
		return ToNarrow(wide)
	}
	return wide
}

// word returns 32-bit word n of the register file viewed as 64 words.
func word(r [32]uint64, n int) uint32 {
	return uint32(r[n>>1] >> (32 * uint(n&1)))
}

func setWord(r *[32]uint64, n int, v uint32) {
	shift := 32 * uint(n&1)
	r[n>>1] = r[n>>1]&^(0xFFFFFFFF<<shift) | uint64(v)<<shift
}
