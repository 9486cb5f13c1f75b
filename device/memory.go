package device

// Memory sizes in bytes.
const (
	RDRAMSize  = 0x800000
	SPMemSize  = 0x2000
	PIFRAMSize = 0x40

	RDRAMWords = RDRAMSize / 4
	SPMemWords = SPMemSize / 4
)
