package cartridge

// FlashRAM modes.
const (
	FlashNOPES  int32 = 0
	FlashErase  int32 = 1
	FlashWrite  int32 = 2
	FlashRead   int32 = 3
	FlashStatus int32 = 4
)

// FlashRAM is the command state of the FlashRAM save chip controller.
type FlashRAM struct {
	Use          int32
	Mode         int32
	Status       uint64
	EraseOffset  uint32
	WritePointer uint32
}

// Reset returns the controller to idle.
func (f *FlashRAM) Reset() {
	use := f.Use
	*f = FlashRAM{Use: use, Mode: FlashNOPES}
}

func (f *FlashRAM) SaveState() FlashRAM {
	return *f
}

func (f *FlashRAM) LoadState(s FlashRAM) {
	*f = s
}
