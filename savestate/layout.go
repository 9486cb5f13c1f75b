package savestate

import (
	"encoding/binary"
	"fmt"

	"github.com/meadori/vibe64/cpu"
	"github.com/meadori/vibe64/device"
)

// field is one entry of the body schema. get is nil for fields that are
// written for compatibility but ignored on load.
type field struct {
	name string
	size int
	put  func(b []byte, s *Snapshot)
	get  func(b []byte, s *Snapshot)
}

// Field describes the position of one schema entry within a blob.
type Field struct {
	Name   string
	Offset int
	Size   int
}

type integer interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64
}

var le = binary.LittleEndian

func putInt[T integer](b []byte, v T) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		le.PutUint16(b, uint16(v))
	case 4:
		le.PutUint32(b, uint32(v))
	case 8:
		le.PutUint64(b, uint64(v))
	}
}

func getInt[T integer](b []byte) T {
	switch len(b) {
	case 1:
		return T(b[0])
	case 2:
		return T(le.Uint16(b))
	case 4:
		return T(le.Uint32(b))
	default:
		return T(le.Uint64(b))
	}
}

func sizeOf[T integer]() int {
	var v T
	return binary.Size(v)
}

func scalar[T integer](name string, ref func(*Snapshot) *T) field {
	return field{
		name: name,
		size: sizeOf[T](),
		put:  func(b []byte, s *Snapshot) { putInt(b, *ref(s)) },
		get:  func(b []byte, s *Snapshot) { *ref(s) = getInt[T](b) },
	}
}

// array describes n consecutive integers. ref must return a slice of
// exactly n elements.
func array[T integer](name string, n int, ref func(*Snapshot) []T) field {
	w := sizeOf[T]()
	return field{
		name: name,
		size: n * w,
		put: func(b []byte, s *Snapshot) {
			for i, v := range ref(s) {
				putInt(b[i*w:(i+1)*w], v)
			}
		},
		get: func(b []byte, s *Snapshot) {
			vs := ref(s)
			for i := range vs {
				vs[i] = getInt[T](b[i*w : (i+1)*w])
			}
		},
	}
}

func pad(name string, n int) field {
	return field{name: name, size: n, put: func([]byte, *Snapshot) {}}
}

// flags expands the low bits of a register into one byte per bit, followed
// by zero padding up to size. The bytes are derived data and are not read
// back.
func flags(name string, bits, size int, ref func(*Snapshot) uint32) field {
	return field{
		name: name,
		size: size,
		put: func(b []byte, s *Snapshot) {
			v := ref(s)
			for i := range bits {
				b[i] = bit(v, 1<<i)
			}
		},
	}
}

func bit(v, mask uint32) byte {
	if v&mask != 0 {
		return 1
	}
	return 0
}

func tlbEntry(i int) []field {
	e := func(s *Snapshot) *cpu.TLBEntry { return &s.CPU.TLB[i] }
	p := fmt.Sprintf("tlb[%d].", i)
	return []field{
		scalar(p+"mask", func(s *Snapshot) *uint16 { return &e(s).Mask }),
		pad(p+"pad0", 2),
		scalar(p+"vpn2", func(s *Snapshot) *uint32 { return &e(s).VPN2 }),
		scalar(p+"g", func(s *Snapshot) *uint8 { return &e(s).G }),
		scalar(p+"asid", func(s *Snapshot) *uint8 { return &e(s).ASID }),
		pad(p+"pad1", 2),
		scalar(p+"pfn_even", func(s *Snapshot) *uint32 { return &e(s).PFNEven }),
		scalar(p+"c_even", func(s *Snapshot) *uint8 { return &e(s).CEven }),
		scalar(p+"d_even", func(s *Snapshot) *uint8 { return &e(s).DEven }),
		scalar(p+"v_even", func(s *Snapshot) *uint8 { return &e(s).VEven }),
		pad(p+"pad2", 1),
		scalar(p+"pfn_odd", func(s *Snapshot) *uint32 { return &e(s).PFNOdd }),
		scalar(p+"c_odd", func(s *Snapshot) *uint8 { return &e(s).COdd }),
		scalar(p+"d_odd", func(s *Snapshot) *uint8 { return &e(s).DOdd }),
		scalar(p+"v_odd", func(s *Snapshot) *uint8 { return &e(s).VOdd }),
		scalar(p+"r", func(s *Snapshot) *uint8 { return &e(s).R }),
		scalar(p+"start_even", func(s *Snapshot) *uint32 { return &e(s).StartEven }),
		scalar(p+"end_even", func(s *Snapshot) *uint32 { return &e(s).EndEven }),
		scalar(p+"phys_even", func(s *Snapshot) *uint32 { return &e(s).PhysEven }),
		scalar(p+"start_odd", func(s *Snapshot) *uint32 { return &e(s).StartOdd }),
		scalar(p+"end_odd", func(s *Snapshot) *uint32 { return &e(s).EndOdd }),
		scalar(p+"phys_odd", func(s *Snapshot) *uint32 { return &e(s).PhysOdd }),
	}
}

// fgr stores the FPU registers in the wide layout regardless of the FR bit
// in the snapshot's Status register. Status precedes FGR in the body, so it
// is already decoded when get runs.
var fgr = field{
	name: "cp1.fgr",
	size: 32 * 8,
	put: func(b []byte, s *Snapshot) {
		wide := cpu.FPRWide(s.CPU.CP0[cpu.CP0Status], s.CPU.FGR)
		for i, v := range wide {
			le.PutUint64(b[i*8:], v)
		}
	},
	get: func(b []byte, s *Snapshot) {
		var wide [32]uint64
		for i := range wide {
			wide[i] = le.Uint64(b[i*8:])
		}
		s.CPU.FGR = cpu.FPRLive(s.CPU.CP0[cpu.CP0Status], wide)
	},
}

func u32(name string, ref func(*Snapshot) *uint32) field { return scalar(name, ref) }

func buildSchema() []field {
	fs := []field{
		array("rdram.regs", device.RDRAMRegs, func(s *Snapshot) []uint32 { return s.Regs.RDRAM[:] }),
		pad("rdram.pad", 4),

		u32("mi.init_mode", func(s *Snapshot) *uint32 { return &s.MI[device.MIInitMode] }),
		{
			name: "mi.init_mode.flags",
			size: 4,
			put: func(b []byte, s *Snapshot) {
				v := s.MI[device.MIInitMode]
				b[0] = byte(v & 0x7F)
				b[1] = bit(v, 0x80)
				b[2] = bit(v, 0x100)
				b[3] = bit(v, 0x200)
			},
		},
		u32("mi.version", func(s *Snapshot) *uint32 { return &s.MI[device.MIVersion] }),
		u32("mi.intr", func(s *Snapshot) *uint32 { return &s.MI[device.MIIntr] }),
		u32("mi.intr_mask", func(s *Snapshot) *uint32 { return &s.MI[device.MIIntrMask] }),
		pad("mi.pad", 4),
		flags("mi.intr_mask.flags", 6, 6, func(s *Snapshot) uint32 { return s.MI[device.MIIntrMask] }),
		pad("mi.pad2", 2),

		array("pi.regs", device.PIRegs, func(s *Snapshot) []uint32 { return s.Regs.PI[:] }),

		array("sp.regs", 4, func(s *Snapshot) []uint32 { return s.Regs.SP[:device.SPStatus] }),
		pad("sp.pad", 4),
		u32("sp.status", func(s *Snapshot) *uint32 { return &s.Regs.SP[device.SPStatus] }),
		flags("sp.status.flags", 15, 16, func(s *Snapshot) uint32 { return s.Regs.SP[device.SPStatus] }),
		array("sp.dma", 3, func(s *Snapshot) []uint32 { return s.Regs.SP[device.SPStatus+1:] }),

		array("sp2.regs", device.SP2Regs, func(s *Snapshot) []uint32 { return s.Regs.SP2[:] }),
		array("si.regs", device.SIRegs, func(s *Snapshot) []uint32 { return s.Regs.SI[:] }),

		array("vi.regs", device.VIRegs, func(s *Snapshot) []uint32 { return s.VI.Regs[:] }),
		u32("vi.delay", func(s *Snapshot) *uint32 { return &s.VI.Delay }),

		array("ri.regs", device.RIRegs, func(s *Snapshot) []uint32 { return s.Regs.RI[:] }),

		array("ai.regs", device.AIRegs, func(s *Snapshot) []uint32 { return s.AI.Regs[:] }),
		u32("ai.fifo[1].delay", func(s *Snapshot) *uint32 { return &s.AI.FIFO[1].Delay }),
		u32("ai.fifo[1].length", func(s *Snapshot) *uint32 { return &s.AI.FIFO[1].Length }),
		u32("ai.fifo[0].delay", func(s *Snapshot) *uint32 { return &s.AI.FIFO[0].Delay }),
		u32("ai.fifo[0].length", func(s *Snapshot) *uint32 { return &s.AI.FIFO[0].Length }),

		array("dpc.regs", 3, func(s *Snapshot) []uint32 { return s.Regs.DPC[:device.DPCStatus] }),
		pad("dpc.pad", 4),
		u32("dpc.status", func(s *Snapshot) *uint32 { return &s.Regs.DPC[device.DPCStatus] }),
		flags("dpc.status.flags", 11, 12, func(s *Snapshot) uint32 { return s.Regs.DPC[device.DPCStatus] }),
		array("dpc.counters", 4, func(s *Snapshot) []uint32 { return s.Regs.DPC[device.DPCStatus+1:] }),

		array("dps.regs", device.DPSRegs, func(s *Snapshot) []uint32 { return s.Regs.DPS[:] }),

		array("rdram", device.RDRAMWords, func(s *Snapshot) []uint32 { return s.RDRAM[:] }),
		array("sp.mem", device.SPMemWords, func(s *Snapshot) []uint32 { return s.SPMem[:] }),
		array("pif.ram", device.PIFRAMSize, func(s *Snapshot) []byte { return s.PIFRAM[:] }),

		scalar("flashram.use", func(s *Snapshot) *int32 { return &s.FlashRAM.Use }),
		scalar("flashram.mode", func(s *Snapshot) *int32 { return &s.FlashRAM.Mode }),
		scalar("flashram.status", func(s *Snapshot) *uint64 { return &s.FlashRAM.Status }),
		u32("flashram.erase_offset", func(s *Snapshot) *uint32 { return &s.FlashRAM.EraseOffset }),
		u32("flashram.write_pointer", func(s *Snapshot) *uint32 { return &s.FlashRAM.WritePointer }),

		array("tlb.lut_r", cpu.LUTSize, func(s *Snapshot) []uint32 { return s.LUTR[:] }),
		array("tlb.lut_w", cpu.LUTSize, func(s *Snapshot) []uint32 { return s.LUTW[:] }),

		u32("cpu.llbit", func(s *Snapshot) *uint32 { return &s.CPU.LLBit }),
		array("cpu.gpr", 32, func(s *Snapshot) []int64 { return s.CPU.GPR[:] }),
		array("cpu.cp0", 32, func(s *Snapshot) []uint32 { return s.CPU.CP0[:] }),
		scalar("cpu.lo", func(s *Snapshot) *int64 { return &s.CPU.Lo }),
		scalar("cpu.hi", func(s *Snapshot) *int64 { return &s.CPU.Hi }),
		fgr,
		u32("cp1.fcr0", func(s *Snapshot) *uint32 { return &s.CPU.FCR0 }),
		u32("cp1.fcr31", func(s *Snapshot) *uint32 { return &s.CPU.FCR31 }),
	}
	for i := range cpu.TLBEntries {
		fs = append(fs, tlbEntry(i)...)
	}
	return append(fs,
		u32("pc", func(s *Snapshot) *uint32 { return &s.PC }),
		u32("next_interrupt", func(s *Snapshot) *uint32 { return &s.NextInterrupt }),
		u32("next_vi", func(s *Snapshot) *uint32 { return &s.VI.NextVI }),
		u32("vi_field", func(s *Snapshot) *uint32 { return &s.VI.Field }),
	)
}

var (
	schema   = buildSchema()
	bodySize = func() int {
		n := 0
		for _, f := range schema {
			n += f.size
		}
		return n
	}()
)

// Layout returns the offset and size of every body field, in blob order.
func Layout() []Field {
	out := make([]Field, 0, len(schema))
	off := HeaderSize
	for _, f := range schema {
		out = append(out, Field{Name: f.name, Offset: off, Size: f.size})
		off += f.size
	}
	return out
}
