package binview

import (
	"debug/elf"
	"fmt"

	"explain/internal/elfx"
	"explain/internal/il"
)

// lifter decodes one native instruction and lifts it to IL.
type lifter interface {
	// decode reads at most one instruction from data (which starts at
	// pc) and returns it together with its lifted IL statements.
	decode(data []byte, pc uint64) (Instruction, il.Sequence, error)
}

// ELFView is a View backed by an ELF image on disk. Instructions are
// decoded with golang.org/x/arch; lifting covers the common subset of
// each supported instruction set, falling back to unimplemented IL
// nodes elsewhere.
type ELFView struct {
	img      *elfx.Image
	archName string
	lift     lifter
	funcs    map[uint64]*Function
}

// OpenELF memory-maps the binary at path and prepares a decoder for
// its architecture. Binaries of architectures without a decoder still
// open; their functions expose raw bytes and empty IL.
func OpenELF(path string) (*ELFView, error) {
	img, err := elfx.Open(path)
	if err != nil {
		return nil, err
	}
	v := &ELFView{img: img, funcs: make(map[uint64]*Function)}
	switch img.Machine() {
	case elf.EM_AARCH64:
		v.archName = "aarch64"
		v.lift = arm64Lifter{}
	case elf.EM_X86_64:
		v.archName = "x86_64"
		v.lift = x86Lifter{mode: 64}
	case elf.EM_386:
		v.archName = "x86"
		v.lift = x86Lifter{mode: 32}
	case elf.EM_ARM:
		v.archName = "armv7"
	case elf.EM_MIPS:
		v.archName = "mips32"
	case elf.EM_PPC, elf.EM_PPC64:
		v.archName = "powerpc"
	default:
		v.archName = img.Machine().String()
	}
	return v, nil
}

// Close releases the underlying image.
func (v *ELFView) Close() error { return v.img.Close() }

func (v *ELFView) ArchName() string { return v.archName }

// Functions returns the defined function symbols of the image, sorted
// by address.
func (v *ELFView) Functions() []elfx.Sym {
	var out []elfx.Sym
	for _, s := range v.img.Syms {
		if s.Func && s.Addr != 0 && s.Name != "" {
			out = append(out, s)
		}
	}
	return out
}

func (v *ELFView) FunctionAt(addr uint64) (*Function, error) {
	sym, end, ok := v.img.FunctionContaining(addr)
	if !ok {
		return nil, ErrNoFunction{Addr: addr}
	}
	if f, ok := v.funcs[sym.Addr]; ok {
		return f, nil
	}
	f, err := v.liftFunction(sym, end)
	if err != nil {
		return nil, err
	}
	v.funcs[sym.Addr] = f
	return f, nil
}

func (v *ELFView) liftFunction(sym elfx.Sym, end uint64) (*Function, error) {
	f := &Function{
		Name:      sym.Name,
		Demangled: CachedDemangle(sym.Name),
		Start:     sym.Addr,
		End:       end,
		insts:     make(map[uint64]Instruction),
		lifted:    make(map[uint64]il.Sequence),
		llil:      make(map[uint64]il.Sequence),
		mlil:      make(map[uint64]il.Sequence),
	}
	index := 0
	for pc := sym.Addr; pc < end; {
		data, ok := v.img.ReadBytesVA(pc, int(min(16, end-pc)))
		if !ok {
			break
		}
		inst, lifted, err := v.decodeOne(data, pc)
		if err != nil {
			// Keep going; undecodable bytes become opaque words.
			inst = Instruction{
				Address:  pc,
				Text:     fmt.Sprintf(".word %#x", data[0]),
				Mnemonic: ".word",
				Bytes:    data[:min(4, uint64(len(data)))],
				Length:   int(min(4, uint64(len(data)))),
			}
			lifted = nil
		}
		for _, s := range lifted {
			il.Walk(s, func(n *il.Node) { n.Address = pc })
			s.Index = index
			index++
		}
		f.Addrs = append(f.Addrs, pc)
		f.insts[pc] = inst
		f.lifted[pc] = lifted
		f.llil[pc] = lowerToLLIL(lifted)
		f.mlil[pc] = lowerToMLIL(f.llil[pc])
		if inst.Length <= 0 {
			break
		}
		pc += uint64(inst.Length)
	}
	return f, nil
}

func (v *ELFView) decodeOne(data []byte, pc uint64) (Instruction, il.Sequence, error) {
	if v.lift == nil {
		return Instruction{}, nil, fmt.Errorf("no decoder for %s", v.archName)
	}
	return v.lift.decode(data, pc)
}

func (v *ELFView) InstructionAt(f *Function, addr uint64) (Instruction, error) {
	if inst, ok := f.insts[addr]; ok {
		return inst, nil
	}
	return Instruction{}, fmt.Errorf("no instruction at %#x in %s", addr, f.Name)
}

func (v *ELFView) LiftedIL(f *Function, addr uint64) (il.Sequence, error) {
	return f.lifted[addr], nil
}

func (v *ELFView) LowLevelIL(f *Function, addr uint64) (il.Sequence, error) {
	return f.llil[addr], nil
}

func (v *ELFView) MediumLevelIL(f *Function, addr uint64) (il.Sequence, error) {
	return f.mlil[addr], nil
}

func (v *ELFView) FlagsRead(f *Function, stmt *il.Node) []string {
	return il.FlagsRead(stmt)
}

func (v *ELFView) FlagsWritten(f *Function, stmt *il.Node) []string {
	return il.FlagsWritten(stmt)
}

func (v *ELFView) SymbolAt(addr uint64) (string, bool) {
	sym, ok := v.img.SymbolAt(addr)
	if !ok {
		return "", false
	}
	return sym.Name, true
}
