package state

import (
	"errors"
	"testing"

	"explain/internal/binview"
	"explain/internal/il"
)

// linearView serves lifted IL for a straight-line function.
type linearView struct {
	arch   string
	fn     *binview.Function
	lifted map[uint64]il.Sequence
}

func newLinearView(arch string) *linearView {
	return &linearView{
		arch:   arch,
		fn:     &binview.Function{Name: "f", Start: 0x1000, End: 0x2000},
		lifted: map[uint64]il.Sequence{},
	}
}

func (v *linearView) add(addr uint64, seq il.Sequence) {
	v.lifted[addr] = seq
	v.fn.Addrs = append(v.fn.Addrs, addr)
}

func (v *linearView) ArchName() string { return v.arch }

func (v *linearView) FunctionAt(addr uint64) (*binview.Function, error) { return v.fn, nil }

func (v *linearView) InstructionAt(f *binview.Function, addr uint64) (binview.Instruction, error) {
	return binview.Instruction{Address: addr}, nil
}

func (v *linearView) LiftedIL(f *binview.Function, addr uint64) (il.Sequence, error) {
	return v.lifted[addr], nil
}

func (v *linearView) LowLevelIL(f *binview.Function, addr uint64) (il.Sequence, error) {
	return nil, nil
}

func (v *linearView) MediumLevelIL(f *binview.Function, addr uint64) (il.Sequence, error) {
	return nil, nil
}

func (v *linearView) FlagsRead(f *binview.Function, stmt *il.Node) []string    { return nil }
func (v *linearView) FlagsWritten(f *binview.Function, stmt *il.Node) []string { return nil }
func (v *linearView) SymbolAt(addr uint64) (string, bool)                      { return "", false }

func factByReg(st *State, reg string) (Fact, bool) {
	for _, f := range st.Facts {
		if f.Reg == reg {
			return f, true
		}
	}
	return Fact{}, false
}

func TestGetUnsupportedArch(t *testing.T) {
	for _, arch := range []string{"mips32", "armv7", "powerpc", "msp430"} {
		v := newLinearView(arch)
		v.add(0x1000, il.Sequence{il.SetReg("r1", il.Const(5, 4))})
		if _, err := Get(v, v.fn, 0x1000); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: err = %v, want ErrUnsupported", arch, err)
		}
	}
}

func TestGetTracksConstants(t *testing.T) {
	v := newLinearView("x86_64")
	v.add(0x1000, il.Sequence{il.SetReg("rax", il.Const(5, 8))})
	v.add(0x1004, il.Sequence{il.SetReg("rbx", il.Binary(il.OpAdd, il.Reg("rbx", 8), il.Reg("rax", 8)))})

	st, err := Get(v, v.fn, 0x1004)
	if err != nil {
		t.Fatal(err)
	}

	rax, ok := factByReg(st, "rax")
	if !ok {
		t.Fatal("no fact for rax")
	}
	if !rax.Known || rax.Value != 5 || rax.Source != 0x1000 {
		t.Errorf("rax fact = %+v, want known value 5 set at 0x1000", rax)
	}

	rbx, ok := factByReg(st, "rbx")
	if !ok {
		t.Fatal("no fact for rbx")
	}
	if rbx.Known {
		t.Errorf("rbx fact = %+v, want unknown", rbx)
	}
}

func TestGetStopsAtControlTransfer(t *testing.T) {
	v := newLinearView("aarch64")
	v.add(0x1000, il.Sequence{il.SetReg("x0", il.Const(5, 8))})
	v.add(0x1004, il.Sequence{{Op: il.OpCall, Operands: []*il.Node{il.ConstPtr(0x2000)}}})
	v.add(0x1008, il.Sequence{il.SetReg("x1", il.Reg("x0", 8))})

	st, err := Get(v, v.fn, 0x1008)
	if err != nil {
		t.Fatal(err)
	}
	x0, ok := factByReg(st, "x0")
	if !ok {
		t.Fatal("no fact for x0")
	}
	if x0.Known {
		t.Errorf("x0 fact = %+v, want unknown past a call", x0)
	}
}

func TestGetForgetsOverwrittenValues(t *testing.T) {
	v := newLinearView("x86_64")
	v.add(0x1000, il.Sequence{il.SetReg("rax", il.Const(5, 8))})
	v.add(0x1004, il.Sequence{il.SetReg("rax", il.Unary(il.OpLoad, il.Reg("rbx", 8)))})
	v.add(0x1008, il.Sequence{il.SetReg("rcx", il.Reg("rax", 8))})

	st, err := Get(v, v.fn, 0x1008)
	if err != nil {
		t.Fatal(err)
	}
	rax, ok := factByReg(st, "rax")
	if !ok {
		t.Fatal("no fact for rax")
	}
	if rax.Known {
		t.Errorf("rax fact = %+v, want unknown after a memory load", rax)
	}
}

func TestFactString(t *testing.T) {
	known := Fact{Reg: "rax", Value: 0x10, Known: true, Source: 0x1000}
	if got, want := known.String(), "rax = 0x10 (set at 0x1000)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	unknown := Fact{Reg: "rbx"}
	if got, want := unknown.String(), "rbx = <unknown>"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
