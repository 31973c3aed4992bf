package binview

import (
	"testing"

	"explain/internal/il"
)

func TestLowerToLLIL(t *testing.T) {
	t.Run("flag definitions are inlined into the branch", func(t *testing.T) {
		lifted := il.Sequence{
			il.SetFlag("z", il.Binary(il.OpCmpEq, il.Reg("x0", 8), il.Reg("x1", 8))),
			il.If(il.Flag("z"), il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
		}
		llil := lowerToLLIL(lifted)
		if len(llil) != 1 {
			t.Fatalf("llil has %d statements, want 1", len(llil))
		}
		want := "if (x0 == x1) then 0x400100 else 0x400104"
		if got := llil[0].String(); got != want {
			t.Errorf("llil[0] = %q, want %q", got, want)
		}
		// The lifted IL must be untouched.
		if lifted[1].Operands[0].Op != il.OpFlag {
			t.Error("flag substitution mutated the lifted IL")
		}
	})

	t.Run("bare compare lowers to empty", func(t *testing.T) {
		lifted := compareFlags(il.Reg("x0", 8), il.Reg("x1", 8))
		if llil := lowerToLLIL(lifted); len(llil) != 0 {
			t.Errorf("llil = %v, want empty for a pure flag writer", llil)
		}
	})

	t.Run("flags without a local definition pass through", func(t *testing.T) {
		lifted := il.Sequence{
			il.If(il.Flag("z"), il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
		}
		llil := lowerToLLIL(lifted)
		if len(llil) != 1 || llil[0].Operands[0].Op != il.OpFlag {
			t.Errorf("llil = %v, want an unchanged flag reference", llil)
		}
	})
}

func TestLowerToMLIL(t *testing.T) {
	t.Run("temporaries are inlined", func(t *testing.T) {
		llil := il.Sequence{
			il.SetReg("temp0", il.Binary(il.OpAdd, il.Reg("x1", 8), il.Const(8, 8))),
			il.SetReg("x0", il.Unary(il.OpLoad, il.Reg("temp0", 8))),
		}
		mlil := lowerToMLIL(llil)
		if len(mlil) != 1 {
			t.Fatalf("mlil has %d statements, want 1", len(mlil))
		}
		want := "x0 = [x1 + 0x8]"
		if got := mlil[0].String(); got != want {
			t.Errorf("mlil[0] = %q, want %q", got, want)
		}
	})

	t.Run("nops disappear", func(t *testing.T) {
		llil := il.Sequence{
			{Op: il.OpNop},
			il.SetReg("x0", il.Const(1, 8)),
		}
		mlil := lowerToMLIL(llil)
		if len(mlil) != 1 || mlil[0].Op != il.OpSetReg {
			t.Errorf("mlil = %v, want the nop dropped", mlil)
		}
	})

	t.Run("ordinary registers are not inlined", func(t *testing.T) {
		llil := il.Sequence{
			il.SetReg("x1", il.Const(4, 8)),
			il.SetReg("x0", il.Reg("x1", 8)),
		}
		if mlil := lowerToMLIL(llil); len(mlil) != 2 {
			t.Errorf("mlil has %d statements, want 2", len(mlil))
		}
	})
}

func TestParseImmText(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"#16", 16, true},
		{"#0x20", 0x20, true},
		{"#-8", ^uint64(7), true},
		{"0x1000", 0x1000, true},
		{"lsl", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseImmText(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseImmText(%q) = (%#x, %v), want (%#x, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
