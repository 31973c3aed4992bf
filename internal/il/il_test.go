package il

import (
	"reflect"
	"testing"
)

func TestNodeString(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{
			name: "register assignment",
			node: SetReg("x0", Binary(OpAdd, Reg("x1", 8), Const(0x10, 8))),
			want: "x0 = x1 + 0x10",
		},
		{
			name: "flag assignment",
			node: SetFlag("z", Binary(OpCmpEq, Reg("x0", 8), Reg("x1", 8))),
			want: "flag:z = x0 == x1",
		},
		{
			name: "store",
			node: &Node{Op: OpStore, Operands: []*Node{
				Binary(OpAdd, Reg("sp", 8), Const(8, 8)),
				Reg("x0", 8),
			}},
			want: "[sp + 0x8] = x0",
		},
		{
			name: "load expression",
			node: SetReg("x0", Unary(OpLoad, Reg("x1", 8))),
			want: "x0 = [x1]",
		},
		{
			name: "conditional branch",
			node: If(Flag("z"), ConstPtr(0x400100), ConstPtr(0x400104)),
			want: "if (flag:z) then 0x400100 else 0x400104",
		},
		{
			name: "call",
			node: &Node{Op: OpCall, Operands: []*Node{ConstPtr(0x401000)}},
			want: "call(0x401000)",
		},
		{
			name: "return",
			node: &Node{Op: OpRet},
			want: "ret",
		},
		{
			name: "nop",
			node: &Node{Op: OpNop},
			want: "nop",
		},
		{
			name: "negation",
			node: SetReg("eax", Unary(OpNeg, Reg("eax", 4))),
			want: "eax = -eax",
		},
		{
			name: "zero extend",
			node: SetReg("rax", Unary(OpZeroExtend, Reg("al", 1))),
			want: "rax = zx(al)",
		},
		{
			name: "nil node",
			node: nil,
			want: "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFlagsReadWritten(t *testing.T) {
	branch := If(
		Binary(OpOr, Flag("z"), Flag("n")),
		ConstPtr(0x400100),
		ConstPtr(0x400104),
	)
	if got, want := FlagsRead(branch), []string{"z", "n"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FlagsRead = %v, want %v", got, want)
	}
	if got := FlagsWritten(branch); got != nil {
		t.Errorf("FlagsWritten on a branch = %v, want nil", got)
	}

	def := SetFlag("c", Binary(OpCmpUge, Reg("x0", 8), Reg("x1", 8)))
	if got, want := FlagsWritten(def), []string{"c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FlagsWritten = %v, want %v", got, want)
	}
	if got := FlagsRead(def); got != nil {
		t.Errorf("FlagsRead on a pure definition = %v, want nil", got)
	}

	// First occurrence order, no duplicates.
	dup := If(
		Binary(OpAnd, Flag("n"), Binary(OpOr, Flag("z"), Flag("n"))),
		ConstPtr(0x10), ConstPtr(0x14),
	)
	if got, want := FlagsRead(dup), []string{"n", "z"}; !reflect.DeepEqual(got, want) {
		t.Errorf("FlagsRead with duplicates = %v, want %v", got, want)
	}
}

func TestOpClassification(t *testing.T) {
	if !OpCmpSlt.IsComparison() || OpAdd.IsComparison() {
		t.Error("IsComparison misclassifies")
	}
	if !OpShiftLeft.IsArithmetic() || OpSetReg.IsArithmetic() {
		t.Error("IsArithmetic misclassifies")
	}
}

func TestWalkOrder(t *testing.T) {
	n := SetReg("x0", Binary(OpAdd, Reg("x1", 8), Const(2, 8)))
	var ops []Op
	Walk(n, func(c *Node) { ops = append(ops, c.Op) })
	want := []Op{OpSetReg, OpAdd, OpReg, OpConst}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("Walk order = %v, want %v", ops, want)
	}
}
