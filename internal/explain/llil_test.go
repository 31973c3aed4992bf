package explain

import (
	"strings"
	"testing"

	"explain/internal/il"
)

func describeOne(t *testing.T, syms SymbolResolver, stmt *il.Node) string {
	t.Helper()
	ctx := NewContext(syms, il.Sequence{stmt})
	return ctx.Describe(Unit{Stmts: []*il.Node{stmt}})
}

func TestDescribeStatements(t *testing.T) {
	syms := symtab{0x401000: "main"}

	tests := []struct {
		name string
		stmt *il.Node
		want string
	}{
		{
			name: "constant assignment",
			stmt: il.SetReg("x0", il.Const(5, 8)),
			want: "Sets x0 to 0x5",
		},
		{
			name: "addition",
			stmt: il.SetReg("x0", il.Binary(il.OpAdd, il.Reg("x1", 8), il.Const(0x10, 8))),
			want: "Sets x0 to the sum of x1 and 0x10",
		},
		{
			name: "load",
			stmt: il.SetReg("x0", il.Unary(il.OpLoad, il.Binary(il.OpAdd, il.Reg("sp", 8), il.Const(8, 8)))),
			want: "Sets x0 to the value at memory address sp + 0x8",
		},
		{
			name: "store",
			stmt: &il.Node{Op: il.OpStore, Operands: []*il.Node{
				il.Binary(il.OpAdd, il.Reg("sp", 8), il.Const(8, 8)),
				il.Reg("x0", 8),
			}},
			want: "Stores x0 at memory address sp + 0x8",
		},
		{
			name: "call to a named symbol",
			stmt: &il.Node{Op: il.OpCall, Operands: []*il.Node{il.ConstPtr(0x401000)}},
			want: "Calls the function at 0x401000 main",
		},
		{
			name: "jump to an unnamed address",
			stmt: &il.Node{Op: il.OpJump, Operands: []*il.Node{il.ConstPtr(0x400200)}},
			want: "Jumps to 0x400200",
		},
		{
			name: "return",
			stmt: &il.Node{Op: il.OpRet},
			want: "Returns to the calling function",
		},
		{
			name: "system call",
			stmt: &il.Node{Op: il.OpSyscall},
			want: "Executes a system call",
		},
		{
			name: "push",
			stmt: &il.Node{Op: il.OpPush, Operands: []*il.Node{il.Reg("rbp", 8)}},
			want: "Pushes rbp onto the stack",
		},
		{
			name: "pop",
			stmt: il.SetReg("rbp", &il.Node{Op: il.OpPop}),
			want: "Sets rbp to the value popped off the stack",
		},
		{
			name: "flag from comparison",
			stmt: il.SetFlag("z", il.Binary(il.OpCmpEq, il.Reg("x0", 8), il.Reg("x1", 8))),
			want: "Sets flag z if x0 equals x1",
		},
		{
			name: "conditional branch on bare flag",
			stmt: il.If(il.Flag("z"), il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
			want: "If flag z is set, jumps to 0x400100; otherwise execution continues at 0x400104",
		},
		{
			name: "branch on negated flag",
			stmt: il.If(il.Unary(il.OpNot, il.Flag("z")), il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
			want: "If flag z is clear, jumps to 0x400100; otherwise execution continues at 0x400104",
		},
		{
			name: "unsigned comparison condition",
			stmt: il.If(il.Binary(il.OpCmpUge, il.Reg("x0", 8), il.Const(10, 8)),
				il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
			want: "If x0 is at least 0xa (unsigned), jumps to 0x400100; otherwise execution continues at 0x400104",
		},
		{
			name: "named unimplemented operation",
			stmt: &il.Node{Op: il.OpUnimplemented, Reg: "cpuid"},
			want: "Performs cpuid (operation not modeled in IL)",
		},
		{
			name: "breakpoint",
			stmt: &il.Node{Op: il.OpBreakpoint},
			want: "Triggers a breakpoint",
		},
		{
			name: "nop",
			stmt: &il.Node{Op: il.OpNop},
			want: "Does nothing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeOne(t, syms, tt.stmt); got != tt.want {
				t.Errorf("Describe = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeUnknownOpSoftFails(t *testing.T) {
	stmt := &il.Node{Op: il.Op(il.NumOps + 3)}
	got := describeOne(t, nil, stmt)
	if got == "" {
		t.Fatal("Describe returned an empty line for an unknown op")
	}
	if !strings.Contains(got, "no explanation rule available") {
		t.Errorf("unknown op line = %q, want the generic fallback", got)
	}
}

func TestDescribeCompareBranch(t *testing.T) {
	seq := cmpBranch(false)
	for i, s := range seq {
		s.Index = i
	}
	ctx := NewContext(nil, seq)
	units := Fold(seq)
	if len(units) != 1 {
		t.Fatalf("expected one folded unit, got %d", len(units))
	}
	got := ctx.Describe(units[0])
	want := "Compares x0 with x1 and jumps to 0x400100 if x0 is less than x1 (signed); otherwise execution continues at 0x400104"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

func TestDescribeCompareBranchWithResult(t *testing.T) {
	seq := cmpBranch(true)
	seq[0].Reg = "x2"
	for i, s := range seq {
		s.Index = i
	}
	ctx := NewContext(nil, seq)
	units := Fold(seq)
	if len(units) != 1 {
		t.Fatalf("expected one folded unit, got %d", len(units))
	}
	got := ctx.Describe(units[0])
	if !strings.Contains(got, "stores the result in x2") {
		t.Errorf("Describe = %q, want a stored-result clause", got)
	}
	if !strings.HasPrefix(got, "Compares x0 with x1") {
		t.Errorf("Describe = %q, want a comparison lead", got)
	}
}

func TestFlagCitationAcrossStatements(t *testing.T) {
	def := il.SetFlag("z", il.Binary(il.OpCmpEq, il.Reg("x0", 8), il.Reg("x1", 8)))
	def.Index = 0
	branch := il.If(il.Flag("z"), il.ConstPtr(0x400100), il.ConstPtr(0x400104))
	branch.Index = 1

	// Separate units: the branch cites where the flag was set.
	ctx := NewContext(nil, il.Sequence{def, branch})
	got := ctx.Describe(Unit{Stmts: []*il.Node{branch}})
	want := "If flag z is set (set at IL instruction 0), jumps to 0x400100; otherwise execution continues at 0x400104"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}

	// Single-statement instructions never cite.
	solo := NewContext(nil, il.Sequence{branch})
	got = solo.Describe(Unit{Stmts: []*il.Node{branch}})
	if strings.Contains(got, "set at IL instruction") {
		t.Errorf("single-statement description cites a definition site: %q", got)
	}
}
