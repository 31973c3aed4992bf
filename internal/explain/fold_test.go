package explain

import (
	"testing"

	"explain/internal/il"
)

// cmpBranch builds the canonical lifting of a compare-and-branch:
// optional arithmetic head, flag run, conditional branch.
func cmpBranch(withHead bool) il.Sequence {
	var seq il.Sequence
	if withHead {
		seq = append(seq, il.SetReg("temp0", il.Binary(il.OpSub, il.Reg("x0", 8), il.Reg("x1", 8))))
	}
	seq = append(seq,
		il.SetFlag("z", il.Binary(il.OpCmpEq, il.Reg("x0", 8), il.Reg("x1", 8))),
		il.SetFlag("n", il.Binary(il.OpCmpSlt, il.Reg("x0", 8), il.Reg("x1", 8))),
		il.If(il.Flag("n"), il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
	)
	return seq
}

func TestFold(t *testing.T) {
	tests := []struct {
		name      string
		stmts     il.Sequence
		wantUnits int
		wantSizes []int
	}{
		{
			name:      "empty sequence",
			stmts:     nil,
			wantUnits: 0,
		},
		{
			name:      "single assignment passes through",
			stmts:     il.Sequence{il.SetReg("x0", il.Const(5, 8))},
			wantUnits: 1,
			wantSizes: []int{1},
		},
		{
			name:      "compare and branch folds",
			stmts:     cmpBranch(false),
			wantUnits: 1,
			wantSizes: []int{3},
		},
		{
			name:      "compare with arithmetic head folds",
			stmts:     cmpBranch(true),
			wantUnits: 1,
			wantSizes: []int{4},
		},
		{
			name: "branch on unrelated flag does not fold",
			stmts: il.Sequence{
				il.SetFlag("z", il.Binary(il.OpCmpEq, il.Reg("x0", 8), il.Reg("x1", 8))),
				il.If(il.Flag("c"), il.ConstPtr(0x400100), il.ConstPtr(0x400104)),
			},
			wantUnits: 2,
			wantSizes: []int{1, 1},
		},
		{
			name: "constant assignment head is not a flag source",
			stmts: append(il.Sequence{
				il.SetReg("x2", il.Const(7, 8)),
			}, cmpBranch(false)...),
			wantUnits: 2,
			wantSizes: []int{1, 3},
		},
		{
			name: "flags without a branch pass through",
			stmts: il.Sequence{
				il.SetFlag("z", il.Binary(il.OpCmpEq, il.Reg("x0", 8), il.Reg("x1", 8))),
				il.SetFlag("n", il.Binary(il.OpCmpSlt, il.Reg("x0", 8), il.Reg("x1", 8))),
			},
			wantUnits: 2,
			wantSizes: []int{1, 1},
		},
		{
			name: "statements after the branch stay separate",
			stmts: append(cmpBranch(false),
				il.SetReg("x3", il.Const(1, 8))),
			wantUnits: 2,
			wantSizes: []int{3, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := Fold(tt.stmts)
			if len(units) != tt.wantUnits {
				t.Fatalf("Fold produced %d units, want %d", len(units), tt.wantUnits)
			}
			if len(units) > len(tt.stmts) {
				t.Errorf("Fold produced more units (%d) than statements (%d)", len(units), len(tt.stmts))
			}
			total := 0
			for i, u := range units {
				if tt.wantSizes != nil && len(u.Stmts) != tt.wantSizes[i] {
					t.Errorf("unit %d has %d statements, want %d", i, len(u.Stmts), tt.wantSizes[i])
				}
				total += len(u.Stmts)
			}
			if total != len(tt.stmts) {
				t.Errorf("units cover %d statements, input has %d", total, len(tt.stmts))
			}
			// Folding never mutates or reorders the input.
			i := 0
			for _, u := range units {
				for _, s := range u.Stmts {
					if s != tt.stmts[i] {
						t.Fatalf("unit statement %d is not the original node", i)
					}
					i++
				}
			}
		})
	}
}
