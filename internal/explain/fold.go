// Package explain turns the IL of a single instruction into a
// natural-language description. Folding groups statements that read
// better together, the explainer renders each group as one sentence,
// and the session orchestrates the pipeline per instruction.
package explain

import (
	"explain/internal/il"
)

// Unit is the explanation granularity: one original IL statement, or a
// group of statements whose combined effect is described as one
// sentence. The original statements are never mutated.
type Unit struct {
	Stmts []*il.Node
}

// Head returns the first statement of the unit.
func (u Unit) Head() *il.Node { return u.Stmts[0] }

// Fold groups the IL statements of one instruction into explainable
// units. Recognized patterns collapse into a single unit; everything
// else passes through one statement per unit, preserving order. The
// result never has more units than input statements, and folding is
// best-effort: an unmatched sequence is returned as-is, never an
// error.
func Fold(stmts il.Sequence) []Unit {
	units := make([]Unit, 0, len(stmts))
	for i := 0; i < len(stmts); {
		if n := matchCompareBranch(stmts[i:]); n > 1 {
			units = append(units, Unit{Stmts: stmts[i : i+n]})
			i += n
			continue
		}
		units = append(units, Unit{Stmts: stmts[i : i+1]})
		i++
	}
	return units
}

// matchCompareBranch recognizes the decomposition a lifter produces
// for a compare-and-branch instruction: an optional flag-computing
// assignment, a run of flag assignments, and a conditional branch that
// reads one of those flags. Returns the number of statements matched,
// or 0.
func matchCompareBranch(stmts il.Sequence) int {
	i := 0
	if i < len(stmts) && stmts[i].Op == il.OpSetReg && isFlagSource(stmts[i]) {
		i++
	}
	flags := map[string]bool{}
	for i < len(stmts) && stmts[i].Op == il.OpSetFlag {
		flags[stmts[i].Flag] = true
		i++
	}
	if len(flags) == 0 || i >= len(stmts) || stmts[i].Op != il.OpIf {
		return 0
	}
	for _, f := range il.FlagsRead(stmts[i]) {
		if flags[f] {
			return i + 1
		}
	}
	return 0
}

// isFlagSource reports whether an assignment's right-hand side is the
// kind of arithmetic whose result the following flag statements
// describe.
func isFlagSource(stmt *il.Node) bool {
	if len(stmt.Operands) != 1 {
		return false
	}
	op := stmt.Operands[0].Op
	return op.IsArithmetic() || op.IsComparison()
}
