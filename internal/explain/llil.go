package explain

import (
	"fmt"
	"strings"

	"explain/internal/il"
)

// SymbolResolver is the narrow slice of the binary view the explainer
// needs: literal-to-name lookup.
type SymbolResolver interface {
	SymbolAt(addr uint64) (string, bool)
}

// Context carries what one instruction's explanation needs: symbol
// lookup plus the flag definition sites of the sequence being
// explained, so a flag reference can cite where it was set.
type Context struct {
	syms     SymbolResolver
	flagDefs map[string]int
	multi    bool // sequence spans more than one statement
}

// NewContext prepares a context for explaining seq.
func NewContext(syms SymbolResolver, seq il.Sequence) *Context {
	c := &Context{syms: syms, flagDefs: make(map[string]int), multi: len(seq) > 1}
	for _, stmt := range seq {
		if stmt.Op == il.OpSetFlag {
			c.flagDefs[stmt.Flag] = stmt.Index
		}
	}
	return c
}

// Describe renders one folded unit as a single explanation line. It
// never returns an empty string and never fails: operation kinds
// without a dedicated rule get the generic fallback line.
func (c *Context) Describe(u Unit) string {
	if len(u.Stmts) > 1 {
		if s := c.describeCompareBranch(u); s != "" {
			return s
		}
		// Unrecognized grouping; describe the parts joined.
		var parts []string
		for _, stmt := range u.Stmts {
			parts = append(parts, c.describeStmt(stmt))
		}
		return strings.Join(parts, "; ")
	}
	return c.describeStmt(u.Head())
}

// describeCompareBranch renders a folded compare-and-branch unit as
// one compound sentence naming both the comparison and the branch
// condition.
func (c *Context) describeCompareBranch(u Unit) string {
	var arith *il.Node
	flagDefs := map[string]*il.Node{}
	var branch *il.Node
	for _, stmt := range u.Stmts {
		switch stmt.Op {
		case il.OpSetReg:
			arith = stmt
		case il.OpSetFlag:
			flagDefs[stmt.Flag] = stmt.Operands[0]
		case il.OpIf:
			branch = stmt
		}
	}
	if branch == nil || len(flagDefs) == 0 {
		return ""
	}

	// The compared operands come from any flag definition; the lifter
	// writes them identically across the run.
	var a, b *il.Node
	for _, def := range flagDefs {
		if def.Op.IsComparison() && len(def.Operands) == 2 {
			a, b = def.Operands[0], def.Operands[1]
			break
		}
	}
	if a == nil {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Compares %s with %s", c.value(a), c.value(b))
	if arith != nil {
		fmt.Fprintf(&sb, ", stores the result in %s,", arith.Reg)
	}
	cond := c.condPhraseWithDefs(branch.Operands[0], flagDefs)
	fmt.Fprintf(&sb, " and jumps to %s if %s", c.value(branch.Operands[1]), cond)
	fmt.Fprintf(&sb, "; otherwise execution continues at %s", c.value(branch.Operands[2]))
	return sb.String()
}

// describeStmt renders one IL statement. The switch is exhaustive over
// the operation vocabulary; the default arm is the soft-fail rule.
func (c *Context) describeStmt(n *il.Node) string {
	switch n.Op {
	case il.OpNop:
		return "Does nothing"
	case il.OpSetReg:
		return fmt.Sprintf("Sets %s to %s", n.Reg, c.value(n.Operands[0]))
	case il.OpSetFlag:
		src := n.Operands[0]
		if src.Op.IsComparison() && len(src.Operands) == 2 {
			return fmt.Sprintf("Sets flag %s if %s", n.Flag,
				c.comparisonPhrase(src.Op, src.Operands[0], src.Operands[1]))
		}
		return fmt.Sprintf("Sets flag %s to %s", n.Flag, c.value(src))
	case il.OpStore:
		return fmt.Sprintf("Stores %s at memory address %s", c.value(n.Operands[1]), c.addr(n.Operands[0]))
	case il.OpPush:
		return fmt.Sprintf("Pushes %s onto the stack", c.value(n.Operands[0]))
	case il.OpJump:
		return fmt.Sprintf("Jumps to %s", c.value(n.Operands[0]))
	case il.OpCall:
		return fmt.Sprintf("Calls the function at %s", c.value(n.Operands[0]))
	case il.OpRet:
		return "Returns to the calling function"
	case il.OpIf:
		return fmt.Sprintf("If %s, jumps to %s; otherwise execution continues at %s",
			c.cond(n.Operands[0]), c.value(n.Operands[1]), c.value(n.Operands[2]))
	case il.OpGoto:
		return fmt.Sprintf("Jumps to IL instruction %s", c.value(n.Operands[0]))
	case il.OpSyscall:
		return "Executes a system call"
	case il.OpBreakpoint:
		return "Triggers a breakpoint"
	case il.OpTrap:
		if len(n.Operands) > 0 {
			return fmt.Sprintf("Raises trap %s", c.value(n.Operands[0]))
		}
		return "Raises a trap"
	case il.OpIntrinsic:
		return fmt.Sprintf("Executes processor intrinsic %s", n.Reg)
	case il.OpUndefined:
		return "Undefined instruction; executing it raises an exception"
	case il.OpUnimplemented:
		if n.Reg != "" {
			return fmt.Sprintf("Performs %s (operation not modeled in IL)", n.Reg)
		}
		return "Performs an operation not modeled in IL"
	case il.OpReg, il.OpFlag, il.OpConst, il.OpConstPtr, il.OpLoad, il.OpPop,
		il.OpAdd, il.OpSub, il.OpMul, il.OpDivU, il.OpDivS, il.OpAnd, il.OpOr,
		il.OpXor, il.OpShiftLeft, il.OpShiftRight, il.OpArithShiftRight,
		il.OpRotateLeft, il.OpRotateRight, il.OpNeg, il.OpNot, il.OpSignExtend,
		il.OpZeroExtend, il.OpLowPart, il.OpBoolToInt,
		il.OpCmpEq, il.OpCmpNe, il.OpCmpSlt, il.OpCmpUlt, il.OpCmpSle,
		il.OpCmpUle, il.OpCmpSge, il.OpCmpUge, il.OpCmpSgt, il.OpCmpUgt:
		// A bare value at statement position; unusual but legal.
		return fmt.Sprintf("Computes %s", c.value(n))
	}
	return fmt.Sprintf("Performs operation %q (no explanation rule available)", n.Op.String())
}

// value renders a value expression as a noun phrase.
func (c *Context) value(n *il.Node) string {
	if n == nil {
		return "an unknown value"
	}
	switch n.Op {
	case il.OpReg:
		return n.Reg
	case il.OpFlag:
		return "flag " + n.Flag + c.flagCitation(n.Flag)
	case il.OpConst, il.OpConstPtr:
		return c.literal(n.Value)
	case il.OpLoad:
		return fmt.Sprintf("the value at memory address %s", c.addr(n.Operands[0]))
	case il.OpPop:
		return "the value popped off the stack"
	case il.OpAdd:
		return fmt.Sprintf("the sum of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpSub:
		return fmt.Sprintf("the difference of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpMul:
		return fmt.Sprintf("the product of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpDivU:
		return fmt.Sprintf("the unsigned quotient of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpDivS:
		return fmt.Sprintf("the signed quotient of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpAnd:
		return fmt.Sprintf("the bitwise AND of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpOr:
		return fmt.Sprintf("the bitwise OR of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpXor:
		return fmt.Sprintf("the bitwise exclusive-OR of %s and %s", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpShiftLeft:
		return fmt.Sprintf("%s shifted left by %s bits", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpShiftRight:
		return fmt.Sprintf("%s shifted right by %s bits", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpArithShiftRight:
		return fmt.Sprintf("%s arithmetically shifted right by %s bits", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpRotateLeft:
		return fmt.Sprintf("%s rotated left by %s bits", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpRotateRight:
		return fmt.Sprintf("%s rotated right by %s bits", c.value(n.Operands[0]), c.value(n.Operands[1]))
	case il.OpNeg:
		return fmt.Sprintf("the negation of %s", c.value(n.Operands[0]))
	case il.OpNot:
		return fmt.Sprintf("the bitwise complement of %s", c.value(n.Operands[0]))
	case il.OpSignExtend:
		return fmt.Sprintf("%s sign-extended", c.value(n.Operands[0]))
	case il.OpZeroExtend:
		return fmt.Sprintf("%s zero-extended", c.value(n.Operands[0]))
	case il.OpLowPart:
		return fmt.Sprintf("the low part of %s", c.value(n.Operands[0]))
	case il.OpBoolToInt:
		return fmt.Sprintf("1 if %s, else 0", c.cond(n.Operands[0]))
	}
	if n.Op.IsComparison() && len(n.Operands) == 2 {
		return fmt.Sprintf("1 if %s, else 0",
			c.comparisonPhrase(n.Op, n.Operands[0], n.Operands[1]))
	}
	return fmt.Sprintf("the result of %s", n.String())
}

// addr renders an effective-address expression, preferring plain
// arithmetic notation over the prose used for values.
func (c *Context) addr(n *il.Node) string {
	switch n.Op {
	case il.OpAdd:
		return fmt.Sprintf("%s + %s", c.addr(n.Operands[0]), c.addr(n.Operands[1]))
	case il.OpSub:
		return fmt.Sprintf("%s - %s", c.addr(n.Operands[0]), c.addr(n.Operands[1]))
	case il.OpMul:
		return fmt.Sprintf("%s * %s", c.addr(n.Operands[0]), c.addr(n.Operands[1]))
	case il.OpReg:
		return n.Reg
	case il.OpConst, il.OpConstPtr:
		return c.literal(n.Value)
	}
	return c.value(n)
}

// cond renders a boolean expression as a clause.
func (c *Context) cond(n *il.Node) string {
	return c.condPhraseWithDefs(n, nil)
}

// condPhraseWithDefs is cond with an optional local table of flag
// definitions, used inside folded units where the flag's comparison is
// part of the same unit and should be spelled out instead of cited.
func (c *Context) condPhraseWithDefs(n *il.Node, defs map[string]*il.Node) string {
	if n == nil {
		return "an unknown condition holds"
	}
	switch n.Op {
	case il.OpFlag:
		if def, ok := defs[n.Flag]; ok && def.Op.IsComparison() && len(def.Operands) == 2 {
			return c.comparisonPhrase(def.Op, def.Operands[0], def.Operands[1])
		}
		return fmt.Sprintf("flag %s is set%s", n.Flag, c.flagCitation(n.Flag))
	case il.OpNot:
		inner := n.Operands[0]
		if inner.Op == il.OpFlag {
			if def, ok := defs[inner.Flag]; ok && def.Op.IsComparison() && len(def.Operands) == 2 {
				return c.comparisonPhrase(negateRelation(def.Op), def.Operands[0], def.Operands[1])
			}
			return fmt.Sprintf("flag %s is clear%s", inner.Flag, c.flagCitation(inner.Flag))
		}
		return fmt.Sprintf("it is not the case that %s", c.condPhraseWithDefs(inner, defs))
	case il.OpAnd:
		return fmt.Sprintf("%s and %s",
			c.condPhraseWithDefs(n.Operands[0], defs), c.condPhraseWithDefs(n.Operands[1], defs))
	case il.OpOr:
		return fmt.Sprintf("%s or %s",
			c.condPhraseWithDefs(n.Operands[0], defs), c.condPhraseWithDefs(n.Operands[1], defs))
	case il.OpConst:
		if n.Value != 0 {
			return "always"
		}
		return "never"
	}
	if n.Op.IsComparison() && len(n.Operands) == 2 {
		return c.comparisonPhrase(n.Op, n.Operands[0], n.Operands[1])
	}
	return fmt.Sprintf("%s is nonzero", c.value(n))
}

// flagCitation names the IL statement that defined the flag, so an
// analyst can trace the condition back to its source. Only emitted
// when the instruction spans multiple statements.
func (c *Context) flagCitation(flag string) string {
	if !c.multi {
		return ""
	}
	if idx, ok := c.flagDefs[flag]; ok {
		return fmt.Sprintf(" (set at IL instruction %d)", idx)
	}
	return ""
}

// literal renders a number in hexadecimal, appending the symbol name
// when the value is a known symbol's address.
func (c *Context) literal(v uint64) string {
	if c.syms != nil {
		if name, ok := c.syms.SymbolAt(v); ok {
			return fmt.Sprintf("%#x %s", v, name)
		}
	}
	return fmt.Sprintf("%#x", v)
}

// relation returns the verb phrase for a comparison plus a trailing
// qualifier, composed as "a <verb> b <qualifier>".
func relation(op il.Op) (verb, qualifier string) {
	switch op {
	case il.OpCmpEq:
		return "equals", ""
	case il.OpCmpNe:
		return "does not equal", ""
	case il.OpCmpSlt:
		return "is less than", "(signed)"
	case il.OpCmpUlt:
		return "is less than", "(unsigned)"
	case il.OpCmpSle:
		return "is at most", "(signed)"
	case il.OpCmpUle:
		return "is at most", "(unsigned)"
	case il.OpCmpSge:
		return "is at least", "(signed)"
	case il.OpCmpUge:
		return "is at least", "(unsigned)"
	case il.OpCmpSgt:
		return "is greater than", "(signed)"
	case il.OpCmpUgt:
		return "is greater than", "(unsigned)"
	}
	return "relates to", ""
}

// comparisonPhrase renders "a <verb> b <qualifier>" for a comparison op.
func (c *Context) comparisonPhrase(op il.Op, a, b *il.Node) string {
	verb, qual := relation(op)
	s := fmt.Sprintf("%s %s %s", c.value(a), verb, c.value(b))
	if qual != "" {
		s += " " + qual
	}
	return s
}

func negateRelation(op il.Op) il.Op {
	switch op {
	case il.OpCmpEq:
		return il.OpCmpNe
	case il.OpCmpNe:
		return il.OpCmpEq
	case il.OpCmpSlt:
		return il.OpCmpSge
	case il.OpCmpSge:
		return il.OpCmpSlt
	case il.OpCmpUlt:
		return il.OpCmpUge
	case il.OpCmpUge:
		return il.OpCmpUlt
	case il.OpCmpSle:
		return il.OpCmpSgt
	case il.OpCmpSgt:
		return il.OpCmpSle
	case il.OpCmpUle:
		return il.OpCmpUgt
	case il.OpCmpUgt:
		return il.OpCmpUle
	}
	return op
}
