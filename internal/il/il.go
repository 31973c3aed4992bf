// Package il defines a common intermediate representation for lifted
// machine instructions, shared across architecture-specific lifters.
package il

import (
	"fmt"
	"strings"
)

// Level identifies which abstraction level a sequence belongs to.
type Level int

const (
	Lifted Level = iota
	LowLevel
	MediumLevel
)

func (l Level) String() string {
	switch l {
	case Lifted:
		return "lifted"
	case LowLevel:
		return "llil"
	case MediumLevel:
		return "mlil"
	}
	return "unknown"
}

// Op is the operation kind of an IL node. The vocabulary is fixed and
// architecture-independent; lifters map native instructions onto it.
type Op int

const (
	OpNop Op = iota

	// Statements.
	OpSetReg
	OpSetFlag
	OpStore
	OpPush
	OpJump
	OpCall
	OpRet
	OpIf
	OpGoto
	OpSyscall
	OpBreakpoint
	OpTrap
	OpIntrinsic
	OpUndefined
	OpUnimplemented

	// Value expressions.
	OpReg
	OpFlag
	OpConst
	OpConstPtr
	OpLoad
	OpPop

	// Arithmetic and logic.
	OpAdd
	OpSub
	OpMul
	OpDivU
	OpDivS
	OpAnd
	OpOr
	OpXor
	OpShiftLeft
	OpShiftRight
	OpArithShiftRight
	OpRotateLeft
	OpRotateRight
	OpNeg
	OpNot
	OpSignExtend
	OpZeroExtend
	OpLowPart

	// Comparisons.
	OpCmpEq
	OpCmpNe
	OpCmpSlt
	OpCmpUlt
	OpCmpSle
	OpCmpUle
	OpCmpSge
	OpCmpUge
	OpCmpSgt
	OpCmpUgt

	OpBoolToInt

	opMax // sentinel, keep last
)

// NumOps is the size of the operation vocabulary.
const NumOps = int(opMax)

var opNames = [...]string{
	OpNop:             "nop",
	OpSetReg:          "set_reg",
	OpSetFlag:         "set_flag",
	OpStore:           "store",
	OpPush:            "push",
	OpJump:            "jump",
	OpCall:            "call",
	OpRet:             "ret",
	OpIf:              "if",
	OpGoto:            "goto",
	OpSyscall:         "syscall",
	OpBreakpoint:      "bp",
	OpTrap:            "trap",
	OpIntrinsic:       "intrinsic",
	OpUndefined:       "undef",
	OpUnimplemented:   "unimpl",
	OpReg:             "reg",
	OpFlag:            "flag",
	OpConst:           "const",
	OpConstPtr:        "const_ptr",
	OpLoad:            "load",
	OpPop:             "pop",
	OpAdd:             "add",
	OpSub:             "sub",
	OpMul:             "mul",
	OpDivU:            "divu",
	OpDivS:            "divs",
	OpAnd:             "and",
	OpOr:              "or",
	OpXor:             "xor",
	OpShiftLeft:       "lsl",
	OpShiftRight:      "lsr",
	OpArithShiftRight: "asr",
	OpRotateLeft:      "rol",
	OpRotateRight:     "ror",
	OpNeg:             "neg",
	OpNot:             "not",
	OpSignExtend:      "sx",
	OpZeroExtend:      "zx",
	OpLowPart:         "low_part",
	OpCmpEq:           "==",
	OpCmpNe:           "!=",
	OpCmpSlt:          "s<",
	OpCmpUlt:          "u<",
	OpCmpSle:          "s<=",
	OpCmpUle:          "u<=",
	OpCmpSge:          "s>=",
	OpCmpUge:          "u>=",
	OpCmpSgt:          "s>",
	OpCmpUgt:          "u>",
	OpBoolToInt:       "bool_to_int",
}

func (op Op) String() string {
	if op >= 0 && int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// IsComparison reports whether op is one of the comparison kinds.
func (op Op) IsComparison() bool {
	return op >= OpCmpEq && op <= OpCmpUgt
}

// IsArithmetic reports whether op computes a value from operands
// (arithmetic, logic, or shift).
func (op Op) IsArithmetic() bool {
	return op >= OpAdd && op <= OpLowPart
}

// Node is one IL operation. Statements and value expressions share the
// same node type; statements appear only at sequence top level.
type Node struct {
	Op       Op
	Size     int    // operand width in bytes, 0 when irrelevant
	Reg      string // register name for OpReg / OpSetReg destination
	Flag     string // flag name for OpFlag / OpSetFlag destination
	Value    uint64 // literal for OpConst / OpConstPtr
	Operands []*Node

	// Index is the node's statement index within the enclosing
	// function's IL, used to cite where a value was defined.
	Index int

	// Address of the native instruction this node was lifted from.
	Address uint64
}

// Sequence is an ordered run of top-level IL statements belonging to a
// single native instruction.
type Sequence []*Node

// Reg returns a register expression node.
func Reg(name string, size int) *Node { return &Node{Op: OpReg, Reg: name, Size: size} }

// Flag returns a flag expression node.
func Flag(name string) *Node { return &Node{Op: OpFlag, Flag: name} }

// Const returns a literal expression node.
func Const(v uint64, size int) *Node { return &Node{Op: OpConst, Value: v, Size: size} }

// ConstPtr returns a literal expression node known to be an address.
func ConstPtr(v uint64) *Node { return &Node{Op: OpConstPtr, Value: v} }

// SetReg returns a register assignment statement.
func SetReg(dest string, src *Node) *Node {
	return &Node{Op: OpSetReg, Reg: dest, Operands: []*Node{src}}
}

// SetFlag returns a flag assignment statement.
func SetFlag(flag string, src *Node) *Node {
	return &Node{Op: OpSetFlag, Flag: flag, Operands: []*Node{src}}
}

// Binary returns a two-operand expression node.
func Binary(op Op, a, b *Node) *Node { return &Node{Op: op, Operands: []*Node{a, b}} }

// Unary returns a one-operand expression node.
func Unary(op Op, a *Node) *Node { return &Node{Op: op, Operands: []*Node{a}} }

// If returns a conditional branch statement. True and false targets are
// expression nodes, normally OpConstPtr addresses.
func If(cond, ifTrue, ifFalse *Node) *Node {
	return &Node{Op: OpIf, Operands: []*Node{cond, ifTrue, ifFalse}}
}

// String renders the node in the conventional IL display notation,
// e.g. "x0 = x1 + 0x10" or "if (flag:z) then 0x400100 else 0x400104".
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Op {
	case OpNop:
		return "nop"
	case OpSetReg:
		return fmt.Sprintf("%s = %s", n.Reg, n.op(0))
	case OpSetFlag:
		return fmt.Sprintf("flag:%s = %s", n.Flag, n.op(0))
	case OpStore:
		return fmt.Sprintf("[%s] = %s", n.op(0), n.op(1))
	case OpPush:
		return fmt.Sprintf("push(%s)", n.op(0))
	case OpPop:
		return "pop()"
	case OpJump:
		return fmt.Sprintf("jump(%s)", n.op(0))
	case OpCall:
		return fmt.Sprintf("call(%s)", n.op(0))
	case OpRet:
		return "ret"
	case OpIf:
		return fmt.Sprintf("if (%s) then %s else %s", n.op(0), n.op(1), n.op(2))
	case OpGoto:
		return fmt.Sprintf("goto %s", n.op(0))
	case OpSyscall:
		return "syscall"
	case OpBreakpoint:
		return "breakpoint"
	case OpTrap:
		return fmt.Sprintf("trap(%s)", n.op(0))
	case OpIntrinsic:
		return fmt.Sprintf("intrinsic(%s)", n.Reg)
	case OpUndefined:
		return "undefined"
	case OpUnimplemented:
		return "unimplemented"
	case OpReg:
		return n.Reg
	case OpFlag:
		return "flag:" + n.Flag
	case OpConst, OpConstPtr:
		return fmt.Sprintf("%#x", n.Value)
	case OpLoad:
		return fmt.Sprintf("[%s]", n.op(0))
	case OpNeg:
		return fmt.Sprintf("-%s", n.op(0))
	case OpNot:
		return fmt.Sprintf("~%s", n.op(0))
	case OpSignExtend:
		return fmt.Sprintf("sx(%s)", n.op(0))
	case OpZeroExtend:
		return fmt.Sprintf("zx(%s)", n.op(0))
	case OpLowPart:
		return fmt.Sprintf("low(%s)", n.op(0))
	case OpBoolToInt:
		return fmt.Sprintf("int(%s)", n.op(0))
	}
	if n.Op.IsComparison() || n.Op.IsArithmetic() {
		if len(n.Operands) == 2 {
			return fmt.Sprintf("%s %s %s", n.op(0), opSymbol(n.Op), n.op(1))
		}
	}
	var parts []string
	for _, o := range n.Operands {
		parts = append(parts, o.String())
	}
	return fmt.Sprintf("%s(%s)", n.Op, strings.Join(parts, ", "))
}

func (n *Node) op(i int) string {
	if i >= len(n.Operands) {
		return "?"
	}
	return n.Operands[i].String()
}

func opSymbol(op Op) string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDivU:
		return "u/"
	case OpDivS:
		return "s/"
	case OpAnd:
		return "&"
	case OpOr:
		return "|"
	case OpXor:
		return "^"
	case OpShiftLeft:
		return "<<"
	case OpShiftRight:
		return ">>"
	case OpArithShiftRight:
		return "s>>"
	case OpRotateLeft:
		return "rol"
	case OpRotateRight:
		return "ror"
	}
	return op.String()
}

// Walk visits n and every descendant in depth-first order.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, o := range n.Operands {
		Walk(o, fn)
	}
}

// FlagsRead collects flag names referenced anywhere inside n, in first
// occurrence order.
func FlagsRead(n *Node) []string {
	var out []string
	seen := map[string]bool{}
	Walk(n, func(c *Node) {
		if c.Op == OpFlag && !seen[c.Flag] {
			seen[c.Flag] = true
			out = append(out, c.Flag)
		}
	})
	return out
}

// FlagsWritten collects flag names assigned by n.
func FlagsWritten(n *Node) []string {
	var out []string
	seen := map[string]bool{}
	Walk(n, func(c *Node) {
		if c.Op == OpSetFlag && !seen[c.Flag] {
			seen[c.Flag] = true
			out = append(out, c.Flag)
		}
	})
	return out
}
