package binview

import (
	"fmt"
	"strings"

	"golang.org/x/arch/x86/x86asm"

	"explain/internal/il"
)

// x86Lifter lifts x86 and x86-64 instructions. As with arm64, coverage
// follows the common compiler-emitted subset; other instructions lift
// to an unimplemented node.
type x86Lifter struct {
	mode int // 32 or 64
}

func (l x86Lifter) decode(data []byte, pc uint64) (Instruction, il.Sequence, error) {
	inst, err := x86asm.Decode(data, l.mode)
	if err != nil {
		return Instruction{}, nil, err
	}
	text := strings.ToLower(x86asm.IntelSyntax(inst, pc, nil))
	out := Instruction{
		Address:  pc,
		Text:     text,
		Mnemonic: x86Mnemonic(text),
		Bytes:    append([]byte(nil), data[:inst.Len]...),
		Length:   inst.Len,
	}
	return out, liftX86(inst, pc), nil
}

// x86Mnemonic extracts the mnemonic from formatted disassembly. A
// rep or lock prefix belongs to the mnemonic: "rep stosq" names one
// string operation, not a "rep" instruction.
func x86Mnemonic(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return text
	}
	switch fields[0] {
	case "rep", "repe", "repz", "repne", "repnz", "lock":
		if len(fields) > 1 {
			return fields[0] + " " + fields[1]
		}
	}
	return fields[0]
}

func liftX86(inst x86asm.Inst, pc uint64) il.Sequence {
	next := pc + uint64(inst.Len)
	arg := func(i int) *il.Node { return x86Arg(inst.Args[i], inst, pc) }
	binOp := func(op il.Op) il.Sequence {
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Binary(op, arg(0), arg(1)))}
	}

	switch inst.Op {
	case x86asm.NOP:
		return il.Sequence{&il.Node{Op: il.OpNop}}
	case x86asm.MOV:
		if m, ok := inst.Args[0].(x86asm.Mem); ok {
			return il.Sequence{&il.Node{Op: il.OpStore, Operands: []*il.Node{x86MemAddr(m), arg(1)}}}
		}
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), arg(1))}
	case x86asm.LEA:
		if m, ok := inst.Args[1].(x86asm.Mem); ok {
			return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), x86MemAddr(m))}
		}
	case x86asm.MOVZX:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Unary(il.OpZeroExtend, arg(1)))}
	case x86asm.MOVSX, x86asm.MOVSXD:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Unary(il.OpSignExtend, arg(1)))}
	case x86asm.ADD:
		return binOp(il.OpAdd)
	case x86asm.SUB:
		return binOp(il.OpSub)
	case x86asm.AND:
		return binOp(il.OpAnd)
	case x86asm.OR:
		return binOp(il.OpOr)
	case x86asm.XOR:
		return binOp(il.OpXor)
	case x86asm.SHL:
		return binOp(il.OpShiftLeft)
	case x86asm.SHR:
		return binOp(il.OpShiftRight)
	case x86asm.SAR:
		return binOp(il.OpArithShiftRight)
	case x86asm.ROL:
		return binOp(il.OpRotateLeft)
	case x86asm.ROR:
		return binOp(il.OpRotateRight)
	case x86asm.INC:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Binary(il.OpAdd, arg(0), il.Const(1, 0)))}
	case x86asm.DEC:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Binary(il.OpSub, arg(0), il.Const(1, 0)))}
	case x86asm.NEG:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Unary(il.OpNeg, arg(0)))}
	case x86asm.NOT:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Unary(il.OpNot, arg(0)))}
	case x86asm.IMUL:
		if inst.Args[1] != nil {
			return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), il.Binary(il.OpMul, arg(0), arg(1)))}
		}
	case x86asm.CMP:
		return compareFlags(arg(0), arg(1))
	case x86asm.TEST:
		res := il.Binary(il.OpAnd, arg(0), arg(1))
		return il.Sequence{
			il.SetFlag("z", il.Binary(il.OpCmpEq, res, il.Const(0, 0))),
			il.SetFlag("n", il.Binary(il.OpCmpSlt, res, il.Const(0, 0))),
		}
	case x86asm.PUSH:
		return il.Sequence{&il.Node{Op: il.OpPush, Operands: []*il.Node{arg(0)}}}
	case x86asm.POP:
		return il.Sequence{il.SetReg(x86Dest(inst.Args[0]), &il.Node{Op: il.OpPop})}
	case x86asm.JMP:
		return il.Sequence{&il.Node{Op: il.OpJump, Operands: []*il.Node{arg(0)}}}
	case x86asm.CALL:
		return il.Sequence{&il.Node{Op: il.OpCall, Operands: []*il.Node{arg(0)}}}
	case x86asm.RET:
		return il.Sequence{&il.Node{Op: il.OpRet}}
	case x86asm.SYSCALL:
		return il.Sequence{&il.Node{Op: il.OpSyscall}}
	case x86asm.INT:
		return il.Sequence{&il.Node{Op: il.OpTrap, Operands: []*il.Node{arg(0)}}}
	case x86asm.LEAVE:
		return il.Sequence{
			il.SetReg("rsp", il.Reg("rbp", 8)),
			il.SetReg("rbp", &il.Node{Op: il.OpPop}),
		}
	case x86asm.CDQ, x86asm.CDQE, x86asm.CQO:
		return il.Sequence{&il.Node{Op: il.OpIntrinsic, Reg: strings.ToLower(inst.Op.String())}}
	}
	if cond := x86Cond(inst.Op); cond != nil {
		return il.Sequence{il.If(cond, arg(0), il.ConstPtr(next))}
	}
	return il.Sequence{&il.Node{Op: il.OpUnimplemented, Reg: strings.ToLower(inst.Op.String())}}
}

// x86Cond maps a conditional jump op to a flag expression consistent
// with compareFlags.
func x86Cond(op x86asm.Op) *il.Node {
	z, n, c := il.Flag("z"), il.Flag("n"), il.Flag("c")
	switch op {
	case x86asm.JE:
		return z
	case x86asm.JNE:
		return il.Unary(il.OpNot, z)
	case x86asm.JS:
		return n
	case x86asm.JNS:
		return il.Unary(il.OpNot, n)
	case x86asm.JB:
		return c
	case x86asm.JAE:
		return il.Unary(il.OpNot, c)
	case x86asm.JBE:
		return il.Binary(il.OpOr, c, z)
	case x86asm.JA:
		return il.Binary(il.OpAnd, il.Unary(il.OpNot, c), il.Unary(il.OpNot, z))
	case x86asm.JL:
		return n
	case x86asm.JGE:
		return il.Unary(il.OpNot, n)
	case x86asm.JLE:
		return il.Binary(il.OpOr, z, n)
	case x86asm.JG:
		return il.Binary(il.OpAnd, il.Unary(il.OpNot, z), il.Unary(il.OpNot, n))
	case x86asm.JO:
		return il.Flag("o")
	case x86asm.JNO:
		return il.Unary(il.OpNot, il.Flag("o"))
	case x86asm.JP:
		return il.Flag("p")
	case x86asm.JNP:
		return il.Unary(il.OpNot, il.Flag("p"))
	}
	return nil
}

func x86Dest(a x86asm.Arg) string {
	return strings.ToLower(fmt.Sprint(a))
}

func x86Arg(a x86asm.Arg, inst x86asm.Inst, pc uint64) *il.Node {
	switch v := a.(type) {
	case x86asm.Reg:
		return il.Reg(strings.ToLower(v.String()), 0)
	case x86asm.Imm:
		return il.Const(uint64(v), 0)
	case x86asm.Rel:
		return il.ConstPtr(pc + uint64(inst.Len) + uint64(int64(v)))
	case x86asm.Mem:
		return il.Unary(il.OpLoad, x86MemAddr(v))
	}
	return il.Reg(strings.ToLower(fmt.Sprint(a)), 0)
}

// x86MemAddr builds the effective address expression for a memory
// operand: base + index*scale + displacement.
func x86MemAddr(m x86asm.Mem) *il.Node {
	var addr *il.Node
	if m.Base != 0 {
		addr = il.Reg(strings.ToLower(m.Base.String()), 0)
	}
	if m.Index != 0 {
		idx := il.Reg(strings.ToLower(m.Index.String()), 0)
		if m.Scale > 1 {
			idx = il.Binary(il.OpMul, idx, il.Const(uint64(m.Scale), 0))
		}
		if addr == nil {
			addr = idx
		} else {
			addr = il.Binary(il.OpAdd, addr, idx)
		}
	}
	if m.Disp != 0 || addr == nil {
		disp := il.Const(uint64(m.Disp), 0)
		if m.Disp < 0 && addr != nil {
			addr = il.Binary(il.OpSub, addr, il.Const(uint64(-m.Disp), 0))
		} else if addr == nil {
			addr = disp
		} else {
			addr = il.Binary(il.OpAdd, addr, disp)
		}
	}
	return addr
}
