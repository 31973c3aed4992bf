package binview

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"

	"explain/internal/il"
)

// arm64Lifter lifts AArch64 instructions. Coverage targets the data
// movement, arithmetic, compare, and branch forms that dominate
// compiler output; everything else lifts to an unimplemented node that
// the explainer handles with its fallback rule.
type arm64Lifter struct{}

func (arm64Lifter) decode(data []byte, pc uint64) (Instruction, il.Sequence, error) {
	if len(data) < 4 {
		return Instruction{}, nil, fmt.Errorf("short read at %#x", pc)
	}
	inst, err := arm64asm.Decode(data[:4])
	if err != nil {
		return Instruction{}, nil, err
	}
	text := strings.ToLower(arm64asm.GNUSyntax(inst))
	mnemonic := text
	if i := strings.IndexByte(text, ' '); i > 0 {
		mnemonic = text[:i]
	}
	out := Instruction{
		Address:  pc,
		Text:     text,
		Mnemonic: mnemonic,
		Bytes:    append([]byte(nil), data[:4]...),
		Length:   4,
	}
	return out, liftARM64(inst, pc), nil
}

func liftARM64(inst arm64asm.Inst, pc uint64) il.Sequence {
	arg := func(i int) *il.Node { return arm64Arg(inst.Args[i], pc) }
	next := il.ConstPtr(pc + 4)

	switch inst.Op {
	case arm64asm.NOP:
		return il.Sequence{&il.Node{Op: il.OpNop}}
	case arm64asm.MOV, arm64asm.MOVZ, arm64asm.MOVK, arm64asm.MOVN:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), arg(1))}
	case arm64asm.MVN:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Unary(il.OpNot, arg(1)))}
	case arm64asm.NEG:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Unary(il.OpNeg, arg(1)))}
	case arm64asm.ADD:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpAdd, arg(1), arg(2)))}
	case arm64asm.SUB:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpSub, arg(1), arg(2)))}
	case arm64asm.AND:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpAnd, arg(1), arg(2)))}
	case arm64asm.ORR:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpOr, arg(1), arg(2)))}
	case arm64asm.EOR:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpXor, arg(1), arg(2)))}
	case arm64asm.MUL:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpMul, arg(1), arg(2)))}
	case arm64asm.SDIV:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpDivS, arg(1), arg(2)))}
	case arm64asm.UDIV:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpDivU, arg(1), arg(2)))}
	case arm64asm.LSL:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpShiftLeft, arg(1), arg(2)))}
	case arm64asm.LSR:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpShiftRight, arg(1), arg(2)))}
	case arm64asm.ASR:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Binary(il.OpArithShiftRight, arg(1), arg(2)))}
	case arm64asm.ADDS:
		res := il.Binary(il.OpAdd, arg(1), arg(2))
		return append(il.Sequence{il.SetReg(regName(inst.Args[0]), res)}, compareFlags(arg(1), il.Unary(il.OpNeg, arg(2)))...)
	case arm64asm.SUBS:
		res := il.Binary(il.OpSub, arg(1), arg(2))
		return append(il.Sequence{il.SetReg(regName(inst.Args[0]), res)}, compareFlags(arg(1), arg(2))...)
	case arm64asm.ANDS:
		res := il.Binary(il.OpAnd, arg(1), arg(2))
		return il.Sequence{
			il.SetReg(regName(inst.Args[0]), res),
			il.SetFlag("z", il.Binary(il.OpCmpEq, res, il.Const(0, 0))),
			il.SetFlag("n", il.Binary(il.OpCmpSlt, res, il.Const(0, 0))),
		}
	case arm64asm.CMP:
		return compareFlags(arg(0), arg(1))
	case arm64asm.CMN:
		return compareFlags(arg(0), il.Unary(il.OpNeg, arg(1)))
	case arm64asm.TST:
		res := il.Binary(il.OpAnd, arg(0), arg(1))
		return il.Sequence{
			il.SetFlag("z", il.Binary(il.OpCmpEq, res, il.Const(0, 0))),
			il.SetFlag("n", il.Binary(il.OpCmpSlt, res, il.Const(0, 0))),
		}
	case arm64asm.LDR, arm64asm.LDRB, arm64asm.LDRH, arm64asm.LDRSB, arm64asm.LDRSH, arm64asm.LDRSW, arm64asm.LDUR:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), il.Unary(il.OpLoad, arg(1)))}
	case arm64asm.STR, arm64asm.STRB, arm64asm.STRH, arm64asm.STUR:
		return il.Sequence{&il.Node{Op: il.OpStore, Operands: []*il.Node{memAddrARM64(inst.Args[1], pc), arg(0)}}}
	case arm64asm.LDP:
		addr := memAddrARM64(inst.Args[2], pc)
		return il.Sequence{
			il.SetReg(regName(inst.Args[0]), il.Unary(il.OpLoad, addr)),
			il.SetReg(regName(inst.Args[1]), il.Unary(il.OpLoad, il.Binary(il.OpAdd, addr, il.Const(8, 0)))),
		}
	case arm64asm.STP:
		addr := memAddrARM64(inst.Args[2], pc)
		return il.Sequence{
			&il.Node{Op: il.OpStore, Operands: []*il.Node{addr, arg(0)}},
			&il.Node{Op: il.OpStore, Operands: []*il.Node{il.Binary(il.OpAdd, addr, il.Const(8, 0)), arg(1)}},
		}
	case arm64asm.ADR, arm64asm.ADRP:
		return il.Sequence{il.SetReg(regName(inst.Args[0]), arg(1))}
	case arm64asm.B:
		if c, ok := inst.Args[0].(arm64asm.Cond); ok {
			return il.Sequence{il.If(arm64Cond(c), arm64Arg(inst.Args[1], pc), next)}
		}
		return il.Sequence{&il.Node{Op: il.OpJump, Operands: []*il.Node{arg(0)}}}
	case arm64asm.BR:
		return il.Sequence{&il.Node{Op: il.OpJump, Operands: []*il.Node{arg(0)}}}
	case arm64asm.BL, arm64asm.BLR:
		return il.Sequence{&il.Node{Op: il.OpCall, Operands: []*il.Node{arg(0)}}}
	case arm64asm.RET:
		return il.Sequence{&il.Node{Op: il.OpRet}}
	case arm64asm.CBZ:
		return il.Sequence{
			il.SetFlag("z", il.Binary(il.OpCmpEq, arg(0), il.Const(0, 0))),
			il.If(il.Flag("z"), arg(1), next),
		}
	case arm64asm.CBNZ:
		return il.Sequence{
			il.SetFlag("z", il.Binary(il.OpCmpEq, arg(0), il.Const(0, 0))),
			il.If(il.Unary(il.OpNot, il.Flag("z")), arg(1), next),
		}
	case arm64asm.TBZ, arm64asm.TBNZ:
		bit := arg(1)
		test := il.Binary(il.OpAnd, arg(0), il.Binary(il.OpShiftLeft, il.Const(1, 0), bit))
		cond := il.Binary(il.OpCmpEq, test, il.Const(0, 0))
		if inst.Op == arm64asm.TBNZ {
			cond = il.Binary(il.OpCmpNe, test, il.Const(0, 0))
		}
		return il.Sequence{il.If(cond, arm64Arg(inst.Args[2], pc), next)}
	case arm64asm.SVC:
		return il.Sequence{&il.Node{Op: il.OpSyscall}}
	case arm64asm.BRK:
		return il.Sequence{&il.Node{Op: il.OpBreakpoint}}
	}
	return il.Sequence{&il.Node{Op: il.OpUnimplemented, Reg: strings.ToLower(inst.Op.String())}}
}

// compareFlags models the NZCV effect of comparing a with b, expressed
// directly over the operands so explanations can name them.
func compareFlags(a, b *il.Node) il.Sequence {
	return il.Sequence{
		il.SetFlag("z", il.Binary(il.OpCmpEq, a, b)),
		il.SetFlag("n", il.Binary(il.OpCmpSlt, a, b)),
		il.SetFlag("c", il.Binary(il.OpCmpUge, a, b)),
	}
}

// arm64Cond translates a condition code into a flag expression
// consistent with compareFlags above.
func arm64Cond(c arm64asm.Cond) *il.Node {
	z, n, cf := il.Flag("z"), il.Flag("n"), il.Flag("c")
	switch strings.ToUpper(c.String()) {
	case "EQ":
		return z
	case "NE":
		return il.Unary(il.OpNot, z)
	case "HS", "CS":
		return cf
	case "LO", "CC":
		return il.Unary(il.OpNot, cf)
	case "MI":
		return n
	case "PL":
		return il.Unary(il.OpNot, n)
	case "HI":
		return il.Binary(il.OpAnd, cf, il.Unary(il.OpNot, z))
	case "LS":
		return il.Binary(il.OpOr, il.Unary(il.OpNot, cf), z)
	case "GE":
		return il.Unary(il.OpNot, n)
	case "LT":
		return n
	case "GT":
		return il.Binary(il.OpAnd, il.Unary(il.OpNot, z), il.Unary(il.OpNot, n))
	case "LE":
		return il.Binary(il.OpOr, z, n)
	}
	return il.Const(1, 0) // AL and NV execute unconditionally
}

func regName(a arm64asm.Arg) string {
	return strings.ToLower(strings.TrimSuffix(fmt.Sprint(a), "!"))
}

func arm64Arg(a arm64asm.Arg, pc uint64) *il.Node {
	switch v := a.(type) {
	case arm64asm.Reg:
		return il.Reg(strings.ToLower(v.String()), regWidth(v.String()))
	case arm64asm.RegSP:
		return il.Reg(strings.ToLower(arm64asm.Reg(v).String()), 8)
	case arm64asm.Imm:
		return il.Const(uint64(v.Imm), 0)
	case arm64asm.Imm64:
		return il.Const(uint64(v.Imm), 0)
	case arm64asm.PCRel:
		return il.ConstPtr(pc + uint64(int64(v)))
	case arm64asm.MemImmediate:
		return il.Unary(il.OpLoad, memAddrARM64(a, pc))
	case arm64asm.ImmShift:
		if n, ok := parseImmText(v.String()); ok {
			return il.Const(n, 0)
		}
	}
	return il.Reg(strings.ToLower(fmt.Sprint(a)), 0)
}

// memAddrARM64 recovers base+offset from the operand's display form,
// e.g. "[X0]", "[X29,#-8]". The displacement field is not exported by
// the decoder, so the text is authoritative.
func memAddrARM64(a arm64asm.Arg, pc uint64) *il.Node {
	s := strings.Trim(fmt.Sprint(a), "[]!")
	parts := strings.Split(s, ",")
	base := il.Reg(strings.ToLower(strings.TrimSpace(parts[0])), 8)
	if len(parts) == 1 {
		return base
	}
	off := strings.TrimSpace(parts[1])
	if n, ok := parseImmText(off); ok {
		if int64(n) < 0 {
			return il.Binary(il.OpSub, base, il.Const(uint64(-int64(n)), 0))
		}
		return il.Binary(il.OpAdd, base, il.Const(n, 0))
	}
	return il.Binary(il.OpAdd, base, il.Reg(strings.ToLower(off), 8))
}

func parseImmText(s string) (uint64, bool) {
	s = strings.TrimPrefix(s, "#")
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var n uint64
	var err error
	if strings.HasPrefix(s, "0x") {
		n, err = strconv.ParseUint(s[2:], 16, 64)
	} else {
		n, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		return uint64(-int64(n)), true
	}
	return n, true
}

func regWidth(name string) int {
	if strings.HasPrefix(name, "W") || strings.HasPrefix(name, "w") {
		return 4
	}
	return 8
}
