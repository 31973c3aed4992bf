// Package x86 supplies canned explanations and documentation links for
// x86 and x86-64 instructions.
package x86

import (
	"fmt"
	"strings"

	"explain/internal/binview"
	"explain/internal/il"
)

type entry struct {
	supersede bool
	lines     []string
}

// canned covers instructions whose IL lowering is too generic or too
// verbose to read well: string operations, serializing instructions,
// atomics, and privileged forms.
var canned = map[string]entry{
	"cpuid": {true, []string{
		"Queries the processor for identification and feature information",
		"Results are returned in eax, ebx, ecx, and edx, selected by the leaf number in eax",
	}},
	"cmpxchg": {true, []string{
		"Performs an atomic compare-and-swap: compares the accumulator with the destination operand and, if equal, stores the source operand there",
		"The zero flag reports whether the exchange happened",
	}},
	"xchg": {true, []string{
		"Atomically exchanges the contents of the two operands",
	}},
	"rdtsc": {true, []string{
		"Reads the processor's time-stamp counter into edx:eax",
	}},
	"pause": {true, []string{
		"Hints to the processor that this is a spin-wait loop, reducing power and improving exit latency",
	}},
	"hlt": {true, []string{
		"Halts the processor until the next external interrupt (privileged)",
	}},
	"ud2": {true, []string{
		"Raises an invalid-opcode exception; compilers emit this to trap unreachable code",
	}},
	"int3": {true, []string{
		"Triggers a software breakpoint trap, usually planted by a debugger",
	}},
	"syscall": {true, []string{
		"Enters the kernel through the fast system call gate; the call number is in rax",
	}},
	"sysenter": {true, []string{
		"Enters the kernel through the legacy fast system call gate",
	}},
	"endbr64": {true, []string{
		"Marks a valid indirect branch target for control-flow enforcement; otherwise behaves as a no-op",
	}},
	"endbr32": {true, []string{
		"Marks a valid indirect branch target for control-flow enforcement; otherwise behaves as a no-op",
	}},
	"cdq": {true, []string{
		"Sign-extends eax into edx:eax",
	}},
	"cdqe": {true, []string{
		"Sign-extends eax into rax",
	}},
	"cqo": {true, []string{
		"Sign-extends rax into rdx:rax",
	}},
	"leave": {false, []string{
		"Tears down the current stack frame",
	}},
	"nop": {true, []string{
		"Does nothing",
	}},
	"mfence": {true, []string{
		"Serializes all prior loads and stores before any later memory operation",
	}},
	"lfence": {true, []string{
		"Serializes all prior loads before any later load",
	}},
	"sfence": {true, []string{
		"Serializes all prior stores before any later store",
	}},
}

// stringOps explains the rep-prefixed string instruction family by the
// base mnemonic after the prefix is stripped.
var stringOps = map[string]string{
	"movs": "Copies a block of memory from the address in the source index register to the address in the destination index register",
	"stos": "Fills memory at the destination index register with the value in the accumulator",
	"lods": "Loads successive elements from the address in the source index register into the accumulator",
	"scas": "Scans memory at the destination index register for the value in the accumulator",
	"cmps": "Compares memory blocks at the source and destination index registers element by element",
}

// stringOpBase maps an exact string-operation mnemonic, bare or with
// its b/w/d/q size suffix, to its stringOps key. Exact matching keeps
// movsx/movsxd (sign extension) and the SSE movss/movsd/cmpss/cmpsd
// forms out; the xmm check catches the SSE movsd/cmpsd spellings that
// collide with the sized string forms.
func stringOpBase(mnem, text string) (string, bool) {
	if strings.Contains(strings.ToLower(text), "xmm") {
		return "", false
	}
	for _, base := range [...]string{"movs", "stos", "lods", "scas", "cmps"} {
		if mnem == base {
			return base, true
		}
		if len(mnem) == len(base)+1 && strings.HasPrefix(mnem, base) {
			switch mnem[len(base)] {
			case 'b', 'w', 'd', 'q':
				return base, true
			}
		}
	}
	return "", false
}

type Module struct{}

func (Module) Name() string { return "x86" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	mnem := strings.ToLower(instr.Mnemonic)

	if strings.HasPrefix(mnem, "rep") {
		base := strings.TrimLeft(strings.TrimPrefix(strings.TrimPrefix(mnem, "repne"), "rep"), "e ")
		if op, ok := stringOpBase(base, instr.Text); ok {
			lines := []string{stringOps[op], "The count register gives the element count; the repeat prefix loops until it reaches zero"}
			if strings.HasPrefix(mnem, "repne") {
				lines[1] = "The count register gives the element count; repetition also stops when the zero flag is set"
			}
			return true, lines
		}
	}
	if op, ok := stringOpBase(mnem, instr.Text); ok {
		return true, []string{stringOps[op] + " (single element)"}
	}

	if strings.HasPrefix(mnem, "lock") {
		rest := strings.TrimSpace(strings.TrimPrefix(mnem, "lock"))
		lines := []string{"The lock prefix makes the memory operation atomic with respect to other processors"}
		if e, ok := canned[rest]; ok {
			return e.supersede, append(lines, e.lines...)
		}
		return false, lines
	}

	// xor reg, reg is the idiomatic register zeroing.
	if mnem == "xor" && len(lifted) > 0 {
		if z := zeroedRegister(lifted[0]); z != "" {
			return true, []string{fmt.Sprintf("Sets register %s to zero (exclusive-or of a register with itself)", z)}
		}
	}

	if e, ok := canned[mnem]; ok && len(e.lines) > 0 {
		return e.supersede, append([]string(nil), e.lines...)
	}
	return false, nil
}

func zeroedRegister(stmt *il.Node) string {
	if stmt.Op != il.OpSetReg || len(stmt.Operands) != 1 {
		return ""
	}
	x := stmt.Operands[0]
	if x.Op != il.OpXor || len(x.Operands) != 2 {
		return ""
	}
	a, b := x.Operands[0], x.Operands[1]
	if a.Op == il.OpReg && b.Op == il.OpReg && a.Reg == b.Reg && a.Reg == stmt.Reg {
		return stmt.Reg
	}
	return ""
}

func (Module) DocURL(instr binview.Instruction) string {
	mnem := strings.ToLower(instr.Mnemonic)
	for _, p := range []string{"lock ", "repne ", "repe ", "rep "} {
		mnem = strings.TrimPrefix(mnem, p)
	}
	return fmt.Sprintf("https://www.felixcloutier.com/x86/%s", mnem)
}
