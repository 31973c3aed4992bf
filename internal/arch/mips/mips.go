// Package mips supplies canned explanations and documentation links
// for MIPS instructions.
package mips

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

var canned = map[string]entry{
	"syscall": {true, []string{
		"Issues a system call; the call number is in v0 and arguments in a0 through a3",
	}},
	"break": {true, []string{
		"Triggers a breakpoint exception",
	}},
	"nop": {true, []string{
		"Does nothing (encoded as sll zero, zero, 0)",
	}},
	"lui": {false, []string{
		"Loads the immediate into the upper half of the register; a following ori or addiu usually supplies the lower half",
	}},
	"jalr": {false, []string{
		"The return address is stored in ra before the jump",
	}},
	"jal": {false, []string{
		"The return address is stored in ra before the jump",
	}},
	"mfhi": {true, []string{
		"Moves the high half of the last multiply or divide result into the register",
	}},
	"mflo": {true, []string{
		"Moves the low half of the last multiply or divide result into the register",
	}},
	"sync": {true, []string{
		"Memory barrier: completes all prior loads and stores before any later ones",
	}},
}

// branchOps get a delay-slot note: the instruction after a MIPS branch
// executes regardless of the branch outcome.
var branchOps = map[string]bool{
	"b": true, "beq": true, "bne": true, "beqz": true, "bnez": true,
	"bgez": true, "bgtz": true, "blez": true, "bltz": true,
	"j": true, "jr": true, "jal": true, "jalr": true,
}

type Module struct{}

func (Module) Name() string { return "mips" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	mnem := strings.ToLower(instr.Mnemonic)
	var lines []string
	supersede := false
	if e, ok := canned[mnem]; ok {
		supersede = e.supersede
		lines = append(lines, e.lines...)
	}
	if branchOps[mnem] {
		lines = append(lines, "The next instruction sits in the branch delay slot and executes whether or not the branch is taken")
	}
	return supersede, lines
}

func (Module) DocURL(instr binview.Instruction) string {
	return fmt.Sprintf("https://www.mips.com/search/?q=%s", strings.ToUpper(instr.Mnemonic))
}
