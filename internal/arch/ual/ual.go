// Package ual supplies canned explanations and documentation links for
// 32-bit ARM and Thumb instructions in unified assembler language.
package ual

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
	"svc": {true, []string{
		"Issues a supervisor call, trapping into the kernel; the call number is in r7 on Linux",
	}},
	"swi": {true, []string{
		"Issues a software interrupt, the pre-UAL name for a supervisor call",
	}},
	"bkpt": {true, []string{
		"Triggers a software breakpoint exception",
	}},
	"bx": {true, []string{
		"Branches to the address in the register, switching between ARM and Thumb state if the low bit differs",
	}},
	"blx": {true, []string{
		"Branches with link to the target, switching between ARM and Thumb state as needed",
	}},
	"cps": {true, []string{
		"Changes the processor state, enabling or disabling interrupts (privileged)",
	}},
	"dmb": {true, []string{
		"Data memory barrier: orders memory accesses before and after it",
	}},
	"dsb": {true, []string{
		"Data synchronization barrier: waits for all prior memory accesses to complete",
	}},
	"isb": {true, []string{
		"Instruction synchronization barrier: flushes the pipeline",
	}},
	"udf": {true, []string{
		"Permanently undefined instruction; raises an undefined-instruction exception",
	}},
	"nop": {true, []string{
		"Does nothing",
	}},
	"it": {true, []string{
		"Makes up to four following Thumb instructions conditional (an if-then block)",
	}},
}

type Module struct{}

func (Module) Name() string { return "arm" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	mnem := strings.ToLower(instr.Mnemonic)
	if mnem == "bx" && strings.Contains(strings.ToLower(instr.Text), "lr") {
		return true, []string{"Returns to the calling function (branch to the link register)"}
	}
	if e, ok := canned[mnem]; ok {
		return e.supersede, append([]string(nil), e.lines...)
	}
	switch {
	case mnem == "push" || strings.HasPrefix(mnem, "stmdb"):
		return false, []string{"Stores the listed registers onto the stack, lowest-numbered register at the lowest address"}
	case mnem == "pop" || strings.HasPrefix(mnem, "ldmia"):
		return false, []string{"Loads the listed registers from the stack; a pop into pc returns from the function"}
	}
	return false, nil
}

func (Module) DocURL(instr binview.Instruction) string {
	return fmt.Sprintf("https://developer.arm.com/search#q=%s", strings.ToUpper(instr.Mnemonic))
}
