// Package msp430 supplies canned explanations and documentation links
// for MSP430 instructions.
package msp430

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
	"dint": {true, []string{
		"Disables maskable interrupts by clearing the GIE bit in the status register",
	}},
	"eint": {true, []string{
		"Enables maskable interrupts by setting the GIE bit in the status register",
	}},
	"reti": {true, []string{
		"Returns from an interrupt: pops the status register and program counter",
	}},
	"nop": {true, []string{
		"Does nothing",
	}},
	"ret": {true, []string{
		"Returns from a subroutine: pops the program counter (emulated as mov @sp+, pc)",
	}},
	"call": {false, []string{
		"Pushes the return address onto the stack before the jump",
	}},
	"swpb": {true, []string{
		"Swaps the high and low bytes of the operand",
	}},
	"sxt": {true, []string{
		"Sign-extends the low byte of the operand to a full word",
	}},
}

type Module struct{}

func (Module) Name() string { return "msp430" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	mnem := strings.ToLower(strings.TrimSuffix(strings.ToLower(instr.Mnemonic), ".w"))
	if e, ok := canned[mnem]; ok {
		return e.supersede, append([]string(nil), e.lines...)
	}
	// Writes into the status register usually toggle the low-power
	// mode bits; that is invisible in the generic IL.
	if strings.Contains(strings.ToLower(instr.Text), "sr") && (mnem == "bis" || mnem == "bic") {
		return false, []string{"Status-register bit operations like this commonly enter or leave a low-power mode"}
	}
	return false, nil
}

func (Module) DocURL(instr binview.Instruction) string {
	return fmt.Sprintf("https://www.ti.com/lit/ug/slau144j/slau144j.pdf#%s", strings.ToUpper(instr.Mnemonic))
}
