// Package asm6502 supplies canned explanations and documentation links
// for 6502 instructions.
package asm6502

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
	"brk": {true, []string{
		"Forces a software interrupt: pushes the program counter and status register, then jumps through the IRQ vector",
	}},
	"rti": {true, []string{
		"Returns from an interrupt: pulls the status register and program counter from the stack",
	}},
	"rts": {true, []string{
		"Returns from a subroutine: pulls the return address from the stack and resumes after the jsr",
	}},
	"jsr": {false, []string{
		"Pushes the return address onto the stack before jumping",
	}},
	"pha": {true, []string{
		"Pushes the accumulator onto the stack",
	}},
	"pla": {true, []string{
		"Pulls the top of the stack into the accumulator",
	}},
	"php": {true, []string{
		"Pushes the processor status register onto the stack",
	}},
	"plp": {true, []string{
		"Pulls the processor status register from the stack",
	}},
	"sei": {true, []string{
		"Sets the interrupt-disable flag, masking maskable interrupts",
	}},
	"cli": {true, []string{
		"Clears the interrupt-disable flag, allowing maskable interrupts",
	}},
	"sed": {true, []string{
		"Sets the decimal flag: adc and sbc operate in binary-coded decimal",
	}},
	"cld": {true, []string{
		"Clears the decimal flag: adc and sbc operate in binary",
	}},
	"sec": {true, []string{
		"Sets the carry flag, conventionally done before sbc",
	}},
	"clc": {true, []string{
		"Clears the carry flag, conventionally done before adc",
	}},
	"clv": {true, []string{
		"Clears the overflow flag",
	}},
	"nop": {true, []string{
		"Does nothing",
	}},
	"txs": {true, []string{
		"Copies the X register into the stack pointer",
	}},
	"tsx": {true, []string{
		"Copies the stack pointer into the X register",
	}},
}

type Module struct{}

func (Module) Name() string { return "6502" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	if e, ok := canned[strings.ToLower(instr.Mnemonic)]; ok {
		return e.supersede, append([]string(nil), e.lines...)
	}
	return false, nil
}

func (Module) DocURL(instr binview.Instruction) string {
	return fmt.Sprintf("https://www.masswerk.at/6502/6502_instruction_set.html#%s", strings.ToUpper(instr.Mnemonic))
}
