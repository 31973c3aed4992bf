// Package aarch64 supplies canned explanations and documentation links
// for AArch64 instructions.
package aarch64

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
		"Issues a supervisor call, trapping into the kernel; the call number is in x8 on Linux",
	}},
	"brk": {true, []string{
		"Triggers a software breakpoint exception",
	}},
	"mrs": {true, []string{
		"Reads a system register into a general-purpose register",
	}},
	"msr": {true, []string{
		"Writes a general-purpose register or immediate into a system register",
	}},
	"dmb": {true, []string{
		"Data memory barrier: orders memory accesses before and after it",
	}},
	"dsb": {true, []string{
		"Data synchronization barrier: waits for all prior memory accesses to complete",
	}},
	"isb": {true, []string{
		"Instruction synchronization barrier: flushes the pipeline so later instructions see prior context changes",
	}},
	"ldxr": {true, []string{
		"Load-exclusive: reads memory and marks the address for an exclusive store, the first half of an atomic read-modify-write",
	}},
	"stxr": {true, []string{
		"Store-exclusive: writes memory only if the exclusive mark from the paired load-exclusive still holds; the status register reports failure",
	}},
	"ldar": {true, []string{
		"Load with acquire ordering: later memory accesses cannot be reordered before it",
	}},
	"stlr": {true, []string{
		"Store with release ordering: earlier memory accesses cannot be reordered after it",
	}},
	"ret": {false, []string{
		"Branches to the address in the link register",
	}},
	"adrp": {false, []string{
		"Computes the 4KB page base of a PC-relative address; a following add or load supplies the low bits",
	}},
	"nop": {true, []string{
		"Does nothing",
	}},
	"yield": {true, []string{
		"Hints that the thread is busy-waiting, letting the processor favor other threads",
	}},
	"wfi": {true, []string{
		"Waits for an interrupt in a low-power state (privileged)",
	}},
	"wfe": {true, []string{
		"Waits for an event in a low-power state",
	}},
	"pacia": {true, []string{
		"Signs the pointer with a pointer-authentication code using key A",
	}},
	"autia": {true, []string{
		"Authenticates the pointer's pointer-authentication code using key A; corrupt pointers fault on use",
	}},
	"paciasp": {true, []string{
		"Signs the link register against the stack pointer, protecting the return address",
	}},
	"autiasp": {true, []string{
		"Authenticates the link register against the stack pointer before returning",
	}},
}

type Module struct{}

func (Module) Name() string { return "aarch64" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	mnem := strings.ToLower(instr.Mnemonic)
	if e, ok := canned[mnem]; ok {
		return e.supersede, append([]string(nil), e.lines...)
	}
	// Compare-and-branch forms read better with a note about the
	// implicit comparison against zero.
	switch mnem {
	case "cbz", "cbnz":
		return false, []string{"Compares the register against zero and branches on the outcome in a single instruction"}
	case "tbz", "tbnz":
		return false, []string{"Tests a single bit of the register and branches on the outcome in a single instruction"}
	}
	return false, nil
}

func (Module) DocURL(instr binview.Instruction) string {
	return fmt.Sprintf("https://developer.arm.com/search#q=%s", strings.ToUpper(instr.Mnemonic))
}
