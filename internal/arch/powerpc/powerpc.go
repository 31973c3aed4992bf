// Package powerpc supplies canned explanations and documentation links
// for PowerPC instructions.
package powerpc

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
	"sc": {true, []string{
		"Issues a system call; the call number is in r0",
	}},
	"trap": {true, []string{
		"Unconditionally raises a trap exception",
	}},
	"sync": {true, []string{
		"Heavyweight memory barrier: all prior storage accesses complete before any later ones",
	}},
	"lwsync": {true, []string{
		"Lightweight memory barrier ordering cacheable loads and stores",
	}},
	"isync": {true, []string{
		"Instruction synchronization: discards prefetched instructions so later ones see prior context changes",
	}},
	"eieio": {true, []string{
		"Orders I/O and memory-mapped storage accesses (enforce in-order execution of I/O)",
	}},
	"lwarx": {true, []string{
		"Load-and-reserve: reads memory and places a reservation, the first half of an atomic read-modify-write",
	}},
	"stwcx.": {true, []string{
		"Store-conditional: writes memory only if the reservation from the paired lwarx still holds; CR0 reports the outcome",
	}},
	"mflr": {true, []string{
		"Copies the link register into the general-purpose register",
	}},
	"mtlr": {true, []string{
		"Copies the general-purpose register into the link register",
	}},
	"mfspr": {true, []string{
		"Reads a special-purpose register into a general-purpose register",
	}},
	"mtspr": {true, []string{
		"Writes a general-purpose register into a special-purpose register",
	}},
	"blr": {true, []string{
		"Branches to the link register, returning from the function",
	}},
	"bctr": {true, []string{
		"Branches to the address in the count register, common for indirect calls and jump tables",
	}},
	"bctrl": {true, []string{
		"Branches with link to the address in the count register (indirect call)",
	}},
	"nop": {true, []string{
		"Does nothing (encoded as ori r0, r0, 0)",
	}},
}

type Module struct{}

func (Module) Name() string { return "powerpc" }

func (Module) Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (bool, []string) {
	if e, ok := canned[strings.ToLower(instr.Mnemonic)]; ok {
		return e.supersede, append([]string(nil), e.lines...)
	}
	return false, nil
}

func (Module) DocURL(instr binview.Instruction) string {
	m := strings.TrimSuffix(strings.ToLower(instr.Mnemonic), ".")
	return fmt.Sprintf("https://www.ibm.com/docs/en/aix/7.3?topic=set-%s-instruction", m)
}
