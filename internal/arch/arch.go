// Package arch selects the architecture-specific explanation module
// for a binary. Each supported instruction set lives in its own
// subpackage; adding an architecture means adding a subpackage and one
// registry row here.
package arch

import (
	"fmt"
	"strings"

	"explain/internal/arch/aarch64"
	"explain/internal/arch/asm6502"
	"explain/internal/arch/mips"
	"explain/internal/arch/msp430"
	"explain/internal/arch/powerpc"
	"explain/internal/arch/ual"
	"explain/internal/arch/x86"
	"explain/internal/binview"
	"explain/internal/il"
)

// Module supplies architecture-specific explanations for instructions
// whose IL lowering is too generic to read well, plus a documentation
// link per mnemonic. Implementations must be deterministic: identical
// input always yields identical output.
type Module interface {
	Name() string

	// Explain may return canned explanation lines for the instruction.
	// When supersede is true the IL-derived explanation is discarded;
	// otherwise the lines are prepended to it. No special case applies
	// when the returned slice is empty.
	Explain(v binview.View, instr binview.Instruction, lifted il.Sequence) (supersede bool, lines []string)

	// DocURL maps the instruction's mnemonic to a documentation link.
	DocURL(instr binview.Instruction) string
}

// UnsupportedError reports an architecture name no module matches.
type UnsupportedError struct {
	Name string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("could not identify architecture type %q", e.Name)
}

// registry order is the documented precedence: earlier substrings win,
// so "aarch64" resolves before the bare "arm" match catches it.
var registry = []struct {
	substr string
	module Module
}{
	{"x86", x86.Module{}},
	{"mips", mips.Module{}},
	{"aarch64", aarch64.Module{}},
	{"arm", ual.Module{}},
	{"thumb", ual.Module{}},
	{"6502", asm6502.Module{}},
	{"msp430", msp430.Module{}},
	{"powerpc", powerpc.Module{}},
	{"ppc", powerpc.Module{}},
}

// Lookup returns the module whose registered substring occurs in the
// reported architecture name.
func Lookup(name string) (Module, error) {
	lower := strings.ToLower(name)
	for _, r := range registry {
		if strings.Contains(lower, r.substr) {
			return r.module, nil
		}
	}
	return nil, UnsupportedError{Name: name}
}
