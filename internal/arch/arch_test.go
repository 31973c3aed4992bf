package arch

import (
	"errors"
	"reflect"
	"testing"

	"explain/internal/binview"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		archName string
		want     string
	}{
		// Names as analysis platforms report them.
		{"x86", "x86"},
		{"x86_64", "x86"},
		{"mips32", "mips"},
		{"mipsel32", "mips"},
		{"aarch64", "aarch64"},
		{"armv7", "arm"},
		{"thumb2", "arm"},
		{"6502", "6502"},
		{"msp430", "msp430"},
		{"powerpc", "powerpc"},
		{"ppc64", "powerpc"},
		// Matching is case-insensitive.
		{"AArch64", "aarch64"},
		{"PowerPC", "powerpc"},
	}

	for _, tt := range tests {
		t.Run(tt.archName, func(t *testing.T) {
			m, err := Lookup(tt.archName)
			if err != nil {
				t.Fatalf("Lookup(%q): %v", tt.archName, err)
			}
			if m.Name() != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.archName, m.Name(), tt.want)
			}
		})
	}
}

// Substring precedence: a name containing both "aarch64" and "arm"
// resolves to the more specific module.
func TestLookupPrecedence(t *testing.T) {
	m, err := Lookup("aarch64")
	if err != nil {
		t.Fatal(err)
	}
	if m.Name() != "aarch64" {
		t.Errorf("aarch64 resolved to %q", m.Name())
	}
}

func TestLookupUnknown(t *testing.T) {
	for _, name := range []string{"riscv", "sparc", ""} {
		_, err := Lookup(name)
		var unsupported UnsupportedError
		if !errors.As(err, &unsupported) {
			t.Errorf("Lookup(%q) err = %v, want UnsupportedError", name, err)
			continue
		}
		if unsupported.Name != name {
			t.Errorf("UnsupportedError.Name = %q, want %q", unsupported.Name, name)
		}
	}
}

// Modules must be deterministic: identical input, identical output.
func TestModuleDeterminism(t *testing.T) {
	samples := map[string]binview.Instruction{
		"x86_64":  {Text: "cpuid", Mnemonic: "cpuid"},
		"aarch64": {Text: "svc #0", Mnemonic: "svc"},
		"armv7":   {Text: "bx lr", Mnemonic: "bx"},
		"mips32":  {Text: "syscall", Mnemonic: "syscall"},
		"6502":    {Text: "brk", Mnemonic: "brk"},
		"msp430":  {Text: "reti", Mnemonic: "reti"},
		"powerpc": {Text: "sc", Mnemonic: "sc"},
	}

	for archName, instr := range samples {
		m, err := Lookup(archName)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", archName, err)
		}
		s1, l1 := m.Explain(nil, instr, nil)
		s2, l2 := m.Explain(nil, instr, nil)
		if s1 != s2 || !reflect.DeepEqual(l1, l2) {
			t.Errorf("%s: Explain(%q) is not deterministic", archName, instr.Text)
		}
		if len(l1) == 0 {
			t.Errorf("%s: no explanation for %q", archName, instr.Text)
		}
		if m.DocURL(instr) == "" {
			t.Errorf("%s: empty doc URL for %q", archName, instr.Mnemonic)
		}
	}
}
