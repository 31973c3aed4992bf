package x86

import (
	"strings"
	"testing"

	"explain/internal/binview"
)

func TestExplainStringOps(t *testing.T) {
	tests := []struct {
		name         string
		instr        binview.Instruction
		wantLines    int
		wantContains string
	}{
		{
			name:         "bare movs",
			instr:        binview.Instruction{Mnemonic: "movs", Text: "movs"},
			wantLines:    1,
			wantContains: "single element",
		},
		{
			name:         "sized movsb",
			instr:        binview.Instruction{Mnemonic: "movsb", Text: "movsb byte ptr [rdi], byte ptr [rsi]"},
			wantLines:    1,
			wantContains: "single element",
		},
		{
			name:         "rep stosq",
			instr:        binview.Instruction{Mnemonic: "rep stosq", Text: "rep stosq qword ptr [rdi], rax"},
			wantLines:    2,
			wantContains: "until it reaches zero",
		},
		{
			name:         "repne scasb stops on the zero flag",
			instr:        binview.Instruction{Mnemonic: "repne scasb", Text: "repne scasb al, byte ptr [rdi]"},
			wantLines:    2,
			wantContains: "zero flag",
		},
		{
			name:         "rep movsd string form",
			instr:        binview.Instruction{Mnemonic: "rep movsd", Text: "rep movsd dword ptr [rdi], dword ptr [rsi]"},
			wantLines:    2,
			wantContains: "Copies a block of memory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			supersede, lines := Module{}.Explain(nil, tt.instr, nil)
			if !supersede {
				t.Error("string operation did not supersede the IL explanation")
			}
			if len(lines) != tt.wantLines {
				t.Fatalf("got %d lines %v, want %d", len(lines), lines, tt.wantLines)
			}
			joined := strings.Join(lines, "\n")
			if !strings.Contains(joined, tt.wantContains) {
				t.Errorf("lines %v do not mention %q", lines, tt.wantContains)
			}
		})
	}
}

// Mnemonics that merely start like a string operation must fall
// through so the IL-derived explanation survives.
func TestExplainNonStringOpsFallThrough(t *testing.T) {
	tests := []struct {
		name  string
		instr binview.Instruction
	}{
		{"sign extend", binview.Instruction{Mnemonic: "movsx", Text: "movsx eax, bx"}},
		{"sign extend doubleword", binview.Instruction{Mnemonic: "movsxd", Text: "movsxd rax, ebx"}},
		{"scalar single move", binview.Instruction{Mnemonic: "movss", Text: "movss xmm0, dword ptr [rax]"}},
		{"scalar double move", binview.Instruction{Mnemonic: "movsd", Text: "movsd xmm0, qword ptr [rax]"}},
		{"scalar single compare", binview.Instruction{Mnemonic: "cmpss", Text: "cmpss xmm0, xmm1, 0x0"}},
		{"scalar double compare", binview.Instruction{Mnemonic: "cmpsd", Text: "cmpsd xmm0, xmm1, 0x0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			supersede, lines := Module{}.Explain(nil, tt.instr, nil)
			if supersede || len(lines) != 0 {
				t.Errorf("Explain(%q) = (%v, %v), want no override", tt.instr.Mnemonic, supersede, lines)
			}
		})
	}
}

func TestExplainLockPrefixedMnemonic(t *testing.T) {
	instr := binview.Instruction{Mnemonic: "lock xchg", Text: "lock xchg dword ptr [rax], ecx"}
	supersede, lines := Module{}.Explain(nil, instr, nil)
	if !supersede {
		t.Error("lock xchg did not supersede")
	}
	if len(lines) < 2 {
		t.Fatalf("lines = %v, want the atomicity note plus the xchg description", lines)
	}
	if !strings.Contains(lines[0], "atomic") {
		t.Errorf("first line = %q, want the lock prefix note", lines[0])
	}
}

func TestDocURLStripsPrefixes(t *testing.T) {
	tests := []struct {
		mnemonic string
		want     string
	}{
		{"mov", "https://www.felixcloutier.com/x86/mov"},
		{"rep stosq", "https://www.felixcloutier.com/x86/stosq"},
		{"lock cmpxchg", "https://www.felixcloutier.com/x86/cmpxchg"},
	}
	for _, tt := range tests {
		got := Module{}.DocURL(binview.Instruction{Mnemonic: tt.mnemonic})
		if got != tt.want {
			t.Errorf("DocURL(%q) = %q, want %q", tt.mnemonic, got, tt.want)
		}
	}
}
