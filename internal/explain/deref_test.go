package explain

import (
	"reflect"
	"testing"
)

// symtab is a map-backed SymbolResolver for tests.
type symtab map[uint64]string

func (s symtab) SymbolAt(addr uint64) (string, bool) {
	name, ok := s[addr]
	return name, ok
}

func TestDereferenceSymbols(t *testing.T) {
	syms := symtab{
		0x401000: "main",
		0x401080: "helper",
	}

	tests := []struct {
		name string
		text string
		syms SymbolResolver
		want string
	}{
		{
			name: "nil resolver passes through",
			text: "call(0x401000)",
			syms: nil,
			want: "call(0x401000)",
		},
		{
			name: "empty table leaves text unchanged",
			text: "call(0x401000)",
			syms: symtab{},
			want: "call(0x401000)",
		},
		{
			name: "known literal gets its name",
			text: "call(0x401000)",
			syms: syms,
			want: "call(0x401000 main)",
		},
		{
			name: "unknown literal untouched",
			text: "x0 = 0xdeadbeef",
			syms: syms,
			want: "x0 = 0xdeadbeef",
		},
		{
			name: "multiple literals rewritten independently",
			text: "if (x0 == 0x401000) then 0x401080 else 0x4010ff",
			syms: syms,
			want: "if (x0 == 0x401000 main) then 0x401080 helper else 0x4010ff",
		},
		{
			name: "already annotated literal stays single",
			text: "call(0x401000 main)",
			syms: syms,
			want: "call(0x401000 main)",
		},
		{
			name: "no hex literals at all",
			text: "Returns to the calling function",
			syms: syms,
			want: "Returns to the calling function",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DereferenceSymbols(tt.text, tt.syms); got != tt.want {
				t.Errorf("DereferenceSymbols(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestDereferenceSymbolsIdempotent(t *testing.T) {
	syms := symtab{0x401000: "main"}
	once := DereferenceSymbols("jump(0x401000)", syms)
	twice := DereferenceSymbols(once, syms)
	if once != twice {
		t.Errorf("second pass changed the text: %q -> %q", once, twice)
	}
}

func TestDereferenceSequence(t *testing.T) {
	syms := symtab{0x401000: "main"}
	got := DereferenceSequence([]string{"call(0x401000)", "ret"}, syms)
	want := []string{"call(0x401000 main)", "ret"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DereferenceSequence = %v, want %v", got, want)
	}
}
