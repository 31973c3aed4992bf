package explain

import (
	"regexp"
	"strconv"
	"strings"
)

var hexLiteral = regexp.MustCompile(`0x[0-9a-fA-F]+`)

// DereferenceSymbols rewrites hex literals in display text to
// "0xNNNN name" wherever the literal is a known symbol's address.
// Literals without a matching symbol pass through untouched, as does
// everything when the symbol table is empty. Only display text is
// rewritten; operation semantics are never affected. Applying the
// function twice is a no-op: a literal already followed by its symbol
// name is left alone.
func DereferenceSymbols(text string, syms SymbolResolver) string {
	if syms == nil {
		return text
	}
	locs := hexLiteral.FindAllStringIndex(text, -1)
	if locs == nil {
		return text
	}
	var sb strings.Builder
	prev := 0
	for _, loc := range locs {
		lit := text[loc[0]:loc[1]]
		sb.WriteString(text[prev:loc[0]])
		sb.WriteString(lit)
		prev = loc[1]
		v, err := strconv.ParseUint(lit[2:], 16, 64)
		if err != nil {
			continue
		}
		name, ok := syms.SymbolAt(v)
		if !ok {
			continue
		}
		if strings.HasPrefix(text[loc[1]:], " "+name) {
			continue
		}
		sb.WriteString(" ")
		sb.WriteString(name)
	}
	sb.WriteString(text[prev:])
	return sb.String()
}

// DereferenceSequence applies DereferenceSymbols to each line.
func DereferenceSequence(lines []string, syms SymbolResolver) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = DereferenceSymbols(l, syms)
	}
	return out
}
