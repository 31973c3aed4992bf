// Package colorize applies terminal syntax highlighting to disassembly
// and IL display text.
package colorize

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// getAssemblyLexer returns an appropriate assembly lexer with fallbacks
func getAssemblyLexer() chroma.Lexer {
	candidates := []string{"armasm", "gas", "GAS", "Gas", "nasm"}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return lexer
		}
	}
	return nil
}

// getILStyle returns the IL display style with fallbacks
func getILStyle() *chroma.Style {
	candidates := []string{"il-dark", "dracula", "monokai"}
	for _, name := range candidates {
		if style := styles.Get(name); style != nil {
			return style
		}
	}
	return styles.Fallback
}

// getTerminalFormatter returns an appropriate terminal formatter
func getTerminalFormatter() chroma.Formatter {
	candidates := []string{"terminal16m", "terminal256"}
	for _, name := range candidates {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// ColorizeAssembly applies syntax highlighting to one line of
// disassembly or IL text. Set EXPLAIN_NO_COLOR to disable.
func ColorizeAssembly(code string) (string, error) {
	if os.Getenv("EXPLAIN_NO_COLOR") != "" {
		return code, nil
	}

	lexer := getAssemblyLexer()
	if lexer == nil {
		return code, nil
	}

	style := getILStyle()
	formatter := getTerminalFormatter()

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, err
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code, err
	}

	return buf.String(), nil
}

// ColorizeILLine colorizes one IL display line, rendering a leading
// "0xaddr:" prefix in gray and the rest through the lexer.
func ColorizeILLine(line string) string {
	if os.Getenv("EXPLAIN_NO_COLOR") != "" {
		return line
	}

	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 2 && strings.HasPrefix(parts[0], "0x") && strings.HasSuffix(parts[0], ":") {
		addr := fmt.Sprintf("\033[38;2;79;79;79m%s\033[0m", parts[0])
		rest, err := ColorizeAssembly(parts[1])
		if err != nil {
			rest = parts[1]
		}
		return fmt.Sprintf("%s %s", addr, strings.TrimRight(rest, "\n"))
	}

	out, err := ColorizeAssembly(line)
	if err != nil {
		return line
	}
	return strings.TrimRight(out, "\n")
}
