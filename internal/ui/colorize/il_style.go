package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

func init() {
	// Register our custom IL style on package initialization
	_ = ILDark
}

// ILDark is a custom style for IL and disassembly display matching the
// window color scheme
var ILDark = styles.Register(chroma.MustNewStyle("il-dark", chroma.StyleEntries{
	chroma.Text:           "#FFFFFF",    // Default text white
	chroma.Background:     "bg:#1e1e1e", // Dark background
	chroma.Comment:        "#8A8A8A",    // Comments in gray
	chroma.CommentPreproc: "#8A8A8A",

	chroma.Keyword:       "#FFFFFF", // Operations in white
	chroma.KeywordPseudo: "#FFFFFF",
	chroma.Name:          "#7C9C9D", // Registers in teal
	chroma.NameBuiltin:   "#7C9C9D",
	chroma.NameVariable:  "#7C9C9D",

	// Numbers
	chroma.LiteralNumber:        "#FF5F87", // Literals in pink
	chroma.LiteralNumberHex:     "#FF5F87",
	chroma.LiteralNumberBin:     "#FF5F87",
	chroma.LiteralNumberOct:     "#FF5F87",
	chroma.LiteralNumberInteger: "#FF5F87",
	chroma.LiteralNumberFloat:   "#FF5F87",

	// Labels and symbols
	chroma.NameLabel:    "#FFD700", // Symbol names in gold
	chroma.NameFunction: "#FFFFFF",

	chroma.Operator:    "#FFFFFF",
	chroma.Punctuation: "#FFFFFF",

	chroma.String: "#EACD53",
}))
