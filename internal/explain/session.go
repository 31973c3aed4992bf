package explain

import (
	"errors"
	"fmt"
	"sync"

	"explain/internal/arch"
	"explain/internal/binview"
	"explain/internal/il"
	"explain/internal/logging"
	"explain/internal/state"
)

// FlagUse is the flag read/write set of one lifted IL statement,
// copied straight from the binary view.
type FlagUse struct {
	Read      []string `json:"read"`
	Written   []string `json:"written"`
	Statement string   `json:"statement"`
	Index     int      `json:"index"`
}

// Bundle is everything the presentation layer shows for one
// instruction. It is built per invocation and never persisted.
type Bundle struct {
	Address     uint64       `json:"address" jsonschema:"title=Address,description=Virtual address of the explained instruction"`
	Instruction string       `json:"instruction" jsonschema:"title=Instruction,description=Raw disassembly with address prefix"`
	Description []string     `json:"description" jsonschema:"title=Description,description=Natural-language explanation lines in execution order"`
	LLIL        []string     `json:"llil" jsonschema:"title=LLIL,description=Low-level IL display text with symbols dereferenced"`
	MLIL        []string     `json:"mlil" jsonschema:"title=MLIL,description=Medium-level IL display text with symbols dereferenced"`
	Flags       []FlagUse    `json:"flags" jsonschema:"title=Flags,description=Per-statement flag read and write sets"`
	State       *state.State `json:"state,omitempty" jsonschema:"title=State,description=Best-effort pre-execution state"`
	DocURL      string       `json:"doc_url" jsonschema:"title=Doc URL,description=Documentation link for the mnemonic"`
}

// Session runs the explanation pipeline against one binary view. The
// selected architecture module is the only state carried across
// invocations; it is re-derived whenever the view reports a different
// architecture name, so reloading a binary of another architecture in
// the same session works.
type Session struct {
	view binview.View
	log  *logging.LoggerCloser

	mu       sync.Mutex
	archName string
	module   arch.Module
}

// NewSession creates a session over view.
func NewSession(view binview.View) *Session {
	return &Session{view: view, log: logging.NewLogger()}
}

// Module returns the override module for the view's current
// architecture, deriving it on first use or on a name change.
func (s *Session) Module() (arch.Module, error) {
	name := s.view.ArchName()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.module != nil && s.archName == name {
		return s.module, nil
	}
	m, err := arch.Lookup(name)
	if err != nil {
		return nil, err
	}
	s.archName = name
	s.module = m
	return m, nil
}

// Explain runs the full pipeline for the instruction at addr and
// returns its display bundle. Only an unsupported architecture or a
// failed instruction lookup aborts; every other condition degrades to
// partial output.
func (s *Session) Explain(addr uint64) (*Bundle, error) {
	module, err := s.Module()
	if err != nil {
		return nil, err
	}

	f, err := s.view.FunctionAt(addr)
	if err != nil {
		return nil, fmt.Errorf("explain %#x: %w", addr, err)
	}
	instr, err := s.view.InstructionAt(f, addr)
	if err != nil {
		return nil, fmt.Errorf("explain %#x: %w", addr, err)
	}

	lifted := s.fetchIL(s.view.LiftedIL, f, addr, "lifted")
	llil := s.fetchIL(s.view.LowLevelIL, f, addr, "llil")
	mlil := s.fetchIL(s.view.MediumLevelIL, f, addr, "mlil")

	// LLIL is the preferred explanation source, but some instructions
	// (a bare compare, for one) have no LLIL; lifted IL covers those.
	parse := llil
	if len(parse) == 0 {
		parse = lifted
	}
	if len(parse) == 0 {
		s.log.Debug("no IL for instruction", "addr", fmt.Sprintf("%#x", addr))
	}

	supersede, lines := module.Explain(s.view, instr, lifted)

	var description []string
	description = append(description, lines...)
	if len(lines) == 0 || !supersede {
		ctx := NewContext(s.view, parse)
		for _, unit := range Fold(parse) {
			description = append(description, ctx.Describe(unit))
		}
	}

	b := &Bundle{
		Address:     addr,
		Instruction: fmt.Sprintf("%#x:  %s", addr, instr.Text),
		Description: description,
		LLIL:        DereferenceSequence(renderIL(llil), s.view),
		MLIL:        DereferenceSequence(renderIL(mlil), s.view),
		DocURL:      module.DocURL(instr),
	}
	for _, stmt := range lifted {
		b.Flags = append(b.Flags, FlagUse{
			Read:      s.view.FlagsRead(f, stmt),
			Written:   s.view.FlagsWritten(f, stmt),
			Statement: stmt.String(),
			Index:     stmt.Index,
		})
	}

	st, err := state.Get(s.view, f, addr)
	switch {
	case err == nil:
		b.State = st
	case errors.Is(err, state.ErrUnsupported):
		s.log.Warn("no instruction state support for this architecture", "arch", s.view.ArchName())
	default:
		s.log.Warn("instruction state unavailable", "addr", fmt.Sprintf("%#x", addr), "error", err)
	}
	return b, nil
}

func (s *Session) fetchIL(get func(*binview.Function, uint64) (il.Sequence, error), f *binview.Function, addr uint64, level string) il.Sequence {
	seq, err := get(f, addr)
	if err != nil {
		s.log.Debug("IL fetch failed", "level", level, "addr", fmt.Sprintf("%#x", addr), "error", err)
		return nil
	}
	return seq
}

func renderIL(seq il.Sequence) []string {
	out := make([]string, len(seq))
	for i, stmt := range seq {
		out[i] = stmt.String()
	}
	return out
}
