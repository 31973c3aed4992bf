// Package binview defines the query surface this tool needs from a
// binary analysis backend: instruction lookup, IL retrieval, flag
// metadata, and symbol lookup. The ELF-backed implementation lives in
// this package too; other backends only need to satisfy View.
package binview

import (
	"fmt"

	"explain/internal/il"
)

// Instruction is the decoded native instruction at one address.
type Instruction struct {
	Address  uint64
	Text     string // formatted disassembly
	Mnemonic string // lowercase mnemonic
	Bytes    []byte
	Length   int
}

func (i Instruction) String() string { return i.Text }

// Function is a contiguous run of instructions with a symbol name.
// It is produced by a View and passed back into its query methods.
type Function struct {
	Name      string
	Demangled string
	Start     uint64
	End       uint64
	Addrs     []uint64 // instruction addresses in order

	insts  map[uint64]Instruction
	lifted map[uint64]il.Sequence
	llil   map[uint64]il.Sequence
	mlil   map[uint64]il.Sequence
}

// View is the read-only window onto an analyzed binary.
type View interface {
	// ArchName reports the architecture of the loaded binary, e.g.
	// "aarch64" or "x86_64". It may change if the view is reloaded
	// with a different binary.
	ArchName() string

	// FunctionAt returns the function containing addr.
	FunctionAt(addr uint64) (*Function, error)

	// InstructionAt returns the native instruction at addr.
	InstructionAt(f *Function, addr uint64) (Instruction, error)

	// LiftedIL returns the lifted IL statements for the instruction at
	// addr. Lifted IL is always present for decodable instructions.
	LiftedIL(f *Function, addr uint64) (il.Sequence, error)

	// LowLevelIL returns the low-level IL for the instruction at addr.
	// May be empty, e.g. for pure flag-setting compares.
	LowLevelIL(f *Function, addr uint64) (il.Sequence, error)

	// MediumLevelIL returns the medium-level IL for the instruction.
	MediumLevelIL(f *Function, addr uint64) (il.Sequence, error)

	// FlagsRead and FlagsWritten report flag usage of one lifted IL
	// statement, as the backend understands it.
	FlagsRead(f *Function, stmt *il.Node) []string
	FlagsWritten(f *Function, stmt *il.Node) []string

	// SymbolAt returns the symbol name defined at addr, if any.
	SymbolAt(addr uint64) (string, bool)
}

// ErrNoFunction is returned when an address is not inside any known
// function.
type ErrNoFunction struct {
	Addr uint64
}

func (e ErrNoFunction) Error() string {
	return fmt.Sprintf("no function at %#x", e.Addr)
}
