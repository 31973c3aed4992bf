// Package state reconstructs best-effort facts about machine state
// just before an instruction executes: which registers it reads and
// any constant values visible from a linear scan of the preceding IL.
package state

import (
	"errors"
	"fmt"
	"strings"

	"explain/internal/binview"
	"explain/internal/il"
)

// ErrUnsupported reports an architecture without state support.
var ErrUnsupported = errors.New("no instruction state support for this architecture")

// Fact is one recovered piece of pre-execution state.
type Fact struct {
	Reg    string `json:"reg"`
	Value  uint64 `json:"value"`
	Known  bool   `json:"known"`
	Source uint64 `json:"source,omitempty"` // address that defined the value
}

func (f Fact) String() string {
	if f.Known {
		return fmt.Sprintf("%s = %#x (set at %#x)", f.Reg, f.Value, f.Source)
	}
	return fmt.Sprintf("%s = <unknown>", f.Reg)
}

// State is the aggregate for one instruction.
type State struct {
	Arch  string `json:"arch"`
	Facts []Fact `json:"facts"`
}

// Get returns the pre-execution state for the instruction at addr.
// Only x86 and AArch64 are supported; everything else returns
// ErrUnsupported and the caller omits the state display.
func Get(v binview.View, f *binview.Function, addr uint64) (*State, error) {
	name := strings.ToLower(v.ArchName())
	if !strings.Contains(name, "x86") && !strings.Contains(name, "aarch64") {
		return nil, ErrUnsupported
	}

	// Constants assigned on the straight-line path from function entry
	// to addr. Anything past a branch target is treated as unknown, so
	// the scan stops at the first control transfer.
	known := map[string]Fact{}
scan:
	for _, a := range f.Addrs {
		if a >= addr {
			break
		}
		seq, err := v.LiftedIL(f, a)
		if err != nil {
			continue
		}
		for _, stmt := range seq {
			switch stmt.Op {
			case il.OpIf, il.OpJump, il.OpGoto, il.OpCall, il.OpRet:
				// addr may be reached from elsewhere, and a call
				// clobbers registers; nothing gathered so far holds.
				known = map[string]Fact{}
				break scan
			case il.OpSetReg:
				src := stmt.Operands[0]
				if src.Op == il.OpConst || src.Op == il.OpConstPtr {
					known[stmt.Reg] = Fact{Reg: stmt.Reg, Value: src.Value, Known: true, Source: a}
				} else {
					delete(known, stmt.Reg)
				}
			}
		}
	}

	seq, err := v.LiftedIL(f, addr)
	if err != nil {
		return nil, err
	}
	st := &State{Arch: v.ArchName()}
	seen := map[string]bool{}
	for _, stmt := range seq {
		il.Walk(stmt, func(n *il.Node) {
			if n.Op != il.OpReg || seen[n.Reg] {
				return
			}
			seen[n.Reg] = true
			if fact, ok := known[n.Reg]; ok {
				st.Facts = append(st.Facts, fact)
			} else {
				st.Facts = append(st.Facts, Fact{Reg: n.Reg})
			}
		})
	}
	return st, nil
}
