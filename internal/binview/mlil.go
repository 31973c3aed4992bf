package binview

import (
	"strings"

	"explain/internal/il"
)

// lowerToLLIL derives a low-level IL sequence from lifted IL by
// substituting flag reads with their defining expressions and dropping
// the flag assignments themselves. Instructions that only compute
// flags, like a bare compare, lower to an empty sequence; the
// explanation pipeline falls back to the lifted form for those.
func lowerToLLIL(lifted il.Sequence) il.Sequence {
	defs := make(map[string]*il.Node)
	var out il.Sequence
	for _, stmt := range lifted {
		if stmt.Op == il.OpSetFlag {
			if len(stmt.Operands) == 1 {
				defs[stmt.Flag] = stmt.Operands[0]
			}
			continue
		}
		out = append(out, substFlags(stmt, defs))
	}
	return out
}

// substFlags returns stmt with any flag reference for which a local
// definition exists replaced by that definition. Nodes are cloned so
// the lifted IL stays untouched.
func substFlags(n *il.Node, defs map[string]*il.Node) *il.Node {
	if n == nil {
		return nil
	}
	if n.Op == il.OpFlag {
		if def, ok := defs[n.Flag]; ok {
			return cloneNode(def)
		}
		return n
	}
	if len(n.Operands) == 0 {
		return n
	}
	c := *n
	c.Operands = make([]*il.Node, len(n.Operands))
	for i, o := range n.Operands {
		c.Operands[i] = substFlags(o, defs)
	}
	return &c
}

func cloneNode(n *il.Node) *il.Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Operands = make([]*il.Node, len(n.Operands))
	for i, o := range n.Operands {
		c.Operands[i] = cloneNode(o)
	}
	return &c
}

// lowerToMLIL derives a medium-level IL sequence from low-level IL:
// assignments to temporaries are inlined into their consumers, and
// no-ops disappear. Real analysis backends produce richer MLIL; this
// keeps the display honest for the built-in ELF view.
func lowerToMLIL(llil il.Sequence) il.Sequence {
	temps := make(map[string]*il.Node)
	var out il.Sequence
	for _, stmt := range llil {
		if stmt.Op == il.OpNop {
			continue
		}
		s := substTemps(stmt, temps)
		if s.Op == il.OpSetReg && isTempReg(s.Reg) && len(s.Operands) == 1 {
			temps[s.Reg] = s.Operands[0]
			continue
		}
		out = append(out, s)
	}
	return out
}

func substTemps(n *il.Node, temps map[string]*il.Node) *il.Node {
	if n == nil {
		return nil
	}
	if n.Op == il.OpReg {
		if def, ok := temps[n.Reg]; ok {
			return cloneNode(def)
		}
		return n
	}
	if len(n.Operands) == 0 {
		return n
	}
	c := *n
	c.Operands = make([]*il.Node, len(n.Operands))
	for i, o := range n.Operands {
		c.Operands[i] = substTemps(o, temps)
	}
	return &c
}

func isTempReg(name string) bool {
	return strings.HasPrefix(name, "temp")
}
