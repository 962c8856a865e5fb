// Package validate implements the structural validator of spec.md §6.5 and
// §7 kind 3: a read-only pass over a built pointer.PointerGraph that checks
// the construction-time contracts a front-end is expected to uphold, but
// that CreateX calls alone can't enforce (a dangling operand id, a node
// unreachable from any subgraph entry, an unpaired Call/CallReturn).
//
// The four checks are independent and read-only, so they run concurrently
// under an errgroup.Group (spec.md §6.5's "operand typing, unique ids,
// reachability from entry, matched call/return pairs"); each builds its
// own slice and merges it into the shared result under a mutex before its
// goroutine returns.
package validate

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/pointer"
)

// Report is the outcome of Validate: a graph with any Errors is unsound to
// analyze further (spec §7 kind 3's "a structural violation"); Warnings flag
// suspicious but not fatal shapes (e.g. a node with no users and no control
// successors, somewhere other than a Return/CallReturn).
type Report struct {
	Errors   []error
	Warnings []error
}

// OK reports whether the graph has no structural errors. Warnings don't
// affect OK.
func (r Report) OK() bool { return len(r.Errors) == 0 }

// Validate runs the four structural checks concurrently and merges their
// results. Every error message names the offending node or subgraph;
// operand-typing errors are additionally wrapped with errors.Wrapf.
func Validate(g *pointer.PointerGraph) Report {
	var (
		mu       sync.Mutex
		errs     []error
		warnings []error
	)
	collect := func(es, ws []error) {
		mu.Lock()
		defer mu.Unlock()
		errs = append(errs, es...)
		warnings = append(warnings, ws...)
	}

	var wg errgroup.Group
	wg.Go(func() error { collect(checkOperandTyping(g), nil); return nil })
	wg.Go(func() error { collect(checkUniqueIDs(g), nil); return nil })
	wg.Go(func() error { es, ws := checkReachability(g); collect(es, ws); return nil })
	wg.Go(func() error { collect(checkCallReturnPairing(g), nil); return nil })
	_ = wg.Wait() // the four checks never return a non-nil error themselves; they report via collect

	return Report{Errors: errs, Warnings: warnings}
}

// checkOperandTyping enforces spec §3.2's per-tag operand contracts that
// survive past construction: a fixed-arity tag's operand count can drift if
// a caller later calls dgraph.RemoveOperand directly, and an operand id can
// go stale if the node it pointed to is removed by a later graph edit.
func checkOperandTyping(g *pointer.PointerGraph) []error {
	arity := map[pointer.Tag]int{
		pointer.Load:             1,
		pointer.Store:            2,
		pointer.Gep:              1,
		pointer.Cast:             1,
		pointer.Free:             1,
		pointer.InvalidateObject: 1,
	}

	var errs []error
	for _, id := range g.AllNodeIDs() {
		n := g.Node(id)
		for _, op := range n.Operands() {
			if int(op) <= 0 || int(op) >= g.NumNodes() {
				errs = append(errs, errors.Wrapf(fmt.Errorf("operand n%d does not exist", op), "n%d (%s)", id, n.Tag))
				continue
			}
		}
		if want, ok := arity[n.Tag]; ok && len(n.Operands()) != want {
			errs = append(errs, errors.Wrapf(
				fmt.Errorf("expected %d operand(s), got %d", want, len(n.Operands())),
				"n%d (%s)", id, n.Tag))
		}
	}
	return errs
}

// checkUniqueIDs enforces that every id in [1, NumNodes) names at most one
// node and that no two subgraphs share an id space collision on Entry.
func checkUniqueIDs(g *pointer.PointerGraph) []error {
	var errs []error
	seen := make(map[dgraph.NodeID]bool)
	for _, id := range g.AllNodeIDs() {
		if seen[id] {
			errs = append(errs, fmt.Errorf("n%d: duplicate node id", id))
		}
		seen[id] = true
	}

	entries := make(map[dgraph.NodeID]pointer.SubgraphID)
	for _, sg := range g.Subgraphs() {
		if owner, ok := entries[sg.Entry]; ok {
			errs = append(errs, fmt.Errorf("n%d: entry reused by subgraphs %d and %d", sg.Entry, owner, sg.ID))
			continue
		}
		entries[sg.Entry] = sg.ID
	}
	return errs
}

// checkReachability walks the control-flow graph from every subgraph's
// Entry node and reports nodes that belong to no subgraph's reachable set
// as warnings (not errors: an intentionally dead basic block, e.g. one a
// front-end emitted for an unreachable branch, is suspicious but not
// unsound to analyze).
func checkReachability(g *pointer.PointerGraph) (errs, warnings []error) {
	reached := make(map[dgraph.NodeID]bool)
	for _, sg := range g.Subgraphs() {
		if sg.Entry == dgraph.Sentinel {
			errs = append(errs, fmt.Errorf("subgraph %d: entry is the sentinel id", sg.ID))
			continue
		}
		walk(g, sg.Entry, reached)
	}

	for _, id := range g.AllNodeIDs() {
		n := g.Node(id)
		if n.Tag == pointer.NullAddr || n.Tag == pointer.UnknownMem || n.Tag == pointer.Invalidated {
			continue // the three global nodes have no subgraph and are never "unreachable"
		}
		if !reached[id] {
			warnings = append(warnings, fmt.Errorf("n%d (%s): unreachable from any subgraph entry", id, n.Tag))
		}
	}
	return errs, warnings
}

func walk(g *pointer.PointerGraph, start dgraph.NodeID, reached map[dgraph.NodeID]bool) {
	stack := []dgraph.NodeID{start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[id] {
			continue
		}
		reached[id] = true
		n := g.Node(id)
		stack = append(stack, n.Successors()...)
		if attrs := callAttrsOrNil(n); attrs != nil {
			for _, callee := range attrs.Callees {
				stack = append(stack, g.Subgraph(callee).Entry)
			}
		}
	}
}

func callAttrsOrNil(n *pointer.PSNode) *pointer.CallAttrs {
	if n.Tag != pointer.Call && n.Tag != pointer.CallFuncPtr {
		return nil
	}
	return n.CallAttrs()
}

// checkCallReturnPairing enforces spec §3.2's "a Call/CallFuncPtr has a
// non-null paired CallReturn, and vice versa" invariant.
func checkCallReturnPairing(g *pointer.PointerGraph) []error {
	var errs []error
	for _, id := range g.AllNodeIDs() {
		n := g.Node(id)
		switch n.Tag {
		case pointer.Call, pointer.CallFuncPtr:
			if n.Paired == dgraph.Sentinel {
				errs = append(errs, fmt.Errorf("n%d (%s): no paired CallReturn", id, n.Tag))
				continue
			}
			paired := g.Node(n.Paired)
			if paired.Tag != pointer.CallReturn {
				errs = append(errs, fmt.Errorf("n%d (%s): paired node n%d is a %s, not CallReturn", id, n.Tag, n.Paired, paired.Tag))
			} else if paired.Paired != id {
				errs = append(errs, fmt.Errorf("n%d (%s): pairing with n%d is not reciprocal", id, n.Tag, n.Paired))
			}
		case pointer.CallReturn:
			if n.Paired == dgraph.Sentinel {
				errs = append(errs, fmt.Errorf("n%d (CallReturn): no paired call", id))
			}
		}
	}
	return errs
}
