// Package dot implements Graphviz .dot emission of a dependence graph (spec
// §6.4): edge-class colouring (data=cyan4, control=blue, use=black dashed,
// cfg=gray) gated by a bit-flag Options enumeration, carried here as Flags
// (grounded on the original tool's DG2Dot dump options: PRINT_CFG, PRINT_DF,
// PRINT_CD, PRINT_USE, PRINT_ID).
package dot

import (
	"fmt"
	"io"

	"github.com/progslice/pdg/slicing"
)

// Flags selects which edge classes Write emits, as an OR-able bitmask.
type Flags uint8

const (
	// PrintCFG emits the block-level control-flow edges (gray).
	PrintCFG Flags = 1 << iota
	// PrintDF emits data-dependence edges (cyan4).
	PrintDF
	// PrintCD emits control-dependence edges (blue).
	PrintCD
	// PrintUse emits use->user def-use edges (black, dashed).
	PrintUse
	// PrintID appends each node's numeric id, as " (n<id>)", to a
	// Labeler-supplied label; the default label is already the id.
	PrintID
)

// DefaultFlags matches what a human skimming a slice usually wants: data and
// control dependence edges, with ids for cross-referencing against a node
// dump, but without the denser CFG/use overlays.
const DefaultFlags = PrintDF | PrintCD | PrintID

// Options configures one Write call.
type Options struct {
	Flags Flags
	// Name becomes the emitted digraph's identifier. Defaults to "pdg" if
	// empty.
	Name string
	// Labeler, if set, overrides the default "n<id>" node label — a
	// front-end typically wants the original instruction's source text here.
	Labeler func(n *slicing.Node) string
}

func (o Options) has(f Flags) bool { return o.Flags&f != 0 }

// Write emits graph as Graphviz source to w.
func Write(w io.Writer, graph *slicing.Graph, opts Options) error {
	name := opts.Name
	if name == "" {
		name = "pdg"
	}

	if _, err := fmt.Fprintf(w, "digraph %s {\n", name); err != nil {
		return err
	}
	defer fmt.Fprintln(w, "}")

	for _, id := range graph.AllNodeIDs() {
		n := graph.Node(id)
		label := nodeLabel(n, opts)
		if _, err := fmt.Fprintf(w, "\tn%d [label=\"%s\"];\n", id, label); err != nil {
			return err
		}
	}

	if opts.has(PrintCFG) {
		for _, b := range graph.Blocks() {
			for _, succ := range b.Succs {
				if err := writeBlockEdge(w, b, succ); err != nil {
					return err
				}
			}
		}
	}

	for _, id := range graph.AllNodeIDs() {
		n := graph.Node(id)
		if opts.has(PrintDF) {
			for _, succ := range n.DataSuccessors() {
				if err := writeEdge(w, id, succ, "cyan4", ""); err != nil {
					return err
				}
			}
		}
		if opts.has(PrintCD) {
			for _, succ := range n.ControlSuccessors() {
				if err := writeEdge(w, id, succ, "blue", ""); err != nil {
					return err
				}
			}
		}
		if opts.has(PrintUse) {
			for _, user := range n.UsedBy() {
				if err := writeEdge(w, id, user, "black", "dashed"); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// nodeLabel applies opts.Labeler if set, falling back to the bare node id;
// PrintID additionally appends the id even when a custom Labeler already
// produced a source-level label.
func nodeLabel(n *slicing.Node, opts Options) string {
	if opts.Labeler == nil {
		return fmt.Sprintf("n%d", n.ID())
	}
	label := opts.Labeler(n)
	if opts.has(PrintID) {
		label = fmt.Sprintf("%s (n%d)", label, n.ID())
	}
	return label
}

func writeEdge(w io.Writer, from, to slicing.NodeID, color, style string) error {
	attrs := fmt.Sprintf("color=%s", color)
	if style != "" {
		attrs += fmt.Sprintf(", style=%s", style)
	}
	_, err := fmt.Fprintf(w, "\tn%d -> n%d [%s];\n", from, to, attrs)
	return err
}

func writeBlockEdge(w io.Writer, from, to *slicing.Block) error {
	fromLast, ok := lastNode(from)
	if !ok {
		return nil
	}
	toFirst, ok := firstNode(to)
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(w, "\tn%d -> n%d [color=gray, style=bold];\n", fromLast, toFirst)
	return err
}

func lastNode(b *slicing.Block) (slicing.NodeID, bool) {
	if len(b.Nodes) == 0 {
		return 0, false
	}
	return b.Nodes[len(b.Nodes)-1], true
}

func firstNode(b *slicing.Block) (slicing.NodeID, bool) {
	if len(b.Nodes) == 0 {
		return 0, false
	}
	return b.Nodes[0], true
}
