// ssa.go implements the SSA-form reaching-definitions builder of spec
// §4.6.1 (the "marker SRG"): rather than iterating a MOP fixpoint, it
// resolves each use on demand by walking predecessor blocks and inserting
// phi-like merge nodes only where control flow actually merges distinct
// definitions — the construction discipline of Braun, Buchwald, Hack et
// al.'s "Simple and Efficient Construction of SSA Form", applied to memory
// DefSites instead of source-level variables.
package rd

import (
	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/offset"
)

// SRGBuilder builds the SSA reaching-definitions graph incrementally: a
// Record call registers a block-local strong definition, and a Read call
// resolves a use, inserting phi nodes where necessary. RunID lets an
// embedding tool correlate a build's removeBlock/removeNode-style
// diagnostics (and any .dot dump) across a batch of per-function builds
// without reusing the small node-id space for identity.
type SRGBuilder struct {
	Graph *Graph
	Log   logr.Logger
	RunID uuid.UUID

	incompletePhis map[dgraph.NodeID]incompletePhi
}

type incompletePhi struct {
	block    *BasicBlock
	target   dgraph.NodeID
	interval offset.Interval
}

// NewSRGBuilder returns a builder over graph, stamped with a fresh run id.
func NewSRGBuilder(graph *Graph, log logr.Logger) *SRGBuilder {
	return &SRGBuilder{
		Graph:          graph,
		Log:            log,
		RunID:          uuid.New(),
		incompletePhis: make(map[dgraph.NodeID]incompletePhi),
	}
}

// RecordStrongDefinition implements spec §4.6.1's strong-update rule:
// definitions[ds.target].killOverlapping(ds.interval); definitions[ds.target].add(ds.interval, node).
func (sb *SRGBuilder) RecordStrongDefinition(block *BasicBlock, ds DefSite, node dgraph.NodeID) {
	im := block.definitionsFor(ds.Target)
	im.KillOverlapping(ds.Interval())
	im.Add(ds.Interval(), node)
}

// Read implements spec §4.6.1's weak-update / use resolution rule:
// recursively materialising phi nodes for whatever sub-ranges of ds aren't
// already covered by a block-local strong definition, and returns every
// definition node that may reach this use.
func (sb *SRGBuilder) Read(block *BasicBlock, ds DefSite) []dgraph.NodeID {
	defs, _ := sb.readVariable(block, block, ds.Target, ds.Interval(), offset.NewDisjointIntervalSet(), false)
	return dedupeNodeIDs(defs)
}

// readVariable is the guarded recursive core of Read (RecordStrongDefinition
// does not call it). entered distinguishes the initial call (block ==
// startBlock trivially) from a later recursion that has cycled back to
// startBlock — spec §9's open question: the source guards non-termination
// on irreducible CFGs with unknown-offset defs by checking "current block
// == start block"; once that happens a second time within one Read
// call, recursion stops and the remaining range is left unresolved rather
// than looping forever. This is a documented soundness over-approximation,
// not a precision bug: a caller that needs the missed range treated as
// reachable should widen to Unknown itself.
func (sb *SRGBuilder) readVariable(startBlock, block *BasicBlock, target dgraph.NodeID, interval offset.Interval, covered *offset.DisjointIntervalSet, entered bool) ([]dgraph.NodeID, bool) {
	if entered && block == startBlock {
		return nil, false
	}

	im := block.definitionsFor(target)
	values, newCovered, isCovered := im.Collect(interval, covered)
	if isCovered {
		return values, true
	}

	switch len(block.Preds) {
	case 0:
		return values, false
	case 1:
		more, _ := sb.readVariable(startBlock, block.Preds[0], target, interval, newCovered, true)
		return append(values, more...), false
	default:
		phi := sb.materializePhi(block, target, interval)
		var operands []dgraph.NodeID
		for _, pred := range block.Preds {
			predDefs, _ := sb.readVariable(startBlock, pred, target, interval, offset.NewDisjointIntervalSet(), true)
			operands = append(operands, predDefs...)
		}
		sb.setPhiOperands(phi, dedupeNodeIDs(operands))
		return append(values, phi), true
	}
}

// materializePhi creates a Phi RDNode in block and immediately records it as
// block's own strong definition for interval, so a second use within the
// same block sees the already-materialised phi instead of recursing again.
func (sb *SRGBuilder) materializePhi(block *BasicBlock, target dgraph.NodeID, interval offset.Interval) dgraph.NodeID {
	phi := sb.Graph.createNode(Phi)
	block.addNode(sb.Graph, phi)
	sb.Graph.Node(phi).AddDefine(NewDefSite(target, interval.Start, interval.Len))
	im := block.definitionsFor(target)
	im.KillOverlapping(interval)
	im.Add(interval, phi)
	sb.incompletePhis[phi] = incompletePhi{block: block, target: target, interval: interval}
	return phi
}

func (sb *SRGBuilder) setPhiOperands(phi dgraph.NodeID, operands []dgraph.NodeID) {
	n := sb.Graph.Node(phi)
	for _, op := range operands {
		if op == phi {
			continue // a phi is never wired as its own operand
		}
		dgraph.AddOperand(&n.Base, &sb.Graph.Node(op).Base)
	}
	delete(sb.incompletePhis, phi)
}

// RemoveTrivialPhis implements spec §8 property 5: a global pass over every
// Phi node still reachable; a phi whose non-self operands are all equal to
// one value is redundant and is replaced by that value everywhere it is
// used, with its users re-examined since removing it can make one of them
// trivial in turn (the classic cascading trivial-phi elimination of
// minimal SSA construction).
func (sb *SRGBuilder) RemoveTrivialPhis() {
	worklist := make([]dgraph.NodeID, 0)
	for _, id := range sb.Graph.AllNodeIDs() {
		if sb.Graph.Node(id).Tag == Phi {
			worklist = append(worklist, id)
		}
	}
	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		n := sb.Graph.Node(id)
		if n.Tag != Phi {
			continue // already replaced by an earlier iteration
		}
		same, trivial := trivialOperand(id, n.Operands())
		if !trivial {
			continue
		}
		users := append([]dgraph.NodeID(nil), n.Users()...)
		sb.replacePhi(id, same)
		for _, u := range users {
			if sb.Graph.Node(u).Tag == Phi {
				worklist = append(worklist, u)
			}
		}
	}
}

// trivialOperand reports whether phi's operands (excluding any self-
// reference) are all the same node, and if so, which one. A phi with zero
// non-self operands (unreachable from any real definition) is also
// considered trivial, collapsing to the sentinel zero id — callers must
// check the returned id against dgraph.Sentinel before using it.
func trivialOperand(phi dgraph.NodeID, operands []dgraph.NodeID) (dgraph.NodeID, bool) {
	var same dgraph.NodeID
	for _, op := range operands {
		if op == phi {
			continue
		}
		if same == dgraph.Sentinel {
			same = op
			continue
		}
		if op != same {
			return 0, false
		}
	}
	return same, true
}

// replacePhi rewires every user of phi to use replacement instead (or drops
// the operand entirely if replacement is the sentinel, i.e. phi had no real
// operand), then removes phi's own operand edges.
func (sb *SRGBuilder) replacePhi(phi, replacement dgraph.NodeID) {
	phiNode := sb.Graph.Node(phi)
	for _, u := range append([]dgraph.NodeID(nil), phiNode.Users()...) {
		userNode := sb.Graph.Node(u)
		dgraph.RemoveOperand(&userNode.Base, &phiNode.Base)
		if replacement != dgraph.Sentinel {
			dgraph.AddOperand(&userNode.Base, &sb.Graph.Node(replacement).Base)
		}
	}
	for _, op := range append([]dgraph.NodeID(nil), phiNode.Operands()...) {
		dgraph.RemoveOperand(&phiNode.Base, &sb.Graph.Node(op).Base)
	}
}

func dedupeNodeIDs(ids []dgraph.NodeID) []dgraph.NodeID {
	seen := make(map[dgraph.NodeID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
