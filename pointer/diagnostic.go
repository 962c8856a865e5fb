package pointer

import (
	"fmt"

	"github.com/progslice/pdg/dgraph"
)

// DiagnosticKind classifies a recoverable analysis-time condition (spec §7):
// these are never panics, since the driver must keep running to reach
// fixpoint even after one of these fires.
type DiagnosticKind int

const (
	// EmptyPointsToAtDeref: a load/store pointer operand resolved to a
	// target with no memory object and no zero-initialization to fall
	// back on (spec §7 kind 1).
	EmptyPointsToAtDeref DiagnosticKind = iota
	// Saturation: a points-to or RD set exceeded max_set_size and
	// collapsed (spec §7 kind 4).
	Saturation
	// SignatureMismatch: an indirect call's proposed (callsite, callee)
	// pair was rejected (spec §7 kind 5).
	SignatureMismatch
	// UnresolvedExternalCall: a call target has no known implementation
	// and no intrinsic handling.
	UnresolvedExternalCall
	// Invalidation: a reference to a freed or invalidated allocation was
	// rewritten to the Invalidated marker (spec §4.3). InvalidatedBy on the
	// Diagnostic records which Free/InvalidateObject/InvalidateLocals node
	// caused the rewrite.
	Invalidation
)

func (k DiagnosticKind) String() string {
	switch k {
	case EmptyPointsToAtDeref:
		return "empty points-to at dereference"
	case Saturation:
		return "saturation"
	case SignatureMismatch:
		return "signature mismatch"
	case UnresolvedExternalCall:
		return "unresolved external call"
	case Invalidation:
		return "invalidation"
	default:
		return "unknown"
	}
}

// Diagnostic is one recorded soundness warning or rejected construct.
type Diagnostic struct {
	Kind    DiagnosticKind
	Node    dgraph.NodeID
	Message string

	// InvalidatedBy names the Free/InvalidateObject/InvalidateLocals node
	// responsible for an Invalidation diagnostic. Zero (dgraph.Sentinel)
	// for every other kind.
	InvalidatedBy dgraph.NodeID
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("n%d: %s: %s", d.Node, d.Kind, d.Message)
}

func (a *Analysis) diagnose(kind DiagnosticKind, node dgraph.NodeID, format string, args ...any) {
	d := Diagnostic{Kind: kind, Node: node, Message: fmt.Sprintf(format, args...)}
	a.Diagnostics = append(a.Diagnostics, d)
	a.Log.Info("analysis diagnostic", "kind", kind.String(), "node", node, "message", d.Message)
}

// diagnoseInvalidation records an Invalidation diagnostic naming both the
// allocation that was invalidated and the Free/InvalidateObject/
// InvalidateLocals node responsible (spec §4.3, supplemented per
// original_source's PointerAnalysisFSInv).
func (a *Analysis) diagnoseInvalidation(invalidated, by dgraph.NodeID, format string, args ...any) {
	d := Diagnostic{Kind: Invalidation, Node: invalidated, InvalidatedBy: by, Message: fmt.Sprintf(format, args...)}
	a.Diagnostics = append(a.Diagnostics, d)
	a.Log.V(1).Info("invalidation", "invalidated", invalidated, "by", by, "message", d.Message)
}
