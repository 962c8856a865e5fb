package pointer

import (
	"github.com/progslice/pdg/dgraph"
	"github.com/progslice/pdg/memory"
)

// FlowInsensitiveEngine is the MemoryResolver for the cheapest of the three
// engine variants (spec §4.3): a single global MemoryMap, visible from every
// node regardless of control flow. No predecessor merging, no cloning —
// every Store and every Load read and write the same objects.
type FlowInsensitiveEngine struct {
	global *memory.Map
}

// NewFlowInsensitiveEngine returns a fresh flow-insensitive resolver.
func NewFlowInsensitiveEngine() *FlowInsensitiveEngine {
	return &FlowInsensitiveEngine{global: memory.NewMap()}
}

// GetMemoryObjects looks up target in the single global map, lazily
// installing an empty object for a writer that hasn't touched target yet.
// where is unused: there is only one MemoryMap, so every node observes the
// same state.
func (e *FlowInsensitiveEngine) GetMemoryObjects(a *Analysis, where, target dgraph.NodeID, isWriter bool) (*memory.Object, bool) {
	obj, ok := e.global.Get(target)
	if ok {
		return obj, true
	}
	if !isWriter {
		return nil, false
	}
	obj = memory.NewObject(target)
	e.global.Install(target, obj)
	return obj, true
}

// BeforeProcessed is a no-op: there is no per-node state to prepare.
func (e *FlowInsensitiveEngine) BeforeProcessed(a *Analysis, node dgraph.NodeID) {}

// AfterProcessed always reports false: the global map's own mutations are
// already reflected through GetMemoryObjects the next time any node reads
// it, so the driver never needs to re-enqueue CFG successors purely for
// memory-map propagation under this engine — only points-to changes (which
// processNode's own return value already captures) matter.
func (e *FlowInsensitiveEngine) AfterProcessed(a *Analysis, node dgraph.NodeID) bool {
	return false
}

// CanChangeMM always reports false: there is exactly one MemoryMap for the
// whole analysis: it is never installed afresh at any node.
func (e *FlowInsensitiveEngine) CanChangeMM(a *Analysis, node dgraph.NodeID) bool {
	return false
}
