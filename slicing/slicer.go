package slicing

import (
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
)

// RemoveBlockHook may veto removing a block whose every node was left
// unmarked by a prior Mark call. Returning true keeps the block (and every
// node inside it) regardless of slice id.
type RemoveBlockHook func(b *Block) (veto bool)

// RemoveNodeHook may veto removing a single unmarked node inside a
// surviving block.
type RemoveNodeHook func(n *Node) (veto bool)

// Statistics accumulates counts across one Slice call. RunID lets an
// embedding tool correlate RemoveBlockHook/RemoveNodeHook invocations (and
// any .dot dump taken before/after) across a batch of slicing runs, since
// node and block ids are reused across different graphs and aren't
// globally unique on their own.
type Statistics struct {
	RunID         uuid.UUID
	NodesTotal    int
	NodesRemoved  int
	BlocksRemoved int
}

// Slicer removes every node and block left unmarked by a prior Mark call,
// per spec §4.8. It sweeps each subgraph at most once over its lifetime: a
// later Slice call on an already-swept subgraph removes nothing. It does
// not follow call sites into other subgraphs.
type Slicer struct {
	Graph       *Graph
	RemoveBlock RemoveBlockHook
	RemoveNode  RemoveNodeHook

	metrics *sliceMetrics
	visited map[SubgraphID]bool
}

// NewSlicer returns a Slicer over graph. If registry is non-nil, the
// slicer's node/block removal counters (cumulative across runs) are
// registered on it so a
// long-running embedding service can export slicing progress; pass nil to
// skip metrics entirely.
func NewSlicer(graph *Graph, registry *prometheus.Registry) *Slicer {
	s := &Slicer{Graph: graph, visited: make(map[SubgraphID]bool)}
	if registry != nil {
		s.metrics = newSliceMetrics(registry)
	}
	return s
}

type sliceMetrics struct {
	nodesRemoved  prometheus.Counter
	blocksRemoved prometheus.Counter
}

func newSliceMetrics(registry *prometheus.Registry) *sliceMetrics {
	m := &sliceMetrics{
		nodesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdg",
			Subsystem: "slicer",
			Name:      "nodes_removed_total",
			Help:      "Nodes deleted by Slice across all runs.",
		}),
		blocksRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pdg",
			Subsystem: "slicer",
			Name:      "blocks_removed_total",
			Help:      "Blocks deleted by Slice across all runs.",
		}),
	}
	registry.MustRegister(m.nodesRemoved, m.blocksRemoved)
	return m
}

// Slice removes every node/block of sg not tagged sliceID and returns the
// run's statistics. It sweeps sg's own blocks only: it does not recurse into
// any other subgraph, so a caller drives Slice once per subgraph it wants
// swept. A subgraph this Slicer has already swept is skipped.
func (s *Slicer) Slice(sg *Subgraph, sliceID uint64) Statistics {
	stats := Statistics{RunID: uuid.New()}
	s.sliceSubgraph(sg, sliceID, &stats)
	return stats
}

func (s *Slicer) sliceSubgraph(sg *Subgraph, sliceID uint64, stats *Statistics) {
	if s.visited[sg.ID] {
		return
	}
	s.visited[sg.ID] = true

	blocks := append([]*Block(nil), sg.Blocks...)
	for _, b := range blocks {
		stats.NodesTotal += len(b.Nodes)
	}

	s.blockSweep(sg, sliceID, stats)
	s.nodeSweep(sg, sliceID, stats)
}

// blockSweep implements spec §4.8's block sweep: every block whose slice id
// != sliceID is a removal candidate; RemoveBlock may veto; if not vetoed,
// the block is unlinked from its structural predecessors/successors
// (patching each survivor's edge list to route around it) and its
// instructions are deleted from the graph.
func (s *Slicer) blockSweep(sg *Subgraph, sliceID uint64, stats *Statistics) {
	var kept []*Block
	for _, b := range sg.Blocks {
		if b.SliceID == sliceID {
			kept = append(kept, b)
			continue
		}
		if s.RemoveBlock != nil && s.RemoveBlock(b) {
			kept = append(kept, b)
			continue
		}
		s.unlinkBlock(b)
		stats.NodesRemoved += len(b.Nodes)
		stats.BlocksRemoved++
		if s.metrics != nil {
			s.metrics.nodesRemoved.Add(float64(len(b.Nodes)))
			s.metrics.blocksRemoved.Inc()
		}
	}
	sg.Blocks = kept
}

func (s *Slicer) unlinkBlock(b *Block) {
	for _, pred := range b.Preds {
		pred.Succs = removeBlock(pred.Succs, b)
		for _, succ := range b.Succs {
			pred.Succs = appendBlockUnique(pred.Succs, succ)
		}
	}
	for _, succ := range b.Succs {
		succ.Preds = removeBlock(succ.Preds, b)
		for _, pred := range b.Preds {
			succ.Preds = appendBlockUnique(succ.Preds, pred)
		}
	}
	for _, id := range b.Nodes {
		s.Graph.Node(id).Block = nil
		s.Graph.nodes[id] = nil
	}
	b.Preds, b.Succs, b.Nodes = nil, nil, nil
}

// nodeSweep implements spec §4.8's node sweep: inside every surviving
// block, delete nodes whose slice id != sliceID; RemoveNode may veto.
func (s *Slicer) nodeSweep(sg *Subgraph, sliceID uint64, stats *Statistics) {
	for _, b := range sg.Blocks {
		var kept []NodeID
		for _, id := range b.Nodes {
			n := s.Graph.Node(id)
			if n.SliceID == sliceID {
				kept = append(kept, id)
				continue
			}
			if s.RemoveNode != nil && s.RemoveNode(n) {
				kept = append(kept, id)
				continue
			}
			s.Graph.nodes[id] = nil
			stats.NodesRemoved++
			if s.metrics != nil {
				s.metrics.nodesRemoved.Inc()
			}
		}
		b.Nodes = kept
	}
}

func removeBlock(blocks []*Block, target *Block) []*Block {
	out := blocks[:0]
	for _, b := range blocks {
		if b != target {
			out = append(out, b)
		}
	}
	return out
}

func appendBlockUnique(blocks []*Block, b *Block) []*Block {
	for _, existing := range blocks {
		if existing == b {
			return blocks
		}
	}
	return append(blocks, b)
}
