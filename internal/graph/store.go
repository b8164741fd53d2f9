package graph

import (
	"context"
	"io"
	"strings"
)

// Store is the interface for a graph backend that consumes deltas from the
// import pipeline. Implementations: MemStore (in-memory, default) and
// KuzuStore (persistent, cgo).
//
// Merge is additive: nodes and edges are unioned by id. An existing node's
// fields are never replaced wholesale; status fields (lspStatus,
// heuristicCalls) are refreshed on re-merge, and a ghost module is upgraded
// in place when the real file arrives.
type Store interface {
	io.Closer

	Merge(ctx context.Context, delta Delta) error
	RemoveFile(ctx context.Context, label string) error
	Reset(ctx context.Context) error

	GetNode(ctx context.Context, id string) (*Node, error)
	QueryNodes(ctx context.Context, query string, kind NodeKind, limit int) ([]Node, error)
	NodesByFile(ctx context.Context, label string) ([]Node, error)
	AllEdges(ctx context.Context) ([]Edge, error)

	Dependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error)
	Stats(ctx context.Context) (*Stats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this depend on?
	DirectionDownstream Direction = "downstream" // what depends on this?
)

// DependencyChain is an ordered sequence of node ids forming one dependency
// path.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// StoreSink adapts a Store to the DeltaSink interface used by the importer.
type StoreSink struct {
	Store Store
}

// Emit merges the delta into the backing store.
func (s StoreSink) Emit(delta Delta) error {
	return s.Store.Merge(context.Background(), delta)
}

// nodeBelongsTo reports whether a node id encodes the given file label.
func nodeBelongsTo(id, label string) bool {
	switch {
	case strings.HasPrefix(id, "mod:"):
		return id == ModuleID(label)
	case strings.HasPrefix(id, "cls:"):
		return strings.HasPrefix(id, "cls:"+label+"#")
	case strings.HasPrefix(id, "fn:"):
		return strings.HasPrefix(id, "fn:"+label+"#")
	}
	return false
}

// mergeNode applies the union contract to one node: fill fields the existing
// node lacks, always refresh module status fields from a real (non-ghost)
// incoming module, and upgrade ghosts wholesale when the real module shows
// up. Ghost arrivals never degrade an existing real node.
func mergeNode(existing, incoming Node) Node {
	if incoming.Kind == KindModule {
		if existing.Ghost() && !incoming.Ghost() {
			return incoming
		}
		if incoming.Ghost() {
			return existing
		}
		merged := existing
		merged.LSPStatus = incoming.LSPStatus
		merged.HeuristicCalls = incoming.HeuristicCalls
		merged.Collapsed = incoming.Collapsed
		if incoming.SourceText != "" {
			merged.SourceText = incoming.SourceText
		}
		if incoming.FilePath != "" {
			merged.FilePath = incoming.FilePath
		}
		return merged
	}

	merged := existing
	if merged.ParentID == "" {
		merged.ParentID = incoming.ParentID
	}
	if merged.SourceText == "" {
		merged.SourceText = incoming.SourceText
	}
	merged.Range = incoming.Range
	return merged
}

// edgeKey identifies an edge for union purposes.
type edgeKey struct {
	from string
	to   string
	typ  EdgeType
}

// bfsChains walks edges from nodeID in the given direction up to maxDepth
// hops and returns one chain per reachable node. Shared by both store
// implementations.
func bfsChains(edges []Edge, nodeID string, direction Direction, maxDepth int) []DependencyChain {
	if maxDepth <= 0 {
		return nil
	}

	type entry struct {
		id   string
		path []string
	}

	neighbors := func(id string) []string {
		var out []string
		for _, e := range edges {
			switch direction {
			case DirectionDownstream:
				if e.From == id {
					out = append(out, e.To)
				}
			case DirectionUpstream:
				if e.To == id {
					out = append(out, e.From)
				}
			}
		}
		return out
	}

	visited := map[string]bool{nodeID: true}
	queue := []entry{{id: nodeID, path: []string{nodeID}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []entry
		for _, e := range queue {
			for _, nb := range neighbors(e.id) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				p := make([]string, len(e.path), len(e.path)+1)
				copy(p, e.path)
				p = append(p, nb)
				chains = append(chains, DependencyChain{Nodes: p, Depth: len(p) - 1})
				next = append(next, entry{id: nb, path: p})
			}
		}
		queue = next
	}

	return chains
}
