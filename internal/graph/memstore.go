package graph

import (
	"context"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex;
// merges from concurrent batches commute.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string]Node
	edges map[edgeKey]Edge
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[string]Node),
		edges: make(map[edgeKey]Edge),
	}
}

// Merge unions the delta into the store under the additive contract.
func (m *MemStore) Merge(_ context.Context, delta Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range delta.Nodes {
		if existing, ok := m.nodes[n.ID]; ok {
			m.nodes[n.ID] = mergeNode(existing, n)
		} else {
			m.nodes[n.ID] = n
		}
	}

	for _, e := range delta.Edges {
		key := edgeKey{from: e.From, to: e.To, typ: e.Type}
		if existing, ok := m.edges[key]; !ok || e.Confidence >= existing.Confidence {
			m.edges[key] = e
		}
	}

	return nil
}

// RemoveFile deletes all nodes belonging to the file and every edge touching
// them.
func (m *MemStore) RemoveFile(_ context.Context, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := make(map[string]bool)
	for id := range m.nodes {
		if nodeBelongsTo(id, label) {
			removed[id] = true
			delete(m.nodes, id)
		}
	}
	for key := range m.edges {
		if removed[key.from] || removed[key.to] {
			delete(m.edges, key)
		}
	}
	return nil
}

// Reset drops everything.
func (m *MemStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes = make(map[string]Node)
	m.edges = make(map[edgeKey]Edge)
	return nil
}

// GetNode returns the node with the given id, or nil if not found.
func (m *MemStore) GetNode(_ context.Context, id string) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// QueryNodes returns nodes whose label contains query (case-insensitive),
// optionally filtered by kind, up to limit results. A limit <= 0 returns all
// matches.
func (m *MemStore) QueryNodes(_ context.Context, query string, kind NodeKind, limit int) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := strings.ToLower(query)
	var out []Node
	for _, n := range m.nodes {
		if kind != "" && n.Kind != kind {
			continue
		}
		if !strings.Contains(strings.ToLower(n.Label), lower) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// NodesByFile returns every node belonging to the given file label.
func (m *MemStore) NodesByFile(_ context.Context, label string) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Node
	for id, n := range m.nodes {
		if nodeBelongsTo(id, label) {
			out = append(out, n)
		}
	}
	return out, nil
}

// AllEdges returns a copy of all edges in the store.
func (m *MemStore) AllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Edge, 0, len(m.edges))
	for _, e := range m.edges {
		out = append(out, e)
	}
	return out, nil
}

// Dependencies performs a BFS over edges from nodeID in the given direction.
func (m *MemStore) Dependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	edges, err := m.AllEdges(ctx)
	if err != nil {
		return nil, err
	}
	return bfsChains(edges, nodeID, direction, maxDepth), nil
}

// Stats returns counts of all node and edge types in the graph.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &Stats{}
	for _, n := range m.nodes {
		switch n.Kind {
		case KindModule:
			stats.Modules++
		case KindClass:
			stats.Classes++
		case KindFunc:
			stats.Funcs++
		}
	}
	for _, e := range m.edges {
		switch e.Type {
		case EdgeImport:
			stats.ImportEdges++
		case EdgeCall:
			stats.CallEdges++
		}
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
