package graph

import "sync"

// ParseIndex is the in-memory map from module label to the file's latest
// parse result. It backs cross-file resolution and invalidation. Entries are
// replaced wholesale on re-parse and deleted on eviction; mutation happens
// only at merge points, guarded here.
type ParseIndex struct {
	mu      sync.RWMutex
	results map[string]*ParseResult
}

// NewParseIndex returns an empty index.
func NewParseIndex() *ParseIndex {
	return &ParseIndex{
		results: make(map[string]*ParseResult),
	}
}

// Put stores the latest result for its label, replacing any previous entry.
func (x *ParseIndex) Put(res *ParseResult) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.results[res.Label] = res
}

// Get returns the latest result for a label, or nil.
func (x *ParseIndex) Get(label string) *ParseResult {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.results[label]
}

// Delete removes the entry for a label.
func (x *ParseIndex) Delete(label string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	delete(x.results, label)
}

// Reset drops all entries.
func (x *ParseIndex) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.results = make(map[string]*ParseResult)
}

// Len returns the number of indexed files.
func (x *ParseIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.results)
}

// Labels returns all indexed module labels.
func (x *ParseIndex) Labels() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make([]string, 0, len(x.results))
	for l := range x.results {
		out = append(out, l)
	}
	return out
}

// LookupFuncs returns the func nodes of the given file whose simple name
// matches. Cross-file resolution uses this as its workspace-wide
// (file, simpleName) index; a hit guarantees the target is currently known.
func (x *ParseIndex) LookupFuncs(label, simpleName string) []Node {
	x.mu.RLock()
	res := x.results[label]
	x.mu.RUnlock()
	if res == nil {
		return nil
	}

	var out []Node
	for _, n := range res.Nodes {
		if n.Kind == KindFunc && n.SimpleName() == simpleName {
			out = append(out, n)
		}
	}
	return out
}
