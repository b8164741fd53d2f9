package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mapstone/codegraph/internal/provider"
)

// DefaultEdgeCap bounds the call edges emitted in one resolution pass, to
// contain pathological fan-out.
const DefaultEdgeCap = 200

// posKey identifies one call-hierarchy query by exact declaration position.
type posKey struct {
	label string
	line  int
	col   int
}

// ResolveStats makes cap truncation observable: Total counts every resolved
// call edge, Emitted how many survived the cap.
type ResolveStats struct {
	Total   int `json:"total"`
	Emitted int `json:"emitted"`
}

// Truncated reports whether the edge cap dropped results.
func (s ResolveStats) Truncated() bool {
	return s.Total > s.Emitted
}

// CrossFileResolver adds inter-file call edges for a freshly parsed file by
// querying the provider's call hierarchy and matching targets against the
// ParseIndex. Raw query results are cached per declaration position so
// re-resolving unrelated files in the same session does not re-issue
// identical provider queries; cached entries are re-validated against the
// current index on every lookup, so stale hits resolve to nothing rather
// than to dead nodes.
type CrossFileResolver struct {
	client       provider.Client
	index        *ParseIndex
	root         string
	edgeCap      int
	queryTimeout time.Duration

	mu          sync.Mutex
	cache       map[posKey][]provider.OutgoingCall
	unsupported bool // set once the provider reports a capability gap
}

// ResolverOption configures a CrossFileResolver.
type ResolverOption func(*CrossFileResolver)

// WithEdgeCap overrides the per-pass emitted edge ceiling.
func WithEdgeCap(n int) ResolverOption {
	return func(r *CrossFileResolver) {
		if n > 0 {
			r.edgeCap = n
		}
	}
}

// WithQueryTimeout bounds each call-hierarchy query.
func WithQueryTimeout(d time.Duration) ResolverOption {
	return func(r *CrossFileResolver) {
		if d > 0 {
			r.queryTimeout = d
		}
	}
}

// NewCrossFileResolver creates a resolver over the given client and index.
func NewCrossFileResolver(client provider.Client, index *ParseIndex, root string, opts ...ResolverOption) *CrossFileResolver {
	r := &CrossFileResolver{
		client:       client,
		index:        index,
		root:         root,
		edgeCap:      DefaultEdgeCap,
		queryTimeout: DefaultCallQueryTimeout,
		cache:        make(map[posKey][]provider.OutgoingCall),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve computes inter-file call edges for the file stored under label.
// Every emitted edge's target is a func node currently present in the
// ParseIndex. Capability gaps and per-query failures yield fewer edges, not
// errors.
func (r *CrossFileResolver) Resolve(ctx context.Context, label string) ([]Edge, ResolveStats) {
	var stats ResolveStats

	res := r.index.Get(label)
	if res == nil || r.capabilityGap() {
		return nil, stats
	}

	var edges []Edge
	seen := make(map[string]bool)

	for _, fn := range res.FuncNodes() {
		calls, ok := r.outgoingCalls(ctx, res, fn)
		if !ok {
			return edges, stats
		}

		for _, call := range calls {
			targetLabel := RelLabel(r.root, call.TargetFile)
			if targetLabel == label {
				continue // same-file edges come from the mapper
			}

			candidates := r.index.LookupFuncs(targetLabel, call.TargetName)
			target := nearestFunc(candidates, call.TargetName, call.TargetRange.Start.Line)
			if target == nil {
				continue
			}

			key := fn.ID + "→" + target.ID
			if seen[key] {
				continue
			}
			seen[key] = true

			stats.Total++
			if len(edges) >= r.edgeCap {
				continue // counted but not emitted
			}
			edges = append(edges, Edge{
				From:       fn.ID,
				To:         target.ID,
				Type:       EdgeCall,
				Provenance: ProvHierarchy,
				Confidence: 1,
			})
			stats.Emitted++
		}
	}

	return edges, stats
}

// outgoingCalls returns the raw call list for one function, consulting the
// positional cache first. ok is false when the provider lacks the
// call-hierarchy capability, which ends the pass.
func (r *CrossFileResolver) outgoingCalls(ctx context.Context, res *ParseResult, fn Node) ([]provider.OutgoingCall, bool) {
	key := posKey{label: res.Label, line: fn.Range.StartLine, col: fn.Range.StartCol}

	r.mu.Lock()
	cached, hit := r.cache[key]
	r.mu.Unlock()
	if hit {
		return cached, true
	}

	qctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	site, err := r.client.PrepareCallSite(qctx, res.FilePath, provider.Position{
		Line: fn.Range.StartLine,
		Col:  fn.Range.StartCol,
	})
	if errors.Is(err, provider.ErrUnsupported) {
		r.markUnsupported()
		return nil, false
	}
	if err != nil || site == nil {
		return nil, true
	}

	calls, err := r.client.OutgoingCalls(qctx, site)
	if errors.Is(err, provider.ErrUnsupported) {
		r.markUnsupported()
		return nil, false
	}
	if err != nil {
		return nil, true
	}

	r.mu.Lock()
	r.cache[key] = calls
	r.mu.Unlock()
	return calls, true
}

func (r *CrossFileResolver) markUnsupported() {
	r.mu.Lock()
	r.unsupported = true
	r.mu.Unlock()
}

func (r *CrossFileResolver) capabilityGap() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unsupported
}

// EvictFile drops cached query results positioned in the given file, so a
// re-parse after an edit cannot serve stale call lists.
func (r *CrossFileResolver) EvictFile(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.cache {
		if k.label == label {
			delete(r.cache, k)
		}
	}
}

// Reset clears the positional cache and the capability-gap latch. Called on
// session reset.
func (r *CrossFileResolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[posKey][]provider.OutgoingCall)
	r.unsupported = false
}
