package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mapstone/codegraph/internal/graph"
)

// DefaultBatchSize bounds concurrency per batch. Small enough to cap open
// provider requests, large enough to overlap I/O latency.
const DefaultBatchSize = 8

// DefaultMaxFiles caps how many matched files a single import processes.
const DefaultMaxFiles = 500

// Summary tallies the outcome of an import run. Found counts every file the
// root expansion matched; Imported counts those actually processed after the
// cap. Each processed file lands in exactly one status bucket.
type Summary struct {
	Found    int `json:"found"`
	Imported int `json:"imported"`

	OK        int `json:"ok"`
	Partial   int `json:"partial"`
	NoLSP     int `json:"nolsp"`
	Failed    int `json:"failed"`
	Unchanged int `json:"unchanged"`

	SkippedBySize    int `json:"skippedBySize"`
	SkippedByExt     int `json:"skippedByExt"`
	SkippedByPattern int `json:"skippedByPattern"`
}

// String renders the summary the way the CLI prints it.
func (s *Summary) String() string {
	return fmt.Sprintf("found %d, imported %d (ok %d, partial %d, nolsp %d, failed %d, unchanged %d, skipped %d)",
		s.Found, s.Imported, s.OK, s.Partial, s.NoLSP, s.Failed, s.Unchanged,
		s.SkippedBySize+s.SkippedByExt+s.SkippedByPattern)
}

// Importer drives files through the tiered parse pipeline in bounded
// concurrent batches and emits graph deltas to the sink. It owns the parse
// index, the fingerprint cache, and the cross-file resolver; the sink is the
// only downstream coupling.
type Importer struct {
	root     string
	parser   *graph.TieredParser
	resolver *graph.CrossFileResolver
	index    *graph.ParseIndex
	cache    *FingerprintCache
	filter   *FileFilter
	sink     graph.DeltaSink
	progress *ProgressReporter
	log      *slog.Logger

	batchSize int
	maxFiles  int

	mu      sync.Mutex
	batchID int
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithBatchSize overrides the per-batch concurrency bound.
func WithBatchSize(n int) ImporterOption {
	return func(im *Importer) {
		if n > 0 {
			im.batchSize = n
		}
	}
}

// WithMaxFiles overrides the default file cap for ImportMany.
func WithMaxFiles(n int) ImporterOption {
	return func(im *Importer) {
		if n > 0 {
			im.maxFiles = n
		}
	}
}

// WithFilter replaces the default file filter.
func WithFilter(f *FileFilter) ImporterOption {
	return func(im *Importer) {
		if f != nil {
			im.filter = f
		}
	}
}

// WithResolver enables cross-file call resolution after each file's parse.
// Without it, only same-file and import edges are emitted.
func WithResolver(r *graph.CrossFileResolver) ImporterOption {
	return func(im *Importer) {
		im.resolver = r
	}
}

// WithProgress attaches a progress reporter.
func WithProgress(pr *ProgressReporter) ImporterOption {
	return func(im *Importer) {
		im.progress = pr
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// NewImporter creates an Importer rooted at root. The parser and sink are
// required; everything else has a default.
func NewImporter(root string, parser *graph.TieredParser, index *graph.ParseIndex, sink graph.DeltaSink, opts ...ImporterOption) *Importer {
	im := &Importer{
		root:      root,
		parser:    parser,
		index:     index,
		cache:     NewFingerprintCache(),
		filter:    NewFileFilter(nil, nil),
		sink:      sink,
		log:       slog.Default(),
		batchSize: DefaultBatchSize,
		maxFiles:  DefaultMaxFiles,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Cache exposes the fingerprint cache, shared with eviction callers.
func (im *Importer) Cache() *FingerprintCache { return im.cache }

// candidate is one file that survived root expansion.
type candidate struct {
	rel string // slash-separated path relative to the workspace root
	abs string
}

// ImportMany expands the given roots, filters and caps the matched files,
// and processes them in concurrent batches. A nil or zero maxFiles uses the
// importer default. Per-file failures are tallied, never fatal; the returned
// error is non-nil only when the whole run was cancelled.
func (im *Importer) ImportMany(ctx context.Context, roots []string, maxFiles int) (*Summary, error) {
	if maxFiles <= 0 {
		maxFiles = im.maxFiles
	}
	summary := &Summary{}

	files, err := im.expandRoots(ctx, roots, summary)
	if err != nil {
		return summary, err
	}

	summary.Found = len(files)
	if len(files) > maxFiles {
		im.log.Warn("file cap reached", "found", len(files), "cap", maxFiles)
		files = files[:maxFiles]
	}
	summary.Imported = len(files)

	if err := im.runBatches(ctx, files, summary); err != nil {
		return summary, err
	}
	im.log.Info("import complete", "summary", summary.String())
	return summary, nil
}

// ImportOne pushes a single file through the pipeline as a one-file batch.
func (im *Importer) ImportOne(ctx context.Context, file string) error {
	abs, rel, err := im.resolvePath(file)
	if err != nil {
		return err
	}
	summary := &Summary{Found: 1, Imported: 1}
	if err := im.runBatches(ctx, []candidate{{rel: rel, abs: abs}}, summary); err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("import %s failed", file)
	}
	return nil
}

// Evict drops all pipeline state for a file: its fingerprint, its parse
// index entry, and the resolver's positional cache entries. It returns the
// file's label so callers can remove the nodes from their store as well.
func (im *Importer) Evict(file string) string {
	_, rel, err := im.resolvePath(file)
	if err != nil {
		rel = file
	}
	label := graph.NormalizeLabel(rel)
	im.cache.Evict(label)
	im.index.Delete(label)
	if im.resolver != nil {
		im.resolver.EvictFile(label)
	}
	return label
}

// ResetAll clears every piece of pipeline state for a fresh session.
func (im *Importer) ResetAll() {
	im.cache.Reset()
	im.index.Reset()
	if im.resolver != nil {
		im.resolver.Reset()
	}
}

// ---------- Root expansion ----------

func (im *Importer) resolvePath(file string) (abs, rel string, err error) {
	abs = file
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(im.root, file)
	}
	rel, err = filepath.Rel(im.root, abs)
	if err != nil || len(rel) >= 2 && rel[:2] == ".." {
		// Outside the workspace root; fall back to the base name.
		rel = filepath.Base(abs)
	}
	return abs, filepath.ToSlash(rel), nil
}

// expandRoots resolves files and directories into an ordered candidate list.
// Explicit files bypass the pattern filter but not the size/extension checks.
// Cancellation is checked before each directory recursion.
func (im *Importer) expandRoots(ctx context.Context, roots []string, summary *Summary) ([]candidate, error) {
	var out []candidate
	seen := make(map[string]bool)

	add := func(c candidate) {
		if !seen[c.rel] {
			seen[c.rel] = true
			out = append(out, c)
		}
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		abs, rel, err := im.resolvePath(root)
		if err != nil {
			return out, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			im.log.Warn("root not accessible", "path", root, "error", err)
			continue
		}

		if !info.IsDir() {
			switch im.filter.Check(rel, info) {
			case SkipExtension:
				summary.SkippedByExt++
			case SkipSize:
				summary.SkippedBySize++
			default:
				add(candidate{rel: rel, abs: abs})
			}
			continue
		}

		err = filepath.WalkDir(abs, func(p string, d os.DirEntry, werr error) error {
			if werr != nil {
				return nil // unreadable entries are skipped, not fatal
			}
			if d.IsDir() {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
				if p != abs && im.filter.SkipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}
			frel, rerr := filepath.Rel(im.root, p)
			if rerr != nil {
				return nil
			}
			frel = filepath.ToSlash(frel)
			finfo, ierr := d.Info()
			if ierr != nil {
				return nil
			}
			switch im.filter.Check(frel, finfo) {
			case SkipNone:
				add(candidate{rel: frel, abs: p})
			case SkipExtension:
				summary.SkippedByExt++
			case SkipPattern:
				summary.SkippedByPattern++
			case SkipSize:
				summary.SkippedBySize++
			}
			return nil
		})
		if err != nil {
			return out, err
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].rel < out[j].rel })
	return out, nil
}

// ---------- Batch processing ----------

// runBatches processes candidates in fixed-size concurrent batches. After
// each batch an end-of-batch delta and a processed/total progress event are
// emitted. Per-file errors are contained; the only error returned is
// cancellation.
func (im *Importer) runBatches(ctx context.Context, files []candidate, summary *Summary) error {
	total := len(files)
	processed := 0

	for start := 0; start < total; start += im.batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+im.batchSize, total)
		batch := files[start:end]
		id := im.nextBatchID()

		g, gctx := errgroup.WithContext(ctx)
		for _, c := range batch {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					im.tally(summary, func(s *Summary) { s.Failed++ })
					return nil
				}
				im.processFile(gctx, c, id, summary)
				return nil
			})
		}
		g.Wait() // workers never return errors; failures are tallied

		if err := im.sink.Emit(graph.Delta{BatchID: id, EndOfBatch: true}); err != nil {
			im.log.Warn("end-of-batch delta rejected", "batch", id, "error", err)
		}
		processed += len(batch)
		if im.progress != nil {
			im.progress.Emit(ProgressEvent{Processed: processed, Total: total})
		}
	}
	return nil
}

func (im *Importer) nextBatchID() string {
	im.mu.Lock()
	defer im.mu.Unlock()
	im.batchID++
	return fmt.Sprintf("batch-%d", im.batchID)
}

func (im *Importer) tally(summary *Summary, f func(*Summary)) {
	im.mu.Lock()
	defer im.mu.Unlock()
	f(summary)
}

// processFile runs one candidate through fingerprint check, parse, merge,
// and cross-file resolution. Every outcome lands in exactly one summary
// bucket.
func (im *Importer) processFile(ctx context.Context, c candidate, batchID string, summary *Summary) {
	text, err := os.ReadFile(c.abs)
	if err != nil {
		im.log.Warn("read failed", "file", c.rel, "error", err)
		im.tally(summary, func(s *Summary) { s.Failed++ })
		return
	}

	label := graph.NormalizeLabel(c.rel)
	hash := Fingerprint(text)
	if im.cache.Unchanged(label, hash) {
		im.tally(summary, func(s *Summary) { s.Unchanged++ })
		return
	}

	// Content changed: any previous result is stale, including cached
	// call-hierarchy answers keyed by positions in the old text.
	im.index.Delete(label)
	if im.resolver != nil {
		im.resolver.EvictFile(label)
	}

	res := im.parser.Parse(ctx, c.rel, c.abs, text)
	im.index.Put(res)

	if res.Status == graph.StatusNoLSP && im.cache.FirstAdvisory() {
		advisory := "symbol provider unavailable; falling back to heuristic extraction"
		im.log.Warn(advisory)
		if im.progress != nil {
			im.progress.Emit(ProgressEvent{Advisory: advisory})
		}
	}

	delta := graph.Delta{Nodes: res.Nodes, Edges: res.Edges, BatchID: batchID}
	if err := im.sink.Emit(delta); err != nil {
		// Without delivery the parse had no observable effect; keep the
		// fingerprint out of the cache so the next run retries.
		im.log.Warn("delta rejected", "file", c.rel, "error", err)
		im.index.Delete(label)
		im.tally(summary, func(s *Summary) { s.Failed++ })
		return
	}

	if im.resolver != nil {
		edges, stats := im.resolver.Resolve(ctx, label)
		if len(edges) > 0 {
			if err := im.sink.Emit(graph.Delta{Edges: edges, BatchID: batchID}); err != nil {
				im.log.Warn("resolver delta rejected", "file", c.rel, "error", err)
			}
		}
		if stats.Truncated() {
			im.log.Debug("call edges truncated", "file", c.rel,
				"total", stats.Total, "emitted", stats.Emitted)
		}
	}

	im.cache.Store(label, hash)
	im.tally(summary, func(s *Summary) {
		switch res.Status {
		case graph.StatusOK:
			s.OK++
		case graph.StatusPartial:
			s.Partial++
		case graph.StatusNoLSP:
			s.NoLSP++
		}
	})
}
