//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB, so an imported
// graph survives across sessions. Requires CGO because the go-kuzu driver
// wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (Store, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the leaf directory itself for new
// databases.
func NewKuzuFileStore(dbPath string) (Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	s := &KuzuStore{db: db, conn: conn}
	if err := s.initSchema(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema ----------

// ddlStatements defines the Cypher DDL. One node table covers all three
// kinds; relationship tables carry provenance and confidence.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS CodeNode(
		id STRING,
		kind STRING,
		label STRING,
		file_path STRING,
		parent_id STRING,
		lsp_status STRING,
		heuristic_calls BOOLEAN,
		collapsed BOOLEAN,
		source_text STRING,
		start_line INT64,
		end_line INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS IMPORTS(FROM CodeNode TO CodeNode, provenance STRING, confidence DOUBLE)`,
	`CREATE REL TABLE IF NOT EXISTS CALLS(FROM CodeNode TO CodeNode, provenance STRING, confidence DOUBLE)`,
}

func (s *KuzuStore) initSchema() error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// Merge unions the delta into the store. The ghost-upgrade and status
// refresh rules run client-side because Cypher cannot branch on the existing
// row's shape.
func (s *KuzuStore) Merge(ctx context.Context, delta Delta) error {
	for _, n := range delta.Nodes {
		existing, err := s.GetNode(ctx, n.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			if err := s.createNode(n); err != nil {
				return err
			}
			continue
		}
		if err := s.updateNode(mergeNode(*existing, n)); err != nil {
			return err
		}
	}

	for _, e := range delta.Edges {
		if err := s.mergeEdge(e); err != nil {
			return err
		}
	}
	return nil
}

func (s *KuzuStore) createNode(n Node) error {
	return s.exec(
		`CREATE (n:CodeNode {
			id: $id, kind: $kind, label: $label,
			file_path: $fp, parent_id: $parent,
			lsp_status: $status, heuristic_calls: $hc,
			collapsed: $collapsed, source_text: $src,
			start_line: $sl, end_line: $el
		})`,
		nodeParams(n),
	)
}

func (s *KuzuStore) updateNode(n Node) error {
	return s.exec(
		`MATCH (n:CodeNode {id: $id}) SET
			n.kind = $kind, n.label = $label,
			n.file_path = $fp, n.parent_id = $parent,
			n.lsp_status = $status, n.heuristic_calls = $hc,
			n.collapsed = $collapsed, n.source_text = $src,
			n.start_line = $sl, n.end_line = $el`,
		nodeParams(n),
	)
}

func nodeParams(n Node) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"kind":      string(n.Kind),
		"label":     n.Label,
		"fp":        n.FilePath,
		"parent":    n.ParentID,
		"status":    string(n.LSPStatus),
		"hc":        n.HeuristicCalls,
		"collapsed": n.Collapsed,
		"src":       n.SourceText,
		"sl":        int64(n.Range.StartLine),
		"el":        int64(n.Range.EndLine),
	}
}

func (s *KuzuStore) mergeEdge(e Edge) error {
	table, err := edgeTable(e.Type)
	if err != nil {
		return err
	}
	// A lower-confidence derivation never overwrites a higher one.
	cypher := fmt.Sprintf(
		`MATCH (a:CodeNode {id: $src})-[r:%s]->(b:CodeNode {id: $dst})
		 WHERE r.confidence > $conf RETURN r.confidence`, table)
	rows, err := s.query(cypher, map[string]any{
		"src": e.From, "dst": e.To, "conf": e.Confidence,
	})
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}

	cypher = fmt.Sprintf(
		`MATCH (a:CodeNode {id: $src}), (b:CodeNode {id: $dst})
		 MERGE (a)-[r:%s]->(b)
		 SET r.provenance = $prov, r.confidence = $conf`, table)
	return s.exec(cypher, map[string]any{
		"src":  e.From,
		"dst":  e.To,
		"prov": string(e.Provenance),
		"conf": e.Confidence,
	})
}

func edgeTable(t EdgeType) (string, error) {
	switch t {
	case EdgeImport:
		return "IMPORTS", nil
	case EdgeCall:
		return "CALLS", nil
	default:
		return "", fmt.Errorf("kuzu: unsupported edge type: %s", t)
	}
}

// RemoveFile deletes all nodes belonging to the file and their edges.
func (s *KuzuStore) RemoveFile(ctx context.Context, label string) error {
	// DETACH DELETE removes connected relationships with the node.
	for _, pattern := range []string{
		ModuleID(label),
		"cls:" + label + "#%",
		"fn:" + label + "#%",
	} {
		var err error
		if pattern == ModuleID(label) {
			err = s.exec(`MATCH (n:CodeNode {id: $id}) DETACH DELETE n`,
				map[string]any{"id": pattern})
		} else {
			prefix := pattern[:len(pattern)-1]
			err = s.exec(`MATCH (n:CodeNode) WHERE n.id STARTS WITH $prefix DETACH DELETE n`,
				map[string]any{"prefix": prefix})
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Reset drops all nodes and edges.
func (s *KuzuStore) Reset(_ context.Context) error {
	return s.exec(`MATCH (n:CodeNode) DETACH DELETE n`, nil)
}

// ---------- Read operations ----------

// GetNode retrieves a single node by id, or nil if not found.
func (s *KuzuStore) GetNode(_ context.Context, id string) (*Node, error) {
	rows, err := s.query(
		`MATCH (n:CodeNode {id: $id}) RETURN `+nodeColumns,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	n := rowToNode(rows[0])
	return &n, nil
}

// QueryNodes returns nodes whose label contains the query string.
func (s *KuzuStore) QueryNodes(_ context.Context, queryStr string, kind NodeKind, limit int) ([]Node, error) {
	if limit <= 0 {
		limit = 1000
	}
	cypher := `MATCH (n:CodeNode) WHERE n.label CONTAINS $q`
	params := map[string]any{"q": queryStr, "lim": int64(limit)}
	if kind != "" {
		cypher += ` AND n.kind = $kind`
		params["kind"] = string(kind)
	}
	cypher += ` RETURN ` + nodeColumns + ` LIMIT $lim`

	rows, err := s.query(cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToNode(r))
	}
	return out, nil
}

// NodesByFile returns every node belonging to the given file label.
func (s *KuzuStore) NodesByFile(_ context.Context, label string) ([]Node, error) {
	rows, err := s.query(
		`MATCH (n:CodeNode)
		 WHERE n.id = $mod OR n.id STARTS WITH $cls OR n.id STARTS WITH $fn
		 RETURN `+nodeColumns,
		map[string]any{
			"mod": ModuleID(label),
			"cls": "cls:" + label + "#",
			"fn":  "fn:" + label + "#",
		},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToNode(r))
	}
	return out, nil
}

// AllEdges returns all edges across both relationship tables.
func (s *KuzuStore) AllEdges(_ context.Context) ([]Edge, error) {
	type relQuery struct {
		cypher string
		typ    EdgeType
	}
	queries := []relQuery{
		{"MATCH (a:CodeNode)-[r:IMPORTS]->(b:CodeNode) RETURN a.id, b.id, r.provenance, r.confidence", EdgeImport},
		{"MATCH (a:CodeNode)-[r:CALLS]->(b:CodeNode) RETURN a.id, b.id, r.provenance, r.confidence", EdgeCall},
	}

	var edges []Edge
	for _, q := range queries {
		rows, err := s.query(q.cypher, nil)
		if err != nil {
			continue
		}
		for _, r := range rows {
			edges = append(edges, Edge{
				From:       toString(r[0]),
				To:         toString(r[1]),
				Type:       q.typ,
				Provenance: Provenance(toString(r[2])),
				Confidence: toFloat(r[3]),
			})
		}
	}
	return edges, nil
}

// Dependencies performs a BFS over the stored edges.
func (s *KuzuStore) Dependencies(ctx context.Context, nodeID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	edges, err := s.AllEdges(ctx)
	if err != nil {
		return nil, err
	}
	return bfsChains(edges, nodeID, direction, maxDepth), nil
}

// Stats returns counts per node kind and edge type.
func (s *KuzuStore) Stats(_ context.Context) (*Stats, error) {
	stats := &Stats{}

	rows, err := s.query(`MATCH (n:CodeNode) RETURN n.kind, count(n)`, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		switch NodeKind(toString(r[0])) {
		case KindModule:
			stats.Modules = toInt(r[1])
		case KindClass:
			stats.Classes = toInt(r[1])
		case KindFunc:
			stats.Funcs = toInt(r[1])
		}
	}

	stats.ImportEdges, _ = s.countEdges("IMPORTS")
	stats.CallEdges, _ = s.countEdges("CALLS")
	return stats, nil
}

func (s *KuzuStore) countEdges(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	rows, err := s.query(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// ---------- Internal helpers ----------

const nodeColumns = `n.id, n.kind, n.label, n.file_path, n.parent_id,
	n.lsp_status, n.heuristic_calls, n.collapsed, n.source_text,
	n.start_line, n.end_line`

func rowToNode(r []any) Node {
	return Node{
		ID:             toString(r[0]),
		Kind:           NodeKind(toString(r[1])),
		Label:          toString(r[2]),
		FilePath:       toString(r[3]),
		ParentID:       toString(r[4]),
		LSPStatus:      Status(toString(r[5])),
		HeuristicCalls: toBool(r[6]),
		Collapsed:      toBool(r[7]),
		SourceText:     toString(r[8]),
		Range: Range{
			StartLine: toInt(r[9]),
			EndLine:   toInt(r[10]),
		},
	}
}

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	if len(params) == 0 {
		res, err := s.conn.Query(cypher)
		if err != nil {
			return fmt.Errorf("kuzu: query: %w", err)
		}
		res.Close()
		return nil
	}

	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// ---------- Value coercion ----------

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
