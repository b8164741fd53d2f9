package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mapstone/codegraph/internal/provider"
)

// slowClient blocks in DocumentSymbols until its context expires.
type slowClient struct{ fakeClient }

func (s *slowClient) DocumentSymbols(ctx context.Context, _ string, _ []byte) ([]provider.Symbol, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTieredParser_ProviderDownFallsBack(t *testing.T) {
	client := &fakeClient{symbolsErr: errors.New("dial tcp: connection refused")}
	m := NewMapper(client, NewStripper(), "")
	p := NewTieredParser(m, NewStripper())

	src := []byte("from .util import helper\n\ndef f():\n    pass\n")
	res := p.Parse(context.Background(), "src/a.py", "src/a.py", src)

	assert.Equal(t, StatusNoLSP, res.Status)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, SeverityWarn, res.Diagnostics[0].Severity)

	module := res.ModuleNode()
	require.NotNil(t, module)
	assert.Equal(t, StatusNoLSP, module.LSPStatus)
	assert.Equal(t, string(src), module.SourceText)

	// Import edges survive provider loss.
	require.Len(t, res.Edges, 1)
	assert.Equal(t, "mod:src/util", res.Edges[0].To)

	// Func nodes do not: the fallback tier emits module and ghosts only.
	assert.Empty(t, res.FuncNodes())

	ghosts := 0
	for _, n := range res.Nodes {
		if n.Ghost() {
			ghosts++
		}
	}
	assert.Equal(t, 1, ghosts)
}

func TestTieredParser_DeadlineExpiryFallsBack(t *testing.T) {
	m := NewMapper(&slowClient{}, NewStripper(), "")
	p := NewTieredParser(m, NewStripper(), WithSymbolDeadline(10*time.Millisecond))

	start := time.Now()
	res := p.Parse(context.Background(), "a.py", "a.py", []byte("x = 1\n"))
	assert.Less(t, time.Since(start), 2*time.Second)

	assert.Equal(t, StatusNoLSP, res.Status)
	require.Len(t, res.Diagnostics, 1)
	assert.Contains(t, res.Diagnostics[0].Message, "deadline")
}

func TestTieredParser_HealthyProvider(t *testing.T) {
	client := &fakeClient{symbols: map[string][]provider.Symbol{
		"src/b.ts": {sym("go", provider.SymFunction, 2)},
	}}
	m := NewMapper(client, NewStripper(), "")
	p := NewTieredParser(m, NewStripper())

	src := []byte("import { x } from './util';\n\nconst go = () => x;\n")
	res := p.Parse(context.Background(), "src/b.ts", "src/b.ts", src)

	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, StatusOK, res.ModuleNode().LSPStatus)
	assert.Len(t, res.FuncNodes(), 1)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, EdgeImport, res.Edges[0].Type)
}

func TestTieredParser_ImportModeOff(t *testing.T) {
	client := &fakeClient{}
	m := NewMapper(client, NewStripper(), "")
	p := NewTieredParser(m, NewStripper(), WithImportMode(ImportsOff))

	res := p.Parse(context.Background(), "a.ts", "a.ts", []byte("import { x } from './y';\n"))
	assert.Empty(t, res.Edges)
}

func TestTieredParser_AlwaysYieldsModule(t *testing.T) {
	client := &fakeClient{}
	m := NewMapper(client, NewStripper(), "")
	p := NewTieredParser(m, NewStripper())

	res := p.Parse(context.Background(), "empty.txt", "empty.txt", nil)
	require.NotNil(t, res.ModuleNode())
	assert.Equal(t, "mod:empty.txt", res.ModuleNode().ID)
}
