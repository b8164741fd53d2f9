package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLabel_StripsExtensionAndCleans(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"src/app.ts", "src/app"},
		{"./src/app.ts", "src/app"},
		{"src\\pkg\\util.py", "src/pkg/util"},
		{"src/./app.js", "src/app"},
		{"a/b/../c.rb", "a/c"},
		{"main.go", "main"},
		{"README.md", "README.md"}, // not a source extension
		{"src/app.test.ts", "src/app.test"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeLabel(tc.in), "input: %s", tc.in)
	}
}

func TestRelLabel_AbsoluteUnderRoot(t *testing.T) {
	assert.Equal(t, "src/app", RelLabel("/work", "/work/src/app.ts"))
	// Outside the root: passes through unchanged.
	assert.Equal(t, "/other/app", RelLabel("/work", "/other/app.ts"))
	// Already relative.
	assert.Equal(t, "src/app", RelLabel("/work", "src/app.ts"))
}

func TestNodeIDs(t *testing.T) {
	assert.Equal(t, "mod:src/app", ModuleID("src/app"))
	assert.Equal(t, "cls:src/app#Foo", ClassID("src/app", "Foo"))
	assert.Equal(t, "fn:src/app#Foo.bar@12", FuncID("src/app", "Foo.bar", 12))
}

func TestNode_Ghost(t *testing.T) {
	ghost := NewGhostModule("lib/missing")
	assert.True(t, ghost.Ghost())
	assert.True(t, ghost.Collapsed)

	real := NewModuleNode("src/app", "/work/src/app.ts")
	assert.False(t, real.Ghost())

	fn := Node{ID: "fn:a#f@0", Kind: KindFunc, Label: "f"}
	assert.False(t, fn.Ghost())
}

func TestNode_SimpleName(t *testing.T) {
	assert.Equal(t, "bar", Node{Label: "Foo.bar"}.SimpleName())
	assert.Equal(t, "baz", Node{Label: "baz"}.SimpleName())
}

func TestParseResult_ModuleNode(t *testing.T) {
	res := &ParseResult{
		Label: "src/app",
		Nodes: []Node{
			NewModuleNode("src/app", "src/app.ts"),
			NewGhostModule("src/util"),
			{ID: "fn:src/app#f@1", Kind: KindFunc, Label: "f"},
		},
	}

	m := res.ModuleNode()
	assert.NotNil(t, m)
	assert.Equal(t, "mod:src/app", m.ID)

	// Mutations through the pointer land on the slice element.
	m.LSPStatus = StatusOK
	assert.Equal(t, StatusOK, res.Nodes[0].LSPStatus)

	assert.Len(t, res.FuncNodes(), 1)
}
