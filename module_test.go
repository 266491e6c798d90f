package fastc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixtureLoader map[string]string

func (f fixtureLoader) Load(path []string) ([]byte, string, error) {
	key := joinPath(path)
	src, ok := f[key]
	if !ok {
		return nil, key, errors.New("no such module")
	}
	return []byte(src), key, nil
}

func TestModuleGraphResolvesUseOrder(t *testing.T) {
	loader := fixtureLoader{
		"geometry": `pub struct Point { x: i32; y: i32; }`,
	}
	bag := &DiagnosticBag{}
	g := NewModuleGraph(loader, bag)
	root := `use geometry; fn main() -> i32 { return 0; }`
	items := g.Resolve("main", []byte(root))

	require.False(t, bag.HasErrors())
	require.Len(t, items, 3) // UseDecl + StructDecl + FnDecl
	_, isStruct := items[0].(*StructDecl)
	assert.True(t, isStruct, "geometry's declarations should precede main's own")
}

func TestModuleGraphReportsMissingModule(t *testing.T) {
	bag := &DiagnosticBag{}
	g := NewModuleGraph(fixtureLoader{}, bag)
	g.Resolve("main", []byte(`use nope; fn main() -> i32 { return 0; }`))

	require.True(t, bag.HasErrors())
	assert.Equal(t, "parse-import-not-found", bag.Items()[0].Code)
}

func TestModuleGraphDetectsCycle(t *testing.T) {
	loader := fixtureLoader{
		"a": `use b;`,
		"b": `use a;`,
	}
	bag := &DiagnosticBag{}
	g := NewModuleGraph(loader, bag)
	g.Resolve("a", []byte(`use b;`))

	require.True(t, bag.HasErrors())
	found := false
	for _, d := range bag.Items() {
		if d.Code == "parse-import-cycle" {
			found = true
		}
	}
	assert.True(t, found, "expected a parse-import-cycle diagnostic")
}
