package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseItems(t *testing.T, src string) ([]Item, *DiagnosticBag) {
	t.Helper()
	bag := &DiagnosticBag{}
	lx := NewLexer([]byte(src), bag)
	toks := lx.Tokenize()
	p := NewParser([]byte(src), toks, bag)
	f := p.ParseFile()
	require.False(t, bag.HasErrors(), "fixture must parse cleanly: %v", bag.Items())
	return f.Items, bag
}

func TestResolverCatchesUndefinedNameWithSuggestion(t *testing.T) {
	items, _ := parseItems(t, `
		fn main() -> i32 {
			let coutn: i32 = 0;
			return count;
		}
	`)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)

	require.True(t, bag.HasErrors())
	assert.Contains(t, bag.Items()[0].Message, "did you mean \"coutn\"")
}

func TestResolverCatchesDuplicateTopLevelName(t *testing.T) {
	items, _ := parseItems(t, `
		fn dup() -> i32 { return 0; }
		struct dup { x: i32; }
	`)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)

	require.True(t, bag.HasErrors())
	assert.Equal(t, "resolve-duplicate-name", bag.Items()[0].Code)
}

func TestResolverAllowsForwardReference(t *testing.T) {
	items, _ := parseItems(t, `
		fn a() -> i32 { return b(); }
		fn b() -> i32 { return 0; }
	`)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)

	assert.False(t, bag.HasErrors())
}

func TestResolverFlagsBreakOutsideLoop(t *testing.T) {
	items, _ := parseItems(t, `
		fn a() -> i32 {
			break;
			return 0;
		}
	`)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)

	require.True(t, bag.HasErrors())
	assert.Equal(t, "resolve-break-outside-loop", bag.Items()[0].Code)
}

func TestResolverFlagsLetShadowingParameter(t *testing.T) {
	items, _ := parseItems(t, `
		fn a(x: i32) -> i32 {
			let x: i32 = 1;
			return x;
		}
	`)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)

	require.True(t, bag.HasErrors())
	assert.Equal(t, "resolve-duplicate-name", bag.Items()[0].Code)
}

func TestResolverChecksEnumVariant(t *testing.T) {
	items, _ := parseItems(t, `
		enum Color { Red, Green, Blue }
		fn a() -> i32 {
			let c: Color = Color::Purple;
			return 0;
		}
	`)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)

	require.True(t, bag.HasErrors())
	assert.Equal(t, "resolve-unknown-variant", bag.Items()[0].Code)
}
