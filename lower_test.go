package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lowerSrc(t *testing.T, src string) *CFile {
	t.Helper()
	items, _ := parseItems(t, src)
	bag := &DiagnosticBag{}
	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)
	require.False(t, bag.HasErrors(), "resolver errors: %v", bag.Items())

	tc := NewTypeChecker(bag, r.Symbols())
	tc.ResolveNamedTypes(items)
	tc.CheckFunctions(items)
	require.False(t, bag.HasErrors(), "typecheck errors: %v", bag.Items())

	return NewLowerer(tc).LowerFile(items)
}

func TestLowerSimpleFunction(t *testing.T) {
	cfile := lowerSrc(t, `
		fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`)
	var fn *CFnDecl
	for _, d := range cfile.Decls {
		if f, ok := d.(*CFnDecl); ok {
			fn = f
		}
	}
	require.NotNil(t, fn)
	assert.Equal(t, "add", fn.Proto.Name)
	assert.Equal(t, "int32_t", fn.Proto.Ret.cTypeString())
}

func TestLowerGeneratesSliceStruct(t *testing.T) {
	cfile := lowerSrc(t, `
		fn len(s: slice(i32)) -> i32 {
			return 0;
		}
	`)
	found := false
	for _, d := range cfile.Decls {
		if sd, ok := d.(*CStructDecl); ok && sd.Name == "FcSlice_int32_t" {
			found = true
		}
	}
	assert.True(t, found, "expected a generated slice struct for slice(i32)")
}

func TestLowerForLoopWithHoistedConditionRoutesContinueThroughLabel(t *testing.T) {
	cfile := lowerSrc(t, `
		fn bump(n: i32) -> i32 {
			return n + 1;
		}

		fn sum() -> i32 {
			let total: i32 = 0;
			for (let i: i32 = 0; i < bump(total); i = i + 1) {
				if i == 5 {
					continue;
				}
				total = total + i;
			}
			return total;
		}
	`)
	var fn *CFnDecl
	for _, d := range cfile.Decls {
		if f, ok := d.(*CFnDecl); ok && f.Proto.Name == "sum" {
			fn = f
		}
	}
	require.NotNil(t, fn)

	// The condition (`i < bump(total)`) needs a hoisted temporary for
	// the call result, so the for-loop must lower to an equivalent
	// while-loop with continue rewritten to a goto that still runs the
	// step before the condition is retested.
	var loop *CWhileStmt
	for _, s := range fn.Body {
		if w, ok := s.(*CWhileStmt); ok {
			loop = w
		}
	}
	require.NotNil(t, loop, "expected the for-loop to lower to a while-loop because its step needs hoisting")

	sawGoto, sawLabel := false, false
	var walk func(stmts []CStmt)
	walk = func(stmts []CStmt) {
		for _, s := range stmts {
			switch v := s.(type) {
			case *CGotoStmt:
				sawGoto = true
			case *CLabelStmt:
				sawLabel = true
			case *CIfStmt:
				walk(v.Then)
				walk(v.Else)
			}
		}
	}
	walk(loop.Body)
	assert.True(t, sawGoto, "expected continue to lower to a goto")
	assert.True(t, sawLabel, "expected a label the goto can target before the step reruns")
}

func TestLowerDeferWithoutExplicitReturnStillGetsCleanupLabel(t *testing.T) {
	cfile := lowerSrc(t, `
		fn work() -> void {
			defer {
				let x: i32 = 0;
			}
		}
	`)
	var fn *CFnDecl
	for _, d := range cfile.Decls {
		if f, ok := d.(*CFnDecl); ok && f.Proto.Name == "work" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	var label *CLabelStmt
	for _, s := range fn.Body {
		if l, ok := s.(*CLabelStmt); ok {
			label = l
		}
	}
	require.NotNil(t, label, "expected a cleanup label even with no explicit return")
	assert.NotEmpty(t, label.Name, "cleanup label must have a real name")
}

func TestLowerDeferEmitsCleanupLabel(t *testing.T) {
	cfile := lowerSrc(t, `
		fn work() -> i32 {
			defer {
				let x: i32 = 0;
			}
			return 1;
		}
	`)
	var fn *CFnDecl
	for _, d := range cfile.Decls {
		if f, ok := d.(*CFnDecl); ok && f.Proto.Name == "work" {
			fn = f
		}
	}
	require.NotNil(t, fn)
	sawLabel, sawGoto := false, false
	for _, s := range fn.Body {
		switch s.(type) {
		case *CLabelStmt:
			sawLabel = true
		case *CGotoStmt:
			sawGoto = true
		}
	}
	assert.True(t, sawLabel, "expected a cleanup label")
	assert.True(t, sawGoto, "expected a goto to the cleanup label")
}
