package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkSrc(t *testing.T, src string) *DiagnosticBag {
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
	return bag
}

func TestTypecheckRejectsMismatchedLet(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = true;
			return 0;
		}
	`)
	require.True(t, bag.HasErrors())
	assert.Equal(t, "typecheck-mismatched-types", bag.Items()[0].Code)
}

func TestTypecheckRejectsMixedOperandTypes(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 1;
			let y: bool = true;
			if x == y {
				return 0;
			}
			return 1;
		}
	`)
	require.True(t, bag.HasErrors())
}

func TestTypecheckAddrInfersMrefFromDeclaredType(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			let p: mref(i32) = addr(x);
			return 0;
		}
	`)
	assert.False(t, bag.HasErrors(), "diags: %v", bag.Items())
}

func TestTypecheckAddrDefaultsToRef(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			let p: ref(i32) = addr(x);
			return 0;
		}
	`)
	assert.False(t, bag.HasErrors(), "diags: %v", bag.Items())
}

func TestTypecheckEnforcesUnsafeForDeref(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			let p: raw(i32) = cast(raw(i32), addr(x));
			let v: i32 = deref(p);
			return v;
		}
	`)
	found := false
	for _, d := range bag.Items() {
		if d.Code == "typecheck-unsafe-required" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTypecheckAcceptsDerefInsideUnsafe(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			unsafe {
				let p: raw(i32) = cast(raw(i32), addr(x));
				let v: i32 = deref(p);
			}
			return 0;
		}
	`)
	for _, d := range bag.Items() {
		assert.NotEqual(t, "typecheck-unsafe-required", d.Code)
	}
}

func TestTypecheckRejectsPointerKindCastOutsideUnsafe(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			let p: raw(i32) = cast(raw(i32), addr(x));
			return 0;
		}
	`)
	require.True(t, bag.HasErrors())
	assert.Equal(t, "typecheck-unsafe-required", bag.Items()[0].Code)
}

func TestTypecheckAcceptsPointerArithInsideUnsafe(t *testing.T) {
	bag := checkSrc(t, `
		fn main(p: raw(i32)) -> i32 {
			unsafe {
				let q: raw(i32) = p + 1;
			}
			return 0;
		}
	`)
	assert.False(t, bag.HasErrors(), "diags: %v", bag.Items())
}

func TestTypecheckFlagsPointerArithOutsideUnsafe(t *testing.T) {
	bag := checkSrc(t, `
		fn main(p: raw(i32)) -> i32 {
			let q: raw(i32) = cast(raw(i32), p + 1);
			return 0;
		}
	`)
	found := false
	for _, d := range bag.Items() {
		if d.Code == "typecheck-unsafe-required" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTypecheckFlagsIntegerSwitchWithoutDefault(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 1;
			switch x {
				case 1: {
					return 0;
				}
			}
			return 1;
		}
	`)
	require.True(t, bag.HasErrors())
	assert.Equal(t, "typecheck-non-exhaustive-switch", bag.Items()[0].Code)
}

func TestTypecheckAcceptsIntegerSwitchWithDefault(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 1;
			switch x {
				case 1: {
					return 0;
				}
				default: {
					return 1;
				}
			}
		}
	`)
	assert.False(t, bag.HasErrors(), "diags: %v", bag.Items())
}

func TestTypecheckFlagsOverlappingUniqueBorrows(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			let p: mref(i32) = addr(x);
			let q: mref(i32) = addr(x);
			return 0;
		}
	`)
	require.True(t, bag.HasErrors())
	assert.Equal(t, "typecheck-borrow-conflict", bag.Items()[0].Code)
}

func TestTypecheckAllowsSequentialBorrowsInDifferentBlocks(t *testing.T) {
	bag := checkSrc(t, `
		fn main() -> i32 {
			let x: i32 = 0;
			if true {
				let p: mref(i32) = addr(x);
			}
			if true {
				let q: mref(i32) = addr(x);
			}
			return 0;
		}
	`)
	assert.False(t, bag.HasErrors(), "diags: %v", bag.Items())
}

func TestTypecheckFlagsNonExhaustiveSwitch(t *testing.T) {
	bag := checkSrc(t, `
		enum Color { Red, Green, Blue }
		fn main() -> i32 {
			let c: Color = Color::Red;
			switch c {
				case Color::Red: {
					return 0;
				}
			}
			return 1;
		}
	`)
	require.True(t, bag.HasErrors())
	found := false
	for _, d := range bag.Items() {
		if d.Code == "typecheck-non-exhaustive-switch" {
			found = true
		}
	}
	assert.True(t, found)
}
