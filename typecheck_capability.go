package fastc

// capabilityChecker enforces §4.4's safe/unsafe-required split: raw
// pointer dereference, pointer arithmetic on any pointer kind, and casts
// between two distinct pointer kinds are unsafe-required expressions,
// legal only inside an `unsafe { ... }` block or an `unsafe fn`. Calls
// to an `unsafe fn` (extern functions included) are gated separately,
// in the type checker's call handling.
type capabilityChecker struct {
	bag *DiagnosticBag
}

func (c *capabilityChecker) checkUnsafeRequired(kind PointerKind, span Span, inUnsafe bool, op string) {
	if !kind.RequiresUnsafe() {
		return
	}
	if inUnsafe {
		return
	}
	c.bag.Errorf("typecheck-unsafe-required", span,
		"%s of a %s pointer requires an enclosing unsafe block", op, pointerKindNames[kind])
}

// checkPointerBridge gates `cast` between two distinct pointer kinds
// (e.g. ref -> raw, raw -> ref, ref -> mref): §4.4.2 names this as its
// own unsafe-required operation, independent of whether either kind on
// its own requires unsafe.
func (c *capabilityChecker) checkPointerBridge(from, to PointerKind, span Span, inUnsafe bool) {
	if from == to || inUnsafe {
		return
	}
	c.bag.Errorf("typecheck-unsafe-required", span,
		"cast from %s to %s bridges pointer kinds and requires an enclosing unsafe block",
		pointerKindNames[from], pointerKindNames[to])
}

// checkPointerArith gates pointer + integer / pointer - integer
// arithmetic, the other unsafe-required operation §4.4.2 names
// alongside raw dereference and pointer-kind casts.
func (c *capabilityChecker) checkPointerArith(kind PointerKind, span Span, inUnsafe bool) {
	if inUnsafe {
		return
	}
	c.bag.Errorf("typecheck-unsafe-required", span,
		"pointer arithmetic on a %s pointer requires an enclosing unsafe block", pointerKindNames[kind])
}
