package fastc

// checkSwitchExhaustive enforces §4.4's exhaustive-enum-switch rule: a
// switch over an enum-typed scrutinee must either name every variant
// across its cases or carry a `default` arm. A switch over an integer
// scrutinee must always carry a `default` arm (the checker does not try
// to prove that its cases cover every value); other scrutinee types are
// not constrained here.
func checkSwitchExhaustive(bag *DiagnosticBag, st *SwitchStmt, scrutTy Type) {
	enum, ok := scrutTy.(*EnumType)
	if !ok {
		if prim, ok := scrutTy.(PrimitiveType); ok && prim.Kind.IsInteger() && st.Default == nil {
			bag.Errorf("typecheck-non-exhaustive-switch", st.Span(),
				"switch over %s must have a default arm", prim)
		}
		return
	}
	if st.Default != nil {
		return
	}
	covered := make(map[string]bool, len(st.Cases))
	for _, c := range st.Cases {
		if path, ok := c.Label.(*EnumPathExpr); ok && path.Enum == enum.Name {
			covered[path.Variant] = true
		}
	}
	var missing []string
	for _, v := range enum.Variants {
		if !covered[v] {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		bag.Errorf("typecheck-non-exhaustive-switch", st.Span(),
			"switch over enum %q is not exhaustive: missing variant(s) %v (add the missing cases or a default arm)",
			enum.Name, missing)
	}
}
