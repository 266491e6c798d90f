package fastc

// safetyChecker flags the expression-statement shapes §4.4 calls
// traps: a call returning opt(T) or res(T, E) used as a bare
// expression statement, silently discarding a value that might be
// none/err, unless explicitly wrapped in discard(...). This mirrors
// Power-of-10's "check every return value" rule but, unlike the checks
// in powerof10.go, runs unconditionally rather than only under
// safety_level=critical,
// since it is cheap and catches a common source bug regardless of
// safety level.
type safetyChecker struct {
	bag *DiagnosticBag
}

func (s *safetyChecker) checkExprStmt(st *ExprStmt, resultTy Type) {
	if st.Call == nil || st.Discard {
		return
	}
	switch resultTy.(type) {
	case OptionType, ResultType:
		s.bag.Warnf("typecheck-unchecked-result", st.Span(),
			"result of this call is an option/result type and is discarded without discard(...); "+
				"wrap it in discard(...) if this is intentional")
	}
}
