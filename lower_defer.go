package fastc

// lowerReturn is the defer-to-goto conversion §4.5 requires: a return
// inside a function that registered any defer blocks stores its value
// (if any) into a synthesized retval and jumps to the function's single
// cleanup label, where the deferred blocks run in reverse registration
// order before the real `return`. A function with no defer lowers its
// returns directly, costing nothing when the feature goes unused.
func (c *fnLowerCtx) lowerReturn(st *ReturnStmt) []CStmt {
	if len(c.deferred) == 0 {
		if st.Value == nil {
			return []CStmt{&CReturnStmt{}}
		}
		pre, val := c.lowerExprHoisted(st.Value)
		return append(pre, &CReturnStmt{Value: val})
	}
	if c.cleanupTag == "" {
		c.cleanupTag = c.lowerer.freshLabel()
		c.retvalName = c.lowerer.freshTemp()
	}
	var stmts []CStmt
	if st.Value != nil {
		pre, val := c.lowerExprHoisted(st.Value)
		stmts = append(stmts, pre...)
		stmts = append(stmts, &CExprStmt{Expr: &CAssignExpr{Target: &CIdentExpr{Name: c.retvalName}, Value: val}})
	}
	stmts = append(stmts, &CGotoStmt{Label: c.cleanupTag})
	return stmts
}

// lowerBlockWithDefers wraps a function's lowered body with the retval
// declaration and cleanup label/epilogue it needs only if it actually
// registered a defer.
func (c *fnLowerCtx) lowerBlockWithDefers(b *BlockStmt) []CStmt {
	body := c.lowerBlock(b)
	if len(c.deferred) == 0 {
		return body
	}
	isVoid := c.retType.cTypeString() == "void"

	var out []CStmt
	if !isVoid {
		out = append(out, &CVarDecl{Name: c.retvalName, Type: c.retType})
	}
	out = append(out, body...)
	out = append(out, &CLabelStmt{Name: c.cleanupTag})
	for i := len(c.deferred) - 1; i >= 0; i-- {
		out = append(out, c.lowerBlock(c.deferred[i])...)
	}
	if isVoid {
		out = append(out, &CReturnStmt{})
	} else {
		out = append(out, &CReturnStmt{Value: &CIdentExpr{Name: c.retvalName}})
	}
	return out
}
