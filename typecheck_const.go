package fastc

// constEvaluator folds the restricted const-expression grammar §4.4
// allows in array sizes and `const` initializers: integer and bool
// literals, named consts, parentheses, unary minus and logical not, and
// the + - * / % operators applied to them. Anything else reported as a non-const-expression
// diagnostic and evaluates to zero so callers (array sizing, in
// particular) always get a usable fallback instead of panicking.
type constEvaluator struct {
	bag *DiagnosticBag
	tc  *TypeChecker
}

func (c *constEvaluator) evalUint(e Expr) uint64 {
	v, ok := c.eval(e)
	if !ok {
		c.bag.Errorf("typecheck-not-const", e.Span(), "expected a constant expression")
		return 0
	}
	if v < 0 {
		c.bag.Errorf("typecheck-not-const", e.Span(), "array size must not be negative")
		return 0
	}
	return uint64(v)
}

func (c *constEvaluator) eval(e Expr) (int64, bool) {
	switch ex := e.(type) {
	case *IntLitExpr:
		return int64(ex.Value), true
	case *BoolLitExpr:
		if ex.Value {
			return 1, true
		}
		return 0, true
	case *ParenExpr:
		return c.eval(ex.Inner)
	case *UnaryExpr:
		v, ok := c.eval(ex.Expr)
		if !ok {
			return 0, false
		}
		if ex.Op == TokMinus {
			return -v, true
		}
		if ex.Op == TokBang {
			if v == 0 {
				return 1, true
			}
			return 0, true
		}
		return v, true
	case *BinaryExpr:
		l, ok1 := c.eval(ex.Left)
		r, ok2 := c.eval(ex.Right)
		if !ok1 || !ok2 {
			return 0, false
		}
		switch ex.Op {
		case TokPlus:
			return l + r, true
		case TokMinus:
			return l - r, true
		case TokStar:
			return l * r, true
		case TokSlash:
			if r == 0 {
				c.bag.Errorf("typecheck-const-div-by-zero", ex.Span(), "division by zero in constant expression")
				return 0, false
			}
			return l / r, true
		case TokPercent:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		default:
			return 0, false
		}
	case *IdentExpr:
		if c.tc == nil {
			return 0, false
		}
		sym, ok := c.tc.syms.Lookup(ex.Name)
		if !ok || sym.Kind != SymConst {
			return 0, false
		}
		return c.eval(sym.Decl.(*ConstDecl).Expr)
	default:
		return 0, false
	}
}
