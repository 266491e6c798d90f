package fastc

import "fmt"

// trapGuard renders §4.5's check-insertion shape: `if (cond) { fc_trap(); }`
// immediately before the operation the condition protects.
func (c *fnLowerCtx) trapGuard(cond CExpr) CStmt {
	return &CIfStmt{Cond: cond, Then: []CStmt{&CExprStmt{Expr: &CCallExpr{Callee: "fc_trap"}}}}
}

var overflowBuiltin = map[TrapKind]string{
	TrapOverflowAdd: "__builtin_add_overflow",
	TrapOverflowSub: "__builtin_sub_overflow",
	TrapOverflowMul: "__builtin_mul_overflow",
}

// lowerExprHoisted lowers e to a CExpr, returning alongside it any
// statements that must run first. This is the evaluation-order
// normalization §4.5 requires: C does not guarantee the evaluation
// order of a binary operator's two operands, but FastC does (left
// before right, per §4.2), so any operand with a potential side effect
// (a call) is hoisted into a temporary assigned in program order
// before the expression that combines them is emitted.
func (c *fnLowerCtx) lowerExprHoisted(e Expr) ([]CStmt, CExpr) {
	switch ex := e.(type) {
	case nil:
		return nil, nil
	case *BinaryExpr:
		leftPre, left := c.lowerExprHoisted(ex.Left)
		left = c.hoistIfCall(ex.Left, left, &leftPre)
		rightPre, right := c.lowerExprHoisted(ex.Right)
		right = c.hoistIfCall(ex.Right, right, &rightPre)
		pre := append(leftPre, rightPre...)
		return c.lowerBinaryWithTrap(ex, left, right, pre)
	case *CallExpr:
		return c.lowerCall(ex)
	case *ParenExpr:
		return c.lowerExprHoisted(ex.Inner)
	default:
		return nil, c.lowerExpr(e)
	}
}

// lowerBinaryWithTrap emits the guard §4.4.4 determined this binary
// expression needs, immediately before the C operator it protects, per
// §4.5's check-insertion contract.
func (c *fnLowerCtx) lowerBinaryWithTrap(ex *BinaryExpr, left, right CExpr, pre []CStmt) ([]CStmt, CExpr) {
	op := cBinaryOp(ex.Op)
	switch c.lowerer.tc.Trap(ex) {
	case TrapDivisor:
		pre = append(pre, c.trapGuard(&CBinaryExpr{Op: "==", Left: right, Right: &CIntLitExpr{Text: "0"}}))
		return pre, &CBinaryExpr{Op: op, Left: left, Right: right}
	case TrapShiftCount:
		width := 32
		if prim, ok := c.lowerer.tc.ExprType(ex).(PrimitiveType); ok {
			width = prim.Kind.BitWidth()
		}
		cond := &CBinaryExpr{
			Op:   "||",
			Left: &CBinaryExpr{Op: "<", Left: right, Right: &CIntLitExpr{Text: "0"}},
			Right: &CBinaryExpr{Op: ">=", Left: right, Right: &CIntLitExpr{Text: fmt.Sprintf("%d", width)}},
		}
		pre = append(pre, c.trapGuard(cond))
		return pre, &CBinaryExpr{Op: op, Left: left, Right: right}
	case TrapOverflowAdd, TrapOverflowSub, TrapOverflowMul:
		builtin := overflowBuiltin[c.lowerer.tc.Trap(ex)]
		resultTy := c.lowerer.lowerType(c.lowerer.tc.ExprType(ex))
		tmp := c.lowerer.freshTemp()
		pre = append(pre, &CVarDecl{Name: tmp, Type: resultTy})
		pre = append(pre, c.trapGuard(&CCallExpr{
			Callee: builtin,
			Args:   []CExpr{left, right, &CAddrOfExpr{Expr: &CIdentExpr{Name: tmp}}},
		}))
		return pre, &CIdentExpr{Name: tmp}
	default:
		return pre, &CBinaryExpr{Op: op, Left: left, Right: right}
	}
}

// hoistIfCall assigns a call's lowered result into a fresh temporary
// when it appears as one operand of a binary expression, so the other
// operand's evaluation (and any side effects within it) cannot be
// reordered around it by the C compiler.
func (c *fnLowerCtx) hoistIfCall(orig Expr, lowered CExpr, pre *[]CStmt) CExpr {
	if _, isCall := orig.(*CallExpr); !isCall {
		return lowered
	}
	ty := c.lowerer.tc.ExprType(orig)
	tmp := c.lowerer.freshTemp()
	*pre = append(*pre, &CVarDecl{Name: tmp, Type: c.lowerer.lowerType(ty), Init: lowered})
	return &CIdentExpr{Name: tmp}
}

func (c *fnLowerCtx) lowerCall(ex *CallExpr) ([]CStmt, CExpr) {
	callee, _ := ex.Callee.(*IdentExpr)
	name := ""
	if callee != nil {
		name = callee.Name
	}
	var pre []CStmt
	args := make([]CExpr, 0, len(ex.Args))
	for _, a := range ex.Args {
		p, v := c.lowerExprHoisted(a)
		pre = append(pre, p...)
		args = append(args, v)
	}
	switch name {
	case "deref":
		return pre, &CDerefExpr{Expr: args[0]}
	case "addr":
		return pre, &CAddrOfExpr{Expr: args[0]}
	case "at":
		sliceTy := c.lowerer.tc.ExprType(ex.Args[0])
		needsBounds := c.lowerer.tc.Trap(ex) == TrapBounds
		switch s := sliceTy.(type) {
		case SliceType:
			if needsBounds {
				pre = append(pre, c.trapGuard(&CBinaryExpr{Op: ">=", Left: args[1], Right: &CMemberExpr{Target: args[0], Field: "len"}}))
			}
			return pre, &CIndexExpr{Target: &CMemberExpr{Target: args[0], Field: "data"}, Index: args[1]}
		case ArrayType:
			if needsBounds {
				pre = append(pre, c.trapGuard(&CBinaryExpr{Op: ">=", Left: args[1], Right: &CIntLitExpr{Text: fmt.Sprintf("%d", s.Size)}}))
			}
			return pre, &CIndexExpr{Target: args[0], Index: args[1]}
		}
		return pre, &CIndexExpr{Target: args[0], Index: args[1]}
	case "cast":
		targetTy := c.lowerer.tc.resolveTypeExpr(ex.Type)
		return pre, &CCastExpr{Type: c.lowerer.lowerType(targetTy), Expr: args[0]}
	case "discard":
		return pre, args[0]
	case "cstr":
		return pre, args[0]
	case "bytes":
		return pre, args[0]
	default:
		return pre, &CCallExpr{Callee: name, Args: args}
	}
}

// lowerExpr lowers leaf and structural expressions that never need a
// hoisted temporary of their own (their subexpressions are lowered
// recursively through lowerExprHoisted where order matters).
func (c *fnLowerCtx) lowerExpr(e Expr) CExpr {
	switch ex := e.(type) {
	case *IdentExpr:
		return &CIdentExpr{Name: ex.Name}
	case *IntLitExpr:
		return &CIntLitExpr{Text: ex.Text}
	case *FloatLitExpr:
		return &CFloatLitExpr{Text: ex.Text}
	case *BoolLitExpr:
		return &CBoolLitExpr{Value: ex.Value}
	case *StringLitExpr:
		return &CStringLitExpr{Value: ex.Value}
	case *NoneExpr:
		return &CIntLitExpr{Text: "0"}
	case *FieldAccessExpr:
		_, target := c.lowerExprHoisted(ex.Target)
		targetTy := c.lowerer.tc.ExprType(ex.Target)
		arrow := false
		if _, ok := targetTy.(PointerType); ok {
			arrow = true
		}
		return &CMemberExpr{Target: target, Field: ex.Field, Arrow: arrow}
	case *EnumPathExpr:
		return &CIdentExpr{Name: ex.Enum + "_" + ex.Variant}
	case *UnaryExpr:
		_, inner := c.lowerExprHoisted(ex.Expr)
		op := "-"
		if ex.Op == TokBang {
			op = "!"
		}
		return &CUnaryExpr{Op: op, Expr: inner}
	case *ParenExpr:
		return c.lowerExpr(ex.Inner)
	case *StructLitExpr:
		lit := &CStructLitExpr{Type: ex.Type}
		for _, f := range ex.Fields {
			_, v := c.lowerExprHoisted(f.Value)
			lit.Fields = append(lit.Fields, CStructLitField{Name: f.Name, Value: v})
		}
		return lit
	default:
		_, v := c.lowerExprHoisted(e)
		return v
	}
}

func cBinaryOp(k TokenKind) string {
	switch k {
	case TokPlus:
		return "+"
	case TokMinus:
		return "-"
	case TokStar:
		return "*"
	case TokSlash:
		return "/"
	case TokPercent:
		return "%"
	case TokAmpAmp:
		return "&&"
	case TokPipePipe:
		return "||"
	case TokEqEq:
		return "=="
	case TokNotEq:
		return "!="
	case TokLt:
		return "<"
	case TokLe:
		return "<="
	case TokGt:
		return ">"
	case TokGe:
		return ">="
	case TokShl:
		return "<<"
	case TokShr:
		return ">>"
	case TokAmp:
		return "&"
	case TokPipe:
		return "|"
	case TokCaret:
		return "^"
	default:
		return "?"
	}
}
