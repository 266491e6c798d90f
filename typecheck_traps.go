package fastc

// TrapKind enumerates the runtime guards §4.4.4 requires the lowerer
// to insert immediately before the operation they protect. The
// checker decides *whether* a guard is needed from static information
// (constant-ness of a divisor or shift count, signedness, operand
// kind); the lowerer (lower_temps.go) is the one that emits it.
type TrapKind int

const (
	TrapNone TrapKind = iota
	TrapDivisor
	TrapShiftCount
	TrapOverflowAdd
	TrapOverflowSub
	TrapOverflowMul
	TrapBounds
)

// trapChecker records, per expression, which of those guards its
// lowering needs. It is populated during typing (computeType) and
// consulted by the lowerer against the same AST pointers, mirroring
// how TypeChecker.hints threads context the other direction.
type trapChecker struct {
	traps map[Expr]TrapKind
}

func newTrapChecker() *trapChecker {
	return &trapChecker{traps: make(map[Expr]TrapKind)}
}

func (t *trapChecker) set(e Expr, k TrapKind) {
	if k == TrapNone {
		return
	}
	t.traps[e] = k
}

// Trap looks up the guard, if any, an already-typed expression needs.
func (t *trapChecker) Trap(e Expr) TrapKind {
	return t.traps[e]
}

// classifyBinaryTrap implements §4.4.4's table for a binary operator
// whose operands have already been typed. constEval folds a constant
// operand when one exists; a non-constant operand makes constEval
// return ok=false, which conservatively means "assume a check is
// needed".
func (tc *TypeChecker) classifyBinaryTrap(ex *BinaryExpr, lt Type) {
	prim, ok := lt.(PrimitiveType)
	if !ok || !prim.Kind.IsInteger() {
		return // float arithmetic and non-primitive ops never trap
	}
	folder := &constEvaluator{bag: &DiagnosticBag{}, tc: tc}
	switch ex.Op {
	case TokSlash, TokPercent:
		if v, ok := folder.eval(ex.Right); ok && v != 0 {
			return
		}
		tc.traps.set(ex, TrapDivisor)
	case TokShl, TokShr:
		if v, ok := folder.eval(ex.Right); ok && v >= 0 && v < int64(prim.Kind.BitWidth()) {
			return
		}
		tc.traps.set(ex, TrapShiftCount)
	case TokPlus:
		if prim.Kind.IsSigned() {
			tc.traps.set(ex, TrapOverflowAdd)
		}
	case TokMinus:
		if prim.Kind.IsSigned() {
			tc.traps.set(ex, TrapOverflowSub)
		}
	case TokStar:
		if prim.Kind.IsSigned() {
			tc.traps.set(ex, TrapOverflowMul)
		}
	}
}
