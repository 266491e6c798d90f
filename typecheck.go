package fastc

// varScope mirrors the resolver's scope stack but carries a Type per
// binding instead of just a declaration span, since the checker needs
// to answer "what is the type of this name" at every use site.
type varScope struct {
	vars map[string]Type
}

// TypeChecker is component 4 of the pipeline (§4.4): it resolves every
// TypeExpr the parser produced into a closed Type (types.go), assigns a
// Type to every expression, and enforces §4.4's "no implicit
// conversions" rule — two expressions combine only when their Types are
// Equal. Its sub-analyses (capability, borrow, safety, switch
// exhaustiveness, const evaluation) live in their own files but share
// this struct's symbol/type tables.
type TypeChecker struct {
	bag   *DiagnosticBag
	syms  *SymbolTable
	named map[string]Type // struct/enum/opaque name -> resolved Type
	fnSig map[string]FnType

	exprTypes map[Expr]Type
	scopes    []*varScope

	// hints records the type a call-form expression is expected to
	// produce, so that context-sensitive forms like addr(x) can pick
	// ref vs mref without a second argument (the grammar allows only
	// the single-argument form).
	hints map[Expr]Type

	capability *capabilityChecker
	borrow     *borrowChecker
	constEval  *constEvaluator
	safety     *safetyChecker
	traps      *trapChecker
}

func NewTypeChecker(bag *DiagnosticBag, syms *SymbolTable) *TypeChecker {
	tc := &TypeChecker{
		bag:       bag,
		syms:      syms,
		named:     make(map[string]Type),
		fnSig:     make(map[string]FnType),
		exprTypes: make(map[Expr]Type),
		hints:     make(map[Expr]Type),
	}
	tc.capability = &capabilityChecker{bag: bag}
	tc.borrow = newBorrowChecker(bag)
	tc.constEval = &constEvaluator{bag: bag, tc: tc}
	tc.safety = &safetyChecker{bag: bag}
	tc.traps = newTrapChecker()
	return tc
}

// ExprType exposes the resolved type of an already-checked expression,
// consumed by lower.go to decide how to lower slices/optionals/results.
func (tc *TypeChecker) ExprType(e Expr) Type { return tc.exprTypes[e] }

// Trap exposes the runtime guard, if any, §4.4.4 requires before
// lowering this expression, consumed by lower_temps.go.
func (tc *TypeChecker) Trap(e Expr) TrapKind { return tc.traps.Trap(e) }

// ResolveNamedTypes is pass one: build the closed Type for every
// struct, enum, opaque and function signature, so forward references
// between declarations (a struct field naming a struct declared later)
// resolve regardless of source order.
func (tc *TypeChecker) ResolveNamedTypes(items []Item) {
	for _, item := range items {
		switch d := item.(type) {
		case *StructDecl:
			tc.named[d.Name] = &StructType{Name: d.Name, ReprC: d.ReprC}
		case *EnumDecl:
			tc.named[d.Name] = &EnumType{Name: d.Name, Variants: append([]string{}, d.Variants...), ReprWidth: d.ReprWidth}
		case *OpaqueDecl:
			tc.named[d.Name] = OpaqueType{Name: d.Name}
		}
	}
	for _, item := range items {
		if d, ok := item.(*StructDecl); ok {
			st := tc.named[d.Name].(*StructType)
			for _, f := range d.Fields {
				st.Fields = append(st.Fields, StructField{Name: f.Name, Type: tc.resolveTypeExpr(f.Type)})
			}
		}
	}
	for _, item := range items {
		switch d := item.(type) {
		case *FnDecl:
			tc.fnSig[d.Name] = tc.fnSignature(d)
		case *ExternBlock:
			for _, fn := range d.Fns {
				tc.fnSig[fn.Name] = tc.fnSignature(fn)
			}
		}
	}
}

func (tc *TypeChecker) fnSignature(d *FnDecl) FnType {
	sig := FnType{Unsafe: d.Unsafe, Ret: tc.resolveTypeExpr(d.Ret)}
	for _, p := range d.Params {
		sig.Params = append(sig.Params, tc.resolveTypeExpr(p.Type))
	}
	return sig
}

// resolveTypeExpr turns parsed type syntax into a closed Type,
// reporting an unknown-type-name diagnostic for any identifier that
// names neither a primitive nor a declared struct/enum/opaque type.
func (tc *TypeChecker) resolveTypeExpr(te TypeExpr) Type {
	switch t := te.(type) {
	case nil:
		return PrimitiveType{Kind: Void}
	case *NamedTypeExpr:
		if prim, ok := PrimitiveTypes[t.Name]; ok {
			return PrimitiveType{Kind: prim}
		}
		if named, ok := tc.named[t.Name]; ok {
			return named
		}
		tc.bag.Errorf("typecheck-unknown-type", t.Span(), "unknown type %q", t.Name)
		return PrimitiveType{Kind: Void}
	case *PointerTypeExpr:
		kindMap := map[TypeExprPointerKind]PointerKind{
			PtrRef: PtrKindRef, PtrMref: PtrKindMref, PtrRaw: PtrKindRaw, PtrRawm: PtrKindRawm, PtrOwn: PtrKindOwn,
		}
		return PointerType{Kind: kindMap[t.Kind], Elem: tc.resolveTypeExpr(t.Elem)}
	case *ArrayTypeExpr:
		size := tc.constEval.evalUint(t.Size)
		return ArrayType{Elem: tc.resolveTypeExpr(t.Elem), Size: size}
	case *SliceTypeExpr:
		return SliceType{Elem: tc.resolveTypeExpr(t.Elem)}
	case *OptionTypeExpr:
		return OptionType{Elem: tc.resolveTypeExpr(t.Elem)}
	case *ResultTypeExpr:
		return ResultType{Ok: tc.resolveTypeExpr(t.Ok), Err: tc.resolveTypeExpr(t.Err)}
	case *FnTypeExpr:
		sig := FnType{Unsafe: t.Unsafe, Ret: tc.resolveTypeExpr(t.Ret)}
		for _, p := range t.Params {
			sig.Params = append(sig.Params, tc.resolveTypeExpr(p))
		}
		return sig
	default:
		panicInternal("resolveTypeExpr: unhandled TypeExpr %T", te)
		return nil
	}
}

// CheckFunctions is pass two: type every function body, enforcing
// exact-type assignment and call compatibility, and delegating to the
// capability, borrow, and switch-exhaustiveness sub-analyses.
func (tc *TypeChecker) CheckFunctions(items []Item) {
	for _, item := range items {
		switch d := item.(type) {
		case *FnDecl:
			tc.checkFn(d)
		case *ExternBlock:
			for _, fn := range d.Fns {
				tc.checkFn(fn)
			}
		case *ConstDecl:
			declared := tc.resolveTypeExpr(d.Type)
			got := tc.typeOf(d.Expr, false)
			if got != nil && !declared.Equal(got) && !(declared.(PrimitiveType).Kind == Void) {
				tc.bag.Errorf("typecheck-mismatched-types", d.Expr.Span(),
					"const %q declared as %s but initializer has type %s", d.Name, declared, got)
			}
		}
	}
}

func (tc *TypeChecker) checkFn(fn *FnDecl) {
	if fn.Body == nil {
		return
	}
	tc.borrow.enterFunction()
	tc.pushScope()
	for _, p := range fn.Params {
		ty := tc.resolveTypeExpr(p.Type)
		tc.bindVar(p.Name, ty)
		tc.borrow.declare(p.Name, ty)
	}
	retTy := tc.resolveTypeExpr(fn.Ret)
	tc.checkBlock(fn.Body, retTy, fn.Unsafe)
	tc.popScope()
	tc.borrow.leaveFunction()
}

func (tc *TypeChecker) pushScope() { tc.scopes = append(tc.scopes, &varScope{vars: map[string]Type{}}) }
func (tc *TypeChecker) popScope()  { tc.scopes = tc.scopes[:len(tc.scopes)-1] }

func (tc *TypeChecker) bindVar(name string, t Type) {
	tc.scopes[len(tc.scopes)-1].vars[name] = t
}

func (tc *TypeChecker) lookupVar(name string) (Type, bool) {
	for i := len(tc.scopes) - 1; i >= 0; i-- {
		if t, ok := tc.scopes[i].vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (tc *TypeChecker) checkBlock(b *BlockStmt, retTy Type, inUnsafe bool) {
	tc.pushScope()
	tc.borrow.enterBlock()
	defer tc.borrow.leaveBlock()
	defer tc.popScope()
	for _, s := range b.Stmts {
		tc.checkStmt(s, retTy, inUnsafe)
	}
}

func (tc *TypeChecker) checkStmt(s Stmt, retTy Type, inUnsafe bool) {
	switch st := s.(type) {
	case *LetStmt:
		var declared Type
		if st.Type != nil {
			declared = tc.resolveTypeExpr(st.Type)
			if st.Init != nil {
				tc.hints[st.Init] = declared
			}
		}
		init := tc.typeOf(st.Init, inUnsafe)
		if st.Type == nil {
			declared = init
		} else {
			if init != nil && !declared.Equal(init) {
				tc.bag.Errorf("typecheck-mismatched-types", st.Init.Span(),
					"cannot assign value of type %s to %q of type %s", init, st.Name, declared)
			}
		}
		if declared == nil {
			declared = PrimitiveType{Kind: Void}
		}
		tc.bindVar(st.Name, declared)
		tc.borrow.declare(st.Name, declared)
	case *AssignStmt:
		targetTy := tc.typeOf(st.Target, inUnsafe)
		tc.hints[st.Value] = targetTy
		valTy := tc.typeOf(st.Value, inUnsafe)
		if targetTy != nil && valTy != nil && !targetTy.Equal(valTy) {
			tc.bag.Errorf("typecheck-mismatched-types", st.Value.Span(),
				"cannot assign value of type %s to target of type %s", valTy, targetTy)
		}
		tc.borrow.onWrite(st.Target)
	case *IfStmt:
		tc.requireBool(st.Cond, inUnsafe)
		tc.checkBlock(st.Then, retTy, inUnsafe)
		if st.Else != nil {
			tc.checkStmt(st.Else, retTy, inUnsafe)
		}
	case *IfLetStmt:
		opt := tc.typeOf(st.Expr, inUnsafe)
		tc.pushScope()
		tc.borrow.enterBlock()
		if o, ok := opt.(OptionType); ok {
			tc.bindVar(st.Name, o.Elem)
		} else if r, ok := opt.(ResultType); ok {
			tc.bindVar(st.Name, r.Ok)
		}
		for _, inner := range st.Then.Stmts {
			tc.checkStmt(inner, retTy, inUnsafe)
		}
		tc.borrow.leaveBlock()
		tc.popScope()
		if st.Else != nil {
			tc.checkBlock(st.Else, retTy, inUnsafe)
		}
	case *WhileStmt:
		tc.requireBool(st.Cond, inUnsafe)
		tc.checkBlock(st.Body, retTy, inUnsafe)
	case *ForStmt:
		tc.pushScope()
		tc.borrow.enterBlock()
		if st.Init != nil {
			tc.checkStmt(st.Init, retTy, inUnsafe)
		}
		if st.Cond != nil {
			tc.requireBool(st.Cond, inUnsafe)
		}
		if st.Step != nil {
			tc.checkStmt(st.Step, retTy, inUnsafe)
		}
		for _, inner := range st.Body.Stmts {
			tc.checkStmt(inner, retTy, inUnsafe)
		}
		tc.borrow.leaveBlock()
		tc.popScope()
	case *SwitchStmt:
		scrutTy := tc.typeOf(st.Scrutinee, inUnsafe)
		checkSwitchExhaustive(tc.bag, st, scrutTy)
		for _, c := range st.Cases {
			tc.checkBlock(c.Body, retTy, inUnsafe)
		}
		if st.Default != nil {
			tc.checkBlock(st.Default, retTy, inUnsafe)
		}
	case *ReturnStmt:
		if st.Value != nil {
			if retTy != nil {
				tc.hints[st.Value] = retTy
			}
			got := tc.typeOf(st.Value, inUnsafe)
			if got != nil && retTy != nil && !got.Equal(retTy) {
				tc.bag.Errorf("typecheck-mismatched-types", st.Value.Span(),
					"returning %s from a function declared to return %s", got, retTy)
			}
		}
	case *DeferStmt:
		tc.checkBlock(st.Body, retTy, inUnsafe)
	case *UnsafeStmt:
		tc.checkBlock(st.Body, retTy, true)
	case *BlockStmt:
		tc.checkBlock(st, retTy, inUnsafe)
	case *ExprStmt:
		if st.Call != nil {
			callTy := tc.typeOf(st.Call, inUnsafe)
			tc.safety.checkExprStmt(st, callTy)
		}
	}
}

func (tc *TypeChecker) requireBool(e Expr, inUnsafe bool) {
	t := tc.typeOf(e, inUnsafe)
	if t != nil && !t.Equal(PrimitiveType{Kind: Bool}) {
		tc.bag.Errorf("typecheck-mismatched-types", e.Span(), "condition must have type bool, found %s", t)
	}
}

// typeOf types e, recording the result in exprTypes, and runs the
// capability/borrow checks that depend on knowing each subexpression's
// type as it is computed.
func (tc *TypeChecker) typeOf(e Expr, inUnsafe bool) Type {
	if e == nil {
		return nil
	}
	t := tc.computeType(e, inUnsafe)
	if t != nil {
		tc.exprTypes[e] = t
	}
	return t
}

func (tc *TypeChecker) computeType(e Expr, inUnsafe bool) Type {
	switch ex := e.(type) {
	case *IdentExpr:
		if t, ok := tc.lookupVar(ex.Name); ok {
			tc.borrow.onRead(ex)
			return t
		}
		if sym, ok := tc.syms.Lookup(ex.Name); ok && sym.Kind == SymConst {
			cd := sym.Decl.(*ConstDecl)
			return tc.resolveTypeExpr(cd.Type)
		}
		return nil
	case *IntLitExpr:
		return PrimitiveType{Kind: I32}
	case *FloatLitExpr:
		return PrimitiveType{Kind: F64}
	case *BoolLitExpr:
		return PrimitiveType{Kind: Bool}
	case *StringLitExpr:
		return PointerType{Kind: PtrKindRaw, Elem: PrimitiveType{Kind: U8}}
	case *NoneExpr:
		return nil // only valid where an OptionType is expected; checked contextually
	case *FieldAccessExpr:
		targetTy := tc.typeOf(ex.Target, inUnsafe)
		st := unwrapStruct(targetTy)
		if st == nil {
			return nil
		}
		for _, f := range st.Fields {
			if f.Name == ex.Field {
				return f.Type
			}
		}
		tc.bag.Errorf("typecheck-unknown-field", ex.Span(), "%s has no field %q", st.Name, ex.Field)
		return nil
	case *EnumPathExpr:
		if named, ok := tc.named[ex.Enum]; ok {
			if _, ok := named.(*EnumType); ok {
				return named
			}
		}
		return nil
	case *CallExpr:
		return tc.typeOfCall(ex, inUnsafe)
	case *UnaryExpr:
		t := tc.typeOf(ex.Expr, inUnsafe)
		if ex.Op == TokBang {
			return PrimitiveType{Kind: Bool}
		}
		return t
	case *BinaryExpr:
		lt := tc.typeOf(ex.Left, inUnsafe)
		rt := tc.typeOf(ex.Right, inUnsafe)
		if (ex.Op == TokPlus || ex.Op == TokMinus) && isPointerArith(lt, rt) {
			if p, ok := lt.(PointerType); ok {
				tc.capability.checkPointerArith(p.Kind, ex.Span(), inUnsafe)
				return p
			}
			p := rt.(PointerType)
			tc.capability.checkPointerArith(p.Kind, ex.Span(), inUnsafe)
			return p
		}
		if lt != nil && rt != nil && !lt.Equal(rt) {
			tc.bag.Errorf("typecheck-mismatched-types", ex.Span(),
				"operands of %s have different types: %s and %s (no implicit conversions)", ex.Op, lt, rt)
		}
		if lt != nil {
			tc.classifyBinaryTrap(ex, lt)
		}
		switch ex.Op {
		case TokAmpAmp, TokPipePipe, TokEqEq, TokNotEq, TokLt, TokLe, TokGt, TokGe:
			return PrimitiveType{Kind: Bool}
		default:
			return lt
		}
	case *ParenExpr:
		return tc.typeOf(ex.Inner, inUnsafe)
	case *StructLitExpr:
		named, ok := tc.named[ex.Type]
		st, isStruct := named.(*StructType)
		if !ok || !isStruct {
			tc.bag.Errorf("typecheck-unknown-type", ex.Span(), "unknown struct type %q", ex.Type)
			return nil
		}
		for _, f := range ex.Fields {
			tc.typeOf(f.Value, inUnsafe)
		}
		return st
	default:
		return nil
	}
}

// isPointerArith reports whether a binary +/- has one pointer operand
// and one integer operand, the shape §4.4.2 calls pointer arithmetic.
func isPointerArith(lt, rt Type) bool {
	_, lIsPtr := lt.(PointerType)
	_, rIsPtr := rt.(PointerType)
	if lIsPtr == rIsPtr {
		return false
	}
	if lIsPtr {
		rprim, ok := rt.(PrimitiveType)
		return ok && rprim.Kind.IsInteger()
	}
	lprim, ok := lt.(PrimitiveType)
	return ok && lprim.Kind.IsInteger()
}

func unwrapStruct(t Type) *StructType {
	st, ok := t.(*StructType)
	if !ok {
		return nil
	}
	return st
}

// typeOfCall dispatches the reserved call forms §4.3 names (at, deref,
// addr, cast, discard, cstr, bytes) before falling back to ordinary
// user-function calls, and hands off to the capability checker for the
// forms that require an enclosing unsafe block.
func (tc *TypeChecker) typeOfCall(ex *CallExpr, inUnsafe bool) Type {
	callee, _ := ex.Callee.(*IdentExpr)
	name := ""
	if callee != nil {
		name = callee.Name
	}
	switch name {
	case "deref":
		argTy := tc.typeOf(ex.Args[0], inUnsafe)
		ptr, ok := argTy.(PointerType)
		if !ok {
			return nil
		}
		tc.capability.checkUnsafeRequired(ptr.Kind, ex.Span(), inUnsafe, "deref")
		return ptr.Elem
	case "addr":
		argTy := tc.typeOf(ex.Args[0], inUnsafe)
		// addr(x) takes no second argument; whether it yields ref(T) or
		// mref(T) is inferred from the position it's being used in (a
		// let's declared type, a return type, or a call argument type).
		kind := PtrKindRef
		if hint, ok := tc.hints[ex]; ok {
			if pt, ok := hint.(PointerType); ok && pt.Kind == PtrKindMref {
				kind = PtrKindMref
			}
		}
		if owner, ok := ex.Args[0].(*IdentExpr); ok {
			tc.borrow.onBorrowCreated(owner.Name, kind, ex.Span())
		}
		return PointerType{Kind: kind, Elem: argTy}
	case "at":
		if len(ex.Args) != 2 {
			return nil
		}
		sliceTy := tc.typeOf(ex.Args[0], inUnsafe)
		tc.typeOf(ex.Args[1], inUnsafe)
		// §4.4.4 allows skipping the bounds check when the index is
		// provably dominated by an `index < len` guard in the same
		// function; this checker doesn't attempt that flow-sensitive
		// proof, so every at() conservatively gets a bounds check.
		tc.traps.set(ex, TrapBounds)
		switch s := sliceTy.(type) {
		case SliceType:
			return s.Elem
		case ArrayType:
			return s.Elem
		}
		return nil
	case "cast":
		if ex.Type != nil {
			var srcTy Type
			for i, a := range ex.Args {
				t := tc.typeOf(a, inUnsafe)
				if i == 0 {
					srcTy = t
				}
			}
			targetTy := tc.resolveTypeExpr(ex.Type)
			if srcPtr, ok := srcTy.(PointerType); ok {
				if dstPtr, ok := targetTy.(PointerType); ok {
					tc.capability.checkPointerBridge(srcPtr.Kind, dstPtr.Kind, ex.Span(), inUnsafe)
				}
			}
			return targetTy
		}
		return nil
	case "discard":
		for _, a := range ex.Args {
			tc.typeOf(a, inUnsafe)
		}
		return PrimitiveType{Kind: Void}
	case "cstr", "bytes":
		for _, a := range ex.Args {
			tc.typeOf(a, inUnsafe)
		}
		return PointerType{Kind: PtrKindRaw, Elem: PrimitiveType{Kind: U8}}
	default:
		sig, ok := tc.fnSig[name]
		if !ok {
			return nil
		}
		if sig.Unsafe && !inUnsafe {
			tc.bag.Errorf("typecheck-unsafe-required", ex.Span(),
				"call to unsafe function %q requires an enclosing unsafe block", name)
		}
		for i, a := range ex.Args {
			if i < len(sig.Params) {
				tc.hints[a] = sig.Params[i]
			}
			argTy := tc.typeOf(a, inUnsafe)
			if i < len(sig.Params) && argTy != nil && !argTy.Equal(sig.Params[i]) {
				tc.bag.Errorf("typecheck-mismatched-types", a.Span(),
					"argument %d to %q has type %s, expected %s", i+1, name, argTy, sig.Params[i])
			}
		}
		return sig.Ret
	}
}
