package fastc

import "fmt"

// Lowerer is component 5 (§4.5): it walks the checked AST and produces
// the C node types in cast.go, expanding every construct C doesn't
// have natively (slices, optionals, results, defer) into the plain
// struct/goto machinery those lower into. Like the teacher's compiler
// (grammar_compiler.go), it keeps small mutable counters across the
// whole walk — here for fresh temporary and label names — rather than
// threading them through every call.
type Lowerer struct {
	tc *TypeChecker

	tempCounter  int
	labelCounter int

	// generated caches struct declarations synthesized for slice,
	// option and result instantiations, keyed by their C type name, so
	// the same instantiation is only emitted once per file.
	generated map[string]CDecl
	genOrder  []string
}

func NewLowerer(tc *TypeChecker) *Lowerer {
	return &Lowerer{tc: tc, generated: make(map[string]CDecl)}
}

func (l *Lowerer) freshTemp() string {
	l.tempCounter++
	return fmt.Sprintf("__fc_tmp%d", l.tempCounter)
}

func (l *Lowerer) freshLabel() string {
	l.labelCounter++
	return fmt.Sprintf("__fc_label%d", l.labelCounter)
}

// LowerFile lowers every item into the C translation unit emitter.go
// prints. Struct/enum/option/result type declarations are emitted
// before any function that uses them, since C requires a complete type
// at first use.
func (l *Lowerer) LowerFile(items []Item) *CFile {
	cfile := &CFile{Includes: []string{"<stdint.h>", "<stdbool.h>", "<stddef.h>", "<string.h>"}}
	for _, item := range items {
		switch d := item.(type) {
		case *StructDecl:
			cfile.Decls = append(cfile.Decls, l.lowerStruct(d))
		case *EnumDecl:
			cfile.Decls = append(cfile.Decls, l.lowerEnum(d))
		case *OpaqueDecl:
			cfile.Decls = append(cfile.Decls, &CTypedefDecl{Name: d.Name, Pub: d.Pub, Type: CNamed{Name: "void"}})
		}
	}
	for _, item := range items {
		switch d := item.(type) {
		case *FnDecl:
			if d.Body != nil {
				cfile.Decls = append(cfile.Decls, l.lowerFnProto(d))
			}
		case *ExternBlock:
			for _, fn := range d.Fns {
				cfile.Decls = append(cfile.Decls, &CFnProto{Name: fn.Name, Pub: fn.Pub, Params: l.lowerParams(fn.Params), Ret: l.lowerType(l.tc.resolveTypeExpr(fn.Ret))})
			}
		}
	}
	for _, item := range items {
		if d, ok := item.(*FnDecl); ok && d.Body != nil {
			cfile.Decls = append(cfile.Decls, l.lowerFn(d))
		}
	}
	// Generated slice/option/result structs are prepended so they
	// precede every declaration that references them.
	generated := make([]CDecl, 0, len(l.genOrder))
	for _, name := range l.genOrder {
		generated = append(generated, l.generated[name])
	}
	cfile.Decls = append(generated, cfile.Decls...)
	return cfile
}

func (l *Lowerer) lowerStruct(d *StructDecl) *CStructDecl {
	st := l.tc.named[d.Name].(*StructType)
	cd := &CStructDecl{Name: d.Name, Pub: d.Pub}
	for _, f := range st.Fields {
		cd.Fields = append(cd.Fields, CField{Name: f.Name, Type: l.lowerType(f.Type)})
	}
	return cd
}

func (l *Lowerer) lowerEnum(d *EnumDecl) *CEnumDecl {
	width := d.ReprWidth
	if width == 0 {
		width = 32
	}
	return &CEnumDecl{Name: d.Name, Pub: d.Pub, Variants: append([]string{}, d.Variants...), Width: width}
}

// lowerType expands §3.5's sum types and §3.3's slice type into the
// tagged-struct / fat-pointer representations §4.5 specifies,
// synthesizing the backing struct declaration on first use.
func (l *Lowerer) lowerType(t Type) CType {
	switch ty := t.(type) {
	case PrimitiveType:
		return CNamed{Name: primitiveCName(ty.Kind)}
	case PointerType:
		return CPointer{Elem: l.lowerType(ty.Elem)}
	case ArrayType:
		return CArray{Elem: l.lowerType(ty.Elem), Size: ty.Size}
	case SliceType:
		return CNamed{Name: l.sliceStructName(ty)}
	case OptionType:
		return CNamed{Name: l.optionStructName(ty)}
	case ResultType:
		return CNamed{Name: l.resultStructName(ty)}
	case *StructType:
		return CNamed{Name: ty.Name}
	case *EnumType:
		return CNamed{Name: ty.Name}
	case OpaqueType:
		return CPointer{Elem: CNamed{Name: "void"}}
	case FnType:
		return CNamed{Name: "void*"} // function values are not first-class targets in C11 emission
	default:
		return CNamed{Name: "void"}
	}
}

func primitiveCName(k PrimitiveKind) string {
	switch k {
	case I8:
		return "int8_t"
	case I16:
		return "int16_t"
	case I32:
		return "int32_t"
	case I64:
		return "int64_t"
	case U8:
		return "uint8_t"
	case U16:
		return "uint16_t"
	case U32:
		return "uint32_t"
	case U64:
		return "uint64_t"
	case F32:
		return "float"
	case F64:
		return "double"
	case Bool:
		return "bool"
	default:
		return "void"
	}
}

// sliceStructName returns (and, on first use, emits) the name of the
// `{T* data; size_t len;}` struct §4.5 specifies for slice(T).
func (l *Lowerer) sliceStructName(t SliceType) string {
	elemC := l.lowerType(t.Elem)
	name := "FcSlice_" + sanitizeCIdent(elemC.cTypeString())
	if _, ok := l.generated[name]; ok {
		return name
	}
	decl := &CStructDecl{Name: name, Pub: true, Fields: []CField{
		{Name: "data", Type: CPointer{Elem: elemC}},
		{Name: "len", Type: CNamed{Name: "size_t"}},
	}}
	l.generated[name] = decl
	l.genOrder = append(l.genOrder, name)
	return name
}

func (l *Lowerer) optionStructName(t OptionType) string {
	elemC := l.lowerType(t.Elem)
	name := "FcOpt_" + sanitizeCIdent(elemC.cTypeString())
	if _, ok := l.generated[name]; ok {
		return name
	}
	decl := &CStructDecl{Name: name, Pub: true, Fields: []CField{
		{Name: "has_value", Type: CNamed{Name: "bool"}},
		{Name: "value", Type: elemC},
	}}
	l.generated[name] = decl
	l.genOrder = append(l.genOrder, name)
	return name
}

func (l *Lowerer) resultStructName(t ResultType) string {
	okC, errC := l.lowerType(t.Ok), l.lowerType(t.Err)
	name := "FcRes_" + sanitizeCIdent(okC.cTypeString()) + "_" + sanitizeCIdent(errC.cTypeString())
	if _, ok := l.generated[name]; ok {
		return name
	}
	decl := &CStructDecl{Name: name, Pub: true, Fields: []CField{
		{Name: "is_ok", Type: CNamed{Name: "bool"}},
		{Name: "ok", Type: okC},
		{Name: "err", Type: errC},
	}}
	l.generated[name] = decl
	l.genOrder = append(l.genOrder, name)
	return name
}

func (l *Lowerer) lowerParams(params []Param) []CParam {
	out := make([]CParam, 0, len(params))
	for _, p := range params {
		out = append(out, CParam{Name: p.Name, Type: l.lowerType(l.tc.resolveTypeExpr(p.Type))})
	}
	return out
}

func (l *Lowerer) lowerFnProto(d *FnDecl) *CFnProto {
	return &CFnProto{Name: d.Name, Pub: d.Pub, Params: l.lowerParams(d.Params), Ret: l.lowerType(l.tc.resolveTypeExpr(d.Ret))}
}

func (l *Lowerer) lowerFn(d *FnDecl) *CFnDecl {
	proto := l.lowerFnProto(d)
	ctx := &fnLowerCtx{lowerer: l, retType: proto.Ret}
	if blockHasDefer(d.Body) {
		// Reserve the cleanup label and retval up front: a function can
		// fall off the end of its body (an implicit void return) without
		// ever lowering an explicit *ReturnStmt, and the cleanup label
		// still needs a real name in that case.
		ctx.cleanupTag = l.freshLabel()
		ctx.retvalName = l.freshTemp()
	}
	body := ctx.lowerBlockWithDefers(d.Body)
	return &CFnDecl{Proto: *proto, Body: body}
}

// blockHasDefer reports whether a defer statement appears anywhere in
// b, including nested blocks, so the caller can reserve a cleanup
// label before lowering even starts.
func blockHasDefer(b *BlockStmt) bool {
	for _, s := range b.Stmts {
		if stmtHasDefer(s) {
			return true
		}
	}
	return false
}

func stmtHasDefer(s Stmt) bool {
	switch st := s.(type) {
	case *DeferStmt:
		return true
	case *BlockStmt:
		return blockHasDefer(st)
	case *IfStmt:
		if blockHasDefer(st.Then) {
			return true
		}
		return st.Else != nil && stmtHasDefer(st.Else)
	case *IfLetStmt:
		if blockHasDefer(st.Then) {
			return true
		}
		return st.Else != nil && blockHasDefer(st.Else)
	case *WhileStmt:
		return blockHasDefer(st.Body)
	case *ForStmt:
		return blockHasDefer(st.Body)
	case *SwitchStmt:
		for _, c := range st.Cases {
			if blockHasDefer(c.Body) {
				return true
			}
		}
		return st.Default != nil && blockHasDefer(st.Default)
	case *UnsafeStmt:
		return blockHasDefer(st.Body)
	default:
		return false
	}
}

// fnLowerCtx carries the per-function state the defer lowering needs:
// the stack of deferred bodies seen so far and the single cleanup
// label every early return funnels through.
type fnLowerCtx struct {
	lowerer    *Lowerer
	retType    CType
	deferred   []*BlockStmt
	cleanupTag string
	retvalName string

	// continueLabel, when non-empty, is where a `continue` inside the
	// innermost loop must jump instead of emitting a plain C `continue` —
	// used by loops lowered to a C while with a tail (a for-loop's step,
	// a hoisted condition's recompute), so continue still runs that tail
	// before the condition is retested.
	continueLabel string
}

func (c *fnLowerCtx) lowerBlock(b *BlockStmt) []CStmt {
	var out []CStmt
	for _, s := range b.Stmts {
		out = append(out, c.lowerStmt(s)...)
	}
	return out
}

// withLoopContinue lowers a loop body under the given continue target
// (see fnLowerCtx.continueLabel), restoring the enclosing loop's target
// (if any) once the body is done, so nested loops each see their own
// innermost continue target rather than an outer one.
func (c *fnLowerCtx) withLoopContinue(label string, body func() []CStmt) []CStmt {
	prev := c.continueLabel
	c.continueLabel = label
	out := body()
	c.continueLabel = prev
	return out
}

// recomputeHoisted turns a loop condition's hoisted statements, already
// emitted once before the loop, into the in-loop recompute: each
// temporary declaration becomes an assignment to that same temporary,
// so the retest reads fresh values rather than a shadowing copy.
func recomputeHoisted(pre []CStmt) []CStmt {
	out := make([]CStmt, 0, len(pre))
	for _, s := range pre {
		if decl, ok := s.(*CVarDecl); ok {
			if decl.Init != nil {
				out = append(out, &CExprStmt{Expr: &CAssignExpr{Target: &CIdentExpr{Name: decl.Name}, Value: decl.Init}})
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

func (c *fnLowerCtx) lowerStmt(s Stmt) []CStmt {
	switch st := s.(type) {
	case *LetStmt:
		pre, val := c.lowerExprHoisted(st.Init)
		ty := c.lowerer.lowerType(c.lowerer.tc.ExprType(st.Init))
		if st.Type != nil {
			ty = c.lowerer.lowerType(c.lowerer.tc.resolveTypeExpr(st.Type))
		}
		return append(pre, &CVarDecl{Name: st.Name, Type: ty, Init: val})
	case *AssignStmt:
		pre, val := c.lowerExprHoisted(st.Value)
		_, target := c.lowerExprHoisted(st.Target)
		return append(pre, &CExprStmt{Expr: &CAssignExpr{Target: target, Value: val}})
	case *IfStmt:
		pre, cond := c.lowerExprHoisted(st.Cond)
		ifStmt := &CIfStmt{Cond: cond, Then: c.lowerBlock(st.Then)}
		if st.Else != nil {
			ifStmt.Else = c.lowerStmt(st.Else)
		}
		return append(pre, ifStmt)
	case *IfLetStmt:
		return c.lowerIfLet(st)
	case *WhileStmt:
		pre, cond := c.lowerExprHoisted(st.Cond)
		if len(pre) == 0 {
			body := c.withLoopContinue("", func() []CStmt { return c.lowerBlock(st.Body) })
			return []CStmt{&CWhileStmt{Cond: cond, Body: body}}
		}
		// The condition needs hoisted temporaries recomputed before every
		// retest, including on a `continue`: route continue through a
		// label placed right before the recompute instead of a plain C
		// continue, which would skip straight past it to the test.
		label := c.lowerer.freshLabel()
		body := c.withLoopContinue(label, func() []CStmt { return c.lowerBlock(st.Body) })
		body = append(body, &CLabelStmt{Name: label})
		body = append(body, recomputeHoisted(pre)...)
		return append(pre, &CWhileStmt{Cond: cond, Body: body})
	case *ForStmt:
		var initStmts []CStmt
		if st.Init != nil {
			initStmts = c.lowerStmt(st.Init)
		}
		condPre, cond := c.lowerExprHoisted(st.Cond)
		var stepStmts []CStmt
		if st.Step != nil {
			stepStmts = c.lowerStmt(st.Step)
		}
		if len(condPre) == 0 && len(initStmts) <= 1 && len(stepStmts) <= 1 {
			var init, step CStmt
			if len(initStmts) == 1 {
				init = initStmts[0]
			}
			if len(stepStmts) == 1 {
				step = stepStmts[0]
			}
			body := c.withLoopContinue("", func() []CStmt { return c.lowerBlock(st.Body) })
			return []CStmt{&CForStmt{Init: init, Cond: cond, Step: step, Body: body}}
		}
		// Init, step, or the condition itself needed more than one C
		// statement (hoisted call-argument temporaries) — a literal C
		// `for(init; cond; step)` can't hold that, so lower to the
		// equivalent while-loop, with continue routed through a label
		// placed right before the step so it still runs on every
		// iteration, matching a real for-loop's continue semantics.
		label := c.lowerer.freshLabel()
		body := c.withLoopContinue(label, func() []CStmt { return c.lowerBlock(st.Body) })
		body = append(body, &CLabelStmt{Name: label})
		body = append(body, stepStmts...)
		body = append(body, recomputeHoisted(condPre)...)
		loop := []CStmt{&CWhileStmt{Cond: cond, Body: body}}
		return append(append(append([]CStmt{}, initStmts...), condPre...), loop...)
	case *SwitchStmt:
		return c.lowerSwitch(st)
	case *ReturnStmt:
		return c.lowerReturn(st)
	case *BreakStmt:
		return []CStmt{&CBreakStmt{}}
	case *ContinueStmt:
		if c.continueLabel != "" {
			return []CStmt{&CGotoStmt{Label: c.continueLabel}}
		}
		return []CStmt{&CContinueStmt{}}
	case *DeferStmt:
		c.deferred = append(c.deferred, st.Body)
		return nil
	case *UnsafeStmt:
		return c.lowerBlock(st.Body)
	case *BlockStmt:
		return c.lowerBlock(st)
	case *ExprStmt:
		if st.Call == nil {
			return nil
		}
		pre, call := c.lowerExprHoisted(st.Call)
		return append(pre, &CExprStmt{Expr: call})
	}
	return nil
}

func (c *fnLowerCtx) lowerIfLet(st *IfLetStmt) []CStmt {
	pre, val := c.lowerExprHoisted(st.Expr)
	tag := "has_value"
	ty := c.lowerer.tc.ExprType(st.Expr)
	if _, isResult := ty.(ResultType); isResult {
		tag = "is_ok"
	}
	field := "value"
	if tag == "is_ok" {
		field = "ok"
	}
	tmp := c.lowerer.freshTemp()
	decl := &CVarDecl{Name: tmp, Type: c.lowerer.lowerType(ty), Init: val}
	bind := &CVarDecl{Name: st.Name, Type: c.lowerer.lowerType(unwrapSum(ty)), Init: &CMemberExpr{Target: &CIdentExpr{Name: tmp}, Field: field}}
	body := append([]CStmt{bind}, c.lowerBlock(st.Then)...)
	ifStmt := &CIfStmt{Cond: &CMemberExpr{Target: &CIdentExpr{Name: tmp}, Field: tag}, Then: body}
	if st.Else != nil {
		ifStmt.Else = c.lowerBlock(st.Else)
	}
	return append(pre, decl, ifStmt)
}

func unwrapSum(t Type) Type {
	switch ty := t.(type) {
	case OptionType:
		return ty.Elem
	case ResultType:
		return ty.Ok
	default:
		return t
	}
}

func (c *fnLowerCtx) lowerSwitch(st *SwitchStmt) []CStmt {
	pre, scrut := c.lowerExprHoisted(st.Scrutinee)
	var chain *CIfStmt
	var head *CIfStmt
	for _, cs := range st.Cases {
		_, label := c.lowerExprHoisted(cs.Label)
		next := &CIfStmt{
			Cond: &CBinaryExpr{Op: "==", Left: scrut, Right: label},
			Then: c.lowerBlock(cs.Body),
		}
		if head == nil {
			head = next
		} else {
			chain.Else = []CStmt{next}
		}
		chain = next
	}
	if st.Default != nil {
		defaultBody := c.lowerBlock(st.Default)
		if chain != nil {
			chain.Else = defaultBody
		} else {
			return append(pre, defaultBody...)
		}
	}
	if head == nil {
		return pre
	}
	return append(pre, head)
}

