package fastc

// scope is one lexical block's variable bindings. Scopes nest by
// pushing onto Resolver.scopes for the duration of a block and popping
// on exit, the same stack discipline the teacher's grammar compiler
// uses for its label/variable bookkeeping (grammar_compiler.go), just
// keyed by name instead of by grammar rule.
type scope struct {
	vars map[string]Span
}

// Resolver runs the two-sub-pass name resolution §5 (component 3)
// requires: first it collects every top-level declaration into a
// SymbolTable (catching duplicate names), then it walks each function
// body resolving every identifier reference against that table plus
// the local scope stack, catching undefined names and shadowing.
type Resolver struct {
	bag     *DiagnosticBag
	syms    *SymbolTable
	scopes  []*scope
	fnRet   TypeExpr
	inLoop  int
}

func NewResolver(bag *DiagnosticBag) *Resolver {
	return &Resolver{bag: bag, syms: NewSymbolTable()}
}

// Symbols exposes the table built by CollectDeclarations, consumed by
// the type checker to resolve named types and call targets.
func (r *Resolver) Symbols() *SymbolTable { return r.syms }

// CollectDeclarations is sub-pass one: register every top-level name,
// reporting duplicates. It must run to completion before ResolveBodies, since
// forward references (a function calling one declared later in the
// same file) are legal.
func (r *Resolver) CollectDeclarations(items []Item) {
	for _, item := range items {
		switch d := item.(type) {
		case *FnDecl:
			r.declare(d.Name, SymFn, d)
		case *StructDecl:
			r.declare(d.Name, SymStruct, d)
		case *EnumDecl:
			r.declare(d.Name, SymEnum, d)
		case *ConstDecl:
			r.declare(d.Name, SymConst, d)
		case *OpaqueDecl:
			r.declare(d.Name, SymOpaque, d)
		case *ExternBlock:
			for _, fn := range d.Fns {
				r.declare(fn.Name, SymFn, fn)
			}
		case *UseDecl, *ModDecl:
			// Resolved by module.go before the resolver ever sees items.
		}
	}
}

func (r *Resolver) declare(name string, kind SymbolKind, decl Item) {
	if existing, ok := r.syms.Lookup(name); ok {
		r.bag.Errorf("resolve-duplicate-name", decl.Span(),
			"%q is already declared as a %s", name, existing.Kind)
		return
	}
	r.syms.byName[name] = &Symbol{Name: name, Kind: kind, Decl: decl}
}

// ResolveBodies is sub-pass two: walk every function body, resolving
// identifier references against the symbol table and the local scope
// stack.
func (r *Resolver) ResolveBodies(items []Item) {
	for _, item := range items {
		switch d := item.(type) {
		case *FnDecl:
			r.resolveFn(d)
		case *ExternBlock:
			for _, fn := range d.Fns {
				r.resolveFn(fn)
			}
		case *ConstDecl:
			r.resolveExpr(d.Expr)
		}
	}
}

func (r *Resolver) resolveFn(fn *FnDecl) {
	if fn.Body == nil {
		return
	}
	r.fnRet = fn.Ret
	r.pushScope()
	for _, p := range fn.Params {
		r.bindVar(p.Name, p.Span)
	}
	// The body's top-level block shares the parameter scope rather than
	// pushing its own, so a `let` that shadows a parameter is caught by
	// the same duplicate-in-scope check as two `let`s with the same name.
	for _, s := range fn.Body.Stmts {
		r.resolveStmt(s)
	}
	r.popScope()
}

func (r *Resolver) pushScope() { r.scopes = append(r.scopes, &scope{vars: map[string]Span{}}) }
func (r *Resolver) popScope()  { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) bindVar(name string, span Span) {
	top := r.scopes[len(r.scopes)-1]
	if _, ok := top.vars[name]; ok {
		r.bag.Errorf("resolve-duplicate-name", span, "%q is already declared in this scope", name)
		return
	}
	top.vars[name] = span
}

func (r *Resolver) lookupVar(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i].vars[name]; ok {
			return true
		}
	}
	return false
}

func (r *Resolver) resolveBlock(b *BlockStmt) {
	r.pushScope()
	defer r.popScope()
	for _, s := range b.Stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s Stmt) {
	switch st := s.(type) {
	case *LetStmt:
		r.resolveExpr(st.Init)
		r.bindVar(st.Name, st.Span())
	case *AssignStmt:
		r.resolveExpr(st.Target)
		r.resolveExpr(st.Value)
	case *IfStmt:
		r.resolveExpr(st.Cond)
		r.resolveBlock(st.Then)
		if st.Else != nil {
			r.resolveStmt(st.Else)
		}
	case *IfLetStmt:
		r.resolveExpr(st.Expr)
		r.pushScope()
		r.bindVar(st.Name, st.Span())
		for _, inner := range st.Then.Stmts {
			r.resolveStmt(inner)
		}
		r.popScope()
		if st.Else != nil {
			r.resolveBlock(st.Else)
		}
	case *WhileStmt:
		r.resolveExpr(st.Cond)
		r.inLoop++
		r.resolveBlock(st.Body)
		r.inLoop--
	case *ForStmt:
		r.pushScope()
		if st.Init != nil {
			r.resolveStmt(st.Init)
		}
		if st.Cond != nil {
			r.resolveExpr(st.Cond)
		}
		if st.Step != nil {
			r.resolveStmt(st.Step)
		}
		r.inLoop++
		for _, inner := range st.Body.Stmts {
			r.resolveStmt(inner)
		}
		r.inLoop--
		r.popScope()
	case *SwitchStmt:
		r.resolveExpr(st.Scrutinee)
		for _, c := range st.Cases {
			r.resolveBlock(c.Body)
		}
		if st.Default != nil {
			r.resolveBlock(st.Default)
		}
	case *ReturnStmt:
		if st.Value != nil {
			r.resolveExpr(st.Value)
		}
	case *BreakStmt:
		if r.inLoop == 0 {
			r.bag.Errorf("resolve-break-outside-loop", st.Span(), "break outside of a loop")
		}
	case *ContinueStmt:
		if r.inLoop == 0 {
			r.bag.Errorf("resolve-continue-outside-loop", st.Span(), "continue outside of a loop")
		}
	case *DeferStmt:
		r.resolveBlock(st.Body)
	case *UnsafeStmt:
		r.resolveBlock(st.Body)
	case *BlockStmt:
		r.resolveBlock(st)
	case *ExprStmt:
		if st.Call != nil {
			r.resolveExpr(st.Call)
		}
	}
}

// reservedCallForms are the built-in call forms the type checker
// dispatches on by name in typeOfCall; they are never declared symbols.
var reservedCallForms = map[string]bool{
	"at": true, "deref": true, "addr": true, "cast": true, "discard": true, "cstr": true, "bytes": true,
}

func (r *Resolver) resolveExpr(e Expr) {
	switch ex := e.(type) {
	case nil:
	case *IdentExpr:
		if r.lookupVar(ex.Name) {
			return
		}
		if _, ok := r.syms.Lookup(ex.Name); ok {
			return
		}
		r.reportUndefined(ex.Name, ex.Span())
	case *FieldAccessExpr:
		r.resolveExpr(ex.Target)
	case *EnumPathExpr:
		sym, ok := r.syms.Lookup(ex.Enum)
		if !ok {
			r.reportUndefined(ex.Enum, ex.Span())
			return
		}
		if sym.Kind != SymEnum {
			r.bag.Errorf("resolve-not-an-enum", ex.Span(), "%q is a %s, not an enum", ex.Enum, sym.Kind)
			return
		}
		enum := sym.Decl.(*EnumDecl)
		for _, v := range enum.Variants {
			if v == ex.Variant {
				return
			}
		}
		r.bag.Errorf("resolve-unknown-variant", ex.Span(), "enum %q has no variant %q", ex.Enum, ex.Variant)
	case *CallExpr:
		if id, ok := ex.Callee.(*IdentExpr); !ok || !reservedCallForms[id.Name] {
			r.resolveExpr(ex.Callee)
		}
		for _, a := range ex.Args {
			r.resolveExpr(a)
		}
	case *UnaryExpr:
		r.resolveExpr(ex.Expr)
	case *BinaryExpr:
		r.resolveExpr(ex.Left)
		r.resolveExpr(ex.Right)
	case *ParenExpr:
		r.resolveExpr(ex.Inner)
	case *StructLitExpr:
		for _, f := range ex.Fields {
			r.resolveExpr(f.Value)
		}
	}
}

func (r *Resolver) reportUndefined(name string, span Span) {
	candidates := r.syms.Names()
	for i := len(r.scopes) - 1; i >= 0; i-- {
		for v := range r.scopes[i].vars {
			candidates = append(candidates, v)
		}
	}
	if suggestion := didYouMean(name, candidates); suggestion != "" {
		r.bag.Errorf("resolve-undefined-name", span, "undefined name %q; did you mean %q?", name, suggestion)
		return
	}
	r.bag.Errorf("resolve-undefined-name", span, "undefined name %q", name)
}
