package fastc

// Check runs the full front end — lex, parse, resolve, type-check, and
// (under SafetyLevel critical) the Power-of-10 pass — without lowering
// or emitting, and returns every diagnostic produced. It never returns
// a Go error: a malformed program is a normal, fully-described outcome
// here, not a failure of the compiler itself (see SPEC_FULL.md's error
// handling section). A panic recovered from an internalError is the
// one case that still surfaces as a synthetic diagnostic, since it
// signals a compiler bug rather than a user mistake.
func Check(name string, src []byte, loader Loader, opts Options) (diags []Diagnostic) {
	bag := &DiagnosticBag{}
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(internalError); ok {
				bag.Errorf("internal-error", Span{}, "%s", ie.Error())
			} else {
				panic(r)
			}
		}
		diags = bag.Items()
	}()

	items, _, _, _ := runFrontend(name, src, loader, bag)
	if opts.SafetyLevel == SafetyCritical {
		newPowerOf10Checker(bag).Run(items)
	}
	if opts.Strict {
		escalateWarnings(bag)
	}
	return bag.Items()
}

// Compile runs the full pipeline through emission. It returns the
// generated .c source, the .h source (empty unless opts.EmitHeader),
// and every diagnostic. Compile refuses to lower or emit a program
// that failed resolution or type checking — generating C from a
// program with unresolved names or type errors would silently paper
// over the user's mistake.
func Compile(name string, src []byte, loader Loader, opts Options) (cSource, hSource string, diags []Diagnostic) {
	bag := &DiagnosticBag{}
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(internalError); ok {
				bag.Errorf("internal-error", Span{}, "%s", ie.Error())
			} else {
				panic(r)
			}
		}
		diags = bag.Items()
	}()

	items, tc, _, _ := runFrontend(name, src, loader, bag)
	if bag.HasErrors() {
		return "", "", bag.Items()
	}

	lowerer := NewLowerer(tc)
	cfile := lowerer.LowerFile(items)

	headerName := opts.HeaderName
	if headerName == "" {
		headerName = "out.h"
	}
	emitter := NewEmitter(opts.RuntimeInclude)
	cSource = emitter.EmitSource(cfile, headerName)
	if opts.EmitHeader {
		hEmitter := NewEmitter(opts.RuntimeInclude)
		hSource = hEmitter.EmitHeader(cfile, headerName)
	}
	if opts.Strict {
		escalateWarnings(bag)
	}
	return cSource, hSource, bag.Items()
}

// Format re-prints a syntactically valid FastC source file in its
// canonical layout (see ast_printer.go), without running resolution or
// type checking — a formatter must work on code that doesn't yet
// type-check, the same way gofmt works on code that doesn't yet
// compile.
func Format(src []byte) (string, []Diagnostic) {
	bag := &DiagnosticBag{}
	lx := NewLexer(src, bag)
	toks := lx.Tokenize()
	p := NewParser(src, toks, bag)
	file := p.ParseFile()
	if bag.HasErrors() {
		return "", bag.Items()
	}
	return PrintFile(file), bag.Items()
}

// runFrontend shares the lex/parse/module-resolve/resolve/type-check
// sequence between Check and Compile so the two entry points can never
// drift apart on what counts as a front-end error.
func runFrontend(name string, src []byte, loader Loader, bag *DiagnosticBag) ([]Item, *TypeChecker, *Resolver, *ModuleGraph) {
	graph := NewModuleGraph(loader, bag)
	items := graph.Resolve(name, src)

	r := NewResolver(bag)
	r.CollectDeclarations(items)
	r.ResolveBodies(items)

	tc := NewTypeChecker(bag, r.Symbols())
	tc.ResolveNamedTypes(items)
	tc.CheckFunctions(items)

	return items, tc, r, graph
}

func escalateWarnings(bag *DiagnosticBag) {
	for i := range bag.items {
		if bag.items[i].Severity == SeverityWarning {
			bag.items[i].Severity = SeverityError
		}
	}
}
