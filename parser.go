package fastc

import "fmt"

// Parser is a recursive-descent parser over a pre-lexed token stream. It
// keeps the teacher's shape (a cursor-bearing struct, one method per
// grammar production, each production's comment stating the rule it
// implements) but trades the teacher's rune-level PEG combinators for
// plain token-at-a-time descent with one token of lookahead, since §4.2
// fixes the grammar to be LL(1) except for the two disambiguations it
// names explicitly.
type Parser struct {
	toks []Token
	pos  int
	bag  *DiagnosticBag
	li   *LineIndex

	// noStructLit suppresses `Ident {` being parsed as a struct literal
	// while parsing the condition of if/while/for/switch, resolving the
	// struct-literal-vs-block ambiguity via a parser context flag.
	noStructLit bool
}

func NewParser(src []byte, toks []Token, bag *DiagnosticBag) *Parser {
	return &Parser{toks: toks, bag: bag, li: NewLineIndex(src)}
}

func (p *Parser) span(r Range) Span { return p.li.Span(r) }

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) at(k TokenKind) bool { return p.cur().Kind == k }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k TokenKind) (Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errorf("parse-unexpected-token", p.cur().Rng, "expected %s but found %s", k, p.describeCur())
	return Token{}, false
}

func (p *Parser) describeCur() string {
	if p.cur().Kind == TokEOF {
		return "end of file"
	}
	return fmt.Sprintf("%s %q", p.cur().Kind, p.cur().Text)
}

func (p *Parser) errorf(code string, r Range, format string, args ...any) {
	p.bag.Errorf(code, p.span(r), format, args...)
}

// recoverStmt skips tokens until a statement terminator, a closing brace, or
// EOF, so a single malformed statement doesn't stop the whole file from
// being checked (§4.2 "Errors and recovery").
func (p *Parser) recoverStmt() {
	depth := 0
	for !p.at(TokEOF) {
		switch p.cur().Kind {
		case TokLBrace:
			depth++
		case TokRBrace:
			if depth == 0 {
				return
			}
			depth--
		case TokSemi:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// recoverItem skips to the next token that can start a top-level item,
// used when an item itself is malformed.
func (p *Parser) recoverItem() {
	for !p.at(TokEOF) {
		switch p.cur().Kind {
		case TokFn, TokStruct, TokEnum, TokConst, TokOpaque, TokExtern, TokUse, TokMod, TokPub:
			return
		case TokRBrace:
			p.advance()
			return
		}
		p.advance()
	}
}

// ---- File / items ----

// ParseFile <- Item* EOF
func (p *Parser) ParseFile() *File {
	start := p.cur().Rng
	var items []Item
	for !p.at(TokEOF) {
		before := p.pos
		item := p.parseItem()
		if item != nil {
			items = append(items, item)
		}
		if p.pos == before {
			// Guarantee forward progress even on total garbage input.
			p.errorf("parse-malformed-item", p.cur().Rng, "malformed top-level item")
			p.recoverItem()
		}
	}
	end := p.cur().Rng
	return &File{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Items: items}
}

func (p *Parser) parseItem() Item {
	pub := false
	if p.at(TokPub) {
		p.advance()
		pub = true
	}
	kind := p.cur().Kind
	if kind == TokAt {
		// Attributes precede the struct or enum keyword they apply to;
		// look past them to choose the production.
		for i := p.pos; i < len(p.toks) && p.toks[i].Kind != TokLBrace && p.toks[i].Kind != TokSemi; i++ {
			if k := p.toks[i].Kind; k == TokStruct || k == TokEnum {
				kind = k
				break
			}
		}
	}
	switch kind {
	case TokFn, TokUnsafe:
		return p.parseFnDecl(pub, false)
	case TokStruct:
		return p.parseStructDecl(pub)
	case TokEnum:
		return p.parseEnumDecl(pub)
	case TokConst:
		return p.parseConstDecl(pub)
	case TokOpaque:
		return p.parseOpaqueDecl(pub)
	case TokExtern:
		return p.parseExternBlock()
	case TokUse:
		return p.parseUseDecl()
	case TokMod:
		return p.parseModDecl()
	default:
		p.errorf("parse-malformed-item", p.cur().Rng, "expected an item but found %s", p.describeCur())
		p.recoverItem()
		return nil
	}
}

// FnDecl <- 'unsafe'? 'fn' Ident '(' Params ')' '->' Type Block
func (p *Parser) parseFnDecl(pub, forceUnsafe bool) *FnDecl {
	start := p.cur().Rng
	unsafeFn := forceUnsafe
	if p.at(TokUnsafe) {
		p.advance()
		unsafeFn = true
	}
	p.expect(TokFn)
	name := p.identName()
	p.expect(TokLParen)
	var params []Param
	for !p.at(TokRParen) && !p.at(TokEOF) {
		pname := p.identName()
		p.expect(TokColon)
		ptype := p.parseType()
		params = append(params, Param{Name: pname, Type: ptype, Span: p.span(p.cur().Rng)})
		if p.at(TokComma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(TokRParen)
	p.expect(TokArrow)
	ret := p.parseType()

	isExtern := false
	var body *BlockStmt
	if p.at(TokSemi) {
		p.advance()
		isExtern = true
	} else {
		body = p.parseBlock()
	}
	end := p.toks[p.pos-1].Rng
	return &FnDecl{
		baseNode: baseNode{p.span(Range{start.Start, end.End})},
		Name:     name, Pub: pub, Unsafe: unsafeFn,
		Params: params, Ret: ret, Body: body, IsExtern: isExtern,
	}
}

func (p *Parser) identName() string {
	if p.at(TokIdent) {
		return p.advance().Text
	}
	p.errorf("parse-expected-identifier", p.cur().Rng, "expected identifier but found %s", p.describeCur())
	return ""
}

func (p *Parser) parseAttrReprC() bool {
	if !p.at(TokAt) {
		return false
	}
	p.advance()
	name := p.identName()
	if p.at(TokLParen) {
		p.advance()
		for !p.at(TokRParen) && !p.at(TokEOF) {
			p.advance()
		}
		p.expect(TokRParen)
	}
	return name == "repr"
}

// parseEnumAttr consumes one `@ident(...)` attribute and, when it is
// `@width(N)` (Invariant #5's override of an enum's default 32-bit
// signed discriminant), returns the requested width. N must be one of
// the eight integer widths (8/16/32/64, signed and unsigned share a
// width); anything else is a parse error. Any other attribute is
// consumed and ignored.
func (p *Parser) parseEnumAttr() (width int, applied bool) {
	if !p.at(TokAt) {
		return 0, false
	}
	p.advance()
	name := p.identName()
	if name != "width" {
		if p.at(TokLParen) {
			p.advance()
			for !p.at(TokRParen) && !p.at(TokEOF) {
				p.advance()
			}
			p.expect(TokRParen)
		}
		return 0, false
	}
	p.expect(TokLParen)
	tok := p.cur()
	n := 0
	if p.at(TokInt) {
		fmt.Sscanf(p.advance().Text, "%d", &n)
	} else {
		p.errorf("parse-expected-width", tok.Rng, "expected an integer width but found %s", p.describeCur())
	}
	p.expect(TokRParen)
	switch n {
	case 8, 16, 32, 64:
	default:
		p.errorf("parse-invalid-width", tok.Rng, "enum discriminant width must be one of 8, 16, 32, 64, got %d", n)
		n = 0
	}
	return n, true
}

// StructDecl <- ('@' attr)? 'struct' Ident '{' Field* '}'
func (p *Parser) parseStructDecl(pub bool) *StructDecl {
	start := p.cur().Rng
	reprC := false
	for p.at(TokAt) {
		if p.parseAttrReprC() {
			reprC = true
		}
	}
	p.expect(TokStruct)
	name := p.identName()
	p.expect(TokLBrace)
	var fields []FieldDecl
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		fname := p.identName()
		p.expect(TokColon)
		ftype := p.parseType()
		fields = append(fields, FieldDecl{Name: fname, Type: ftype, Span: p.span(p.cur().Rng)})
		if p.at(TokComma) || p.at(TokSemi) {
			p.advance()
		}
	}
	end := p.cur().Rng
	p.expect(TokRBrace)
	return &StructDecl{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name, Pub: pub, ReprC: reprC, Fields: fields}
}

// EnumDecl <- ('@' attr)? 'enum' Ident '{' Ident (',' Ident)* '}'
func (p *Parser) parseEnumDecl(pub bool) *EnumDecl {
	start := p.cur().Rng
	width := 0
	for p.at(TokAt) {
		if w, ok := p.parseEnumAttr(); ok {
			width = w
		}
	}
	p.expect(TokEnum)
	name := p.identName()
	p.expect(TokLBrace)
	var variants []string
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		variants = append(variants, p.identName())
		if p.at(TokComma) {
			p.advance()
		}
	}
	end := p.cur().Rng
	p.expect(TokRBrace)
	return &EnumDecl{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name, Pub: pub, ReprWidth: width, Variants: variants}
}

// ConstDecl <- 'const' Ident ':' Type '=' Expr ';'
func (p *Parser) parseConstDecl(pub bool) *ConstDecl {
	start := p.cur().Rng
	p.expect(TokConst)
	name := p.identName()
	p.expect(TokColon)
	typ := p.parseType()
	p.expect(TokAssign)
	expr := p.parseExpr()
	end := p.cur().Rng
	p.expect(TokSemi)
	return &ConstDecl{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name, Pub: pub, Type: typ, Expr: expr}
}

// OpaqueDecl <- 'opaque' Ident ';'
func (p *Parser) parseOpaqueDecl(pub bool) *OpaqueDecl {
	start := p.cur().Rng
	p.expect(TokOpaque)
	name := p.identName()
	end := p.cur().Rng
	p.expect(TokSemi)
	return &OpaqueDecl{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name, Pub: pub}
}

// ExternBlock <- 'extern' String '{' FnDecl* '}'
func (p *Parser) parseExternBlock() *ExternBlock {
	start := p.cur().Rng
	p.expect(TokExtern)
	p.expect(TokString) // the "C" literal; FastC only supports the C ABI
	p.expect(TokLBrace)
	var fns []*FnDecl
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		if p.at(TokFn) || p.at(TokUnsafe) {
			fns = append(fns, p.parseFnDecl(false, true))
		} else {
			p.errorf("parse-malformed-item", p.cur().Rng, "expected fn declaration inside extern block")
			p.recoverItem()
		}
	}
	end := p.cur().Rng
	p.expect(TokRBrace)
	return &ExternBlock{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Fns: fns}
}

// UseDecl <- 'use' Ident ('::' Ident)* ';'
func (p *Parser) parseUseDecl() *UseDecl {
	start := p.cur().Rng
	p.expect(TokUse)
	path := []string{p.identName()}
	for p.at(TokColonColon) {
		p.advance()
		path = append(path, p.identName())
	}
	end := p.cur().Rng
	p.expect(TokSemi)
	return &UseDecl{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Path: path}
}

// ModDecl <- 'mod' Ident ';'
func (p *Parser) parseModDecl() *ModDecl {
	start := p.cur().Rng
	p.expect(TokMod)
	name := p.identName()
	end := p.cur().Rng
	p.expect(TokSemi)
	return &ModDecl{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name}
}

// ---- Types ----

func (p *Parser) parseType() TypeExpr {
	start := p.cur().Rng
	switch p.cur().Kind {
	case TokIdent:
		name := p.advance().Text
		switch name {
		case "ref", "mref", "raw", "rawm", "own":
			p.expect(TokLParen)
			elem := p.parseType()
			end := p.cur().Rng
			p.expect(TokRParen)
			kinds := map[string]TypeExprPointerKind{"ref": PtrRef, "mref": PtrMref, "raw": PtrRaw, "rawm": PtrRawm, "own": PtrOwn}
			return &PointerTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Kind: kinds[name], Elem: elem}
		case "arr":
			p.expect(TokLParen)
			elem := p.parseType()
			p.expect(TokComma)
			size := p.parseExpr()
			end := p.cur().Rng
			p.expect(TokRParen)
			return &ArrayTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Elem: elem, Size: size}
		case "slice":
			p.expect(TokLParen)
			elem := p.parseType()
			end := p.cur().Rng
			p.expect(TokRParen)
			return &SliceTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Elem: elem}
		case "opt":
			p.expect(TokLParen)
			elem := p.parseType()
			end := p.cur().Rng
			p.expect(TokRParen)
			return &OptionTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Elem: elem}
		case "res":
			p.expect(TokLParen)
			ok := p.parseType()
			p.expect(TokComma)
			errT := p.parseType()
			end := p.cur().Rng
			p.expect(TokRParen)
			return &ResultTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Ok: ok, Err: errT}
		case "fn":
			return p.parseFnType(start, false)
		default:
			end := p.toks[p.pos-1].Rng
			return &NamedTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name}
		}
	case TokUnsafe:
		p.advance()
		p.expect(TokIdent) // "fn"
		return p.parseFnType(start, true)
	default:
		p.errorf("parse-expected-type", p.cur().Rng, "expected a type but found %s", p.describeCur())
		p.advance()
		return &NamedTypeExpr{baseNode: baseNode{p.span(start)}, Name: "<error>"}
	}
}

func (p *Parser) parseFnType(start Range, unsafeFn bool) TypeExpr {
	p.expect(TokLParen)
	var params []TypeExpr
	for !p.at(TokRParen) && !p.at(TokEOF) {
		params = append(params, p.parseType())
		if p.at(TokComma) {
			p.advance()
		} else {
			break
		}
	}
	p.expect(TokRParen)
	p.expect(TokArrow)
	ret := p.parseType()
	end := p.toks[p.pos-1].Rng
	return &FnTypeExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Unsafe: unsafeFn, Params: params, Ret: ret}
}

// ---- Statements ----

// Block <- '{' Stmt* '}'
func (p *Parser) parseBlock() *BlockStmt {
	start := p.cur().Rng
	p.expect(TokLBrace)
	var stmts []Stmt
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		before := p.pos
		s := p.parseStmt()
		if s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == before {
			p.errorf("parse-malformed-statement", p.cur().Rng, "malformed statement")
			p.recoverStmt()
		}
	}
	end := p.cur().Rng
	p.expect(TokRBrace)
	return &BlockStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Stmts: stmts}
}

func (p *Parser) parseStmt() Stmt {
	switch p.cur().Kind {
	case TokLet:
		return p.parseLet()
	case TokIf:
		return p.parseIfOrIfLet()
	case TokWhile:
		return p.parseWhile()
	case TokFor:
		return p.parseFor()
	case TokSwitch:
		return p.parseSwitch()
	case TokReturn:
		return p.parseReturn()
	case TokBreak:
		s := p.cur().Rng
		p.advance()
		p.expect(TokSemi)
		return &BreakStmt{baseNode{p.span(s)}}
	case TokContinue:
		s := p.cur().Rng
		p.advance()
		p.expect(TokSemi)
		return &ContinueStmt{baseNode{p.span(s)}}
	case TokDefer:
		return p.parseDefer()
	case TokUnsafe:
		return p.parseUnsafeStmt()
	default:
		return p.parseAssignOrExprStmt()
	}
}

// LetStmt <- 'let' Ident ':' Type '=' Expr ';'
func (p *Parser) parseLet() Stmt {
	start := p.cur().Rng
	p.expect(TokLet)
	name := p.identName()
	p.expect(TokColon)
	typ := p.parseType()
	p.expect(TokAssign)
	init := p.parseExpr()
	end := p.cur().Rng
	p.expect(TokSemi)
	return &LetStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name, Type: typ, Init: init}
}

// if/if-let disambiguation: the keyword following `if` decides it.
func (p *Parser) parseIfOrIfLet() Stmt {
	start := p.cur().Rng
	p.expect(TokIf)
	if p.at(TokLet) {
		p.advance()
		name := p.identName()
		p.expect(TokAssign)
		p.noStructLit = true
		expr := p.parseExpr()
		p.noStructLit = false
		then := p.parseBlock()
		var els *BlockStmt
		if p.at(TokElse) {
			p.advance()
			els = p.parseBlock()
		}
		end := p.toks[p.pos-1].Rng
		return &IfLetStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Name: name, Expr: expr, Then: then, Else: els}
	}
	p.noStructLit = true
	cond := p.parseExpr()
	p.noStructLit = false
	then := p.parseBlock()
	var els Stmt
	if p.at(TokElse) {
		p.advance()
		if p.at(TokIf) {
			els = p.parseIfOrIfLet()
		} else {
			els = p.parseBlock()
		}
	}
	end := p.toks[p.pos-1].Rng
	return &IfStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Cond: cond, Then: then, Else: els}
}

func (p *Parser) parseWhile() Stmt {
	start := p.cur().Rng
	p.expect(TokWhile)
	p.noStructLit = true
	cond := p.parseExpr()
	p.noStructLit = false
	body := p.parseBlock()
	end := p.toks[p.pos-1].Rng
	return &WhileStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Cond: cond, Body: body}
}

// ForStmt <- 'for' '(' Stmt? ';' Expr ';' Stmt? ')' Block
func (p *Parser) parseFor() Stmt {
	start := p.cur().Rng
	p.expect(TokFor)
	p.expect(TokLParen)
	var init Stmt
	if !p.at(TokSemi) {
		init = p.parseAssignOrLet()
	} else {
		p.expect(TokSemi)
	}
	p.noStructLit = true
	cond := p.parseExpr()
	p.expect(TokSemi)
	var step Stmt
	if !p.at(TokRParen) {
		step = p.parseAssignOrExprStmtNoSemi()
	}
	p.noStructLit = false
	p.expect(TokRParen)
	body := p.parseBlock()
	end := p.toks[p.pos-1].Rng
	return &ForStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Init: init, Cond: cond, Step: step, Body: body}
}

// parseAssignOrLet parses a for-loop initializer, which is a LetStmt
// (consuming its own trailing `;`) since the `for` grammar reuses the
// statement form.
func (p *Parser) parseAssignOrLet() Stmt {
	if p.at(TokLet) {
		return p.parseLet()
	}
	target := p.parseExpr()
	p.expect(TokAssign)
	value := p.parseExpr()
	p.expect(TokSemi)
	return &AssignStmt{baseNode: baseNode{target.Span()}, Target: target, Value: value}
}

func (p *Parser) parseAssignOrExprStmtNoSemi() Stmt {
	target := p.parseExpr()
	if p.at(TokAssign) {
		p.advance()
		value := p.parseExpr()
		return &AssignStmt{baseNode: baseNode{target.Span()}, Target: target, Value: value}
	}
	call, ok := target.(*CallExpr)
	if !ok {
		p.errorf("parse-disallowed-expr-stmt", p.cur().Rng, "only call expressions are allowed as statements")
	}
	return &ExprStmt{baseNode: baseNode{target.Span()}, Call: call}
}

// SwitchStmt <- 'switch' Expr '{' Case* Default? '}'
// A parenthesized scrutinee (`switch (c) {`) is an ordinary ParenExpr.
func (p *Parser) parseSwitch() Stmt {
	start := p.cur().Rng
	p.expect(TokSwitch)
	p.noStructLit = true
	scrutinee := p.parseExpr()
	p.noStructLit = false
	p.expect(TokLBrace)
	var cases []SwitchCase
	var def *BlockStmt
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		switch p.cur().Kind {
		case TokCase:
			cs := p.cur().Rng
			p.advance()
			label := p.parseExpr()
			p.expect(TokColon)
			body := p.parseBlock()
			cases = append(cases, SwitchCase{Label: label, Body: body, Span: p.span(cs)})
		case TokDefault:
			p.advance()
			p.expect(TokColon)
			def = p.parseBlock()
		default:
			p.errorf("parse-malformed-statement", p.cur().Rng, "expected case or default")
			p.recoverStmt()
		}
	}
	end := p.cur().Rng
	p.expect(TokRBrace)
	return &SwitchStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Scrutinee: scrutinee, Cases: cases, Default: def}
}

func (p *Parser) parseReturn() Stmt {
	start := p.cur().Rng
	p.expect(TokReturn)
	var val Expr
	if !p.at(TokSemi) {
		val = p.parseExpr()
	}
	end := p.cur().Rng
	p.expect(TokSemi)
	return &ReturnStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Value: val}
}

func (p *Parser) parseDefer() Stmt {
	start := p.cur().Rng
	p.expect(TokDefer)
	body := p.parseBlock()
	end := p.toks[p.pos-1].Rng
	return &DeferStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Body: body}
}

func (p *Parser) parseUnsafeStmt() Stmt {
	start := p.cur().Rng
	p.expect(TokUnsafe)
	body := p.parseBlock()
	end := p.toks[p.pos-1].Rng
	return &UnsafeStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Body: body}
}

// parseAssignOrExprStmt covers plain assignment, call-statements, and
// discard(expr); these are the only expression-statement forms §4.2
// allows.
func (p *Parser) parseAssignOrExprStmt() Stmt {
	start := p.cur().Rng
	target := p.parseExpr()
	if p.at(TokAssign) {
		p.advance()
		value := p.parseExpr()
		end := p.cur().Rng
		p.expect(TokSemi)
		return &AssignStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Target: target, Value: value}
	}
	call, ok := target.(*CallExpr)
	if !ok {
		p.errorf("parse-disallowed-expr-stmt", start, "only call expressions or discard(...) are allowed as statements")
		end := p.cur().Rng
		p.expect(TokSemi)
		return &ExprStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Call: nil}
	}
	isDiscard := false
	if ident, ok := call.Callee.(*IdentExpr); ok && ident.Name == "discard" {
		isDiscard = true
	}
	end := p.cur().Rng
	p.expect(TokSemi)
	return &ExprStmt{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Call: call, Discard: isDiscard}
}

// ---- Expressions ----
//
// Expr <- Unary (BinOp Unary)?
//
// This is the single-operator rule from §4.2: a second, un-parenthesized
// binary operator at the same level is a parse error rather than being
// silently resolved by precedence.

func (p *Parser) parseExpr() Expr {
	left := p.parseUnary()
	if isBinaryOperator(p.cur().Kind) {
		op := p.advance().Kind
		right := p.parseUnary()
		bin := &BinaryExpr{baseNode: baseNode{spanJoin(left.Span(), right.Span())}, Op: op, Left: left, Right: right}
		if isBinaryOperator(p.cur().Kind) {
			p.errorf("parse-multiple-binary-operators", p.cur().Rng,
				"expression contains more than one binary operator without parentheses")
			// Recover by consuming the rest of the chain so later
			// tokens aren't mis-parsed as a new statement.
			for isBinaryOperator(p.cur().Kind) {
				p.advance()
				p.parseUnary()
			}
		}
		return bin
	}
	return left
}

func spanJoin(a, b Span) Span { return Span{Start: a.Start, End: b.End} }

func (p *Parser) parseUnary() Expr {
	if p.at(TokMinus) || p.at(TokBang) {
		start := p.cur().Rng
		op := p.advance().Kind
		inner := p.parsePostfix()
		return &UnaryExpr{baseNode: baseNode{spanJoin(p.span(start), inner.Span())}, Op: op, Expr: inner}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() Expr {
	e := p.parsePrimary()
	for p.at(TokDot) {
		p.advance()
		field := p.identName()
		e = &FieldAccessExpr{baseNode: baseNode{spanJoin(e.Span(), p.span(p.toks[p.pos-1].Rng))}, Target: e, Field: field}
	}
	return e
}

func (p *Parser) parsePrimary() Expr {
	start := p.cur().Rng
	switch p.cur().Kind {
	case TokInt:
		tok := p.advance()
		return &IntLitExpr{baseNode: baseNode{p.span(start)}, Text: tok.Text, Value: parseIntLiteral(tok.Text)}
	case TokFloat:
		tok := p.advance()
		return &FloatLitExpr{baseNode: baseNode{p.span(start)}, Text: tok.Text, Value: parseFloatLiteral(tok.Text)}
	case TokString:
		tok := p.advance()
		return &StringLitExpr{baseNode: baseNode{p.span(start)}, Value: tok.Text}
	case TokTrue:
		p.advance()
		return &BoolLitExpr{baseNode: baseNode{p.span(start)}, Value: true}
	case TokFalse:
		p.advance()
		return &BoolLitExpr{baseNode: baseNode{p.span(start)}, Value: false}
	case TokLParen:
		p.advance()
		inner := p.parseExpr()
		end := p.cur().Rng
		p.expect(TokRParen)
		return &ParenExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Inner: inner}
	case TokIdent:
		name := p.advance().Text
		if name == "none" {
			return &NoneExpr{baseNode{p.span(start)}}
		}
		if p.at(TokColonColon) {
			p.advance()
			variant := p.identName()
			end := p.toks[p.pos-1].Rng
			return &EnumPathExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Enum: name, Variant: variant}
		}
		if p.at(TokLParen) {
			return p.parseCallTail(start, name)
		}
		if !p.noStructLit && p.at(TokLBrace) {
			return p.parseStructLitTail(start, name)
		}
		return &IdentExpr{baseNode: baseNode{p.span(start)}, Name: name}
	default:
		p.errorf("parse-unexpected-token", p.cur().Rng, "expected an expression but found %s", p.describeCur())
		p.advance()
		return &IdentExpr{baseNode: baseNode{p.span(start)}, Name: "<error>"}
	}
}

func (p *Parser) parseCallTail(start Range, name string) Expr {
	p.advance() // '('
	var args []Expr
	var castType TypeExpr
	if name == "cast" {
		castType = p.parseType()
		if p.at(TokComma) {
			p.advance()
		}
	}
	for !p.at(TokRParen) && !p.at(TokEOF) {
		args = append(args, p.parseExpr())
		if p.at(TokComma) {
			p.advance()
		} else {
			break
		}
	}
	end := p.cur().Rng
	p.expect(TokRParen)
	return &CallExpr{
		baseNode: baseNode{p.span(Range{start.Start, end.End})},
		Callee:   &IdentExpr{baseNode: baseNode{p.span(start)}, Name: name},
		Type:     castType,
		Args:     args,
	}
}

func (p *Parser) parseStructLitTail(start Range, name string) Expr {
	p.advance() // '{'
	var fields []StructLitField
	for !p.at(TokRBrace) && !p.at(TokEOF) {
		fname := p.identName()
		p.expect(TokColon)
		fval := p.parseExpr()
		fields = append(fields, StructLitField{Name: fname, Value: fval, Span: p.span(p.cur().Rng)})
		if p.at(TokComma) {
			p.advance()
		}
	}
	end := p.cur().Rng
	p.expect(TokRBrace)
	return &StructLitExpr{baseNode: baseNode{p.span(Range{start.Start, end.End})}, Type: name, Fields: fields}
}
