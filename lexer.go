package fastc

import (
	"strconv"
	"strings"
)

// Lexer tokenizes a byte-addressed source buffer into a finite token
// sequence. It is the teacher's BaseParser rune-scanning idiom (advance
// one rune, bump line/column, backtrack on lookahead) collapsed into a
// single forward pass instead of a backtracking combinator, since §4.1
// only ever needs one token of lookahead built once per file.
type Lexer struct {
	src       []byte
	cursor    int
	bag       *DiagnosticBag
	lineIndex *LineIndex
}

func NewLexer(src []byte, bag *DiagnosticBag) *Lexer {
	return &Lexer{src: src, bag: bag}
}

func (l *Lexer) peek() byte {
	if l.cursor >= len(l.src) {
		return 0
	}
	return l.src[l.cursor]
}

func (l *Lexer) peekAt(off int) byte {
	if l.cursor+off >= len(l.src) {
		return 0
	}
	return l.src[l.cursor+off]
}

// Tokenize runs the lexer to completion, always returning a token
// sequence (possibly with TokEOF as the only entry) even when lexical
// errors were recorded, so the parser can still attempt recovery.
func (l *Lexer) Tokenize() []Token {
	var toks []Token
	for {
		l.skipWhitespaceAndComments()
		if l.cursor >= len(l.src) {
			toks = append(toks, Token{Kind: TokEOF, Rng: Range{Start: l.cursor, End: l.cursor}})
			return toks
		}
		start := l.cursor
		c := l.peek()
		switch {
		case isIdentStart(c):
			toks = append(toks, l.scanIdentOrKeyword(start))
		case isDigit(c):
			toks = append(toks, l.scanNumber(start))
		case c == '"':
			toks = append(toks, l.scanString(start))
		default:
			if tok, ok := l.scanPunctuation(start); ok {
				toks = append(toks, tok)
			} else {
				l.bag.Errorf("lex-unexpected-char", l.spanAt(start, start+1),
					"unexpected character %q", string(rune(c)))
				l.cursor++
			}
		}
	}
}

func (l *Lexer) spanAt(start, end int) Span {
	// The lexer does not own a LineIndex (it is built once per file by
	// the caller from the same buffer); line/column resolution is
	// deferred to whoever holds the index. Here we stash byte offsets
	// into a degenerate Span and let the caller re-resolve it — but to
	// keep Lexer self-contained and usable standalone, it builds its
	// own index lazily.
	if l.lineIndex == nil {
		l.lineIndex = NewLineIndex(l.src)
	}
	return l.lineIndex.Span(Range{Start: start, End: end})
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.cursor < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.cursor++
		case c == '/' && l.peekAt(1) == '/':
			for l.cursor < len(l.src) && l.peek() != '\n' {
				l.cursor++
			}
		case c == '/' && l.peekAt(1) == '*':
			l.cursor += 2
			for l.cursor < len(l.src) && !(l.peek() == '*' && l.peekAt(1) == '/') {
				l.cursor++
			}
			if l.cursor < len(l.src) {
				l.cursor += 2
			}
		default:
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (l *Lexer) scanIdentOrKeyword(start int) Token {
	for l.cursor < len(l.src) && isIdentCont(l.peek()) {
		l.cursor++
	}
	text := string(l.src[start:l.cursor])
	rng := Range{Start: start, End: l.cursor}
	if kw, ok := keywords[text]; ok {
		return Token{Kind: kw, Text: text, Rng: rng}
	}
	return Token{Kind: TokIdent, Text: text, Rng: rng}
}

// scanNumber recognizes decimal, 0x, 0b, 0o integer literals with
// underscore separators, and float literals with an optional scientific
// suffix, per §4.1.
func (l *Lexer) scanNumber(start int) Token {
	isFloat := false
	base := 10
	if l.peek() == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		base = 16
		l.cursor += 2
		l.scanDigitsOf(isHexDigit)
	} else if l.peek() == '0' && (l.peekAt(1) == 'b' || l.peekAt(1) == 'B') {
		base = 2
		l.cursor += 2
		l.scanDigitsOf(func(c byte) bool { return c == '0' || c == '1' || c == '_' })
	} else if l.peek() == '0' && (l.peekAt(1) == 'o' || l.peekAt(1) == 'O') {
		base = 8
		l.cursor += 2
		l.scanDigitsOf(func(c byte) bool { return (c >= '0' && c <= '7') || c == '_' })
	} else {
		l.scanDigitsOf(func(c byte) bool { return isDigit(c) || c == '_' })
		if l.peek() == '.' && isDigit(l.peekAt(1)) {
			isFloat = true
			l.cursor++
			l.scanDigitsOf(func(c byte) bool { return isDigit(c) || c == '_' })
		}
		if l.peek() == 'e' || l.peek() == 'E' {
			save := l.cursor
			l.cursor++
			if l.peek() == '+' || l.peek() == '-' {
				l.cursor++
			}
			if isDigit(l.peek()) {
				isFloat = true
				l.scanDigitsOf(isDigit)
			} else {
				l.cursor = save
			}
		}
	}
	text := string(l.src[start:l.cursor])
	rng := Range{Start: start, End: l.cursor}
	if isFloat {
		return Token{Kind: TokFloat, Text: text, Rng: rng}
	}
	digits := strings.ReplaceAll(text, "_", "")
	if base != 10 {
		digits = digits[2:]
	}
	if _, err := strconv.ParseUint(digits, base, 64); err != nil {
		l.bag.Errorf("lex-number-out-of-range", l.spanAt(start, l.cursor),
			"integer literal %s is malformed or does not fit in 64 bits", text)
	}
	return Token{Kind: TokInt, Text: text, Rng: rng}
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') || c == '_'
}

func (l *Lexer) scanDigitsOf(pred func(byte) bool) {
	for l.cursor < len(l.src) && pred(l.peek()) {
		l.cursor++
	}
}

// scanString recognizes a double-quoted literal, used only inside
// cstr("..."), bytes("...") and extern "C" per §4.1.
func (l *Lexer) scanString(start int) Token {
	l.cursor++ // opening quote
	var b strings.Builder
	for {
		if l.cursor >= len(l.src) {
			l.bag.Errorf("lex-unterminated-string", l.spanAt(start, l.cursor), "unterminated string literal")
			return Token{Kind: TokString, Text: b.String(), Rng: Range{Start: start, End: l.cursor}}
		}
		c := l.peek()
		if c == '"' {
			l.cursor++
			break
		}
		if c == '\n' {
			l.bag.Errorf("lex-unterminated-string", l.spanAt(start, l.cursor), "unterminated string literal")
			break
		}
		if c == '\\' {
			l.cursor++
			esc := l.peek()
			switch esc {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\':
				b.WriteByte('\\')
			case '"':
				b.WriteByte('"')
			case '0':
				b.WriteByte(0)
			default:
				l.bag.Errorf("lex-illegal-escape", l.spanAt(l.cursor-1, l.cursor+1), "illegal escape sequence \\%c", esc)
			}
			l.cursor++
			continue
		}
		b.WriteByte(c)
		l.cursor++
	}
	return Token{Kind: TokString, Text: b.String(), Rng: Range{Start: start, End: l.cursor}}
}

func (l *Lexer) scanPunctuation(start int) (Token, bool) {
	two := func(a, b byte, k TokenKind) (Token, bool) {
		if l.peek() == a && l.peekAt(1) == b {
			l.cursor += 2
			return Token{Kind: k, Text: string(a) + string(b), Rng: Range{Start: start, End: l.cursor}}, true
		}
		return Token{}, false
	}
	if t, ok := two(':', ':', TokColonColon); ok {
		return t, true
	}
	if t, ok := two('-', '>', TokArrow); ok {
		return t, true
	}
	if t, ok := two('&', '&', TokAmpAmp); ok {
		return t, true
	}
	if t, ok := two('|', '|', TokPipePipe); ok {
		return t, true
	}
	if t, ok := two('=', '=', TokEqEq); ok {
		return t, true
	}
	if t, ok := two('!', '=', TokNotEq); ok {
		return t, true
	}
	if t, ok := two('<', '=', TokLe); ok {
		return t, true
	}
	if t, ok := two('>', '=', TokGe); ok {
		return t, true
	}
	if t, ok := two('<', '<', TokShl); ok {
		return t, true
	}
	if t, ok := two('>', '>', TokShr); ok {
		return t, true
	}

	single := map[byte]TokenKind{
		'(': TokLParen, ')': TokRParen,
		'{': TokLBrace, '}': TokRBrace,
		'[': TokLBracket, ']': TokRBracket,
		',': TokComma, ';': TokSemi, ':': TokColon, '.': TokDot,
		'=': TokAssign, '@': TokAt,
		'+': TokPlus, '-': TokMinus, '*': TokStar, '/': TokSlash, '%': TokPercent,
		'<': TokLt, '>': TokGt,
		'&': TokAmp, '|': TokPipe, '^': TokCaret, '!': TokBang,
	}
	if k, ok := single[l.peek()]; ok {
		l.cursor++
		return Token{Kind: k, Text: string(single0(k)), Rng: Range{Start: start, End: l.cursor}}, true
	}
	return Token{}, false
}

func single0(k TokenKind) string { return tokenKindNames[k] }
