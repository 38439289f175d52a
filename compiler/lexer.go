package compiler

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/joomcode/errorx"

	"github.com/chazu/som/vm"
)

// ---------------------------------------------------------------------------
// Lexer: line-buffered tokenizer for SOM syntax
// ---------------------------------------------------------------------------

const (
	separator        = "----"
	primitiveKeyword = "primitive"
)

// Lexer tokenizes SOM source one line at a time. It supports a single
// token of lookahead through Peek.
type Lexer struct {
	reader *bufio.Reader
	eof    bool

	buf  string // current line without its terminator
	pos  int    // offset into buf
	line int    // 1-based number of buf

	token Token

	peeked    bool
	nextToken Token
}

// NewLexer creates a lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{reader: bufio.NewReader(r)}
}

// NewStringLexer creates a lexer over a string.
func NewStringLexer(source string) *Lexer {
	return NewLexer(strings.NewReader(source))
}

// Line returns the number of the line being scanned.
func (l *Lexer) Line() int { return l.line }

// Column returns the 1-based column of the scan position.
func (l *Lexer) Column() int { return l.pos + 1 }

// RawBuffer returns the line being scanned.
func (l *Lexer) RawBuffer() string { return l.buf }

// Peeked reports whether a lookahead token is pending.
func (l *Lexer) Peeked() bool { return l.peeked }

// Next scans and returns the next token. At end of input it returns a
// token of type TokenNone with empty text.
func (l *Lexer) Next() Token {
	if l.peeked {
		l.peeked = false
		l.token = l.nextToken
		return l.token
	}
	l.token = l.scan()
	return l.token
}

// Peek returns the token after the current one without consuming it.
// Peeking twice without an intervening Next is a programming error.
func (l *Lexer) Peek() Token {
	if l.peeked {
		panic(errorx.IllegalState.New("lexer: cannot peek twice"))
	}
	current := l.token
	l.nextToken = l.scan()
	l.token = current
	l.peeked = true
	return l.nextToken
}

func (l *Lexer) scan() Token {
	for {
		if !l.hasMoreInput() {
			return Token{Type: TokenNone, Line: l.line, Column: l.Column()}
		}
		l.skipWhiteSpace()
		l.skipComment()
		if !l.endOfBuffer() && !isSpace(l.current()) && l.current() != '"' {
			break
		}
	}

	start := Token{Line: l.line, Column: l.Column()}
	c := l.current()
	switch {
	case c == '\'':
		return l.lexString(start)
	case c == '[':
		return l.match(start, TokenNewBlock)
	case c == ']':
		return l.match(start, TokenEndBlock)
	case c == ':':
		if l.charAt(l.pos+1) == '=' {
			l.pos += 2
			start.Type, start.Text = TokenAssign, ":="
			return start
		}
		return l.match(start, TokenColon)
	case c == '(':
		return l.match(start, TokenNewTerm)
	case c == ')':
		return l.match(start, TokenEndTerm)
	case c == '#':
		return l.match(start, TokenPound)
	case c == '^':
		return l.match(start, TokenExit)
	case c == '.':
		return l.match(start, TokenPeriod)
	case c == '-':
		if strings.HasPrefix(l.buf[l.pos:], separator) {
			begin := l.pos
			for l.current() == '-' {
				l.pos++
			}
			start.Type, start.Text = TokenSeparator, l.buf[begin:l.pos]
			return start
		}
		return l.lexOperator(start)
	case isOperator(c):
		return l.lexOperator(start)
	case l.atPrimitive():
		l.pos += len(primitiveKeyword)
		start.Type, start.Text = TokenPrimitive, primitiveKeyword
		return start
	case isLetter(c):
		return l.lexIdentifier(start)
	case isDigit(c):
		return l.lexNumber(start)
	}
	l.pos++
	start.Type, start.Text = TokenNone, string(c)
	return start
}

// atPrimitive matches the primitive keyword only as a whole word, so that
// identifiers such as primitiveFoo still lex as identifiers.
func (l *Lexer) atPrimitive() bool {
	if !strings.HasPrefix(l.buf[l.pos:], primitiveKeyword) {
		return false
	}
	next := l.charAt(l.pos + len(primitiveKeyword))
	return !isLetter(next) && !isDigit(next) && next != '_' && next != ':'
}

func (l *Lexer) lexIdentifier(t Token) Token {
	begin := l.pos
	for c := l.current(); isLetter(c) || isDigit(c) || c == '_'; c = l.current() {
		l.pos++
	}
	t.Type = TokenIdentifier
	if l.current() == ':' {
		t.Type = TokenKeyword
		l.pos++
		if isLetter(l.current()) {
			t.Type = TokenKeywordSequence
			for c := l.current(); isLetter(c) || c == ':'; c = l.current() {
				l.pos++
			}
		}
	}
	t.Text = l.buf[begin:l.pos]
	return t
}

func (l *Lexer) lexNumber(t Token) Token {
	t.Type = TokenInteger
	begin := l.pos
	sawDecimalMark := false
	for {
		l.pos++
		if !sawDecimalMark && l.current() == '.' && isDigit(l.charAt(l.pos+1)) {
			sawDecimalMark = true
			t.Type = TokenDouble
			l.pos++
		}
		if !isDigit(l.current()) {
			break
		}
	}
	t.Text = l.buf[begin:l.pos]
	return t
}

func (l *Lexer) lexString(t Token) Token {
	t.Type = TokenString
	var b strings.Builder
	l.pos++
	for l.current() != '\'' {
		for l.endOfBuffer() {
			if !l.fillBuffer() {
				t.Text = b.String()
				return t
			}
			b.WriteByte('\n')
		}
		if l.current() == '\'' {
			break
		}
		l.lexStringChar(&b)
	}
	l.pos++
	t.Text = b.String()
	return t
}

func (l *Lexer) lexStringChar(b *strings.Builder) {
	if l.current() != '\\' {
		b.WriteByte(l.current())
		l.pos++
		return
	}
	l.pos++
	switch l.current() {
	case 't':
		b.WriteByte('\t')
	case 'b':
		b.WriteByte('\b')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 'f':
		b.WriteByte('\f')
	case '\'':
		b.WriteByte('\'')
	case '\\':
		b.WriteByte('\\')
	case '0':
		b.WriteByte(0)
	}
	l.pos++
}

func (l *Lexer) lexOperator(t Token) Token {
	if isOperator(l.charAt(l.pos + 1)) {
		begin := l.pos
		for isOperator(l.current()) {
			l.pos++
		}
		t.Type, t.Text = TokenOperatorSequence, l.buf[begin:l.pos]
		return t
	}
	return l.match(t, operatorTokens[l.current()])
}

var operatorTokens = map[byte]TokenType{
	'~':  TokenNot,
	'&':  TokenAnd,
	'|':  TokenOr,
	'*':  TokenStar,
	'/':  TokenDiv,
	'\\': TokenMod,
	'+':  TokenPlus,
	'=':  TokenEqual,
	'>':  TokenMore,
	'<':  TokenLess,
	',':  TokenComma,
	'@':  TokenAt,
	'%':  TokenPer,
	'-':  TokenMinus,
}

func (l *Lexer) match(t Token, typ TokenType) Token {
	t.Type, t.Text = typ, string(l.current())
	l.pos++
	return t
}

// ---------------------------------------------------------------------------
// Buffer management
// ---------------------------------------------------------------------------

// fillBuffer reads the next line. It reports false at end of input.
func (l *Lexer) fillBuffer() bool {
	if l.eof {
		return false
	}
	line, err := l.reader.ReadString('\n')
	if err != nil {
		l.eof = true
		if line == "" {
			return false
		}
	}
	l.buf = strings.TrimRight(line, "\r\n")
	l.pos = 0
	l.line++
	return true
}

func (l *Lexer) hasMoreInput() bool {
	for l.endOfBuffer() {
		if !l.fillBuffer() {
			return false
		}
	}
	return true
}

func (l *Lexer) skipWhiteSpace() {
	for isSpace(l.current()) {
		l.pos++
		for l.endOfBuffer() {
			if !l.fillBuffer() {
				return
			}
		}
	}
}

func (l *Lexer) skipComment() {
	if l.current() != '"' {
		return
	}
	for {
		l.pos++
		for l.endOfBuffer() {
			if !l.fillBuffer() {
				return
			}
		}
		if l.current() == '"' {
			break
		}
	}
	l.pos++
}

func (l *Lexer) current() byte { return l.charAt(l.pos) }

func (l *Lexer) charAt(p int) byte {
	if p >= len(l.buf) {
		return 0
	}
	return l.buf[p]
}

func (l *Lexer) endOfBuffer() bool { return l.pos >= len(l.buf) }

func isOperator(c byte) bool { return vm.IsOperatorChar(c) }

func isLetter(c byte) bool { return c < 0x80 && unicode.IsLetter(rune(c)) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\v' }
