// lexer.go — scanner for Nikl source text.
//
// The lexer walks the source left to right and produces a flat []Token that
// always ends with a single EOF token, so the parser never has to guard
// against running off the end. Positions are 1-based for both line and
// column; the column of a token is the column of its first byte.
//
// String tokens keep the *raw* text between the quotes (escape sequences are
// not decoded here). Unescaping happens at point of use — see Unescape in
// value.go — which matches how the language prints strings.
//
// Errors are fail-fast: the first offending byte aborts the scan and comes
// back as a *LexError with one of the three closed kinds.
package nikl

import "fmt"

// TokenType represents the kind of token.
type TokenType int

const (
	// Special
	EOF TokenType = iota

	// Literals & identifiers
	ID
	STRING
	INTEGER
	FLOAT
	BOOLEAN
	NONE

	// Punctuation
	LPAREN  // "("
	RPAREN  // ")"
	LSQUARE // "["
	RSQUARE // "]"
	LCURLY  // "{"
	RCURLY  // "}"
	COLON   // ":"
	COMMA   // ","
	PERIOD  // "."

	// Operators
	PLUS      // "+"
	MINUS     // "-"
	MULT      // "*"
	DIV       // "/"
	MOD       // "%"
	ASSIGN    // "="
	EQ        // "=="
	NEQ       // "!="
	LESS      // "<"
	LESSEQ    // "<="
	GREATER   // ">"
	GREATEREQ // ">="

	// Keywords
	LET
	IF
	ELSE
	WHILE
	FUNCTION
	RETURN
	IMPORT
	AND
	OR
	NOT
)

// Token is a lexical token with its raw text and 1-based source position.
type Token struct {
	Type   TokenType
	Lexeme string
	Line   int
	Col    int
}

var keywords = map[string]TokenType{
	"let":    LET,
	"if":     IF,
	"else":   ELSE,
	"while":  WHILE,
	"fun":    FUNCTION,
	"return": RETURN,
	"import": IMPORT,
	"and":    AND,
	"or":     OR,
	"not":    NOT,
	"true":   BOOLEAN,
	"false":  BOOLEAN,
	"none":   NONE,
}

// ----- errors -----

// LexErrorKind is the closed set of tokenization failures.
type LexErrorKind int

const (
	UnexpectedChar LexErrorKind = iota
	UnterminatedString
	InvalidNumber
)

// LexError reports the first byte that could not be tokenized. Line and Col
// are 1-based; for UnterminatedString they point at the opening quote, and
// for InvalidNumber Text carries the full malformed literal.
type LexError struct {
	Kind LexErrorKind
	Ch   byte
	Text string
	Line int
	Col  int
}

func (e *LexError) Error() string {
	switch e.Kind {
	case UnterminatedString:
		return fmt.Sprintf("Unterminated string starting at line %d, column %d", e.Line, e.Col)
	case InvalidNumber:
		return fmt.Sprintf("Invalid number '%s' at line %d, column %d", e.Text, e.Line, e.Col)
	default:
		return fmt.Sprintf("Unexpected character '%c' at line %d, column %d", e.Ch, e.Line, e.Col)
	}
}

// Lexer scans a Nikl source string into tokens.
type Lexer struct {
	src    string
	start  int // start index of current token
	cur    int // current index
	line   int // 1-based
	col    int // 1-based column of the next unread byte
	tokens []Token

	// position of the current token's first byte
	tokStartLine int
	tokStartCol  int
}

// NewLexer creates a new lexer for the given source.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src, line: 1, col: 1}
}

// Tokenize scans src in one shot and returns the tokens (EOF included).
func Tokenize(src string) ([]Token, error) {
	return NewLexer(src).Scan()
}

func (l *Lexer) isAtEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	return l.src[l.cur], true
}

func (l *Lexer) peekN(n int) (byte, bool) {
	idx := l.cur + n
	if idx >= len(l.src) {
		return 0, false
	}
	return l.src[idx], true
}

func (l *Lexer) advance() (byte, bool) {
	if l.isAtEnd() {
		return 0, false
	}
	ch := l.src[l.cur]
	l.cur++
	if ch == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return ch, true
}

func (l *Lexer) addToken(tt TokenType) Token {
	tok := Token{
		Type:   tt,
		Lexeme: l.src[l.start:l.cur],
		Line:   l.tokStartLine,
		Col:    l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

// addTokenText records a token whose lexeme differs from the raw slice
// (strings drop their delimiters).
func (l *Lexer) addTokenText(tt TokenType, text string) Token {
	tok := Token{
		Type:   tt,
		Lexeme: text,
		Line:   l.tokStartLine,
		Col:    l.tokStartCol,
	}
	l.tokens = append(l.tokens, tok)
	l.start = l.cur
	return tok
}

func (l *Lexer) skipWhitespaceAndComments() {
	for !l.isAtEnd() {
		ch, _ := l.peek()
		switch ch {
		case ' ', '\t', '\r', '\n':
			l.advance()
			l.start = l.cur
		case '#':
			for {
				b, ok := l.peek()
				if !ok || b == '\n' {
					break
				}
				l.advance()
			}
			l.start = l.cur
		default:
			return
		}
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool { return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_' }
func isAlphaNum(b byte) bool {
	return isAlpha(b) || isDigit(b)
}

// ----- scanners -----

// scanString consumes a quoted literal and returns the raw text between the
// delimiters. Escape sequences are recognized only so that an escaped quote
// or backslash does not terminate the literal; the text is kept verbatim.
func (l *Lexer) scanString(del byte) (string, error) {
	for !l.isAtEnd() {
		ch, _ := l.advance()
		if ch == del {
			return l.src[l.start+1 : l.cur-1], nil
		}
		if ch == '\\' && !l.isAtEnd() {
			l.advance()
		}
	}
	return "", &LexError{Kind: UnterminatedString, Line: l.tokStartLine, Col: l.tokStartCol}
}

// scanNumber consumes the longest run of digits with at most one decimal
// point. A second decimal point or a trailing identifier run makes the whole
// run an InvalidNumber carrying the raw text.
func (l *Lexer) scanNumber() (TokenType, error) {
	sawDot := false
	bad := false
	for {
		b, ok := l.peek()
		if !ok {
			break
		}
		if isDigit(b) {
			l.advance()
			continue
		}
		if b == '.' {
			// a '.' followed by a digit continues the literal; anything
			// else is member access on the number's value
			if b2, ok2 := l.peekN(1); !ok2 || !isDigit(b2) {
				break
			}
			if sawDot {
				bad = true
			}
			sawDot = true
			l.advance()
			continue
		}
		if isAlpha(b) {
			bad = true
			l.advance()
			continue
		}
		break
	}
	if bad {
		return 0, &LexError{
			Kind: InvalidNumber,
			Text: l.src[l.start:l.cur],
			Line: l.tokStartLine,
			Col:  l.tokStartCol,
		}
	}
	if sawDot {
		return FLOAT, nil
	}
	return INTEGER, nil
}

func (l *Lexer) scanIdentifier() string {
	for {
		b, ok := l.peek()
		if !ok || !isAlphaNum(b) {
			break
		}
		l.advance()
	}
	return l.src[l.start:l.cur]
}

// ----- main scanner -----

func (l *Lexer) scanToken() (Token, error) {
	l.skipWhitespaceAndComments()
	l.tokStartLine = l.line
	l.tokStartCol = l.col
	l.start = l.cur

	if l.isAtEnd() {
		return l.addToken(EOF), nil
	}

	ch, _ := l.advance()

	switch ch {
	case '(':
		return l.addToken(LPAREN), nil
	case ')':
		return l.addToken(RPAREN), nil
	case '[':
		return l.addToken(LSQUARE), nil
	case ']':
		return l.addToken(RSQUARE), nil
	case '{':
		return l.addToken(LCURLY), nil
	case '}':
		return l.addToken(RCURLY), nil
	case ':':
		return l.addToken(COLON), nil
	case ',':
		return l.addToken(COMMA), nil
	case '.':
		return l.addToken(PERIOD), nil
	case '+':
		return l.addToken(PLUS), nil
	case '-':
		return l.addToken(MINUS), nil
	case '*':
		return l.addToken(MULT), nil
	case '/':
		return l.addToken(DIV), nil
	case '%':
		return l.addToken(MOD), nil
	case '=':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(EQ), nil
		}
		return l.addToken(ASSIGN), nil
	case '!':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(NEQ), nil
		}
		return Token{}, &LexError{Kind: UnexpectedChar, Ch: ch, Line: l.tokStartLine, Col: l.tokStartCol}
	case '<':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(LESSEQ), nil
		}
		return l.addToken(LESS), nil
	case '>':
		if b, ok := l.peek(); ok && b == '=' {
			l.advance()
			return l.addToken(GREATEREQ), nil
		}
		return l.addToken(GREATER), nil
	}

	if ch == '"' || ch == '\'' {
		text, err := l.scanString(ch)
		if err != nil {
			return Token{}, err
		}
		return l.addTokenText(STRING, text), nil
	}

	if isDigit(ch) {
		tt, err := l.scanNumber()
		if err != nil {
			return Token{}, err
		}
		return l.addToken(tt), nil
	}

	if isAlpha(ch) {
		lex := l.scanIdentifier()
		if tt, ok := keywords[lex]; ok {
			return l.addToken(tt), nil
		}
		return l.addToken(ID), nil
	}

	return Token{}, &LexError{Kind: UnexpectedChar, Ch: ch, Line: l.tokStartLine, Col: l.tokStartCol}
}

// Scan tokenizes the entire source and returns tokens (EOF included).
func (l *Lexer) Scan() ([]Token, error) {
	for {
		tok, err := l.scanToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return l.tokens, nil
		}
	}
}
