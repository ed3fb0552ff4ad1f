// errors.go — caret-snippet rendering for lex and parse diagnostics.
//
// WrapErrorWithSource turns a *LexError or *ParseError into an error whose
// message is a multi-line snippet with up to one line of context on each
// side and a caret under the offending 1-based column:
//
//	PARSE ERROR at 3:12: expected ')' after arguments, got '}'
//
//	   2 | let x = add(1, 2
//	   3 | }
//	     |  ^
//
// RuntimeErrors carry no position and pass through unchanged, as does any
// other error. The core never prints these itself; the CLI does.
package nikl

import (
	"fmt"
	"strings"
)

// WrapErrorWithSource returns err augmented with a caret-annotated snippet
// of src when err carries a source position, and err unchanged otherwise.
func WrapErrorWithSource(err error, src string) error {
	switch e := err.(type) {
	case *LexError:
		return fmt.Errorf("%s", prettyErrorString(src, "LEXICAL ERROR", e.Line, e.Col, lexErrorMessage(e)))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorString(src, "PARSE ERROR", e.Line, e.Col, e.Msg))
	default:
		return err
	}
}

func lexErrorMessage(e *LexError) string {
	switch e.Kind {
	case UnterminatedString:
		return "unterminated string"
	case InvalidNumber:
		return fmt.Sprintf("invalid number '%s'", e.Text)
	default:
		return fmt.Sprintf("unexpected character '%c'", e.Ch)
	}
}

// prettyErrorString builds the snippet. Coordinates are 1-based and clamped
// to the source bounds so a stale position cannot crash rendering.
func prettyErrorString(src, header string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
