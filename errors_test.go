// errors_test.go
package nikl

import (
	"strings"
	"testing"
)

func Test_WrapError_LexSnippet(t *testing.T) {
	src := "let a = 1\nlet b = 2 @ 3\nlet c = 4\n"
	_, err := Tokenize(src)
	if err == nil {
		t.Fatalf("expected lex error")
	}
	wrapped := WrapErrorWithSource(err, src)
	msg := wrapped.Error()

	if !strings.Contains(msg, "LEXICAL ERROR at 2:11: unexpected character '@'") {
		t.Fatalf("missing header, got:\n%s", msg)
	}
	for _, want := range []string{
		"   1 | let a = 1",
		"   2 | let b = 2 @ 3",
		"   3 | let c = 4",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("missing context line %q, got:\n%s", want, msg)
		}
	}
	if !strings.Contains(msg, "     | "+strings.Repeat(" ", 10)+"^") {
		t.Fatalf("caret not under column 11, got:\n%s", msg)
	}
}

func Test_WrapError_ParseSnippet(t *testing.T) {
	src := "let x =\n"
	_, err := ParseSource(src)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	wrapped := WrapErrorWithSource(err, src)
	msg := wrapped.Error()
	if !strings.Contains(msg, "PARSE ERROR at") {
		t.Fatalf("missing header, got:\n%s", msg)
	}
	if !strings.Contains(msg, "got end of input") {
		t.Fatalf("missing message, got:\n%s", msg)
	}
	if !strings.Contains(msg, "^") {
		t.Fatalf("missing caret, got:\n%s", msg)
	}
}

func Test_WrapError_FirstLine_NoPreviousContext(t *testing.T) {
	src := "@"
	_, err := Tokenize(src)
	if err == nil {
		t.Fatalf("expected lex error")
	}
	msg := WrapErrorWithSource(err, src).Error()
	if !strings.Contains(msg, "   1 | @") {
		t.Fatalf("missing source line, got:\n%s", msg)
	}
	if strings.Contains(msg, "   0 |") {
		t.Fatalf("line 0 must not appear, got:\n%s", msg)
	}
}

func Test_WrapError_RuntimePassesThrough(t *testing.T) {
	ip, _ := newTestInterp()
	_, err := ip.RunSource(`missing`)
	if err == nil {
		t.Fatalf("expected runtime error")
	}
	wrapped := WrapErrorWithSource(err, `missing`)
	if wrapped != err {
		t.Fatalf("runtime errors should pass through unchanged")
	}
	if wrapped.Error() != "undefined variable: missing" {
		t.Fatalf("unexpected message %q", wrapped.Error())
	}
}

func Test_LexError_Messages(t *testing.T) {
	_, err := Tokenize(`"open`)
	if err == nil || !strings.Contains(err.Error(), "Unterminated string starting at line 1, column 1") {
		t.Fatalf("unterminated message: got %v", err)
	}
	_, err = Tokenize(`1.2.3`)
	if err == nil || !strings.Contains(err.Error(), "Invalid number '1.2.3' at line 1, column 1") {
		t.Fatalf("invalid number message: got %v", err)
	}
	_, err = Tokenize("\n  ~")
	if err == nil || !strings.Contains(err.Error(), "Unexpected character '~' at line 2, column 3") {
		t.Fatalf("unexpected char message: got %v", err)
	}
}

func Test_ParseError_Message(t *testing.T) {
	_, err := ParseSource(`let x 1`)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if got := err.Error(); !strings.HasPrefix(got, "PARSE ERROR at 1:7: ") {
		t.Fatalf("unexpected message %q", got)
	}
}
