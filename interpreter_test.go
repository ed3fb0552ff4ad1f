// interpreter_test.go
package nikl

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// --- helpers ---------------------------------------------------------------

func newTestInterp() (*Interpreter, *bytes.Buffer) {
	ip := New(".")
	var out bytes.Buffer
	ip.Stdout = &out
	return ip, &out
}

func evalSrc(t *testing.T, src string) Value {
	t.Helper()
	ip, _ := newTestInterp()
	v, err := ip.RunSource(src)
	if err != nil {
		t.Fatalf("RunSource error: %v\nsource:\n%s", err, src)
	}
	return v
}

func evalWithIP(t *testing.T, ip *Interpreter, src string) Value {
	t.Helper()
	v, err := ip.RunSource(src)
	if err != nil {
		t.Fatalf("RunSource error: %v\nsource:\n%s", err, src)
	}
	return v
}

func wantRuntimeError(t *testing.T, src, substr string) {
	t.Helper()
	ip, _ := newTestInterp()
	_, err := ip.RunSource(src)
	if err == nil {
		t.Fatalf("expected error, got none\nsource:\n%s", src)
	}
	if _, ok := err.(*RuntimeError); !ok {
		t.Fatalf("want *RuntimeError, got %T (%v)", err, err)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("want error containing %q, got %q", substr, err.Error())
	}
}

func wantInt(t *testing.T, v Value, n int64) {
	t.Helper()
	if v.Tag != VTInt || v.Data.(int64) != n {
		t.Fatalf("want int %d, got %#v", n, v)
	}
}

func wantFloat(t *testing.T, v Value, f float64) {
	t.Helper()
	if v.Tag != VTFloat || v.Data.(float64) != f {
		t.Fatalf("want float %g, got %#v", f, v)
	}
}

func wantStr(t *testing.T, v Value, s string) {
	t.Helper()
	if v.Tag != VTStr || v.Data.(string) != s {
		t.Fatalf("want str %q, got %#v", s, v)
	}
}

func wantBool(t *testing.T, v Value, b bool) {
	t.Helper()
	if v.Tag != VTBool || v.Data.(bool) != b {
		t.Fatalf("want bool %v, got %#v", b, v)
	}
}

func wantNone(t *testing.T, v Value) {
	t.Helper()
	if v.Tag != VTNone {
		t.Fatalf("want none, got %#v", v)
	}
}

// --- arithmetic and operators ----------------------------------------------

func Test_Interp_IntArithmetic(t *testing.T) {
	wantInt(t, evalSrc(t, `1 + 2 * 3`), 7)
	wantInt(t, evalSrc(t, `10 - 3 - 2`), 5)
	wantInt(t, evalSrc(t, `7 / 2`), 3)
	wantInt(t, evalSrc(t, `7 % 3`), 1)
	wantInt(t, evalSrc(t, `-5 + 2`), -3)
}

func Test_Interp_FloatPromotion(t *testing.T) {
	wantFloat(t, evalSrc(t, `1 + 2.5`), 3.5)
	wantFloat(t, evalSrc(t, `7.0 / 2`), 3.5)
	wantFloat(t, evalSrc(t, `2.5 * 2`), 5.0)
	wantFloat(t, evalSrc(t, `-1.5`), -1.5)
}

func Test_Interp_DivisionByZero(t *testing.T) {
	wantRuntimeError(t, `1 / 0`, "division by zero")
	wantRuntimeError(t, `1 % 0`, "modulo by zero")
	wantRuntimeError(t, `1.0 / 0.0`, "division by zero")
}

func Test_Interp_StringConcat(t *testing.T) {
	wantStr(t, evalSrc(t, `"foo" + "bar"`), "foobar")
	wantRuntimeError(t, `"foo" + 1`, "unsupported operand types for +: String and Integer")
	wantRuntimeError(t, `"a" - "b"`, "unsupported operand types for -: String and String")
}

func Test_Interp_Comparisons(t *testing.T) {
	wantBool(t, evalSrc(t, `1 < 2`), true)
	wantBool(t, evalSrc(t, `2 <= 2`), true)
	wantBool(t, evalSrc(t, `1 > 2.5`), false)
	wantBool(t, evalSrc(t, `"abc" < "abd"`), true)
	wantRuntimeError(t, `1 < "a"`, "unsupported operand types for <")
}

func Test_Interp_Equality(t *testing.T) {
	wantBool(t, evalSrc(t, `1 == 1.0`), true)
	wantBool(t, evalSrc(t, `1 != 2`), true)
	wantBool(t, evalSrc(t, `"a" == "a"`), true)
	wantBool(t, evalSrc(t, `[1, [2]] == [1, [2]]`), true)
	wantBool(t, evalSrc(t, `(1, 2) == (1, 2)`), true)
	wantBool(t, evalSrc(t, `
let m1 = {"a": 1}
let m2 = {"a": 1}
let m3 = {"a": 2}
m1 == m2 and m1 != m3
`), true)
	wantBool(t, evalSrc(t, `none == none`), true)
	wantRuntimeError(t, `1 == "1"`, "unsupported operand types for ==")
}

func Test_Interp_Equality_LargeIntPrecision(t *testing.T) {
	// 2^53 + 1 has no exact float64 form; comparisons must not round it
	wantBool(t, evalSrc(t, `9007199254740993 == 9007199254740992.0`), false)
	wantBool(t, evalSrc(t, `9007199254740993 == 9007199254740992`), false)
	wantBool(t, evalSrc(t, `9007199254740992 == 9007199254740992.0`), true)
	wantBool(t, evalSrc(t, `1 == 1.0`), true)
	wantBool(t, evalSrc(t, `2 != 2.5`), true)
	wantBool(t, evalSrc(t, `0 == 0.0`), true)
}

func Test_Interp_Logic_ShortCircuit(t *testing.T) {
	wantBool(t, evalSrc(t, `true and false`), false)
	wantBool(t, evalSrc(t, `false or true`), true)
	wantBool(t, evalSrc(t, `1 and "x"`), true)

	// right side must not run when the left decides the result
	v := evalSrc(t, `
let hits = [0]
fun bump() {
    hits[0] = hits[0] + 1
    return true
}
let a = false and bump()
let b = true or bump()
hits[0]
`)
	wantInt(t, v, 0)
}

func Test_Interp_Unary(t *testing.T) {
	wantBool(t, evalSrc(t, `not true`), false)
	wantBool(t, evalSrc(t, `not none`), true)
	wantBool(t, evalSrc(t, `not 0`), true)
	wantRuntimeError(t, `-"x"`, "unsupported operand type for unary -")
}

// --- variables and environments --------------------------------------------

func Test_Interp_LetAndAssign(t *testing.T) {
	wantInt(t, evalSrc(t, `
let x = 1
x = x + 10
x
`), 11)
}

func Test_Interp_UndefinedVariable(t *testing.T) {
	wantRuntimeError(t, `nope`, "undefined variable: nope")
	wantRuntimeError(t, `nope = 1`, "undefined variable: nope")
}

func Test_Interp_AssignToBuiltin_Rejected(t *testing.T) {
	wantRuntimeError(t, `print = 1`, "cannot assign to builtin: print")
}

func Test_Interp_LetShadowBuiltin_Allowed(t *testing.T) {
	wantInt(t, evalSrc(t, `
let len = 5
len
`), 5)
}

func Test_Interp_BlockScoping(t *testing.T) {
	// a block's let does not leak; assignment reaches the outer binding
	wantInt(t, evalSrc(t, `
let x = 1
{
    let x = 99
}
x
`), 1)
	wantInt(t, evalSrc(t, `
let x = 1
{
    x = 2
}
x
`), 2)
}

func Test_Interp_WhileScoping(t *testing.T) {
	// body bindings are per-iteration
	wantInt(t, evalSrc(t, `
let i = 0
let last = 0
while i < 3 {
    let tmp = i * 10
    last = tmp
    i = i + 1
}
last
`), 20)
	wantRuntimeError(t, `
let i = 0
while i < 1 {
    let tmp = 1
    i = i + 1
}
tmp
`, "undefined variable: tmp")
}

func Test_Interp_IfElse(t *testing.T) {
	wantStr(t, evalSrc(t, `
let n = 7
if n % 2 == 0 {
    "even"
} else if n < 0 {
    "negative"
} else {
    "odd"
}
`), "odd")
}

// --- functions --------------------------------------------------------------

func Test_Interp_FunctionCall(t *testing.T) {
	wantInt(t, evalSrc(t, `
fun add(a, b) {
    return a + b
}
add(2, 3)
`), 5)
}

func Test_Interp_Function_LastValueFallback(t *testing.T) {
	// no explicit return: the body's last statement value comes back
	wantInt(t, evalSrc(t, `
fun double(n) {
    n * 2
}
double(21)
`), 42)
}

func Test_Interp_Function_BareReturn(t *testing.T) {
	wantNone(t, evalSrc(t, `
fun f() {
    return
    1
}
f()
`))
}

func Test_Interp_Function_ReturnStopsBody(t *testing.T) {
	wantInt(t, evalSrc(t, `
fun f() {
    let x = 1
    while true {
        return x
    }
}
f()
`), 1)
}

func Test_Interp_ArityMismatch(t *testing.T) {
	wantRuntimeError(t, `
fun add(a, b) {
    return a + b
}
add(1)
`, "function add() takes 2 arguments, but got 1")
}

func Test_Interp_Closure_Counters_Independent(t *testing.T) {
	// each makeCounter call owns a fresh captured environment
	wantInt(t, evalSrc(t, `
fun makeCounter() {
    let n = [0]
    return fun() {
        n[0] = n[0] + 1
        return n[0]
    }
}
let c1 = makeCounter()
let c2 = makeCounter()
c1()
c1()
c1()
c2()
c1() * 10 + c2()
`), 42)
}

func Test_Interp_Recursion_Fib(t *testing.T) {
	wantInt(t, evalSrc(t, `
fun fib(n) {
    if n < 2 {
        return n
    }
    return fib(n - 1) + fib(n - 2)
}
fib(10)
`), 55)
}

func Test_Interp_AnonymousFunction_Value(t *testing.T) {
	wantInt(t, evalSrc(t, `
let twice = fun(f, x) {
    return f(f(x))
}
twice(fun(n) { return n + 1 }, 40)
`), 42)
}

func Test_Interp_CallNonFunction(t *testing.T) {
	wantRuntimeError(t, `
let x = 3
x(1)
`, "attempt to call a value of type Integer")
}

// --- aggregates -------------------------------------------------------------

func Test_Interp_ArrayIndexing(t *testing.T) {
	wantInt(t, evalSrc(t, `
let a = [10, 20, 30]
a[1]
`), 20)
	wantRuntimeError(t, `[1][5]`, "index 5 out of range for array of length 1")
	wantRuntimeError(t, `[1]["x"]`, "array index must be an Integer, got String")
}

func Test_Interp_ArrayMutation_Aliases(t *testing.T) {
	// copying an array value aliases the same backing store
	wantInt(t, evalSrc(t, `
let a = [1, 2, 3]
let b = a
b[0] = 99
a[0]
`), 99)
}

func Test_Interp_TupleIndexing_And_Immutability(t *testing.T) {
	wantInt(t, evalSrc(t, `
let p = (4, 5)
p[1]
`), 5)
	wantRuntimeError(t, `
let p = (4, 5)
p[0] = 9
`, "tuples are immutable")
	wantRuntimeError(t, `(1, 2)[7]`, "index 7 out of range for tuple of length 2")
}

func Test_Interp_HashMap_IndexAndMember(t *testing.T) {
	ip, _ := newTestInterp()
	evalWithIP(t, ip, `let m = {"a": 1, b: 2}`)
	wantInt(t, evalWithIP(t, ip, `m["a"]`), 1)
	wantInt(t, evalWithIP(t, ip, `m.a`), 1)
	wantInt(t, evalWithIP(t, ip, `m.b`), 2)

	evalWithIP(t, ip, `m.c = 3`)
	wantInt(t, evalWithIP(t, ip, `m["c"]`), 3)
	evalWithIP(t, ip, `m["d"] = 4`)
	wantInt(t, evalWithIP(t, ip, `m.d`), 4)
}

func Test_Interp_HashMap_KeyErrors(t *testing.T) {
	wantRuntimeError(t, "let m = {\"a\": 1}\nm[\"zzz\"]", "key not found: zzz")
	wantRuntimeError(t, "let m = {\"a\": 1}\nm.zzz", "key not found: zzz")
	wantRuntimeError(t, "let m = {\"a\": 1}\nm[0]", "hashmap keys must be Strings, got Integer")
}

func Test_Interp_IndexNonIndexable(t *testing.T) {
	wantRuntimeError(t, `5[0]`, "cannot index into Integer")
}

// --- top level --------------------------------------------------------------

func Test_Interp_Run_LastValue(t *testing.T) {
	wantInt(t, evalSrc(t, `
1
2
3
`), 3)
	wantNone(t, evalSrc(t, ``))
}

func Test_Interp_TopLevelReturn_EndsProgram(t *testing.T) {
	ip, out := newTestInterp()
	v, err := ip.RunSource(`
print("before")
return 42
print("after")
`)
	if err != nil {
		t.Fatalf("RunSource error: %v", err)
	}
	wantInt(t, v, 42)
	if got := out.String(); got != "before\n" {
		t.Fatalf("statements after top-level return must not run; output %q", got)
	}
}

func Test_Interp_TupleStatement_AfterCall(t *testing.T) {
	// a tuple literal on its own line must not become a call on the result
	// of the previous statement
	v := evalSrc(t, "fun f() {\n    return 1\n}\nlet x = f()\n(x, 9)")
	if v.Tag != VTTuple {
		t.Fatalf("want Tuple, got %s (%#v)", TypeName(v), v)
	}
	elems := v.Data.(*TupleObject).Elems
	if len(elems) != 2 {
		t.Fatalf("want 2 elements, got %d", len(elems))
	}
	wantInt(t, elems[0], 1)
	wantInt(t, elems[1], 9)
}

func Test_Interp_MapLiteralStatement(t *testing.T) {
	// '{' KEY ':' at statement position is a hashmap literal, not a block
	v := evalSrc(t, `{"a": 1}`)
	if v.Tag != VTMap {
		t.Fatalf("want HashMap, got %s (%#v)", TypeName(v), v)
	}
	wantInt(t, v.Data.(*MapObject).Entries["a"], 1)
}

func Test_Interp_GlobalPersistsAcrossRuns(t *testing.T) {
	ip, _ := newTestInterp()
	evalWithIP(t, ip, `let x = 1`)
	wantInt(t, evalWithIP(t, ip, `x + 1`), 2)
}

// --- imports ----------------------------------------------------------------

func writeScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func Test_Interp_Import_BindingsVisible(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "mathx.nk", `
fun square(n) {
    return n * n
}
let answer = 42
`)
	ip := New(dir)
	wantInt(t, evalWithIP(t, ip, `
import "mathx.nk"
square(6) + answer
`), 78)
}

func Test_Interp_Import_ExtensionAppended(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "util.nk", `let marker = 7`)
	ip := New(dir)
	wantInt(t, evalWithIP(t, ip, `
import "util"
marker
`), 7)
}

func Test_Interp_Import_RunsOnce(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "noisy.nk", `print("loaded")`)
	ip := New(dir)
	var out bytes.Buffer
	ip.Stdout = &out
	evalWithIP(t, ip, `
import "noisy.nk"
import "noisy.nk"
import "noisy"
`)
	if got := out.String(); got != "loaded\n" {
		t.Fatalf("import should run once per path, output %q", got)
	}
}

func Test_Interp_Import_CycleDetected(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "a.nk", `import "b.nk"`)
	writeScript(t, dir, "b.nk", `import "a.nk"`)
	ip := New(dir)
	_, err := ip.RunSource(`import "a.nk"`)
	if err == nil || !strings.Contains(err.Error(), "import cycle detected") {
		t.Fatalf("want import cycle error, got %v", err)
	}
}

func Test_Interp_Import_Missing(t *testing.T) {
	ip := New(t.TempDir())
	_, err := ip.RunSource(`import "ghost.nk"`)
	if err == nil || !strings.Contains(err.Error(), "cannot import 'ghost.nk'") {
		t.Fatalf("want missing import error, got %v", err)
	}
}

func Test_Interp_Import_ParseErrorSurfaces(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "bad.nk", `let = 1`)
	ip := New(dir)
	_, err := ip.RunSource(`import "bad.nk"`)
	if err == nil || !strings.Contains(err.Error(), "error importing 'bad.nk'") {
		t.Fatalf("want import parse error, got %v", err)
	}
}
