// interpreter.go — tree-walking evaluator for Nikl.
//
// The interpreter executes parsed statements against a chain of lexical
// environments. Two well-known frames exist: Core holds the builtin
// functions and Global holds program state; Global is a sealed child of
// Core, so user code can shadow a builtin with `let` but cannot assign over
// it.
//
// Every evaluator method returns (Value, error) and forwards the first error
// it receives upward; nothing is recovered or retried. A `return` statement
// travels as a *returnControl error and is unwound at the nearest call
// boundary. At the top level, `return` terminates Run with the returned
// value.
package nikl

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// RuntimeError is an execution-time failure: undefined variables, type
// errors, index/key errors, arity mismatches, and builtin failures.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return e.Msg }

func rtErrf(format string, args ...interface{}) error {
	return &RuntimeError{Msg: fmt.Sprintf(format, args...)}
}

// returnControl carries a return value up to the nearest call boundary.
type returnControl struct {
	value Value
}

func (r *returnControl) Error() string { return "return outside function" }

// Interpreter evaluates statement sequences. Stdout and Stdin are the only
// I/O surface (used by the print and input builtins) and may be replaced
// before running, e.g. in tests.
type Interpreter struct {
	Core   *Env // builtins; parent of Global
	Global *Env // program state, persistent across Run calls

	Stdout io.Writer
	Stdin  *bufio.Reader

	basePath  string
	loaded    map[string]bool
	loadStack []string
}

// New returns an interpreter with a fresh root environment. basePath is the
// directory against which relative import paths are resolved.
func New(basePath string) *Interpreter {
	ip := &Interpreter{
		Stdout:   os.Stdout,
		Stdin:    bufio.NewReader(os.Stdin),
		basePath: basePath,
		loaded:   map[string]bool{},
	}
	ip.Core = NewEnv(nil)
	ip.Global = NewEnv(ip.Core)
	ip.Global.SealParentWrites()
	registerCoreBuiltins(ip)
	return ip
}

// Run executes the statements in order against the Global environment and
// returns the last produced Value (None for an empty program). A top-level
// `return` terminates the program with its value.
func (ip *Interpreter) Run(stmts []Stmt) (Value, error) {
	result := None
	for _, st := range stmts {
		v, err := ip.execStmt(st, ip.Global)
		if err != nil {
			if rc, ok := err.(*returnControl); ok {
				return rc.value, nil
			}
			return None, err
		}
		result = v
	}
	return result, nil
}

// RunSource tokenizes, parses, and runs src in one step.
func (ip *Interpreter) RunSource(src string) (Value, error) {
	stmts, err := ParseSource(src)
	if err != nil {
		return None, err
	}
	return ip.Run(stmts)
}

// ----- statements -----

func (ip *Interpreter) execStmt(st Stmt, env *Env) (Value, error) {
	switch s := st.(type) {
	case *LetStmt:
		v, err := ip.evalExpr(s.Value, env)
		if err != nil {
			return None, err
		}
		env.Define(s.Name, v)
		return None, nil

	case *AssignStmt:
		return None, ip.execAssign(s, env)

	case *IfStmt:
		cond, err := ip.evalExpr(s.Cond, env)
		if err != nil {
			return None, err
		}
		if Truthy(cond) {
			return ip.execBlock(s.Then, NewEnv(env))
		}
		if s.Else != nil {
			return ip.execStmt(s.Else, env)
		}
		return None, nil

	case *WhileStmt:
		for {
			cond, err := ip.evalExpr(s.Cond, env)
			if err != nil {
				return None, err
			}
			if !Truthy(cond) {
				return None, nil
			}
			// fresh child env per iteration: body bindings do not leak
			if _, err := ip.execBlock(s.Body, NewEnv(env)); err != nil {
				return None, err
			}
		}

	case *FunStmt:
		env.Define(s.Name, FunVal(&Fun{
			Name:   s.Name,
			Params: s.Params,
			Body:   s.Body,
			Env:    env,
		}))
		return None, nil

	case *ReturnStmt:
		v := None
		if s.Value != nil {
			var err error
			v, err = ip.evalExpr(s.Value, env)
			if err != nil {
				return None, err
			}
		}
		return None, &returnControl{value: v}

	case *ImportStmt:
		return None, ip.execImport(s.Path)

	case *BlockStmt:
		return ip.execBlock(s, NewEnv(env))

	case *ExprStmt:
		return ip.evalExpr(s.Expr, env)

	default:
		return None, rtErrf("unhandled statement %T", st)
	}
}

// execBlock runs the block's statements in env and yields the last
// statement's value (None for an empty block).
func (ip *Interpreter) execBlock(b *BlockStmt, env *Env) (Value, error) {
	result := None
	for _, st := range b.Stmts {
		v, err := ip.execStmt(st, env)
		if err != nil {
			return None, err
		}
		result = v
	}
	return result, nil
}

func (ip *Interpreter) execAssign(s *AssignStmt, env *Env) error {
	// right-hand side first
	v, err := ip.evalExpr(s.Value, env)
	if err != nil {
		return err
	}

	switch t := s.Target.(type) {
	case *IdentExpr:
		if err := env.Set(t.Name, v); err != nil {
			return &RuntimeError{Msg: err.Error()}
		}
		return nil

	case *IndexExpr:
		obj, err := ip.evalExpr(t.Obj, env)
		if err != nil {
			return err
		}
		idx, err := ip.evalExpr(t.Index, env)
		if err != nil {
			return err
		}
		return ip.setIndex(obj, idx, v)

	case *MemberExpr:
		obj, err := ip.evalExpr(t.Obj, env)
		if err != nil {
			return err
		}
		if obj.Tag != VTMap {
			return rtErrf("member assignment on %s", TypeName(obj))
		}
		obj.Data.(*MapObject).Entries[t.Name] = v
		return nil

	default:
		return rtErrf("invalid assignment target")
	}
}

func (ip *Interpreter) setIndex(obj, idx, v Value) error {
	switch obj.Tag {
	case VTArray:
		if idx.Tag != VTInt {
			return rtErrf("array index must be an Integer, got %s", TypeName(idx))
		}
		elems := obj.Data.(*ArrayObject).Elems
		i := idx.Data.(int64)
		if i < 0 || i >= int64(len(elems)) {
			return rtErrf("index %d out of range for array of length %d", i, len(elems))
		}
		elems[i] = v
		return nil
	case VTTuple:
		return rtErrf("tuples are immutable")
	case VTMap:
		if idx.Tag != VTStr {
			return rtErrf("hashmap keys must be Strings, got %s", TypeName(idx))
		}
		obj.Data.(*MapObject).Entries[idx.Data.(string)] = v
		return nil
	default:
		return rtErrf("cannot index into %s", TypeName(obj))
	}
}

// ----- expressions -----

func (ip *Interpreter) evalExpr(e Expr, env *Env) (Value, error) {
	switch x := e.(type) {
	case *IntLit:
		return Int(x.Value), nil
	case *FloatLit:
		return Float(x.Value), nil
	case *StrLit:
		return Str(x.Raw), nil
	case *BoolLit:
		return Bool(x.Value), nil
	case *NoneLit:
		return None, nil

	case *IdentExpr:
		v, err := env.Get(x.Name)
		if err != nil {
			return None, &RuntimeError{Msg: err.Error()}
		}
		return v, nil

	case *UnaryExpr:
		return ip.evalUnary(x, env)

	case *BinaryExpr:
		return ip.evalBinary(x, env)

	case *CallExpr:
		return ip.evalCall(x, env)

	case *IndexExpr:
		obj, err := ip.evalExpr(x.Obj, env)
		if err != nil {
			return None, err
		}
		idx, err := ip.evalExpr(x.Index, env)
		if err != nil {
			return None, err
		}
		return ip.getIndex(obj, idx)

	case *MemberExpr:
		obj, err := ip.evalExpr(x.Obj, env)
		if err != nil {
			return None, err
		}
		if obj.Tag != VTMap {
			return None, rtErrf("member access on %s", TypeName(obj))
		}
		v, ok := obj.Data.(*MapObject).Entries[x.Name]
		if !ok {
			return None, rtErrf("key not found: %s", x.Name)
		}
		return v, nil

	case *ArrayLit:
		elems, err := ip.evalExprList(x.Elems, env)
		if err != nil {
			return None, err
		}
		return Arr(elems), nil

	case *TupleLit:
		elems, err := ip.evalExprList(x.Elems, env)
		if err != nil {
			return None, err
		}
		return Tup(elems), nil

	case *MapLit:
		entries := make(map[string]Value, len(x.Keys))
		for i, k := range x.Keys {
			v, err := ip.evalExpr(x.Values[i], env)
			if err != nil {
				return None, err
			}
			entries[k] = v
		}
		return Map(entries), nil

	case *FunLit:
		return FunVal(&Fun{Params: x.Params, Body: x.Body, Env: env}), nil

	default:
		return None, rtErrf("unhandled expression %T", e)
	}
}

func (ip *Interpreter) evalExprList(exprs []Expr, env *Env) ([]Value, error) {
	out := make([]Value, 0, len(exprs))
	for _, e := range exprs {
		v, err := ip.evalExpr(e, env)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (ip *Interpreter) evalUnary(x *UnaryExpr, env *Env) (Value, error) {
	v, err := ip.evalExpr(x.Right, env)
	if err != nil {
		return None, err
	}
	switch x.Op {
	case "-":
		switch v.Tag {
		case VTInt:
			return Int(-v.Data.(int64)), nil
		case VTFloat:
			return Float(-v.Data.(float64)), nil
		}
		return None, rtErrf("unsupported operand type for unary -: %s", TypeName(v))
	case "not":
		return Bool(!Truthy(v)), nil
	}
	return None, rtErrf("unhandled unary operator %s", x.Op)
}

func (ip *Interpreter) evalBinary(x *BinaryExpr, env *Env) (Value, error) {
	// logical operators short-circuit: the right operand is only evaluated
	// when the left one does not decide the result
	if x.Op == "and" || x.Op == "or" {
		left, err := ip.evalExpr(x.Left, env)
		if err != nil {
			return None, err
		}
		if x.Op == "and" && !Truthy(left) {
			return Bool(false), nil
		}
		if x.Op == "or" && Truthy(left) {
			return Bool(true), nil
		}
		right, err := ip.evalExpr(x.Right, env)
		if err != nil {
			return None, err
		}
		return Bool(Truthy(right)), nil
	}

	left, err := ip.evalExpr(x.Left, env)
	if err != nil {
		return None, err
	}
	right, err := ip.evalExpr(x.Right, env)
	if err != nil {
		return None, err
	}
	return applyBinary(x.Op, left, right)
}

func isNumeric(v Value) bool { return v.Tag == VTInt || v.Tag == VTFloat }

func asFloat(v Value) float64 {
	if v.Tag == VTInt {
		return float64(v.Data.(int64))
	}
	return v.Data.(float64)
}

// numericEqual compares Integers and Floats exactly. Like kinds compare in
// their own domain; an Integer equals a Float only when the Float is finite,
// integral, in int64 range, and equal as an int64. A blanket float64
// conversion would conflate integers above 2^53 with nearby floats.
func numericEqual(l, r Value) bool {
	if l.Tag == r.Tag {
		if l.Tag == VTInt {
			return l.Data.(int64) == r.Data.(int64)
		}
		return l.Data.(float64) == r.Data.(float64)
	}
	var i int64
	var f float64
	if l.Tag == VTInt {
		i, f = l.Data.(int64), r.Data.(float64)
	} else {
		i, f = r.Data.(int64), l.Data.(float64)
	}
	if f != math.Trunc(f) {
		// also rejects NaN
		return false
	}
	if f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
		// also rejects the infinities
		return false
	}
	return int64(f) == i
}

func applyBinary(op string, l, r Value) (Value, error) {
	switch op {
	case "+", "-", "*", "/", "%":
		if l.Tag == VTStr && r.Tag == VTStr && op == "+" {
			return Str(l.Data.(string) + r.Data.(string)), nil
		}
		if !isNumeric(l) || !isNumeric(r) {
			return None, rtErrf("unsupported operand types for %s: %s and %s", op, TypeName(l), TypeName(r))
		}
		if l.Tag == VTInt && r.Tag == VTInt {
			return applyIntArith(op, l.Data.(int64), r.Data.(int64))
		}
		return applyFloatArith(op, asFloat(l), asFloat(r))

	case "<", "<=", ">", ">=":
		if isNumeric(l) && isNumeric(r) {
			return compareOrdered(op, asFloat(l), asFloat(r)), nil
		}
		if l.Tag == VTStr && r.Tag == VTStr {
			return compareOrderedStr(op, l.Data.(string), r.Data.(string)), nil
		}
		return None, rtErrf("unsupported operand types for %s: %s and %s", op, TypeName(l), TypeName(r))

	case "==", "!=":
		var eq bool
		switch {
		case isNumeric(l) && isNumeric(r):
			eq = numericEqual(l, r)
		case l.Tag == r.Tag:
			eq = deepEqual(l, r)
		default:
			return None, rtErrf("unsupported operand types for %s: %s and %s", op, TypeName(l), TypeName(r))
		}
		if op == "!=" {
			eq = !eq
		}
		return Bool(eq), nil
	}
	return None, rtErrf("unhandled binary operator %s", op)
}

func applyIntArith(op string, a, b int64) (Value, error) {
	switch op {
	case "+":
		return Int(a + b), nil
	case "-":
		return Int(a - b), nil
	case "*":
		return Int(a * b), nil
	case "/":
		if b == 0 {
			return None, rtErrf("division by zero")
		}
		return Int(a / b), nil
	case "%":
		if b == 0 {
			return None, rtErrf("modulo by zero")
		}
		return Int(a % b), nil
	}
	return None, rtErrf("unhandled binary operator %s", op)
}

func applyFloatArith(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return Float(a + b), nil
	case "-":
		return Float(a - b), nil
	case "*":
		return Float(a * b), nil
	case "/":
		if b == 0 {
			return None, rtErrf("division by zero")
		}
		return Float(a / b), nil
	case "%":
		if b == 0 {
			return None, rtErrf("modulo by zero")
		}
		return Float(math.Mod(a, b)), nil
	}
	return None, rtErrf("unhandled binary operator %s", op)
}

func compareOrdered(op string, a, b float64) Value {
	switch op {
	case "<":
		return Bool(a < b)
	case "<=":
		return Bool(a <= b)
	case ">":
		return Bool(a > b)
	default:
		return Bool(a >= b)
	}
}

func compareOrderedStr(op string, a, b string) Value {
	switch op {
	case "<":
		return Bool(a < b)
	case "<=":
		return Bool(a <= b)
	case ">":
		return Bool(a > b)
	default:
		return Bool(a >= b)
	}
}

// ----- calls -----

func (ip *Interpreter) evalCall(x *CallExpr, env *Env) (Value, error) {
	callee, err := ip.evalExpr(x.Callee, env)
	if err != nil {
		return None, err
	}
	if callee.Tag != VTFun {
		return None, rtErrf("attempt to call a value of type %s", TypeName(callee))
	}
	args, err := ip.evalExprList(x.Args, env)
	if err != nil {
		return None, err
	}
	return ip.apply(callee.Data.(*Fun), args)
}

func (ip *Interpreter) apply(f *Fun, args []Value) (Value, error) {
	if f.Builtin != nil {
		v, err := f.Builtin(ip, args)
		if err != nil {
			if _, ok := err.(*RuntimeError); ok {
				return None, err
			}
			return None, &RuntimeError{Msg: err.Error()}
		}
		return v, nil
	}

	if len(args) != len(f.Params) {
		name := f.Name
		if name == "" {
			name = "<anonymous>"
		}
		return None, rtErrf("function %s() takes %d arguments, but got %d", name, len(f.Params), len(args))
	}

	// the call frame chains to the closure's captured environment, not the
	// call site
	callEnv := NewEnv(f.Env)
	for i, p := range f.Params {
		callEnv.Define(p, args[i])
	}

	v, err := ip.execBlock(f.Body, callEnv)
	if err != nil {
		if rc, ok := err.(*returnControl); ok {
			return rc.value, nil
		}
		return None, err
	}
	// no explicit return: a body yields its last statement's value
	return v, nil
}

// ----- indexing -----

func (ip *Interpreter) getIndex(obj, idx Value) (Value, error) {
	switch obj.Tag {
	case VTArray:
		return indexSeq(obj.Data.(*ArrayObject).Elems, idx, "array")
	case VTTuple:
		return indexSeq(obj.Data.(*TupleObject).Elems, idx, "tuple")
	case VTMap:
		if idx.Tag != VTStr {
			return None, rtErrf("hashmap keys must be Strings, got %s", TypeName(idx))
		}
		k := idx.Data.(string)
		v, ok := obj.Data.(*MapObject).Entries[k]
		if !ok {
			return None, rtErrf("key not found: %s", k)
		}
		return v, nil
	default:
		return None, rtErrf("cannot index into %s", TypeName(obj))
	}
}

func indexSeq(elems []Value, idx Value, what string) (Value, error) {
	if idx.Tag != VTInt {
		return None, rtErrf("%s index must be an Integer, got %s", what, TypeName(idx))
	}
	i := idx.Data.(int64)
	if i < 0 || i >= int64(len(elems)) {
		return None, rtErrf("index %d out of range for %s of length %d", i, what, len(elems))
	}
	return elems[i], nil
}

// ----- imports -----

// execImport loads a script referenced by an import statement. Paths resolve
// against the interpreter's base path, get ".nk" appended when they carry no
// extension, and run exactly once per absolute path, in the Global
// environment.
func (ip *Interpreter) execImport(path string) error {
	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(ip.basePath, resolved)
	}
	if filepath.Ext(resolved) == "" {
		resolved += ".nk"
	}
	abs, err := filepath.Abs(resolved)
	if err != nil {
		abs = resolved
	}

	if ip.loaded[abs] {
		return nil
	}
	for _, active := range ip.loadStack {
		if active == abs {
			return rtErrf("import cycle detected: %s", path)
		}
	}

	src, err := os.ReadFile(abs)
	if err != nil {
		return rtErrf("cannot import '%s': %v", path, err)
	}
	stmts, err := ParseSource(string(src))
	if err != nil {
		return rtErrf("error importing '%s': %v", path, err)
	}

	ip.loadStack = append(ip.loadStack, abs)
	defer func() { ip.loadStack = ip.loadStack[:len(ip.loadStack)-1] }()

	for _, st := range stmts {
		if _, err := ip.execStmt(st, ip.Global); err != nil {
			// a top-level return ends the imported script early
			if _, ok := err.(*returnControl); ok {
				break
			}
			return err
		}
	}
	ip.loaded[abs] = true
	return nil
}
