// builtin_core.go — the fixed builtin function registry.
//
// Builtins are host-provided functions operating purely on Values. They are
// installed into the interpreter's Core environment, so user code can shadow
// them with `let` but cannot assign over them. All of them are of the form
// (args) -> (Value, error); a returned error surfaces as a RuntimeError at
// the call site.
//
// print and input are the only builtins that touch the interpreter's
// Stdout/Stdin; exit terminates the whole process and never returns.
package nikl

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// BuiltinFunc is the implementation signature of a builtin.
type BuiltinFunc func(ip *Interpreter, args []Value) (Value, error)

func registerCoreBuiltins(ip *Interpreter) {
	for name, fn := range map[string]BuiltinFunc{
		"print": builtinPrint,
		"len":   builtinLen,
		"str":   builtinStr,
		"int":   builtinInt,
		"float": builtinFloat,
		"bool":  builtinBool,
		"type":  builtinType,
		"input": builtinInput,
		"exit":  builtinExit,
	} {
		ip.Core.Define(name, FunVal(&Fun{Name: name, Builtin: fn}))
	}
}

// builtinPrint unescapes string arguments, stringifies the rest, joins them
// with a single space, and writes one line. It always succeeds.
func builtinPrint(ip *Interpreter, args []Value) (Value, error) {
	parts := make([]string, 0, len(args))
	for _, v := range args {
		if v.Tag == VTStr {
			parts = append(parts, Unescape(v.Data.(string)))
		} else {
			parts = append(parts, FormatValue(v))
		}
	}
	fmt.Fprintln(ip.Stdout, strings.Join(parts, " "))
	return None, nil
}

func builtinLen(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("len() takes exactly one argument")
	}
	switch v := args[0]; v.Tag {
	case VTStr:
		return Int(int64(len(v.Data.(string)))), nil
	case VTArray:
		return Int(int64(len(v.Data.(*ArrayObject).Elems))), nil
	case VTTuple:
		return Int(int64(len(v.Data.(*TupleObject).Elems))), nil
	case VTMap:
		return Int(int64(len(v.Data.(*MapObject).Entries))), nil
	default:
		return None, fmt.Errorf("len() expects a string, array, tuple, or hashmap, but got %s", TypeName(v))
	}
}

func builtinStr(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("str() takes exactly one argument")
	}
	switch v := args[0]; v.Tag {
	case VTStr, VTInt, VTFloat, VTBool, VTNone, VTArray, VTTuple, VTMap:
		return Str(FormatValue(v)), nil
	default:
		return None, fmt.Errorf("str() expects a string, integer, float, boolean, array, tuple, or hashmap, but got %s", TypeName(v))
	}
}

func builtinInt(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("int() takes exactly one argument")
	}
	switch v := args[0]; v.Tag {
	case VTStr:
		n, err := strconv.ParseInt(v.Data.(string), 10, 64)
		if err != nil {
			return None, fmt.Errorf("Invalid string for int conversion: %s", v.Data.(string))
		}
		return Int(n), nil
	case VTInt:
		return v, nil
	case VTFloat:
		// truncates toward zero; NaN, the infinities, and floats beyond
		// int64 range have no integer form
		f := v.Data.(float64)
		if math.IsNaN(f) || math.IsInf(f, 0) ||
			f < -9223372036854775808.0 || f >= 9223372036854775808.0 {
			return None, fmt.Errorf("int() cannot convert %s to an integer", strconv.FormatFloat(f, 'g', -1, 64))
		}
		return Int(int64(f)), nil
	default:
		return None, fmt.Errorf("int() expects a string, integer, or float, but got %s", TypeName(v))
	}
}

func builtinFloat(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("float() takes exactly one argument")
	}
	switch v := args[0]; v.Tag {
	case VTStr:
		f, err := strconv.ParseFloat(v.Data.(string), 64)
		if err != nil {
			return None, fmt.Errorf("Invalid string for float conversion: %s", v.Data.(string))
		}
		return Float(f), nil
	case VTInt:
		return Float(float64(v.Data.(int64))), nil
	case VTFloat:
		return v, nil
	default:
		return None, fmt.Errorf("float() expects a string, integer, or float, but got %s", TypeName(v))
	}
}

func builtinBool(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("bool() takes exactly one argument")
	}
	switch v := args[0]; v.Tag {
	case VTStr, VTInt, VTFloat:
		return Bool(Truthy(v)), nil
	default:
		return None, fmt.Errorf("bool() expects a string, integer, or float, but got %s", TypeName(v))
	}
}

func builtinType(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("type() takes exactly one argument")
	}
	return Str(TypeName(args[0])), nil
}

// builtinInput writes an optional prompt (default "> ") and reads one line
// from the interpreter's input stream, stripping the trailing newline.
func builtinInput(ip *Interpreter, args []Value) (Value, error) {
	prompt := "> "
	switch len(args) {
	case 0:
	case 1:
		if args[0].Tag != VTStr {
			return None, fmt.Errorf("input() argument must be a string")
		}
		prompt = Unescape(args[0].Data.(string))
	default:
		return None, fmt.Errorf("input() takes at most one argument, but got %d", len(args))
	}

	fmt.Fprint(ip.Stdout, prompt)
	line, err := ip.Stdin.ReadString('\n')
	if err != nil && err != io.EOF {
		return None, fmt.Errorf("Failed to read input: %v", err)
	}
	if err == io.EOF && line == "" {
		return None, fmt.Errorf("Failed to read input: %v", err)
	}
	line = strings.TrimRight(line, "\r\n")
	return Str(line), nil
}

// builtinExit terminates the whole process immediately; it is the one
// builtin that never returns to the caller.
func builtinExit(_ *Interpreter, args []Value) (Value, error) {
	if len(args) != 1 {
		return None, fmt.Errorf("exit() takes exactly one argument")
	}
	if args[0].Tag != VTInt {
		return None, fmt.Errorf("exit() only works with integer argument, got %s", TypeName(args[0]))
	}
	os.Exit(int(args[0].Data.(int64)))
	return None, nil
}
