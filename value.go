// value.go — the runtime value model shared by the interpreter and builtins.
package nikl

import (
	"strconv"
	"strings"
)

// ValueTag enumerates all runtime kinds a Value may hold.
type ValueTag int

const (
	VTNone  ValueTag = iota // none (no payload)
	VTBool                  // bool
	VTInt                   // int64
	VTFloat                 // float64
	VTStr                   // string (raw escaped text for literals)
	VTArray                 // *ArrayObject
	VTTuple                 // *TupleObject
	VTMap                   // *MapObject
	VTFun                   // *Fun
)

// Value is the tagged union flowing through evaluation. Scalars copy by
// value; Array/Tuple/HashMap/Function payloads are pointers, so copying a
// Value aliases the same backing object and mutation through one alias is
// visible through all.
type Value struct {
	Tag  ValueTag
	Data interface{}
}

// None is the singleton none Value.
var None = Value{Tag: VTNone}

func Bool(b bool) Value { return Value{Tag: VTBool, Data: b} }
func Int(n int64) Value { return Value{Tag: VTInt, Data: n} }
func Float(f float64) Value { return Value{Tag: VTFloat, Data: f} }
func Str(s string) Value { return Value{Tag: VTStr, Data: s} }

// ArrayObject is the mutable backing store of an Array value.
type ArrayObject struct {
	Elems []Value
}

// TupleObject is the fixed-arity backing store of a Tuple value. The
// interpreter never writes through it after construction.
type TupleObject struct {
	Elems []Value
}

// MapObject is the backing store of a HashMap value. Keys are strings;
// iteration order is not guaranteed.
type MapObject struct {
	Entries map[string]Value
}

// Fun is a callable value: either a user-defined closure (Params/Body/Env)
// or a host builtin (Builtin non-nil). Name is used in arity diagnostics.
type Fun struct {
	Name    string
	Params  []string
	Body    *BlockStmt
	Env     *Env
	Builtin BuiltinFunc
}

func Arr(elems []Value) Value { return Value{Tag: VTArray, Data: &ArrayObject{Elems: elems}} }
func Tup(elems []Value) Value { return Value{Tag: VTTuple, Data: &TupleObject{Elems: elems}} }
func FunVal(f *Fun) Value { return Value{Tag: VTFun, Data: f} }
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{Tag: VTMap, Data: &MapObject{Entries: m}}
}

// TypeName returns the kind name reported by the type() builtin.
func TypeName(v Value) string {
	switch v.Tag {
	case VTNone:
		return "None"
	case VTBool:
		return "Boolean"
	case VTInt:
		return "Integer"
	case VTFloat:
		return "Float"
	case VTStr:
		return "String"
	case VTArray:
		return "Array"
	case VTTuple:
		return "Tuple"
	case VTMap:
		return "HashMap"
	case VTFun:
		return "Function"
	default:
		return "Unknown"
	}
}

// Truthy applies the language's truthiness rule: none is falsy, numbers are
// truthy iff nonzero, strings and aggregates iff non-empty, functions always.
func Truthy(v Value) bool {
	switch v.Tag {
	case VTNone:
		return false
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64) != 0
	case VTFloat:
		return v.Data.(float64) != 0
	case VTStr:
		return v.Data.(string) != ""
	case VTArray:
		return len(v.Data.(*ArrayObject).Elems) != 0
	case VTTuple:
		return len(v.Data.(*TupleObject).Elems) != 0
	case VTMap:
		return len(v.Data.(*MapObject).Entries) != 0
	default:
		return true
	}
}

// deepEqual compares like-tagged values structurally. Functions compare by
// identity.
func deepEqual(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case VTNone:
		return true
	case VTBool:
		return a.Data.(bool) == b.Data.(bool)
	case VTInt:
		return a.Data.(int64) == b.Data.(int64)
	case VTFloat:
		return a.Data.(float64) == b.Data.(float64)
	case VTStr:
		return a.Data.(string) == b.Data.(string)
	case VTArray:
		ax := a.Data.(*ArrayObject).Elems
		bx := b.Data.(*ArrayObject).Elems
		if len(ax) != len(bx) {
			return false
		}
		for i := range ax {
			if !deepEqual(ax[i], bx[i]) {
				return false
			}
		}
		return true
	case VTTuple:
		ax := a.Data.(*TupleObject).Elems
		bx := b.Data.(*TupleObject).Elems
		if len(ax) != len(bx) {
			return false
		}
		for i := range ax {
			if !deepEqual(ax[i], bx[i]) {
				return false
			}
		}
		return true
	case VTMap:
		am := a.Data.(*MapObject).Entries
		bm := b.Data.(*MapObject).Entries
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !deepEqual(av, bv) {
				return false
			}
		}
		return true
	case VTFun:
		return a.Data.(*Fun) == b.Data.(*Fun)
	default:
		return false
	}
}

// Unescape decodes the escape sequences \n \t \r \\ \" \' in a raw string
// literal. Unknown escapes are kept verbatim, backslash included.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
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
		case '\'':
			b.WriteByte('\'')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// FormatValue renders a Value the way str() and print() do: none becomes
// "None", floats drop a redundant fraction, strings inside aggregates are
// quoted while a top-level string is rendered bare (still escaped; print
// unescapes separately).
func FormatValue(v Value) string {
	switch v.Tag {
	case VTStr:
		return v.Data.(string)
	default:
		return formatNested(v)
	}
}

func formatNested(v Value) string {
	switch v.Tag {
	case VTNone:
		return "None"
	case VTBool:
		if v.Data.(bool) {
			return "true"
		}
		return "false"
	case VTInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case VTFloat:
		return strconv.FormatFloat(v.Data.(float64), 'g', -1, 64)
	case VTStr:
		return "\"" + v.Data.(string) + "\""
	case VTArray:
		return formatSeq("[", "]", v.Data.(*ArrayObject).Elems)
	case VTTuple:
		return formatSeq("(", ")", v.Data.(*TupleObject).Elems)
	case VTMap:
		var b strings.Builder
		b.WriteByte('{')
		first := true
		for k, vv := range v.Data.(*MapObject).Entries {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString("\"" + k + "\": ")
			b.WriteString(formatNested(vv))
		}
		b.WriteByte('}')
		return b.String()
	case VTFun:
		f := v.Data.(*Fun)
		if f.Name != "" {
			return "<function " + f.Name + ">"
		}
		return "<function>"
	default:
		return "<unknown>"
	}
}

func formatSeq(open, close string, elems []Value) string {
	var b strings.Builder
	b.WriteString(open)
	for i, e := range elems {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatNested(e))
	}
	b.WriteString(close)
	return b.String()
}
