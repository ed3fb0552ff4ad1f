// env.go — lexical environments.
//
// Frames form a parent-linked chain. The interpreter keeps two well-known
// frames: Core (builtins) at the root and Global as its sealed child; every
// block, loop iteration, and call pushes a fresh frame on top.
package nikl

import "fmt"

// Env is one frame of the chain. A name resolves to its nearest binding
// walking parent-ward.
type Env struct {
	parent           *Env
	table            map[string]Value
	sealParentWrites bool
}

// NewEnv returns an empty frame chained to parent (nil for the root).
func NewEnv(parent *Env) *Env { return &Env{parent: parent, table: make(map[string]Value)} }

// SealParentWrites marks this frame as a write barrier: Set never rebinds a
// name that lives in an ancestor of a sealed frame. The interpreter seals
// Global so the builtin bindings in Core stay fixed.
func (e *Env) SealParentWrites() { e.sealParentWrites = true }

// Define binds name in this frame, shadowing any binding further out.
func (e *Env) Define(name string, v Value) {
	e.table[name] = v
}

// Set rebinds the nearest visible binding of name. A name with no binding is
// an error; Set never creates one.
func (e *Env) Set(name string, v Value) error {
	for f := e; f != nil; f = f.parent {
		if _, ok := f.table[name]; ok {
			f.table[name] = v
			return nil
		}
		if f.sealParentWrites {
			for p := f.parent; p != nil; p = p.parent {
				if _, ok := p.table[name]; ok {
					return fmt.Errorf("cannot assign to builtin: %s", name)
				}
			}
			break
		}
	}
	return fmt.Errorf("undefined variable: %s", name)
}

// Get resolves name to its nearest visible binding.
func (e *Env) Get(name string) (Value, error) {
	for f := e; f != nil; f = f.parent {
		if v, ok := f.table[name]; ok {
			return v, nil
		}
	}
	return Value{}, fmt.Errorf("undefined variable: %s", name)
}
