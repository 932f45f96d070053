package interp

import "sort"

// Env is one scope in the scope chain. Reads fall back to the parent,
// writes always bind locally.
type Env struct {
	vars   map[string]Value
	parent *Env
}

// NewEnv creates an empty scope. The top-level scope has a nil parent; a
// call scope's parent is the top-level scope, never the caller's scope.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Value), parent: parent}
}

// Get looks name up along the chain.
func (e *Env) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Local looks name up in this scope only.
func (e *Env) Local(name string) (Value, bool) {
	v, ok := e.vars[name]
	return v, ok
}

func (e *Env) Set(name string, v Value) {
	e.vars[name] = v
}

// Names returns the names bound in this scope, sorted.
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of names bound in this scope.
func (e *Env) Len() int {
	return len(e.vars)
}
