// Package state holds the interpreter state that Mutate commands alter:
// variable bindings and the working directory.
//
// State performs no locking. The orchestrator guarantees a single writer:
// only one Mutate execution touches a State at a time, and compile-time
// reads happen on the orchestrator goroutine.
package state

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/crush/internal/errs"
	"github.com/roach88/crush/internal/value"
)

// State is the mutable interpreter state.
type State struct {
	vars map[string]value.Value
	cwd  string
}

// New creates a state rooted at cwd.
func New(cwd string) *State {
	return &State{
		vars: make(map[string]value.Value),
		cwd:  filepath.Clean(cwd),
	}
}

// Lookup returns the value bound to name.
func (s *State) Lookup(name string) (value.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Vars returns a copy of every binding.
func (s *State) Vars() map[string]value.Value {
	out := make(map[string]value.Value, len(s.vars))
	for k, v := range s.vars {
		out[k] = v
	}
	return out
}

// Let declares a new variable. Fails if name is already bound.
func (s *State) Let(name string, v value.Value) error {
	if name == "" {
		return errs.Argument("variable name is required")
	}
	if _, ok := s.vars[name]; ok {
		return errs.Argument("variable $%s already declared", name)
	}
	s.vars[name] = v
	return nil
}

// Set assigns an existing variable. Fails if name is unbound.
func (s *State) Set(name string, v value.Value) error {
	if _, ok := s.vars[name]; !ok {
		return errs.Argument("unknown variable $%s", name)
	}
	s.vars[name] = v
	return nil
}

// Unset removes a binding. Fails if name is unbound.
func (s *State) Unset(name string) error {
	if _, ok := s.vars[name]; !ok {
		return errs.Argument("unknown variable $%s", name)
	}
	delete(s.vars, name)
	return nil
}

// Cwd returns the working directory.
func (s *State) Cwd() string {
	return s.cwd
}

// Chdir changes the working directory. Relative paths resolve against the
// current one. The target must be an existing directory.
func (s *State) Chdir(dir string) error {
	target := dir
	if !filepath.IsAbs(target) {
		target = filepath.Join(s.cwd, target)
	}
	target = filepath.Clean(target)

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("cd %s: %w", dir, err)
	}
	if !info.IsDir() {
		return errs.Argument("cd %s: not a directory", dir)
	}
	s.cwd = target
	return nil
}
