package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrRegistrySealed is returned by Declare after Seal.
var ErrRegistrySealed = errors.New("registry is sealed")

// Registry maps names to command descriptors.
//
// Thread-safety model:
//   - Declare/Seal: startup only, but safe from any goroutine
//   - Lookup/Commands: safe from any goroutine
//
// Re-declaring a name before Seal replaces the previous descriptor.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	sealed   bool
}

// NewRegistry creates an empty, unsealed registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Declare registers cmd under cmd.Name.
func (r *Registry) Declare(cmd *Command) error {
	if cmd == nil {
		return fmt.Errorf("declare: nil command")
	}
	if err := cmd.validate(); err != nil {
		return fmt.Errorf("declare: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("declare %q: %w", cmd.Name, ErrRegistrySealed)
	}
	r.commands[cmd.Name] = cmd
	return nil
}

// Seal ends the startup phase. Subsequent Declare calls fail.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// Commands returns every registered command sorted by name.
func (r *Registry) Commands() []*Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}
