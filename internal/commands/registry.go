package commands

import (
	"fmt"
	"sort"
	"sync"
)

// Group is the help section a command is listed under.
type Group int

const (
	GroupLists   Group = iota // local list views and edits
	GroupSync                 // push, pull, status and watch
	GroupAccount              // OAuth credentials
	GroupOther
)

func (g Group) String() string {
	switch g {
	case GroupLists:
		return "Lists"
	case GroupSync:
		return "Sync"
	case GroupAccount:
		return "Account"
	default:
		return "Other"
	}
}

// Section is one group of commands in help order.
type Section struct {
	Group    Group
	Commands []Command
}

// Registry resolves command names and aliases and remembers the group
// each command was registered under.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Command
	groups map[Group][]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Command),
		groups: make(map[Group][]Command),
	}
}

// Register adds c under group. Names and aliases share one namespace; a
// clash leaves the registry unchanged.
func (r *Registry) Register(group Group, c Command) error {
	names := append([]string{c.Name()}, c.Aliases()...)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range names {
		if prev, taken := r.byName[n]; taken {
			return fmt.Errorf("command name %q of %s already used by %s", n, c.Name(), prev.Name())
		}
	}
	for _, n := range names {
		r.byName[n] = c
	}
	r.groups[group] = append(r.groups[group], c)
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

// All returns every command once, sorted by name.
func (r *Registry) All() []Command {
	var all []Command
	for _, s := range r.Sections() {
		all = append(all, s.Commands...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

// Sections returns the non-empty groups in Group order, commands sorted
// by name within each.
func (r *Registry) Sections() []Section {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Section
	for g := GroupLists; g <= GroupOther; g++ {
		cmds := append([]Command(nil), r.groups[g]...)
		if len(cmds) == 0 {
			continue
		}
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
		out = append(out, Section{Group: g, Commands: cmds})
	}
	return out
}

// DefaultRegistry holds every command of the todo CLI.
var DefaultRegistry = NewRegistry()

// Register adds c to the default registry under group and panics on a
// name clash.
func Register(group Group, c Command) {
	if err := DefaultRegistry.Register(group, c); err != nil {
		panic(err)
	}
}
