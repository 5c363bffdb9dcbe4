package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/goatbot786-md/goattecc-bot/pkg/log"
)

// HandlerFunc runs one command invocation. Returned errors are logged by
// the dispatcher; they never reach the remote user.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Command describes one chat command. Pattern is the canonical name the
// user types after the prefix; Aliases resolve to the same handler but do
// not show in the menu.
type Command struct {
	Pattern      string
	Aliases      []string
	Category     string
	Desc         string
	React        string
	OwnerOnly    bool
	HideFromMenu bool
	Run          HandlerFunc
}

// Registry maps command names to handlers. Registration rejects duplicate
// patterns and aliases instead of silently shadowing an earlier handler.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*Command
	order    []string
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

func (r *Registry) Register(cmd Command) error {
	if cmd.Pattern == "" {
		return fmt.Errorf("command pattern cannot be empty")
	}
	if cmd.Run == nil {
		return fmt.Errorf("command %s has no handler", cmd.Pattern)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string{cmd.Pattern}, cmd.Aliases...)
	for _, name := range names {
		if existing, ok := r.commands[name]; ok {
			return fmt.Errorf("command %s already registered by %s", name, existing.Pattern)
		}
	}

	stored := cmd
	for _, name := range names {
		r.commands[name] = &stored
	}
	r.order = append(r.order, cmd.Pattern)
	return nil
}

// Find resolves a command name or alias. Returns nil when unknown.
func (r *Registry) Find(name string) *Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.commands[name]
}

// Commands returns every registered command once, in registration order.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.order))
	for _, pattern := range r.order {
		out = append(out, *r.commands[pattern])
	}
	return out
}

// Categories returns the distinct command categories, sorted.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, pattern := range r.order {
		cat := r.commands[pattern].Category
		if _, ok := seen[cat]; !ok {
			seen[cat] = struct{}{}
			out = append(out, cat)
		}
	}
	sort.Strings(out)
	return out
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the registry plugin packages register into from init.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a command to the default registry. A duplicate pattern is a
// plugin bug; it is reported loudly at startup and the first handler wins.
func Register(cmd Command) {
	if err := defaultRegistry.Register(cmd); err != nil {
		log.Bot("registry").WithError(err).Warn("Command registration rejected")
	}
}
