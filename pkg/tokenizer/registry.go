package tokenizer

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Factory builds a grammar. It may resolve other grammars through r, or
// hand out r.Ref for references that must only be resolved while
// tokenizing (nested or cyclic languages).
type Factory func(r *Registry) (*Grammar, error)

// Registry maps language names and aliases to grammars. Grammars are built
// lazily on first use and cached; a grammar whose factory fails is logged
// once and then treated as unavailable.
//
// A Registry is safe for concurrent use.
type Registry struct {
	*registry

	// building is the chain of grammars whose factories are running on
	// this call path, used to detect cyclic resolution.
	building []string
}

type registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	aliases   map[string]string // alias -> canonical name
	grammars  map[string]*Grammar
	failed    map[string]error
	log       *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*registry)

// WithLogger sets the logger used to report broken grammars.
func WithLogger(log *slog.Logger) RegistryOption {
	return func(r *registry) { r.log = log }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &registry{
		factories: make(map[string]Factory),
		aliases:   make(map[string]string),
		grammars:  make(map[string]*Grammar),
		failed:    make(map[string]error),
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return &Registry{registry: r}
}

// Register adds a grammar factory under name and any aliases. Registering
// an existing name replaces it and drops any cached grammar.
func (r *Registry) Register(name string, f Factory, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
	delete(r.aliases, name)
	delete(r.grammars, name)
	delete(r.failed, name)
	for _, alias := range aliases {
		if alias != name {
			r.aliases[alias] = name
		}
	}
}

// RegisterGrammar adds an already built grammar.
func (r *Registry) RegisterGrammar(g *Grammar, aliases ...string) {
	r.Register(g.Name, func(*Registry) (*Grammar, error) { return g, nil }, aliases...)
}

// Has reports whether name or alias is registered, without building it.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[r.canonical(name)]
	return ok
}

// canonical must be called with mu held.
func (r *registry) canonical(name string) string {
	if c, ok := r.aliases[name]; ok {
		return c
	}
	return name
}

// Resolve returns the grammar registered as name, building it if needed.
// Unknown names and grammars that failed to build yield false.
func (r *Registry) Resolve(name string) (*Grammar, bool) {
	r.mu.RLock()
	name = r.canonical(name)
	g, cached := r.grammars[name]
	_, failed := r.failed[name]
	f, known := r.factories[name]
	r.mu.RUnlock()

	switch {
	case cached:
		return g, true
	case failed, !known:
		return nil, false
	}

	if slices.Contains(r.building, name) {
		r.log.Error("cyclic grammar reference", "grammar", name, "chain", r.building)
		return nil, false
	}

	g, err := r.build(name, f)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.grammars[name]; ok {
		return existing, true
	}
	if err != nil {
		if _, logged := r.failed[name]; !logged {
			r.failed[name] = err
			r.log.Error("grammar unavailable", "grammar", name, "err", err)
		}
		return nil, false
	}
	r.grammars[name] = g
	return g, true
}

// build runs a factory outside the lock, turning panics (such as those of
// MustPattern) into errors, and checks that by-name references exist.
func (r *Registry) build(name string, f Factory) (g *Grammar, err error) {
	view := &Registry{registry: r.registry, building: append(slices.Clone(r.building), name)}
	defer func() {
		if p := recover(); p != nil {
			g, err = nil, fmt.Errorf("grammar %q: %v", name, p)
		}
	}()
	g, err = f(view)
	if err != nil {
		return nil, fmt.Errorf("grammar %q: %w", name, err)
	}
	if g == nil {
		return nil, fmt.Errorf("grammar %q: factory returned no grammar", name)
	}
	for _, ref := range g.references() {
		if !r.Has(ref) {
			return nil, fmt.Errorf("grammar %q: unknown nested grammar %q", name, ref)
		}
	}
	return g, nil
}

// Err returns the error that made name unavailable, if it failed to build.
func (r *Registry) Err(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failed[r.canonical(name)]
}

// Ref returns a reference to name that is resolved through r when used.
func (r *Registry) Ref(name string) *Ref {
	return &Ref{Name: name, registry: &Registry{registry: r.registry}}
}

// Languages returns the registered canonical names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Aliases returns the aliases registered for the canonical name, sorted.
func (r *Registry) Aliases(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var aliases []string
	for alias, canonical := range r.aliases {
		if canonical == name {
			aliases = append(aliases, alias)
		}
	}
	slices.Sort(aliases)
	return aliases
}

// Ref is a grammar referenced by name, resolved through its registry each
// time it is needed. It lets grammars refer to each other, or to
// themselves, without building cyclic data.
type Ref struct {
	Name     string
	registry *Registry
}

// Grammar implements GrammarSource.
func (ref *Ref) Grammar() (*Grammar, bool) {
	if ref.registry == nil {
		return nil, false
	}
	return ref.registry.Resolve(ref.Name)
}
