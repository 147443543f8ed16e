package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/toolmesh/internal/util"
	"github.com/hupe1980/toolmesh/logging"
)

// Entry is the registry's record for one registered tool: the implementation,
// a snapshot of its identity and schema, and optional classification metadata.
// The registry holds a non-owning reference to the tool (lookup only).
type Entry struct {
	Tool        Tool
	Name        string
	Description string
	Parameters  map[string]any
	Category    string
	Tags        []string
}

// HasTag reports whether the entry carries the given tag (exact match).
func (e Entry) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ValidationResult is the outcome of validating arguments against a
// registered tool's schema. A missing tool yields Valid=false with a
// distinguished error message rather than an error return.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// RegisterOptions carries optional classification metadata for a registration.
type RegisterOptions struct {
	// Category groups related tools (e.g. "math", "web", "memory").
	Category string
	// Tags hold free-form labels for filtering.
	Tags []string
}

// WithCategory sets the entry's category.
func WithCategory(category string) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Category = category }
}

// WithTags sets the entry's tags.
func WithTags(tags ...string) func(o *RegisterOptions) {
	return func(o *RegisterOptions) { o.Tags = tags }
}

// RegistryOptions configures construction of a Registry.
type RegistryOptions struct {
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Registry maps unique tool names to their implementation and metadata.
// Re-registering an existing name silently overwrites the prior entry.
// All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	logger  logging.Logger
}

// NewRegistry creates an empty tool registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Registry{
		entries: map[string]Entry{},
		logger:  opts.Logger,
	}
}

// Register stores (or silently overwrites) the entry keyed by the tool's name.
// No constraint is enforced on the name format at this layer.
func (r *Registry) Register(t Tool, optFns ...func(o *RegisterOptions)) {
	opts := RegisterOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	entry := Entry{
		Tool:        t,
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
		Category:    opts.Category,
		Tags:        opts.Tags,
	}

	r.mu.Lock()
	_, replaced := r.entries[entry.Name]
	r.entries[entry.Name] = entry
	r.mu.Unlock()

	r.logger.Debug("registry.tool.registered", "tool", entry.Name, "category", entry.Category, "replaced", replaced)
}

// Get performs an exact-name lookup.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[name]
	return entry, ok
}

// Has reports whether a tool is registered under the given name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[name]
	return ok
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// ListAll returns every registered entry sorted by name. Iteration order is
// not significant to correctness; sorting keeps output stable for callers.
func (r *Registry) ListAll() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(func(Entry) bool { return true })
}

// ListByCategory returns entries whose category exactly matches.
func (r *Registry) ListByCategory(category string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(func(e Entry) bool { return e.Category == category })
}

// ListByTag returns entries carrying the given tag (exact match).
func (r *Registry) ListByTag(tag string) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(func(e Entry) bool { return e.HasTag(tag) })
}

// Search returns entries whose name or description contains the query,
// case-insensitively.
func (r *Registry) Search(query string) []Entry {
	q := strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collectLocked(func(e Entry) bool {
		return strings.Contains(strings.ToLower(e.Name), q) ||
			strings.Contains(strings.ToLower(e.Description), q)
	})
}

// Unregister removes the entry for name, reporting whether one existed.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	_, ok := r.entries[name]
	delete(r.entries, name)
	r.mu.Unlock()

	if ok {
		r.logger.Debug("registry.tool.unregistered", "tool", name)
	}
	return ok
}

// ValidateArgs runs the registered tool's schema validation against args.
// An absent tool yields a distinguished invalid result instead of an error.
func (r *Registry) ValidateArgs(name string, args map[string]any) ValidationResult {
	entry, ok := r.Get(name)
	if !ok {
		return ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("tool %s not found in registry", name)},
		}
	}

	if err := util.ValidateParameters(args, entry.Parameters); err != nil {
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}
	}

	return ValidationResult{Valid: true}
}

// collectLocked gathers matching entries sorted by name. Caller holds r.mu.
func (r *Registry) collectLocked(match func(Entry) bool) []Entry {
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if match(e) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}
