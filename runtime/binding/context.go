package binding

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Context is the build context that accumulates declarations per type.
// Declarations for different types never contend; declarations for the same
// type are serialized by a per-entry lock.
type Context struct {
	mu      sync.RWMutex
	entries map[string]*entry
	logger  *zap.Logger
}

type entry struct {
	mu       sync.Mutex
	meta     TypeMetadata
	compiled int
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger used for declaration and compile events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContext creates an empty build context.
func NewContext(opts ...Option) *Context {
	c := &Context{
		entries: make(map[string]*entry),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// entryFor returns the entry for typeID, creating it on first use.
func (c *Context) entryFor(typeID string) *entry {
	c.mu.RLock()
	e, ok := c.entries[typeID]
	c.mu.RUnlock()
	if ok {
		return e
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[typeID]; ok {
		return e
	}
	e = &entry{meta: TypeMetadata{TypeID: typeID}}
	c.entries[typeID] = e
	return e
}

func (c *Context) lookup(typeID string) (*entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[typeID]
	return e, ok
}

// DeclareFields appends fields to the field group of typeID. The batch is
// applied atomically: on error nothing is recorded.
func (c *Context) DeclareFields(typeID string, fields ...FieldBinding) error {
	if typeID == "" {
		return NewInvalidDeclaration(typeID, "", "type identity is empty")
	}

	e := c.entryFor(typeID)
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]struct{}, len(e.meta.Fields)+len(fields))
	for _, f := range e.meta.Fields {
		seen[f.Name] = struct{}{}
	}
	for _, f := range fields {
		if f.Name == "" {
			return NewInvalidDeclaration(typeID, "", "field name is empty")
		}
		if _, dup := seen[f.Name]; dup {
			return NewDuplicateField(typeID, f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	if e.meta.Fields == nil {
		e.meta.Fields = make([]FieldBinding, 0, len(fields))
	}
	e.meta.Fields = append(e.meta.Fields, fields...)
	c.logger.Debug("declared fields",
		zap.String("type", typeID),
		zap.Int("count", len(fields)),
		zap.Int("total", len(e.meta.Fields)))
	return nil
}

// DeclareVariants appends unit variants to the variant group of typeID.
func (c *Context) DeclareVariants(typeID string, variants ...VariantBinding) error {
	if typeID == "" {
		return NewInvalidDeclaration(typeID, "", "type identity is empty")
	}

	e := c.entryFor(typeID)
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]struct{}, len(e.meta.Variants)+len(variants))
	for _, v := range e.meta.Variants {
		seen[v.Name] = struct{}{}
	}
	for _, v := range variants {
		if v.Name == "" {
			return NewInvalidDeclaration(typeID, "", "variant name is empty")
		}
		if _, dup := seen[v.Name]; dup {
			return NewDuplicateVariant(typeID, v.Name)
		}
		seen[v.Name] = struct{}{}
	}

	if e.meta.Variants == nil {
		e.meta.Variants = make([]VariantBinding, 0, len(variants))
	}
	e.meta.Variants = append(e.meta.Variants, variants...)
	c.logger.Debug("declared variants",
		zap.String("type", typeID),
		zap.Int("count", len(variants)),
		zap.Int("total", len(e.meta.Variants)))
	return nil
}

// DeclareMethods appends functions to the method group of typeID. Static
// functions and methods of every receiver kind share one namespace.
func (c *Context) DeclareMethods(typeID string, methods ...MethodBinding) error {
	if typeID == "" {
		return NewInvalidDeclaration(typeID, "", "type identity is empty")
	}

	e := c.entryFor(typeID)
	e.mu.Lock()
	defer e.mu.Unlock()

	seen := make(map[string]struct{}, len(e.meta.Methods)+len(methods))
	for _, m := range e.meta.Methods {
		seen[m.Name] = struct{}{}
	}
	for _, m := range methods {
		if m.Name == "" {
			return NewInvalidDeclaration(typeID, "", "method name is empty")
		}
		if !m.Receiver.Valid() {
			return NewInvalidDeclaration(typeID, m.Name, "unknown receiver kind")
		}
		if _, dup := seen[m.Name]; dup {
			return NewDuplicateMethod(typeID, m.Name)
		}
		seen[m.Name] = struct{}{}
	}

	if e.meta.Methods == nil {
		e.meta.Methods = make([]MethodBinding, 0, len(methods))
	}
	e.meta.Methods = append(e.meta.Methods, methods...)
	c.logger.Debug("declared methods",
		zap.String("type", typeID),
		zap.Int("count", len(methods)),
		zap.Int("total", len(e.meta.Methods)))
	return nil
}

// Lookup returns a copy of the metadata declared for typeID.
func (c *Context) Lookup(typeID string) (TypeMetadata, bool) {
	e, ok := c.lookup(typeID)
	if !ok {
		return TypeMetadata{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta.clone(), true
}

// TypeIDs returns the declared type identities in sorted order.
func (c *Context) TypeIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CompileCount reports how many adapters have been compiled for typeID.
func (c *Context) CompileCount(typeID string) int {
	e, ok := c.lookup(typeID)
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.compiled
}

// snapshot returns a copy of the metadata for compilation.
func (c *Context) snapshot(typeID string) (TypeMetadata, bool) {
	e, ok := c.lookup(typeID)
	if !ok {
		return TypeMetadata{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.meta.clone(), true
}

// markCompiled records a successful compilation and returns its number.
func (c *Context) markCompiled(typeID string) int {
	e, ok := c.lookup(typeID)
	if !ok {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.compiled++
	return e.compiled
}
