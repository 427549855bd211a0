package templates

import "sync"

// Shared guards the engine instance for concurrent use: many renders take
// read access, a reload takes write access and replaces the instance as a
// whole. The engine is never mutated field by field.
type Shared struct {
	mu     sync.RWMutex
	engine *Engine
}

// NewShared wraps an initial engine.
func NewShared(e *Engine) *Shared {
	return &Shared{engine: e}
}

// Render executes a template under shared (read) access.
func (s *Shared) Render(name string, ctx any) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Render(name, ctx)
}

// Has reports template presence under shared access.
func (s *Shared) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Has(name)
}

// Replace installs a freshly loaded engine under exclusive access.
func (s *Shared) Replace(e *Engine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = e
}
