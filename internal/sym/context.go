// Package sym implements the node-id generator, the nested scope chain,
// and the symbol variants used to resolve references.
package sym

import "sync/atomic"

// Context is the process-wide, single-writer owner of the id generator
// and the inter-module scope. It is threaded through every
// phase. The compiler is single-threaded; the generator uses
// atomic.Uint64 only so a future per-module-parallel driver can share one
// Context without a separate lock, not because this pipeline needs it.
type Context struct {
	nextID      atomic.Uint64
	ModuleScope *Scope // scope of module-qualified names, shared across a multi-module build
}

// NewContext creates a Context with a fresh id generator and module scope.
func NewContext() *Context {
	c := &Context{ModuleScope: NewScope(nil)}
	return c
}

// NextID returns a fresh, globally unique, non-zero node-id.
func (c *Context) NextID() uint64 {
	return c.nextID.Add(1)
}
