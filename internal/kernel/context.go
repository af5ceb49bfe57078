package kernel

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"
)

// BindingKind distinguishes term bindings from type-variable bindings.
type BindingKind int

const (
	// BindTerm binds a term variable to its type.
	BindTerm BindingKind = iota
	// BindTypeVar binds a type variable, optionally to its kind.
	BindTypeVar
)

// String returns a string representation of the binding kind.
func (k BindingKind) String() string {
	switch k {
	case BindTerm:
		return "term"
	case BindTypeVar:
		return "typevar"
	default:
		return "unknown"
	}
}

// Binding is one entry of a context.
type Binding[C any] struct {
	Name       string
	Kind       BindingKind
	Classifier C
	Classified bool
}

// Context is an ordered, immutable sequence of bindings. Extension returns
// a new context sharing the old one as its tail, so a context handed to a
// recursive check never observes bindings made by sibling checks.
type Context[C any] struct {
	parent  *Context[C]
	binding Binding[C]
	size    int
}

// NewContext returns the empty context.
func NewContext[C any]() *Context[C] {
	return nil
}

func (c *Context[C]) extend(b Binding[C]) *Context[C] {
	return &Context[C]{parent: c, binding: b, size: c.Len() + 1}
}

// AddTerm binds a term variable to its classifier.
func (c *Context[C]) AddTerm(name string, classifier C) *Context[C] {
	return c.extend(Binding[C]{Name: name, Kind: BindTerm, Classifier: classifier, Classified: true})
}

// AddTypeVar binds an unkinded type variable.
func (c *Context[C]) AddTypeVar(name string) *Context[C] {
	return c.extend(Binding[C]{Name: name, Kind: BindTypeVar})
}

// AddKindedTypeVar binds a type variable together with its kind.
func (c *Context[C]) AddKindedTypeVar(name string, kind C) *Context[C] {
	return c.extend(Binding[C]{Name: name, Kind: BindTypeVar, Classifier: kind, Classified: true})
}

func (c *Context[C]) lookup(name string, kind BindingKind) (Binding[C], bool) {
	for ctx := c; ctx != nil; ctx = ctx.parent {
		if ctx.binding.Kind == kind && ctx.binding.Name == name {
			return ctx.binding, true
		}
	}
	return Binding[C]{}, false
}

// GetTerm returns the classifier of the most recent binding of a term variable.
func (c *Context[C]) GetTerm(name string) (C, bool) {
	b, ok := c.lookup(name, BindTerm)
	return b.Classifier, ok
}

// HasTypeVar reports whether a type variable is in scope.
func (c *Context[C]) HasTypeVar(name string) bool {
	_, ok := c.lookup(name, BindTypeVar)
	return ok
}

// GetTypeVar returns the kind of a type variable; kinded is false for unkinded bindings.
func (c *Context[C]) GetTypeVar(name string) (kind C, kinded bool, found bool) {
	b, ok := c.lookup(name, BindTypeVar)
	return b.Classifier, b.Classified, ok
}

// Len returns the number of bindings.
func (c *Context[C]) Len() int {
	if c == nil {
		return 0
	}
	return c.size
}

// Bindings returns all bindings, oldest first.
func (c *Context[C]) Bindings() []Binding[C] {
	out := make([]Binding[C], c.Len())
	i := len(out) - 1
	for ctx := c; ctx != nil; ctx = ctx.parent {
		out[i] = ctx.binding
		i--
	}
	return out
}

// Names returns every name bound in the context.
func (c *Context[C]) Names() *set.Set[string] {
	out := set.New[string](c.Len())
	for ctx := c; ctx != nil; ctx = ctx.parent {
		out.Insert(ctx.binding.Name)
	}
	return out
}

// String prints the context as x:T, α:κ, β.
func (c *Context[C]) String() string {
	bindings := c.Bindings()
	parts := make([]string, len(bindings))
	for i, b := range bindings {
		if b.Classified {
			parts[i] = fmt.Sprintf("%s:%v", b.Name, b.Classifier)
		} else {
			parts[i] = b.Name
		}
	}
	return strings.Join(parts, ", ")
}
