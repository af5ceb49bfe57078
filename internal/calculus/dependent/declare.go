package dependent

import (
	"github.com/orizon-lang/typekernel/internal/kernel"
)

// Define type-checks body against ty and adds it as a global definition
// that unfolds during conversion.
func (c *Checker) Define(name string, ty, body kernel.Term) error {
	if _, err := c.InferSort(ty, NewContext()); err != nil {
		return err
	}
	if err := c.Check(body, ty, NewContext()); err != nil {
		return err
	}
	return c.sig.Define(name, ty, body)
}

// Axiom adds a constant of type ty, which must be a type.
func (c *Checker) Axiom(name string, ty kernel.Term) error {
	if _, err := c.InferSort(ty, NewContext()); err != nil {
		return err
	}
	return c.sig.Axiom(name, ty)
}

// DeclareInductive checks and adds a block of mutually inductive families.
// Parameter types, arities and constructor types must be types; the
// families of the block are assumed with their arities while checking the
// constructors.
func (c *Checker) DeclareInductive(decls ...kernel.InductiveDecl) error {
	assumed := NewContext()
	for _, d := range decls {
		ctx := NewContext()
		for _, p := range d.Params {
			if _, err := c.InferSort(p.Type, ctx); err != nil {
				return err
			}
			ctx = ctx.AddTerm(p.Name, p.Type)
		}
		if _, err := c.InferSort(d.Arity, ctx); err != nil {
			return err
		}
		assumed = assumed.AddTerm(d.Name, d.FullType())
	}

	for _, d := range decls {
		ctx := assumed
		for _, p := range d.Params {
			ctx = ctx.AddTerm(p.Name, p.Type)
		}
		for _, con := range d.Constructors {
			if _, err := c.InferSort(asVars(con.Type, decls), ctx); err != nil {
				return err
			}
		}
	}
	return c.sig.AddMutual(decls...)
}

// asVars replaces references to the families being declared by variables
// so that they resolve against the assumed context.
func asVars(t kernel.Term, decls []kernel.InductiveDecl) kernel.Term {
	sub := kernel.NewSubstitution()
	for _, d := range decls {
		_ = sub.Add(d.Name, kernel.Var{Name: d.Name})
	}
	return replaceConsts(t, sub)
}

func replaceConsts(t kernel.Term, sub *kernel.Substitution) kernel.Term {
	if k, ok := t.(kernel.Const); ok {
		if r, found := sub.Lookup(k.Name); found {
			return r
		}
		return t
	}
	out, _ := kernel.MapChildren(t, func(x kernel.Term) (kernel.Term, error) {
		return replaceConsts(x, sub), nil
	})
	return out
}
