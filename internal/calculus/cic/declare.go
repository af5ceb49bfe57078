package cic

import (
	"fmt"

	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Define type-checks body against ty and adds a transparent definition.
func (c *Checker) Define(name string, ty, body kernel.Term) error {
	if _, err := c.InferSort(ty, NewContext()); err != nil {
		return err
	}
	if err := c.Check(body, ty, NewContext()); err != nil {
		return err
	}
	return c.sig.Define(name, ty, body)
}

// Axiom postulates a constant of type ty.
func (c *Checker) Axiom(name string, ty kernel.Term) error {
	if _, err := c.InferSort(ty, NewContext()); err != nil {
		return err
	}
	return c.sig.Axiom(name, ty)
}

// DeclareInductive checks and adds a block of mutually inductive families.
//
// Besides the structural conditions enforced by the signature (uniform
// parameters, strict positivity, well-founded dependencies) every field of
// a constructor of a family in Type_k must itself live in Type_k or below.
// Families in Prop may have fields of any sort.
func (c *Checker) DeclareInductive(decls ...kernel.InductiveDecl) error {
	assumed := NewContext()
	sorts := make([]kernel.Term, len(decls))
	for i, d := range decls {
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
		_, sort := kernel.PiTelescope(d.Arity)
		if _, _, ok := kernel.AsSort(sort); !ok {
			return kerrors.IllFormedInductive(d.Name, fmt.Sprintf("arity %s does not end in a sort", d.Arity))
		}
		sorts[i] = sort
		assumed = assumed.AddTerm(d.Name, d.FullType())
	}

	for i, d := range decls {
		ctx := assumed
		for _, p := range d.Params {
			ctx = ctx.AddTerm(p.Name, p.Type)
		}
		for _, con := range d.Constructors {
			ty := asVars(con.Type, decls)
			if _, err := c.InferSort(ty, ctx); err != nil {
				return err
			}
			if err := c.checkFieldSorts(d.Name, con.Name, ty, sorts[i], ctx); err != nil {
				return err
			}
		}
	}
	return c.sig.AddMutual(decls...)
}

func (c *Checker) checkFieldSorts(family, constructor string, ty, sort kernel.Term, ctx *Context) error {
	if _, isProp, _ := kernel.AsSort(sort); isProp {
		return nil
	}
	binders, _ := kernel.PiTelescope(ty)
	for _, b := range binders {
		s, err := c.InferSort(b.Domain, ctx)
		if err != nil {
			return err
		}
		ok, err := c.Subtype(s, sort)
		if err != nil {
			return err
		}
		if !ok {
			return kerrors.IllFormedInductive(family,
				fmt.Sprintf("field %s of %s lives in %s, above %s", b.Domain, constructor, s, sort))
		}
		if b.Param != "" {
			ctx = ctx.AddTerm(b.Param, b.Domain)
		}
	}
	return nil
}

// asVars turns references to the families being declared into variables
// bound in the assumed context.
func asVars(t kernel.Term, decls []kernel.InductiveDecl) kernel.Term {
	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		names[d.Name] = true
	}
	var walk func(kernel.Term) kernel.Term
	walk = func(t kernel.Term) kernel.Term {
		if k, ok := t.(kernel.Const); ok && names[k.Name] {
			return kernel.Var{Name: k.Name}
		}
		out, _ := kernel.MapChildren(t, func(x kernel.Term) (kernel.Term, error) {
			return walk(x), nil
		})
		return out
	}
	return walk(t)
}
