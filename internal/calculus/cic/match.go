package cic

import (
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// checkMatch types dependent elimination of an inductive family.
//
// With a motive P the match has type P i1 ... ik s, where i1 ... ik are the
// indices of the scrutinee s, and a clause for constructor c must have
// type P applied to the indices of c's result type and to the value of
// the pattern. Without a motive every branch has the expected type, or the
// type of the first branch when there is none.
//
// A constructor whose result indices cannot be unified with the
// scrutinee's indices is unreachable and need not be covered.
func (c *Checker) checkMatch(m kernel.Match, expected kernel.Term, ctx *Context) (kernel.Term, error) {
	scrutType, err := c.InferType(m.Scrutinee, ctx)
	if err != nil {
		return nil, err
	}
	scrutType, err = c.whnf(scrutType)
	if err != nil {
		return nil, err
	}
	head, args := kernel.Spine(scrutType)
	family, _ := head.(kernel.Const)
	decl, ok := c.sig.Inductive(family.Name)
	if !ok || len(args) < len(decl.Params) {
		return nil, kerrors.ConstructorMismatch("a value of an inductive type", scrutType.String())
	}
	indices := args[len(decl.Params):]

	unreachable, err := c.unreachableConstructors(decl, scrutType, indices)
	if err != nil {
		return nil, err
	}
	clauses := append([]kernel.Clause(nil), m.Clauses...)
	for _, name := range unreachable {
		info, _ := c.sig.Constructor(name)
		args := make([]kernel.Pattern, info.Fields())
		for i := range args {
			args[i] = kernel.WildcardPattern{}
		}
		clauses = append(clauses, kernel.Clause{Pattern: kernel.ConstructorPattern{Name: name, Args: args}})
	}
	matcher := kernel.NewPatternMatcher(scrutType, clauses).WithSignature(c.sig)
	if err := matcher.CheckExhaustive(c.sig); err != nil {
		return nil, err
	}

	var result kernel.Term
	if m.Motive != nil {
		// Applying the motive to the indices and the scrutinee checks its
		// binders against them; the result must be a type.
		applied := kernel.App(m.Motive, append(append([]kernel.Term(nil), indices...), m.Scrutinee)...)
		if _, err := c.InferSort(applied, ctx); err != nil {
			return nil, err
		}
		result, err = c.whnf(applied)
		if err != nil {
			return nil, err
		}
	} else {
		result = expected
	}

	for _, clause := range m.Clauses {
		typing, err := c.sig.TypePattern(clause.Pattern, scrutType)
		if err != nil {
			return nil, err
		}
		inner := ctx
		for _, b := range typing.Bindings {
			inner = inner.AddTerm(b.Name, b.Type)
		}

		var want kernel.Term
		switch {
		case m.Motive != nil:
			want = kernel.App(m.Motive, append(append([]kernel.Term(nil), typing.Indices...), typing.Value)...)
		case result != nil:
			want = result
		}
		if want != nil {
			if err := c.Check(clause.Body, want, inner); err != nil {
				return nil, err
			}
			continue
		}
		result, err = c.InferType(clause.Body, inner)
		if err != nil {
			return nil, err
		}
	}
	if result == nil {
		return nil, kerrors.NonExhaustive(family.Name, kernel.WildcardPattern{})
	}
	return result, nil
}

// unreachableConstructors returns the constructors of decl whose result
// indices do not unify with the scrutinee's indices. Every variable is
// flexible, so a constructor is unreachable only when the indices clash on
// constructor structure.
func (c *Checker) unreachableConstructors(decl *kernel.InductiveDecl, scrutType kernel.Term, indices []kernel.Term) ([]string, error) {
	if len(indices) == 0 {
		return nil, nil
	}
	var out []string
	for _, con := range decl.Constructors {
		info, _ := c.sig.Constructor(con.Name)
		args := make([]kernel.Pattern, info.Fields())
		for i := range args {
			args[i] = kernel.WildcardPattern{}
		}
		typing, err := c.sig.TypePattern(kernel.ConstructorPattern{Name: con.Name, Args: args}, scrutType)
		if err != nil {
			return nil, err
		}

		constraints := make([]kernel.Constraint, len(indices))
		for i := range indices {
			constraints[i] = kernel.Constraint{Left: kernel.FoldNumerals(typing.Indices[i]), Right: kernel.FoldNumerals(indices[i])}
		}
		cfg := c.unifier
		cfg.Reducer = c.reducer
		cfg.Rigid = nil
		cfg.Flexible = nil
		_, err = kernel.NewUnifier(cfg).Unify(constraints)
		switch {
		case err == nil:
		case kerrors.HasCode(err, kerrors.CodeTermsCannotUnify):
			out = append(out, con.Name)
		case kerrors.HasCode(err, kerrors.CodeOccursCheckFailed):
			out = append(out, con.Name)
		default:
			return nil, err
		}
	}
	return out, nil
}
