// Package cic implements the Calculus of Inductive Constructions: the
// Calculus of Constructions with an impredicative sort of propositions, a
// predicative cumulative hierarchy Type_0 : Type_1 : ..., inductive
// families with dependent elimination, global definitions and axioms, and
// lookup of previously proved theorems.
package cic

import (
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

const calculusName = "CIC"

// Context binds term variables to their types.
type Context = kernel.Context[kernel.Term]

// NewContext returns the empty context.
func NewContext() *Context {
	return kernel.NewContext[kernel.Term]()
}

// TheoremSource resolves the statement of a proved theorem by name.
// Theorems are opaque: their proofs never unfold during conversion.
type TheoremSource interface {
	Statement(name string) (kernel.Term, bool)
}

// Checker type-checks CIC terms.
type Checker struct {
	sig      *kernel.Signature
	reducer  *kernel.Reduction
	unifier  kernel.UnifierConfig
	theorems TheoremSource
	logger   kernel.Logger
}

var _ kernel.TypeChecker[kernel.Term] = (*Checker)(nil)

// NewChecker creates a checker over the builtin data types.
func NewChecker() *Checker {
	c := &Checker{
		sig:     kernel.BuiltinSignature(),
		unifier: kernel.DefaultUnifierConfig(),
	}
	c.SetReductionSteps(0)
	return c
}

// SetTheoremSource makes the theorems of src available as constants.
func (c *Checker) SetTheoremSource(src TheoremSource) {
	c.theorems = src
}

// SetLogger enables tracing of inferred judgements.
func (c *Checker) SetLogger(l kernel.Logger) {
	c.logger = l
}

// SetReductionSteps bounds every normalization performed by the checker.
func (c *Checker) SetReductionSteps(n int) {
	c.reducer = kernel.NewReduction(n).WithSignature(c.sig).WithDelta(c.sig.Delta)
}

// SetUnifierConfig sets the bounds used for index unification.
func (c *Checker) SetUnifierConfig(cfg kernel.UnifierConfig) {
	c.unifier = cfg
}

// Signature returns the global declarations.
func (c *Checker) Signature() *kernel.Signature {
	return c.sig
}

// Normalize reduces t to normal form, unfolding definitions.
func (c *Checker) Normalize(t kernel.Term) (kernel.Term, error) {
	return c.reducer.Normalize(t)
}

func (c *Checker) whnf(t kernel.Term) (kernel.Term, error) {
	return c.reducer.WHNF(t)
}

// TypeCheck computes the type of t in ctx.
func (c *Checker) TypeCheck(t kernel.Term, ctx *Context) (kernel.Term, error) {
	return c.InferType(t, ctx)
}

// InferType synthesizes the type of t.
func (c *Checker) InferType(t kernel.Term, ctx *Context) (kernel.Term, error) {
	ty, err := c.infer(t, ctx)
	if err == nil && c.logger != nil {
		c.logger.Debug("cic: %s ⊢ %s : %s", ctx, t, ty)
	}
	return ty, err
}

// InferSort checks that t is a type and returns its sort, Prop or Type_n.
func (c *Checker) InferSort(t kernel.Term, ctx *Context) (kernel.Term, error) {
	ty, err := c.InferType(t, ctx)
	if err != nil {
		return nil, err
	}
	w, err := c.whnf(ty)
	if err != nil {
		return nil, err
	}
	if _, _, ok := kernel.AsSort(w); !ok {
		return nil, kerrors.NotAType(t, ty)
	}
	return w, nil
}

// IsProposition reports whether t is a type living in Prop.
func (c *Checker) IsProposition(t kernel.Term, ctx *Context) (bool, error) {
	s, err := c.InferSort(t, ctx)
	if err != nil {
		return false, err
	}
	_, isProp, _ := kernel.AsSort(s)
	return isProp, nil
}

func (c *Checker) infer(t kernel.Term, ctx *Context) (kernel.Term, error) {
	switch x := t.(type) {
	case kernel.Var:
		ty, ok := ctx.GetTerm(x.Name)
		if !ok {
			return nil, kerrors.UnboundVariable(x.Name)
		}
		return ty, nil

	case kernel.Const:
		return c.constType(x.Name)

	case kernel.Prop:
		return kernel.Sort{Level: 1}, nil
	case kernel.Sort:
		return kernel.Sort{Level: x.Level + 1}, nil

	case kernel.Unit:
		return kernel.UnitType, nil
	case kernel.Bool:
		return kernel.BoolType, nil
	case kernel.Number:
		return kernel.NatType, nil

	case kernel.Pi:
		domain, err := c.InferSort(x.Domain, ctx)
		if err != nil {
			return nil, err
		}
		inner := ctx
		if x.Param != "" {
			inner = ctx.AddTerm(x.Param, x.Domain)
		}
		codomain, err := c.InferSort(x.Codomain, inner)
		if err != nil {
			return nil, err
		}
		return piSort(domain, codomain), nil

	case kernel.Lambda:
		if x.ParamType == nil {
			return nil, kerrors.UnsupportedTerm(calculusName, t)
		}
		if _, err := c.InferSort(x.ParamType, ctx); err != nil {
			return nil, err
		}
		body, err := c.InferType(x.Body, ctx.AddTerm(x.Param, x.ParamType))
		if err != nil {
			return nil, err
		}
		return kernel.Pi{Param: x.Param, Domain: x.ParamType, Codomain: body}, nil

	case kernel.Apply:
		fn, err := c.InferType(x.Func, ctx)
		if err != nil {
			return nil, err
		}
		return c.applyType(x.Func, fn, x.Arg, ctx)

	case kernel.Annotated:
		if _, err := c.InferSort(x.Type, ctx); err != nil {
			return nil, err
		}
		if err := c.Check(x.Expr, x.Type, ctx); err != nil {
			return nil, err
		}
		return x.Type, nil

	case kernel.Constructor:
		ty, err := c.constType(x.Name)
		if err != nil {
			return nil, err
		}
		for _, arg := range x.Args {
			ty, err = c.applyType(kernel.Const{Name: x.Name}, ty, arg, ctx)
			if err != nil {
				return nil, err
			}
		}
		return ty, nil

	case kernel.Match:
		return c.checkMatch(x, nil, ctx)

	default:
		return nil, kerrors.UnsupportedTerm(calculusName, t)
	}
}

// piSort is the sort of Πx:A. B given the sorts of A and B. Prop is
// impredicative: a product into Prop is a proposition whatever its domain.
func piSort(domain, codomain kernel.Term) kernel.Term {
	j, codomainProp, _ := kernel.AsSort(codomain)
	if codomainProp {
		return kernel.Prop{}
	}
	i, _, _ := kernel.AsSort(domain)
	return kernel.Sort{Level: max(i, j)}
}

func (c *Checker) constType(name string) (kernel.Term, error) {
	if name == kernel.IntType.Name {
		return kernel.Type0, nil
	}
	if ty, ok := c.sig.TypeOfConst(name); ok {
		return ty, nil
	}
	if c.theorems != nil {
		if ty, ok := c.theorems.Statement(name); ok {
			return ty, nil
		}
	}
	return nil, kerrors.UnboundVariable(name)
}

func (c *Checker) applyType(fn, fnType, arg kernel.Term, ctx *Context) (kernel.Term, error) {
	w, err := c.whnf(fnType)
	if err != nil {
		return nil, err
	}
	pi, ok := kernel.AsPi(w)
	if !ok {
		return nil, kerrors.InvalidApplication(fn, fnType)
	}
	if err := c.Check(arg, pi.Domain, ctx); err != nil {
		return nil, err
	}
	if pi.Param == "" {
		return pi.Codomain, nil
	}
	return kernel.Substitute(pi.Codomain, pi.Param, arg), nil
}

// Check verifies t against expected. Unannotated lambdas take their domain
// from expected; matches without a motive check every branch against it.
func (c *Checker) Check(t kernel.Term, expected kernel.Term, ctx *Context) error {
	switch x := t.(type) {
	case kernel.Lambda:
		if x.ParamType != nil {
			break
		}
		w, err := c.whnf(expected)
		if err != nil {
			return err
		}
		pi, ok := kernel.AsPi(w)
		if !ok {
			return kerrors.TypeMismatch(expected, t)
		}
		// The parameter is renamed when it would capture a variable of the
		// product or shadow one in ctx.
		clash := ctx.Names()
		clash.InsertSet(kernel.FreeVars(pi))
		name := kernel.BinderName(x.Param, clash, x.Body)
		codomain := pi.Codomain
		if pi.Param != "" {
			codomain = kernel.Rename(codomain, pi.Param, name)
		}
		return c.Check(kernel.Rename(x.Body, x.Param, name), codomain, ctx.AddTerm(name, pi.Domain))

	case kernel.Match:
		if x.Motive == nil {
			_, err := c.checkMatch(x, expected, ctx)
			return err
		}
	}

	got, err := c.InferType(t, ctx)
	if err != nil {
		return err
	}
	ok, err := c.Subtype(got, expected)
	if err != nil {
		return err
	}
	if !ok {
		return kerrors.TypeMismatch(expected, got)
	}
	return nil
}

// Convertible reports definitional equality: alpha-equivalence after
// normalization with beta, delta and iota, identifying numerals with their
// zero/succ spelling.
func (c *Checker) Convertible(a, b kernel.Term) (bool, error) {
	na, err := c.Normalize(a)
	if err != nil {
		return false, err
	}
	nb, err := c.Normalize(b)
	if err != nil {
		return false, err
	}
	return kernel.AlphaEqual(kernel.FoldNumerals(na), kernel.FoldNumerals(nb)), nil
}

// Subtype is conversion extended with cumulativity: Prop ≤ Type_i and
// Type_i ≤ Type_j for i ≤ j, covariantly in the codomain of products.
func (c *Checker) Subtype(a, b kernel.Term) (bool, error) {
	wa, err := c.whnf(a)
	if err != nil {
		return false, err
	}
	wb, err := c.whnf(b)
	if err != nil {
		return false, err
	}

	if i, aProp, ok := kernel.AsSort(wa); ok {
		if j, bProp, ok := kernel.AsSort(wb); ok {
			switch {
			case aProp:
				return true, nil
			case bProp:
				return false, nil
			default:
				return i <= j, nil
			}
		}
	}
	if x, ok := wa.(kernel.Pi); ok {
		if y, ok := wb.(kernel.Pi); ok {
			same, err := c.Convertible(x.Domain, y.Domain)
			if err != nil || !same {
				return false, err
			}
			left, right := kernel.AlignPis(x, y)
			return c.Subtype(left, right)
		}
	}
	return c.Convertible(wa, wb)
}
