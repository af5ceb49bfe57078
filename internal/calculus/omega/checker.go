package omega

import (
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Context binds term variables to types and type variables to kinds. Both
// classifiers are kernel terms; kinds use the encoding of KindToTerm.
type Context = kernel.Context[kernel.Term]

// NewContext returns the empty context.
func NewContext() *Context {
	return kernel.NewContext[kernel.Term]()
}

// Checker kind-checks types and type-checks terms of System Fω.
type Checker struct {
	sig     *kernel.Signature
	types   *kernel.Reduction
	reducer *kernel.Reduction
	logger  kernel.Logger
}

var _ kernel.TypeChecker[kernel.Term] = (*Checker)(nil)

// NewChecker creates a checker over the builtin data types.
func NewChecker() *Checker {
	sig := kernel.BuiltinSignature()
	return &Checker{
		sig:     sig,
		types:   kernel.NewReduction(0),
		reducer: kernel.NewReduction(0).WithSignature(sig),
	}
}

// SetLogger enables tracing of every inferred judgement.
func (c *Checker) SetLogger(l kernel.Logger) {
	c.logger = l
}

// SetReductionSteps bounds both type-level and term-level reduction.
func (c *Checker) SetReductionSteps(n int) {
	c.types = kernel.NewReduction(n)
	c.reducer = kernel.NewReduction(n).WithSignature(c.sig)
}

// Signature returns the data types known to the checker. Parameterised
// families such as List (A : Type) get kind * ⇒ *.
func (c *Checker) Signature() *kernel.Signature {
	return c.sig
}

// NormalizeType beta-reduces type-level applications. Unkinded binders
// are given kind * so that ∀α. T and ∀α:*. T compare equal.
func (c *Checker) NormalizeType(t kernel.Term) (kernel.Term, error) {
	n, err := c.types.Normalize(t)
	if err != nil {
		return nil, err
	}
	return defaultKinds(n)
}

func defaultKinds(t kernel.Term) (kernel.Term, error) {
	switch x := t.(type) {
	case kernel.Forall:
		if x.Kind == nil {
			x.Kind = kernel.Type0
		}
		t = x
	case kernel.Lambda:
		if x.ParamType == nil {
			x.ParamType = kernel.Type0
		}
		t = x
	}
	return kernel.MapChildren(t, defaultKinds)
}

// Equivalent reports whether two types are equal up to type-level beta
// reduction and renaming of bound variables.
func (c *Checker) Equivalent(a, b kernel.Term) (bool, error) {
	na, err := c.NormalizeType(a)
	if err != nil {
		return false, err
	}
	nb, err := c.NormalizeType(b)
	if err != nil {
		return false, err
	}
	return kernel.AlphaEqual(na, nb), nil
}

// Reduce evaluates a term.
func (c *Checker) Reduce(t kernel.Term) (kernel.Term, error) {
	return c.reducer.Normalize(t)
}

// ====== Kinds ======

// KindOf computes the kind of a type.
func (c *Checker) KindOf(ty kernel.Term, ctx *Context) (Kind, error) {
	switch x := ty.(type) {
	case kernel.Var:
		kind, kinded, found := ctx.GetTypeVar(x.Name)
		if !found {
			return nil, kerrors.UnboundTypeVariable(x.Name)
		}
		if !kinded {
			return Star{}, nil
		}
		return KindFromTerm(kind)

	case kernel.Const:
		if x.Name == kernel.IntType.Name {
			return Star{}, nil
		}
		decl, ok := c.sig.Inductive(x.Name)
		if !ok {
			return nil, kerrors.UnboundTypeVariable(x.Name)
		}
		return KindFromTerm(decl.FullType())

	case kernel.Pi:
		if x.Param != "" && kernel.Occurs(x.Param, x.Codomain) {
			return nil, kerrors.NotAType(ty, kernel.Const{Name: "System Fω"})
		}
		if err := c.expectStar(x.Domain, ctx); err != nil {
			return nil, err
		}
		if err := c.expectStar(x.Codomain, ctx); err != nil {
			return nil, err
		}
		return Star{}, nil

	case kernel.Forall:
		kind, err := KindFromTerm(x.Kind)
		if err != nil {
			return nil, err
		}
		if err := c.expectStar(x.Body, ctx.AddKindedTypeVar(x.Param, KindToTerm(kind))); err != nil {
			return nil, err
		}
		return Star{}, nil

	case kernel.Lambda:
		from, err := KindFromTerm(x.ParamType)
		if err != nil {
			return nil, err
		}
		to, err := c.KindOf(x.Body, ctx.AddKindedTypeVar(x.Param, KindToTerm(from)))
		if err != nil {
			return nil, err
		}
		return KArrow{From: from, To: to}, nil

	case kernel.Apply:
		fk, err := c.KindOf(x.Func, ctx)
		if err != nil {
			return nil, err
		}
		ak, err := c.KindOf(x.Arg, ctx)
		if err != nil {
			return nil, err
		}
		arrow, ok := fk.(KArrow)
		if !ok {
			return nil, kerrors.KindMismatch(KArrow{From: ak, To: Star{}}, fk)
		}
		if !KindEqual(arrow.From, ak) {
			return nil, kerrors.KindMismatch(arrow.From, ak)
		}
		return arrow.To, nil

	default:
		return nil, kerrors.NotAType(ty, kernel.Const{Name: "System Fω"})
	}
}

func (c *Checker) expectStar(ty kernel.Term, ctx *Context) error {
	k, err := c.KindOf(ty, ctx)
	if err != nil {
		return err
	}
	if _, ok := k.(Star); !ok {
		return kerrors.KindMismatch(Star{}, k)
	}
	return nil
}

// readType kind-checks an annotation against * and normalizes it.
func (c *Checker) readType(ty kernel.Term, ctx *Context) (kernel.Term, error) {
	if err := c.expectStar(ty, ctx); err != nil {
		return nil, err
	}
	return c.NormalizeType(ty)
}

// ====== Terms ======

// TypeCheck computes the normalized type of t in ctx.
func (c *Checker) TypeCheck(t kernel.Term, ctx *Context) (kernel.Term, error) {
	return c.InferType(t, ctx)
}

// Check verifies that t has a type equivalent to expected.
func (c *Checker) Check(t kernel.Term, expected kernel.Term, ctx *Context) error {
	got, err := c.InferType(t, ctx)
	if err != nil {
		return err
	}
	ok, err := c.Equivalent(got, expected)
	if err != nil {
		return err
	}
	if !ok {
		return kerrors.TypeMismatch(expected, got)
	}
	return nil
}

// InferType synthesizes the type of t. Results are in type-level normal form.
func (c *Checker) InferType(t kernel.Term, ctx *Context) (kernel.Term, error) {
	ty, err := c.infer(t, ctx)
	if err == nil && c.logger != nil {
		c.logger.Debug("omega: %s ⊢ %s : %s", ctx, t, ty)
	}
	return ty, err
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

	case kernel.Unit:
		return kernel.UnitType, nil
	case kernel.Bool:
		return kernel.BoolType, nil
	case kernel.Number:
		return kernel.NatType, nil

	case kernel.Lambda:
		if x.ParamType == nil {
			return nil, kerrors.UnsupportedTerm("System Fω", t)
		}
		paramType, err := c.readType(x.ParamType, ctx)
		if err != nil {
			return nil, err
		}
		body, err := c.InferType(x.Body, ctx.AddTerm(x.Param, paramType))
		if err != nil {
			return nil, err
		}
		return kernel.Arrow(paramType, body), nil

	case kernel.Apply:
		fn, err := c.InferType(x.Func, ctx)
		if err != nil {
			return nil, err
		}
		pi, ok := kernel.AsPi(fn)
		if !ok {
			return nil, kerrors.InvalidApplication(x.Func, fn)
		}
		if err := c.Check(x.Arg, pi.Domain, ctx); err != nil {
			return nil, err
		}
		return pi.Codomain, nil

	case kernel.TypeLambda:
		kind, err := KindFromTerm(x.Kind)
		if err != nil {
			return nil, err
		}
		param, body := x.Param, x.Body
		if ctx.HasTypeVar(param) {
			avoid := ctx.Names()
			avoid.InsertSet(kernel.FreeVars(body))
			fresh := kernel.FreshName(param, avoid)
			body = kernel.Rename(body, param, fresh)
			param = fresh
		}
		kindTerm := KindToTerm(kind)
		bodyType, err := c.InferType(body, ctx.AddKindedTypeVar(param, kindTerm))
		if err != nil {
			return nil, err
		}
		return kernel.Forall{Param: param, Kind: kindTerm, Body: bodyType}, nil

	case kernel.TypeApply:
		fn, err := c.InferType(x.Func, ctx)
		if err != nil {
			return nil, err
		}
		forall, ok := kernel.AsForall(fn)
		if !ok {
			return nil, kerrors.InvalidTypeApplication(x.Func, fn)
		}
		return c.instantiate(forall, x.TypeArg, ctx)

	case kernel.Annotated:
		want, err := c.readType(x.Type, ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Check(x.Expr, want, ctx); err != nil {
			return nil, err
		}
		return want, nil

	case kernel.Constructor:
		return c.inferConstructor(x, ctx)

	case kernel.Match:
		return c.inferMatch(x, ctx)

	default:
		return nil, kerrors.UnsupportedTerm("System Fω", t)
	}
}

// instantiate checks that arg has the kind expected by forall and
// substitutes it into the body.
func (c *Checker) instantiate(forall kernel.Forall, arg kernel.Term, ctx *Context) (kernel.Term, error) {
	want, err := KindFromTerm(forall.Kind)
	if err != nil {
		return nil, err
	}
	got, err := c.KindOf(arg, ctx)
	if err != nil {
		return nil, err
	}
	if !KindEqual(want, got) {
		return nil, kerrors.KindMismatch(want, got)
	}
	return c.NormalizeType(kernel.Substitute(forall.Body, forall.Param, arg))
}

// constType returns the type of a constructor. The parameters of its family
// become universally quantified type variables.
func (c *Checker) constType(name string) (kernel.Term, error) {
	info, ok := c.sig.Constructor(name)
	if !ok {
		return nil, kerrors.UnboundVariable(name)
	}
	ty := info.Decl.Type
	params := info.Inductive.Params
	for i := len(params) - 1; i >= 0; i-- {
		ty = kernel.Forall{Param: params[i].Name, Kind: params[i].Type, Body: ty}
	}
	return ty, nil
}

// inferConstructor treats the leading arguments of a constructor term as
// type arguments for the family's parameters and the rest as fields.
func (c *Checker) inferConstructor(x kernel.Constructor, ctx *Context) (kernel.Term, error) {
	ty, err := c.constType(x.Name)
	if err != nil {
		return nil, err
	}
	for _, arg := range x.Args {
		switch f := ty.(type) {
		case kernel.Forall:
			ty, err = c.instantiate(f, arg, ctx)
			if err != nil {
				return nil, err
			}
		case kernel.Pi:
			if err := c.Check(arg, f.Domain, ctx); err != nil {
				return nil, err
			}
			ty = f.Codomain
		default:
			return nil, kerrors.InvalidApplication(kernel.Const{Name: x.Name}, ty)
		}
	}
	return ty, nil
}

func (c *Checker) inferMatch(m kernel.Match, ctx *Context) (kernel.Term, error) {
	scrutinee, err := c.InferType(m.Scrutinee, ctx)
	if err != nil {
		return nil, err
	}
	head, _ := kernel.Spine(scrutinee)
	family, ok := head.(kernel.Const)
	if _, declared := c.sig.Inductive(family.Name); !ok || !declared {
		return nil, kerrors.ConstructorMismatch("a value of a data type", scrutinee.String())
	}

	matcher := kernel.NewPatternMatcher(scrutinee, m.Clauses).WithSignature(c.sig)
	if err := matcher.CheckExhaustive(c.sig); err != nil {
		return nil, err
	}

	var result kernel.Term
	for _, clause := range m.Clauses {
		typing, err := c.sig.TypePattern(clause.Pattern, scrutinee)
		if err != nil {
			return nil, err
		}
		inner := ctx
		for _, b := range typing.Bindings {
			inner = inner.AddTerm(b.Name, b.Type)
		}
		body, err := c.InferType(clause.Body, inner)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = body
			continue
		}
		same, err := c.Equivalent(result, body)
		if err != nil {
			return nil, err
		}
		if !same {
			return nil, kerrors.TypeMismatch(result, body)
		}
	}
	if result == nil {
		return nil, kerrors.NonExhaustive(family.Name, kernel.WildcardPattern{})
	}
	return result, nil
}
