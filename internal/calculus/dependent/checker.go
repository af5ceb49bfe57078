// Package dependent implements a basic dependently typed calculus with a
// cumulative hierarchy of universes, Π and Σ types, pairs and projections,
// the builtin data types and user-declared inductive families.
//
// Checking is bidirectional: unannotated lambdas are checked against an
// expected Π and pairs against an expected Σ. Types are compared by
// normalization; when either side mentions a unification variable (a name
// starting with kernel.MetaPrefix) the comparison falls back to
// unification. Further term formers are added through an Extension.
package dependent

import (
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

const calculusName = "dependent"

// Context binds term variables to their types.
type Context = kernel.Context[kernel.Term]

// NewContext returns the empty context.
func NewContext() *Context {
	return kernel.NewContext[kernel.Term]()
}

// Extension adds term formers to a Checker. Infer reports handled=false
// for terms it does not know, letting the next extension or the core rules
// try them.
type Extension interface {
	Infer(c *Checker, t kernel.Term, ctx *Context) (ty kernel.Term, handled bool, err error)
}

// ExtensionFunc adapts a function to the Extension interface.
type ExtensionFunc func(c *Checker, t kernel.Term, ctx *Context) (kernel.Term, bool, error)

// Infer calls f.
func (f ExtensionFunc) Infer(c *Checker, t kernel.Term, ctx *Context) (kernel.Term, bool, error) {
	return f(c, t, ctx)
}

// Checker type-checks terms of the dependent calculus.
type Checker struct {
	sig        *kernel.Signature
	reducer    *kernel.Reduction
	unifier    kernel.UnifierConfig
	extensions []Extension
	logger     kernel.Logger
}

var _ kernel.TypeChecker[kernel.Term] = (*Checker)(nil)

// NewChecker creates a checker over the builtin data types.
func NewChecker() *Checker {
	return NewCheckerWithSignature(kernel.BuiltinSignature())
}

// NewCheckerWithSignature creates a checker over the declarations of sig.
// The checker adds its own declarations to sig.
func NewCheckerWithSignature(sig *kernel.Signature) *Checker {
	c := &Checker{
		sig:     sig,
		unifier: kernel.DefaultUnifierConfig(),
	}
	c.SetReductionSteps(0)
	return c
}

// AddExtension registers ext. Extensions are consulted in registration
// order before the core rules.
func (c *Checker) AddExtension(ext Extension) {
	c.extensions = append(c.extensions, ext)
}

// SetLogger enables tracing of inferred judgements and of the unifier.
func (c *Checker) SetLogger(l kernel.Logger) {
	c.logger = l
}

// SetReductionSteps bounds every normalization performed by the checker.
func (c *Checker) SetReductionSteps(n int) {
	c.reducer = kernel.NewReduction(n).WithSignature(c.sig).WithDelta(c.sig.Delta)
}

// SetUnifierConfig sets the bounds used when types mention unification
// variables. Flexible and Reducer are always supplied by the checker.
func (c *Checker) SetUnifierConfig(cfg kernel.UnifierConfig) {
	c.unifier = cfg
}

// Signature returns the global declarations.
func (c *Checker) Signature() *kernel.Signature {
	return c.sig
}

// Reducer returns the reducer used for definitional equality.
func (c *Checker) Reducer() kernel.Reducer {
	return c.reducer
}

// WHNF reduces t to weak head normal form, unfolding definitions.
func (c *Checker) WHNF(t kernel.Term) (kernel.Term, error) {
	return c.reducer.WHNF(t)
}

// Normalize reduces t to normal form, unfolding definitions.
func (c *Checker) Normalize(t kernel.Term) (kernel.Term, error) {
	return c.reducer.Normalize(t)
}

// TypeCheck computes the type of t in ctx.
func (c *Checker) TypeCheck(t kernel.Term, ctx *Context) (kernel.Term, error) {
	return c.InferType(t, ctx)
}

// InferType synthesizes the type of t.
func (c *Checker) InferType(t kernel.Term, ctx *Context) (kernel.Term, error) {
	ty, err := c.infer(t, ctx)
	if err == nil && c.logger != nil {
		c.logger.Debug("dependent: %s ⊢ %s : %s", ctx, t, ty)
	}
	return ty, err
}

// InferSort checks that t is a type and returns the level of its universe.
func (c *Checker) InferSort(t kernel.Term, ctx *Context) (int, error) {
	ty, err := c.InferType(t, ctx)
	if err != nil {
		return 0, err
	}
	w, err := c.WHNF(ty)
	if err != nil {
		return 0, err
	}
	s, ok := w.(kernel.Sort)
	if !ok {
		return 0, kerrors.NotAType(t, ty)
	}
	return s.Level, nil
}

func (c *Checker) infer(t kernel.Term, ctx *Context) (kernel.Term, error) {
	for _, ext := range c.extensions {
		ty, handled, err := ext.Infer(c, t, ctx)
		if err != nil {
			return nil, err
		}
		if handled {
			return ty, nil
		}
	}

	switch x := t.(type) {
	case kernel.Var:
		ty, ok := ctx.GetTerm(x.Name)
		if !ok {
			return nil, kerrors.UnboundVariable(x.Name)
		}
		return ty, nil

	case kernel.Const:
		if x.Name == kernel.IntType.Name {
			return kernel.Type0, nil
		}
		ty, ok := c.sig.TypeOfConst(x.Name)
		if !ok {
			return nil, kerrors.UnboundVariable(x.Name)
		}
		return ty, nil

	case kernel.Sort:
		return kernel.Sort{Level: x.Level + 1}, nil

	case kernel.Unit:
		return kernel.UnitType, nil
	case kernel.Bool:
		return kernel.BoolType, nil
	case kernel.Number:
		return kernel.NatType, nil

	case kernel.Pi:
		return c.inferBinder(x.Param, x.Domain, x.Codomain, ctx)
	case kernel.Sigma:
		return c.inferBinder(x.Param, x.First, x.Second, ctx)

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

	case kernel.Pair:
		first, err := c.InferType(x.First, ctx)
		if err != nil {
			return nil, err
		}
		second, err := c.InferType(x.Second, ctx)
		if err != nil {
			return nil, err
		}
		return kernel.Sigma{First: first, Second: second}, nil

	case kernel.Fst:
		sigma, err := c.inferSigma(x.Pair, ctx)
		if err != nil {
			return nil, err
		}
		return sigma.First, nil

	case kernel.Snd:
		sigma, err := c.inferSigma(x.Pair, ctx)
		if err != nil {
			return nil, err
		}
		if sigma.Param == "" {
			return sigma.Second, nil
		}
		return kernel.Substitute(sigma.Second, sigma.Param, kernel.Fst{Pair: x.Pair}), nil

	case kernel.Annotated:
		if _, err := c.InferSort(x.Type, ctx); err != nil {
			return nil, err
		}
		if err := c.Check(x.Expr, x.Type, ctx); err != nil {
			return nil, err
		}
		return x.Type, nil

	case kernel.Constructor:
		ty, err := c.InferType(kernel.Const{Name: x.Name}, ctx)
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

func (c *Checker) inferBinder(param string, domain, codomain kernel.Term, ctx *Context) (kernel.Term, error) {
	i, err := c.InferSort(domain, ctx)
	if err != nil {
		return nil, err
	}
	inner := ctx
	if param != "" {
		inner = ctx.AddTerm(param, domain)
	}
	j, err := c.InferSort(codomain, inner)
	if err != nil {
		return nil, err
	}
	return kernel.Sort{Level: max(i, j)}, nil
}

// applyType checks arg against the domain of fnType and returns the
// codomain instantiated with arg.
func (c *Checker) applyType(fn, fnType, arg kernel.Term, ctx *Context) (kernel.Term, error) {
	w, err := c.WHNF(fnType)
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

func (c *Checker) inferSigma(pair kernel.Term, ctx *Context) (kernel.Sigma, error) {
	ty, err := c.InferType(pair, ctx)
	if err != nil {
		return kernel.Sigma{}, err
	}
	w, err := c.WHNF(ty)
	if err != nil {
		return kernel.Sigma{}, err
	}
	sigma, ok := w.(kernel.Sigma)
	if !ok {
		return kernel.Sigma{}, kerrors.TypeMismatch(kernel.Const{Name: "a Σ-type"}, ty)
	}
	return sigma, nil
}

// Check verifies t against expected. Unannotated lambdas, pairs and
// matches without a motive take their shape from expected; every other
// term is inferred and compared up to cumulativity.
func (c *Checker) Check(t kernel.Term, expected kernel.Term, ctx *Context) error {
	switch x := t.(type) {
	case kernel.Lambda:
		if x.ParamType != nil {
			break
		}
		w, err := c.WHNF(expected)
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

	case kernel.Pair:
		w, err := c.WHNF(expected)
		if err != nil {
			return err
		}
		sigma, ok := w.(kernel.Sigma)
		if !ok {
			break
		}
		if err := c.Check(x.First, sigma.First, ctx); err != nil {
			return err
		}
		second := sigma.Second
		if sigma.Param != "" {
			second = kernel.Substitute(second, sigma.Param, x.First)
		}
		return c.Check(x.Second, second, ctx)

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

// checkMatch types a match over a declared inductive family. With a motive
// the result is the motive applied to the scrutinee's indices and to the
// scrutinee; each clause is checked against the motive applied to the
// pattern's value. Without one, the branches share expected or, when that
// is nil, the type of the first branch.
func (c *Checker) checkMatch(m kernel.Match, expected kernel.Term, ctx *Context) (kernel.Term, error) {
	scrutType, err := c.InferType(m.Scrutinee, ctx)
	if err != nil {
		return nil, err
	}
	scrutType, err = c.WHNF(scrutType)
	if err != nil {
		return nil, err
	}
	head, args := kernel.Spine(scrutType)
	family, _ := head.(kernel.Const)
	decl, ok := c.sig.Inductive(family.Name)
	if !ok || len(args) < len(decl.Params) {
		return nil, kerrors.ConstructorMismatch("a value of an inductive type", scrutType.String())
	}

	matcher := kernel.NewPatternMatcher(scrutType, m.Clauses).WithSignature(c.sig)
	if err := matcher.CheckExhaustive(c.sig); err != nil {
		return nil, err
	}

	var result kernel.Term
	if m.Motive != nil {
		indices := args[len(decl.Params):]
		applied := kernel.App(m.Motive, append(append([]kernel.Term(nil), indices...), m.Scrutinee)...)
		if _, err := c.InferSort(applied, ctx); err != nil {
			return nil, err
		}
		result, err = c.WHNF(applied)
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
