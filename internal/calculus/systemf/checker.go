package systemf

import (
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Context binds term variables to types and records type variables in scope.
type Context = kernel.Context[Type]

// NewContext returns the empty context.
func NewContext() *Context {
	return kernel.NewContext[Type]()
}

// Checker type-checks System F terms.
type Checker struct {
	sig     *kernel.Signature
	reducer *kernel.Reduction
	logger  kernel.Logger
}

var _ kernel.TypeChecker[Type] = (*Checker)(nil)

// NewChecker creates a checker over the builtin data types.
func NewChecker() *Checker {
	sig := kernel.BuiltinSignature()
	return &Checker{
		sig:     sig,
		reducer: kernel.NewReduction(0).WithSignature(sig),
	}
}

// SetLogger enables tracing of every inferred judgement.
func (c *Checker) SetLogger(l kernel.Logger) {
	c.logger = l
}

// SetReductionSteps bounds Reduce.
func (c *Checker) SetReductionSteps(n int) {
	c.reducer = kernel.NewReduction(n).WithSignature(c.sig)
}

// TypeCheck computes the type of t in ctx.
func (c *Checker) TypeCheck(t kernel.Term, ctx *Context) (Type, error) {
	return c.InferType(t, ctx)
}

// Check verifies that t has the expected type, up to renaming of bound
// type variables.
func (c *Checker) Check(t kernel.Term, expected Type, ctx *Context) error {
	got, err := c.InferType(t, ctx)
	if err != nil {
		return err
	}
	if !Equal(got, expected) {
		return kerrors.TypeMismatch(expected, got)
	}
	return nil
}

// Reduce evaluates t, including type applications of type abstractions.
func (c *Checker) Reduce(t kernel.Term) (kernel.Term, error) {
	return c.reducer.Normalize(t)
}

// InferType synthesizes the type of t.
func (c *Checker) InferType(t kernel.Term, ctx *Context) (Type, error) {
	ty, err := c.infer(t, ctx)
	if err == nil && c.logger != nil {
		c.logger.Debug("systemf: %s ⊢ %s : %s", ctx, t, ty)
	}
	return ty, err
}

func (c *Checker) infer(t kernel.Term, ctx *Context) (Type, error) {
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
		return Unit, nil
	case kernel.Bool:
		return Bool, nil
	case kernel.Number:
		return Nat, nil

	case kernel.Lambda:
		if x.ParamType == nil {
			return nil, kerrors.UnsupportedTerm("System F", t)
		}
		paramType, err := c.ReadType(x.ParamType, ctx)
		if err != nil {
			return nil, err
		}
		body, err := c.InferType(x.Body, ctx.AddTerm(x.Param, paramType))
		if err != nil {
			return nil, err
		}
		return Arrow{From: paramType, To: body}, nil

	case kernel.Apply:
		fn, err := c.InferType(x.Func, ctx)
		if err != nil {
			return nil, err
		}
		arrow, ok := fn.(Arrow)
		if !ok {
			return nil, kerrors.InvalidApplication(x.Func, fn)
		}
		if err := c.Check(x.Arg, arrow.From, ctx); err != nil {
			return nil, err
		}
		return arrow.To, nil

	case kernel.TypeLambda:
		param, body := x.Param, x.Body
		if ctx.HasTypeVar(param) {
			// Keep the new variable distinct from the one already in scope.
			avoid := ctx.Names()
			avoid.InsertSet(kernel.FreeVars(body))
			fresh := kernel.FreshName(param, avoid)
			body = kernel.Rename(body, param, fresh)
			param = fresh
		}
		bodyType, err := c.InferType(body, ctx.AddTypeVar(param))
		if err != nil {
			return nil, err
		}
		return Forall{Param: param, Body: bodyType}, nil

	case kernel.TypeApply:
		fn, err := c.InferType(x.Func, ctx)
		if err != nil {
			return nil, err
		}
		forall, ok := fn.(Forall)
		if !ok {
			return nil, kerrors.InvalidTypeApplication(x.Func, fn)
		}
		arg, err := c.ReadType(x.TypeArg, ctx)
		if err != nil {
			return nil, err
		}
		return Instantiate(forall, arg)

	case kernel.Annotated:
		want, err := c.ReadType(x.Type, ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Check(x.Expr, want, ctx); err != nil {
			return nil, err
		}
		return want, nil

	case kernel.Constructor:
		ty, err := c.constType(x.Name)
		if err != nil {
			return nil, err
		}
		for _, arg := range x.Args {
			arrow, ok := ty.(Arrow)
			if !ok {
				return nil, kerrors.InvalidApplication(kernel.Const{Name: x.Name}, ty)
			}
			if err := c.Check(arg, arrow.From, ctx); err != nil {
				return nil, err
			}
			ty = arrow.To
		}
		return ty, nil

	case kernel.Match:
		return c.inferMatch(x, ctx)

	default:
		return nil, kerrors.UnsupportedTerm("System F", t)
	}
}

func (c *Checker) constType(name string) (Type, error) {
	info, ok := c.sig.Constructor(name)
	if !ok {
		return nil, kerrors.UnboundVariable(name)
	}
	return FromTerm(info.FullType())
}

// ReadType decodes a type annotation and checks that every type variable
// is in scope and every base type exists.
func (c *Checker) ReadType(t kernel.Term, ctx *Context) (Type, error) {
	ty, err := FromTerm(t)
	if err != nil {
		return nil, err
	}
	if err := c.wellFormed(ty, ctx, nil); err != nil {
		return nil, err
	}
	return ty, nil
}

func (c *Checker) wellFormed(t Type, ctx *Context, bound []string) error {
	switch x := t.(type) {
	case TVar:
		for _, b := range bound {
			if b == x.Name {
				return nil
			}
		}
		if !ctx.HasTypeVar(x.Name) {
			return kerrors.UnboundTypeVariable(x.Name)
		}
		return nil
	case Base:
		if x.Name == Int.Name {
			return nil
		}
		if _, ok := c.sig.Inductive(x.Name); !ok {
			return kerrors.UnboundTypeVariable(x.Name)
		}
		return nil
	case Arrow:
		if err := c.wellFormed(x.From, ctx, bound); err != nil {
			return err
		}
		return c.wellFormed(x.To, ctx, bound)
	case Forall:
		return c.wellFormed(x.Body, ctx, append(bound[:len(bound):len(bound)], x.Param))
	default:
		return nil
	}
}

func (c *Checker) inferMatch(m kernel.Match, ctx *Context) (Type, error) {
	scrutinee, err := c.InferType(m.Scrutinee, ctx)
	if err != nil {
		return nil, err
	}
	base, ok := scrutinee.(Base)
	if !ok {
		return nil, kerrors.ConstructorMismatch("a value of a data type", scrutinee.String())
	}

	matcher := kernel.NewPatternMatcher(ToTerm(base), m.Clauses).WithSignature(c.sig)
	if err := matcher.CheckExhaustive(c.sig); err != nil {
		return nil, err
	}

	var result Type
	for _, clause := range m.Clauses {
		typing, err := c.sig.TypePattern(clause.Pattern, ToTerm(base))
		if err != nil {
			return nil, err
		}
		inner := ctx
		for _, b := range typing.Bindings {
			ty, err := FromTerm(b.Type)
			if err != nil {
				return nil, err
			}
			inner = inner.AddTerm(b.Name, ty)
		}
		body, err := c.InferType(clause.Body, inner)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = body
		} else if !Equal(result, body) {
			return nil, kerrors.TypeMismatch(result, body)
		}
	}
	if result == nil {
		return nil, kerrors.NonExhaustive(base.Name, kernel.WildcardPattern{})
	}
	return result, nil
}
