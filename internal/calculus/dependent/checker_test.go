package dependent

import (
	"testing"

	"github.com/orizon-lang/typekernel/internal/kernel"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

func v(name string) kernel.Term { return kernel.Var{Name: name} }

// polyID is λA:Type. λx:A. x.
func polyID() kernel.Term {
	return kernel.Lambda{Param: "A", ParamType: kernel.Type0, Body: kernel.Lambda{
		Param: "x", ParamType: v("A"), Body: v("x"),
	}}
}

func convertible(t *testing.T, c *Checker, got, want kernel.Term) {
	t.Helper()
	ok, err := c.Convertible(got, want)
	if assert.NoError(t, err) {
		assert.True(t, ok, "expected %s, got %s", want, got)
	}
}

func TestInferType(t *testing.T) {
	checker := NewChecker()

	tests := []struct {
		name string
		term kernel.Term
		want kernel.Term
	}{
		{"universe", kernel.Type0, kernel.Sort{Level: 1}},
		{"base type", kernel.NatType, kernel.Type0},
		{"dependent function type", kernel.Pi{Param: "A", Domain: kernel.Type0, Codomain: kernel.Arrow(v("A"), v("A"))}, kernel.Sort{Level: 1}},
		{"polymorphic identity", polyID(), kernel.Pi{Param: "A", Domain: kernel.Type0, Codomain: kernel.Pi{Param: "x", Domain: v("A"), Codomain: v("A")}}},
		{"instantiated identity", kernel.App(polyID(), kernel.NatType, kernel.Number{Value: 3}), kernel.NatType},
		{"pair", kernel.Pair{First: kernel.Number{Value: 1}, Second: kernel.Bool{Value: true}}, kernel.Sigma{First: kernel.NatType, Second: kernel.BoolType}},
		{"first projection", kernel.Fst{Pair: kernel.Pair{First: kernel.Unit{}, Second: kernel.Number{}}}, kernel.UnitType},
		{"constructor", kernel.Constructor{Name: "succ", Args: []kernel.Term{kernel.Number{Value: 1}}}, kernel.NatType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.InferType(tt.term, NewContext())
			if !assert.NoError(t, err) {
				return
			}
			convertible(t, checker, got, tt.want)
		})
	}
}

func TestBidirectionalChecking(t *testing.T) {
	checker := NewChecker()
	ctx := NewContext()

	// λx. x checked against Nat → Nat
	assert.NoError(t, checker.Check(kernel.Lambda{Param: "x", Body: v("x")}, kernel.Arrow(kernel.NatType, kernel.NatType), ctx))

	// λA. λx. x checked against Π(B:Type). B → B renames the bound variable.
	poly := kernel.Pi{Param: "B", Domain: kernel.Type0, Codomain: kernel.Arrow(v("B"), v("B"))}
	assert.NoError(t, checker.Check(kernel.Lambda{Param: "A", Body: kernel.Lambda{Param: "x", Body: v("x")}}, poly, ctx))

	// (Nat, 3) : Σ(A:Type). A
	exists := kernel.Sigma{Param: "A", First: kernel.Type0, Second: v("A")}
	witness := kernel.Pair{First: kernel.NatType, Second: kernel.Number{Value: 3}}
	assert.NoError(t, checker.Check(witness, exists, ctx))

	// snd of the annotated pair has type fst of the pair, which is Nat.
	snd, err := checker.InferType(kernel.Snd{Pair: kernel.Annotated{Expr: witness, Type: exists}}, ctx)
	if assert.NoError(t, err) {
		convertible(t, checker, snd, kernel.NatType)
	}

	err = checker.Check(kernel.Pair{First: kernel.NatType, Second: kernel.Bool{Value: true}}, exists, ctx)
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)

	err = checker.Check(kernel.Lambda{Param: "x", Body: v("x")}, kernel.NatType, ctx)
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)
}

func TestCumulativity(t *testing.T) {
	checker := NewChecker()

	assert.NoError(t, checker.Check(kernel.NatType, kernel.Sort{Level: 2}, NewContext()))
	assert.NoError(t, checker.Check(polyID(), kernel.Pi{Param: "A", Domain: kernel.Type0, Codomain: kernel.Arrow(v("A"), v("A"))}, NewContext()))

	err := checker.Check(kernel.Sort{Level: 1}, kernel.Sort{Level: 1}, NewContext())
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)

	ok, err := checker.Subtype(kernel.Arrow(kernel.NatType, kernel.Type0), kernel.Arrow(kernel.NatType, kernel.Sort{Level: 3}))
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.Subtype(kernel.Arrow(kernel.Type0, kernel.NatType), kernel.Arrow(kernel.Sort{Level: 1}, kernel.NatType))
	assert.NoError(t, err)
	assert.False(t, ok, "domains are compared by conversion")
}

func TestDefinitionsUnfold(t *testing.T) {
	checker := NewChecker()
	assert.NoError(t, checker.Define("N", kernel.Type0, kernel.NatType))
	assert.NoError(t, checker.Define("two", kernel.Const{Name: "N"}, kernel.Number{Value: 2}))

	assert.NoError(t, checker.Check(kernel.Number{Value: 5}, kernel.Const{Name: "N"}, NewContext()))
	convertible(t, checker, kernel.Const{Name: "two"}, kernel.Constructor{Name: "succ", Args: []kernel.Term{
		kernel.Apply{Func: kernel.Const{Name: "succ"}, Arg: kernel.Const{Name: "zero"}},
	}})

	err := checker.Define("bad", kernel.BoolType, kernel.Number{Value: 1})
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)
	err = checker.Define("N", kernel.Type0, kernel.BoolType)
	assert.ErrorIs(t, err, kerrors.ErrDuplicateDeclaration)
	err = checker.Axiom("notAType", kernel.Number{Value: 1})
	assert.ErrorIs(t, err, kerrors.ErrNotAType)
}

func TestDependentMatch(t *testing.T) {
	checker := NewChecker()
	// P = λb:Bool. match b { true => Nat | false => Bool }
	motive := kernel.Lambda{Param: "b", ParamType: kernel.BoolType, Body: kernel.Match{
		Scrutinee: v("b"),
		Clauses: []kernel.Clause{
			{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.NatType},
			{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.BoolType},
		},
	}}
	// λb:Bool. match b return P { true => 3 | false => false }
	fn := kernel.Lambda{Param: "b", ParamType: kernel.BoolType, Body: kernel.Match{
		Scrutinee: v("b"),
		Motive:    motive,
		Clauses: []kernel.Clause{
			{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Number{Value: 3}},
			{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.Bool{Value: false}},
		},
	}}

	ty, err := checker.InferType(kernel.Apply{Func: fn, Arg: kernel.Bool{Value: true}}, NewContext())
	if assert.NoError(t, err) {
		convertible(t, checker, ty, kernel.NatType)
	}
	ty, err = checker.InferType(kernel.Apply{Func: fn, Arg: kernel.Bool{Value: false}}, NewContext())
	if assert.NoError(t, err) {
		convertible(t, checker, ty, kernel.BoolType)
	}

	swapped := fn
	body := swapped.Body.(kernel.Match)
	body.Clauses = []kernel.Clause{body.Clauses[1], body.Clauses[0]}
	body.Clauses[0].Pattern, body.Clauses[1].Pattern = kernel.ConstructorPattern{Name: "true"}, kernel.ConstructorPattern{Name: "false"}
	swapped.Body = body
	_, err = checker.InferType(swapped, NewContext())
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)
}

func TestNonDependentMatch(t *testing.T) {
	checker := NewChecker()
	// Scenario: match b { true => false | false => true } : Bool
	not := kernel.Match{Scrutinee: v("b"), Clauses: []kernel.Clause{
		{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Bool{Value: false}},
		{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.Bool{Value: true}},
	}}
	ctx := NewContext().AddTerm("b", kernel.BoolType)

	ty, err := checker.InferType(not, ctx)
	if assert.NoError(t, err) {
		convertible(t, checker, ty, kernel.BoolType)
	}

	// Branches agree only through the expected type of an unannotated lambda.
	pred := kernel.Match{Scrutinee: v("n"), Clauses: []kernel.Clause{
		{Pattern: kernel.ConstructorPattern{Name: "zero"}, Body: kernel.Lambda{Param: "x", Body: v("x")}},
		{Pattern: kernel.ConstructorPattern{Name: "succ", Args: []kernel.Pattern{kernel.VarPattern{Name: "k"}}}, Body: kernel.Lambda{Param: "x", Body: v("k")}},
	}}
	err = checker.Check(pred, kernel.Arrow(kernel.NatType, kernel.NatType), NewContext().AddTerm("n", kernel.NatType))
	assert.NoError(t, err)

	partial := kernel.Match{Scrutinee: v("b"), Clauses: not.Clauses[:1]}
	_, err = checker.InferType(partial, ctx)
	assert.ErrorIs(t, err, kerrors.ErrNonExhaustive)
}

func TestInductiveFamily(t *testing.T) {
	checker := NewChecker()
	vec := func(a, n kernel.Term) kernel.Term { return kernel.App(kernel.Const{Name: "Vec"}, a, n) }
	succ := func(n kernel.Term) kernel.Term { return kernel.Constructor{Name: "succ", Args: []kernel.Term{n}} }

	err := checker.DeclareInductive(kernel.InductiveDecl{
		Name:   "Vec",
		Params: []kernel.Param{{Name: "A", Type: kernel.Type0}},
		Arity:  kernel.Arrow(kernel.NatType, kernel.Type0),
		Constructors: []kernel.ConstructorDecl{
			{Name: "vnil", Type: vec(v("A"), kernel.Number{})},
			{Name: "vcons", Type: kernel.Pi{Param: "n", Domain: kernel.NatType, Codomain: kernel.Arrows(vec(v("A"), succ(v("n"))), v("A"), vec(v("A"), v("n")))}},
		},
	})
	if !assert.NoError(t, err) {
		return
	}

	one := kernel.Constructor{Name: "vcons", Args: []kernel.Term{
		kernel.NatType, kernel.Number{}, kernel.Number{Value: 7}, kernel.Constructor{Name: "vnil", Args: []kernel.Term{kernel.NatType}},
	}}
	ty, err := checker.InferType(one, NewContext())
	if assert.NoError(t, err) {
		convertible(t, checker, ty, vec(kernel.NatType, kernel.Number{Value: 1}))
	}

	wrongLength := kernel.Constructor{Name: "vcons", Args: []kernel.Term{
		kernel.NatType, kernel.Number{Value: 1}, kernel.Number{Value: 7}, kernel.Constructor{Name: "vnil", Args: []kernel.Term{kernel.NatType}},
	}}
	_, err = checker.InferType(wrongLength, NewContext())
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)

	err = checker.DeclareInductive(kernel.InductiveDecl{
		Name:         "Bad",
		Arity:        kernel.Type0,
		Constructors: []kernel.ConstructorDecl{{Name: "mk", Type: kernel.Arrow(kernel.Arrow(kernel.Const{Name: "Bad"}, kernel.NatType), kernel.Const{Name: "Bad"})}},
	})
	assert.ErrorIs(t, err, kerrors.ErrIllFormedInductive)
}

func TestUnificationVariables(t *testing.T) {
	checker := NewChecker()

	assert.NoError(t, checker.Check(kernel.Number{Value: 3}, v("?T"), NewContext()))
	assert.NoError(t, checker.Check(polyID(), kernel.Pi{Param: "A", Domain: kernel.Type0, Codomain: kernel.Arrow(v("?D"), v("A"))}, NewContext()))

	// ?F a ≟ g (h a) has no first-order solution.
	a, g, h := kernel.Const{Name: "a"}, kernel.Const{Name: "g"}, kernel.Const{Name: "h"}
	lhs := kernel.Apply{Func: v("?F"), Arg: a}
	rhs := kernel.Apply{Func: g, Arg: kernel.Apply{Func: h, Arg: a}}
	subst, err := checker.Solve(lhs, rhs)
	if !assert.NoError(t, err) {
		return
	}
	left, err := checker.Normalize(subst.Apply(lhs))
	assert.NoError(t, err)
	assert.True(t, kernel.AlphaEqual(left, rhs), "solution %s does not solve the constraint", subst)

	_, err = checker.Solve(v("?X"), kernel.Apply{Func: g, Arg: v("?X")})
	assert.ErrorIs(t, err, kerrors.ErrOccursCheckFailed)
}

func TestExtension(t *testing.T) {
	checker := NewChecker()
	checker.AddExtension(ExtensionFunc(func(c *Checker, term kernel.Term, ctx *Context) (kernel.Term, bool, error) {
		if k, ok := term.(kernel.Const); ok && k.Name == "answer" {
			return kernel.NatType, true, nil
		}
		return nil, false, nil
	}))

	ty, err := checker.InferType(kernel.Apply{Func: kernel.Lambda{Param: "x", ParamType: kernel.NatType, Body: v("x")}, Arg: kernel.Const{Name: "answer"}}, NewContext())
	if assert.NoError(t, err) {
		convertible(t, checker, ty, kernel.NatType)
	}

	_, err = checker.InferType(kernel.Refl{Point: kernel.Number{}}, NewContext())
	assert.ErrorIs(t, err, kerrors.ErrUnsupportedTerm)
}

func TestTypeErrors(t *testing.T) {
	checker := NewChecker()
	ctx := NewContext().AddTerm("n", kernel.NatType)

	tests := []struct {
		name string
		term kernel.Term
		want error
	}{
		{"unbound", v("m"), kerrors.ErrUnboundVariable},
		{"apply a number", kernel.Apply{Func: v("n"), Arg: v("n")}, kerrors.ErrInvalidApplication},
		{"domain is not a type", kernel.Lambda{Param: "x", ParamType: v("n"), Body: v("x")}, kerrors.ErrNotAType},
		{"project a number", kernel.Fst{Pair: v("n")}, kerrors.ErrTypeMismatch},
		{"unannotated lambda", kernel.Lambda{Param: "x", Body: v("x")}, kerrors.ErrUnsupportedTerm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checker.InferType(tt.term, ctx)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckingIsDeterministic(t *testing.T) {
	checker := NewChecker()
	term := kernel.App(polyID(), kernel.BoolType, kernel.Bool{Value: true})
	first, err1 := checker.InferType(term, NewContext())
	second, err2 := checker.InferType(term, NewContext())
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.True(t, kernel.AlphaEqual(first, second))
}

func TestBinderCapture(t *testing.T) {
	checker := NewChecker()
	pi := func(param string, domain, codomain kernel.Term) kernel.Term {
		return kernel.Pi{Param: param, Domain: domain, Codomain: codomain}
	}
	swapped := pi("a", kernel.Type0, pi("b", kernel.Type0, kernel.Arrow(v("b"), v("a"))))
	shadowing := kernel.Lambda{Param: "x", Body: kernel.Lambda{Param: "x", Body: kernel.Lambda{Param: "h", Body: v("h")}}}

	t.Run("shadowed lambda does not capture the outer parameter", func(t *testing.T) {
		assert.ErrorIs(t, checker.Check(shadowing, swapped, NewContext()), kerrors.ErrTypeMismatch)
		assert.ErrorIs(t, checker.Define("bad", swapped, shadowing), kerrors.ErrTypeMismatch)
	})

	t.Run("shadowed lambda still checks against its own type", func(t *testing.T) {
		own := pi("a", kernel.Type0, pi("b", kernel.Type0, kernel.Arrow(v("b"), v("b"))))
		assert.NoError(t, checker.Check(shadowing, own, NewContext()))
	})

	t.Run("parameter named after a variable in scope", func(t *testing.T) {
		ctx := NewContext().AddTerm("x", kernel.NatType)
		fn := kernel.Lambda{Param: "x", Body: v("x")}
		assert.NoError(t, checker.Check(fn, kernel.Arrow(kernel.BoolType, kernel.BoolType), ctx))
		assert.ErrorIs(t, checker.Check(fn, kernel.Arrow(kernel.BoolType, kernel.NatType), ctx), kerrors.ErrTypeMismatch)
	})

	tests := []struct {
		name string
		a, b kernel.Term
		want bool
	}{
		{"free variable is not captured by the bound one", pi("a", kernel.Type0, kernel.Arrow(v("a"), v("a"))), pi("b", kernel.Type0, kernel.Arrow(v("b"), v("a"))), false},
		{"renamed binder", pi("a", kernel.Type0, kernel.Arrow(v("a"), v("a"))), pi("b", kernel.Type0, kernel.Arrow(v("b"), v("b"))), true},
		{"codomain widens", pi("a", kernel.Type0, kernel.Type0), pi("b", kernel.Type0, kernel.Sort{Level: 1}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.Subtype(tt.a, tt.b)
			if assert.NoError(t, err) {
				assert.Equal(t, got, tt.want)
			}
		})
	}
}

func TestMotiveMustFitScrutinee(t *testing.T) {
	checker := NewChecker()
	clauses := []kernel.Clause{
		{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Bool{Value: true}},
		{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.Bool{Value: false}},
	}

	tests := []struct {
		name   string
		motive kernel.Term
		want   error
	}{
		{"motive over the scrutinee type", kernel.Lambda{Param: "b", ParamType: kernel.BoolType, Body: kernel.BoolType}, nil},
		{"motive over another type", kernel.Lambda{Param: "n", ParamType: kernel.NatType, Body: kernel.BoolType}, kerrors.ErrTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := kernel.Match{Scrutinee: kernel.Bool{Value: true}, Motive: tt.motive, Clauses: clauses}
			ty, err := checker.InferType(m, NewContext())
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			if assert.NoError(t, err) {
				convertible(t, checker, ty, kernel.BoolType)
			}
		})
	}
}
