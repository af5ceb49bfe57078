package stlc

import (
	"testing"

	"github.com/orizon-lang/typekernel/internal/kernel"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

func identityBool() kernel.Term {
	return kernel.Lambda{Param: "x", ParamType: kernel.BoolType, Body: kernel.Var{Name: "x"}}
}

func notMatch(scrutinee kernel.Term) kernel.Term {
	return kernel.Match{
		Scrutinee: scrutinee,
		Clauses: []kernel.Clause{
			{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Bool{Value: false}},
			{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.Bool{Value: true}},
		},
	}
}

func TestTypeCheck(t *testing.T) {
	checker := NewChecker()
	ctx := NewContext().AddTerm("b", Bool).AddTerm("f", Func(Nat, Nat))

	tests := []struct {
		name string
		term kernel.Term
		want Type
	}{
		{"identity on Bool", identityBool(), Arrow{From: Bool, To: Bool}},
		{"application", kernel.Apply{Func: identityBool(), Arg: kernel.Bool{Value: true}}, Bool},
		{"negation by match", notMatch(kernel.Var{Name: "b"}), Bool},
		{"unit literal", kernel.Unit{}, Unit},
		{"numeral", kernel.Number{Value: 3}, Nat},
		{"successor", kernel.App(kernel.Const{Name: "succ"}, kernel.Number{Value: 1}), Nat},
		{"constructor term", kernel.Constructor{Name: "succ", Args: []kernel.Term{kernel.Number{Value: 0}}}, Nat},
		{"context function", kernel.App(kernel.Var{Name: "f"}, kernel.Number{Value: 2}), Nat},
		{"annotation", kernel.Annotated{Expr: kernel.Var{Name: "b"}, Type: kernel.BoolType}, Bool},
		{
			"curried",
			kernel.Lambda{Param: "x", ParamType: kernel.NatType, Body: kernel.Lambda{
				Param: "y", ParamType: kernel.BoolType, Body: kernel.Var{Name: "x"},
			}},
			Func(Nat, Nat, Bool),
		},
		{
			"nat recursion shape",
			kernel.Match{
				Scrutinee: kernel.Number{Value: 2},
				Clauses: []kernel.Clause{
					{Pattern: kernel.ConstructorPattern{Name: "zero"}, Body: kernel.Number{Value: 0}},
					{Pattern: kernel.ConstructorPattern{Name: "succ", Args: []kernel.Pattern{kernel.VarPattern{Name: "n"}}}, Body: kernel.Var{Name: "n"}},
				},
			},
			Nat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checker.TypeCheck(tt.term, ctx)
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, Equal(got, tt.want), "expected %s, got %s", tt.want, got)
		})
	}
}

func TestTypeCheckErrors(t *testing.T) {
	checker := NewChecker()
	ctx := NewContext().AddTerm("b", Bool)

	tests := []struct {
		name string
		term kernel.Term
		want error
	}{
		{"unbound", kernel.Var{Name: "y"}, kerrors.ErrUnboundVariable},
		{"apply non-function", kernel.Apply{Func: kernel.Var{Name: "b"}, Arg: kernel.Unit{}}, kerrors.ErrInvalidApplication},
		{"argument mismatch", kernel.Apply{Func: identityBool(), Arg: kernel.Unit{}}, kerrors.ErrTypeMismatch},
		{"annotation mismatch", kernel.Annotated{Expr: kernel.Unit{}, Type: kernel.BoolType}, kerrors.ErrTypeMismatch},
		{"unknown base type", kernel.Lambda{Param: "x", ParamType: kernel.Const{Name: "Foo"}, Body: kernel.Var{Name: "x"}}, kerrors.ErrUnboundTypeVariable},
		{"untyped lambda", kernel.Lambda{Param: "x", Body: kernel.Var{Name: "x"}}, kerrors.ErrUnsupportedTerm},
		{"type abstraction", kernel.TypeLambda{Param: "a", Body: kernel.Unit{}}, kerrors.ErrUnsupportedTerm},
		{
			"missing clause",
			kernel.Match{Scrutinee: kernel.Var{Name: "b"}, Clauses: []kernel.Clause{
				{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Unit{}},
			}},
			kerrors.ErrNonExhaustive,
		},
		{
			"branches disagree",
			kernel.Match{Scrutinee: kernel.Var{Name: "b"}, Clauses: []kernel.Clause{
				{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Unit{}},
				{Pattern: kernel.WildcardPattern{}, Body: kernel.Number{Value: 1}},
			}},
			kerrors.ErrTypeMismatch,
		},
		{
			"wrong constructor family",
			kernel.Match{Scrutinee: kernel.Var{Name: "b"}, Clauses: []kernel.Clause{
				{Pattern: kernel.ConstructorPattern{Name: "zero"}, Body: kernel.Unit{}},
				{Pattern: kernel.WildcardPattern{}, Body: kernel.Unit{}},
			}},
			kerrors.ErrConstructorMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := checker.TypeCheck(tt.term, ctx)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestReduceBeta(t *testing.T) {
	checker := NewChecker()
	term := kernel.Apply{Func: identityBool(), Arg: kernel.Bool{Value: true}}

	ty, err := checker.TypeCheck(term, NewContext())
	assert.NoError(t, err)
	assert.True(t, Equal(ty, Bool))

	got, err := checker.Reduce(term)
	assert.NoError(t, err)
	assert.True(t, kernel.AlphaEqual(got, kernel.Bool{Value: true}), "expected true, got %s", got)

	got, err = checker.Reduce(notMatch(got))
	assert.NoError(t, err)
	assert.True(t, kernel.AlphaEqual(got, kernel.Bool{Value: false}), "expected false, got %s", got)
}

func TestContextIsolation(t *testing.T) {
	checker := NewChecker()
	ctx := NewContext()

	// Sibling lambdas bind the same name at different types.
	term := kernel.Apply{
		Func: kernel.Lambda{Param: "x", ParamType: kernel.Arrow(kernel.NatType, kernel.NatType), Body: kernel.Var{Name: "x"}},
		Arg:  kernel.Lambda{Param: "x", ParamType: kernel.NatType, Body: kernel.Var{Name: "x"}},
	}
	got, err := checker.TypeCheck(term, ctx)
	assert.NoError(t, err)
	assert.True(t, Equal(got, Func(Nat, Nat)))
	assert.Equal(t, ctx.Len(), 0)
}

func TestDeterminism(t *testing.T) {
	checker := NewChecker()
	ctx := NewContext().AddTerm("b", Bool)
	terms := []kernel.Term{
		notMatch(kernel.Var{Name: "b"}),
		kernel.Apply{Func: kernel.Var{Name: "b"}, Arg: kernel.Unit{}},
	}
	for _, term := range terms {
		first, err1 := checker.TypeCheck(term, ctx)
		second, err2 := checker.TypeCheck(term, ctx)
		if err1 != nil || err2 != nil {
			assert.Equal(t, err1.Error(), err2.Error())
			continue
		}
		assert.True(t, Equal(first, second))
	}
}

func TestFromTerm(t *testing.T) {
	ty, err := FromTerm(kernel.Arrows(kernel.BoolType, kernel.NatType, kernel.UnitType))
	assert.NoError(t, err)
	assert.Equal(t, ty.String(), "Nat → Unit → Bool")

	_, err = FromTerm(kernel.Pi{Param: "x", Domain: kernel.NatType, Codomain: kernel.Var{Name: "x"}})
	assert.ErrorIs(t, err, kerrors.ErrNotAType)

	back := ToTerm(Func(Bool, Func(Nat, Nat)))
	assert.Equal(t, back.String(), "(Nat → Nat) → Bool")
}
