package hott

import (
	"testing"

	"github.com/orizon-lang/typekernel/internal/calculus/dependent"
	"github.com/orizon-lang/typekernel/internal/kernel"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

func newChecker(t *testing.T) *Checker {
	t.Helper()
	c, err := NewChecker()
	if err != nil {
		t.Fatalf("prelude: %v", err)
	}
	return c
}

func convertible(t *testing.T, c *Checker, got, want kernel.Term) {
	t.Helper()
	ok, err := c.Convertible(got, want)
	if !assert.NoError(t, err) {
		return
	}
	assert.True(t, ok, "expected %s to be convertible with %s", got, want)
}

// paths binds A:Type, x y z:A, p:Id_A(x, y) and q:Id_A(y, z).
func paths() *dependent.Context {
	return dependent.NewContext().
		AddTerm("A", kernel.Type0).
		AddTerm("x", v("A")).
		AddTerm("y", v("A")).
		AddTerm("z", v("A")).
		AddTerm("p", id(v("A"), v("x"), v("y"))).
		AddTerm("q", id(v("A"), v("y"), v("z")))
}

func TestIdentityTypes(t *testing.T) {
	c := newChecker(t)
	ctx := dependent.NewContext()

	tests := []struct {
		name string
		term kernel.Term
		want kernel.Term
	}{
		{"refl", kernel.Refl{Point: kernel.Number{Value: 3}}, id(kernel.NatType, kernel.Number{Value: 3}, kernel.Number{Value: 3})},
		{"identity of naturals", id(kernel.NatType, kernel.Number{Value: 1}, kernel.Number{Value: 2}), kernel.Type0},
		{"identity of types", id(kernel.Type0, kernel.NatType, kernel.BoolType), kernel.Sort{Level: 1}},
		{"loop", kernel.Const{Name: Loop}, id(kernel.Const{Name: Circle}, BasePoint, BasePoint)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.InferType(tt.term, ctx)
			if !assert.NoError(t, err) {
				return
			}
			assert.True(t, kernel.AlphaEqual(got, tt.want), "expected %s, got %s", tt.want, got)
		})
	}

	_, err := c.InferType(id(kernel.NatType, kernel.Bool{Value: true}, kernel.Number{}), ctx)
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)

	// refl 2 proves 1 + 1 = 2 by computation.
	two := kernel.Constructor{Name: "succ", Args: []kernel.Term{kernel.Constructor{Name: "succ", Args: []kernel.Term{kernel.Number{}}}}}
	assert.NoError(t, c.Check(kernel.Refl{Point: kernel.Number{Value: 2}}, id(kernel.NatType, two, kernel.Number{Value: 2}), ctx))
	assert.ErrorIs(t, c.Check(kernel.Refl{Point: kernel.Number{Value: 2}}, id(kernel.NatType, kernel.Number{Value: 1}, kernel.Number{Value: 2}), ctx),
		kerrors.ErrTypeMismatch)
}

func TestPathInduction(t *testing.T) {
	c := newChecker(t)
	ctx := paths()

	t.Run("computes on refl", func(t *testing.T) {
		motive := lam("u", v("A"), lam("w", v("A"), lam("e", id(v("A"), v("u"), v("w")), v("A"))))
		j := kernel.PathInd{Motive: motive, Base: lam("u", v("A"), v("u")), Path: kernel.Refl{Point: v("x")}}
		ty, err := c.InferType(j, ctx)
		if assert.NoError(t, err) {
			assert.True(t, kernel.AlphaEqual(ty, v("A")), "got %s", ty)
		}
		got, err := c.Normalize(j)
		assert.NoError(t, err)
		assert.True(t, kernel.AlphaEqual(got, v("x")), "got %s", got)
	})

	t.Run("stuck on a variable path", func(t *testing.T) {
		got, err := c.Normalize(Sym(v("A"), v("p")))
		if assert.NoError(t, err) {
			_, stuck := got.(kernel.PathInd)
			assert.True(t, stuck, "got %s", got)
		}
	})

	t.Run("path must be a path", func(t *testing.T) {
		j := kernel.PathInd{Motive: v("A"), Base: v("x"), Path: v("x")}
		_, err := c.InferType(j, ctx)
		assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)
	})

	t.Run("base case must match the motive", func(t *testing.T) {
		motive := lam("u", v("A"), lam("w", v("A"), lam("e", id(v("A"), v("u"), v("w")), id(v("A"), v("w"), v("u")))))
		j := kernel.PathInd{Motive: motive, Base: lam("u", v("A"), v("u")), Path: v("p")}
		_, err := c.InferType(j, ctx)
		assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)
	})

	t.Run("motive must be a type family", func(t *testing.T) {
		j := kernel.PathInd{Motive: lam("u", v("A"), v("u")), Base: lam("u", v("A"), v("u")), Path: v("p")}
		_, err := c.InferType(j, ctx)
		assert.Error(t, err)
	})
}

func TestDerivedOperations(t *testing.T) {
	c := newChecker(t)
	ctx := paths().
		AddTerm("B", kernel.Type0).
		AddTerm("f", kernel.Arrow(v("A"), v("B"))).
		AddTerm("P", kernel.Arrow(v("A"), kernel.Type0)).
		AddTerm("w", kernel.Apply{Func: v("P"), Arg: v("x")})

	tests := []struct {
		name string
		term kernel.Term
		want kernel.Term
	}{
		{"sym", Sym(v("A"), v("p")), id(v("A"), v("y"), v("x"))},
		{"trans", Trans(v("A"), v("x"), v("p"), v("q")), id(v("A"), v("x"), v("z"))},
		{"ap", Ap(v("A"), v("B"), v("f"), v("p")), id(v("B"), kernel.Apply{Func: v("f"), Arg: v("x")}, kernel.Apply{Func: v("f"), Arg: v("y")})},
		{"transport", Transport(v("A"), v("P"), v("p"), v("w")), kernel.Apply{Func: v("P"), Arg: v("y")}},
		{"sym of sym", Sym(v("A"), Sym(v("A"), v("p"))), id(v("A"), v("x"), v("y"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, c.Check(tt.term, tt.want, ctx))
		})
	}

	assert.ErrorIs(t, c.Check(Sym(v("A"), v("p")), id(v("A"), v("x"), v("y")), ctx), kerrors.ErrTypeMismatch)

	// Computation rules of the derived operations on refl.
	x := kernel.Refl{Point: v("x")}
	convertible(t, c, Sym(v("A"), x), x)
	convertible(t, c, Trans(v("A"), v("x"), v("p"), kernel.Refl{Point: v("y")}), v("p"))
	convertible(t, c, Ap(v("A"), v("B"), v("f"), x), kernel.Refl{Point: kernel.Apply{Func: v("f"), Arg: v("x")}})
	convertible(t, c, Transport(v("A"), v("P"), x, v("w")), v("w"))
}

func TestBuildersAvoidCapture(t *testing.T) {
	c := newChecker(t)
	// The function and the path are named like the binders Ap would pick.
	ctx := dependent.NewContext().
		AddTerm("u", kernel.Arrow(kernel.NatType, kernel.NatType)).
		AddTerm("x", kernel.NatType).
		AddTerm("y", kernel.NatType).
		AddTerm("e", id(kernel.NatType, v("x"), v("y")))

	term := Ap(kernel.NatType, kernel.NatType, v("u"), v("e"))
	want := id(kernel.NatType, kernel.Apply{Func: v("u"), Arg: v("x")}, kernel.Apply{Func: v("u"), Arg: v("y")})
	assert.NoError(t, c.Check(term, want, ctx))
}

func TestCircle(t *testing.T) {
	c := newChecker(t)
	ctx := dependent.NewContext()
	rec := kernel.App(kernel.Const{Name: CircleRec}, kernel.NatType, kernel.Number{}, kernel.Refl{Point: kernel.Number{}})

	ty, err := c.InferType(rec, ctx)
	if assert.NoError(t, err) {
		convertible(t, c, ty, kernel.Arrow(kernel.Const{Name: Circle}, kernel.NatType))
	}
	convertible(t, c, kernel.Apply{Func: rec, Arg: BasePoint}, kernel.Number{})

	computation := kernel.App(kernel.Const{Name: CircleLoop}, kernel.NatType, kernel.Number{}, kernel.Refl{Point: kernel.Number{}})
	want := id(
		id(kernel.NatType, kernel.Number{}, kernel.Number{}),
		Ap(kernel.Const{Name: Circle}, kernel.NatType, rec, kernel.Const{Name: Loop}),
		kernel.Refl{Point: kernel.Number{}},
	)
	assert.NoError(t, c.Check(computation, want, ctx))

	got, err := c.Normalize(kernel.Apply{Func: rec, Arg: BasePoint})
	assert.NoError(t, err)
	assert.True(t, kernel.AlphaEqual(got, kernel.Number{}), "got %s", got)

	// loop is not refl, so J on it does not compute.
	stuck, err := c.Normalize(Ap(kernel.Const{Name: Circle}, kernel.NatType, rec, kernel.Const{Name: Loop}))
	if assert.NoError(t, err) {
		_, ok := stuck.(kernel.PathInd)
		assert.True(t, ok, "got %s", stuck)
	}
}

func TestUnivalence(t *testing.T) {
	c := newChecker(t)
	not := lam("b", kernel.BoolType, kernel.Match{
		Scrutinee: v("b"),
		Clauses: []kernel.Clause{
			{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Bool{Value: false}},
			{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.Bool{Value: true}},
		},
	})
	if !assert.NoError(t, c.Define("not", kernel.Arrow(kernel.BoolType, kernel.BoolType), not)) {
		return
	}
	neg := kernel.Const{Name: "not"}
	involutive := pi("a", kernel.BoolType, id(kernel.BoolType, kernel.App(neg, kernel.App(neg, v("a"))), v("a")))
	ctx := dependent.NewContext().AddTerm("inv", involutive)

	path := kernel.App(kernel.Const{Name: Univalence}, kernel.BoolType, kernel.BoolType, neg, neg, v("inv"), v("inv"))
	assert.NoError(t, c.Check(path, id(kernel.Type0, kernel.BoolType, kernel.BoolType), ctx))

	// Transport along ua not is not.
	comp := kernel.App(kernel.Const{Name: UaComp}, kernel.BoolType, kernel.BoolType, neg, neg, v("inv"), v("inv"), kernel.Bool{Value: true})
	coerce := Transport(kernel.Type0, lam("X", kernel.Type0, v("X")), path, kernel.Bool{Value: true})
	assert.NoError(t, c.Check(comp, id(kernel.BoolType, coerce, kernel.Bool{Value: false}), ctx))

	// ua needs both round trips.
	_, err := c.InferType(kernel.App(kernel.Const{Name: Univalence}, kernel.BoolType, kernel.NatType, neg, neg), ctx)
	assert.ErrorIs(t, err, kerrors.ErrTypeMismatch)
}

func TestFunctionExtensionality(t *testing.T) {
	c := newChecker(t)
	arrow := kernel.Arrow(kernel.NatType, kernel.NatType)
	ctx := dependent.NewContext().
		AddTerm("f", arrow).
		AddTerm("g", arrow).
		AddTerm("h", pi("n", kernel.NatType, id(kernel.NatType, kernel.App(v("f"), v("n")), kernel.App(v("g"), v("n")))))

	constant := lam("_", kernel.NatType, kernel.NatType)
	proof := kernel.App(kernel.Const{Name: Funext}, kernel.NatType, constant, v("f"), v("g"), v("h"))
	assert.NoError(t, c.Check(proof, id(arrow, v("f"), v("g")), ctx))
	assert.ErrorIs(t, c.Check(proof, id(arrow, v("g"), v("f")), ctx), kerrors.ErrTypeMismatch)
}

func TestPreludeOnCustomSignature(t *testing.T) {
	sig := kernel.BuiltinSignature()
	if _, err := NewCheckerWithSignature(sig); !assert.NoError(t, err) {
		return
	}
	_, ok := sig.Inductive(Circle)
	assert.True(t, ok)

	// Declaring the prelude twice collides.
	_, err := NewCheckerWithSignature(sig)
	assert.ErrorIs(t, err, kerrors.ErrDuplicateDeclaration)
}
