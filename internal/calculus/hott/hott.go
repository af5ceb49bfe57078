// Package hott extends the dependent calculus with identity types and the
// univalent prelude: path induction, univalence, function extensionality
// and the circle.
//
// Identity types are intensional. Path induction J(C, d, p) computes only
// on refl, so J(C, d, refl a) reduces to d a; every other path, loop and
// the paths produced by ua and funext, is opaque.
package hott

import (
	"github.com/orizon-lang/typekernel/internal/calculus/dependent"
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Names of the prelude constants.
const (
	Circle     = "S1"
	Base       = "base"
	Loop       = "loop"
	CircleRec  = "S1_rec"
	CircleLoop = "S1_rec_loop"
	Univalence = "ua"
	UaComp     = "ua_comp"
	Funext     = "funext"
)

// Checker is a dependent checker with identity types and the prelude
// declared in its signature.
type Checker struct {
	*dependent.Checker
}

// NewChecker returns a checker over the builtin signature extended with
// the prelude.
func NewChecker() (*Checker, error) {
	return NewCheckerWithSignature(kernel.BuiltinSignature())
}

// NewCheckerWithSignature declares the prelude in sig and returns a checker
// over it.
func NewCheckerWithSignature(sig *kernel.Signature) (*Checker, error) {
	c := &Checker{Checker: dependent.NewCheckerWithSignature(sig)}
	c.AddExtension(Identity{})
	if err := c.declarePrelude(); err != nil {
		return nil, err
	}
	return c, nil
}

// Identity types identity types, refl and path induction.
type Identity struct{}

var _ dependent.Extension = Identity{}

// Infer implements dependent.Extension.
func (Identity) Infer(c *dependent.Checker, t kernel.Term, ctx *dependent.Context) (kernel.Term, bool, error) {
	switch x := t.(type) {
	case kernel.IdType:
		ty, err := inferIdType(c, x, ctx)
		return ty, true, err
	case kernel.Refl:
		a, err := c.InferType(x.Point, ctx)
		if err != nil {
			return nil, true, err
		}
		return kernel.IdType{Type: a, Left: x.Point, Right: x.Point}, true, nil
	case kernel.PathInd:
		ty, err := inferPathInd(c, x, ctx)
		return ty, true, err
	}
	return nil, false, nil
}

func inferIdType(c *dependent.Checker, id kernel.IdType, ctx *dependent.Context) (kernel.Term, error) {
	level, err := c.InferSort(id.Type, ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Check(id.Left, id.Type, ctx); err != nil {
		return nil, err
	}
	if err := c.Check(id.Right, id.Type, ctx); err != nil {
		return nil, err
	}
	return kernel.Sort{Level: level}, nil
}

// inferPathInd types J(C, d, p). With p : Id_A(x, y) the motive C must be
// a family of types over x:A, y:A and Id_A(x, y), the base case d must have
// type Π(a:A). C a a (refl a), and the result is C x y p.
func inferPathInd(c *dependent.Checker, j kernel.PathInd, ctx *dependent.Context) (kernel.Term, error) {
	pty, err := c.InferType(j.Path, ctx)
	if err != nil {
		return nil, err
	}
	w, err := c.WHNF(pty)
	if err != nil {
		return nil, err
	}
	id, ok := w.(kernel.IdType)
	if !ok {
		return nil, kerrors.TypeMismatch(kernel.Const{Name: "an identity type"}, pty)
	}

	avoid := ctx.Names()
	for _, t := range []kernel.Term{j.Motive, j.Base, id.Type} {
		avoid.InsertSet(kernel.FreeVars(t))
	}
	x := kernel.FreshName("x", avoid)
	avoid.Insert(x)
	y := kernel.FreshName("y", avoid)
	avoid.Insert(y)
	p := kernel.FreshName("p", avoid)

	generic := ctx.AddTerm(x, id.Type).
		AddTerm(y, id.Type).
		AddTerm(p, kernel.IdType{Type: id.Type, Left: kernel.Var{Name: x}, Right: kernel.Var{Name: y}})
	if _, err := c.InferSort(kernel.App(j.Motive, kernel.Var{Name: x}, kernel.Var{Name: y}, kernel.Var{Name: p}), generic); err != nil {
		return nil, err
	}

	a := kernel.Var{Name: x}
	base := kernel.Pi{Param: x, Domain: id.Type, Codomain: kernel.App(j.Motive, a, a, kernel.Refl{Point: a})}
	if err := c.Check(j.Base, base, ctx); err != nil {
		return nil, err
	}
	return c.WHNF(kernel.App(j.Motive, id.Left, id.Right, j.Path))
}
