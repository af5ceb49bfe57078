package hott

import (
	"github.com/orizon-lang/typekernel/internal/kernel"
)

func v(name string) kernel.Term { return kernel.Var{Name: name} }

func pi(param string, domain, codomain kernel.Term) kernel.Term {
	return kernel.Pi{Param: param, Domain: domain, Codomain: codomain}
}

func lam(param string, ty, body kernel.Term) kernel.Term {
	return kernel.Lambda{Param: param, ParamType: ty, Body: body}
}

func id(ty, left, right kernel.Term) kernel.Term {
	return kernel.IdType{Type: ty, Left: left, Right: right}
}

// BasePoint is the point constructor of the circle.
var BasePoint kernel.Term = kernel.Constructor{Name: Base}

// declarePrelude adds the circle, its recursor and the univalence and
// function extensionality axioms.
//
//	S1          : Type
//	base        : S1
//	loop        : Id_S1(base, base)
//	S1_rec      : Π(B:Type). Π(b:B). Π(l:Id_B(b, b)). S1 → B
//	S1_rec_loop : Π(B:Type). Π(b:B). Π(l:Id_B(b, b)). Id(ap (S1_rec B b l) loop, l)
//	ua          : Π(A B:Type). Π(f:A→B). Π(g:B→A). (Π(a:A). Id_A(g (f a), a)) → (Π(b:B). Id_B(f (g b), b)) → Id_Type(A, B)
//	ua_comp     : ... Π(a:A). Id_B(transport (λX. X) (ua A B f g η ε) a, f a)
//	funext      : Π(A:Type). Π(B:A→Type). Π(f g:Π(x:A). B x). (Π(x:A). Id_{B x}(f x, g x)) → Id(f, g)
func (c *Checker) declarePrelude() error {
	circle := kernel.Const{Name: Circle}
	err := c.DeclareInductive(kernel.InductiveDecl{
		Name:         Circle,
		Arity:        kernel.Type0,
		Constructors: []kernel.ConstructorDecl{{Name: Base, Type: circle}},
	})
	if err != nil {
		return err
	}
	if err := c.Axiom(Loop, id(circle, BasePoint, BasePoint)); err != nil {
		return err
	}

	loopOver := id(v("B"), v("b"), v("b"))
	recType := pi("B", kernel.Type0, pi("b", v("B"), pi("l", loopOver, kernel.Arrow(circle, v("B")))))
	recBody := lam("B", kernel.Type0, lam("b", v("B"), lam("l", loopOver, lam("s", circle, kernel.Match{
		Scrutinee: v("s"),
		Clauses:   []kernel.Clause{{Pattern: kernel.ConstructorPattern{Name: Base}, Body: v("b")}},
	}))))
	if err := c.Define(CircleRec, recType, recBody); err != nil {
		return err
	}
	rec := kernel.App(kernel.Const{Name: CircleRec}, v("B"), v("b"), v("l"))
	recLoop := pi("B", kernel.Type0, pi("b", v("B"), pi("l", loopOver,
		id(loopOver, Ap(circle, v("B"), rec, kernel.Const{Name: Loop}), v("l")))))
	if err := c.Axiom(CircleLoop, recLoop); err != nil {
		return err
	}

	equivalence := func(body kernel.Term) kernel.Term {
		return pi("A", kernel.Type0, pi("B", kernel.Type0,
			pi("f", kernel.Arrow(v("A"), v("B")), pi("g", kernel.Arrow(v("B"), v("A")),
				pi("eta", pi("a", v("A"), id(v("A"), kernel.App(v("g"), kernel.App(v("f"), v("a"))), v("a"))),
					pi("eps", pi("b", v("B"), id(v("B"), kernel.App(v("f"), kernel.App(v("g"), v("b"))), v("b"))),
						body))))))
	}
	if err := c.Axiom(Univalence, equivalence(id(kernel.Type0, v("A"), v("B")))); err != nil {
		return err
	}
	path := kernel.App(kernel.Const{Name: Univalence}, v("A"), v("B"), v("f"), v("g"), v("eta"), v("eps"))
	coerce := Transport(kernel.Type0, lam("X", kernel.Type0, v("X")), path, v("a"))
	uaComp := equivalence(pi("a", v("A"), id(v("B"), coerce, kernel.App(v("f"), v("a")))))
	if err := c.Axiom(UaComp, uaComp); err != nil {
		return err
	}

	fiber := kernel.Apply{Func: v("B"), Arg: v("x")}
	section := pi("x", v("A"), fiber)
	funext := pi("A", kernel.Type0, pi("B", kernel.Arrow(v("A"), kernel.Type0),
		pi("f", section, pi("g", section, kernel.Arrow(
			pi("x", v("A"), id(fiber, kernel.App(v("f"), v("x")), kernel.App(v("g"), v("x")))),
			id(section, v("f"), v("g")))))))
	return c.Axiom(Funext, funext)
}
