package hott

import (
	"github.com/hashicorp/go-set/v3"

	"github.com/orizon-lang/typekernel/internal/kernel"
)

// The path operations below are ordinary terms built from J. Each takes
// the type A the paths live in, because J's motive binds endpoints of type
// A with typed lambdas.

// Sym builds the inverse of p : Id_A(x, y), a path of type Id_A(y, x).
func Sym(a, p kernel.Term) kernel.Term {
	n := fresh([]kernel.Term{a, p}, "u", "v", "e")
	u, v := kernel.Var{Name: n[0]}, kernel.Var{Name: n[1]}
	motive := endpoints(a, n, kernel.IdType{Type: a, Left: v, Right: u})
	base := kernel.Lambda{Param: n[0], ParamType: a, Body: kernel.Refl{Point: u}}
	return kernel.PathInd{Motive: motive, Base: base, Path: p}
}

// Trans composes p : Id_A(x, y) and q : Id_A(y, z) into a path of type
// Id_A(x, z). It inducts on q, so Trans(A, x, p, refl y) computes to p.
func Trans(a, x, p, q kernel.Term) kernel.Term {
	n := fresh([]kernel.Term{a, x, p, q}, "u", "v", "e", "r")
	u, v := kernel.Var{Name: n[0]}, kernel.Var{Name: n[1]}
	motive := endpoints(a, n, kernel.Arrow(
		kernel.IdType{Type: a, Left: x, Right: u},
		kernel.IdType{Type: a, Left: x, Right: v},
	))
	base := kernel.Lambda{Param: n[0], ParamType: a, Body: kernel.Lambda{
		Param:     n[3],
		ParamType: kernel.IdType{Type: a, Left: x, Right: u},
		Body:      kernel.Var{Name: n[3]},
	}}
	return kernel.Apply{Func: kernel.PathInd{Motive: motive, Base: base, Path: q}, Arg: p}
}

// Ap maps p : Id_A(x, y) along f : A → B to a path of type
// Id_B(f x, f y).
func Ap(a, b, f, p kernel.Term) kernel.Term {
	n := fresh([]kernel.Term{a, b, f, p}, "u", "v", "e")
	u, v := kernel.Var{Name: n[0]}, kernel.Var{Name: n[1]}
	motive := endpoints(a, n, kernel.IdType{
		Type:  b,
		Left:  kernel.Apply{Func: f, Arg: u},
		Right: kernel.Apply{Func: f, Arg: v},
	})
	base := kernel.Lambda{Param: n[0], ParamType: a, Body: kernel.Refl{Point: kernel.Apply{Func: f, Arg: u}}}
	return kernel.PathInd{Motive: motive, Base: base, Path: p}
}

// Transport moves w : P x along p : Id_A(x, y) to P y, for a family
// P : A → Type.
func Transport(a, family, p, w kernel.Term) kernel.Term {
	n := fresh([]kernel.Term{a, family, p, w}, "u", "v", "e", "w")
	u, v := kernel.Var{Name: n[0]}, kernel.Var{Name: n[1]}
	motive := endpoints(a, n, kernel.Arrow(
		kernel.Apply{Func: family, Arg: u},
		kernel.Apply{Func: family, Arg: v},
	))
	base := kernel.Lambda{Param: n[0], ParamType: a, Body: kernel.Lambda{
		Param:     n[3],
		ParamType: kernel.Apply{Func: family, Arg: u},
		Body:      kernel.Var{Name: n[3]},
	}}
	return kernel.Apply{Func: kernel.PathInd{Motive: motive, Base: base, Path: p}, Arg: w}
}

// endpoints builds the motive λu:A. λv:A. λe:Id_A(u, v). body.
func endpoints(a kernel.Term, names []string, body kernel.Term) kernel.Term {
	u, v := kernel.Var{Name: names[0]}, kernel.Var{Name: names[1]}
	return kernel.Lambda{Param: names[0], ParamType: a, Body: kernel.Lambda{
		Param:     names[1],
		ParamType: a,
		Body: kernel.Lambda{
			Param:     names[2],
			ParamType: kernel.IdType{Type: a, Left: u, Right: v},
			Body:      body,
		},
	}}
}

// fresh picks one name per base that is free in none of terms and distinct
// from the others.
func fresh(terms []kernel.Term, bases ...string) []string {
	avoid := set.New[string](8)
	for _, t := range terms {
		avoid.InsertSet(kernel.FreeVars(t))
	}
	out := make([]string, len(bases))
	for i, base := range bases {
		out[i] = kernel.FreshName(base, avoid)
		avoid.Insert(out[i])
	}
	return out
}
