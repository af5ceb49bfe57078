package kernel

import (
	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// DefaultReductionSteps bounds a single normalization call.
const DefaultReductionSteps = 10000

// Reducer computes normal forms.
type Reducer interface {
	WHNF(t Term) (Term, error)
	Normalize(t Term) (Term, error)
}

// Reduction is the kernel's reducer: beta, delta (through Delta), iota for
// matches and projections, and the computation rule of path induction.
type Reduction struct {
	MaxSteps  int
	Delta     func(name string) (Term, bool)
	Signature *Signature
}

// NewReduction creates a reducer bounded by maxSteps (DefaultReductionSteps when <= 0).
func NewReduction(maxSteps int) *Reduction {
	if maxSteps <= 0 {
		maxSteps = DefaultReductionSteps
	}
	return &Reduction{MaxSteps: maxSteps}
}

// WithDelta returns a copy of r that unfolds global definitions via delta.
func (r *Reduction) WithDelta(delta func(name string) (Term, bool)) *Reduction {
	out := *r
	out.Delta = delta
	return &out
}

// WithSignature returns a copy of r that recognises constructors of sig.
func (r *Reduction) WithSignature(sig *Signature) *Reduction {
	out := *r
	out.Signature = sig
	return &out
}

// WHNF reduces t to weak head normal form.
func (r *Reduction) WHNF(t Term) (Term, error) {
	st := &reductionState{r: r}
	return st.whnf(t)
}

// Normalize reduces t to full normal form.
func (r *Reduction) Normalize(t Term) (Term, error) {
	st := &reductionState{r: r}
	return st.normalize(t)
}

// Normalize reduces t with a default reducer and no global definitions.
func Normalize(t Term) (Term, error) {
	return NewReduction(0).Normalize(t)
}

type reductionState struct {
	r     *Reduction
	steps int
}

func (st *reductionState) tick() error {
	st.steps++
	if st.steps > st.r.MaxSteps {
		return kerrors.BoundExceeded("reduction", st.r.MaxSteps)
	}
	return nil
}

func (st *reductionState) whnf(t Term) (Term, error) {
	for {
		switch x := t.(type) {
		case Apply:
			fn, err := st.whnf(x.Func)
			if err != nil {
				return nil, err
			}
			lam, ok := fn.(Lambda)
			if !ok {
				return Apply{Func: fn, Arg: x.Arg}, nil
			}
			if err := st.tick(); err != nil {
				return nil, err
			}
			t = Substitute(lam.Body, lam.Param, x.Arg)

		case TypeApply:
			fn, err := st.whnf(x.Func)
			if err != nil {
				return nil, err
			}
			switch lam := fn.(type) {
			case TypeLambda:
				if err := st.tick(); err != nil {
					return nil, err
				}
				t = Substitute(lam.Body, lam.Param, x.TypeArg)
			case Lambda:
				if err := st.tick(); err != nil {
					return nil, err
				}
				t = Substitute(lam.Body, lam.Param, x.TypeArg)
			default:
				return TypeApply{Func: fn, TypeArg: x.TypeArg}, nil
			}

		case Fst, Snd:
			var inner Term
			if f, ok := x.(Fst); ok {
				inner = f.Pair
			} else {
				inner = x.(Snd).Pair
			}
			p, err := st.whnf(inner)
			if err != nil {
				return nil, err
			}
			pair, ok := p.(Pair)
			if !ok {
				if _, isFst := x.(Fst); isFst {
					return Fst{Pair: p}, nil
				}
				return Snd{Pair: p}, nil
			}
			if err := st.tick(); err != nil {
				return nil, err
			}
			if _, isFst := x.(Fst); isFst {
				t = pair.First
			} else {
				t = pair.Second
			}

		case Const:
			if st.r.Delta == nil {
				return x, nil
			}
			body, ok := st.r.Delta(x.Name)
			if !ok {
				return x, nil
			}
			if err := st.tick(); err != nil {
				return nil, err
			}
			t = body

		case Annotated:
			t = x.Expr

		case Match:
			scrutinee, err := st.whnf(x.Scrutinee)
			if err != nil {
				return nil, err
			}
			matcher := NewPatternMatcher(nil, x.Clauses).WithSignature(st.r.Signature)
			body, err := matcher.FindMatch(scrutinee)
			if err != nil {
				if kerrors.HasCode(err, kerrors.CodeStuckScrutinee) {
					return Match{Scrutinee: scrutinee, Motive: x.Motive, Clauses: x.Clauses}, nil
				}
				return nil, err
			}
			if err := st.tick(); err != nil {
				return nil, err
			}
			t = body

		case PathInd:
			path, err := st.whnf(x.Path)
			if err != nil {
				return nil, err
			}
			refl, ok := path.(Refl)
			if !ok {
				return PathInd{Motive: x.Motive, Base: x.Base, Path: path}, nil
			}
			if err := st.tick(); err != nil {
				return nil, err
			}
			t = Apply{Func: x.Base, Arg: refl.Point}

		default:
			return t, nil
		}
	}
}

func (st *reductionState) normalize(t Term) (Term, error) {
	w, err := st.whnf(t)
	if err != nil {
		return nil, err
	}
	return MapChildren(w, st.normalize)
}

// MapChildren rebuilds t with f applied to each immediate subterm. Binder
// names are kept, so f must not depend on them being fresh.
func MapChildren(t Term, f func(Term) (Term, error)) (Term, error) {
	var firstErr error
	g := func(x Term) Term {
		if x == nil || firstErr != nil {
			return x
		}
		y, err := f(x)
		if err != nil {
			firstErr = err
			return x
		}
		return y
	}

	var out Term
	switch x := t.(type) {
	case Apply:
		out = Apply{Func: g(x.Func), Arg: g(x.Arg)}
	case Lambda:
		out = Lambda{Param: x.Param, ParamType: g(x.ParamType), Body: g(x.Body)}
	case Pi:
		out = Pi{Param: x.Param, Domain: g(x.Domain), Codomain: g(x.Codomain)}
	case Sigma:
		out = Sigma{Param: x.Param, First: g(x.First), Second: g(x.Second)}
	case Forall:
		out = Forall{Param: x.Param, Kind: g(x.Kind), Body: g(x.Body)}
	case TypeLambda:
		out = TypeLambda{Param: x.Param, Kind: g(x.Kind), Body: g(x.Body)}
	case TypeApply:
		out = TypeApply{Func: g(x.Func), TypeArg: g(x.TypeArg)}
	case Pair:
		out = Pair{First: g(x.First), Second: g(x.Second)}
	case Fst:
		out = Fst{Pair: g(x.Pair)}
	case Snd:
		out = Snd{Pair: g(x.Pair)}
	case Constructor:
		args := make([]Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = g(a)
		}
		out = Constructor{Name: x.Name, Args: args}
	case Match:
		clauses := make([]Clause, len(x.Clauses))
		for i, c := range x.Clauses {
			clauses[i] = Clause{Pattern: c.Pattern, Body: g(c.Body)}
		}
		out = Match{Scrutinee: g(x.Scrutinee), Motive: g(x.Motive), Clauses: clauses}
	case Annotated:
		out = Annotated{Expr: g(x.Expr), Type: g(x.Type)}
	case IdType:
		out = IdType{Type: g(x.Type), Left: g(x.Left), Right: g(x.Right)}
	case Refl:
		out = Refl{Point: g(x.Point)}
	case PathInd:
		out = PathInd{Motive: g(x.Motive), Base: g(x.Base), Path: g(x.Path)}
	default:
		out = t
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
