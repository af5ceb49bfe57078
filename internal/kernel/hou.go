package kernel

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// FlexRigidPair is a constraint F s1 ... sn ≟ h t1 ... tm whose left head F
// is a unification variable and whose right head h is rigid.
type FlexRigidPair struct {
	Flex       string
	FlexSpine  []Term
	Rigid      Term
	RigidSpine []Term
	Bound      []string
}

// String returns a string representation of the pair.
func (p FlexRigidPair) String() string {
	return fmt.Sprintf("%s ≟ %s", App(Var{Name: p.Flex}, p.FlexSpine...), App(p.Rigid, p.RigidSpine...))
}

type flexFlexPair struct {
	left, right Term
	bound       []string
}

// hoState is one node of the search: a partial solution plus the
// constraints it has not discharged yet.
type hoState struct {
	subst   *Substitution
	pending []workItem
}

type hoSearch struct {
	u        *Unifier
	reducer  Reducer
	used     *set.Set[string]
	original *set.Set[string]
	metas    int
}

// UnifyHigherOrder enumerates unifiers of constraints whose flexible heads
// may be applied to arguments. Solutions are produced breadth first: each
// iteration expands every partial solution of the frontier through
// imitation and projection. The search stops after MaxIterations levels or
// once MaxSolutions solutions are known, and keeps at most MaxFrontier
// partial solutions per level.
//
// An empty search space yields TermsCannotUnify. When no solution is found
// but a bound cut the search short the error is BoundExceeded.
func (u *Unifier) UnifyHigherOrder(constraints []Constraint) ([]*Substitution, error) {
	s := &hoSearch{
		u:        u,
		reducer:  u.config.Reducer,
		used:     set.New[string](16),
		original: set.New[string](8),
	}
	if s.reducer == nil {
		s.reducer = NewReduction(0)
	}

	root := &hoState{subst: NewSubstitution()}
	for _, c := range constraints {
		root.pending = append(root.pending, workItem{left: c.Left, right: c.Right})
		collectFree(c.Left, nil, s.used)
		collectFree(c.Right, nil, s.used)
	}
	for _, name := range s.used.Slice() {
		if u.isFlex(name, nil) {
			s.original.Insert(name)
		}
	}

	var solutions []*Substitution
	truncated := false
	frontier := []*hoState{root}

	for iter := 0; iter < u.config.MaxIterations && len(frontier) > 0; iter++ {
		var next []*hoState

		for _, st := range frontier {
			flexRigid, flexFlex, err := s.simplify(st)
			if err != nil {
				if iter == 0 {
					u.logger.Debug("hou: root rejected: %v", err)
					return nil, err
				}
				continue
			}

			if len(flexRigid) == 0 {
				sol, err := s.finish(st, flexFlex)
				if err != nil {
					continue
				}
				if !containsSolution(solutions, sol) {
					solutions = append(solutions, sol)
					u.logger.Debug("hou: solution %d at depth %d: %s", len(solutions), iter, sol)
				}
				if len(solutions) >= u.config.MaxSolutions {
					return solutions, nil
				}
				continue
			}

			next = append(next, s.expand(st, flexRigid[0])...)
		}

		if len(next) > u.config.MaxFrontier {
			next = next[:u.config.MaxFrontier]
			truncated = true
		}
		frontier = next
	}

	if len(solutions) > 0 {
		return solutions, nil
	}
	if len(frontier) > 0 || truncated {
		return nil, kerrors.BoundExceeded("higher-order unification", u.config.MaxIterations)
	}

	var l, r Term
	if len(constraints) > 0 {
		l, r = constraints[0].Left, constraints[0].Right
	}
	return nil, kerrors.TermsCannotUnify(l, r)
}

func containsSolution(solutions []*Substitution, sol *Substitution) bool {
	for _, other := range solutions {
		if other.Len() != sol.Len() {
			continue
		}
		same := true
		for _, k := range sol.Domain() {
			a, _ := sol.Lookup(k)
			b, ok := other.Lookup(k)
			if !ok || !AlphaEqual(a, b) {
				same = false
				break
			}
		}
		if same {
			return true
		}
	}
	return false
}

func (s *hoSearch) normalize(t Term) (Term, error) {
	n, err := s.reducer.Normalize(t)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *hoSearch) isFlexHead(head Term, bound []string) (string, bool) {
	v, ok := head.(Var)
	if !ok || !s.u.isFlex(v.Name, bound) {
		return "", false
	}
	return v.Name, true
}

func (s *hoSearch) bind(st *hoState, name string, t Term, bound []string) error {
	if Occurs(name, t) {
		return kerrors.OccursCheckFailed(name, t)
	}
	for _, b := range bound {
		if Occurs(b, t) {
			return kerrors.TermsCannotUnify(Var{Name: name}, t)
		}
	}
	st.subst = Singleton(name, t).Compose(st.subst)
	return nil
}

// simplify discharges every constraint that has a unique solution step and
// returns the remaining flex-rigid and flex-flex constraints, all with the
// current substitution applied.
func (s *hoSearch) simplify(st *hoState) ([]FlexRigidPair, []flexFlexPair, error) {
	steps := 0
	work := st.pending
	st.pending = nil

	for {
		var deferred []workItem
		changed := false

		for len(work) > 0 {
			steps++
			if steps > s.u.config.MaxSteps {
				return nil, nil, kerrors.BoundExceeded("unification", s.u.config.MaxSteps)
			}
			it := work[0]
			work = work[1:]

			l, err := s.normalize(st.subst.Apply(it.left))
			if err != nil {
				return nil, nil, err
			}
			r, err := s.normalize(st.subst.Apply(it.right))
			if err != nil {
				return nil, nil, err
			}
			if AlphaEqual(l, r) {
				continue
			}

			// Binders, with eta expansion when only one side is a lambda.
			_, lLam := l.(Lambda)
			_, rLam := r.(Lambda)
			switch {
			case lLam && !rLam:
				lam := l.(Lambda)
				name := commonBinderName(lam.Param, s.used)
				work = append(work, workItem{
					left:  Rename(lam.Body, lam.Param, name),
					right: Apply{Func: r, Arg: Var{Name: name}},
					bound: push(it.bound, name),
				})
				continue
			case rLam && !lLam:
				lam := r.(Lambda)
				name := commonBinderName(lam.Param, s.used)
				work = append(work, workItem{
					left:  Apply{Func: l, Arg: Var{Name: name}},
					right: Rename(lam.Body, lam.Param, name),
					bound: push(it.bound, name),
				})
				continue
			}
			pick := func(n string) string { return commonBinderName(n, s.used) }
			if pairs, name, ok := binderPairs(l, r, pick); ok {
				for _, pr := range pairs.outer {
					work = append(work, workItem{left: pr[0], right: pr[1], bound: it.bound})
				}
				work = append(work, workItem{left: pairs.inner[0], right: pairs.inner[1], bound: push(it.bound, name)})
				continue
			}

			hl, al := Spine(l)
			hr, ar := Spine(r)
			fl, lFlex := s.isFlexHead(hl, it.bound)
			fr, rFlex := s.isFlexHead(hr, it.bound)

			switch {
			case lFlex && len(al) == 0:
				if err := s.bind(st, fl, r, it.bound); err != nil {
					return nil, nil, err
				}
				changed = true
			case rFlex && len(ar) == 0:
				if err := s.bind(st, fr, l, it.bound); err != nil {
					return nil, nil, err
				}
				changed = true
			case lFlex || rFlex:
				deferred = append(deferred, workItem{left: l, right: r, bound: it.bound})
			default:
				pairs, err := rigidPairs(l, r, hl, al, hr, ar)
				if err != nil {
					return nil, nil, err
				}
				for _, pr := range pairs {
					work = append(work, workItem{left: pr[0], right: pr[1], bound: it.bound})
				}
			}
		}

		if !changed {
			var flexRigid []FlexRigidPair
			var flexFlex []flexFlexPair
			for _, it := range deferred {
				hl, al := Spine(it.left)
				hr, ar := Spine(it.right)
				fl, lFlex := s.isFlexHead(hl, it.bound)
				fr, rFlex := s.isFlexHead(hr, it.bound)
				switch {
				case lFlex && rFlex:
					flexFlex = append(flexFlex, flexFlexPair{left: it.left, right: it.right, bound: it.bound})
				case lFlex:
					flexRigid = append(flexRigid, FlexRigidPair{Flex: fl, FlexSpine: al, Rigid: hr, RigidSpine: ar, Bound: it.bound})
				default:
					flexRigid = append(flexRigid, FlexRigidPair{Flex: fr, FlexSpine: ar, Rigid: hl, RigidSpine: al, Bound: it.bound})
				}
			}
			st.pending = deferred
			return flexRigid, flexFlex, nil
		}
		work = deferred
	}
}

// rigidPairs decomposes two terms with rigid heads.
func rigidPairs(l, r, hl Term, al []Term, hr Term, ar []Term) ([][2]Term, error) {
	fail := kerrors.TermsCannotUnify(l, r)

	if len(al) == 0 && len(ar) == 0 {
		if pairs, ok := childPairs(l, r); ok {
			return pairs, nil
		}
		nl, cl, okl := ConstructorView(l)
		nr, cr, okr := ConstructorView(r)
		if okl && okr && nl == nr && len(cl) == len(cr) {
			return zipTerms(cl, cr), nil
		}
		return nil, fail
	}

	if len(al) != len(ar) {
		nl, cl, okl := ConstructorView(l)
		nr, cr, okr := ConstructorView(r)
		if okl && okr && nl == nr && len(cl) == len(cr) {
			return zipTerms(cl, cr), nil
		}
		return nil, fail
	}
	if !AlphaEqual(hl, hr) {
		if _, ok := hl.(Var); ok {
			return nil, fail
		}
		if _, ok := hr.(Var); ok {
			return nil, fail
		}
		if pairs, ok := childPairs(hl, hr); ok {
			return append(pairs, zipTerms(al, ar)...), nil
		}
		return nil, fail
	}
	return zipTerms(al, ar), nil
}

func zipTerms(a, b []Term) [][2]Term {
	out := make([][2]Term, len(a))
	for i := range a {
		out[i] = [2]Term{a[i], b[i]}
	}
	return out
}

// finish solves the remaining flex-flex constraints by sending both heads to
// a shared fresh variable, then normalizes the solution and restricts it to
// the variables of the original problem.
func (s *hoSearch) finish(st *hoState, flexFlex []flexFlexPair) (*Substitution, error) {
	for _, ff := range flexFlex {
		l, err := s.normalize(st.subst.Apply(ff.left))
		if err != nil {
			return nil, err
		}
		r, err := s.normalize(st.subst.Apply(ff.right))
		if err != nil {
			return nil, err
		}
		if AlphaEqual(l, r) {
			continue
		}
		hl, al := Spine(l)
		hr, ar := Spine(r)
		fl, okl := s.isFlexHead(hl, ff.bound)
		fr, okr := s.isFlexHead(hr, ff.bound)
		if !okl || !okr {
			return nil, kerrors.TermsCannotUnify(l, r)
		}

		h := Var{Name: s.freshMeta()}
		if err := s.bind(st, fl, Lams(s.freshParams(len(al)), h), nil); err != nil {
			return nil, err
		}
		if fl != fr {
			if err := s.bind(st, fr, Lams(s.freshParams(len(ar)), h), nil); err != nil {
				return nil, err
			}
		}
	}

	out := NewSubstitution()
	for _, k := range st.subst.Domain() {
		if !s.original.Contains(k) {
			continue
		}
		img, _ := st.subst.Lookup(k)
		n, err := s.normalize(img)
		if err != nil {
			return nil, err
		}
		if err := out.Add(k, n); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *hoSearch) freshMeta() string {
	for {
		s.metas++
		name := fmt.Sprintf("?H%d", s.metas)
		if !s.used.Contains(name) {
			s.used.Insert(name)
			return name
		}
	}
}

func (s *hoSearch) freshParams(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = FreshName(fmt.Sprintf("x%d", i+1), s.used)
		s.used.Insert(out[i])
	}
	return out
}

func (s *hoSearch) metaApps(n int, params []string) []Term {
	args := make([]Term, len(params))
	for i, p := range params {
		args[i] = Var{Name: p}
	}
	out := make([]Term, n)
	for i := range out {
		out[i] = App(Var{Name: s.freshMeta()}, args...)
	}
	return out
}

// expand generates the children of st for one flex-rigid pair: at most one
// imitation of the rigid head followed by one projection per spine argument.
func (s *hoSearch) expand(st *hoState, pair FlexRigidPair) []*hoState {
	n := len(pair.FlexSpine)
	var candidates []Term

	if imitable(pair.Rigid, pair.Bound) {
		params := s.freshParams(n)
		switch h := pair.Rigid.(type) {
		case Pi:
			hs := s.metaApps(2, params)
			candidates = append(candidates, Lams(params, Pi{Domain: hs[0], Codomain: hs[1]}))
		default:
			candidates = append(candidates, Lams(params, App(h, s.metaApps(len(pair.RigidSpine), params)...)))
		}
	}

	for i := 0; i < n; i++ {
		k, ok := s.projectionArity(pair.FlexSpine[i], pair)
		if !ok {
			continue
		}
		params := s.freshParams(n)
		candidates = append(candidates, Lams(params, App(Var{Name: params[i]}, s.metaApps(k, params)...)))
	}

	children := make([]*hoState, 0, len(candidates))
	for _, c := range candidates {
		child := &hoState{
			subst:   Singleton(pair.Flex, c).Compose(st.subst),
			pending: append([]workItem(nil), st.pending...),
		}
		s.u.logger.Debug("hou: %s ↦ %s", pair.Flex, c)
		children = append(children, child)
	}
	return children
}

// imitable reports whether the rigid head can be copied into a solution.
func imitable(head Term, bound []string) bool {
	switch h := head.(type) {
	case Const, Sort, Prop, Unit, Bool, Number:
		return true
	case Var:
		return !isBound(h.Name, bound)
	case Pi:
		return h.Param == "" || !Occurs(h.Param, h.Codomain)
	default:
		return false
	}
}

// projectionArity returns how many arguments a projection onto arg takes.
// Without type information the projection takes none. With it, arguments
// whose result head cannot match the rigid side are skipped.
func (s *hoSearch) projectionArity(arg Term, pair FlexRigidPair) (int, bool) {
	if s.u.config.TypeOf == nil {
		return 0, true
	}
	ty, ok := s.u.config.TypeOf(arg)
	if !ok {
		return 0, true
	}
	k := 0
	result := ty
	for {
		p, ok := result.(Pi)
		if !ok {
			break
		}
		k++
		result = p.Codomain
	}

	rigidTy, ok := s.u.config.TypeOf(App(pair.Rigid, pair.RigidSpine...))
	if !ok {
		return k, true
	}
	rh, _ := Spine(result)
	th, _ := Spine(rigidTy)
	rc, ok1 := rh.(Const)
	tc, ok2 := th.(Const)
	if ok1 && ok2 && rc.Name != tc.Name {
		return 0, false
	}
	return k, true
}
