package kernel

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Logger receives solver traces.
type Logger interface {
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}

// Constraint asks for Left and Right to be made equal.
type Constraint struct {
	Left  Term
	Right Term
}

// String returns a string representation of the constraint.
func (c Constraint) String() string {
	return fmt.Sprintf("%s ≟ %s", show(c.Left), show(c.Right))
}

// UnifierConfig controls unification behavior.
type UnifierConfig struct {
	// MaxSteps bounds the constraints processed by one first-order solve.
	MaxSteps int
	// MaxIterations is the number of levels the higher-order search
	// expands, the root problem being the first.
	MaxIterations int
	// MaxFrontier bounds the number of partial solutions kept per iteration.
	MaxFrontier int
	// MaxSolutions stops the higher-order search once this many are found.
	MaxSolutions int
	// Rigid names are never bound.
	Rigid []string
	// Flexible, when set, restricts which free variables may be bound.
	// When nil every free Var not listed in Rigid is flexible.
	Flexible func(name string) bool
	// Reducer, when set, brings both sides to weak head normal form before
	// comparing them.
	Reducer Reducer
	// TypeOf, when set, lets projection skip spine arguments whose type
	// cannot produce the rigid side.
	TypeOf func(Term) (Term, bool)
}

// DefaultUnifierConfig returns the default bounds. It marks nothing rigid,
// so every free Var is a unification variable: F a ≟ g a is a flex-flex
// pair unless g and a are made rigid with Rigid or Unifier.WithRigid.
func DefaultUnifierConfig() UnifierConfig {
	return UnifierConfig{
		MaxSteps:      1000,
		MaxIterations: 16,
		MaxFrontier:   256,
		MaxSolutions:  8,
	}
}

// Unifier solves sets of constraints. A Unifier holds only configuration
// and may be shared; every call owns its own problem state.
type Unifier struct {
	config UnifierConfig
	rigid  *set.Set[string]
	logger Logger
}

// NewUnifier creates a unifier, filling unset bounds with defaults.
func NewUnifier(config UnifierConfig) *Unifier {
	def := DefaultUnifierConfig()
	if config.MaxSteps <= 0 {
		config.MaxSteps = def.MaxSteps
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = def.MaxIterations
	}
	if config.MaxFrontier <= 0 {
		config.MaxFrontier = def.MaxFrontier
	}
	if config.MaxSolutions <= 0 {
		config.MaxSolutions = def.MaxSolutions
	}
	return &Unifier{
		config: config,
		rigid:  set.From[string](config.Rigid),
		logger: nopLogger{},
	}
}

// SetLogger routes solver traces to l.
func (u *Unifier) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	u.logger = l
}

// Config returns the effective configuration.
func (u *Unifier) Config() UnifierConfig {
	return u.config
}

// WithRigid returns a unifier that additionally treats names as rigid.
func (u *Unifier) WithRigid(names ...string) *Unifier {
	cfg := u.config
	cfg.Rigid = append(append([]string(nil), u.config.Rigid...), names...)
	out := NewUnifier(cfg)
	out.logger = u.logger
	return out
}

func (u *Unifier) isFlex(name string, bound []string) bool {
	if isBound(name, bound) || u.rigid.Contains(name) {
		return false
	}
	if u.config.Flexible != nil {
		return u.config.Flexible(name)
	}
	return true
}

// Unify solves constraints with the default configuration.
func Unify(constraints []Constraint) (*Substitution, error) {
	return NewUnifier(DefaultUnifierConfig()).Unify(constraints)
}

// Unify returns the most general first-order unifier of constraints.
func (u *Unifier) Unify(constraints []Constraint) (*Substitution, error) {
	return u.NewProblem(constraints).Solve()
}

// ====== Unification problem ======

type workItem struct {
	left  Term
	right Term
	bound []string
}

// UnificationProblem owns a worklist of constraints and the substitution
// accumulated while solving them.
type UnificationProblem struct {
	u        *Unifier
	worklist []workItem
	subst    *Substitution
	used     *set.Set[string]
	steps    int
}

// NewProblem creates a problem over constraints.
func (u *Unifier) NewProblem(constraints []Constraint) *UnificationProblem {
	p := &UnificationProblem{
		u:     u,
		subst: NewSubstitution(),
		used:  set.New[string](16),
	}
	for _, c := range constraints {
		p.worklist = append(p.worklist, workItem{left: c.Left, right: c.Right})
		collectFree(c.Left, nil, p.used)
		collectFree(c.Right, nil, p.used)
	}
	return p
}

// Substitution returns the substitution accumulated so far.
func (p *UnificationProblem) Substitution() *Substitution {
	return p.subst
}

// Solve processes the worklist until it is empty or a constraint fails.
func (p *UnificationProblem) Solve() (*Substitution, error) {
	for len(p.worklist) > 0 {
		p.steps++
		if p.steps > p.u.config.MaxSteps {
			return nil, kerrors.BoundExceeded("unification", p.u.config.MaxSteps)
		}

		item := p.worklist[0]
		p.worklist = p.worklist[1:]

		if err := p.step(item); err != nil {
			p.u.logger.Debug("unify failed: %v", err)
			return nil, err
		}
	}

	p.u.logger.Debug("unify solved in %d steps: %s", p.steps, p.subst)
	return p.subst, nil
}

func (p *UnificationProblem) push(l, r Term, bound []string) {
	p.worklist = append(p.worklist, workItem{left: l, right: r, bound: bound})
}

func (p *UnificationProblem) prepare(t Term) (Term, error) {
	t = p.subst.Apply(t)
	if p.u.config.Reducer != nil {
		w, err := p.u.config.Reducer.WHNF(t)
		if err != nil {
			return nil, err
		}
		t = w
	}
	for {
		a, ok := t.(Annotated)
		if !ok {
			return t, nil
		}
		t = a.Expr
	}
}

func (p *UnificationProblem) step(item workItem) error {
	l, err := p.prepare(item.left)
	if err != nil {
		return err
	}
	r, err := p.prepare(item.right)
	if err != nil {
		return err
	}

	p.u.logger.Debug("unify step %d: %s ≟ %s", p.steps, l, r)

	if AlphaEqual(l, r) {
		return nil
	}

	if v, ok := l.(Var); ok && p.u.isFlex(v.Name, item.bound) {
		return p.bind(v.Name, r, item.bound)
	}
	if v, ok := r.(Var); ok && p.u.isFlex(v.Name, item.bound) {
		return p.bind(v.Name, l, item.bound)
	}

	return p.decompose(l, r, item.bound)
}

// bind records name ↦ t after the occurs check and the scope check.
func (p *UnificationProblem) bind(name string, t Term, bound []string) error {
	if Occurs(name, t) {
		return kerrors.OccursCheckFailed(name, t)
	}
	for _, b := range bound {
		if Occurs(b, t) {
			return kerrors.TermsCannotUnify(Var{Name: name}, t)
		}
	}
	p.subst = Singleton(name, t).Compose(p.subst)
	p.u.logger.Debug("bind %s ↦ %s", name, t)
	return nil
}

// binderName picks the common name for two binders being compared.
func (p *UnificationProblem) binderName(first string) string {
	return commonBinderName(first, p.used)
}

func commonBinderName(first string, used *set.Set[string]) string {
	name := first
	if name == "" || used.Contains(name) {
		name = FreshName(first, used)
	}
	used.Insert(name)
	return name
}

func (p *UnificationProblem) decompose(l, r Term, bound []string) error {
	fail := func() error { return kerrors.TermsCannotUnify(l, r) }

	if pairs, name, ok := binderPairs(l, r, p.binderName); ok {
		for _, pr := range pairs.outer {
			p.push(pr[0], pr[1], bound)
		}
		inner := push(bound, name)
		p.push(pairs.inner[0], pairs.inner[1], inner)
		return nil
	}

	if pairs, ok := childPairs(l, r); ok {
		for _, pr := range pairs {
			p.push(pr[0], pr[1], bound)
		}
		return nil
	}

	switch x := l.(type) {
	case Apply:
		if y, ok := r.(Apply); ok {
			p.push(x.Func, y.Func, bound)
			p.push(x.Arg, y.Arg, bound)
			return nil
		}
	case Constructor:
		if y, ok := r.(Constructor); ok {
			if x.Name != y.Name || len(x.Args) != len(y.Args) {
				return fail()
			}
			for i := range x.Args {
				p.push(x.Args[i], y.Args[i], bound)
			}
			return nil
		}
	}

	// Mixed constructor/spine forms, including literals.
	nl, al, okl := ConstructorView(l)
	nr, ar, okr := ConstructorView(r)
	if okl && okr && nl == nr && len(al) == len(ar) {
		for i := range al {
			p.push(al[i], ar[i], bound)
		}
		return nil
	}

	return fail()
}

type binderDecomposition struct {
	outer [][2]Term
	inner [2]Term
}

// binderPairs decomposes two binders of the same shape. The second binder
// is renamed to the name chosen for the first.
func binderPairs(l, r Term, pick func(string) string) (binderDecomposition, string, bool) {
	var d binderDecomposition
	optional := func(a, b Term) {
		if a != nil && b != nil {
			d.outer = append(d.outer, [2]Term{a, b})
		}
	}

	switch x := l.(type) {
	case Lambda:
		y, ok := r.(Lambda)
		if !ok {
			return d, "", false
		}
		optional(x.ParamType, y.ParamType)
		name := pick(x.Param)
		d.inner = [2]Term{Rename(x.Body, x.Param, name), Rename(y.Body, y.Param, name)}
		return d, name, true
	case Pi:
		y, ok := r.(Pi)
		if !ok {
			return d, "", false
		}
		d.outer = append(d.outer, [2]Term{x.Domain, y.Domain})
		name := pick(x.Param)
		d.inner = [2]Term{renameBinder(x.Codomain, x.Param, name), renameBinder(y.Codomain, y.Param, name)}
		return d, name, true
	case Sigma:
		y, ok := r.(Sigma)
		if !ok {
			return d, "", false
		}
		d.outer = append(d.outer, [2]Term{x.First, y.First})
		name := pick(x.Param)
		d.inner = [2]Term{renameBinder(x.Second, x.Param, name), renameBinder(y.Second, y.Param, name)}
		return d, name, true
	case Forall:
		y, ok := r.(Forall)
		if !ok {
			return d, "", false
		}
		optional(x.Kind, y.Kind)
		name := pick(x.Param)
		d.inner = [2]Term{Rename(x.Body, x.Param, name), Rename(y.Body, y.Param, name)}
		return d, name, true
	case TypeLambda:
		y, ok := r.(TypeLambda)
		if !ok {
			return d, "", false
		}
		optional(x.Kind, y.Kind)
		name := pick(x.Param)
		d.inner = [2]Term{Rename(x.Body, x.Param, name), Rename(y.Body, y.Param, name)}
		return d, name, true
	default:
		return d, "", false
	}
}

func renameBinder(body Term, from, to string) Term {
	if from == "" {
		return body
	}
	return Rename(body, from, to)
}

// childPairs pairs up the subterms of two non-binding composite terms of
// the same shape.
func childPairs(l, r Term) ([][2]Term, bool) {
	switch x := l.(type) {
	case TypeApply:
		if y, ok := r.(TypeApply); ok {
			return [][2]Term{{x.Func, y.Func}, {x.TypeArg, y.TypeArg}}, true
		}
	case Pair:
		if y, ok := r.(Pair); ok {
			return [][2]Term{{x.First, y.First}, {x.Second, y.Second}}, true
		}
	case Fst:
		if y, ok := r.(Fst); ok {
			return [][2]Term{{x.Pair, y.Pair}}, true
		}
	case Snd:
		if y, ok := r.(Snd); ok {
			return [][2]Term{{x.Pair, y.Pair}}, true
		}
	case IdType:
		if y, ok := r.(IdType); ok {
			return [][2]Term{{x.Type, y.Type}, {x.Left, y.Left}, {x.Right, y.Right}}, true
		}
	case Refl:
		if y, ok := r.(Refl); ok {
			return [][2]Term{{x.Point, y.Point}}, true
		}
	case PathInd:
		if y, ok := r.(PathInd); ok {
			return [][2]Term{{x.Motive, y.Motive}, {x.Base, y.Base}, {x.Path, y.Path}}, true
		}
	}
	return nil, false
}
