package kernel

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v3"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// ====== Free variables ======

// FreeVars returns the set of variables occurring free in t.
func FreeVars(t Term) *set.Set[string] {
	out := set.New[string](8)
	collectFree(t, nil, out)
	return out
}

func isBound(name string, bound []string) bool {
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] == name {
			return true
		}
	}
	return false
}

func collectFree(t Term, bound []string, out *set.Set[string]) {
	switch x := t.(type) {
	case nil:
	case Var:
		if !isBound(x.Name, bound) {
			out.Insert(x.Name)
		}
	case Apply:
		collectFree(x.Func, bound, out)
		collectFree(x.Arg, bound, out)
	case Lambda:
		collectFree(x.ParamType, bound, out)
		collectFree(x.Body, append(bound[:len(bound):len(bound)], x.Param), out)
	case Pi:
		collectFree(x.Domain, bound, out)
		collectFree(x.Codomain, append(bound[:len(bound):len(bound)], x.Param), out)
	case Sigma:
		collectFree(x.First, bound, out)
		collectFree(x.Second, append(bound[:len(bound):len(bound)], x.Param), out)
	case Forall:
		collectFree(x.Kind, bound, out)
		collectFree(x.Body, append(bound[:len(bound):len(bound)], x.Param), out)
	case TypeLambda:
		collectFree(x.Kind, bound, out)
		collectFree(x.Body, append(bound[:len(bound):len(bound)], x.Param), out)
	case TypeApply:
		collectFree(x.Func, bound, out)
		collectFree(x.TypeArg, bound, out)
	case Pair:
		collectFree(x.First, bound, out)
		collectFree(x.Second, bound, out)
	case Fst:
		collectFree(x.Pair, bound, out)
	case Snd:
		collectFree(x.Pair, bound, out)
	case Constructor:
		for _, a := range x.Args {
			collectFree(a, bound, out)
		}
	case Match:
		collectFree(x.Scrutinee, bound, out)
		collectFree(x.Motive, bound, out)
		for _, c := range x.Clauses {
			inner := append(bound[:len(bound):len(bound)], PatternVars(c.Pattern)...)
			collectFree(c.Body, inner, out)
		}
	case Annotated:
		collectFree(x.Expr, bound, out)
		collectFree(x.Type, bound, out)
	case IdType:
		collectFree(x.Type, bound, out)
		collectFree(x.Left, bound, out)
		collectFree(x.Right, bound, out)
	case Refl:
		collectFree(x.Point, bound, out)
	case PathInd:
		collectFree(x.Motive, bound, out)
		collectFree(x.Base, bound, out)
		collectFree(x.Path, bound, out)
	}
}

// Occurs reports whether the variable name occurs free in t.
func Occurs(name string, t Term) bool {
	switch x := t.(type) {
	case nil:
		return false
	case Var:
		return x.Name == name
	case Apply:
		return Occurs(name, x.Func) || Occurs(name, x.Arg)
	case Lambda:
		return Occurs(name, x.ParamType) || (x.Param != name && Occurs(name, x.Body))
	case Pi:
		return Occurs(name, x.Domain) || (x.Param != name && Occurs(name, x.Codomain))
	case Sigma:
		return Occurs(name, x.First) || (x.Param != name && Occurs(name, x.Second))
	case Forall:
		return Occurs(name, x.Kind) || (x.Param != name && Occurs(name, x.Body))
	case TypeLambda:
		return Occurs(name, x.Kind) || (x.Param != name && Occurs(name, x.Body))
	case TypeApply:
		return Occurs(name, x.Func) || Occurs(name, x.TypeArg)
	case Pair:
		return Occurs(name, x.First) || Occurs(name, x.Second)
	case Fst:
		return Occurs(name, x.Pair)
	case Snd:
		return Occurs(name, x.Pair)
	case Constructor:
		for _, a := range x.Args {
			if Occurs(name, a) {
				return true
			}
		}
		return false
	case Match:
		if Occurs(name, x.Scrutinee) || Occurs(name, x.Motive) {
			return true
		}
		for _, c := range x.Clauses {
			if !containsName(PatternVars(c.Pattern), name) && Occurs(name, c.Body) {
				return true
			}
		}
		return false
	case Annotated:
		return Occurs(name, x.Expr) || Occurs(name, x.Type)
	case IdType:
		return Occurs(name, x.Type) || Occurs(name, x.Left) || Occurs(name, x.Right)
	case Refl:
		return Occurs(name, x.Point)
	case PathInd:
		return Occurs(name, x.Motive) || Occurs(name, x.Base) || Occurs(name, x.Path)
	default:
		return false
	}
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// FreshName derives a name from base that is not in avoid by priming it.
func FreshName(base string, avoid *set.Set[string]) string {
	if base == "" {
		base = "x"
	}
	name := base
	for avoid.Contains(name) {
		name += "'"
	}
	return name
}

// BinderName keeps name for a binder unless it is in clash. A clashing
// name is primed until it also avoids the free variables of terms.
func BinderName(name string, clash *set.Set[string], terms ...Term) string {
	if !clash.Contains(name) {
		return name
	}
	avoid := clash.Copy()
	for _, t := range terms {
		avoid.InsertSet(FreeVars(t))
	}
	return FreshName(name, avoid)
}

// AlignPis opens two products with one shared bound variable that captures
// nothing free in either, and returns their codomains. A non-dependent
// product keeps its codomain as is.
func AlignPis(a, b Pi) (Term, Term) {
	base := a.Param
	if base == "" {
		base = b.Param
	}
	if base == "" {
		return a.Codomain, b.Codomain
	}
	clash := FreeVars(a)
	clash.InsertSet(FreeVars(b))
	name := FreshName(base, clash)
	return openPi(a, name), openPi(b, name)
}

func openPi(p Pi, name string) Term {
	if p.Param == "" {
		return p.Codomain
	}
	return Rename(p.Codomain, p.Param, name)
}

// ====== Substitution ======

// Substitution maps variable names to terms. Within one solving pass every
// name is assigned at most once.
type Substitution struct {
	mapping map[string]Term
	order   []string
}

// NewSubstitution creates an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{mapping: make(map[string]Term)}
}

// Singleton creates the substitution {name ↦ t}.
func Singleton(name string, t Term) *Substitution {
	s := NewSubstitution()
	s.mapping[name] = t
	s.order = append(s.order, name)
	return s
}

// Add maps name to t, failing when name is already mapped.
func (s *Substitution) Add(name string, t Term) error {
	if _, exists := s.mapping[name]; exists {
		return kerrors.VariableAlreadyMapped(name)
	}
	s.mapping[name] = t
	s.order = append(s.order, name)
	return nil
}

// Lookup returns the image of name.
func (s *Substitution) Lookup(name string) (Term, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.mapping[name]
	return t, ok
}

// Domain returns the mapped names in insertion order.
func (s *Substitution) Domain() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.order...)
}

// Len returns the number of mapped names.
func (s *Substitution) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Copy returns an independent copy of s.
func (s *Substitution) Copy() *Substitution {
	out := NewSubstitution()
	if s == nil {
		return out
	}
	for _, k := range s.order {
		out.mapping[k] = s.mapping[k]
	}
	out.order = append(out.order, s.order...)
	return out
}

// Restrict keeps only the mappings for the given names.
func (s *Substitution) Restrict(names *set.Set[string]) *Substitution {
	out := NewSubstitution()
	for _, k := range s.Domain() {
		if names.Contains(k) {
			out.mapping[k] = s.mapping[k]
			out.order = append(out.order, k)
		}
	}
	return out
}

// Map transforms every image with f.
func (s *Substitution) Map(f func(Term) Term) *Substitution {
	out := NewSubstitution()
	for _, k := range s.Domain() {
		out.mapping[k] = f(s.mapping[k])
		out.order = append(out.order, k)
	}
	return out
}

// Apply replaces every free occurrence of a mapped variable in t by its
// image. Binders that rebind a mapped name stop the substitution; binders
// that would capture a free variable of an image are renamed.
func (s *Substitution) Apply(t Term) Term {
	if s == nil || len(s.mapping) == 0 || t == nil {
		return t
	}
	return substitute(t, s.mapping)
}

// Compose returns s ∘ other: s applied to every image of other, merged with
// the bindings of s for names other leaves unmapped.
func (s *Substitution) Compose(other *Substitution) *Substitution {
	out := NewSubstitution()
	for _, k := range other.Domain() {
		out.mapping[k] = s.Apply(other.mapping[k])
		out.order = append(out.order, k)
	}
	for _, k := range s.Domain() {
		if _, ok := out.mapping[k]; ok {
			continue
		}
		out.mapping[k] = s.mapping[k]
		out.order = append(out.order, k)
	}
	return out
}

// String prints the substitution as {x ↦ t, ...} sorted by name.
func (s *Substitution) String() string {
	keys := s.Domain()
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s ↦ %s", k, s.mapping[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Substitute replaces free occurrences of name in t by replacement.
func Substitute(t Term, name string, replacement Term) Term {
	return Singleton(name, replacement).Apply(t)
}

// Rename replaces free occurrences of the variable from by the variable to.
func Rename(t Term, from, to string) Term {
	if from == to {
		return t
	}
	return Substitute(t, from, Var{Name: to})
}

func substituteOpt(t Term, m map[string]Term) Term {
	if t == nil {
		return nil
	}
	return substitute(t, m)
}

func substitute(t Term, m map[string]Term) Term {
	switch x := t.(type) {
	case Var:
		if r, ok := m[x.Name]; ok {
			return r
		}
		return x
	case Apply:
		return Apply{Func: substitute(x.Func, m), Arg: substitute(x.Arg, m)}
	case Lambda:
		param, body := substituteBinder(x.Param, x.Body, m)
		return Lambda{Param: param, ParamType: substituteOpt(x.ParamType, m), Body: body}
	case Pi:
		param, cod := substituteBinder(x.Param, x.Codomain, m)
		return Pi{Param: param, Domain: substitute(x.Domain, m), Codomain: cod}
	case Sigma:
		param, second := substituteBinder(x.Param, x.Second, m)
		return Sigma{Param: param, First: substitute(x.First, m), Second: second}
	case Forall:
		param, body := substituteBinder(x.Param, x.Body, m)
		return Forall{Param: param, Kind: substituteOpt(x.Kind, m), Body: body}
	case TypeLambda:
		param, body := substituteBinder(x.Param, x.Body, m)
		return TypeLambda{Param: param, Kind: substituteOpt(x.Kind, m), Body: body}
	case TypeApply:
		return TypeApply{Func: substitute(x.Func, m), TypeArg: substitute(x.TypeArg, m)}
	case Pair:
		return Pair{First: substitute(x.First, m), Second: substitute(x.Second, m)}
	case Fst:
		return Fst{Pair: substitute(x.Pair, m)}
	case Snd:
		return Snd{Pair: substitute(x.Pair, m)}
	case Constructor:
		args := make([]Term, len(x.Args))
		for i, a := range x.Args {
			args[i] = substitute(a, m)
		}
		return Constructor{Name: x.Name, Args: args}
	case Match:
		clauses := make([]Clause, len(x.Clauses))
		for i, c := range x.Clauses {
			clauses[i] = substituteClause(c, m)
		}
		return Match{
			Scrutinee: substitute(x.Scrutinee, m),
			Motive:    substituteOpt(x.Motive, m),
			Clauses:   clauses,
		}
	case Annotated:
		return Annotated{Expr: substitute(x.Expr, m), Type: substitute(x.Type, m)}
	case IdType:
		return IdType{Type: substitute(x.Type, m), Left: substitute(x.Left, m), Right: substitute(x.Right, m)}
	case Refl:
		return Refl{Point: substitute(x.Point, m)}
	case PathInd:
		return PathInd{Motive: substitute(x.Motive, m), Base: substitute(x.Base, m), Path: substitute(x.Path, m)}
	default:
		return t
	}
}

// relevantFor drops mappings shadowed by names and those not free in body.
func relevantFor(m map[string]Term, shadowed []string, body Term) map[string]Term {
	out := make(map[string]Term)
	for k, v := range m {
		if containsName(shadowed, k) || !Occurs(k, body) {
			continue
		}
		out[k] = v
	}
	return out
}

func imagesMention(m map[string]Term, name string) bool {
	for _, v := range m {
		if Occurs(name, v) {
			return true
		}
	}
	return false
}

func avoidSet(m map[string]Term, body Term) *set.Set[string] {
	avoid := FreeVars(body)
	for k, v := range m {
		avoid.Insert(k)
		collectFree(v, nil, avoid)
	}
	return avoid
}

func substituteBinder(param string, body Term, m map[string]Term) (string, Term) {
	inner := relevantFor(m, []string{param}, body)
	if len(inner) == 0 {
		return param, body
	}
	if param != "" && imagesMention(inner, param) {
		fresh := FreshName(param, avoidSet(inner, body))
		body = substitute(body, map[string]Term{param: Var{Name: fresh}})
		param = fresh
	}
	return param, substitute(body, inner)
}

func substituteClause(c Clause, m map[string]Term) Clause {
	vars := PatternVars(c.Pattern)
	inner := relevantFor(m, vars, c.Body)
	if len(inner) == 0 {
		return c
	}
	pat, body := c.Pattern, c.Body
	for _, v := range vars {
		if !imagesMention(inner, v) {
			continue
		}
		avoid := avoidSet(inner, body)
		for _, other := range vars {
			avoid.Insert(other)
		}
		fresh := FreshName(v, avoid)
		pat = RenamePattern(pat, v, fresh)
		body = substitute(body, map[string]Term{v: Var{Name: fresh}})
	}
	return Clause{Pattern: pat, Body: substitute(body, inner)}
}

// RenamePattern renames the pattern variable from to to.
func RenamePattern(p Pattern, from, to string) Pattern {
	switch x := p.(type) {
	case VarPattern:
		if x.Name == from {
			return VarPattern{Name: to}
		}
		return x
	case ConstructorPattern:
		args := make([]Pattern, len(x.Args))
		for i, a := range x.Args {
			args[i] = RenamePattern(a, from, to)
		}
		return ConstructorPattern{Name: x.Name, Args: args}
	default:
		return p
	}
}

// ====== Alpha equivalence ======

// AlphaEqual reports whether a and b are equal up to renaming of bound variables.
func AlphaEqual(a, b Term) bool {
	return alphaEqual(a, b, nil, nil)
}

func boundIndex(name string, env []string) int {
	for i := len(env) - 1; i >= 0; i-- {
		if env[i] == name {
			return i
		}
	}
	return -1
}

func push(env []string, name string) []string {
	return append(env[:len(env):len(env)], name)
}

func alphaEqualOpt(a, b Term, ea, eb []string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return alphaEqual(a, b, ea, eb)
}

func alphaEqual(a, b Term, ea, eb []string) bool {
	switch x := a.(type) {
	case Var:
		y, ok := b.(Var)
		if !ok {
			return false
		}
		ia, ib := boundIndex(x.Name, ea), boundIndex(y.Name, eb)
		if ia >= 0 || ib >= 0 {
			return ia == ib
		}
		return x.Name == y.Name
	case Const:
		y, ok := b.(Const)
		return ok && x.Name == y.Name
	case Apply:
		y, ok := b.(Apply)
		return ok && alphaEqual(x.Func, y.Func, ea, eb) && alphaEqual(x.Arg, y.Arg, ea, eb)
	case Lambda:
		y, ok := b.(Lambda)
		return ok && alphaEqualOpt(x.ParamType, y.ParamType, ea, eb) &&
			alphaEqual(x.Body, y.Body, push(ea, x.Param), push(eb, y.Param))
	case Pi:
		y, ok := b.(Pi)
		return ok && alphaEqual(x.Domain, y.Domain, ea, eb) &&
			alphaEqual(x.Codomain, y.Codomain, push(ea, x.Param), push(eb, y.Param))
	case Sigma:
		y, ok := b.(Sigma)
		return ok && alphaEqual(x.First, y.First, ea, eb) &&
			alphaEqual(x.Second, y.Second, push(ea, x.Param), push(eb, y.Param))
	case Forall:
		y, ok := b.(Forall)
		return ok && alphaEqualOpt(x.Kind, y.Kind, ea, eb) &&
			alphaEqual(x.Body, y.Body, push(ea, x.Param), push(eb, y.Param))
	case TypeLambda:
		y, ok := b.(TypeLambda)
		return ok && alphaEqualOpt(x.Kind, y.Kind, ea, eb) &&
			alphaEqual(x.Body, y.Body, push(ea, x.Param), push(eb, y.Param))
	case TypeApply:
		y, ok := b.(TypeApply)
		return ok && alphaEqual(x.Func, y.Func, ea, eb) && alphaEqual(x.TypeArg, y.TypeArg, ea, eb)
	case Pair:
		y, ok := b.(Pair)
		return ok && alphaEqual(x.First, y.First, ea, eb) && alphaEqual(x.Second, y.Second, ea, eb)
	case Fst:
		y, ok := b.(Fst)
		return ok && alphaEqual(x.Pair, y.Pair, ea, eb)
	case Snd:
		y, ok := b.(Snd)
		return ok && alphaEqual(x.Pair, y.Pair, ea, eb)
	case Sort:
		y, ok := b.(Sort)
		return ok && x.Level == y.Level
	case Prop:
		_, ok := b.(Prop)
		return ok
	case Constructor:
		y, ok := b.(Constructor)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !alphaEqual(x.Args[i], y.Args[i], ea, eb) {
				return false
			}
		}
		return true
	case Match:
		y, ok := b.(Match)
		if !ok || len(x.Clauses) != len(y.Clauses) {
			return false
		}
		if !alphaEqual(x.Scrutinee, y.Scrutinee, ea, eb) || !alphaEqualOpt(x.Motive, y.Motive, ea, eb) {
			return false
		}
		for i := range x.Clauses {
			va, vb, ok := patternsAlign(x.Clauses[i].Pattern, y.Clauses[i].Pattern)
			if !ok {
				return false
			}
			ia, ib := ea, eb
			for j := range va {
				ia, ib = push(ia, va[j]), push(ib, vb[j])
			}
			if !alphaEqual(x.Clauses[i].Body, y.Clauses[i].Body, ia, ib) {
				return false
			}
		}
		return true
	case Annotated:
		y, ok := b.(Annotated)
		return ok && alphaEqual(x.Expr, y.Expr, ea, eb) && alphaEqual(x.Type, y.Type, ea, eb)
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x.Value == y.Value
	case Number:
		y, ok := b.(Number)
		return ok && x.Value == y.Value
	case IdType:
		y, ok := b.(IdType)
		return ok && alphaEqual(x.Type, y.Type, ea, eb) &&
			alphaEqual(x.Left, y.Left, ea, eb) && alphaEqual(x.Right, y.Right, ea, eb)
	case Refl:
		y, ok := b.(Refl)
		return ok && alphaEqual(x.Point, y.Point, ea, eb)
	case PathInd:
		y, ok := b.(PathInd)
		return ok && alphaEqual(x.Motive, y.Motive, ea, eb) &&
			alphaEqual(x.Base, y.Base, ea, eb) && alphaEqual(x.Path, y.Path, ea, eb)
	default:
		return false
	}
}

// patternsAlign checks that two patterns have the same shape and returns
// their variables position by position.
func patternsAlign(a, b Pattern) ([]string, []string, bool) {
	switch x := a.(type) {
	case WildcardPattern:
		_, ok := b.(WildcardPattern)
		return nil, nil, ok
	case VarPattern:
		y, ok := b.(VarPattern)
		if !ok {
			return nil, nil, false
		}
		return []string{x.Name}, []string{y.Name}, true
	case ConstructorPattern:
		y, ok := b.(ConstructorPattern)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return nil, nil, false
		}
		var va, vb []string
		for i := range x.Args {
			sa, sb, ok := patternsAlign(x.Args[i], y.Args[i])
			if !ok {
				return nil, nil, false
			}
			va = append(va, sa...)
			vb = append(vb, sb...)
		}
		return va, vb, true
	default:
		return nil, nil, false
	}
}
