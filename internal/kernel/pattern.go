package kernel

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// PatternMatcher selects the clause of a match that applies to a value.
type PatternMatcher struct {
	ScrutineeType Term
	Clauses       []Clause

	signature    *Signature
	config       UnifierConfig
	substitution *Substitution
}

// NewPatternMatcher creates a matcher over clauses. scrutineeType may be nil
// when only FindMatch is needed.
func NewPatternMatcher(scrutineeType Term, clauses []Clause) *PatternMatcher {
	return &PatternMatcher{
		ScrutineeType: scrutineeType,
		Clauses:       clauses,
		config:        DefaultUnifierConfig(),
		substitution:  NewSubstitution(),
	}
}

// WithSignature returns a copy of m that recognises the constructors of sig.
// Without a signature every constant-headed spine counts as a constructor
// application.
func (m *PatternMatcher) WithSignature(sig *Signature) *PatternMatcher {
	out := *m
	out.signature = sig
	return &out
}

// WithUnifierConfig returns a copy of m that unifies pattern variables with
// the given bounds and reducer.
func (m *PatternMatcher) WithUnifierConfig(cfg UnifierConfig) *PatternMatcher {
	out := *m
	out.config = cfg
	return &out
}

// Substitution returns the bindings made by the last successful FindMatch.
func (m *PatternMatcher) Substitution() *Substitution {
	return m.substitution
}

// FindMatch matches scrutinee against a list of clauses with no signature.
func FindMatch(scrutinee Term, clauses []Clause) (Term, error) {
	return NewPatternMatcher(nil, clauses).FindMatch(scrutinee)
}

// FindMatch tries the clauses in order and returns the body of the first
// one whose pattern matches, with the pattern's bindings applied.
func (m *PatternMatcher) FindMatch(scrutinee Term) (Term, error) {
	scrutineeVars := FreeVars(scrutinee)

	for _, clause := range m.Clauses {
		pattern, body := freshenClause(clause, scrutineeVars)

		constraints, ok, err := m.collect(pattern, scrutinee, nil)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		vars := set.From[string](PatternVars(pattern))
		cfg := m.config
		cfg.Rigid = nil
		cfg.Flexible = vars.Contains
		subst, err := NewUnifier(cfg).Unify(constraints)
		if err != nil {
			if kerrors.HasCode(err, kerrors.CodeBoundExceeded) {
				return nil, err
			}
			// Non-linear pattern variables bound to different values.
			continue
		}

		m.substitution = subst
		return subst.Apply(body), nil
	}

	return nil, kerrors.NoMatchingClause(scrutinee)
}

// freshenClause renames pattern variables that clash with free variables
// of the scrutinee.
func freshenClause(c Clause, avoid *set.Set[string]) (Pattern, Term) {
	pattern, body := c.Pattern, c.Body
	vars := PatternVars(pattern)
	for _, v := range vars {
		if !avoid.Contains(v) {
			continue
		}
		taken := avoid.Copy()
		taken.InsertSet(FreeVars(body))
		taken.InsertSlice(PatternVars(pattern))
		fresh := FreshName(v, taken)
		pattern = RenamePattern(pattern, v, fresh)
		body = Rename(body, v, fresh)
	}
	return pattern, body
}

// collect matches the constructor structure of p against value and returns
// the equations that pattern variables must satisfy.
func (m *PatternMatcher) collect(p Pattern, value Term, acc []Constraint) ([]Constraint, bool, error) {
	switch x := p.(type) {
	case WildcardPattern:
		return acc, true, nil

	case VarPattern:
		return append(acc, Constraint{Left: Var{Name: x.Name}, Right: value}), true, nil

	case ConstructorPattern:
		name, args, ok := m.view(value)
		if !ok {
			return nil, false, kerrors.StuckScrutinee(value)
		}
		if name != x.Name {
			return nil, false, nil
		}
		if len(args) != len(x.Args) {
			return nil, false, kerrors.ConstructorMismatch(
				fmt.Sprintf("%s with %d arguments", x.Name, len(x.Args)),
				fmt.Sprintf("%s with %d arguments", name, len(args)))
		}
		for i, sub := range x.Args {
			var matched bool
			var err error
			acc, matched, err = m.collect(sub, args[i], acc)
			if err != nil || !matched {
				return nil, matched, err
			}
		}
		return acc, true, nil

	default:
		return nil, false, kerrors.UnsupportedTerm("pattern matcher", p)
	}
}

// view returns the constructor name and field arguments of a value,
// dropping the inductive parameters carried by constructor terms.
func (m *PatternMatcher) view(t Term) (string, []Term, bool) {
	name, args, ok := ConstructorView(t)
	if !ok {
		return "", nil, false
	}
	if m.signature == nil {
		return name, args, true
	}

	info, known := m.signature.Constructor(name)
	if !known {
		if _, literal := t.(Constructor); literal {
			return name, args, true
		}
		return "", nil, false
	}
	np := len(info.Inductive.Params)
	if len(args) < np {
		return "", nil, false
	}
	return name, args[np:], true
}

// ====== Exhaustiveness ======

// IsExhaustive reports whether every value of the scrutinee type is covered
// by some clause. When it is not, the returned pattern is a witness of a
// value no clause matches. Nested patterns are handled by the usefulness
// algorithm over the clause matrix.
func (m *PatternMatcher) IsExhaustive(sig *Signature) (bool, Pattern, error) {
	rows := make([][]Pattern, len(m.Clauses))
	for i, c := range m.Clauses {
		rows[i] = []Pattern{c.Pattern}
	}

	u := &usefulness{sig: sig}
	witness, err := u.useful(rows, []string{u.inductiveOf(m.ScrutineeType)})
	if err != nil {
		return false, nil, err
	}
	if witness == nil {
		return true, nil, nil
	}
	return false, witness[0], nil
}

// CheckExhaustive is IsExhaustive returning a NonExhaustive error that
// names the missing pattern.
func (m *PatternMatcher) CheckExhaustive(sig *Signature) error {
	ok, missing, err := m.IsExhaustive(sig)
	if err != nil {
		return err
	}
	if !ok {
		return kerrors.NonExhaustive(show(m.ScrutineeType), missing)
	}
	return nil
}

// RedundantClauses returns the indices of clauses that can never be
// selected because earlier clauses cover every value they match.
func (m *PatternMatcher) RedundantClauses(sig *Signature) ([]int, error) {
	u := &usefulness{sig: sig}
	types := []string{u.inductiveOf(m.ScrutineeType)}

	var redundant []int
	var rows [][]Pattern
	for i, c := range m.Clauses {
		w, err := u.usefulVector(rows, []Pattern{c.Pattern}, types)
		if err != nil {
			return nil, err
		}
		if !w {
			redundant = append(redundant, i)
		}
		rows = append(rows, []Pattern{c.Pattern})
	}
	return redundant, nil
}

type usefulness struct {
	sig *Signature
}

// inductiveOf returns the name of the inductive family heading t, or "".
func (u *usefulness) inductiveOf(t Term) string {
	if t == nil {
		return ""
	}
	head, _ := Spine(t)
	c, ok := head.(Const)
	if !ok {
		return ""
	}
	if _, ok := u.sig.Inductive(c.Name); !ok {
		return ""
	}
	return c.Name
}

func (u *usefulness) constructor(name string) (*ConstructorInfo, error) {
	info, ok := u.sig.Constructor(name)
	if !ok {
		return nil, kerrors.ConstructorMismatch("a declared constructor", name)
	}
	return info, nil
}

// fieldTypes returns the inductive family of each field of a constructor.
func (u *usefulness) fieldTypes(info *ConstructorInfo) []string {
	doms, _ := piTelescope(info.Decl.Type)
	out := make([]string, len(doms))
	for i, d := range doms {
		out[i] = u.inductiveOf(d)
	}
	return out
}

func isDefault(p Pattern) bool {
	switch p.(type) {
	case WildcardPattern, VarPattern:
		return true
	default:
		return false
	}
}

func wildcards(n int) []Pattern {
	out := make([]Pattern, n)
	for i := range out {
		out[i] = WildcardPattern{}
	}
	return out
}

// specialize keeps the rows compatible with constructor c (of k fields) and
// replaces their first column by c's sub-patterns.
func specialize(rows [][]Pattern, c string, k int) [][]Pattern {
	var out [][]Pattern
	for _, row := range rows {
		switch p := row[0].(type) {
		case ConstructorPattern:
			if p.Name != c {
				continue
			}
			next := append(append([]Pattern(nil), p.Args...), row[1:]...)
			out = append(out, next)
		default:
			next := append(wildcards(k), row[1:]...)
			out = append(out, next)
		}
	}
	return out
}

func defaultRows(rows [][]Pattern) [][]Pattern {
	var out [][]Pattern
	for _, row := range rows {
		if isDefault(row[0]) {
			out = append(out, row[1:])
		}
	}
	return out
}

// useful returns a vector of patterns matched by no row, or nil when the
// rows cover every value of the column types.
func (u *usefulness) useful(rows [][]Pattern, types []string) ([]Pattern, error) {
	if len(types) == 0 {
		if len(rows) == 0 {
			return []Pattern{}, nil
		}
		return nil, nil
	}

	family, seen, err := u.column(rows, types[0])
	if err != nil {
		return nil, err
	}

	decl, known := u.sig.Inductive(family)
	if !known {
		w, err := u.useful(defaultRows(rows), types[1:])
		if w == nil || err != nil {
			return nil, err
		}
		return append([]Pattern{WildcardPattern{}}, w...), nil
	}

	complete := len(seen) == len(decl.Constructors)
	if complete {
		for _, c := range decl.Constructors {
			info, _ := u.sig.Constructor(c.Name)
			k := info.Fields()
			sub := append(u.fieldTypes(info), types[1:]...)
			w, err := u.useful(specialize(rows, c.Name, k), sub)
			if err != nil {
				return nil, err
			}
			if w != nil {
				head := ConstructorPattern{Name: c.Name, Args: w[:k]}
				return append([]Pattern{head}, w[k:]...), nil
			}
		}
		return nil, nil
	}

	w, err := u.useful(defaultRows(rows), types[1:])
	if w == nil || err != nil {
		return nil, err
	}
	var head Pattern = WildcardPattern{}
	if len(seen) > 0 {
		for _, c := range decl.Constructors {
			if seen[c.Name] {
				continue
			}
			info, _ := u.sig.Constructor(c.Name)
			head = ConstructorPattern{Name: c.Name, Args: wildcards(info.Fields())}
			break
		}
	}
	return append([]Pattern{head}, w...), nil
}

// column collects the constructors used in the first column of rows and
// the inductive family they belong to.
func (u *usefulness) column(rows [][]Pattern, family string) (string, map[string]bool, error) {
	seen := make(map[string]bool)
	for _, row := range rows {
		cp, ok := row[0].(ConstructorPattern)
		if !ok {
			continue
		}
		info, err := u.constructor(cp.Name)
		if err != nil {
			return "", nil, err
		}
		if family == "" {
			family = info.Inductive.Name
		}
		if info.Inductive.Name != family {
			return "", nil, kerrors.ConstructorMismatch(family, cp.Name)
		}
		if len(cp.Args) != info.Fields() {
			return "", nil, kerrors.ConstructorMismatch(
				fmt.Sprintf("%s with %d arguments", cp.Name, info.Fields()),
				fmt.Sprintf("%s with %d arguments", cp.Name, len(cp.Args)))
		}
		seen[cp.Name] = true
	}
	return family, seen, nil
}

// usefulVector reports whether vec matches some value no row matches.
func (u *usefulness) usefulVector(rows [][]Pattern, vec []Pattern, types []string) (bool, error) {
	if len(vec) == 0 {
		return len(rows) == 0, nil
	}

	if cp, ok := vec[0].(ConstructorPattern); ok {
		info, err := u.constructor(cp.Name)
		if err != nil {
			return false, err
		}
		k := info.Fields()
		if len(cp.Args) != k {
			return false, kerrors.ConstructorMismatch(
				fmt.Sprintf("%s with %d arguments", cp.Name, k),
				fmt.Sprintf("%s with %d arguments", cp.Name, len(cp.Args)))
		}
		next := append(append([]Pattern(nil), cp.Args...), vec[1:]...)
		sub := append(u.fieldTypes(info), types[1:]...)
		return u.usefulVector(specialize(rows, cp.Name, k), next, sub)
	}

	family, seen, err := u.column(rows, types[0])
	if err != nil {
		return false, err
	}
	decl, known := u.sig.Inductive(family)
	if known && len(seen) == len(decl.Constructors) {
		for _, c := range decl.Constructors {
			info, _ := u.sig.Constructor(c.Name)
			k := info.Fields()
			next := append(wildcards(k), vec[1:]...)
			sub := append(u.fieldTypes(info), types[1:]...)
			ok, err := u.usefulVector(specialize(rows, c.Name, k), next, sub)
			if err != nil || ok {
				return ok, err
			}
		}
		return false, nil
	}
	return u.usefulVector(defaultRows(rows), vec[1:], types[1:])
}
