package kernel

import (
	"fmt"
	"sort"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Param is a named, typed parameter of an inductive family.
type Param struct {
	Name string
	Type Term
}

// ConstructorDecl declares a constructor. Type is the constructor's type
// with the family's parameters in scope, e.g. for Vec A:
//
//	cons : Π(n:Nat). A → Vec A n → Vec A (succ n)
type ConstructorDecl struct {
	Name string
	Type Term
}

// InductiveDecl declares an inductive family. Arity is the type of the
// family once its parameters are applied: Type for plain data types,
// Nat → Type for a family indexed by naturals.
type InductiveDecl struct {
	Name         string
	Params       []Param
	Arity        Term
	Constructors []ConstructorDecl
}

// FullType returns Π params. Arity.
func (d *InductiveDecl) FullType() Term {
	return abstractParams(d.Params, d.Arity)
}

// Indices returns the number of indices after the parameters.
func (d *InductiveDecl) Indices() int {
	n, _ := piTelescope(d.Arity)
	return len(n)
}

// Constructor returns the declaration of the named constructor.
func (d *InductiveDecl) Constructor(name string) (ConstructorDecl, bool) {
	for _, c := range d.Constructors {
		if c.Name == name {
			return c, true
		}
	}
	return ConstructorDecl{}, false
}

// ConstructorInfo locates a constructor inside its inductive family.
type ConstructorInfo struct {
	Inductive *InductiveDecl
	Decl      ConstructorDecl
	Index     int
}

// FullType returns the constructor type abstracted over the family's parameters.
func (c *ConstructorInfo) FullType() Term {
	return abstractParams(c.Inductive.Params, c.Decl.Type)
}

// Fields returns the number of arguments the constructor takes after the parameters.
func (c *ConstructorInfo) Fields() int {
	doms, _ := piTelescope(c.Decl.Type)
	return len(doms)
}

// Definition is a global constant with a body that reduces by delta.
type Definition struct {
	Name string
	Type Term
	Body Term
}

// Signature holds the global declarations visible to a checker: inductive
// families, definitions and axioms. The dependency map between inductive
// families is checked for well-foundedness on every addition.
type Signature struct {
	inductives   map[string]*InductiveDecl
	order        []string
	constructors map[string]*ConstructorInfo
	definitions  map[string]Definition
	axioms       map[string]Term
	deps         map[string][]string
	block        map[string]int
	blocks       int
}

// NewSignature creates an empty signature.
func NewSignature() *Signature {
	return &Signature{
		inductives:   make(map[string]*InductiveDecl),
		constructors: make(map[string]*ConstructorInfo),
		definitions:  make(map[string]Definition),
		axioms:       make(map[string]Term),
		deps:         make(map[string][]string),
		block:        make(map[string]int),
	}
}

// BuiltinSignature returns a signature declaring Bool, Unit and Nat.
func BuiltinSignature() *Signature {
	sig := NewSignature()
	builtins := []InductiveDecl{
		{
			Name:  "Bool",
			Arity: Type0,
			Constructors: []ConstructorDecl{
				{Name: "true", Type: BoolType},
				{Name: "false", Type: BoolType},
			},
		},
		{
			Name:         "Unit",
			Arity:        Type0,
			Constructors: []ConstructorDecl{{Name: "unit", Type: UnitType}},
		},
		{
			Name:  "Nat",
			Arity: Type0,
			Constructors: []ConstructorDecl{
				{Name: "zero", Type: NatType},
				{Name: "succ", Type: Arrow(NatType, NatType)},
			},
		},
	}
	for _, d := range builtins {
		if err := sig.AddInductive(d); err != nil {
			panic(fmt.Sprintf("builtin signature: %v", err))
		}
	}
	return sig
}

// Clone returns an independent copy of s. Declarations are shared; they
// are never modified after being added.
func (s *Signature) Clone() *Signature {
	out := NewSignature()
	for k, v := range s.inductives {
		out.inductives[k] = v
	}
	out.order = append(out.order, s.order...)
	for k, v := range s.constructors {
		out.constructors[k] = v
	}
	for k, v := range s.definitions {
		out.definitions[k] = v
	}
	for k, v := range s.axioms {
		out.axioms[k] = v
	}
	for k, v := range s.deps {
		out.deps[k] = v
	}
	for k, v := range s.block {
		out.block[k] = v
	}
	out.blocks = s.blocks
	return out
}

func (s *Signature) declared(name string) bool {
	if _, ok := s.inductives[name]; ok {
		return true
	}
	if _, ok := s.constructors[name]; ok {
		return true
	}
	if _, ok := s.definitions[name]; ok {
		return true
	}
	_, ok := s.axioms[name]
	return ok
}

// AddInductive declares a single (possibly recursive) inductive family.
func (s *Signature) AddInductive(decl InductiveDecl) error {
	return s.AddMutual(decl)
}

// AddMutual declares a block of mutually recursive inductive families.
// Families of one block may refer to each other; any other cycle in the
// dependency map is rejected.
func (s *Signature) AddMutual(decls ...InductiveDecl) error {
	names := make(map[string]bool, len(decls))
	for _, d := range decls {
		if names[d.Name] || s.declared(d.Name) {
			return kerrors.DuplicateDeclaration(d.Name)
		}
		names[d.Name] = true
		for _, c := range d.Constructors {
			if names[c.Name] || s.declared(c.Name) {
				return kerrors.DuplicateDeclaration(c.Name)
			}
			names[c.Name] = true
		}
	}

	for i := range decls {
		if err := checkConstructors(&decls[i], names); err != nil {
			return err
		}
	}

	trial := s.Clone()
	trial.blocks++
	for i := range decls {
		d := decls[i]
		trial.inductives[d.Name] = &d
		trial.order = append(trial.order, d.Name)
		trial.block[d.Name] = trial.blocks
		for j, c := range d.Constructors {
			trial.constructors[c.Name] = &ConstructorInfo{Inductive: &d, Decl: c, Index: j}
		}
		trial.deps[d.Name] = referencedNames(&d)
	}
	if err := trial.CheckWellFounded(); err != nil {
		return err
	}

	*s = *trial
	return nil
}

// Define adds a definition that unfolds by delta reduction.
func (s *Signature) Define(name string, ty, body Term) error {
	if s.declared(name) {
		return kerrors.DuplicateDeclaration(name)
	}
	s.definitions[name] = Definition{Name: name, Type: ty, Body: body}
	return nil
}

// Axiom adds a constant with a type and no body.
func (s *Signature) Axiom(name string, ty Term) error {
	if s.declared(name) {
		return kerrors.DuplicateDeclaration(name)
	}
	s.axioms[name] = ty
	return nil
}

// Inductive returns the declaration of an inductive family.
func (s *Signature) Inductive(name string) (*InductiveDecl, bool) {
	if s == nil {
		return nil, false
	}
	d, ok := s.inductives[name]
	return d, ok
}

// Inductives returns the declared families in declaration order.
func (s *Signature) Inductives() []*InductiveDecl {
	out := make([]*InductiveDecl, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.inductives[n])
	}
	return out
}

// Constructor returns the constructor with the given name.
func (s *Signature) Constructor(name string) (*ConstructorInfo, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := s.constructors[name]
	return c, ok
}

// Definition returns the definition with the given name.
func (s *Signature) Definition(name string) (Definition, bool) {
	if s == nil {
		return Definition{}, false
	}
	d, ok := s.definitions[name]
	return d, ok
}

// AxiomType returns the type of an axiom.
func (s *Signature) AxiomType(name string) (Term, bool) {
	if s == nil {
		return nil, false
	}
	t, ok := s.axioms[name]
	return t, ok
}

// Delta unfolds definitions; it is suitable for Reduction.WithDelta.
func (s *Signature) Delta(name string) (Term, bool) {
	d, ok := s.Definition(name)
	if !ok {
		return nil, false
	}
	return d.Body, true
}

// TypeOfConst returns the type of a global constant of any kind.
func (s *Signature) TypeOfConst(name string) (Term, bool) {
	if s == nil {
		return nil, false
	}
	if d, ok := s.inductives[name]; ok {
		return d.FullType(), true
	}
	if c, ok := s.constructors[name]; ok {
		return c.FullType(), true
	}
	if d, ok := s.definitions[name]; ok {
		return d.Type, true
	}
	t, ok := s.axioms[name]
	return t, ok
}

// ====== Well-formedness ======

// CheckWellFounded rejects dependency cycles between inductive families
// that were not declared together in one mutual block.
func (s *Signature) CheckWellFounded() error {
	for _, scc := range s.stronglyConnected() {
		if len(scc) < 2 {
			continue
		}
		block := s.block[scc[0]]
		for _, name := range scc[1:] {
			if s.block[name] != block {
				sort.Strings(scc)
				return kerrors.IllFormedInductive(scc[0],
					fmt.Sprintf("dependency cycle %v is not declared as a mutual block", scc))
			}
		}
	}
	return nil
}

// stronglyConnected runs Tarjan's algorithm over the dependency map.
func (s *Signature) stronglyConnected() [][]string {
	index := make(map[string]int)
	low := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var out [][]string
	next := 0

	var visit func(v string)
	visit = func(v string) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range s.deps[v] {
			if _, ok := s.inductives[w]; !ok {
				continue
			}
			if _, seen := index[w]; !seen {
				visit(w)
				low[v] = min(low[v], low[w])
			} else if onStack[w] {
				low[v] = min(low[v], index[w])
			}
		}

		if low[v] == index[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			out = append(out, scc)
		}
	}

	for _, name := range s.order {
		if _, seen := index[name]; !seen {
			visit(name)
		}
	}
	return out
}

func referencedNames(d *InductiveDecl) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(t Term)
	walk = func(t Term) {
		if c, ok := t.(Const); ok {
			if c.Name != d.Name && !seen[c.Name] {
				seen[c.Name] = true
				out = append(out, c.Name)
			}
			return
		}
		_, _ = MapChildren(t, func(x Term) (Term, error) {
			walk(x)
			return x, nil
		})
	}
	for _, p := range d.Params {
		walk(p.Type)
	}
	walk(d.Arity)
	for _, c := range d.Constructors {
		walk(c.Type)
	}
	sort.Strings(out)
	return out
}

// checkConstructors verifies that each constructor returns the family it
// belongs to and that the families of the block occur strictly positively.
func checkConstructors(d *InductiveDecl, block map[string]bool) error {
	params := make(map[string]bool, len(d.Params))
	for _, p := range d.Params {
		if params[p.Name] {
			return kerrors.IllFormedInductive(d.Name, fmt.Sprintf("parameter %s is declared twice", p.Name))
		}
		params[p.Name] = true
	}

	want := len(d.Params) + d.Indices()
	for _, c := range d.Constructors {
		doms, result := piTelescope(c.Type)

		head, args := Spine(result)
		hc, ok := head.(Const)
		if !ok || hc.Name != d.Name || len(args) != want {
			return kerrors.IllFormedInductive(d.Name,
				fmt.Sprintf("constructor %s must return %s applied to %d arguments, got %s", c.Name, d.Name, want, result))
		}
		for i, p := range d.Params {
			if v, ok := args[i].(Var); !ok || v.Name != p.Name {
				return kerrors.IllFormedInductive(d.Name,
					fmt.Sprintf("constructor %s must keep parameter %s uniform", c.Name, p.Name))
			}
		}
		for _, a := range args {
			if mentionsAny(a, block) {
				return kerrors.IllFormedInductive(d.Name,
					fmt.Sprintf("constructor %s has a recursive occurrence in an index", c.Name))
			}
		}

		for _, dom := range doms {
			if !strictlyPositive(dom, block) {
				return kerrors.IllFormedInductive(d.Name,
					fmt.Sprintf("non strictly positive occurrence in argument %s of %s", dom, c.Name))
			}
		}
	}
	return nil
}

func strictlyPositive(t Term, block map[string]bool) bool {
	if !mentionsAny(t, block) {
		return true
	}
	switch x := t.(type) {
	case Pi:
		return !mentionsAny(x.Domain, block) && strictlyPositive(x.Codomain, block)
	default:
		head, args := Spine(t)
		c, ok := head.(Const)
		if !ok || !block[c.Name] {
			return false
		}
		for _, a := range args {
			if mentionsAny(a, block) {
				return false
			}
		}
		return true
	}
}

func mentionsAny(t Term, names map[string]bool) bool {
	found := false
	var walk func(t Term)
	walk = func(t Term) {
		if found || t == nil {
			return
		}
		switch x := t.(type) {
		case Const:
			found = names[x.Name]
			return
		case Constructor:
			if names[x.Name] {
				found = true
				return
			}
		}
		_, _ = MapChildren(t, func(c Term) (Term, error) {
			walk(c)
			return c, nil
		})
	}
	walk(t)
	return found
}

// piTelescope splits Π(x1:A1)...Π(xn:An). B into its domains and B.
func piTelescope(t Term) ([]Term, Term) {
	var doms []Term
	for {
		p, ok := t.(Pi)
		if !ok {
			return doms, t
		}
		doms = append(doms, p.Domain)
		t = p.Codomain
	}
}

// PiTelescope splits Π(x1:A1)...Π(xn:An). B into its binders and B.
func PiTelescope(t Term) ([]Pi, Term) {
	var binders []Pi
	for {
		p, ok := t.(Pi)
		if !ok {
			return binders, t
		}
		binders = append(binders, p)
		t = p.Codomain
	}
}

func abstractParams(params []Param, body Term) Term {
	out := body
	for i := len(params) - 1; i >= 0; i-- {
		out = Pi{Param: params[i].Name, Domain: params[i].Type, Codomain: out}
	}
	return out
}
