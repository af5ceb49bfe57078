// Package kernel implements the building blocks shared by every calculus:
// the term grammar, contexts, substitution, reduction, first- and
// higher-order unification, inductive signatures and dependent pattern
// matching.
package kernel

import (
	"fmt"
	"strings"
)

// ====== Terms ======

// Term is an expression of the object language. Depending on the calculus a
// term denotes a value, a function, a type, a kind or a proof.
type Term interface {
	String() string
	isTerm()
}

// Var is a variable occurrence: bound, context-bound or a unification variable.
type Var struct {
	Name string
}

// Const is a rigid global name: base types, inductive types, constructors in
// spine form, axioms, definitions and theorems.
type Const struct {
	Name string
}

// Apply is function application.
type Apply struct {
	Func Term
	Arg  Term
}

// Lambda is abstraction. ParamType is nil for untyped lambdas.
type Lambda struct {
	Param     string
	ParamType Term
	Body      Term
}

// Pi is the dependent function type Πx:A. B. An empty Param denotes A → B.
type Pi struct {
	Param    string
	Domain   Term
	Codomain Term
}

// Sigma is the dependent pair type Σx:A. B.
type Sigma struct {
	Param  string
	First  Term
	Second Term
}

// Pair introduces a Sigma.
type Pair struct {
	First  Term
	Second Term
}

// Fst projects the first component of a pair.
type Fst struct {
	Pair Term
}

// Snd projects the second component of a pair.
type Snd struct {
	Pair Term
}

// Forall is a universal type ∀α:κ. T. Kind is nil when unkinded.
type Forall struct {
	Param string
	Kind  Term
	Body  Term
}

// TypeLambda abstracts over a type variable: Λα:κ. t.
type TypeLambda struct {
	Param string
	Kind  Term
	Body  Term
}

// TypeApply instantiates a polymorphic term: t [T].
type TypeApply struct {
	Func    Term
	TypeArg Term
}

// Sort is the universe Type_Level.
type Sort struct {
	Level int
}

// Prop is the impredicative sort of propositions.
type Prop struct{}

// Constructor is a saturated constructor application.
type Constructor struct {
	Name string
	Args []Term
}

// Match eliminates an inductive value by cases. Motive is optional and, when
// present, abstracts the result type over the scrutinee's indices and itself.
type Match struct {
	Scrutinee Term
	Motive    Term
	Clauses   []Clause
}

// Annotated ascribes a type to a term.
type Annotated struct {
	Expr Term
	Type Term
}

// Unit is the unit value.
type Unit struct{}

// Bool is a boolean literal.
type Bool struct {
	Value bool
}

// Number is a natural-number literal.
type Number struct {
	Value int64
}

// IdType is the identity type Id_A(a, b).
type IdType struct {
	Type  Term
	Left  Term
	Right Term
}

// Refl is the canonical path refl(a) : Id_A(a, a).
type Refl struct {
	Point Term
}

// PathInd is path induction J(C, d, p).
type PathInd struct {
	Motive Term
	Base   Term
	Path   Term
}

func (Var) isTerm()         {}
func (Const) isTerm()       {}
func (Apply) isTerm()       {}
func (Lambda) isTerm()      {}
func (Pi) isTerm()          {}
func (Sigma) isTerm()       {}
func (Pair) isTerm()        {}
func (Fst) isTerm()         {}
func (Snd) isTerm()         {}
func (Forall) isTerm()      {}
func (TypeLambda) isTerm()  {}
func (TypeApply) isTerm()   {}
func (Sort) isTerm()        {}
func (Prop) isTerm()        {}
func (Constructor) isTerm() {}
func (Match) isTerm()       {}
func (Annotated) isTerm()   {}
func (Unit) isTerm()        {}
func (Bool) isTerm()        {}
func (Number) isTerm()      {}
func (IdType) isTerm()      {}
func (Refl) isTerm()        {}
func (PathInd) isTerm()     {}

// ====== Patterns ======

// Pattern is the left-hand side of a match clause.
type Pattern interface {
	String() string
	isPattern()
}

// VarPattern matches anything and binds it.
type VarPattern struct {
	Name string
}

// ConstructorPattern matches a constructor application.
type ConstructorPattern struct {
	Name string
	Args []Pattern
}

// WildcardPattern matches anything without binding.
type WildcardPattern struct{}

func (VarPattern) isPattern()         {}
func (ConstructorPattern) isPattern() {}
func (WildcardPattern) isPattern()    {}

func (p VarPattern) String() string { return p.Name }

func (p ConstructorPattern) String() string {
	if len(p.Args) == 0 {
		return p.Name
	}

	args := make([]string, len(p.Args))
	for i, a := range p.Args {
		args[i] = a.String()
	}

	return fmt.Sprintf("%s(%s)", p.Name, strings.Join(args, ", "))
}

func (WildcardPattern) String() string { return "_" }

// Clause pairs a pattern with its right-hand side.
type Clause struct {
	Pattern Pattern
	Body    Term
}

func (c Clause) String() string {
	return fmt.Sprintf("%s => %s", c.Pattern, c.Body)
}

// PatternVars lists the variables bound by p in left-to-right order.
func PatternVars(p Pattern) []string {
	switch p := p.(type) {
	case VarPattern:
		return []string{p.Name}
	case ConstructorPattern:
		var out []string
		for _, a := range p.Args {
			out = append(out, PatternVars(a)...)
		}
		return out
	default:
		return nil
	}
}

// ====== Convenience constructors ======

// Arrow builds the non-dependent function type from → to.
func Arrow(from, to Term) Term {
	return Pi{Domain: from, Codomain: to}
}

// Arrows builds t1 → t2 → ... → result.
func Arrows(result Term, params ...Term) Term {
	out := result
	for i := len(params) - 1; i >= 0; i-- {
		out = Arrow(params[i], out)
	}
	return out
}

// App builds the left-nested application f a1 ... an.
func App(f Term, args ...Term) Term {
	out := f
	for _, a := range args {
		out = Apply{Func: out, Arg: a}
	}
	return out
}

// Lams builds λx1 ... λxn. body with untyped parameters.
func Lams(params []string, body Term) Term {
	out := body
	for i := len(params) - 1; i >= 0; i-- {
		out = Lambda{Param: params[i], Body: out}
	}
	return out
}

// Type0 is the lowest universe.
var Type0 = Sort{Level: 0}

// Builtin base types.
var (
	BoolType = Const{Name: "Bool"}
	UnitType = Const{Name: "Unit"}
	NatType  = Const{Name: "Nat"}
	IntType  = Const{Name: "Int"}
)

// ====== Tagged-union views ======

// Spine decomposes f a1 ... an into its head and arguments. Saturated
// constructors are viewed as a Const head applied to their arguments.
func Spine(t Term) (Term, []Term) {
	var args []Term
	for {
		switch x := t.(type) {
		case Apply:
			args = append(args, x.Arg)
			t = x.Func
		case Constructor:
			full := make([]Term, 0, len(x.Args)+len(args))
			full = append(full, x.Args...)
			for i := len(args) - 1; i >= 0; i-- {
				full = append(full, args[i])
			}
			return Const{Name: x.Name}, full
		default:
			for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
				args[i], args[j] = args[j], args[i]
			}
			return t, args
		}
	}
}

// ConstructorView reports the constructor name and arguments of a value in
// constructor form, including literals.
func ConstructorView(t Term) (string, []Term, bool) {
	switch x := t.(type) {
	case Bool:
		if x.Value {
			return "true", nil, true
		}
		return "false", nil, true
	case Unit:
		return "unit", nil, true
	case Number:
		if x.Value <= 0 {
			return "zero", nil, true
		}
		return "succ", []Term{Number{Value: x.Value - 1}}, true
	}

	head, args := Spine(t)
	if c, ok := head.(Const); ok {
		return c.Name, args, true
	}
	return "", nil, false
}

// FoldNumerals rewrites zero and succ applied to numerals into Number
// literals, bottom-up, so both spellings of a natural compare equal.
func FoldNumerals(t Term) Term {
	out, _ := MapChildren(t, func(x Term) (Term, error) {
		return FoldNumerals(x), nil
	})
	switch x := out.(type) {
	case Const:
		if x.Name == "zero" {
			return Number{}
		}
	case Constructor:
		if x.Name == "zero" && len(x.Args) == 0 {
			return Number{}
		}
		if x.Name == "succ" && len(x.Args) == 1 {
			if n, ok := x.Args[0].(Number); ok {
				return Number{Value: n.Value + 1}
			}
		}
	case Apply:
		if h, ok := x.Func.(Const); ok && h.Name == "succ" {
			if n, ok := x.Arg.(Number); ok {
				return Number{Value: n.Value + 1}
			}
		}
	}
	return out
}

// AsPi projects t onto a Pi type.
func AsPi(t Term) (Pi, bool) {
	p, ok := t.(Pi)
	return p, ok
}

// AsSort projects t onto a universe, treating Prop as level 0.
func AsSort(t Term) (level int, isProp bool, ok bool) {
	switch s := t.(type) {
	case Sort:
		return s.Level, false, true
	case Prop:
		return 0, true, true
	default:
		return 0, false, false
	}
}

// AsForall projects t onto a universal type.
func AsForall(t Term) (Forall, bool) {
	f, ok := t.(Forall)
	return f, ok
}

// HeadName returns the name of a Var or Const head.
func HeadName(t Term) (string, bool) {
	switch h := t.(type) {
	case Var:
		return h.Name, true
	case Const:
		return h.Name, true
	default:
		return "", false
	}
}
