// Package systemf implements the polymorphic lambda calculus (System F)
// over the builtin data types.
package systemf

import (
	"fmt"

	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Type is a System F type.
type Type interface {
	String() string
	isType()
}

// TVar is a type variable.
type TVar struct {
	Name string
}

// Base is a named base type.
type Base struct {
	Name string
}

// Arrow is the function type From → To.
type Arrow struct {
	From Type
	To   Type
}

// Forall is the universal type ∀Param. Body.
type Forall struct {
	Param string
	Body  Type
}

func (TVar) isType()   {}
func (Base) isType()   {}
func (Arrow) isType()  {}
func (Forall) isType() {}

func (v TVar) String() string { return v.Name }
func (b Base) String() string { return b.Name }

func (a Arrow) String() string {
	switch a.From.(type) {
	case Arrow, Forall:
		return fmt.Sprintf("(%s) → %s", a.From, a.To)
	}
	return fmt.Sprintf("%s → %s", a.From, a.To)
}

func (f Forall) String() string { return fmt.Sprintf("∀%s. %s", f.Param, f.Body) }

// Base types.
var (
	Bool = Base{Name: "Bool"}
	Unit = Base{Name: "Unit"}
	Int  = Base{Name: "Int"}
	Nat  = Base{Name: "Nat"}
)

// ToTerm encodes a type as a kernel term: variables, constants,
// non-dependent Pi and kernel Forall.
func ToTerm(t Type) kernel.Term {
	switch x := t.(type) {
	case TVar:
		return kernel.Var{Name: x.Name}
	case Base:
		return kernel.Const{Name: x.Name}
	case Arrow:
		return kernel.Arrow(ToTerm(x.From), ToTerm(x.To))
	case Forall:
		return kernel.Forall{Param: x.Param, Body: ToTerm(x.Body)}
	default:
		return nil
	}
}

// FromTerm reads a type from its kernel encoding.
func FromTerm(t kernel.Term) (Type, error) {
	switch x := t.(type) {
	case kernel.Var:
		return TVar{Name: x.Name}, nil
	case kernel.Const:
		return Base{Name: x.Name}, nil
	case kernel.Pi:
		if x.Param != "" && kernel.Occurs(x.Param, x.Codomain) {
			return nil, kerrors.NotAType(t, kernel.Const{Name: "System F"})
		}
		from, err := FromTerm(x.Domain)
		if err != nil {
			return nil, err
		}
		to, err := FromTerm(x.Codomain)
		if err != nil {
			return nil, err
		}
		return Arrow{From: from, To: to}, nil
	case kernel.Forall:
		body, err := FromTerm(x.Body)
		if err != nil {
			return nil, err
		}
		return Forall{Param: x.Param, Body: body}, nil
	default:
		return nil, kerrors.NotAType(t, kernel.Const{Name: "System F"})
	}
}

// Equal reports equality of types up to renaming of bound type variables.
func Equal(a, b Type) bool {
	return kernel.AlphaEqual(ToTerm(a), ToTerm(b))
}

// Instantiate replaces the bound variable of f by arg, renaming inner
// binders that would capture free variables of arg. It fails when the
// result does not read back as a type, as with a nil arg.
func Instantiate(f Forall, arg Type) (Type, error) {
	return FromTerm(kernel.Substitute(ToTerm(f.Body), f.Param, ToTerm(arg)))
}

// FreeTypeVars returns the free type variables of t.
func FreeTypeVars(t Type) []string {
	return kernel.FreeVars(ToTerm(t)).Slice()
}
