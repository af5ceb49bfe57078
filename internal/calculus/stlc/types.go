// Package stlc implements the simply typed lambda calculus with booleans,
// unit and natural numbers.
package stlc

import (
	"fmt"

	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Type is a simple type: a base type or an arrow.
type Type interface {
	String() string
	isType()
}

// Base is a named base type such as Bool.
type Base struct {
	Name string
}

// Arrow is the function type From → To.
type Arrow struct {
	From Type
	To   Type
}

func (Base) isType()  {}
func (Arrow) isType() {}

func (b Base) String() string { return b.Name }

func (a Arrow) String() string {
	if _, ok := a.From.(Arrow); ok {
		return fmt.Sprintf("(%s) → %s", a.From, a.To)
	}
	return fmt.Sprintf("%s → %s", a.From, a.To)
}

// Base types.
var (
	Bool = Base{Name: "Bool"}
	Unit = Base{Name: "Unit"}
	Int  = Base{Name: "Int"}
	Nat  = Base{Name: "Nat"}
)

// Func builds t1 → t2 → ... → result.
func Func(result Type, params ...Type) Type {
	out := result
	for i := len(params) - 1; i >= 0; i-- {
		out = Arrow{From: params[i], To: out}
	}
	return out
}

// Equal reports structural equality of simple types.
func Equal(a, b Type) bool {
	switch x := a.(type) {
	case Base:
		y, ok := b.(Base)
		return ok && x.Name == y.Name
	case Arrow:
		y, ok := b.(Arrow)
		return ok && Equal(x.From, y.From) && Equal(x.To, y.To)
	default:
		return false
	}
}

// FromTerm reads a simple type from its kernel encoding: constants for
// base types and non-dependent Pi for arrows.
func FromTerm(t kernel.Term) (Type, error) {
	switch x := t.(type) {
	case kernel.Const:
		return Base{Name: x.Name}, nil
	case kernel.Pi:
		if x.Param != "" && kernel.Occurs(x.Param, x.Codomain) {
			return nil, kerrors.NotAType(t, kernel.Const{Name: "stlc"})
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
	default:
		return nil, kerrors.NotAType(t, kernel.Const{Name: "stlc"})
	}
}

// ToTerm encodes a simple type as a kernel term.
func ToTerm(t Type) kernel.Term {
	switch x := t.(type) {
	case Base:
		return kernel.Const{Name: x.Name}
	case Arrow:
		return kernel.Arrow(ToTerm(x.From), ToTerm(x.To))
	default:
		return nil
	}
}
