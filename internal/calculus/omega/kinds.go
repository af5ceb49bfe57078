// Package omega implements System Fω: System F extended with type
// operators, type-level application and a language of kinds.
//
// Types are kernel terms. Type operators are lambdas at the type level and
// type equivalence is alpha-equivalence after type-level beta reduction.
package omega

import (
	"fmt"

	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Kind classifies types.
type Kind interface {
	String() string
	isKind()
}

// Star is the kind of proper types.
type Star struct{}

// KArrow is the kind of type operators From ⇒ To.
type KArrow struct {
	From Kind
	To   Kind
}

func (Star) isKind()   {}
func (KArrow) isKind() {}

func (Star) String() string { return "*" }

func (k KArrow) String() string {
	if _, ok := k.From.(KArrow); ok {
		return fmt.Sprintf("(%s) ⇒ %s", k.From, k.To)
	}
	return fmt.Sprintf("%s ⇒ %s", k.From, k.To)
}

// KindEqual reports structural equality of kinds.
func KindEqual(a, b Kind) bool {
	switch x := a.(type) {
	case Star:
		_, ok := b.(Star)
		return ok
	case KArrow:
		y, ok := b.(KArrow)
		return ok && KindEqual(x.From, y.From) && KindEqual(x.To, y.To)
	default:
		return false
	}
}

// KindToTerm encodes a kind: * is the lowest universe and κ ⇒ κ' a
// non-dependent Pi.
func KindToTerm(k Kind) kernel.Term {
	switch x := k.(type) {
	case Star:
		return kernel.Type0
	case KArrow:
		return kernel.Arrow(KindToTerm(x.From), KindToTerm(x.To))
	default:
		return nil
	}
}

// KindFromTerm decodes a kind. A nil term denotes *.
func KindFromTerm(t kernel.Term) (Kind, error) {
	switch x := t.(type) {
	case nil:
		return Star{}, nil
	case kernel.Sort:
		if x.Level == 0 {
			return Star{}, nil
		}
	case kernel.Pi:
		if x.Param == "" || !kernel.Occurs(x.Param, x.Codomain) {
			from, err := KindFromTerm(x.Domain)
			if err != nil {
				return nil, err
			}
			to, err := KindFromTerm(x.Codomain)
			if err != nil {
				return nil, err
			}
			return KArrow{From: from, To: to}, nil
		}
	}
	return nil, kerrors.NotAType(t, kernel.Const{Name: "kind"})
}

// KindArrows builds k1 ⇒ k2 ⇒ ... ⇒ result.
func KindArrows(result Kind, params ...Kind) Kind {
	out := result
	for i := len(params) - 1; i >= 0; i-- {
		out = KArrow{From: params[i], To: out}
	}
	return out
}
