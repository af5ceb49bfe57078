package kernel

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-set/v3"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// TypeChecker is the call surface every calculus exposes. C is the
// calculus' classifier: a separate type grammar for the simple calculi, a
// Term for the dependently typed ones.
type TypeChecker[C any] interface {
	// TypeCheck computes the classifier of t in ctx.
	TypeCheck(t Term, ctx *Context[C]) (C, error)
	// InferType synthesizes the classifier of t without an expected type.
	InferType(t Term, ctx *Context[C]) (C, error)
	// Check verifies t against an expected classifier.
	Check(t Term, expected C, ctx *Context[C]) error
}

// MetaPrefix marks unification variables inside checked terms.
const MetaPrefix = "?"

// IsMeta reports whether name denotes a unification variable.
func IsMeta(name string) bool {
	return strings.HasPrefix(name, MetaPrefix)
}

// HasMetas reports whether t mentions a unification variable.
func HasMetas(t Term) bool {
	for _, v := range FreeVars(t).Slice() {
		if IsMeta(v) {
			return true
		}
	}
	return false
}

// ====== Pattern typing ======

// PatternTyping describes a pattern checked against the type of its scrutinee.
type PatternTyping struct {
	// Bindings lists the variables bound by the pattern with their types.
	// Wildcards bind hidden names so dependent field types stay closed.
	Bindings []Param
	// Value is the term the pattern denotes, in terms of its bindings.
	Value Term
	// Indices are the indices of the matched constructor's result type.
	Indices []Term
}

// TypePattern types p against ty, which must be in weak head normal form.
// Field types of a constructor are instantiated with the parameters of ty
// and with the values of the preceding sub-patterns.
func (s *Signature) TypePattern(p Pattern, ty Term) (*PatternTyping, error) {
	used := FreeVars(ty)
	used.InsertSlice(PatternVars(p))
	pt := &patternTyper{sig: s, used: used}

	value, indices, err := pt.typePattern(p, ty)
	if err != nil {
		return nil, err
	}
	return &PatternTyping{Bindings: pt.bindings, Value: value, Indices: indices}, nil
}

type patternTyper struct {
	sig      *Signature
	used     *set.Set[string]
	bindings []Param
	hidden   int
}

func (pt *patternTyper) bind(name string, ty Term) {
	pt.bindings = append(pt.bindings, Param{Name: name, Type: ty})
}

func (pt *patternTyper) typePattern(p Pattern, ty Term) (Term, []Term, error) {
	switch x := p.(type) {
	case VarPattern:
		pt.bind(x.Name, ty)
		return Var{Name: x.Name}, nil, nil

	case WildcardPattern:
		pt.hidden++
		name := FreshName(fmt.Sprintf("_%d", pt.hidden), pt.used)
		pt.used.Insert(name)
		pt.bind(name, ty)
		return Var{Name: name}, nil, nil

	case ConstructorPattern:
		info, ok := pt.sig.Constructor(x.Name)
		if !ok {
			return nil, nil, kerrors.ConstructorMismatch("a declared constructor", x.Name)
		}
		decl := info.Inductive

		head, args := Spine(ty)
		hc, ok := head.(Const)
		if !ok || hc.Name != decl.Name || len(args) < len(decl.Params) {
			return nil, nil, kerrors.ConstructorMismatch(show(ty), x.Name)
		}
		if len(x.Args) != info.Fields() {
			return nil, nil, kerrors.ConstructorMismatch(
				fmt.Sprintf("%s with %d arguments", x.Name, info.Fields()),
				fmt.Sprintf("%s with %d arguments", x.Name, len(x.Args)))
		}

		params := args[:len(decl.Params)]
		ctype, err := instantiateParams(decl.Params, params, info.Decl.Type)
		if err != nil {
			return nil, nil, err
		}

		fields := make([]Term, len(x.Args))
		for i, sub := range x.Args {
			pi := ctype.(Pi)
			v, _, err := pt.typePattern(sub, pi.Domain)
			if err != nil {
				return nil, nil, err
			}
			fields[i] = v
			ctype = pi.Codomain
			if pi.Param != "" {
				ctype = Substitute(ctype, pi.Param, v)
			}
		}

		_, resultArgs := Spine(ctype)
		value := Constructor{Name: x.Name, Args: append(append([]Term(nil), params...), fields...)}
		return value, resultArgs[len(decl.Params):], nil

	default:
		return nil, nil, kerrors.UnsupportedTerm("pattern typing", p)
	}
}

// instantiateParams substitutes the parameters of a family into t.
func instantiateParams(params []Param, args []Term, t Term) (Term, error) {
	sub := NewSubstitution()
	for i, p := range params {
		if i < len(args) {
			if err := sub.Add(p.Name, args[i]); err != nil {
				return nil, err
			}
		}
	}
	return sub.Apply(t), nil
}

