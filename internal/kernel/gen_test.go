package kernel

import (
	"math/rand"
	"testing"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"
	"github.com/orizon-lang/typekernel/internal/testrunner/prop"
)

var (
	x = Var{Name: "x"}
	y = Var{Name: "y"}
	z = Var{Name: "z"}
)

func wantCode(t *testing.T, err error, code kerrors.Code) bool {
	t.Helper()
	return assert.True(t, kerrors.HasCode(err, code), "got %v, want %s", err, code)
}

func vars(names []string) []Term {
	out := make([]Term, len(names))
	for i, n := range names {
		out[i] = Var{Name: n}
	}
	return out
}

// genTerm generates lambda terms over a small alphabet of variable names so
// that binders frequently shadow or capture free variables.
func genTerm(names []string) prop.Generator[Term] {
	leaf := prop.GenFrequency([]int{3, 1},
		prop.GenElement(vars(names)...),
		prop.GenElement[Term](Const{Name: "c"}, Const{Name: "d"}),
	)
	binder := prop.GenElement(names...)

	var gen prop.Generator[Term]
	gen = func(r *rand.Rand, size int) Term {
		if size <= 1 || r.Intn(4) == 0 {
			return leaf(r, size)
		}
		sub := prop.Sized(gen)
		switch r.Intn(4) {
		case 0, 1:
			return Apply{Func: sub(r, size), Arg: sub(r, size)}
		case 2:
			return Lambda{Param: binder(r, size), Body: sub(r, size)}
		default:
			return Pi{Param: binder(r, size), Domain: sub(r, size), Codomain: sub(r, size)}
		}
	}
	return gen
}

// genFirstOrder generates binder-free terms: variables, constants and
// applications of the rigid function f.
func genFirstOrder(names []string) prop.Generator[Term] {
	leaf := prop.GenElement[Term](Const{Name: "a"}, Const{Name: "b"})
	if len(names) > 0 {
		leaf = prop.GenFrequency([]int{2, 1}, prop.GenElement(vars(names)...), leaf)
	}

	var gen prop.Generator[Term]
	gen = func(r *rand.Rand, size int) Term {
		if size <= 1 || r.Intn(3) == 0 {
			return leaf(r, size)
		}
		sub := prop.Sized(gen)
		if r.Intn(2) == 0 {
			return App(Const{Name: "f"}, sub(r, size))
		}
		return Constructor{Name: "pair", Args: []Term{sub(r, size), sub(r, size)}}
	}
	return gen
}
