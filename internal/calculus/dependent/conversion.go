package dependent

import (
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Convertible reports whether a and b are definitionally equal: equal up
// to renaming after normalization with beta, delta and iota, with numerals
// and their zero/succ spelling identified. When either side mentions a
// unification variable, a and b are convertible if they unify.
func (c *Checker) Convertible(a, b kernel.Term) (bool, error) {
	na, err := c.Normalize(a)
	if err != nil {
		return false, err
	}
	nb, err := c.Normalize(b)
	if err != nil {
		return false, err
	}
	na, nb = kernel.FoldNumerals(na), kernel.FoldNumerals(nb)
	if kernel.AlphaEqual(na, nb) {
		return true, nil
	}
	if !kernel.HasMetas(na) && !kernel.HasMetas(nb) {
		return false, nil
	}

	if _, err := c.Solve(na, nb); err != nil {
		if kerrors.HasCode(err, kerrors.CodeBoundExceeded) {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// Subtype reports whether a value of type a may be used at type b. Besides
// conversion it admits Type_i ≤ Type_j for i ≤ j, covariantly in the
// codomain of Π types.
func (c *Checker) Subtype(a, b kernel.Term) (bool, error) {
	wa, err := c.WHNF(a)
	if err != nil {
		return false, err
	}
	wb, err := c.WHNF(b)
	if err != nil {
		return false, err
	}

	switch x := wa.(type) {
	case kernel.Sort:
		if y, ok := wb.(kernel.Sort); ok {
			return x.Level <= y.Level, nil
		}
	case kernel.Pi:
		y, ok := wb.(kernel.Pi)
		if !ok {
			break
		}
		same, err := c.Convertible(x.Domain, y.Domain)
		if err != nil || !same {
			return false, err
		}
		left, right := kernel.AlignPis(x, y)
		return c.Subtype(left, right)
	}
	return c.Convertible(wa, wb)
}

// Solve unifies a and b, treating only unification variables as flexible.
// First-order unification is tried first; when it fails the bounded
// higher-order search is used and its first solution returned.
func (c *Checker) Solve(a, b kernel.Term) (*kernel.Substitution, error) {
	cfg := c.unifier
	cfg.Flexible = kernel.IsMeta
	cfg.Reducer = c.reducer
	u := kernel.NewUnifier(cfg)
	if c.logger != nil {
		u.SetLogger(c.logger)
	}

	constraints := []kernel.Constraint{{Left: a, Right: b}}
	subst, err := u.Unify(constraints)
	if err == nil {
		return subst, nil
	}
	if kerrors.HasCode(err, kerrors.CodeOccursCheckFailed) {
		return nil, err
	}

	solutions, hoErr := u.UnifyHigherOrder(constraints)
	if hoErr != nil {
		return nil, hoErr
	}
	return solutions[0], nil
}
