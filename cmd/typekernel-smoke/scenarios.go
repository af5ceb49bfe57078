package main

import (
	"context"
	"fmt"

	"github.com/orizon-lang/typekernel/internal/calculus/cic"
	"github.com/orizon-lang/typekernel/internal/calculus/dependent"
	"github.com/orizon-lang/typekernel/internal/calculus/hott"
	"github.com/orizon-lang/typekernel/internal/calculus/omega"
	"github.com/orizon-lang/typekernel/internal/calculus/stlc"
	"github.com/orizon-lang/typekernel/internal/calculus/systemf"
	"github.com/orizon-lang/typekernel/internal/config"
	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// scenario is one end-to-end check of the kernel. run returns a short
// description of what was observed.
type scenario struct {
	name string
	run  func(cfg *config.Config, log kernel.Logger) (string, error)
}

var scenarios = []scenario{
	{"stlc-identity", stlcIdentity},
	{"stlc-beta", stlcBeta},
	{"systemf-polymorphic-identity", systemFIdentity},
	{"bool-negation-match", boolMatch},
	{"higher-order-imitation", higherOrderImitation},
	{"occurs-check", occursCheck},
	{"omega-operator-kind", omegaOperatorKind},
	{"cic-and-commutes", cicAndCommutes},
	{"hott-path-inverse", hottPathInverse},
}

func boolIdentity() kernel.Term {
	return kernel.Lambda{Param: "x", ParamType: kernel.BoolType, Body: kernel.Var{Name: "x"}}
}

func newSTLC(cfg *config.Config, log kernel.Logger) *stlc.Checker {
	c := stlc.NewChecker()
	c.SetLogger(log)
	c.SetReductionSteps(cfg.Reduction.MaxSteps)
	return c
}

func stlcIdentity(cfg *config.Config, log kernel.Logger) (string, error) {
	ty, err := newSTLC(cfg, log).TypeCheck(boolIdentity(), stlc.NewContext())
	if err != nil {
		return "", err
	}
	if !stlc.Equal(ty, stlc.Func(stlc.Bool, stlc.Bool)) {
		return "", fmt.Errorf("λx:Bool. x has type %s, want Bool → Bool", ty)
	}
	return fmt.Sprintf("λx:Bool. x : %s", ty), nil
}

func stlcBeta(cfg *config.Config, log kernel.Logger) (string, error) {
	c := newSTLC(cfg, log)
	app := kernel.Apply{Func: boolIdentity(), Arg: kernel.Bool{Value: true}}
	ty, err := c.TypeCheck(app, stlc.NewContext())
	if err != nil {
		return "", err
	}
	if !stlc.Equal(ty, stlc.Bool) {
		return "", fmt.Errorf("%s has type %s, want Bool", app, ty)
	}
	value, err := c.Reduce(app)
	if err != nil {
		return "", err
	}
	if !kernel.AlphaEqual(value, kernel.Bool{Value: true}) {
		return "", fmt.Errorf("%s reduces to %s, want true", app, value)
	}
	return fmt.Sprintf("%s ⇒ %s : %s", app, value, ty), nil
}

func systemFIdentity(cfg *config.Config, log kernel.Logger) (string, error) {
	c := systemf.NewChecker()
	c.SetLogger(log)
	c.SetReductionSteps(cfg.Reduction.MaxSteps)

	poly := kernel.TypeLambda{Param: "α", Body: kernel.Lambda{Param: "x", ParamType: kernel.Var{Name: "α"}, Body: kernel.Var{Name: "x"}}}
	ty, err := c.TypeCheck(poly, systemf.NewContext())
	if err != nil {
		return "", err
	}
	want := systemf.Forall{Param: "α", Body: systemf.Arrow{From: systemf.TVar{Name: "α"}, To: systemf.TVar{Name: "α"}}}
	if !systemf.Equal(ty, want) {
		return "", fmt.Errorf("Λα. λx:α. x has type %s, want %s", ty, want)
	}

	inst, err := c.TypeCheck(kernel.TypeApply{Func: poly, TypeArg: kernel.IntType}, systemf.NewContext())
	if err != nil {
		return "", err
	}
	if !systemf.Equal(inst, systemf.Arrow{From: systemf.Int, To: systemf.Int}) {
		return "", fmt.Errorf("instantiation at Int has type %s, want Int → Int", inst)
	}
	return fmt.Sprintf("%s, at Int: %s", ty, inst), nil
}

func boolMatch(cfg *config.Config, log kernel.Logger) (string, error) {
	not := kernel.Match{
		Scrutinee: kernel.Var{Name: "b"},
		Clauses: []kernel.Clause{
			{Pattern: kernel.ConstructorPattern{Name: "true"}, Body: kernel.Bool{Value: false}},
			{Pattern: kernel.ConstructorPattern{Name: "false"}, Body: kernel.Bool{Value: true}},
		},
	}
	ty, err := newSTLC(cfg, log).TypeCheck(not, stlc.NewContext().AddTerm("b", stlc.Bool))
	if err != nil {
		return "", err
	}
	if !stlc.Equal(ty, stlc.Bool) {
		return "", fmt.Errorf("match has type %s, want Bool", ty)
	}
	return fmt.Sprintf("b:Bool ⊢ %s : %s", not, ty), nil
}

func higherOrderImitation(cfg *config.Config, log kernel.Logger) (string, error) {
	a, g := kernel.Var{Name: "a"}, kernel.Var{Name: "g"}
	left := kernel.Apply{Func: kernel.Var{Name: "F"}, Arg: a}
	right := kernel.Apply{Func: g, Arg: a}

	u := kernel.NewUnifier(cfg.UnifierConfig()).WithRigid("a", "g")
	u.SetLogger(log)
	solutions, err := u.UnifyHigherOrder([]kernel.Constraint{{Left: left, Right: right}})
	if err != nil {
		return "", err
	}

	imitation := false
	for _, sol := range solutions {
		l, err := kernel.Normalize(sol.Apply(left))
		if err != nil {
			return "", err
		}
		r, err := kernel.Normalize(sol.Apply(right))
		if err != nil {
			return "", err
		}
		if !kernel.AlphaEqual(l, r) {
			return "", fmt.Errorf("solution %s does not unify %s and %s", sol, left, right)
		}
		f, _ := sol.Lookup("F")
		if kernel.AlphaEqual(f, kernel.Lambda{Param: "x", Body: kernel.Apply{Func: g, Arg: kernel.Var{Name: "x"}}}) {
			imitation = true
		}
	}
	if !imitation {
		return "", fmt.Errorf("no solution binds F to λx. g x among %v", solutions)
	}

	// The projection F ↦ λx. x leaves a ≟ g a, which is not a unifier.
	bad, err := kernel.Normalize(kernel.Substitute(left, "F", kernel.Lambda{Param: "x", Body: kernel.Var{Name: "x"}}))
	if err != nil {
		return "", err
	}
	if kernel.AlphaEqual(bad, right) {
		return "", fmt.Errorf("F ↦ λx. x unexpectedly satisfies %s ≟ %s", left, right)
	}
	return fmt.Sprintf("%d solution(s), including F ↦ λx. g x", len(solutions)), nil
}

func occursCheck(cfg *config.Config, log kernel.Logger) (string, error) {
	x := kernel.Var{Name: "x"}
	fx := kernel.Apply{Func: kernel.Var{Name: "f"}, Arg: x}
	u := kernel.NewUnifier(cfg.UnifierConfig()).WithRigid("f")
	u.SetLogger(log)

	_, err := u.Unify([]kernel.Constraint{{Left: x, Right: fx}})
	if !kerrors.HasCode(err, kerrors.CodeOccursCheckFailed) {
		return "", fmt.Errorf("x ≟ f x: got %v, want an occurs check failure", err)
	}
	return fmt.Sprintf("x ≟ f x rejected: %v", err), nil
}

func omegaOperatorKind(cfg *config.Config, log kernel.Logger) (string, error) {
	c := omega.NewChecker()
	c.SetLogger(log)
	c.SetReductionSteps(cfg.Reduction.MaxSteps)

	alpha := kernel.Var{Name: "α"}
	endo := kernel.Lambda{Param: "α", ParamType: kernel.Type0, Body: kernel.Arrow(alpha, alpha)}
	kind, err := c.KindOf(endo, omega.NewContext())
	if err != nil {
		return "", err
	}
	want := omega.KArrow{From: omega.Star{}, To: omega.Star{}}
	if !omega.KindEqual(kind, want) {
		return "", fmt.Errorf("%s has kind %s, want %s", endo, kind, want)
	}

	applied := kernel.Apply{Func: endo, Arg: kernel.NatType}
	ok, err := c.Equivalent(applied, kernel.Arrow(kernel.NatType, kernel.NatType))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%s is not equivalent to Nat → Nat", applied)
	}
	return fmt.Sprintf("%s :: %s, %s ≡ Nat → Nat", endo, kind, applied), nil
}

// cicAndCommutes declares conjunction in Prop and verifies
// Π(A B:Prop). A ∧ B → B ∧ A.
func cicAndCommutes(cfg *config.Config, log kernel.Logger) (string, error) {
	c := cic.NewChecker()
	c.SetLogger(log)
	c.SetReductionSteps(cfg.Reduction.MaxSteps)
	c.SetUnifierConfig(cfg.UnifierConfig())

	v := func(name string) kernel.Term { return kernel.Var{Name: name} }
	and := func(a, b kernel.Term) kernel.Term { return kernel.App(kernel.Const{Name: "And"}, a, b) }
	err := c.DeclareInductive(kernel.InductiveDecl{
		Name:         "And",
		Params:       []kernel.Param{{Name: "A", Type: kernel.Prop{}}, {Name: "B", Type: kernel.Prop{}}},
		Arity:        kernel.Prop{},
		Constructors: []kernel.ConstructorDecl{{Name: "conj", Type: kernel.Arrows(and(v("A"), v("B")), v("A"), v("B"))}},
	})
	if err != nil {
		return "", err
	}

	statement := kernel.Pi{Param: "A", Domain: kernel.Prop{}, Codomain: kernel.Pi{Param: "B", Domain: kernel.Prop{},
		Codomain: kernel.Arrow(and(v("A"), v("B")), and(v("B"), v("A")))}}
	proof := kernel.Lambda{Param: "A", ParamType: kernel.Prop{}, Body: kernel.Lambda{Param: "B", ParamType: kernel.Prop{},
		Body: kernel.Lambda{Param: "h", ParamType: and(v("A"), v("B")), Body: kernel.Match{
			Scrutinee: v("h"),
			Motive:    kernel.Lambda{Param: "_", ParamType: and(v("A"), v("B")), Body: and(v("B"), v("A"))},
			Clauses: []kernel.Clause{{
				Pattern: kernel.ConstructorPattern{Name: "conj", Args: []kernel.Pattern{kernel.VarPattern{Name: "a"}, kernel.VarPattern{Name: "b"}}},
				Body:    kernel.Constructor{Name: "conj", Args: []kernel.Term{v("B"), v("A"), v("b"), v("a")}},
			}},
		}}}}

	if err := cic.NewVerifier(c).Verify(context.Background(), statement, proof); err != nil {
		return "", err
	}
	isProp, err := c.IsProposition(statement, cic.NewContext())
	if err != nil {
		return "", err
	}
	if !isProp {
		return "", fmt.Errorf("%s is not a proposition", statement)
	}
	return fmt.Sprintf("⊢ %s : Prop", statement), nil
}

func hottPathInverse(cfg *config.Config, log kernel.Logger) (string, error) {
	c, err := hott.NewChecker()
	if err != nil {
		return "", err
	}
	c.SetLogger(log)
	c.SetReductionSteps(cfg.Reduction.MaxSteps)
	c.SetUnifierConfig(cfg.UnifierConfig())

	a := kernel.Var{Name: "A"}
	x, y := kernel.Var{Name: "x"}, kernel.Var{Name: "y"}
	ctx := dependent.NewContext().
		AddTerm("A", kernel.Type0).
		AddTerm("x", a).
		AddTerm("y", a).
		AddTerm("p", kernel.IdType{Type: a, Left: x, Right: y})

	inv := hott.Sym(a, kernel.Var{Name: "p"})
	want := kernel.IdType{Type: a, Left: y, Right: x}
	if err := c.Check(inv, want, ctx); err != nil {
		return "", err
	}

	// On refl the inverse computes away.
	onRefl, err := c.Normalize(hott.Sym(a, kernel.Refl{Point: x}))
	if err != nil {
		return "", err
	}
	if !kernel.AlphaEqual(onRefl, kernel.Refl{Point: x}) {
		return "", fmt.Errorf("inverse of refl normalizes to %s", onRefl)
	}
	return fmt.Sprintf("p : %s ⊢ sym p : %s", kernel.IdType{Type: a, Left: x, Right: y}, want), nil
}
