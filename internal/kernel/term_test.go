package kernel

import (
	"testing"

	"github.com/orizon-lang/typekernel/internal/testrunner/assert"
)

func TestSpine(t *testing.T) {
	f, a, b := Const{Name: "f"}, Const{Name: "a"}, Const{Name: "b"}

	head, args := Spine(App(f, a, b))
	assert.Equal(t, head, Term(f))
	assert.DeepEqual(t, args, []Term{a, b})

	// Over-applied constructors keep their own arguments first.
	head, args = Spine(Apply{Func: Constructor{Name: "pair", Args: []Term{a}}, Arg: b})
	assert.Equal(t, head, Term(Const{Name: "pair"}))
	assert.DeepEqual(t, args, []Term{a, b})

	head, args = Spine(x)
	assert.Equal(t, head, Term(x))
	assert.Len(t, args, 0)
}

func TestConstructorView(t *testing.T) {
	tests := []struct {
		name  string
		term  Term
		ctor  string
		arity int
		ok    bool
	}{
		{"true", Bool{Value: true}, "true", 0, true},
		{"false", Bool{Value: false}, "false", 0, true},
		{"unit", Unit{}, "unit", 0, true},
		{"zero", Number{}, "zero", 0, true},
		{"successor", Number{Value: 5}, "succ", 1, true},
		{"constructor", Constructor{Name: "cons", Args: []Term{Unit{}, Unit{}}}, "cons", 2, true},
		{"spine", App(Const{Name: "node"}, Unit{}), "node", 1, true},
		{"variable", App(x, Unit{}), "", 0, false},
		{"lambda", Lambda{Param: "x", Body: x}, "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, args, ok := ConstructorView(tt.term)
			assert.Equal(t, ok, tt.ok)
			assert.Equal(t, name, tt.ctor)
			assert.Len(t, args, tt.arity)
		})
	}

	_, args, _ := ConstructorView(Number{Value: 5})
	assert.Equal(t, args[0], Term(Number{Value: 4}))
}

func TestFoldNumerals(t *testing.T) {
	succ := func(t Term) Term { return Constructor{Name: "succ", Args: []Term{t}} }

	assert.Equal(t, FoldNumerals(succ(succ(Constructor{Name: "zero"}))), Term(Number{Value: 2}))
	assert.Equal(t, FoldNumerals(Apply{Func: Const{Name: "succ"}, Arg: Const{Name: "zero"}}), Term(Number{Value: 1}))

	// Successors of non-numerals are left alone.
	open := succ(x)
	assert.True(t, AlphaEqual(FoldNumerals(open), open))

	nested := Lambda{Param: "n", Body: succ(Number{Value: 1})}
	assert.True(t, AlphaEqual(FoldNumerals(nested), Lambda{Param: "n", Body: Number{Value: 2}}))
}

func TestBuilders(t *testing.T) {
	ty := Arrows(NatType, BoolType, UnitType)
	assert.True(t, AlphaEqual(ty, Arrow(BoolType, Arrow(UnitType, NatType))))
	assert.True(t, AlphaEqual(Arrows(NatType), NatType))

	lam := Lams([]string{"x", "y"}, x)
	outer, ok := lam.(Lambda)
	if assert.True(t, ok) {
		assert.Equal(t, outer.Param, "x")
		_, ok = outer.Body.(Lambda)
		assert.True(t, ok)
	}

	level, isProp, ok := AsSort(Sort{Level: 2})
	assert.True(t, ok)
	assert.False(t, isProp)
	assert.Equal(t, level, 2)
	_, isProp, ok = AsSort(Prop{})
	assert.True(t, ok && isProp)
	_, _, ok = AsSort(NatType)
	assert.False(t, ok)

	_, ok = AsPi(ty)
	assert.True(t, ok)
	_, ok = AsForall(ty)
	assert.False(t, ok)
}

func TestMetas(t *testing.T) {
	assert.True(t, IsMeta("?m"))
	assert.False(t, IsMeta("m"))
	assert.True(t, HasMetas(App(Const{Name: "f"}, Var{Name: "?m1"})))
	assert.False(t, HasMetas(Lambda{Param: "?m", Body: Var{Name: "?m"}}))
}

func TestPatternVars(t *testing.T) {
	p := cp("pair", pv("a"), cp("succ", pv("b")), WildcardPattern{})
	assert.DeepEqual(t, PatternVars(p), []string{"a", "b"})
	assert.Equal(t, p.String(), "pair(a, succ(b), _)")
	assert.Equal(t, Clause{Pattern: pv("v"), Body: Unit{}}.String(), "v => unit")
}

func TestPrinting(t *testing.T) {
	tests := []struct {
		term Term
		want string
	}{
		{App(Const{Name: "f"}, x, Apply{Func: Const{Name: "g"}, Arg: y}), "f x (g y)"},
		{Lambda{Param: "x", ParamType: NatType, Body: x}, "λx:Nat. x"},
		{Arrow(Arrow(NatType, NatType), NatType), "(Nat → Nat) → Nat"},
		{Pi{Param: "n", Domain: NatType, Codomain: Apply{Func: Const{Name: "Vec"}, Arg: Var{Name: "n"}}}, "Π(n:Nat). Vec n"},
		{Sort{Level: 1}, "Type1"},
		{Type0, "Type"},
		{Constructor{Name: "succ", Args: []Term{Number{Value: 1}}}, "succ(1)"},
		{IdType{Type: NatType, Left: x, Right: y}, "Id(Nat, x, y)"},
		{Refl{Point: x}, "refl(x)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.term.String(), tt.want)
		})
	}
}
