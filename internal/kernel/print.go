package kernel

import (
	"fmt"
	"strconv"
	"strings"
)

// isAtomic reports whether t prints without surrounding parentheses.
func isAtomic(t Term) bool {
	switch t.(type) {
	case Var, Const, Sort, Prop, Unit, Bool, Number, Pair, Constructor, IdType, Refl, PathInd, Annotated:
		return true
	default:
		return false
	}
}

func paren(t Term) string {
	if t == nil {
		return "?"
	}
	if isAtomic(t) {
		return t.String()
	}
	return "(" + t.String() + ")"
}

func show(t Term) string {
	if t == nil {
		return "?"
	}
	return t.String()
}

func (v Var) String() string   { return v.Name }
func (c Const) String() string { return c.Name }

func (a Apply) String() string {
	fn := show(a.Func)
	switch a.Func.(type) {
	case Apply, Var, Const, Constructor, Fst, Snd, TypeApply:
	default:
		fn = paren(a.Func)
	}
	return fn + " " + paren(a.Arg)
}

func (l Lambda) String() string {
	if l.ParamType == nil {
		return fmt.Sprintf("λ%s. %s", l.Param, show(l.Body))
	}
	return fmt.Sprintf("λ%s:%s. %s", l.Param, show(l.ParamType), show(l.Body))
}

func (p Pi) String() string {
	if p.Param == "" || !Occurs(p.Param, p.Codomain) {
		dom := show(p.Domain)
		switch p.Domain.(type) {
		case Pi, Lambda, Forall, Sigma, TypeLambda:
			dom = paren(p.Domain)
		}
		return fmt.Sprintf("%s → %s", dom, show(p.Codomain))
	}
	return fmt.Sprintf("Π(%s:%s). %s", p.Param, show(p.Domain), show(p.Codomain))
}

func (s Sigma) String() string {
	if s.Param == "" || !Occurs(s.Param, s.Second) {
		return fmt.Sprintf("%s × %s", paren(s.First), paren(s.Second))
	}
	return fmt.Sprintf("Σ(%s:%s). %s", s.Param, show(s.First), show(s.Second))
}

func (p Pair) String() string { return fmt.Sprintf("(%s, %s)", show(p.First), show(p.Second)) }
func (f Fst) String() string  { return "fst " + paren(f.Pair) }
func (s Snd) String() string  { return "snd " + paren(s.Pair) }

func (f Forall) String() string {
	if f.Kind == nil {
		return fmt.Sprintf("∀%s. %s", f.Param, show(f.Body))
	}
	return fmt.Sprintf("∀%s:%s. %s", f.Param, show(f.Kind), show(f.Body))
}

func (l TypeLambda) String() string {
	if l.Kind == nil {
		return fmt.Sprintf("Λ%s. %s", l.Param, show(l.Body))
	}
	return fmt.Sprintf("Λ%s:%s. %s", l.Param, show(l.Kind), show(l.Body))
}

func (a TypeApply) String() string {
	return fmt.Sprintf("%s [%s]", paren(a.Func), show(a.TypeArg))
}

// String follows the universe naming Type, Type1, Type2, ...
func (s Sort) String() string {
	if s.Level == 0 {
		return "Type"
	}
	return fmt.Sprintf("Type%d", s.Level)
}

func (Prop) String() string { return "Prop" }

func (c Constructor) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = show(a)
	}
	return fmt.Sprintf("%s(%s)", c.Name, strings.Join(args, ", "))
}

func (m Match) String() string {
	var sb strings.Builder
	sb.WriteString("match ")
	sb.WriteString(show(m.Scrutinee))
	if m.Motive != nil {
		sb.WriteString(" return ")
		sb.WriteString(paren(m.Motive))
	}
	sb.WriteString(" { ")
	for i, c := range m.Clauses {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(c.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

func (a Annotated) String() string {
	return fmt.Sprintf("(%s : %s)", show(a.Expr), show(a.Type))
}

func (Unit) String() string     { return "unit" }
func (b Bool) String() string   { return strconv.FormatBool(b.Value) }
func (n Number) String() string { return strconv.FormatInt(n.Value, 10) }

func (i IdType) String() string {
	return fmt.Sprintf("Id(%s, %s, %s)", show(i.Type), show(i.Left), show(i.Right))
}

func (r Refl) String() string { return fmt.Sprintf("refl(%s)", show(r.Point)) }

func (j PathInd) String() string {
	return fmt.Sprintf("J(%s, %s, %s)", show(j.Motive), show(j.Base), show(j.Path))
}
