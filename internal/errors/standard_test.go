package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

type name string

func (n name) String() string { return string(n) }

func TestKernelErrorFormatting(t *testing.T) {
	err := TypeMismatch(name("Nat"), name("Bool"))
	want := "[TYPING:TYPE_MISMATCH] "
	if !strings.HasPrefix(err.Error(), want) {
		t.Fatalf("Error() = %q, want prefix %q", err.Error(), want)
	}
	if err.Context["expected"] == nil || err.Context["found"] == nil {
		t.Errorf("context not recorded: %v", err.Context)
	}
	if !strings.Contains(err.Caller, "TestKernelErrorFormatting") {
		t.Errorf("Caller = %q, want the calling test", err.Caller)
	}
}

func TestCodesThroughWrapping(t *testing.T) {
	base := OccursCheckFailed("x", name("f x"))
	wrapped := fmt.Errorf("solving: %w", base)

	if !errors.Is(wrapped, ErrOccursCheckFailed) {
		t.Error("wrapped error does not match its sentinel")
	}
	if errors.Is(wrapped, ErrTermsCannotUnify) {
		t.Error("wrapped error matches a different sentinel")
	}
	if !HasCode(wrapped, CodeOccursCheckFailed) {
		t.Error("HasCode does not see through wrapping")
	}
	if _, ok := CodeOf(errors.New("plain")); ok {
		t.Error("plain errors carry no code")
	}
}

func TestConstructorsUseTheirCodes(t *testing.T) {
	tests := []struct {
		err  *KernelError
		code Code
	}{
		{UnboundVariable("x"), CodeUnboundVariable},
		{UnboundTypeVariable("α"), CodeUnboundTypeVariable},
		{KindMismatch(name("*"), name("* → *")), CodeKindMismatch},
		{InvalidApplication(name("f"), name("Nat")), CodeInvalidApplication},
		{InvalidTypeApplication(name("f"), name("Nat")), CodeInvalidTypeApplication},
		{NotAType(name("0"), name("Nat")), CodeNotAType},
		{UnsupportedTerm("stlc", name("Λα. x")), CodeUnsupportedTerm},
		{TermsCannotUnify(name("a"), name("b")), CodeTermsCannotUnify},
		{VariableAlreadyMapped("x"), CodeVariableAlreadyMapped},
		{ConstructorMismatch("zero", "true"), CodeConstructorMismatch},
		{NoMatchingClause(name("true")), CodeNoMatchingClause},
		{NonExhaustive("Nat", name("succ(_)")), CodeNonExhaustive},
		{StuckScrutinee(name("b")), CodeStuckScrutinee},
		{BoundExceeded("reduction", 10), CodeBoundExceeded},
		{IllFormedInductive("Bad", "negative occurrence"), CodeIllFormedInductive},
		{DuplicateDeclaration("Nat"), CodeDuplicateDeclaration},
		{TheoremNotFound("and_comm", ">= 1.0.0"), CodeTheoremNotFound},
		{TheoremRejected("and_comm", errors.New("ill-typed")), CodeTheoremRejected},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("empty message")
			}
			if tt.err.Category == "" {
				t.Error("empty category")
			}
		})
	}
}
