package cic

import (
	"context"

	"github.com/orizon-lang/typekernel/internal/kernel"
)

// Verifier checks proofs of theorem statements with a CIC checker. It is
// the proof checker behind a theorem registry.
type Verifier struct {
	Checker *Checker
}

// NewVerifier returns a verifier backed by c.
func NewVerifier(c *Checker) *Verifier {
	return &Verifier{Checker: c}
}

// Verify checks that statement is a type and that proof inhabits it in the
// empty context.
func (v *Verifier) Verify(ctx context.Context, statement, proof kernel.Term) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := v.Checker.InferSort(statement, NewContext()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return v.Checker.Check(proof, statement, NewContext())
}
