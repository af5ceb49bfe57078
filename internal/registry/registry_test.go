package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/orizon-lang/typekernel/internal/calculus/cic"
	"github.com/orizon-lang/typekernel/internal/kernel"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

func accept() Verifier {
	return VerifierFunc(func(context.Context, kernel.Term, kernel.Term) error { return nil })
}

func theorem(name, version string, proof int64) Theorem {
	return Theorem{
		Name:      name,
		Version:   version,
		Statement: kernel.NatType,
		Proof:     kernel.Number{Value: proof},
	}
}

// identity is Π(P:Prop). P → P.
func identity(param string) kernel.Term {
	return kernel.Pi{Param: param, Domain: kernel.Prop{}, Codomain: kernel.Arrow(kernel.Var{Name: param}, kernel.Var{Name: param})}
}

func TestFindByConstraint(t *testing.T) {
	r := New(accept())
	ctx := context.Background()
	for i, v := range []string{"1.2.0", "2.0.0", "1.0.0"} {
		_, err := r.Register(ctx, theorem("plus_comm", v, int64(i)))
		if !assert.NoError(t, err) {
			return
		}
	}

	tests := []struct {
		constraint string
		want       string
	}{
		{"", "2.0.0"},
		{"^1.0", "1.2.0"},
		{"~1.0.0", "1.0.0"},
		{">=1.1, <3", "2.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			th, err := r.Find("plus_comm", tt.constraint)
			if assert.NoError(t, err) {
				assert.Equal(t, th.Version, tt.want)
			}
		})
	}

	_, err := r.Find("plus_comm", ">=3")
	assert.ErrorIs(t, err, kerrors.ErrTheoremNotFound)
	_, err = r.Find("plus_assoc", "")
	assert.ErrorIs(t, err, kerrors.ErrTheoremNotFound)
	_, err = r.Find("plus_comm", "not a constraint")
	assert.Error(t, err)

	versions := make([]string, 0, 3)
	for _, th := range r.List("plus_comm") {
		versions = append(versions, th.Version)
	}
	assert.DeepEqual(t, versions, []string{"1.0.0", "1.2.0", "2.0.0"})
	assert.DeepEqual(t, r.Names(), []string{"plus_comm"})

	statement, ok := r.Statement("plus_comm")
	assert.True(t, ok)
	assert.True(t, kernel.AlphaEqual(statement, kernel.NatType))
	_, ok = r.Statement("plus_assoc")
	assert.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	r := New(accept())
	ctx := context.Background()

	first, err := r.Register(ctx, theorem("t", "1.0.0", 1))
	assert.NoError(t, err)

	again, err := r.Register(ctx, theorem("t", "v1.0.0", 1))
	assert.NoError(t, err, "identical content is idempotent")
	assert.Equal(t, first, again)

	_, err = r.Register(ctx, theorem("t", "1.0.0", 2))
	assert.ErrorIs(t, err, kerrors.ErrDuplicateDeclaration)

	_, err = r.Register(ctx, theorem("t", "one", 1))
	assert.Error(t, err)
	_, err = r.Register(ctx, theorem("", "1.0.0", 1))
	assert.Error(t, err)
	_, err = r.Register(ctx, Theorem{Name: "t", Version: "1.1.0"})
	assert.Error(t, err)

	assert.Len(t, r.List("t"), 1)
}

func TestRejectedProofsAreNotStored(t *testing.T) {
	cause := errors.New("bad proof")
	r := New(VerifierFunc(func(context.Context, kernel.Term, kernel.Term) error { return cause }))

	_, err := r.Register(context.Background(), theorem("t", "1.0.0", 1))
	assert.ErrorIs(t, err, kerrors.ErrTheoremRejected)
	assert.Len(t, r.List("t"), 0)
}

func TestConcurrentRegistrationVerifiesOnce(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	r := New(VerifierFunc(func(context.Context, kernel.Term, kernel.Term) error {
		calls.Add(1)
		<-release
		return nil
	}))

	const workers = 16
	var wg sync.WaitGroup
	digests := make([]Digest, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			digests[i], errs[i] = r.Register(context.Background(), theorem("t", "1.0.0", 7))
		}(i)
	}
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, digests[i], digests[0])
	}
	assert.Equal(t, calls.Load(), int32(1))
	assert.Len(t, r.List("t"), 1)
}

func TestVerifyAll(t *testing.T) {
	var reject atomic.Bool
	r := New(VerifierFunc(func(ctx context.Context, statement, proof kernel.Term) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n, ok := proof.(kernel.Number); ok && n.Value == 3 && reject.Load() {
			return errors.New("revoked")
		}
		return nil
	}))
	ctx := context.Background()
	for i := int64(0); i < 8; i++ {
		_, err := r.Register(ctx, theorem("t", fmt.Sprintf("1.0.%d", i), i))
		if !assert.NoError(t, err) {
			return
		}
	}

	assert.NoError(t, r.VerifyAll(ctx, 2))
	assert.NoError(t, r.VerifyAll(ctx, 0))

	reject.Store(true)
	assert.ErrorIs(t, r.VerifyAll(ctx, 4), kerrors.ErrTheoremRejected)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	reject.Store(false)
	assert.Error(t, r.VerifyAll(cancelled, 1))
}

func TestCICTheoremSource(t *testing.T) {
	checker := cic.NewChecker()
	r := New(cic.NewVerifier(checker))
	checker.SetTheoremSource(r)
	ctx := context.Background()

	proof := kernel.Lambda{Param: "P", ParamType: kernel.Prop{}, Body: kernel.Lambda{
		Param: "p", ParamType: kernel.Var{Name: "P"}, Body: kernel.Var{Name: "p"},
	}}
	_, err := r.Register(ctx, Theorem{Name: "id", Version: "1.0.0", Statement: identity("P"), Proof: proof})
	if !assert.NoError(t, err) {
		return
	}

	// A later theorem is proved by citing the first one.
	_, err = r.Register(ctx, Theorem{Name: "id'", Version: "1.0.0", Statement: identity("Q"), Proof: kernel.Const{Name: "id"}})
	assert.NoError(t, err)

	_, err = r.Register(ctx, Theorem{Name: "bad", Version: "1.0.0", Statement: identity("P"), Proof: kernel.Const{Name: "missing"}})
	assert.ErrorIs(t, err, kerrors.ErrTheoremRejected)

	_, err = r.Register(ctx, Theorem{Name: "wrong", Version: "1.0.0", Statement: identity("P"), Proof: kernel.Number{Value: 1}})
	assert.ErrorIs(t, err, kerrors.ErrTheoremRejected)

	assert.NoError(t, r.VerifyAll(ctx, 2))
}

func TestDigestDependsOnContent(t *testing.T) {
	a := ComputeDigest(kernel.NatType, kernel.Number{Value: 1})
	b := ComputeDigest(kernel.NatType, kernel.Number{Value: 2})
	assert.NotEqual(t, a, b)
	assert.Equal(t, ComputeDigest(kernel.NatType, kernel.Number{Value: 1}), a)
}
