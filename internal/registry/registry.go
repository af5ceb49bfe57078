// Package registry stores versioned theorems whose proofs have been
// checked. It is the theorem source consulted by the CIC checker when a
// proof refers to a previously established result by name.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	semver "github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/orizon-lang/typekernel/internal/kernel"

	kerrors "github.com/orizon-lang/typekernel/internal/errors"
)

// Digest identifies a theorem by the content of its statement and proof.
type Digest string

// ComputeDigest returns the digest of a statement and its proof.
func ComputeDigest(statement, proof kernel.Term) Digest {
	h := sha256.New()
	h.Write([]byte(statement.String()))
	h.Write([]byte{0})
	h.Write([]byte(proof.String()))
	return Digest("th1-" + hex.EncodeToString(h.Sum(nil)))
}

// Theorem is a named, versioned statement together with its proof.
type Theorem struct {
	Name      string
	Version   string
	Statement kernel.Term
	Proof     kernel.Term
}

// Verifier checks that proof proves statement.
type Verifier interface {
	Verify(ctx context.Context, statement, proof kernel.Term) error
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, statement, proof kernel.Term) error

// Verify calls f.
func (f VerifierFunc) Verify(ctx context.Context, statement, proof kernel.Term) error {
	return f(ctx, statement, proof)
}

type entry struct {
	version *semver.Version
	digest  Digest
	theorem Theorem
}

// Registry is a thread-safe index of verified theorems. Versions of a
// theorem are kept sorted in ascending semver order.
type Registry struct {
	verifier Verifier
	logger   kernel.Logger

	mu    sync.RWMutex
	index map[string][]entry

	// concurrent registrations of the same content share one verification
	sf singleflight.Group
}

// New returns an empty registry that verifies proofs with v.
func New(v Verifier) *Registry {
	return &Registry{verifier: v, index: make(map[string][]entry)}
}

// SetLogger routes registration traces to l.
func (r *Registry) SetLogger(l kernel.Logger) {
	r.logger = l
}

func (r *Registry) debugf(format string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(format, args...)
	}
}

// Register verifies th and adds it to the registry. Registering identical
// content under the same name and version again is a no-op; different
// content under an existing name and version is a DuplicateDeclaration.
func (r *Registry) Register(ctx context.Context, th Theorem) (Digest, error) {
	if th.Name == "" {
		return "", fmt.Errorf("register: theorem has no name")
	}
	if th.Statement == nil || th.Proof == nil {
		return "", fmt.Errorf("register %s: statement and proof are required", th.Name)
	}
	ver, err := semver.NewVersion(th.Version)
	if err != nil {
		return "", fmt.Errorf("register %s: invalid version %q: %w", th.Name, th.Version, err)
	}
	digest := ComputeDigest(th.Statement, th.Proof)

	if done, err := r.lookup(th.Name, ver, digest); done || err != nil {
		return digest, err
	}

	_, err, shared := r.sf.Do(th.Name+"@"+ver.String()+"#"+string(digest), func() (interface{}, error) {
		if done, err := r.lookup(th.Name, ver, digest); done || err != nil {
			return nil, err
		}
		r.debugf("verifying %s@%s", th.Name, ver)
		if err := r.verifier.Verify(ctx, th.Statement, th.Proof); err != nil {
			return nil, kerrors.TheoremRejected(th.Name, err)
		}
		return nil, r.insert(entry{version: ver, digest: digest, theorem: th})
	})
	if shared {
		r.debugf("joined verification of %s@%s", th.Name, ver)
	}
	if err != nil {
		return "", err
	}
	return digest, nil
}

// lookup reports whether name@ver is already registered with digest, and
// fails if it is registered with different content.
func (r *Registry) lookup(name string, ver *semver.Version, digest Digest) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.index[name] {
		if e.version.Equal(ver) {
			if e.digest == digest {
				return true, nil
			}
			return false, kerrors.DuplicateDeclaration(name + "@" + ver.String())
		}
	}
	return false, nil
}

func (r *Registry) insert(e entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.index[e.theorem.Name]
	for _, other := range list {
		if other.version.Equal(e.version) {
			if other.digest == e.digest {
				return nil
			}
			return kerrors.DuplicateDeclaration(e.theorem.Name + "@" + e.version.String())
		}
	}
	list = append(list, e)
	sort.Slice(list, func(i, j int) bool { return list[i].version.LessThan(list[j].version) })
	r.index[e.theorem.Name] = list
	return nil
}

// Find returns the highest version of name that satisfies constraint. An
// empty constraint accepts every version.
func (r *Registry) Find(name, constraint string) (Theorem, error) {
	var c *semver.Constraints
	if constraint != "" {
		var err error
		c, err = semver.NewConstraint(constraint)
		if err != nil {
			return Theorem{}, fmt.Errorf("find %s: invalid constraint %q: %w", name, constraint, err)
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.index[name]
	for i := len(list) - 1; i >= 0; i-- {
		if c == nil || c.Check(list[i].version) {
			return list[i].theorem, nil
		}
	}
	return Theorem{}, kerrors.TheoremNotFound(name, constraint)
}

// Statement returns the statement of the latest version of name.
func (r *Registry) Statement(name string) (kernel.Term, bool) {
	th, err := r.Find(name, "")
	if err != nil {
		return nil, false
	}
	return th.Statement, true
}

// List returns every version of name in ascending order.
func (r *Registry) List(name string) []Theorem {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Theorem, len(r.index[name]))
	for i, e := range r.index[name] {
		out[i] = e.theorem
	}
	return out
}

// Names returns the names of all registered theorems, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.index))
	for name := range r.index {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// VerifyAll re-checks every registered proof with at most limit
// verifications in flight. limit <= 0 means no limit. The first rejection
// cancels the remaining checks and is returned.
func (r *Registry) VerifyAll(ctx context.Context, limit int) error {
	r.mu.RLock()
	var all []Theorem
	for _, list := range r.index {
		for _, e := range list {
			all = append(all, e.theorem)
		}
	}
	r.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, th := range all {
		g.Go(func() error {
			if err := r.verifier.Verify(gctx, th.Statement, th.Proof); err != nil {
				return kerrors.TheoremRejected(th.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
