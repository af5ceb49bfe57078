// Package prop is a small property checker: random inputs from seeded
// generators, checked in parallel, with shrinking of the first failure.
//
// Every trial draws from its own PRNG seeded from Options.Seed and the
// trial index, so a reported seed reproduces the same inputs regardless of
// scheduling.
package prop

import (
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

// Generator produces a value of type T from a PRNG and a size hint.
type Generator[T any] func(r *rand.Rand, size int) T

// Shrinker proposes smaller candidates for a failing value, most
// aggressive first.
type Shrinker[T any] func(v T) []T

// Property1 is a unary property predicate.
type Property1[A any] func(a A) bool

// Property2 is a binary property predicate.
type Property2[A, B any] func(a A, b B) bool

// Pair carries the inputs of a binary property.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Options control property checking. Zero fields take defaults.
type Options struct {
	Trials          int           // default 200
	Seed            int64         // 0 picks one from the clock
	Size            int           // generator size hint, default 30
	Parallelism     int           // default GOMAXPROCS
	MaxShrinkRounds int           // default 200
	MaxShrinkTime   time.Duration // 0 means unbounded
}

func (o Options) withDefaults() Options {
	if o.Trials <= 0 {
		o.Trials = 200
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Size <= 0 {
		o.Size = 30
	}
	if o.Parallelism <= 0 {
		o.Parallelism = max(runtime.GOMAXPROCS(0), 1)
	}
	if o.MaxShrinkRounds <= 0 {
		o.MaxShrinkRounds = 200
	}
	return o
}

// Result is the outcome of a property check.
type Result struct {
	PassedTrials int
	Failed       bool
	FailingInput any
	ShrunkInput  any
	Seed         int64
	Duration     time.Duration
	ShrinkRounds int
}

// ForAll1 checks a unary property. shrink may be nil.
//
// When several trials fail, the one with the lowest index is reported, so
// a fixed seed always yields the same counterexample.
func ForAll1[A any](gen Generator[A], shrink Shrinker[A], prop Property1[A], opts Options) Result {
	start := time.Now()
	opts = opts.withDefaults()

	var (
		mu      sync.Mutex
		first   = -1
		failing A
		passed  int
	)
	failedBefore := func(i int) bool {
		mu.Lock()
		defer mu.Unlock()
		return first >= 0 && first < i
	}

	var g errgroup.Group
	g.SetLimit(opts.Parallelism)
	for i := 0; i < opts.Trials && !failedBefore(i); i++ {
		g.Go(func() error {
			a := gen(rand.New(rand.NewSource(trialSeed(opts.Seed, i))), opts.Size)
			ok := prop(a)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case ok:
				passed++
			case first < 0 || i < first:
				first, failing = i, a
			}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{PassedTrials: passed, Seed: opts.Seed}
	if first >= 0 {
		res.Failed = true
		res.FailingInput = failing
		if shrink != nil {
			best, rounds := shrinkFailure(failing, shrink, prop, opts)
			res.ShrunkInput, res.ShrinkRounds = best, rounds
		}
	}
	res.Duration = time.Since(start)
	return res
}

// shrinkFailure greedily replaces a by its first failing candidate until no
// candidate fails or a limit is hit.
func shrinkFailure[A any](a A, shrink Shrinker[A], prop Property1[A], opts Options) (A, int) {
	var deadline time.Time
	if opts.MaxShrinkTime > 0 {
		deadline = time.Now().Add(opts.MaxShrinkTime)
	}

	best, rounds := a, 0
	for rounds < opts.MaxShrinkRounds {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}
		next, found := best, false
		for _, c := range shrink(best) {
			if !prop(c) {
				next, found = c, true
				break
			}
		}
		if !found {
			break
		}
		best = next
		rounds++
	}
	return best, rounds
}

// ForAll2 checks a binary property. Shrinking tries the first input, then
// the second.
func ForAll2[A, B any](genA Generator[A], genB Generator[B], shrinkA Shrinker[A], shrinkB Shrinker[B], prop Property2[A, B], opts Options) Result {
	gen := func(r *rand.Rand, size int) Pair[A, B] {
		a := genA(r, size)
		return Pair[A, B]{First: a, Second: genB(r, size)}
	}

	var shrink Shrinker[Pair[A, B]]
	if shrinkA != nil || shrinkB != nil {
		shrink = func(p Pair[A, B]) []Pair[A, B] {
			var out []Pair[A, B]
			if shrinkA != nil {
				for _, a := range shrinkA(p.First) {
					out = append(out, Pair[A, B]{First: a, Second: p.Second})
				}
			}
			if shrinkB != nil {
				for _, b := range shrinkB(p.Second) {
					out = append(out, Pair[A, B]{First: p.First, Second: b})
				}
			}
			return out
		}
	}
	return ForAll1(gen, shrink, func(p Pair[A, B]) bool { return prop(p.First, p.Second) }, opts)
}

// Check fails t when res records a counterexample.
func Check(t testing.TB, res Result) {
	t.Helper()
	if !res.Failed {
		return
	}
	msg := "property failed after %d passing trials (seed %d)\n  input:  %v"
	args := []any{res.PassedTrials, res.Seed, res.FailingInput}
	if res.ShrunkInput != nil {
		msg += "\n  shrunk: %v (%d rounds)"
		args = append(args, res.ShrunkInput, res.ShrinkRounds)
	}
	t.Fatalf(msg, args...)
}

// trialSeed mixes the base seed with the trial index (splitmix64).
func trialSeed(base int64, trial int) int64 {
	z := uint64(base) + uint64(trial+1)*0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return int64(z ^ (z >> 31))
}
