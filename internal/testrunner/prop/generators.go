package prop

import "math/rand"

// GenInt generates integers in [-2^size, 2^size], capped at 2^30.
func GenInt() Generator[int] {
	return func(r *rand.Rand, size int) int {
		bound := 1 << min(max(size, 1), 30)
		return r.Intn(2*bound+1) - bound
	}
}

// ShrinkInt proposes zero, half the value and one step toward zero.
func ShrinkInt() Shrinker[int] {
	return func(v int) []int {
		if v == 0 {
			return nil
		}
		step := v - 1
		if v < 0 {
			step = v + 1
		}
		var out []int
		for _, c := range []int{0, v / 2, step} {
			if len(out) == 0 || out[len(out)-1] != c {
				out = append(out, c)
			}
		}
		return out
	}
}

// GenBool returns a fair coin.
func GenBool() Generator[bool] {
	return func(r *rand.Rand, _ int) bool { return r.Intn(2) == 0 }
}

// GenSlice generates up to size elements.
func GenSlice[T any](elem Generator[T]) Generator[[]T] {
	return func(r *rand.Rand, size int) []T {
		out := make([]T, r.Intn(max(size, 0)+1))
		for i := range out {
			out[i] = elem(r, size)
		}
		return out
	}
}

// ShrinkSlice drops either half of the slice, then shrinks its first
// element with elem when given.
func ShrinkSlice[T any](elem Shrinker[T]) Shrinker[[]T] {
	return func(v []T) [][]T {
		if len(v) == 0 {
			return nil
		}
		mid := len(v) / 2
		out := [][]T{
			append([]T(nil), v[:mid]...),
			append([]T(nil), v[mid:]...),
		}
		if elem == nil {
			return out
		}
		for _, head := range elem(v[0]) {
			out = append(out, append([]T{head}, v[1:]...))
		}
		return out
	}
}

// GenElement picks one of items uniformly. items must not be empty.
func GenElement[T any](items ...T) Generator[T] {
	return func(r *rand.Rand, _ int) T {
		return items[r.Intn(len(items))]
	}
}

// GenFrequency picks gens[i] with probability weights[i] / sum(weights).
func GenFrequency[T any](weights []int, gens ...Generator[T]) Generator[T] {
	total := 0
	for _, w := range weights {
		total += w
	}
	return func(r *rand.Rand, size int) T {
		n := r.Intn(total)
		for i, w := range weights {
			if n -= w; n < 0 {
				return gens[i](r, size)
			}
		}
		return gens[len(gens)-1](r, size)
	}
}

// Sized halves the size hint before calling gen. Recursive generators wrap
// their children with it to stay finite.
func Sized[T any](gen Generator[T]) Generator[T] {
	return func(r *rand.Rand, size int) T {
		return gen(r, size/2)
	}
}
