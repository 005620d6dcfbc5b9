package exam

import (
	"math/rand/v2"
)

// Rand is the random source used for shuffling. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand draws from the process-wide math/rand/v2 generator.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand is the process-wide uniform source.
var DefaultRand Rand = globalRand{}

// Shuffle permutes items in place with Fisher-Yates: for i from the last index
// down to 1, swap item i with a uniformly chosen item at index <= i.
func Shuffle[T any](r Rand, items []T) {
	for i := len(items) - 1; i > 0; i-- {
		j := r.IntN(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// shuffleTake returns the first n elements of a shuffled copy of pool.
// If pool is shorter than n the whole shuffled pool is returned.
func shuffleTake[T any](r Rand, pool []T, n int) []T {
	if n <= 0 {
		return nil
	}
	out := append([]T(nil), pool...)
	Shuffle(r, out)
	if len(out) <= n {
		return out
	}
	return out[:n]
}
