package dataset

import (
	"fmt"
	"math/rand/v2"
)

// NewRand returns the deterministic random source used for sampling and
// splitting. The same seed always yields the same datasets.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Sample returns up to n items drawn without replacement. The input is not
// modified.
func Sample[T any](rng *rand.Rand, items []T, n int) []T {
	if n >= len(items) {
		return append([]T(nil), items...)
	}
	if n <= 0 {
		return nil
	}
	picked := make([]T, 0, n)
	for _, i := range rng.Perm(len(items))[:n] {
		picked = append(picked, items[i])
	}
	return picked
}

// Split holds the train/valid/test partitions of a dataset.
type Split[T any] struct {
	Train []T
	Valid []T
	Test  []T
}

// Fractions configures SplitItems. Test receives the remainder.
type Fractions struct {
	Train float64
	Valid float64
}

// Validate checks the fractions describe a usable split.
func (f Fractions) Validate() error {
	if f.Train <= 0 || f.Valid < 0 || f.Train+f.Valid > 1 {
		return fmt.Errorf("invalid split fractions train=%.2f valid=%.2f", f.Train, f.Valid)
	}
	return nil
}

// SplitItems shuffles a copy of items and cuts it into partitions.
func SplitItems[T any](rng *rand.Rand, items []T, f Fractions) Split[T] {
	shuffled := append([]T(nil), items...)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	n := len(shuffled)
	trainEnd := int(f.Train * float64(n))
	validEnd := int((f.Train + f.Valid) * float64(n))
	validEnd = min(max(validEnd, trainEnd), n)

	return Split[T]{
		Train: shuffled[:trainEnd],
		Valid: shuffled[trainEnd:validEnd],
		Test:  shuffled[validEnd:],
	}
}
