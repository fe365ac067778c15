// Package placement generates the seed-derived order in which payload bits
// are scattered over an image.
//
// The order is a Fisher-Yates shuffle of 0..n-1 driven by a PCG generator.
// The shuffle is evaluated lazily so that only as many positions as are
// needed are ever materialised, which keeps large images cheap.
package placement

import (
	"errors"
	"math/bits"
	"math/rand/v2"
)

// ErrExhausted is returned when more positions are requested than remain
var ErrExhausted = errors.New("placement: sequence exhausted")

// Shuffle yields a pseudo-random permutation of 0..n-1 one position at a
// time. The same seed and length always yield the same permutation.
type Shuffle struct {
	src  *rand.PCG
	n    int
	i    int
	swap map[int]int
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ x>>30) * 0xbf58476d1ce4e5b9
	x = (x ^ x>>27) * 0x94d049bb133111eb
	return x ^ x>>31
}

// New returns a Shuffle over n positions keyed by seed
func New(seed int64, n int) *Shuffle {
	if n < 0 {
		n = 0
	}
	hi := splitmix64(uint64(seed))
	lo := splitmix64(hi)
	return &Shuffle{
		src:  rand.NewPCG(hi, lo),
		n:    n,
		swap: make(map[int]int),
	}
}

// Len returns the number of positions not yet returned
func (s *Shuffle) Len() int {
	return s.n - s.i
}

// bounded returns a uniform value in [0, m) using Lemire's multiply-shift
// with rejection
func (s *Shuffle) bounded(m uint64) uint64 {
	hi, lo := bits.Mul64(s.src.Uint64(), m)
	if lo < m {
		threshold := -m % m
		for lo < threshold {
			hi, lo = bits.Mul64(s.src.Uint64(), m)
		}
	}
	return hi
}

func (s *Shuffle) at(k int) int {
	if v, ok := s.swap[k]; ok {
		return v
	}
	return k
}

// Next returns the next position, the second return value is false once all
// n positions have been returned
func (s *Shuffle) Next() (int, bool) {
	if s.i >= s.n {
		return 0, false
	}

	j := s.i + int(s.bounded(uint64(s.n-s.i)))
	vi, vj := s.at(s.i), s.at(j)
	s.swap[j] = vi
	delete(s.swap, s.i)
	s.i++

	return vj, true
}

// Take returns the next m positions
func (s *Shuffle) Take(m int) ([]int, error) {
	if m > s.Len() {
		return nil, ErrExhausted
	}
	out := make([]int, m)
	for i := range out {
		out[i], _ = s.Next()
	}
	return out, nil
}

// Perm returns the complete permutation of 0..n-1 for seed
func Perm(seed int64, n int) []int {
	s := New(seed, n)
	out, _ := s.Take(s.Len())
	return out
}
