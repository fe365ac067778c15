/*
Package rs implements a systematic Reed-Solomon codec over GF(2^8).

A codeword is the data symbols followed by 2t parity symbols and any t
corrupted symbols in it can be corrected. The generator polynomial has the
roots 2^0 .. 2^(2t-1). Decoding uses Berlekamp-Massey to find the error
locator, a Chien search for the error positions and Forney's algorithm for
the error values.
*/
package rs

import (
	"errors"
	"fmt"

	"github.com/bodgit/ghosttag/gf256"
)

const (
	// MaxBlock is the longest codeword a single block can hold
	MaxBlock = gf256.Order

	// MaxRedundancy is the largest supported redundancy percentage
	MaxRedundancy = 200
)

var (
	// ErrEmptyBlock is returned when a block carries no data symbols
	ErrEmptyBlock = errors.New("rs: empty block")

	// ErrBlockTooLarge is returned when a codeword would exceed MaxBlock
	ErrBlockTooLarge = errors.New("rs: block too large")

	// ErrUncorrectable is returned when a codeword holds more errors than
	// the parity can correct
	ErrUncorrectable = errors.New("rs: uncorrectable errors")

	// ErrInvalidParity is returned for a negative or oversized parity count
	ErrInvalidParity = errors.New("rs: invalid parity count")
)

// Correctable returns the number of symbol errors that are correctable in a
// block of k data symbols at the given redundancy percentage, that is
// ceil(k * redundancy / 100 / 2).
func Correctable(k, redundancy int) int {
	return (k*redundancy + 199) / 200
}

// BlockSize returns the largest number of data symbols that, with the parity
// required at the given redundancy, still fits in a single codeword.
func BlockSize(redundancy int) int {
	return DataFor(MaxBlock, redundancy)
}

// DataFor returns the largest number of data symbols whose codeword at the
// given redundancy is no longer than n, or zero if none fits.
func DataFor(n, redundancy int) int {
	if n > MaxBlock {
		n = MaxBlock
	}
	for k := n; k > 0; k-- {
		if k+2*Correctable(k, redundancy) <= n {
			return k
		}
	}
	return 0
}

// Codec encodes and decodes blocks with a fixed number of parity symbols
type Codec struct {
	t         int
	generator []byte
}

// New returns a Codec able to correct up to t symbol errors per block
func New(t int) (*Codec, error) {
	if t < 0 || 2*t >= MaxBlock {
		return nil, fmt.Errorf("%w: %d", ErrInvalidParity, t)
	}

	// Highest degree first, the product of (x - 2^i)
	g := []byte{1}
	for i := 0; i < 2*t; i++ {
		g = polyMul(g, []byte{1, gf256.Exp(i)})
	}

	return &Codec{
		t:         t,
		generator: g,
	}, nil
}

// ForRedundancy returns a Codec sized for a block of k data symbols at the
// given redundancy percentage
func ForRedundancy(k, redundancy int) (*Codec, error) {
	if k <= 0 {
		return nil, ErrEmptyBlock
	}
	return New(Correctable(k, redundancy))
}

// Correctable returns the number of symbol errors the codec can correct
func (c *Codec) Correctable() int {
	return c.t
}

// Parity returns the number of parity symbols appended to each block
func (c *Codec) Parity() int {
	return 2 * c.t
}

// Encode returns data followed by its parity symbols
func (c *Codec) Encode(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyBlock
	}
	if len(data)+c.Parity() > MaxBlock {
		return nil, fmt.Errorf("%w: %d data symbols with %d parity", ErrBlockTooLarge, len(data), c.Parity())
	}

	out := make([]byte, len(data)+c.Parity())
	copy(out, data)

	// Long division by the generator, what's left in the tail is the
	// remainder
	for i := 0; i < len(data); i++ {
		coef := out[i]
		if coef == 0 {
			continue
		}
		for j := 1; j < len(c.generator); j++ {
			out[i+j] ^= gf256.Mul(c.generator[j], coef)
		}
	}
	copy(out, data)

	return out, nil
}

// Decode corrects received in place where possible and returns the data
// symbols along with the number of symbol errors that were corrected
func (c *Codec) Decode(received []byte) ([]byte, int, error) {
	n := len(received)
	if n > MaxBlock {
		return nil, 0, fmt.Errorf("%w: %d symbols", ErrBlockTooLarge, n)
	}
	if n <= c.Parity() {
		return nil, 0, ErrEmptyBlock
	}

	msg := make([]byte, n)
	copy(msg, received)

	synd, ok := c.syndromes(msg)
	if ok {
		return msg[:n-c.Parity()], 0, nil
	}

	locator, err := c.errorLocator(synd)
	if err != nil {
		return nil, 0, err
	}

	positions, err := findErrors(locator, n)
	if err != nil {
		return nil, 0, err
	}

	if err := correct(msg, synd, locator, positions); err != nil {
		return nil, 0, err
	}

	if _, ok := c.syndromes(msg); !ok {
		return nil, 0, ErrUncorrectable
	}

	return msg[:n-c.Parity()], len(positions), nil
}

// syndromes evaluates msg at each root of the generator, the second return
// value is true if they are all zero
func (c *Codec) syndromes(msg []byte) ([]byte, bool) {
	synd := make([]byte, c.Parity())
	clean := true
	for i := range synd {
		synd[i] = polyEval(msg, gf256.Exp(i))
		if synd[i] != 0 {
			clean = false
		}
	}
	return synd, clean
}

// errorLocator runs Berlekamp-Massey over the syndromes. The locator is
// returned lowest degree first.
func (c *Codec) errorLocator(synd []byte) ([]byte, error) {
	cur := []byte{1}
	prev := []byte{1}
	l, m := 0, 1
	b := byte(1)

	for r := 0; r < len(synd); r++ {
		d := synd[r]
		for i := 1; i <= l && i < len(cur); i++ {
			d ^= gf256.Mul(cur[i], synd[r-i])
		}

		if d == 0 {
			m++
			continue
		}

		scale, err := gf256.Div(d, b)
		if err != nil {
			return nil, err
		}

		next := make([]byte, max(len(cur), len(prev)+m))
		copy(next, cur)
		for i, p := range prev {
			next[i+m] ^= gf256.Mul(scale, p)
		}

		if 2*l <= r {
			prev = cur
			l = r + 1 - l
			b = d
			m = 1
		} else {
			m++
		}
		cur = next
	}

	// Trim to the real degree
	for len(cur) > 1 && cur[len(cur)-1] == 0 {
		cur = cur[:len(cur)-1]
	}

	if deg := len(cur) - 1; deg != l || l > c.t {
		return nil, ErrUncorrectable
	}

	return cur, nil
}

// findErrors returns the symbol indices, in codeword order, whose position
// is a root of the locator
func findErrors(locator []byte, n int) ([]int, error) {
	var positions []int
	for p := 0; p < n; p++ {
		// Position p counts from the last symbol
		if polyEvalLow(locator, gf256.Exp(-p)) == 0 {
			positions = append(positions, n-1-p)
		}
	}
	if len(positions) != len(locator)-1 {
		return nil, ErrUncorrectable
	}
	return positions, nil
}

// correct applies Forney's algorithm to fix each error in msg
func correct(msg, synd, locator []byte, positions []int) error {
	n := len(msg)

	// Evaluator is S(x) * locator(x) mod x^2t, lowest degree first
	evaluator := make([]byte, len(synd))
	for i := range evaluator {
		var v byte
		for j := 0; j <= i && j < len(locator); j++ {
			v ^= gf256.Mul(locator[j], synd[i-j])
		}
		evaluator[i] = v
	}

	// Formal derivative, in characteristic 2 only the odd terms survive
	derivative := make([]byte, len(locator)-1)
	for i := 1; i < len(locator); i += 2 {
		derivative[i-1] = locator[i]
	}

	for _, pos := range positions {
		p := n - 1 - pos
		x := gf256.Exp(p)
		xInv := gf256.Exp(-p)

		num := gf256.Mul(x, polyEvalLow(evaluator, xInv))
		den := polyEvalLow(derivative, xInv)

		magnitude, err := gf256.Div(num, den)
		if err != nil {
			return ErrUncorrectable
		}
		msg[pos] ^= magnitude
	}

	return nil
}

// polyMul multiplies two polynomials stored highest degree first
func polyMul(p, q []byte) []byte {
	out := make([]byte, len(p)+len(q)-1)
	for i := range p {
		for j := range q {
			out[i+j] ^= gf256.Mul(p[i], q[j])
		}
	}
	return out
}

// polyEval evaluates a polynomial stored highest degree first
func polyEval(p []byte, x byte) byte {
	var y byte
	for _, c := range p {
		y = gf256.Mul(y, x) ^ c
	}
	return y
}

// polyEvalLow evaluates a polynomial stored lowest degree first
func polyEvalLow(p []byte, x byte) byte {
	var y byte
	for i := len(p) - 1; i >= 0; i-- {
		y = gf256.Mul(y, x) ^ p[i]
	}
	return y
}
