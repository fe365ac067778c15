/*
Package gf256 implements arithmetic in the finite field GF(2^8) as used by the
Reed-Solomon codec.

Elements are bytes. The field is generated by the primitive polynomial
x^8 + x^4 + x^3 + x^2 + 1 with 2 as the generator, and multiplication and
division are done with log/antilog tables computed once at package
initialisation.
*/
package gf256

import "errors"

const (
	// Polynomial is the primitive polynomial used to reduce products
	Polynomial = 0x11d

	// Order is the number of non-zero elements in the field
	Order = 255
)

// ErrDivisionByZero is returned when dividing by, or inverting, zero
var ErrDivisionByZero = errors.New("gf256: division by zero")

type tables struct {
	exp [Order * 2]byte
	log [Order + 1]byte
}

func makeTables(poly int) *tables {
	t := new(tables)
	x := 1
	for i := 0; i < Order; i++ {
		t.exp[i] = byte(x)
		t.log[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= poly
		}
	}
	// Doubled so a sum of two logarithms never needs reducing
	for i := Order; i < len(t.exp); i++ {
		t.exp[i] = t.exp[i-Order]
	}
	return t
}

var table = makeTables(Polynomial)

// Add returns a + b
func Add(a, b byte) byte { return a ^ b }

// Sub returns a - b, which in characteristic 2 is the same as addition
func Sub(a, b byte) byte { return a ^ b }

// Mul returns a * b
func Mul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return table.exp[int(table.log[a])+int(table.log[b])]
}

// Div returns a / b
func Div(a, b byte) (byte, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	if a == 0 {
		return 0, nil
	}
	return table.exp[int(table.log[a])+Order-int(table.log[b])], nil
}

// Inverse returns the multiplicative inverse of a
func Inverse(a byte) (byte, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return table.exp[Order-int(table.log[a])], nil
}

// Pow returns a raised to the power n. Negative powers are permitted for
// non-zero a.
func Pow(a byte, n int) byte {
	if n == 0 {
		return 1
	}
	if a == 0 {
		return 0
	}
	e := (int(table.log[a]) * n) % Order
	if e < 0 {
		e += Order
	}
	return table.exp[e]
}

// Exp returns the generator raised to the power n, n may be negative
func Exp(n int) byte {
	n %= Order
	if n < 0 {
		n += Order
	}
	return table.exp[n]
}

// Log returns the discrete logarithm of a non-zero element
func Log(a byte) (int, error) {
	if a == 0 {
		return 0, ErrDivisionByZero
	}
	return int(table.log[a]), nil
}
