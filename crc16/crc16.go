/*
Package crc16 implements the 16-bit cyclic redundancy check, or CRC-16,
checksum used to verify an embedded payload.

It is the CCITT polynomial computed most significant bit first with an
initial value of 0xffff, commonly known as CRC-16/CCITT-FALSE.
*/
package crc16

import "hash"

// Size of a CRC-16 checksum in bytes
const Size = 2

const (
	polynomial = 0x1021
	initial    = 0xffff
)

// Table is a 256-word table representing the polynomial for efficient
// processing
type Table [256]uint16

func makeTable(poly uint16) *Table {
	t := new(Table)
	for i := 0; i < 256; i++ {
		crc := uint16(i << 8)
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return t
}

var table = makeTable(polynomial)

// Hash16 is the common interface implemented by 16-bit hash functions
type Hash16 interface {
	hash.Hash
	Sum16() uint16
}

type digest struct {
	crc uint16
	tab *Table
}

// New creates a new Hash16 computing the CRC-16 checksum. Its Sum method
// will lay the value out in big-endian byte order.
func New() Hash16 {
	return &digest{initial, table}
}

func (d *digest) Size() int { return Size }

func (d *digest) BlockSize() int { return 1 }

func (d *digest) Reset() { d.crc = initial }

func update(crc uint16, tab *Table, p []byte) uint16 {
	for _, b := range p {
		crc = crc<<8 ^ tab[byte(crc>>8)^b]
	}
	return crc
}

// Update returns the result of adding the bytes in p to the crc
func Update(crc uint16, p []byte) uint16 {
	return update(crc, table, p)
}

func (d *digest) Write(p []byte) (n int, err error) {
	d.crc = update(d.crc, d.tab, p)
	return len(p), nil
}

func (d *digest) Sum16() uint16 { return d.crc }

func (d *digest) Sum(in []byte) []byte {
	s := d.Sum16()
	return append(in, byte(s>>8), byte(s))
}

// Checksum returns the CRC-16 checksum of data
func Checksum(data []byte) uint16 { return Update(initial, data) }
