// Package lsb writes and reads bytes through the least significant bit of a
// sequence of channel values.
//
// Bytes are consumed in order and the bits of each byte most significant
// first, bit i of the stream going to the i-th slot given.
package lsb

import (
	"errors"
	"fmt"
)

// ErrNotEnoughSlots is returned when fewer slots than bits are supplied
var ErrNotEnoughSlots = errors.New("lsb: not enough slots")

// Channels is implemented by anything addressing channel values by slot
type Channels interface {
	Len() int
	Slot(i int) (x, y, c int)
	At(x, y, c int) uint8
	Set(x, y, c int, v uint8)
}

func check(ch Channels, slots []int, bits int) error {
	if len(slots) < bits {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughSlots, len(slots), bits)
	}
	for _, s := range slots[:bits] {
		if s < 0 || s >= ch.Len() {
			return fmt.Errorf("lsb: slot %d out of range", s)
		}
	}
	return nil
}

// Write stores data in the least significant bits of the channel values
// named by slots
func Write(ch Channels, slots []int, data []byte) error {
	if err := check(ch, slots, len(data)*8); err != nil {
		return err
	}

	for i, b := range data {
		for bit := 0; bit < 8; bit++ {
			x, y, c := ch.Slot(slots[i*8+bit])
			v := b >> uint(7-bit) & 1
			ch.Set(x, y, c, ch.At(x, y, c)&0xfe|v)
		}
	}

	return nil
}

// Read returns n bytes assembled from the least significant bits of the
// channel values named by slots
func Read(ch Channels, slots []int, n int) ([]byte, error) {
	if err := check(ch, slots, n*8); err != nil {
		return nil, err
	}

	out := make([]byte, n)
	for i := range out {
		var b byte
		for bit := 0; bit < 8; bit++ {
			x, y, c := ch.Slot(slots[i*8+bit])
			b = b<<1 | ch.At(x, y, c)&1
		}
		out[i] = b
	}

	return out, nil
}

// Raster returns the n consecutive slots starting at offset
func Raster(offset, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = offset + i
	}
	return out
}
