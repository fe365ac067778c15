/*
Package header implements the fixed-size record written ahead of an embedded
payload.

The record holds the payload length, the redundancy the payload was encoded
with and a checksum of the payload. It is always protected at the maximum
supported redundancy, whitened with a fixed mask so that blank images do not
decode as a valid record, and then written several times back to back.
*/
package header

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/bodgit/ghosttag/rs"
)

const (
	// Size is the length in bytes of a marshalled header
	Size = 7

	// Copies is the number of times the protected header is repeated
	Copies = 3

	correctable = (Size*rs.MaxRedundancy + 199) / 200

	// CodewordSize is the length of a single protected copy
	CodewordSize = Size + 2*correctable

	// Len is the number of bytes the header occupies in an image
	Len = Copies * CodewordSize

	// Slots is the number of channel values needed to hold the header
	Slots = Len * 8
)

var (
	// ErrShortHeader is returned when there is not enough data to decode
	ErrShortHeader = errors.New("header: not enough data")

	// ErrNoHeader is returned when none of the copies can be recovered
	ErrNoHeader = errors.New("header: no header found")
)

// Header describes an embedded payload. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Header struct {
	Length     uint32
	Redundancy uint8
	Checksum   uint16
}

func (h Header) String() string {
	return fmt.Sprintf("length=%d redundancy=%d%% checksum=%04X", h.Length, h.Redundancy, h.Checksum)
}

// MarshalBinary encodes the header into big-endian binary form
func (h *Header) MarshalBinary() ([]byte, error) {
	b := make([]byte, Size)
	binary.BigEndian.PutUint32(b[0:], h.Length)
	b[4] = h.Redundancy
	binary.BigEndian.PutUint16(b[5:], h.Checksum)
	return b, nil
}

// UnmarshalBinary decodes the header from binary form
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) < Size {
		return ErrShortHeader
	}
	h.Length = binary.BigEndian.Uint32(b[0:])
	h.Redundancy = b[4]
	h.Checksum = binary.BigEndian.Uint16(b[5:])
	return nil
}

func makeMask(seed uint32) [CodewordSize]byte {
	var m [CodewordSize]byte
	x := seed
	for i := range m {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		m[i] = byte(x >> 24)
	}
	return m
}

var (
	mask  = makeMask(0x9e3779b9)
	codec = mustCodec(correctable)
)

func mustCodec(t int) *rs.Codec {
	c, err := rs.New(t)
	if err != nil {
		panic(err)
	}
	return c
}

func whiten(b []byte) {
	for i := range b {
		b[i] ^= mask[i]
	}
}

// Encode returns the protected form of h, Len bytes long
func Encode(h *Header) ([]byte, error) {
	b, err := h.MarshalBinary()
	if err != nil {
		return nil, err
	}

	cw, err := codec.Encode(b)
	if err != nil {
		return nil, err
	}
	whiten(cw)

	out := make([]byte, 0, Len)
	for i := 0; i < Copies; i++ {
		out = append(out, cw...)
	}
	return out, nil
}

func majority(copies [][]byte) []byte {
	out := make([]byte, CodewordSize)
	for i := range out {
		for bit := 0; bit < 8; bit++ {
			var n int
			for _, c := range copies {
				n += int(c[i]>>bit) & 1
			}
			if n > len(copies)/2 {
				out[i] |= 1 << bit
			}
		}
	}
	return out
}

// Decode recovers a header from the first Len bytes of b. It returns the
// header along with the number of symbol errors corrected in the copy that
// was used.
func Decode(b []byte) (*Header, int, error) {
	if len(b) < Len {
		return nil, 0, ErrShortHeader
	}

	copies := make([][]byte, Copies)
	for i := range copies {
		c := make([]byte, CodewordSize)
		copy(c, b[i*CodewordSize:])
		whiten(c)
		copies[i] = c
	}

	// A bitwise vote first as that survives scattered damage across all
	// copies, then each copy on its own for damage concentrated in one
	candidates := append([][]byte{majority(copies)}, copies...)
	for _, c := range candidates {
		data, n, err := codec.Decode(c)
		if err != nil {
			continue
		}
		h := new(Header)
		if err := h.UnmarshalBinary(data); err != nil {
			return nil, 0, err
		}
		return h, n, nil
	}

	return nil, 0, ErrNoHeader
}
