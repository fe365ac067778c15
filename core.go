package ghosttag

import (
	"fmt"
	"math/bits"

	"github.com/bodgit/ghosttag/header"
	"github.com/bodgit/ghosttag/lsb"
	"github.com/bodgit/ghosttag/pixel"
	"github.com/bodgit/ghosttag/placement"
	"github.com/bodgit/ghosttag/rs"
)

const (
	// DefaultRedundancy is the redundancy used when none is given
	DefaultRedundancy = 20

	// DefaultSeed is the seed used when none is given
	DefaultSeed = 42

	// MaxRedundancy is the largest accepted redundancy percentage
	MaxRedundancy = rs.MaxRedundancy

	// HeaderSlots is the number of channel values, counted from the first
	// in raster order, reserved for the header
	HeaderSlots = header.Slots
)

// Precedes the payload in seed order. Half the bits are set so that flat
// areas of an image never resemble it.
var syncWord = [8]byte{0xb4, 0x1e, 0x69, 0xc3, 0x5a, 0x87, 0x2d, 0xf0}

// More differing bits than this and the seed is rejected
const syncTolerance = 16

type extraction struct {
	header    *header.Header
	message   []byte
	blocks    int
	corrected int
}

func validate(g *pixel.Grid, redundancy int) error {
	if g.Channels != 3 && g.Channels != 4 {
		return ErrInvalidChannels
	}
	if redundancy < 0 || redundancy > MaxRedundancy {
		return fmt.Errorf("%w: %d", ErrInvalidRedundancy, redundancy)
	}
	return nil
}

// bodySlots returns the raster slots holding the first n body bytes
func bodySlots(g *pixel.Grid, seed int64, n int) ([]int, error) {
	slots, err := placement.New(seed, g.Len()-HeaderSlots).Take(n * 8)
	if err != nil {
		return nil, err
	}
	for i := range slots {
		slots[i] += HeaderSlots
	}
	return slots, nil
}

func encodeBody(message []byte, redundancy int) ([]byte, error) {
	out := make([]byte, 0, len(syncWord)+encodedSize(len(message), redundancy))
	out = append(out, syncWord[:]...)

	for _, k := range blocks(len(message), redundancy) {
		c, err := rs.ForRedundancy(k, redundancy)
		if err != nil {
			return nil, err
		}
		cw, err := c.Encode(message[:k])
		if err != nil {
			return nil, err
		}
		out = append(out, cw...)
		message = message[k:]
	}

	return out, nil
}

// Embed returns a copy of g with message hidden in it. The payload is
// protected so that up to roughly half of redundancy percent of each block
// can be damaged and still recovered, and scattered in an order only seed
// reproduces. g is not modified.
func Embed(g *pixel.Grid, message []byte, redundancy int, seed int64) (*pixel.Grid, error) {
	out, _, err := embed(g, message, redundancy, seed)
	return out, err
}

func embed(g *pixel.Grid, message []byte, redundancy int, seed int64) (*pixel.Grid, int, error) {
	if err := validate(g, redundancy); err != nil {
		return nil, 0, err
	}

	limit := MaxPayload(g.Width, g.Height, g.Channels, redundancy)
	if len(message) > limit || bodyBytes(g.Len()) < 0 {
		return nil, 0, &CapacityError{Max: limit, Requested: len(message)}
	}

	h := &header.Header{
		Length:     uint32(len(message)),
		Redundancy: uint8(redundancy),
		Checksum:   checksum(message),
	}
	hb, err := header.Encode(h)
	if err != nil {
		return nil, 0, err
	}

	body, err := encodeBody(message, redundancy)
	if err != nil {
		return nil, 0, err
	}

	slots, err := bodySlots(g, seed, len(body))
	if err != nil {
		return nil, 0, err
	}

	out := g.Clone()
	if err := lsb.Write(out, lsb.Raster(0, HeaderSlots), hb); err != nil {
		return nil, 0, err
	}
	if err := lsb.Write(out, slots, body); err != nil {
		return nil, 0, err
	}

	return out, len(blocks(len(message), redundancy)), nil
}

// ReadHeader recovers the header of an embedded message. No seed is needed
// as the header is always at the start of the image.
func ReadHeader(g *pixel.Grid) (*header.Header, error) {
	h, _, err := readHeader(g)
	return h, err
}

func readHeader(g *pixel.Grid) (*header.Header, int, error) {
	if g.Channels != 3 && g.Channels != 4 {
		return nil, 0, ErrInvalidChannels
	}
	if bodyBytes(g.Len()) < 0 {
		return nil, 0, ErrNoHeader
	}

	b, err := lsb.Read(g, lsb.Raster(0, HeaderSlots), header.Len)
	if err != nil {
		return nil, 0, err
	}

	h, n, err := header.Decode(b)
	if err != nil {
		return nil, 0, err
	}

	// A header that decodes but describes something impossible for this
	// image is noise that happened to land near a codeword
	if int(h.Redundancy) > MaxRedundancy || uint64(h.Length) > uint64(MaxPayload(g.Width, g.Height, g.Channels, int(h.Redundancy))) {
		return nil, 0, ErrNoHeader
	}

	return h, n, nil
}

func syncDistance(b []byte) int {
	var d int
	for i := range syncWord {
		d += bits.OnesCount8(b[i] ^ syncWord[i])
	}
	return d
}

// Extract recovers a message previously hidden with Embed using the same
// seed. Any failure is reported as an *ExtractError.
func Extract(g *pixel.Grid, seed int64) ([]byte, error) {
	e, err := extract(g, seed)
	if err != nil {
		return nil, err
	}
	return e.message, nil
}

func extract(g *pixel.Grid, seed int64) (*extraction, error) {
	h, _, err := readHeader(g)
	if err != nil {
		return nil, &ExtractError{Reason: WrongSeedOrNoMessage, Err: err}
	}

	length, redundancy := int(h.Length), int(h.Redundancy)
	size := len(syncWord) + encodedSize(length, redundancy)

	slots, err := bodySlots(g, seed, size)
	if err != nil {
		return nil, &ExtractError{Reason: WrongSeedOrNoMessage, Header: h, Err: err}
	}
	body, err := lsb.Read(g, slots, size)
	if err != nil {
		return nil, &ExtractError{Reason: WrongSeedOrNoMessage, Header: h, Err: err}
	}

	if syncDistance(body) > syncTolerance {
		return nil, &ExtractError{Reason: WrongSeedOrNoMessage, Header: h, Err: ErrWrongSeed}
	}
	body = body[len(syncWord):]

	e := &extraction{
		header:  h,
		message: make([]byte, 0, length),
	}

	var failed int
	for _, k := range blocks(length, redundancy) {
		c, err := rs.ForRedundancy(k, redundancy)
		if err != nil {
			return nil, &ExtractError{Reason: UncorrectableErrors, Header: h, Err: err}
		}
		n := k + c.Parity()

		data, corrected, err := c.Decode(body[:n])
		body = body[n:]
		e.blocks++

		if err != nil {
			failed++
			continue
		}
		e.corrected += corrected
		e.message = append(e.message, data...)
	}

	if failed > 0 {
		return nil, &ExtractError{
			Reason: UncorrectableErrors,
			Header: h,
			Err:    fmt.Errorf("%w: %d of %d blocks", ErrUncorrectable, failed, e.blocks),
		}
	}

	if checksum(e.message) != h.Checksum {
		return nil, &ExtractError{Reason: IntegrityMismatch, Header: h, Err: ErrIntegrityMismatch}
	}

	return e, nil
}
