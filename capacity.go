package ghosttag

import (
	"math"

	"github.com/bodgit/ghosttag/header"
	"github.com/bodgit/ghosttag/rs"
)

// The header stores the length as a uint32
var maxLength = uint64(math.MaxUint32)

// bodyBytes returns how many payload bytes fit in the slots left over once
// the header and sync word are accounted for
func bodyBytes(slots int) int {
	return (slots-header.Slots)/8 - len(syncWord)
}

// blocks returns the data length of each codec block for a message
func blocks(length, redundancy int) []int {
	k := rs.BlockSize(redundancy)
	sizes := make([]int, 0, length/k+1)
	for length > 0 {
		n := min(k, length)
		sizes = append(sizes, n)
		length -= n
	}
	return sizes
}

// encodedSize returns the number of bytes a message occupies once split into
// blocks and encoded
func encodedSize(length, redundancy int) int {
	var n int
	for _, k := range blocks(length, redundancy) {
		n += k + 2*rs.Correctable(k, redundancy)
	}
	return n
}

// MaxPayload returns the length in bytes of the longest message that can be
// embedded in an image of the given dimensions at the given redundancy
func MaxPayload(width, height, channels, redundancy int) int {
	if width <= 0 || height <= 0 || (channels != 3 && channels != 4) {
		return 0
	}
	if redundancy < 0 || redundancy > MaxRedundancy {
		return 0
	}

	body := bodyBytes(width * height * channels)
	if body <= 0 {
		return 0
	}

	k := rs.BlockSize(redundancy)
	n := k + 2*rs.Correctable(k, redundancy)
	full := body / n

	limit := full*k + rs.DataFor(body-full*n, redundancy)
	if uint64(limit) > maxLength {
		limit = int(maxLength)
	}
	return limit
}
