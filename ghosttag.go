/*
Package ghosttag is a library for hiding a message in the pixels of a
lossless image so that it survives partial damage to the image and can only
be found with the right seed.

The message is split into Reed-Solomon protected blocks whose bits are
scattered over the least significant bits of the color channels in an order
derived from the seed. A small header describing the message is written,
heavily protected, at the start of the image so it can always be found.
*/
package ghosttag

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/bodgit/ghosttag/header"
	"github.com/bodgit/ghosttag/pixel"
)

// GhostTag embeds and extracts messages with a fixed redundancy and seed
type GhostTag struct {
	redundancy int
	seed       int64
	channels   int
	compress   bool
	ledger     *Ledger
	logger     *log.Logger
}

// New returns a GhostTag using the given redundancy percentage and seed. A
// nil logger discards everything.
func New(redundancy int, seed int64, logger *log.Logger) (*GhostTag, error) {
	if redundancy < 0 || redundancy > MaxRedundancy {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRedundancy, redundancy)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &GhostTag{
		redundancy: redundancy,
		seed:       seed,
		channels:   3,
		logger:     logger,
	}, nil
}

// SetAlpha controls whether the alpha channel is used to carry the message
// as well as red, green and blue
func (gt *GhostTag) SetAlpha(alpha bool) {
	if alpha {
		gt.channels = 4
	} else {
		gt.channels = 3
	}
}

// SetCompression controls whether messages are compressed before embedding.
// Every message records its format so extraction expands it regardless of
// this setting.
func (gt *GhostTag) SetCompression(compress bool) {
	gt.compress = compress
}

// SetLedger records every file written by EmbedFile in l
func (gt *GhostTag) SetLedger(l *Ledger) {
	gt.ledger = l
}

// Channels returns the number of channels per pixel used to carry a message
func (gt *GhostTag) Channels() int {
	return gt.channels
}

// Capacity returns the longest uncompressed message in bytes that fits in g
func (gt *GhostTag) Capacity(g *pixel.Grid) int {
	return max(0, MaxPayload(g.Width, g.Height, g.Channels, gt.redundancy)-1)
}

// Embed returns a copy of g with message hidden in it
func (gt *GhostTag) Embed(g *pixel.Grid, message []byte) (*pixel.Grid, error) {
	payload := pack(message, gt.compress)
	if gt.compress {
		gt.logger.Printf("Compressed %d bytes to %d\n", len(message), len(payload)-1)
	}

	out, n, err := embed(g, payload, gt.redundancy, gt.seed)
	if err != nil {
		var ce *CapacityError
		if errors.As(err, &ce) {
			return nil, &CapacityError{Max: max(0, ce.Max-1), Requested: len(payload) - 1}
		}
		return nil, err
	}
	gt.logger.Printf("Embedded %d bytes in %d blocks at %d%% redundancy\n", len(payload), n, gt.redundancy)

	return out, nil
}

// Extract recovers a message from g. A message that decodes but was not
// embedded by a GhostTag is reported as an IntegrityMismatch.
func (gt *GhostTag) Extract(g *pixel.Grid) ([]byte, error) {
	e, err := extract(g, gt.seed)
	if err != nil {
		return nil, err
	}
	gt.logger.Printf("Recovered %d bytes from %d blocks, corrected %d errors\n", len(e.message), e.blocks, e.corrected)

	out, err := unpack(e.message)
	if err != nil {
		return nil, &ExtractError{Reason: IntegrityMismatch, Header: e.header, Err: err}
	}
	if e.message[0] == formatZstd {
		gt.logger.Printf("Decompressed %d bytes to %d\n", len(e.message)-1, len(out))
	}

	return out, nil
}

// Inspect returns the header of any message in g without needing the seed
func (gt *GhostTag) Inspect(g *pixel.Grid) (*header.Header, error) {
	h, n, err := readHeader(g)
	if err != nil {
		return nil, err
	}
	gt.logger.Printf("Header recovered, corrected %d errors\n", n)
	return h, nil
}
