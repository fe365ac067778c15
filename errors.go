package ghosttag

import (
	"errors"
	"fmt"

	"github.com/bodgit/ghosttag/header"
	"github.com/bodgit/ghosttag/pixel"
	"github.com/bodgit/ghosttag/rs"
)

var (
	// ErrCapacityExceeded is returned when a message does not fit in an
	// image at the requested redundancy, see CapacityError
	ErrCapacityExceeded = errors.New("ghosttag: capacity exceeded")

	// ErrInvalidRedundancy is returned for a redundancy outside
	// 0..MaxRedundancy
	ErrInvalidRedundancy = errors.New("ghosttag: invalid redundancy")

	// ErrInvalidChannels is returned for a grid without 3 or 4 channels
	ErrInvalidChannels = errors.New("ghosttag: channel count must be 3 or 4")

	// ErrNoHeader is returned when no header can be recovered from an image
	ErrNoHeader = header.ErrNoHeader

	// ErrWrongSeed is returned when a header is present but the payload is
	// not where the seed places it
	ErrWrongSeed = errors.New("ghosttag: wrong seed or no message")

	// ErrUncorrectable is returned when a payload block holds more errors
	// than it can correct
	ErrUncorrectable = rs.ErrUncorrectable

	// ErrIntegrityMismatch is returned when a payload decodes but does not
	// match the checksum in the header
	ErrIntegrityMismatch = errors.New("ghosttag: integrity mismatch")

	// ErrUnknownFormat is returned by GhostTag when a message decodes but
	// was not embedded by it
	ErrUnknownFormat = errors.New("ghosttag: unknown payload format")

	// ErrLossyFormat is returned when asked to write a lossy image format
	ErrLossyFormat = pixel.ErrLossy
)

// CapacityError reports a message that is too long for an image
type CapacityError struct {
	Max       int // Largest message in bytes the image can hold
	Requested int // Length of the rejected message
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%s: message is %d bytes, image holds at most %d", ErrCapacityExceeded, e.Requested, e.Max)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

// ExtractError reports why no message could be extracted
type ExtractError struct {
	Reason Reason
	Header *header.Header // Recovered header, nil if there was none
	Err    error
}

func (e *ExtractError) Error() string {
	return e.Err.Error()
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}
