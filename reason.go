package ghosttag

// Reason classifies a failed extraction
type Reason int

const (
	// WrongSeedOrNoMessage means there is no header, or the header is
	// intact but the seed does not locate the payload
	WrongSeedOrNoMessage Reason = iota + 1

	// UncorrectableErrors means the payload is damaged beyond repair
	UncorrectableErrors

	// IntegrityMismatch means the payload decoded but failed its checksum
	IntegrityMismatch
)

func (r Reason) String() string {
	switch r {
	case WrongSeedOrNoMessage:
		return "WrongSeedOrNoMessage"
	case UncorrectableErrors:
		return "UncorrectableErrors"
	case IntegrityMismatch:
		return "IntegrityMismatch"
	default:
		return "Unknown"
	}
}
