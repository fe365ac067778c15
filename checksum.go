package ghosttag

import (
	"crypto/sha1"
	"fmt"

	"github.com/bodgit/ghosttag/crc16"
)

func checksum(message []byte) uint16 {
	return crc16.Checksum(message)
}

// fingerprint identifies an encoded image file in the ledger
func fingerprint(b []byte) string {
	return fmt.Sprintf("%.*X", sha1.Size<<1, sha1.Sum(b))
}
