package ghosttag

import (
	"encoding/binary"

	"golang.org/x/crypto/argon2"
)

// The salt is fixed so the same passphrase always gives the same seed
var passphraseSalt = []byte("ghosttag placement seed")

const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // 64 MiB
	argon2Threads = 4
)

// SeedFromPassphrase derives a placement seed from a passphrase using
// Argon2id
func SeedFromPassphrase(passphrase string) int64 {
	key := argon2.IDKey([]byte(passphrase), passphraseSalt, argon2Time, argon2Memory, argon2Threads, 8)
	return int64(binary.BigEndian.Uint64(key))
}
