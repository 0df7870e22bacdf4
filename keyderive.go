package aes256filter

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/blockvault/aes256filter/internal/fault"
)

// Argon2id work factors for the slow password hash. time/memory/threads
// follow the IETF-recommended baseline (1 pass, 64 MiB, 4 lanes), the same
// parameters the teacher's own passphrase KDF uses.
const (
	argon2Time    = 1
	argon2MemKiB  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
)

// saltSize is the size, in bytes, of a key-derivation salt.
const saltSize = 16

// deriveKey turns a password and a salt into a 64-byte master key. It runs
// the password through Argon2id, then encodes the salt and raw digest into
// a single textual record and hashes that record with SHA-512; the second
// hash exists so that an implementation can never accidentally use the
// visible salt portion of the record as key material.
func deriveKey(password, salt []byte) ([]byte, error) {
	if len(salt) != saltSize {
		return nil, fault.E(fault.BadConfig, "salt must be 16 bytes")
	}

	digest := argon2.IDKey(password, salt, argon2Time, argon2MemKiB, argon2Threads, argon2KeyLen)

	record := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2MemKiB, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest))

	out := sha512.Sum512([]byte(record))

	return out[:], nil
}
