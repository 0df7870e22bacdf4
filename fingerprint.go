package aes256filter

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/blockvault/aes256filter/internal/fault"
)

// fpSaltSize is the size of a fingerprint's own salt, independent of the
// salt used to derive the session key itself.
const fpSaltSize = 16

// fpDigestSize is the size of a fingerprint's derived digest (the output of
// deriveKey).
const fpDigestSize = 64

// fpSize is the total size of a fingerprint: fpSalt ‖ fpDigest.
const fpSize = fpSaltSize + fpDigestSize

// newFingerprint creates a fresh fingerprint proving knowledge of key
// without storing key itself: a fresh salt, hashed together with a
// hex-encoded SHA-256 of the key through the same KDF used for the session
// key.
func newFingerprint(key []byte) ([]byte, error) {
	fpSalt := make([]byte, fpSaltSize)
	if _, err := rand.Read(fpSalt); err != nil {
		return nil, fault.E(fault.RNGFailed, "generating fingerprint salt", err)
	}

	digest, err := fingerprintDigest(key, fpSalt)
	if err != nil {
		return nil, err
	}

	fp := make([]byte, 0, fpSize)
	fp = append(fp, fpSalt...)
	fp = append(fp, digest...)

	return fp, nil
}

// verifyFingerprint reports whether key matches the key that produced fp,
// without ever storing or comparing the key itself.
func verifyFingerprint(key, fp []byte) error {
	if len(fp) != fpSize {
		return fault.E(fault.BadConfig, "fingerprint is the wrong size")
	}

	fpSalt := fp[:fpSaltSize]
	wantDigest := fp[fpSaltSize:]

	gotDigest, err := fingerprintDigest(key, fpSalt)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare(gotDigest, wantDigest) != 1 {
		return fault.E(fault.BadPassword, "fingerprint mismatch")
	}

	return nil
}

// fingerprintDigest hashes key with SHA-256, hex-encodes the result, and
// runs it through the same KDF used for session keys, keyed by fpSalt. This
// is deliberately the same two-step shape as deriveKey: the fingerprint
// proves knowledge of key without ever needing to store or transmit it.
func fingerprintDigest(key, fpSalt []byte) ([]byte, error) {
	sum := sha256.Sum256(key)
	hexSum := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(hexSum, sum[:])

	digest, err := deriveKey(hexSum, fpSalt)
	if err != nil {
		return nil, fault.E("deriving fingerprint digest", err)
	}

	return digest, nil
}
