// Package blockcodec implements the per-block encrypt-then-MAC construction
// described in the filter's block codec component: AES-256-CBC under a
// chained, deterministic IV, authenticated with HMAC-SHA-512 truncated to
// 256 bits.
//
// A Codec is not safe for concurrent use; the chained IV requires blocks to
// be processed strictly in stream order.
package blockcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // used only as a keyed PRF for IV chaining, not for integrity
	"crypto/sha512"
	"crypto/subtle"
	"hash"

	"github.com/blockvault/aes256filter/internal/fault"
)

const (
	// KeySize is the size of the master key: the first half keys both HMACs,
	// the second half keys AES-256.
	KeySize = 64
	// HalfKeySize is the size of each half of the master key.
	HalfKeySize = KeySize / 2
	// FilterBlockSize is the plaintext framing unit on upload.
	FilterBlockSize = 16384
	// IVSize is the size of the per-block AES-CBC initialization vector.
	IVSize = aes.BlockSize
	// MACSize is the truncated HMAC-SHA-512 tag size carried on the wire.
	MACSize = 32
	// FramedBlockSize is the size of a fully framed, maximum-length block:
	// IV + ciphertext (block + one pad block) + MAC.
	FramedBlockSize = IVSize + FilterBlockSize + aes.BlockSize + MACSize
)

// Codec performs the chained-IV, encrypt-then-MAC block construction over a
// single session's key. Encrypt and Decrypt must not be called concurrently;
// Encrypt additionally must only ever be called in stream order, since each
// call's IV depends on the accumulated state of every previous call.
type Codec struct {
	aesBlock  cipher.Block
	ivHMAC    hash.Hash
	blockHMAC hash.Hash
	ivChain   []byte
}

// New constructs a Codec from a 64-byte master key. The key is not retained
// beyond what's needed to key the AES block cipher and the two HMACs; the
// caller remains responsible for the key's own lifecycle (see
// internal/secmem).
func New(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fault.E(fault.BadConfig, "master key must be 64 bytes")
	}

	hmacKey := key[:HalfKeySize]
	aesKey := key[HalfKeySize:]

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, fault.E(fault.KDFFailed, "initializing AES-256 cipher", err)
	}

	return &Codec{
		aesBlock:  block,
		ivHMAC:    hmac.New(sha1.New, hmacKey),
		blockHMAC: hmac.New(sha512.New, hmacKey),
		ivChain:   make([]byte, sha1.Size),
	}, nil
}

// EncryptBlock encrypts one plaintext block (at most FilterBlockSize bytes)
// and returns the framed iv‖ciphertext‖mac wire block. The codec's IV chain
// is advanced as a side effect; blocks from a single Codec must therefore be
// encrypted in stream order.
func (c *Codec) EncryptBlock(plaintext []byte) ([]byte, error) {
	if len(plaintext) > FilterBlockSize {
		return nil, fault.E(fault.BadConfig, "plaintext block exceeds filter block size")
	}

	c.ivHMAC.Reset()
	_, _ = c.ivHMAC.Write(c.ivChain)
	_, _ = c.ivHMAC.Write(plaintext)
	chained := c.ivHMAC.Sum(nil)

	iv := chained[:IVSize]
	padded := pkcs7Pad(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))

	cipher.NewCBCEncrypter(c.aesBlock, iv).CryptBlocks(ciphertext, padded)

	mac := c.mac(iv, ciphertext)

	framed := make([]byte, 0, IVSize+len(ciphertext)+MACSize)
	framed = append(framed, iv...)
	framed = append(framed, ciphertext...)
	framed = append(framed, mac...)

	// Advance the chain only now that the block has succeeded.
	c.ivChain = chained

	return framed, nil
}

// DecryptBlock verifies and decrypts one framed iv‖ciphertext‖mac wire
// block. It does not advance any chained state: the framed IV is
// self-describing, so decryption can proceed independently block by block.
func (c *Codec) DecryptBlock(framed []byte) ([]byte, error) {
	if len(framed) < IVSize+aes.BlockSize+MACSize {
		return nil, fault.E(fault.BadConfig, "framed block too short")
	}

	iv := framed[:IVSize]
	rest := framed[IVSize:]
	ciphertext := rest[:len(rest)-MACSize]
	wantMAC := rest[len(rest)-MACSize:]

	gotMAC := c.mac(iv, ciphertext)
	if !hmacCompare(gotMAC, wantMAC) {
		return nil, fault.E(fault.AuthFailed, "block HMAC mismatch")
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, fault.E(fault.DecryptFailed, "ciphertext is not block-aligned")
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(c.aesBlock, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, fault.E(fault.DecryptFailed, "removing padding", err)
	}

	return plaintext, nil
}

// mac computes the truncated HMAC-SHA-512 tag over iv‖ciphertext.
func (c *Codec) mac(iv, ciphertext []byte) []byte {
	c.blockHMAC.Reset()
	_, _ = c.blockHMAC.Write(iv)
	_, _ = c.blockHMAC.Write(ciphertext)

	return c.blockHMAC.Sum(nil)[:MACSize]
}

// hmacCompare reports whether two MACs are equal, in time independent of
// the position of the first differing byte.
func hmacCompare(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	return subtle.ConstantTimeCompare(a, b) == 1
}
