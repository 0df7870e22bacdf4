package aes256filter

import (
	"bytes"
	"errors"
	"os"

	"github.com/blockvault/aes256filter/internal/blockcodec"
	"github.com/blockvault/aes256filter/internal/cfgstore"
	"github.com/blockvault/aes256filter/internal/fault"
	"github.com/blockvault/aes256filter/internal/secmem"
)

// custMetaKey is the custom-meta entry the filter publishes the
// salt‖fingerprint pair under, so that other clients of the same volume
// can detect a password change.
const custMetaKey = "aes256_fp"

// minPasswordLen is the shortest password Prepare will accept from a
// Prompter; shorter entries are rejected and re-prompted.
const minPasswordLen = 8

// Config data lengths, classifying the bytes the volume layer supplies at
// Prepare time.
const (
	cfgParanoidLen = saltSize          // salt only, never cached, always prompted
	cfgNogenkeyLen = saltSize + 1      // salt only, fingerprint lives in custom-meta only
	cfgNormalLen   = saltSize + fpSize // salt ‖ fingerprint
)

// cfgKind classifies reconciled config data by length, per §4.3.2.
type cfgKind int

const (
	cfgKindParanoid cfgKind = iota
	cfgKindNogenkey
	cfgKindNormal
)

// Session is a live encryption or decryption context: a derived key, the
// block codec built from it, and the mode it was prepared for. Create one
// with Prepare and release it with Finish.
type Session struct {
	codec *blockcodec.Codec
	key   *secmem.Guard
	mode  Mode

	// NewCfgData holds config bytes the host should persist back to the
	// volume when a fresh fingerprint was established in normal mode
	// (salt ‖ fingerprint). It is nil when nothing changed, or when the
	// volume runs in nogenkey or paranoid mode, where the fingerprint (if
	// any) lives only in custom-meta.
	NewCfgData []byte
}

// PrepareInput collects everything Prepare needs from the host: the
// direction of travel, the volume's config bytes, a local config
// directory for caching, the custom-meta store, and callbacks for
// logging and interactive password entry.
type PrepareInput struct {
	Mode     Mode
	Filename string
	CfgData  []byte
	CfgDir   string
	Meta     MetaStore
	Prompt   Prompter
	Log      Logger

	// Options carries a forced salt (via "salt:HEX") for the rare case
	// where a volume's config data is empty and a salt must be minted for
	// the first time. NoGenKey and Paranoid here are not consulted:
	// they're load-bearing only at volume creation (see
	// NewVolumeCfgData); by the time cfgdata reaches Prepare, its length
	// already encodes which mode applies.
	Options Options
}

// Prepare reconciles the volume's key sources (host config, local cache,
// interactive prompt) into a single session key, verifying it against any
// available fingerprint, and returns a ready-to-use Session.
func Prepare(in PrepareInput) (*Session, error) {
	if in.Log == nil {
		in.Log = NopLogger{}
	}

	if err := CheckCryptoBackend(); err != nil {
		return nil, err
	}

	cfgData, err := reconcileCustMeta(in.CfgData, in.CfgDir, in.Meta, in.Log)
	if err != nil {
		return nil, err
	}

	salt, fp, kind, err := classifyCfgData(cfgData)
	if err != nil {
		return nil, err
	}

	if salt == nil {
		salt, err = newSalt(in.Options.Salt)
		if err != nil {
			return nil, err
		}
	}

	keyGuard, newFP, err := selectKey(in, salt, fp, kind)
	if err != nil {
		return nil, err
	}

	var newCfgData []byte

	if newFP != nil {
		entry := make([]byte, 0, len(salt)+len(newFP))
		entry = append(entry, salt...)
		entry = append(entry, newFP...)

		if in.Meta != nil {
			in.Meta.Set(custMetaKey, entry)
		}

		if kind == cfgKindNormal {
			newCfgData = entry
		}
	}

	codec, err := blockcodec.New(keyGuard.Bytes())
	if err != nil {
		keyGuard.Destroy()

		return nil, err
	}

	return &Session{codec: codec, key: keyGuard, mode: in.Mode, NewCfgData: newCfgData}, nil
}

// Stream returns a Stream bound to the session's codec and mode, ready to
// drive via repeated Process calls.
func (s *Session) Stream() *Stream {
	return NewStream(s.codec, s.mode)
}

// Finish releases the session's key material. It is always safe to call,
// including after a failed or partial stream, and always succeeds.
func (s *Session) Finish() error {
	if s.key != nil {
		s.key.Destroy()
		s.key = nil
	}

	s.codec = nil

	return nil
}

// reconcileCustMeta implements password-change detection: when the
// volume's own config data carries no fingerprint, the custom-meta entry
// is authoritative, and a locally cached copy of it (custfp) is used to
// notice when a remote peer has rotated the volume password.
func reconcileCustMeta(cfgData []byte, cfgDir string, meta MetaStore, log Logger) ([]byte, error) {
	if len(cfgData) != 0 && len(cfgData) != cfgNogenkeyLen {
		return cfgData, nil
	}

	if meta == nil {
		return cfgData, nil
	}

	metaVal, ok := meta.Get(custMetaKey)
	if !ok {
		return cfgData, nil
	}

	cached, err := cfgstore.ReadCustFP(cfgDir)

	switch {
	case errors.Is(err, os.ErrNotExist):
		if werr := cfgstore.WriteCustFP(cfgDir, metaVal); werr != nil {
			log.Warning("aes256filter: could not cache custom-meta fingerprint: %v", werr)
		}
	case err != nil:
		log.Warning("aes256filter: could not read cached custom-meta fingerprint: %v", err)
	case !bytes.Equal(cached, metaVal):
		log.Notice("aes256filter: volume password change detected, discarding cached key")

		if rerr := cfgstore.RemoveCustFP(cfgDir); rerr != nil {
			log.Warning("aes256filter: %v", rerr)
		}

		if rerr := cfgstore.RemoveKey(cfgDir); rerr != nil {
			log.Warning("aes256filter: %v", rerr)
		}

		if werr := cfgstore.WriteCustFP(cfgDir, metaVal); werr != nil {
			log.Warning("aes256filter: could not cache custom-meta fingerprint: %v", werr)
		}
	}

	return metaVal, nil
}

// classifyCfgData splits reconciled config bytes into a salt, an optional
// fingerprint, and a cfgKind, per the three recognized lengths plus the
// empty, brand-new-volume case. A nil salt on return (only possible for
// cfgKindNormal) means the caller must mint one.
func classifyCfgData(cfgData []byte) (salt, fp []byte, kind cfgKind, err error) {
	switch len(cfgData) {
	case 0:
		return nil, nil, cfgKindNormal, nil
	case cfgParanoidLen:
		return cfgData, nil, cfgKindParanoid, nil
	case cfgNogenkeyLen:
		return cfgData[:saltSize], nil, cfgKindNogenkey, nil
	case cfgNormalLen:
		return cfgData[:saltSize], cfgData[saltSize:], cfgKindNormal, nil
	default:
		return nil, nil, cfgKindParanoid, fault.E(fault.BadConfig, "config data has an unrecognized length")
	}
}

// selectKey adopts a cached key, verifies a prompted password against any
// available fingerprint, or establishes a brand new fingerprint, per
// §4.3.2. It returns the 64-byte session key in a locked buffer and,
// when a new fingerprint was generated, that fingerprint for the caller
// to publish to custom-meta (and, in normal mode, to cfgdata).
func selectKey(in PrepareInput, salt, fp []byte, kind cfgKind) (*secmem.Guard, []byte, error) {
	if kind != cfgKindParanoid {
		cached, err := cfgstore.ReadKey(in.CfgDir, blockcodec.KeySize)
		if err == nil {
			return secmem.NewGuardFromBytes(cached), nil, nil
		}

		if !errors.Is(err, os.ErrNotExist) {
			in.Log.Warning("aes256filter: key cache unusable: %v", err)
		}
	}

	var (
		keyGuard *secmem.Guard
		newFP    []byte
		err      error
	)

	switch {
	case fp != nil:
		keyGuard, err = promptAndVerify(in, salt, fp)
	case in.Mode == Upload:
		keyGuard, err = promptConfirmed(in, salt)
	default:
		keyGuard, err = promptOnce(in, salt, "Enter password: ")
	}

	if err != nil {
		return nil, nil, err
	}

	if fp == nil {
		newFP, err = newFingerprint(keyGuard.Bytes())
		if err != nil {
			keyGuard.Destroy()

			return nil, nil, err
		}
	}

	if kind != cfgKindParanoid {
		if werr := cfgstore.WriteKey(in.CfgDir, keyGuard.Bytes()); werr != nil {
			in.Log.Warning("aes256filter: could not cache session key: %v", werr)
		}
	}

	return keyGuard, newFP, nil
}

// promptAndVerify asks for a password once and, on a fingerprint
// mismatch, keeps re-prompting until it matches (or the Prompter itself
// errors out, e.g. on EOF or user cancellation).
func promptAndVerify(in PrepareInput, salt, fp []byte) (*secmem.Guard, error) {
	for {
		pwGuard, err := promptPassword(in.Prompt, "Enter password: ")
		if err != nil {
			return nil, err
		}

		key, derr := deriveKey(pwGuard.Bytes(), salt)
		pwGuard.Destroy()

		if derr != nil {
			return nil, derr
		}

		if verr := verifyFingerprint(key, fp); verr != nil {
			if fault.Is(verr, fault.BadPassword) {
				in.Log.Warning("aes256filter: password does not match the volume's fingerprint")

				continue
			}

			return nil, verr
		}

		return secmem.NewGuardFromBytes(key), nil
	}
}

// promptConfirmed asks for a password twice, requiring both entries to
// match, used on upload when no fingerprint yet exists to verify against.
func promptConfirmed(in PrepareInput, salt []byte) (*secmem.Guard, error) {
	for {
		g1, err := promptPassword(in.Prompt, "Enter password: ")
		if err != nil {
			return nil, err
		}

		g2, err := promptPassword(in.Prompt, "Confirm password: ")
		if err != nil {
			g1.Destroy()

			return nil, err
		}

		match := bytes.Equal(g1.Bytes(), g2.Bytes())
		g2.Destroy()

		if !match {
			g1.Destroy()
			in.Log.Warning("aes256filter: passwords did not match, try again")

			continue
		}

		key, derr := deriveKey(g1.Bytes(), salt)
		g1.Destroy()

		if derr != nil {
			return nil, derr
		}

		return secmem.NewGuardFromBytes(key), nil
	}
}

// promptOnce asks for a password a single time and derives the key from
// it, with no confirmation and no fingerprint to verify against.
func promptOnce(in PrepareInput, salt []byte, label string) (*secmem.Guard, error) {
	pwGuard, err := promptPassword(in.Prompt, label)
	if err != nil {
		return nil, err
	}

	key, derr := deriveKey(pwGuard.Bytes(), salt)
	pwGuard.Destroy()

	if derr != nil {
		return nil, derr
	}

	return secmem.NewGuardFromBytes(key), nil
}

// promptPassword asks the host for a password, rejecting and re-asking
// for anything shorter than minPasswordLen.
func promptPassword(prompt Prompter, label string) (*secmem.Guard, error) {
	if prompt == nil {
		return nil, fault.E(fault.Other, "no password prompt available")
	}

	for {
		pw, err := prompt.Prompt(label)
		if err != nil {
			return nil, fault.E(fault.Other, "reading password", err)
		}

		if len(pw) >= minPasswordLen {
			return secmem.NewGuardFromBytes(pw), nil
		}

		for i := range pw {
			pw[i] = 0
		}
	}
}

// CheckCryptoBackend is the hook where a runtime-vs-compile-time crypto
// backend version check would live, mirroring the hard failure the
// original filter raises on an OpenSSL ABI mismatch. Go's crypto/*
// packages have no dynamic linkage to version-check, so this always
// succeeds; it exists so the behavior has a named place to be extended if
// this module is ever built against a C crypto backend via cgo.
func CheckCryptoBackend() error {
	return nil
}
