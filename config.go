package aes256filter

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/blockvault/aes256filter/internal/fault"
)

// Options are the volume-creation-time options recognized by this filter:
// nogenkey, paranoid, and a forced salt. They're parsed once, at volume
// creation, by the enclosing volume layer; ParseOptions is the parser for
// the comma-separated option strings that layer hands the filter.
type Options struct {
	NoGenKey bool
	Paranoid bool

	// Salt forces a specific 16-byte salt instead of generating a random
	// one, when set via "salt:HEX".
	Salt []byte
}

// ParseOptions parses the filter's recognized configuration options.
// Unrecognized options are a BadConfig error; options are independent of
// one another, though NoGenKey and Paranoid are not meaningfully
// combined (paranoid already implies no key file is ever written).
func ParseOptions(args []string) (Options, error) {
	var opts Options

	for _, arg := range args {
		switch {
		case arg == "nogenkey":
			opts.NoGenKey = true
		case arg == "paranoid":
			opts.Paranoid = true
		case strings.HasPrefix(arg, "salt:"):
			hexSalt := strings.TrimPrefix(arg, "salt:")

			if len(hexSalt) != saltSize*2 {
				return Options{}, fault.E(fault.BadConfig, "salt option must be 32 hex characters")
			}

			salt := make([]byte, saltSize)
			if _, err := hex.Decode(salt, []byte(hexSalt)); err != nil {
				return Options{}, fault.E(fault.BadConfig, "salt option is not valid hex", err)
			}

			opts.Salt = salt
		default:
			return Options{}, fault.E(fault.BadConfig, "unrecognized filter option: "+arg)
		}
	}

	return opts, nil
}

// NewVolumeCfgData builds the config bytes a volume-creation layer should
// persist for a freshly created volume, before any session has ever run.
// Default-mode volumes (neither option set) start with no config data at
// all; Prepare generates and persists their salt on first use. Paranoid
// and nogenkey volumes need their salt fixed up front, since paranoid
// mode never writes anything back and nogenkey mode's cfgdata length is
// itself the marker that no fingerprint travels with the config.
func NewVolumeCfgData(opts Options) ([]byte, error) {
	if !opts.Paranoid && !opts.NoGenKey {
		return nil, nil
	}

	salt, err := newSalt(opts.Salt)
	if err != nil {
		return nil, err
	}

	if opts.Paranoid {
		return salt, nil
	}

	return append(salt, 0x00), nil
}

// newSalt returns forced if it's a valid 16-byte salt, or a fresh random
// salt otherwise.
func newSalt(forced []byte) ([]byte, error) {
	if forced != nil {
		if len(forced) != saltSize {
			return nil, fault.E(fault.BadConfig, "salt must be 16 bytes")
		}

		return forced, nil
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fault.E(fault.RNGFailed, "generating salt", err)
	}

	return salt, nil
}
