package aes256filter

// FilterUUID, FilterName and FilterABIVersion identify this filter to a
// host's stream-filter registry: a stable type-and-version pair under
// which the host registers init/shutdown/prepare/process/finish entry
// points.
const (
	FilterUUID = "35a5404d-1513-4009-904c-6ee5b0cd8634"
	FilterName = "aes256"

	// FilterABIVersionMajor and FilterABIVersionMinor together form the
	// ABI-compatibility version a host checks before loading the filter.
	FilterABIVersionMajor = 1
	FilterABIVersionMinor = 6
)

// FilterType is the category of stream filter this module implements.
type FilterType int

// TypeCrypt is the only FilterType this module registers as.
const TypeCrypt FilterType = 1

// FilterDescription is a short, host-displayed summary of what the filter
// does.
const FilterDescription = "Encrypt data using AES-256-CBC with HMAC-SHA-512 authentication."

// FilterOptionsHelp documents the recognized configuration options to a
// host that surfaces them to an operator (see ParseOptions).
const FilterOptionsHelp = "nogenkey (don't generate a key file when creating a volume)\n" +
	"paranoid (don't use key files at all - always ask for a password)\n" +
	"salt:HEX (force a given salt, HEX must be 32 hex characters)"
