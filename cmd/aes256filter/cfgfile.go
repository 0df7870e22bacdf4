package main

import (
	"os"
	"strings"

	"github.com/blockvault/aes256filter"
)

// loadCfgData reads a volume's config bytes from its sidecar file. A
// missing sidecar is not an error: it means the volume has never been
// prepared before, and the cfgdata is nil (default mode) until the caller
// decides otherwise.
func loadCfgData(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return data, nil
}

func saveCfgData(path string, cfgData []byte) error {
	if cfgData == nil {
		return nil
	}

	return os.WriteFile(path, cfgData, 0o600)
}

// parseOptionsFlag splits a comma-separated --options flag into the
// filter's own option tokens.
func parseOptionsFlag(flag string) (aes256filter.Options, error) {
	if flag == "" {
		return aes256filter.Options{}, nil
	}

	return aes256filter.ParseOptions(strings.Split(flag, ","))
}
