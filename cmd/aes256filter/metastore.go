package main

import (
	"bufio"
	"encoding/base64"
	"os"
	"strings"
)

// fileMetaStore is a MetaStore backed by a flat sidecar file, standing in
// for the custom-meta key/value store a real volume layer would provide.
// Entries are stored one per line as "key\tbase64(value)".
type fileMetaStore struct {
	path    string
	entries map[string][]byte
}

func loadMetaStore(path string) (*fileMetaStore, error) {
	m := &fileMetaStore{path: path, entries: map[string][]byte{}}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return m, nil
	} else if err != nil {
		return nil, err
	}

	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		key, b64, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}

		val, derr := base64.StdEncoding.DecodeString(b64)
		if derr != nil {
			continue
		}

		m.entries[key] = val
	}

	return m, scanner.Err()
}

func (m *fileMetaStore) Get(key string) ([]byte, bool) {
	v, ok := m.entries[key]

	return v, ok
}

func (m *fileMetaStore) Set(key string, value []byte) {
	m.entries[key] = value
}

func (m *fileMetaStore) save() error {
	var b strings.Builder

	for key, val := range m.entries {
		b.WriteString(key)
		b.WriteByte('\t')
		b.WriteString(base64.StdEncoding.EncodeToString(val))
		b.WriteByte('\n')
	}

	return os.WriteFile(m.path, []byte(b.String()), 0o600)
}
