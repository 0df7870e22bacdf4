package aes256filter

import (
	"bytes"
	"testing"
)

func TestFilterLifecycleRoundTrip(t *testing.T) {
	t.Parallel()

	meta := MapMetaStore{}
	plaintext := []byte("filter lifecycle round trip payload")

	var up Filter

	if err := up.DataPrepare(PrepareInput{
		Mode:    Upload,
		CfgData: zeroSalt(),
		CfgDir:  t.TempDir(),
		Meta:    meta,
		Prompt:  &scriptedPrompter{entries: [][]byte{[]byte("correcthorse"), []byte("correcthorse")}},
		Log:     NopLogger{},
	}); err != nil {
		t.Fatal(err)
	}

	out := make([]byte, 4096)

	var ciphertext bytes.Buffer

	action := DataEnd

	for {
		n, next, err := up.DataProcess(plaintext, out, action)
		if err != nil {
			t.Fatal(err)
		}

		ciphertext.Write(out[:n])

		if next != Repeat {
			break
		}

		action = Repeat
	}

	if err := up.DataFinish(); err != nil {
		t.Fatal(err)
	}

	entry, ok := meta.Get(custMetaKey)
	if !ok {
		t.Fatal("expected a published fingerprint")
	}

	var down Filter

	if err := down.DataPrepare(PrepareInput{
		Mode:    Download,
		CfgData: nil,
		CfgDir:  t.TempDir(),
		Meta:    MapMetaStore{custMetaKey: entry},
		Prompt:  &scriptedPrompter{entries: [][]byte{[]byte("correcthorse")}},
		Log:     NopLogger{},
	}); err != nil {
		t.Fatal(err)
	}

	var decrypted bytes.Buffer

	action = DataEnd
	cipherBytes := ciphertext.Bytes()

	for {
		n, next, err := down.DataProcess(cipherBytes, out, action)
		if err != nil {
			t.Fatal(err)
		}

		decrypted.Write(out[:n])

		if next != Repeat {
			break
		}

		action = Repeat
	}

	if err := down.DataFinish(); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(decrypted.Bytes(), plaintext) {
		t.Errorf("filter round trip mismatch: got %q, want %q", decrypted.Bytes(), plaintext)
	}
}

func TestFilterNewCfgDataReadableAfterFinish(t *testing.T) {
	t.Parallel()

	meta := MapMetaStore{}

	var f Filter

	if err := f.DataPrepare(PrepareInput{
		Mode:    Upload,
		CfgData: nil,
		CfgDir:  t.TempDir(),
		Meta:    meta,
		Prompt:  &scriptedPrompter{entries: [][]byte{[]byte("correcthorse"), []byte("correcthorse")}},
		Log:     NopLogger{},
	}); err != nil {
		t.Fatal(err)
	}

	if got := f.NewCfgData(); got != nil {
		t.Fatalf("expected no cfgdata before DataFinish, got %x", got)
	}

	out := make([]byte, 4096)
	if _, _, err := f.DataProcess(nil, out, DataEnd); err != nil {
		t.Fatal(err)
	}

	if err := f.DataFinish(); err != nil {
		t.Fatal(err)
	}

	got := f.NewCfgData()
	if got == nil {
		t.Fatal("expected DataFinish to leave NewCfgData readable")
	}

	want, ok := meta.Get(custMetaKey)
	if !ok {
		t.Fatal("expected a published fingerprint")
	}

	if !bytes.Equal(got, want) {
		t.Errorf("NewCfgData() = %x, want %x", got, want)
	}
}
