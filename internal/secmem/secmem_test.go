package secmem_test

import (
	"bytes"
	"testing"

	"github.com/blockvault/aes256filter/internal/secmem"
)

func TestGuardRoundTrip(t *testing.T) {
	g := secmem.NewGuard(8)
	defer g.Destroy()

	copy(g.Bytes(), []byte("password"))

	if got, want := g.Bytes(), []byte("password"); !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWithBufferWipesOnReturn(t *testing.T) {
	var snapshot []byte

	err := secmem.WithBuffer(4, func(buf []byte) error {
		copy(buf, []byte{1, 2, 3, 4})
		snapshot = append(snapshot, buf...)

		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := snapshot, []byte{1, 2, 3, 4}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNewGuardFromBytesMovesSource(t *testing.T) {
	src := []byte{9, 9, 9, 9}
	g := secmem.NewGuardFromBytes(src)

	defer g.Destroy()

	if got, want := g.Bytes(), []byte{9, 9, 9, 9}; !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if bytes.Equal(src, []byte{9, 9, 9, 9}) {
		t.Errorf("source buffer should have been wiped by Move")
	}
}
