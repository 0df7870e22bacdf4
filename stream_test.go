package aes256filter

import (
	"bytes"
	"testing"

	"github.com/blockvault/aes256filter/internal/blockcodec"
)

func newTestCodec(t *testing.T) *blockcodec.Codec {
	t.Helper()

	key := bytes.Repeat([]byte{0x24}, blockcodec.KeySize)

	c, err := blockcodec.New(key)
	if err != nil {
		t.Fatal(err)
	}

	return c
}

// pump feeds the whole of input to a Stream as a single chunk, signaling
// end-of-data immediately, and drains output through a fixed-capacity
// buffer by repeatedly calling Process with Repeat until it reports
// anything else.
func pump(t *testing.T, s *Stream, input []byte, outCap int) []byte {
	t.Helper()

	var out bytes.Buffer

	buf := make([]byte, outCap)
	action := DataEnd

	for {
		n, next, err := s.Process(input, buf, action)
		if err != nil {
			t.Fatalf("Process: %v", err)
		}

		out.Write(buf[:n])

		if next != Repeat {
			break
		}

		action = Repeat
	}

	return out.Bytes()
}

func TestStreamUploadSingleBlockRoundTrip(t *testing.T) {
	t.Parallel()

	plaintext := []byte("hello, world")

	encCodec := newTestCodec(t)
	up := NewStream(encCodec, Upload)

	ciphertext := pump(t, up, plaintext, 4096)

	wantLen := blockcodec.IVSize + 16 + blockcodec.MACSize // one padded block
	if len(ciphertext) != wantLen {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), wantLen)
	}

	decCodec := newTestCodec(t)
	down := NewStream(decCodec, Download)

	decrypted := pump(t, down, ciphertext, 4096)

	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestStreamUploadBlockAligned(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat([]byte{0x41}, blockcodec.FilterBlockSize)

	up := NewStream(newTestCodec(t), Upload)
	ciphertext := pump(t, up, plaintext, 65536)

	wantLen := blockcodec.IVSize + blockcodec.FilterBlockSize + 16 + blockcodec.MACSize
	if len(ciphertext) != wantLen {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), wantLen)
	}
}

func TestStreamRoundTripTwoBlocks(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat([]byte{0x00}, 20000)

	encKey := bytes.Repeat([]byte{0x99}, blockcodec.KeySize)

	encCodec, err := blockcodec.New(encKey)
	if err != nil {
		t.Fatal(err)
	}

	up := NewStream(encCodec, Upload)
	ciphertext := pump(t, up, plaintext, 1<<20)

	wantLen := (blockcodec.IVSize + blockcodec.FilterBlockSize + 16 + blockcodec.MACSize) +
		(blockcodec.IVSize + 3632 + blockcodec.MACSize)
	if len(ciphertext) != wantLen {
		t.Fatalf("ciphertext length = %d, want %d", len(ciphertext), wantLen)
	}

	decCodec, err := blockcodec.New(encKey)
	if err != nil {
		t.Fatal(err)
	}

	down := NewStream(decCodec, Download)
	decrypted := pump(t, down, ciphertext, 1<<20)

	if !bytes.Equal(decrypted, plaintext) {
		t.Error("round trip across two blocks did not reproduce the original plaintext")
	}
}

func TestStreamChunkingIsIrrelevantToOutput(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat([]byte{0x00}, 20000)
	key := bytes.Repeat([]byte{0x55}, blockcodec.KeySize)

	produce := func(chunkSizes []int) []byte {
		codec, err := blockcodec.New(key)
		if err != nil {
			t.Fatal(err)
		}

		s := NewStream(codec, Upload)
		out := make([]byte, 65536)

		var result bytes.Buffer

		offset := 0

		for i, size := range chunkSizes {
			chunk := plaintext[offset : offset+size]
			offset += size

			last := i == len(chunkSizes)-1

			action := Normal
			if last {
				action = DataEnd
			}

			for {
				n, next, err := s.Process(chunk, out, action)
				if err != nil {
					t.Fatal(err)
				}

				result.Write(out[:n])

				if next != Repeat {
					break
				}

				action = Repeat
			}
		}

		return result.Bytes()
	}

	a := produce([]int{1, 1, 19998})
	b := produce([]int{7000, 7000, 6000})

	if !bytes.Equal(a, b) {
		t.Error("identical plaintext chunked differently produced different ciphertext")
	}
}

func TestStreamOutputByteAtATime(t *testing.T) {
	t.Parallel()

	plaintext := []byte("a fairly short plaintext message")

	up := NewStream(newTestCodec(t), Upload)
	ciphertext := pump(t, up, plaintext, 4096)

	down := NewStream(newTestCodec(t), Download)
	decrypted := pump(t, down, ciphertext, 1)

	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("byte-at-a-time output = %q, want %q", decrypted, plaintext)
	}
}

func TestStreamDownloadAuthFailureOnTamperedCiphertext(t *testing.T) {
	t.Parallel()

	plaintext := bytes.Repeat([]byte{0x41}, blockcodec.FilterBlockSize)
	key := bytes.Repeat([]byte{0x11}, blockcodec.KeySize)

	encCodec, err := blockcodec.New(key)
	if err != nil {
		t.Fatal(err)
	}

	up := NewStream(encCodec, Upload)
	ciphertext := pump(t, up, plaintext, 1<<20)

	ciphertext[100] ^= 0x01

	decCodec, err := blockcodec.New(key)
	if err != nil {
		t.Fatal(err)
	}

	down := NewStream(decCodec, Download)

	out := make([]byte, 1<<20)

	n, _, err := down.Process(ciphertext, out, DataEnd)
	if err == nil {
		t.Fatal("expected an authentication error on tampered ciphertext")
	}

	if n != 0 {
		t.Errorf("expected zero plaintext bytes emitted on auth failure, got %d", n)
	}
}

func TestStreamDoneAfterDataEndDrains(t *testing.T) {
	t.Parallel()

	s := NewStream(newTestCodec(t), Upload)
	out := make([]byte, 4096)

	n, action, err := s.Process([]byte("x"), out, DataEnd)
	if err != nil {
		t.Fatal(err)
	}

	if action != DataEnd || n == 0 {
		t.Fatalf("got (%d, %v), want a non-empty DataEnd block", n, action)
	}

	if !s.Done() {
		t.Error("stream should report Done after the final block has been emitted")
	}
}
