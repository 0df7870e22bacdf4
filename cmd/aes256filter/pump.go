package main

import (
	"io"

	"github.com/blockvault/aes256filter"
)

// chunkSize is the size of reads pumpFile issues against its source; it
// has no relationship to the codec's own block size, which is exactly the
// point of the stream's chunking-independent design.
const chunkSize = 65536

// pumpFile drives s to completion, reading r in chunkSize pieces and
// writing everything s produces to w.
func pumpFile(s *aes256filter.Stream, r io.Reader, w io.Writer) error {
	in := make([]byte, chunkSize)
	out := make([]byte, chunkSize)

	for {
		n, rerr := r.Read(in)

		action := aes256filter.Normal
		if rerr == io.EOF {
			action = aes256filter.DataEnd
		} else if rerr != nil {
			return rerr
		}

		chunk := in[:n]

		for {
			written, next, perr := s.Process(chunk, out, action)
			if perr != nil {
				return perr
			}

			if written > 0 {
				if _, werr := w.Write(out[:written]); werr != nil {
					return werr
				}
			}

			if next != aes256filter.Repeat {
				break
			}

			action = aes256filter.Repeat
		}

		if rerr == io.EOF {
			break
		}
	}

	return nil
}
