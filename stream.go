package aes256filter

import (
	"github.com/blockvault/aes256filter/internal/blockcodec"
)

// Stream drives the block codec over an arbitrarily-chunked byte stream. A
// host calls Process repeatedly, each time with an input chunk, an output
// buffer of whatever capacity it currently has available, and the Action
// returned by the previous call (Normal on the very first call). Process
// never blocks, and its staging buffers are fixed-size; callers are free
// to vary in_len and out_cap arbitrarily from call to call.
//
// A Stream is not safe for concurrent use and must be driven by a single
// caller in sequence; encryption's chained IV depends on blocks arriving
// in stream order.
type Stream struct {
	codec *blockcodec.Codec
	mode  Mode
	bsize int

	inBuffer []byte
	inBytes  int

	outBuffer []byte
	blkBytes  int

	dataIn      int
	dataOutLeft int
	dataEnd     bool
}

// NewStream constructs a Stream bound to codec, running in the given mode.
// Upload frames in FilterBlockSize plaintext chunks; Download expects its
// input in FramedBlockSize chunks (the last of which may be shorter).
func NewStream(codec *blockcodec.Codec, mode Mode) *Stream {
	bsize := blockcodec.FilterBlockSize
	if mode == Download {
		bsize = blockcodec.FramedBlockSize
	}

	return &Stream{
		codec:     codec,
		mode:      mode,
		bsize:     bsize,
		inBuffer:  make([]byte, bsize),
		outBuffer: make([]byte, blockcodec.FramedBlockSize),
	}
}

// Process consumes as much of in as fits, advances the codec whenever a
// full block (or, at end of stream, a final partial block) has
// accumulated, and writes as much produced output as fits in out. It
// returns the number of bytes written to out and the Action the caller
// must pass back on its next call with the same in and out buffers.
//
// A Repeat return means: call Process again with the same in and out
// slices (the stream has either more residual output to drain, or more of
// in left to consume). A Normal or DataEnd return means in has been fully
// consumed and the caller may supply a fresh chunk (or, for DataEnd,
// that there is nothing further to supply).
func (s *Stream) Process(in, out []byte, action Action) (int, Action, error) {
	if action == Repeat && s.dataOutLeft > 0 {
		return s.drain(in, out)
	}

	if action == DataEnd {
		s.dataEnd = true
	}

	if avail, room := len(in)-s.dataIn, s.bsize-s.inBytes; avail > 0 && room > 0 {
		n := avail
		if room < n {
			n = room
		}

		copy(s.inBuffer[s.inBytes:s.inBytes+n], in[s.dataIn:s.dataIn+n])
		s.inBytes += n
		s.dataIn += n
	}

	triggered := false

	if s.inBytes == s.bsize || (s.inBytes > 0 && s.dataEnd) {
		triggered = true

		block, err := s.runCodec(s.inBuffer[:s.inBytes])
		if err != nil {
			return 0, Normal, err
		}

		copy(s.outBuffer, block)
		s.blkBytes = len(block)
		s.inBytes = 0
	}

	if s.blkBytes > 0 {
		return s.emit(in, out)
	}

	if !triggered {
		s.dataIn = 0

		return 0, Normal, nil
	}

	return s.decideNext(in, 0)
}

// runCodec encrypts or decrypts one staged block according to the
// stream's mode.
func (s *Stream) runCodec(block []byte) ([]byte, error) {
	if s.mode == Upload {
		return s.codec.EncryptBlock(block)
	}

	return s.codec.DecryptBlock(block)
}

// drain copies residual output left over from a block that didn't fit in
// a previous call's out buffer.
func (s *Stream) drain(in, out []byte) (int, Action, error) {
	start := s.blkBytes - s.dataOutLeft
	n := copy(out, s.outBuffer[start:s.blkBytes])
	s.dataOutLeft -= n

	if s.dataOutLeft == 0 {
		s.blkBytes = 0

		return s.decideNext(in, n)
	}

	return n, Repeat, nil
}

// emit copies as much of the currently staged output block into out as
// fits, deferring the remainder to a later drain call if it doesn't.
func (s *Stream) emit(in, out []byte) (int, Action, error) {
	if s.blkBytes <= len(out) {
		n := copy(out, s.outBuffer[:s.blkBytes])
		s.blkBytes = 0

		return s.decideNext(in, n)
	}

	n := copy(out, s.outBuffer[:len(out)])
	s.dataOutLeft = s.blkBytes - n

	return n, Repeat, nil
}

// decideNext reports the Action for the caller's next call, given that n
// bytes have just been written to out: Repeat if in isn't fully consumed
// yet, otherwise Normal or DataEnd depending on whether the stream has
// latched end-of-data.
func (s *Stream) decideNext(in []byte, n int) (int, Action, error) {
	if s.dataIn != len(in) {
		return n, Repeat, nil
	}

	s.dataIn = 0

	if s.dataEnd {
		return n, DataEnd, nil
	}

	return n, Normal, nil
}

// Done reports whether the stream has surfaced all plaintext (on
// Download) or framed all ciphertext (on Upload) after end-of-data was
// signaled: no partial block is staged and no output is pending drain.
func (s *Stream) Done() bool {
	return s.dataEnd && s.inBytes == 0 && s.dataOutLeft == 0 && s.blkBytes == 0
}

// Close wipes the stream's internal staging buffers. It does not close the
// underlying codec, which a Session owns and wipes independently. Close is
// idempotent.
func (s *Stream) Close() error {
	for i := range s.inBuffer {
		s.inBuffer[i] = 0
	}

	for i := range s.outBuffer {
		s.outBuffer[i] = 0
	}

	s.codec = nil

	return nil
}
