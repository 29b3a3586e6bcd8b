// Package x3 decodes X3-framed lossless audio archives, as recorded by
// underwater acoustic loggers, into signed 16-bit PCM samples.
package x3

import (
	"fmt"
	"io"
	"os"

	"github.com/uwacoustics/x3/archive"
	"github.com/uwacoustics/x3/frame"
)

// DefaultReadBufferSize is the capacity of a Reader's payload buffer when
// none is specified, matching the reference decoder's fixed 24 KiB frame
// buffer.
const DefaultReadBufferSize = 1024 * 24

// Stats accumulates decode-session diagnostics across a Reader's lifetime.
type Stats struct {
	Frames      int
	Samples     int
	FrameErrors int
	// LastFrameError is the cause of the most recent frame error, e.g.
	// frame.ErrInvalidHeaderCRC, frame.ErrInvalidPayloadCRC, or
	// frame.ErrInvalidPayloadLen. Checkable with errors.Is.
	LastFrameError error
}

// A Reader decodes the frames of an X3 archive in order, resynchronizing
// past any frame whose header or payload CRC fails to verify.
type Reader struct {
	src  io.Reader
	Spec archive.Spec
	Stats Stats

	buf []byte
}

// Open opens the named archive file and returns a Reader positioned after
// its header.
func Open(filePath string) (*Reader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader parses the archive header from r and returns a Reader ready to
// decode data frames, using the default read buffer size.
func NewReader(r io.Reader) (*Reader, error) {
	return NewReaderSize(r, DefaultReadBufferSize)
}

// NewReaderSize is like NewReader but uses a read buffer of the given
// capacity. A frame whose payload exceeds this capacity cannot be decoded
// and is counted as a frame error.
func NewReaderSize(r io.Reader, bufSize int) (*Reader, error) {
	spec, err := archive.ParseHeader(r)
	if err != nil {
		return nil, fmt.Errorf("x3.NewReader: %w", err)
	}
	return &Reader{
		src:  r,
		Spec: *spec,
		buf:  make([]byte, bufSize),
	}, nil
}

// Next decodes and returns the next data frame's samples. It returns io.EOF
// once the stream is exhausted or a frame's magic is unrecoverably corrupt.
// Frames with a bad header or payload CRC, or whose payload exceeds the
// reader's buffer capacity, are skipped: Stats.FrameErrors is incremented,
// Stats.LastFrameError records the cause, and decoding resumes at the next
// frame header.
func (rd *Reader) Next() ([]int16, error) {
	for {
		hdrBuf := make([]byte, frame.Length)
		if _, err := io.ReadFull(rd.src, hdrBuf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, io.EOF
			}
			return nil, err
		}

		hdr, err := frame.ParseHeader(hdrBuf)
		if err == frame.ErrBadMagic {
			// The header itself is untrustworthy; no length is known to
			// skip by, so the stream ends here.
			return nil, io.EOF
		}
		if err == frame.ErrInvalidHeaderCRC {
			if err := rd.skipPayload(hdr); err != nil {
				return nil, err
			}
			rd.recoverFrame(frame.ErrInvalidHeaderCRC)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("x3.Reader.Next: %w", err)
		}

		if int(hdr.PayloadLen) > len(rd.buf) {
			// Too large for this reader's buffer. Recoverable like any other
			// frame-level error since PayloadLen itself is still
			// trustworthy enough to skip by.
			if err := rd.skipPayload(hdr); err != nil {
				return nil, err
			}
			rd.recoverFrame(frame.ErrInvalidPayloadLen)
			continue
		}

		payload := rd.buf[:hdr.PayloadLen]
		if _, err := io.ReadFull(rd.src, payload); err != nil {
			return nil, err
		}

		out := make([]int16, hdr.Samples)
		n, err := frame.DecodeFrame(hdr, payload, &rd.Spec.Parameters, out)
		if err != nil {
			rd.recoverFrame(err)
			continue
		}

		rd.Stats.Frames++
		rd.Stats.Samples += n
		return out[:n], nil
	}
}

// recoverFrame records a frame error after its payload has been skipped and
// decoding is about to resume at the next header.
func (rd *Reader) recoverFrame(cause error) {
	rd.Stats.FrameErrors++
	rd.Stats.LastFrameError = cause
}

// skipPayload discards a frame's declared payload so the stream can
// resynchronize at the next frame header.
func (rd *Reader) skipPayload(hdr *frame.Header) error {
	_, err := io.CopyN(io.Discard, rd.src, int64(hdr.PayloadLen))
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Close closes the underlying source if it implements io.Closer.
func (rd *Reader) Close() error {
	if c, ok := rd.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
