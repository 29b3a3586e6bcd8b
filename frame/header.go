// Package frame parses X3 frame headers and decodes the blocks of Rice- or
// BFP-coded residuals they introduce, integrating them back into signed
// 16-bit samples.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/uwacoustics/x3/internal/crc16"
)

// Length is the fixed size, in bytes, of a frame header. Every frame,
// including the XML-metadata "pseudo-frame" at the start of an archive,
// begins with a header of this length.
const Length = 20

// Sync code for frame headers.
var magic = [2]byte{'x', '3'}

// Errors reported while parsing a frame header. HeaderCRC mismatches still
// yield a populated Header, since payload_len is needed to skip the bad
// frame and resynchronize at the next header; BadMagic does not, since the
// remaining fields cannot be trusted.
var (
	ErrBadMagic         = errors.New("frame: bad magic")
	ErrInvalidHeaderCRC = errors.New("frame: invalid header crc")
	ErrInvalidPayloadCRC = errors.New("frame: invalid payload crc")
	ErrInvalidPayloadLen = errors.New("frame: payload length exceeds read buffer capacity")
)

// A Header is the fixed 20-byte header that precedes every frame's payload.
//
// Header format (big-endian integers):
//
//	offset 0   2   magic "x3"
//	offset 2   2   channels (u16)
//	offset 4   2   payload_len bytes (u16)
//	offset 6   2   sample count (u16)
//	offset 8   8   time fields (opaque)
//	offset 16  2   header CRC-16 over bytes [0..16]
//	offset 18  2   payload CRC-16
type Header struct {
	// Channels is the source id / channel count field.
	Channels uint16
	// PayloadLen is the size, in bytes, of the frame payload that follows.
	PayloadLen uint16
	// Samples is the number of samples the payload decodes to.
	Samples uint16
	// Time holds the 8 opaque time-field bytes, preserved verbatim.
	Time [8]byte
	// PayloadCRC is the stored payload CRC-16, checked once the payload has
	// been read.
	PayloadCRC uint16
}

// ParseHeader parses the 20-byte buffer buf as a frame header. If the header
// CRC does not match, ParseHeader returns a non-nil Header alongside
// ErrInvalidHeaderCRC, since PayloadLen is still needed by callers to skip
// over the bad frame.
func ParseHeader(buf []byte) (*Header, error) {
	if len(buf) != Length {
		return nil, fmt.Errorf("frame.ParseHeader: invalid buffer length; expected %d, got %d", Length, len(buf))
	}
	if buf[0] != magic[0] || buf[1] != magic[1] {
		return nil, ErrBadMagic
	}

	hdr := &Header{
		Channels:   binary.BigEndian.Uint16(buf[2:4]),
		PayloadLen: binary.BigEndian.Uint16(buf[4:6]),
		Samples:    binary.BigEndian.Uint16(buf[6:8]),
		PayloadCRC: binary.BigEndian.Uint16(buf[18:20]),
	}
	copy(hdr.Time[:], buf[8:16])

	got := crc16.Checksum(buf[0:16])
	want := binary.BigEndian.Uint16(buf[16:18])
	if got != want {
		return hdr, ErrInvalidHeaderCRC
	}
	return hdr, nil
}

// VerifyPayloadCRC reports whether payload's CRC-16 matches the header's
// stored payload CRC.
func (h *Header) VerifyPayloadCRC(payload []byte) bool {
	return crc16.Checksum(payload) == h.PayloadCRC
}
