// Package archive parses the header of an X3 archive: the ASCII magic, the
// embedded frame header framing the XML metadata payload, and the XML
// metadata itself.
package archive

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/uwacoustics/x3/frame"
)

// Magic is the ASCII marker every archive begins with.
var Magic = []byte("X3ARCHIVE")

var (
	ErrInvalidMagic = errors.New("archive: invalid magic")
	ErrInvalid      = errors.New("archive: invalid or missing xml element")
	ErrRiceCode     = errors.New("archive: unknown token in <CODES>")
)

// Spec is the parsed archive header: the sample rate, channel count, and
// codec parameters shared by every frame in the archive.
type Spec struct {
	SampleRate uint32
	Channels   uint16
	Parameters frame.Parameters
}

// ParseHeader reads the archive magic, the embedded frame header, and the
// XML metadata payload it frames, returning the archive's Spec.
func ParseHeader(r io.Reader) (*Spec, error) {
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, ErrInvalidMagic
	}
	if string(magic) != string(Magic) {
		return nil, ErrInvalidMagic
	}

	hdrBuf := make([]byte, frame.Length)
	if _, err := io.ReadFull(r, hdrBuf); err != nil {
		return nil, fmt.Errorf("archive.ParseHeader: reading metadata frame header: %w", err)
	}
	hdr, err := frame.ParseHeader(hdrBuf)
	if err != nil {
		// Unlike a data frame's recoverable header errors, a malformed
		// metadata frame header is fatal to the whole archive.
		return nil, fmt.Errorf("archive.ParseHeader: %w", err)
	}

	xmlBuf := make([]byte, hdr.PayloadLen)
	if _, err := io.ReadFull(r, xmlBuf); err != nil {
		return nil, fmt.Errorf("archive.ParseHeader: reading xml metadata: %w", err)
	}
	if !hdr.VerifyPayloadCRC(xmlBuf) {
		return nil, frame.ErrInvalidPayloadCRC
	}

	fs, blkLen, codes, thresholds, err := parseXML(xmlBuf)
	if err != nil {
		return nil, err
	}

	riceCodes, err := parseCodes(codes)
	if err != nil {
		return nil, err
	}

	if fs <= 0 {
		return nil, ErrInvalid
	}

	params, err := frame.NewParameters(blkLen, frame.DefaultBlocksPerFrame, riceCodes, thresholds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return &Spec{
		SampleRate: uint32(fs),
		Channels:   hdr.Channels,
		Parameters: *params,
	}, nil
}

// parseXML scans the metadata document by element-name/text events,
// irrespective of nesting, and extracts FS, BLKLEN, CODES, and T. Any of the
// four missing is reported as ErrInvalid.
func parseXML(buf []byte) (fs, blkLen int, codes string, thresholds [3]int, err error) {
	dec := xml.NewDecoder(strings.NewReader(string(buf)))

	var haveFS, haveBlkLen, haveCodes, haveT bool
	var current string
	for {
		tok, tokErr := dec.Token()
		if tokErr == io.EOF {
			break
		}
		if tokErr != nil {
			return 0, 0, "", thresholds, fmt.Errorf("%w: %v", ErrInvalid, tokErr)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			text := strings.TrimSpace(string(t))
			if text == "" {
				continue
			}
			switch current {
			case "FS":
				fs, err = strconv.Atoi(text)
				if err != nil {
					return 0, 0, "", thresholds, fmt.Errorf("%w: FS: %v", ErrInvalid, err)
				}
				haveFS = true
			case "BLKLEN":
				blkLen, err = strconv.Atoi(text)
				if err != nil {
					return 0, 0, "", thresholds, fmt.Errorf("%w: BLKLEN: %v", ErrInvalid, err)
				}
				haveBlkLen = true
			case "CODES":
				codes = text
				haveCodes = true
			case "T":
				thresholds, err = parseThresholds(text)
				if err != nil {
					return 0, 0, "", thresholds, err
				}
				haveT = true
			}
		}
	}

	if !haveFS || !haveBlkLen || !haveCodes || !haveT {
		return 0, 0, "", thresholds, ErrInvalid
	}
	return fs, blkLen, codes, thresholds, nil
}

func parseThresholds(text string) ([3]int, error) {
	var out [3]int
	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("%w: T: expected 3 values, got %d", ErrInvalid, len(parts))
	}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return out, fmt.Errorf("%w: T: %v", ErrInvalid, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseCodes splits the <CODES> token list, discards any BFP token
// regardless of position, and resolves the first three remaining tokens to
// Rice tables in order.
func parseCodes(text string) ([3]frame.RiceCode, error) {
	var out [3]frame.RiceCode
	var riceTokens []string
	for _, tok := range strings.Split(text, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || tok == "BFP" {
			continue
		}
		riceTokens = append(riceTokens, tok)
	}
	if len(riceTokens) < 3 {
		return out, ErrInvalid
	}
	for i := 0; i < 3; i++ {
		c, err := parseRiceToken(riceTokens[i])
		if err != nil {
			return out, err
		}
		out[i] = c
	}
	return out, nil
}

func parseRiceToken(tok string) (frame.RiceCode, error) {
	switch tok {
	case "RICE0":
		return frame.Rice0, nil
	case "RICE1":
		return frame.Rice1, nil
	case "RICE2":
		return frame.Rice2, nil
	case "RICE3":
		return frame.Rice3, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrRiceCode, tok)
	}
}
