package frame

import (
	"github.com/uwacoustics/x3/internal/bits"
)

// DecodeFrame decodes one frame's payload into out, starting at out[0]. It
// verifies the payload CRC, reads the frame's reference sample to
// resynchronize the predictor, then decodes blocks until hdr.Samples have
// been produced or the payload bitstream is exhausted. out must be at least
// int(hdr.Samples) long. It returns the number of samples written.
//
// Predictor state never crosses a frame boundary: each frame carries its own
// reference sample, bounding decode errors to a single frame and allowing a
// decoder to resume at the next frame header after a bad one.
func DecodeFrame(hdr *Header, payload []byte, p *Parameters, out []int16) (int, error) {
	if !hdr.VerifyPayloadCRC(payload) {
		return 0, ErrInvalidPayloadCRC
	}

	br := bits.NewReader(payload)

	refBits, err := br.ReadBits(16)
	if err != nil {
		return 0, err
	}
	s := int16(bits.SignExtend(uint64(refBits), 16))

	want := int(hdr.Samples)
	scratch := make([]int16, p.BlockLen)
	produced := 0
	for produced < want {
		residuals, err := DecodeBlock(br, p)
		if err != nil {
			if err == bits.ErrEndOfStream {
				break
			}
			return produced, err
		}

		s = Integrate(s, residuals, scratch[:len(residuals)])

		n := len(residuals)
		if produced+n > want {
			n = want - produced
		}
		copy(out[produced:produced+n], scratch[:n])
		produced += n
	}

	br.AlignToByte()
	return produced, nil
}
