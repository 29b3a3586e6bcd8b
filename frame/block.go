package frame

import (
	"fmt"

	"github.com/uwacoustics/x3/internal/bits"
)

// Block coding modes, read as a 2-bit prefix at the start of every block.
const (
	modeRice0 = 0b00
	modeRice1 = 0b01
	modeRice2 = 0b10
	modeBFP   = 0b11
)

// DecodeBlock decodes one block of p.BlockLen signed residuals from br,
// selecting Rice coding or the BFP fallback according to the block's 2-bit
// mode prefix.
func DecodeBlock(br *bits.Reader, p *Parameters) ([]int32, error) {
	mode, err := br.ReadBits(2)
	if err != nil {
		return nil, err
	}

	switch mode {
	case modeRice0, modeRice1, modeRice2:
		k := p.RiceCodes[mode].K()
		return decodeRiceBlock(br, p.BlockLen, k)
	case modeBFP:
		return decodeBFPBlock(br, p.BlockLen)
	default:
		// unreachable: ReadBits(2) can only return 0..3.
		return nil, fmt.Errorf("frame.DecodeBlock: unhandled mode %d", mode)
	}
}

// decodeRiceBlock decodes n Rice-coded residuals with remainder width k.
//
// Per residual: a unary-coded quotient q, a k-bit remainder r (0 if k == 0),
// combined into an unsigned magnitude m = (q << k) | r. X3 maps magnitude to
// signed value with an overlap-and-interleave scheme distinct from
// protobuf-style ZigZag: m == 0 decodes to 0; otherwise the low bit of m is
// the sign (0 positive, 1 negative) and the magnitude is (m+1)>>1.
func decodeRiceBlock(br *bits.Reader, n int, k uint) ([]int32, error) {
	residuals := make([]int32, n)
	for i := range residuals {
		q, err := br.ReadUnaryTerminator()
		if err != nil {
			return nil, err
		}
		var r uint32
		if k > 0 {
			r, err = br.ReadBits(k)
			if err != nil {
				return nil, err
			}
		}
		m := q<<k | r
		residuals[i] = unfoldSign(m)
	}
	return residuals, nil
}

// unfoldSign inverts X3's magnitude/sign fold: 0 stays 0; otherwise the low
// bit of m carries the sign (1 negative) and the magnitude is (m+1)>>1.
func unfoldSign(m uint32) int32 {
	if m == 0 {
		return 0
	}
	magnitude := int32((m + 1) >> 1)
	if m&1 != 0 {
		return -magnitude
	}
	return magnitude
}

// decodeBFPBlock decodes n fixed-width two's-complement residuals sharing a
// common exponent (Block Floating-Point fallback).
func decodeBFPBlock(br *bits.Reader, n int) ([]int32, error) {
	exp, err := br.ReadBits(4)
	if err != nil {
		return nil, err
	}
	w := uint(exp) + 1

	residuals := make([]int32, n)
	for i := range residuals {
		x, err := br.ReadBits(w)
		if err != nil {
			return nil, err
		}
		residuals[i] = int32(bits.SignExtend(uint64(x), w))
	}
	return residuals, nil
}
