package frame

import (
	"testing"

	"github.com/uwacoustics/x3/internal/bits"
)

// bitBuilder assembles a byte slice bit by bit, MSB-first, for constructing
// test bitstreams. Tests only; the decoder itself never writes bits.
type bitBuilder struct {
	bytes    []byte
	cur      byte
	curBits  uint
}

func (b *bitBuilder) writeBits(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		bit := byte((v >> uint(i)) & 1)
		b.cur = b.cur<<1 | bit
		b.curBits++
		if b.curBits == 8 {
			b.bytes = append(b.bytes, b.cur)
			b.cur, b.curBits = 0, 0
		}
	}
}

func (b *bitBuilder) writeUnary(q uint32) {
	for i := uint32(0); i < q; i++ {
		b.writeBits(1, 1)
	}
	b.writeBits(0, 1)
}

func (b *bitBuilder) bytesPadded() []byte {
	if b.curBits > 0 {
		b.cur <<= 8 - b.curBits
		b.bytes = append(b.bytes, b.cur)
		b.cur, b.curBits = 0, 0
	}
	return b.bytes
}

func TestDecodeBlockRice0(t *testing.T) {
	var b bitBuilder
	b.writeBits(modeRice0, 2)
	// residual 0: m=0, q=0, k=0.
	b.writeUnary(0)
	// residual 1: m=2, q=2, k=0.
	b.writeUnary(2)
	// residual -1: m=1, q=1, k=0.
	b.writeUnary(1)

	p := &Parameters{BlockLen: 3, RiceCodes: [3]RiceCode{Rice0, Rice1, Rice2}}
	br := bits.NewReader(b.bytesPadded())
	got, err := DecodeBlock(br, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int32{0, 1, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("residual[%d] mismatch; expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDecodeBlockRice1(t *testing.T) {
	var b bitBuilder
	b.writeBits(modeRice1, 2)
	// residual 3: m=6, k=1 -> q=3, r=0.
	b.writeUnary(3)
	b.writeBits(0, 1)
	// residual -3: m=5, k=1 -> q=2, r=1.
	b.writeUnary(2)
	b.writeBits(1, 1)
	// residual 0: m=0, k=1 -> q=0, r=0.
	b.writeUnary(0)
	b.writeBits(0, 1)

	p := &Parameters{BlockLen: 3, RiceCodes: [3]RiceCode{Rice0, Rice1, Rice2}}
	br := bits.NewReader(b.bytesPadded())
	got, err := DecodeBlock(br, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int32{3, -3, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("residual[%d] mismatch; expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestDecodeBlockBFP(t *testing.T) {
	var b bitBuilder
	b.writeBits(modeBFP, 2)
	b.writeBits(2, 4) // exponent 2 -> width 3
	b.writeBits(0b011, 3) // 3
	b.writeBits(0b100, 3) // -4
	b.writeBits(0b000, 3) // 0

	p := &Parameters{BlockLen: 3}
	br := bits.NewReader(b.bytesPadded())
	got, err := DecodeBlock(br, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int32{3, -4, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("residual[%d] mismatch; expected %d, got %d", i, want[i], got[i])
		}
	}
}

func TestUnfoldSign(t *testing.T) {
	golden := []struct {
		m    uint32
		want int32
	}{
		{m: 0, want: 0},
		{m: 1, want: -1},
		{m: 2, want: 1},
		{m: 3, want: -2},
		{m: 4, want: 2},
	}
	for _, g := range golden {
		if got := unfoldSign(g.m); got != g.want {
			t.Errorf("unfoldSign(%d): expected %d, got %d", g.m, g.want, got)
		}
	}
}
