package frame

import "fmt"

// A RiceCode identifies one of the four Rice coding tables an archive may
// use for a band. The numeric value doubles as the Rice parameter k: the
// number of low-order remainder bits a residual coded with that table
// carries.
type RiceCode uint8

// The four Rice coding tables named in the archive's <CODES> element.
const (
	Rice0 RiceCode = 0
	Rice1 RiceCode = 1
	Rice2 RiceCode = 2
	Rice3 RiceCode = 3
)

// K returns the Rice parameter (remainder bit width) for the table.
func (c RiceCode) K() uint {
	return uint(c)
}

// DefaultBlocksPerFrame is the canonical number of blocks per frame. The
// archive's XML metadata carries no blocks-per-frame element, so
// archive.ParseHeader always uses this value.
const DefaultBlocksPerFrame = 500

// Parameters holds the codec parameters extracted from an archive's XML
// metadata. Parameters are immutable once parsed and shared by every frame
// in the archive.
type Parameters struct {
	// BlockLen is the number of residuals per block.
	BlockLen int
	// BlocksPerFrame bounds the number of blocks a single frame may contain.
	BlocksPerFrame int
	// RiceCodes selects the Rice table used for each of the three Rice
	// bands, in increasing-magnitude order.
	RiceCodes [3]RiceCode
	// Thresholds partitions block-RMS magnitude into four bands; strictly
	// increasing. Informational for decode: the bitstream's per-block mode
	// prefix (§4.E) names the band directly, so decode never branches on
	// Thresholds itself.
	Thresholds [3]int
}

// NewParameters validates and returns a new Parameters value.
func NewParameters(blockLen, blocksPerFrame int, riceCodes [3]RiceCode, thresholds [3]int) (*Parameters, error) {
	if blockLen <= 0 {
		return nil, fmt.Errorf("frame.NewParameters: block length must be positive, got %d", blockLen)
	}
	if blocksPerFrame <= 0 {
		return nil, fmt.Errorf("frame.NewParameters: blocks per frame must be positive, got %d", blocksPerFrame)
	}
	for i := 1; i < len(thresholds); i++ {
		if thresholds[i] <= thresholds[i-1] {
			return nil, fmt.Errorf("frame.NewParameters: thresholds must be strictly increasing, got %v", thresholds)
		}
	}
	if thresholds[0] < 0 {
		return nil, fmt.Errorf("frame.NewParameters: thresholds must be non-negative, got %v", thresholds)
	}
	return &Parameters{
		BlockLen:       blockLen,
		BlocksPerFrame: blocksPerFrame,
		RiceCodes:      riceCodes,
		Thresholds:     thresholds,
	}, nil
}

// MaxSamples returns the maximum number of samples a single frame governed
// by p may contain.
func (p *Parameters) MaxSamples() int {
	return p.BlockLen * p.BlocksPerFrame
}
