package frame

import "math"

// Integrate converts a block's residuals into samples by running them
// through the inverse predictor: s_i = sat_i16(s_{i-1} + d_i). Samples are
// written into out starting at its beginning; out must be at least
// len(residuals) long. It returns the updated running sample (s_{N-1}), to
// be carried into the next block within the same frame.
//
// The encoder is required never to produce residuals that overflow int16
// after integration for valid input; the saturation here is a safety net
// against corrupt input, not a path exercised by well-formed archives.
func Integrate(prev int16, residuals []int32, out []int16) int16 {
	s := prev
	for i, d := range residuals {
		s = sat16(int32(s) + d)
		out[i] = s
	}
	return s
}

// sat16 clamps x to the signed 16-bit range.
func sat16(x int32) int16 {
	switch {
	case x > math.MaxInt16:
		return math.MaxInt16
	case x < math.MinInt16:
		return math.MinInt16
	default:
		return int16(x)
	}
}
