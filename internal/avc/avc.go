// Package avc implements the H.264/AVC decoding core: parameter
// sets, slice headers, CABAC and CAVLC entropy decoding, macroblock
// reconstruction, the in-loop deblocking filter, and reference
// picture management with output reordering.
//
// The package decodes progressive Baseline/Main/High streams with
// 8-bit 4:2:0 or 4:2:2 sampling. Interlaced coding tools, slice
// groups, data partitioning and SP/SI slices are rejected as
// unsupported rather than half-decoded.
//
// Specification: Rec. ITU-T H.264 (08/2021).
package avc

import "errors"

// Error kinds the public package classifies on. Parse and decode
// functions wrap these with detail via fmt.Errorf("%w: ...").
var (
	// ErrMalformed indicates syntax that cannot be read: truncated
	// RBSP, out-of-range fields, impossible codes. The offending NAL
	// or slice is dropped and decoding continues.
	ErrMalformed = errors.New("avc: malformed syntax")

	// ErrUnsupported indicates valid syntax using a feature outside
	// this decoder's scope. Fatal for the stream: partial support
	// would silently corrupt every later picture.
	ErrUnsupported = errors.New("avc: unsupported feature")

	// ErrNoParamSet indicates a slice referencing an SPS or PPS id
	// that was never received. The slice is dropped.
	ErrNoParamSet = errors.New("avc: no such parameter set")

	// ErrDesync indicates the entropy decoder did not terminate at
	// the expected macroblock. The remainder of the slice is
	// concealed.
	ErrDesync = errors.New("avc: slice data out of sync")

	// ErrCorruptMB indicates a localized macroblock inconsistency,
	// concealed with smaller scope than a full desync.
	ErrCorruptMB = errors.New("avc: corrupt macroblock")
)

// clip3 clamps v to [lo, hi].
func clip3(lo, hi, v int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clipByte clamps v to the 8-bit sample range.
func clipByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// median3 returns the median of three values, the MV predictor core
// of Section 8.4.1.3.1.
func median3(a, b, c int) int {
	if a > b {
		a, b = b, a
	}
	if b > c {
		b = c
	}
	if a > b {
		b = a
	}
	return b
}

// absInt returns |v|.
func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// minInt returns the smaller of a and b.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// maxInt returns the larger of a and b.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
