// Package nal implements the H.264 Network Abstraction Layer:
// splitting byte streams and length-prefixed buffers into NAL units,
// emulation-prevention handling, the avcC decoder configuration
// record, and SEI message parsing.
//
// Specification: Rec. ITU-T H.264 Sections 7.3.1, 7.4.1 and Annex B;
// the configuration record is from ISO/IEC 14496-15 Section 5.3.3.1.
package nal

import "errors"

// Package-level errors for NAL parsing.
var (
	// ErrEmptyUnit indicates a zero-length NAL unit.
	ErrEmptyUnit = errors.New("nal: empty unit")

	// ErrForbiddenBit indicates forbidden_zero_bit was set, which
	// marks the unit as damaged in transit.
	ErrForbiddenBit = errors.New("nal: forbidden_zero_bit set")

	// ErrInvalidConfig indicates a malformed avcC configuration record.
	ErrInvalidConfig = errors.New("nal: invalid decoder configuration record")

	// ErrTruncatedSEI indicates an SEI message ended mid-payload.
	ErrTruncatedSEI = errors.New("nal: truncated SEI payload")
)

// UnitType identifies the payload carried by a NAL unit
// (Rec. H.264 Table 7-1).
type UnitType uint8

// NAL unit types used by this decoder. Types 2-4 (data partitions)
// are recognized but rejected upstream as unsupported.
const (
	UnitTypeSliceNonIDR  UnitType = 1
	UnitTypeSliceDPA     UnitType = 2
	UnitTypeSliceDPB     UnitType = 3
	UnitTypeSliceDPC     UnitType = 4
	UnitTypeSliceIDR     UnitType = 5
	UnitTypeSEI          UnitType = 6
	UnitTypeSPS          UnitType = 7
	UnitTypePPS          UnitType = 8
	UnitTypeAUD          UnitType = 9
	UnitTypeEndSequence  UnitType = 10
	UnitTypeEndStream    UnitType = 11
	UnitTypeFiller       UnitType = 12
	UnitTypeSPSExtension UnitType = 13
)

// String returns the conventional short name of the unit type.
func (t UnitType) String() string {
	switch t {
	case UnitTypeSliceNonIDR:
		return "slice"
	case UnitTypeSliceDPA:
		return "slice-dpa"
	case UnitTypeSliceDPB:
		return "slice-dpb"
	case UnitTypeSliceDPC:
		return "slice-dpc"
	case UnitTypeSliceIDR:
		return "idr-slice"
	case UnitTypeSEI:
		return "sei"
	case UnitTypeSPS:
		return "sps"
	case UnitTypePPS:
		return "pps"
	case UnitTypeAUD:
		return "aud"
	case UnitTypeEndSequence:
		return "end-of-sequence"
	case UnitTypeEndStream:
		return "end-of-stream"
	case UnitTypeFiller:
		return "filler"
	case UnitTypeSPSExtension:
		return "sps-extension"
	default:
		return "unknown"
	}
}

// IsVCL reports whether the type carries coded slice data.
func (t UnitType) IsVCL() bool {
	return t >= UnitTypeSliceNonIDR && t <= UnitTypeSliceIDR
}

// Unit is one parsed NAL unit. Data aliases the input buffer and
// still includes the one-byte header.
type Unit struct {
	Type   UnitType
	RefIdc uint8 // nal_ref_idc; 0 means not used for reference
	Data   []byte
}

// Parse validates the NAL header byte of data and wraps it.
func Parse(data []byte) (Unit, error) {
	if len(data) == 0 {
		return Unit{}, ErrEmptyUnit
	}
	h := data[0]
	if h&0x80 != 0 {
		return Unit{}, ErrForbiddenBit
	}
	return Unit{
		Type:   UnitType(h & 0x1F),
		RefIdc: (h >> 5) & 0x03,
		Data:   data,
	}, nil
}

// IsIDR reports whether the unit is an IDR slice.
func (u Unit) IsIDR() bool {
	return u.Type == UnitTypeSliceIDR
}

// RBSP returns the unit payload with emulation-prevention bytes
// removed. The result is a fresh slice.
func (u Unit) RBSP() []byte {
	return ExtractRBSP(u.Data[1:])
}

// ExtractRBSP removes emulation-prevention bytes: every 0x03 that
// follows two zero bytes is dropped.
func ExtractRBSP(data []byte) []byte {
	out := make([]byte, 0, len(data))
	zeros := 0
	for _, b := range data {
		if zeros >= 2 && b == 0x03 {
			zeros = 0
			continue
		}
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}

// EscapeRBSP inserts emulation-prevention bytes so the payload never
// contains 0x000000, 0x000001 or 0x000002 sequences.
func EscapeRBSP(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/64)
	zeros := 0
	for _, b := range data {
		if zeros >= 2 && b <= 0x03 {
			out = append(out, 0x03)
			zeros = 0
		}
		if b == 0x00 {
			zeros++
		} else {
			zeros = 0
		}
		out = append(out, b)
	}
	return out
}

// SplitAnnexB splits an Annex-B byte stream on its start codes and
// returns the raw NAL units, trailing zero bytes stripped. Units
// shorter than one byte are dropped.
func SplitAnnexB(data []byte) [][]byte {
	starts := findStartCodes(data)
	if len(starts) == 0 {
		return nil
	}
	var units [][]byte
	for i, s := range starts {
		end := len(data)
		if i+1 < len(starts) {
			end = starts[i+1].offset
		}
		unit := data[s.offset+s.length : end]
		// Encoders may pad between units with zero bytes; they are
		// not part of the NAL.
		for len(unit) > 0 && unit[len(unit)-1] == 0x00 {
			unit = unit[:len(unit)-1]
		}
		if len(unit) > 0 {
			units = append(units, unit)
		}
	}
	return units
}

type startCode struct {
	offset int
	length int
}

func findStartCodes(data []byte) []startCode {
	var codes []startCode
	i := 0
	for i+2 < len(data) {
		if data[i] == 0x00 && data[i+1] == 0x00 && data[i+2] == 0x01 {
			sc := startCode{offset: i, length: 3}
			if i > 0 && data[i-1] == 0x00 {
				sc.offset--
				sc.length++
			}
			codes = append(codes, sc)
			i += 3
			continue
		}
		i++
	}
	return codes
}

// SplitLengthPrefixed splits a buffer of lengthSize-byte big-endian
// length-prefixed NAL units, the framing used inside MP4/AVCC
// samples. lengthSize must be 1 to 4; truncated trailing data is
// ignored rather than treated as an error, matching how real muxers
// pad samples.
func SplitLengthPrefixed(data []byte, lengthSize int) [][]byte {
	if lengthSize < 1 || lengthSize > 4 {
		return nil
	}
	var units [][]byte
	for len(data) >= lengthSize {
		n := 0
		for i := 0; i < lengthSize; i++ {
			n = n<<8 | int(data[i])
		}
		data = data[lengthSize:]
		if n == 0 || n > len(data) {
			break
		}
		units = append(units, data[:n])
		data = data[n:]
	}
	return units
}

// AnnexBToLengthPrefixed converts an Annex-B stream into 4-byte
// length-prefixed framing.
func AnnexBToLengthPrefixed(data []byte) []byte {
	units := SplitAnnexB(data)
	var size int
	for _, u := range units {
		size += 4 + len(u)
	}
	out := make([]byte, 0, size)
	for _, u := range units {
		n := len(u)
		out = append(out, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		out = append(out, u...)
	}
	return out
}

// LengthPrefixedToAnnexB converts length-prefixed NAL units into an
// Annex-B stream with 4-byte start codes.
func LengthPrefixedToAnnexB(data []byte, lengthSize int) []byte {
	units := SplitLengthPrefixed(data, lengthSize)
	var size int
	for _, u := range units {
		size += 4 + len(u)
	}
	out := make([]byte, 0, size)
	for _, u := range units {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, u...)
	}
	return out
}
