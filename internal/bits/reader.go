// Package bits implements the MSB-first bitstream reader and writer
// used by H.264 RBSP syntax parsing, including the Exp-Golomb codes
// from Rec. ITU-T H.264 Section 9.1.
package bits

import "errors"

// Package-level errors for bitstream access.
var (
	// ErrOutOfData indicates a read past the end of the buffer.
	ErrOutOfData = errors.New("bits: read past end of data")

	// ErrCodeTooLong indicates an Exp-Golomb code with more than 31
	// leading zero bits, which cannot occur in a valid RBSP.
	ErrCodeTooLong = errors.New("bits: exp-golomb code longer than 32 bits")
)

// Reader reads a byte slice one bit at a time, most significant bit
// first. The zero value is not usable; call NewReader.
type Reader struct {
	data    []byte
	bytePos int  // Index of the byte holding the next bit
	bitPos  uint // Bit offset within that byte, 0 = MSB
}

// NewReader creates a Reader over data. The slice is not copied; the
// caller must not mutate it while reading.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// BitsRead returns the number of bits consumed so far.
func (r *Reader) BitsRead() int {
	return r.bytePos*8 + int(r.bitPos)
}

// BitsLeft returns the number of bits remaining.
func (r *Reader) BitsLeft() int {
	return len(r.data)*8 - r.BitsRead()
}

// ByteOffset returns the index of the byte holding the next unread
// bit. Equals len(data) once the reader is exhausted on a byte
// boundary.
func (r *Reader) ByteOffset() int {
	return r.bytePos
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint32, error) {
	if r.bytePos >= len(r.data) {
		return 0, ErrOutOfData
	}
	b := uint32(r.data[r.bytePos]>>(7-r.bitPos)) & 1
	r.bitPos++
	if r.bitPos == 8 {
		r.bitPos = 0
		r.bytePos++
	}
	return b, nil
}

// ReadFlag reads a single bit as a bool.
func (r *Reader) ReadFlag() (bool, error) {
	b, err := r.ReadBit()
	return b == 1, err
}

// ReadBits reads n bits (0 <= n <= 32) as an unsigned value.
// n == 0 returns 0 without consuming anything.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 32 {
		return 0, ErrCodeTooLong
	}
	if r.BitsLeft() < int(n) {
		// Position at the end so subsequent reads also fail.
		r.bytePos = len(r.data)
		r.bitPos = 0
		return 0, ErrOutOfData
	}
	var v uint32
	for n > 0 {
		avail := 8 - r.bitPos
		take := avail
		if uint(n) < take {
			take = uint(n)
		}
		cur := uint32(r.data[r.bytePos])
		cur >>= avail - take
		cur &= (1 << take) - 1
		v = v<<take | cur
		r.bitPos += take
		if r.bitPos == 8 {
			r.bitPos = 0
			r.bytePos++
		}
		n -= take
	}
	return v, nil
}

// PeekBits returns the next n bits without consuming them. Fewer than
// n bits remaining is not an error: the available bits are returned
// left-aligned to the low end, padded with zeros, along with the
// count actually available. VLC table lookups rely on this at the
// tail of a slice.
func (r *Reader) PeekBits(n uint) (v uint32, avail uint) {
	saveByte, saveBit := r.bytePos, r.bitPos
	left := uint(r.BitsLeft())
	take := n
	if left < take {
		take = left
	}
	got, _ := r.ReadBits(take)
	r.bytePos, r.bitPos = saveByte, saveBit
	return got << (n - take), take
}

// SkipBits discards n bits.
func (r *Reader) SkipBits(n uint) error {
	if uint(r.BitsLeft()) < n {
		r.bytePos = len(r.data)
		r.bitPos = 0
		return ErrOutOfData
	}
	total := uint(r.BitsRead()) + n
	r.bytePos = int(total / 8)
	r.bitPos = total % 8
	return nil
}

// AlignToByte discards bits up to the next byte boundary.
func (r *Reader) AlignToByte() {
	if r.bitPos != 0 {
		r.bitPos = 0
		r.bytePos++
	}
}

// ReadUE reads an unsigned Exp-Golomb code (ue(v), Section 9.1).
func (r *Reader) ReadUE() (uint32, error) {
	var zeros uint
	for {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		zeros++
		if zeros > 31 {
			return 0, ErrCodeTooLong
		}
	}
	if zeros == 0 {
		return 0, nil
	}
	rest, err := r.ReadBits(zeros)
	if err != nil {
		return 0, err
	}
	return (1<<zeros - 1) + rest, nil
}

// ReadSE reads a signed Exp-Golomb code (se(v), Section 9.1.1):
// codeNum k maps to (-1)^(k+1) * ceil(k/2).
func (r *Reader) ReadSE() (int32, error) {
	k, err := r.ReadUE()
	if err != nil {
		return 0, err
	}
	mag := int32((k + 1) / 2)
	if k%2 == 0 {
		mag = -mag
	}
	return mag, nil
}

// ReadTE reads a truncated Exp-Golomb code (te(v)) with the given
// upper bound. A bound of 1 is a single inverted bit; larger bounds
// fall back to ue(v).
func (r *Reader) ReadTE(maxVal uint32) (uint32, error) {
	if maxVal == 0 {
		return 0, nil
	}
	if maxVal == 1 {
		b, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		return b ^ 1, nil
	}
	return r.ReadUE()
}

// MoreRBSPData reports whether syntax elements remain before the
// rbsp_trailing_bits, per the more_rbsp_data() condition of
// Section 7.2: data remains unless only the stop bit and zero
// padding are left.
func (r *Reader) MoreRBSPData() bool {
	if r.BitsLeft() <= 0 {
		return false
	}
	// The remaining bits are trailing only if they are exactly a one
	// bit followed by zeros.
	saveByte, saveBit := r.bytePos, r.bitPos
	defer func() { r.bytePos, r.bitPos = saveByte, saveBit }()
	first, err := r.ReadBit()
	if err != nil {
		return false
	}
	if first != 1 {
		return true
	}
	for r.BitsLeft() > 0 {
		b, err := r.ReadBit()
		if err != nil {
			return false
		}
		if b != 0 {
			return true
		}
	}
	return false
}
