package bits

// Writer builds a bitstream most significant bit first. It backs the
// synthetic-RBSP test helpers and the byte-stream writer.
type Writer struct {
	buf    []byte
	bitPos uint // Bits used in the last byte of buf, 0 when aligned
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// WriteBit appends one bit.
func (w *Writer) WriteBit(b uint32) {
	if w.bitPos == 0 {
		w.buf = append(w.buf, 0)
	}
	if b&1 == 1 {
		w.buf[len(w.buf)-1] |= 1 << (7 - w.bitPos)
	}
	w.bitPos = (w.bitPos + 1) % 8
}

// WriteFlag appends one bit from a bool.
func (w *Writer) WriteFlag(b bool) {
	if b {
		w.WriteBit(1)
	} else {
		w.WriteBit(0)
	}
}

// WriteBits appends the low n bits of v, most significant first.
func (w *Writer) WriteBits(v uint32, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		w.WriteBit(v >> uint(i))
	}
}

// WriteUE appends v as an unsigned Exp-Golomb code.
func (w *Writer) WriteUE(v uint32) {
	codeNum := uint64(v) + 1
	var bits uint
	for codeNum>>bits != 0 {
		bits++
	}
	// bits is now the length of codeNum in binary; the code is
	// bits-1 zeros followed by codeNum itself.
	for i := uint(0); i < bits-1; i++ {
		w.WriteBit(0)
	}
	for i := int(bits) - 1; i >= 0; i-- {
		w.WriteBit(uint32(codeNum >> uint(i)))
	}
}

// WriteSE appends v as a signed Exp-Golomb code: non-positive values
// map to even codes, positive to odd.
func (w *Writer) WriteSE(v int32) {
	if v <= 0 {
		w.WriteUE(uint32(-v) * 2)
	} else {
		w.WriteUE(uint32(v)*2 - 1)
	}
}

// WriteTrailingBits appends the rbsp_stop_one_bit and pads with
// zeros to a byte boundary.
func (w *Writer) WriteTrailingBits() {
	w.WriteBit(1)
	for w.bitPos != 0 {
		w.WriteBit(0)
	}
}

// Bytes returns the accumulated bytes. Unfinished bits in the last
// byte are already zero-padded.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of complete and partial bytes written.
func (w *Writer) Len() int {
	return len(w.buf)
}
