package avc

import (
	"bytes"
	"io"

	"github.com/thesyncim/goavc/internal/nal"
)

// readChunk is how much the reader pulls from the source at a time.
const readChunk = 64 * 1024

var startCodeWord = []byte{0x00, 0x00, 0x01}

// startCodePrefix is the 4-byte form used when framing output.
var startCodePrefix = []byte{0x00, 0x00, 0x00, 0x01}

// Reader frames NAL units out of an H.264 Annex-B byte stream. It
// tolerates leading garbage before the first start code, both start
// code lengths and trailing zero padding after units.
type Reader struct {
	r   io.Reader
	buf []byte
	tmp []byte

	// synced means buf begins exactly at a 0x000001 word.
	synced bool
	eof    bool

	peeked []byte
}

// NewReader returns a Reader framing NAL units from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadNALUnit returns the next NAL unit without its start code. The
// slice shares the reader's buffer and is valid until the next call.
// A cleanly exhausted stream reports io.EOF; a stream that carries
// bytes but no start code reports ErrNoStartCode.
func (r *Reader) ReadNALUnit() ([]byte, error) {
	if r.peeked != nil {
		u := r.peeked
		r.peeked = nil
		return u, nil
	}
	return r.nextUnit()
}

// ReadAccessUnit reads NAL units up to the next access-unit boundary
// and returns them as one Annex-B buffer with 4-byte start codes,
// ready for decoding. Delimiters, parameter sets and SEI after slice
// data start a new access unit, as does a slice with
// first_mb_in_slice zero (Section 7.4.1.2.3, progressive streams).
func (r *Reader) ReadAccessUnit() ([]byte, error) {
	var au []byte
	sawVCL := false
	for {
		u, err := r.peekNALUnit()
		if err != nil {
			if err == io.EOF && au != nil {
				return au, nil
			}
			return nil, err
		}
		if sawVCL && startsAccessUnit(u) {
			return au, nil
		}
		r.peeked = nil
		au = append(au, startCodePrefix...)
		au = append(au, u...)
		if nal.UnitType(u[0] & 0x1F).IsVCL() {
			sawVCL = true
		}
	}
}

func (r *Reader) peekNALUnit() ([]byte, error) {
	if r.peeked == nil {
		u, err := r.nextUnit()
		if err != nil {
			return nil, err
		}
		r.peeked = u
	}
	return r.peeked, nil
}

// startsAccessUnit reports whether a unit may only appear first in an
// access unit once slice data has been seen. Partition B and C units
// carry no slice header and never start one.
func startsAccessUnit(u []byte) bool {
	switch nal.UnitType(u[0] & 0x1F) {
	case nal.UnitTypeAUD, nal.UnitTypeSPS, nal.UnitTypePPS, nal.UnitTypeSEI:
		return true
	case nal.UnitTypeSliceNonIDR, nal.UnitTypeSliceDPA, nal.UnitTypeSliceIDR:
		// first_mb_in_slice is the leading Exp-Golomb field of the
		// slice header, and zero is coded as a single 1 bit.
		return len(u) > 1 && u[1]&0x80 != 0
	default:
		return false
	}
}

func (r *Reader) nextUnit() ([]byte, error) {
	if err := r.sync(); err != nil {
		return nil, err
	}
	for {
		if i := indexStartCode(r.buf, len(startCodeWord)); i >= 0 {
			unit := trimTrailingZeros(r.buf[len(startCodeWord):i])
			r.buf = r.buf[i:]
			if len(unit) == 0 {
				continue
			}
			return unit, nil
		}
		if r.eof {
			unit := trimTrailingZeros(r.buf[len(startCodeWord):])
			r.buf = nil
			r.synced = false
			if len(unit) == 0 {
				return nil, io.EOF
			}
			return unit, nil
		}
		if err := r.fill(); err != nil && err != io.EOF {
			return nil, err
		}
	}
}

// sync discards bytes until buf begins at a start code.
func (r *Reader) sync() error {
	for !r.synced {
		if i := indexStartCode(r.buf, 0); i >= 0 {
			r.buf = r.buf[i:]
			r.synced = true
			return nil
		}
		if r.eof {
			if len(r.buf) > 0 {
				return ErrNoStartCode
			}
			return io.EOF
		}
		// Keep two bytes so a start code split across reads survives.
		if len(r.buf) > 2 {
			r.buf = r.buf[len(r.buf)-2:]
		}
		if err := r.fill(); err != nil && err != io.EOF {
			return err
		}
	}
	return nil
}

func (r *Reader) fill() error {
	if r.eof {
		return io.EOF
	}
	if r.tmp == nil {
		r.tmp = make([]byte, readChunk)
	}
	n, err := r.r.Read(r.tmp)
	if n > 0 {
		r.buf = append(r.buf, r.tmp[:n]...)
	}
	if err == io.EOF {
		r.eof = true
		if n == 0 {
			return io.EOF
		}
		return nil
	}
	return err
}

func indexStartCode(b []byte, from int) int {
	if from > len(b) {
		return -1
	}
	if i := bytes.Index(b[from:], startCodeWord); i >= 0 {
		return from + i
	}
	return -1
}

func trimTrailingZeros(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return b
}
