package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/bits"
)

// mbSyntax abstracts the two entropy coders at the macroblock layer.
// Context increments and CAVLC coefficient predictors are computed by
// the caller from shared decode state; each implementation consumes
// what its coder needs and ignores the rest. The first syntax error
// is latched and every later call returns safe zero values, so the
// macroblock flow stays linear and checks err at block boundaries.
type mbSyntax interface {
	mbTypeI(inc int) int
	mbTypeP() int
	mbTypeB(inc int) int
	subMBTypeP() int
	subMBTypeB() int
	transformSize8(inc int) bool
	// intra4x4PredMode returns -1 when the inferred mode is selected.
	intra4x4PredMode() int
	intraChromaPredMode(inc int) int
	refIdx(inc, maxIdx int) int
	mvd(comp, amvd int) int
	codedBlockPattern(intra bool, leftCBP, topCBP uint8) uint8
	qpDelta(prevNonzero bool) int
	// residual decodes one coded-order block into coeffs and returns
	// the nonzero count. cat selects the context category, nC the
	// CAVLC table and cbfInc the CABAC coded_block_flag increment.
	residual(cat int, nC int32, cbfInc, maxCoeff int, coeffs []int32) int
	// residual8x8 decodes one 8x8 luma block: a single 64-level scan
	// under CABAC, four interleaved 4x4 scans under CAVLC.
	residual8x8(nC [4]int32, coeffs *[64]int32) [4]uint8
	pcmAlign()
	pcmByte() uint8
	pcmDone()
	err() error
}

// maxAbsMVD bounds motion vector differences in quarter samples. The
// largest level caps vertical ranges at 512 and horizontal at 2048
// full samples (Table A-1), so anything past this is corruption.
const maxAbsMVD = 16384

// cavlcSyntax reads macroblock syntax with the Exp-Golomb and CAVLC
// codes of Section 9.1 and 9.2.
type cavlcSyntax struct {
	r               *bits.Reader
	chromaArrayType uint32
	e               error
}

func newCAVLCSyntax(r *bits.Reader, chromaArrayType uint32) *cavlcSyntax {
	return &cavlcSyntax{r: r, chromaArrayType: chromaArrayType}
}

func (s *cavlcSyntax) fail(err error) {
	if s.e == nil && err != nil {
		s.e = err
	}
}

func (s *cavlcSyntax) err() error { return s.e }

func (s *cavlcSyntax) ue() uint32 {
	v, err := s.r.ReadUE()
	s.fail(err)
	return v
}

func (s *cavlcSyntax) se() int32 {
	v, err := s.r.ReadSE()
	s.fail(err)
	return v
}

func (s *cavlcSyntax) flag() bool {
	v, err := s.r.ReadFlag()
	s.fail(err)
	return v
}

func (s *cavlcSyntax) boundedUE(name string, max uint32) int {
	v := s.ue()
	if v > max {
		s.fail(fmt.Errorf("%w: %s %d", ErrCorruptMB, name, v))
		return 0
	}
	return int(v)
}

func (s *cavlcSyntax) mbTypeI(int) int { return s.boundedUE("mb_type", 25) }

func (s *cavlcSyntax) mbTypeP() int { return s.boundedUE("mb_type", 30) }

func (s *cavlcSyntax) mbTypeB(int) int { return s.boundedUE("mb_type", 48) }

func (s *cavlcSyntax) subMBTypeP() int { return s.boundedUE("sub_mb_type", 3) }

func (s *cavlcSyntax) subMBTypeB() int { return s.boundedUE("sub_mb_type", 12) }

func (s *cavlcSyntax) transformSize8(int) bool { return s.flag() }

func (s *cavlcSyntax) intra4x4PredMode() int {
	if s.flag() {
		return -1
	}
	v, err := s.r.ReadBits(3)
	s.fail(err)
	return int(v)
}

func (s *cavlcSyntax) intraChromaPredMode(int) int {
	return s.boundedUE("intra_chroma_pred_mode", 3)
}

func (s *cavlcSyntax) refIdx(_, maxIdx int) int {
	v, err := s.r.ReadTE(uint32(maxIdx))
	s.fail(err)
	if v > uint32(maxIdx) {
		s.fail(fmt.Errorf("%w: ref_idx %d", ErrCorruptMB, v))
		return 0
	}
	return int(v)
}

func (s *cavlcSyntax) mvd(_, _ int) int {
	v := s.se()
	if v < -maxAbsMVD || v > maxAbsMVD {
		s.fail(fmt.Errorf("%w: mvd %d", ErrCorruptMB, v))
		return 0
	}
	return int(v)
}

func (s *cavlcSyntax) codedBlockPattern(intra bool, _, _ uint8) uint8 {
	v, err := decodeCodedBlockPattern(s.r, intra, s.chromaArrayType)
	s.fail(err)
	return uint8(v)
}

func (s *cavlcSyntax) qpDelta(bool) int {
	v := s.se()
	if v < -26 || v > 25 {
		s.fail(fmt.Errorf("%w: mb_qp_delta %d", ErrCorruptMB, v))
		return 0
	}
	return int(v)
}

func (s *cavlcSyntax) residual(_ int, nC int32, _, maxCoeff int, coeffs []int32) int {
	n, err := decodeCAVLCBlock(s.r, nC, maxCoeff, coeffs)
	s.fail(err)
	return n
}

func (s *cavlcSyntax) residual8x8(nC [4]int32, coeffs *[64]int32) [4]uint8 {
	// The 8x8 levels are transmitted as four interleaved 4x4 scans:
	// coefficient k of sub-block i sits at scan position 4*k+i
	// (Section 8.5.7).
	var counts [4]uint8
	for i := 0; i < 4; i++ {
		var tmp [16]int32
		n, err := decodeCAVLCBlock(s.r, nC[i], 16, tmp[:])
		s.fail(err)
		for k, v := range tmp {
			if v != 0 {
				coeffs[4*k+i] = v
			}
		}
		counts[i] = uint8(n)
	}
	return counts
}

func (s *cavlcSyntax) pcmAlign() { s.r.AlignToByte() }

func (s *cavlcSyntax) pcmByte() uint8 {
	v, err := s.r.ReadBits(8)
	s.fail(err)
	return uint8(v)
}

func (s *cavlcSyntax) pcmDone() {}

// cabacSyntax reads macroblock syntax with the arithmetic coder of
// Section 9.3.
type cabacSyntax struct {
	d    *cabacDecoder
	ctxs *cabacContexts
	e    error
}

func newCABACSyntax(d *cabacDecoder, ctxs *cabacContexts) *cabacSyntax {
	return &cabacSyntax{d: d, ctxs: ctxs}
}

func (s *cabacSyntax) fail(err error) {
	if s.e == nil && err != nil {
		s.e = err
	}
}

func (s *cabacSyntax) err() error {
	if s.e != nil {
		return s.e
	}
	if s.d.overread {
		return fmt.Errorf("%w: arithmetic decoder exhausted its slice data", ErrDesync)
	}
	return nil
}

func (s *cabacSyntax) mbTypeI(inc int) int {
	return s.d.decodeIntraMBType(s.ctxs, ctxMBTypeI, true, inc)
}

func (s *cabacSyntax) mbTypeP() int { return s.d.decodeMBTypeP(s.ctxs) }

func (s *cabacSyntax) mbTypeB(inc int) int { return s.d.decodeMBTypeB(s.ctxs, inc) }

func (s *cabacSyntax) subMBTypeP() int { return s.d.decodeSubMBTypeP(s.ctxs) }

func (s *cabacSyntax) subMBTypeB() int { return s.d.decodeSubMBTypeB(s.ctxs) }

func (s *cabacSyntax) transformSize8(inc int) bool {
	return s.d.decodeTransform8x8(s.ctxs, inc)
}

func (s *cabacSyntax) intra4x4PredMode() int {
	return s.d.decodeIntra4x4PredMode(s.ctxs)
}

func (s *cabacSyntax) intraChromaPredMode(inc int) int {
	return s.d.decodeChromaPredMode(s.ctxs, inc)
}

func (s *cabacSyntax) refIdx(inc, maxIdx int) int {
	v := s.d.decodeRefIdx(s.ctxs, inc)
	if v > maxIdx {
		s.fail(fmt.Errorf("%w: ref_idx %d", ErrCorruptMB, v))
		return 0
	}
	return v
}

func (s *cabacSyntax) mvd(comp, amvd int) int {
	base := ctxMVDX
	if comp == 1 {
		base = ctxMVDY
	}
	v := int(s.d.decodeMVD(s.ctxs, base, amvd))
	if v < -maxAbsMVD || v > maxAbsMVD {
		s.fail(fmt.Errorf("%w: mvd %d", ErrCorruptMB, v))
		return 0
	}
	return v
}

func (s *cabacSyntax) codedBlockPattern(_ bool, leftCBP, topCBP uint8) uint8 {
	luma := s.d.decodeCBPLuma(s.ctxs, int(leftCBP&0x0f), int(topCBP&0x0f))
	chroma := s.d.decodeCBPChroma(s.ctxs, int(leftCBP>>4), int(topCBP>>4))
	return uint8(luma | chroma<<4)
}

func (s *cabacSyntax) qpDelta(prevNonzero bool) int {
	v := int(s.d.decodeQPDelta(s.ctxs, prevNonzero))
	if v < -26 || v > 25 {
		s.fail(fmt.Errorf("%w: mb_qp_delta %d", ErrCorruptMB, v))
		return 0
	}
	return v
}

func (s *cabacSyntax) residual(cat int, _ int32, cbfInc, maxCoeff int, coeffs []int32) int {
	if cat != blockCatLuma8x8 && !s.d.decodeCodedBlockFlag(s.ctxs, cat, cbfInc) {
		return 0
	}
	numC8x8 := 1
	if cat == blockCatChromaDC {
		numC8x8 = maxCoeff / 4
	}
	return s.d.decodeResidualBlock(s.ctxs, cat, maxCoeff, numC8x8, coeffs)
}

func (s *cabacSyntax) residual8x8(_ [4]int32, coeffs *[64]int32) [4]uint8 {
	if s.d.decodeResidualBlock(s.ctxs, blockCatLuma8x8, 64, 0, coeffs[:]) > 0 {
		return [4]uint8{1, 1, 1, 1}
	}
	return [4]uint8{}
}

func (s *cabacSyntax) pcmAlign() { s.d.alignForPCM() }
func (s *cabacSyntax) pcmByte() uint8 {
	return s.d.readPCMByte()
}
func (s *cabacSyntax) pcmDone() { s.d.resumeAfterPCM() }
