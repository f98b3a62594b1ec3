package avc

// Macroblock classes recorded as each macroblock is decoded. The
// entropy layer derives most of its context increments from the
// classes and coded-block grids of the left and top neighbors.
type mbClass uint8

const (
	mbUnset    mbClass = iota // not decoded (unavailable)
	mbSkipP                   // P_Skip
	mbSkipB                   // B_Skip
	mbDirect16                // B_Direct_16x16
	mbInter                   // coded inter
	mbIntraNxN                // I_4x4 or I_8x8
	mbIntra16                 // I_16x16
	mbPCM
)

func (c mbClass) intra() bool {
	return c >= mbIntraNxN
}

func (c mbClass) skipped() bool {
	return c == mbSkipP || c == mbSkipB
}

func (c mbClass) direct() bool {
	return c == mbSkipB || c == mbDirect16
}

// mbState is the per-picture bookkeeping shared by the entropy and
// prediction layers: neighbor availability, coded-block state, intra
// modes and the per-4x4 motion field. All grids are raster ordered.
// Luma block grids have dimensions (4*mbW, 4*mbH); chroma block grids
// (2*mbW, cbH4*mbH) with cbH4 = 2 for 4:2:0 and 4 for 4:2:2.
type mbState struct {
	mbW, mbH int
	cbH4     int

	class       []mbClass
	sliceID     []int32
	cbp         []uint8
	qp          []int8
	transform8  []bool
	chromaMode  []uint8
	lumaDCCBF   []bool
	chromaDCCBF [2][]bool

	i4x4Mode []int8
	lumaNZ   []uint8
	chromaNZ [2][]uint8

	refIdx [2][]int8
	mvX    [2][]int16
	mvY    [2][]int16
	mvdX   [2][]uint16
	mvdY   [2][]uint16
	direct []uint8
}

func newMBState(mbW, mbH int, chroma422 bool) *mbState {
	cbH4 := 2
	if chroma422 {
		cbH4 = 4
	}
	nMB := mbW * mbH
	n4 := 16 * nMB
	nC := 2 * mbW * cbH4 * mbH

	s := &mbState{
		mbW:        mbW,
		mbH:        mbH,
		cbH4:       cbH4,
		class:      make([]mbClass, nMB),
		sliceID:    make([]int32, nMB),
		cbp:        make([]uint8, nMB),
		qp:         make([]int8, nMB),
		transform8: make([]bool, nMB),
		chromaMode: make([]uint8, nMB),
		lumaDCCBF:  make([]bool, nMB),
		i4x4Mode:   make([]int8, n4),
		lumaNZ:     make([]uint8, n4),
		direct:     make([]uint8, n4),
	}
	for l := 0; l < 2; l++ {
		s.chromaDCCBF[l] = make([]bool, nMB)
		s.chromaNZ[l] = make([]uint8, nC)
		s.refIdx[l] = make([]int8, n4)
		s.mvX[l] = make([]int16, n4)
		s.mvY[l] = make([]int16, n4)
		s.mvdX[l] = make([]uint16, n4)
		s.mvdY[l] = make([]uint16, n4)
	}
	s.reset()
	return s
}

// reset prepares the state for a new picture.
func (s *mbState) reset() {
	for i := range s.class {
		s.class[i] = mbUnset
		s.sliceID[i] = -1
		s.cbp[i] = 0
		s.qp[i] = 0
		s.transform8[i] = false
		s.chromaMode[i] = 0
		s.lumaDCCBF[i] = false
		s.chromaDCCBF[0][i] = false
		s.chromaDCCBF[1][i] = false
	}
	for i := range s.i4x4Mode {
		s.i4x4Mode[i] = int8(predDC)
		s.lumaNZ[i] = 0
		s.direct[i] = 0
		for l := 0; l < 2; l++ {
			s.refIdx[l][i] = -1
			s.mvX[l][i] = 0
			s.mvY[l][i] = 0
			s.mvdX[l][i] = 0
			s.mvdY[l][i] = 0
		}
	}
	for l := 0; l < 2; l++ {
		for i := range s.chromaNZ[l] {
			s.chromaNZ[l][i] = 0
		}
	}
}

func (s *mbState) mbIdx(mx, my int) int {
	return my*s.mbW + mx
}

// mbAvail reports whether the macroblock at (mx, my) was decoded in
// the slice identified by curSlice. Neighbor context and prediction
// never cross slice boundaries.
func (s *mbState) mbAvail(mx, my int, curSlice int32) bool {
	if mx < 0 || my < 0 || mx >= s.mbW || my >= s.mbH {
		return false
	}
	return s.sliceID[s.mbIdx(mx, my)] == curSlice
}

func (s *mbState) classAt(mx, my int, curSlice int32) mbClass {
	if !s.mbAvail(mx, my, curSlice) {
		return mbUnset
	}
	return s.class[s.mbIdx(mx, my)]
}

// ctxIncMBSkip derives the mb_skip_flag context increment
// (9.3.3.1.1.1): one per available, not-skipped neighbor.
func (s *mbState) ctxIncMBSkip(mx, my int, curSlice int32) int {
	inc := 0
	if c := s.classAt(mx-1, my, curSlice); c != mbUnset && !c.skipped() {
		inc++
	}
	if c := s.classAt(mx, my-1, curSlice); c != mbUnset && !c.skipped() {
		inc++
	}
	return inc
}

// ctxIncIntraMBType derives the I-slice mb_type context increment
// (9.3.3.1.1.3): one per neighbor that is not coded I_4x4/I_8x8.
func (s *mbState) ctxIncIntraMBType(mx, my int, curSlice int32) int {
	inc := 0
	if c := s.classAt(mx-1, my, curSlice); c != mbUnset && c != mbIntraNxN {
		inc++
	}
	if c := s.classAt(mx, my-1, curSlice); c != mbUnset && c != mbIntraNxN {
		inc++
	}
	return inc
}

// ctxIncBMBType derives the B-slice mb_type context increment: one
// per available neighbor that is not skipped or direct.
func (s *mbState) ctxIncBMBType(mx, my int, curSlice int32) int {
	inc := 0
	if c := s.classAt(mx-1, my, curSlice); c != mbUnset && !c.direct() {
		inc++
	}
	if c := s.classAt(mx, my-1, curSlice); c != mbUnset && !c.direct() {
		inc++
	}
	return inc
}

// ctxIncTransform8 derives the transform_size_8x8_flag context
// increment from the neighbor flags.
func (s *mbState) ctxIncTransform8(mx, my int, curSlice int32) int {
	inc := 0
	if s.mbAvail(mx-1, my, curSlice) && s.transform8[s.mbIdx(mx-1, my)] {
		inc++
	}
	if s.mbAvail(mx, my-1, curSlice) && s.transform8[s.mbIdx(mx, my-1)] {
		inc++
	}
	return inc
}

// ctxIncChromaMode derives the intra_chroma_pred_mode context
// increment. Inter macroblocks record mode 0, so the nonzero test
// covers the "intra neighbor with non-DC mode" condition.
func (s *mbState) ctxIncChromaMode(mx, my int, curSlice int32) int {
	inc := 0
	if s.mbAvail(mx-1, my, curSlice) && s.chromaMode[s.mbIdx(mx-1, my)] != 0 {
		inc++
	}
	if s.mbAvail(mx, my-1, curSlice) && s.chromaMode[s.mbIdx(mx, my-1)] != 0 {
		inc++
	}
	return inc
}

// neighborCBP returns a neighbor's coded_block_pattern for the CBP
// context derivation. Unavailable neighbors read as luma-all-coded
// with zero chroma, which contributes nothing to either part.
func (s *mbState) neighborCBP(mx, my int, curSlice int32) uint8 {
	if !s.mbAvail(mx, my, curSlice) {
		return 0x0f
	}
	return s.cbp[s.mbIdx(mx, my)]
}

// cbf condition helpers (9.3.3.1.1.9). A missing transform block
// reads 0 from the grids; a missing macroblock defaults to the
// current prediction class.

func cbfCond(avail, cbf, curIntra bool) int {
	if !avail {
		if curIntra {
			return 1
		}
		return 0
	}
	if cbf {
		return 1
	}
	return 0
}

// lumaCellAvail reports whether the luma 4x4 cell is readable as a
// neighbor: cells inside the current macroblock always are, cells in
// another macroblock only when that macroblock is available.
func (s *mbState) lumaCellAvail(x4, y4, curMX, curMY int, curSlice int32) bool {
	if x4 < 0 || y4 < 0 {
		return false
	}
	if x4/4 == curMX && y4/4 == curMY {
		return true
	}
	return s.mbAvail(x4/4, y4/4, curSlice)
}

// ctxIncCBFLuma derives the coded_block_flag context increment for
// the luma 4x4 (or 8x8 child) block at grid cell (x4, y4).
func (s *mbState) ctxIncCBFLuma(x4, y4 int, curSlice int32, curIntra bool) int {
	curMX, curMY := x4/4, y4/4
	availA := s.lumaCellAvail(x4-1, y4, curMX, curMY, curSlice)
	availB := s.lumaCellAvail(x4, y4-1, curMX, curMY, curSlice)
	condA := cbfCond(availA, availA && s.lumaNZ[y4*s.mbW*4+x4-1] != 0, curIntra)
	condB := cbfCond(availB, availB && s.lumaNZ[(y4-1)*s.mbW*4+x4] != 0, curIntra)
	return condA + 2*condB
}

// ctxIncCBFChroma is the chroma AC analog on the chroma block grid.
func (s *mbState) ctxIncCBFChroma(plane, cx4, cy4 int, curSlice int32, curIntra bool) int {
	w := s.mbW * 2
	curMX, curMY := cx4/2, cy4/s.cbH4
	availA := s.chromaCellAvail(cx4-1, cy4, curMX, curMY, curSlice)
	availB := s.chromaCellAvail(cx4, cy4-1, curMX, curMY, curSlice)
	condA := cbfCond(availA, availA && s.chromaNZ[plane][cy4*w+cx4-1] != 0, curIntra)
	condB := cbfCond(availB, availB && s.chromaNZ[plane][(cy4-1)*w+cx4] != 0, curIntra)
	return condA + 2*condB
}

func (s *mbState) chromaCellAvail(cx4, cy4, curMX, curMY int, curSlice int32) bool {
	if cx4 < 0 || cy4 < 0 {
		return false
	}
	if cx4/2 == curMX && cy4/s.cbH4 == curMY {
		return true
	}
	return s.mbAvail(cx4/2, cy4/s.cbH4, curSlice)
}

// ctxIncCBFLumaDC derives the Intra_16x16 DC coded_block_flag context
// increment from the per-macroblock DC flags.
func (s *mbState) ctxIncCBFLumaDC(mx, my int, curSlice int32) int {
	condA := cbfCond(s.mbAvail(mx-1, my, curSlice),
		s.mbAvail(mx-1, my, curSlice) && s.lumaDCCBF[s.mbIdx(mx-1, my)], true)
	condB := cbfCond(s.mbAvail(mx, my-1, curSlice),
		s.mbAvail(mx, my-1, curSlice) && s.lumaDCCBF[s.mbIdx(mx, my-1)], true)
	return condA + 2*condB
}

// ctxIncCBFChromaDC is the chroma DC analog.
func (s *mbState) ctxIncCBFChromaDC(plane, mx, my int, curSlice int32, curIntra bool) int {
	condA := cbfCond(s.mbAvail(mx-1, my, curSlice),
		s.mbAvail(mx-1, my, curSlice) && s.chromaDCCBF[plane][s.mbIdx(mx-1, my)], curIntra)
	condB := cbfCond(s.mbAvail(mx, my-1, curSlice),
		s.mbAvail(mx, my-1, curSlice) && s.chromaDCCBF[plane][s.mbIdx(mx, my-1)], curIntra)
	return condA + 2*condB
}

// nzLuma returns the stored coefficient count for the luma 4x4 cell,
// or -1 when the cell is unavailable to the current slice.
func (s *mbState) nzLuma(x4, y4 int, curSlice int32) int {
	if x4 < 0 || y4 < 0 || !s.mbAvail(x4/4, y4/4, curSlice) {
		return -1
	}
	return int(s.lumaNZ[y4*s.mbW*4+x4])
}

func (s *mbState) nzChroma(plane, cx4, cy4 int, curSlice int32) int {
	if cx4 < 0 || cy4 < 0 || !s.mbAvail(cx4/2, cy4/s.cbH4, curSlice) {
		return -1
	}
	return int(s.chromaNZ[plane][cy4*s.mbW*2+cx4])
}

// predictNC derives the CAVLC nC predictor (9.2.1) from left and top
// coefficient counts, each -1 when unavailable.
func predictNC(nA, nB int) int {
	switch {
	case nA >= 0 && nB >= 0:
		return (nA + nB + 1) >> 1
	case nA >= 0:
		return nA
	case nB >= 0:
		return nB
	default:
		return 0
	}
}

// predIntra4x4Mode returns the most probable mode for a luma 4x4 (or
// 8x8) block: min(left, top) with DC substituted for missing
// neighbors (8.3.1.1). Non-I_NxN macroblocks record DC in the grid.
func (s *mbState) predIntra4x4Mode(x4, y4 int, curSlice int32) int {
	left := predDC
	if x4 > 0 && s.mbAvail((x4-1)/4, y4/4, curSlice) {
		left = int(s.i4x4Mode[y4*s.mbW*4+x4-1])
	}
	top := predDC
	if y4 > 0 && s.mbAvail(x4/4, (y4-1)/4, curSlice) {
		top = int(s.i4x4Mode[(y4-1)*s.mbW*4+x4])
	}
	return minInt(left, top)
}

// setIntra4x4Modes records a decoded block mode across its cells
// (one for 4x4, a 2x2 quad for 8x8).
func (s *mbState) setIntra4x4Mode(x4, y4, cells, mode int) {
	for dy := 0; dy < cells; dy++ {
		for dx := 0; dx < cells; dx++ {
			s.i4x4Mode[(y4+dy)*s.mbW*4+x4+dx] = int8(mode)
		}
	}
}

// setMotion rasterizes one partition's motion into the 4x4 grids.
func (s *mbState) setMotion(list, x4, y4, w4, h4 int, mvx, mvy int, ref int8) {
	w := s.mbW * 4
	mx := int16(clip3(-32768, 32767, mvx))
	my := int16(clip3(-32768, 32767, mvy))
	for dy := 0; dy < h4; dy++ {
		base := (y4+dy)*w + x4
		for dx := 0; dx < w4; dx++ {
			s.mvX[list][base+dx] = mx
			s.mvY[list][base+dx] = my
			s.refIdx[list][base+dx] = ref
		}
	}
}

// setMVD records the decoded motion vector difference magnitudes used
// by the CABAC mvd context derivation.
func (s *mbState) setMVD(list, x4, y4, w4, h4 int, mvdx, mvdy int) {
	w := s.mbW * 4
	ax := uint16(minInt(absInt(mvdx), 0xffff))
	ay := uint16(minInt(absInt(mvdy), 0xffff))
	for dy := 0; dy < h4; dy++ {
		base := (y4+dy)*w + x4
		for dx := 0; dx < w4; dx++ {
			s.mvdX[list][base+dx] = ax
			s.mvdY[list][base+dx] = ay
		}
	}
}

// setDirect marks one partition's cells as direct-coded.
func (s *mbState) setDirect(x4, y4, w4, h4 int, v uint8) {
	w := s.mbW * 4
	for dy := 0; dy < h4; dy++ {
		base := (y4+dy)*w + x4
		for dx := 0; dx < w4; dx++ {
			s.direct[base+dx] = v
		}
	}
}

// amvd sums the neighbor mvd magnitudes for the CABAC context
// selection (9.3.3.1.1.7). comp selects horizontal or vertical.
func (s *mbState) amvd(list, comp, x4, y4 int, curSlice int32) int {
	w := s.mbW * 4
	sum := 0
	if x4 > 0 && s.mbAvail((x4-1)/4, y4/4, curSlice) {
		if comp == 0 {
			sum += int(s.mvdX[list][y4*w+x4-1])
		} else {
			sum += int(s.mvdY[list][y4*w+x4-1])
		}
	}
	if y4 > 0 && s.mbAvail(x4/4, (y4-1)/4, curSlice) {
		if comp == 0 {
			sum += int(s.mvdX[list][(y4-1)*w+x4])
		} else {
			sum += int(s.mvdY[list][(y4-1)*w+x4])
		}
	}
	return sum
}

// ctxIncRefIdx derives the ref_idx context increment (9.3.3.1.1.6):
// condTermFlagA + 2*condTermFlagB, where a neighbor contributes when
// it used the list with a reference index above zero and was not
// direct-coded.
func (s *mbState) ctxIncRefIdx(list, x4, y4 int, curSlice int32) int {
	inc := 0
	if s.refCond(list, x4-1, y4, curSlice) {
		inc++
	}
	if s.refCond(list, x4, y4-1, curSlice) {
		inc += 2
	}
	return inc
}

func (s *mbState) refCond(list, x4, y4 int, curSlice int32) bool {
	if x4 < 0 || y4 < 0 || !s.mbAvail(x4/4, y4/4, curSlice) {
		return false
	}
	i := y4*s.mbW*4 + x4
	return s.refIdx[list][i] > 0 && s.direct[i] == 0
}

// motionAt fetches a neighbor cell's motion for prediction. ok is
// false when the cell is unavailable, intra, or does not use the
// list; such candidates contribute a zero vector with reference -1.
func (s *mbState) motionAt(list, x4, y4 int, curSlice int32) (mvx, mvy int, ref int8, ok bool) {
	if x4 < 0 || y4 < 0 || x4 >= s.mbW*4 || y4 >= s.mbH*4 {
		return 0, 0, -1, false
	}
	if !s.mbAvail(x4/4, y4/4, curSlice) {
		return 0, 0, -1, false
	}
	i := y4*s.mbW*4 + x4
	if s.refIdx[list][i] < 0 {
		// Intra neighbors and one-list inter neighbors still count as
		// available candidates, just without a usable vector.
		return 0, 0, -1, true
	}
	return int(s.mvX[list][i]), int(s.mvY[list][i]), s.refIdx[list][i], true
}

// resetMBCells clears the block-level grids of one macroblock to
// their defaults. Used for skips and before intra decode so stale
// state from previous pictures never leaks through.
func (s *mbState) resetMBCells(mx, my int) {
	x0 := mx * 4
	y0 := my * 4
	w := s.mbW * 4
	for dy := 0; dy < 4; dy++ {
		base := (y0+dy)*w + x0
		for dx := 0; dx < 4; dx++ {
			s.i4x4Mode[base+dx] = int8(predDC)
			s.lumaNZ[base+dx] = 0
			s.direct[base+dx] = 0
			for l := 0; l < 2; l++ {
				s.refIdx[l][base+dx] = -1
				s.mvX[l][base+dx] = 0
				s.mvY[l][base+dx] = 0
				s.mvdX[l][base+dx] = 0
				s.mvdY[l][base+dx] = 0
			}
		}
	}
	cw := s.mbW * 2
	cx0 := mx * 2
	cy0 := my * s.cbH4
	for dy := 0; dy < s.cbH4; dy++ {
		base := (cy0+dy)*cw + cx0
		for dx := 0; dx < 2; dx++ {
			s.chromaNZ[0][base+dx] = 0
			s.chromaNZ[1][base+dx] = 0
		}
	}
	idx := s.mbIdx(mx, my)
	s.lumaDCCBF[idx] = false
	s.chromaDCCBF[0][idx] = false
	s.chromaDCCBF[1][idx] = false
	s.transform8[idx] = false
	s.chromaMode[idx] = 0
	s.cbp[idx] = 0
}
