package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/bits"
)

// luma4x4Order is the decoding order of the 4x4 luma blocks within a
// macroblock: the four 8x8 quadrants in raster order, each split into
// four 4x4 blocks in raster order (Figure 6-10).
var luma4x4Order = [16][2]uint8{
	{0, 0}, {1, 0}, {0, 1}, {1, 1},
	{2, 0}, {3, 0}, {2, 1}, {3, 1},
	{0, 2}, {1, 2}, {0, 3}, {1, 3},
	{2, 2}, {3, 2}, {2, 3}, {3, 3},
}

// refPicture is one reference list entry handed to the slice decoder.
type refPicture struct {
	pic      *Picture
	longTerm bool
}

// sliceDecoder decodes the macroblocks of one slice into the current
// picture. It owns no reference state of its own: parameter sets,
// reference lists and the shared macroblock grids all come from the
// caller, so several slices of one picture reuse the same state.
type sliceDecoder struct {
	hdr *SliceHeader
	sps *SPS
	pps *PPS
	cur *Picture
	st  *mbState

	sliceID int32
	refs    [2][]refPicture
	l0Meta  []refMeta

	mbAddr int
	mbX    int
	mbY    int

	qp                 int32
	prevQPDeltaNonzero bool
	sawQPDelta         bool

	chroma420 bool
	chromaMBH int

	pred0 interScratch
	pred1 interScratch
}

func newSliceDecoder(hdr *SliceHeader, cur *Picture, st *mbState, refs [2][]refPicture, sliceID int32) *sliceDecoder {
	sd := &sliceDecoder{
		hdr:       hdr,
		sps:       hdr.SPS,
		pps:       hdr.PPS,
		cur:       cur,
		st:        st,
		sliceID:   sliceID,
		refs:      refs,
		chroma420: hdr.SPS.ChromaFormatIDC == 1,
		chromaMBH: 8,
	}
	if !sd.chroma420 {
		sd.chromaMBH = 16
	}
	for _, r := range refs[0] {
		sd.l0Meta = append(sd.l0Meta, refMeta{poc: r.pic.POC, longTerm: r.longTerm})
	}
	return sd
}

// run decodes the slice payload. rbsp is the full slice NAL RBSP; the
// header has already been parsed and records where the data starts.
func (sd *sliceDecoder) run(rbsp []byte) error {
	total := sd.st.mbW * sd.st.mbH
	if int(sd.hdr.FirstMB) >= total {
		return fmt.Errorf("%w: first_mb_in_slice %d beyond picture", ErrMalformed, sd.hdr.FirstMB)
	}
	sd.mbAddr = int(sd.hdr.FirstMB)
	sd.qp = sd.hdr.SliceQP
	if sd.pps.CABAC {
		return sd.runCABAC(rbsp, total)
	}
	return sd.runCAVLC(rbsp, total)
}

func (sd *sliceDecoder) runCAVLC(rbsp []byte, total int) error {
	r := bits.NewReader(rbsp)
	if err := r.SkipBits(uint(sd.hdr.DataBitOffset)); err != nil {
		return fmt.Errorf("%w: slice data offset", ErrMalformed)
	}
	syn := newCAVLCSyntax(r, sd.sps.ChromaFormatIDC)
	interSlice := sd.hdr.Type != SliceTypeI
	for {
		if sd.mbAddr >= total {
			if r.MoreRBSPData() {
				return fmt.Errorf("%w: slice data continues past the last macroblock", ErrDesync)
			}
			return nil
		}
		if interSlice {
			run, err := r.ReadUE()
			if err != nil {
				return fmt.Errorf("%w: mb_skip_run", ErrDesync)
			}
			for i := uint32(0); i < run; i++ {
				if sd.mbAddr >= total {
					return fmt.Errorf("%w: mb_skip_run overruns the picture", ErrDesync)
				}
				sd.skipMB()
				sd.mbAddr++
			}
			if run > 0 && !r.MoreRBSPData() {
				return nil
			}
			if sd.mbAddr >= total {
				return fmt.Errorf("%w: slice data continues past the last macroblock", ErrDesync)
			}
		}
		if err := sd.decodeMB(syn); err != nil {
			return err
		}
		sd.mbAddr++
		if !r.MoreRBSPData() {
			return nil
		}
	}
}

func (sd *sliceDecoder) runCABAC(rbsp []byte, total int) error {
	if sd.hdr.CABACStartByte >= len(rbsp) {
		return fmt.Errorf("%w: no slice data after cabac_alignment", ErrDesync)
	}
	var dec cabacDecoder
	dec.init(rbsp[sd.hdr.CABACStartByte:])
	ctxs := initCabacContexts(sd.hdr.Type, sd.hdr.CABACInitIDC, sd.hdr.SliceQP)
	syn := newCABACSyntax(&dec, &ctxs)
	for {
		if sd.mbAddr >= total {
			return fmt.Errorf("%w: end_of_slice_flag missing at the last macroblock", ErrDesync)
		}
		mx, my := sd.mbAddr%sd.st.mbW, sd.mbAddr/sd.st.mbW
		skip := false
		switch sd.hdr.Type {
		case SliceTypeP:
			skip = dec.decodeMBSkip(&ctxs, ctxMBSkipP, sd.st.ctxIncMBSkip(mx, my, sd.sliceID))
		case SliceTypeB:
			skip = dec.decodeMBSkip(&ctxs, ctxMBSkipB, sd.st.ctxIncMBSkip(mx, my, sd.sliceID))
		}
		if skip {
			sd.skipMB()
		} else if err := sd.decodeMB(syn); err != nil {
			return err
		}
		if err := syn.err(); err != nil {
			return err
		}
		sd.mbAddr++
		if dec.decodeTerminate() == 1 {
			return nil
		}
	}
}

// setupMB positions the decoder on mbAddr and claims the macroblock
// for this slice, which makes its cells readable as neighbors.
func (sd *sliceDecoder) setupMB() {
	sd.mbX = sd.mbAddr % sd.st.mbW
	sd.mbY = sd.mbAddr / sd.st.mbW
	idx := sd.st.mbIdx(sd.mbX, sd.mbY)
	sd.st.sliceID[idx] = sd.sliceID
	sd.st.resetMBCells(sd.mbX, sd.mbY)
	sd.st.qp[idx] = int8(sd.qp)
}

func (sd *sliceDecoder) skipMB() {
	sd.setupMB()
	sd.prevQPDeltaNonzero = false
	idx := sd.st.mbIdx(sd.mbX, sd.mbY)
	x4, y4 := sd.mbX*4, sd.mbY*4
	if sd.hdr.Type == SliceTypeP {
		sd.st.class[idx] = mbSkipP
		mvx, mvy := sd.st.pskipMV(x4, y4, sd.sliceID)
		sd.st.setMotion(0, x4, y4, 4, 4, mvx, mvy, 0)
		sd.applyInter(x4, y4, 4, 4)
		return
	}
	sd.st.class[idx] = mbSkipB
	sd.directMB()
}

func (sd *sliceDecoder) decodeMB(syn mbSyntax) error {
	sd.setupMB()
	sd.sawQPDelta = false
	var err error
	switch sd.hdr.Type {
	case SliceTypeI:
		t := syn.mbTypeI(sd.st.ctxIncIntraMBType(sd.mbX, sd.mbY, sd.sliceID))
		err = sd.decodeIntraMB(syn, t)
	case SliceTypeP:
		err = sd.decodePMB(syn, syn.mbTypeP())
	default:
		t := syn.mbTypeB(sd.st.ctxIncBMBType(sd.mbX, sd.mbY, sd.sliceID))
		err = sd.decodeBMB(syn, t)
	}
	if !sd.sawQPDelta {
		sd.prevQPDeltaNonzero = false
	}
	if err != nil {
		return err
	}
	return syn.err()
}

func (sd *sliceDecoder) applyQPDelta(syn mbSyntax, idx int) {
	d := syn.qpDelta(sd.prevQPDeltaNonzero)
	sd.sawQPDelta = true
	sd.prevQPDeltaNonzero = d != 0
	sd.qp = wrapQP(sd.qp + int32(d))
	sd.st.qp[idx] = int8(sd.qp)
}

func wrapQP(qp int32) int32 {
	return ((qp % 52) + 52) % 52
}

// intraAvail reports neighbor availability for intra prediction:
// constrained intra prediction hides inter-coded neighbors.
func (sd *sliceDecoder) intraAvail(mx, my int) bool {
	if !sd.st.mbAvail(mx, my, sd.sliceID) {
		return false
	}
	if sd.pps.ConstrainedIntraPred {
		return sd.st.class[sd.st.mbIdx(mx, my)].intra()
	}
	return true
}

func (sd *sliceDecoder) cellIntraAvail(x4, y4, mbX, mbY int) bool {
	if x4 < 0 || y4 < 0 || x4 >= sd.st.mbW*4 {
		return false
	}
	if x4/4 == mbX && y4/4 == mbY {
		return true
	}
	return sd.intraAvail(x4/4, y4/4)
}

// blockNeighbors derives the intra reference availability of a block
// of w4 cells at (x4, y4). Top-right follows the same decode-order
// rule as the motion candidate C.
func (sd *sliceDecoder) blockNeighbors(x4, y4, w4 int) intraNeighbors {
	mbX, mbY := x4/4, y4/4
	n := intraNeighbors{
		left:    sd.cellIntraAvail(x4-1, y4, mbX, mbY),
		top:     sd.cellIntraAvail(x4, y4-1, mbX, mbY),
		topLeft: sd.cellIntraAvail(x4-1, y4-1, mbX, mbY),
	}
	cx, cy := x4+w4, y4-1
	switch {
	case cy < 0 || cx >= sd.st.mbW*4:
	case cy < mbY*4:
		n.topRight = sd.intraAvail(cx/4, cy/4)
	case cx >= (mbX+1)*4:
	default:
		n.topRight = quadrant(cx-mbX*4, cy-mbY*4) <= quadrant(x4-mbX*4, y4-mbY*4)
	}
	return n
}

// Intra macroblocks.

// decodeIntraMB decodes an intra macroblock. t is the intra mb_type:
// 0 I_NxN, 1..24 Intra_16x16, 25 I_PCM.
func (sd *sliceDecoder) decodeIntraMB(syn mbSyntax, t int) error {
	idx := sd.st.mbIdx(sd.mbX, sd.mbY)
	switch {
	case t == 0:
		return sd.decodeIntraNxN(syn, idx)
	case t == 25:
		return sd.decodeIPCM(syn, idx)
	default:
		return sd.decodeIntra16(syn, idx, t-1)
	}
}

func (sd *sliceDecoder) resolveIntraMode(syn mbSyntax, x4, y4 int) int {
	pred := sd.st.predIntra4x4Mode(x4, y4, sd.sliceID)
	rem := syn.intra4x4PredMode()
	if rem < 0 {
		return pred
	}
	if rem >= pred {
		return rem + 1
	}
	return rem
}

func (sd *sliceDecoder) decodeIntraNxN(syn mbSyntax, idx int) error {
	sd.st.class[idx] = mbIntraNxN
	transform8 := false
	if sd.pps.Transform8x8Mode {
		transform8 = syn.transformSize8(sd.st.ctxIncTransform8(sd.mbX, sd.mbY, sd.sliceID))
	}
	sd.st.transform8[idx] = transform8

	x4, y4 := sd.mbX*4, sd.mbY*4
	var modes [16]uint8
	if transform8 {
		for b := 0; b < 4; b++ {
			bx, by := x4+(b%2)*2, y4+(b/2)*2
			m := sd.resolveIntraMode(syn, bx, by)
			sd.st.setIntra4x4Mode(bx, by, 2, m)
			modes[b] = uint8(m)
		}
	} else {
		for b := 0; b < 16; b++ {
			bx, by := x4+int(luma4x4Order[b][0]), y4+int(luma4x4Order[b][1])
			m := sd.resolveIntraMode(syn, bx, by)
			sd.st.setIntra4x4Mode(bx, by, 1, m)
			modes[b] = uint8(m)
		}
	}
	chromaMode := syn.intraChromaPredMode(sd.st.ctxIncChromaMode(sd.mbX, sd.mbY, sd.sliceID))
	sd.st.chromaMode[idx] = uint8(chromaMode)

	cbp := syn.codedBlockPattern(true,
		sd.st.neighborCBP(sd.mbX-1, sd.mbY, sd.sliceID),
		sd.st.neighborCBP(sd.mbX, sd.mbY-1, sd.sliceID))
	sd.st.cbp[idx] = cbp
	if err := syn.err(); err != nil {
		return err
	}
	if cbp != 0 {
		sd.applyQPDelta(syn, idx)
	}

	if transform8 {
		weight := activeScaling8x8(sd.sps, sd.pps, true)
		for b := 0; b < 4; b++ {
			px := sd.mbX*16 + (b%2)*8
			py := sd.mbY*16 + (b/2)*8
			avail := sd.blockNeighbors(x4+(b%2)*2, y4+(b/2)*2, 2)
			predictIntra8x8(sd.cur.Y, sd.cur.StrideY, px, py, modes[b], avail)
			if cbp&(1<<uint(b)) != 0 {
				sd.luma8x8Block(syn, b, weight, true)
			}
		}
	} else {
		weight := activeScaling4x4(sd.sps, sd.pps, true, 0)
		for b := 0; b < 16; b++ {
			cx, cy := int(luma4x4Order[b][0]), int(luma4x4Order[b][1])
			px := sd.mbX*16 + cx*4
			py := sd.mbY*16 + cy*4
			avail := sd.blockNeighbors(x4+cx, y4+cy, 1)
			predictIntra4x4(sd.cur.Y, sd.cur.StrideY, px, py, modes[b], avail)
			if cbp&(1<<uint(b/4)) != 0 {
				sd.luma4x4Block(syn, b, weight, true)
			}
		}
	}

	sd.predictChromaMB(int(chromaMode))
	return sd.chromaResidual(syn, idx, cbp>>4, true)
}

func (sd *sliceDecoder) decodeIntra16(syn mbSyntax, idx, t int) error {
	sd.st.class[idx] = mbIntra16
	predMode := uint8(t % 4)
	cbpChroma := uint8(t / 4 % 3)
	var cbpLuma uint8
	if t >= 12 {
		cbpLuma = 0x0f
	}
	chromaMode := syn.intraChromaPredMode(sd.st.ctxIncChromaMode(sd.mbX, sd.mbY, sd.sliceID))
	sd.st.chromaMode[idx] = uint8(chromaMode)
	sd.st.cbp[idx] = cbpLuma | cbpChroma<<4
	sd.applyQPDelta(syn, idx)
	if err := syn.err(); err != nil {
		return err
	}

	x4, y4 := sd.mbX*4, sd.mbY*4
	avail := sd.blockNeighbors(x4, y4, 4)
	predictIntra16x16(sd.cur.Y, sd.cur.StrideY, sd.mbX*16, sd.mbY*16, predMode, avail)

	weight := activeScaling4x4(sd.sps, sd.pps, true, 0)
	var dcScan [16]int32
	nCdc := int32(predictNC(sd.st.nzLuma(x4-1, y4, sd.sliceID), sd.st.nzLuma(x4, y4-1, sd.sliceID)))
	nDC := syn.residual(blockCatLumaDC, nCdc, sd.st.ctxIncCBFLumaDC(sd.mbX, sd.mbY, sd.sliceID), 16, dcScan[:])
	sd.st.lumaDCCBF[idx] = nDC > 0
	dc := inverseScan4x4(&dcScan)
	hadamard4x4(&dc)
	dequantLumaDC(&dc, sd.qp, weight)

	w4 := sd.st.mbW * 4
	for b := 0; b < 16; b++ {
		cx, cy := int(luma4x4Order[b][0]), int(luma4x4Order[b][1])
		bx, by := x4+cx, y4+cy
		var blk [16]int32
		nz := 0
		if cbpLuma != 0 {
			nC := int32(predictNC(sd.st.nzLuma(bx-1, by, sd.sliceID), sd.st.nzLuma(bx, by-1, sd.sliceID)))
			cbfInc := sd.st.ctxIncCBFLuma(bx, by, sd.sliceID, true)
			nz = syn.residual(blockCatLumaAC, nC, cbfInc, 15, blk[1:])
			if nz > 0 {
				dequant4x4(&blk, sd.qp, weight, 1)
			}
		}
		sd.st.lumaNZ[by*w4+bx] = uint8(nz)
		blk[0] = dc[cy*4+cx]
		if blk[0] != 0 || nz > 0 {
			r := inverseScan4x4(&blk)
			idct4x4(&r)
			addBlock(sd.cur.Y, sd.cur.StrideY, sd.mbX*16+cx*4, sd.mbY*16+cy*4, 4, 4, r[:])
		}
	}

	sd.predictChromaMB(int(chromaMode))
	return sd.chromaResidual(syn, idx, cbpChroma, true)
}

func (sd *sliceDecoder) decodeIPCM(syn mbSyntax, idx int) error {
	sd.st.class[idx] = mbPCM
	syn.pcmAlign()
	x0, y0 := sd.mbX*16, sd.mbY*16
	for y := 0; y < 16; y++ {
		row := sd.cur.Y[(y0+y)*sd.cur.StrideY+x0:]
		for x := 0; x < 16; x++ {
			row[x] = syn.pcmByte()
		}
	}
	cx0, cy0 := sd.mbX*8, sd.mbY*sd.chromaMBH
	for _, plane := range [2][]uint8{sd.cur.Cb, sd.cur.Cr} {
		for y := 0; y < sd.chromaMBH; y++ {
			row := plane[(cy0+y)*sd.cur.StrideC+cx0:]
			for x := 0; x < 8; x++ {
				row[x] = syn.pcmByte()
			}
		}
	}
	syn.pcmDone()
	if err := syn.err(); err != nil {
		return err
	}

	// Raw macroblocks count as fully coded for every neighbor
	// derivation, and filter with qP 0 (Section 8.7).
	sd.st.cbp[idx] = 0x2f
	sd.st.qp[idx] = 0
	sd.st.lumaDCCBF[idx] = true
	sd.st.chromaDCCBF[0][idx] = true
	sd.st.chromaDCCBF[1][idx] = true
	x4, y4 := sd.mbX*4, sd.mbY*4
	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 4; dx++ {
			sd.st.lumaNZ[(y4+dy)*sd.st.mbW*4+x4+dx] = 16
		}
	}
	for dy := 0; dy < sd.st.cbH4; dy++ {
		for dx := 0; dx < 2; dx++ {
			ci := (sd.mbY*sd.st.cbH4+dy)*sd.st.mbW*2 + sd.mbX*2 + dx
			sd.st.chromaNZ[0][ci] = 16
			sd.st.chromaNZ[1][ci] = 16
		}
	}
	return nil
}

func (sd *sliceDecoder) predictChromaMB(mode int) {
	avail := sd.blockNeighbors(sd.mbX*4, sd.mbY*4, 4)
	cx0, cy0 := sd.mbX*8, sd.mbY*sd.chromaMBH
	predictIntraChroma(sd.cur.Cb, sd.cur.StrideC, cx0, cy0, sd.chromaMBH, uint8(mode), avail)
	predictIntraChroma(sd.cur.Cr, sd.cur.StrideC, cx0, cy0, sd.chromaMBH, uint8(mode), avail)
}

// Residual blocks.

// luma4x4Block parses and reconstructs one full 4x4 luma block at
// scan position b of the current macroblock.
func (sd *sliceDecoder) luma4x4Block(syn mbSyntax, b int, weight *[16]uint8, intra bool) {
	cx, cy := int(luma4x4Order[b][0]), int(luma4x4Order[b][1])
	x4, y4 := sd.mbX*4+cx, sd.mbY*4+cy
	nC := int32(predictNC(sd.st.nzLuma(x4-1, y4, sd.sliceID), sd.st.nzLuma(x4, y4-1, sd.sliceID)))
	cbfInc := sd.st.ctxIncCBFLuma(x4, y4, sd.sliceID, intra)
	var blk [16]int32
	nz := syn.residual(blockCatLuma4x4, nC, cbfInc, 16, blk[:])
	sd.st.lumaNZ[y4*sd.st.mbW*4+x4] = uint8(nz)
	if nz == 0 {
		return
	}
	dequant4x4(&blk, sd.qp, weight, 0)
	r := inverseScan4x4(&blk)
	idct4x4(&r)
	addBlock(sd.cur.Y, sd.cur.StrideY, sd.mbX*16+cx*4, sd.mbY*16+cy*4, 4, 4, r[:])
}

// luma8x8Block parses and reconstructs the 8x8 transform block in
// quadrant q of the current macroblock.
func (sd *sliceDecoder) luma8x8Block(syn mbSyntax, q int, weight *[64]uint8, intra bool) {
	x4 := sd.mbX*4 + (q%2)*2
	y4 := sd.mbY*4 + (q/2)*2
	var nCs [4]int32
	for i := 0; i < 4; i++ {
		cx, cy := x4+i%2, y4+i/2
		nCs[i] = int32(predictNC(sd.st.nzLuma(cx-1, cy, sd.sliceID), sd.st.nzLuma(cx, cy-1, sd.sliceID)))
	}
	var blk [64]int32
	counts := syn.residual8x8(nCs, &blk)
	w4 := sd.st.mbW * 4
	for i := 0; i < 4; i++ {
		sd.st.lumaNZ[(y4+i/2)*w4+x4+i%2] = counts[i]
	}
	dequant8x8(&blk, sd.qp, weight)
	r := inverseScan8x8(&blk)
	idct8x8(&r)
	addBlock(sd.cur.Y, sd.cur.StrideY, sd.mbX*16+(q%2)*8, sd.mbY*16+(q/2)*8, 8, 8, r[:])
}

// chromaResidual parses and reconstructs both chroma planes: a
// transformed DC block per plane when cbpChroma is at least 1, plus
// AC levels when it is 2.
func (sd *sliceDecoder) chromaResidual(syn mbSyntax, idx int, cbpChroma uint8, intra bool) error {
	if cbpChroma == 0 {
		return syn.err()
	}
	nBlk := 4
	dcNC := int32(-1)
	if !sd.chroma420 {
		nBlk = 8
		dcNC = -2
	}
	planes := [2][]uint8{sd.cur.Cb, sd.cur.Cr}
	offsets := [2]int32{sd.pps.ChromaQPIndexOffset, sd.pps.SecondChromaQPIndexOffset}
	var qpcs [2]int32
	var weights [2]*[16]uint8
	var dc [2][8]int32

	// Both DC blocks precede any AC levels in the bitstream (7.3.5.3.3).
	for plane := 0; plane < 2; plane++ {
		qpcs[plane] = chromaQP(sd.qp, offsets[plane])
		weights[plane] = activeScaling4x4(sd.sps, sd.pps, intra, plane+1)
		var dcScan [8]int32
		cbfInc := sd.st.ctxIncCBFChromaDC(plane, sd.mbX, sd.mbY, sd.sliceID, intra)
		nDC := syn.residual(blockCatChromaDC, dcNC, cbfInc, nBlk, dcScan[:nBlk])
		sd.st.chromaDCCBF[plane][idx] = nDC > 0
		inverseScanChromaDC(dc[plane][:nBlk], dcScan[:nBlk])
		if nBlk == 4 {
			hadamard2x2((*[4]int32)(dc[plane][:4]))
		} else {
			hadamard2x4(&dc[plane])
		}
		dequantChromaDC(dc[plane][:nBlk], qpcs[plane], weights[plane])
	}

	for plane := 0; plane < 2; plane++ {
		for b := 0; b < nBlk; b++ {
			bx, by := b%2, b/2
			var blk [16]int32
			nz := 0
			if cbpChroma == 2 {
				cx4, cy4 := sd.mbX*2+bx, sd.mbY*sd.st.cbH4+by
				nC := int32(predictNC(sd.st.nzChroma(plane, cx4-1, cy4, sd.sliceID),
					sd.st.nzChroma(plane, cx4, cy4-1, sd.sliceID)))
				acInc := sd.st.ctxIncCBFChroma(plane, cx4, cy4, sd.sliceID, intra)
				nz = syn.residual(blockCatChromaAC, nC, acInc, 15, blk[1:])
				sd.st.chromaNZ[plane][cy4*sd.st.mbW*2+cx4] = uint8(nz)
				if nz > 0 {
					dequant4x4(&blk, qpcs[plane], weights[plane], 1)
				}
			}
			blk[0] = dc[plane][by*2+bx]
			if blk[0] != 0 || nz > 0 {
				r := inverseScan4x4(&blk)
				idct4x4(&r)
				addBlock(planes[plane], sd.cur.StrideC,
					sd.mbX*8+bx*4, sd.mbY*sd.chromaMBH+by*4, 4, 4, r[:])
			}
		}
	}
	return syn.err()
}

// Inter macroblocks.

// readRefIdx decodes one reference index and stamps it into the grid
// so the next index's context sees it; the vector follows later.
func (sd *sliceDecoder) readRefIdx(syn mbSyntax, list, x4, y4, w4, h4, maxIdx int) int8 {
	ref := 0
	if maxIdx > 0 {
		ref = syn.refIdx(sd.st.ctxIncRefIdx(list, x4, y4, sd.sliceID), maxIdx)
	}
	sd.st.setMotion(list, x4, y4, w4, h4, 0, 0, int8(ref))
	return int8(ref)
}

// motionPartition decodes the motion vector difference of one
// partition, adds the prediction and commits the result.
func (sd *sliceDecoder) motionPartition(syn mbSyntax, list, x4, y4, w4, h4 int, ref int8) {
	mdx := syn.mvd(0, sd.st.amvd(list, 0, x4, y4, sd.sliceID))
	mdy := syn.mvd(1, sd.st.amvd(list, 1, x4, y4, sd.sliceID))
	px, py := sd.st.predictMV(list, x4, y4, w4, h4, ref, sd.sliceID)
	sd.st.setMotion(list, x4, y4, w4, h4, px+mdx, py+mdy, ref)
	sd.st.setMVD(list, x4, y4, w4, h4, mdx, mdy)
}

func (sd *sliceDecoder) decodePMB(syn mbSyntax, t int) error {
	if t >= 5 {
		return sd.decodeIntraMB(syn, t-5)
	}
	idx := sd.st.mbIdx(sd.mbX, sd.mbY)
	sd.st.class[idx] = mbInter
	x4, y4 := sd.mbX*4, sd.mbY*4
	maxL0 := int(sd.hdr.NumRefIdxL0) - 1
	allow8x8 := true

	switch t {
	case 0: // P_L0_16x16
		ref := sd.readRefIdx(syn, 0, x4, y4, 4, 4, maxL0)
		sd.motionPartition(syn, 0, x4, y4, 4, 4, ref)
		sd.applyInter(x4, y4, 4, 4)
	case 1: // P_L0_L0_16x8
		r0 := sd.readRefIdx(syn, 0, x4, y4, 4, 2, maxL0)
		r1 := sd.readRefIdx(syn, 0, x4, y4+2, 4, 2, maxL0)
		sd.motionPartition(syn, 0, x4, y4, 4, 2, r0)
		sd.applyInter(x4, y4, 4, 2)
		sd.motionPartition(syn, 0, x4, y4+2, 4, 2, r1)
		sd.applyInter(x4, y4+2, 4, 2)
	case 2: // P_L0_L0_8x16
		r0 := sd.readRefIdx(syn, 0, x4, y4, 2, 4, maxL0)
		r1 := sd.readRefIdx(syn, 0, x4+2, y4, 2, 4, maxL0)
		sd.motionPartition(syn, 0, x4, y4, 2, 4, r0)
		sd.applyInter(x4, y4, 2, 4)
		sd.motionPartition(syn, 0, x4+2, y4, 2, 4, r1)
		sd.applyInter(x4+2, y4, 2, 4)
	default: // P_8x8 and P_8x8ref0
		var subs [4]int
		for i := range subs {
			subs[i] = syn.subMBTypeP()
			if subs[i] != 0 {
				allow8x8 = false
			}
		}
		var refs [4]int8
		for i := range subs {
			sx, sy := x4+(i%2)*2, y4+(i/2)*2
			if t == 3 {
				refs[i] = sd.readRefIdx(syn, 0, sx, sy, 2, 2, maxL0)
			} else {
				sd.st.setMotion(0, sx, sy, 2, 2, 0, 0, 0)
			}
		}
		for i, sub := range subs {
			sx, sy := x4+(i%2)*2, y4+(i/2)*2
			info := pSubMBInfo[sub]
			w4, h4 := info.w/4, info.h/4
			for p := 0; p < info.count; p++ {
				ox, oy := subPartOffset(info.w, info.h, p)
				sd.motionPartition(syn, 0, sx+ox, sy+oy, w4, h4, refs[i])
				sd.applyInter(sx+ox, sy+oy, w4, h4)
			}
		}
	}
	if err := syn.err(); err != nil {
		return err
	}
	return sd.interResidual(syn, idx, allow8x8)
}

// subPartOffset returns the cell offset of sub-partition p within an
// 8x8 sub-block of size w x h pixels per partition.
func subPartOffset(w, h, p int) (ox, oy int) {
	switch {
	case w == 8 && h == 8:
		return 0, 0
	case w == 8:
		return 0, p
	case h == 8:
		return p, 0
	default:
		return p % 2, p / 2
	}
}

func (sd *sliceDecoder) decodeBMB(syn mbSyntax, t int) error {
	if t >= 23 {
		return sd.decodeIntraMB(syn, t-23)
	}
	idx := sd.st.mbIdx(sd.mbX, sd.mbY)
	x4, y4 := sd.mbX*4, sd.mbY*4

	if t == 0 { // B_Direct_16x16
		sd.st.class[idx] = mbDirect16
		sd.directMB()
		return sd.interResidual(syn, idx, sd.sps.Direct8x8Inference)
	}

	sd.st.class[idx] = mbInter
	maxIdx := [2]int{int(sd.hdr.NumRefIdxL0) - 1, int(sd.hdr.NumRefIdxL1) - 1}
	allow8x8 := true

	if t == 22 { // B_8x8
		var subs [4]int
		anyDirect := false
		for i := range subs {
			subs[i] = syn.subMBTypeB()
			info := bSubMBInfo[subs[i]]
			if subs[i] == 0 {
				anyDirect = true
				if !sd.sps.Direct8x8Inference {
					allow8x8 = false
				}
			} else if info.count != 1 {
				allow8x8 = false
			}
		}
		if anyDirect {
			dm := sd.deriveDirect()
			for i, sub := range subs {
				if sub == 0 {
					sd.commitDirect(x4+(i%2)*2, y4+(i/2)*2, 2, 2, dm)
				}
			}
		}
		var refs [2][4]int8
		for list := 0; list < 2; list++ {
			for i, sub := range subs {
				if sub != 0 && bSubMBInfo[sub].dir&(1<<uint(list)) != 0 {
					refs[list][i] = sd.readRefIdx(syn, list, x4+(i%2)*2, y4+(i/2)*2, 2, 2, maxIdx[list])
				}
			}
		}
		for list := 0; list < 2; list++ {
			for i, sub := range subs {
				if sub == 0 || bSubMBInfo[sub].dir&(1<<uint(list)) == 0 {
					continue
				}
				sx, sy := x4+(i%2)*2, y4+(i/2)*2
				info := bSubMBInfo[sub]
				w4, h4 := info.w/4, info.h/4
				for p := 0; p < info.count; p++ {
					ox, oy := subPartOffset(info.w, info.h, p)
					sd.motionPartition(syn, list, sx+ox, sy+oy, w4, h4, refs[list][i])
				}
			}
		}
		for i, sub := range subs {
			sx, sy := x4+(i%2)*2, y4+(i/2)*2
			if sub == 0 {
				sd.applyInter(sx, sy, 2, 2)
				continue
			}
			info := bSubMBInfo[sub]
			w4, h4 := info.w/4, info.h/4
			for p := 0; p < info.count; p++ {
				ox, oy := subPartOffset(info.w, info.h, p)
				sd.applyInter(sx+ox, sy+oy, w4, h4)
			}
		}
	} else {
		info := bMBPartInfo[t]
		type partGeom struct{ x4, y4, w4, h4 int }
		var parts [2]partGeom
		if info.parts == 1 {
			parts[0] = partGeom{x4, y4, 4, 4}
		} else if info.wide {
			parts[0] = partGeom{x4, y4, 4, 2}
			parts[1] = partGeom{x4, y4 + 2, 4, 2}
		} else {
			parts[0] = partGeom{x4, y4, 2, 4}
			parts[1] = partGeom{x4 + 2, y4, 2, 4}
		}
		var refs [2][2]int8
		for list := 0; list < 2; list++ {
			for p := 0; p < info.parts; p++ {
				if info.dir[p]&(1<<uint(list)) != 0 {
					g := parts[p]
					refs[list][p] = sd.readRefIdx(syn, list, g.x4, g.y4, g.w4, g.h4, maxIdx[list])
				}
			}
		}
		for list := 0; list < 2; list++ {
			for p := 0; p < info.parts; p++ {
				if info.dir[p]&(1<<uint(list)) != 0 {
					g := parts[p]
					sd.motionPartition(syn, list, g.x4, g.y4, g.w4, g.h4, refs[list][p])
				}
			}
		}
		for p := 0; p < info.parts; p++ {
			g := parts[p]
			sd.applyInter(g.x4, g.y4, g.w4, g.h4)
		}
	}
	if err := syn.err(); err != nil {
		return err
	}
	return sd.interResidual(syn, idx, allow8x8)
}

// interResidual decodes coded_block_pattern and the residual of a
// non-intra macroblock.
func (sd *sliceDecoder) interResidual(syn mbSyntax, idx int, allow8x8 bool) error {
	cbp := syn.codedBlockPattern(false,
		sd.st.neighborCBP(sd.mbX-1, sd.mbY, sd.sliceID),
		sd.st.neighborCBP(sd.mbX, sd.mbY-1, sd.sliceID))
	sd.st.cbp[idx] = cbp
	if err := syn.err(); err != nil {
		return err
	}
	if cbp == 0 {
		return nil
	}

	transform8 := false
	if cbp&0x0f != 0 && sd.pps.Transform8x8Mode && allow8x8 {
		transform8 = syn.transformSize8(sd.st.ctxIncTransform8(sd.mbX, sd.mbY, sd.sliceID))
		sd.st.transform8[idx] = transform8
	}
	sd.applyQPDelta(syn, idx)

	if transform8 {
		weight := activeScaling8x8(sd.sps, sd.pps, false)
		for q := 0; q < 4; q++ {
			if cbp&(1<<uint(q)) != 0 {
				sd.luma8x8Block(syn, q, weight, false)
			}
		}
	} else {
		weight := activeScaling4x4(sd.sps, sd.pps, false, 0)
		for b := 0; b < 16; b++ {
			if cbp&(1<<uint(b/4)) != 0 {
				sd.luma4x4Block(syn, b, weight, false)
			}
		}
	}
	return sd.chromaResidual(syn, idx, cbp>>4, false)
}

// B direct.

func (sd *sliceDecoder) colocated() colocatedMB {
	if len(sd.refs[1]) == 0 {
		return colocatedMB{ref: -1}
	}
	r := sd.refs[1][0]
	return colocatedAt(r.pic, sd.mbX, sd.mbY, !r.longTerm)
}

func (sd *sliceDecoder) deriveDirect() directMotion {
	if len(sd.refs[0]) == 0 || len(sd.refs[1]) == 0 {
		return directMotion{predL0: true, predL1: true}
	}
	col := sd.colocated()
	if sd.hdr.DirectSpatialMVPred {
		return sd.st.spatialDirectMotion(sd.mbX, sd.mbY, sd.sliceID, col)
	}
	return temporalDirectMotion(sd.cur.POC, sd.l0Meta, sd.refs[1][0].pic.POC, col)
}

func (sd *sliceDecoder) commitDirect(x4, y4, w4, h4 int, dm directMotion) {
	if dm.predL0 {
		sd.st.setMotion(0, x4, y4, w4, h4, dm.mvL0x, dm.mvL0y, dm.refL0)
	}
	if dm.predL1 {
		sd.st.setMotion(1, x4, y4, w4, h4, dm.mvL1x, dm.mvL1y, dm.refL1)
	}
	sd.st.setDirect(x4, y4, w4, h4, 1)
}

func (sd *sliceDecoder) directMB() {
	dm := sd.deriveDirect()
	x4, y4 := sd.mbX*4, sd.mbY*4
	sd.commitDirect(x4, y4, 4, 4, dm)
	sd.applyInter(x4, y4, 4, 4)
}

// Motion compensation and weighting.

// applyInter motion-compensates the partition at cell (x4, y4) from
// the committed grids.
func (sd *sliceDecoder) applyInter(x4, y4, w4, h4 int) {
	i := y4*sd.st.mbW*4 + x4
	ref0 := sd.st.refIdx[0][i]
	ref1 := sd.st.refIdx[1][i]
	if int(ref0) >= len(sd.refs[0]) {
		ref0 = -1
	}
	if int(ref1) >= len(sd.refs[1]) {
		ref1 = -1
	}
	px, py := x4*4, y4*4
	w, h := w4*4, h4*4

	switch {
	case ref0 >= 0 && ref1 >= 0:
		r0, r1 := sd.refs[0][ref0], sd.refs[1][ref1]
		cw, ch := predictInter(&sd.pred0, r0.pic, px, py, w, h,
			int(sd.st.mvX[0][i]), int(sd.st.mvY[0][i]), sd.chroma420)
		predictInter(&sd.pred1, r1.pic, px, py, w, h,
			int(sd.st.mvX[1][i]), int(sd.st.mvY[1][i]), sd.chroma420)
		sd.storeBi(px, py, w, h, cw, ch, int(ref0), int(ref1), r0, r1)
	case ref0 >= 0:
		r0 := sd.refs[0][ref0]
		cw, ch := predictInter(&sd.pred0, r0.pic, px, py, w, h,
			int(sd.st.mvX[0][i]), int(sd.st.mvY[0][i]), sd.chroma420)
		sd.storeUni(0, px, py, w, h, cw, ch, int(ref0))
	case ref1 >= 0:
		r1 := sd.refs[1][ref1]
		cw, ch := predictInter(&sd.pred0, r1.pic, px, py, w, h,
			int(sd.st.mvX[1][i]), int(sd.st.mvY[1][i]), sd.chroma420)
		sd.storeUni(1, px, py, w, h, cw, ch, int(ref1))
	}
}

func (sd *sliceDecoder) chromaOrigin(px, py int) (int, int) {
	if sd.chroma420 {
		return px / 2, py / 2
	}
	return px / 2, py
}

func (sd *sliceDecoder) explicitWeighted() bool {
	if sd.hdr.Type == SliceTypeP {
		return sd.pps.WeightedPred
	}
	return sd.hdr.Type == SliceTypeB && sd.pps.WeightedBipredIDC == 1
}

func (sd *sliceDecoder) weightEntry(list, ref int) *PredWeight {
	tab := sd.hdr.WeightsL0
	if list == 1 {
		tab = sd.hdr.WeightsL1
	}
	if ref < len(tab) {
		return &tab[ref]
	}
	return nil
}

// storeUni commits a single-list prediction held in pred0.
func (sd *sliceDecoder) storeUni(list, px, py, w, h, cw, ch, ref int) {
	cx, cy := sd.chromaOrigin(px, py)
	var wt *PredWeight
	if sd.explicitWeighted() {
		wt = sd.weightEntry(list, ref)
	}
	if wt == nil {
		copyBlockToPlane(sd.cur.Y, sd.cur.StrideY, px, py, sd.pred0.y[:], w, w, h)
		copyBlockToPlane(sd.cur.Cb, sd.cur.StrideC, cx, cy, sd.pred0.cb[:], cw, cw, ch)
		copyBlockToPlane(sd.cur.Cr, sd.cur.StrideC, cx, cy, sd.pred0.cr[:], cw, cw, ch)
		return
	}
	ld := int(sd.hdr.LumaLog2WeightDenom)
	cd := int(sd.hdr.ChromaLog2WeightDenom)
	weightBlockToPlane(sd.cur.Y, sd.cur.StrideY, px, py, sd.pred0.y[:], w, w, h,
		int(wt.LumaWeight), int(wt.LumaOffset), ld)
	weightBlockToPlane(sd.cur.Cb, sd.cur.StrideC, cx, cy, sd.pred0.cb[:], cw, cw, ch,
		int(wt.ChromaWeight[0]), int(wt.ChromaOffset[0]), cd)
	weightBlockToPlane(sd.cur.Cr, sd.cur.StrideC, cx, cy, sd.pred0.cr[:], cw, cw, ch,
		int(wt.ChromaWeight[1]), int(wt.ChromaOffset[1]), cd)
}

// storeBi combines the two list predictions held in pred0 and pred1.
func (sd *sliceDecoder) storeBi(px, py, w, h, cw, ch, ref0, ref1 int, r0, r1 refPicture) {
	cx, cy := sd.chromaOrigin(px, py)
	switch {
	case sd.pps.WeightedBipredIDC == 1:
		w0, w1 := sd.weightEntry(0, ref0), sd.weightEntry(1, ref1)
		if w0 == nil || w1 == nil {
			break
		}
		ld := int(sd.hdr.LumaLog2WeightDenom)
		cd := int(sd.hdr.ChromaLog2WeightDenom)
		biWeightToPlane(sd.cur.Y, sd.cur.StrideY, px, py, sd.pred0.y[:], sd.pred1.y[:], w, w, h,
			int(w0.LumaWeight), int(w1.LumaWeight), int(w0.LumaOffset), int(w1.LumaOffset), ld)
		biWeightToPlane(sd.cur.Cb, sd.cur.StrideC, cx, cy, sd.pred0.cb[:], sd.pred1.cb[:], cw, cw, ch,
			int(w0.ChromaWeight[0]), int(w1.ChromaWeight[0]), int(w0.ChromaOffset[0]), int(w1.ChromaOffset[0]), cd)
		biWeightToPlane(sd.cur.Cr, sd.cur.StrideC, cx, cy, sd.pred0.cr[:], sd.pred1.cr[:], cw, cw, ch,
			int(w0.ChromaWeight[1]), int(w1.ChromaWeight[1]), int(w0.ChromaOffset[1]), int(w1.ChromaOffset[1]), cd)
		return
	case sd.pps.WeightedBipredIDC == 2:
		iw0, iw1 := implicitWeights(sd.cur.POC, r0.pic.POC, r1.pic.POC, r0.longTerm, r1.longTerm)
		biWeightToPlane(sd.cur.Y, sd.cur.StrideY, px, py, sd.pred0.y[:], sd.pred1.y[:], w, w, h,
			iw0, iw1, 0, 0, 5)
		biWeightToPlane(sd.cur.Cb, sd.cur.StrideC, cx, cy, sd.pred0.cb[:], sd.pred1.cb[:], cw, cw, ch,
			iw0, iw1, 0, 0, 5)
		biWeightToPlane(sd.cur.Cr, sd.cur.StrideC, cx, cy, sd.pred0.cr[:], sd.pred1.cr[:], cw, cw, ch,
			iw0, iw1, 0, 0, 5)
		return
	}
	biAverageToPlane(sd.cur.Y, sd.cur.StrideY, px, py, sd.pred0.y[:], sd.pred1.y[:], w, w, h)
	biAverageToPlane(sd.cur.Cb, sd.cur.StrideC, cx, cy, sd.pred0.cb[:], sd.pred1.cb[:], cw, cw, ch)
	biAverageToPlane(sd.cur.Cr, sd.cur.StrideC, cx, cy, sd.pred0.cr[:], sd.pred1.cr[:], cw, cw, ch)
}
