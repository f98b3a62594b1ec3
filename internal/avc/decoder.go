package avc

import (
	"fmt"

	"go.uber.org/zap"
)

// Decoder drives the decoding core across access units: it owns the
// parameter-set stores, the picture being assembled, the reference
// buffer and the output reorder queue. NAL framing, SEI routing and
// error classification live in the public package; this type consumes
// already-unescaped RBSP payloads.
type Decoder struct {
	log        *zap.Logger
	maxW, maxH int

	spsStore map[uint32]*SPS
	ppsStore map[uint32]*PPS

	activeSPS    *SPS
	reorderDepth int
	dpbCap       int

	poc             pocState
	prevFrameNum    uint32
	prevRefFrameNum int

	refs    *dpb
	reorder reorderQueue

	// picture under assembly
	cur    *Picture
	curHdr *SliceHeader
	st     *mbState
	params []deblockParams

	// completed pictures in output order, handed over by EndAU
	pending []*Picture

	// opaque SEI messages waiting for the next picture to start
	pendingSEI []any

	// recovery point countdown, <0 when idle
	recovery int32

	concealedMBs  uint64
	missingRefs   uint64
	concealEvents uint64
}

// NewDecoder returns a driver logging to log. maxW/maxH bound the
// picture geometry any SPS may declare; zero disables the bound.
func NewDecoder(log *zap.Logger, maxW, maxH int) *Decoder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Decoder{
		log:      log,
		maxW:     maxW,
		maxH:     maxH,
		spsStore: make(map[uint32]*SPS),
		ppsStore: make(map[uint32]*PPS),
		recovery: -1,
	}
}

// Reset returns the driver to its post-construction state. Statistics
// counters survive.
func (d *Decoder) Reset() {
	d.spsStore = make(map[uint32]*SPS)
	d.ppsStore = make(map[uint32]*PPS)
	d.activeSPS = nil
	d.poc.reset()
	d.prevFrameNum = 0
	d.prevRefFrameNum = 0
	d.refs = nil
	d.reorder = reorderQueue{}
	d.cur = nil
	d.curHdr = nil
	d.st = nil
	d.params = nil
	d.pending = nil
	d.pendingSEI = nil
	d.recovery = -1
}

// ConcealedMacroblocks counts macroblocks filled in by error
// concealment since construction.
func (d *Decoder) ConcealedMacroblocks() uint64 { return d.concealedMBs }

// MissingReferenceFallbacks counts reference list entries that had to
// be fabricated: padded lists, unresolvable modification ops and
// frame_num gap insertions.
func (d *Decoder) MissingReferenceFallbacks() uint64 { return d.missingRefs }

func (d *Decoder) lookupSPS(id uint32) *SPS { return d.spsStore[id] }
func (d *Decoder) lookupPPS(id uint32) *PPS { return d.ppsStore[id] }

// throttleOK limits repeating diagnostics: the first few occurrences
// log, then one in every 64.
func throttleOK(n uint64) bool { return n < 8 || n%64 == 0 }

// AddSPS parses and registers a sequence parameter set. An
// unsupported set is rejected without disturbing the stored or
// active one.
func (d *Decoder) AddSPS(rbsp []byte) error {
	sps, err := ParseSPS(rbsp)
	if err != nil {
		return err
	}
	if err := d.checkSupported(sps); err != nil {
		return err
	}
	if act := d.activeSPS; act != nil && act.ID == sps.ID && sequenceChanged(act, sps) {
		// The stream redefined the active sequence: drain output and
		// drop references before the new geometry takes over.
		d.pending = append(d.pending, d.reorder.flush()...)
		d.poc.reset()
		d.prevFrameNum = 0
		d.prevRefFrameNum = 0
		d.refs = nil
		d.activeSPS = nil
		d.log.Debug("sps redefined, full reset",
			zap.Uint32("id", sps.ID),
			zap.Int("width", sps.Width),
			zap.Int("height", sps.Height))
	}
	d.spsStore[sps.ID] = sps
	return nil
}

// AddPPS parses and registers a picture parameter set, classifying
// re-registration of a known id per ClassifyPPSChange.
func (d *Decoder) AddPPS(rbsp []byte) error {
	pps, err := ParsePPS(rbsp, d.lookupSPS)
	if err != nil {
		return err
	}
	if old := d.ppsStore[pps.ID]; old != nil {
		switch ClassifyPPSChange(old, pps) {
		case PPSChangeFull:
			d.pending = append(d.pending, d.reorder.flush()...)
			if d.refs != nil {
				d.refs.reset()
			}
			d.poc.reset()
			d.prevFrameNum = 0
			d.prevRefFrameNum = 0
			d.log.Debug("pps redefined, references dropped", zap.Uint32("id", pps.ID))
		case PPSChangeRuntime:
			// Per-macroblock state is rebuilt each picture; nothing
			// beyond storing the new set.
			d.log.Debug("pps runtime fields changed", zap.Uint32("id", pps.ID))
		}
	}
	d.ppsStore[pps.ID] = pps
	return nil
}

// SignalRecoveryPoint arms the recovery-point countdown from an SEI
// message: the picture reached after cnt more frames is marked as a
// keyframe.
func (d *Decoder) SignalRecoveryPoint(cnt uint32) {
	if d.recovery < 0 || int32(cnt) < d.recovery {
		d.recovery = int32(cnt)
	}
}

// AttachSEI queues caller metadata for the next picture to start.
// The messages come back on Picture.SEI when that picture outputs.
func (d *Decoder) AttachSEI(msgs []any) {
	d.pendingSEI = append(d.pendingSEI, msgs...)
}

// checkSupported rejects sequences whose tools are outside the
// reconstruction path. Partial support would corrupt every later
// picture silently, so these are fatal rather than concealable.
func (d *Decoder) checkSupported(sps *SPS) error {
	if sps.ChromaFormatIDC != 1 && sps.ChromaFormatIDC != 2 {
		return fmt.Errorf("%w: chroma_format_idc %d", ErrUnsupported, sps.ChromaFormatIDC)
	}
	if sps.BitDepthLuma != 8 || sps.BitDepthChroma != 8 {
		return fmt.Errorf("%w: bit depth %d/%d", ErrUnsupported, sps.BitDepthLuma, sps.BitDepthChroma)
	}
	if !sps.FrameMbsOnly {
		return fmt.Errorf("%w: interlaced coding", ErrUnsupported)
	}
	if d.maxW > 0 && (sps.Width > d.maxW || sps.Height > d.maxH) {
		return fmt.Errorf("%w: %dx%d exceeds configured limit %dx%d",
			ErrUnsupported, sps.Width, sps.Height, d.maxW, d.maxH)
	}
	return nil
}

// sequenceChanged reports whether a re-parsed SPS needs a full
// rebuild. VUI and timing differences are runtime compatible.
func sequenceChanged(a, b *SPS) bool {
	return a.Width != b.Width ||
		a.Height != b.Height ||
		a.PicWidthInMbs != b.PicWidthInMbs ||
		a.PicHeightInMapUnits != b.PicHeightInMapUnits ||
		a.ChromaFormatIDC != b.ChromaFormatIDC ||
		a.POCType != b.POCType ||
		a.Log2MaxFrameNum != b.Log2MaxFrameNum ||
		a.Log2MaxPOCLsb != b.Log2MaxPOCLsb ||
		a.MaxNumRefFrames != b.MaxNumRefFrames
}

// activate makes sps the active sequence, resetting reference and
// ordering state when the geometry or numbering scheme changed.
func (d *Decoder) activate(sps *SPS) error {
	if err := d.checkSupported(sps); err != nil {
		return err
	}
	if d.activeSPS == sps && d.refs != nil {
		return nil
	}
	if d.activeSPS == nil || sequenceChanged(d.activeSPS, sps) {
		d.pending = append(d.pending, d.reorder.flush()...)
		d.poc.reset()
		d.prevFrameNum = 0
		d.prevRefFrameNum = 0
		d.refs = newDPB(sps)
	} else if d.refs == nil {
		d.refs = newDPB(sps)
	}
	d.activeSPS = sps

	depth := int(sps.MaxNumRefFrames) - 1
	if depth < 0 {
		depth = 0
	}
	if sps.MaxNumReorderFrames >= 0 && int(sps.MaxNumReorderFrames) < depth {
		depth = int(sps.MaxNumReorderFrames)
	}
	d.reorderDepth = depth
	d.dpbCap = int(levelMaxDpbFrames(sps))
	d.log.Debug("sps activated",
		zap.Uint32("id", sps.ID),
		zap.Int("width", sps.Width),
		zap.Int("height", sps.Height),
		zap.Int("reorder_depth", depth))
	return nil
}

// newPictureBoundary reports whether hdr starts a picture other than
// the one being assembled (7.4.1.2.4, frame subset).
func (d *Decoder) newPictureBoundary(hdr *SliceHeader) bool {
	prev := d.curHdr
	if hdr.FirstMB == 0 {
		return true
	}
	if hdr.FrameNum != prev.FrameNum || hdr.PPSID != prev.PPSID || hdr.IDR != prev.IDR {
		return true
	}
	if hdr.IDR && hdr.IdrPicID != prev.IdrPicID {
		return true
	}
	if hdr.SPS.POCType == 0 && hdr.POCLsb != prev.POCLsb {
		return true
	}
	return false
}

// DecodeSlice decodes one VCL NAL. Recoverable slice damage is
// reported but leaves the picture open so later slices and
// concealment can still complete it.
func (d *Decoder) DecodeSlice(refIdc uint8, idr bool, rbsp []byte) error {
	hdr, err := ParseSliceHeader(rbsp, refIdc, idr, d.lookupPPS, d.lookupSPS)
	if err != nil {
		return err
	}
	if hdr.PPS.NumSliceGroups > 1 {
		return fmt.Errorf("%w: %d slice groups", ErrUnsupported, hdr.PPS.NumSliceGroups)
	}
	if hdr.PPS.ConstrainedIntraPred {
		return fmt.Errorf("%w: constrained_intra_pred", ErrUnsupported)
	}
	if hdr.RedundantPicCnt > 0 {
		d.log.Debug("redundant slice skipped", zap.Uint32("cnt", hdr.RedundantPicCnt))
		return nil
	}

	if d.cur != nil && d.newPictureBoundary(hdr) {
		d.finishPicture()
	}
	if d.cur == nil {
		if err := d.startPicture(hdr); err != nil {
			return err
		}
	}

	lists, missing := d.refs.buildLists(hdr, d.cur.POC)
	if missing > 0 {
		d.missingRefs += uint64(missing)
		if throttleOK(d.missingRefs) {
			d.log.Warn("missing reference pictures",
				zap.Int("fabricated", missing),
				zap.Int32("poc", d.cur.POC))
		}
	}

	sliceID := int32(len(d.params))
	d.params = append(d.params, deblockParams{
		disable:  hdr.DisableDeblocking,
		alphaOff: int(hdr.AlphaC0OffsetDiv2) * 2,
		betaOff:  int(hdr.BetaOffsetDiv2) * 2,
		cbOff:    hdr.PPS.ChromaQPIndexOffset,
		crOff:    hdr.PPS.SecondChromaQPIndexOffset,
		refs:     lists,
	})

	sd := newSliceDecoder(hdr, d.cur, d.st, lists, sliceID)
	return sd.run(rbsp)
}

// startPicture allocates the assembly state for the picture hdr
// begins: activation, IDR housekeeping, frame_num gap repair and POC
// derivation.
func (d *Decoder) startPicture(hdr *SliceHeader) error {
	sps := hdr.SPS
	if err := d.activate(sps); err != nil {
		return err
	}

	if hdr.IDR {
		if hdr.Marking.NoOutputOfPriorPics {
			d.reorder.drop()
		} else {
			d.pending = append(d.pending, d.reorder.flush()...)
		}
		d.refs.reset()
	} else if frameNum := int(hdr.FrameNum); frameNum != d.prevRefFrameNum {
		if n := d.refs.fillGaps(sps, d.prevRefFrameNum, frameNum); n > 0 {
			d.missingRefs += uint64(n)
			if throttleOK(d.missingRefs) {
				d.log.Warn("frame_num gap filled",
					zap.Int("inserted", n),
					zap.Int("frame_num", frameNum))
			}
		}
	}

	poc := d.poc.compute(hdr, d.prevFrameNum)

	mbW := int(sps.PicWidthInMbs)
	mbH := int(sps.PicHeightInMapUnits)
	chroma422 := sps.ChromaFormatIDC == 2
	d.cur = newPicture(sps)
	d.cur.FrameNum = int(hdr.FrameNum)
	d.cur.POC = poc
	d.cur.Type = hdr.Type
	d.cur.IDR = hdr.IDR
	d.cur.Keyframe = hdr.IDR
	d.cur.SEI = d.pendingSEI
	d.pendingSEI = nil
	if d.st != nil && d.st.mbW == mbW && d.st.mbH == mbH && (d.st.cbH4 == 4) == chroma422 {
		d.st.reset()
	} else {
		d.st = newMBState(mbW, mbH, chroma422)
	}
	d.params = d.params[:0]
	d.curHdr = hdr
	return nil
}

// EndAU closes the access unit: the assembled picture is concealed,
// filtered, stored and queued, and every picture ready for output is
// returned in display order.
func (d *Decoder) EndAU() []*Picture {
	d.finishPicture()
	out := d.pending
	d.pending = nil
	return out
}

// Flush drains the reorder queue without touching decode state.
func (d *Decoder) Flush() []*Picture {
	out := append(d.pending, d.reorder.flush()...)
	d.pending = nil
	return out
}

func (d *Decoder) finishPicture() {
	if d.cur == nil {
		return
	}
	pic, hdr := d.cur, d.curHdr

	if n := d.conceal(); n > 0 {
		d.concealedMBs += uint64(n)
		d.concealEvents++
		if throttleOK(d.concealEvents) {
			d.log.Warn("concealed macroblocks",
				zap.Int("count", n),
				zap.Int32("poc", pic.POC))
		}
	}

	deblockPicture(pic, d.st, d.params, hdr.SPS.ChromaFormatIDC == 1)
	d.storeColocated()

	if hdr.NalRefIdc > 0 || hdr.IDR {
		if d.refs.mark(pic, hdr) {
			// mmco 5 rebases the stream: the marked picture already
			// carries frame_num 0 and poc 0.
			d.poc.reset()
		}
		d.prevRefFrameNum = pic.FrameNum
	}
	d.prevFrameNum = uint32(pic.FrameNum)

	if d.recovery >= 0 {
		if d.recovery == 0 {
			pic.Keyframe = true
			d.log.Debug("recovery point reached", zap.Int32("poc", pic.POC))
		}
		d.recovery--
	}

	d.reorder.push(pic)
	bound := minInt(d.reorderDepth, d.dpbCap-len(d.refs.refs))
	d.pending = append(d.pending, d.reorder.emitReady(bound)...)

	d.cur = nil
	d.curHdr = nil
}

// conceal claims every macroblock no slice reached: inter pictures
// copy the co-located block of the first list-0 reference, intra
// pictures keep the mid-gray fill. Claimed blocks carry enough state
// for the deblocking and co-located stages to treat them normally.
func (d *Decoder) conceal() int {
	st := d.st
	var refs [2][]refPicture
	if len(d.params) > 0 {
		refs = d.params[0].refs
	}
	var src *Picture
	if d.cur.Type != SliceTypeI && len(refs[0]) > 0 {
		src = refs[0][0].pic
	}
	concealID := int32(len(d.params))
	qp := int8(clip3(0, 51, int(d.curHdr.SliceQP)))

	n := 0
	for my := 0; my < st.mbH; my++ {
		for mx := 0; mx < st.mbW; mx++ {
			idx := st.mbIdx(mx, my)
			if st.class[idx] != mbUnset {
				continue
			}
			n++
			st.sliceID[idx] = concealID
			st.qp[idx] = qp
			if src == nil {
				st.class[idx] = mbIntra16
				continue
			}
			st.class[idx] = mbSkipP
			for cy := 0; cy < 4; cy++ {
				for cx := 0; cx < 4; cx++ {
					st.refIdx[0][(my*4+cy)*st.mbW*4+mx*4+cx] = 0
				}
			}
			d.copyMB(src, mx, my)
		}
	}
	if n > 0 {
		d.params = append(d.params, deblockParams{
			disable: 1,
			cbOff:   d.curHdr.PPS.ChromaQPIndexOffset,
			crOff:   d.curHdr.PPS.SecondChromaQPIndexOffset,
			refs:    refs,
		})
	}
	return n
}

// copyMB transplants one macroblock of all three planes from src.
func (d *Decoder) copyMB(src *Picture, mx, my int) {
	dst := d.cur
	ch := 8
	if d.curHdr.SPS.ChromaFormatIDC == 2 {
		ch = 16
	}
	copyPlaneRect(dst.Y, src.Y, dst.StrideY, mx*16, my*16, 16, 16)
	copyPlaneRect(dst.Cb, src.Cb, dst.StrideC, mx*8, my*ch, 8, ch)
	copyPlaneRect(dst.Cr, src.Cr, dst.StrideC, mx*8, my*ch, 8, ch)
}

func copyPlaneRect(dst, src []uint8, stride, x0, y0, w, h int) {
	for y := 0; y < h; y++ {
		off := (y0+y)*stride + x0
		copy(dst[off:off+w], src[off:off+w])
	}
}

// storeColocated records each macroblock's corner-cell motion on the
// finished picture for temporal direct prediction from later B
// slices, preferring list 0.
func (d *Decoder) storeColocated() {
	st := d.st
	pic := d.cur
	for my := 0; my < st.mbH; my++ {
		for mx := 0; mx < st.mbW; mx++ {
			idx := st.mbIdx(mx, my)
			sid := st.sliceID[idx]
			if sid < 0 || int(sid) >= len(d.params) || st.class[idx].intra() {
				continue
			}
			cell := (my * 4 * st.mbW * 4) + mx*4
			for l := 0; l < 2; l++ {
				r := st.refIdx[l][cell]
				if r < 0 || int(r) >= len(d.params[sid].refs[l]) {
					continue
				}
				pic.colMVx[idx] = st.mvX[l][cell]
				pic.colMVy[idx] = st.mvY[l][cell]
				pic.colRef[idx] = r
				pic.colPOC[idx] = d.params[sid].refs[l][r].pic.POC
				break
			}
		}
	}
}
