package avc

// pocState tracks the picture order count baselines carried between
// pictures (Rec. ITU-T H.264, 8.2.1). One instance lives in the
// Decoder; IDR pictures and mmco 5 reset it.
type pocState struct {
	prevRefPOCMsb      int32
	prevRefPOCLsb      int32
	prevFrameNumOffset [2]int32 // poc types 1 and 2 keep separate baselines
}

func (p *pocState) reset() {
	*p = pocState{}
}

// compute derives the picture order count of the picture the slice
// belongs to. prevFrameNum is the frame_num of the previous picture in
// decode order; it drives frame_num wrap detection for poc types 1
// and 2.
func (p *pocState) compute(h *SliceHeader, prevFrameNum uint32) int32 {
	sps := h.SPS
	if h.IDR {
		p.reset()
	}

	switch sps.POCType {
	case 0:
		maxPOCLsb := int32(1) << sps.Log2MaxPOCLsb
		pocLsb := int32(h.POCLsb)

		pocMsb := p.prevRefPOCMsb
		if !h.IDR {
			if pocLsb < p.prevRefPOCLsb && p.prevRefPOCLsb-pocLsb >= maxPOCLsb/2 {
				pocMsb += maxPOCLsb
			} else if pocLsb > p.prevRefPOCLsb && pocLsb-p.prevRefPOCLsb > maxPOCLsb/2 {
				pocMsb -= maxPOCLsb
			}
		}

		poc := pocMsb + pocLsb + h.DeltaPOCBottom
		if h.NalRefIdc != 0 {
			p.prevRefPOCMsb = pocMsb
			p.prevRefPOCLsb = pocLsb
		}
		return poc

	case 1:
		maxFrameNum := int32(1) << sps.Log2MaxFrameNum
		frameNum := int32(h.FrameNum)
		offset := int32(0)
		if !h.IDR {
			offset = p.prevFrameNumOffset[0]
			if int32(prevFrameNum) > frameNum {
				offset += maxFrameNum
			}
		}

		absFrameNum := int32(0)
		if sps.MaxNumRefFrames != 0 {
			absFrameNum = offset + frameNum
		}
		if h.NalRefIdc == 0 && absFrameNum > 0 {
			absFrameNum--
		}

		expectedPOC := int32(0)
		if absFrameNum > 0 && len(sps.OffsetForRefFrame) > 0 {
			cycleLen := int32(len(sps.OffsetForRefFrame))
			var deltaPerCycle int32
			for _, d := range sps.OffsetForRefFrame {
				deltaPerCycle += d
			}
			cycleCnt := (absFrameNum - 1) / cycleLen
			inCycle := (absFrameNum - 1) % cycleLen
			expectedPOC = cycleCnt * deltaPerCycle
			for i := int32(0); i <= inCycle; i++ {
				expectedPOC += sps.OffsetForRefFrame[i]
			}
		}
		if h.NalRefIdc == 0 {
			expectedPOC += sps.OffsetForNonRefPic
		}

		top := expectedPOC + h.DeltaPOC0
		bottom := top + sps.OffsetForTopToBottomField + h.DeltaPOC1
		if h.NalRefIdc != 0 {
			p.prevFrameNumOffset[0] = offset
		}
		return minInt32(top, bottom)

	case 2:
		maxFrameNum := int32(1) << sps.Log2MaxFrameNum
		frameNum := int32(h.FrameNum)
		offset := int32(0)
		if !h.IDR {
			offset = p.prevFrameNumOffset[1]
			if int32(prevFrameNum) > frameNum {
				offset += maxFrameNum
			}
		}

		poc := 2 * (offset + frameNum)
		if h.NalRefIdc == 0 {
			poc--
		}
		p.prevFrameNumOffset[1] = offset
		return poc

	default:
		return int32(h.FrameNum)
	}
}

func minInt32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
