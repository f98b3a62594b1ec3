package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/bits"
)

// SliceType is the slice_type % 5 family of a slice.
type SliceType int

// Slice families. SP and SI are parsed only far enough to be
// rejected as unsupported.
const (
	SliceTypeP SliceType = 0
	SliceTypeB SliceType = 1
	SliceTypeI SliceType = 2
)

// String returns "P", "B" or "I".
func (t SliceType) String() string {
	switch t {
	case SliceTypeP:
		return "P"
	case SliceTypeB:
		return "B"
	case SliceTypeI:
		return "I"
	default:
		return fmt.Sprintf("slice(%d)", int(t))
	}
}

// Reference list modification ops (Table 7-7).
const (
	refModShortSub = 0 // abs_diff_pic_num subtracted
	refModShortAdd = 1 // abs_diff_pic_num added
	refModLongTerm = 2 // long_term_pic_num
)

// RefListMod is one ref_pic_list_modification operation.
type RefListMod struct {
	Op             uint32
	AbsDiffPicNum  uint32 // ops 0 and 1, already +1
	LongTermPicNum uint32 // op 2
}

// PredWeight is one explicit weighted-prediction entry.
type PredWeight struct {
	LumaWeight   int32
	LumaOffset   int32
	ChromaWeight [2]int32
	ChromaOffset [2]int32
}

// MMCO is one memory_management_control_operation (Table 7-9).
type MMCO struct {
	Op                  uint32
	DiffOfPicNums       uint32 // ops 1, 3: difference_of_pic_nums_minus1 + 1
	LongTermPicNum      uint32 // op 2
	LongTermFrameIdx    uint32 // ops 3, 6
	MaxLongTermFrameIdx int32  // op 4: plus1 - 1, -1 disables long term
}

// DecRefPicMarking is the parsed dec_ref_pic_marking syntax.
type DecRefPicMarking struct {
	// IDR fields.
	NoOutputOfPriorPics   bool
	LongTermReferenceFlag bool
	// Non-IDR fields.
	Adaptive bool
	Ops      []MMCO
}

// SliceHeader is a parsed slice_header plus the parameter sets it
// resolved to. Transient: one per slice.
type SliceHeader struct {
	SPS *SPS
	PPS *PPS

	FirstMB   uint32
	Type      SliceType
	PPSID     uint32
	FrameNum  uint32
	IdrPicID  uint32
	NalRefIdc uint8
	IDR       bool

	POCLsb         uint32 // POC type 0
	DeltaPOCBottom int32  // POC type 0 frame/field delta
	DeltaPOC0      int32  // POC type 1
	DeltaPOC1      int32  // POC type 1

	RedundantPicCnt     uint32
	DirectSpatialMVPred bool

	NumRefIdxL0  uint32
	NumRefIdxL1  uint32
	RefListModL0 []RefListMod
	RefListModL1 []RefListMod

	LumaLog2WeightDenom   uint32
	ChromaLog2WeightDenom uint32
	WeightsL0             []PredWeight
	WeightsL1             []PredWeight

	Marking DecRefPicMarking

	CABACInitIDC uint32
	SliceQP      int32

	DisableDeblocking uint32
	AlphaC0OffsetDiv2 int32
	BetaOffsetDiv2    int32

	// Entropy payload position within the RBSP.
	DataBitOffset  int
	CABACStartByte int
}

// ParseSliceHeader parses a slice_header RBSP prefix. refIdc and idr
// come from the NAL header; lookupPPS/lookupSPS resolve parameter
// sets by id and return nil for unknown ids.
func ParseSliceHeader(rbsp []byte, refIdc uint8, idr bool,
	lookupPPS func(uint32) *PPS, lookupSPS func(uint32) *SPS) (*SliceHeader, error) {

	r := bits.NewReader(rbsp)
	h := &SliceHeader{NalRefIdc: refIdc, IDR: idr}
	var err error

	if h.FirstMB, err = r.ReadUE(); err != nil {
		return nil, fmt.Errorf("%w: first_mb_in_slice", ErrMalformed)
	}
	rawType, err := r.ReadUE()
	if err != nil || rawType > 9 {
		return nil, fmt.Errorf("%w: slice_type", ErrMalformed)
	}
	switch SliceType(rawType % 5) {
	case SliceTypeP, SliceTypeB, SliceTypeI:
		h.Type = SliceType(rawType % 5)
	default:
		return nil, fmt.Errorf("%w: SP/SI slice", ErrUnsupported)
	}

	if h.PPSID, err = r.ReadUE(); err != nil || h.PPSID > 255 {
		return nil, fmt.Errorf("%w: pic_parameter_set_id", ErrMalformed)
	}
	h.PPS = lookupPPS(h.PPSID)
	if h.PPS == nil {
		return nil, fmt.Errorf("%w: pps %d", ErrNoParamSet, h.PPSID)
	}
	h.SPS = lookupSPS(h.PPS.SPSID)
	if h.SPS == nil {
		return nil, fmt.Errorf("%w: sps %d (via pps %d)", ErrNoParamSet, h.PPS.SPSID, h.PPSID)
	}
	sps, pps := h.SPS, h.PPS

	if sps.SeparateColourPlane {
		if _, err = r.ReadBits(2); err != nil { // colour_plane_id
			return nil, fmt.Errorf("%w: colour_plane_id", ErrMalformed)
		}
	}

	if h.FrameNum, err = r.ReadBits(uint(sps.Log2MaxFrameNum)); err != nil {
		return nil, fmt.Errorf("%w: frame_num", ErrMalformed)
	}

	if !sps.FrameMbsOnly {
		fieldPic, err := r.ReadFlag()
		if err != nil {
			return nil, fmt.Errorf("%w: field_pic_flag", ErrMalformed)
		}
		if fieldPic {
			return nil, fmt.Errorf("%w: field picture", ErrUnsupported)
		}
	}

	if idr {
		if h.IdrPicID, err = r.ReadUE(); err != nil || h.IdrPicID > 65535 {
			return nil, fmt.Errorf("%w: idr_pic_id", ErrMalformed)
		}
	}

	switch sps.POCType {
	case 0:
		if h.POCLsb, err = r.ReadBits(uint(sps.Log2MaxPOCLsb)); err != nil {
			return nil, fmt.Errorf("%w: pic_order_cnt_lsb", ErrMalformed)
		}
		if pps.PicOrderPresent {
			if h.DeltaPOCBottom, err = r.ReadSE(); err != nil {
				return nil, fmt.Errorf("%w: delta_pic_order_cnt_bottom", ErrMalformed)
			}
		}
	case 1:
		if !sps.DeltaPicOrderAlwaysZero {
			if h.DeltaPOC0, err = r.ReadSE(); err != nil {
				return nil, fmt.Errorf("%w: delta_pic_order_cnt[0]", ErrMalformed)
			}
			if pps.PicOrderPresent {
				if h.DeltaPOC1, err = r.ReadSE(); err != nil {
					return nil, fmt.Errorf("%w: delta_pic_order_cnt[1]", ErrMalformed)
				}
			}
		}
	}

	if pps.RedundantPicCntPresent {
		if h.RedundantPicCnt, err = r.ReadUE(); err != nil || h.RedundantPicCnt > 127 {
			return nil, fmt.Errorf("%w: redundant_pic_cnt", ErrMalformed)
		}
	}

	if h.Type == SliceTypeB {
		if h.DirectSpatialMVPred, err = r.ReadFlag(); err != nil {
			return nil, fmt.Errorf("%w: direct_spatial_mv_pred_flag", ErrMalformed)
		}
	}

	h.NumRefIdxL0 = pps.NumRefIdxL0Default
	h.NumRefIdxL1 = pps.NumRefIdxL1Default
	if h.Type == SliceTypeP || h.Type == SliceTypeB {
		override, err := r.ReadFlag()
		if err != nil {
			return nil, fmt.Errorf("%w: num_ref_idx_active_override_flag", ErrMalformed)
		}
		if override {
			v, err := r.ReadUE()
			if err != nil || v > 31 {
				return nil, fmt.Errorf("%w: num_ref_idx_l0_active_minus1", ErrMalformed)
			}
			h.NumRefIdxL0 = v + 1
			if h.Type == SliceTypeB {
				if v, err = r.ReadUE(); err != nil || v > 31 {
					return nil, fmt.Errorf("%w: num_ref_idx_l1_active_minus1", ErrMalformed)
				}
				h.NumRefIdxL1 = v + 1
			}
		}
		if h.RefListModL0, err = parseRefListMod(r, sps); err != nil {
			return nil, err
		}
		if h.Type == SliceTypeB {
			if h.RefListModL1, err = parseRefListMod(r, sps); err != nil {
				return nil, err
			}
		}
	}

	if (pps.WeightedPred && h.Type == SliceTypeP) ||
		(pps.WeightedBipredIDC == 1 && h.Type == SliceTypeB) {
		if err = parsePredWeightTable(r, h); err != nil {
			return nil, err
		}
	} else {
		h.LumaLog2WeightDenom = 0
		h.ChromaLog2WeightDenom = 0
	}

	if refIdc != 0 {
		if err = parseDecRefPicMarking(r, h, idr, sps); err != nil {
			return nil, err
		}
	}

	if pps.CABAC && h.Type != SliceTypeI {
		if h.CABACInitIDC, err = r.ReadUE(); err != nil || h.CABACInitIDC > 2 {
			return nil, fmt.Errorf("%w: cabac_init_idc", ErrMalformed)
		}
	}

	qpDelta, err := r.ReadSE()
	if err != nil {
		return nil, fmt.Errorf("%w: slice_qp_delta", ErrMalformed)
	}
	h.SliceQP = pps.PicInitQP + qpDelta
	if h.SliceQP < 0 || h.SliceQP > 51 {
		return nil, fmt.Errorf("%w: slice qp %d", ErrMalformed, h.SliceQP)
	}

	if pps.DeblockingFilterControl {
		if h.DisableDeblocking, err = r.ReadUE(); err != nil || h.DisableDeblocking > 2 {
			return nil, fmt.Errorf("%w: disable_deblocking_filter_idc", ErrMalformed)
		}
		if h.DisableDeblocking != 1 {
			if h.AlphaC0OffsetDiv2, err = r.ReadSE(); err != nil ||
				h.AlphaC0OffsetDiv2 < -6 || h.AlphaC0OffsetDiv2 > 6 {
				return nil, fmt.Errorf("%w: slice_alpha_c0_offset_div2", ErrMalformed)
			}
			if h.BetaOffsetDiv2, err = r.ReadSE(); err != nil ||
				h.BetaOffsetDiv2 < -6 || h.BetaOffsetDiv2 > 6 {
				return nil, fmt.Errorf("%w: slice_beta_offset_div2", ErrMalformed)
			}
		}
	}

	if pps.CABAC {
		// cabac_alignment_one_bit until byte aligned, then the
		// arithmetic-coded payload starts on a byte boundary.
		for r.BitsRead()%8 != 0 {
			b, err := r.ReadBit()
			if err != nil {
				return nil, fmt.Errorf("%w: cabac alignment", ErrMalformed)
			}
			if b != 1 {
				return nil, fmt.Errorf("%w: cabac alignment bit is zero", ErrMalformed)
			}
		}
		h.CABACStartByte = r.ByteOffset()
	}
	h.DataBitOffset = r.BitsRead()
	return h, nil
}

func parseRefListMod(r *bits.Reader, sps *SPS) ([]RefListMod, error) {
	flag, err := r.ReadFlag()
	if err != nil {
		return nil, fmt.Errorf("%w: ref_pic_list_modification_flag", ErrMalformed)
	}
	if !flag {
		return nil, nil
	}
	maxPicNum := uint32(1) << sps.Log2MaxFrameNum
	var mods []RefListMod
	for {
		if len(mods) > 96 {
			return nil, fmt.Errorf("%w: runaway ref list modification", ErrMalformed)
		}
		op, err := r.ReadUE()
		if err != nil {
			return nil, fmt.Errorf("%w: modification_of_pic_nums_idc", ErrMalformed)
		}
		switch op {
		case refModShortSub, refModShortAdd:
			diff, err := r.ReadUE()
			if err != nil || diff > maxPicNum-1 {
				return nil, fmt.Errorf("%w: abs_diff_pic_num_minus1", ErrMalformed)
			}
			mods = append(mods, RefListMod{Op: op, AbsDiffPicNum: diff + 1})
		case refModLongTerm:
			num, err := r.ReadUE()
			if err != nil || num >= maxInt32U(sps.MaxNumRefFrames, 1) {
				return nil, fmt.Errorf("%w: long_term_pic_num", ErrMalformed)
			}
			mods = append(mods, RefListMod{Op: op, LongTermPicNum: num})
		case 3:
			return mods, nil
		default:
			return nil, fmt.Errorf("%w: modification_of_pic_nums_idc %d", ErrMalformed, op)
		}
	}
}

func maxInt32U(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func parsePredWeightTable(r *bits.Reader, h *SliceHeader) error {
	var err error
	if h.LumaLog2WeightDenom, err = r.ReadUE(); err != nil || h.LumaLog2WeightDenom > 7 {
		return fmt.Errorf("%w: luma_log2_weight_denom", ErrMalformed)
	}
	hasChroma := h.SPS.ChromaFormatIDC != 0
	if hasChroma {
		if h.ChromaLog2WeightDenom, err = r.ReadUE(); err != nil || h.ChromaLog2WeightDenom > 7 {
			return fmt.Errorf("%w: chroma_log2_weight_denom", ErrMalformed)
		}
	}
	h.WeightsL0, err = parseWeightList(r, h.NumRefIdxL0, h.LumaLog2WeightDenom,
		h.ChromaLog2WeightDenom, hasChroma)
	if err != nil {
		return err
	}
	if h.Type == SliceTypeB {
		h.WeightsL1, err = parseWeightList(r, h.NumRefIdxL1, h.LumaLog2WeightDenom,
			h.ChromaLog2WeightDenom, hasChroma)
		if err != nil {
			return err
		}
	}
	return nil
}

func parseWeightList(r *bits.Reader, count, lumaDenom, chromaDenom uint32,
	hasChroma bool) ([]PredWeight, error) {

	weights := make([]PredWeight, count)
	for i := range weights {
		w := &weights[i]
		w.LumaWeight = 1 << lumaDenom
		w.ChromaWeight[0] = 1 << chromaDenom
		w.ChromaWeight[1] = 1 << chromaDenom

		flag, err := r.ReadFlag()
		if err != nil {
			return nil, fmt.Errorf("%w: luma_weight_flag", ErrMalformed)
		}
		if flag {
			if w.LumaWeight, err = r.ReadSE(); err != nil ||
				w.LumaWeight < -128 || w.LumaWeight > 127 {
				return nil, fmt.Errorf("%w: luma_weight", ErrMalformed)
			}
			if w.LumaOffset, err = r.ReadSE(); err != nil ||
				w.LumaOffset < -128 || w.LumaOffset > 127 {
				return nil, fmt.Errorf("%w: luma_offset", ErrMalformed)
			}
		}
		if !hasChroma {
			continue
		}
		if flag, err = r.ReadFlag(); err != nil {
			return nil, fmt.Errorf("%w: chroma_weight_flag", ErrMalformed)
		}
		if flag {
			for c := 0; c < 2; c++ {
				if w.ChromaWeight[c], err = r.ReadSE(); err != nil ||
					w.ChromaWeight[c] < -128 || w.ChromaWeight[c] > 127 {
					return nil, fmt.Errorf("%w: chroma_weight", ErrMalformed)
				}
				if w.ChromaOffset[c], err = r.ReadSE(); err != nil ||
					w.ChromaOffset[c] < -128 || w.ChromaOffset[c] > 127 {
					return nil, fmt.Errorf("%w: chroma_offset", ErrMalformed)
				}
			}
		}
	}
	return weights, nil
}

func parseDecRefPicMarking(r *bits.Reader, h *SliceHeader, idr bool, sps *SPS) error {
	var err error
	if idr {
		if h.Marking.NoOutputOfPriorPics, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: no_output_of_prior_pics_flag", ErrMalformed)
		}
		if h.Marking.LongTermReferenceFlag, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: long_term_reference_flag", ErrMalformed)
		}
		return nil
	}
	if h.Marking.Adaptive, err = r.ReadFlag(); err != nil {
		return fmt.Errorf("%w: adaptive_ref_pic_marking_mode_flag", ErrMalformed)
	}
	if !h.Marking.Adaptive {
		return nil
	}
	maxPicNum := uint32(1) << sps.Log2MaxFrameNum
	maxLT := maxInt32U(sps.MaxNumRefFrames, 1)
	for {
		if len(h.Marking.Ops) >= 64 {
			return fmt.Errorf("%w: runaway mmco list", ErrMalformed)
		}
		op, err := r.ReadUE()
		if err != nil || op > 6 {
			return fmt.Errorf("%w: memory_management_control_operation", ErrMalformed)
		}
		if op == 0 {
			return nil
		}
		m := MMCO{Op: op}
		switch op {
		case 1:
			diff, err := r.ReadUE()
			if err != nil || diff > maxPicNum-1 {
				return fmt.Errorf("%w: mmco1 difference_of_pic_nums_minus1", ErrMalformed)
			}
			m.DiffOfPicNums = diff + 1
		case 2:
			if m.LongTermPicNum, err = r.ReadUE(); err != nil || m.LongTermPicNum >= maxLT {
				return fmt.Errorf("%w: mmco2 long_term_pic_num", ErrMalformed)
			}
		case 3:
			diff, err := r.ReadUE()
			if err != nil || diff > maxPicNum-1 {
				return fmt.Errorf("%w: mmco3 difference_of_pic_nums_minus1", ErrMalformed)
			}
			m.DiffOfPicNums = diff + 1
			if m.LongTermFrameIdx, err = r.ReadUE(); err != nil || m.LongTermFrameIdx >= maxLT {
				return fmt.Errorf("%w: mmco3 long_term_frame_idx", ErrMalformed)
			}
		case 4:
			plus1, err := r.ReadUE()
			if err != nil || plus1 > maxLT {
				return fmt.Errorf("%w: mmco4 max_long_term_frame_idx_plus1", ErrMalformed)
			}
			m.MaxLongTermFrameIdx = int32(plus1) - 1
		case 5:
			// Clears all references and resets baselines downstream.
		case 6:
			if m.LongTermFrameIdx, err = r.ReadUE(); err != nil || m.LongTermFrameIdx >= maxLT {
				return fmt.Errorf("%w: mmco6 long_term_frame_idx", ErrMalformed)
			}
		}
		h.Marking.Ops = append(h.Marking.Ops, m)
	}
}
