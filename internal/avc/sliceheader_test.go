package avc

import (
	"errors"
	"testing"

	"github.com/thesyncim/goavc/internal/bits"
)

func TestParseSliceHeaderIDR(t *testing.T) {
	_, _, lookupPPS, lookupSPS := paramSetPair(t, defaultSPSParams(), defaultPPSParams())

	w := bits.NewWriter()
	w.WriteUE(0)       // first_mb_in_slice
	w.WriteUE(7)       // slice_type 7 -> I
	w.WriteUE(0)       // pps id
	w.WriteBits(0, 4)  // frame_num
	w.WriteUE(1)       // idr_pic_id
	w.WriteBits(0, 4)  // pic_order_cnt_lsb
	w.WriteFlag(false) // no_output_of_prior_pics
	w.WriteFlag(true)  // long_term_reference_flag
	w.WriteSE(2)       // slice_qp_delta
	w.WriteTrailingBits()

	h, err := ParseSliceHeader(w.Bytes(), 3, true, lookupPPS, lookupSPS)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if h.Type != SliceTypeI || !h.IDR {
		t.Errorf("type/idr = %v/%v, want I/true", h.Type, h.IDR)
	}
	if h.IdrPicID != 1 {
		t.Errorf("idr_pic_id = %d, want 1", h.IdrPicID)
	}
	if !h.Marking.LongTermReferenceFlag || h.Marking.NoOutputOfPriorPics {
		t.Errorf("marking = %+v, want long_term only", h.Marking)
	}
	if h.SliceQP != 28 {
		t.Errorf("slice qp = %d, want 28", h.SliceQP)
	}
	if h.DataBitOffset != 27 {
		t.Errorf("data bit offset = %d, want 27", h.DataBitOffset)
	}
}

func TestParseSliceHeaderP(t *testing.T) {
	pp := defaultPPSParams()
	pp.deblockControl = true
	_, _, lookupPPS, lookupSPS := paramSetPair(t, defaultSPSParams(), pp)

	w := bits.NewWriter()
	w.WriteUE(2)       // first_mb_in_slice
	w.WriteUE(5)       // slice_type 5 -> P
	w.WriteUE(0)       // pps id
	w.WriteBits(3, 4)  // frame_num
	w.WriteBits(6, 4)  // pic_order_cnt_lsb
	w.WriteFlag(true)  // num_ref_idx_active_override
	w.WriteUE(1)       // num_ref_idx_l0_active_minus1
	w.WriteFlag(true)  // ref_pic_list_modification_flag_l0
	w.WriteUE(0)       // modification_of_pic_nums_idc: subtract
	w.WriteUE(0)       // abs_diff_pic_num_minus1
	w.WriteUE(3)       // end of modifications
	w.WriteFlag(false) // adaptive_ref_pic_marking_mode_flag
	w.WriteSE(-2)      // slice_qp_delta
	w.WriteUE(2)       // disable_deblocking_filter_idc
	w.WriteSE(-3)      // slice_alpha_c0_offset_div2
	w.WriteSE(3)       // slice_beta_offset_div2
	w.WriteTrailingBits()

	h, err := ParseSliceHeader(w.Bytes(), 2, false, lookupPPS, lookupSPS)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if h.FirstMB != 2 || h.Type != SliceTypeP || h.FrameNum != 3 {
		t.Errorf("first_mb/type/frame_num = %d/%v/%d, want 2/P/3",
			h.FirstMB, h.Type, h.FrameNum)
	}
	if h.POCLsb != 6 {
		t.Errorf("poc lsb = %d, want 6", h.POCLsb)
	}
	if h.NumRefIdxL0 != 2 {
		t.Errorf("num_ref_idx_l0 = %d, want 2", h.NumRefIdxL0)
	}
	if len(h.RefListModL0) != 1 {
		t.Fatalf("l0 modifications = %d, want 1", len(h.RefListModL0))
	}
	if m := h.RefListModL0[0]; m.Op != refModShortSub || m.AbsDiffPicNum != 1 {
		t.Errorf("modification = %+v, want subtract 1", m)
	}
	if h.Marking.Adaptive {
		t.Error("adaptive marking flagged")
	}
	if h.SliceQP != 24 {
		t.Errorf("slice qp = %d, want 24", h.SliceQP)
	}
	if h.DisableDeblocking != 2 || h.AlphaC0OffsetDiv2 != -3 || h.BetaOffsetDiv2 != 3 {
		t.Errorf("deblock = %d/%d/%d, want 2/-3/3",
			h.DisableDeblocking, h.AlphaC0OffsetDiv2, h.BetaOffsetDiv2)
	}
}

func TestParseSliceHeaderBWeights(t *testing.T) {
	pp := defaultPPSParams()
	pp.weightedBipred = 1
	_, _, lookupPPS, lookupSPS := paramSetPair(t, defaultSPSParams(), pp)

	w := bits.NewWriter()
	w.WriteUE(0)       // first_mb_in_slice
	w.WriteUE(6)       // slice_type 6 -> B
	w.WriteUE(0)       // pps id
	w.WriteBits(1, 4)  // frame_num
	w.WriteBits(2, 4)  // pic_order_cnt_lsb
	w.WriteFlag(true)  // direct_spatial_mv_pred
	w.WriteFlag(false) // num_ref_idx_active_override
	w.WriteFlag(false) // l0 modification flag
	w.WriteFlag(false) // l1 modification flag
	w.WriteUE(1)       // luma_log2_weight_denom
	w.WriteUE(0)       // chroma_log2_weight_denom
	w.WriteFlag(true)  // l0[0] luma_weight_flag
	w.WriteSE(3)       // luma_weight
	w.WriteSE(-1)      // luma_offset
	w.WriteFlag(false) // l0[0] chroma_weight_flag
	w.WriteFlag(false) // l1[0] luma_weight_flag
	w.WriteFlag(false) // l1[0] chroma_weight_flag
	w.WriteSE(0)       // slice_qp_delta
	w.WriteTrailingBits()

	h, err := ParseSliceHeader(w.Bytes(), 0, false, lookupPPS, lookupSPS)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if h.Type != SliceTypeB || !h.DirectSpatialMVPred {
		t.Errorf("type/direct = %v/%v, want B/true", h.Type, h.DirectSpatialMVPred)
	}
	if h.LumaLog2WeightDenom != 1 || h.ChromaLog2WeightDenom != 0 {
		t.Errorf("denoms = %d/%d, want 1/0", h.LumaLog2WeightDenom, h.ChromaLog2WeightDenom)
	}
	if len(h.WeightsL0) != 1 || len(h.WeightsL1) != 1 {
		t.Fatalf("weight lists = %d/%d, want 1/1", len(h.WeightsL0), len(h.WeightsL1))
	}
	if w0 := h.WeightsL0[0]; w0.LumaWeight != 3 || w0.LumaOffset != -1 {
		t.Errorf("l0 weight = %+v, want luma 3/-1", w0)
	}
	if w0 := h.WeightsL0[0]; w0.ChromaWeight[0] != 1 || w0.ChromaOffset[0] != 0 {
		t.Errorf("l0 chroma = %+v, want default 1/0", w0)
	}
	if w1 := h.WeightsL1[0]; w1.LumaWeight != 2 || w1.LumaOffset != 0 {
		t.Errorf("l1 weight = %+v, want default 2/0", w1)
	}
}

func TestParseSliceHeaderMMCO(t *testing.T) {
	sp := defaultSPSParams()
	sp.maxRefFrames = 4
	_, _, lookupPPS, lookupSPS := paramSetPair(t, sp, defaultPPSParams())

	w := bits.NewWriter()
	w.WriteUE(0)       // first_mb_in_slice
	w.WriteUE(5)       // slice_type P
	w.WriteUE(0)       // pps id
	w.WriteBits(5, 4)  // frame_num
	w.WriteBits(0, 4)  // pic_order_cnt_lsb
	w.WriteFlag(false) // num_ref_idx_active_override
	w.WriteFlag(false) // l0 modification flag
	w.WriteFlag(true)  // adaptive_ref_pic_marking_mode_flag
	w.WriteUE(1)       // mmco: forget short term
	w.WriteUE(2)       // difference_of_pic_nums_minus1
	w.WriteUE(4)       // mmco: cap long term indices
	w.WriteUE(2)       // max_long_term_frame_idx_plus1
	w.WriteUE(6)       // mmco: mark current long term
	w.WriteUE(0)       // long_term_frame_idx
	w.WriteUE(0)       // end of mmco ops
	w.WriteSE(0)       // slice_qp_delta
	w.WriteTrailingBits()

	h, err := ParseSliceHeader(w.Bytes(), 1, false, lookupPPS, lookupSPS)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if !h.Marking.Adaptive {
		t.Fatal("adaptive marking not flagged")
	}
	ops := h.Marking.Ops
	if len(ops) != 3 {
		t.Fatalf("mmco ops = %d, want 3", len(ops))
	}
	if ops[0].Op != 1 || ops[0].DiffOfPicNums != 3 {
		t.Errorf("op 0 = %+v, want forget short diff 3", ops[0])
	}
	if ops[1].Op != 4 || ops[1].MaxLongTermFrameIdx != 1 {
		t.Errorf("op 1 = %+v, want cap idx 1", ops[1])
	}
	if ops[2].Op != 6 || ops[2].LongTermFrameIdx != 0 {
		t.Errorf("op 2 = %+v, want mark current idx 0", ops[2])
	}
}

func TestParseSliceHeaderCABACAlignment(t *testing.T) {
	pp := defaultPPSParams()
	pp.cabac = true
	_, _, lookupPPS, lookupSPS := paramSetPair(t, defaultSPSParams(), pp)

	w := bits.NewWriter()
	w.WriteUE(0)        // first_mb_in_slice
	w.WriteUE(5)        // slice_type P
	w.WriteUE(0)        // pps id
	w.WriteBits(0, 4)   // frame_num
	w.WriteBits(0, 4)   // pic_order_cnt_lsb
	w.WriteFlag(false)  // num_ref_idx_active_override
	w.WriteFlag(false)  // l0 modification flag
	w.WriteUE(1)        // cabac_init_idc
	w.WriteSE(0)        // slice_qp_delta
	w.WriteBits(0x7, 3) // cabac_alignment_one_bit x3 to the byte edge
	w.WriteBits(0xAB, 8)

	h, err := ParseSliceHeader(w.Bytes(), 0, false, lookupPPS, lookupSPS)
	if err != nil {
		t.Fatalf("ParseSliceHeader: %v", err)
	}
	if h.CABACInitIDC != 1 {
		t.Errorf("cabac_init_idc = %d, want 1", h.CABACInitIDC)
	}
	if h.CABACStartByte != 3 {
		t.Errorf("cabac start byte = %d, want 3", h.CABACStartByte)
	}
	if h.DataBitOffset != 24 {
		t.Errorf("data bit offset = %d, want 24", h.DataBitOffset)
	}
}

func TestParseSliceHeaderRejects(t *testing.T) {
	_, _, lookupPPS, lookupSPS := paramSetPair(t, defaultSPSParams(), defaultPPSParams())

	buildI := func(qpDelta int32) []byte {
		w := bits.NewWriter()
		w.WriteUE(0)
		w.WriteUE(7) // I
		w.WriteUE(0)
		w.WriteBits(0, 4)
		w.WriteBits(0, 4)
		w.WriteSE(qpDelta)
		w.WriteTrailingBits()
		return w.Bytes()
	}

	t.Run("sp slice", func(t *testing.T) {
		w := bits.NewWriter()
		w.WriteUE(0)
		w.WriteUE(3) // SP
		w.WriteUE(0)
		w.WriteTrailingBits()
		_, err := ParseSliceHeader(w.Bytes(), 0, false, lookupPPS, lookupSPS)
		if !errors.Is(err, ErrUnsupported) {
			t.Errorf("error = %v, want ErrUnsupported", err)
		}
	})

	t.Run("unknown pps", func(t *testing.T) {
		w := bits.NewWriter()
		w.WriteUE(0)
		w.WriteUE(7)
		w.WriteUE(1) // pps 1 is not registered
		w.WriteTrailingBits()
		_, err := ParseSliceHeader(w.Bytes(), 0, false, lookupPPS, lookupSPS)
		if !errors.Is(err, ErrNoParamSet) {
			t.Errorf("error = %v, want ErrNoParamSet", err)
		}
	})

	t.Run("qp out of range", func(t *testing.T) {
		_, err := ParseSliceHeader(buildI(30), 0, false, lookupPPS, lookupSPS)
		if !errors.Is(err, ErrMalformed) {
			t.Errorf("error = %v, want ErrMalformed", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		data := buildI(0)
		_, err := ParseSliceHeader(data[:2], 0, false, lookupPPS, lookupSPS)
		if err == nil {
			t.Error("truncated header accepted")
		}
	})
}

func TestParseSliceHeaderFieldPictureUnsupported(t *testing.T) {
	sp := defaultSPSParams()
	sp.frameMbsOnly = false
	_, _, lookupPPS, lookupSPS := paramSetPair(t, sp, defaultPPSParams())

	w := bits.NewWriter()
	w.WriteUE(0)
	w.WriteUE(7)
	w.WriteUE(0)
	w.WriteBits(0, 4)
	w.WriteFlag(true) // field_pic_flag
	w.WriteFlag(false)
	w.WriteTrailingBits()

	_, err := ParseSliceHeader(w.Bytes(), 0, false, lookupPPS, lookupSPS)
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("error = %v, want ErrUnsupported", err)
	}
}
