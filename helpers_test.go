package goavc

import (
	"testing"

	"github.com/thesyncim/goavc/internal/bits"
	"github.com/thesyncim/goavc/internal/nal"
)

// streamParams sizes the synthetic test sequence: Baseline 4:2:0
// frames of flat mid-gray macroblocks.
type streamParams struct {
	maxRefFrames uint32
	widthMbs     uint32
	heightMbs    uint32
	interlaced   bool
}

func defaultStream() streamParams {
	return streamParams{maxRefFrames: 1, widthMbs: 5, heightMbs: 4}
}

func (p streamParams) mbs() int { return int(p.widthMbs * p.heightMbs) }

func spsRBSP(p streamParams) []byte {
	w := bits.NewWriter()
	w.WriteBits(66, 8) // profile_idc
	w.WriteBits(0, 8)  // constraint flags
	w.WriteBits(30, 8) // level_idc
	w.WriteUE(0)       // seq_parameter_set_id
	w.WriteUE(0)       // log2_max_frame_num_minus4
	w.WriteUE(0)       // pic_order_cnt_type
	w.WriteUE(0)       // log2_max_pic_order_cnt_lsb_minus4
	w.WriteUE(p.maxRefFrames)
	w.WriteFlag(false) // gaps_in_frame_num_value_allowed_flag
	w.WriteUE(p.widthMbs - 1)
	w.WriteUE(p.heightMbs - 1)
	w.WriteFlag(!p.interlaced) // frame_mbs_only_flag
	if p.interlaced {
		w.WriteFlag(false) // mb_adaptive_frame_field_flag
	}
	w.WriteFlag(true)  // direct_8x8_inference_flag
	w.WriteFlag(false) // frame_cropping_flag
	w.WriteFlag(false) // vui_parameters_present_flag
	w.WriteTrailingBits()
	return w.Bytes()
}

func ppsRBSP() []byte {
	w := bits.NewWriter()
	w.WriteUE(0)       // pic_parameter_set_id
	w.WriteUE(0)       // seq_parameter_set_id
	w.WriteFlag(false) // entropy_coding_mode_flag
	w.WriteFlag(false) // bottom_field_pic_order_in_frame_present_flag
	w.WriteUE(0)       // num_slice_groups_minus1
	w.WriteUE(0)       // num_ref_idx_l0_default_active_minus1
	w.WriteUE(0)       // num_ref_idx_l1_default_active_minus1
	w.WriteFlag(false) // weighted_pred_flag
	w.WriteBits(0, 2)  // weighted_bipred_idc
	w.WriteSE(0)       // pic_init_qp_minus26
	w.WriteSE(0)       // pic_init_qs_minus26
	w.WriteSE(0)       // chroma_qp_index_offset
	w.WriteFlag(false) // deblocking_filter_control_present_flag
	w.WriteFlag(false) // constrained_intra_pred_flag
	w.WriteFlag(false) // redundant_pic_cnt_present_flag
	w.WriteTrailingBits()
	return w.Bytes()
}

// i16SliceRBSP builds an I slice of flat DC macroblocks: QP 28, no
// residual. Non-IDR renditions are reference slices (nal_ref_idc
// must be nonzero so the marking syntax matches).
func i16SliceRBSP(mbs int, idr bool) []byte {
	w := bits.NewWriter()
	w.WriteUE(0)      // first_mb_in_slice
	w.WriteUE(7)      // slice_type I
	w.WriteUE(0)      // pic_parameter_set_id
	w.WriteBits(0, 4) // frame_num
	if idr {
		w.WriteUE(0)       // idr_pic_id
		w.WriteBits(0, 4)  // pic_order_cnt_lsb
		w.WriteFlag(false) // no_output_of_prior_pics_flag
		w.WriteFlag(false) // long_term_reference_flag
	} else {
		w.WriteBits(0, 4)  // pic_order_cnt_lsb
		w.WriteFlag(false) // adaptive_ref_pic_marking_mode_flag
	}
	w.WriteSE(2) // slice_qp_delta -> 28
	for i := 0; i < mbs; i++ {
		w.WriteUE(3)      // I_16x16_2_0_0: DC prediction, no residual
		w.WriteUE(0)      // intra_chroma_pred_mode DC
		w.WriteSE(0)      // mb_qp_delta
		w.WriteBits(1, 1) // luma DC coeff_token, TotalCoeff 0
	}
	w.WriteTrailingBits()
	return w.Bytes()
}

// pSkipSliceRBSP builds a reference P slice that is one skip run.
func pSkipSliceRBSP(frameNum, pocLsb, skipRun uint32) []byte {
	w := bits.NewWriter()
	w.WriteUE(0) // first_mb_in_slice
	w.WriteUE(5) // slice_type P
	w.WriteUE(0) // pic_parameter_set_id
	w.WriteBits(frameNum, 4)
	w.WriteBits(pocLsb, 4)
	w.WriteFlag(false) // num_ref_idx_active_override_flag
	w.WriteFlag(false) // ref_pic_list_modification_flag_l0
	w.WriteFlag(false) // adaptive_ref_pic_marking_mode_flag
	w.WriteSE(0)       // slice_qp_delta
	w.WriteUE(skipRun)
	w.WriteTrailingBits()
	return w.Bytes()
}

// bSkipSliceRBSP builds a non-reference B slice that is one skip run
// of spatial direct macroblocks.
func bSkipSliceRBSP(frameNum, pocLsb, skipRun uint32) []byte {
	w := bits.NewWriter()
	w.WriteUE(0) // first_mb_in_slice
	w.WriteUE(6) // slice_type B
	w.WriteUE(0) // pic_parameter_set_id
	w.WriteBits(frameNum, 4)
	w.WriteBits(pocLsb, 4)
	w.WriteFlag(true)  // direct_spatial_mv_pred_flag
	w.WriteFlag(false) // num_ref_idx_active_override_flag
	w.WriteFlag(false) // ref_pic_list_modification_flag_l0
	w.WriteFlag(false) // ref_pic_list_modification_flag_l1
	w.WriteSE(0)       // slice_qp_delta
	w.WriteUE(skipRun)
	w.WriteTrailingBits()
	return w.Bytes()
}

func seiRecoveryRBSP(cnt uint32) []byte {
	w := bits.NewWriter()
	w.WriteUE(cnt)
	w.WriteFlag(true)  // exact_match_flag
	w.WriteFlag(false) // broken_link_flag
	w.WriteBits(0, 2)  // changing_slice_group_idc
	w.WriteTrailingBits()
	return seiRBSP(SEITypeRecoveryPoint, w.Bytes())
}

func seiUserDataRBSP(id [16]byte, data []byte) []byte {
	return seiRBSP(SEITypeUserDataUnregistered, append(id[:], data...))
}

// seiRBSP wraps one payload as a complete SEI RBSP. Test payload
// types and sizes stay below the 255 escape.
func seiRBSP(ptype int, payload []byte) []byte {
	out := []byte{byte(ptype), byte(len(payload))}
	out = append(out, payload...)
	return append(out, 0x80)
}

// nalUnit prefixes an RBSP with its header byte and applies
// emulation prevention.
func nalUnit(refIdc uint8, typ nal.UnitType, rbsp []byte) []byte {
	out := []byte{refIdc<<5 | uint8(typ)}
	return append(out, nal.EscapeRBSP(rbsp)...)
}

func spsUnit(p streamParams) []byte { return nalUnit(3, nal.UnitTypeSPS, spsRBSP(p)) }

func ppsUnit() []byte { return nalUnit(3, nal.UnitTypePPS, ppsRBSP()) }

func idrUnit(p streamParams) []byte {
	return nalUnit(3, nal.UnitTypeSliceIDR, i16SliceRBSP(p.mbs(), true))
}

func iUnit(p streamParams) []byte {
	return nalUnit(3, nal.UnitTypeSliceNonIDR, i16SliceRBSP(p.mbs(), false))
}

func pSkipUnit(p streamParams, frameNum, pocLsb uint32) []byte {
	return nalUnit(2, nal.UnitTypeSliceNonIDR, pSkipSliceRBSP(frameNum, pocLsb, uint32(p.mbs())))
}

func bSkipUnit(p streamParams, frameNum, pocLsb uint32) []byte {
	return nalUnit(0, nal.UnitTypeSliceNonIDR, bSkipSliceRBSP(frameNum, pocLsb, uint32(p.mbs())))
}

// annexB joins NAL units into one start-code framed access unit.
func annexB(units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		out = append(out, 0x00, 0x00, 0x00, 0x01)
		out = append(out, u...)
	}
	return out
}

// lengthPrefixed joins NAL units with size-byte big-endian length
// prefixes.
func lengthPrefixed(size int, units ...[]byte) []byte {
	var out []byte
	for _, u := range units {
		n := len(u)
		for i := size - 1; i >= 0; i-- {
			out = append(out, byte(n>>(8*i)))
		}
		out = append(out, u...)
	}
	return out
}

func newFlatDecoder(t *testing.T, p streamParams, opts ...Option) *Decoder {
	t.Helper()
	d, err := NewDecoder(opts...)
	if err != nil {
		t.Fatalf("NewDecoder: %v", err)
	}
	if _, err := d.Decode(annexB(spsUnit(p), ppsUnit())); err != nil {
		t.Fatalf("parameter sets: %v", err)
	}
	return d
}

func requireFlatFrame(t *testing.T, f *Frame, want uint8) {
	t.Helper()
	for i, v := range f.Y {
		if v != want {
			t.Fatalf("Y[%d] = %d, want %d", i, v, want)
		}
	}
	for i, v := range f.Cb {
		if v != 128 {
			t.Fatalf("Cb[%d] = %d, want 128", i, v)
		}
	}
	for i, v := range f.Cr {
		if v != 128 {
			t.Fatalf("Cr[%d] = %d, want 128", i, v)
		}
	}
}

func framePOCs(out []*Frame) []int32 {
	pocs := make([]int32, len(out))
	for i, f := range out {
		pocs[i] = f.POC
	}
	return pocs
}

func equalPOCs(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
