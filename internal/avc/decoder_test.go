package avc

import (
	"errors"
	"testing"

	"github.com/thesyncim/goavc/internal/bits"
)

// i16SliceRBSP builds an I slice of flat DC macroblocks starting at
// firstMB: QP 28, no residual.
func i16SliceRBSP(firstMB uint32, mbs int, idr bool) []byte {
	w := bits.NewWriter()
	w.WriteUE(firstMB)
	w.WriteUE(7) // slice_type I
	w.WriteUE(0) // pps id
	w.WriteBits(0, 4)
	if idr {
		w.WriteUE(0)       // idr_pic_id
		w.WriteBits(0, 4)  // pic_order_cnt_lsb
		w.WriteFlag(false) // no_output_of_prior_pics
		w.WriteFlag(false) // long_term_reference_flag
	} else {
		w.WriteBits(0, 4)
		w.WriteFlag(false)
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

// pSkipSliceRBSP builds a P slice that is one skip run.
func pSkipSliceRBSP(frameNum, pocLsb, skipRun uint32) []byte {
	w := bits.NewWriter()
	w.WriteUE(0) // first_mb_in_slice
	w.WriteUE(5) // slice_type P
	w.WriteUE(0) // pps id
	w.WriteBits(frameNum, 4)
	w.WriteBits(pocLsb, 4)
	w.WriteFlag(false) // num_ref_idx_active_override
	w.WriteFlag(false) // ref_pic_list_modification_flag_l0
	w.WriteFlag(false) // adaptive_ref_pic_marking_mode_flag
	w.WriteSE(0)       // slice_qp_delta
	w.WriteUE(skipRun)
	w.WriteTrailingBits()
	return w.Bytes()
}

func newTestDriver(t *testing.T, sp spsParams, pp ppsParams) *Decoder {
	t.Helper()
	d := NewDecoder(nil, 0, 0)
	if err := d.AddSPS(buildSPS(sp)); err != nil {
		t.Fatalf("AddSPS: %v", err)
	}
	if err := d.AddPPS(buildPPS(pp)); err != nil {
		t.Fatalf("AddPPS: %v", err)
	}
	return d
}

func requireFlat(t *testing.T, pic *Picture, want uint8) {
	t.Helper()
	for i, v := range pic.Y {
		if v != want {
			t.Fatalf("Y[%d] = %d, want %d", i, v, want)
		}
	}
	for i, v := range pic.Cb {
		if v != 128 {
			t.Fatalf("Cb[%d] = %d, want 128", i, v)
		}
	}
}

func TestDecoderIDRThenPSkip(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 {
		t.Fatalf("idr output = %d pictures, want 1", len(out))
	}
	f := out[0]
	if f.POC != 0 || f.FrameNum != 0 || f.Type != SliceTypeI || !f.IDR || !f.Keyframe {
		t.Fatalf("idr frame = poc %d fn %d type %v idr %v key %v",
			f.POC, f.FrameNum, f.Type, f.IDR, f.Keyframe)
	}
	requireFlat(t, f, 128)

	if err := d.DecodeSlice(2, false, pSkipSliceRBSP(1, 2, 20)); err != nil {
		t.Fatalf("DecodeSlice p: %v", err)
	}
	out = d.EndAU()
	if len(out) != 1 {
		t.Fatalf("p output = %d pictures, want 1", len(out))
	}
	f = out[0]
	if f.POC != 2 || f.FrameNum != 1 || f.Type != SliceTypeP || f.Keyframe {
		t.Fatalf("p frame = poc %d fn %d type %v key %v", f.POC, f.FrameNum, f.Type, f.Keyframe)
	}
	requireFlat(t, f, 128)

	if d.ConcealedMacroblocks() != 0 || d.MissingReferenceFallbacks() != 0 {
		t.Fatalf("stats = %d concealed, %d missing, want clean decode",
			d.ConcealedMacroblocks(), d.MissingReferenceFallbacks())
	}
}

func TestDecoderTwoSlicePicture(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 10, true)); err != nil {
		t.Fatalf("DecodeSlice first half: %v", err)
	}
	if err := d.DecodeSlice(3, true, i16SliceRBSP(10, 10, true)); err != nil {
		t.Fatalf("DecodeSlice second half: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 {
		t.Fatalf("output = %d pictures, want 1", len(out))
	}
	requireFlat(t, out[0], 128)
	if d.ConcealedMacroblocks() != 0 {
		t.Fatalf("concealed %d macroblocks in a complete picture", d.ConcealedMacroblocks())
	}
}

func TestDecoderOutputReorder(t *testing.T) {
	sp := defaultSPSParams()
	sp.maxRefFrames = 2
	d := newTestDriver(t, sp, defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	if out := d.EndAU(); len(out) != 0 {
		t.Fatalf("idr emitted %d pictures before reorder depth reached", len(out))
	}

	if err := d.DecodeSlice(2, false, pSkipSliceRBSP(1, 2, 20)); err != nil {
		t.Fatalf("DecodeSlice p1: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 || out[0].POC != 0 {
		t.Fatalf("after p1: %d pictures, want the poc 0 idr", len(out))
	}

	if err := d.DecodeSlice(2, false, pSkipSliceRBSP(2, 4, 20)); err != nil {
		t.Fatalf("DecodeSlice p2: %v", err)
	}
	out = d.EndAU()
	if len(out) != 1 || out[0].POC != 2 {
		t.Fatalf("after p2: %d pictures, want poc 2", len(out))
	}

	out = d.Flush()
	if len(out) != 1 || out[0].POC != 4 {
		t.Fatalf("flush = %d pictures, want poc 4", len(out))
	}
	if out = d.Flush(); len(out) != 0 {
		t.Fatalf("second flush returned %d pictures", len(out))
	}
}

func TestDecoderConcealsShortSlice(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	d.EndAU()

	// A 5 macroblock slice; the other 15 never arrive.
	if err := d.DecodeSlice(2, false, pSkipSliceRBSP(1, 2, 5)); err != nil {
		t.Fatalf("DecodeSlice short p: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 {
		t.Fatalf("output = %d pictures, want the concealed picture", len(out))
	}
	requireFlat(t, out[0], 128)
	if got := d.ConcealedMacroblocks(); got != 15 {
		t.Fatalf("concealed = %d macroblocks, want 15", got)
	}
}

func TestDecoderConcealsTruncatedSlice(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	full := i16SliceRBSP(0, 20, true)
	if err := d.DecodeSlice(3, true, full[:12]); err == nil {
		t.Fatal("truncated slice decoded without error")
	}
	out := d.EndAU()
	if len(out) != 1 {
		t.Fatalf("output = %d pictures, want the concealed picture", len(out))
	}
	if d.ConcealedMacroblocks() == 0 {
		t.Fatal("no macroblocks concealed after truncation")
	}
}

func TestDecoderNoParamSet(t *testing.T) {
	d := NewDecoder(nil, 0, 0)
	err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true))
	if !errors.Is(err, ErrNoParamSet) {
		t.Fatalf("err = %v, want ErrNoParamSet", err)
	}
	if out := d.EndAU(); len(out) != 0 {
		t.Fatalf("output = %d pictures from a dropped slice", len(out))
	}
}

func TestDecoderUnsupportedSPSRejected(t *testing.T) {
	d := NewDecoder(nil, 0, 0)
	sp := defaultSPSParams()
	sp.frameMbsOnly = false
	err := d.AddSPS(buildSPS(sp))
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("AddSPS err = %v, want ErrUnsupported", err)
	}
	// The rejected set must not have been stored.
	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); !errors.Is(err, ErrNoParamSet) {
		t.Fatalf("err = %v, want ErrNoParamSet", err)
	}
}

func TestDecoderMaxDimensions(t *testing.T) {
	d := NewDecoder(nil, 64, 64)
	err := d.AddSPS(buildSPS(defaultSPSParams())) // 80x64
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("AddSPS err = %v, want ErrUnsupported", err)
	}
}

func TestDecoderRedundantSliceSkipped(t *testing.T) {
	pp := defaultPPSParams()
	pp.redundantPresent = true
	d := newTestDriver(t, defaultSPSParams(), pp)

	w := bits.NewWriter()
	w.WriteUE(0) // first_mb_in_slice
	w.WriteUE(5) // slice_type P
	w.WriteUE(0) // pps id
	w.WriteBits(1, 4)
	w.WriteBits(2, 4)
	w.WriteUE(1)       // redundant_pic_cnt
	w.WriteFlag(false) // num_ref_idx_active_override
	w.WriteFlag(false) // ref_pic_list_modification_flag_l0
	w.WriteFlag(false) // adaptive_ref_pic_marking_mode_flag
	w.WriteSE(0)
	w.WriteTrailingBits()

	if err := d.DecodeSlice(2, false, w.Bytes()); err != nil {
		t.Fatalf("DecodeSlice redundant: %v", err)
	}
	if out := d.EndAU(); len(out) != 0 {
		t.Fatalf("redundant slice produced %d pictures", len(out))
	}
}

func TestDecoderSPSRedefinition(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 || out[0].CropW != 80 {
		t.Fatalf("first sequence: %d pictures, crop %d, want 1 at 80", len(out), out[0].CropW)
	}

	sp := defaultSPSParams()
	sp.widthMbsM1 = 5 // 96x64
	if err := d.AddSPS(buildSPS(sp)); err != nil {
		t.Fatalf("AddSPS redefinition: %v", err)
	}
	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 24, true)); err != nil {
		t.Fatalf("DecodeSlice after redefinition: %v", err)
	}
	out = d.EndAU()
	if len(out) != 1 {
		t.Fatalf("second sequence: %d pictures, want 1", len(out))
	}
	if out[0].CropW != 96 || out[0].StrideY != 96 {
		t.Fatalf("second sequence geometry = %dx stride %d, want 96/96",
			out[0].CropW, out[0].StrideY)
	}
}

func TestDecoderPPSRuntimeReregistration(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	d.EndAU()

	pp := defaultPPSParams()
	pp.qpM26 = 1
	if err := d.AddPPS(buildPPS(pp)); err != nil {
		t.Fatalf("AddPPS runtime change: %v", err)
	}
	if err := d.DecodeSlice(2, false, pSkipSliceRBSP(1, 2, 20)); err != nil {
		t.Fatalf("DecodeSlice after pps change: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 {
		t.Fatalf("output = %d pictures, want 1", len(out))
	}
	requireFlat(t, out[0], 128)
}

func TestDecoderGapFill(t *testing.T) {
	sp := defaultSPSParams()
	sp.maxRefFrames = 4
	sp.gaps = true
	d := newTestDriver(t, sp, defaultPPSParams())

	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	d.EndAU()

	// frame_num jumps 0 -> 3: two non-existing references fill in.
	if err := d.DecodeSlice(2, false, pSkipSliceRBSP(3, 6, 20)); err != nil {
		t.Fatalf("DecodeSlice after gap: %v", err)
	}
	d.EndAU()
	if got := d.MissingReferenceFallbacks(); got != 2 {
		t.Fatalf("missing reference fallbacks = %d, want 2", got)
	}

	out := d.Flush()
	if got := listPOCsOf(out); !equalInt32s(got, []int32{0, 6}) {
		t.Fatalf("flush pocs = %v, want [0 6]", got)
	}
}

func TestDecoderRecoveryPointKeyframe(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())

	d.SignalRecoveryPoint(0)
	if err := d.DecodeSlice(2, false, i16SliceRBSP(0, 20, false)); err != nil {
		t.Fatalf("DecodeSlice: %v", err)
	}
	out := d.EndAU()
	if len(out) != 1 {
		t.Fatalf("output = %d pictures, want 1", len(out))
	}
	if f := out[0]; !f.Keyframe || f.IDR {
		t.Fatalf("frame keyframe/idr = %v/%v, want recovery keyframe without idr",
			f.Keyframe, f.IDR)
	}
}

func TestDecoderReset(t *testing.T) {
	d := newTestDriver(t, defaultSPSParams(), defaultPPSParams())
	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); err != nil {
		t.Fatalf("DecodeSlice idr: %v", err)
	}
	d.EndAU()

	d.Reset()
	if err := d.DecodeSlice(3, true, i16SliceRBSP(0, 20, true)); !errors.Is(err, ErrNoParamSet) {
		t.Fatalf("err after reset = %v, want ErrNoParamSet", err)
	}
	if out := d.Flush(); len(out) != 0 {
		t.Fatalf("flush after reset returned %d pictures", len(out))
	}
}
