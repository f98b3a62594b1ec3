package avc

import (
	"errors"
	"testing"

	"github.com/thesyncim/goavc/internal/bits"
)

func TestParsePPSBaseline(t *testing.T) {
	sps := mustParseSPS(t, defaultSPSParams())
	pps := mustParsePPS(t, defaultPPSParams(), sps)

	if pps.ID != 0 || pps.SPSID != 0 {
		t.Errorf("ids = %d/%d, want 0/0", pps.ID, pps.SPSID)
	}
	if pps.CABAC {
		t.Error("cabac flagged on a cavlc pps")
	}
	if pps.NumRefIdxL0Default != 1 || pps.NumRefIdxL1Default != 1 {
		t.Errorf("ref defaults = %d/%d, want 1/1",
			pps.NumRefIdxL0Default, pps.NumRefIdxL1Default)
	}
	if pps.PicInitQP != 26 {
		t.Errorf("pic_init_qp = %d, want 26", pps.PicInitQP)
	}
	if pps.Transform8x8Mode {
		t.Error("transform_8x8 set without the extended tail")
	}
	if pps.SecondChromaQPIndexOffset != pps.ChromaQPIndexOffset {
		t.Errorf("second chroma offset = %d, want mirrored %d",
			pps.SecondChromaQPIndexOffset, pps.ChromaQPIndexOffset)
	}
}

func TestParsePPSExtendedTail(t *testing.T) {
	sps := mustParseSPS(t, defaultSPSParams())
	p := defaultPPSParams()
	p.cabac = true
	p.qpM26 = -3
	p.chromaQPOffset = 2
	p.extended = true
	p.transform8x8 = true
	p.secondQPOffset = -4
	pps := mustParsePPS(t, p, sps)

	if !pps.CABAC {
		t.Error("cabac not set")
	}
	if pps.PicInitQP != 23 {
		t.Errorf("pic_init_qp = %d, want 23", pps.PicInitQP)
	}
	if !pps.Transform8x8Mode {
		t.Error("transform_8x8 not set")
	}
	if pps.ChromaQPIndexOffset != 2 || pps.SecondChromaQPIndexOffset != -4 {
		t.Errorf("chroma offsets = %d/%d, want 2/-4",
			pps.ChromaQPIndexOffset, pps.SecondChromaQPIndexOffset)
	}
}

func TestParsePPSRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ppsParams)
	}{
		{"qp too low", func(p *ppsParams) { p.qpM26 = -27 }},
		{"qp too high", func(p *ppsParams) { p.qpM26 = 26 }},
		{"chroma offset out of range", func(p *ppsParams) { p.chromaQPOffset = 13 }},
		{"second offset out of range", func(p *ppsParams) {
			p.extended = true
			p.secondQPOffset = -13
		}},
		{"ref count out of range", func(p *ppsParams) { p.numRefIdxL0M1 = 32 }},
	}
	sps := mustParseSPS(t, defaultSPSParams())
	lookup := func(id uint32) *SPS { return sps }
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultPPSParams()
			tt.mutate(&p)
			if _, err := ParsePPS(buildPPS(p), lookup); err == nil {
				t.Fatal("ParsePPS accepted invalid input")
			} else if !errors.Is(err, ErrMalformed) {
				t.Fatalf("error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestParsePPSWeightedBipredValues(t *testing.T) {
	sps := mustParseSPS(t, defaultSPSParams())
	for idc := uint32(0); idc <= 2; idc++ {
		p := defaultPPSParams()
		p.weightedBipred = idc
		pps := mustParsePPS(t, p, sps)
		if uint32(pps.WeightedBipredIDC) != idc {
			t.Errorf("weighted_bipred_idc = %d, want %d", pps.WeightedBipredIDC, idc)
		}
	}
	p := defaultPPSParams()
	p.weightedBipred = 3
	if _, err := ParsePPS(buildPPS(p), func(uint32) *SPS { return sps }); err == nil {
		t.Error("weighted_bipred_idc 3 accepted")
	}
}

func TestParsePPSScalingOverride(t *testing.T) {
	// PPS scaling matrix with list 0 present and the rest absent:
	// absent list 0 would seed from the SPS, the present one
	// overrides, and list 1 falls back to list 0's values.
	sps := mustParseSPS(t, defaultSPSParams())

	w := bits.NewWriter()
	w.WriteUE(0) // pps id
	w.WriteUE(0) // sps id
	w.WriteFlag(false)
	w.WriteFlag(false)
	w.WriteUE(0)
	w.WriteUE(0)
	w.WriteUE(0)
	w.WriteFlag(false)
	w.WriteBits(0, 2)
	w.WriteSE(0)
	w.WriteSE(0)
	w.WriteSE(0)
	w.WriteFlag(false)
	w.WriteFlag(false)
	w.WriteFlag(false)
	// Extended tail.
	w.WriteFlag(false) // transform_8x8_mode_flag
	w.WriteFlag(true)  // pic_scaling_matrix_present_flag
	// List 0 present: first delta lifts the initial scale 8 to 24,
	// zero deltas hold it there.
	w.WriteFlag(true)
	w.WriteSE(16)
	for i := 1; i < 16; i++ {
		w.WriteSE(0)
	}
	for i := 1; i < 6; i++ {
		w.WriteFlag(false) // remaining 4x4 lists absent
	}
	w.WriteSE(0) // second_chroma_qp_index_offset
	w.WriteTrailingBits()

	pps, err := ParsePPS(w.Bytes(), func(uint32) *SPS { return sps })
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	if !pps.HasScalingMatrix {
		t.Fatal("scaling matrix not flagged")
	}
	for i, v := range pps.ScalingList4x4[0] {
		if v != 24 {
			t.Fatalf("list 0[%d] = %d, want 24", i, v)
		}
	}
	for i, v := range pps.ScalingList4x4[1] {
		if v != 24 {
			t.Fatalf("list 1[%d] = %d, want fall-back 24", i, v)
		}
	}
	// List 3 anchors on the SPS (flat 16), not on list 2.
	for i, v := range pps.ScalingList4x4[3] {
		if v != 16 {
			t.Fatalf("list 3[%d] = %d, want 16", i, v)
		}
	}
}

func TestClassifyPPSChange(t *testing.T) {
	sps := mustParseSPS(t, defaultSPSParams())
	base := mustParsePPS(t, defaultPPSParams(), sps)

	tests := []struct {
		name   string
		mutate func(*ppsParams)
		want   PPSChange
	}{
		{"identical", func(p *ppsParams) {}, PPSChangeNone},
		{"init qp", func(p *ppsParams) { p.qpM26 = 4 }, PPSChangeRuntime},
		{"weighted pred", func(p *ppsParams) { p.weightedPred = true }, PPSChangeRuntime},
		{"chroma offset", func(p *ppsParams) { p.chromaQPOffset = 3 }, PPSChangeRuntime},
		{"deblock control", func(p *ppsParams) { p.deblockControl = true }, PPSChangeRuntime},
		{"entropy mode", func(p *ppsParams) { p.cabac = true }, PPSChangeFull},
		{"ref defaults", func(p *ppsParams) { p.numRefIdxL0M1 = 3 }, PPSChangeFull},
		{"constrained intra", func(p *ppsParams) { p.constrainedIntra = true }, PPSChangeFull},
		{"transform 8x8", func(p *ppsParams) {
			p.extended = true
			p.transform8x8 = true
		}, PPSChangeFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultPPSParams()
			tt.mutate(&p)
			next := mustParsePPS(t, p, sps)
			if got := ClassifyPPSChange(base, next); got != tt.want {
				t.Errorf("change = %v, want %v", got, tt.want)
			}
		})
	}
}
