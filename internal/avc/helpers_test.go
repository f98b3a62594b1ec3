package avc

import (
	"testing"

	"github.com/thesyncim/goavc/internal/bits"
)

// spsParams drives buildSPS. Use defaultSPSParams as the base and
// tweak individual fields per test.
type spsParams struct {
	profile        uint32
	constraints    uint32
	level          uint32
	id             uint32
	log2FrameNumM4 uint32
	pocType        uint32
	log2POCLsbM4   uint32

	// POC type 1 fields.
	deltaAlwaysZero   bool
	offsetNonRef      int32
	offsetTopToBottom int32
	refOffsets        []int32

	maxRefFrames uint32
	gaps         bool
	widthMbsM1   uint32
	heightMapM1  uint32
	frameMbsOnly bool
	direct8x8    bool
	// crop is left, right, top, bottom.
	crop *[4]uint32
	vui  func(w *bits.Writer)
}

// defaultSPSParams is a Baseline 80x64 progressive sequence.
func defaultSPSParams() spsParams {
	return spsParams{
		profile:      66,
		level:        30,
		maxRefFrames: 1,
		widthMbsM1:   4,
		heightMapM1:  3,
		frameMbsOnly: true,
		direct8x8:    true,
	}
}

func buildSPS(p spsParams) []byte {
	w := bits.NewWriter()
	w.WriteBits(p.profile, 8)
	w.WriteBits(p.constraints, 8)
	w.WriteBits(p.level, 8)
	w.WriteUE(p.id)
	w.WriteUE(p.log2FrameNumM4)
	w.WriteUE(p.pocType)
	switch p.pocType {
	case 0:
		w.WriteUE(p.log2POCLsbM4)
	case 1:
		w.WriteFlag(p.deltaAlwaysZero)
		w.WriteSE(p.offsetNonRef)
		w.WriteSE(p.offsetTopToBottom)
		w.WriteUE(uint32(len(p.refOffsets)))
		for _, o := range p.refOffsets {
			w.WriteSE(o)
		}
	}
	w.WriteUE(p.maxRefFrames)
	w.WriteFlag(p.gaps)
	w.WriteUE(p.widthMbsM1)
	w.WriteUE(p.heightMapM1)
	w.WriteFlag(p.frameMbsOnly)
	if !p.frameMbsOnly {
		w.WriteFlag(false) // mb_adaptive_frame_field_flag
	}
	w.WriteFlag(p.direct8x8)
	if p.crop != nil {
		w.WriteFlag(true)
		for _, v := range p.crop {
			w.WriteUE(v)
		}
	} else {
		w.WriteFlag(false)
	}
	if p.vui != nil {
		w.WriteFlag(true)
		p.vui(w)
	} else {
		w.WriteFlag(false)
	}
	w.WriteTrailingBits()
	return w.Bytes()
}

func mustParseSPS(t *testing.T, p spsParams) *SPS {
	t.Helper()
	sps, err := ParseSPS(buildSPS(p))
	if err != nil {
		t.Fatalf("ParseSPS: %v", err)
	}
	return sps
}

// ppsParams drives buildPPS for the syntax this decoder exercises
// (one slice group, no trailing scaling matrix).
type ppsParams struct {
	id    uint32
	spsID uint32

	cabac            bool
	picOrderPresent  bool
	numRefIdxL0M1    uint32
	numRefIdxL1M1    uint32
	weightedPred     bool
	weightedBipred   uint32
	qpM26            int32
	chromaQPOffset   int32
	deblockControl   bool
	constrainedIntra bool
	redundantPresent bool

	// When extended is set the Transform8x8/second-offset tail is
	// written after the mandatory fields.
	extended       bool
	transform8x8   bool
	secondQPOffset int32
}

func defaultPPSParams() ppsParams {
	return ppsParams{}
}

func buildPPS(p ppsParams) []byte {
	w := bits.NewWriter()
	w.WriteUE(p.id)
	w.WriteUE(p.spsID)
	w.WriteFlag(p.cabac)
	w.WriteFlag(p.picOrderPresent)
	w.WriteUE(0) // num_slice_groups_minus1
	w.WriteUE(p.numRefIdxL0M1)
	w.WriteUE(p.numRefIdxL1M1)
	w.WriteFlag(p.weightedPred)
	w.WriteBits(p.weightedBipred, 2)
	w.WriteSE(p.qpM26)
	w.WriteSE(0) // pic_init_qs_minus26
	w.WriteSE(p.chromaQPOffset)
	w.WriteFlag(p.deblockControl)
	w.WriteFlag(p.constrainedIntra)
	w.WriteFlag(p.redundantPresent)
	if p.extended {
		w.WriteFlag(p.transform8x8)
		w.WriteFlag(false) // pic_scaling_matrix_present_flag
		w.WriteSE(p.secondQPOffset)
	}
	w.WriteTrailingBits()
	return w.Bytes()
}

func mustParsePPS(t *testing.T, p ppsParams, sps *SPS) *PPS {
	t.Helper()
	lookup := func(id uint32) *SPS {
		if sps != nil && sps.ID == id {
			return sps
		}
		return nil
	}
	pps, err := ParsePPS(buildPPS(p), lookup)
	if err != nil {
		t.Fatalf("ParsePPS: %v", err)
	}
	return pps
}

// paramSetPair builds a matching SPS and PPS and returns lookups for
// ParseSliceHeader.
func paramSetPair(t *testing.T, sp spsParams, pp ppsParams) (*SPS, *PPS,
	func(uint32) *PPS, func(uint32) *SPS) {
	t.Helper()
	sps := mustParseSPS(t, sp)
	pps := mustParsePPS(t, pp, sps)
	lookupPPS := func(id uint32) *PPS {
		if id == pps.ID {
			return pps
		}
		return nil
	}
	lookupSPS := func(id uint32) *SPS {
		if id == sps.ID {
			return sps
		}
		return nil
	}
	return sps, pps, lookupPPS, lookupSPS
}
