package avc

import "testing"

func TestPOCType0Sequence(t *testing.T) {
	sps := mustParseSPS(t, defaultSPSParams())
	var st pocState

	hdr := func(idr bool, refIdc uint8, lsb uint32) *SliceHeader {
		return &SliceHeader{SPS: sps, IDR: idr, NalRefIdc: refIdc, POCLsb: lsb}
	}

	if got := st.compute(hdr(true, 3, 0), 0); got != 0 {
		t.Errorf("idr poc = %d, want 0", got)
	}
	if got := st.compute(hdr(false, 1, 4), 0); got != 4 {
		t.Errorf("poc = %d, want 4", got)
	}
	// A non-reference picture must not move the msb/lsb baseline.
	if got := st.compute(hdr(false, 0, 6), 1); got != 6 {
		t.Errorf("non-ref poc = %d, want 6", got)
	}
	if got := st.compute(hdr(false, 1, 12), 1); got != 12 {
		t.Errorf("poc = %d, want 12", got)
	}
	// lsb wraps from 12 down to 2: msb steps up by 16.
	if got := st.compute(hdr(false, 1, 2), 2); got != 18 {
		t.Errorf("wrapped poc = %d, want 18", got)
	}
}

func TestPOCType0DeltaBottom(t *testing.T) {
	p := defaultSPSParams()
	sps := mustParseSPS(t, p)
	var st pocState

	h := &SliceHeader{SPS: sps, NalRefIdc: 1, POCLsb: 8, DeltaPOCBottom: -2}
	if got := st.compute(h, 0); got != 6 {
		t.Errorf("poc = %d, want 6 (lsb 8 with bottom delta -2)", got)
	}
}

func TestPOCType0IDRReset(t *testing.T) {
	sps := mustParseSPS(t, defaultSPSParams())
	var st pocState

	st.compute(&SliceHeader{SPS: sps, NalRefIdc: 1, POCLsb: 12}, 0)
	got := st.compute(&SliceHeader{SPS: sps, NalRefIdc: 3, IDR: true, POCLsb: 0}, 1)
	if got != 0 {
		t.Errorf("idr poc = %d, want 0 after reset", got)
	}
	// Baselines restart from the IDR, not from the old msb.
	if got := st.compute(&SliceHeader{SPS: sps, NalRefIdc: 1, POCLsb: 4}, 0); got != 4 {
		t.Errorf("poc after idr = %d, want 4", got)
	}
}

func TestPOCType1Cycle(t *testing.T) {
	p := defaultSPSParams()
	p.pocType = 1
	p.deltaAlwaysZero = true
	p.offsetNonRef = -1
	p.refOffsets = []int32{4}
	sps := mustParseSPS(t, p)
	var st pocState

	hdr := func(idr bool, refIdc uint8, frameNum uint32) *SliceHeader {
		return &SliceHeader{SPS: sps, IDR: idr, NalRefIdc: refIdc, FrameNum: frameNum}
	}

	if got := st.compute(hdr(true, 3, 0), 0); got != 0 {
		t.Errorf("idr poc = %d, want 0", got)
	}
	if got := st.compute(hdr(false, 1, 1), 0); got != 4 {
		t.Errorf("frame 1 poc = %d, want 4", got)
	}
	if got := st.compute(hdr(false, 1, 2), 1); got != 8 {
		t.Errorf("frame 2 poc = %d, want 8", got)
	}
	// Non-reference: absFrameNum steps back one and the non-ref
	// offset applies.
	if got := st.compute(hdr(false, 0, 3), 2); got != 7 {
		t.Errorf("non-ref poc = %d, want 7", got)
	}
}

func TestPOCType2WrapAndNonRef(t *testing.T) {
	p := defaultSPSParams()
	p.pocType = 2
	sps := mustParseSPS(t, p)
	var st pocState

	hdr := func(refIdc uint8, frameNum uint32) *SliceHeader {
		return &SliceHeader{SPS: sps, NalRefIdc: refIdc, FrameNum: frameNum}
	}

	if got := st.compute(&SliceHeader{SPS: sps, NalRefIdc: 3, IDR: true}, 0); got != 0 {
		t.Errorf("idr poc = %d, want 0", got)
	}
	if got := st.compute(hdr(1, 14), 0); got != 28 {
		t.Errorf("poc = %d, want 28", got)
	}
	if got := st.compute(hdr(1, 15), 14); got != 30 {
		t.Errorf("poc = %d, want 30", got)
	}
	// frame_num wraps 15 -> 0: the offset absorbs one modulo span.
	if got := st.compute(hdr(1, 0), 15); got != 32 {
		t.Errorf("wrapped poc = %d, want 32", got)
	}
	// Non-reference pictures sit one count below the reference grid.
	if got := st.compute(hdr(0, 1), 0); got != 33 {
		t.Errorf("non-ref poc = %d, want 33", got)
	}
}
