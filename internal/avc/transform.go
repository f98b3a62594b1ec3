package avc

// Inverse scanning, scaling and transform processes of Section 8.5.
// Residual blocks arrive from the entropy layer in coded (zigzag)
// order; scaling happens on the coded order, the inverse scan turns
// it into a raster block and the core transform runs in place.

// scanZigzag4x4 maps coded positions onto raster indices (Table 8-13,
// frame scan).
var scanZigzag4x4 = [16]uint8{
	0, 1, 4, 8, 5, 2, 3, 6,
	9, 12, 13, 10, 7, 11, 14, 15,
}

// scanZigzag8x8 is the frame scan of Table 8-14.
var scanZigzag8x8 = [64]uint8{
	0, 1, 8, 16, 9, 2, 3, 10,
	17, 24, 32, 25, 18, 11, 4, 5,
	12, 19, 26, 33, 40, 48, 41, 34,
	27, 20, 13, 6, 7, 14, 21, 28,
	35, 42, 49, 56, 57, 50, 43, 36,
	29, 22, 15, 23, 30, 37, 44, 51,
	58, 59, 52, 45, 38, 31, 39, 46,
	53, 60, 61, 54, 47, 55, 62, 63,
}

// scanChromaDC422 orders the eight 4:2:2 chroma DC coefficients onto
// the 4x2 DC matrix (Section 8.5.4).
var scanChromaDC422 = [8]uint8{0, 2, 1, 4, 6, 3, 5, 7}

// normAdjust4x4 is indexed by qP%6 and the position class of a 4x4
// block: 0 for both indices even, 2 for both odd, 1 otherwise.
var normAdjust4x4 = [6][3]int32{
	{10, 13, 16},
	{11, 14, 18},
	{13, 16, 20},
	{14, 18, 23},
	{16, 20, 25},
	{18, 23, 29},
}

// normAdjust8x8 is indexed by qP%6 and class8x8 of the raster
// position.
var normAdjust8x8 = [6][6]int32{
	{20, 18, 32, 19, 25, 24},
	{22, 19, 35, 21, 28, 26},
	{26, 23, 42, 24, 33, 31},
	{28, 25, 45, 26, 35, 33},
	{32, 28, 51, 30, 40, 38},
	{36, 32, 58, 34, 46, 43},
}

// class8x8 maps raster positions of an 8x8 block onto normAdjust8x8
// columns.
var class8x8 = [64]uint8{
	0, 3, 4, 3, 0, 3, 4, 3,
	3, 1, 5, 1, 3, 1, 5, 1,
	4, 5, 2, 5, 4, 5, 2, 5,
	3, 1, 5, 1, 3, 1, 5, 1,
	0, 3, 4, 3, 0, 3, 4, 3,
	3, 1, 5, 1, 3, 1, 5, 1,
	4, 5, 2, 5, 4, 5, 2, 5,
	3, 1, 5, 1, 3, 1, 5, 1,
}

// chromaQPTable is Table 8-15, mapping the clipped luma quantizer
// onto the chroma quantizer.
var chromaQPTable = [52]int32{
	0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15,
	16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 29, 30,
	31, 32, 32, 33, 34, 34, 35, 35, 36, 36, 37, 37, 37, 38, 38, 38,
	39, 39, 39, 39,
}

// chromaQP maps a luma quantizer plus chroma offset onto the chroma
// quantizer.
func chromaQP(qpY, offset int32) int32 {
	return chromaQPTable[clip3(0, 51, int(qpY+offset))]
}

func coeffClass4x4(raster uint8) int {
	row, col := raster>>2, raster&3
	switch {
	case row&1 == 0 && col&1 == 0:
		return 0
	case row&1 == 1 && col&1 == 1:
		return 2
	default:
		return 1
	}
}

// activeScaling4x4 selects the raster-order weight matrix for a 4x4
// block on the given plane (0 luma, 1 Cb, 2 Cr). Picture-level lists
// replace the sequence-level ones when the PPS carries a matrix
// (Table 7-2 numbering).
func activeScaling4x4(sps *SPS, pps *PPS, intra bool, plane int) *[16]uint8 {
	idx := plane
	if !intra {
		idx += 3
	}
	if pps.HasScalingMatrix {
		return &pps.ScalingList4x4[idx]
	}
	return &sps.ScalingList4x4[idx]
}

// activeScaling8x8 selects the weight matrix for an 8x8 luma block.
func activeScaling8x8(sps *SPS, pps *PPS, intra bool) *[64]uint8 {
	idx := 0
	if !intra {
		idx = 1
	}
	if pps.HasScalingMatrix && len(pps.ScalingList8x8) > idx {
		return &pps.ScalingList8x8[idx]
	}
	return &sps.ScalingList8x8[idx]
}

// dequant4x4 scales the coded-order levels of a 4x4 block in place
// (Section 8.5.12.2). from is 0 for blocks carrying their own DC and
// 1 for AC-only blocks whose DC came out of a separate transform.
func dequant4x4(block *[16]int32, qp int32, weight *[16]uint8, from int) {
	m, r := qp/6, qp%6
	for i := from; i < 16; i++ {
		c := block[i]
		if c == 0 {
			continue
		}
		raster := scanZigzag4x4[i]
		ls := int32(weight[raster]) * normAdjust4x4[r][coeffClass4x4(raster)]
		if m >= 4 {
			block[i] = (c * ls) << uint(m-4)
		} else {
			block[i] = (c*ls + 1<<uint(3-m)) >> uint(4-m)
		}
	}
}

// dequant8x8 scales the coded-order levels of an 8x8 block in place
// (Section 8.5.13.1).
func dequant8x8(block *[64]int32, qp int32, weight *[64]uint8) {
	m, r := qp/6, qp%6
	for i, c := range block {
		if c == 0 {
			continue
		}
		raster := scanZigzag8x8[i]
		ls := int32(weight[raster]) * normAdjust8x8[r][class8x8[raster]]
		if m >= 6 {
			block[i] = (c * ls) << uint(m-6)
		} else {
			block[i] = (c*ls + 1<<uint(5-m)) >> uint(6-m)
		}
	}
}

// dequantLumaDC scales the inverse transformed Intra_16x16 DC block
// in place (Section 8.5.10). The block is raster order.
func dequantLumaDC(dc *[16]int32, qp int32, weight *[16]uint8) {
	ls := int32(weight[0]) * normAdjust4x4[qp%6][0]
	m := qp / 6
	for i, f := range dc {
		if m >= 6 {
			dc[i] = (f * ls) << uint(m-6)
		} else {
			dc[i] = (f*ls + 1<<uint(5-m)) >> uint(6-m)
		}
	}
}

// dequantChromaDC scales inverse transformed chroma DC values in
// place (Section 8.5.11.2). dc holds 4 values for 4:2:0 or 8 for
// 4:2:2; the 4:2:2 DC quantizer is the chroma quantizer plus 3.
func dequantChromaDC(dc []int32, qpc int32, weight *[16]uint8) {
	qp := qpc
	if len(dc) == 8 {
		qp += 3
	}
	ls := int32(weight[0]) * normAdjust4x4[qp%6][0]
	shift := uint(qp / 6)
	for i, f := range dc {
		dc[i] = ((f * ls) << shift) >> 5
	}
}

// inverseScan4x4 turns a coded-order block into raster order.
func inverseScan4x4(scan *[16]int32) (blk [16]int32) {
	for i, v := range scan {
		blk[scanZigzag4x4[i]] = v
	}
	return blk
}

// inverseScan8x8 turns a coded-order block into raster order.
func inverseScan8x8(scan *[64]int32) (blk [64]int32) {
	for i, v := range scan {
		blk[scanZigzag8x8[i]] = v
	}
	return blk
}

// inverseScanChromaDC maps coded chroma DC values onto the raster DC
// matrix. dst and scan hold 4 values for 4:2:0 or 8 for 4:2:2.
func inverseScanChromaDC(dst, scan []int32) {
	if len(scan) == 8 {
		for i, v := range scan {
			dst[scanChromaDC422[i]] = v
		}
		return
	}
	copy(dst, scan)
}

// idct4x4 runs the 4x4 core transform of Section 8.5.12.3 in place on
// a raster block, including the final (x+32)>>6 rounding.
func idct4x4(m *[16]int32) {
	for i := 0; i < 16; i += 4 {
		s0, s1, s2, s3 := m[i], m[i+1], m[i+2], m[i+3]
		e0, e1 := s0+s2, s0-s2
		e2, e3 := (s1>>1)-s3, s1+(s3>>1)
		m[i], m[i+1], m[i+2], m[i+3] = e0+e3, e1+e2, e1-e2, e0-e3
	}
	for i := 0; i < 4; i++ {
		s0, s1, s2, s3 := m[i], m[i+4], m[i+8], m[i+12]
		e0, e1 := s0+s2, s0-s2
		e2, e3 := (s1>>1)-s3, s1+(s3>>1)
		m[i] = (e0 + e3 + 32) >> 6
		m[i+4] = (e1 + e2 + 32) >> 6
		m[i+8] = (e1 - e2 + 32) >> 6
		m[i+12] = (e0 - e3 + 32) >> 6
	}
}

func idct8(s *[8]int32) [8]int32 {
	a0 := s[0] + s[4]
	a2 := s[0] - s[4]
	a4 := (s[2] >> 1) - s[6]
	a6 := s[2] + (s[6] >> 1)
	b0 := a0 + a6
	b2 := a2 + a4
	b4 := a2 - a4
	b6 := a0 - a6
	a1 := -s[3] + s[5] - s[7] - (s[7] >> 1)
	a3 := s[1] + s[7] - s[3] - (s[3] >> 1)
	a5 := -s[1] + s[7] + s[5] + (s[5] >> 1)
	a7 := s[3] + s[5] + s[1] + (s[1] >> 1)
	b1 := a1 + (a7 >> 2)
	b7 := a7 - (a1 >> 2)
	b3 := a3 + (a5 >> 2)
	b5 := (a3 >> 2) - a5
	return [8]int32{
		b0 + b7, b2 + b5, b4 + b3, b6 + b1,
		b6 - b1, b4 - b3, b2 - b5, b0 - b7,
	}
}

// idct8x8 runs the 8x8 core transform of Section 8.5.13.2 in place on
// a raster block, including the final (x+32)>>6 rounding.
func idct8x8(m *[64]int32) {
	var v [8]int32
	for r := 0; r < 64; r += 8 {
		copy(v[:], m[r:r+8])
		out := idct8(&v)
		copy(m[r:r+8], out[:])
	}
	for c := 0; c < 8; c++ {
		for r := 0; r < 8; r++ {
			v[r] = m[r*8+c]
		}
		out := idct8(&v)
		for r := 0; r < 8; r++ {
			m[r*8+c] = (out[r] + 32) >> 6
		}
	}
}

// hadamard4x4 is the Intra_16x16 DC inverse transform of Section
// 8.5.10, raster order, no rounding shift.
func hadamard4x4(m *[16]int32) {
	for i := 0; i < 16; i += 4 {
		a, b := m[i]+m[i+2], m[i]-m[i+2]
		c, d := m[i+1]-m[i+3], m[i+1]+m[i+3]
		m[i], m[i+1], m[i+2], m[i+3] = a+d, b+c, b-c, a-d
	}
	for i := 0; i < 4; i++ {
		a, b := m[i]+m[i+8], m[i]-m[i+8]
		c, d := m[i+4]-m[i+12], m[i+4]+m[i+12]
		m[i], m[i+4], m[i+8], m[i+12] = a+d, b+c, b-c, a-d
	}
}

// hadamard2x2 is the 4:2:0 chroma DC inverse transform of Section
// 8.5.11.1 on the raster matrix [c00 c01; c10 c11].
func hadamard2x2(m *[4]int32) {
	a, b := m[0]+m[1], m[0]-m[1]
	c, d := m[2]+m[3], m[2]-m[3]
	m[0], m[1], m[2], m[3] = a+c, b+d, a-c, b-d
}

// hadamard2x4 is the 4:2:2 chroma DC inverse transform of Section
// 8.5.11.2 on a raster matrix of four rows by two columns.
func hadamard2x4(m *[8]int32) {
	for c := 0; c < 2; c++ {
		s0, s1, s2, s3 := m[c], m[2+c], m[4+c], m[6+c]
		a, b := s0+s2, s0-s2
		e, d := s1-s3, s1+s3
		m[c], m[2+c], m[4+c], m[6+c] = a+d, b+e, b-e, a-d
	}
	for r := 0; r < 8; r += 2 {
		m[r], m[r+1] = m[r]+m[r+1], m[r]-m[r+1]
	}
}

// addBlock adds a bw x bh residual to the plane at (x0, y0), clipping
// to the 8-bit sample range. Rows falling outside the plane are
// dropped so corrupt geometry cannot write out of bounds.
func addBlock(plane []uint8, stride, x0, y0, bw, bh int, res []int32) {
	for y := 0; y < bh; y++ {
		row := (y0+y)*stride + x0
		if row < 0 || row+bw > len(plane) {
			continue
		}
		for x := 0; x < bw; x++ {
			p := &plane[row+x]
			*p = clipByte(int(*p) + int(res[y*bw+x]))
		}
	}
}

// transformBypass reports whether the lossless path of Section 8.5.15
// is active: residuals are added as sent, with no scaling and no
// transform.
func transformBypass(sps *SPS, qp int32) bool {
	return sps.QpprimeYZeroBypass && qp == 0
}
