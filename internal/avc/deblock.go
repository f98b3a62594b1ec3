package avc

// In-loop deblocking (Section 8.7). The filter runs once per
// completed picture in macroblock raster order, vertical edges
// before horizontal, reading samples already modified by earlier
// edges. Boundary strengths come from the decode-time grids; slice
// filter parameters apply to the edges of the macroblocks each
// slice owns.

// deblockParams is one slice's contribution to the filter: the
// disable idc, the alpha/beta offsets (already doubled from their
// div2 syntax elements), the chroma QP offsets of the slice's PPS
// and the reference lists that resolve its ref_idx values.
type deblockParams struct {
	disable  uint32
	alphaOff int
	betaOff  int
	cbOff    int32
	crOff    int32
	refs     [2][]refPicture
}

type deblocker struct {
	pic       *Picture
	st        *mbState
	params    []deblockParams
	chroma420 bool
}

// deblockPicture filters a reconstructed picture in place. params is
// indexed by the slice IDs recorded in st; macroblocks without a
// valid slice (never decoded, not concealed) are left untouched.
func deblockPicture(pic *Picture, st *mbState, params []deblockParams, chroma420 bool) {
	d := deblocker{pic: pic, st: st, params: params, chroma420: chroma420}
	for my := 0; my < st.mbH; my++ {
		for mx := 0; mx < st.mbW; mx++ {
			d.filterMB(mx, my)
		}
	}
}

func (d *deblocker) filterMB(mx, my int) {
	idx := d.st.mbIdx(mx, my)
	sid := d.st.sliceID[idx]
	if sid < 0 || int(sid) >= len(d.params) {
		return
	}
	pp := &d.params[sid]
	if pp.disable == 1 {
		return
	}
	d.filterEdges(mx, my, idx, pp, true)
	d.filterEdges(mx, my, idx, pp, false)
}

func (d *deblocker) filterEdges(mx, my, idx int, pp *deblockParams, vertical bool) {
	st := d.st
	t8 := st.transform8[idx]
	for e := 0; e < 4; e++ {
		pIdx := idx
		if e == 0 {
			if vertical {
				if mx == 0 {
					continue
				}
				pIdx = st.mbIdx(mx-1, my)
			} else {
				if my == 0 {
					continue
				}
				pIdx = st.mbIdx(mx, my-1)
			}
			if st.sliceID[pIdx] < 0 || int(st.sliceID[pIdx]) >= len(d.params) {
				continue
			}
			if pp.disable == 2 && st.sliceID[pIdx] != st.sliceID[idx] {
				continue
			}
		}
		// 8x8 transforms have no interior 4x4 luma edges; 4:2:2
		// chroma still has horizontal transform edges at every
		// fourth row.
		lumaEdge := e%2 == 0 || !t8
		chromaEdge := e%2 == 0 || (!vertical && !d.chroma420)
		if !lumaEdge && !chromaEdge {
			continue
		}
		bs := d.edgeStrength(mx, my, e, vertical)
		if bs == [4]uint8{} {
			continue
		}
		if lumaEdge {
			d.lumaEdge(mx, my, e, pIdx, idx, pp, vertical, &bs)
		}
		if chromaEdge {
			d.chromaEdge(mx, my, e, pIdx, idx, pp, vertical, &bs)
		}
	}
}

// edgeStrength derives the boundary strength of each 4-sample
// segment along one edge (8.7.2.1, frame coding).
func (d *deblocker) edgeStrength(mx, my, e int, vertical bool) (bs [4]uint8) {
	for i := 0; i < 4; i++ {
		var px4, py4, qx4, qy4 int
		if vertical {
			qx4, qy4 = mx*4+e, my*4+i
			px4, py4 = qx4-1, qy4
		} else {
			qx4, qy4 = mx*4+i, my*4+e
			px4, py4 = qx4, qy4-1
		}
		bs[i] = d.strength(px4, py4, qx4, qy4, e == 0)
	}
	return bs
}

func (d *deblocker) strength(px4, py4, qx4, qy4 int, mbEdge bool) uint8 {
	st := d.st
	pMB := st.mbIdx(px4/4, py4/4)
	qMB := st.mbIdx(qx4/4, qy4/4)
	if st.class[pMB].intra() || st.class[qMB].intra() {
		if mbEdge {
			return 4
		}
		return 3
	}
	w4 := st.mbW * 4
	if st.lumaNZ[py4*w4+px4] > 0 || st.lumaNZ[qy4*w4+qx4] > 0 {
		return 2
	}
	if d.motionDiffers(d.motionOf(px4, py4, pMB), d.motionOf(qx4, qy4, qMB)) {
		return 1
	}
	return 0
}

// edgeMotion is one 4x4 block's predictions resolved to reference
// pictures, so blocks from different slices compare correctly even
// when their lists were modified apart.
type edgeMotion struct {
	pic  [2]*Picture
	mvx  [2]int
	mvy  [2]int
	used [2]bool
}

func (em edgeMotion) count() int {
	n := 0
	if em.used[0] {
		n++
	}
	if em.used[1] {
		n++
	}
	return n
}

func (em edgeMotion) single() int {
	if em.used[0] {
		return 0
	}
	return 1
}

func (d *deblocker) motionOf(x4, y4, mbIdx int) edgeMotion {
	var em edgeMotion
	sid := d.st.sliceID[mbIdx]
	if sid < 0 || int(sid) >= len(d.params) {
		return em
	}
	refs := d.params[sid].refs
	i := y4*d.st.mbW*4 + x4
	for l := 0; l < 2; l++ {
		r := d.st.refIdx[l][i]
		if r < 0 || int(r) >= len(refs[l]) {
			continue
		}
		em.pic[l] = refs[l][r].pic
		em.mvx[l] = int(d.st.mvX[l][i])
		em.mvy[l] = int(d.st.mvY[l][i])
		em.used[l] = true
	}
	return em
}

// motionDiffers applies the bS=1 reference and vector test: the two
// blocks must use the same number of predictions, the same reference
// pictures, and vectors within a full sample of each other under
// some assignment of p's predictions to q's.
func (d *deblocker) motionDiffers(p, q edgeMotion) bool {
	n := p.count()
	if n != q.count() {
		return true
	}
	switch n {
	case 0:
		return false
	case 1:
		pi, qi := p.single(), q.single()
		return p.pic[pi] != q.pic[qi] ||
			absInt(p.mvx[pi]-q.mvx[qi]) >= 4 ||
			absInt(p.mvy[pi]-q.mvy[qi]) >= 4
	default:
		return !pairMatches(p, q, 0, 1) && !pairMatches(p, q, 1, 0)
	}
}

func pairMatches(p, q edgeMotion, q0, q1 int) bool {
	return p.pic[0] == q.pic[q0] && p.pic[1] == q.pic[q1] &&
		absInt(p.mvx[0]-q.mvx[q0]) < 4 && absInt(p.mvy[0]-q.mvy[q0]) < 4 &&
		absInt(p.mvx[1]-q.mvx[q1]) < 4 && absInt(p.mvy[1]-q.mvy[q1]) < 4
}

// filterThresholds resolves alpha, beta and the tc0 row for one edge
// from the averaged QP and the slice offsets (8.7.2.2).
func filterThresholds(qpAvg int32, pp *deblockParams) (alpha, beta int, tcRow *[3]uint8) {
	indexA := clip3(0, 51, int(qpAvg)+pp.alphaOff)
	indexB := clip3(0, 51, int(qpAvg)+pp.betaOff)
	return int(alphaTable[indexA]), int(betaTable[indexB]), &tc0Table[indexA]
}

func (d *deblocker) lumaEdge(mx, my, e, pIdx, qIdx int, pp *deblockParams, vertical bool, bs *[4]uint8) {
	qpAvg := (int32(d.st.qp[pIdx]) + int32(d.st.qp[qIdx]) + 1) >> 1
	alpha, beta, tcRow := filterThresholds(qpAvg, pp)
	if alpha == 0 || beta == 0 {
		return
	}
	stride := d.pic.StrideY
	var base, step, lineStep int
	if vertical {
		base = my*16*stride + mx*16 + e*4
		step = 1
		lineStep = stride
	} else {
		base = (my*16+e*4)*stride + mx*16
		step = stride
		lineStep = 1
	}
	for i := 0; i < 16; i++ {
		s := bs[i>>2]
		if s == 0 {
			continue
		}
		tc0 := 0
		if s < 4 {
			tc0 = int(tcRow[s-1])
		}
		filterLumaLine(d.pic.Y, base+i*lineStep, step, s, alpha, beta, tc0)
	}
}

func (d *deblocker) chromaEdge(mx, my, e, pIdx, qIdx int, pp *deblockParams, vertical bool, bs *[4]uint8) {
	mbH := 8
	if !d.chroma420 {
		mbH = 16
	}
	stride := d.pic.StrideC
	var base, step, lineStep, lines, shift int
	if vertical {
		base = my*mbH*stride + mx*8 + e*2
		step = 1
		lineStep = stride
		lines = mbH
		shift = 1
		if !d.chroma420 {
			shift = 2
		}
	} else {
		yOff := e * 2
		if !d.chroma420 {
			yOff = e * 4
		}
		base = (my*mbH+yOff)*stride + mx*8
		step = stride
		lineStep = 1
		lines = 8
		shift = 1
	}
	planes := [2][]uint8{d.pic.Cb, d.pic.Cr}
	for pi, plane := range planes {
		cr := pi == 1
		qpAvg := (d.chromaQPAt(pIdx, cr) + d.chromaQPAt(qIdx, cr) + 1) >> 1
		alpha, beta, tcRow := filterThresholds(qpAvg, pp)
		if alpha == 0 || beta == 0 {
			continue
		}
		for i := 0; i < lines; i++ {
			s := bs[i>>shift]
			if s == 0 {
				continue
			}
			tc0 := 0
			if s < 4 {
				tc0 = int(tcRow[s-1])
			}
			filterChromaLine(plane, base+i*lineStep, step, s, alpha, beta, tc0)
		}
	}
}

// chromaQPAt maps one macroblock's stored QP through the chroma
// table with its own slice's PPS offset.
func (d *deblocker) chromaQPAt(mbIdx int, cr bool) int32 {
	pp := &d.params[d.st.sliceID[mbIdx]]
	off := pp.cbOff
	if cr {
		off = pp.crOff
	}
	return chromaQP(int32(d.st.qp[mbIdx]), off)
}

// filterLumaLine filters one line of luma samples across an edge.
// off indexes q0; step is the sample distance across the edge. All
// outputs are computed from the input values captured up front.
func filterLumaLine(p []uint8, off, step int, bs uint8, alpha, beta, tc0 int) {
	q0 := int(p[off])
	p0 := int(p[off-step])
	if absInt(p0-q0) >= alpha {
		return
	}
	p1 := int(p[off-2*step])
	q1 := int(p[off+step])
	if absInt(p1-p0) >= beta || absInt(q1-q0) >= beta {
		return
	}
	p2 := int(p[off-3*step])
	q2 := int(p[off+2*step])
	ap := absInt(p2-p0) < beta
	aq := absInt(q2-q0) < beta

	if bs == 4 {
		strong := absInt(p0-q0) < (alpha>>2)+2
		if ap && strong {
			p3 := int(p[off-4*step])
			p[off-step] = uint8((p2 + 2*p1 + 2*p0 + 2*q0 + q1 + 4) >> 3)
			p[off-2*step] = uint8((p2 + p1 + p0 + q0 + 2) >> 2)
			p[off-3*step] = uint8((2*p3 + 3*p2 + p1 + p0 + q0 + 4) >> 3)
		} else {
			p[off-step] = uint8((2*p1 + p0 + q1 + 2) >> 2)
		}
		if aq && strong {
			q3 := int(p[off+3*step])
			p[off] = uint8((q2 + 2*q1 + 2*q0 + 2*p0 + p1 + 4) >> 3)
			p[off+step] = uint8((q2 + q1 + q0 + p0 + 2) >> 2)
			p[off+2*step] = uint8((2*q3 + 3*q2 + q1 + q0 + p0 + 4) >> 3)
		} else {
			p[off] = uint8((2*q1 + q0 + p1 + 2) >> 2)
		}
		return
	}

	tc := tc0
	if ap {
		tc++
	}
	if aq {
		tc++
	}
	if tc == 0 {
		return
	}
	delta := clip3(-tc, tc, ((q0-p0)*4+(p1-q1)+4)>>3)
	p[off-step] = clipByte(p0 + delta)
	p[off] = clipByte(q0 - delta)
	if ap {
		p[off-2*step] = uint8(p1 + clip3(-tc0, tc0, (p2+((p0+q0+1)>>1)-2*p1)>>1))
	}
	if aq {
		p[off+step] = uint8(q1 + clip3(-tc0, tc0, (q2+((q0+p0+1)>>1)-2*q1)>>1))
	}
}

// filterChromaLine is the two-sample chroma variant: tc0+1 clipping
// for bS 1..3, the 3-tap smoother for bS 4.
func filterChromaLine(p []uint8, off, step int, bs uint8, alpha, beta, tc0 int) {
	q0 := int(p[off])
	p0 := int(p[off-step])
	if absInt(p0-q0) >= alpha {
		return
	}
	p1 := int(p[off-2*step])
	q1 := int(p[off+step])
	if absInt(p1-p0) >= beta || absInt(q1-q0) >= beta {
		return
	}
	if bs == 4 {
		p[off-step] = uint8((2*p1 + p0 + q1 + 2) >> 2)
		p[off] = uint8((2*q1 + q0 + p1 + 2) >> 2)
		return
	}
	tc := tc0 + 1
	delta := clip3(-tc, tc, ((q0-p0)*4+(p1-q1)+4)>>3)
	p[off-step] = clipByte(p0 + delta)
	p[off] = clipByte(q0 - delta)
}

// Table 8-16: alpha and beta thresholds by clipped index.
var alphaTable = [52]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	4, 4, 5, 6, 7, 8, 9, 10, 12, 13, 15, 17, 20, 22, 25, 28,
	32, 36, 40, 45, 50, 56, 63, 71, 80, 90, 101, 113, 127, 144, 162, 182,
	203, 226, 255, 255,
}

var betaTable = [52]uint8{
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 6, 6, 7, 7, 8, 8,
	9, 9, 10, 10, 11, 11, 12, 12, 13, 13, 14, 14, 15, 15, 16, 16,
	17, 17, 18, 18,
}

// Table 8-17: tc0 by clipped index and bS-1.
var tc0Table = [52][3]uint8{
	{0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},
	{0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0},
	{0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 1},
	{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 1, 1}, {0, 1, 1}, {1, 1, 1},
	{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 2}, {1, 1, 2}, {1, 1, 2},
	{1, 1, 2}, {1, 2, 3}, {1, 2, 3}, {2, 2, 3}, {2, 2, 4}, {2, 3, 4},
	{2, 3, 4}, {3, 3, 5}, {3, 4, 6}, {3, 4, 6}, {4, 5, 7}, {4, 5, 8},
	{4, 6, 9}, {5, 7, 10}, {6, 8, 11}, {6, 8, 13}, {7, 10, 14}, {8, 11, 16},
	{9, 13, 18}, {10, 14, 20}, {11, 16, 23}, {13, 18, 25},
}
