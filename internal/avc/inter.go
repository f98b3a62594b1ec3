package avc

// Inter prediction: motion vector prediction (Section 8.4.1.3),
// P_Skip motion (8.4.1.1) and the two B direct modes (8.4.1.2).
// Coordinates are absolute 4x4 cell positions; partition origins
// always lie inside their macroblock.

// quadrant maps a cell position inside a macroblock to its 8x8
// quadrant in decode order.
func quadrant(relX, relY int) int {
	return relY&^1 + relX>>1
}

// motionAtC fetches the top-right candidate C for the partition at
// origin (x4, y4) with width w4 cells. C lies at (x4+w4, y4-1); when
// that cell falls inside the current macroblock it is only usable if
// its quadrant has been decoded already, and it is never usable from
// the macroblock to the right.
func (s *mbState) motionAtC(list, x4, y4, w4 int, curSlice int32) (mvx, mvy int, ref int8, ok bool) {
	mbX, mbY := x4/4, y4/4
	cx, cy := x4+w4, y4-1
	if cy < 0 || cx >= s.mbW*4 {
		return 0, 0, -1, false
	}
	switch {
	case cy < mbY*4:
		if !s.mbAvail(cx/4, cy/4, curSlice) {
			return 0, 0, -1, false
		}
	case cx >= (mbX+1)*4:
		return 0, 0, -1, false
	default:
		if quadrant(cx-mbX*4, cy-mbY*4) > quadrant(x4-mbX*4, y4-mbY*4) {
			return 0, 0, -1, false
		}
	}
	i := cy*s.mbW*4 + cx
	if s.refIdx[list][i] < 0 {
		return 0, 0, -1, true
	}
	return int(s.mvX[list][i]), int(s.mvY[list][i]), s.refIdx[list][i], true
}

// predictMV derives the motion vector predictor for one partition.
// The 16x8 and 8x16 macroblock partitions use their directional
// shortcuts when the designated neighbor carries the same reference;
// everything else goes through the median rule, with B and C
// replaced by A when both are unavailable.
func (s *mbState) predictMV(list, x4, y4, w4, h4 int, ref int8, curSlice int32) (int, int) {
	mvAx, mvAy, refA, availA := s.motionAt(list, x4-1, y4, curSlice)
	mvBx, mvBy, refB, availB := s.motionAt(list, x4, y4-1, curSlice)
	mvCx, mvCy, refC, availC := s.motionAtC(list, x4, y4, w4, curSlice)
	if !availC {
		mvCx, mvCy, refC, availC = s.motionAt(list, x4-1, y4-1, curSlice)
	}

	switch {
	case w4 == 4 && h4 == 2:
		if y4%4 == 0 {
			if refB == ref {
				return mvBx, mvBy
			}
		} else if refA == ref {
			return mvAx, mvAy
		}
	case w4 == 2 && h4 == 4:
		if x4%4 == 0 {
			if refA == ref {
				return mvAx, mvAy
			}
		} else if refC == ref {
			return mvCx, mvCy
		}
	}

	if !availB && !availC && availA {
		mvBx, mvBy, refB = mvAx, mvAy, refA
		mvCx, mvCy, refC = mvAx, mvAy, refA
	}

	matches := 0
	mx, my := 0, 0
	if refA == ref {
		matches++
		mx, my = mvAx, mvAy
	}
	if refB == ref {
		matches++
		mx, my = mvBx, mvBy
	}
	if refC == ref {
		matches++
		mx, my = mvCx, mvCy
	}
	if matches == 1 {
		return mx, my
	}
	return median3(mvAx, mvBx, mvCx), median3(mvAy, mvBy, mvCy)
}

// pskipMV derives the P_Skip motion (8.4.1.1): zero when either edge
// neighbor is missing or stationary against reference zero, the
// 16x16 predictor otherwise.
func (s *mbState) pskipMV(x4, y4 int, curSlice int32) (int, int) {
	mvAx, mvAy, refA, availA := s.motionAt(0, x4-1, y4, curSlice)
	mvBx, mvBy, refB, availB := s.motionAt(0, x4, y4-1, curSlice)
	if !availA || !availB {
		return 0, 0
	}
	if refA == 0 && mvAx == 0 && mvAy == 0 {
		return 0, 0
	}
	if refB == 0 && mvBx == 0 && mvBy == 0 {
		return 0, 0
	}
	return s.predictMV(0, x4, y4, 4, 4, 0, curSlice)
}

// directMotion is the outcome of a B direct derivation for one
// macroblock. A list with pred false contributes no prediction.
type directMotion struct {
	mvL0x, mvL0y int
	mvL1x, mvL1y int
	refL0, refL1 int8
	predL0       bool
	predL1       bool
}

// colocatedMB is the motion of the co-located macroblock in
// RefPicList1[0], reduced to the list-0-then-list-1 choice of
// Section 8.4.1.2.1.
type colocatedMB struct {
	ref       int8  // co-located reference index, -1 for intra
	poc       int32 // POC of the picture that motion referenced
	mvx, mvy  int
	shortTerm bool // RefPicList1[0] is a short-term reference
}

// colocatedAt reads the stored co-located motion for one macroblock
// position of a list-1 reference picture.
func colocatedAt(pic *Picture, mbX, mbY int, shortTerm bool) colocatedMB {
	if pic == nil || mbX >= pic.mbWidth || mbY >= pic.mbHeight {
		return colocatedMB{ref: -1}
	}
	i := mbY*pic.mbWidth + mbX
	return colocatedMB{
		ref:       pic.colRef[i],
		poc:       pic.colPOC[i],
		mvx:       int(pic.colMVx[i]),
		mvy:       int(pic.colMVy[i]),
		shortTerm: shortTerm,
	}
}

func minPositiveRef(a, b, c int8) int8 {
	r := int8(-1)
	for _, v := range [3]int8{a, b, c} {
		if v >= 0 && (r < 0 || v < r) {
			r = v
		}
	}
	return r
}

// spatialDirectMotion derives B direct motion in spatial mode
// (8.4.1.2.2) for a whole macroblock.
func (s *mbState) spatialDirectMotion(mbX, mbY int, curSlice int32, col colocatedMB) directMotion {
	x4, y4 := mbX*4, mbY*4

	var refsA, refsB, refsC [2]int8
	for list := 0; list < 2; list++ {
		_, _, refsA[list], _ = s.motionAt(list, x4-1, y4, curSlice)
		_, _, refsB[list], _ = s.motionAt(list, x4, y4-1, curSlice)
		var ok bool
		_, _, refsC[list], ok = s.motionAtC(list, x4, y4, 4, curSlice)
		if !ok {
			_, _, refsC[list], _ = s.motionAt(list, x4-1, y4-1, curSlice)
		}
	}
	refL0 := minPositiveRef(refsA[0], refsB[0], refsC[0])
	refL1 := minPositiveRef(refsA[1], refsB[1], refsC[1])

	if refL0 < 0 && refL1 < 0 {
		return directMotion{predL0: true, predL1: true}
	}

	colZero := col.shortTerm && col.ref == 0 &&
		absInt(col.mvx) <= 1 && absInt(col.mvy) <= 1

	var dm directMotion
	dm.refL0, dm.refL1 = refL0, refL1
	if refL0 >= 0 {
		dm.predL0 = true
		if !(refL0 == 0 && colZero) {
			dm.mvL0x, dm.mvL0y = s.predictMV(0, x4, y4, 4, 4, refL0, curSlice)
		}
	}
	if refL1 >= 0 {
		dm.predL1 = true
		if !(refL1 == 0 && colZero) {
			dm.mvL1x, dm.mvL1y = s.predictMV(1, x4, y4, 4, 4, refL1, curSlice)
		}
	}
	return dm
}

// refMeta carries the list entry properties needed for temporal
// direct scaling.
type refMeta struct {
	poc      int32
	longTerm bool
}

// temporalDirectMotion derives B direct motion in temporal mode
// (8.4.1.2.3): the co-located vector is split across the current
// picture's position between its two anchors.
func temporalDirectMotion(curPOC int32, l0 []refMeta, l1zeroPOC int32, col colocatedMB) directMotion {
	dm := directMotion{predL0: true, predL1: true}
	mvx, mvy := col.mvx, col.mvy
	refL0 := 0
	if col.ref < 0 {
		mvx, mvy = 0, 0
	} else {
		for i, r := range l0 {
			if r.poc == col.poc {
				refL0 = i
				break
			}
		}
	}
	dm.refL0 = int8(refL0)
	if refL0 >= len(l0) {
		return dm
	}

	td := clip3(-128, 127, int(l1zeroPOC)-int(l0[refL0].poc))
	if l0[refL0].longTerm || td == 0 {
		dm.mvL0x, dm.mvL0y = mvx, mvy
		return dm
	}
	tb := clip3(-128, 127, int(curPOC)-int(l0[refL0].poc))
	tx := (16384 + absInt(td)/2) / td
	dsf := clip3(-1024, 1023, (tb*tx+32)>>6)
	dm.mvL0x = (dsf*mvx + 128) >> 8
	dm.mvL0y = (dsf*mvy + 128) >> 8
	dm.mvL1x = dm.mvL0x - mvx
	dm.mvL1y = dm.mvL0y - mvy
	return dm
}

// Partition geometry.

// pSubMBInfo maps P sub_mb_type to its sub-partition layout in
// pixels (Table 7-17).
var pSubMBInfo = [4]struct {
	count int
	w, h  int
}{
	{1, 8, 8},
	{2, 8, 4},
	{2, 4, 8},
	{4, 4, 4},
}

// Prediction direction masks: bit 0 list 0, bit 1 list 1.
const (
	predL0 = 1
	predL1 = 2
	predBi = 3
)

// bMBPartInfo maps B mb_type 1..21 to partition count, orientation
// and per-partition prediction (Table 7-14). Entry 0 is
// B_Direct_16x16 and is handled separately.
var bMBPartInfo = [22]struct {
	parts int
	wide  bool // 16x8 when two partitions, 8x16 otherwise
	dir   [2]uint8
}{
	{},
	{1, false, [2]uint8{predL0, 0}},
	{1, false, [2]uint8{predL1, 0}},
	{1, false, [2]uint8{predBi, 0}},
	{2, true, [2]uint8{predL0, predL0}},
	{2, false, [2]uint8{predL0, predL0}},
	{2, true, [2]uint8{predL1, predL1}},
	{2, false, [2]uint8{predL1, predL1}},
	{2, true, [2]uint8{predL0, predL1}},
	{2, false, [2]uint8{predL0, predL1}},
	{2, true, [2]uint8{predL1, predL0}},
	{2, false, [2]uint8{predL1, predL0}},
	{2, true, [2]uint8{predL0, predBi}},
	{2, false, [2]uint8{predL0, predBi}},
	{2, true, [2]uint8{predL1, predBi}},
	{2, false, [2]uint8{predL1, predBi}},
	{2, true, [2]uint8{predBi, predL0}},
	{2, false, [2]uint8{predBi, predL0}},
	{2, true, [2]uint8{predBi, predL1}},
	{2, false, [2]uint8{predBi, predL1}},
	{2, true, [2]uint8{predBi, predBi}},
	{2, false, [2]uint8{predBi, predBi}},
}

// bSubMBInfo maps B sub_mb_type to its layout and prediction
// (Table 7-18). Entry 0 is B_Direct_8x8.
var bSubMBInfo = [13]struct {
	count int
	w, h  int
	dir   uint8
}{
	{4, 4, 4, 0},
	{1, 8, 8, predL0},
	{1, 8, 8, predL1},
	{1, 8, 8, predBi},
	{2, 8, 4, predL0},
	{2, 4, 8, predL0},
	{2, 8, 4, predL1},
	{2, 4, 8, predL1},
	{2, 8, 4, predBi},
	{2, 4, 8, predBi},
	{4, 4, 4, predL0},
	{4, 4, 4, predL1},
	{4, 4, 4, predBi},
}
