package avc

// Motion compensation (Section 8.4.2.2): fractional-sample
// interpolation for inter prediction. Luma uses the 6-tap half-sample
// filter (1,-5,20,20,-5,1) with quarter positions formed by rounded
// averaging; chroma uses eighth-pel bilinear weights. Reads outside
// the reference frame clamp to the nearest edge sample.

// refSample fetches one reference sample with edge clamping.
func refSample(plane []uint8, stride, w, h, x, y int) int {
	if x < 0 {
		x = 0
	} else if x >= w {
		x = w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= h {
		y = h - 1
	}
	return int(plane[y*stride+x])
}

// tap6 is the half-sample FIR core.
func tap6(a, b, c, d, e, f int) int {
	return a - 5*b + 20*c + 20*d - 5*e + f
}

// lumaHalfHRaw is the horizontal 6-tap sum at (x, y) before rounding,
// the intermediate the center position j is built from.
func lumaHalfHRaw(plane []uint8, stride, w, h, x, y int) int {
	return tap6(
		refSample(plane, stride, w, h, x-2, y),
		refSample(plane, stride, w, h, x-1, y),
		refSample(plane, stride, w, h, x, y),
		refSample(plane, stride, w, h, x+1, y),
		refSample(plane, stride, w, h, x+2, y),
		refSample(plane, stride, w, h, x+3, y),
	)
}

func lumaHalfVRaw(plane []uint8, stride, w, h, x, y int) int {
	return tap6(
		refSample(plane, stride, w, h, x, y-2),
		refSample(plane, stride, w, h, x, y-1),
		refSample(plane, stride, w, h, x, y),
		refSample(plane, stride, w, h, x, y+1),
		refSample(plane, stride, w, h, x, y+2),
		refSample(plane, stride, w, h, x, y+3),
	)
}

// lumaHalfH is the rounded horizontal half sample (position b).
func lumaHalfH(plane []uint8, stride, w, h, x, y int) int {
	return int(clipByte((lumaHalfHRaw(plane, stride, w, h, x, y) + 16) >> 5))
}

// lumaHalfV is the rounded vertical half sample (position h).
func lumaHalfV(plane []uint8, stride, w, h, x, y int) int {
	return int(clipByte((lumaHalfVRaw(plane, stride, w, h, x, y) + 16) >> 5))
}

// lumaHalfHV is the center half sample (position j): the vertical
// filter applied to unrounded horizontal sums, then one rounding.
func lumaHalfHV(plane []uint8, stride, w, h, x, y int) int {
	v := tap6(
		lumaHalfHRaw(plane, stride, w, h, x, y-2),
		lumaHalfHRaw(plane, stride, w, h, x, y-1),
		lumaHalfHRaw(plane, stride, w, h, x, y),
		lumaHalfHRaw(plane, stride, w, h, x, y+1),
		lumaHalfHRaw(plane, stride, w, h, x, y+2),
		lumaHalfHRaw(plane, stride, w, h, x, y+3),
	)
	return int(clipByte((v + 512) >> 10))
}

func avgRound(a, b int) int {
	return (a + b + 1) >> 1
}

// lumaQpelSample interpolates one luma sample at quarter position
// (fracX, fracY) relative to full-pel (x, y), per the position grid
// of Figure 8-4 (G a b c / d e f g / h i j k / n p q r).
func lumaQpelSample(plane []uint8, stride, w, h, x, y, fracX, fracY int) uint8 {
	switch fracY {
	case 0:
		switch fracX {
		case 0:
			return uint8(refSample(plane, stride, w, h, x, y))
		case 1:
			return uint8(avgRound(refSample(plane, stride, w, h, x, y), lumaHalfH(plane, stride, w, h, x, y)))
		case 2:
			return uint8(lumaHalfH(plane, stride, w, h, x, y))
		default:
			return uint8(avgRound(lumaHalfH(plane, stride, w, h, x, y), refSample(plane, stride, w, h, x+1, y)))
		}
	case 1:
		switch fracX {
		case 0:
			return uint8(avgRound(refSample(plane, stride, w, h, x, y), lumaHalfV(plane, stride, w, h, x, y)))
		case 1:
			return uint8(avgRound(lumaHalfH(plane, stride, w, h, x, y), lumaHalfV(plane, stride, w, h, x, y)))
		case 2:
			return uint8(avgRound(lumaHalfH(plane, stride, w, h, x, y), lumaHalfHV(plane, stride, w, h, x, y)))
		default:
			return uint8(avgRound(lumaHalfH(plane, stride, w, h, x, y), lumaHalfV(plane, stride, w, h, x+1, y)))
		}
	case 2:
		switch fracX {
		case 0:
			return uint8(lumaHalfV(plane, stride, w, h, x, y))
		case 1:
			return uint8(avgRound(lumaHalfV(plane, stride, w, h, x, y), lumaHalfHV(plane, stride, w, h, x, y)))
		case 2:
			return uint8(lumaHalfHV(plane, stride, w, h, x, y))
		default:
			return uint8(avgRound(lumaHalfHV(plane, stride, w, h, x, y), lumaHalfV(plane, stride, w, h, x+1, y)))
		}
	default:
		switch fracX {
		case 0:
			return uint8(avgRound(lumaHalfV(plane, stride, w, h, x, y), refSample(plane, stride, w, h, x, y+1)))
		case 1:
			return uint8(avgRound(lumaHalfV(plane, stride, w, h, x, y), lumaHalfH(plane, stride, w, h, x, y+1)))
		case 2:
			return uint8(avgRound(lumaHalfHV(plane, stride, w, h, x, y), lumaHalfH(plane, stride, w, h, x, y+1)))
		default:
			return uint8(avgRound(lumaHalfV(plane, stride, w, h, x+1, y), lumaHalfH(plane, stride, w, h, x, y+1)))
		}
	}
}

// predictLuma writes the w×h luma prediction for full-pel origin
// (x0, y0) and quarter offsets (fracX, fracY) into dst.
func predictLuma(dst []uint8, dstStride int, ref []uint8, refStride, refW, refH int, x0, y0, fracX, fracY, w, h int) {
	if fracX == 0 && fracY == 0 {
		for y := 0; y < h; y++ {
			row := dst[y*dstStride:]
			for x := 0; x < w; x++ {
				row[x] = uint8(refSample(ref, refStride, refW, refH, x0+x, y0+y))
			}
		}
		return
	}
	for y := 0; y < h; y++ {
		row := dst[y*dstStride:]
		for x := 0; x < w; x++ {
			row[x] = lumaQpelSample(ref, refStride, refW, refH, x0+x, y0+y, fracX, fracY)
		}
	}
}

// predictChroma writes the w×h eighth-pel bilinear chroma prediction
// (Section 8.4.2.2.2, equation 8-266).
func predictChroma(dst []uint8, dstStride int, ref []uint8, refStride, refW, refH int, x0, y0, fracX, fracY, w, h int) {
	wA := (8 - fracX) * (8 - fracY)
	wB := fracX * (8 - fracY)
	wC := (8 - fracX) * fracY
	wD := fracX * fracY
	for y := 0; y < h; y++ {
		row := dst[y*dstStride:]
		for x := 0; x < w; x++ {
			p00 := refSample(ref, refStride, refW, refH, x0+x, y0+y)
			p10 := refSample(ref, refStride, refW, refH, x0+x+1, y0+y)
			p01 := refSample(ref, refStride, refW, refH, x0+x, y0+y+1)
			p11 := refSample(ref, refStride, refW, refH, x0+x+1, y0+y+1)
			row[x] = uint8((wA*p00 + wB*p10 + wC*p01 + wD*p11 + 32) >> 6)
		}
	}
}

// interScratch holds the motion-compensated prediction of one
// partition before weighting, sized for 16x16 luma and 4:2:2 chroma.
type interScratch struct {
	y  [256]uint8
	cb [128]uint8
	cr [128]uint8
}

// predictInter fills s with the prediction of one partition at luma
// origin (px, py), size w×h, from ref with motion vector (mvX, mvY)
// in quarter-pel units. Returns the chroma block size.
//
// 4:2:0 halves both chroma axes and reads the vector as eighth-pel
// directly; 4:2:2 keeps full vertical resolution, so the vertical
// component is doubled to eighth-pel chroma units.
func predictInter(s *interScratch, ref *Picture, px, py, w, h, mvX, mvY int, chroma420 bool) (cw, ch int) {
	predictLuma(s.y[:], w, ref.Y, ref.StrideY, ref.Width, ref.Height,
		px+(mvX>>2), py+(mvY>>2), mvX&3, mvY&3, w, h)

	cw = w / 2
	cx0 := px/2 + (mvX >> 3)
	cfx := mvX & 7
	var cy0, cfy int
	if chroma420 {
		ch = h / 2
		cy0 = py/2 + (mvY >> 3)
		cfy = mvY & 7
	} else {
		ch = h
		mvCY := mvY * 2
		cy0 = py + (mvCY >> 3)
		cfy = mvCY & 7
	}
	predictChroma(s.cb[:], cw, ref.Cb, ref.StrideC, ref.ChromaW, ref.ChromaH, cx0, cy0, cfx, cfy, cw, ch)
	predictChroma(s.cr[:], cw, ref.Cr, ref.StrideC, ref.ChromaW, ref.ChromaH, cx0, cy0, cfx, cfy, cw, ch)
	return cw, ch
}

// copyBlockToPlane stores a packed prediction block into a picture
// plane at (x0, y0).
func copyBlockToPlane(plane []uint8, stride, x0, y0 int, src []uint8, srcStride, w, h int) {
	for y := 0; y < h; y++ {
		copy(plane[(y0+y)*stride+x0:(y0+y)*stride+x0+w], src[y*srcStride:y*srcStride+w])
	}
}

// weightSample applies explicit weighted prediction to one sample
// (Section 8.4.2.3.2, single list).
func weightSample(s, weight, offset, logDenom int) uint8 {
	if logDenom > 0 {
		return clipByte(((s*weight + 1<<(logDenom-1)) >> logDenom) + offset)
	}
	return clipByte(s*weight + offset)
}

// weightBlockToPlane stores a prediction with per-sample weighting.
func weightBlockToPlane(plane []uint8, stride, x0, y0 int, src []uint8, srcStride, w, h, weight, offset, logDenom int) {
	for y := 0; y < h; y++ {
		dst := plane[(y0+y)*stride+x0:]
		row := src[y*srcStride:]
		for x := 0; x < w; x++ {
			dst[x] = weightSample(int(row[x]), weight, offset, logDenom)
		}
	}
}

// biAverageToPlane stores the default bi-prediction rounding average
// of two prediction blocks.
func biAverageToPlane(plane []uint8, stride, x0, y0 int, src0, src1 []uint8, srcStride, w, h int) {
	for y := 0; y < h; y++ {
		dst := plane[(y0+y)*stride+x0:]
		r0 := src0[y*srcStride:]
		r1 := src1[y*srcStride:]
		for x := 0; x < w; x++ {
			dst[x] = uint8((int(r0[x]) + int(r1[x]) + 1) >> 1)
		}
	}
}

// biWeightToPlane stores the weighted combination of two prediction
// blocks: clip(((p0*w0 + p1*w1 + 2^logWD) >> (logWD+1)) + (o0+o1+1)>>1).
// Implicit mode uses logWD=5 with zero offsets.
func biWeightToPlane(plane []uint8, stride, x0, y0 int, src0, src1 []uint8, srcStride, w, h, w0, w1, o0, o1, logWD int) {
	round := 1 << logWD
	off := (o0 + o1 + 1) >> 1
	for y := 0; y < h; y++ {
		dst := plane[(y0+y)*stride+x0:]
		r0 := src0[y*srcStride:]
		r1 := src1[y*srcStride:]
		for x := 0; x < w; x++ {
			dst[x] = clipByte(((int(r0[x])*w0 + int(r1[x])*w1 + round) >> (logWD + 1)) + off)
		}
	}
}

// implicitWeights derives the POC-distance implicit bi-prediction
// weights (Section 8.4.2.3.1). Equal distances, zero spans, overflow
// and long-term references all fall back to the 32/32 average.
func implicitWeights(curPOC, poc0, poc1 int32, longTerm0, longTerm1 bool) (w0, w1 int) {
	if longTerm0 || longTerm1 || poc0 == poc1 {
		return 32, 32
	}
	td := clip3(-128, 127, int(poc1-poc0))
	tb := clip3(-128, 127, int(curPOC-poc0))
	tx := (16384 + absInt(td)/2) / td
	dsf := clip3(-1024, 1023, (tb*tx+32)>>6)
	w1 = dsf >> 2
	if w1 < -64 || w1 > 128 {
		return 32, 32
	}
	return 64 - w1, w1
}
