package avc

// Intra prediction (Section 8.3). Prediction writes into the picture
// plane in place and reads neighbor samples back from the same plane,
// so blocks must be predicted and reconstructed in decoding order.

// Intra_4x4 and Intra_8x8 prediction modes (Tables 8-2 and 8-3).
const (
	predVertical       = 0
	predHorizontal     = 1
	predDC             = 2
	predDiagDownLeft   = 3
	predDiagDownRight  = 4
	predVerticalRight  = 5
	predHorizontalDown = 6
	predVerticalLeft   = 7
	predHorizontalUp   = 8
)

// Intra_16x16 modes (Table 8-4) and chroma modes (Table 8-5).
const (
	pred16x16V     = 0
	pred16x16H     = 1
	pred16x16DC    = 2
	pred16x16Plane = 3

	predChromaDC    = 0
	predChromaH     = 1
	predChromaV     = 2
	predChromaPlane = 3
)

// intraNeighbors says which reference samples around a block belong
// to macroblocks already decoded in the current slice.
type intraNeighbors struct {
	left     bool
	top      bool
	topLeft  bool
	topRight bool
}

// fillBlock paints a w x h rectangle with one value. Rows past the
// plane end are dropped.
func fillBlock(plane []uint8, stride, x0, y0, w, h int, val uint8) {
	for dy := 0; dy < h; dy++ {
		start := (y0+dy)*stride + x0
		if start < 0 || start+w > len(plane) {
			continue
		}
		for i := start; i < start+w; i++ {
			plane[i] = val
		}
	}
}

// intra4x4Top loads p[0..7,-1]. Top-right samples outside the decoded
// region repeat p[3,-1] (Section 8.3.1.2).
func intra4x4Top(plane []uint8, stride, x0, y0 int, topRight bool) (t [8]int) {
	row := (y0 - 1) * stride
	for i := 0; i < 4; i++ {
		t[i] = int(plane[row+x0+i])
	}
	for i := 4; i < 8; i++ {
		if topRight {
			t[i] = int(plane[row+x0+i])
		} else {
			t[i] = t[3]
		}
	}
	return t
}

// predictIntra4x4 renders one of the nine 4x4 modes at (x0, y0).
// Modes whose required neighbors are missing paint mid-gray, which
// contains corrupt mode bits without touching neighbors.
func predictIntra4x4(plane []uint8, stride, x0, y0 int, mode uint8, avail intraNeighbors) {
	switch mode {
	case predVertical:
		if !avail.top {
			fillBlock(plane, stride, x0, y0, 4, 4, 128)
			return
		}
		top := (y0-1)*stride + x0
		for dy := 0; dy < 4; dy++ {
			copy(plane[(y0+dy)*stride+x0:(y0+dy)*stride+x0+4], plane[top:top+4])
		}

	case predHorizontal:
		if !avail.left {
			fillBlock(plane, stride, x0, y0, 4, 4, 128)
			return
		}
		for dy := 0; dy < 4; dy++ {
			row := (y0 + dy) * stride
			v := plane[row+x0-1]
			for dx := 0; dx < 4; dx++ {
				plane[row+x0+dx] = v
			}
		}

	case predDiagDownLeft:
		if !avail.top {
			fillBlock(plane, stride, x0, y0, 4, 4, 128)
			return
		}
		t := intra4x4Top(plane, stride, x0, y0, avail.topRight)
		for dy := 0; dy < 4; dy++ {
			for dx := 0; dx < 4; dx++ {
				k := dx + dy
				var v int
				if k == 6 {
					v = (t[6] + 3*t[7] + 2) >> 2
				} else {
					v = (t[k] + 2*t[k+1] + t[k+2] + 2) >> 2
				}
				plane[(y0+dy)*stride+x0+dx] = uint8(v)
			}
		}

	case predVerticalLeft:
		if !avail.top {
			fillBlock(plane, stride, x0, y0, 4, 4, 128)
			return
		}
		t := intra4x4Top(plane, stride, x0, y0, avail.topRight)
		for dy := 0; dy < 4; dy++ {
			for dx := 0; dx < 4; dx++ {
				i := dx + (dy >> 1)
				var v int
				if dy&1 == 0 {
					v = (t[i] + t[i+1] + 1) >> 1
				} else {
					v = (t[i] + 2*t[i+1] + t[i+2] + 2) >> 2
				}
				plane[(y0+dy)*stride+x0+dx] = uint8(v)
			}
		}

	case predHorizontalUp:
		if !avail.left {
			fillBlock(plane, stride, x0, y0, 4, 4, 128)
			return
		}
		var l [4]int
		for i := 0; i < 4; i++ {
			l[i] = int(plane[(y0+i)*stride+x0-1])
		}
		for dy := 0; dy < 4; dy++ {
			for dx := 0; dx < 4; dx++ {
				z := dx + 2*dy
				var v int
				switch {
				case z < 5 && z&1 == 0:
					i := z >> 1
					v = (l[i] + l[i+1] + 1) >> 1
				case z < 5:
					i := z >> 1
					v = (l[i] + 2*l[i+1] + l[i+2] + 2) >> 2
				case z == 5:
					v = (l[2] + 3*l[3] + 2) >> 2
				default:
					v = l[3]
				}
				plane[(y0+dy)*stride+x0+dx] = uint8(v)
			}
		}

	case predDiagDownRight, predVerticalRight, predHorizontalDown:
		if !avail.left || !avail.top || !avail.topLeft {
			fillBlock(plane, stride, x0, y0, 4, 4, 128)
			return
		}
		tl := int(plane[(y0-1)*stride+x0-1])
		var t, l [4]int
		for i := 0; i < 4; i++ {
			t[i] = int(plane[(y0-1)*stride+x0+i])
			l[i] = int(plane[(y0+i)*stride+x0-1])
		}
		switch mode {
		case predDiagDownRight:
			intra4x4DiagDownRight(plane, stride, x0, y0, tl, &t, &l)
		case predVerticalRight:
			intra4x4VerticalRight(plane, stride, x0, y0, tl, &t, &l)
		default:
			intra4x4HorizontalDown(plane, stride, x0, y0, tl, &t, &l)
		}

	default: // DC, also the landing spot for corrupt mode values
		sumT, sumL := 0, 0
		if avail.top {
			for dx := 0; dx < 4; dx++ {
				sumT += int(plane[(y0-1)*stride+x0+dx])
			}
		}
		if avail.left {
			for dy := 0; dy < 4; dy++ {
				sumL += int(plane[(y0+dy)*stride+x0-1])
			}
		}
		var dc uint8
		switch {
		case avail.top && avail.left:
			dc = uint8((sumT + sumL + 4) >> 3)
		case avail.top:
			dc = uint8((sumT + 2) >> 2)
		case avail.left:
			dc = uint8((sumL + 2) >> 2)
		default:
			dc = 128
		}
		fillBlock(plane, stride, x0, y0, 4, 4, dc)
	}
}

func intra4x4DiagDownRight(plane []uint8, stride, x0, y0, tl int, t, l *[4]int) {
	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 4; dx++ {
			var v int
			switch {
			case dx > dy:
				k := dx - dy
				a := tl
				if k >= 2 {
					a = t[k-2]
				}
				v = (a + 2*t[k-1] + t[k] + 2) >> 2
			case dx < dy:
				k := dy - dx
				a := tl
				if k >= 2 {
					a = l[k-2]
				}
				v = (a + 2*l[k-1] + l[k] + 2) >> 2
			default:
				v = (t[0] + 2*tl + l[0] + 2) >> 2
			}
			plane[(y0+dy)*stride+x0+dx] = uint8(v)
		}
	}
}

func intra4x4VerticalRight(plane []uint8, stride, x0, y0, tl int, t, l *[4]int) {
	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 4; dx++ {
			z := 2*dx - dy
			var v int
			switch {
			case z >= 0 && z&1 == 0:
				i := dx - (dy >> 1)
				a := tl
				if i >= 1 {
					a = t[i-1]
				}
				v = (a + t[i] + 1) >> 1
			case z > 0:
				i := dx - (dy >> 1)
				a := tl
				if i >= 2 {
					a = t[i-2]
				}
				v = (a + 2*t[i-1] + t[i] + 2) >> 2
			case z == -1:
				v = (l[0] + 2*tl + t[0] + 2) >> 2
			default:
				j := dy - 2*dx
				a := tl
				if j >= 3 {
					a = l[j-3]
				}
				v = (l[j-1] + 2*l[j-2] + a + 2) >> 2
			}
			plane[(y0+dy)*stride+x0+dx] = uint8(v)
		}
	}
}

func intra4x4HorizontalDown(plane []uint8, stride, x0, y0, tl int, t, l *[4]int) {
	for dy := 0; dy < 4; dy++ {
		for dx := 0; dx < 4; dx++ {
			z := 2*dy - dx
			var v int
			switch {
			case z >= 0 && z&1 == 0:
				i := dy - (dx >> 1)
				a := tl
				if i >= 1 {
					a = l[i-1]
				}
				v = (a + l[i] + 1) >> 1
			case z > 0:
				i := dy - (dx >> 1)
				a := tl
				if i >= 2 {
					a = l[i-2]
				}
				v = (a + 2*l[i-1] + l[i] + 2) >> 2
			case z == -1:
				v = (l[0] + 2*tl + t[0] + 2) >> 2
			default:
				k := dx - 2*dy
				a := tl
				if k >= 3 {
					a = t[k-3]
				}
				v = (t[k-1] + 2*t[k-2] + a + 2) >> 2
			}
			plane[(y0+dy)*stride+x0+dx] = uint8(v)
		}
	}
}

// intra8x8Refs gathers and filters the reference samples of Section
// 8.3.2.2.1. Every available reference is low-pass filtered before
// any 8x8 mode runs.
func intra8x8Refs(plane []uint8, stride, x0, y0 int, avail intraNeighbors) (t [16]int, l [8]int, tl int) {
	var rt [16]int
	var rl [8]int
	rtl := 128
	if avail.topLeft {
		rtl = int(plane[(y0-1)*stride+x0-1])
	}
	if avail.top {
		row := (y0 - 1) * stride
		for i := 0; i < 8; i++ {
			rt[i] = int(plane[row+x0+i])
		}
		for i := 8; i < 16; i++ {
			if avail.topRight {
				rt[i] = int(plane[row+x0+i])
			} else {
				rt[i] = rt[7]
			}
		}
	}
	if avail.left {
		for i := 0; i < 8; i++ {
			rl[i] = int(plane[(y0+i)*stride+x0-1])
		}
	}

	switch {
	case avail.topLeft && avail.top && avail.left:
		tl = (rt[0] + 2*rtl + rl[0] + 2) >> 2
	case avail.topLeft && avail.top:
		tl = (3*rtl + rt[0] + 2) >> 2
	case avail.topLeft && avail.left:
		tl = (3*rtl + rl[0] + 2) >> 2
	default:
		tl = rtl
	}
	if avail.top {
		if avail.topLeft {
			t[0] = (rtl + 2*rt[0] + rt[1] + 2) >> 2
		} else {
			t[0] = (3*rt[0] + rt[1] + 2) >> 2
		}
		for x := 1; x < 15; x++ {
			t[x] = (rt[x-1] + 2*rt[x] + rt[x+1] + 2) >> 2
		}
		t[15] = (rt[14] + 3*rt[15] + 2) >> 2
	}
	if avail.left {
		if avail.topLeft {
			l[0] = (rtl + 2*rl[0] + rl[1] + 2) >> 2
		} else {
			l[0] = (3*rl[0] + rl[1] + 2) >> 2
		}
		for y := 1; y < 7; y++ {
			l[y] = (rl[y-1] + 2*rl[y] + rl[y+1] + 2) >> 2
		}
		l[7] = (rl[6] + 3*rl[7] + 2) >> 2
	}
	return t, l, tl
}

// predictIntra8x8 renders one of the nine 8x8 modes over filtered
// references (Section 8.3.2).
func predictIntra8x8(plane []uint8, stride, x0, y0 int, mode uint8, avail intraNeighbors) {
	switch mode {
	case predVertical, predDiagDownLeft, predVerticalLeft:
		if !avail.top {
			fillBlock(plane, stride, x0, y0, 8, 8, 128)
			return
		}
	case predHorizontal, predHorizontalUp:
		if !avail.left {
			fillBlock(plane, stride, x0, y0, 8, 8, 128)
			return
		}
	case predDiagDownRight, predVerticalRight, predHorizontalDown:
		if !avail.left || !avail.top || !avail.topLeft {
			fillBlock(plane, stride, x0, y0, 8, 8, 128)
			return
		}
	}
	t, l, tl := intra8x8Refs(plane, stride, x0, y0, avail)

	set := func(dx, dy, v int) {
		plane[(y0+dy)*stride+x0+dx] = uint8(v)
	}
	switch mode {
	case predVertical:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				set(dx, dy, t[dx])
			}
		}

	case predHorizontal:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				set(dx, dy, l[dy])
			}
		}

	case predDiagDownLeft:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				k := dx + dy
				var v int
				if k == 14 {
					v = (t[14] + 3*t[15] + 2) >> 2
				} else {
					v = (t[k] + 2*t[k+1] + t[k+2] + 2) >> 2
				}
				set(dx, dy, v)
			}
		}

	case predDiagDownRight:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				var v int
				switch {
				case dx > dy:
					k := dx - dy
					a := tl
					if k >= 2 {
						a = t[k-2]
					}
					v = (a + 2*t[k-1] + t[k] + 2) >> 2
				case dx < dy:
					k := dy - dx
					a := tl
					if k >= 2 {
						a = l[k-2]
					}
					v = (a + 2*l[k-1] + l[k] + 2) >> 2
				default:
					v = (t[0] + 2*tl + l[0] + 2) >> 2
				}
				set(dx, dy, v)
			}
		}

	case predVerticalRight:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				z := 2*dx - dy
				var v int
				switch {
				case z >= 0 && z&1 == 0:
					i := dx - (dy >> 1)
					a := tl
					if i >= 1 {
						a = t[i-1]
					}
					v = (a + t[i] + 1) >> 1
				case z > 0:
					i := dx - (dy >> 1)
					a := tl
					if i >= 2 {
						a = t[i-2]
					}
					v = (a + 2*t[i-1] + t[i] + 2) >> 2
				case z == -1:
					v = (l[0] + 2*tl + t[0] + 2) >> 2
				default:
					j := dy - 2*dx
					a := tl
					if j >= 3 {
						a = l[j-3]
					}
					v = (l[j-1] + 2*l[j-2] + a + 2) >> 2
				}
				set(dx, dy, v)
			}
		}

	case predHorizontalDown:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				z := 2*dy - dx
				var v int
				switch {
				case z >= 0 && z&1 == 0:
					i := dy - (dx >> 1)
					a := tl
					if i >= 1 {
						a = l[i-1]
					}
					v = (a + l[i] + 1) >> 1
				case z > 0:
					i := dy - (dx >> 1)
					a := tl
					if i >= 2 {
						a = l[i-2]
					}
					v = (a + 2*l[i-1] + l[i] + 2) >> 2
				case z == -1:
					v = (l[0] + 2*tl + t[0] + 2) >> 2
				default:
					k := dx - 2*dy
					a := tl
					if k >= 3 {
						a = t[k-3]
					}
					v = (t[k-1] + 2*t[k-2] + a + 2) >> 2
				}
				set(dx, dy, v)
			}
		}

	case predVerticalLeft:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				i := dx + (dy >> 1)
				var v int
				if dy&1 == 0 {
					v = (t[i] + t[i+1] + 1) >> 1
				} else {
					v = (t[i] + 2*t[i+1] + t[i+2] + 2) >> 2
				}
				set(dx, dy, v)
			}
		}

	case predHorizontalUp:
		for dy := 0; dy < 8; dy++ {
			for dx := 0; dx < 8; dx++ {
				z := dx + 2*dy
				var v int
				switch {
				case z < 13 && z&1 == 0:
					i := dy + (dx >> 1)
					v = (l[i] + l[i+1] + 1) >> 1
				case z < 13:
					i := dy + (dx >> 1)
					v = (l[i] + 2*l[i+1] + l[i+2] + 2) >> 2
				case z == 13:
					v = (l[6] + 3*l[7] + 2) >> 2
				default:
					v = l[7]
				}
				set(dx, dy, v)
			}
		}

	default: // DC
		sumT, sumL := 0, 0
		for i := 0; i < 8; i++ {
			sumT += t[i]
			sumL += l[i]
		}
		var dc uint8
		switch {
		case avail.top && avail.left:
			dc = uint8((sumT + sumL + 8) >> 4)
		case avail.top:
			dc = uint8((sumT + 4) >> 3)
		case avail.left:
			dc = uint8((sumL + 4) >> 3)
		default:
			dc = 128
		}
		fillBlock(plane, stride, x0, y0, 8, 8, dc)
	}
}

// predictIntra16x16 renders one of the four Intra_16x16 luma modes
// (Section 8.3.3) at (x0, y0).
func predictIntra16x16(plane []uint8, stride, x0, y0 int, mode uint8, avail intraNeighbors) {
	switch mode {
	case pred16x16V:
		if !avail.top {
			fillBlock(plane, stride, x0, y0, 16, 16, 128)
			return
		}
		top := (y0-1)*stride + x0
		for dy := 0; dy < 16; dy++ {
			copy(plane[(y0+dy)*stride+x0:(y0+dy)*stride+x0+16], plane[top:top+16])
		}

	case pred16x16H:
		if !avail.left {
			fillBlock(plane, stride, x0, y0, 16, 16, 128)
			return
		}
		for dy := 0; dy < 16; dy++ {
			row := (y0 + dy) * stride
			v := plane[row+x0-1]
			for dx := 0; dx < 16; dx++ {
				plane[row+x0+dx] = v
			}
		}

	case pred16x16Plane:
		if !avail.left || !avail.top || !avail.topLeft {
			predictIntra16x16(plane, stride, x0, y0, pred16x16DC, avail)
			return
		}
		p := func(x, y int) int { return int(plane[y*stride+x]) }
		hv, vv := 0, 0
		for i := 0; i < 8; i++ {
			hv += (i + 1) * (p(x0+8+i, y0-1) - p(x0+6-i, y0-1))
			vv += (i + 1) * (p(x0-1, y0+8+i) - p(x0-1, y0+6-i))
		}
		a := 16 * (p(x0+15, y0-1) + p(x0-1, y0+15))
		b := (5*hv + 32) >> 6
		c := (5*vv + 32) >> 6
		for dy := 0; dy < 16; dy++ {
			for dx := 0; dx < 16; dx++ {
				plane[(y0+dy)*stride+x0+dx] = clipByte((a + b*(dx-7) + c*(dy-7) + 16) >> 5)
			}
		}

	default: // DC
		sumT, sumL := 0, 0
		if avail.top {
			for dx := 0; dx < 16; dx++ {
				sumT += int(plane[(y0-1)*stride+x0+dx])
			}
		}
		if avail.left {
			for dy := 0; dy < 16; dy++ {
				sumL += int(plane[(y0+dy)*stride+x0-1])
			}
		}
		var dc uint8
		switch {
		case avail.top && avail.left:
			dc = uint8((sumT + sumL + 16) >> 5)
		case avail.top:
			dc = uint8((sumT + 8) >> 4)
		case avail.left:
			dc = uint8((sumL + 8) >> 4)
		default:
			dc = 128
		}
		fillBlock(plane, stride, x0, y0, 16, 16, dc)
	}
}

// predictIntraChroma renders one of the four chroma modes (Section
// 8.3.4) over the 8 x h chroma macroblock at (x0, y0). h is 8 for
// 4:2:0 and 16 for 4:2:2.
func predictIntraChroma(plane []uint8, stride, x0, y0, h int, mode uint8, avail intraNeighbors) {
	switch mode {
	case predChromaH:
		if !avail.left {
			fillBlock(plane, stride, x0, y0, 8, h, 128)
			return
		}
		for dy := 0; dy < h; dy++ {
			row := (y0 + dy) * stride
			v := plane[row+x0-1]
			for dx := 0; dx < 8; dx++ {
				plane[row+x0+dx] = v
			}
		}

	case predChromaV:
		if !avail.top {
			fillBlock(plane, stride, x0, y0, 8, h, 128)
			return
		}
		top := (y0-1)*stride + x0
		for dy := 0; dy < h; dy++ {
			copy(plane[(y0+dy)*stride+x0:(y0+dy)*stride+x0+8], plane[top:top+8])
		}

	case predChromaPlane:
		if !avail.left || !avail.top || !avail.topLeft {
			predictIntraChroma(plane, stride, x0, y0, h, predChromaDC, avail)
			return
		}
		p := func(x, y int) int { return int(plane[y*stride+x]) }
		yCF := 0
		if h == 16 {
			yCF = 4
		}
		hv, vv := 0, 0
		for i := 0; i < 4; i++ {
			hv += (i + 1) * (p(x0+4+i, y0-1) - p(x0+2-i, y0-1))
		}
		for i := 0; i < 4+yCF; i++ {
			vv += (i + 1) * (p(x0-1, y0+4+yCF+i) - p(x0-1, y0+2+yCF-i))
		}
		a := 16 * (p(x0+7, y0-1) + p(x0-1, y0+h-1))
		b := (34*hv + 32) >> 6
		c := (34*vv + 32) >> 6
		if h == 16 {
			c = (5*vv + 32) >> 6
		}
		for dy := 0; dy < h; dy++ {
			for dx := 0; dx < 8; dx++ {
				plane[(y0+dy)*stride+x0+dx] = clipByte((a + b*(dx-3) + c*(dy-3-yCF) + 16) >> 5)
			}
		}

	default: // DC runs per 4x4 block, edge blocks preferring the
		// neighbor they border (Section 8.3.4.1).
		for by := 0; by < h; by += 4 {
			for bx := 0; bx < 8; bx += 4 {
				sumT, sumL := 0, 0
				if avail.top {
					for dx := 0; dx < 4; dx++ {
						sumT += int(plane[(y0-1)*stride+x0+bx+dx])
					}
				}
				if avail.left {
					for dy := 0; dy < 4; dy++ {
						sumL += int(plane[(y0+by+dy)*stride+x0-1])
					}
				}
				var dc uint8
				switch {
				case bx > 0 && by == 0:
					switch {
					case avail.top:
						dc = uint8((sumT + 2) >> 2)
					case avail.left:
						dc = uint8((sumL + 2) >> 2)
					default:
						dc = 128
					}
				case bx == 0 && by > 0:
					switch {
					case avail.left:
						dc = uint8((sumL + 2) >> 2)
					case avail.top:
						dc = uint8((sumT + 2) >> 2)
					default:
						dc = 128
					}
				default:
					switch {
					case avail.top && avail.left:
						dc = uint8((sumT + sumL + 4) >> 3)
					case avail.top:
						dc = uint8((sumT + 2) >> 2)
					case avail.left:
						dc = uint8((sumL + 2) >> 2)
					default:
						dc = 128
					}
				}
				fillBlock(plane, stride, x0+bx, y0+by, 4, 4, dc)
			}
		}
	}
}
