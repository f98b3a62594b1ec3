package avc

import "testing"

func checkBlock(t *testing.T, plane []uint8, stride, x0, y0 int, want [][]uint8) {
	t.Helper()
	for dy := range want {
		for dx := range want[dy] {
			got := plane[(y0+dy)*stride+x0+dx]
			if got != want[dy][dx] {
				t.Fatalf("sample (%d,%d): got %d, want %d", dx, dy, got, want[dy][dx])
			}
		}
	}
}

// seed4x4Neighbors places the top-left corner, four top samples, four
// top-right samples and four left samples around a block at (4,4) of
// a 16-wide plane.
func seed4x4Neighbors(p []uint8, tl uint8, top, topRight, left []uint8) {
	p[3*16+3] = tl
	for i := range top {
		p[3*16+4+i] = top[i]
	}
	for i := range topRight {
		p[3*16+8+i] = topRight[i]
	}
	for i := range left {
		p[(4+i)*16+3] = left[i]
	}
}

func TestIntra4x4VerticalHorizontal(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 0, []uint8{10, 20, 30, 40}, nil, []uint8{50, 60, 70, 80})

	predictIntra4x4(p, 16, 4, 4, predVertical, intraNeighbors{top: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{10, 20, 30, 40},
		{10, 20, 30, 40},
		{10, 20, 30, 40},
		{10, 20, 30, 40},
	})

	predictIntra4x4(p, 16, 4, 4, predHorizontal, intraNeighbors{left: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{50, 50, 50, 50},
		{60, 60, 60, 60},
		{70, 70, 70, 70},
		{80, 80, 80, 80},
	})

	// Required neighbors missing paints mid-gray.
	predictIntra4x4(p, 16, 4, 4, predVertical, intraNeighbors{left: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{128, 128, 128, 128},
		{128, 128, 128, 128},
		{128, 128, 128, 128},
		{128, 128, 128, 128},
	})
}

func TestIntra4x4DC(t *testing.T) {
	cases := []struct {
		name  string
		avail intraNeighbors
		want  uint8
	}{
		{"both", intraNeighbors{left: true, top: true}, 45},
		{"top", intraNeighbors{top: true}, 25},
		{"left", intraNeighbors{left: true}, 65},
		{"none", intraNeighbors{}, 128},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := make([]uint8, 16*16)
			seed4x4Neighbors(p, 0, []uint8{10, 20, 30, 40}, nil, []uint8{50, 60, 70, 80})
			predictIntra4x4(p, 16, 4, 4, predDC, tc.avail)
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 4; dx++ {
					if got := p[(4+dy)*16+4+dx]; got != tc.want {
						t.Fatalf("sample (%d,%d): got %d, want %d", dx, dy, got, tc.want)
					}
				}
			}
		})
	}
}

func TestIntra4x4DiagDownLeft(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 0, []uint8{10, 20, 30, 40}, []uint8{50, 60, 70, 80}, nil)
	predictIntra4x4(p, 16, 4, 4, predDiagDownLeft, intraNeighbors{top: true, topRight: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{20, 30, 40, 50},
		{30, 40, 50, 60},
		{40, 50, 60, 70},
		{50, 60, 70, 78},
	})

	// Without the top-right block p[3,-1] substitutes for p[4..7,-1].
	predictIntra4x4(p, 16, 4, 4, predDiagDownLeft, intraNeighbors{top: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{20, 30, 38, 40},
		{30, 38, 40, 40},
		{38, 40, 40, 40},
		{40, 40, 40, 40},
	})
}

func TestIntra4x4DiagDownRight(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 10, []uint8{20, 30, 40, 50}, nil, []uint8{60, 70, 80, 90})
	predictIntra4x4(p, 16, 4, 4, predDiagDownRight, intraNeighbors{left: true, top: true, topLeft: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{25, 20, 30, 40},
		{50, 25, 20, 30},
		{70, 50, 25, 20},
		{80, 70, 50, 25},
	})
}

func TestIntra4x4VerticalRight(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 10, []uint8{20, 30, 40, 50}, nil, []uint8{60, 70, 80, 90})
	predictIntra4x4(p, 16, 4, 4, predVerticalRight, intraNeighbors{left: true, top: true, topLeft: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{15, 25, 35, 45},
		{25, 20, 30, 40},
		{50, 15, 25, 35},
		{70, 25, 20, 30},
	})
}

func TestIntra4x4HorizontalDown(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 10, []uint8{20, 30, 40, 50}, nil, []uint8{60, 70, 80, 90})
	predictIntra4x4(p, 16, 4, 4, predHorizontalDown, intraNeighbors{left: true, top: true, topLeft: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{35, 25, 20, 30},
		{65, 50, 35, 25},
		{75, 70, 65, 50},
		{85, 80, 75, 70},
	})
}

func TestIntra4x4VerticalLeft(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 0, []uint8{10, 20, 30, 40}, []uint8{50, 60, 70, 80}, nil)
	predictIntra4x4(p, 16, 4, 4, predVerticalLeft, intraNeighbors{top: true, topRight: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{15, 25, 35, 45},
		{20, 30, 40, 50},
		{25, 35, 45, 55},
		{30, 40, 50, 60},
	})
}

func TestIntra4x4HorizontalUp(t *testing.T) {
	p := make([]uint8, 16*16)
	seed4x4Neighbors(p, 0, nil, nil, []uint8{60, 70, 80, 90})
	predictIntra4x4(p, 16, 4, 4, predHorizontalUp, intraNeighbors{left: true})
	checkBlock(t, p, 16, 4, 4, [][]uint8{
		{65, 70, 75, 80},
		{75, 80, 85, 88},
		{85, 88, 90, 90},
		{90, 90, 90, 90},
	})
}

// seed16x16Neighbors surrounds a 16x16 block at (4,4) of a 24-wide
// plane with top and left references.
func seed16x16Neighbors(p []uint8, tl uint8, top, left []uint8) {
	p[3*24+3] = tl
	for i := range top {
		p[3*24+4+i] = top[i]
	}
	for i := range left {
		p[(4+i)*24+3] = left[i]
	}
}

func TestIntra16x16DC(t *testing.T) {
	top := make([]uint8, 16)
	left := make([]uint8, 16)
	for i := range top {
		top[i] = 10
		left[i] = 30
	}
	cases := []struct {
		name  string
		avail intraNeighbors
		want  uint8
	}{
		{"both", intraNeighbors{left: true, top: true}, 20},
		{"top", intraNeighbors{top: true}, 10},
		{"left", intraNeighbors{left: true}, 30},
		{"none", intraNeighbors{}, 128},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := make([]uint8, 24*24)
			seed16x16Neighbors(p, 0, top, left)
			predictIntra16x16(p, 24, 4, 4, pred16x16DC, tc.avail)
			for dy := 0; dy < 16; dy++ {
				for dx := 0; dx < 16; dx++ {
					if got := p[(4+dy)*24+4+dx]; got != tc.want {
						t.Fatalf("sample (%d,%d): got %d, want %d", dx, dy, got, tc.want)
					}
				}
			}
		})
	}
}

func TestIntra16x16VerticalHorizontal(t *testing.T) {
	top := make([]uint8, 16)
	left := make([]uint8, 16)
	for i := range top {
		top[i] = uint8(10 + i)
		left[i] = uint8(100 + i)
	}
	p := make([]uint8, 24*24)
	seed16x16Neighbors(p, 0, top, left)

	predictIntra16x16(p, 24, 4, 4, pred16x16V, intraNeighbors{top: true})
	for dy := 0; dy < 16; dy++ {
		for dx := 0; dx < 16; dx++ {
			if got := p[(4+dy)*24+4+dx]; got != top[dx] {
				t.Fatalf("vertical (%d,%d): got %d, want %d", dx, dy, got, top[dx])
			}
		}
	}

	predictIntra16x16(p, 24, 4, 4, pred16x16H, intraNeighbors{left: true})
	for dy := 0; dy < 16; dy++ {
		for dx := 0; dx < 16; dx++ {
			if got := p[(4+dy)*24+4+dx]; got != left[dy] {
				t.Fatalf("horizontal (%d,%d): got %d, want %d", dx, dy, got, left[dy])
			}
		}
	}
}

func TestIntra16x16Plane(t *testing.T) {
	top := make([]uint8, 16)
	left := make([]uint8, 16)
	for i := range top {
		top[i] = 50
		left[i] = 50
	}
	top[15] = 82
	left[15] = 82
	p := make([]uint8, 24*24)
	seed16x16Neighbors(p, 50, top, left)
	predictIntra16x16(p, 24, 4, 4, pred16x16Plane, intraNeighbors{left: true, top: true, topLeft: true})

	// b = c = 20, a = 2624; pred = (a + b(x-7) + c(y-7) + 16) >> 5.
	spots := []struct {
		dx, dy int
		want   uint8
	}{
		{0, 0, 73},
		{7, 7, 82},
		{15, 15, 92},
	}
	for _, s := range spots {
		if got := p[(4+s.dy)*24+4+s.dx]; got != s.want {
			t.Fatalf("plane (%d,%d): got %d, want %d", s.dx, s.dy, got, s.want)
		}
	}

	// Plane without a full border degrades to DC.
	p2 := make([]uint8, 24*24)
	seed16x16Neighbors(p2, 50, top, left)
	predictIntra16x16(p2, 24, 4, 4, pred16x16Plane, intraNeighbors{top: true})
	// Top sum is 15*50+82 = 832, so the DC fallback is (832+8)>>4 = 52.
	if got := p2[4*24+4]; got != 52 {
		t.Fatalf("plane fallback: got %d, want 52", got)
	}
}

func TestIntra8x8VerticalFiltersReferences(t *testing.T) {
	p := make([]uint8, 32*32)
	p[7*32+7] = 40
	for i := 0; i < 16; i++ {
		p[7*32+8+i] = uint8(8 * i)
	}
	predictIntra8x8(p, 32, 8, 8, predVertical, intraNeighbors{top: true, topLeft: true, topRight: true})

	want := []uint8{12, 8, 16, 24, 32, 40, 48, 56}
	for dy := 0; dy < 8; dy++ {
		for dx := 0; dx < 8; dx++ {
			if got := p[(8+dy)*32+8+dx]; got != want[dx] {
				t.Fatalf("sample (%d,%d): got %d, want %d", dx, dy, got, want[dx])
			}
		}
	}
}

func TestIntra8x8DiagDownLeftTail(t *testing.T) {
	p := make([]uint8, 32*32)
	p[7*32+7] = 40
	for i := 0; i < 16; i++ {
		p[7*32+8+i] = uint8(8 * i)
	}
	predictIntra8x8(p, 32, 8, 8, predDiagDownLeft, intraNeighbors{top: true, topLeft: true, topRight: true})

	// Filtered top row is 12, 8, 16, ..., 112, 118.
	if got := p[8*32+8]; got != 11 {
		t.Fatalf("corner: got %d, want 11", got)
	}
	if got := p[15*32+15]; got != 117 {
		t.Fatalf("tail: got %d, want 117", got)
	}
}

func TestIntra8x8DC(t *testing.T) {
	p := make([]uint8, 32*32)
	p[7*32+7] = 100
	for i := 0; i < 16; i++ {
		p[7*32+8+i] = 100
	}
	for i := 0; i < 8; i++ {
		p[(8+i)*32+7] = 100
	}
	predictIntra8x8(p, 32, 8, 8, predDC, intraNeighbors{left: true, top: true, topLeft: true, topRight: true})
	for dy := 0; dy < 8; dy++ {
		for dx := 0; dx < 8; dx++ {
			if got := p[(8+dy)*32+8+dx]; got != 100 {
				t.Fatalf("sample (%d,%d): got %d, want 100", dx, dy, got)
			}
		}
	}

	p2 := make([]uint8, 32*32)
	predictIntra8x8(p2, 32, 8, 8, predDC, intraNeighbors{})
	if got := p2[8*32+8]; got != 128 {
		t.Fatalf("isolated DC: got %d, want 128", got)
	}
}

func TestIntra8x8HorizontalUp(t *testing.T) {
	p := make([]uint8, 32*32)
	for i := 0; i < 8; i++ {
		p[(8+i)*32+7] = uint8(8 * i)
	}
	predictIntra8x8(p, 32, 8, 8, predHorizontalUp, intraNeighbors{left: true})

	// Filtered left column is 2, 8, 16, ..., 48, 54.
	spots := []struct {
		dx, dy int
		want   uint8
	}{
		{0, 0, 5},
		{1, 0, 9},
		{6, 3, 51},
		{7, 3, 53},
		{0, 7, 54},
		{7, 7, 54},
	}
	for _, s := range spots {
		if got := p[(8+s.dy)*32+8+s.dx]; got != s.want {
			t.Fatalf("sample (%d,%d): got %d, want %d", s.dx, s.dy, got, s.want)
		}
	}
}

func TestIntra8x8Fallback(t *testing.T) {
	p := make([]uint8, 32*32)
	for i := range p {
		p[i] = 7
	}
	predictIntra8x8(p, 32, 8, 8, predDiagDownRight, intraNeighbors{left: true, top: true})
	for dy := 0; dy < 8; dy++ {
		for dx := 0; dx < 8; dx++ {
			if got := p[(8+dy)*32+8+dx]; got != 128 {
				t.Fatalf("sample (%d,%d): got %d, want 128", dx, dy, got)
			}
		}
	}
}

func TestIntraChromaDCBlocks(t *testing.T) {
	seed := func() []uint8 {
		p := make([]uint8, 16*16)
		for i := 0; i < 4; i++ {
			p[3*16+4+i] = 10
			p[3*16+8+i] = 30
			p[(4+i)*16+3] = 50
			p[(8+i)*16+3] = 70
		}
		return p
	}

	p := seed()
	predictIntraChroma(p, 16, 4, 4, 8, predChromaDC, intraNeighbors{left: true, top: true})
	wantBoth := [][]uint8{
		{30, 30}, // (0,0) both, (4,0) top-preferred
		{70, 50}, // (0,4) left-preferred, (4,4) both
	}
	for by := 0; by < 2; by++ {
		for bx := 0; bx < 2; bx++ {
			if got := p[(4+4*by)*16+4+4*bx]; got != wantBoth[by][bx] {
				t.Fatalf("block (%d,%d): got %d, want %d", bx, by, got, wantBoth[by][bx])
			}
		}
	}

	p = seed()
	predictIntraChroma(p, 16, 4, 4, 8, predChromaDC, intraNeighbors{top: true})
	wantTop := [][]uint8{
		{10, 30},
		{10, 30}, // left-preferred block falls back to its top sum
	}
	for by := 0; by < 2; by++ {
		for bx := 0; bx < 2; bx++ {
			if got := p[(4+4*by)*16+4+4*bx]; got != wantTop[by][bx] {
				t.Fatalf("top-only block (%d,%d): got %d, want %d", bx, by, got, wantTop[by][bx])
			}
		}
	}

	p = seed()
	predictIntraChroma(p, 16, 4, 4, 8, predChromaDC, intraNeighbors{})
	if got := p[4*16+4]; got != 128 {
		t.Fatalf("isolated DC: got %d, want 128", got)
	}
}

func TestIntraChromaDCBlocks422(t *testing.T) {
	p := make([]uint8, 16*24)
	for i := 0; i < 4; i++ {
		p[3*16+4+i] = 10
		p[3*16+8+i] = 30
		p[(4+i)*16+3] = 50
		p[(8+i)*16+3] = 70
		p[(12+i)*16+3] = 90
		p[(16+i)*16+3] = 110
	}
	predictIntraChroma(p, 16, 4, 4, 16, predChromaDC, intraNeighbors{left: true, top: true})
	want := [][]uint8{
		{30, 30},
		{70, 50},
		{90, 60},
		{110, 70},
	}
	for by := 0; by < 4; by++ {
		for bx := 0; bx < 2; bx++ {
			if got := p[(4+4*by)*16+4+4*bx]; got != want[by][bx] {
				t.Fatalf("block (%d,%d): got %d, want %d", bx, by, got, want[by][bx])
			}
		}
	}
}

func TestIntraChromaVerticalHorizontal(t *testing.T) {
	p := make([]uint8, 16*16)
	for i := 0; i < 8; i++ {
		p[3*16+4+i] = uint8(10 + i)
		p[(4+i)*16+3] = uint8(100 + i)
	}

	predictIntraChroma(p, 16, 4, 4, 8, predChromaV, intraNeighbors{top: true})
	for dy := 0; dy < 8; dy++ {
		for dx := 0; dx < 8; dx++ {
			if got := p[(4+dy)*16+4+dx]; got != uint8(10+dx) {
				t.Fatalf("vertical (%d,%d): got %d", dx, dy, got)
			}
		}
	}

	predictIntraChroma(p, 16, 4, 4, 8, predChromaH, intraNeighbors{left: true})
	for dy := 0; dy < 8; dy++ {
		for dx := 0; dx < 8; dx++ {
			if got := p[(4+dy)*16+4+dx]; got != uint8(100+dy) {
				t.Fatalf("horizontal (%d,%d): got %d", dx, dy, got)
			}
		}
	}
}

func TestIntraChromaPlaneFlat(t *testing.T) {
	for _, h := range []int{8, 16} {
		p := make([]uint8, 16*24)
		p[3*16+3] = 60
		for i := 0; i < 8; i++ {
			p[3*16+4+i] = 60
		}
		for i := 0; i < h; i++ {
			p[(4+i)*16+3] = 60
		}
		predictIntraChroma(p, 16, 4, 4, h, predChromaPlane, intraNeighbors{left: true, top: true, topLeft: true})
		for dy := 0; dy < h; dy++ {
			for dx := 0; dx < 8; dx++ {
				if got := p[(4+dy)*16+4+dx]; got != 60 {
					t.Fatalf("h=%d sample (%d,%d): got %d, want 60", h, dx, dy, got)
				}
			}
		}
	}
}
