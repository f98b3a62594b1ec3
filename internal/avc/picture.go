package avc

// Picture is one decoded frame. Planes are macroblock aligned;
// Width/Height are the aligned luma dimensions and CropW/CropH the
// display size after frame cropping. A picture is mutated during
// reconstruction and deblocking, then read-only once stored in the
// DPB or handed to the caller.
type Picture struct {
	Y  []uint8
	Cb []uint8
	Cr []uint8

	StrideY int
	StrideC int
	Width   int
	Height  int
	ChromaW int
	ChromaH int

	CropW int
	CropH int

	POC      int32
	FrameNum int
	Type     SliceType
	IDR      bool
	Keyframe bool

	// SEI carries the messages of the access unit that coded this
	// picture, opaque to this package, so they reach the caller in
	// output order.
	SEI []any

	// Colocated list-0 motion at macroblock granularity, kept for
	// direct prediction when this picture later serves as the first
	// list-1 reference. colRef < 0 marks an intra or unavailable
	// macroblock; colPOC is the POC of the picture that motion
	// referenced, so temporal direct can map it into the current
	// list 0.
	colMVx []int16
	colMVy []int16
	colRef []int8
	colPOC []int32

	mbWidth  int
	mbHeight int
}

// newPicture allocates a picture for the given SPS geometry with all
// planes mid-gray. Frame streams only, so map units are macroblocks.
func newPicture(sps *SPS) *Picture {
	mbW := int(sps.PicWidthInMbs)
	mbH := int(sps.PicHeightInMapUnits)
	w := mbW * 16
	h := mbH * 16
	cw := w / 2
	ch := h
	if sps.ChromaFormatIDC == 1 {
		ch = h / 2
	}

	p := &Picture{
		StrideY:  w,
		StrideC:  cw,
		Width:    w,
		Height:   h,
		ChromaW:  cw,
		ChromaH:  ch,
		CropW:    sps.Width,
		CropH:    sps.Height,
		Y:        make([]uint8, w*h),
		Cb:       make([]uint8, cw*ch),
		Cr:       make([]uint8, cw*ch),
		colMVx:   make([]int16, mbW*mbH),
		colMVy:   make([]int16, mbW*mbH),
		colRef:   make([]int8, mbW*mbH),
		colPOC:   make([]int32, mbW*mbH),
		mbWidth:  mbW,
		mbHeight: mbH,
	}
	fillPlane(p.Y, 128)
	fillPlane(p.Cb, 128)
	fillPlane(p.Cr, 128)
	for i := range p.colRef {
		p.colRef[i] = -1
	}
	return p
}

// compatible reports whether the picture geometry matches the SPS, so
// buffers can be reused across pictures of an unchanged sequence.
func (p *Picture) compatible(sps *SPS) bool {
	if p == nil {
		return false
	}
	ch := int(sps.PicHeightInMapUnits) * 16
	if sps.ChromaFormatIDC == 1 {
		ch /= 2
	}
	return p.Width == int(sps.PicWidthInMbs)*16 && p.Height == int(sps.PicHeightInMapUnits)*16 && p.ChromaH == ch
}

func fillPlane(p []uint8, v uint8) {
	for i := range p {
		p[i] = v
	}
}

// grayPicture builds a mid-gray stand-in used when a reference index
// points at nothing decodable.
func grayPicture(sps *SPS) *Picture {
	return newPicture(sps)
}
