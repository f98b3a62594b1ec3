// frame.go defines the decoded frame handed to callers.

package goavc

import (
	"image"

	"github.com/thesyncim/goavc/internal/avc"
)

// PictureType classifies how a frame was coded.
type PictureType uint8

// Picture types in coding order of cost: intra, predicted,
// bi-predicted.
const (
	PictureTypeI PictureType = iota
	PictureTypeP
	PictureTypeB
)

// String returns the one-letter conventional name.
func (t PictureType) String() string {
	switch t {
	case PictureTypeI:
		return "I"
	case PictureTypeP:
		return "P"
	case PictureTypeB:
		return "B"
	default:
		return "?"
	}
}

// Frame is one decoded picture in display order.
//
// The planes alias decoder memory that is never rewritten, so they
// remain valid across later Decode calls, but callers must treat
// them as read-only. Rows may extend past Width up to the stride;
// the samples there are reconstruction padding, not display content.
type Frame struct {
	Y  []uint8
	Cb []uint8
	Cr []uint8

	// StrideY and StrideC are the distances between vertically
	// adjacent samples in the luma and chroma planes.
	StrideY int
	StrideC int

	// Width and Height are the cropped display size in luma samples.
	Width  int
	Height int

	// SubsampleRatio is image.YCbCrSubsampleRatio420 or 422.
	SubsampleRatio image.YCbCrSubsampleRatio

	// POC orders frames for display within a coded video sequence.
	POC int32

	// FrameNum is the decode-order counter from the slice header.
	FrameNum int

	// Type is the coding class of the picture. Multi-slice pictures
	// report the class of their first slice.
	Type PictureType

	// Keyframe marks a safe decode entry point: an IDR picture or a
	// recovery point announced by SEI.
	Keyframe bool

	// SEI carries the parsed messages of the access unit that coded
	// this frame.
	SEI []SEIMessage
}

// YCbCr returns a zero-copy stdlib image view of the frame, cropped
// to the display size. The view shares the frame's read-only planes.
func (f *Frame) YCbCr() *image.YCbCr {
	return &image.YCbCr{
		Y:              f.Y,
		Cb:             f.Cb,
		Cr:             f.Cr,
		YStride:        f.StrideY,
		CStride:        f.StrideC,
		SubsampleRatio: f.SubsampleRatio,
		Rect:           image.Rect(0, 0, f.Width, f.Height),
	}
}

func newFrame(p *avc.Picture) *Frame {
	ratio := image.YCbCrSubsampleRatio420
	if p.ChromaH == p.Height {
		ratio = image.YCbCrSubsampleRatio422
	}
	f := &Frame{
		Y:              p.Y,
		Cb:             p.Cb,
		Cr:             p.Cr,
		StrideY:        p.StrideY,
		StrideC:        p.StrideC,
		Width:          p.CropW,
		Height:         p.CropH,
		SubsampleRatio: ratio,
		POC:            p.POC,
		FrameNum:       p.FrameNum,
		Type:           pictureTypeOf(p.Type),
		Keyframe:       p.Keyframe,
	}
	for _, m := range p.SEI {
		if msg, ok := m.(SEIMessage); ok {
			f.SEI = append(f.SEI, msg)
		}
	}
	return f
}

func pictureTypeOf(t avc.SliceType) PictureType {
	switch t {
	case avc.SliceTypeP:
		return PictureTypeP
	case avc.SliceTypeB:
		return PictureTypeB
	default:
		return PictureTypeI
	}
}
