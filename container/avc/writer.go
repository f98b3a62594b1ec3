package avc

import (
	"fmt"
	"io"

	"github.com/thesyncim/goavc/internal/nal"
)

// Writer emits NAL units as an H.264 Annex-B byte stream with 4-byte
// start codes.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer framing NAL units onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteNALUnit writes one unit, header byte included, behind a start
// code.
func (w *Writer) WriteNALUnit(u []byte) error {
	if len(u) == 0 {
		return ErrEmptyUnit
	}
	if _, err := w.w.Write(startCodePrefix); err != nil {
		return err
	}
	_, err := w.w.Write(u)
	return err
}

// WriteAccessUnit writes the units of one access unit in order.
func (w *Writer) WriteAccessUnit(units [][]byte) error {
	for _, u := range units {
		if err := w.WriteNALUnit(u); err != nil {
			return err
		}
	}
	return nil
}

// WriteExtraData unpacks an avcC decoder configuration record and
// writes its parameter sets as in-band units, converting container
// extradata for byte-stream consumers.
func (w *Writer) WriteExtraData(avcc []byte) error {
	cfg, err := nal.ParseDecoderConfig(avcc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExtraData, err)
	}
	for _, u := range cfg.SPS {
		if err := w.WriteNALUnit(u); err != nil {
			return err
		}
	}
	for _, u := range cfg.PPS {
		if err := w.WriteNALUnit(u); err != nil {
			return err
		}
	}
	return nil
}
