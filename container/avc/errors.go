package avc

import "errors"

var (
	// ErrNoStartCode is returned when a stream carries data but no
	// Annex-B start code, so no NAL unit can be framed.
	ErrNoStartCode = errors.New("avc: no start code in stream")

	// ErrEmptyUnit is returned when a zero-length NAL unit is written.
	ErrEmptyUnit = errors.New("avc: empty nal unit")

	// ErrInvalidExtraData is returned for a malformed avcC decoder
	// configuration record.
	ErrInvalidExtraData = errors.New("avc: invalid decoder configuration record")
)
