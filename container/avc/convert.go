package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/nal"
)

// AnnexBToLengthPrefixed repacks an Annex-B buffer into 4-byte
// length-prefixed units, the framing MP4 and MKV store.
func AnnexBToLengthPrefixed(data []byte) []byte {
	return nal.AnnexBToLengthPrefixed(data)
}

// LengthPrefixedToAnnexB repacks length-prefixed units into an
// Annex-B buffer with 4-byte start codes. lengthSize is the prefix
// size in bytes, 1 to 4, from the stream's decoder configuration.
func LengthPrefixedToAnnexB(data []byte, lengthSize int) []byte {
	return nal.LengthPrefixedToAnnexB(data, lengthSize)
}

// BuildExtraData assembles an avcC decoder configuration record from
// raw SPS and PPS units, header bytes included. lengthSize 0 selects
// 4-byte prefixes.
func BuildExtraData(sps, pps [][]byte, lengthSize int) ([]byte, error) {
	cfg := nal.DecoderConfig{SPS: sps, PPS: pps, LengthSize: lengthSize}
	out, err := cfg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidExtraData, err)
	}
	return out, nil
}

// ExtraDataToAnnexB unpacks an avcC record into Annex-B parameter
// set units, and reports the length-prefix size the record declares
// for the stream body.
func ExtraDataToAnnexB(avcc []byte) ([]byte, int, error) {
	cfg, err := nal.ParseDecoderConfig(avcc)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidExtraData, err)
	}
	var out []byte
	for _, u := range cfg.SPS {
		out = append(out, startCodePrefix...)
		out = append(out, u...)
	}
	for _, u := range cfg.PPS {
		out = append(out, startCodePrefix...)
		out = append(out, u...)
	}
	return out, cfg.LengthSize, nil
}
