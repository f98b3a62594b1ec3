// Package avc implements the H.264 byte-stream formats around the
// decoder: Annex-B elementary streams and the length-prefixed
// framing used inside container files.
//
// Annex B (Rec. ITU-T H.264 Annex B) is the raw format of .h264/.264
// files and of video carried in MPEG-TS: NAL units separated by
// 0x000001 or 0x00000001 start codes, with emulation-prevention
// bytes keeping start codes out of payloads. Containers such as MP4
// and MKV instead store big-endian length-prefixed NAL units plus an
// avcC decoder configuration record (ISO/IEC 14496-15 Section
// 5.3.3.1) carrying the parameter sets and the length-prefix size.
//
// # Reading
//
// Reader scans an io.Reader for start codes and returns NAL units or
// whole access units. Access-unit boundaries follow Section
// 7.4.1.2.3 reduced to progressive streams without slice reordering:
// a delimiter, parameter set or SEI after slice data starts a new
// unit, as does a slice with first_mb_in_slice zero. ReadAccessUnit
// output feeds goavc.Decoder.Decode directly.
//
// # Writing and conversion
//
// Writer emits NAL units with 4-byte start codes. The conversion
// helpers repack buffers between the two framings and build or
// unpack avcC records, so streams can move between byte-stream and
// container form without touching the codec layer.
package avc
