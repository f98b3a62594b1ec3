package nal

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/thesyncim/goavc/internal/bits"
)

// SEI payload types this decoder interprets (Rec. H.264 Annex D).
// Every other type is preserved raw.
const (
	SEITypeBufferingPeriod      = 0
	SEITypePicTiming            = 1
	SEITypeUserDataUnregistered = 5
	SEITypeRecoveryPoint        = 6
)

// SEIMessage is one parsed SEI payload.
type SEIMessage interface {
	// SEIType returns the payloadType field of the message.
	SEIType() uint32
}

// SEIBufferingPeriod carries the HRD buffering period
// (Section D.1.1). Only the SPS binding is interpreted.
type SEIBufferingPeriod struct {
	SPSID uint32
	Raw   []byte
}

// SEIType implements SEIMessage.
func (SEIBufferingPeriod) SEIType() uint32 { return SEITypeBufferingPeriod }

// SEIPicTiming carries picture timing (Section D.1.2), kept raw
// because interpreting it requires HRD parameters this decoder does
// not track.
type SEIPicTiming struct {
	Raw []byte
}

// SEIType implements SEIMessage.
func (SEIPicTiming) SEIType() uint32 { return SEITypePicTiming }

// SEIUserDataUnregistered carries opaque user data behind a 16-byte
// UUID (Section D.1.7). Encoders stamp their version strings here.
type SEIUserDataUnregistered struct {
	UUID uuid.UUID
	Data []byte
}

// SEIType implements SEIMessage.
func (SEIUserDataUnregistered) SEIType() uint32 { return SEITypeUserDataUnregistered }

// SEIRecoveryPoint marks a gradual-refresh recovery point
// (Section D.1.8): the picture recovery_frame_cnt frames after this
// one is fully intra-refreshed and safe to start decoding from.
type SEIRecoveryPoint struct {
	RecoveryFrameCnt      uint32
	ExactMatch            bool
	BrokenLink            bool
	ChangingSliceGroupIdc uint8
}

// SEIType implements SEIMessage.
func (SEIRecoveryPoint) SEIType() uint32 { return SEITypeRecoveryPoint }

// SEIUnknown preserves a payload this decoder does not interpret.
type SEIUnknown struct {
	PayloadType uint32
	Data        []byte
}

// SEIType implements SEIMessage.
func (m SEIUnknown) SEIType() uint32 { return m.PayloadType }

// ParseSEI parses all messages of one SEI RBSP. A malformed message
// aborts the whole unit; SEI is advisory, so callers drop the unit
// and continue.
func ParseSEI(rbsp []byte) ([]SEIMessage, error) {
	var msgs []SEIMessage
	pos := 0
	for !seiTrailing(rbsp, pos) {
		ptype, next, err := readFFCoded(rbsp, pos)
		if err != nil {
			return nil, err
		}
		psize, next, err := readFFCoded(rbsp, next)
		if err != nil {
			return nil, err
		}
		if next+int(psize) > len(rbsp) {
			return nil, fmt.Errorf("%w: payload type %d wants %d bytes, %d left",
				ErrTruncatedSEI, ptype, psize, len(rbsp)-next)
		}
		payload := rbsp[next : next+int(psize)]
		msg, err := parseSEIPayload(ptype, payload)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
		pos = next + int(psize)
	}
	return msgs, nil
}

func parseSEIPayload(ptype uint32, payload []byte) (SEIMessage, error) {
	switch ptype {
	case SEITypeBufferingPeriod:
		r := bits.NewReader(payload)
		spsID, err := r.ReadUE()
		if err != nil {
			return nil, fmt.Errorf("%w: buffering period", ErrTruncatedSEI)
		}
		return SEIBufferingPeriod{SPSID: spsID, Raw: payload}, nil
	case SEITypePicTiming:
		return SEIPicTiming{Raw: payload}, nil
	case SEITypeUserDataUnregistered:
		if len(payload) < 16 {
			return nil, fmt.Errorf("%w: user data needs 16-byte uuid", ErrTruncatedSEI)
		}
		id, err := uuid.FromBytes(payload[:16])
		if err != nil {
			return nil, fmt.Errorf("nal: sei uuid: %w", err)
		}
		return SEIUserDataUnregistered{UUID: id, Data: payload[16:]}, nil
	case SEITypeRecoveryPoint:
		r := bits.NewReader(payload)
		cnt, err := r.ReadUE()
		if err != nil {
			return nil, fmt.Errorf("%w: recovery point", ErrTruncatedSEI)
		}
		exact, err := r.ReadFlag()
		if err != nil {
			return nil, fmt.Errorf("%w: recovery point", ErrTruncatedSEI)
		}
		broken, err := r.ReadFlag()
		if err != nil {
			return nil, fmt.Errorf("%w: recovery point", ErrTruncatedSEI)
		}
		idc, err := r.ReadBits(2)
		if err != nil {
			return nil, fmt.Errorf("%w: recovery point", ErrTruncatedSEI)
		}
		return SEIRecoveryPoint{
			RecoveryFrameCnt:      cnt,
			ExactMatch:            exact,
			BrokenLink:            broken,
			ChangingSliceGroupIdc: uint8(idc),
		}, nil
	default:
		return SEIUnknown{PayloadType: ptype, Data: payload}, nil
	}
}

// readFFCoded reads the ff-coded values used for payloadType and
// payloadSize: a run of 0xFF bytes each adding 255, then a final
// byte.
func readFFCoded(data []byte, pos int) (uint32, int, error) {
	var v uint32
	for {
		if pos >= len(data) {
			return 0, 0, fmt.Errorf("%w: unterminated ff-coded value", ErrTruncatedSEI)
		}
		b := data[pos]
		pos++
		if b != 0xFF {
			return v + uint32(b), pos, nil
		}
		v += 255
	}
}

// seiTrailing reports whether only rbsp_trailing_bits remain at pos.
func seiTrailing(data []byte, pos int) bool {
	if pos >= len(data) {
		return true
	}
	if data[pos] != 0x80 {
		return false
	}
	for _, b := range data[pos+1:] {
		if b != 0x00 {
			return false
		}
	}
	return true
}
