// sei.go exposes the SEI messages attached to decoded frames.

package goavc

import (
	"github.com/google/uuid"

	"github.com/thesyncim/goavc/internal/nal"
)

// SEI payload types this decoder interprets (Rec. ITU-T H.264
// Annex D). Every other payload is preserved raw as SEIUnknown.
const (
	SEITypeBufferingPeriod      = 0
	SEITypePicTiming            = 1
	SEITypeUserDataUnregistered = 5
	SEITypeRecoveryPoint        = 6
)

// SEIMessage is one supplemental enhancement information payload
// from the access unit that coded a frame.
type SEIMessage interface {
	// SEIType returns the payloadType field of the message.
	SEIType() uint32
}

// SEIBufferingPeriod carries the HRD buffering period (Section
// D.1.1). Only the SPS binding is interpreted; Raw keeps the whole
// payload.
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

// SEIRecoveryPoint marks a gradual-refresh entry point (Section
// D.1.8): the picture RecoveryFrameCnt frames after this one is
// fully refreshed. The decoder also acts on this message itself and
// flags the refreshed frame as a keyframe.
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

func convertSEI(msgs []nal.SEIMessage) []SEIMessage {
	out := make([]SEIMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m := m.(type) {
		case nal.SEIBufferingPeriod:
			out = append(out, SEIBufferingPeriod{SPSID: m.SPSID, Raw: m.Raw})
		case nal.SEIPicTiming:
			out = append(out, SEIPicTiming{Raw: m.Raw})
		case nal.SEIUserDataUnregistered:
			out = append(out, SEIUserDataUnregistered{UUID: m.UUID, Data: m.Data})
		case nal.SEIRecoveryPoint:
			out = append(out, SEIRecoveryPoint{
				RecoveryFrameCnt:      m.RecoveryFrameCnt,
				ExactMatch:            m.ExactMatch,
				BrokenLink:            m.BrokenLink,
				ChangingSliceGroupIdc: m.ChangingSliceGroupIdc,
			})
		case nal.SEIUnknown:
			out = append(out, SEIUnknown{PayloadType: m.PayloadType, Data: m.Data})
		}
	}
	return out
}
