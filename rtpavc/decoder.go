// Package rtpavc contains an RTP/H.264 depacketizer.
// Specification: https://datatracker.ietf.org/doc/html/rfc6184
package rtpavc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pion/rtp"

	"github.com/thesyncim/goavc/internal/nal"
)

const (
	// MaxAccessUnitSize bounds reassembly. A 50 Mbps 2160p60 stream
	// stays under 8 MiB per access unit.
	MaxAccessUnitSize = 8 * 1024 * 1024

	// MaxNALUsPerAccessUnit bounds the unit count of one access unit.
	MaxNALUsPerAccessUnit = 21
)

// RFC 6184 payload structure types, outside the H.264 NAL range.
const (
	typeSTAPA  = 24
	typeSTAPB  = 25
	typeMTAP16 = 26
	typeMTAP24 = 27
	typeFUA    = 28
	typeFUB    = 29
)

var annexBPrefix = []byte{0x00, 0x00, 0x00, 0x01}

// ErrMorePacketsNeeded is returned while the access unit is still
// incomplete and more packets are needed.
var ErrMorePacketsNeeded = errors.New("need more packets")

// ErrNonStartingFragment is returned for a non-starting fragment
// with no starting fragment before it. This is normal when joining
// a stream already in flight.
var ErrNonStartingFragment = errors.New(
	"received a non-starting fragment without any previous starting fragment")

// Decoder depacketizes an RTP/H.264 stream into access units. Not
// safe for concurrent use.
type Decoder struct {
	// PacketizationMode is the negotiated packetization-mode fmtp
	// parameter. Modes 0 and 1 are supported.
	PacketizationMode int

	firstPacketSeen bool
	fragments       [][]byte
	fragmentsSize   int
	fragmentNextSeq uint16
	annexBMode      bool

	au     [][]byte
	auSize int
}

// Init checks the configuration. It must be called before Decode.
func (d *Decoder) Init() error {
	if d.PacketizationMode >= 2 {
		return fmt.Errorf("packetization mode %d is not supported", d.PacketizationMode)
	}
	return nil
}

// Decode adds one RTP packet and, when the packet carries the
// marker closing an access unit, returns the NAL units of that
// access unit. It returns ErrMorePacketsNeeded while the unit is
// incomplete. Join the units with AnnexB to feed a decoder.
func (d *Decoder) Decode(pkt *rtp.Packet) ([][]byte, error) {
	units, err := d.decodeUnits(pkt)
	if err != nil {
		return nil, err
	}

	if len(d.au)+len(units) > MaxNALUsPerAccessUnit {
		d.resetAU()
		return nil, fmt.Errorf("NAL unit count exceeds maximum allowed (%d)",
			MaxNALUsPerAccessUnit)
	}
	add := 0
	for _, u := range units {
		add += len(u)
	}
	if d.auSize+add > MaxAccessUnitSize {
		d.resetAU()
		return nil, fmt.Errorf("access unit size (%d) exceeds maximum allowed (%d)",
			d.auSize+add, MaxAccessUnitSize)
	}

	d.au = append(d.au, units...)
	d.auSize += add

	if !pkt.Marker {
		return nil, ErrMorePacketsNeeded
	}

	au := d.au
	// The slice is handed to the caller and never reused.
	d.resetAU()
	return au, nil
}

func (d *Decoder) decodeUnits(pkt *rtp.Packet) ([][]byte, error) {
	if len(pkt.Payload) == 0 {
		d.resetFragments()
		return nil, fmt.Errorf("empty payload")
	}

	var units [][]byte

	switch pkt.Payload[0] & 0x1F {
	case typeFUA:
		u, err := d.decodeFUA(pkt)
		if err != nil {
			return nil, err
		}
		units = [][]byte{u}

	case typeSTAPA:
		d.resetFragments()
		var err error
		units, err = decodeSTAPA(pkt.Payload[1:])
		if err != nil {
			return nil, err
		}
		d.firstPacketSeen = true

	case typeSTAPB, typeMTAP16, typeMTAP24, typeFUB:
		d.resetFragments()
		d.firstPacketSeen = true
		return nil, fmt.Errorf("unsupported packet type %d", pkt.Payload[0]&0x1F)

	default:
		d.resetFragments()
		d.firstPacketSeen = true
		units = [][]byte{pkt.Payload}
	}

	return d.unwrapAnnexB(units)
}

func (d *Decoder) decodeFUA(pkt *rtp.Packet) ([]byte, error) {
	if len(pkt.Payload) < 2 {
		return nil, fmt.Errorf("FU-A payload is too short")
	}

	start := pkt.Payload[1]>>7 != 0
	end := pkt.Payload[1]>>6&0x01 != 0

	if start {
		d.resetFragments()

		// Rebuild the unit header from the indicator NRI and the
		// fragmented type.
		header := pkt.Payload[0]&0x60 | pkt.Payload[1]&0x1F
		d.fragments = append(d.fragments, []byte{header}, pkt.Payload[2:])
		d.fragmentsSize = 1 + len(pkt.Payload[2:])
		d.fragmentNextSeq = pkt.SequenceNumber + 1
		d.firstPacketSeen = true

		// RFC 6184 forbids setting start and end in the same FU, but
		// some cameras fragment small pictures this way.
		if end {
			u := joinFragments(d.fragments, d.fragmentsSize)
			d.resetFragments()
			return u, nil
		}
		return nil, ErrMorePacketsNeeded
	}

	if d.fragmentsSize == 0 {
		if !d.firstPacketSeen {
			return nil, ErrNonStartingFragment
		}
		return nil, fmt.Errorf("invalid non-starting FU-A packet")
	}
	if pkt.SequenceNumber != d.fragmentNextSeq {
		d.resetFragments()
		return nil, fmt.Errorf("fragment lost, discarding the unit")
	}

	d.fragmentsSize += len(pkt.Payload[2:])
	if d.fragmentsSize > MaxAccessUnitSize {
		d.resetFragments()
		return nil, fmt.Errorf("NAL unit size (%d) exceeds maximum allowed (%d)",
			d.fragmentsSize, MaxAccessUnitSize)
	}
	d.fragments = append(d.fragments, pkt.Payload[2:])
	d.fragmentNextSeq++

	if !end {
		return nil, ErrMorePacketsNeeded
	}
	u := joinFragments(d.fragments, d.fragmentsSize)
	d.resetFragments()
	return u, nil
}

func decodeSTAPA(payload []byte) ([][]byte, error) {
	var units [][]byte
	for len(payload) > 0 {
		if len(payload) < 2 {
			return nil, fmt.Errorf("invalid STAP-A packet: truncated unit size")
		}
		size := int(payload[0])<<8 | int(payload[1])
		payload = payload[2:]

		// Trailing padding shows up as a zero size over zero bytes.
		if size == 0 {
			if isAllZero(payload) {
				break
			}
			return nil, fmt.Errorf("invalid STAP-A packet: zero unit size")
		}
		if size > len(payload) {
			return nil, fmt.Errorf("invalid STAP-A packet: unit size %d exceeds payload", size)
		}
		units = append(units, payload[:size])
		payload = payload[size:]
	}
	if units == nil {
		return nil, fmt.Errorf("STAP-A packet contains no units")
	}
	return units, nil
}

// Some cameras and servers put whole Annex-B buffers into single
// packets. Once one is seen, single units keep being unwrapped.
func (d *Decoder) unwrapAnnexB(units [][]byte) ([][]byte, error) {
	if len(units) != 1 {
		return units, nil
	}
	u := units[0]

	if !d.annexBMode && bytes.Contains(u, annexBPrefix) {
		d.annexBMode = true
	}
	if !d.annexBMode {
		return units, nil
	}

	if !bytes.HasPrefix(u, annexBPrefix) {
		buf := make([]byte, 0, len(annexBPrefix)+len(u))
		buf = append(buf, annexBPrefix...)
		buf = append(buf, u...)
		u = buf
	}
	split := nal.SplitAnnexB(u)
	if split == nil {
		return nil, fmt.Errorf("invalid Annex-B payload")
	}
	return split, nil
}

func (d *Decoder) resetFragments() {
	d.fragments = d.fragments[:0]
	d.fragmentsSize = 0
}

func (d *Decoder) resetAU() {
	d.au = nil
	d.auSize = 0
}

func joinFragments(fragments [][]byte, size int) []byte {
	out := make([]byte, size)
	n := 0
	for _, f := range fragments {
		n += copy(out[n:], f)
	}
	return out
}

func isAllZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
