// decoder.go implements the public Decoder API for H.264 decoding.

package goavc

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/thesyncim/goavc/internal/avc"
	"github.com/thesyncim/goavc/internal/nal"
)

// Decoder decodes H.264 access units into YCbCr frames.
//
// A Decoder maintains parameter sets, reference pictures and entropy
// state and is NOT safe for concurrent use. Each goroutine should
// create its own Decoder instance.
type Decoder struct {
	log  *zap.Logger
	core *avc.Decoder

	// lengthSize is the NAL length prefix width once SetExtraData
	// switched framing; 0 selects Annex B.
	lengthSize int

	nalDrops uint64
}

// NewDecoder creates a decoder. With no options it accepts any
// picture size and logs nothing.
func NewDecoder(opts ...Option) (*Decoder, error) {
	cfg := decoderOptions{log: zap.NewNop()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	return &Decoder{
		log:  cfg.log,
		core: avc.NewDecoder(cfg.log, cfg.maxWidth, cfg.maxHeight),
	}, nil
}

// Decode decodes one access unit and returns the frames that became
// ready, in display order. Streams with B pictures hold frames back
// for reordering, so the returned slice may be empty for some calls
// and carry several frames for others.
//
// au holds the NAL units of the access unit: an Annex-B fragment by
// default, length-prefixed after SetExtraData. An empty au decodes
// to nothing.
//
// Frames and a non-nil error can return together. Recoverable damage
// (ErrMalformedStream, ErrNoSuchParameterSet, ErrSliceDesync,
// ErrCorruptMacroblock) is already dropped or concealed when Decode
// returns and the next call proceeds cleanly; the error reports the
// first problem so callers can track stream health. Only
// ErrUnsupported means the stream cannot be decoded.
func (d *Decoder) Decode(au []byte) ([]*Frame, error) {
	var units [][]byte
	if d.lengthSize > 0 {
		units = nal.SplitLengthPrefixed(au, d.lengthSize)
	} else {
		units = nal.SplitAnnexB(au)
	}
	if len(units) == 0 {
		if len(au) == 0 {
			return nil, nil
		}
		err := fmt.Errorf("%w: no NAL units in %d-byte access unit", ErrMalformedStream, len(au))
		d.dropNAL(err)
		return nil, err
	}

	var firstErr error
	for _, raw := range units {
		err := d.decodeNAL(raw)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrSliceDesync) && !errors.Is(err, ErrCorruptMacroblock) {
			// Desynced slices already contributed macroblocks and
			// get concealed; everything else was discarded whole.
			d.dropNAL(err)
		}
		if firstErr == nil {
			firstErr = err
		}
		if errors.Is(err, ErrUnsupported) {
			break
		}
	}
	return frames(d.core.EndAU()), firstErr
}

// decodeNAL routes one raw NAL unit. Errors come back classified on
// the public sentinels.
func (d *Decoder) decodeNAL(raw []byte) error {
	u, err := nal.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	switch u.Type {
	case nal.UnitTypeSliceNonIDR, nal.UnitTypeSliceIDR:
		return classify(d.core.DecodeSlice(u.RefIdc, u.IsIDR(), u.RBSP()), ErrSliceDesync)
	case nal.UnitTypeSPS:
		return classify(d.core.AddSPS(u.RBSP()), ErrMalformedStream)
	case nal.UnitTypePPS:
		return classify(d.core.AddPPS(u.RBSP()), ErrMalformedStream)
	case nal.UnitTypeSEI:
		return d.decodeSEI(u.RBSP())
	case nal.UnitTypeSliceDPA, nal.UnitTypeSliceDPB, nal.UnitTypeSliceDPC:
		return fmt.Errorf("%w: data partitioned slice (nal type %d)", ErrUnsupported, u.Type)
	default:
		// Delimiters, end markers, filler and reserved types carry
		// nothing to decode.
		return nil
	}
}

func (d *Decoder) decodeSEI(rbsp []byte) error {
	parsed, err := nal.ParseSEI(rbsp)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	msgs := convertSEI(parsed)
	if len(msgs) == 0 {
		return nil
	}
	attach := make([]any, len(msgs))
	for i, m := range msgs {
		if rp, ok := m.(SEIRecoveryPoint); ok {
			d.core.SignalRecoveryPoint(rp.RecoveryFrameCnt)
		}
		attach[i] = m
	}
	d.core.AttachSEI(attach)
	return nil
}

// SetExtraData installs an avcC decoder configuration record, the
// form codec setup takes in MP4 sample descriptions and most
// containers' extradata fields. Its SPS and PPS register immediately
// and input framing switches to length-prefixed NAL units of the
// record's declared length size. On error nothing changes.
func (d *Decoder) SetExtraData(avcc []byte) error {
	cfg, err := nal.ParseDecoderConfig(avcc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedStream, err)
	}
	for _, raw := range cfg.SPS {
		if err := d.decodeNAL(raw); err != nil {
			return err
		}
	}
	for _, raw := range cfg.PPS {
		if err := d.decodeNAL(raw); err != nil {
			return err
		}
	}
	d.lengthSize = cfg.LengthSize
	return nil
}

// Flush drains the reorder buffer: the frames still queued return in
// display order. Flushing does not disturb decode state, so it is
// safe at stream end or around a seek; a second call returns
// nothing.
func (d *Decoder) Flush() []*Frame {
	return frames(d.core.Flush())
}

// Reset returns the decoder to its post-construction state:
// parameter sets, references and queued frames are gone and framing
// is Annex B again. The statistics counters survive.
func (d *Decoder) Reset() {
	d.core.Reset()
	d.lengthSize = 0
}

// MalformedNALDrops counts NAL units dropped or abandoned for
// unreadable syntax, missing parameter sets or unsupported features.
func (d *Decoder) MalformedNALDrops() uint64 { return d.nalDrops }

// ConcealedMacroblocks counts macroblocks filled in by error
// concealment.
func (d *Decoder) ConcealedMacroblocks() uint64 { return d.core.ConcealedMacroblocks() }

// MissingReferenceFallbacks counts reference list entries that had
// to be fabricated for damaged or incomplete streams.
func (d *Decoder) MissingReferenceFallbacks() uint64 { return d.core.MissingReferenceFallbacks() }

func (d *Decoder) dropNAL(err error) {
	d.nalDrops++
	if n := d.nalDrops; n < 8 || n%64 == 0 {
		d.log.Warn("nal unit dropped", zap.Error(err), zap.Uint64("total", n))
	}
}

// classify maps internal error kinds onto the public sentinels.
// Errors carrying no known kind, such as bare bit-reader exhaustion
// from a truncated payload, classify as fallback.
func classify(err, fallback error) error {
	if err == nil {
		return nil
	}
	sentinel := fallback
	switch {
	case errors.Is(err, avc.ErrUnsupported):
		sentinel = ErrUnsupported
	case errors.Is(err, avc.ErrNoParamSet):
		sentinel = ErrNoSuchParameterSet
	case errors.Is(err, avc.ErrDesync):
		sentinel = ErrSliceDesync
	case errors.Is(err, avc.ErrCorruptMB):
		sentinel = ErrCorruptMacroblock
	case errors.Is(err, avc.ErrMalformed):
		sentinel = ErrMalformedStream
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}

func frames(pics []*avc.Picture) []*Frame {
	if len(pics) == 0 {
		return nil
	}
	out := make([]*Frame, len(pics))
	for i, p := range pics {
		out[i] = newFrame(p)
	}
	return out
}
