// options.go configures the Decoder constructor.

package goavc

import (
	"fmt"

	"go.uber.org/zap"
)

type decoderOptions struct {
	log       *zap.Logger
	maxWidth  int
	maxHeight int
}

// Option configures a Decoder at construction.
type Option func(*decoderOptions) error

// WithLogger routes decoder diagnostics to log: warn-throttled
// reports of dropped NAL units, concealment and fabricated
// references, debug entries for parameter-set activations. The
// default is a no-op logger. A nil log restores the default.
func WithLogger(log *zap.Logger) Option {
	return func(o *decoderOptions) error {
		if log == nil {
			log = zap.NewNop()
		}
		o.log = log
		return nil
	}
}

// WithMaxDimensions caps the picture size any SPS may declare, in
// luma samples. Streams beyond the cap fail with ErrUnsupported
// before picture memory is allocated, bounding what a hostile
// bitstream can make the decoder allocate. Zero values are invalid;
// the default is no cap.
func WithMaxDimensions(w, h int) Option {
	return func(o *decoderOptions) error {
		if w <= 0 || h <= 0 {
			return fmt.Errorf("%w: max dimensions %dx%d", ErrInvalidArgument, w, h)
		}
		o.maxWidth = w
		o.maxHeight = h
		return nil
	}
}
