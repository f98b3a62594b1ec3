// errors.go defines the public error kinds of the goavc package.

package goavc

import "errors"

// Error kinds returned by Decode and the configuration calls. The
// decoder wraps every failure onto one of these, so errors.Is
// classifies any error the package returns.
var (
	// ErrMalformedStream indicates syntax that could not be read:
	// truncated NAL units, impossible codes, out-of-range fields.
	// The offending NAL unit is dropped and decoding continues.
	ErrMalformedStream = errors.New("goavc: malformed bitstream")

	// ErrUnsupported indicates a valid stream using a coding tool
	// outside this decoder's scope: interlaced coding, bit depths
	// above 8, 4:4:4 chroma, slice groups, data partitioning.
	// Fatal for the stream; partial support would corrupt every
	// later picture silently.
	ErrUnsupported = errors.New("goavc: unsupported stream feature")

	// ErrNoSuchParameterSet indicates a slice referencing an SPS or
	// PPS id that was never received, common after joining a stream
	// mid-GOP. The slice is dropped.
	ErrNoSuchParameterSet = errors.New("goavc: no such parameter set")

	// ErrSliceDesync indicates the entropy decoder failed to
	// terminate on the expected macroblock. The slice tail is
	// concealed and the picture still outputs.
	ErrSliceDesync = errors.New("goavc: slice data out of sync")

	// ErrCorruptMacroblock indicates a localized macroblock
	// inconsistency, concealed with smaller scope than a full
	// desync.
	ErrCorruptMacroblock = errors.New("goavc: corrupt macroblock")

	// ErrInvalidArgument indicates an invalid value passed to
	// NewDecoder or one of its options.
	ErrInvalidArgument = errors.New("goavc: invalid argument")
)
