// Package goavc implements an H.264/AVC video decoder in pure Go.
//
// The decoder handles progressive Baseline, Constrained Baseline,
// Main, High and High 4:2:2 streams with 8-bit samples: CAVLC and
// CABAC entropy coding, all intra and inter prediction modes,
// weighted prediction, the full in-loop deblocking filter and
// standard-compliant reference picture management with frame
// reordering. Interlaced coding tools, slice groups (FMO), data
// partitioning and SP/SI slices are rejected as unsupported. It
// requires no cgo dependencies.
//
// # Input
//
// Decode consumes one access unit per call. Framing is an Annex B
// byte stream (start-code delimited NAL units) by default; after
// SetExtraData installs an avcC decoder configuration record, input
// switches to the length-prefixed framing used inside MP4 and
// similar containers.
//
// # Output
//
// Frames return in display order, so streams with B pictures incur a
// reorder delay: a Decode call may return no frame, one frame or
// several. Flush drains whatever is still queued when the stream
// ends. Frame planes alias decoder memory and must be treated as
// read-only; they stay valid across later Decode calls.
//
// # Error handling
//
// Corrupted input never panics and rarely stops decoding: damaged
// NAL units are dropped and damaged slice tails are concealed, while
// the error returned alongside any frames classifies what went
// wrong. Only
// ErrUnsupported is fatal for a stream. MalformedNALDrops,
// ConcealedMacroblocks and MissingReferenceFallbacks expose running
// counts for health monitoring.
package goavc
