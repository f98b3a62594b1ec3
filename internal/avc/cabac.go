package avc

// cabac.go implements the binary arithmetic decoding engine of
// Rec. ITU-T H.264 Section 9.3.3.2. Context initialization tables
// live in cabac_init.go; binarizations and context selection for the
// individual syntax elements live in cabac_syntax.go and
// cabac_residual.go.

// cabacContext is one adaptive probability model: a 6-bit state and
// the current most probable symbol.
type cabacContext struct {
	state uint8
	mps   uint8
}

// cabacContextCount covers ctxIdx 0..1023 (Table 9-11).
const cabacContextCount = 1024

type cabacContexts [cabacContextCount]cabacContext

// cabacDecoder holds the arithmetic decoding state over one slice's
// byte-aligned payload. Reads past the end deliver zero bits and
// latch overread; the macroblock loop turns that into ErrDesync.
type cabacDecoder struct {
	data    []byte
	bytePos int
	bitPos  uint

	codIRange  uint32
	codIOffset uint32
	overread   bool
}

// init primes the engine: codIRange starts at 510 and codIOffset
// takes the first nine bits (Section 9.3.1.2).
func (d *cabacDecoder) init(data []byte) {
	d.data = data
	d.bytePos = 0
	d.bitPos = 0
	d.overread = false
	d.codIRange = 510
	d.codIOffset = 0
	for i := 0; i < 9; i++ {
		d.codIOffset = d.codIOffset<<1 | d.readBit()
	}
}

func (d *cabacDecoder) readBit() uint32 {
	if d.bytePos >= len(d.data) {
		d.overread = true
		return 0
	}
	b := uint32(d.data[d.bytePos]>>(7-d.bitPos)) & 1
	d.bitPos++
	if d.bitPos == 8 {
		d.bitPos = 0
		d.bytePos++
	}
	return b
}

// bitsConsumed reports the read position in bits from the start of
// the payload.
func (d *cabacDecoder) bitsConsumed() int {
	return d.bytePos*8 + int(d.bitPos)
}

// decodeDecision decodes one bin against ctx (Section 9.3.3.2.1),
// updating the context state.
func (d *cabacDecoder) decodeDecision(ctx *cabacContext) uint32 {
	qIdx := (d.codIRange >> 6) & 3
	lps := uint32(rangeTabLPS[ctx.state][qIdx])
	d.codIRange -= lps

	var bin uint32
	if d.codIOffset < d.codIRange {
		bin = uint32(ctx.mps)
		ctx.state = transIdxMPS[ctx.state]
	} else {
		d.codIOffset -= d.codIRange
		d.codIRange = lps
		bin = uint32(1 - ctx.mps)
		if ctx.state == 0 {
			ctx.mps ^= 1
		}
		ctx.state = transIdxLPS[ctx.state]
	}
	for d.codIRange < 256 {
		d.codIRange <<= 1
		d.codIOffset = d.codIOffset<<1 | d.readBit()
	}
	return bin
}

// decodeBypass decodes one equiprobable bin (Section 9.3.3.2.3).
func (d *cabacDecoder) decodeBypass() uint32 {
	d.codIOffset = d.codIOffset<<1 | d.readBit()
	if d.codIOffset >= d.codIRange {
		d.codIOffset -= d.codIRange
		return 1
	}
	return 0
}

// decodeTerminate decodes end_of_slice_flag and the I_PCM escape
// (Section 9.3.3.2.4). A result of 1 ends arithmetic decoding.
func (d *cabacDecoder) decodeTerminate() uint32 {
	d.codIRange -= 2
	if d.codIOffset >= d.codIRange {
		return 1
	}
	for d.codIRange < 256 {
		d.codIRange <<= 1
		d.codIOffset = d.codIOffset<<1 | d.readBit()
	}
	return 0
}

// decodeBypassBits decodes n bypass bins as an MSB-first value.
func (d *cabacDecoder) decodeBypassBits(n uint) uint32 {
	var v uint32
	for i := uint(0); i < n; i++ {
		v = v<<1 | d.decodeBypass()
	}
	return v
}

// alignForPCM re-aligns the bitstream cursor to the next byte edge
// after decodeTerminate signalled I_PCM; sample bits follow raw.
func (d *cabacDecoder) alignForPCM() {
	if d.bitPos != 0 {
		d.bitPos = 0
		d.bytePos++
	}
}

// readPCMByte reads one raw sample byte during I_PCM.
func (d *cabacDecoder) readPCMByte() uint8 {
	if d.bytePos >= len(d.data) {
		d.overread = true
		return 0
	}
	b := d.data[d.bytePos]
	d.bytePos++
	return b
}

// resumeAfterPCM restarts arithmetic decoding after the raw I_PCM
// samples (Section 9.3.1.2 re-initialization).
func (d *cabacDecoder) resumeAfterPCM() {
	d.codIRange = 510
	d.codIOffset = 0
	for i := 0; i < 9; i++ {
		d.codIOffset = d.codIOffset<<1 | d.readBit()
	}
}

// rangeTabLPS is Table 9-44: the LPS subinterval width by context
// state and the two quantizer bits of codIRange.
var rangeTabLPS = [64][4]uint8{
	{128, 176, 208, 240}, {128, 167, 197, 227}, {128, 158, 187, 216}, {123, 150, 178, 205},
	{116, 142, 169, 195}, {111, 135, 160, 185}, {105, 128, 152, 175}, {100, 122, 144, 166},
	{95, 116, 137, 158}, {90, 110, 130, 150}, {85, 104, 123, 142}, {81, 99, 117, 135},
	{77, 94, 111, 128}, {73, 89, 105, 122}, {69, 85, 100, 116}, {66, 80, 95, 110},
	{62, 76, 90, 104}, {59, 72, 86, 99}, {56, 69, 81, 94}, {53, 65, 77, 89},
	{51, 62, 73, 85}, {48, 59, 69, 80}, {46, 56, 66, 76}, {43, 53, 63, 72},
	{41, 50, 59, 69}, {39, 48, 56, 65}, {37, 45, 54, 62}, {35, 43, 51, 59},
	{33, 41, 48, 56}, {32, 39, 46, 53}, {30, 37, 43, 50}, {29, 35, 41, 48},
	{27, 33, 39, 45}, {26, 31, 37, 43}, {24, 30, 35, 41}, {23, 28, 33, 39},
	{22, 27, 32, 37}, {21, 26, 30, 35}, {20, 24, 29, 33}, {19, 23, 27, 31},
	{18, 22, 26, 30}, {17, 21, 25, 28}, {16, 20, 23, 27}, {15, 19, 22, 25},
	{14, 18, 21, 24}, {14, 17, 20, 23}, {13, 16, 19, 22}, {12, 15, 18, 21},
	{12, 14, 17, 20}, {11, 14, 16, 19}, {11, 13, 15, 18}, {10, 12, 15, 17},
	{10, 12, 14, 16}, {9, 11, 13, 15}, {9, 11, 12, 14}, {8, 10, 12, 14},
	{8, 9, 11, 13}, {7, 9, 11, 12}, {7, 9, 10, 12}, {7, 8, 10, 11},
	{6, 8, 9, 11}, {6, 7, 9, 10}, {6, 7, 8, 9}, {2, 2, 2, 2},
}

// transIdxLPS is Table 9-45: next state after decoding the LPS.
var transIdxLPS = [64]uint8{
	0, 0, 1, 2, 2, 4, 4, 5, 6, 7, 8, 9, 9, 11, 11, 12,
	13, 13, 15, 15, 16, 16, 18, 18, 19, 19, 21, 21, 22, 22, 23, 24,
	24, 25, 26, 26, 27, 27, 28, 29, 29, 30, 30, 30, 31, 32, 32, 33,
	33, 33, 34, 34, 35, 35, 35, 36, 36, 36, 37, 37, 37, 38, 38, 63,
}

// transIdxMPS is Table 9-45: next state after decoding the MPS.
var transIdxMPS = [64]uint8{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48,
	49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 62, 63,
}
