package avc

// cabac_residual.go decodes transform coefficient levels per
// Rec. ITU-T H.264 Sections 9.3.2.3 and 9.3.3.1.3: coded_block_flag,
// the significance map and the UEG0-binarized levels, in scan order.

// Residual block categories of Table 9-42.
const (
	blockCatLumaDC   = 0
	blockCatLumaAC   = 1
	blockCatLuma4x4  = 2
	blockCatChromaDC = 3
	blockCatChromaAC = 4
	blockCatLuma8x8  = 5
)

// Context offsets from Table 9-11, indexed by block category.
var (
	cbfCtxBase  = [6]int{85, 89, 93, 97, 101, 1012}
	sigCtxBase  = [6]int{105, 120, 134, 149, 152, 402}
	lastCtxBase = [6]int{166, 181, 195, 210, 213, 417}
	absCtxBase  = [6]int{227, 237, 247, 257, 266, 426}
)

// sigCtx8x8 maps the 8x8 scan position to the ctxIdxInc of
// significant_coeff_flag for frame-coded blocks (Table 9-43).
var sigCtx8x8 = [63]uint8{
	0, 1, 2, 3, 4, 5, 5, 4, 4, 3, 3, 4, 4, 4, 5, 5,
	4, 4, 4, 4, 3, 3, 6, 7, 7, 7, 8, 9, 10, 9, 8, 7,
	7, 6, 11, 12, 13, 11, 6, 7, 8, 9, 14, 10, 9, 8, 6, 11,
	12, 13, 11, 6, 9, 14, 10, 9, 11, 12, 13, 11, 14, 10, 12,
}

// lastCtx8x8 is the companion map for last_significant_coeff_flag.
var lastCtx8x8 = [63]uint8{
	0, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2,
	3, 3, 3, 3, 3, 3, 3, 3, 4, 4, 4, 4, 4, 4, 4, 4,
	5, 5, 5, 5, 6, 6, 6, 6, 7, 7, 7, 7, 8, 8, 8,
}

// decodeCodedBlockFlag decodes coded_block_flag for one block of the
// given category. inc is the neighbor-derived increment.
func (d *cabacDecoder) decodeCodedBlockFlag(ctxs *cabacContexts, cat, inc int) bool {
	return d.decodeDecision(&ctxs[cbfCtxBase[cat]+inc]) == 1
}

// decodeResidualBlock decodes the significance map and levels of one
// coded block into coeffs, indexed in scan order, and reports the
// number of nonzero coefficients. maxCoeff is the block size in the
// scan (4 or 8 for chroma DC, 15 or 16 for luma 4x4, 64 for 8x8) and
// numC8x8 spreads the chroma DC contexts for 4:2:2.
func (d *cabacDecoder) decodeResidualBlock(ctxs *cabacContexts, cat, maxCoeff, numC8x8 int, coeffs []int32) int {
	sigBase := sigCtxBase[cat]
	lastBase := lastCtxBase[cat]
	var sig [64]bool
	last := maxCoeff - 1
	for i := 0; i < maxCoeff-1; i++ {
		var sigInc, lastInc int
		switch cat {
		case blockCatChromaDC:
			sigInc = minInt(i/numC8x8, 2)
			lastInc = sigInc
		case blockCatLuma8x8:
			sigInc = int(sigCtx8x8[i])
			lastInc = int(lastCtx8x8[i])
		default:
			sigInc = i
			lastInc = i
		}
		if d.decodeDecision(&ctxs[sigBase+sigInc]) == 1 {
			sig[i] = true
			if d.decodeDecision(&ctxs[lastBase+lastInc]) == 1 {
				last = i
				break
			}
		}
	}
	// Reaching the final scan position implies its significance.
	if last == maxCoeff-1 {
		sig[last] = true
	}

	absBase := absCtxBase[cat]
	gt1Cap := 4
	if cat == blockCatChromaDC {
		gt1Cap = 3
	}
	numEq1, numGt1, n := 0, 0, 0
	for i := last; i >= 0; i-- {
		if !sig[i] {
			continue
		}
		inc := 0
		if numGt1 == 0 {
			inc = minInt(4, 1+numEq1)
		}
		abs := int32(1)
		if d.decodeDecision(&ctxs[absBase+inc]) == 1 {
			abs = 2
			suffixInc := 5 + minInt(gt1Cap, numGt1)
			for abs < 15 && d.decodeDecision(&ctxs[absBase+suffixInc]) == 1 {
				abs++
			}
			if abs == 15 {
				// UEG0 escape.
				k := uint(0)
				for d.decodeBypass() == 1 {
					abs += 1 << k
					k++
					if k > 16 {
						d.overread = true
						return n
					}
				}
				for k > 0 {
					k--
					abs += int32(d.decodeBypass()) << k
				}
			}
			numGt1++
		} else {
			numEq1++
		}
		if d.decodeBypass() == 1 {
			abs = -abs
		}
		coeffs[i] = abs
		n++
	}
	return n
}
