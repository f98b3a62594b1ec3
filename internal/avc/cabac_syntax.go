package avc

// cabac_syntax.go decodes the macroblock-layer syntax elements with
// the binarizations of Rec. ITU-T H.264 Section 9.3.2 and the context
// assignments of Table 9-39. Neighbor-derived ctxIdxInc values are
// computed by the macroblock loop and passed in.

// Context offsets from Table 9-11.
const (
	ctxMBTypeI      = 3
	ctxMBSkipP      = 11
	ctxMBTypeP      = 14
	ctxSubMBTypeP   = 21
	ctxMBSkipB      = 24
	ctxMBTypeB      = 27
	ctxSubMBTypeB   = 36
	ctxMVDX         = 40
	ctxMVDY         = 47
	ctxRefIdx       = 54
	ctxQPDelta      = 60
	ctxChromaPred   = 64
	ctxIntra4x4Prev = 68
	ctxIntra4x4Rem  = 69
	ctxCBPLuma      = 73
	ctxCBPChroma    = 77
	ctxTerminate    = 276
	ctxTransform8x8 = 399
)

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// decodeMBSkip decodes mb_skip_flag against base (ctxMBSkipP or
// ctxMBSkipB) with the neighbor increment.
func (d *cabacDecoder) decodeMBSkip(ctxs *cabacContexts, base, inc int) bool {
	return d.decodeDecision(&ctxs[base+inc]) == 1
}

// decodeIntraMBType decodes the intra mb_type subtree shared by all
// slice types: 0 is I_NxN, 1..24 the Intra_16x16 variants and 25
// I_PCM. base is 3 for I slices, 17 within P and 32 within B; only I
// slices apply the neighbor increment and the wider context spread.
func (d *cabacDecoder) decodeIntraMBType(ctxs *cabacContexts, base int, intraSlice bool, inc int) int {
	s := base
	if intraSlice {
		if d.decodeDecision(&ctxs[base+inc]) == 0 {
			return 0
		}
		s = base + 2
	} else if d.decodeDecision(&ctxs[base]) == 0 {
		return 0
	}
	if d.decodeTerminate() == 1 {
		return 25
	}
	is := b2i(intraSlice)
	t := 1 + 12*int(d.decodeDecision(&ctxs[s+1]))
	if d.decodeDecision(&ctxs[s+2]) == 1 {
		t += 4 + 4*int(d.decodeDecision(&ctxs[s+2+is]))
	}
	t += 2 * int(d.decodeDecision(&ctxs[s+3+is]))
	t += int(d.decodeDecision(&ctxs[s+3+2*is]))
	return t
}

// decodeMBTypeP decodes mb_type in P slices: 0..3 are the inter
// partitionings of Table 7-13 and 5..30 the intra types offset by 5.
func (d *cabacDecoder) decodeMBTypeP(ctxs *cabacContexts) int {
	if d.decodeDecision(&ctxs[ctxMBTypeP]) == 1 {
		return 5 + d.decodeIntraMBType(ctxs, ctxMBTypeP+3, false, 0)
	}
	if d.decodeDecision(&ctxs[ctxMBTypeP+1]) == 1 {
		// "011" is P_L0_L0_16x8, "010" is P_L0_L0_8x16.
		return 2 - int(d.decodeDecision(&ctxs[ctxMBTypeP+3]))
	}
	return 3 * int(d.decodeDecision(&ctxs[ctxMBTypeP+2]))
}

// decodeMBTypeB decodes mb_type in B slices per Table 7-14: 0 is
// B_Direct_16x16, 1..21 the inter partitionings, 22 B_8x8 and 23..48
// the intra types offset by 23.
func (d *cabacDecoder) decodeMBTypeB(ctxs *cabacContexts, inc int) int {
	if d.decodeDecision(&ctxs[ctxMBTypeB+inc]) == 0 {
		return 0
	}
	if d.decodeDecision(&ctxs[ctxMBTypeB+3]) == 0 {
		return 1 + int(d.decodeDecision(&ctxs[ctxMBTypeB+5]))
	}
	bits := int(d.decodeDecision(&ctxs[ctxMBTypeB+4])) << 3
	bits |= int(d.decodeDecision(&ctxs[ctxMBTypeB+5])) << 2
	bits |= int(d.decodeDecision(&ctxs[ctxMBTypeB+5])) << 1
	bits |= int(d.decodeDecision(&ctxs[ctxMBTypeB+5]))
	switch {
	case bits < 8:
		return bits + 3
	case bits == 13:
		return 23 + d.decodeIntraMBType(ctxs, ctxMBTypeB+5, false, 0)
	case bits == 14:
		return 11
	case bits == 15:
		return 22
	}
	return (bits<<1 | int(d.decodeDecision(&ctxs[ctxMBTypeB+5]))) - 4
}

// decodeSubMBTypeP decodes sub_mb_type in P slices (Table 7-17).
func (d *cabacDecoder) decodeSubMBTypeP(ctxs *cabacContexts) int {
	if d.decodeDecision(&ctxs[ctxSubMBTypeP]) == 1 {
		return 0
	}
	if d.decodeDecision(&ctxs[ctxSubMBTypeP+1]) == 0 {
		return 1
	}
	return 3 - int(d.decodeDecision(&ctxs[ctxSubMBTypeP+2]))
}

// decodeSubMBTypeB decodes sub_mb_type in B slices (Table 7-18).
func (d *cabacDecoder) decodeSubMBTypeB(ctxs *cabacContexts) int {
	if d.decodeDecision(&ctxs[ctxSubMBTypeB]) == 0 {
		return 0
	}
	if d.decodeDecision(&ctxs[ctxSubMBTypeB+1]) == 0 {
		return 1 + int(d.decodeDecision(&ctxs[ctxSubMBTypeB+3]))
	}
	t := 3
	if d.decodeDecision(&ctxs[ctxSubMBTypeB+2]) == 1 {
		if d.decodeDecision(&ctxs[ctxSubMBTypeB+3]) == 1 {
			return 11 + int(d.decodeDecision(&ctxs[ctxSubMBTypeB+3]))
		}
		t += 4
	}
	t += 2 * int(d.decodeDecision(&ctxs[ctxSubMBTypeB+3]))
	t += int(d.decodeDecision(&ctxs[ctxSubMBTypeB+3]))
	return t
}

// decodeRefIdx decodes ref_idx_lX as a unary value. inc carries the
// neighbor-derived increment for the first bin.
func (d *cabacDecoder) decodeRefIdx(ctxs *cabacContexts, inc int) int {
	if d.decodeDecision(&ctxs[ctxRefIdx+inc]) == 0 {
		return 0
	}
	n := 1
	idx := ctxRefIdx + 4
	for d.decodeDecision(&ctxs[idx]) == 1 {
		idx = ctxRefIdx + 5
		n++
		if n > 32 {
			d.overread = true
			break
		}
	}
	return n
}

// decodeMVD decodes one motion vector difference component with the
// UEG3 binarization. base selects the horizontal or vertical context
// block and amvd is the summed magnitude of the neighboring
// differences for the same component.
func (d *cabacDecoder) decodeMVD(ctxs *cabacContexts, base, amvd int) int32 {
	inc := b2i(amvd > 2) + b2i(amvd > 32)
	if d.decodeDecision(&ctxs[base+inc]) == 0 {
		return 0
	}
	mvd := int32(1)
	off := 3
	for mvd < 9 && d.decodeDecision(&ctxs[base+off]) == 1 {
		mvd++
		if off < 6 {
			off++
		}
	}
	if mvd >= 9 {
		k := uint(3)
		for d.decodeBypass() == 1 {
			mvd += 1 << k
			k++
			if k > 16 {
				d.overread = true
				return 0
			}
		}
		for k > 0 {
			k--
			mvd += int32(d.decodeBypass()) << k
		}
	}
	if d.decodeBypass() == 1 {
		return -mvd
	}
	return mvd
}

// decodeQPDelta decodes mb_qp_delta. prevNonzero reports whether the
// previous macroblock in decoding order carried a nonzero delta.
func (d *cabacDecoder) decodeQPDelta(ctxs *cabacContexts, prevNonzero bool) int32 {
	if d.decodeDecision(&ctxs[ctxQPDelta+b2i(prevNonzero)]) == 0 {
		return 0
	}
	k := 1
	if d.decodeDecision(&ctxs[ctxQPDelta+2]) == 1 {
		k++
		for d.decodeDecision(&ctxs[ctxQPDelta+3]) == 1 {
			k++
			if k > 80 {
				d.overread = true
				break
			}
		}
	}
	// The unary code maps 1, 2, 3, 4, ... to +1, -1, +2, -2, ...
	if k&1 == 1 {
		return int32(k+1) / 2
	}
	return -int32(k) / 2
}

// decodeChromaPredMode decodes intra_chroma_pred_mode (truncated
// unary, cMax 3).
func (d *cabacDecoder) decodeChromaPredMode(ctxs *cabacContexts, inc int) int {
	if d.decodeDecision(&ctxs[ctxChromaPred+inc]) == 0 {
		return 0
	}
	if d.decodeDecision(&ctxs[ctxChromaPred+3]) == 0 {
		return 1
	}
	if d.decodeDecision(&ctxs[ctxChromaPred+3]) == 0 {
		return 2
	}
	return 3
}

// decodeIntra4x4PredMode decodes the prediction mode of one luma
// block: -1 when prev_intra4x4_pred_mode_flag selects the inferred
// mode, otherwise rem_intra4x4_pred_mode (three bins, LSB first).
func (d *cabacDecoder) decodeIntra4x4PredMode(ctxs *cabacContexts) int {
	if d.decodeDecision(&ctxs[ctxIntra4x4Prev]) == 1 {
		return -1
	}
	m := int(d.decodeDecision(&ctxs[ctxIntra4x4Rem]))
	m |= int(d.decodeDecision(&ctxs[ctxIntra4x4Rem])) << 1
	m |= int(d.decodeDecision(&ctxs[ctxIntra4x4Rem])) << 2
	return m
}

// decodeCBPLuma decodes the four-bin luma prefix of
// coded_block_pattern. leftCBP and topCBP carry the neighbor luma
// patterns; callers pass 0xF for unavailable neighbors so that they
// count as coded (Section 9.3.3.1.1.4).
func (d *cabacDecoder) decodeCBPLuma(ctxs *cabacContexts, leftCBP, topCBP int) int {
	// 8x8 blocks are ordered top-left, top-right, bottom-left,
	// bottom-right. Block 0 neighbors block 1 of the left macroblock
	// and block 2 of the top macroblock; later bins see the bits
	// already decoded for this macroblock.
	cbp := 0
	inc := b2i((leftCBP>>1)&1 == 0) + 2*b2i((topCBP>>2)&1 == 0)
	cbp |= int(d.decodeDecision(&ctxs[ctxCBPLuma+inc]))
	inc = b2i(cbp&1 == 0) + 2*b2i((topCBP>>3)&1 == 0)
	cbp |= int(d.decodeDecision(&ctxs[ctxCBPLuma+inc])) << 1
	inc = b2i((leftCBP>>3)&1 == 0) + 2*b2i(cbp&1 == 0)
	cbp |= int(d.decodeDecision(&ctxs[ctxCBPLuma+inc])) << 2
	inc = b2i(cbp&4 == 0) + 2*b2i(cbp&2 == 0)
	cbp |= int(d.decodeDecision(&ctxs[ctxCBPLuma+inc])) << 3
	return cbp
}

// decodeCBPChroma decodes the chroma suffix of coded_block_pattern.
// leftChroma and topChroma carry the neighbor chroma patterns, with 0
// for unavailable neighbors and 2 for I_PCM.
func (d *cabacDecoder) decodeCBPChroma(ctxs *cabacContexts, leftChroma, topChroma int) int {
	inc := b2i(leftChroma != 0) + 2*b2i(topChroma != 0)
	if d.decodeDecision(&ctxs[ctxCBPChroma+inc]) == 0 {
		return 0
	}
	inc = b2i(leftChroma == 2) + 2*b2i(topChroma == 2)
	if d.decodeDecision(&ctxs[ctxCBPChroma+4+inc]) == 0 {
		return 1
	}
	return 2
}

// decodeTransform8x8 decodes transform_size_8x8_flag. inc counts the
// neighbors coded with the 8x8 transform.
func (d *cabacDecoder) decodeTransform8x8(ctxs *cabacContexts, inc int) bool {
	return d.decodeDecision(&ctxs[ctxTransform8x8+inc]) == 1
}
