package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/bits"
)

// CAVLC residual parsing per Rec. ITU-T H.264 §9.2. Levels are
// decoded highest frequency first and placed into the scan-ordered
// coefficient array via total_zeros and run_before.

// coeffToken is a decoded coeff_token: the number of trailing ±1
// levels and the total number of nonzero levels in the block.
type coeffToken struct {
	trailingOnes uint8
	totalCoeff   uint8
}

// Token classes by nC. Classes 0-2 follow Table 9-5's nC columns,
// 3 and 4 are the chroma DC columns for 4:2:0 and 4:2:2.
const (
	tokenClassNC0 = iota
	tokenClassNC2
	tokenClassNC4
	tokenClassChromaDC420
	tokenClassChromaDC422
)

var coeffTokenLookup = buildCoeffTokenLookup()

func buildCoeffTokenLookup() [5]map[uint32]coeffToken {
	var lut [5]map[uint32]coeffToken
	add := func(class int, tc, t1 int, c vlcCode) {
		if c.n == 0 {
			return
		}
		if lut[class] == nil {
			lut[class] = make(map[uint32]coeffToken)
		}
		lut[class][uint32(c.n)<<16|uint32(c.bits)] = coeffToken{
			trailingOnes: uint8(t1),
			totalCoeff:   uint8(tc),
		}
	}
	for tc := 0; tc < 17; tc++ {
		for t1 := 0; t1 < 4; t1++ {
			add(tokenClassNC0, tc, t1, coeffTokenNC0[tc][t1])
			add(tokenClassNC2, tc, t1, coeffTokenNC2[tc][t1])
			add(tokenClassNC4, tc, t1, coeffTokenNC4[tc][t1])
			if tc < 5 {
				add(tokenClassChromaDC420, tc, t1, coeffTokenChromaDC420[tc][t1])
			}
			if tc < 9 {
				add(tokenClassChromaDC422, tc, t1, coeffTokenChromaDC422[tc][t1])
			}
		}
	}
	return lut
}

// decodeCoeffToken reads one coeff_token. nC is the predicted nonzero
// count from the neighbouring blocks, or -1/-2 for chroma DC.
func decodeCoeffToken(r *bits.Reader, nC int32) (trailingOnes, totalCoeff int, err error) {
	if nC >= 8 {
		v, err := r.ReadBits(6)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: coeff_token", ErrMalformed)
		}
		if v == 3 {
			return 0, 0, nil
		}
		t1, tc := int(v&3), int(v>>2)+1
		if t1 > tc {
			return 0, 0, fmt.Errorf("%w: coeff_token %d", ErrCorruptMB, v)
		}
		return t1, tc, nil
	}

	var class int
	switch {
	case nC >= 4:
		class = tokenClassNC4
	case nC >= 2:
		class = tokenClassNC2
	case nC >= 0:
		class = tokenClassNC0
	case nC == -1:
		class = tokenClassChromaDC420
	case nC == -2:
		class = tokenClassChromaDC422
	default:
		return 0, 0, fmt.Errorf("%w: nC %d", ErrCorruptMB, nC)
	}

	lut := coeffTokenLookup[class]
	var code, n uint32
	for n < 16 {
		b, err := r.ReadBit()
		if err != nil {
			return 0, 0, fmt.Errorf("%w: coeff_token", ErrMalformed)
		}
		code = code<<1 | b
		n++
		if tok, ok := lut[n<<16|code]; ok {
			return int(tok.trailingOnes), int(tok.totalCoeff), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: coeff_token", ErrCorruptMB)
}

// readVLC matches one codeword from a table whose entry index is the
// decoded symbol value.
func readVLC(r *bits.Reader, codes []vlcCode) (int, error) {
	var code uint16
	var n uint8
	for n < 16 {
		b, err := r.ReadBit()
		if err != nil {
			return 0, fmt.Errorf("%w: truncated vlc", ErrMalformed)
		}
		code = code<<1 | uint16(b)
		n++
		for i := range codes {
			if codes[i].n == n && codes[i].bits == code {
				return i, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: no vlc match", ErrCorruptMB)
}

func decodeTotalZeros(r *bits.Reader, totalCoeff, maxCoeff int) (int, error) {
	var tz int
	var err error
	switch maxCoeff {
	case 4:
		tz, err = readVLC(r, totalZerosChromaDC420[totalCoeff-1][:])
	case 8:
		tz, err = readVLC(r, totalZerosChromaDC422[totalCoeff-1][:])
	default:
		tz, err = readVLC(r, totalZeros4x4[totalCoeff-1][:])
	}
	if err != nil {
		return 0, err
	}
	if tz > maxCoeff-totalCoeff {
		return 0, fmt.Errorf("%w: total_zeros %d", ErrCorruptMB, tz)
	}
	return tz, nil
}

func decodeRunBefore(r *bits.Reader, zerosLeft int) (int, error) {
	row := zerosLeft
	if row > 7 {
		row = 7
	}
	run, err := readVLC(r, runBeforeTable[row-1][:])
	if err != nil {
		return 0, err
	}
	if run > zerosLeft {
		return 0, fmt.Errorf("%w: run_before %d", ErrCorruptMB, run)
	}
	return run, nil
}

// decodeCAVLCBlock parses one residual block into coeffs, which holds
// maxCoeff scan-ordered positions. It returns the nonzero level count
// for the nC bookkeeping of later blocks.
func decodeCAVLCBlock(r *bits.Reader, nC int32, maxCoeff int, coeffs []int32) (int, error) {
	clear(coeffs[:maxCoeff])

	t1, tc, err := decodeCoeffToken(r, nC)
	if err != nil {
		return 0, err
	}
	if tc == 0 {
		return 0, nil
	}
	if tc > maxCoeff {
		return 0, fmt.Errorf("%w: %d coefficients in %d-coefficient block", ErrCorruptMB, tc, maxCoeff)
	}

	var levels [16]int32
	for i := 0; i < t1; i++ {
		b, err := r.ReadBit()
		if err != nil {
			return 0, fmt.Errorf("%w: trailing_ones_sign", ErrMalformed)
		}
		levels[i] = 1 - 2*int32(b)
	}

	suffixLength := 0
	if tc > 10 && t1 < 3 {
		suffixLength = 1
	}
	for i := t1; i < tc; i++ {
		prefix := 0
		for {
			b, err := r.ReadBit()
			if err != nil {
				return 0, fmt.Errorf("%w: level_prefix", ErrMalformed)
			}
			if b == 1 {
				break
			}
			if prefix++; prefix > 32 {
				return 0, fmt.Errorf("%w: level_prefix", ErrCorruptMB)
			}
		}

		suffixSize := suffixLength
		if prefix >= 15 {
			suffixSize = prefix - 3
		} else if prefix == 14 && suffixLength == 0 {
			suffixSize = 4
		}
		levelCode := int32(minInt(15, prefix)) << suffixLength
		if suffixSize > 0 {
			suffix, err := r.ReadBits(uint(suffixSize))
			if err != nil {
				return 0, fmt.Errorf("%w: level_suffix", ErrMalformed)
			}
			levelCode += int32(suffix)
		}
		if prefix >= 15 && suffixLength == 0 {
			levelCode += 15
		}
		if prefix >= 16 {
			levelCode += 1<<(prefix-3) - 4096
		}
		if i == t1 && t1 < 3 {
			// Levels beyond three trailing ones cannot be ±1.
			levelCode += 2
		}
		if levelCode&1 == 0 {
			levels[i] = (levelCode + 2) >> 1
		} else {
			levels[i] = (-levelCode - 1) >> 1
		}

		if suffixLength == 0 {
			suffixLength = 1
		}
		if l := levels[i]; (l > 3<<(suffixLength-1) || -l > 3<<(suffixLength-1)) && suffixLength < 6 {
			suffixLength++
		}
	}

	totalZeros := 0
	if tc < maxCoeff {
		if totalZeros, err = decodeTotalZeros(r, tc, maxCoeff); err != nil {
			return 0, err
		}
	}

	zerosLeft := totalZeros
	coeffNum := totalZeros + tc - 1
	for i := 0; i < tc; i++ {
		coeffs[coeffNum] = levels[i]
		if i == tc-1 {
			break
		}
		run := 0
		if zerosLeft > 0 {
			if run, err = decodeRunBefore(r, zerosLeft); err != nil {
				return 0, err
			}
			zerosLeft -= run
		}
		coeffNum -= 1 + run
	}
	return tc, nil
}

// decodeCodedBlockPattern reads the me(v) coded_block_pattern
// (§9.1.2, Table 9-4).
func decodeCodedBlockPattern(r *bits.Reader, intra bool, chromaArrayType uint32) (uint32, error) {
	codeNum, err := r.ReadUE()
	if err != nil {
		return 0, fmt.Errorf("%w: coded_block_pattern", ErrMalformed)
	}
	col := 1
	if intra {
		col = 0
	}
	if chromaArrayType == 1 || chromaArrayType == 2 {
		if codeNum >= 48 {
			return 0, fmt.Errorf("%w: coded_block_pattern %d", ErrCorruptMB, codeNum)
		}
		return uint32(cbpMapChroma[codeNum][col]), nil
	}
	if codeNum >= 16 {
		return 0, fmt.Errorf("%w: coded_block_pattern %d", ErrCorruptMB, codeNum)
	}
	return uint32(cbpMapMono[codeNum][col]), nil
}
