package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/bits"
)

// SPS is a parsed sequence parameter set (Section 7.3.2.1). Fields
// derived from the raw syntax (picture geometry, crop) are computed
// at parse time so the rest of the decoder never re-derives them.
type SPS struct {
	ID                  uint32
	ProfileIDC          uint8
	ConstraintSetFlags  uint8
	LevelIDC            uint8
	ChromaFormatIDC     uint32 // 0 mono, 1 4:2:0, 2 4:2:2, 3 4:4:4
	SeparateColourPlane bool
	BitDepthLuma        uint32
	BitDepthChroma      uint32
	QpprimeYZeroBypass  bool

	ScalingList4x4 [6][16]uint8
	ScalingList8x8 [][64]uint8 // 2 entries, 6 when chroma is 4:4:4

	Log2MaxFrameNum           uint32
	POCType                   uint32
	Log2MaxPOCLsb             uint32  // POC type 0
	DeltaPicOrderAlwaysZero   bool    // POC type 1
	OffsetForNonRefPic        int32   // POC type 1
	OffsetForTopToBottomField int32   // POC type 1
	OffsetForRefFrame         []int32 // POC type 1 cycle

	MaxNumRefFrames       uint32
	GapsInFrameNumAllowed bool

	PicWidthInMbs       uint32
	PicHeightInMapUnits uint32
	FrameMbsOnly        bool
	Direct8x8Inference  bool

	CropLeft, CropRight, CropTop, CropBottom uint32
	Width, Height                            int // Cropped display size

	// VUI-derived values. FPS fields are zero when timing info is
	// absent; MaxNumReorderFrames is -1 when not signalled.
	VUIPresent          bool
	SARNum, SARDen      uint32
	NumUnitsInTick      uint32
	TimeScale           uint32
	MaxNumReorderFrames int32
}

// FPS returns the signalled frame rate, or 0 when the SPS carries no
// timing information. H.264 timing counts fields, so one frame is
// two ticks.
func (s *SPS) FPS() float64 {
	if s.NumUnitsInTick == 0 {
		return 0
	}
	return float64(s.TimeScale) / (2 * float64(s.NumUnitsInTick))
}

// Default scaling lists from Rec. H.264 Tables 7-3 and 7-4, stored
// in raster order like every list the parser produces.
var (
	defaultScaling4x4Intra = [16]uint8{
		6, 13, 20, 28, 13, 20, 28, 32,
		20, 28, 32, 37, 28, 32, 37, 42,
	}
	defaultScaling4x4Inter = [16]uint8{
		10, 14, 20, 24, 14, 20, 24, 27,
		20, 24, 27, 30, 24, 27, 30, 34,
	}
	defaultScaling8x8Intra = [64]uint8{
		6, 10, 13, 16, 18, 23, 25, 27,
		10, 11, 16, 18, 23, 25, 27, 29,
		13, 16, 18, 23, 25, 27, 29, 31,
		16, 18, 23, 25, 27, 29, 31, 33,
		18, 23, 25, 27, 29, 31, 33, 36,
		23, 25, 27, 29, 31, 33, 36, 38,
		25, 27, 29, 31, 33, 36, 38, 40,
		27, 29, 31, 33, 36, 38, 40, 42,
	}
	defaultScaling8x8Inter = [64]uint8{
		9, 13, 15, 17, 19, 21, 22, 24,
		13, 13, 17, 19, 21, 22, 24, 25,
		15, 17, 19, 21, 22, 24, 25, 27,
		17, 19, 21, 22, 24, 25, 27, 28,
		19, 21, 22, 24, 25, 27, 28, 30,
		21, 22, 24, 25, 27, 28, 30, 32,
		22, 24, 25, 27, 28, 30, 32, 33,
		24, 25, 27, 28, 30, 32, 33, 35,
	}
)

// sarTable is Table E-1: sample aspect ratios by aspect_ratio_idc.
var sarTable = [17][2]uint32{
	{0, 1}, {1, 1}, {12, 11}, {10, 11}, {16, 11}, {40, 33},
	{24, 11}, {20, 11}, {32, 11}, {80, 33}, {18, 11}, {15, 11},
	{64, 33}, {160, 99}, {4, 3}, {3, 2}, {2, 1},
}

// highProfile reports whether the profile signals the extended SPS
// fields (chroma format, bit depth, scaling matrices).
func highProfile(profileIDC uint8) bool {
	switch profileIDC {
	case 100, 110, 122, 244, 44, 83, 86, 118, 128, 138, 139, 134:
		return true
	default:
		return false
	}
}

// ParseSPS parses an SPS RBSP (payload after the NAL header, with
// emulation prevention removed).
func ParseSPS(rbsp []byte) (*SPS, error) {
	if len(rbsp) < 3 {
		return nil, fmt.Errorf("%w: sps shorter than 3 bytes", ErrMalformed)
	}
	r := bits.NewReader(rbsp)
	sps := &SPS{
		ChromaFormatIDC:     1,
		BitDepthLuma:        8,
		BitDepthChroma:      8,
		MaxNumReorderFrames: -1,
		SARNum:              1,
		SARDen:              1,
	}
	profile, err := r.ReadBits(8)
	if err != nil {
		return nil, fmt.Errorf("%w: sps profile: %v", ErrMalformed, err)
	}
	sps.ProfileIDC = uint8(profile)
	constraints, err := r.ReadBits(8)
	if err != nil {
		return nil, fmt.Errorf("%w: sps constraints: %v", ErrMalformed, err)
	}
	sps.ConstraintSetFlags = uint8(constraints)
	level, err := r.ReadBits(8)
	if err != nil {
		return nil, fmt.Errorf("%w: sps level: %v", ErrMalformed, err)
	}
	sps.LevelIDC = uint8(level)

	if sps.ID, err = r.ReadUE(); err != nil || sps.ID > 31 {
		return nil, fmt.Errorf("%w: seq_parameter_set_id", ErrMalformed)
	}

	// Flat lists until scaling syntax says otherwise.
	for i := range sps.ScalingList4x4 {
		for j := range sps.ScalingList4x4[i] {
			sps.ScalingList4x4[i][j] = 16
		}
	}
	flat8 := [64]uint8{}
	for i := range flat8 {
		flat8[i] = 16
	}
	sps.ScalingList8x8 = [][64]uint8{flat8, flat8}

	if highProfile(sps.ProfileIDC) {
		if err := parseSPSHighFields(r, sps); err != nil {
			return nil, err
		}
	}

	v, err := r.ReadUE()
	if err != nil || v > 12 {
		return nil, fmt.Errorf("%w: log2_max_frame_num_minus4", ErrMalformed)
	}
	sps.Log2MaxFrameNum = v + 4

	if sps.POCType, err = r.ReadUE(); err != nil || sps.POCType > 2 {
		return nil, fmt.Errorf("%w: pic_order_cnt_type", ErrMalformed)
	}
	switch sps.POCType {
	case 0:
		if v, err = r.ReadUE(); err != nil || v > 12 {
			return nil, fmt.Errorf("%w: log2_max_pic_order_cnt_lsb_minus4", ErrMalformed)
		}
		sps.Log2MaxPOCLsb = v + 4
	case 1:
		if sps.DeltaPicOrderAlwaysZero, err = r.ReadFlag(); err != nil {
			return nil, fmt.Errorf("%w: delta_pic_order_always_zero_flag", ErrMalformed)
		}
		if sps.OffsetForNonRefPic, err = r.ReadSE(); err != nil {
			return nil, fmt.Errorf("%w: offset_for_non_ref_pic", ErrMalformed)
		}
		if sps.OffsetForTopToBottomField, err = r.ReadSE(); err != nil {
			return nil, fmt.Errorf("%w: offset_for_top_to_bottom_field", ErrMalformed)
		}
		n, err := r.ReadUE()
		if err != nil || n > 255 {
			return nil, fmt.Errorf("%w: num_ref_frames_in_pic_order_cnt_cycle", ErrMalformed)
		}
		sps.OffsetForRefFrame = make([]int32, n)
		for i := range sps.OffsetForRefFrame {
			if sps.OffsetForRefFrame[i], err = r.ReadSE(); err != nil {
				return nil, fmt.Errorf("%w: offset_for_ref_frame[%d]", ErrMalformed, i)
			}
		}
	}

	if sps.MaxNumRefFrames, err = r.ReadUE(); err != nil || sps.MaxNumRefFrames > 16 {
		return nil, fmt.Errorf("%w: max_num_ref_frames", ErrMalformed)
	}
	if sps.GapsInFrameNumAllowed, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: gaps_in_frame_num_value_allowed_flag", ErrMalformed)
	}

	if v, err = r.ReadUE(); err != nil {
		return nil, fmt.Errorf("%w: pic_width_in_mbs_minus1", ErrMalformed)
	}
	sps.PicWidthInMbs = v + 1
	if v, err = r.ReadUE(); err != nil {
		return nil, fmt.Errorf("%w: pic_height_in_map_units_minus1", ErrMalformed)
	}
	sps.PicHeightInMapUnits = v + 1

	if sps.FrameMbsOnly, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: frame_mbs_only_flag", ErrMalformed)
	}
	if !sps.FrameMbsOnly {
		// mb_adaptive_frame_field_flag; interlaced streams are
		// rejected at activation, not here.
		if _, err = r.ReadFlag(); err != nil {
			return nil, fmt.Errorf("%w: mb_adaptive_frame_field_flag", ErrMalformed)
		}
	}
	if sps.Direct8x8Inference, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: direct_8x8_inference_flag", ErrMalformed)
	}

	cropping, err := r.ReadFlag()
	if err != nil {
		return nil, fmt.Errorf("%w: frame_cropping_flag", ErrMalformed)
	}
	if cropping {
		if sps.CropLeft, err = r.ReadUE(); err != nil {
			return nil, fmt.Errorf("%w: frame_crop_left_offset", ErrMalformed)
		}
		if sps.CropRight, err = r.ReadUE(); err != nil {
			return nil, fmt.Errorf("%w: frame_crop_right_offset", ErrMalformed)
		}
		if sps.CropTop, err = r.ReadUE(); err != nil {
			return nil, fmt.Errorf("%w: frame_crop_top_offset", ErrMalformed)
		}
		if sps.CropBottom, err = r.ReadUE(); err != nil {
			return nil, fmt.Errorf("%w: frame_crop_bottom_offset", ErrMalformed)
		}
	}
	if err := deriveGeometry(sps); err != nil {
		return nil, err
	}

	if sps.VUIPresent, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: vui_parameters_present_flag", ErrMalformed)
	}
	if sps.VUIPresent {
		if err := parseVUI(r, sps); err != nil {
			return nil, err
		}
	}
	return sps, nil
}

func parseSPSHighFields(r *bits.Reader, sps *SPS) error {
	var err error
	if sps.ChromaFormatIDC, err = r.ReadUE(); err != nil || sps.ChromaFormatIDC > 3 {
		return fmt.Errorf("%w: chroma_format_idc", ErrMalformed)
	}
	if sps.ChromaFormatIDC == 3 {
		if sps.SeparateColourPlane, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: separate_colour_plane_flag", ErrMalformed)
		}
	}
	v, err := r.ReadUE()
	if err != nil || v > 6 {
		return fmt.Errorf("%w: bit_depth_luma_minus8", ErrMalformed)
	}
	sps.BitDepthLuma = v + 8
	if v, err = r.ReadUE(); err != nil || v > 6 {
		return fmt.Errorf("%w: bit_depth_chroma_minus8", ErrMalformed)
	}
	sps.BitDepthChroma = v + 8
	if sps.QpprimeYZeroBypass, err = r.ReadFlag(); err != nil {
		return fmt.Errorf("%w: qpprime_y_zero_transform_bypass_flag", ErrMalformed)
	}

	matrixPresent, err := r.ReadFlag()
	if err != nil {
		return fmt.Errorf("%w: seq_scaling_matrix_present_flag", ErrMalformed)
	}
	num8x8 := 2
	if sps.ChromaFormatIDC == 3 {
		num8x8 = 6
	}
	if len(sps.ScalingList8x8) != num8x8 {
		flat := [64]uint8{}
		for i := range flat {
			flat[i] = 16
		}
		sps.ScalingList8x8 = make([][64]uint8, num8x8)
		for i := range sps.ScalingList8x8 {
			sps.ScalingList8x8[i] = flat
		}
	}
	if !matrixPresent {
		return nil
	}
	return parseScalingMatrix(r, &sps.ScalingList4x4, sps.ScalingList8x8)
}

// parseScalingMatrix reads seq/pic scaling lists with the fall-back
// rules of Table 7-2: an absent or use-default list takes the default
// matrix at anchor positions and the previous same-shape list
// elsewhere.
func parseScalingMatrix(r *bits.Reader, l4 *[6][16]uint8, l8 [][64]uint8) error {
	for i := 0; i < 6; i++ {
		present, err := r.ReadFlag()
		if err != nil {
			return fmt.Errorf("%w: scaling_list_present_flag[%d]", ErrMalformed, i)
		}
		def := defaultScaling4x4Inter
		if i < 3 {
			def = defaultScaling4x4Intra
		}
		if !present {
			if i == 0 || i == 3 {
				l4[i] = def
			} else {
				l4[i] = l4[i-1]
			}
			continue
		}
		list, useDefault, err := parseScalingList(r, 16)
		if err != nil {
			return err
		}
		if useDefault {
			l4[i] = def
		} else {
			copy(l4[i][:], list)
		}
	}
	for i := 0; i < len(l8); i++ {
		present, err := r.ReadFlag()
		if err != nil {
			return fmt.Errorf("%w: scaling_list_present_flag[%d]", ErrMalformed, 6+i)
		}
		def := defaultScaling8x8Inter
		if i%2 == 0 {
			def = defaultScaling8x8Intra
		}
		if !present {
			if i < 2 {
				l8[i] = def
			} else {
				l8[i] = l8[i-2]
			}
			continue
		}
		list, useDefault, err := parseScalingList(r, 64)
		if err != nil {
			return err
		}
		if useDefault {
			l8[i] = def
		} else {
			copy(l8[i][:], list)
		}
	}
	return nil
}

// parseScalingList reads one scaling_list() (Section 7.3.2.1.1). The
// bitstream carries deltas in zigzag order; the returned list is
// inverse scanned to raster order.
func parseScalingList(r *bits.Reader, size int) ([]uint8, bool, error) {
	list := make([]uint8, size)
	scan := scanZigzag4x4[:]
	if size == 64 {
		scan = scanZigzag8x8[:]
	}
	lastScale, nextScale := 8, 8
	for j := 0; j < size; j++ {
		if nextScale != 0 {
			delta, err := r.ReadSE()
			if err != nil {
				return nil, false, fmt.Errorf("%w: delta_scale", ErrMalformed)
			}
			nextScale = (lastScale + int(delta) + 256) % 256
			if j == 0 && nextScale == 0 {
				return nil, true, nil
			}
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
		list[scan[j]] = uint8(lastScale)
	}
	return list, false, nil
}

func deriveGeometry(sps *SPS) error {
	chromaArrayType := sps.ChromaFormatIDC
	if sps.SeparateColourPlane {
		chromaArrayType = 0
	}
	subW, subH := uint32(2), uint32(2)
	if chromaArrayType == 0 || chromaArrayType == 3 {
		subW = 1
	}
	if chromaArrayType == 0 || chromaArrayType == 2 || chromaArrayType == 3 {
		subH = 1
	}
	cropUnitX := subW
	cropUnitY := subH
	if !sps.FrameMbsOnly {
		cropUnitY *= 2
	}

	heightMul := uint32(1)
	if !sps.FrameMbsOnly {
		heightMul = 2
	}
	rawW := sps.PicWidthInMbs * 16
	rawH := sps.PicHeightInMapUnits * 16 * heightMul

	cropW := (sps.CropLeft + sps.CropRight) * cropUnitX
	cropH := (sps.CropTop + sps.CropBottom) * cropUnitY
	if cropW >= rawW || cropH >= rawH {
		return fmt.Errorf("%w: crop %dx%d exceeds picture %dx%d",
			ErrMalformed, cropW, cropH, rawW, rawH)
	}
	sps.Width = int(rawW - cropW)
	sps.Height = int(rawH - cropH)
	if sps.Width <= 0 || sps.Height <= 0 {
		return fmt.Errorf("%w: empty picture after crop", ErrMalformed)
	}
	return nil
}

func parseVUI(r *bits.Reader, sps *SPS) error {
	present, err := r.ReadFlag()
	if err != nil {
		return fmt.Errorf("%w: aspect_ratio_info_present_flag", ErrMalformed)
	}
	if present {
		idc, err := r.ReadBits(8)
		if err != nil {
			return fmt.Errorf("%w: aspect_ratio_idc", ErrMalformed)
		}
		switch {
		case idc == 255: // Extended_SAR
			w, err1 := r.ReadBits(16)
			h, err2 := r.ReadBits(16)
			if err1 != nil || err2 != nil || w == 0 || h == 0 {
				return fmt.Errorf("%w: Extended_SAR", ErrMalformed)
			}
			sps.SARNum, sps.SARDen = w, h
		case int(idc) < len(sarTable):
			if idc != 0 {
				sps.SARNum, sps.SARDen = sarTable[idc][0], sarTable[idc][1]
			}
		default:
			return fmt.Errorf("%w: aspect_ratio_idc %d", ErrMalformed, idc)
		}
	}

	if present, err = r.ReadFlag(); err != nil {
		return fmt.Errorf("%w: overscan_info_present_flag", ErrMalformed)
	} else if present {
		if _, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: overscan_appropriate_flag", ErrMalformed)
		}
	}

	if present, err = r.ReadFlag(); err != nil {
		return fmt.Errorf("%w: video_signal_type_present_flag", ErrMalformed)
	} else if present {
		if err = r.SkipBits(4); err != nil { // video_format + full_range
			return fmt.Errorf("%w: video_signal_type", ErrMalformed)
		}
		colourDesc, err := r.ReadFlag()
		if err != nil {
			return fmt.Errorf("%w: colour_description_present_flag", ErrMalformed)
		}
		if colourDesc {
			if err = r.SkipBits(24); err != nil {
				return fmt.Errorf("%w: colour description", ErrMalformed)
			}
		}
	}

	if present, err = r.ReadFlag(); err != nil {
		return fmt.Errorf("%w: chroma_loc_info_present_flag", ErrMalformed)
	} else if present {
		if _, err = r.ReadUE(); err != nil {
			return fmt.Errorf("%w: chroma_sample_loc_type_top_field", ErrMalformed)
		}
		if _, err = r.ReadUE(); err != nil {
			return fmt.Errorf("%w: chroma_sample_loc_type_bottom_field", ErrMalformed)
		}
	}

	if present, err = r.ReadFlag(); err != nil {
		return fmt.Errorf("%w: timing_info_present_flag", ErrMalformed)
	} else if present {
		num, err1 := r.ReadBits(32)
		scale, err2 := r.ReadBits(32)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%w: timing info", ErrMalformed)
		}
		if num == 0 {
			return fmt.Errorf("%w: num_units_in_tick is zero", ErrMalformed)
		}
		if scale == 0 {
			return fmt.Errorf("%w: time_scale is zero", ErrMalformed)
		}
		sps.NumUnitsInTick, sps.TimeScale = num, scale
		if _, err = r.ReadFlag(); err != nil { // fixed_frame_rate_flag
			return fmt.Errorf("%w: fixed_frame_rate_flag", ErrMalformed)
		}
	}

	nalHRD, err := r.ReadFlag()
	if err != nil {
		return fmt.Errorf("%w: nal_hrd_parameters_present_flag", ErrMalformed)
	}
	if nalHRD {
		if err = skipHRD(r); err != nil {
			return err
		}
	}
	vclHRD, err := r.ReadFlag()
	if err != nil {
		return fmt.Errorf("%w: vcl_hrd_parameters_present_flag", ErrMalformed)
	}
	if vclHRD {
		if err = skipHRD(r); err != nil {
			return err
		}
	}
	if nalHRD || vclHRD {
		if _, err = r.ReadFlag(); err != nil { // low_delay_hrd_flag
			return fmt.Errorf("%w: low_delay_hrd_flag", ErrMalformed)
		}
	}
	if _, err = r.ReadFlag(); err != nil { // pic_struct_present_flag
		return fmt.Errorf("%w: pic_struct_present_flag", ErrMalformed)
	}

	restriction, err := r.ReadFlag()
	if err != nil {
		return fmt.Errorf("%w: bitstream_restriction_flag", ErrMalformed)
	}
	if restriction {
		if _, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: motion_vectors_over_pic_boundaries_flag", ErrMalformed)
		}
		for i := 0; i < 4; i++ { // byte/bit denoms, mv length bounds
			if _, err = r.ReadUE(); err != nil {
				return fmt.Errorf("%w: bitstream restriction", ErrMalformed)
			}
		}
		reorder, err := r.ReadUE()
		if err != nil || reorder > 16 {
			return fmt.Errorf("%w: max_num_reorder_frames", ErrMalformed)
		}
		sps.MaxNumReorderFrames = int32(reorder)
		if _, err = r.ReadUE(); err != nil { // max_dec_frame_buffering
			return fmt.Errorf("%w: max_dec_frame_buffering", ErrMalformed)
		}
	}
	return nil
}

// skipHRD consumes hrd_parameters() (Section E.1.2).
func skipHRD(r *bits.Reader) error {
	cpbCnt, err := r.ReadUE()
	if err != nil || cpbCnt > 31 {
		return fmt.Errorf("%w: cpb_cnt_minus1", ErrMalformed)
	}
	if err = r.SkipBits(8); err != nil { // bit_rate_scale + cpb_size_scale
		return fmt.Errorf("%w: hrd scales", ErrMalformed)
	}
	for i := uint32(0); i <= cpbCnt; i++ {
		if _, err = r.ReadUE(); err != nil {
			return fmt.Errorf("%w: bit_rate_value_minus1", ErrMalformed)
		}
		if _, err = r.ReadUE(); err != nil {
			return fmt.Errorf("%w: cpb_size_value_minus1", ErrMalformed)
		}
		if _, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: cbr_flag", ErrMalformed)
		}
	}
	if err = r.SkipBits(20); err != nil { // four 5-bit delay lengths
		return fmt.Errorf("%w: hrd delay lengths", ErrMalformed)
	}
	return nil
}

// levelMaxDpbFrames returns the DPB frame bound implied by the
// level (Table A-1 MaxDpbMbs over the picture size in macroblocks),
// clamped to [1, 16].
func levelMaxDpbFrames(sps *SPS) uint32 {
	var maxDpbMbs uint32
	switch sps.LevelIDC {
	case 9, 10:
		maxDpbMbs = 396
	case 11:
		maxDpbMbs = 900
	case 12, 13, 20:
		maxDpbMbs = 2376
	case 21:
		maxDpbMbs = 4752
	case 22, 30:
		maxDpbMbs = 8100
	case 31:
		maxDpbMbs = 18000
	case 32:
		maxDpbMbs = 20480
	case 40, 41:
		maxDpbMbs = 32768
	case 42:
		maxDpbMbs = 34816
	case 50:
		maxDpbMbs = 110400
	case 51, 52:
		maxDpbMbs = 184320
	default:
		maxDpbMbs = 696320
	}
	picMbs := sps.PicWidthInMbs * sps.PicHeightInMapUnits
	if picMbs == 0 {
		return 1
	}
	frames := maxDpbMbs / picMbs
	if frames < 1 {
		frames = 1
	}
	if frames > 16 {
		frames = 16
	}
	return frames
}
