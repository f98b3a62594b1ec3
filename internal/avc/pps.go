package avc

import (
	"fmt"

	"github.com/thesyncim/goavc/internal/bits"
)

// PPS is a parsed picture parameter set (Section 7.3.2.2).
type PPS struct {
	ID    uint32
	SPSID uint32

	CABAC           bool // entropy_coding_mode_flag
	PicOrderPresent bool
	NumSliceGroups  uint32 // >1 is rejected at activation

	NumRefIdxL0Default uint32 // 1-32
	NumRefIdxL1Default uint32

	WeightedPred      bool
	WeightedBipredIDC uint8

	PicInitQP                 int32
	ChromaQPIndexOffset       int32
	SecondChromaQPIndexOffset int32

	DeblockingFilterControl bool
	ConstrainedIntraPred    bool
	RedundantPicCntPresent  bool
	Transform8x8Mode        bool

	// Scaling lists override the SPS ones when HasScalingMatrix.
	HasScalingMatrix bool
	ScalingList4x4   [6][16]uint8
	ScalingList8x8   [][64]uint8
}

// ParsePPS parses a PPS RBSP. sps resolves the referenced SPS for
// scaling-list fall-back; nil is allowed when the SPS has not been
// seen, in which case flat lists anchor the fall-back chain.
func ParsePPS(rbsp []byte, sps func(id uint32) *SPS) (*PPS, error) {
	r := bits.NewReader(rbsp)
	pps := &PPS{}
	var err error

	if pps.ID, err = r.ReadUE(); err != nil || pps.ID > 255 {
		return nil, fmt.Errorf("%w: pic_parameter_set_id", ErrMalformed)
	}
	if pps.SPSID, err = r.ReadUE(); err != nil || pps.SPSID > 31 {
		return nil, fmt.Errorf("%w: seq_parameter_set_id", ErrMalformed)
	}
	if pps.CABAC, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: entropy_coding_mode_flag", ErrMalformed)
	}
	if pps.PicOrderPresent, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: bottom_field_pic_order_in_frame_present_flag", ErrMalformed)
	}

	groupsMinus1, err := r.ReadUE()
	if err != nil || groupsMinus1 > 7 {
		return nil, fmt.Errorf("%w: num_slice_groups_minus1", ErrMalformed)
	}
	pps.NumSliceGroups = groupsMinus1 + 1
	if groupsMinus1 > 0 {
		if err := skipSliceGroupSyntax(r, groupsMinus1); err != nil {
			return nil, err
		}
	}

	v, err := r.ReadUE()
	if err != nil || v > 31 {
		return nil, fmt.Errorf("%w: num_ref_idx_l0_default_active_minus1", ErrMalformed)
	}
	pps.NumRefIdxL0Default = v + 1
	if v, err = r.ReadUE(); err != nil || v > 31 {
		return nil, fmt.Errorf("%w: num_ref_idx_l1_default_active_minus1", ErrMalformed)
	}
	pps.NumRefIdxL1Default = v + 1

	if pps.WeightedPred, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: weighted_pred_flag", ErrMalformed)
	}
	bipred, err := r.ReadBits(2)
	if err != nil || bipred > 2 {
		return nil, fmt.Errorf("%w: weighted_bipred_idc", ErrMalformed)
	}
	pps.WeightedBipredIDC = uint8(bipred)

	qpDelta, err := r.ReadSE()
	if err != nil {
		return nil, fmt.Errorf("%w: pic_init_qp_minus26", ErrMalformed)
	}
	pps.PicInitQP = 26 + qpDelta
	if pps.PicInitQP < 0 || pps.PicInitQP > 51 {
		return nil, fmt.Errorf("%w: pic_init_qp %d", ErrMalformed, pps.PicInitQP)
	}
	if _, err = r.ReadSE(); err != nil { // pic_init_qs_minus26, SP/SI only
		return nil, fmt.Errorf("%w: pic_init_qs_minus26", ErrMalformed)
	}
	if pps.ChromaQPIndexOffset, err = r.ReadSE(); err != nil ||
		pps.ChromaQPIndexOffset < -12 || pps.ChromaQPIndexOffset > 12 {
		return nil, fmt.Errorf("%w: chroma_qp_index_offset", ErrMalformed)
	}
	if pps.DeblockingFilterControl, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: deblocking_filter_control_present_flag", ErrMalformed)
	}
	if pps.ConstrainedIntraPred, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: constrained_intra_pred_flag", ErrMalformed)
	}
	if pps.RedundantPicCntPresent, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: redundant_pic_cnt_present_flag", ErrMalformed)
	}

	pps.SecondChromaQPIndexOffset = pps.ChromaQPIndexOffset
	if !r.MoreRBSPData() {
		return pps, nil
	}

	if pps.Transform8x8Mode, err = r.ReadFlag(); err != nil {
		return nil, fmt.Errorf("%w: transform_8x8_mode_flag", ErrMalformed)
	}
	matrixPresent, err := r.ReadFlag()
	if err != nil {
		return nil, fmt.Errorf("%w: pic_scaling_matrix_present_flag", ErrMalformed)
	}
	if matrixPresent {
		if err := parsePPSScalingMatrix(r, pps, sps); err != nil {
			return nil, err
		}
	}
	if pps.SecondChromaQPIndexOffset, err = r.ReadSE(); err != nil ||
		pps.SecondChromaQPIndexOffset < -12 || pps.SecondChromaQPIndexOffset > 12 {
		return nil, fmt.Errorf("%w: second_chroma_qp_index_offset", ErrMalformed)
	}
	return pps, nil
}

// parsePPSScalingMatrix reads the picture-level scaling lists. The
// fall-back anchors (lists 0, 3, and the two 8x8 heads) come from
// the referenced SPS when available.
func parsePPSScalingMatrix(r *bits.Reader, pps *PPS, sps func(id uint32) *SPS) error {
	refSPS := (*SPS)(nil)
	if sps != nil {
		refSPS = sps(pps.SPSID)
	}
	chroma444 := refSPS != nil && refSPS.ChromaFormatIDC == 3
	t8x8 := pps.Transform8x8Mode

	// Seed from the SPS lists so absent anchors inherit them.
	if refSPS != nil {
		pps.ScalingList4x4 = refSPS.ScalingList4x4
		pps.ScalingList8x8 = append([][64]uint8(nil), refSPS.ScalingList8x8...)
	} else {
		for i := range pps.ScalingList4x4 {
			for j := range pps.ScalingList4x4[i] {
				pps.ScalingList4x4[i][j] = 16
			}
		}
		flat := [64]uint8{}
		for i := range flat {
			flat[i] = 16
		}
		pps.ScalingList8x8 = [][64]uint8{flat, flat}
	}
	num8x8 := 0
	if t8x8 {
		num8x8 = 2
		if chroma444 {
			num8x8 = 6
		}
	}
	for len(pps.ScalingList8x8) < num8x8 {
		pps.ScalingList8x8 = append(pps.ScalingList8x8, pps.ScalingList8x8[len(pps.ScalingList8x8)%2])
	}

	for i := 0; i < 6; i++ {
		present, err := r.ReadFlag()
		if err != nil {
			return fmt.Errorf("%w: pic scaling_list_present_flag[%d]", ErrMalformed, i)
		}
		def := defaultScaling4x4Inter
		if i < 3 {
			def = defaultScaling4x4Intra
		}
		if !present {
			// Anchors keep the SPS-seeded value; the rest chain.
			if i != 0 && i != 3 {
				pps.ScalingList4x4[i] = pps.ScalingList4x4[i-1]
			}
			continue
		}
		list, useDefault, err := parseScalingList(r, 16)
		if err != nil {
			return err
		}
		if useDefault {
			pps.ScalingList4x4[i] = def
		} else {
			copy(pps.ScalingList4x4[i][:], list)
		}
	}
	for i := 0; i < num8x8; i++ {
		present, err := r.ReadFlag()
		if err != nil {
			return fmt.Errorf("%w: pic scaling_list_present_flag[%d]", ErrMalformed, 6+i)
		}
		def := defaultScaling8x8Inter
		if i%2 == 0 {
			def = defaultScaling8x8Intra
		}
		if !present {
			if i >= 2 {
				pps.ScalingList8x8[i] = pps.ScalingList8x8[i-2]
			}
			continue
		}
		list, useDefault, err := parseScalingList(r, 64)
		if err != nil {
			return err
		}
		if useDefault {
			pps.ScalingList8x8[i] = def
		} else {
			copy(pps.ScalingList8x8[i][:], list)
		}
	}
	pps.HasScalingMatrix = true
	return nil
}

// skipSliceGroupSyntax consumes the slice-group map syntax so the
// remaining PPS fields parse correctly; the feature itself is
// rejected at activation.
func skipSliceGroupSyntax(r *bits.Reader, groupsMinus1 uint32) error {
	mapType, err := r.ReadUE()
	if err != nil || mapType > 6 {
		return fmt.Errorf("%w: slice_group_map_type", ErrMalformed)
	}
	switch mapType {
	case 0:
		for i := uint32(0); i <= groupsMinus1; i++ {
			if _, err = r.ReadUE(); err != nil {
				return fmt.Errorf("%w: run_length_minus1", ErrMalformed)
			}
		}
	case 2:
		for i := uint32(0); i < groupsMinus1; i++ {
			if _, err = r.ReadUE(); err != nil {
				return fmt.Errorf("%w: top_left", ErrMalformed)
			}
			if _, err = r.ReadUE(); err != nil {
				return fmt.Errorf("%w: bottom_right", ErrMalformed)
			}
		}
	case 3, 4, 5:
		if _, err = r.ReadFlag(); err != nil {
			return fmt.Errorf("%w: slice_group_change_direction_flag", ErrMalformed)
		}
		if _, err = r.ReadUE(); err != nil {
			return fmt.Errorf("%w: slice_group_change_rate_minus1", ErrMalformed)
		}
	case 6:
		n, err := r.ReadUE()
		if err != nil {
			return fmt.Errorf("%w: pic_size_in_map_units_minus1", ErrMalformed)
		}
		idBits := uint(0)
		for 1<<idBits < int(groupsMinus1)+1 {
			idBits++
		}
		for i := uint32(0); i <= n; i++ {
			if _, err = r.ReadBits(idBits); err != nil {
				return fmt.Errorf("%w: slice_group_id", ErrMalformed)
			}
		}
	}
	return nil
}

// PPSChange classifies what a re-registered PPS with the same id
// requires of the decoder.
type PPSChange int

const (
	// PPSChangeNone: the new PPS is identical; nothing to do.
	PPSChangeNone PPSChange = iota
	// PPSChangeRuntime: only per-slice runtime parameters changed
	// (QP seeds, weighting, deblock control). Per-macroblock decode
	// state restarts but reference frames and output order survive.
	PPSChangeRuntime
	// PPSChangeFull: entropy mode, SPS binding, or structural layout
	// changed. References are dropped and decode order restarts.
	PPSChangeFull
)

// ClassifyPPSChange compares a stored PPS against its replacement.
// An SPS binding change is always a full rebuild, even when the
// runtime fields also differ.
func ClassifyPPSChange(old, next *PPS) PPSChange {
	if old.SPSID != next.SPSID || old.CABAC != next.CABAC {
		return PPSChangeFull
	}
	if old.PicOrderPresent != next.PicOrderPresent ||
		old.NumSliceGroups != next.NumSliceGroups ||
		old.NumRefIdxL0Default != next.NumRefIdxL0Default ||
		old.NumRefIdxL1Default != next.NumRefIdxL1Default ||
		old.RedundantPicCntPresent != next.RedundantPicCntPresent ||
		old.ConstrainedIntraPred != next.ConstrainedIntraPred ||
		old.Transform8x8Mode != next.Transform8x8Mode ||
		!scalingListsEqual(old, next) {
		return PPSChangeFull
	}
	if old.PicInitQP != next.PicInitQP ||
		old.WeightedPred != next.WeightedPred ||
		old.WeightedBipredIDC != next.WeightedBipredIDC ||
		old.ChromaQPIndexOffset != next.ChromaQPIndexOffset ||
		old.SecondChromaQPIndexOffset != next.SecondChromaQPIndexOffset ||
		old.DeblockingFilterControl != next.DeblockingFilterControl {
		return PPSChangeRuntime
	}
	return PPSChangeNone
}

func scalingListsEqual(a, b *PPS) bool {
	if a.HasScalingMatrix != b.HasScalingMatrix {
		return false
	}
	if !a.HasScalingMatrix {
		return true
	}
	if a.ScalingList4x4 != b.ScalingList4x4 {
		return false
	}
	if len(a.ScalingList8x8) != len(b.ScalingList8x8) {
		return false
	}
	for i := range a.ScalingList8x8 {
		if a.ScalingList8x8[i] != b.ScalingList8x8[i] {
			return false
		}
	}
	return true
}
