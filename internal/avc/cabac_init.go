package avc

// cabac_init.go carries the context initialization constants of
// Rec. ITU-T H.264 Tables 9-12 through 9-33 and the per-slice
// initialization procedure of Section 9.3.1.1.
//
// Only the context ranges reachable by progressive 4:2:0/4:2:2
// decoding carry values: 0..275, 399..435 and 1012..1015. The field
// coding ranges (277..398, 436..459) and the 4:4:4 Cb/Cr residual
// ranges (460..1011, 1016..1023) stay zero; slices that would need
// them are rejected during header parsing.

// initCabacContexts derives the per-slice context states from the
// (m, n) tables and the slice QP (Section 9.3.1.1). initIDC selects
// the P/B column and is ignored for I slices.
func initCabacContexts(sliceType SliceType, initIDC uint32, qp int32) cabacContexts {
	tab := &cabacInitI
	if sliceType != SliceTypeI {
		tab = &cabacInitPB[initIDC]
	}
	var ctxs cabacContexts
	for i := range ctxs {
		m, n := int(tab[i][0]), int(tab[i][1])
		pre := clip3(1, 126, ((m*clip3(0, 51, int(qp)))>>4)+n)
		if pre <= 63 {
			ctxs[i] = cabacContext{state: uint8(63 - pre), mps: 0}
		} else {
			ctxs[i] = cabacContext{state: uint8(pre - 64), mps: 1}
		}
	}
	// end_of_slice_flag always starts from the near-certain state
	// (Section 9.3.1.1, ctxIdx 276).
	ctxs[ctxTerminate] = cabacContext{state: 63, mps: 0}
	return ctxs
}

// cabacInitI is the I-slice column. Contexts 11..59 apply to P and B
// slices only and are left zero here.
var cabacInitI = [cabacContextCount][2]int8{
	// 0..10: mb_type (intra), shared by every slice type.
	0: {20, -15}, {2, 54}, {3, 74}, {20, -15},
	{2, 54}, {3, 74}, {-28, 127}, {-23, 104},
	{-6, 53}, {-1, 54}, {7, 51},
	// 60..69: mb_qp_delta, intra_chroma_pred_mode,
	// prev_intra4x4_pred_mode_flag, rem_intra4x4_pred_mode.
	60: {0, 41}, {0, 63}, {0, 63}, {0, 63},
	{-9, 83}, {4, 86}, {0, 97}, {-7, 72},
	{13, 41}, {3, 62},
	// 70..72: mb_field_decoding_flag.
	70: {0, 11}, {1, 55}, {0, 69},
	// 73..84: coded_block_pattern luma prefix and chroma suffix.
	73: {-17, 127}, {-13, 102}, {0, 82}, {-7, 74},
	{-21, 107}, {-27, 127}, {-31, 127}, {-24, 127},
	{-18, 95}, {-27, 127}, {-21, 114}, {-30, 127},
	// 85..104: coded_block_flag, block categories 0..4.
	85: {-17, 123}, {-12, 115}, {-16, 122}, {-11, 115},
	{-12, 63}, {-2, 68}, {-15, 84}, {-13, 104},
	{-3, 70}, {-8, 93}, {-10, 90}, {-30, 127},
	{-1, 74}, {-6, 97}, {-7, 91}, {-20, 127},
	{-4, 56}, {-5, 82}, {-7, 76}, {-22, 125},
	// 105..165: significant_coeff_flag (frame), categories 0..4.
	105: {-7, 93}, {-11, 87}, {-3, 77}, {-5, 71},
	{-4, 63}, {-4, 68}, {-12, 84}, {-7, 62},
	{-7, 65}, {8, 61}, {5, 56}, {-2, 66},
	{1, 64}, {0, 61}, {-2, 78}, {1, 50},
	{7, 52}, {10, 35}, {0, 44}, {11, 38},
	{1, 45}, {0, 46}, {5, 44}, {31, 17},
	{1, 51}, {7, 50}, {28, 19}, {16, 33},
	{14, 62}, {-13, 108}, {-15, 100}, {-13, 101},
	{-13, 91}, {-12, 94}, {-10, 88}, {-16, 84},
	{-10, 86}, {-7, 83}, {-13, 87}, {-19, 94},
	{1, 70}, {0, 72}, {-5, 74}, {18, 59},
	{-8, 102}, {-15, 100}, {0, 95}, {-4, 75},
	{2, 72}, {-11, 75}, {-3, 71}, {15, 46},
	{-13, 69}, {0, 62}, {0, 65}, {21, 37},
	{-15, 72}, {9, 57}, {16, 54}, {0, 62},
	{12, 72},
	// 166..226: last_significant_coeff_flag (frame), categories 0..4.
	166: {24, 0}, {15, 9}, {8, 25}, {13, 18},
	{15, 9}, {13, 19}, {10, 37}, {12, 18},
	{6, 29}, {20, 33}, {15, 30}, {4, 45},
	{1, 58}, {0, 62}, {7, 61}, {12, 38},
	{11, 45}, {15, 39}, {11, 42}, {13, 44},
	{16, 45}, {12, 41}, {10, 49}, {30, 34},
	{18, 42}, {10, 55}, {17, 51}, {17, 46},
	{0, 89}, {26, -19}, {22, -17}, {26, -17},
	{30, -25}, {28, -20}, {33, -23}, {37, -27},
	{33, -23}, {40, -28}, {38, -17}, {33, -11},
	{40, -15}, {41, -6}, {38, 1}, {41, 17},
	{30, -6}, {27, 3}, {26, 22}, {37, -16},
	{35, -4}, {38, -8}, {38, -3}, {37, 3},
	{38, 5}, {42, 0}, {35, 16}, {39, 22},
	{14, 48}, {27, 37}, {21, 60}, {12, 68},
	{2, 97},
	// 227..275: coeff_abs_level_minus1, categories 0..4.
	227: {-3, 71}, {-6, 42}, {-5, 50}, {-3, 54},
	{-2, 62}, {0, 58}, {1, 63}, {-2, 72},
	{-1, 74}, {-9, 91}, {-5, 67}, {-4, 76},
	{-2, 61}, {-2, 61}, {-3, 68}, {-15, 74},
	{-1, 70}, {-9, 72}, {-9, 57}, {-5, 86},
	{-16, 89}, {-18, 55}, {-11, 76}, {-10, 75},
	{-12, 77}, {-10, 75}, {-13, 78}, {-8, 74},
	{-10, 79}, {-12, 86}, {-13, 90}, {-14, 86},
	{-10, 73}, {-44, 127}, {-7, 74}, {-6, 75},
	{-7, 77}, {-5, 82}, {-2, 81}, {-2, 77},
	{-6, 76}, {-8, 74}, {-9, 75}, {-6, 71},
	{-3, 68}, {-4, 69}, {-5, 74}, {-9, 86},
	{-13, 96},
	// 399..401: transform_size_8x8_flag.
	399: {31, 21}, {31, 31}, {25, 50},
	// 402..416: significant_coeff_flag (frame, 8x8 blocks).
	402: {-17, 120}, {-20, 112}, {-18, 114}, {-11, 85},
	{-15, 92}, {-14, 89}, {-26, 71}, {-15, 81},
	{-14, 80}, {0, 68}, {-14, 70}, {-24, 56},
	{-23, 68}, {-24, 50}, {-11, 74},
	// 417..425: last_significant_coeff_flag (frame, 8x8 blocks).
	417: {23, -13}, {26, -13}, {40, -15}, {49, -14},
	{44, 3}, {45, 6}, {44, 34}, {33, 54},
	{19, 82},
	// 426..435: coeff_abs_level_minus1 (8x8 blocks).
	426: {-3, 75}, {-1, 23}, {1, 34}, {1, 43},
	{0, 54}, {-2, 55}, {0, 61}, {1, 64},
	{0, 68}, {-9, 92},
	// 1012..1015: coded_block_flag, category 5 (8x8 luma).
	1012: {-6, 93}, {-6, 84}, {-8, 79}, {0, 66},
}

// cabacInitPB carries the three cabac_init_idc columns for P and B
// slices.
var cabacInitPB = [3][cabacContextCount][2]int8{
	{
		// 0..10: mb_type (intra).
		0: {20, -15}, {2, 54}, {3, 74}, {20, -15},
		{2, 54}, {3, 74}, {-28, 127}, {-23, 104},
		{-6, 53}, {-1, 54}, {7, 51},
		// 11..23: mb_skip_flag (P), mb_type (P), sub_mb_type (P).
		11: {23, 33}, {23, 2}, {21, 0}, {1, 9},
		{0, 49}, {-37, 118}, {5, 57}, {-13, 78},
		{-11, 65}, {1, 62}, {12, 49}, {-4, 73},
		{17, 50},
		// 24..39: mb_skip_flag (B), mb_type (B), sub_mb_type (B).
		24: {18, 64}, {9, 43}, {29, 0}, {26, 67},
		{16, 90}, {9, 104}, {-46, 127}, {-20, 104},
		{1, 67}, {-13, 78}, {-11, 65}, {1, 62},
		{-6, 86}, {-17, 95}, {-6, 61}, {9, 45},
		// 40..53: mvd_l0 and mvd_l1, horizontal then vertical.
		40: {-3, 69}, {-6, 81}, {-11, 96}, {0, 58},
		{7, 54}, {-5, 65}, {2, 58}, {-3, 72},
		{-3, 61}, {-8, 67}, {-19, 83}, {-26, 91},
		{-45, 127}, {-17, 96},
		// 54..59: ref_idx_l0 and ref_idx_l1.
		54: {-7, 67}, {-5, 74}, {-4, 74}, {-5, 80},
		{-7, 72}, {1, 58},
		// 60..69: mb_qp_delta, intra_chroma_pred_mode, intra4x4 modes.
		60: {0, 41}, {0, 63}, {0, 63}, {0, 63},
		{-9, 83}, {4, 86}, {0, 97}, {-7, 72},
		{13, 41}, {3, 62},
		// 70..72: mb_field_decoding_flag.
		70: {0, 45}, {-4, 78}, {-3, 96},
		// 73..84: coded_block_pattern.
		73: {-27, 126}, {-28, 98}, {-25, 101}, {-23, 67},
		{-28, 82}, {-20, 94}, {-16, 83}, {-22, 110},
		{-21, 91}, {-18, 102}, {-13, 93}, {-29, 127},
		// 85..104: coded_block_flag, categories 0..4.
		85: {-7, 99}, {-14, 95}, {2, 95}, {0, 76},
		{-5, 74}, {0, 70}, {-11, 75}, {1, 68},
		{0, 65}, {-14, 73}, {3, 62}, {4, 62},
		{-1, 68}, {-13, 75}, {11, 55}, {5, 64},
		{12, 70}, {15, 6}, {6, 50}, {4, 84},
		// 105..165: significant_coeff_flag (frame), categories 0..4.
		105: {-13, 106}, {-16, 106}, {-10, 87}, {-21, 114},
		{-18, 110}, {-14, 98}, {-22, 110}, {-21, 106},
		{-18, 103}, {-21, 107}, {-23, 108}, {-26, 112},
		{-10, 96}, {-12, 95}, {-5, 91}, {-9, 93},
		{-22, 94}, {-5, 86}, {9, 67}, {-4, 80},
		{-10, 85}, {-1, 70}, {7, 64}, {-10, 82},
		{-10, 77}, {-11, 80}, {-10, 82}, {-8, 80},
		{-8, 85}, {-23, 104}, {-15, 95}, {-17, 98},
		{-14, 93}, {-13, 92}, {-15, 95}, {-15, 94},
		{-12, 91}, {-10, 89}, {-11, 92}, {-14, 97},
		{-6, 76}, {-6, 80}, {-9, 85}, {3, 69},
		{-5, 96}, {-11, 99}, {-3, 95}, {-5, 84},
		{-6, 85}, {-9, 85}, {-4, 79}, {-9, 85},
		{-8, 82}, {-4, 77}, {-5, 77}, {-8, 79},
		{-7, 75}, {-9, 77}, {-5, 71}, {-3, 71},
		{-3, 74},
		// 166..226: last_significant_coeff_flag (frame), cats 0..4.
		166: {11, 28}, {2, 40}, {3, 44}, {0, 49},
		{0, 46}, {2, 44}, {2, 51}, {0, 47},
		{4, 39}, {2, 62}, {6, 46}, {0, 54},
		{3, 54}, {2, 58}, {4, 63}, {6, 51},
		{6, 57}, {7, 53}, {6, 52}, {6, 55},
		{11, 45}, {14, 36}, {8, 53}, {-1, 82},
		{7, 55}, {-3, 78}, {15, 46}, {22, 31},
		{-1, 84}, {25, 7}, {30, -7}, {28, 3},
		{28, 4}, {32, 0}, {34, -1}, {30, 6},
		{30, 6}, {32, 9}, {31, 19}, {26, 27},
		{26, 30}, {37, 20}, {28, 34}, {17, 70},
		{1, 67}, {5, 59}, {9, 67}, {16, 30},
		{18, 32}, {18, 35}, {22, 29}, {24, 31},
		{23, 38}, {18, 43}, {20, 41}, {11, 63},
		{9, 59}, {9, 64}, {-1, 94}, {-2, 89},
		{-9, 108},
		// 227..275: coeff_abs_level_minus1, categories 0..4.
		227: {-6, 76}, {-2, 44}, {0, 45}, {0, 52},
		{-3, 64}, {-2, 59}, {-4, 70}, {-4, 75},
		{-8, 82}, {-17, 102}, {-9, 77}, {3, 24},
		{0, 42}, {0, 48}, {0, 55}, {-6, 59},
		{-7, 71}, {-12, 83}, {-11, 87}, {-30, 119},
		{1, 58}, {-3, 29}, {-1, 36}, {1, 38},
		{2, 43}, {-6, 55}, {0, 58}, {0, 64},
		{-3, 74}, {-10, 90}, {0, 70}, {-4, 29},
		{5, 31}, {7, 42}, {1, 59}, {-2, 58},
		{-3, 72}, {-3, 81}, {-11, 97}, {0, 58},
		{8, 5}, {10, 14}, {14, 18}, {13, 27},
		{2, 40}, {0, 58}, {-3, 70}, {-6, 79},
		{-8, 85},
		// 399..401: transform_size_8x8_flag.
		399: {12, 40}, {11, 51}, {14, 59},
		// 402..416: significant_coeff_flag (frame, 8x8 blocks).
		402: {-6, 85}, {-7, 86}, {-13, 88}, {-8, 82},
		{-14, 92}, {-9, 85}, {-16, 92}, {-15, 89},
		{-20, 90}, {-7, 75}, {-5, 77}, {-7, 71},
		{-17, 73}, {-19, 69}, {-9, 67},
		// 417..425: last_significant_coeff_flag (frame, 8x8 blocks).
		417: {21, -10}, {24, -11}, {28, -8}, {28, 1},
		{29, 3}, {29, 9}, {35, 20}, {29, 36},
		{14, 67},
		// 426..435: coeff_abs_level_minus1 (8x8 blocks).
		426: {-2, 76}, {-2, 44}, {0, 45}, {0, 52},
		{-3, 64}, {-2, 59}, {-4, 70}, {-4, 75},
		{-8, 82}, {-17, 102},
		// 1012..1015: coded_block_flag, category 5 (8x8 luma).
		1012: {-3, 74}, {-9, 92}, {-8, 87}, {-23, 126},
	},
	{
		// 0..10: mb_type (intra).
		0: {20, -15}, {2, 54}, {3, 74}, {20, -15},
		{2, 54}, {3, 74}, {-28, 127}, {-23, 104},
		{-6, 53}, {-1, 54}, {7, 51},
		// 11..23: mb_skip_flag (P), mb_type (P), sub_mb_type (P).
		11: {22, 25}, {34, 0}, {16, 0}, {-2, 9},
		{4, 41}, {-29, 118}, {2, 65}, {-6, 71},
		{-13, 79}, {5, 52}, {9, 50}, {-3, 70},
		{10, 54},
		// 24..39: mb_skip_flag (B), mb_type (B), sub_mb_type (B).
		24: {26, 34}, {19, 22}, {40, 0}, {57, 2},
		{41, 36}, {26, 69}, {-45, 127}, {-15, 101},
		{-4, 76}, {-6, 71}, {-13, 79}, {5, 52},
		{6, 69}, {-13, 90}, {0, 52}, {8, 43},
		// 40..53: mvd_l0 and mvd_l1, horizontal then vertical.
		40: {-2, 69}, {-5, 82}, {-10, 96}, {2, 59},
		{2, 75}, {-3, 87}, {-3, 100}, {1, 56},
		{-3, 74}, {-6, 85}, {0, 59}, {-3, 81},
		{-7, 86}, {-5, 95},
		// 54..59: ref_idx_l0 and ref_idx_l1.
		54: {-1, 66}, {-1, 77}, {1, 70}, {-2, 86},
		{-5, 72}, {0, 61},
		// 60..69: mb_qp_delta, intra_chroma_pred_mode, intra4x4 modes.
		60: {0, 41}, {0, 63}, {0, 63}, {0, 63},
		{-9, 83}, {4, 86}, {0, 97}, {-7, 72},
		{13, 41}, {3, 62},
		// 70..72: mb_field_decoding_flag.
		70: {13, 15}, {7, 51}, {2, 80},
		// 73..84: coded_block_pattern.
		73: {-39, 127}, {-18, 91}, {-17, 96}, {-26, 81},
		{-35, 98}, {-24, 102}, {-23, 97}, {-27, 119},
		{-24, 99}, {-21, 110}, {-18, 102}, {-36, 127},
		// 85..104: coded_block_flag, categories 0..4.
		85: {-5, 85}, {-6, 81}, {-10, 77}, {-7, 81},
		{-17, 80}, {-18, 73}, {-4, 74}, {-10, 83},
		{-9, 71}, {-9, 67}, {-1, 61}, {-8, 66},
		{-14, 66}, {0, 59}, {2, 59}, {-3, 81},
		{-3, 76}, {-7, 72}, {2, 58}, {-3, 72},
		// 105..165: significant_coeff_flag (frame), categories 0..4.
		105: {-4, 71}, {0, 58}, {-1, 75}, {-4, 71},
		{-6, 77}, {-2, 71}, {-4, 78}, {-6, 76},
		{-2, 66}, {-3, 68}, {-6, 76}, {-1, 64},
		{2, 61}, {-2, 66}, {-3, 66}, {0, 56},
		{-2, 65}, {4, 56}, {0, 61}, {4, 52},
		{4, 55}, {2, 57}, {4, 56}, {12, 45},
		{3, 60}, {6, 58}, {15, 42}, {14, 48},
		{3, 74}, {-11, 97}, {-9, 91}, {-8, 90},
		{-9, 88}, {-8, 89}, {-8, 86}, {-10, 86},
		{-8, 85}, {-6, 83}, {-9, 87}, {-11, 89},
		{-3, 76}, {-2, 77}, {-5, 78}, {8, 66},
		{-6, 98}, {-12, 97}, {-2, 91}, {-6, 84},
		{-4, 83}, {-9, 84}, {-4, 80}, {0, 73},
		{-9, 80}, {-3, 77}, {-3, 78}, {4, 70},
		{-10, 78}, {0, 72}, {4, 69}, {-1, 74},
		{5, 76},
		// 166..226: last_significant_coeff_flag (frame), cats 0..4.
		166: {9, 32}, {3, 41}, {4, 43}, {2, 46},
		{2, 44}, {3, 45}, {4, 47}, {2, 46},
		{5, 41}, {5, 53}, {8, 44}, {3, 52},
		{4, 53}, {3, 56}, {6, 60}, {7, 49},
		{7, 54}, {8, 51}, {7, 51}, {8, 53},
		{12, 45}, {13, 40}, {9, 51}, {2, 73},
		{8, 53}, {0, 74}, {14, 48}, {19, 38},
		{2, 79}, {22, 8}, {26, -2}, {26, 1},
		{27, 2}, {29, 0}, {31, -1}, {29, 4},
		{29, 5}, {30, 8}, {30, 16}, {26, 23},
		{27, 26}, {34, 20}, {27, 32}, {18, 64},
		{2, 65}, {6, 57}, {10, 64}, {15, 31},
		{17, 33}, {17, 36}, {21, 30}, {23, 32},
		{22, 39}, {18, 42}, {19, 42}, {11, 62},
		{10, 58}, {10, 63}, {0, 92}, {-1, 88},
		{-8, 106},
		// 227..275: coeff_abs_level_minus1, categories 0..4.
		227: {-5, 75}, {-1, 43}, {1, 44}, {1, 51},
		{-2, 63}, {-1, 58}, {-3, 69}, {-3, 74},
		{-7, 81}, {-16, 101}, {-8, 76}, {4, 23},
		{1, 41}, {1, 47}, {1, 54}, {-5, 58},
		{-6, 70}, {-11, 82}, {-10, 86}, {-29, 118},
		{2, 57}, {-2, 28}, {0, 35}, {2, 37},
		{3, 42}, {-5, 54}, {1, 57}, {1, 63},
		{-2, 73}, {-9, 89}, {1, 69}, {-3, 28},
		{6, 30}, {8, 41}, {2, 58}, {-1, 57},
		{-2, 71}, {-2, 80}, {-10, 96}, {1, 57},
		{9, 4}, {11, 13}, {15, 17}, {14, 26},
		{3, 39}, {1, 57}, {-2, 69}, {-5, 78},
		{-7, 84},
		// 399..401: transform_size_8x8_flag.
		399: {25, 32}, {21, 49}, {21, 54},
		// 402..416: significant_coeff_flag (frame, 8x8 blocks).
		402: {-5, 84}, {-6, 85}, {-12, 87}, {-7, 81},
		{-13, 91}, {-8, 84}, {-15, 91}, {-14, 88},
		{-19, 89}, {-6, 74}, {-4, 76}, {-6, 70},
		{-16, 72}, {-18, 68}, {-8, 66},
		// 417..425: last_significant_coeff_flag (frame, 8x8 blocks).
		417: {20, -9}, {23, -10}, {27, -7}, {27, 2},
		{28, 4}, {28, 10}, {34, 21}, {28, 37},
		{13, 68},
		// 426..435: coeff_abs_level_minus1 (8x8 blocks).
		426: {-1, 75}, {-1, 43}, {1, 44}, {1, 51},
		{-2, 63}, {-1, 58}, {-3, 69}, {-3, 74},
		{-7, 81}, {-16, 101},
		// 1012..1015: coded_block_flag, category 5 (8x8 luma).
		1012: {-2, 73}, {-8, 89}, {-9, 88}, {-20, 127},
	},
	{
		// 0..10: mb_type (intra).
		0: {20, -15}, {2, 54}, {3, 74}, {20, -15},
		{2, 54}, {3, 74}, {-28, 127}, {-23, 104},
		{-6, 53}, {-1, 54}, {7, 51},
		// 11..23: mb_skip_flag (P), mb_type (P), sub_mb_type (P).
		11: {29, 16}, {25, 0}, {14, 0}, {-10, 51},
		{-3, 62}, {-27, 99}, {26, 16}, {-4, 85},
		{-24, 102}, {5, 57}, {6, 57}, {-17, 73},
		{14, 57},
		// 24..39: mb_skip_flag (B), mb_type (B), sub_mb_type (B).
		24: {20, 40}, {20, 10}, {29, 0}, {54, 0},
		{37, 42}, {12, 97}, {-32, 127}, {-22, 117},
		{-2, 74}, {-4, 85}, {-24, 102}, {5, 57},
		{-6, 93}, {-14, 88}, {-6, 44}, {4, 55},
		// 40..53: mvd_l0 and mvd_l1, horizontal then vertical.
		40: {-11, 89}, {-15, 103}, {-21, 116}, {19, 57},
		{20, 58}, {4, 84}, {6, 96}, {1, 63},
		{-5, 85}, {-13, 106}, {5, 63}, {6, 75},
		{-3, 90}, {-1, 101},
		// 54..59: ref_idx_l0 and ref_idx_l1.
		54: {3, 55}, {-4, 79}, {-2, 75}, {-12, 97},
		{-7, 50}, {1, 60},
		// 60..69: mb_qp_delta, intra_chroma_pred_mode, intra4x4 modes.
		60: {0, 41}, {0, 63}, {0, 63}, {0, 63},
		{-9, 83}, {4, 86}, {0, 97}, {-7, 72},
		{13, 41}, {3, 62},
		// 70..72: mb_field_decoding_flag.
		70: {7, 34}, {-9, 88}, {-20, 127},
		// 73..84: coded_block_pattern.
		73: {-36, 127}, {-17, 91}, {-14, 95}, {-25, 84},
		{-25, 86}, {-12, 89}, {-17, 91}, {-31, 127},
		{-14, 76}, {-18, 103}, {-13, 90}, {-37, 127},
		// 85..104: coded_block_flag, categories 0..4.
		85: {11, 80}, {5, 76}, {2, 84}, {5, 78},
		{-6, 55}, {4, 61}, {-14, 83}, {-37, 127},
		{-5, 79}, {-11, 104}, {-11, 91}, {-30, 127},
		{0, 65}, {-2, 79}, {0, 72}, {-4, 92},
		{-6, 56}, {3, 68}, {-8, 71}, {-13, 98},
		// 105..165: significant_coeff_flag (frame), categories 0..4.
		105: {-4, 86}, {-12, 88}, {-5, 82}, {-3, 72},
		{-4, 67}, {-8, 72}, {-16, 89}, {-9, 69},
		{-1, 59}, {5, 66}, {4, 57}, {-4, 71},
		{-2, 71}, {2, 58}, {-1, 74}, {-4, 44},
		{-1, 69}, {0, 62}, {-7, 51}, {-4, 47},
		{-6, 42}, {-3, 41}, {-6, 53}, {8, 76},
		{-9, 78}, {-11, 83}, {9, 52}, {0, 67},
		{-5, 90}, {1, 67}, {-15, 72}, {-5, 75},
		{-8, 80}, {-21, 83}, {-21, 64}, {-13, 31},
		{-25, 64}, {-29, 94}, {9, 75}, {17, 63},
		{-8, 74}, {-5, 35}, {-2, 27}, {13, 91},
		{3, 65}, {-7, 69}, {8, 77}, {-10, 66},
		{3, 62}, {-3, 68}, {-20, 81}, {0, 30},
		{1, 7}, {-3, 23}, {-21, 74}, {16, 66},
		{-23, 124}, {17, 37}, {44, -18}, {50, -34},
		{-22, 127},
		// 166..226: last_significant_coeff_flag (frame), cats 0..4.
		166: {4, 39}, {0, 42}, {7, 34}, {11, 29},
		{8, 31}, {6, 37}, {7, 42}, {3, 40},
		{8, 33}, {13, 43}, {13, 36}, {4, 47},
		{3, 55}, {2, 58}, {6, 60}, {8, 44},
		{11, 44}, {14, 42}, {7, 48}, {4, 56},
		{4, 52}, {13, 37}, {9, 49}, {19, 58},
		{10, 48}, {12, 45}, {0, 69}, {20, 33},
		{8, 63}, {35, -18}, {33, -25}, {28, -3},
		{24, 10}, {27, 0}, {34, -14}, {52, -44},
		{39, -24}, {19, 17}, {31, 25}, {36, 29},
		{24, 33}, {34, 15}, {30, 20}, {22, 73},
		{20, 34}, {19, 31}, {27, 44}, {19, 16},
		{15, 36}, {15, 36}, {21, 28}, {25, 21},
		{30, 20}, {31, 12}, {27, 16}, {24, 42},
		{0, 93}, {14, 56}, {15, 57}, {26, 38},
		{-24, 127},
		// 227..275: coeff_abs_level_minus1, categories 0..4.
		227: {-24, 115}, {-22, 82}, {-9, 62}, {0, 53},
		{0, 59}, {-14, 85}, {-13, 89}, {-25, 94},
		{-14, 86}, {-10, 73}, {-44, 127}, {-25, 85},
		{-10, 62}, {-3, 56}, {-14, 86}, {-10, 66},
		{-22, 80}, {-24, 102}, {-11, 68}, {-25, 94},
		{-5, 78}, {-8, 74}, {-5, 64}, {-4, 57},
		{-2, 54}, {-2, 58}, {-1, 61}, {-2, 68},
		{-5, 77}, {-9, 86}, {3, 64}, {1, 61},
		{9, 63}, {7, 50}, {16, 39}, {5, 44},
		{4, 52}, {11, 48}, {-5, 60}, {-1, 59},
		{0, 59}, {22, 33}, {5, 44}, {14, 43},
		{-1, 78}, {0, 60}, {9, 69}, {11, 28},
		{2, 40},
		// 399..401: transform_size_8x8_flag.
		399: {21, 33}, {19, 50}, {17, 61},
		// 402..416: significant_coeff_flag (frame, 8x8 blocks).
		402: {-3, 78}, {-8, 74}, {-9, 72}, {-10, 72},
		{-18, 75}, {-12, 71}, {-11, 63}, {-5, 70},
		{-17, 75}, {-14, 72}, {-16, 67}, {-8, 53},
		{-14, 59}, {-9, 52}, {-11, 68},
		// 417..425: last_significant_coeff_flag (frame, 8x8 blocks).
		417: {9, -2}, {26, -9}, {33, -9}, {39, -7},
		{41, -2}, {45, 3}, {49, 9}, {45, 27},
		{36, 59},
		// 426..435: coeff_abs_level_minus1 (8x8 blocks).
		426: {-6, 66}, {-7, 35}, {-7, 42}, {-8, 45},
		{-5, 48}, {-12, 56}, {-6, 60}, {-5, 62},
		{-8, 66}, {-8, 76},
		// 1012..1015: coded_block_flag, category 5 (8x8 luma).
		1012: {-4, 71}, {-10, 83}, {-12, 92}, {-18, 127},
	},
}
