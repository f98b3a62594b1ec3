package avc

// CAVLC code tables from Rec. ITU-T H.264 §9.2.
//
// Codewords are stored MSB-first. A zero-length entry marks a slot
// that has no codeword (TrailingOnes > TotalCoeff, or a TotalCoeff
// beyond the block's reach).

// vlcCode is a single variable-length codeword: n bits, value in bits.
type vlcCode struct {
	n    uint8
	bits uint16
}

// coeff_token tables (Table 9-5), indexed [TotalCoeff][TrailingOnes].
// One table per nC class; nC >= 8 uses a 6-bit fixed-length code and
// has no table.

var coeffTokenNC0 = [17][4]vlcCode{
	{{1, 1}, {}, {}, {}},
	{{6, 5}, {2, 1}, {}, {}},
	{{8, 7}, {6, 4}, {3, 1}, {}},
	{{9, 7}, {8, 6}, {7, 5}, {5, 3}},
	{{10, 7}, {9, 6}, {8, 5}, {6, 3}},
	{{11, 7}, {10, 6}, {9, 5}, {7, 4}},
	{{13, 15}, {11, 6}, {10, 5}, {8, 4}},
	{{13, 11}, {13, 14}, {11, 5}, {9, 4}},
	{{13, 8}, {13, 10}, {13, 13}, {10, 4}},
	{{14, 15}, {14, 14}, {13, 9}, {11, 4}},
	{{14, 11}, {14, 10}, {14, 13}, {13, 12}},
	{{15, 15}, {15, 14}, {14, 9}, {14, 12}},
	{{15, 11}, {15, 10}, {15, 13}, {14, 8}},
	{{16, 15}, {15, 1}, {15, 9}, {15, 12}},
	{{16, 11}, {16, 14}, {16, 13}, {15, 8}},
	{{16, 7}, {16, 10}, {16, 9}, {16, 12}},
	{{16, 4}, {16, 6}, {16, 5}, {16, 8}},
}

var coeffTokenNC2 = [17][4]vlcCode{
	{{2, 3}, {}, {}, {}},
	{{6, 11}, {2, 2}, {}, {}},
	{{6, 7}, {5, 7}, {3, 3}, {}},
	{{7, 7}, {6, 10}, {6, 9}, {4, 5}},
	{{8, 7}, {6, 6}, {6, 5}, {4, 4}},
	{{8, 4}, {7, 6}, {7, 5}, {5, 6}},
	{{9, 7}, {8, 6}, {8, 5}, {6, 8}},
	{{11, 15}, {9, 6}, {9, 5}, {6, 4}},
	{{11, 11}, {11, 14}, {11, 13}, {7, 4}},
	{{12, 15}, {11, 10}, {11, 9}, {9, 4}},
	{{12, 11}, {12, 14}, {12, 13}, {11, 12}},
	{{12, 8}, {12, 10}, {12, 9}, {11, 8}},
	{{13, 15}, {13, 14}, {13, 13}, {12, 12}},
	{{13, 11}, {13, 10}, {13, 9}, {13, 12}},
	{{13, 7}, {14, 11}, {14, 10}, {13, 8}},
	{{14, 9}, {14, 8}, {14, 13}, {14, 12}},
	{{14, 7}, {14, 6}, {14, 5}, {14, 4}},
}

var coeffTokenNC4 = [17][4]vlcCode{
	{{4, 15}, {}, {}, {}},
	{{6, 15}, {4, 14}, {}, {}},
	{{6, 11}, {5, 15}, {4, 13}, {}},
	{{6, 8}, {5, 12}, {5, 14}, {4, 12}},
	{{7, 15}, {5, 10}, {5, 11}, {4, 11}},
	{{7, 11}, {5, 8}, {5, 9}, {4, 10}},
	{{7, 9}, {6, 14}, {6, 13}, {4, 9}},
	{{7, 8}, {6, 10}, {6, 9}, {4, 8}},
	{{8, 15}, {7, 14}, {7, 13}, {6, 12}},
	{{8, 11}, {8, 14}, {7, 10}, {7, 12}},
	{{9, 15}, {8, 10}, {8, 13}, {8, 12}},
	{{9, 11}, {9, 14}, {8, 9}, {8, 8}},
	{{9, 8}, {9, 10}, {9, 13}, {9, 12}},
	{{10, 13}, {10, 15}, {9, 9}, {10, 14}},
	{{10, 9}, {10, 12}, {10, 11}, {10, 10}},
	{{10, 5}, {10, 8}, {10, 7}, {10, 6}},
	{{10, 1}, {10, 4}, {10, 3}, {10, 2}},
}

// Chroma DC coeff_token, 4:2:0 (nC == -1) and 4:2:2 (nC == -2).

var coeffTokenChromaDC420 = [5][4]vlcCode{
	{{2, 1}, {}, {}, {}},
	{{6, 7}, {1, 1}, {}, {}},
	{{6, 4}, {6, 6}, {3, 1}, {}},
	{{6, 3}, {7, 3}, {7, 2}, {6, 5}},
	{{6, 2}, {8, 3}, {8, 2}, {7, 0}},
}

var coeffTokenChromaDC422 = [9][4]vlcCode{
	{{1, 1}, {}, {}, {}},
	{{7, 15}, {2, 1}, {}, {}},
	{{7, 14}, {7, 13}, {3, 1}, {}},
	{{9, 7}, {7, 12}, {7, 11}, {5, 3}},
	{{9, 6}, {9, 5}, {7, 10}, {6, 2}},
	{{10, 7}, {10, 6}, {9, 4}, {7, 9}},
	{{11, 7}, {11, 6}, {10, 5}, {7, 8}},
	{{12, 7}, {12, 6}, {11, 5}, {10, 4}},
	{{13, 7}, {12, 5}, {12, 4}, {11, 4}},
}

// total_zeros for 4x4 and 2x2/2x4 blocks (Tables 9-7, 9-8, 9-9).
// Row index is TotalCoeff-1, entry index is the total_zeros value.

var totalZeros4x4 = [15][16]vlcCode{
	{{1, 1}, {3, 3}, {3, 2}, {4, 3}, {4, 2}, {5, 3}, {5, 2}, {6, 3}, {6, 2}, {7, 3}, {7, 2}, {8, 3}, {8, 2}, {9, 3}, {9, 2}, {9, 1}},
	{{3, 7}, {3, 6}, {3, 5}, {3, 4}, {3, 3}, {4, 5}, {4, 4}, {4, 3}, {4, 2}, {5, 3}, {5, 2}, {6, 3}, {6, 2}, {6, 1}, {6, 0}},
	{{4, 5}, {3, 7}, {3, 6}, {3, 5}, {4, 4}, {4, 3}, {3, 4}, {3, 3}, {4, 2}, {5, 3}, {5, 2}, {6, 1}, {5, 1}, {6, 0}},
	{{5, 3}, {3, 7}, {4, 5}, {4, 4}, {3, 6}, {3, 5}, {3, 4}, {3, 3}, {4, 2}, {5, 2}, {4, 3}, {5, 1}, {5, 0}},
	{{4, 5}, {4, 4}, {4, 3}, {3, 7}, {3, 6}, {3, 5}, {3, 4}, {3, 3}, {4, 2}, {5, 1}, {4, 1}, {5, 0}},
	{{6, 1}, {5, 1}, {3, 7}, {3, 6}, {3, 5}, {3, 4}, {3, 3}, {3, 2}, {4, 1}, {3, 1}, {6, 0}},
	{{6, 1}, {5, 1}, {3, 5}, {3, 4}, {3, 3}, {2, 3}, {3, 2}, {4, 1}, {3, 1}, {6, 0}},
	{{6, 1}, {4, 1}, {5, 1}, {3, 3}, {2, 3}, {2, 2}, {3, 2}, {3, 1}, {6, 0}},
	{{6, 1}, {6, 0}, {4, 1}, {2, 3}, {2, 2}, {3, 1}, {2, 1}, {5, 1}},
	{{5, 1}, {5, 0}, {3, 1}, {2, 3}, {2, 2}, {2, 1}, {4, 1}},
	{{4, 0}, {4, 1}, {3, 1}, {3, 2}, {1, 1}, {3, 3}},
	{{4, 0}, {4, 1}, {2, 1}, {1, 1}, {3, 1}},
	{{3, 0}, {3, 1}, {1, 1}, {2, 1}},
	{{2, 0}, {2, 1}, {1, 1}},
	{{1, 0}, {1, 1}},
}

var totalZerosChromaDC420 = [3][4]vlcCode{
	{{1, 1}, {2, 1}, {3, 1}, {3, 0}},
	{{1, 1}, {2, 1}, {2, 0}},
	{{1, 1}, {1, 0}},
}

var totalZerosChromaDC422 = [7][8]vlcCode{
	{{1, 1}, {3, 2}, {3, 3}, {4, 2}, {4, 3}, {4, 1}, {5, 0}, {5, 1}},
	{{3, 0}, {2, 1}, {3, 1}, {3, 4}, {3, 5}, {3, 6}, {3, 7}},
	{{3, 0}, {3, 1}, {2, 1}, {2, 2}, {3, 6}, {3, 7}},
	{{3, 6}, {2, 0}, {2, 1}, {3, 7}, {2, 2}},
	{{2, 0}, {2, 1}, {2, 2}, {2, 3}},
	{{2, 0}, {2, 1}, {1, 1}},
	{{1, 0}, {1, 1}},
}

// run_before (Table 9-10). Row index is min(zerosLeft, 7)-1, entry
// index is the run_before value.

var runBeforeTable = [7][15]vlcCode{
	{{1, 1}, {1, 0}},
	{{1, 1}, {2, 1}, {2, 0}},
	{{2, 3}, {2, 2}, {2, 1}, {2, 0}},
	{{2, 3}, {2, 2}, {2, 1}, {3, 1}, {3, 0}},
	{{2, 3}, {2, 2}, {3, 3}, {3, 2}, {3, 1}, {3, 0}},
	{{2, 3}, {3, 0}, {3, 1}, {3, 3}, {3, 2}, {3, 5}, {3, 4}},
	{{3, 7}, {3, 6}, {3, 5}, {3, 4}, {3, 3}, {3, 2}, {3, 1}, {4, 1}, {5, 1}, {6, 1}, {7, 1}, {8, 1}, {9, 1}, {10, 1}, {11, 1}},
}

// coded_block_pattern mappings for me(v) (Table 9-4). Column 0 is
// intra, column 1 is inter. The 48-entry table serves ChromaArrayType
// 1 and 2, the 16-entry table serves monochrome.

var cbpMapChroma = [48][2]uint8{
	{47, 0}, {31, 16}, {15, 1}, {0, 2}, {23, 4}, {27, 8}, {29, 32}, {30, 3},
	{7, 5}, {11, 10}, {13, 12}, {14, 15}, {39, 47}, {43, 7}, {45, 11}, {46, 13},
	{16, 14}, {3, 6}, {5, 9}, {10, 31}, {12, 35}, {19, 37}, {21, 42}, {26, 44},
	{28, 33}, {35, 34}, {37, 36}, {42, 40}, {44, 39}, {1, 43}, {2, 45}, {4, 46},
	{8, 17}, {17, 18}, {18, 20}, {20, 24}, {24, 19}, {6, 21}, {9, 26}, {22, 28},
	{25, 23}, {32, 27}, {33, 29}, {34, 30}, {36, 22}, {40, 25}, {38, 38}, {41, 41},
}

var cbpMapMono = [16][2]uint8{
	{15, 0}, {0, 1}, {7, 2}, {11, 4}, {13, 8}, {14, 3}, {3, 5}, {5, 10},
	{10, 12}, {12, 15}, {1, 7}, {2, 11}, {4, 13}, {8, 14}, {6, 6}, {9, 9},
}
