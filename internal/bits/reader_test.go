package bits

import (
	"errors"
	"testing"
)

func TestReadBitsBasic(t *testing.T) {
	r := NewReader([]byte{0b10110100, 0b01100001})

	tests := []struct {
		n    uint
		want uint32
	}{
		{1, 1},
		{2, 0b01},
		{5, 0b10100},
		{8, 0b01100001},
	}
	for i, tc := range tests {
		got, err := r.ReadBits(tc.n)
		if err != nil {
			t.Fatalf("read %d: unexpected error %v", i, err)
		}
		if got != tc.want {
			t.Errorf("read %d: got %#b, want %#b", i, got, tc.want)
		}
	}
	if r.BitsLeft() != 0 {
		t.Errorf("BitsLeft = %d, want 0", r.BitsLeft())
	}
}

func TestReadBitsCrossingBytes(t *testing.T) {
	r := NewReader([]byte{0xAB, 0xCD, 0xEF})
	got, err := r.ReadBits(20)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xABCDE {
		t.Errorf("got %#x, want 0xabcde", got)
	}
}

func TestReadBitsPastEnd(t *testing.T) {
	r := NewReader([]byte{0xFF})
	if _, err := r.ReadBits(9); !errors.Is(err, ErrOutOfData) {
		t.Errorf("got %v, want ErrOutOfData", err)
	}
	// The reader stays exhausted afterwards.
	if _, err := r.ReadBit(); !errors.Is(err, ErrOutOfData) {
		t.Errorf("after failed read: got %v, want ErrOutOfData", err)
	}
}

func TestReadBitsZeroWidth(t *testing.T) {
	r := NewReader(nil)
	got, err := r.ReadBits(0)
	if err != nil || got != 0 {
		t.Errorf("ReadBits(0) = %d, %v; want 0, nil", got, err)
	}
}

// TestReadUE checks the ue(v) mapping from Rec. H.264 Table 9-1.
func TestReadUE(t *testing.T) {
	tests := []struct {
		name string
		bits string
		want uint32
	}{
		{"zero", "1", 0},
		{"one", "010", 1},
		{"two", "011", 2},
		{"three", "00100", 3},
		{"six", "00111", 6},
		{"seven", "0001000", 7},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(packBits(tc.bits))
			got, err := r.ReadUE()
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

// TestReadSE checks the se(v) mapping: 0, 1, -1, 2, -2, ...
func TestReadSE(t *testing.T) {
	tests := []struct {
		bits string
		want int32
	}{
		{"1", 0},
		{"010", 1},
		{"011", -1},
		{"00100", 2},
		{"00101", -2},
		{"00110", 3},
	}
	for _, tc := range tests {
		r := NewReader(packBits(tc.bits))
		got, err := r.ReadSE()
		if err != nil {
			t.Fatal(err)
		}
		if got != tc.want {
			t.Errorf("bits %q: got %d, want %d", tc.bits, got, tc.want)
		}
	}
}

func TestReadUETooManyZeros(t *testing.T) {
	r := NewReader([]byte{0, 0, 0, 0, 0xFF})
	if _, err := r.ReadUE(); !errors.Is(err, ErrCodeTooLong) {
		t.Errorf("got %v, want ErrCodeTooLong", err)
	}
}

func TestReadTE(t *testing.T) {
	// Bound 1 is a single inverted bit.
	r := NewReader(packBits("0"))
	got, err := r.ReadTE(1)
	if err != nil || got != 1 {
		t.Errorf("te(0) bound 1 = %d, %v; want 1", got, err)
	}
	r = NewReader(packBits("1"))
	got, err = r.ReadTE(1)
	if err != nil || got != 0 {
		t.Errorf("te(1) bound 1 = %d, %v; want 0", got, err)
	}
	// Larger bounds decode as ue(v).
	r = NewReader(packBits("011"))
	got, err = r.ReadTE(5)
	if err != nil || got != 2 {
		t.Errorf("te bound 5 = %d, %v; want 2", got, err)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	r := NewReader([]byte{0b11010010})
	v, avail := r.PeekBits(3)
	if avail != 3 || v != 0b110 {
		t.Fatalf("peek = %#b avail %d, want 0b110 avail 3", v, avail)
	}
	got, err := r.ReadBits(3)
	if err != nil || got != 0b110 {
		t.Errorf("read after peek = %#b, want 0b110", got)
	}
}

func TestPeekShortTail(t *testing.T) {
	r := NewReader([]byte{0b10000000})
	if err := r.SkipBits(6); err != nil {
		t.Fatal(err)
	}
	v, avail := r.PeekBits(8)
	if avail != 2 {
		t.Errorf("avail = %d, want 2", avail)
	}
	// Remaining bits are left-aligned within the requested width.
	if v != 0 {
		t.Errorf("peek value = %#b, want 0", v)
	}
}

func TestAlignToByte(t *testing.T) {
	r := NewReader([]byte{0xFF, 0x0F})
	if _, err := r.ReadBits(3); err != nil {
		t.Fatal(err)
	}
	r.AlignToByte()
	if r.BitsRead() != 8 {
		t.Errorf("BitsRead = %d, want 8", r.BitsRead())
	}
	r.AlignToByte()
	if r.BitsRead() != 8 {
		t.Errorf("second align moved the cursor to %d", r.BitsRead())
	}
}

func TestMoreRBSPData(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		skip uint
		want bool
	}{
		{"only stop bit", []byte{0x80}, 0, false},
		{"stop bit with zeros", []byte{0x80, 0x00}, 0, false},
		{"payload before stop", []byte{0xC0}, 0, true},
		{"empty", nil, 0, false},
		{"mid-byte trailing", []byte{0xF8}, 4, false},
		{"mid-byte payload", []byte{0xF4}, 4, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewReader(tc.data)
			if tc.skip > 0 {
				if err := r.SkipBits(tc.skip); err != nil {
					t.Fatal(err)
				}
			}
			if got := r.MoreRBSPData(); got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			// The check must not move the cursor.
			if r.BitsRead() != int(tc.skip) {
				t.Errorf("cursor moved to %d", r.BitsRead())
			}
		})
	}
}

// packBits turns a string of '0'/'1' runes into zero-padded bytes.
func packBits(s string) []byte {
	w := NewWriter()
	for _, c := range s {
		if c == '1' {
			w.WriteBit(1)
		} else {
			w.WriteBit(0)
		}
	}
	return w.Bytes()
}
