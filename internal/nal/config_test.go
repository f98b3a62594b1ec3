package nal

import (
	"bytes"
	"errors"
	"testing"
)

var (
	testSPS = []byte{0x67, 0x64, 0x00, 0x1F, 0xAC, 0xD9}
	testPPS = []byte{0x68, 0xEB, 0xE3, 0xCB}
)

func buildTestConfig(t *testing.T) []byte {
	t.Helper()
	cfg := &DecoderConfig{SPS: [][]byte{testSPS}, PPS: [][]byte{testPPS}, LengthSize: 4}
	data, err := cfg.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestDecoderConfigRoundTrip(t *testing.T) {
	data := buildTestConfig(t)
	cfg, err := ParseDecoderConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.LengthSize != 4 {
		t.Errorf("LengthSize = %d, want 4", cfg.LengthSize)
	}
	if len(cfg.SPS) != 1 || !bytes.Equal(cfg.SPS[0], testSPS) {
		t.Errorf("SPS = % x", cfg.SPS)
	}
	if len(cfg.PPS) != 1 || !bytes.Equal(cfg.PPS[0], testPPS) {
		t.Errorf("PPS = % x", cfg.PPS)
	}
}

func TestDecoderConfigHeaderBytes(t *testing.T) {
	data := buildTestConfig(t)
	if data[0] != 1 {
		t.Errorf("version = %d", data[0])
	}
	if data[1] != testSPS[1] || data[2] != testSPS[2] || data[3] != testSPS[3] {
		t.Errorf("profile/compat/level = % x, want % x", data[1:4], testSPS[1:4])
	}
	if data[4]&0x03 != 3 {
		t.Errorf("lengthSizeMinusOne = %d, want 3", data[4]&0x03)
	}
	if data[5]&0x1F != 1 {
		t.Errorf("numOfSPS = %d, want 1", data[5]&0x1F)
	}
}

func TestParseDecoderConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"too short", []byte{1, 0x64, 0x00, 0x1F, 0xFF}},
		{"bad version", append([]byte{2}, buildTestConfig(t)[1:]...)},
		{"truncated sps", []byte{1, 0x64, 0x00, 0x1F, 0xFF, 0xE1, 0x00, 0x10, 0x67}},
		{"zero length sps", []byte{1, 0x64, 0x00, 0x1F, 0xFF, 0xE1, 0x00, 0x00}},
		{"missing pps count", []byte{1, 0x64, 0x00, 0x1F, 0xFF, 0xE1, 0x00, 0x01, 0x67}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseDecoderConfig(tc.data); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("got %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestMarshalRequiresSPS(t *testing.T) {
	cfg := &DecoderConfig{PPS: [][]byte{testPPS}}
	if _, err := cfg.Marshal(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("got %v, want ErrInvalidConfig", err)
	}
}

func TestParseDecoderConfigLengthSizes(t *testing.T) {
	for _, size := range []int{1, 2, 3, 4} {
		cfg := &DecoderConfig{SPS: [][]byte{testSPS}, PPS: [][]byte{testPPS}, LengthSize: size}
		data, err := cfg.Marshal()
		if err != nil {
			t.Fatal(err)
		}
		got, err := ParseDecoderConfig(data)
		if err != nil {
			t.Fatal(err)
		}
		if got.LengthSize != size {
			t.Errorf("LengthSize = %d, want %d", got.LengthSize, size)
		}
	}
}
