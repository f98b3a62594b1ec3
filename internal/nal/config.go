package nal

import "fmt"

// DecoderConfig is the AVCDecoderConfigurationRecord carried in the
// avcC box of MP4 files and in many container extradata fields
// (ISO/IEC 14496-15 Section 5.3.3.1).
type DecoderConfig struct {
	SPS        [][]byte // Raw SPS NAL units, header byte included
	PPS        [][]byte // Raw PPS NAL units, header byte included
	LengthSize int      // NAL length prefix size in bytes, 1-4
}

// ParseDecoderConfig parses an avcC record.
func ParseDecoderConfig(data []byte) (*DecoderConfig, error) {
	if len(data) < 7 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidConfig, len(data))
	}
	if data[0] != 1 {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidConfig, data[0])
	}
	cfg := &DecoderConfig{
		LengthSize: int(data[4]&0x03) + 1,
	}
	numSPS := int(data[5] & 0x1F)
	pos := 6
	for i := 0; i < numSPS; i++ {
		sps, next, err := readConfigUnit(data, pos)
		if err != nil {
			return nil, err
		}
		cfg.SPS = append(cfg.SPS, sps)
		pos = next
	}
	if pos >= len(data) {
		return nil, fmt.Errorf("%w: missing PPS count", ErrInvalidConfig)
	}
	numPPS := int(data[pos])
	pos++
	for i := 0; i < numPPS; i++ {
		pps, next, err := readConfigUnit(data, pos)
		if err != nil {
			return nil, err
		}
		cfg.PPS = append(cfg.PPS, pps)
		pos = next
	}
	return cfg, nil
}

func readConfigUnit(data []byte, pos int) ([]byte, int, error) {
	if pos+2 > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated unit length", ErrInvalidConfig)
	}
	n := int(data[pos])<<8 | int(data[pos+1])
	pos += 2
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: zero-length unit", ErrInvalidConfig)
	}
	if pos+n > len(data) {
		return nil, 0, fmt.Errorf("%w: truncated unit body", ErrInvalidConfig)
	}
	return data[pos : pos+n], pos + n, nil
}

// Marshal builds an avcC record from the config. Requires at least
// one SPS; profile, compatibility and level bytes are copied from it.
func (c *DecoderConfig) Marshal() ([]byte, error) {
	if len(c.SPS) == 0 || len(c.SPS[0]) < 4 {
		return nil, fmt.Errorf("%w: need an SPS of at least 4 bytes", ErrInvalidConfig)
	}
	lengthSize := c.LengthSize
	if lengthSize == 0 {
		lengthSize = 4
	}
	if lengthSize < 1 || lengthSize > 4 {
		return nil, fmt.Errorf("%w: length size %d", ErrInvalidConfig, lengthSize)
	}
	sps0 := c.SPS[0]
	out := []byte{
		1,       // configurationVersion
		sps0[1], // AVCProfileIndication
		sps0[2], // profile_compatibility
		sps0[3], // AVCLevelIndication
		0xFC | byte(lengthSize-1),
		0xE0 | byte(len(c.SPS)&0x1F),
	}
	for _, sps := range c.SPS {
		out = append(out, byte(len(sps)>>8), byte(len(sps)))
		out = append(out, sps...)
	}
	out = append(out, byte(len(c.PPS)))
	for _, pps := range c.PPS {
		out = append(out, byte(len(pps)>>8), byte(len(pps)))
		out = append(out, pps...)
	}
	return out, nil
}
