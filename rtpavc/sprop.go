package rtpavc

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// SpropParameterSets parses the value of the sprop-parameter-sets
// fmtp attribute of an SDP H.264 media description: comma-separated
// base64 NAL units carrying the parameter sets, SPS first. Annex-B
// prefixes some cameras ship are stripped. Join the units with
// AnnexB to bootstrap a decoder before the first packet arrives.
func SpropParameterSets(attr string) ([][]byte, error) {
	if attr == "" {
		return nil, fmt.Errorf("empty sprop-parameter-sets")
	}
	var units [][]byte
	for _, part := range strings.Split(attr, ",") {
		u, err := base64.StdEncoding.DecodeString(part)
		if err != nil {
			return nil, fmt.Errorf("invalid sprop-parameter-sets entry %q: %v", part, err)
		}
		u = bytes.TrimPrefix(u, annexBPrefix)
		if len(u) == 0 {
			return nil, fmt.Errorf("empty sprop-parameter-sets entry")
		}
		units = append(units, u)
	}
	return units, nil
}

// AnnexB joins NAL units into one Annex-B buffer with 4-byte start
// codes, the form a decoder takes whole.
func AnnexB(units [][]byte) []byte {
	var size int
	for _, u := range units {
		size += len(annexBPrefix) + len(u)
	}
	out := make([]byte, 0, size)
	for _, u := range units {
		out = append(out, annexBPrefix...)
		out = append(out, u...)
	}
	return out
}
