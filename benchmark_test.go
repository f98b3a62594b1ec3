// Allocation benchmarks for the decode path. Pictures own their
// planes, so one plane set per output frame is the floor; the
// numbers here watch for regressions beyond that.
//
// Run with:
//
//	go test -bench=Benchmark -benchmem -run=^$ .
package goavc

import "testing"

func BenchmarkDecodeIDR(b *testing.B) {
	p := defaultStream()
	au := annexB(spsUnit(p), ppsUnit(), idrUnit(p))

	dec, err := NewDecoder()
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(au)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		frames, err := dec.Decode(au)
		if err != nil {
			b.Fatal(err)
		}
		if len(frames) != 1 {
			b.Fatalf("got %d frames, want 1", len(frames))
		}
	}
}

func BenchmarkDecodeGOP(b *testing.B) {
	p := defaultStream()
	aus := [][]byte{
		annexB(spsUnit(p), ppsUnit(), idrUnit(p)),
		annexB(pSkipUnit(p, 1, 2)),
		annexB(pSkipUnit(p, 2, 4)),
		annexB(pSkipUnit(p, 3, 6)),
	}
	var size int64
	for _, au := range aus {
		size += int64(len(au))
	}

	dec, err := NewDecoder()
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.SetBytes(size)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var frames int
		for _, au := range aus {
			out, err := dec.Decode(au)
			if err != nil {
				b.Fatal(err)
			}
			frames += len(out)
		}
		if frames != len(aus) {
			b.Fatalf("got %d frames, want %d", frames, len(aus))
		}
	}
}
