package fuzztests

import (
	"context"
	"math"
	"testing"

	"smap/internal/mappings"
	"smap/internal/sourcemap"
	"smap/internal/validate"
	"smap/internal/vlq"
)

func FuzzVLQRoundTrip(f *testing.F) {
	for _, v := range []int32{0, 1, -1, 15, 16, -16, 1 << 20, math.MaxInt32, math.MinInt32 + 1} {
		f.Add(v)
	}
	f.Fuzz(func(t *testing.T, v int32) {
		if v == math.MinInt32 {
			return
		}
		s := vlq.Encode(v)
		got, next, err := vlq.Decode(s, 0)
		if err != nil {
			t.Fatalf("Decode(%q): %v", s, err)
		}
		if got != v || next != len(s) {
			t.Fatalf("Decode(Encode(%d)) = %d, next %d of %d", v, got, next, len(s))
		}
	})
}

func FuzzMappingsDecode(f *testing.F) {
	addMappingSeeds(f)
	f.Fuzz(func(t *testing.T, s string) {
		if len(s) > maxSeedBytes {
			s = s[:maxSeedBytes]
		}
		m, err := mappings.Decode(s)
		if err != nil {
			return
		}
		gen := m.ByGenerated()
		for i := 1; i < len(gen); i++ {
			if mappings.CompareGenerated(gen[i-1], gen[i]) > 0 {
				t.Fatalf("generated order broken at %d", i)
			}
		}
		for _, mp := range m.ByOriginal() {
			if !mp.HasOriginal() {
				t.Fatal("original order holds a generated-only mapping")
			}
		}
		m.ComputeColumnSpans()
	})
}

func FuzzConsumer(f *testing.F) {
	addMapSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		c, err := sourcemap.New(context.Background(), clamp(data))
		if err != nil {
			return
		}
		defer c.Close()

		var first sourcemap.Mapping
		n := 0
		if err := c.EachMapping(sourcemap.GeneratedOrder, func(m sourcemap.Mapping) {
			if n == 0 {
				first = m
			}
			n++
		}); err != nil {
			return
		}
		if err := c.EachMapping(sourcemap.OriginalOrder, func(sourcemap.Mapping) {}); err != nil {
			t.Fatalf("original order failed after generated order succeeded: %v", err)
		}
		if n == 0 {
			return
		}
		_, _, _ = c.OriginalPositionFor(first.Generated, sourcemap.LeastUpperBound)
		if first.HasOriginal() {
			_, _, _ = c.GeneratedPositionFor(first.Source, first.Original, sourcemap.GreatestLowerBound)
			_, _ = c.AllGeneratedPositionsFor(first.Source, first.Original.Line, 0, false)
		}
		_ = c.ComputeColumnSpans()
	})
}

func FuzzValidate(f *testing.F) {
	addMapSeeds(f)
	f.Fuzz(func(t *testing.T, data []byte) {
		const limit = 32
		bag := validate.Map(clamp(data), limit)
		if bag.Len() > limit {
			t.Fatalf("bag holds %d diagnostics, limit %d", bag.Len(), limit)
		}
	})
}
