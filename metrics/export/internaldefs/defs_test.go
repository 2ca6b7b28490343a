package internaldefs

import (
	"strings"
	"testing"
)

func TestDefinitionsAreUnique(t *testing.T) {
	seenID := map[uint16]string{}
	seenName := map[string]bool{}
	for _, d := range CounterDefs {
		if prev, ok := seenID[uint16(d.ID)]; ok {
			t.Fatalf("id %d used by %s and %s", d.ID, prev, d.Name)
		}
		seenID[uint16(d.ID)] = d.Name
		if seenName[d.Name] || !strings.HasSuffix(d.Name, "_total") {
			t.Fatalf("bad counter name %s", d.Name)
		}
		seenName[d.Name] = true
	}
	for _, d := range HistogramDefs {
		if _, ok := seenID[uint16(d.ID)]; ok {
			t.Fatalf("histogram %s reuses a counter id", d.Name)
		}
	}
	if len(HistogramBounds)+1 != len(HistogramBoundSuffix) {
		t.Fatal("bounds and suffixes disagree")
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets(NormalizeBuckets([]uint64{1, 2, 3}))
	want := [8]uint64{1, 3, 6, 6, 6, 6, 6, 6}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
