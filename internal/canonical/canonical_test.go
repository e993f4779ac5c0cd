package canonical

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		wantIDs  []string
		sameAs   []string
		wantSame bool
	}{
		{
			name:     "order independent",
			input:    []string{"B", "A", "C"},
			wantIDs:  []string{"A", "B", "C"},
			sameAs:   []string{"C", "A", "B"},
			wantSame: true,
		},
		{
			name:     "duplicates collapse",
			input:    []string{"A", "B", "A"},
			wantIDs:  []string{"A", "B"},
			sameAs:   []string{"B", "A"},
			wantSame: true,
		},
		{
			name:     "different members differ",
			input:    []string{"A", "B"},
			wantIDs:  []string{"A", "B"},
			sameAs:   []string{"A", "C"},
			wantSame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize(tt.input)
			if len(got.IDs) != len(tt.wantIDs) {
				t.Fatalf("unexpected IDs: %v", got.IDs)
			}
			for i, id := range tt.wantIDs {
				if got.IDs[i] != id {
					t.Fatalf("unexpected IDs: %v", got.IDs)
				}
			}
			other := Canonicalize(tt.sameAs)
			if tt.wantSame && got.Digest != other.Digest {
				t.Fatalf("digests differ: %s vs %s", got.Digest, other.Digest)
			}
			if !tt.wantSame && got.Digest == other.Digest {
				t.Fatalf("digests should differ")
			}
		})
	}
}

func TestCanonicalizeEmpty(t *testing.T) {
	a := Canonicalize(nil)
	b := Canonicalize([]string{"", ""})
	if !a.Empty() || !b.Empty() {
		t.Fatalf("expected empty sets")
	}
	if a.Digest != b.Digest {
		t.Fatalf("empty digests must be fixed: %s vs %s", a.Digest, b.Digest)
	}
	if a.Serialized != "[]" {
		t.Fatalf("unexpected serialization: %s", a.Serialized)
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	first := Canonicalize([]string{"P2", "P1", "P2"})
	second := Canonicalize(first.IDs)
	if first.Digest != second.Digest {
		t.Fatalf("canonicalization is not idempotent")
	}
}
