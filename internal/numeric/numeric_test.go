package numeric

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		places int32
		want   string
	}{
		{"comma decimal with dot thousands", "1.234,56", PlacesCurrency, "1234.56"},
		{"dot decimal with comma thousands", "1,234.56", PlacesCurrency, "1234.56"},
		{"already canonical", "1234.56", PlacesCurrency, "1234.56"},
		{"bare comma decimal", "1234,56", PlacesCurrency, "1234.56"},
		{"plain integer", "1234", PlacesCurrency, "1234.00"},
		{"multiple dot thousands", "1.234.567", PlacesCount, "1234567"},
		{"multiple comma thousands", "1,234,567", PlacesCount, "1234567"},
		{"non breaking spaces", "1 234,5", PlacesQuantity, "1234.500"},
		{"negative", "-1.234,567", PlacesQuantity, "-1234.567"},
		{"rounding", "10,005", PlacesCurrency, "10.01"},
		{"empty is zero", "", PlacesCurrency, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonical(tt.input, tt.places)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Canonical(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"1.234,56", "1,234.56", "987654,321", "-42", "0,1"}
	for _, in := range inputs {
		once, err := Canonical(in, PlacesQuantity)
		if err != nil {
			t.Fatalf("first pass %q: %v", in, err)
		}
		twice, err := Canonical(once, PlacesQuantity)
		if err != nil {
			t.Fatalf("second pass %q: %v", once, err)
		}
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	if _, err := Normalize("12x3", PlacesCurrency); err == nil {
		t.Fatal("expected error for malformed number")
	}
}
