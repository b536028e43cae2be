package nutrition

import (
	"testing"

	"recipe-matcher/internal/core/catalog"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(dec(s))
}

func TestToGrams(t *testing.T) {
	t.Parallel()

	full := catalog.PerHundredGrams{
		GramsPerCup:   nullDec("120"),
		GramsPerTbsp:  nullDec("15"),
		GramsPerTsp:   nullDec("5"),
		GramsPerPiece: nullDec("50"),
	}
	zeroPiece := catalog.PerHundredGrams{GramsPerPiece: nullDec("0")}

	tests := []struct {
		name     string
		quantity string
		unit     string
		profile  catalog.PerHundredGrams
		want     string
		ok       bool
	}{
		{"grams", "250", "g", full, "250", true},
		{"grams word with padding", "250", "  Grams ", full, "250", true},
		{"kilograms", "1.5", "KG", full, "1500", true},
		{"piece", "3", "pcs", full, "150", true},
		{"whole", "2", "whole", full, "100", true},
		{"cups", "2", "cups", full, "240", true},
		{"tablespoon", "2", "Tablespoons", full, "30", true},
		{"teaspoon", "3", "tsp", full, "15", true},
		{"milliliters", "200", "ml", full, "200", true},
		{"liters", "0.5", "l", full, "500", true},
		{"zero quantity", "0", "g", full, "0", true},
		{"cup without factor", "1", "cup", catalog.PerHundredGrams{}, "0", false},
		{"piece with zero factor", "1", "piece", zeroPiece, "0", false},
		{"unknown unit", "1", "pinch", full, "0", false},
		{"empty unit", "1", "", full, "0", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ToGrams(dec(tt.quantity), tt.unit, tt.profile)
			if ok != tt.ok {
				t.Fatalf("ToGrams() ok = %v, want %v", ok, tt.ok)
			}
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ToGrams() = %s, want %s", got, tt.want)
			}
		})
	}
}
