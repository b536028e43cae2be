package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLoadSeedFile(t *testing.T) {
	t.Parallel()
	_, file, _, _ := runtime.Caller(0)
	path := filepath.Join(filepath.Dir(file), "..", "..", "..", "data", "seed.json")

	m := NewMemory()
	ctx := context.Background()
	if err := LoadSeedFile(ctx, path, m); err != nil {
		t.Fatalf("LoadSeedFile() error = %v", err)
	}

	recipes, err := m.Recipes(ctx, RecipeFilter{})
	if err != nil || len(recipes) != 5 {
		t.Fatalf("Recipes() = %d, %v; want 5", len(recipes), err)
	}
	r, err := m.Recipe(ctx, 1)
	if err != nil || r.CreatedBy.Username != "grandma" {
		t.Errorf("Recipe(1) = %+v, %v", r, err)
	}

	// garlic 沒有營養資料
	if _, err := m.Nutrition(ctx, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("Nutrition(garlic) error = %v, want ErrNotFound", err)
	}
	egg, err := m.Nutrition(ctx, 1)
	if err != nil || egg.Profile.UnitType() != UnitTypePerUnit {
		t.Errorf("Nutrition(egg) = %+v, %v", egg, err)
	}
}

func TestLoadSeedRejectsBadInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"unknown field", `{"users": [], "extra": 1}`},
		{"invalid category", `{"ingredients": [{"id": 1, "name": "x", "category": "candy"}]}`},
		{"unknown recipe ingredient", `{"recipes": [{"id": 1, "title": "x", "ingredients": [{"ingredient_id": 9, "quantity": 1, "unit": "g"}]}]}`},
		{"negative time", `{"recipes": [{"id": 1, "title": "x", "prep_time": -1}]}`},
		{"unknown unit type", `{"ingredients": [{"id": 1, "name": "x"}], "nutrition": [{"ingredient_id": 1, "unit_type": "per_cup"}]}`},
		{"trailing data", `{} {}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := LoadSeed(context.Background(), strings.NewReader(tt.body), NewMemory()); err == nil {
				t.Fatal("LoadSeed() error = nil, want error")
			}
		})
	}
}

func TestSeedNutritionDefaultsToPerHundredGrams(t *testing.T) {
	t.Parallel()
	p, err := SeedNutrition{IngredientID: 1}.Profile()
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	ph, ok := p.(PerHundredGrams)
	if !ok {
		t.Fatalf("Profile() = %T, want PerHundredGrams", p)
	}
	if !ph.Nutrients.Calories.IsZero() {
		t.Errorf("missing calories = %s, want 0", ph.Nutrients.Calories)
	}
}

func TestLoadSeedRejectsNegativeValues(t *testing.T) {
	t.Parallel()

	const ingredients = `"ingredients": [{"id": 1, "name": "flour", "category": "grain"}]`
	tests := []struct {
		name string
		body string
	}{
		{"negative time", `{"recipes": [{"id": 1, "title": "x", "cook_time": -5}]}`},
		{"negative quantity", `{` + ingredients + `, "recipes": [{"id": 1, "title": "bread", "ingredients": [{"ingredient_id": 1, "quantity": -200, "unit": "g"}]}]}`},
		{"negative calories", `{` + ingredients + `, "nutrition": [{"ingredient_id": 1, "calories": -50}]}`},
		{"negative fiber per unit", `{` + ingredients + `, "nutrition": [{"ingredient_id": 1, "unit_type": "per_unit", "fiber": -1}]}`},
		{"negative gram factor", `{` + ingredients + `, "nutrition": [{"ingredient_id": 1, "calories": 50, "gram_equivalent_per_cup": -120}]}`},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewMemory()
			err := LoadSeed(context.Background(), strings.NewReader(tt.body), m)
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("LoadSeed() error = %v, want ErrInvalid", err)
			}
			if recipes, _ := m.Recipes(context.Background(), RecipeFilter{}); len(recipes) != 0 {
				t.Errorf("Recipes() = %d, want nothing stored", len(recipes))
			}
		})
	}
}

func TestValidateProfile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile Profile
		wantErr bool
	}{
		{"nil", nil, true},
		{"zero per 100g", PerHundredGrams{}, false},
		{"per unit", PerUnit{Nutrients: Nutrients{Calories: decimal.NewFromInt(70)}}, false},
		{"negative protein", PerUnit{Nutrients: Nutrients{Protein: decimal.NewFromInt(-1)}}, true},
		{"absent factor", PerHundredGrams{GramsPerTsp: decimal.NullDecimal{}}, false},
		{"negative piece", PerHundredGrams{GramsPerPiece: decimal.NewNullDecimal(decimal.NewFromInt(-50))}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateProfile(tt.profile)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateProfile() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalid) {
				t.Errorf("error = %v, want ErrInvalid", err)
			}
		})
	}
}
