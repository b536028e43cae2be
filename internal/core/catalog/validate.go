package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ValidateRecipe 準備/烹調時間與每項食材數量都不可為負
func ValidateRecipe(r Recipe, items []RecipeIngredient) error {
	if r.PrepTime < 0 || r.CookTime < 0 {
		return fmt.Errorf("recipe %d: negative time: %w", r.ID, ErrInvalid)
	}
	for _, it := range items {
		if it.Quantity.IsNegative() {
			return fmt.Errorf("recipe %d ingredient %d: negative quantity: %w", r.ID, it.Ingredient.ID, ErrInvalid)
		}
	}
	return nil
}

// ValidateProfile 營養數值與公克換算係數都不可為負
func ValidateProfile(p Profile) error {
	var (
		n       Nutrients
		factors []decimal.NullDecimal
	)
	switch v := p.(type) {
	case PerUnit:
		n = v.Nutrients
	case PerHundredGrams:
		n = v.Nutrients
		factors = []decimal.NullDecimal{v.GramsPerCup, v.GramsPerTbsp, v.GramsPerTsp, v.GramsPerPiece}
	case nil:
		return fmt.Errorf("nil nutrition profile: %w", ErrInvalid)
	default:
		return fmt.Errorf("unsupported nutrition profile %T: %w", p, ErrInvalid)
	}

	values := []struct {
		name string
		v    decimal.Decimal
	}{
		{"calories", n.Calories},
		{"protein", n.Protein},
		{"carbs", n.Carbs},
		{"fat", n.Fat},
		{"fiber", n.Fiber},
	}
	for _, nv := range values {
		if nv.v.IsNegative() {
			return fmt.Errorf("negative %s: %w", nv.name, ErrInvalid)
		}
	}
	for _, f := range factors {
		if f.Valid && f.Decimal.IsNegative() {
			return fmt.Errorf("negative gram equivalent: %w", ErrInvalid)
		}
	}
	return nil
}
