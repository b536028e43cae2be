package nutrition

import (
	"strings"

	"recipe-matcher/internal/core/catalog"

	"github.com/shopspring/decimal"
)

type unitKind int

const (
	unitUnknown unitKind = iota
	unitGram
	unitKilogram
	unitPiece
	unitCup
	unitTbsp
	unitTsp
	unitMilliliter
	unitLiter
)

var unitAliases = map[string]unitKind{
	"g": unitGram, "gram": unitGram, "grams": unitGram,
	"kg": unitKilogram, "kilogram": unitKilogram, "kilograms": unitKilogram,
	"piece": unitPiece, "pieces": unitPiece, "pcs": unitPiece, "pc": unitPiece,
	"whole": unitPiece, "unit": unitPiece, "units": unitPiece,
	"cup": unitCup, "cups": unitCup,
	"tbsp": unitTbsp, "tablespoon": unitTbsp, "tablespoons": unitTbsp,
	"tsp": unitTsp, "teaspoon": unitTsp, "teaspoons": unitTsp,
	"ml": unitMilliliter, "milliliter": unitMilliliter, "milliliters": unitMilliliter,
	"l": unitLiter, "liter": unitLiter, "liters": unitLiter,
}

var thousand = decimal.NewFromInt(1000)

// ToGrams 將數量與單位換算為公克。
// 個數與體積單位需要食材本身的換算係數，係數缺少（或為 0）時回傳 false；
// 毫升以水的密度近似。無法辨識的單位同樣回傳 false，不做任何估算。
func ToGrams(quantity decimal.Decimal, unit string, profile catalog.PerHundredGrams) (decimal.Decimal, bool) {
	switch unitAliases[strings.ToLower(strings.TrimSpace(unit))] {
	case unitGram, unitMilliliter:
		return quantity, true
	case unitKilogram, unitLiter:
		return quantity.Mul(thousand), true
	case unitPiece:
		return scale(quantity, profile.GramsPerPiece)
	case unitCup:
		return scale(quantity, profile.GramsPerCup)
	case unitTbsp:
		return scale(quantity, profile.GramsPerTbsp)
	case unitTsp:
		return scale(quantity, profile.GramsPerTsp)
	default:
		return decimal.Zero, false
	}
}

func scale(quantity decimal.Decimal, factor decimal.NullDecimal) (decimal.Decimal, bool) {
	if !factor.Valid || factor.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return quantity.Mul(factor.Decimal), true
}
