package catalog

import "github.com/shopspring/decimal"

// UnitType 營養資料的計量基準
type UnitType string

const (
	UnitTypePer100g UnitType = "per_100g"
	UnitTypePerUnit UnitType = "per_unit"
)

// Nutrients 五項營養數值，缺值一律視為 0
type Nutrients struct {
	Calories decimal.Decimal `json:"calories"`
	Protein  decimal.Decimal `json:"protein"`
	Carbs    decimal.Decimal `json:"carbs"`
	Fat      decimal.Decimal `json:"fat"`
	Fiber    decimal.Decimal `json:"fiber"`
}

// Scale 所有數值乘上 m
func (n Nutrients) Scale(m decimal.Decimal) Nutrients {
	return Nutrients{
		Calories: n.Calories.Mul(m),
		Protein:  n.Protein.Mul(m),
		Carbs:    n.Carbs.Mul(m),
		Fat:      n.Fat.Mul(m),
		Fiber:    n.Fiber.Mul(m),
	}
}

// Div 所有數值除以 d
func (n Nutrients) Div(d decimal.Decimal) Nutrients {
	return Nutrients{
		Calories: n.Calories.Div(d),
		Protein:  n.Protein.Div(d),
		Carbs:    n.Carbs.Div(d),
		Fat:      n.Fat.Div(d),
		Fiber:    n.Fiber.Div(d),
	}
}

// Add 逐項相加
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories.Add(o.Calories),
		Protein:  n.Protein.Add(o.Protein),
		Carbs:    n.Carbs.Add(o.Carbs),
		Fat:      n.Fat.Add(o.Fat),
		Fiber:    n.Fiber.Add(o.Fiber),
	}
}

// Profile 食材營養資料，只會是 PerHundredGrams 或 PerUnit 其中之一
type Profile interface {
	UnitType() UnitType
	isProfile()
}

// PerHundredGrams 以每 100 公克計算的營養資料，附帶體積/個數換算公克的係數
type PerHundredGrams struct {
	Nutrients     Nutrients           `json:"nutrients"`
	GramsPerCup   decimal.NullDecimal `json:"gram_equivalent_per_cup"`
	GramsPerTbsp  decimal.NullDecimal `json:"gram_equivalent_per_tbsp"`
	GramsPerTsp   decimal.NullDecimal `json:"gram_equivalent_per_tsp"`
	GramsPerPiece decimal.NullDecimal `json:"gram_equivalent_per_piece"`
}

// UnitType 實作 Profile
func (PerHundredGrams) UnitType() UnitType { return UnitTypePer100g }
func (PerHundredGrams) isProfile()         {}

// PerUnit 以每個/每份計算的營養資料（蛋、香蕉等）
type PerUnit struct {
	Nutrients Nutrients `json:"nutrients"`
}

// UnitType 實作 Profile
func (PerUnit) UnitType() UnitType { return UnitTypePerUnit }
func (PerUnit) isProfile()         {}

// IngredientNutrition 食材與其營養資料（一對一）
type IngredientNutrition struct {
	Ingredient Ingredient
	Profile    Profile
}
