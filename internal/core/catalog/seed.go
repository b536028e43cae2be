package catalog

import (
	"context"
	"fmt"
	"io"
	"os"

	"recipe-matcher/internal/pkg/common"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seeder 可以匯入種子資料的儲存層
type Seeder interface {
	PutUser(ctx context.Context, u User) error
	PutIngredient(ctx context.Context, ing Ingredient) error
	PutRecipe(ctx context.Context, r Recipe, items []RecipeIngredient) error
	SaveNutrition(ctx context.Context, ingredientID uint, profile Profile) error
}

// SeedFile 種子資料檔格式
type SeedFile struct {
	Users       []User          `json:"users"`
	Ingredients []Ingredient    `json:"ingredients"`
	Recipes     []SeedRecipe    `json:"recipes"`
	Nutrition   []SeedNutrition `json:"nutrition"`
}

// SeedRecipe 種子食譜
type SeedRecipe struct {
	ID           uint             `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Instructions string           `json:"instructions"`
	PrepTime     int              `json:"prep_time"`
	CookTime     int              `json:"cook_time"`
	Servings     int              `json:"servings"`
	Difficulty   Difficulty       `json:"difficulty"`
	Preference   Preference       `json:"preference"`
	ImageURL     *string          `json:"image_url"`
	CreatedBy    uint             `json:"created_by"`
	Ingredients  []SeedIngredient `json:"ingredients"`
}

// SeedIngredient 種子食譜中的食材用量
type SeedIngredient struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
}

// SeedNutrition 種子營養資料，欄位與資料表一致
type SeedNutrition struct {
	IngredientID  uint                `json:"ingredient_id"`
	UnitType      UnitType            `json:"unit_type"`
	Calories      decimal.NullDecimal `json:"calories"`
	Protein       decimal.NullDecimal `json:"protein"`
	Carbs         decimal.NullDecimal `json:"carbs"`
	Fat           decimal.NullDecimal `json:"fat"`
	Fiber         decimal.NullDecimal `json:"fiber"`
	GramsPerCup   decimal.NullDecimal `json:"gram_equivalent_per_cup"`
	GramsPerTbsp  decimal.NullDecimal `json:"gram_equivalent_per_tbsp"`
	GramsPerTsp   decimal.NullDecimal `json:"gram_equivalent_per_tsp"`
	GramsPerPiece decimal.NullDecimal `json:"gram_equivalent_per_piece"`
}

// Profile 轉為對應的營養資料型別
func (n SeedNutrition) Profile() (Profile, error) {
	nutrients := Nutrients{
		Calories: orZero(n.Calories),
		Protein:  orZero(n.Protein),
		Carbs:    orZero(n.Carbs),
		Fat:      orZero(n.Fat),
		Fiber:    orZero(n.Fiber),
	}
	switch n.UnitType {
	case UnitTypePerUnit:
		return PerUnit{Nutrients: nutrients}, nil
	case UnitTypePer100g, "":
		return PerHundredGrams{
			Nutrients:     nutrients,
			GramsPerCup:   n.GramsPerCup,
			GramsPerTbsp:  n.GramsPerTbsp,
			GramsPerTsp:   n.GramsPerTsp,
			GramsPerPiece: n.GramsPerPiece,
		}, nil
	default:
		return nil, fmt.Errorf("unknown unit_type %q", n.UnitType)
	}
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// LoadSeedFile 讀取並匯入種子資料檔
func LoadSeedFile(ctx context.Context, path string, dst Seeder) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()
	return LoadSeed(ctx, f, dst)
}

// LoadSeed 依使用者、食材、食譜、營養資料的順序匯入
func LoadSeed(ctx context.Context, r io.Reader, dst Seeder) error {
	var seed SeedFile
	if err := common.DecodeJSONStrict(r, &seed); err != nil {
		return fmt.Errorf("failed to parse seed data: %w", err)
	}

	for _, u := range seed.Users {
		if err := dst.PutUser(ctx, u); err != nil {
			return fmt.Errorf("seed user %d: %w", u.ID, err)
		}
	}
	for _, ing := range seed.Ingredients {
		if ing.Category != "" && !ing.Category.Valid() {
			return fmt.Errorf("seed ingredient %q: invalid category %q", ing.Name, ing.Category)
		}
		if err := dst.PutIngredient(ctx, ing); err != nil {
			return fmt.Errorf("seed ingredient %d: %w", ing.ID, err)
		}
	}
	for _, sr := range seed.Recipes {
		items := make([]RecipeIngredient, len(sr.Ingredients))
		for i, si := range sr.Ingredients {
			items[i] = RecipeIngredient{
				Ingredient: Ingredient{ID: si.IngredientID},
				Quantity:   si.Quantity,
				Unit:       si.Unit,
			}
		}
		r := Recipe{
			ID:           sr.ID,
			Title:        sr.Title,
			Description:  sr.Description,
			Instructions: sr.Instructions,
			PrepTime:     sr.PrepTime,
			CookTime:     sr.CookTime,
			Servings:     sr.Servings,
			Difficulty:   sr.Difficulty,
			Preference:   sr.Preference,
			ImageURL:     sr.ImageURL,
			CreatedBy:    User{ID: sr.CreatedBy},
		}
		if err := ValidateRecipe(r, items); err != nil {
			return fmt.Errorf("seed recipe %d: %w", sr.ID, err)
		}
		if err := dst.PutRecipe(ctx, r, items); err != nil {
			return fmt.Errorf("seed recipe %d: %w", sr.ID, err)
		}
	}
	for _, sn := range seed.Nutrition {
		p, err := sn.Profile()
		if err != nil {
			return fmt.Errorf("seed nutrition %d: %w", sn.IngredientID, err)
		}
		if err := ValidateProfile(p); err != nil {
			return fmt.Errorf("seed nutrition %d: %w", sn.IngredientID, err)
		}
		if err := dst.SaveNutrition(ctx, sn.IngredientID, p); err != nil {
			return fmt.Errorf("seed nutrition %d: %w", sn.IngredientID, err)
		}
	}

	common.LogInfo("種子資料已匯入",
		zap.Int("users", len(seed.Users)),
		zap.Int("ingredients", len(seed.Ingredients)),
		zap.Int("recipes", len(seed.Recipes)),
		zap.Int("nutrition", len(seed.Nutrition)),
	)
	return nil
}
