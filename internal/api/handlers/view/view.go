// Package view 將領域型別轉成 API 響應的 JSON 形狀
package view

import (
	"time"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/matching"

	"github.com/shopspring/decimal"
)

// IngredientRef 配對結果中的精簡食材
type IngredientRef struct {
	ID       uint             `json:"id"`
	Name     string           `json:"name"`
	Category catalog.Category `json:"category"`
}

// IngredientRefs 轉換食材列表，nil 轉為空陣列
func IngredientRefs(ings []catalog.Ingredient) []IngredientRef {
	out := make([]IngredientRef, len(ings))
	for i, ing := range ings {
		out[i] = IngredientRef{ID: ing.ID, Name: ing.Name, Category: ing.Category}
	}
	return out
}

// Ingredients 保證輸出為陣列而非 null
func Ingredients(ings []catalog.Ingredient) []catalog.Ingredient {
	if ings == nil {
		return []catalog.Ingredient{}
	}
	return ings
}

// Creator 食譜建立者
type Creator struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Recipe 食譜摘要
type Recipe struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	PrepTime    int                `json:"prep_time"`
	CookTime    int                `json:"cook_time"`
	TotalTime   int                `json:"total_time"`
	Servings    int                `json:"servings"`
	Difficulty  catalog.Difficulty `json:"difficulty"`
	Preference  catalog.Preference `json:"preference"`
	ImageURL    *string            `json:"image_url"`
	CreatedBy   Creator            `json:"created_by"`
}

// NewRecipe 轉換食譜摘要
func NewRecipe(r catalog.Recipe) Recipe {
	return Recipe{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		PrepTime:    r.PrepTime,
		CookTime:    r.CookTime,
		TotalTime:   r.TotalTime(),
		Servings:    r.Servings,
		Difficulty:  r.Difficulty,
		Preference:  r.Preference,
		ImageURL:    r.ImageURL,
		CreatedBy:   Creator{ID: r.CreatedBy.ID, Username: r.CreatedBy.Username},
	}
}

// Recipes 轉換食譜列表
func Recipes(rs []catalog.Recipe) []Recipe {
	out := make([]Recipe, len(rs))
	for i, r := range rs {
		out[i] = NewRecipe(r)
	}
	return out
}

// RecipeDetail 食譜明細（含步驟與食材用量）
type RecipeDetail struct {
	Recipe
	Instructions    string             `json:"instructions"`
	Ingredients     []RecipeIngredient `json:"ingredients"`
	IngredientCount int                `json:"ingredient_count"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewRecipeDetail 轉換食譜明細
func NewRecipeDetail(r catalog.Recipe, items []catalog.RecipeIngredient) RecipeDetail {
	return RecipeDetail{
		Recipe:          NewRecipe(r),
		Instructions:    r.Instructions,
		Ingredients:     RecipeIngredients(items),
		IngredientCount: len(items),
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// RecipeIngredient 食材與用量
type RecipeIngredient struct {
	ID       uint    `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// RecipeIngredients 轉換食材用量列表
func RecipeIngredients(items []catalog.RecipeIngredient) []RecipeIngredient {
	out := make([]RecipeIngredient, len(items))
	for i, it := range items {
		out[i] = RecipeIngredient{
			ID:       it.Ingredient.ID,
			Name:     it.Ingredient.Name,
			Quantity: it.Quantity.InexactFloat64(),
			Unit:     it.Unit,
		}
	}
	return out
}

// MatchedRecipe 依配對百分比排序的結果
type MatchedRecipe struct {
	Recipe
	MatchPercentage    float64         `json:"match_percentage"`
	MatchedIngredients []IngredientRef `json:"matched_ingredients"`
	MatchedCount       int             `json:"matched_count"`
	MissingIngredients []IngredientRef `json:"missing_ingredients"`
	MissingCount       int             `json:"missing_count"`
	TotalIngredients   int             `json:"total_ingredients"`
	// ShoppingList 只在差幾樣食材模式提供
	ShoppingList []IngredientRef `json:"shopping_list,omitempty"`
}

// NewMatchedRecipe 轉換配對結果
func NewMatchedRecipe(m matching.Match) MatchedRecipe {
	return MatchedRecipe{
		Recipe:             NewRecipe(m.Recipe),
		MatchPercentage:    matching.Round1(m.Percentage),
		MatchedIngredients: IngredientRefs(m.MatchedIngredients),
		MatchedCount:       len(m.Matched),
		MissingIngredients: IngredientRefs(m.MissingIngredients),
		MissingCount:       len(m.Missing),
		TotalIngredients:   m.Total(),
	}
}

// MatchedRecipes 轉換配對結果列表
func MatchedRecipes(ms []matching.Match) []MatchedRecipe {
	out := make([]MatchedRecipe, len(ms))
	for i, m := range ms {
		out[i] = NewMatchedRecipe(m)
	}
	return out
}

// AlmostRecipes 差幾樣食材的結果，附上購物清單
func AlmostRecipes(ms []matching.Match) []MatchedRecipe {
	out := MatchedRecipes(ms)
	for i := range out {
		out[i].ShoppingList = out[i].MissingIngredients
	}
	return out
}

// CompleteRecipe 食材全數具備的結果
type CompleteRecipe struct {
	Recipe
	Ingredients     []RecipeIngredient `json:"ingredients"`
	IngredientCount int                `json:"ingredient_count"`
}

// CompleteRecipes 轉換完全配對結果列表
func CompleteRecipes(ms []matching.Match) []CompleteRecipe {
	out := make([]CompleteRecipe, len(ms))
	for i, m := range ms {
		out[i] = CompleteRecipe{
			Recipe:          NewRecipe(m.Recipe),
			Ingredients:     RecipeIngredients(m.Ingredients),
			IngredientCount: m.Total(),
		}
	}
	return out
}

// PantryItem 食材櫃項目
type PantryItem struct {
	ID         uint               `json:"id"`
	Ingredient catalog.Ingredient `json:"ingredient"`
	Quantity   *float64           `json:"quantity"`
	AddedAt    time.Time          `json:"added_at"`
}

// NewPantryItem 轉換食材櫃項目
func NewPantryItem(item catalog.PantryItem) PantryItem {
	return PantryItem{
		ID:         item.ID,
		Ingredient: item.Ingredient,
		Quantity:   nullFloat(item.Quantity),
		AddedAt:    item.AddedAt,
	}
}

// Favorite 收藏項目
type Favorite struct {
	ID      uint      `json:"id"`
	Recipe  Recipe    `json:"recipe"`
	SavedAt time.Time `json:"saved_at"`
}

// NewFavorite 轉換收藏項目
func NewFavorite(f catalog.Favorite) Favorite {
	return Favorite{ID: f.ID, Recipe: NewRecipe(f.Recipe), SavedAt: f.SavedAt}
}

// PantryMatch 收藏食譜與食材櫃的配對
type PantryMatch struct {
	MatchPercentage    float64         `json:"match_percentage"`
	MatchedCount       int             `json:"matched_count"`
	MissingCount       int             `json:"missing_count"`
	TotalIngredients   int             `json:"total_ingredients"`
	MatchedIngredients []IngredientRef `json:"matched_ingredients"`
	MissingIngredients []IngredientRef `json:"missing_ingredients"`
	CanMakeNow         bool            `json:"can_make_now"`
}

// FavoriteWithMatch 收藏項目加上食材櫃配對
type FavoriteWithMatch struct {
	FavoriteID  uint        `json:"favorite_id"`
	SavedAt     time.Time   `json:"saved_at"`
	Recipe      Recipe      `json:"recipe"`
	PantryMatch PantryMatch `json:"pantry_match"`
}

// FavoritesWithMatch 轉換收藏配對列表
func FavoritesWithMatch(fms []matching.FavoriteMatch) []FavoriteWithMatch {
	out := make([]FavoriteWithMatch, len(fms))
	for i, fm := range fms {
		out[i] = FavoriteWithMatch{
			FavoriteID: fm.Favorite.ID,
			SavedAt:    fm.Favorite.SavedAt,
			Recipe:     NewRecipe(fm.Favorite.Recipe),
			PantryMatch: PantryMatch{
				MatchPercentage:    matching.Round1(fm.Percentage),
				MatchedCount:       len(fm.Matched),
				MissingCount:       len(fm.Missing),
				TotalIngredients:   fm.Total(),
				MatchedIngredients: IngredientRefs(fm.MatchedIngredients),
				MissingIngredients: IngredientRefs(fm.MissingIngredients),
				CanMakeNow:         fm.CanMakeNow,
			},
		}
	}
	return out
}

// Nutrition 食材營養資料；per_unit 時沒有換算係數
type Nutrition struct {
	IngredientID   uint             `json:"ingredient_id"`
	IngredientName string           `json:"ingredient_name"`
	UnitType       catalog.UnitType `json:"unit_type"`
	Calories       float64          `json:"calories"`
	Protein        float64          `json:"protein"`
	Carbs          float64          `json:"carbs"`
	Fat            float64          `json:"fat"`
	Fiber          float64          `json:"fiber"`
	GramsPerCup    *float64         `json:"gram_equivalent_per_cup"`
	GramsPerTbsp   *float64         `json:"gram_equivalent_per_tbsp"`
	GramsPerTsp    *float64         `json:"gram_equivalent_per_tsp"`
	GramsPerPiece  *float64         `json:"gram_equivalent_per_piece"`
}

// NewNutrition 轉換食材營養資料
func NewNutrition(n catalog.IngredientNutrition) Nutrition {
	out := Nutrition{
		IngredientID:   n.Ingredient.ID,
		IngredientName: n.Ingredient.Name,
	}
	var nutrients catalog.Nutrients
	switch p := n.Profile.(type) {
	case catalog.PerHundredGrams:
		nutrients = p.Nutrients
		out.GramsPerCup = nullFloat(p.GramsPerCup)
		out.GramsPerTbsp = nullFloat(p.GramsPerTbsp)
		out.GramsPerTsp = nullFloat(p.GramsPerTsp)
		out.GramsPerPiece = nullFloat(p.GramsPerPiece)
	case catalog.PerUnit:
		nutrients = p.Nutrients
	}
	if n.Profile != nil {
		out.UnitType = n.Profile.UnitType()
	}
	out.Calories = nutrients.Calories.InexactFloat64()
	out.Protein = nutrients.Protein.InexactFloat64()
	out.Carbs = nutrients.Carbs.InexactFloat64()
	out.Fat = nutrients.Fat.InexactFloat64()
	out.Fiber = nutrients.Fiber.InexactFloat64()
	return out
}

func nullFloat(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
