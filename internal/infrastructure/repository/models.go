package repository

import (
	"fmt"
	"time"

	"recipe-matcher/internal/core/catalog"

	"github.com/shopspring/decimal"
)

// User 使用者（只保存食譜作者需要的欄位）
type User struct {
	ID        uint   `gorm:"primaryKey"`
	Username  string `gorm:"size:150;uniqueIndex;not null"`
	CreatedAt time.Time
}

// Ingredient 食材
type Ingredient struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:100;uniqueIndex;not null"`
	Category  string `gorm:"size:20;not null;default:other"`
	Unit      string `gorm:"size:30"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recipe 食譜
type Recipe struct {
	ID           uint    `gorm:"primaryKey"`
	Title        string  `gorm:"size:200;not null"`
	Description  string  `gorm:"type:text"`
	Instructions string  `gorm:"type:text"`
	PrepTime     int     `gorm:"not null;default:0"`
	CookTime     int     `gorm:"not null;default:0"`
	Servings     int     `gorm:"not null;default:4"`
	Difficulty   string  `gorm:"size:10;not null;default:medium;index"`
	Preference   string  `gorm:"size:10;not null;default:veg"`
	ImageURL     *string `gorm:"size:500"`
	CreatedByID  *uint   `gorm:"index"`
	CreatedBy    *User   `gorm:"foreignKey:CreatedByID"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RecipeIngredient 食譜所需食材；同一食譜同一食材只有一筆
type RecipeIngredient struct {
	ID           uint            `gorm:"primaryKey"`
	RecipeID     uint            `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint            `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	Ingredient   Ingredient      `gorm:"constraint:OnDelete:CASCADE"`
	Quantity     decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Unit         string          `gorm:"size:30"`
}

// PantryItem 使用者食材櫃；同一使用者同一食材只有一筆
type PantryItem struct {
	ID           uint                `gorm:"primaryKey"`
	UserID       uint                `gorm:"not null;uniqueIndex:idx_pantry_user_ingredient"`
	IngredientID uint                `gorm:"not null;uniqueIndex:idx_pantry_user_ingredient"`
	Ingredient   Ingredient          `gorm:"constraint:OnDelete:CASCADE"`
	Quantity     decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	AddedAt      time.Time           `gorm:"autoCreateTime"`
}

// Favorite 使用者收藏；同一使用者同一食譜只有一筆
type Favorite struct {
	ID       uint      `gorm:"primaryKey"`
	UserID   uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	Recipe   Recipe    `gorm:"constraint:OnDelete:CASCADE"`
	SavedAt  time.Time `gorm:"autoCreateTime;index"`
}

// IngredientNutrition 食材營養資料，unit_type 決定營養數值的計量基準
type IngredientNutrition struct {
	ID            uint                `gorm:"primaryKey"`
	IngredientID  uint                `gorm:"not null;uniqueIndex"`
	Ingredient    Ingredient          `gorm:"constraint:OnDelete:CASCADE"`
	UnitType      string              `gorm:"size:10;not null;default:per_100g"`
	Calories      decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	Protein       decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	Carbs         decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	Fat           decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	Fiber         decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	GramsPerCup   decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	GramsPerTbsp  decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	GramsPerTsp   decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	GramsPerPiece decimal.NullDecimal `gorm:"type:decimal(8,2)"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 沿用單數表名
func (IngredientNutrition) TableName() string { return "ingredient_nutrition" }

// allModels AutoMigrate 的順序
var allModels = []interface{}{
	&User{},
	&Ingredient{},
	&Recipe{},
	&RecipeIngredient{},
	&PantryItem{},
	&Favorite{},
	&IngredientNutrition{},
}

func (u *User) toDomain() catalog.User {
	if u == nil {
		return catalog.User{}
	}
	return catalog.User{ID: u.ID, Username: u.Username}
}

func (i Ingredient) toDomain() catalog.Ingredient {
	return catalog.Ingredient{
		ID:       i.ID,
		Name:     i.Name,
		Category: catalog.Category(i.Category),
		Unit:     i.Unit,
	}
}

func ingredientFromDomain(ing catalog.Ingredient) Ingredient {
	category := string(ing.Category)
	if category == "" {
		category = string(catalog.CategoryOther)
	}
	return Ingredient{ID: ing.ID, Name: ing.Name, Category: category, Unit: ing.Unit}
}

func (r Recipe) toDomain() catalog.Recipe {
	out := catalog.Recipe{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Instructions: r.Instructions,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Difficulty:   catalog.Difficulty(r.Difficulty),
		Preference:   catalog.Preference(r.Preference),
		ImageURL:     r.ImageURL,
		CreatedBy:    r.CreatedBy.toDomain(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.CreatedBy == nil && r.CreatedByID != nil {
		out.CreatedBy.ID = *r.CreatedByID
	}
	return out
}

func recipeFromDomain(r catalog.Recipe) Recipe {
	row := Recipe{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Instructions: r.Instructions,
		PrepTime:     r.PrepTime,
		CookTime:     r.CookTime,
		Servings:     r.Servings,
		Difficulty:   string(r.Difficulty),
		Preference:   string(r.Preference),
		ImageURL:     r.ImageURL,
		CreatedAt:    r.CreatedAt,
	}
	if row.Servings <= 0 {
		row.Servings = catalog.DefaultServings
	}
	if row.Difficulty == "" {
		row.Difficulty = string(catalog.DifficultyMedium)
	}
	if row.Preference == "" {
		row.Preference = string(catalog.PreferenceVeg)
	}
	if r.CreatedBy.ID != 0 {
		id := r.CreatedBy.ID
		row.CreatedByID = &id
	}
	return row
}

func (n IngredientNutrition) profile() (catalog.Profile, error) {
	nutrients := catalog.Nutrients{
		Calories: n.Calories.Decimal,
		Protein:  n.Protein.Decimal,
		Carbs:    n.Carbs.Decimal,
		Fat:      n.Fat.Decimal,
		Fiber:    n.Fiber.Decimal,
	}
	switch catalog.UnitType(n.UnitType) {
	case catalog.UnitTypePerUnit:
		return catalog.PerUnit{Nutrients: nutrients}, nil
	case catalog.UnitTypePer100g:
		return catalog.PerHundredGrams{
			Nutrients:     nutrients,
			GramsPerCup:   n.GramsPerCup,
			GramsPerTbsp:  n.GramsPerTbsp,
			GramsPerTsp:   n.GramsPerTsp,
			GramsPerPiece: n.GramsPerPiece,
		}, nil
	default:
		return nil, fmt.Errorf("ingredient %d: unknown unit_type %q", n.IngredientID, n.UnitType)
	}
}

func nutritionFromDomain(ingredientID uint, p catalog.Profile) (IngredientNutrition, error) {
	row := IngredientNutrition{IngredientID: ingredientID}
	var nutrients catalog.Nutrients
	switch v := p.(type) {
	case catalog.PerUnit:
		row.UnitType = string(catalog.UnitTypePerUnit)
		nutrients = v.Nutrients
	case catalog.PerHundredGrams:
		row.UnitType = string(catalog.UnitTypePer100g)
		nutrients = v.Nutrients
		row.GramsPerCup = v.GramsPerCup
		row.GramsPerTbsp = v.GramsPerTbsp
		row.GramsPerTsp = v.GramsPerTsp
		row.GramsPerPiece = v.GramsPerPiece
	default:
		return row, fmt.Errorf("ingredient %d: unsupported nutrition profile %T", ingredientID, p)
	}
	row.Calories = decimal.NewNullDecimal(nutrients.Calories)
	row.Protein = decimal.NewNullDecimal(nutrients.Protein)
	row.Carbs = decimal.NewNullDecimal(nutrients.Carbs)
	row.Fat = decimal.NewNullDecimal(nutrients.Fat)
	row.Fiber = decimal.NewNullDecimal(nutrients.Fiber)
	return row, nil
}
