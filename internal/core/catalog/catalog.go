package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound 查無資料
	ErrNotFound = errors.New("catalog: not found")
	// ErrDuplicate 違反唯一性限制（同一使用者重複加入同一食材/食譜）
	ErrDuplicate = errors.New("catalog: duplicate entry")
	// ErrInvalid 寫入的資料不合法（負數時間、數量或營養數值）
	ErrInvalid = errors.New("catalog: invalid data")
)

// IngredientFilter 食材查詢條件，零值代表不篩選
type IngredientFilter struct {
	NameContains string
	Category     Category
	IDs          []uint
}

// RecipeFilter 食譜查詢條件，零值代表不篩選
type RecipeFilter struct {
	Search     string
	Difficulty Difficulty
	Preference Preference
	IDs        []uint
	// CreatedBy 非 0 時只回傳該使用者建立的食譜
	CreatedBy uint
}

// Catalog 配對與營養計算所需的唯讀資料來源
type Catalog interface {
	Ingredient(ctx context.Context, id uint) (*Ingredient, error)
	Ingredients(ctx context.Context, filter IngredientFilter) ([]Ingredient, error)
	Recipe(ctx context.Context, id uint) (*Recipe, error)
	Recipes(ctx context.Context, filter RecipeFilter) ([]Recipe, error)
	RecipeIngredients(ctx context.Context, recipeID uint) ([]RecipeIngredient, error)
	// RequirementSets 一次取回多個食譜的所需食材集合；沒有任何食材的食譜不會出現在結果中
	RequirementSets(ctx context.Context, recipeIDs []uint) (map[uint]IDSet, error)
	// Nutrition 查無營養資料時回傳 ErrNotFound
	Nutrition(ctx context.Context, ingredientID uint) (*IngredientNutrition, error)
	NutritionList(ctx context.Context) ([]IngredientNutrition, error)
	PantryIngredientIDs(ctx context.Context, userID uint) (IDSet, error)
}

// PantryStore 食材櫃讀寫
type PantryStore interface {
	Pantry(ctx context.Context, userID uint) ([]PantryItem, error)
	AddPantryItem(ctx context.Context, userID, ingredientID uint, quantity decimal.NullDecimal) (*PantryItem, error)
	// UpdatePantryItem 只更新數量；不在食材櫃中時回傳 ErrNotFound
	UpdatePantryItem(ctx context.Context, userID, ingredientID uint, quantity decimal.NullDecimal) (*PantryItem, error)
	RemovePantryItem(ctx context.Context, userID, ingredientID uint) error
	// ClearPantry 清空食材櫃並回傳刪除筆數
	ClearPantry(ctx context.Context, userID uint) (int, error)
}

// FavoriteStore 收藏讀寫
type FavoriteStore interface {
	Favorites(ctx context.Context, userID uint) ([]Favorite, error)
	AddFavorite(ctx context.Context, userID, recipeID uint) (*Favorite, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	ClearFavorites(ctx context.Context, userID uint) (int, error)
}

// RecipeWriter 食譜新增、覆蓋與刪除
type RecipeWriter interface {
	// CreateRecipe 忽略 r.ID，由資料層配發新 ID
	CreateRecipe(ctx context.Context, r Recipe, items []RecipeIngredient) (uint, error)
	// PutRecipe 覆蓋食譜欄位並以 items 取代原有食材
	PutRecipe(ctx context.Context, r Recipe, items []RecipeIngredient) error
	// DeleteRecipe 一併刪除食譜食材與收藏
	DeleteRecipe(ctx context.Context, id uint) error
}

// NutritionWriter 寫入（新增或覆蓋）食材營養資料
type NutritionWriter interface {
	SaveNutrition(ctx context.Context, ingredientID uint, profile Profile) error
}

// Store 服務啟動時注入的完整資料存取介面
type Store interface {
	Catalog
	PantryStore
	FavoriteStore
	RecipeWriter
	NutritionWriter
	Ping(ctx context.Context) error
	Close() error
}
