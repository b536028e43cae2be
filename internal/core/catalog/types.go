package catalog

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Category 食材分類
type Category string

const (
	CategoryVegetable Category = "vegetable"
	CategoryFruit     Category = "fruit"
	CategoryMeat      Category = "meat"
	CategorySeafood   Category = "seafood"
	CategoryDairy     Category = "dairy"
	CategoryGrain     Category = "grain"
	CategorySpice     Category = "spice"
	CategoryCondiment Category = "condiment"
	CategoryOther     Category = "other"
)

// Categories 所有合法的食材分類（依顯示順序）
var Categories = []Category{
	CategoryVegetable,
	CategoryFruit,
	CategoryMeat,
	CategorySeafood,
	CategoryDairy,
	CategoryGrain,
	CategorySpice,
	CategoryCondiment,
	CategoryOther,
}

// Valid 檢查分類是否合法
func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Difficulty 食譜難度
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid 是否為已知的難度
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Preference 飲食偏好（素 / 葷）
type Preference string

const (
	PreferenceVeg    Preference = "veg"
	PreferenceNonVeg Preference = "nonveg"
)

func (p Preference) Valid() bool {
	return p == PreferenceVeg || p == PreferenceNonVeg
}

// DefaultServings 未指定份量時的預設值
const DefaultServings = 4

// User 食譜建立者（只讀）
type User struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

// Ingredient 食材
type Ingredient struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Unit     string   `json:"unit"`
}

// Recipe 食譜
type Recipe struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Instructions string     `json:"instructions"`
	PrepTime     int        `json:"prep_time"`
	CookTime     int        `json:"cook_time"`
	Servings     int        `json:"servings"`
	Difficulty   Difficulty `json:"difficulty"`
	Preference   Preference `json:"preference"`
	ImageURL     *string    `json:"image_url"`
	CreatedBy    User       `json:"created_by"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TotalTime 準備時間加烹調時間（分鐘）
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// RecipeIngredient 食譜所需的單一食材與用量
type RecipeIngredient struct {
	RecipeID   uint            `json:"recipe_id"`
	Ingredient Ingredient      `json:"ingredient"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
}

// PantryItem 使用者食材櫃中的一筆資料
type PantryItem struct {
	ID         uint                `json:"id"`
	UserID     uint                `json:"user_id"`
	Ingredient Ingredient          `json:"ingredient"`
	Quantity   decimal.NullDecimal `json:"quantity"`
	AddedAt    time.Time           `json:"added_at"`
}

// Favorite 使用者收藏的食譜
type Favorite struct {
	ID      uint      `json:"id"`
	UserID  uint      `json:"user_id"`
	Recipe  Recipe    `json:"recipe"`
	SavedAt time.Time `json:"saved_at"`
}

// IDSet 食材 ID 集合
type IDSet map[uint]struct{}

// NewIDSet 由 ID 列表建立集合（重複值只保留一個）
func NewIDSet(ids ...uint) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has 是否包含 id
func (s IDSet) Has(id uint) bool {
	_, ok := s[id]
	return ok
}

// Sorted 回傳遞增排序的 ID 列表
func (s IDSet) Sorted() []uint {
	ids := make([]uint, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
