package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CachePrefix 營養摘要快取鍵的前綴
const CachePrefix = "nutrition:recipe:"

var (
	hundred = decimal.NewFromInt(100)
	four    = decimal.NewFromInt(4)
	nine    = decimal.NewFromInt(9)
)

// Summary 食譜營養摘要；總量與每份數值取到小數第 2 位，百分比取到第 1 位
type Summary struct {
	RecipeID    uint   `json:"recipe_id"`
	RecipeTitle string `json:"recipe_title"`

	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	TotalFiber    float64 `json:"total_fiber"`

	CaloriesPerServing float64 `json:"calories_per_serving"`
	ProteinPerServing  float64 `json:"protein_per_serving"`
	CarbsPerServing    float64 `json:"carbs_per_serving"`
	FatPerServing      float64 `json:"fat_per_serving"`
	FiberPerServing    float64 `json:"fiber_per_serving"`

	Servings int `json:"servings"`

	ProteinPercentage float64 `json:"protein_percentage"`
	CarbsPercentage   float64 `json:"carbs_percentage"`
	FatPercentage     float64 `json:"fat_percentage"`

	IngredientsWithoutNutrition []string `json:"ingredients_without_nutrition"`
}

// Service 食譜營養計算服務
type Service struct {
	catalog catalog.Catalog
	cache   cache.Store
}

// NewService 創建營養計算服務；store 可為 nil（不快取）
func NewService(cat catalog.Catalog, store cache.Store) *Service {
	return &Service{
		catalog: cat,
		cache:   store,
	}
}

// Compute 計算食譜的營養摘要
func (s *Service) Compute(ctx context.Context, recipeID uint) (*Summary, error) {
	key := CachePrefix + strconv.FormatUint(uint64(recipeID), 10)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	recipe, err := s.catalog.Recipe(ctx, recipeID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, common.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe %d: %w", recipeID, err)
	}

	items, err := s.catalog.RecipeIngredients(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredients of recipe %d: %w", recipeID, err)
	}

	profiles := make(map[uint]catalog.Profile, len(items))
	for _, it := range items {
		n, err := s.catalog.Nutrition(ctx, it.Ingredient.ID)
		if errors.Is(err, catalog.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load nutrition of ingredient %d: %w", it.Ingredient.ID, err)
		}
		profiles[it.Ingredient.ID] = n.Profile
	}

	summary := Aggregate(*recipe, items, profiles)
	common.LogDebug("營養計算完成",
		zap.Uint("recipe_id", recipeID),
		zap.Int("ingredients", len(items)),
		zap.Int("unresolved", len(summary.IngredientsWithoutNutrition)),
	)

	s.toCache(ctx, key, &summary)
	return &summary, nil
}

// Aggregate 依食材用量與營養資料累加並推導每份與三大營養素比例
func Aggregate(recipe catalog.Recipe, items []catalog.RecipeIngredient, profiles map[uint]catalog.Profile) Summary {
	var total catalog.Nutrients
	unresolved := make([]string, 0)

	for _, it := range items {
		profile, ok := profiles[it.Ingredient.ID]
		if !ok || profile == nil {
			unresolved = append(unresolved, it.Ingredient.Name)
			continue
		}

		switch p := profile.(type) {
		case catalog.PerUnit:
			total = total.Add(p.Nutrients.Scale(it.Quantity))
		case catalog.PerHundredGrams:
			grams, ok := ToGrams(it.Quantity, it.Unit, p)
			if !ok {
				unresolved = append(unresolved,
					fmt.Sprintf("%s (unable to convert %s to grams)", it.Ingredient.Name, it.Unit))
				continue
			}
			total = total.Add(p.Nutrients.Scale(grams.Div(hundred)))
		}
	}

	servings := recipe.Servings
	if servings < 1 {
		servings = 1
	}
	per := total.Div(decimal.NewFromInt(int64(servings)))

	proteinCal := total.Protein.Mul(four)
	carbsCal := total.Carbs.Mul(four)
	fatCal := total.Fat.Mul(nine)
	macroCal := proteinCal.Add(carbsCal).Add(fatCal)

	var proteinPct, carbsPct, fatPct decimal.Decimal
	if macroCal.IsPositive() {
		proteinPct = proteinCal.Div(macroCal).Mul(hundred)
		carbsPct = carbsCal.Div(macroCal).Mul(hundred)
		fatPct = fatCal.Div(macroCal).Mul(hundred)
	}

	return Summary{
		RecipeID:    recipe.ID,
		RecipeTitle: recipe.Title,

		TotalCalories: round(total.Calories, 2),
		TotalProtein:  round(total.Protein, 2),
		TotalCarbs:    round(total.Carbs, 2),
		TotalFat:      round(total.Fat, 2),
		TotalFiber:    round(total.Fiber, 2),

		CaloriesPerServing: round(per.Calories, 2),
		ProteinPerServing:  round(per.Protein, 2),
		CarbsPerServing:    round(per.Carbs, 2),
		FatPerServing:      round(per.Fat, 2),
		FiberPerServing:    round(per.Fiber, 2),

		Servings: servings,

		ProteinPercentage: round(proteinPct, 1),
		CarbsPercentage:   round(carbsPct, 1),
		FatPercentage:     round(fatPct, 1),

		IngredientsWithoutNutrition: unresolved,
	}
}

func round(d decimal.Decimal, places int32) float64 {
	return d.RoundBank(places).InexactFloat64()
}

func (s *Service) fromCache(ctx context.Context, key string) *Summary {
	if s.cache == nil {
		return nil
	}
	val, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil
	}
	var summary Summary
	if err := common.ParseJSONBytes([]byte(val), &summary); err != nil {
		common.LogWarn("營養快取內容無法解析", zap.String("key", key), zap.Error(err))
		return nil
	}
	return &summary
}

func (s *Service) toCache(ctx context.Context, key string, summary *Summary) {
	if s.cache == nil {
		return
	}
	data, err := common.ToJSON(summary)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		common.LogWarn("營養快取寫入失敗", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate 清除所有營養摘要快取（營養資料更新後呼叫）
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.Purge(ctx, CachePrefix)
	if err != nil {
		return fmt.Errorf("failed to purge nutrition cache: %w", err)
	}
	common.LogInfo("營養快取已清除", zap.Int("count", n))
	return nil
}
