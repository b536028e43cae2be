package fdc

import (
	"context"
	"errors"
	"fmt"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"go.uber.org/zap"
)

// FoodSource 依名稱查詢每 100 公克營養資料
type FoodSource interface {
	SearchFood(ctx context.Context, query string) (*Food, error)
}

// Invalidator 營養資料變更後清除衍生快取
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Importer 將 FoodData Central 的資料寫入食材營養表
type Importer struct {
	source      FoodSource
	catalog     catalog.Catalog
	writer      catalog.NutritionWriter
	invalidator Invalidator
}

// NewImporter 創建匯入器；invalidator 可為 nil
func NewImporter(source FoodSource, cat catalog.Catalog, writer catalog.NutritionWriter, invalidator Invalidator) *Importer {
	return &Importer{
		source:      source,
		catalog:     cat,
		writer:      writer,
		invalidator: invalidator,
	}
}

// Import 以食材名稱查詢並覆蓋為每 100 公克營養資料。
// 若原本已是每 100 公克資料，保留其杯/匙/個數換算係數。
func (i *Importer) Import(ctx context.Context, ingredientID uint) (*catalog.IngredientNutrition, *Food, error) {
	ing, err := i.catalog.Ingredient(ctx, ingredientID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, common.ErrIngredientNotFound
		}
		return nil, nil, fmt.Errorf("failed to load ingredient %d: %w", ingredientID, err)
	}

	food, err := i.source.SearchFood(ctx, ing.Name)
	if err != nil {
		return nil, nil, err
	}

	profile := catalog.PerHundredGrams{Nutrients: food.Nutrients}
	existing, err := i.catalog.Nutrition(ctx, ingredientID)
	switch {
	case err == nil:
		if prev, ok := existing.Profile.(catalog.PerHundredGrams); ok {
			profile.GramsPerCup = prev.GramsPerCup
			profile.GramsPerTbsp = prev.GramsPerTbsp
			profile.GramsPerTsp = prev.GramsPerTsp
			profile.GramsPerPiece = prev.GramsPerPiece
		}
	case errors.Is(err, catalog.ErrNotFound):
	default:
		return nil, nil, fmt.Errorf("failed to load nutrition of ingredient %d: %w", ingredientID, err)
	}

	if err := i.writer.SaveNutrition(ctx, ingredientID, profile); err != nil {
		return nil, nil, fmt.Errorf("failed to save nutrition of ingredient %d: %w", ingredientID, err)
	}

	if i.invalidator != nil {
		if err := i.invalidator.Invalidate(ctx); err != nil {
			common.LogWarn("營養快取清除失敗", zap.Error(err))
		}
	}

	common.LogInfo("營養資料已匯入",
		zap.Uint("ingredient_id", ingredientID),
		zap.String("ingredient", ing.Name),
		zap.Int64("fdc_id", food.FDCID),
	)
	return &catalog.IngredientNutrition{Ingredient: *ing, Profile: profile}, food, nil
}
