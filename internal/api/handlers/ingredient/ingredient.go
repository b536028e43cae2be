package ingredient

import (
	"errors"
	"net/http"

	"recipe-matcher/internal/api/handlers/view"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/fdc"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食材與食材營養資料處理程序
type Handler struct {
	catalog  catalog.Catalog
	importer *fdc.Importer
}

// NewHandler 創建食材處理程序；importer 為 nil 時匯入功能回傳 503
func NewHandler(cat catalog.Catalog, importer *fdc.Importer) *Handler {
	return &Handler{
		catalog:  cat,
		importer: importer,
	}
}

// category 分類選項
type category struct {
	Value catalog.Category `json:"value"`
	Label string           `json:"label"`
}

var categoryLabels = map[catalog.Category]string{
	catalog.CategoryVegetable: "Vegetable",
	catalog.CategoryFruit:     "Fruit",
	catalog.CategoryMeat:      "Meat",
	catalog.CategorySeafood:   "Seafood",
	catalog.CategoryDairy:     "Dairy",
	catalog.CategoryGrain:     "Grain",
	catalog.CategorySpice:     "Spice",
	catalog.CategoryCondiment: "Condiment",
	catalog.CategoryOther:     "Other",
}

// HandleList 列出食材，支援 search（名稱包含，不分大小寫）與 category
func (h *Handler) HandleList(c *gin.Context) {
	ings, err := h.catalog.Ingredients(c.Request.Context(), catalog.IngredientFilter{
		NameContains: c.Query("search"),
		Category:     catalog.Category(c.Query("category")),
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":     "Ingredients retrieved successfully",
		"count":       len(ings),
		"ingredients": view.Ingredients(ings),
	})
}

// HandleCategories 列出所有食材分類
func (h *Handler) HandleCategories(c *gin.Context) {
	out := make([]category, len(catalog.Categories))
	for i, cat := range catalog.Categories {
		out[i] = category{Value: cat, Label: categoryLabels[cat]}
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":    "Categories retrieved successfully",
		"categories": out,
	})
}

// HandleDetail 取得單一食材
func (h *Handler) HandleDetail(c *gin.Context) {
	id, err := common.PathID(c, "id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	ing, err := h.catalog.Ingredient(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrIngredientNotFound
		}
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":    "Ingredient retrieved successfully",
		"ingredient": ing,
	})
}

// HandleNutritionList 列出所有食材營養資料
func (h *Handler) HandleNutritionList(c *gin.Context) {
	list, err := h.catalog.NutritionList(c.Request.Context())
	if err != nil {
		common.WriteError(c, err)
		return
	}

	out := make([]view.Nutrition, len(list))
	for i, n := range list {
		out[i] = view.NewNutrition(n)
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":   "Nutrition data retrieved successfully",
		"count":     len(out),
		"nutrition": out,
	})
}

// HandleNutritionDetail 取得單一食材的營養資料
func (h *Handler) HandleNutritionDetail(c *gin.Context) {
	id, err := common.PathID(c, "id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	n, err := h.catalog.Nutrition(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrNutritionNotFound
		}
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":   "Nutrition data retrieved successfully",
		"nutrition": view.NewNutrition(*n),
	})
}

// HandleNutritionImport 從 FoodData Central 匯入食材的每 100 公克營養資料
func (h *Handler) HandleNutritionImport(c *gin.Context) {
	if h.importer == nil {
		common.WriteError(c, common.ErrServiceUnavailable.WithMessage("Nutrition import is disabled"))
		return
	}

	id, err := common.PathID(c, "id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	n, food, err := h.importer.Import(c.Request.Context(), id)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	common.LogInfo("食材營養資料匯入完成",
		zap.Uint("ingredient_id", id),
		zap.Int64("fdc_id", food.FDCID),
		zap.String("request_id", common.RequestID(c)),
	)
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message": "Nutrition data imported successfully",
		"source": gin.H{
			"fdc_id":      food.FDCID,
			"description": food.Description,
		},
		"nutrition": view.NewNutrition(*n),
	})
}
