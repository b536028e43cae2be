package recipe

import (
	"errors"
	"net/http"

	"recipe-matcher/internal/api/handlers/view"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

// HandleList 列出食譜，支援 search、difficulty、preference、max_time
func (h *Handler) HandleList(c *gin.Context) {
	recipes, err := h.catalog.Recipes(c.Request.Context(), catalog.RecipeFilter{
		Search:     c.Query("search"),
		Difficulty: catalog.Difficulty(c.Query("difficulty")),
		Preference: catalog.Preference(c.Query("preference")),
	})
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if maxTime := maxTimeParam(c); maxTime != nil {
		kept := recipes[:0]
		for _, r := range recipes {
			if r.TotalTime() <= *maxTime {
				kept = append(kept, r)
			}
		}
		recipes = kept
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message": "Recipes retrieved successfully",
		"count":   len(recipes),
		"recipes": view.Recipes(recipes),
	})
}

// HandleDetail 取得單一食譜與其食材用量
func (h *Handler) HandleDetail(c *gin.Context) {
	id, err := common.PathID(c, "id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	ctx := c.Request.Context()
	r, err := h.catalog.Recipe(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrRecipeNotFound
		}
		common.WriteError(c, err)
		return
	}
	items, err := h.catalog.RecipeIngredients(ctx, id)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message": "Recipe retrieved successfully",
		"recipe":  view.NewRecipeDetail(*r, items),
	})
}

// HandleNutrition 計算食譜的營養摘要
func (h *Handler) HandleNutrition(c *gin.Context) {
	id, err := common.PathID(c, "id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	summary, err := h.nutrition.Compute(c.Request.Context(), id)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":   "Nutrition summary calculated successfully",
		"nutrition": summary,
	})
}
