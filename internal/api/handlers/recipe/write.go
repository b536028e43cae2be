package recipe

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"recipe-matcher/internal/api/handlers/view"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// recipeRequest 建立或更新食譜；PATCH 時省略的欄位維持原值
type recipeRequest struct {
	Title        *string                    `json:"title"`
	Description  *string                    `json:"description"`
	Instructions *string                    `json:"instructions"`
	PrepTime     *int                       `json:"prep_time"`
	CookTime     *int                       `json:"cook_time"`
	Servings     *int                       `json:"servings"`
	Difficulty   *catalog.Difficulty        `json:"difficulty"`
	Preference   *catalog.Preference        `json:"preference"`
	ImageURL     *string                    `json:"image_url"`
	Ingredients  *[]recipeIngredientRequest `json:"ingredients"`
}

type recipeIngredientRequest struct {
	IngredientID uint            `json:"ingredient_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
}

var recipeExample = gin.H{
	"title":        "Tomato egg stir-fry",
	"instructions": "Beat the eggs, fry the tomatoes, combine.",
	"prep_time":    5,
	"cook_time":    10,
	"servings":     2,
	"difficulty":   "easy",
	"preference":   "nonveg",
	"ingredients": []gin.H{
		{"ingredient_id": 1, "quantity": 3, "unit": "piece"},
	},
}

// apply 將請求欄位寫入 r；full 為 true 時 title 與 instructions 必填
func (req *recipeRequest) apply(r *catalog.Recipe, full bool) error {
	if full {
		if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
			return common.ErrInvalidRequest.WithMessage("title is required").WithExample(recipeExample)
		}
		if req.Instructions == nil || strings.TrimSpace(*req.Instructions) == "" {
			return common.ErrInvalidRequest.WithMessage("instructions is required").WithExample(recipeExample)
		}
		// 完整更新時未提供的欄位回到預設值
		*r = catalog.Recipe{ID: r.ID, CreatedBy: r.CreatedBy, CreatedAt: r.CreatedAt}
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return common.ErrInvalidRequest.WithMessage("title must not be empty")
		}
		r.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Instructions != nil {
		r.Instructions = *req.Instructions
	}
	if req.PrepTime != nil {
		r.PrepTime = *req.PrepTime
	}
	if req.CookTime != nil {
		r.CookTime = *req.CookTime
	}
	if req.Servings != nil {
		if *req.Servings <= 0 {
			return common.ErrInvalidRequest.WithMessage("servings must be a positive integer")
		}
		r.Servings = *req.Servings
	}
	if req.Difficulty != nil {
		if !req.Difficulty.Valid() {
			return common.ErrInvalidRequest.WithMessage("difficulty must be one of easy, medium, hard")
		}
		r.Difficulty = *req.Difficulty
	}
	if req.Preference != nil {
		if !req.Preference.Valid() {
			return common.ErrInvalidRequest.WithMessage("preference must be one of veg, nonveg")
		}
		r.Preference = *req.Preference
	}
	if full || req.ImageURL != nil {
		r.ImageURL = req.ImageURL
	}
	return nil
}

// items 轉成食譜食材；未提供 ingredients 時回傳 nil, false
func (req *recipeRequest) items() ([]catalog.RecipeIngredient, bool, error) {
	if req.Ingredients == nil {
		return nil, false, nil
	}
	out := make([]catalog.RecipeIngredient, len(*req.Ingredients))
	for i, in := range *req.Ingredients {
		if in.IngredientID == 0 {
			return nil, true, common.ErrInvalidRequest.
				WithMessage(fmt.Sprintf("ingredients[%d].ingredient_id must be a positive integer", i)).
				WithExample(recipeExample)
		}
		out[i] = catalog.RecipeIngredient{
			Ingredient: catalog.Ingredient{ID: in.IngredientID},
			Quantity:   in.Quantity,
			Unit:       in.Unit,
		}
	}
	return out, true, nil
}

// writeFailure 將資料層寫入錯誤轉為 API 錯誤
func writeFailure(err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalid):
		return common.ErrInvalidRequest.WithMessage("Times and quantities must not be negative").Wrap(err)
	case errors.Is(err, catalog.ErrDuplicate):
		return common.ErrInvalidRequest.WithMessage("Each ingredient may appear only once").Wrap(err)
	case errors.Is(err, catalog.ErrNotFound):
		return common.ErrInvalidRequest.WithMessage("ingredients contains an unknown ingredient_id").Wrap(err)
	}
	return err
}

func decodeRecipeRequest(c *gin.Context) (*recipeRequest, error) {
	var req recipeRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		return nil, common.ErrInvalidRequest.WithMessage("Invalid request body").WithExample(recipeExample).Wrap(err)
	}
	return &req, nil
}

// respondDetail 重新讀取食譜後回傳明細
func (h *Handler) respondDetail(c *gin.Context, status int, message string, id uint) {
	ctx := c.Request.Context()
	r, err := h.catalog.Recipe(ctx, id)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	items, err := h.catalog.RecipeIngredients(ctx, id)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	common.RespondJSON(c, status, gin.H{
		"message": message,
		"recipe":  view.NewRecipeDetail(*r, items),
	})
}

// ownedRecipe 取出食譜並確認目前使用者為建立者
func (h *Handler) ownedRecipe(c *gin.Context, action string) (*catalog.Recipe, middleware.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.WriteError(c, common.ErrUnauthorized)
		return nil, user, false
	}
	id, err := common.PathID(c, "id")
	if err != nil {
		common.WriteError(c, err)
		return nil, user, false
	}

	r, err := h.catalog.Recipe(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrRecipeNotFound
		}
		common.WriteError(c, err)
		return nil, user, false
	}
	if r.CreatedBy.ID != user.UserID {
		common.LogWarn("非建立者嘗試修改食譜",
			zap.Uint("recipe_id", r.ID),
			zap.Uint("owner_id", r.CreatedBy.ID),
			zap.Uint("user_id", user.UserID),
			zap.String("request_id", common.RequestID(c)),
		)
		common.WriteError(c, common.ErrForbidden.WithMessage("You do not have permission to "+action+" this recipe"))
		return nil, user, false
	}
	return r, user, true
}

// invalidateNutrition 食譜食材異動後清除營養快取；失敗只記錄
func (h *Handler) invalidateNutrition(c *gin.Context) {
	if err := h.nutrition.Invalidate(c.Request.Context()); err != nil {
		common.LogWarn("營養快取清除失敗", zap.Error(err))
	}
}

// HandleCreate 建立食譜，建立者為目前使用者
func (h *Handler) HandleCreate(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.WriteError(c, common.ErrUnauthorized)
		return
	}

	req, err := decodeRecipeRequest(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	r := catalog.Recipe{CreatedBy: catalog.User{ID: user.UserID}}
	if err := req.apply(&r, true); err != nil {
		common.WriteError(c, err)
		return
	}
	items, _, err := req.items()
	if err != nil {
		common.WriteError(c, err)
		return
	}

	id, err := h.writer.CreateRecipe(c.Request.Context(), r, items)
	if err != nil {
		common.WriteError(c, writeFailure(err))
		return
	}

	common.LogInfo("食譜已建立",
		zap.Uint("recipe_id", id),
		zap.Uint("user_id", user.UserID),
		zap.Int("ingredients", len(items)),
	)
	h.respondDetail(c, http.StatusCreated, "Recipe created successfully", id)
}

// HandleUpdate PUT 完整更新、PATCH 部分更新；提供 ingredients 時取代原有食材
func (h *Handler) HandleUpdate(c *gin.Context) {
	r, user, ok := h.ownedRecipe(c, "update")
	if !ok {
		return
	}

	req, err := decodeRecipeRequest(c)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if err := req.apply(r, c.Request.Method == http.MethodPut); err != nil {
		common.WriteError(c, err)
		return
	}
	items, replace, err := req.items()
	if err != nil {
		common.WriteError(c, err)
		return
	}

	ctx := c.Request.Context()
	if !replace {
		if items, err = h.catalog.RecipeIngredients(ctx, r.ID); err != nil {
			common.WriteError(c, err)
			return
		}
	}
	if err := h.writer.PutRecipe(ctx, *r, items); err != nil {
		common.WriteError(c, writeFailure(err))
		return
	}
	h.invalidateNutrition(c)

	common.LogInfo("食譜已更新",
		zap.Uint("recipe_id", r.ID),
		zap.Uint("user_id", user.UserID),
		zap.Bool("ingredients_replaced", replace),
	)
	h.respondDetail(c, http.StatusOK, "Recipe updated successfully", r.ID)
}

// HandleDelete 刪除食譜，連同食材與收藏
func (h *Handler) HandleDelete(c *gin.Context) {
	r, user, ok := h.ownedRecipe(c, "delete")
	if !ok {
		return
	}

	if err := h.writer.DeleteRecipe(c.Request.Context(), r.ID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrRecipeNotFound
		}
		common.WriteError(c, err)
		return
	}
	h.invalidateNutrition(c)

	common.LogInfo("食譜已刪除", zap.Uint("recipe_id", r.ID), zap.Uint("user_id", user.UserID))
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message": `Recipe "` + r.Title + `" deleted successfully`,
	})
}

// HandleMine 列出目前使用者建立的食譜
func (h *Handler) HandleMine(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.WriteError(c, common.ErrUnauthorized)
		return
	}
	h.respondByCreator(c, user.UserID)
}

// HandleByUser 列出指定使用者建立的食譜
func (h *Handler) HandleByUser(c *gin.Context) {
	id, err := common.PathID(c, "user_id")
	if err != nil {
		common.WriteError(c, err)
		return
	}
	h.respondByCreator(c, id)
}

func (h *Handler) respondByCreator(c *gin.Context, userID uint) {
	recipes, err := h.catalog.Recipes(c.Request.Context(), catalog.RecipeFilter{CreatedBy: userID})
	if err != nil {
		common.WriteError(c, err)
		return
	}
	message := "Recipes retrieved successfully"
	if len(recipes) == 0 {
		message = "No recipes found for this user"
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message": message,
		"count":   len(recipes),
		"recipes": view.Recipes(recipes),
	})
}
