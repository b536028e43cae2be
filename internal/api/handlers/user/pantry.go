package user

import (
	"context"
	"errors"
	"net/http"

	"recipe-matcher/internal/api/handlers/view"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// pantryAddRequest 加入食材櫃；quantity 可省略
type pantryAddRequest struct {
	IngredientID interface{}         `json:"ingredient_id"`
	Quantity     decimal.NullDecimal `json:"quantity"`
}

var pantryExample = gin.H{"ingredient_id": 1, "quantity": 500}

// HandlePantryList 列出食材櫃，附上各分類數量
func (h *Handler) HandlePantryList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.store.Pantry(c.Request.Context(), user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	summary := make(map[catalog.Category]int)
	out := make([]view.PantryItem, len(items))
	for i, item := range items {
		summary[item.Ingredient.Category]++
		out[i] = view.NewPantryItem(item)
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":          "Pantry retrieved successfully",
		"count":            len(out),
		"category_summary": summary,
		"pantry_items":     out,
	})
}

// HandlePantryIngredientIDs 只回傳食材櫃中的食材 ID
func (h *Handler) HandlePantryIngredientIDs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ids, err := h.store.PantryIngredientIDs(c.Request.Context(), user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	sorted := ids.Sorted()
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":        "Pantry ingredient ids retrieved successfully",
		"count":          len(sorted),
		"ingredient_ids": sorted,
	})
}

// HandlePantryAdd 加入食材；重複加入回傳 409
func (h *Handler) HandlePantryAdd(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	missing := common.ErrInvalidRequest.WithMessage("Please provide ingredient_id").WithExample(pantryExample)
	var req pantryAddRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Invalid request body").WithExample(pantryExample).Wrap(err))
		return
	}
	if req.IngredientID == nil {
		common.WriteError(c, missing)
		return
	}
	id, err := common.ToInt(req.IngredientID)
	if err != nil || id <= 0 {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("ingredient_id must be a positive integer").WithExample(pantryExample))
		return
	}
	if req.Quantity.Valid && req.Quantity.Decimal.IsNegative() {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("quantity must not be negative"))
		return
	}

	item, err := h.store.AddPantryItem(c.Request.Context(), user.UserID, uint(id), req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			err = common.ErrIngredientNotFound
		case errors.Is(err, catalog.ErrDuplicate):
			err = common.ErrConflict.WithMessage("Ingredient is already in your pantry")
		}
		common.WriteError(c, err)
		return
	}

	common.LogInfo("食材已加入食材櫃",
		zap.Uint("user_id", user.UserID),
		zap.Uint("ingredient_id", item.Ingredient.ID),
	)
	common.RespondJSON(c, http.StatusCreated, gin.H{
		"message":     item.Ingredient.Name + " added to pantry",
		"pantry_item": view.NewPantryItem(*item),
	})
}

// HandlePantryRemove 從食材櫃移除食材
func (h *Handler) HandlePantryRemove(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := common.PathID(c, "ingredient_id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if err := h.store.RemovePantryItem(c.Request.Context(), user.UserID, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrNotFound.WithMessage("Ingredient is not in your pantry")
		}
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":       "Ingredient removed from pantry",
		"ingredient_id": id,
	})
}

// pantryBulkRequest 一次加入多項食材
type pantryBulkRequest struct {
	Ingredients []pantryAddRequest `json:"ingredients"`
}

// pantryUpdateRequest 更新數量；省略或 null 時維持原值
type pantryUpdateRequest struct {
	Quantity decimal.NullDecimal `json:"quantity"`
}

var pantryBulkExample = gin.H{"ingredients": []gin.H{
	{"ingredient_id": 1, "quantity": 500},
	{"ingredient_id": 2},
}}

// HandlePantryAddMultiple 批次加入；已在食材櫃的食材只在有提供 quantity 時更新，逐項回報錯誤
func (h *Handler) HandlePantryAddMultiple(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req pantryBulkRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Invalid request body").WithExample(pantryBulkExample).Wrap(err))
		return
	}
	if len(req.Ingredients) == 0 {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Please provide ingredients list").WithExample(pantryBulkExample))
		return
	}

	ctx := c.Request.Context()
	added := make([]view.PantryItem, 0)
	updated := make([]view.PantryItem, 0)
	failures := make([]gin.H, 0)
	for _, in := range req.Ingredients {
		if in.IngredientID == nil {
			failures = append(failures, gin.H{"ingredient_id": nil, "error": "Missing ingredient_id"})
			continue
		}
		id, err := common.ToInt(in.IngredientID)
		if err != nil || id <= 0 {
			failures = append(failures, gin.H{"ingredient_id": in.IngredientID, "error": "ingredient_id must be a positive integer"})
			continue
		}
		if in.Quantity.Valid && in.Quantity.Decimal.IsNegative() {
			failures = append(failures, gin.H{"ingredient_id": id, "error": "quantity must not be negative"})
			continue
		}

		item, err := h.store.AddPantryItem(ctx, user.UserID, uint(id), in.Quantity)
		switch {
		case err == nil:
			added = append(added, view.NewPantryItem(*item))
			continue
		case errors.Is(err, catalog.ErrNotFound):
			failures = append(failures, gin.H{"ingredient_id": id, "error": "Ingredient not found"})
			continue
		case !errors.Is(err, catalog.ErrDuplicate):
			common.WriteError(c, err)
			return
		}

		if !in.Quantity.Valid {
			continue
		}
		item, err = h.store.UpdatePantryItem(ctx, user.UserID, uint(id), in.Quantity)
		if err != nil {
			common.WriteError(c, err)
			return
		}
		updated = append(updated, view.NewPantryItem(*item))
	}

	common.LogInfo("食材櫃批次更新",
		zap.Uint("user_id", user.UserID),
		zap.Int("added", len(added)),
		zap.Int("updated", len(updated)),
		zap.Int("errors", len(failures)),
	)
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":       "Bulk pantry update completed",
		"added_count":   len(added),
		"updated_count": len(updated),
		"error_count":   len(failures),
		"added":         added,
		"updated":       updated,
		"errors":        failures,
	})
}

// HandlePantryUpdate 更新食材櫃中某項食材的數量
func (h *Handler) HandlePantryUpdate(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := common.PathID(c, "ingredient_id")
	if err != nil {
		common.WriteError(c, err)
		return
	}
	var req pantryUpdateRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Invalid request body").WithExample(gin.H{"quantity": 250}).Wrap(err))
		return
	}
	if req.Quantity.Valid && req.Quantity.Decimal.IsNegative() {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("quantity must not be negative"))
		return
	}

	ctx := c.Request.Context()
	var item *catalog.PantryItem
	if req.Quantity.Valid {
		item, err = h.store.UpdatePantryItem(ctx, user.UserID, id, req.Quantity)
	} else {
		item, err = h.pantryItem(ctx, user.UserID, id)
	}
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrNotFound.WithMessage("Pantry item not found")
		}
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":     "Pantry item updated successfully",
		"pantry_item": view.NewPantryItem(*item),
	})
}

// HandlePantryClear 清空食材櫃
func (h *Handler) HandlePantryClear(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.store.ClearPantry(c.Request.Context(), user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	message := "Pantry cleared successfully"
	if n == 0 {
		message = "Your pantry is already empty"
	}
	common.LogInfo("食材櫃已清空", zap.Uint("user_id", user.UserID), zap.Int("deleted", n))
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":       message,
		"deleted_count": n,
	})
}

// HandlePantryCheck 查詢某項食材是否在食材櫃中
func (h *Handler) HandlePantryCheck(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := common.PathID(c, "ingredient_id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	ctx := c.Request.Context()
	ing, err := h.store.Ingredient(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrIngredientNotFound
		}
		common.WriteError(c, err)
		return
	}

	item, err := h.pantryItem(ctx, user.UserID, id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		common.RespondJSON(c, http.StatusOK, gin.H{
			"in_pantry":  false,
			"ingredient": ing,
		})
	case err != nil:
		common.WriteError(c, err)
	default:
		p := view.NewPantryItem(*item)
		common.RespondJSON(c, http.StatusOK, gin.H{
			"in_pantry":  true,
			"ingredient": ing,
			"quantity":   p.Quantity,
			"added_at":   p.AddedAt,
		})
	}
}

func (h *Handler) pantryItem(ctx context.Context, userID, ingredientID uint) (*catalog.PantryItem, error) {
	items, err := h.store.Pantry(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].Ingredient.ID == ingredientID {
			return &items[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}
