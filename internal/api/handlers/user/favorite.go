package user

import (
	"errors"
	"net/http"

	"recipe-matcher/internal/api/handlers/view"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// favoriteAddRequest 加入收藏
type favoriteAddRequest struct {
	RecipeID interface{} `json:"recipe_id"`
}

var favoriteExample = gin.H{"recipe_id": 1}

// HandleFavoriteList 列出收藏（依收藏時間由新到舊），附上各難度數量
func (h *Handler) HandleFavoriteList(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	favs, err := h.store.Favorites(c.Request.Context(), user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	summary := make(map[catalog.Difficulty]int)
	out := make([]view.Favorite, len(favs))
	for i, f := range favs {
		summary[f.Recipe.Difficulty]++
		out[i] = view.NewFavorite(f)
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":            "Favorites retrieved successfully",
		"count":              len(out),
		"difficulty_summary": summary,
		"favorites":          out,
	})
}

// HandleFavoriteAdd 加入收藏；重複加入回傳 409
func (h *Handler) HandleFavoriteAdd(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req favoriteAddRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Invalid request body").WithExample(favoriteExample).Wrap(err))
		return
	}
	if req.RecipeID == nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Please provide recipe_id").WithExample(favoriteExample))
		return
	}
	id, err := common.ToInt(req.RecipeID)
	if err != nil || id <= 0 {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("recipe_id must be a positive integer").WithExample(favoriteExample))
		return
	}

	fav, err := h.store.AddFavorite(c.Request.Context(), user.UserID, uint(id))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			err = common.ErrRecipeNotFound
		case errors.Is(err, catalog.ErrDuplicate):
			err = common.ErrConflict.WithMessage("Recipe is already in your favorites")
		}
		common.WriteError(c, err)
		return
	}

	common.LogInfo("食譜已加入收藏",
		zap.Uint("user_id", user.UserID),
		zap.Uint("recipe_id", fav.Recipe.ID),
	)
	common.RespondJSON(c, http.StatusCreated, gin.H{
		"message":  `"` + fav.Recipe.Title + `" added to favorites`,
		"favorite": view.NewFavorite(*fav),
	})
}

// HandleFavoriteRemove 依食譜 ID 移除收藏
func (h *Handler) HandleFavoriteRemove(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := common.PathID(c, "recipe_id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if err := h.store.RemoveFavorite(c.Request.Context(), user.UserID, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrNotFound.WithMessage("Recipe is not in your favorites")
		}
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":   "Recipe removed from favorites",
		"recipe_id": id,
	})
}

// HandleFavoritesWithPantry 將收藏與食材櫃配對，列出哪些現在就能做
func (h *Handler) HandleFavoritesWithPantry(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	favs, err := h.store.Favorites(ctx, user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	matches, summary, err := h.matcher.FavoritesWithPantry(ctx, user.UserID, favs)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	message := "Favorites with pantry match retrieved successfully"
	if len(favs) == 0 {
		message = "You have no favorites yet"
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":   message,
		"count":     len(matches),
		"summary":   summary,
		"favorites": view.FavoritesWithMatch(matches),
	})
}

// HandleFavoriteToggle 已收藏則移除（200），否則加入（201）
func (h *Handler) HandleFavoriteToggle(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req favoriteAddRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Invalid request body").WithExample(favoriteExample).Wrap(err))
		return
	}
	if req.RecipeID == nil {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("Please provide recipe_id").WithExample(favoriteExample))
		return
	}
	id, err := common.ToInt(req.RecipeID)
	if err != nil || id <= 0 {
		common.WriteError(c, common.ErrInvalidRequest.WithMessage("recipe_id must be a positive integer").WithExample(favoriteExample))
		return
	}

	ctx := c.Request.Context()
	fav, err := h.store.AddFavorite(ctx, user.UserID, uint(id))
	switch {
	case err == nil:
		common.RespondJSON(c, http.StatusCreated, gin.H{
			"message":      `"` + fav.Recipe.Title + `" added to favorites`,
			"is_favorited": true,
			"favorite":     view.NewFavorite(*fav),
		})
		return
	case errors.Is(err, catalog.ErrNotFound):
		common.WriteError(c, common.ErrRecipeNotFound)
		return
	case !errors.Is(err, catalog.ErrDuplicate):
		common.WriteError(c, err)
		return
	}

	r, err := h.store.Recipe(ctx, uint(id))
	if err != nil {
		common.WriteError(c, err)
		return
	}
	if err := h.store.RemoveFavorite(ctx, user.UserID, r.ID); err != nil {
		common.WriteError(c, err)
		return
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":      `"` + r.Title + `" removed from favorites`,
		"is_favorited": false,
		"recipe_id":    r.ID,
		"recipe_title": r.Title,
	})
}

// HandleFavoriteCheck 查詢食譜是否已收藏
func (h *Handler) HandleFavoriteCheck(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	id, err := common.PathID(c, "recipe_id")
	if err != nil {
		common.WriteError(c, err)
		return
	}

	ctx := c.Request.Context()
	r, err := h.store.Recipe(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			err = common.ErrRecipeNotFound
		}
		common.WriteError(c, err)
		return
	}
	favs, err := h.store.Favorites(ctx, user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	resp := gin.H{
		"is_favorited": false,
		"recipe":       gin.H{"id": r.ID, "title": r.Title, "difficulty": r.Difficulty},
	}
	for _, f := range favs {
		if f.Recipe.ID == id {
			resp["is_favorited"] = true
			resp["favorited_at"] = f.SavedAt
			break
		}
	}
	common.RespondJSON(c, http.StatusOK, resp)
}

// HandleFavoriteRecipeIDs 只回傳收藏的食譜 ID
func (h *Handler) HandleFavoriteRecipeIDs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	favs, err := h.store.Favorites(c.Request.Context(), user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	ids := make([]uint, len(favs))
	for i, f := range favs {
		ids[i] = f.Recipe.ID
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"count":      len(ids),
		"recipe_ids": ids,
	})
}

// HandleFavoriteClear 清空收藏
func (h *Handler) HandleFavoriteClear(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	n, err := h.store.ClearFavorites(c.Request.Context(), user.UserID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	message := "All favorites cleared successfully"
	if n == 0 {
		message = "You have no favorites to clear"
	}
	common.LogInfo("收藏已清空", zap.Uint("user_id", user.UserID), zap.Int("deleted", n))
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":       message,
		"deleted_count": n,
	})
}
