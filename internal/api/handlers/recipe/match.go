package recipe

import (
	"fmt"
	"net/http"

	"recipe-matcher/internal/api/handlers/view"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HandleMatch 依提供的食材計算每個食譜的配對百分比
func (h *Handler) HandleMatch(c *gin.Context) {
	_, ids, err := bindMatchRequest(c, matchExample)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	q := h.matcher.Defaults()
	q.Difficulty = catalog.Difficulty(c.Query("difficulty"))
	applyRankParams(c, &q)

	report, err := h.matcher.Ranked(c.Request.Context(), ids, q)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	common.LogInfo("食譜配對完成",
		zap.String("request_id", common.RequestID(c)),
		zap.Int("input_count", len(report.Candidates)),
		zap.Int("results_count", len(report.Matches)),
	)

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":           "Recipe matching completed",
		"input_ingredients": view.Ingredients(report.Candidates),
		"input_count":       len(report.Candidates),
		"results_count":     len(report.Matches),
		"filters_applied": gin.H{
			"min_match":  q.MinMatch,
			"limit":      q.Limit,
			"difficulty": optional(string(q.Difficulty)),
		},
		"matched_recipes": view.MatchedRecipes(report.Matches),
	})
}

// HandlePantryMatch 以目前使用者的食材櫃配對食譜
func (h *Handler) HandlePantryMatch(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		common.WriteError(c, common.ErrUnauthorized)
		return
	}

	q := h.matcher.Defaults()
	q.Difficulty = catalog.Difficulty(c.Query("difficulty"))
	applyRankParams(c, &q)

	report, err := h.matcher.Pantry(c.Request.Context(), user.UserID, q)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	if len(report.Candidates) == 0 {
		common.RespondJSON(c, http.StatusOK, gin.H{
			"message":            "Your pantry is empty. Add some ingredients first!",
			"pantry_ingredients": []catalog.Ingredient{},
			"pantry_count":       0,
			"results_count":      0,
			"matched_recipes":    []view.MatchedRecipe{},
		})
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":            "Recipe matching from pantry completed",
		"pantry_ingredients": view.Ingredients(report.Candidates),
		"pantry_count":       len(report.Candidates),
		"results_count":      len(report.Matches),
		"filters_applied": gin.H{
			"min_match":  q.MinMatch,
			"limit":      q.Limit,
			"difficulty": optional(string(q.Difficulty)),
		},
		"matched_recipes": view.MatchedRecipes(report.Matches),
	})
}

// HandleComplete 找出所有食材皆已具備的食譜，依總時間由短到長
func (h *Handler) HandleComplete(c *gin.Context) {
	_, ids, err := bindMatchRequest(c, matchExample)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	q := h.matcher.Defaults()
	q.Difficulty = catalog.Difficulty(c.Query("difficulty"))
	q.MaxTime = maxTimeParam(c)

	report, err := h.matcher.Complete(c.Request.Context(), ids, q)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	var maxTime interface{}
	if q.MaxTime != nil {
		maxTime = *q.MaxTime
	}
	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":           "Complete match search completed",
		"description":       "These recipes can be made with your available ingredients",
		"input_ingredients": view.Ingredients(report.Candidates),
		"input_count":       len(report.Candidates),
		"results_count":     len(report.Matches),
		"filters_applied": gin.H{
			"difficulty": optional(string(q.Difficulty)),
			"max_time":   maxTime,
		},
		"recipes": view.CompleteRecipes(report.Matches),
	})
}

// HandleAlmost 找出只差幾樣食材的食譜，附上購物清單
func (h *Handler) HandleAlmost(c *gin.Context) {
	req, ids, err := bindMatchRequest(c, almostExample)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	q := h.matcher.Defaults()
	q.Difficulty = catalog.Difficulty(c.Query("difficulty"))
	if req.MaxMissing != nil {
		n, err := common.ToInt(req.MaxMissing)
		if err != nil {
			common.WriteError(c, errMaxMissing.Wrap(err))
			return
		}
		q.MaxMissing = int(n)
	}

	report, err := h.matcher.Almost(c.Request.Context(), ids, q)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	common.RespondJSON(c, http.StatusOK, gin.H{
		"message":             "Almost-match search completed",
		"description":         fmt.Sprintf("These recipes are missing at most %d ingredient(s)", q.MaxMissing),
		"input_ingredients":   view.Ingredients(report.Candidates),
		"input_count":         len(report.Candidates),
		"max_missing_allowed": q.MaxMissing,
		"results_count":       len(report.Matches),
		"filters_applied": gin.H{
			"difficulty": optional(string(q.Difficulty)),
		},
		"recipes": view.AlmostRecipes(report.Matches),
	})
}
