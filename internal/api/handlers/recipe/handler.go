package recipe

import (
	"math"
	"strconv"
	"strings"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/core/nutrition"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食譜、配對與營養摘要處理程序
type Handler struct {
	catalog   catalog.Catalog
	writer    catalog.RecipeWriter
	matcher   *matching.Service
	nutrition *nutrition.Service
}

// NewHandler 創建新的食譜處理程序
func NewHandler(cat catalog.Catalog, writer catalog.RecipeWriter, matcher *matching.Service, nutritionSvc *nutrition.Service) *Handler {
	return &Handler{
		catalog:   cat,
		writer:    writer,
		matcher:   matcher,
		nutrition: nutritionSvc,
	}
}

// matchRequest 配對請求；ids 可為數字或數字字串
type matchRequest struct {
	IngredientIDs interface{} `json:"ingredient_ids"`
	MaxMissing    interface{} `json:"max_missing"`
}

var (
	matchExample  = gin.H{"ingredient_ids": []int{1, 2, 3}}
	almostExample = gin.H{"ingredient_ids": []int{1, 2, 3}, "max_missing": 2}

	errIDsNotIntegers = common.ErrInvalidRequest.WithMessage("ingredient_ids must be a list of integers")
	errMaxMissing     = common.ErrInvalidRequest.WithMessage("ingredient_ids must be a list of integers, max_missing must be an integer")
)

// bindMatchRequest 解析請求體並取出食材 ID；非正整數的 ID 不可能存在，直接略過
func bindMatchRequest(c *gin.Context, example gin.H) (*matchRequest, []uint, error) {
	missing := common.ErrInvalidRequest.
		WithMessage("Please provide ingredient_ids in the request body").
		WithExample(example)

	var req matchRequest
	if err := common.DecodeJSON(c.Request.Body, &req); err != nil {
		common.LogDebug("配對請求格式無效",
			zap.Error(err),
			zap.String("request_id", common.RequestID(c)),
		)
		return nil, nil, missing.Wrap(err)
	}

	var raw []interface{}
	switch v := req.IngredientIDs.(type) {
	case nil:
		return nil, nil, missing
	case []interface{}:
		raw = v
	case string:
		if v == "" {
			return nil, nil, missing
		}
		return nil, nil, errIDsNotIntegers
	default:
		return nil, nil, errIDsNotIntegers
	}
	if len(raw) == 0 {
		return nil, nil, missing
	}

	ids := make([]uint, 0, len(raw))
	for _, item := range raw {
		n, err := common.ToInt(item)
		if err != nil {
			return nil, nil, errIDsNotIntegers.Wrap(err)
		}
		if n > 0 {
			ids = append(ids, uint(n))
		}
	}
	return &req, ids, nil
}

// applyRankParams 解析 min_match 與 limit；任一個無法解析（或 limit 為負）時兩者都回到預設值
func applyRankParams(c *gin.Context, q *matching.Query) {
	minMatch, limit := q.MinMatch, q.Limit
	ok := true
	if raw, present := c.GetQuery("min_match"); present {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		ok = err == nil && !math.IsNaN(v)
		minMatch = v
	}
	if raw, present := c.GetQuery("limit"); ok && present {
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		ok = err == nil && v >= 0
		limit = v
	}
	if !ok {
		common.LogDebug("min_match/limit 無法解析，使用預設值",
			zap.String("min_match", c.Query("min_match")),
			zap.String("limit", c.Query("limit")),
		)
		return
	}
	q.MinMatch, q.Limit = minMatch, limit
}

// maxTimeParam 解析 max_time；無法解析時不篩選
func maxTimeParam(c *gin.Context) *int {
	raw := strings.TrimSpace(c.Query("max_time"))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		common.LogDebug("max_time 無法解析，忽略", zap.String("max_time", raw))
		return nil
	}
	return &v
}

// optional 空字串輸出為 null
func optional(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
