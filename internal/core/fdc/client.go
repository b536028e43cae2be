package fdc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FoodData Central 營養素編號
const (
	nutrientEnergyKcal    = 1008
	nutrientEnergyAtwater = 2047
	nutrientEnergyGeneral = 2048
	nutrientProtein       = 1003
	nutrientFat           = 1004
	nutrientCarbs         = 1005
	nutrientFiber         = 1079
)

// searchDataTypes 只查詢以每 100 公克標示的資料集
var searchDataTypes = []string{"Foundation", "SR Legacy"}

// Food 查詢到的食物，營養數值為每 100 公克
type Food struct {
	FDCID       int64             `json:"fdc_id"`
	Description string            `json:"description"`
	Nutrients   catalog.Nutrients `json:"nutrients"`
}

// Client FoodData Central API 客戶端
type Client struct {
	config config.FDCConfig
	client *resty.Client
}

// NewClient 創建 FoodData Central 客戶端
func NewClient(cfg config.FDCConfig) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "recipe-matcher")

	return &Client{
		config: cfg,
		client: client,
	}
}

type searchResponse struct {
	TotalHits int `json:"totalHits"`
	Foods     []struct {
		FDCID         int64  `json:"fdcId"`
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientID int     `json:"nutrientId"`
			UnitName   string  `json:"unitName"`
			Value      float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// SearchFood 以名稱搜尋並回傳最相關的一筆；查無結果時回傳 common.ErrNutritionNotFound
func (c *Client) SearchFood(ctx context.Context, query string) (*Food, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.config.APIKey).
		SetQueryParam("query", query).
		SetQueryParam("pageSize", "1").
		SetQueryParam("dataType", strings.Join(searchDataTypes, ",")).
		Get("/foods/search")

	if err != nil {
		return nil, common.ErrNutritionSourceDown.Wrap(fmt.Errorf("failed to send request to FoodData Central: %w", err))
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogWarn("FoodData Central 回應錯誤",
			zap.Int("status", resp.StatusCode()),
			zap.String("query", query),
		)
		return nil, common.ErrNutritionSourceDown.Wrap(fmt.Errorf("FoodData Central returned status %d", resp.StatusCode()))
	}

	// 解析回應
	var result searchResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return nil, common.ErrNutritionSourceDown.Wrap(fmt.Errorf("failed to parse FoodData Central response: %w", err))
	}

	if len(result.Foods) == 0 {
		return nil, common.ErrNutritionNotFound.WithMessage(fmt.Sprintf("No FoodData Central match for %q", query))
	}

	hit := result.Foods[0]
	values := make(map[int]float64, len(hit.FoodNutrients))
	for _, n := range hit.FoodNutrients {
		// 能量同時有 kJ 與 kcal，只取 kcal
		if strings.EqualFold(n.UnitName, "kJ") {
			continue
		}
		values[n.NutrientID] = n.Value
	}

	energy, ok := values[nutrientEnergyKcal]
	if !ok {
		for _, id := range []int{nutrientEnergyAtwater, nutrientEnergyGeneral} {
			if v, found := values[id]; found {
				energy = v
				break
			}
		}
	}

	food := &Food{
		FDCID:       hit.FDCID,
		Description: hit.Description,
		Nutrients: catalog.Nutrients{
			Calories: decimal.NewFromFloat(energy),
			Protein:  decimal.NewFromFloat(values[nutrientProtein]),
			Carbs:    decimal.NewFromFloat(values[nutrientCarbs]),
			Fat:      decimal.NewFromFloat(values[nutrientFat]),
			Fiber:    decimal.NewFromFloat(values[nutrientFiber]),
		},
	}
	common.LogDebug("FoodData Central 查詢完成",
		zap.String("query", query),
		zap.Int64("fdc_id", food.FDCID),
		zap.Int("total_hits", result.TotalHits),
	)
	return food, nil
}
