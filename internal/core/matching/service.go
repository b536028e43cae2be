package matching

import (
	"context"
	"fmt"
	"sort"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Query 配對查詢條件
type Query struct {
	Difficulty catalog.Difficulty
	MinMatch   float64
	Limit      int
	// MaxTime 為 nil 時不篩選總時間
	MaxTime    *int
	MaxMissing int
}

// Match 單一食譜的配對輸出
type Match struct {
	Recipe catalog.Recipe
	Result

	MatchedIngredients []catalog.Ingredient
	MissingIngredients []catalog.Ingredient
	// Ingredients 只在完全配對模式提供（含用量與單位）
	Ingredients []catalog.RecipeIngredient
}

// Report 一次配對查詢的結果
type Report struct {
	Candidates []catalog.Ingredient
	Matches    []Match
}

// FavoriteMatch 收藏食譜與食材櫃的配對
type FavoriteMatch struct {
	Favorite catalog.Favorite
	Match
	CanMakeNow bool
}

// FavoriteSummary 收藏配對統計
type FavoriteSummary struct {
	CanMakeNow       int `json:"can_make_now"`
	AlmostReady      int `json:"almost_ready"`
	PantryItemsCount int `json:"pantry_items_count"`
}

// Service 食材配對服務，只讀取 catalog
type Service struct {
	catalog  catalog.Catalog
	defaults config.MatchingConfig
}

// NewService 創建配對服務
func NewService(cat catalog.Catalog, cfg config.MatchingConfig) *Service {
	return &Service{
		catalog:  cat,
		defaults: cfg,
	}
}

// Defaults 預設查詢條件
func (s *Service) Defaults() Query {
	return Query{
		MinMatch:   0,
		Limit:      s.defaults.DefaultLimit,
		MaxMissing: s.defaults.DefaultMaxMissing,
	}
}

// ResolveCandidates 過濾掉不存在的食材 ID；全部無效時回傳 common.ErrNoValidIngredients
func (s *Service) ResolveCandidates(ctx context.Context, ids []uint) ([]catalog.Ingredient, catalog.IDSet, error) {
	if len(ids) == 0 {
		return nil, nil, common.ErrNoValidIngredients
	}
	valid, err := s.catalog.Ingredients(ctx, catalog.IngredientFilter{IDs: catalog.NewIDSet(ids...).Sorted()})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve ingredients: %w", err)
	}
	if len(valid) == 0 {
		return nil, nil, common.ErrNoValidIngredients
	}
	set := make(catalog.IDSet, len(valid))
	for _, ing := range valid {
		set[ing.ID] = struct{}{}
	}
	if dropped := len(catalog.NewIDSet(ids...)) - len(set); dropped > 0 {
		common.LogDebug("忽略不存在的食材 ID", zap.Int("dropped", dropped))
	}
	return valid, set, nil
}

// Ranked 依配對百分比排序（高到低），保留 ≥ MinMatch 的食譜並截取 Limit 筆
func (s *Service) Ranked(ctx context.Context, ids []uint, q Query) (*Report, error) {
	candidates, set, err := s.ResolveCandidates(ctx, ids)
	if err != nil {
		return nil, err
	}
	matches, err := s.rank(ctx, set, q)
	if err != nil {
		return nil, err
	}
	return &Report{Candidates: candidates, Matches: matches}, nil
}

// Pantry 以使用者食材櫃作為候選食材；食材櫃為空時直接回傳空結果
func (s *Service) Pantry(ctx context.Context, userID uint, q Query) (*Report, error) {
	set, err := s.catalog.PantryIngredientIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry: %w", err)
	}
	if len(set) == 0 {
		return &Report{Candidates: []catalog.Ingredient{}, Matches: []Match{}}, nil
	}
	candidates, err := s.catalog.Ingredients(ctx, catalog.IngredientFilter{IDs: set.Sorted()})
	if err != nil {
		return nil, fmt.Errorf("failed to load pantry ingredients: %w", err)
	}
	matches, err := s.rank(ctx, set, q)
	if err != nil {
		return nil, err
	}
	return &Report{Candidates: candidates, Matches: matches}, nil
}

func (s *Service) rank(ctx context.Context, candidates catalog.IDSet, q Query) ([]Match, error) {
	scored, err := s.scoreAll(ctx, candidates, q.Difficulty)
	if err != nil {
		return nil, err
	}

	kept := scored[:0]
	for _, m := range scored {
		if m.Percentage >= q.MinMatch {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Percentage != kept[j].Percentage {
			return kept[i].Percentage > kept[j].Percentage
		}
		return kept[i].Recipe.ID < kept[j].Recipe.ID
	})
	if q.Limit >= 0 && len(kept) > q.Limit {
		kept = kept[:q.Limit]
	}

	if err := s.attachIngredients(ctx, kept); err != nil {
		return nil, err
	}
	common.LogDebug("食譜配對完成",
		zap.Int("candidates", len(candidates)),
		zap.Int("scored", len(scored)),
		zap.Int("results", len(kept)),
	)
	return kept, nil
}

// Complete 只保留所有食材皆已具備的食譜，依總時間由短到長排序，不截取筆數
func (s *Service) Complete(ctx context.Context, ids []uint, q Query) (*Report, error) {
	candidates, set, err := s.ResolveCandidates(ctx, ids)
	if err != nil {
		return nil, err
	}
	scored, err := s.scoreAll(ctx, set, q.Difficulty)
	if err != nil {
		return nil, err
	}

	kept := scored[:0]
	for _, m := range scored {
		if q.MaxTime != nil && m.Recipe.TotalTime() > *q.MaxTime {
			continue
		}
		if len(m.Missing) == 0 {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		ti, tj := kept[i].Recipe.TotalTime(), kept[j].Recipe.TotalTime()
		if ti != tj {
			return ti < tj
		}
		return kept[i].Recipe.ID < kept[j].Recipe.ID
	})

	for i := range kept {
		items, err := s.catalog.RecipeIngredients(ctx, kept[i].Recipe.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load ingredients of recipe %d: %w", kept[i].Recipe.ID, err)
		}
		kept[i].Ingredients = items
	}
	return &Report{Candidates: candidates, Matches: kept}, nil
}

// Almost 保留缺少 1 到 MaxMissing 種食材且至少配對到一種的食譜，
// 依缺少數量（少到多）、配對百分比（高到低）、食譜 ID 排序
func (s *Service) Almost(ctx context.Context, ids []uint, q Query) (*Report, error) {
	candidates, set, err := s.ResolveCandidates(ctx, ids)
	if err != nil {
		return nil, err
	}
	scored, err := s.scoreAll(ctx, set, q.Difficulty)
	if err != nil {
		return nil, err
	}

	kept := scored[:0]
	for _, m := range scored {
		missing := len(m.Missing)
		if missing >= 1 && missing <= q.MaxMissing && len(m.Matched) > 0 {
			kept = append(kept, m)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		mi, mj := len(kept[i].Missing), len(kept[j].Missing)
		if mi != mj {
			return mi < mj
		}
		if kept[i].Percentage != kept[j].Percentage {
			return kept[i].Percentage > kept[j].Percentage
		}
		return kept[i].Recipe.ID < kept[j].Recipe.ID
	})

	if err := s.attachIngredients(ctx, kept); err != nil {
		return nil, err
	}
	return &Report{Candidates: candidates, Matches: kept}, nil
}

// FavoritesWithPantry 將收藏的食譜與使用者食材櫃配對；沒有食材的食譜視為 0%
func (s *Service) FavoritesWithPantry(ctx context.Context, userID uint, favorites []catalog.Favorite) ([]FavoriteMatch, FavoriteSummary, error) {
	pantry, err := s.catalog.PantryIngredientIDs(ctx, userID)
	if err != nil {
		return nil, FavoriteSummary{}, fmt.Errorf("failed to load pantry: %w", err)
	}
	summary := FavoriteSummary{PantryItemsCount: len(pantry)}
	if len(favorites) == 0 {
		return []FavoriteMatch{}, summary, nil
	}

	recipeIDs := make([]uint, len(favorites))
	for i, f := range favorites {
		recipeIDs[i] = f.Recipe.ID
	}
	reqs, err := s.catalog.RequirementSets(ctx, recipeIDs)
	if err != nil {
		return nil, FavoriteSummary{}, fmt.Errorf("failed to load recipe requirements: %w", err)
	}

	matches := make([]Match, len(favorites))
	for i, f := range favorites {
		matches[i] = Match{Recipe: f.Recipe, Result: Score(reqs[f.Recipe.ID], pantry)}
	}
	if err := s.attachIngredients(ctx, matches); err != nil {
		return nil, FavoriteSummary{}, err
	}

	out := make([]FavoriteMatch, len(favorites))
	for i, f := range favorites {
		fm := FavoriteMatch{Favorite: f, Match: matches[i], CanMakeNow: matches[i].Complete()}
		if fm.CanMakeNow {
			summary.CanMakeNow++
		}
		if missing := len(fm.Missing); missing > 0 && missing <= s.defaults.DefaultMaxMissing {
			summary.AlmostReady++
		}
		out[i] = fm
	}
	// 同百分比時維持收藏時間順序
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out, summary, nil
}

// scoreAll 對所有（依難度篩選後）有食材的食譜計算配對結果
func (s *Service) scoreAll(ctx context.Context, candidates catalog.IDSet, difficulty catalog.Difficulty) ([]Match, error) {
	recipes, err := s.catalog.Recipes(ctx, catalog.RecipeFilter{Difficulty: difficulty})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	if len(recipes) == 0 {
		return []Match{}, nil
	}
	ids := make([]uint, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
	}
	reqs, err := s.catalog.RequirementSets(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe requirements: %w", err)
	}

	out := make([]Match, 0, len(recipes))
	for _, r := range recipes {
		required, ok := reqs[r.ID]
		if !ok || len(required) == 0 {
			continue
		}
		out = append(out, Match{Recipe: r, Result: Score(required, candidates)})
	}
	return out, nil
}

// attachIngredients 以一次查詢補上配對與缺少的食材明細（依名稱排序）
func (s *Service) attachIngredients(ctx context.Context, matches []Match) error {
	union := make(catalog.IDSet)
	for _, m := range matches {
		for id := range m.Matched {
			union[id] = struct{}{}
		}
		for id := range m.Missing {
			union[id] = struct{}{}
		}
	}

	var all []catalog.Ingredient
	if len(union) > 0 {
		var err error
		all, err = s.catalog.Ingredients(ctx, catalog.IngredientFilter{IDs: union.Sorted()})
		if err != nil {
			return fmt.Errorf("failed to load ingredient details: %w", err)
		}
	}

	for i := range matches {
		matched := make([]catalog.Ingredient, 0, len(matches[i].Matched))
		missing := make([]catalog.Ingredient, 0, len(matches[i].Missing))
		for _, ing := range all {
			switch {
			case matches[i].Matched.Has(ing.ID):
				matched = append(matched, ing)
			case matches[i].Missing.Has(ing.ID):
				missing = append(missing, ing)
			}
		}
		matches[i].MatchedIngredients = matched
		matches[i].MissingIngredients = missing
	}
	return nil
}

// Round1 百分比輸出時取到小數第 1 位（銀行家捨入）
func Round1(v float64) float64 {
	return decimal.NewFromFloat(v).RoundBank(1).InexactFloat64()
}
