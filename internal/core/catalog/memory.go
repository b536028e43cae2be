package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Memory 以記憶體實作的 Store，供展示模式與測試使用
type Memory struct {
	mu                sync.RWMutex
	users             map[uint]User
	ingredients       map[uint]Ingredient
	recipes           map[uint]Recipe
	recipeIngredients map[uint][]RecipeIngredient
	nutrition         map[uint]Profile
	pantry            map[uint]map[uint]PantryItem
	favorites         map[uint]map[uint]Favorite
	lastID            uint
	now               func() time.Time
}

// NewMemory 建立空的記憶體資料庫
func NewMemory() *Memory {
	return &Memory{
		users:             make(map[uint]User),
		ingredients:       make(map[uint]Ingredient),
		recipes:           make(map[uint]Recipe),
		recipeIngredients: make(map[uint][]RecipeIngredient),
		nutrition:         make(map[uint]Profile),
		pantry:            make(map[uint]map[uint]PantryItem),
		favorites:         make(map[uint]map[uint]Favorite),
		now:               time.Now,
	}
}

// PutUser 新增或覆蓋使用者
func (m *Memory) PutUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

// PutIngredient 新增或覆蓋食材；名稱必須唯一
func (m *Memory) PutIngredient(_ context.Context, ing Ingredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, existing := range m.ingredients {
		if id != ing.ID && existing.Name == ing.Name {
			return fmt.Errorf("ingredient %q: %w", ing.Name, ErrDuplicate)
		}
	}
	if ing.Category == "" {
		ing.Category = CategoryOther
	}
	m.ingredients[ing.ID] = ing
	return nil
}

// PutRecipe 新增或覆蓋食譜與其食材；同一食譜中每種食材只能出現一次
func (m *Memory) PutRecipe(_ context.Context, r Recipe, items []RecipeIngredient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putRecipe(r, items)
}

// CreateRecipe 實作 RecipeWriter，新 ID 為現有最大 ID + 1
func (m *Memory) CreateRecipe(_ context.Context, r Recipe, items []RecipeIngredient) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var maxID uint
	for id := range m.recipes {
		if id > maxID {
			maxID = id
		}
	}
	r.ID = maxID + 1
	r.CreatedAt = time.Time{}
	if err := m.putRecipe(r, items); err != nil {
		return 0, err
	}
	return r.ID, nil
}

// putRecipe 呼叫端需持有寫鎖；不修改呼叫端傳入的 items
func (m *Memory) putRecipe(r Recipe, items []RecipeIngredient) error {
	if err := ValidateRecipe(r, items); err != nil {
		return err
	}
	resolved := make([]RecipeIngredient, len(items))
	seen := NewIDSet()
	for i, it := range items {
		id := it.Ingredient.ID
		if seen.Has(id) {
			return fmt.Errorf("recipe %d ingredient %d: %w", r.ID, id, ErrDuplicate)
		}
		ing, ok := m.ingredients[id]
		if !ok {
			return fmt.Errorf("recipe %d ingredient %d: %w", r.ID, id, ErrNotFound)
		}
		seen[id] = struct{}{}
		it.RecipeID = r.ID
		it.Ingredient = ing
		resolved[i] = it
	}

	if r.Servings <= 0 {
		r.Servings = DefaultServings
	}
	if r.Difficulty == "" {
		r.Difficulty = DifficultyMedium
	}
	if r.Preference == "" {
		r.Preference = PreferenceVeg
	}
	now := m.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now

	m.recipes[r.ID] = r
	m.recipeIngredients[r.ID] = resolved
	return nil
}

// DeleteRecipe 實作 RecipeWriter
func (m *Memory) DeleteRecipe(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.recipes[id]; !ok {
		return ErrNotFound
	}
	delete(m.recipes, id)
	delete(m.recipeIngredients, id)
	for _, favs := range m.favorites {
		delete(favs, id)
	}
	return nil
}

// Ingredient 實作 Catalog
func (m *Memory) Ingredient(_ context.Context, id uint) (*Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ing, ok := m.ingredients[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &ing, nil
}

// Ingredients 實作 Catalog，依名稱排序
func (m *Memory) Ingredients(_ context.Context, filter IngredientFilter) ([]Ingredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids IDSet
	if filter.IDs != nil {
		ids = NewIDSet(filter.IDs...)
	}
	needle := strings.ToLower(filter.NameContains)

	out := make([]Ingredient, 0)
	for _, ing := range m.ingredients {
		if ids != nil && !ids.Has(ing.ID) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(ing.Name), needle) {
			continue
		}
		if filter.Category != "" && ing.Category != filter.Category {
			continue
		}
		out = append(out, ing)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Recipe 實作 Catalog
func (m *Memory) Recipe(_ context.Context, id uint) (*Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.recipes[id]
	if !ok {
		return nil, ErrNotFound
	}
	r = m.withCreator(r)
	return &r, nil
}

// Recipes 實作 Catalog，依建立時間由新到舊
func (m *Memory) Recipes(_ context.Context, filter RecipeFilter) ([]Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids IDSet
	if filter.IDs != nil {
		ids = NewIDSet(filter.IDs...)
	}
	search := strings.ToLower(filter.Search)

	out := make([]Recipe, 0, len(m.recipes))
	for _, r := range m.recipes {
		if ids != nil && !ids.Has(r.ID) {
			continue
		}
		if filter.Difficulty != "" && r.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Preference != "" && r.Preference != filter.Preference {
			continue
		}
		if filter.CreatedBy != 0 && r.CreatedBy.ID != filter.CreatedBy {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Title), search) &&
			!strings.Contains(strings.ToLower(r.Description), search) {
			continue
		}
		out = append(out, m.withCreator(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) withCreator(r Recipe) Recipe {
	if u, ok := m.users[r.CreatedBy.ID]; ok {
		r.CreatedBy = u
	}
	return r
}

// RecipeIngredients 實作 Catalog
func (m *Memory) RecipeIngredients(_ context.Context, recipeID uint) ([]RecipeIngredient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.recipes[recipeID]; !ok {
		return nil, ErrNotFound
	}
	items := m.recipeIngredients[recipeID]
	out := make([]RecipeIngredient, len(items))
	for i, it := range items {
		// 食材可能在食譜建立後被修正
		if ing, ok := m.ingredients[it.Ingredient.ID]; ok {
			it.Ingredient = ing
		}
		out[i] = it
	}
	return out, nil
}

// RequirementSets 實作 Catalog
func (m *Memory) RequirementSets(_ context.Context, recipeIDs []uint) (map[uint]IDSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uint]IDSet, len(recipeIDs))
	for _, rid := range recipeIDs {
		items := m.recipeIngredients[rid]
		if len(items) == 0 {
			continue
		}
		set := make(IDSet, len(items))
		for _, it := range items {
			set[it.Ingredient.ID] = struct{}{}
		}
		out[rid] = set
	}
	return out, nil
}

// Nutrition 實作 Catalog
func (m *Memory) Nutrition(_ context.Context, ingredientID uint) (*IngredientNutrition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.nutrition[ingredientID]
	if !ok {
		return nil, ErrNotFound
	}
	return &IngredientNutrition{Ingredient: m.ingredients[ingredientID], Profile: p}, nil
}

// NutritionList 實作 Catalog，依食材名稱排序
func (m *Memory) NutritionList(_ context.Context) ([]IngredientNutrition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]IngredientNutrition, 0, len(m.nutrition))
	for id, p := range m.nutrition {
		out = append(out, IngredientNutrition{Ingredient: m.ingredients[id], Profile: p})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ingredient.Name < out[j].Ingredient.Name
	})
	return out, nil
}

// SaveNutrition 實作 NutritionWriter
func (m *Memory) SaveNutrition(_ context.Context, ingredientID uint, profile Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ingredients[ingredientID]; !ok {
		return ErrNotFound
	}
	if err := ValidateProfile(profile); err != nil {
		return fmt.Errorf("ingredient %d: %w", ingredientID, err)
	}
	m.nutrition[ingredientID] = profile
	return nil
}

// PantryIngredientIDs 實作 Catalog
func (m *Memory) PantryIngredientIDs(_ context.Context, userID uint) (IDSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := make(IDSet, len(m.pantry[userID]))
	for id := range m.pantry[userID] {
		set[id] = struct{}{}
	}
	return set, nil
}

// Pantry 實作 PantryStore，依加入時間由新到舊
func (m *Memory) Pantry(_ context.Context, userID uint) ([]PantryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PantryItem, 0, len(m.pantry[userID]))
	for id, item := range m.pantry[userID] {
		item.Ingredient = m.ingredients[id]
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// AddPantryItem 實作 PantryStore
func (m *Memory) AddPantryItem(_ context.Context, userID, ingredientID uint, quantity decimal.NullDecimal) (*PantryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ing, ok := m.ingredients[ingredientID]
	if !ok {
		return nil, ErrNotFound
	}
	if _, exists := m.pantry[userID][ingredientID]; exists {
		return nil, ErrDuplicate
	}
	if m.pantry[userID] == nil {
		m.pantry[userID] = make(map[uint]PantryItem)
	}
	m.lastID++
	item := PantryItem{
		ID:         m.lastID,
		UserID:     userID,
		Ingredient: ing,
		Quantity:   quantity,
		AddedAt:    m.now(),
	}
	m.pantry[userID][ingredientID] = item
	return &item, nil
}

// UpdatePantryItem 實作 PantryStore
func (m *Memory) UpdatePantryItem(_ context.Context, userID, ingredientID uint, quantity decimal.NullDecimal) (*PantryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.pantry[userID][ingredientID]
	if !ok {
		return nil, ErrNotFound
	}
	item.Quantity = quantity
	m.pantry[userID][ingredientID] = item
	item.Ingredient = m.ingredients[ingredientID]
	return &item, nil
}

// RemovePantryItem 實作 PantryStore
func (m *Memory) RemovePantryItem(_ context.Context, userID, ingredientID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pantry[userID][ingredientID]; !ok {
		return ErrNotFound
	}
	delete(m.pantry[userID], ingredientID)
	return nil
}

// ClearPantry 實作 PantryStore
func (m *Memory) ClearPantry(_ context.Context, userID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.pantry[userID])
	delete(m.pantry, userID)
	return n, nil
}

// Favorites 實作 FavoriteStore，依收藏時間由新到舊
func (m *Memory) Favorites(_ context.Context, userID uint) ([]Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Favorite, 0, len(m.favorites[userID]))
	for rid, fav := range m.favorites[userID] {
		fav.Recipe = m.withCreator(m.recipes[rid])
		out = append(out, fav)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SavedAt.Equal(out[j].SavedAt) {
			return out[i].SavedAt.After(out[j].SavedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// AddFavorite 實作 FavoriteStore
func (m *Memory) AddFavorite(_ context.Context, userID, recipeID uint) (*Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[recipeID]
	if !ok {
		return nil, ErrNotFound
	}
	if _, exists := m.favorites[userID][recipeID]; exists {
		return nil, ErrDuplicate
	}
	if m.favorites[userID] == nil {
		m.favorites[userID] = make(map[uint]Favorite)
	}
	m.lastID++
	fav := Favorite{
		ID:      m.lastID,
		UserID:  userID,
		Recipe:  m.withCreator(r),
		SavedAt: m.now(),
	}
	m.favorites[userID][recipeID] = fav
	return &fav, nil
}

// RemoveFavorite 實作 FavoriteStore
func (m *Memory) RemoveFavorite(_ context.Context, userID, recipeID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.favorites[userID][recipeID]; !ok {
		return ErrNotFound
	}
	delete(m.favorites[userID], recipeID)
	return nil
}

// ClearFavorites 實作 FavoriteStore
func (m *Memory) ClearFavorites(_ context.Context, userID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.favorites[userID])
	delete(m.favorites, userID)
	return n, nil
}

// Ping 實作 Store
func (m *Memory) Ping(context.Context) error { return nil }

// Close 實作 Store
func (m *Memory) Close() error { return nil }
