package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 以 GORM 實作的 catalog.Store
type Store struct {
	db *gorm.DB
}

var (
	_ catalog.Store  = (*Store)(nil)
	_ catalog.Seeder = (*Store)(nil)
)

// Open 連線 postgres，必要時執行 AutoMigrate
func Open(ctx context.Context, cfg config.DatabaseConfig, debug bool) (*Store, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newLogger(debug),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	common.LogInfo("資料庫連線成功",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("name", cfg.Name),
	)

	s := New(db)
	if cfg.AutoMigrate {
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

// New 包裝既有的 *gorm.DB
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate 建立或更新資料表
func (s *Store) Migrate(ctx context.Context) error {
	common.LogInfo("執行資料庫遷移")
	if err := s.db.WithContext(ctx).AutoMigrate(allModels...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping 實作 catalog.Store
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 實作 catalog.Store
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return catalog.ErrDuplicate
	}
	return err
}

func (s *Store) exists(tx *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := tx.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func likePattern(v string) string {
	return "%" + strings.ToLower(v) + "%"
}

// Ingredient 實作 catalog.Catalog
func (s *Store) Ingredient(ctx context.Context, id uint) (*catalog.Ingredient, error) {
	var row Ingredient
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	ing := row.toDomain()
	return &ing, nil
}

// Ingredients 實作 catalog.Catalog，依名稱排序
func (s *Store) Ingredients(ctx context.Context, filter catalog.IngredientFilter) ([]catalog.Ingredient, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []catalog.Ingredient{}, nil
	}
	q := s.db.WithContext(ctx).Model(&Ingredient{})
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.NameContains != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(filter.NameContains))
	}
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}

	var rows []Ingredient
	if err := q.Order("name").Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Ingredient, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// Recipe 實作 catalog.Catalog
func (s *Store) Recipe(ctx context.Context, id uint) (*catalog.Recipe, error) {
	var row Recipe
	if err := s.db.WithContext(ctx).Preload("CreatedBy").First(&row, id).Error; err != nil {
		return nil, notFound(err)
	}
	r := row.toDomain()
	return &r, nil
}

// Recipes 實作 catalog.Catalog，依建立時間由新到舊
func (s *Store) Recipes(ctx context.Context, filter catalog.RecipeFilter) ([]catalog.Recipe, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []catalog.Recipe{}, nil
	}
	q := s.db.WithContext(ctx).Model(&Recipe{}).Preload("CreatedBy")
	if filter.IDs != nil {
		q = q.Where("id IN ?", filter.IDs)
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", string(filter.Difficulty))
	}
	if filter.Preference != "" {
		q = q.Where("preference = ?", string(filter.Preference))
	}
	if filter.CreatedBy != 0 {
		q = q.Where("created_by_id = ?", filter.CreatedBy)
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var rows []Recipe
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.Recipe, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

// RecipeIngredients 實作 catalog.Catalog
func (s *Store) RecipeIngredients(ctx context.Context, recipeID uint) ([]catalog.RecipeIngredient, error) {
	db := s.db.WithContext(ctx)
	ok, err := s.exists(db, &Recipe{}, "id = ?", recipeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, catalog.ErrNotFound
	}

	var rows []RecipeIngredient
	if err := db.Preload("Ingredient").Where("recipe_id = ?", recipeID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.RecipeIngredient, len(rows))
	for i, row := range rows {
		out[i] = catalog.RecipeIngredient{
			RecipeID:   row.RecipeID,
			Ingredient: row.Ingredient.toDomain(),
			Quantity:   row.Quantity,
			Unit:       row.Unit,
		}
	}
	return out, nil
}

// RequirementSets 實作 catalog.Catalog，以單一查詢取回所有食譜的食材 ID
func (s *Store) RequirementSets(ctx context.Context, recipeIDs []uint) (map[uint]catalog.IDSet, error) {
	out := make(map[uint]catalog.IDSet)
	if len(recipeIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		RecipeID     uint
		IngredientID uint
	}
	err := s.db.WithContext(ctx).Model(&RecipeIngredient{}).
		Select("recipe_id, ingredient_id").
		Where("recipe_id IN ?", recipeIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		set, ok := out[row.RecipeID]
		if !ok {
			set = make(catalog.IDSet)
			out[row.RecipeID] = set
		}
		set[row.IngredientID] = struct{}{}
	}
	return out, nil
}

// Nutrition 實作 catalog.Catalog
func (s *Store) Nutrition(ctx context.Context, ingredientID uint) (*catalog.IngredientNutrition, error) {
	var row IngredientNutrition
	err := s.db.WithContext(ctx).Preload("Ingredient").Where("ingredient_id = ?", ingredientID).First(&row).Error
	if err != nil {
		return nil, notFound(err)
	}
	p, err := row.profile()
	if err != nil {
		return nil, err
	}
	return &catalog.IngredientNutrition{Ingredient: row.Ingredient.toDomain(), Profile: p}, nil
}

// NutritionList 實作 catalog.Catalog，依食材名稱排序
func (s *Store) NutritionList(ctx context.Context) ([]catalog.IngredientNutrition, error) {
	var rows []IngredientNutrition
	if err := s.db.WithContext(ctx).Preload("Ingredient").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]catalog.IngredientNutrition, 0, len(rows))
	for _, row := range rows {
		p, err := row.profile()
		if err != nil {
			return nil, err
		}
		out = append(out, catalog.IngredientNutrition{Ingredient: row.Ingredient.toDomain(), Profile: p})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ingredient.Name < out[j].Ingredient.Name
	})
	return out, nil
}

// SaveNutrition 實作 catalog.NutritionWriter，同一食材只保留一筆
func (s *Store) SaveNutrition(ctx context.Context, ingredientID uint, profile catalog.Profile) error {
	if err := catalog.ValidateProfile(profile); err != nil {
		return fmt.Errorf("ingredient %d: %w", ingredientID, err)
	}
	row, err := nutritionFromDomain(ingredientID, profile)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.exists(tx, &Ingredient{}, "id = ?", ingredientID)
		if err != nil {
			return err
		}
		if !ok {
			return catalog.ErrNotFound
		}

		var existing IngredientNutrition
		err = tx.Where("ingredient_id = ?", ingredientID).First(&existing).Error
		switch {
		case err == nil:
			row.ID = existing.ID
			row.CreatedAt = existing.CreatedAt
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		return tx.Omit(clause.Associations).Save(&row).Error
	})
}

// PantryIngredientIDs 實作 catalog.Catalog
func (s *Store) PantryIngredientIDs(ctx context.Context, userID uint) (catalog.IDSet, error) {
	var ids []uint
	if err := s.db.WithContext(ctx).Model(&PantryItem{}).Where("user_id = ?", userID).Pluck("ingredient_id", &ids).Error; err != nil {
		return nil, err
	}
	return catalog.NewIDSet(ids...), nil
}

// Pantry 實作 catalog.PantryStore，依加入時間由新到舊
func (s *Store) Pantry(ctx context.Context, userID uint) ([]catalog.PantryItem, error) {
	var rows []PantryItem
	err := s.db.WithContext(ctx).Preload("Ingredient").
		Where("user_id = ?", userID).
		Order("added_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]catalog.PantryItem, len(rows))
	for i, row := range rows {
		out[i] = pantryToDomain(row)
	}
	return out, nil
}

func pantryToDomain(row PantryItem) catalog.PantryItem {
	return catalog.PantryItem{
		ID:         row.ID,
		UserID:     row.UserID,
		Ingredient: row.Ingredient.toDomain(),
		Quantity:   row.Quantity,
		AddedAt:    row.AddedAt,
	}
}

// AddPantryItem 實作 catalog.PantryStore
func (s *Store) AddPantryItem(ctx context.Context, userID, ingredientID uint, quantity decimal.NullDecimal) (*catalog.PantryItem, error) {
	var row PantryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ing Ingredient
		if err := tx.First(&ing, ingredientID).Error; err != nil {
			return notFound(err)
		}
		dup, err := s.exists(tx, &PantryItem{}, "user_id = ? AND ingredient_id = ?", userID, ingredientID)
		if err != nil {
			return err
		}
		if dup {
			return catalog.ErrDuplicate
		}
		row = PantryItem{UserID: userID, IngredientID: ingredientID, Quantity: quantity}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return duplicate(err)
		}
		row.Ingredient = ing
		return nil
	})
	if err != nil {
		return nil, err
	}
	item := pantryToDomain(row)
	return &item, nil
}

// UpdatePantryItem 實作 catalog.PantryStore
func (s *Store) UpdatePantryItem(ctx context.Context, userID, ingredientID uint, quantity decimal.NullDecimal) (*catalog.PantryItem, error) {
	var row PantryItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("Ingredient").
			Where("user_id = ? AND ingredient_id = ?", userID, ingredientID).
			First(&row).Error
		if err != nil {
			return notFound(err)
		}
		row.Quantity = quantity
		return tx.Model(&PantryItem{}).Where("id = ?", row.ID).Update("quantity", quantity).Error
	})
	if err != nil {
		return nil, err
	}
	item := pantryToDomain(row)
	return &item, nil
}

// RemovePantryItem 實作 catalog.PantryStore
func (s *Store) RemovePantryItem(ctx context.Context, userID, ingredientID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND ingredient_id = ?", userID, ingredientID).Delete(&PantryItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ClearPantry 實作 catalog.PantryStore
func (s *Store) ClearPantry(ctx context.Context, userID uint) (int, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&PantryItem{})
	return int(res.RowsAffected), res.Error
}

// Favorites 實作 catalog.FavoriteStore，依收藏時間由新到舊
func (s *Store) Favorites(ctx context.Context, userID uint) ([]catalog.Favorite, error) {
	var rows []Favorite
	err := s.db.WithContext(ctx).Preload("Recipe.CreatedBy").
		Where("user_id = ?", userID).
		Order("saved_at DESC").Order("id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Favorite, len(rows))
	for i, row := range rows {
		out[i] = catalog.Favorite{ID: row.ID, UserID: row.UserID, Recipe: row.Recipe.toDomain(), SavedAt: row.SavedAt}
	}
	return out, nil
}

// AddFavorite 實作 catalog.FavoriteStore
func (s *Store) AddFavorite(ctx context.Context, userID, recipeID uint) (*catalog.Favorite, error) {
	var row Favorite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe Recipe
		if err := tx.Preload("CreatedBy").First(&recipe, recipeID).Error; err != nil {
			return notFound(err)
		}
		dup, err := s.exists(tx, &Favorite{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
		if err != nil {
			return err
		}
		if dup {
			return catalog.ErrDuplicate
		}
		row = Favorite{UserID: userID, RecipeID: recipeID}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return duplicate(err)
		}
		row.Recipe = recipe
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &catalog.Favorite{ID: row.ID, UserID: row.UserID, Recipe: row.Recipe.toDomain(), SavedAt: row.SavedAt}, nil
}

// RemoveFavorite 實作 catalog.FavoriteStore
func (s *Store) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ClearFavorites 實作 catalog.FavoriteStore
func (s *Store) ClearFavorites(ctx context.Context, userID uint) (int, error) {
	res := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&Favorite{})
	return int(res.RowsAffected), res.Error
}

// PutUser 實作 catalog.Seeder
func (s *Store) PutUser(ctx context.Context, u catalog.User) error {
	row := User{ID: u.ID, Username: u.Username}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username"}),
	}).Create(&row).Error
}

// PutIngredient 實作 catalog.Seeder；名稱必須唯一
func (s *Store) PutIngredient(ctx context.Context, ing catalog.Ingredient) error {
	row := ingredientFromDomain(ing)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := s.exists(tx, &Ingredient{}, "name = ? AND id <> ?", row.Name, row.ID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("ingredient %q: %w", row.Name, catalog.ErrDuplicate)
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "category", "unit", "updated_at"}),
		}).Create(&row).Error
	})
}

// PutRecipe 實作 catalog.Seeder 與 catalog.RecipeWriter；覆蓋食譜時一併取代其食材
func (s *Store) PutRecipe(ctx context.Context, r catalog.Recipe, items []catalog.RecipeIngredient) error {
	if err := catalog.ValidateRecipe(r, items); err != nil {
		return err
	}
	row := recipeFromDomain(r)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRecipeIngredients(tx, r.ID, items); err != nil {
			return err
		}

		updates := clause.AssignmentColumns([]string{
			"title", "description", "instructions", "prep_time", "cook_time", "servings",
			"difficulty", "preference", "image_url", "created_by_id", "updated_at",
		})
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: updates,
		}).Create(&row).Error
		if err != nil {
			return err
		}
		// 指定 ID 寫入後，讓 postgres 的序列跟上目前最大值
		if tx.Dialector.Name() == "postgres" {
			err := tx.Exec("SELECT setval(pg_get_serial_sequence('recipes', 'id'), (SELECT MAX(id) FROM recipes))").Error
			if err != nil {
				return err
			}
		}
		return replaceRecipeIngredients(tx, row.ID, items)
	})
}

// CreateRecipe 實作 catalog.RecipeWriter，ID 由資料庫配發
func (s *Store) CreateRecipe(ctx context.Context, r catalog.Recipe, items []catalog.RecipeIngredient) (uint, error) {
	if err := catalog.ValidateRecipe(r, items); err != nil {
		return 0, err
	}
	r.ID = 0
	row := recipeFromDomain(r)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkRecipeIngredients(tx, 0, items); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return duplicate(err)
		}
		return replaceRecipeIngredients(tx, row.ID, items)
	})
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// DeleteRecipe 實作 catalog.RecipeWriter
func (s *Store) DeleteRecipe(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&Favorite{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return catalog.ErrNotFound
		}
		return nil
	})
}

// checkRecipeIngredients 同一食譜中的食材不可重複且必須存在
func checkRecipeIngredients(tx *gorm.DB, recipeID uint, items []catalog.RecipeIngredient) error {
	seen := catalog.NewIDSet()
	ingredientIDs := make([]uint, 0, len(items))
	for _, it := range items {
		id := it.Ingredient.ID
		if seen.Has(id) {
			return fmt.Errorf("recipe %d ingredient %d: %w", recipeID, id, catalog.ErrDuplicate)
		}
		seen[id] = struct{}{}
		ingredientIDs = append(ingredientIDs, id)
	}
	if len(ingredientIDs) == 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&Ingredient{}).Where("id IN ?", ingredientIDs).Count(&count).Error; err != nil {
		return err
	}
	if int(count) != len(ingredientIDs) {
		return fmt.Errorf("recipe %d: unknown ingredient: %w", recipeID, catalog.ErrNotFound)
	}
	return nil
}

func replaceRecipeIngredients(tx *gorm.DB, recipeID uint, items []catalog.RecipeIngredient) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&RecipeIngredient{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	rows := make([]RecipeIngredient, len(items))
	for i, it := range items {
		rows[i] = RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: it.Ingredient.ID,
			Quantity:     it.Quantity,
			Unit:         it.Unit,
		}
	}
	return tx.Omit(clause.Associations).Create(&rows).Error
}
