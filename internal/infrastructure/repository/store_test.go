package repository

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"recipe-matcher/internal/core/catalog"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seededStore interface {
	catalog.Store
	catalog.Seeder
}

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         newLogger(false),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// 每個連線都是獨立的 :memory: 資料庫
	sqlDB.SetMaxOpenConns(1)

	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]func(t *testing.T) seededStore {
	t.Helper()
	return map[string]func(t *testing.T) seededStore{
		"gorm":   func(t *testing.T) seededStore { return newSQLiteStore(t) },
		"memory": func(t *testing.T) seededStore { return catalog.NewMemory() },
	}
}

func seed(t *testing.T, s seededStore) {
	t.Helper()
	ctx := context.Background()

	if err := s.PutUser(ctx, catalog.User{ID: 1, Username: "chef"}); err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}
	for _, ing := range []catalog.Ingredient{
		{ID: 1, Name: "tomato", Category: catalog.CategoryVegetable, Unit: "piece"},
		{ID: 2, Name: "basil", Category: catalog.CategorySpice, Unit: "g"},
		{ID: 3, Name: "pasta", Category: catalog.CategoryGrain, Unit: "g"},
		{ID: 4, Name: "egg", Unit: "piece"},
	} {
		if err := s.PutIngredient(ctx, ing); err != nil {
			t.Fatalf("PutIngredient(%s) error = %v", ing.Name, err)
		}
	}

	recipe := catalog.Recipe{
		ID:          10,
		Title:       "Tomato pasta",
		Description: "Quick weeknight dinner",
		PrepTime:    10,
		CookTime:    15,
		Servings:    2,
		Difficulty:  catalog.DifficultyEasy,
		CreatedBy:   catalog.User{ID: 1},
	}
	items := []catalog.RecipeIngredient{
		{Ingredient: catalog.Ingredient{ID: 1}, Quantity: decimal.NewFromInt(3), Unit: "pieces"},
		{Ingredient: catalog.Ingredient{ID: 2}, Quantity: decimal.RequireFromString("5.5"), Unit: "g"},
		{Ingredient: catalog.Ingredient{ID: 3}, Quantity: decimal.NewFromInt(200), Unit: "g"},
	}
	if err := s.PutRecipe(ctx, recipe, items); err != nil {
		t.Fatalf("PutRecipe() error = %v", err)
	}
	if err := s.PutRecipe(ctx, catalog.Recipe{ID: 11, Title: "Air", CreatedBy: catalog.User{ID: 1}}, nil); err != nil {
		t.Fatalf("PutRecipe(empty) error = %v", err)
	}

	if err := s.SaveNutrition(ctx, 4, catalog.PerUnit{Nutrients: catalog.Nutrients{Calories: decimal.NewFromInt(70)}}); err != nil {
		t.Fatalf("SaveNutrition(egg) error = %v", err)
	}
	if err := s.SaveNutrition(ctx, 3, catalog.PerHundredGrams{
		Nutrients:   catalog.Nutrients{Calories: decimal.NewFromInt(371), Carbs: decimal.NewFromInt(75)},
		GramsPerCup: decimal.NewNullDecimal(decimal.NewFromInt(100)),
	}); err != nil {
		t.Fatalf("SaveNutrition(pasta) error = %v", err)
	}
}

func TestStoreCatalogReads(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()

			ings, err := s.Ingredients(ctx, catalog.IngredientFilter{})
			if err != nil {
				t.Fatalf("Ingredients() error = %v", err)
			}
			var names []string
			for _, ing := range ings {
				names = append(names, ing.Name)
			}
			if !reflect.DeepEqual(names, []string{"basil", "egg", "pasta", "tomato"}) {
				t.Errorf("Ingredients() names = %v", names)
			}

			egg, err := s.Ingredient(ctx, 4)
			if err != nil || egg.Category != catalog.CategoryOther {
				t.Errorf("Ingredient(4) = %+v, %v; want category other", egg, err)
			}
			if _, err := s.Ingredient(ctx, 99); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("Ingredient(99) error = %v, want ErrNotFound", err)
			}

			filtered, err := s.Ingredients(ctx, catalog.IngredientFilter{NameContains: "TOM", Category: catalog.CategoryVegetable})
			if err != nil || len(filtered) != 1 || filtered[0].ID != 1 {
				t.Errorf("Ingredients(TOM, vegetable) = %+v, %v", filtered, err)
			}

			r, err := s.Recipe(ctx, 10)
			if err != nil {
				t.Fatalf("Recipe(10) error = %v", err)
			}
			if r.CreatedBy.Username != "chef" || r.TotalTime() != 25 || r.Preference != catalog.PreferenceVeg {
				t.Errorf("Recipe(10) = %+v", r)
			}

			air, err := s.Recipe(ctx, 11)
			if err != nil || air.Servings != catalog.DefaultServings || air.Difficulty != catalog.DifficultyMedium {
				t.Errorf("Recipe(11) = %+v, %v; want defaults", air, err)
			}

			easy, err := s.Recipes(ctx, catalog.RecipeFilter{Difficulty: catalog.DifficultyEasy, Search: "pasta"})
			if err != nil || len(easy) != 1 || easy[0].ID != 10 {
				t.Errorf("Recipes(easy, pasta) = %+v, %v", easy, err)
			}

			items, err := s.RecipeIngredients(ctx, 10)
			if err != nil || len(items) != 3 {
				t.Fatalf("RecipeIngredients(10) = %d items, %v", len(items), err)
			}
			if items[1].Ingredient.Name != "basil" || !items[1].Quantity.Equal(decimal.RequireFromString("5.5")) {
				t.Errorf("RecipeIngredients(10)[1] = %+v", items[1])
			}
			if _, err := s.RecipeIngredients(ctx, 404); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("RecipeIngredients(404) error = %v, want ErrNotFound", err)
			}

			reqs, err := s.RequirementSets(ctx, []uint{10, 11})
			if err != nil {
				t.Fatalf("RequirementSets() error = %v", err)
			}
			if _, ok := reqs[11]; ok {
				t.Error("RequirementSets() includes recipe without ingredients")
			}
			if got := reqs[10].Sorted(); !reflect.DeepEqual(got, []uint{1, 2, 3}) {
				t.Errorf("RequirementSets()[10] = %v", got)
			}
		})
	}
}

func TestStoreNutrition(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()

			egg, err := s.Nutrition(ctx, 4)
			if err != nil {
				t.Fatalf("Nutrition(egg) error = %v", err)
			}
			if pu, ok := egg.Profile.(catalog.PerUnit); !ok || !pu.Nutrients.Calories.Equal(decimal.NewFromInt(70)) {
				t.Errorf("Nutrition(egg) = %#v", egg.Profile)
			}

			pasta, err := s.Nutrition(ctx, 3)
			if err != nil {
				t.Fatalf("Nutrition(pasta) error = %v", err)
			}
			ph, ok := pasta.Profile.(catalog.PerHundredGrams)
			if !ok {
				t.Fatalf("Nutrition(pasta) = %T, want PerHundredGrams", pasta.Profile)
			}
			if !ph.GramsPerCup.Valid || ph.GramsPerTbsp.Valid {
				t.Errorf("pasta factors = cup %v tbsp %v", ph.GramsPerCup, ph.GramsPerTbsp)
			}

			if _, err := s.Nutrition(ctx, 1); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("Nutrition(tomato) error = %v, want ErrNotFound", err)
			}

			// 覆蓋為另一種計量基準
			if err := s.SaveNutrition(ctx, 3, catalog.PerUnit{}); err != nil {
				t.Fatalf("SaveNutrition() error = %v", err)
			}
			list, err := s.NutritionList(ctx)
			if err != nil || len(list) != 2 {
				t.Fatalf("NutritionList() = %d, %v; want 2", len(list), err)
			}
			if list[0].Ingredient.Name != "egg" || list[1].Profile.UnitType() != catalog.UnitTypePerUnit {
				t.Errorf("NutritionList() = %+v", list)
			}

			if err := s.SaveNutrition(ctx, 99, catalog.PerUnit{}); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("SaveNutrition(99) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorePantryAndFavorites(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()
			const user = 1

			qty := decimal.NewNullDecimal(decimal.NewFromInt(2))
			item, err := s.AddPantryItem(ctx, user, 1, qty)
			if err != nil {
				t.Fatalf("AddPantryItem() error = %v", err)
			}
			if item.Ingredient.Name != "tomato" || !item.Quantity.Valid {
				t.Errorf("AddPantryItem() = %+v", item)
			}
			if _, err := s.AddPantryItem(ctx, user, 1, decimal.NullDecimal{}); !errors.Is(err, catalog.ErrDuplicate) {
				t.Errorf("AddPantryItem(dup) error = %v, want ErrDuplicate", err)
			}
			if _, err := s.AddPantryItem(ctx, user, 99, decimal.NullDecimal{}); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("AddPantryItem(99) error = %v, want ErrNotFound", err)
			}
			if _, err := s.AddPantryItem(ctx, user, 3, decimal.NullDecimal{}); err != nil {
				t.Fatalf("AddPantryItem(3) error = %v", err)
			}
			// 其他使用者的食材櫃互不影響
			if _, err := s.AddPantryItem(ctx, 2, 2, decimal.NullDecimal{}); err != nil {
				t.Fatalf("AddPantryItem(user 2) error = %v", err)
			}

			ids, err := s.PantryIngredientIDs(ctx, user)
			if err != nil || !reflect.DeepEqual(ids.Sorted(), []uint{1, 3}) {
				t.Errorf("PantryIngredientIDs() = %v, %v", ids.Sorted(), err)
			}
			pantry, err := s.Pantry(ctx, user)
			if err != nil || len(pantry) != 2 || pantry[0].Ingredient.ID != 3 {
				t.Errorf("Pantry() = %+v, %v; want newest first", pantry, err)
			}

			if err := s.RemovePantryItem(ctx, user, 1); err != nil {
				t.Fatalf("RemovePantryItem() error = %v", err)
			}
			if err := s.RemovePantryItem(ctx, user, 1); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("RemovePantryItem(again) error = %v, want ErrNotFound", err)
			}

			fav, err := s.AddFavorite(ctx, user, 10)
			if err != nil {
				t.Fatalf("AddFavorite() error = %v", err)
			}
			if fav.Recipe.Title != "Tomato pasta" || fav.Recipe.CreatedBy.Username != "chef" {
				t.Errorf("AddFavorite() = %+v", fav)
			}
			if _, err := s.AddFavorite(ctx, user, 10); !errors.Is(err, catalog.ErrDuplicate) {
				t.Errorf("AddFavorite(dup) error = %v, want ErrDuplicate", err)
			}
			if _, err := s.AddFavorite(ctx, user, 404); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("AddFavorite(404) error = %v, want ErrNotFound", err)
			}
			if _, err := s.AddFavorite(ctx, user, 11); err != nil {
				t.Fatalf("AddFavorite(11) error = %v", err)
			}
			favs, err := s.Favorites(ctx, user)
			if err != nil || len(favs) != 2 || favs[0].Recipe.ID != 11 {
				t.Errorf("Favorites() = %+v, %v; want newest first", favs, err)
			}
			if err := s.RemoveFavorite(ctx, user, 10); err != nil {
				t.Fatalf("RemoveFavorite() error = %v", err)
			}
			if err := s.RemoveFavorite(ctx, user, 10); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("RemoveFavorite(again) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreSeederConstraints(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()

			if err := s.PutIngredient(ctx, catalog.Ingredient{ID: 50, Name: "tomato"}); !errors.Is(err, catalog.ErrDuplicate) {
				t.Errorf("PutIngredient(dup name) error = %v, want ErrDuplicate", err)
			}
			dup := []catalog.RecipeIngredient{
				{Ingredient: catalog.Ingredient{ID: 1}, Quantity: decimal.NewFromInt(1)},
				{Ingredient: catalog.Ingredient{ID: 1}, Quantity: decimal.NewFromInt(2)},
			}
			if err := s.PutRecipe(ctx, catalog.Recipe{ID: 20, Title: "Twice"}, dup); !errors.Is(err, catalog.ErrDuplicate) {
				t.Errorf("PutRecipe(dup ingredient) error = %v, want ErrDuplicate", err)
			}
			unknown := []catalog.RecipeIngredient{{Ingredient: catalog.Ingredient{ID: 77}, Quantity: decimal.NewFromInt(1)}}
			if err := s.PutRecipe(ctx, catalog.Recipe{ID: 21, Title: "Ghost"}, unknown); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("PutRecipe(unknown ingredient) error = %v, want ErrNotFound", err)
			}

			// 重新匯入同一食譜會取代原有食材
			again := []catalog.RecipeIngredient{{Ingredient: catalog.Ingredient{ID: 4}, Quantity: decimal.NewFromInt(2), Unit: "piece"}}
			if err := s.PutRecipe(ctx, catalog.Recipe{ID: 10, Title: "Eggs", CreatedBy: catalog.User{ID: 1}}, again); err != nil {
				t.Fatalf("PutRecipe(replace) error = %v", err)
			}
			reqs, err := s.RequirementSets(ctx, []uint{10})
			if err != nil || !reflect.DeepEqual(reqs[10].Sorted(), []uint{4}) {
				t.Errorf("RequirementSets() after replace = %v, %v", reqs[10].Sorted(), err)
			}
			if err := s.Ping(ctx); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestStoreRejectsNegativeValues(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()

			negative := []catalog.RecipeIngredient{{Ingredient: catalog.Ingredient{ID: 3}, Quantity: decimal.NewFromInt(-200), Unit: "g"}}
			if err := s.PutRecipe(ctx, catalog.Recipe{ID: 30, Title: "Minus"}, negative); !errors.Is(err, catalog.ErrInvalid) {
				t.Errorf("PutRecipe(negative quantity) error = %v, want ErrInvalid", err)
			}
			if _, err := s.Recipe(ctx, 30); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("Recipe(30) error = %v, want nothing stored", err)
			}
			if _, err := s.CreateRecipe(ctx, catalog.Recipe{Title: "Minus"}, negative); !errors.Is(err, catalog.ErrInvalid) {
				t.Errorf("CreateRecipe(negative quantity) error = %v, want ErrInvalid", err)
			}

			profiles := []catalog.Profile{
				catalog.PerHundredGrams{Nutrients: catalog.Nutrients{Calories: decimal.NewFromInt(-50)}},
				catalog.PerHundredGrams{GramsPerCup: decimal.NewNullDecimal(decimal.NewFromInt(-1))},
				catalog.PerUnit{Nutrients: catalog.Nutrients{Fat: decimal.NewFromInt(-3)}},
			}
			for _, p := range profiles {
				if err := s.SaveNutrition(ctx, 2, p); !errors.Is(err, catalog.ErrInvalid) {
					t.Errorf("SaveNutrition(%+v) error = %v, want ErrInvalid", p, err)
				}
			}
			if _, err := s.Nutrition(ctx, 2); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("Nutrition(2) error = %v, want nothing stored", err)
			}
		})
	}
}

func TestStoreRecipeWriter(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()

			items := []catalog.RecipeIngredient{
				{Ingredient: catalog.Ingredient{ID: 4}, Quantity: decimal.NewFromInt(3), Unit: "piece"},
				{Ingredient: catalog.Ingredient{ID: 2}, Quantity: decimal.NewFromInt(5), Unit: "g"},
			}
			id, err := s.CreateRecipe(ctx, catalog.Recipe{Title: "Basil omelette", CreatedBy: catalog.User{ID: 1}}, items)
			if err != nil {
				t.Fatalf("CreateRecipe() error = %v", err)
			}
			if id == 0 || id == 10 || id == 11 {
				t.Fatalf("CreateRecipe() id = %d, want a fresh id", id)
			}
			r, err := s.Recipe(ctx, id)
			if err != nil || r.Title != "Basil omelette" || r.Servings != catalog.DefaultServings || r.CreatedBy.Username != "chef" {
				t.Errorf("Recipe(%d) = %+v, %v", id, r, err)
			}
			reqs, err := s.RequirementSets(ctx, []uint{id})
			if err != nil || !reflect.DeepEqual(reqs[id].Sorted(), []uint{2, 4}) {
				t.Errorf("RequirementSets(%d) = %v, %v", id, reqs[id].Sorted(), err)
			}

			mine, err := s.Recipes(ctx, catalog.RecipeFilter{CreatedBy: 1})
			if err != nil || len(mine) == 0 {
				t.Fatalf("Recipes(CreatedBy=1) = %d, %v", len(mine), err)
			}
			for _, m := range mine {
				if m.CreatedBy.ID != 1 {
					t.Errorf("Recipes(CreatedBy=1) returned %+v", m)
				}
			}
			if others, _ := s.Recipes(ctx, catalog.RecipeFilter{CreatedBy: 2}); len(others) != 0 {
				t.Errorf("Recipes(CreatedBy=2) = %d, want 0", len(others))
			}

			if _, err := s.AddFavorite(ctx, 1, id); err != nil {
				t.Fatalf("AddFavorite() error = %v", err)
			}
			if err := s.DeleteRecipe(ctx, id); err != nil {
				t.Fatalf("DeleteRecipe() error = %v", err)
			}
			if _, err := s.Recipe(ctx, id); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("Recipe(%d) after delete error = %v, want ErrNotFound", id, err)
			}
			if favs, _ := s.Favorites(ctx, 1); len(favs) != 0 {
				t.Errorf("Favorites() after delete = %d, want 0", len(favs))
			}
			if err := s.DeleteRecipe(ctx, id); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("DeleteRecipe(again) error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStorePantryUpdateAndClear(t *testing.T) {
	t.Parallel()
	for name, open := range stores(t) {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := open(t)
			seed(t, s)
			ctx := context.Background()
			const user = 1

			if _, err := s.UpdatePantryItem(ctx, user, 1, decimal.NullDecimal{}); !errors.Is(err, catalog.ErrNotFound) {
				t.Errorf("UpdatePantryItem(missing) error = %v, want ErrNotFound", err)
			}
			for _, id := range []uint{1, 2} {
				if _, err := s.AddPantryItem(ctx, user, id, decimal.NullDecimal{}); err != nil {
					t.Fatalf("AddPantryItem(%d) error = %v", id, err)
				}
			}
			if _, err := s.AddPantryItem(ctx, 2, 1, decimal.NullDecimal{}); err != nil {
				t.Fatalf("AddPantryItem(user 2) error = %v", err)
			}

			item, err := s.UpdatePantryItem(ctx, user, 1, decimal.NewNullDecimal(decimal.NewFromInt(6)))
			if err != nil || item.Ingredient.Name != "tomato" || !item.Quantity.Decimal.Equal(decimal.NewFromInt(6)) {
				t.Errorf("UpdatePantryItem() = %+v, %v", item, err)
			}
			pantry, _ := s.Pantry(ctx, user)
			for _, p := range pantry {
				if p.Ingredient.ID == 1 && !p.Quantity.Decimal.Equal(decimal.NewFromInt(6)) {
					t.Errorf("Pantry() quantity = %v, want 6", p.Quantity)
				}
			}

			n, err := s.ClearPantry(ctx, user)
			if err != nil || n != 2 {
				t.Errorf("ClearPantry() = %d, %v; want 2", n, err)
			}
			if ids, _ := s.PantryIngredientIDs(ctx, 2); len(ids) != 1 {
				t.Errorf("user 2 pantry = %v, want untouched", ids.Sorted())
			}

			for _, rid := range []uint{10, 11} {
				if _, err := s.AddFavorite(ctx, user, rid); err != nil {
					t.Fatalf("AddFavorite(%d) error = %v", rid, err)
				}
			}
			if n, err := s.ClearFavorites(ctx, user); err != nil || n != 2 {
				t.Errorf("ClearFavorites() = %d, %v; want 2", n, err)
			}
			if n, _ := s.ClearFavorites(ctx, user); n != 0 {
				t.Errorf("second ClearFavorites() = %d, want 0", n)
			}
		})
	}
}
