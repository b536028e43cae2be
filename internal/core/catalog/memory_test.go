package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestMemory(t *testing.T) *Memory {
	t.Helper()
	ctx := context.Background()
	m := NewMemory()
	if err := m.PutUser(ctx, User{ID: 1, Username: "alice"}); err != nil {
		t.Fatal(err)
	}
	for _, ing := range []Ingredient{
		{ID: 1, Name: "flour", Category: CategoryGrain, Unit: "g"},
		{ID: 2, Name: "egg", Category: CategoryDairy},
	} {
		if err := m.PutIngredient(ctx, ing); err != nil {
			t.Fatal(err)
		}
	}
	return m
}

func TestMemoryPutRecipeKeepsCallerItems(t *testing.T) {
	t.Parallel()
	m := newTestMemory(t)
	ctx := context.Background()

	items := []RecipeIngredient{
		{Ingredient: Ingredient{ID: 1}, Quantity: decimal.NewFromInt(200), Unit: "g"},
		{Ingredient: Ingredient{ID: 2}, Quantity: decimal.NewFromInt(2), Unit: "piece"},
	}
	if err := m.PutRecipe(ctx, Recipe{ID: 7, Title: "pancake"}, items); err != nil {
		t.Fatalf("PutRecipe() error = %v", err)
	}
	for i, it := range items {
		if it.RecipeID != 0 || it.Ingredient.Name != "" {
			t.Errorf("items[%d] = %+v, want caller slice untouched", i, it)
		}
	}

	stored, err := m.RecipeIngredients(ctx, 7)
	if err != nil || len(stored) != 2 || stored[0].Ingredient.Name != "flour" || stored[0].RecipeID != 7 {
		t.Errorf("RecipeIngredients() = %+v, %v", stored, err)
	}

	bad := []RecipeIngredient{
		{Ingredient: Ingredient{ID: 1}, Quantity: decimal.NewFromInt(1)},
		{Ingredient: Ingredient{ID: 99}, Quantity: decimal.NewFromInt(1)},
	}
	if err := m.PutRecipe(ctx, Recipe{ID: 8, Title: "broken"}, bad); !errors.Is(err, ErrNotFound) {
		t.Fatalf("PutRecipe(unknown ingredient) error = %v, want ErrNotFound", err)
	}
	if bad[0].RecipeID != 0 || bad[0].Ingredient.Name != "" {
		t.Errorf("bad[0] = %+v, want caller slice untouched after error", bad[0])
	}
}

func TestMemoryRejectsNegativeValues(t *testing.T) {
	t.Parallel()
	m := newTestMemory(t)
	ctx := context.Background()

	items := []RecipeIngredient{{Ingredient: Ingredient{ID: 1}, Quantity: decimal.NewFromInt(-200), Unit: "g"}}
	if err := m.PutRecipe(ctx, Recipe{ID: 1, Title: "x"}, items); !errors.Is(err, ErrInvalid) {
		t.Errorf("PutRecipe(negative quantity) error = %v, want ErrInvalid", err)
	}
	if _, err := m.Recipe(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Recipe(1) error = %v, want nothing stored", err)
	}

	profile := PerHundredGrams{Nutrients: Nutrients{Calories: decimal.NewFromInt(-50)}}
	if err := m.SaveNutrition(ctx, 1, profile); !errors.Is(err, ErrInvalid) {
		t.Errorf("SaveNutrition(negative calories) error = %v, want ErrInvalid", err)
	}
	if err := m.SaveNutrition(ctx, 1, nil); !errors.Is(err, ErrInvalid) {
		t.Errorf("SaveNutrition(nil) error = %v, want ErrInvalid", err)
	}
}

func TestMemoryRecipeLifecycle(t *testing.T) {
	t.Parallel()
	m := newTestMemory(t)
	ctx := context.Background()

	if err := m.PutRecipe(ctx, Recipe{ID: 5, Title: "seeded", CreatedBy: User{ID: 1}}, nil); err != nil {
		t.Fatal(err)
	}
	id, err := m.CreateRecipe(ctx, Recipe{ID: 1, Title: "omelette", CreatedBy: User{ID: 1}},
		[]RecipeIngredient{{Ingredient: Ingredient{ID: 2}, Quantity: decimal.NewFromInt(3)}})
	if err != nil {
		t.Fatalf("CreateRecipe() error = %v", err)
	}
	if id != 6 {
		t.Errorf("CreateRecipe() id = %d, want 6", id)
	}

	mine, err := m.Recipes(ctx, RecipeFilter{CreatedBy: 1})
	if err != nil || len(mine) != 2 {
		t.Errorf("Recipes(CreatedBy=1) = %d, %v; want 2", len(mine), err)
	}
	if none, _ := m.Recipes(ctx, RecipeFilter{CreatedBy: 2}); len(none) != 0 {
		t.Errorf("Recipes(CreatedBy=2) = %d, want 0", len(none))
	}

	if _, err := m.AddFavorite(ctx, 1, id); err != nil {
		t.Fatal(err)
	}
	if err := m.DeleteRecipe(ctx, id); err != nil {
		t.Fatalf("DeleteRecipe() error = %v", err)
	}
	if favs, _ := m.Favorites(ctx, 1); len(favs) != 0 {
		t.Errorf("Favorites() after delete = %d, want 0", len(favs))
	}
	if err := m.DeleteRecipe(ctx, id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteRecipe() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryPantryUpdateAndClear(t *testing.T) {
	t.Parallel()
	m := newTestMemory(t)
	ctx := context.Background()

	if _, err := m.UpdatePantryItem(ctx, 1, 1, decimal.NullDecimal{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdatePantryItem(missing) error = %v, want ErrNotFound", err)
	}
	for _, id := range []uint{1, 2} {
		if _, err := m.AddPantryItem(ctx, 1, id, decimal.NullDecimal{}); err != nil {
			t.Fatal(err)
		}
	}
	item, err := m.UpdatePantryItem(ctx, 1, 1, decimal.NewNullDecimal(decimal.NewFromInt(500)))
	if err != nil || item.Ingredient.Name != "flour" || !item.Quantity.Decimal.Equal(decimal.NewFromInt(500)) {
		t.Errorf("UpdatePantryItem() = %+v, %v", item, err)
	}

	n, err := m.ClearPantry(ctx, 1)
	if err != nil || n != 2 {
		t.Errorf("ClearPantry() = %d, %v; want 2", n, err)
	}
	if n, _ := m.ClearPantry(ctx, 1); n != 0 {
		t.Errorf("second ClearPantry() = %d, want 0", n)
	}
	if n, _ := m.ClearFavorites(ctx, 1); n != 0 {
		t.Errorf("ClearFavorites() = %d, want 0", n)
	}
}
