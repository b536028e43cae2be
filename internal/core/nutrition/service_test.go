package nutrition

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"
)

const (
	eggID    = 1
	flourID  = 2
	saltID   = 3
	butterID = 4
	recipeID = 10
)

func newFixture(t *testing.T) *catalog.Memory {
	t.Helper()
	ctx := context.Background()
	m := catalog.NewMemory()

	for _, ing := range []catalog.Ingredient{
		{ID: eggID, Name: "egg", Category: catalog.CategoryOther, Unit: "piece"},
		{ID: flourID, Name: "flour", Category: catalog.CategoryGrain, Unit: "cup"},
		{ID: saltID, Name: "salt", Category: catalog.CategorySpice, Unit: "tsp"},
		{ID: butterID, Name: "butter", Category: catalog.CategoryDairy, Unit: "tbsp"},
	} {
		if err := m.PutIngredient(ctx, ing); err != nil {
			t.Fatalf("PutIngredient(%s) error = %v", ing.Name, err)
		}
	}

	profiles := map[uint]catalog.Profile{
		eggID: catalog.PerUnit{Nutrients: catalog.Nutrients{
			Calories: dec("70"), Protein: dec("6"), Fat: dec("5"),
		}},
		flourID: catalog.PerHundredGrams{
			Nutrients: catalog.Nutrients{
				Calories: dec("50"), Protein: dec("10"), Carbs: dec("76"), Fat: dec("1"), Fiber: dec("3"),
			},
			GramsPerCup: nullDec("120"),
		},
		// 沒有湯匙換算係數
		butterID: catalog.PerHundredGrams{Nutrients: catalog.Nutrients{Calories: dec("717"), Fat: dec("81")}},
	}
	for id, p := range profiles {
		if err := m.SaveNutrition(ctx, id, p); err != nil {
			t.Fatalf("SaveNutrition(%d) error = %v", id, err)
		}
	}

	items := []catalog.RecipeIngredient{
		{Ingredient: catalog.Ingredient{ID: eggID}, Quantity: dec("3"), Unit: "piece"},
		{Ingredient: catalog.Ingredient{ID: flourID}, Quantity: dec("2"), Unit: "cups"},
		{Ingredient: catalog.Ingredient{ID: saltID}, Quantity: dec("1"), Unit: "tsp"},
		{Ingredient: catalog.Ingredient{ID: butterID}, Quantity: dec("1"), Unit: "tbsp"},
	}
	r := catalog.Recipe{ID: recipeID, Title: "Pancakes", Servings: 2}
	if err := m.PutRecipe(ctx, r, items); err != nil {
		t.Fatalf("PutRecipe() error = %v", err)
	}
	return m
}

func TestComputeSummary(t *testing.T) {
	t.Parallel()
	svc := NewService(newFixture(t), nil)

	got, err := svc.Compute(context.Background(), recipeID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	want := &Summary{
		RecipeID:           recipeID,
		RecipeTitle:        "Pancakes",
		TotalCalories:      330,
		TotalProtein:       42,
		TotalCarbs:         182.4,
		TotalFat:           17.4,
		TotalFiber:         7.2,
		CaloriesPerServing: 165,
		ProteinPerServing:  21,
		CarbsPerServing:    91.2,
		FatPerServing:      8.7,
		FiberPerServing:    3.6,
		Servings:           2,
		ProteinPercentage:  15.9,
		CarbsPercentage:    69.2,
		FatPercentage:      14.9,
		IngredientsWithoutNutrition: []string{
			"salt",
			"butter (unable to convert tbsp to grams)",
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compute() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestComputeUnknownRecipe(t *testing.T) {
	t.Parallel()
	svc := NewService(newFixture(t), nil)

	_, err := svc.Compute(context.Background(), 999)
	if !errors.Is(err, common.ErrRecipeNotFound) {
		t.Fatalf("Compute() error = %v, want ErrRecipeNotFound", err)
	}
}

func TestAggregateWorkedExamples(t *testing.T) {
	t.Parallel()

	recipe := catalog.Recipe{ID: 1, Servings: 1}
	egg := catalog.Ingredient{ID: 1, Name: "egg"}
	rice := catalog.Ingredient{ID: 2, Name: "rice"}

	tests := []struct {
		name     string
		item     catalog.RecipeIngredient
		profile  catalog.Profile
		calories float64
	}{
		{
			name:     "per unit ignores unit string",
			item:     catalog.RecipeIngredient{Ingredient: egg, Quantity: dec("3"), Unit: "handful"},
			profile:  catalog.PerUnit{Nutrients: catalog.Nutrients{Calories: dec("70")}},
			calories: 210,
		},
		{
			name: "per 100g through cup factor",
			item: catalog.RecipeIngredient{Ingredient: rice, Quantity: dec("2"), Unit: "cups"},
			profile: catalog.PerHundredGrams{
				Nutrients:   catalog.Nutrients{Calories: dec("50")},
				GramsPerCup: nullDec("120"),
			},
			calories: 120,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(recipe, []catalog.RecipeIngredient{tt.item},
				map[uint]catalog.Profile{tt.item.Ingredient.ID: tt.profile})
			if got.TotalCalories != tt.calories {
				t.Errorf("TotalCalories = %v, want %v", got.TotalCalories, tt.calories)
			}
			if len(got.IngredientsWithoutNutrition) != 0 {
				t.Errorf("unresolved = %v, want none", got.IngredientsWithoutNutrition)
			}
		})
	}
}

func TestAggregateIsLinear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newFixture(t)

	recipe, _ := m.Recipe(ctx, recipeID)
	items, _ := m.RecipeIngredients(ctx, recipeID)
	profiles := make(map[uint]catalog.Profile)
	for _, it := range items {
		if n, err := m.Nutrition(ctx, it.Ingredient.ID); err == nil {
			profiles[it.Ingredient.ID] = n.Profile
		}
	}

	doubled := make([]catalog.RecipeIngredient, len(items))
	for i, it := range items {
		it.Quantity = it.Quantity.Mul(dec("2"))
		doubled[i] = it
	}

	base := Aggregate(*recipe, items, profiles)
	twice := Aggregate(*recipe, doubled, profiles)

	pairs := map[string][2]float64{
		"calories": {base.TotalCalories, twice.TotalCalories},
		"protein":  {base.TotalProtein, twice.TotalProtein},
		"carbs":    {base.TotalCarbs, twice.TotalCarbs},
		"fat":      {base.TotalFat, twice.TotalFat},
		"fiber":    {base.TotalFiber, twice.TotalFiber},
	}
	for name, p := range pairs {
		if math.Abs(p[0]*2-p[1]) > 0.01 {
			t.Errorf("%s: doubled total = %v, want %v", name, p[1], p[0]*2)
		}
	}
	if base.ProteinPercentage != twice.ProteinPercentage {
		t.Errorf("protein percentage changed: %v vs %v", base.ProteinPercentage, twice.ProteinPercentage)
	}
}

func TestAggregateServingsAndMacros(t *testing.T) {
	t.Parallel()

	ing := catalog.Ingredient{ID: 1, Name: "oats"}
	profiles := map[uint]catalog.Profile{1: catalog.PerHundredGrams{
		Nutrients: catalog.Nutrients{
			Calories: dec("389"), Protein: dec("16.9"), Carbs: dec("66.3"), Fat: dec("6.9"), Fiber: dec("10.6"),
		},
	}}
	items := []catalog.RecipeIngredient{{Ingredient: ing, Quantity: dec("300"), Unit: "g"}}

	tests := []struct {
		name     string
		servings int
		want     int
	}{
		{"three servings", 3, 3},
		{"zero servings floors to one", 0, 1},
		{"negative servings floors to one", -2, 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(catalog.Recipe{Servings: tt.servings}, items, profiles)
			if got.Servings != tt.want {
				t.Fatalf("Servings = %d, want %d", got.Servings, tt.want)
			}
			if diff := math.Abs(got.CaloriesPerServing*float64(tt.want) - got.TotalCalories); diff > 0.01*float64(tt.want) {
				t.Errorf("per serving %v × %d != total %v", got.CaloriesPerServing, tt.want, got.TotalCalories)
			}
			sum := got.ProteinPercentage + got.CarbsPercentage + got.FatPercentage
			if math.Abs(sum-100) > 0.2 {
				t.Errorf("macro percentages sum = %v, want ≈100", sum)
			}
		})
	}
}

func TestAggregateWithoutMacros(t *testing.T) {
	t.Parallel()

	ing := catalog.Ingredient{ID: 1, Name: "water"}
	profiles := map[uint]catalog.Profile{1: catalog.PerHundredGrams{}}
	got := Aggregate(catalog.Recipe{Servings: 1},
		[]catalog.RecipeIngredient{{Ingredient: ing, Quantity: dec("1"), Unit: "l"}}, profiles)

	if got.ProteinPercentage != 0 || got.CarbsPercentage != 0 || got.FatPercentage != 0 {
		t.Errorf("percentages = %v/%v/%v, want 0/0/0",
			got.ProteinPercentage, got.CarbsPercentage, got.FatPercentage)
	}
	if got.IngredientsWithoutNutrition == nil {
		t.Error("IngredientsWithoutNutrition is nil, want empty list")
	}
}

func TestComputeUsesCacheUntilInvalidated(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := newFixture(t)
	store := cache.NewManager(config.CacheConfig{Enabled: true, MaxSize: 10, TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })
	svc := NewService(m, store)

	first, err := svc.Compute(ctx, recipeID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	salt := catalog.PerHundredGrams{GramsPerTsp: nullDec("6")}
	if err := m.SaveNutrition(ctx, saltID, salt); err != nil {
		t.Fatalf("SaveNutrition() error = %v", err)
	}

	cached, err := svc.Compute(ctx, recipeID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if !reflect.DeepEqual(first, cached) {
		t.Fatalf("cached summary differs:\n%+v\n%+v", first, cached)
	}

	if err := svc.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	fresh, err := svc.Compute(ctx, recipeID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	want := []string{"butter (unable to convert tbsp to grams)"}
	if !reflect.DeepEqual(fresh.IngredientsWithoutNutrition, want) {
		t.Errorf("unresolved = %v, want %v", fresh.IngredientsWithoutNutrition, want)
	}
}
