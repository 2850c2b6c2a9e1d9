package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingListAggregate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	buyer := createTestUser(t, db, "buyer")

	flour := createTestIngredient(t, db, "flour", "g")
	egg := createTestIngredient(t, db, "egg", "pcs")
	sugar := createTestIngredient(t, db, "sugar", "g")

	pancakes := createTestRecipe(t, db, author, "pancakes",
		IngredientAmount{ID: flour.ID, Amount: 200},
		IngredientAmount{ID: egg.ID, Amount: 2},
	)
	cookies := createTestRecipe(t, db, author, "cookies",
		IngredientAmount{ID: flour.ID, Amount: 100},
		IngredientAmount{ID: sugar.ID, Amount: 50},
	)

	recipes := NewRecipeService(db)
	_, err := recipes.AddToCart(ctx, buyer.ID, pancakes.ID)
	require.NoError(t, err)
	_, err = recipes.AddToCart(ctx, buyer.ID, cookies.ID)
	require.NoError(t, err)

	lists := NewShoppingListService(db)
	totals, err := lists.Aggregate(ctx, buyer.ID)
	require.NoError(t, err)

	assert.Equal(t, []IngredientTotal{
		{Name: "egg", MeasurementUnit: "pcs", TotalAmount: 2},
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 300},
		{Name: "sugar", MeasurementUnit: "g", TotalAmount: 50},
	}, totals)
}

func TestShoppingListAggregateEmptyCart(t *testing.T) {
	db := setupTestDB(t)

	buyer := createTestUser(t, db, "buyer")
	totals, err := NewShoppingListService(db).Aggregate(context.Background(), buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

func TestShoppingListAggregateIsFreshEachCall(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	buyer := createTestUser(t, db, "buyer")
	salt := createTestIngredient(t, db, "salt", "g")
	soup := createTestRecipe(t, db, author, "soup",
		IngredientAmount{ID: salt.ID, Amount: 5})

	recipes := NewRecipeService(db)
	lists := NewShoppingListService(db)

	_, err := recipes.AddToCart(ctx, buyer.ID, soup.ID)
	require.NoError(t, err)

	totals, err := lists.Aggregate(ctx, buyer.ID)
	require.NoError(t, err)
	require.Len(t, totals, 1)

	require.NoError(t, recipes.RemoveFromCart(ctx, buyer.ID, soup.ID))

	totals, err = lists.Aggregate(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Empty(t, totals)
}

// Lines are grouped by name alone, so two ingredient rows sharing a name but
// not a unit still merge, keeping the unit of the line added first.
func TestShoppingListAggregateMergesByNameOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	author := createTestUser(t, db, "author")
	buyer := createTestUser(t, db, "buyer")

	milkML := createTestIngredient(t, db, "milk", "ml")
	milkCups := createTestIngredient(t, db, "milk", "cups")

	porridge := createTestRecipe(t, db, author, "porridge",
		IngredientAmount{ID: milkML.ID, Amount: 250})
	latte := createTestRecipe(t, db, author, "latte",
		IngredientAmount{ID: milkCups.ID, Amount: 1})

	recipes := NewRecipeService(db)
	_, err := recipes.AddToCart(ctx, buyer.ID, porridge.ID)
	require.NoError(t, err)
	_, err = recipes.AddToCart(ctx, buyer.ID, latte.ID)
	require.NoError(t, err)

	totals, err := NewShoppingListService(db).Aggregate(ctx, buyer.ID)
	require.NoError(t, err)

	require.Len(t, totals, 1)
	assert.Equal(t, "milk", totals[0].Name)
	assert.Equal(t, "ml", totals[0].MeasurementUnit)
	assert.Equal(t, 251, totals[0].TotalAmount)
}

func TestShoppingListRenderPDF(t *testing.T) {
	lists := NewShoppingListService(nil)

	out, err := lists.RenderPDF([]IngredientTotal{
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 300},
		{Name: "sugar", MeasurementUnit: "g", TotalAmount: 50},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
	assert.NotEmpty(t, out)
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"flour", "Flour"},
		{"мука", "Мука"},
		{"œuf", "Œuf"},
		{"Sugar", "Sugar"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, capitalize(tc.in))
	}
}

func TestShoppingListRenderPDFEmptyList(t *testing.T) {
	out, err := NewShoppingListService(nil).RenderPDF(nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
