package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plateful/backend/internal/service"
)

func TestCreateRecipeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")
	tag := env.seedTag(t, "breakfast")
	flour := env.seedIngredient(t, "flour", "g")

	w := env.request(t, http.MethodPost, "/api/v1/recipes", token, map[string]interface{}{
		"name":         "pancakes",
		"text":         "mix and fry",
		"cooking_time": 15,
		"tags":         []uuid.UUID{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": flour.ID, "amount": 200},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp recipeView
	decodeJSON(t, w, &resp)
	assert.Equal(t, "pancakes", resp.Name)
	assert.Equal(t, "alice", resp.Author.Username)
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, "flour", resp.Ingredients[0].Name)
	assert.Equal(t, "g", resp.Ingredients[0].MeasurementUnit)
	assert.Equal(t, 200, resp.Ingredients[0].Amount)
	require.Len(t, resp.Tags, 1)
	assert.Equal(t, "breakfast", resp.Tags[0].Slug)
}

func TestCreateRecipeEndpointRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/v1/recipes", "", map[string]interface{}{
		"name": "pancakes",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRecipeEndpointValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "alice")
	flour := env.seedIngredient(t, "flour", "g")

	// No tags at all.
	w := env.request(t, http.MethodPost, "/api/v1/recipes", token, map[string]interface{}{
		"name":         "pancakes",
		"text":         "mix",
		"cooking_time": 15,
		"ingredients": []map[string]interface{}{
			{"id": flour.ID, "amount": 200},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	decodeJSON(t, w, &resp)
	assert.Contains(t, resp, "tags")
}

func TestGetRecipeEndpointAnonymous(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.registerUser(t, "alice")
	salt := env.seedIngredient(t, "salt", "g")
	recipe := env.seedRecipe(t, author, "broth", service.IngredientAmount{ID: salt.ID, Amount: 5})

	w := env.request(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp recipeView
	decodeJSON(t, w, &resp)
	assert.Equal(t, recipe.ID, resp.ID)
	assert.False(t, resp.IsFavorited)
	assert.False(t, resp.IsInShoppingCart)
	assert.False(t, resp.Author.IsSubscribed)
}

func TestGetRecipeEndpointNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/v1/recipes/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/recipes/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRecipeEndpointForbidden(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.registerUser(t, "alice")
	_, otherToken := env.registerUser(t, "bob")
	salt := env.seedIngredient(t, "salt", "g")
	tag := env.seedTag(t, "dinner")
	recipe := env.seedRecipe(t, author, "broth", service.IngredientAmount{ID: salt.ID, Amount: 5})

	body := map[string]interface{}{
		"name":         "rich broth",
		"text":         "simmer longer",
		"cooking_time": 90,
		"tags":         []uuid.UUID{tag.ID},
		"ingredients": []map[string]interface{}{
			{"id": salt.ID, "amount": 10},
		},
	}

	w := env.request(t, http.MethodPatch, "/api/v1/recipes/"+recipe.ID.String(), otherToken, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Staff can edit anyone's recipe.
	_, staffToken := env.registerStaff(t, "admin")
	w = env.request(t, http.MethodPatch, "/api/v1/recipes/"+recipe.ID.String(), staffToken, body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDeleteRecipeEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author, token := env.registerUser(t, "alice")
	salt := env.seedIngredient(t, "salt", "g")
	recipe := env.seedRecipe(t, author, "broth", service.IngredientAmount{ID: salt.ID, Amount: 5})

	w := env.request(t, http.MethodDelete, "/api/v1/recipes/"+recipe.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRecipesEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.registerUser(t, "alice")
	bob, _ := env.registerUser(t, "bob")
	salt := env.seedIngredient(t, "salt", "g")
	soup := env.seedRecipe(t, alice, "soup", service.IngredientAmount{ID: salt.ID, Amount: 1})
	env.seedRecipe(t, bob, "stew", service.IngredientAmount{ID: salt.ID, Amount: 2})

	t.Run("all", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/recipes", "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count   int64        `json:"count"`
			Results []recipeView `json:"results"`
		}
		decodeJSON(t, w, &resp)
		assert.EqualValues(t, 2, resp.Count)
		assert.Len(t, resp.Results, 2)
	})

	t.Run("by author", func(t *testing.T) {
		w := env.request(t, http.MethodGet, "/api/v1/recipes?author="+alice.ID.String(), "", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Count   int64        `json:"count"`
			Results []recipeView `json:"results"`
		}
		decodeJSON(t, w, &resp)
		assert.EqualValues(t, 1, resp.Count)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "soup", resp.Results[0].Name)
	})

	t.Run("favorited filter needs auth to bite", func(t *testing.T) {
		w := env.request(t, http.MethodPost, "/api/v1/recipes/"+soup.ID.String()+"/favorite", aliceToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)

		w = env.request(t, http.MethodGet, "/api/v1/recipes?is_favorited=1", aliceToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Count int64 `json:"count"`
		}
		decodeJSON(t, w, &resp)
		assert.EqualValues(t, 1, resp.Count)

		// Anonymous callers get the unfiltered listing.
		w = env.request(t, http.MethodGet, "/api/v1/recipes?is_favorited=1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		decodeJSON(t, w, &resp)
		assert.EqualValues(t, 2, resp.Count)
	})
}

func TestFavoriteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.registerUser(t, "alice")
	_, token := env.registerUser(t, "bob")
	salt := env.seedIngredient(t, "salt", "g")
	recipe := env.seedRecipe(t, author, "broth", service.IngredientAmount{ID: salt.ID, Amount: 5})

	path := "/api/v1/recipes/" + recipe.ID.String() + "/favorite"

	w := env.request(t, http.MethodPost, path, token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp recipeSummary
	decodeJSON(t, w, &resp)
	assert.Equal(t, recipe.ID, resp.ID)
	assert.Equal(t, "broth", resp.Name)

	// Second add is rejected.
	w = env.request(t, http.MethodPost, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Removing again is an error, not a no-op.
	w = env.request(t, http.MethodDelete, path, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShortLinkEndpoints(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.registerUser(t, "alice")
	salt := env.seedIngredient(t, "salt", "g")
	recipe := env.seedRecipe(t, author, "broth", service.IngredientAmount{ID: salt.ID, Amount: 5})

	w := env.request(t, http.MethodGet, "/api/v1/recipes/"+recipe.ID.String()+"/get-link", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	decodeJSON(t, w, &resp)
	link := resp["short-link"]
	expected := fmt.Sprintf("https://plateful.example.com/recipes/s/%s", recipe.ShortLink)
	assert.Equal(t, expected, link)

	code := link[strings.LastIndex(link, "/")+1:]
	w = env.request(t, http.MethodGet, "/api/v1/recipes/s/"+code, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view recipeView
	decodeJSON(t, w, &view)
	assert.Equal(t, recipe.ID, view.ID)
}

func TestDownloadShoppingCartEndpoint(t *testing.T) {
	env := newTestEnv(t)
	author, _ := env.registerUser(t, "alice")
	_, token := env.registerUser(t, "bob")
	flour := env.seedIngredient(t, "flour", "g")
	recipe := env.seedRecipe(t, author, "bread", service.IngredientAmount{ID: flour.ID, Amount: 500})

	w := env.request(t, http.MethodPost, "/api/v1/recipes/"+recipe.ID.String()+"/shopping_cart", token, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ingredients_list.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	// Anonymous download is rejected.
	w = env.request(t, http.MethodGet, "/api/v1/recipes/download_shopping_cart", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
