package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/plateful/backend/internal/model"
	"github.com/plateful/backend/internal/service"
)

// pageResponse wraps any paginated listing.
type pageResponse struct {
	Count   int64       `json:"count"`
	Results interface{} `json:"results"`
}

type userView struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
	Avatar       string    `json:"avatar"`
}

type recipeIngredientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

type recipeView struct {
	ID               uuid.UUID              `json:"id"`
	Tags             []model.Tag            `json:"tags"`
	Author           userView               `json:"author"`
	Ingredients      []recipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// recipeSummary is the short recipe form used by membership toggles and
// subscription previews.
type recipeSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

type subscriptionView struct {
	userView
	Recipes      []recipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}

func newRecipeSummary(r *model.Recipe) recipeSummary {
	return recipeSummary{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.ImageURL,
		CookingTime: r.CookingTime,
	}
}

// newUserView renders a user with the requester-relative is_subscribed flag;
// anonymous requesters always see false.
func newUserView(ctx context.Context, users *service.UserService, requester *uuid.UUID, u *model.User) (userView, error) {
	view := userView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.AvatarURL,
	}
	if requester != nil {
		subscribed, err := users.IsSubscribed(ctx, *requester, u.ID)
		if err != nil {
			return view, err
		}
		view.IsSubscribed = subscribed
	}
	return view, nil
}

// newRecipeView renders a recipe with its requester-relative flags; both are
// false for anonymous requests, never an error.
func newRecipeView(ctx context.Context, recipes *service.RecipeService, users *service.UserService, requester *uuid.UUID, r *model.Recipe) (recipeView, error) {
	author, err := newUserView(ctx, users, requester, &r.Author)
	if err != nil {
		return recipeView{}, err
	}

	ingredients := make([]recipeIngredientView, len(r.Ingredients))
	for i, line := range r.Ingredients {
		ingredients[i] = recipeIngredientView{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		}
	}

	view := recipeView{
		ID:          r.ID,
		Tags:        r.Tags,
		Author:      author,
		Ingredients: ingredients,
		Name:        r.Name,
		Image:       r.ImageURL,
		Text:        r.Text,
		CookingTime: r.CookingTime,
	}
	if view.Tags == nil {
		view.Tags = []model.Tag{}
	}

	if requester != nil {
		if view.IsFavorited, err = recipes.IsFavorited(ctx, *requester, r.ID); err != nil {
			return view, err
		}
		if view.IsInShoppingCart, err = recipes.IsInShoppingCart(ctx, *requester, r.ID); err != nil {
			return view, err
		}
	}
	return view, nil
}
