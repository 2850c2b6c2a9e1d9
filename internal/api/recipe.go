package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/model"
	"github.com/plateful/backend/internal/service"
)

type RecipeHandler struct {
	recipeService       *service.RecipeService
	userService         *service.UserService
	shoppingListService *service.ShoppingListService
	authService         *service.AuthService
	imageService        *service.ImageService
	baseURL             string
	rateLimiter         *middleware.RateLimiter
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	userService *service.UserService,
	shoppingListService *service.ShoppingListService,
	authService *service.AuthService,
	imageService *service.ImageService,
	baseURL string,
	rateLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:       recipeService,
		userService:         userService,
		shoppingListService: shoppingListService,
		authService:         authService,
		imageService:        imageService,
		baseURL:             baseURL,
		rateLimiter:         rateLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := gin.HandlersChain{middleware.AuthMiddleware(h.authService)}
	if h.rateLimiter != nil {
		auth = append(auth, h.rateLimiter.RateLimitMiddleware())
	}
	optional := middleware.OptionalAuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.GET("/download_shopping_cart", append(auth, h.DownloadShoppingCart)...)
		recipes.GET("/s/:code", optional, h.GetRecipeByShortLink)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.GET("/:id/get-link", h.GetLink)
		recipes.POST("", append(auth, h.CreateRecipe)...)
		recipes.PATCH("/:id", append(auth, h.UpdateRecipe)...)
		recipes.DELETE("/:id", append(auth, h.DeleteRecipe)...)
		recipes.POST("/:id/favorite", append(auth, h.FavoriteRecipe)...)
		recipes.DELETE("/:id/favorite", append(auth, h.UnfavoriteRecipe)...)
		recipes.POST("/:id/shopping_cart", append(auth, h.AddToShoppingCart)...)
		recipes.DELETE("/:id/shopping_cart", append(auth, h.RemoveFromShoppingCart)...)
	}
}

// RecipeIngredientRequest is one (ingredient id, amount) pair in a create or
// update payload.
type RecipeIngredientRequest struct {
	ID     uuid.UUID `json:"id" binding:"required"`
	Amount int       `json:"amount" binding:"required"`
}

type RecipeRequest struct {
	Name        string                    `json:"name" binding:"required"`
	Text        string                    `json:"text" binding:"required"`
	Image       string                    `json:"image"`
	CookingTime int                       `json:"cooking_time" binding:"required"`
	Tags        []uuid.UUID               `json:"tags"`
	Ingredients []RecipeIngredientRequest `json:"ingredients"`
}

func (h *RecipeHandler) recipeInput(c *gin.Context, req *RecipeRequest) (service.RecipeInput, error) {
	imageURL := req.Image
	if imageURL != "" && h.imageService.Enabled() {
		stored, err := h.imageService.StoreBase64(c.Request.Context(), req.Image, "recipes")
		if err != nil {
			return service.RecipeInput{}, err
		}
		imageURL = stored
	}

	ingredients := make([]service.IngredientAmount, len(req.Ingredients))
	for i, item := range req.Ingredients {
		ingredients[i] = service.IngredientAmount{ID: item.ID, Amount: item.Amount}
	}
	return service.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		ImageURL:    imageURL,
		CookingTime: req.CookingTime,
		TagIDs:      req.Tags,
		Ingredients: ingredients,
	}, nil
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	page, limit := parsePagination(c)
	filter := service.RecipeFilter{
		Page:     page,
		Limit:    limit,
		TagSlugs: c.QueryArray("tags"),
	}
	if author := c.Query("author"); author != "" {
		authorID, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}

	// The favorited / in-cart filters are requester-relative and silently
	// inert for anonymous callers.
	requester := requesterID(c)
	if requester != nil {
		if c.Query("is_favorited") == "1" {
			filter.FavoritedBy = requester
		}
		if c.Query("is_in_shopping_cart") == "1" {
			filter.InCartOf = requester
		}
	}

	recipes, total, err := h.recipeService.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]recipeView, len(recipes))
	for i := range recipes {
		view, err := newRecipeView(c.Request.Context(), h.recipeService, h.userService, requester, &recipes[i])
		if err != nil {
			respondError(c, err)
			return
		}
		views[i] = view
	}
	c.JSON(http.StatusOK, pageResponse{Count: total, Results: views})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) GetRecipeByShortLink(c *gin.Context) {
	recipe, err := h.recipeService.GetRecipeByShortLink(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"short-link": fmt.Sprintf("%s/recipes/s/%s", h.baseURL, recipe.ShortLink),
	})
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := h.recipeInput(c, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), *requesterID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input, err := h.recipeInput(c, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), requesterClaims(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), requesterClaims(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) FavoriteRecipe(c *gin.Context) {
	h.addMembership(c, h.recipeService.Favorite)
}

func (h *RecipeHandler) UnfavoriteRecipe(c *gin.Context) {
	h.removeMembership(c, h.recipeService.Unfavorite)
}

func (h *RecipeHandler) AddToShoppingCart(c *gin.Context) {
	h.addMembership(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromShoppingCart(c *gin.Context) {
	h.removeMembership(c, h.recipeService.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	list, err := h.shoppingListService.Aggregate(c.Request.Context(), *requesterID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	pdfBytes, err := h.shoppingListService.RenderPDF(list)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="ingredients_list.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *RecipeHandler) addMembership(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*model.Recipe, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	recipe, err := add(c.Request.Context(), *requesterID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeSummary(recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid recipe id"})
		return
	}

	if err := remove(c.Request.Context(), *requesterID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) respondRecipe(c *gin.Context, status int, recipe *model.Recipe) {
	view, err := newRecipeView(c.Request.Context(), h.recipeService, h.userService, requesterID(c), recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, view)
}
