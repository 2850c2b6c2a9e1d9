package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/model"
	"github.com/plateful/backend/internal/service"
)

type UserHandler struct {
	userService  *service.UserService
	authService  *service.AuthService
	imageService *service.ImageService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService, imageService *service.ImageService) *UserHandler {
	return &UserHandler{
		userService:  userService,
		authService:  authService,
		imageService: imageService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuthMiddleware(h.authService)

	users := router.Group("/users")
	{
		users.GET("", optional, h.ListUsers)
		users.GET("/me", auth, h.Me)
		users.PUT("/me/avatar", auth, h.UpdateAvatar)
		users.DELETE("/me/avatar", auth, h.RemoveAvatar)
		users.GET("/subscriptions", auth, h.Subscriptions)
		users.GET("/:id", optional, h.GetUser)
		users.POST("/:id/subscribe", auth, h.Subscribe)
		users.DELETE("/:id/subscribe", auth, h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.userService.ListUsers(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	requester := requesterID(c)
	views := make([]userView, len(users))
	for i := range users {
		view, err := newUserView(c.Request.Context(), h.userService, requester, &users[i])
		if err != nil {
			respondError(c, err)
			return
		}
		views[i] = view
	}
	c.JSON(http.StatusOK, pageResponse{Count: total, Results: views})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := newUserView(c.Request.Context(), h.userService, requesterID(c), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *UserHandler) Me(c *gin.Context) {
	requester := requesterID(c)
	user, err := h.userService.GetUser(c.Request.Context(), *requester)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := newUserView(c.Request.Context(), h.userService, requester, user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type AvatarRequest struct {
	Avatar string `json:"avatar" binding:"required"`
}

func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	var req AvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	avatarURL := req.Avatar
	if h.imageService.Enabled() {
		stored, err := h.imageService.StoreBase64(c.Request.Context(), req.Avatar, "avatars")
		if err != nil {
			respondError(c, err)
			return
		}
		avatarURL = stored
	}

	user, err := h.userService.UpdateAvatar(c.Request.Context(), *requesterID(c), avatarURL)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": user.AvatarURL})
}

func (h *UserHandler) RemoveAvatar(c *gin.Context) {
	if err := h.userService.RemoveAvatar(c.Request.Context(), *requesterID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	target, err := h.userService.Follow(c.Request.Context(), *requesterID(c), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.subscriptionView(c, target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.userService.Unfollow(c.Request.Context(), *requesterID(c), targetID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	page, limit := parsePagination(c)
	followed, total, err := h.userService.Subscriptions(c.Request.Context(), *requesterID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]subscriptionView, len(followed))
	for i := range followed {
		view, err := h.subscriptionView(c, &followed[i])
		if err != nil {
			respondError(c, err)
			return
		}
		views[i] = view
	}
	c.JSON(http.StatusOK, pageResponse{Count: total, Results: views})
}

// subscriptionView renders a followed user with a recent-recipes preview,
// optionally capped by the recipes_limit query parameter.
func (h *UserHandler) subscriptionView(c *gin.Context, target *model.User) (subscriptionView, error) {
	base, err := newUserView(c.Request.Context(), h.userService, requesterID(c), target)
	if err != nil {
		return subscriptionView{}, err
	}

	recipesLimit := 0
	if raw := c.Query("recipes_limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			recipesLimit = parsed
		}
	}

	recipes, count, err := h.userService.RecipesPreview(c.Request.Context(), target.ID, recipesLimit)
	if err != nil {
		return subscriptionView{}, err
	}

	summaries := make([]recipeSummary, len(recipes))
	for i := range recipes {
		summaries[i] = newRecipeSummary(&recipes[i])
	}
	return subscriptionView{
		userView:     base,
		Recipes:      summaries,
		RecipesCount: count,
	}, nil
}
