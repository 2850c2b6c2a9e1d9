package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/middleware"
	"github.com/plateful/backend/internal/model"
	"github.com/plateful/backend/internal/service"
)

// IngredientHandler serves the ingredient catalog: prefix search for
// everyone, create for staff only.
type IngredientHandler struct {
	db          *gorm.DB
	authService *service.AuthService
}

func NewIngredientHandler(db *gorm.DB, authService *service.AuthService) *IngredientHandler {
	return &IngredientHandler{db: db, authService: authService}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("", h.ListIngredients)
		ingredients.GET("/:id", h.GetIngredient)
		ingredients.POST("", middleware.AuthMiddleware(h.authService), h.CreateIngredient)
	}
}

func (h *IngredientHandler) ListIngredients(c *gin.Context) {
	query := h.db.Order("name, id")
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", name+"%")
	}

	var ingredients []model.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredients"})
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *IngredientHandler) GetIngredient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ingredient id"})
		return
	}

	var ingredient model.Ingredient
	if err := h.db.First(&ingredient, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ingredient"})
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

type CreateIngredientRequest struct {
	Name            string `json:"name" binding:"required"`
	MeasurementUnit string `json:"measurement_unit" binding:"required"`
}

func (h *IngredientHandler) CreateIngredient(c *gin.Context) {
	claims := requesterClaims(c)
	if claims == nil || !claims.IsStaff {
		c.JSON(http.StatusForbidden, gin.H{"detail": "staff only"})
		return
	}

	var req CreateIngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredient := model.Ingredient{
		Name:            req.Name,
		MeasurementUnit: req.MeasurementUnit,
	}
	if err := h.db.Create(&ingredient).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create ingredient"})
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}
