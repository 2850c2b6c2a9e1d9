package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/plateful/backend/internal/api"
)

// SetupRouter configures the application routes
func SetupRouter(
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	tagHandler *api.TagHandler,
	ingredientHandler *api.IngredientHandler,
	recipeHandler *api.RecipeHandler,
) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	v1 := router.Group("/api/v1")

	authHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1)
	tagHandler.RegisterRoutes(v1)
	ingredientHandler.RegisterRoutes(v1)
	recipeHandler.RegisterRoutes(v1)

	return router
}
