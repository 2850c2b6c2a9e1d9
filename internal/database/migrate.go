package database

import (
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/model"
)

// RunMigrations brings the schema up to date for every model.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.Tag{},
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.FavoriteRecipe{},
		&model.ShoppingCart{},
	)
}
