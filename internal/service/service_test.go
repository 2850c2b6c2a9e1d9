package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/plateful/backend/internal/model"
)

// setupTestDB opens a fresh in-memory sqlite database migrated with the
// full schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.Tag{},
		&model.Ingredient{},
		&model.Recipe{},
		&model.RecipeIngredient{},
		&model.FavoriteRecipe{},
		&model.ShoppingCart{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()

	user := model.User{
		Email:        username + "@example.com",
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return &user
}

func createTestTag(t *testing.T, db *gorm.DB, slug string) *model.Tag {
	t.Helper()

	tag := model.Tag{Name: slug, Slug: slug}
	if err := db.Create(&tag).Error; err != nil {
		t.Fatalf("failed to create test tag: %v", err)
	}
	return &tag
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *model.Ingredient {
	t.Helper()

	ingredient := model.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create test ingredient: %v", err)
	}
	return &ingredient
}

// createTestRecipe inserts a recipe with one tag and the given ingredient
// lines through the service, exercising the normal create path.
func createTestRecipe(t *testing.T, db *gorm.DB, author *model.User, name string, lines ...IngredientAmount) *model.Recipe {
	t.Helper()

	tag := createTestTag(t, db, "tag-"+name)
	svc := NewRecipeService(db)
	recipe, err := svc.CreateRecipe(context.Background(), author.ID, RecipeInput{
		Name:        name,
		Text:        "instructions",
		CookingTime: 10,
		TagIDs:      []uuid.UUID{tag.ID},
		Ingredients: lines,
	})
	if err != nil {
		t.Fatalf("failed to create test recipe: %v", err)
	}
	return recipe
}
