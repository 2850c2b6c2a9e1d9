package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FavoriteRecipe and ShoppingCart are membership sets: a (user, recipe)
// relation tracked as existence of a row. Each pair is unique per set.

type FavoriteRecipe struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_favorite_pair" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_favorite_pair" json:"recipe_id"`
}

func (f *FavoriteRecipe) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

func (FavoriteRecipe) TableName() string {
	return "favorite_recipes"
}

type ShoppingCart struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_pair" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_pair" json:"recipe_id"`
}

func (s *ShoppingCart) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}
