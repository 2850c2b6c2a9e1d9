package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShortLinkLength is the length of the random share code on a recipe.
const ShortLinkLength = 8

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"size:32;not null" json:"name"`
	Slug string    `gorm:"size:32;uniqueIndex;not null" json:"slug"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

type Ingredient struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"size:128;not null;index" json:"name"`
	MeasurementUnit string    `gorm:"size:64;not null" json:"measurement_unit"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	ImageURL    string    `gorm:"size:255" json:"image"`
	CookingTime int       `gorm:"not null;check:cooking_time >= 1" json:"cooking_time"`
	PubDate     time.Time `gorm:"not null;index" json:"pub_date"`
	ShortLink   string    `gorm:"size:128;uniqueIndex;not null" json:"-"`

	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE" json:"ingredients"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.PubDate.IsZero() {
		r.PubDate = time.Now().UTC()
	}
	return nil
}

// RecipeIngredient is one (ingredient, amount) line of a recipe. Lines are
// replaced wholesale on recipe update; one line per (recipe, ingredient) is
// checked at the validation layer, not by a schema constraint.
type RecipeIngredient struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"-"`
	CreatedAt    time.Time  `json:"-"`
	RecipeID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"-"`
	IngredientID uuid.UUID  `gorm:"type:uuid;not null;index" json:"id"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Amount       int        `gorm:"not null;check:amount >= 1" json:"amount"`
}

func (ri *RecipeIngredient) BeforeCreate(tx *gorm.DB) error {
	if ri.ID == uuid.Nil {
		ri.ID = uuid.New()
	}
	return nil
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
