package service

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/model"
	"github.com/plateful/backend/internal/types"
)

const (
	shortLinkCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// maxShortLinkAttempts bounds the collision-retry loop; the code space
	// (62^8) is large relative to any plausible row count, so hitting the
	// bound means something is badly wrong with the store.
	maxShortLinkAttempts = 10
)

// IngredientAmount is one requested (ingredient, amount) pair on create/update.
type IngredientAmount struct {
	ID     uuid.UUID
	Amount int
}

// RecipeInput carries the client-settable recipe fields. Author is never
// client-supplied; it is fixed to the requesting identity.
type RecipeInput struct {
	Name        string
	Text        string
	ImageURL    string
	CookingTime int
	TagIDs      []uuid.UUID
	Ingredients []IngredientAmount
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	AuthorID    *uuid.UUID
	TagSlugs    []string
	FavoritedBy *uuid.UUID
	InCartOf    *uuid.UUID
	Page        int
	Limit       int
}

// RecipeService handles recipe lifecycle, short links and the favorite /
// shopping-cart membership sets.
type RecipeService struct {
	db *gorm.DB

	// newShortLink produces candidate share codes. Swappable so the
	// collision path can be driven deterministically.
	newShortLink func() (string, error)
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{
		db: db,
		newShortLink: func() (string, error) {
			return randomString(model.ShortLinkLength)
		},
	}
}

func validateRecipeInput(in *RecipeInput) error {
	if in.CookingTime < 1 {
		return newValidationError("cooking_time", "must be at least 1")
	}
	if len(in.TagIDs) == 0 {
		return newValidationError("tags", "field is required")
	}
	seenTags := make(map[uuid.UUID]struct{}, len(in.TagIDs))
	for _, id := range in.TagIDs {
		if _, ok := seenTags[id]; ok {
			return newValidationError("tags", "tags are not unique")
		}
		seenTags[id] = struct{}{}
	}
	if len(in.Ingredients) == 0 {
		return newValidationError("ingredients", "field is required")
	}
	seenIngredients := make(map[uuid.UUID]struct{}, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if _, ok := seenIngredients[item.ID]; ok {
			return newValidationError("ingredients", "duplicate ingredients")
		}
		seenIngredients[item.ID] = struct{}{}
		if item.Amount < 1 {
			return newValidationError("amount", "must be at least 1")
		}
	}
	return nil
}

// resolveTags loads the requested tags, failing when any id is unknown.
func resolveTags(tx *gorm.DB, ids []uuid.UUID) ([]model.Tag, error) {
	var tags []model.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, err
	}
	if len(tags) != len(ids) {
		return nil, newValidationError("tags", "unknown tag")
	}
	return tags, nil
}

func checkIngredientsExist(tx *gorm.DB, items []IngredientAmount) error {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var count int64
	if err := tx.Model(&model.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return newValidationError("ingredients", "unknown ingredient")
	}
	return nil
}

func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, in RecipeInput) (*model.Recipe, error) {
	if err := validateRecipeInput(&in); err != nil {
		return nil, err
	}

	var created model.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		if err := checkIngredientsExist(tx, in.Ingredients); err != nil {
			return err
		}

		shortLink, err := s.generateShortLink(tx)
		if err != nil {
			return err
		}

		created = model.Recipe{
			AuthorID:    authorID,
			Name:        in.Name,
			Text:        in.Text,
			ImageURL:    in.ImageURL,
			CookingTime: in.CookingTime,
			ShortLink:   shortLink,
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		if err := tx.Model(&created).Association("Tags").Replace(tags); err != nil {
			return err
		}
		return createIngredientLines(tx, created.ID, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, created.ID)
}

// UpdateRecipe applies in to the recipe after the capability check. Tag and
// ingredient sets are replaced wholesale, never merged.
func (s *RecipeService) UpdateRecipe(ctx context.Context, requester *types.TokenClaims, id uuid.UUID, in RecipeInput) (*model.Recipe, error) {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canMutate(requester, recipe) {
		return nil, ErrForbidden
	}
	if err := validateRecipeInput(&in); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := resolveTags(tx, in.TagIDs)
		if err != nil {
			return err
		}
		if err := checkIngredientsExist(tx, in.Ingredients); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         in.Name,
			"text":         in.Text,
			"cooking_time": in.CookingTime,
		}
		if in.ImageURL != "" {
			updates["image_url"] = in.ImageURL
		}
		if err := tx.Model(&model.Recipe{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return createIngredientLines(tx, id, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return s.GetRecipe(ctx, id)
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, requester *types.TokenClaims, id uuid.UUID) error {
	recipe, err := s.GetRecipe(ctx, id)
	if err != nil {
		return err
	}
	if !canMutate(requester, recipe) {
		return ErrForbidden
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.FavoriteRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.ShoppingCart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Recipe{}, "id = ?", id).Error
	})
}

func canMutate(requester *types.TokenClaims, recipe *model.Recipe) bool {
	if requester == nil {
		return false
	}
	return requester.IsStaff || requester.UserID == recipe.AuthorID
}

func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*model.Recipe, error) {
	return s.getRecipe(ctx, "id = ?", id)
}

// GetRecipeByShortLink resolves a share code to its recipe.
func (s *RecipeService) GetRecipeByShortLink(ctx context.Context, code string) (*model.Recipe, error) {
	return s.getRecipe(ctx, "short_link = ?", code)
}

func (s *RecipeService) getRecipe(ctx context.Context, cond string, arg interface{}) (*model.Recipe, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		First(&recipe, cond, arg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns a page of recipes, newest first, plus the total count
// under the same filter.
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter) ([]model.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Model(&model.Tag{}).
			Select("recipe_tags.recipe_id").
			Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if filter.FavoritedBy != nil {
		query = query.Joins(
			"JOIN favorite_recipes ON favorite_recipes.recipe_id = recipes.id AND favorite_recipes.user_id = ?",
			*filter.FavoritedBy)
	}
	if filter.InCartOf != nil {
		query = query.Joins(
			"JOIN shopping_carts ON shopping_carts.recipe_id = recipes.id AND shopping_carts.user_id = ?",
			*filter.InCartOf)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []model.Recipe
	err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients").
		Preload("Ingredients.Ingredient").
		Order("recipes.pub_date DESC, recipes.id").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Favorite and AddToCart / Unfavorite and RemoveFromCart are the two
// concrete variants of one membership toggle.

func (s *RecipeService) Favorite(ctx context.Context, userID, recipeID uuid.UUID) (*model.Recipe, error) {
	return s.addMembership(ctx, recipeID, &model.FavoriteRecipe{UserID: userID, RecipeID: recipeID})
}

func (s *RecipeService) Unfavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeMembership(ctx, userID, recipeID, &model.FavoriteRecipe{}, "favorites")
}

func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*model.Recipe, error) {
	return s.addMembership(ctx, recipeID, &model.ShoppingCart{UserID: userID, RecipeID: recipeID})
}

func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.removeMembership(ctx, userID, recipeID, &model.ShoppingCart{}, "shopping_cart")
}

// addMembership creates row after checking the recipe exists. The unique
// pair index turns a concurrent duplicate into gorm.ErrDuplicatedKey, so two
// racing adds yield exactly one success.
func (s *RecipeService) addMembership(ctx context.Context, recipeID uuid.UUID, row interface{}) (*model.Recipe, error) {
	recipe, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return recipe, nil
}

func (s *RecipeService) removeMembership(ctx context.Context, userID, recipeID uuid.UUID, rowModel interface{}, field string) error {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(rowModel)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newValidationError(field, "recipe is not in the set")
	}
	return nil
}

func (s *RecipeService) IsFavorited(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.FavoriteRecipe{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

func (s *RecipeService) IsInShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ShoppingCart{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

func createIngredientLines(tx *gorm.DB, recipeID uuid.UUID, items []IngredientAmount) error {
	lines := make([]model.RecipeIngredient, len(items))
	for i, item := range items {
		lines[i] = model.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
	}
	return tx.Create(&lines).Error
}

func (s *RecipeService) generateShortLink(tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < maxShortLinkAttempts; attempt++ {
		code, err := s.newShortLink()
		if err != nil {
			return "", err
		}
		var count int64
		if err := tx.Model(&model.Recipe{}).Where("short_link = ?", code).Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
	return "", ErrShortLinkExhausted
}

func randomString(length int) (string, error) {
	max := big.NewInt(int64(len(shortLinkCharset)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = shortLinkCharset[n.Int64()]
	}
	return string(buf), nil
}
