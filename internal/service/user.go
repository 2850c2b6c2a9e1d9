package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/plateful/backend/internal/model"
)

// UserService handles user lookup and the follow relation.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ListUsers(ctx context.Context, page, limit int) ([]model.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := s.db.WithContext(ctx).
		Order("username, id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Follow subscribes follower to target. Self-follow is rejected before any
// state transition; a duplicate pair surfaces as ErrAlreadyExists.
func (s *UserService) Follow(ctx context.Context, followerID, targetID uuid.UUID) (*model.User, error) {
	if followerID == targetID {
		return nil, newValidationError("following", "you cannot subscribe to yourself")
	}

	target, err := s.GetUser(ctx, targetID)
	if err != nil {
		return nil, err
	}

	follow := model.Follow{
		FollowerID:  followerID,
		FollowingID: targetID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&follow).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return target, nil
}

func (s *UserService) Unfollow(ctx context.Context, followerID, targetID uuid.UUID) error {
	if _, err := s.GetUser(ctx, targetID); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Delete(&model.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return newValidationError("following", "not in subscriptions")
	}
	return nil
}

// Subscriptions lists the users the given user follows, ordered by username.
func (s *UserService) Subscriptions(ctx context.Context, userID uuid.UUID, page, limit int) ([]model.User, int64, error) {
	base := s.db.WithContext(ctx).Model(&model.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.follower_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []model.User
	err := base.
		Order("users.username, users.id").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *UserService) IsSubscribed(ctx context.Context, followerID, targetID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, targetID).
		Count(&count).Error
	return count > 0, err
}

// RecipesPreview returns the target user's recipes, newest first, capped at
// limit when limit > 0, plus the uncapped count.
func (s *UserService) RecipesPreview(ctx context.Context, authorID uuid.UUID, limit int) ([]model.Recipe, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&model.Recipe{}).Where("author_id = ?", authorID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("pub_date DESC, id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var recipes []model.Recipe
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = avatarURL
	if err := s.db.WithContext(ctx).Model(user).Update("avatar_url", avatarURL).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) RemoveAvatar(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("avatar_url", "").Error
}
