package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
)

type ProfileRepository interface {
	FindByUserID(userID uuid.UUID) (*entity.Profile, error)
	FindUser(userID uuid.UUID) (*entity.User, error)
	FindUserByUsername(username string) (*entity.User, error)
	FindTrack(id uuid.UUID) (*entity.Track, error)
	FindGoal(id uuid.UUID) (*entity.Goal, error)

	// UpdateFields writes the learner-editable columns. The current-goal
	// pointer columns are owned by the goal synchronizer and are never
	// touched here.
	UpdateFields(userID uuid.UUID, updates map[string]interface{}) error
	UpdateAvatar(userID uuid.UUID, avatarURL string) error
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByUserID(userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) FindUser(userID uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.Preload("Profile").First(&user, "id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *profileRepository) FindUserByUsername(username string) (*entity.User, error) {
	var user entity.User
	err := r.db.Preload("Profile").First(&user, "username = ?", username).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *profileRepository) FindTrack(id uuid.UUID) (*entity.Track, error) {
	var track entity.Track
	if err := r.db.First(&track, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &track, nil
}

func (r *profileRepository) FindGoal(id uuid.UUID) (*entity.Goal, error) {
	var goal entity.Goal
	if err := r.db.First(&goal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *profileRepository) UpdateFields(userID uuid.UUID, updates map[string]interface{}) error {
	return r.db.Model(&entity.Profile{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *profileRepository) UpdateAvatar(userID uuid.UUID, avatarURL string) error {
	return r.db.Model(&entity.User{}).Where("id = ?", userID).Update("avatar_url", avatarURL).Error
}
