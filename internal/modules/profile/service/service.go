package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	profileDto "github.com/studyloop/backend/internal/modules/profile/dto"
	profileRepo "github.com/studyloop/backend/internal/modules/profile/repository"
	"github.com/studyloop/backend/pkg/apperror"
	"github.com/studyloop/backend/pkg/storage"
)

type ProfileService interface {
	GetByUserID(userID uuid.UUID) (*profileDto.ProfileResponse, error)
	GetByUsername(username string) (*profileDto.ProfileResponse, error)
	UpdateMyProfile(ctx context.Context, userID uuid.UUID, req profileDto.UpdateProfileRequest, avatar *multipart.FileHeader) (*profileDto.ProfileResponse, error)
}

type profileService struct {
	repo  profileRepo.ProfileRepository
	media storage.MediaStorage
}

func NewProfileService(repo profileRepo.ProfileRepository, media storage.MediaStorage) ProfileService {
	return &profileService{
		repo:  repo,
		media: media,
	}
}

func (s *profileService) GetByUserID(userID uuid.UUID) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindUser(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.buildResponse(user)
}

func (s *profileService) GetByUsername(username string) (*profileDto.ProfileResponse, error) {
	user, err := s.repo.FindUserByUsername(username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.buildResponse(user)
}

func (s *profileService) UpdateMyProfile(ctx context.Context, userID uuid.UUID, req profileDto.UpdateProfileRequest, avatar *multipart.FileHeader) (*profileDto.ProfileResponse, error) {
	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.Headline != nil {
		updates["headline"] = *req.Headline
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if len(updates) > 0 {
		if err := s.repo.UpdateFields(userID, updates); err != nil {
			return nil, err
		}
	}

	if avatar != nil {
		if s.media == nil {
			return nil, fmt.Errorf("%w: media storage is not configured", apperror.ErrUnavailable)
		}
		src, err := avatar.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open uploaded avatar: %w", err)
		}
		defer src.Close()

		avatarURL, err := s.media.UploadImage(ctx, src, "avatars", avatar.Filename)
		if err != nil {
			return nil, err
		}
		if err := s.repo.UpdateAvatar(userID, avatarURL); err != nil {
			return nil, err
		}
	}

	return s.GetByUserID(userID)
}

func (s *profileService) buildResponse(user *entity.User) (*profileDto.ProfileResponse, error) {
	if user.Profile == nil {
		return nil, apperror.ErrNotFound
	}
	profile := user.Profile

	resp := &profileDto.ProfileResponse{
		UserID:         user.ID,
		Username:       user.Username,
		FullName:       profile.FullName,
		Headline:       profile.Headline,
		Bio:            profile.Bio,
		AvatarURL:      user.AvatarURL,
		CurrentTrackID: profile.CurrentTrackID,
		CurrentGoalID:  profile.CurrentGoalID,
		GoalAssignedAt: profile.GoalAssignedAt,
		CreatedAt:      profile.CreatedAt,
	}

	// Resolve pointer titles; a missing row just leaves the name empty.
	if profile.CurrentTrackID != nil {
		if track, err := s.repo.FindTrack(*profile.CurrentTrackID); err == nil {
			resp.CurrentTrackName = track.Name
		}
	}
	if profile.CurrentGoalID != nil {
		if goal, err := s.repo.FindGoal(*profile.CurrentGoalID); err == nil {
			resp.CurrentGoalTitle = goal.Title
		}
	}

	return resp, nil
}
