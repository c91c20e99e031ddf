package repository

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyloop/backend/internal/entity"
	"github.com/studyloop/backend/pkg/dto"
)

type ActivityRepository interface {
	// Append inserts a feed record. Returns false when a record with the
	// same back-reference already exists (replayed projection).
	Append(record *entity.ActivityRecord) (bool, error)
	ListForUser(userID uuid.UUID, filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error)
	ListPublic(filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error)
	ListPublicForUser(userID uuid.UUID, filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error)

	// Lookups used by the projector to denormalize display fields.
	FindVideo(id uuid.UUID) (*entity.Video, error)
	FindCourse(id uuid.UUID) (*entity.Course, error)
	FindQuiz(id uuid.UUID) (*entity.Quiz, error)
	FindGoal(id uuid.UUID) (*entity.Goal, error)
	FindProfile(userID uuid.UUID) (*entity.Profile, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(record *entity.ActivityRecord) (bool, error) {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(record)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *activityRepository) ListForUser(userID uuid.UUID, filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error) {
	q := r.db.Model(&entity.ActivityRecord{}).Where("user_id = ?", userID)
	if filter.Visibility != "" {
		q = q.Where("visibility = ?", filter.Visibility)
	}
	return r.list(q, filter)
}

func (r *activityRepository) ListPublic(filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error) {
	q := r.db.Model(&entity.ActivityRecord{}).Where("visibility = ?", entity.VisibilityPublic)
	return r.list(q, filter)
}

func (r *activityRepository) ListPublicForUser(userID uuid.UUID, filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error) {
	q := r.db.Model(&entity.ActivityRecord{}).
		Where("user_id = ? AND visibility = ?", userID, entity.VisibilityPublic)
	return r.list(q, filter)
}

func (r *activityRepository) list(q *gorm.DB, filter dto.ActivityFilter) ([]entity.ActivityRecord, int64, error) {
	q = applyFilter(q, filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	var records []entity.ActivityRecord
	err := q.Order("created_at desc").
		Limit(limit).
		Offset((page - 1) * limit).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Find(&records).Error
	return records, total, err
}

func applyFilter(q *gorm.DB, filter dto.ActivityFilter) *gorm.DB {
	if filter.Kinds != "" {
		kinds := []string{}
		for _, k := range strings.Split(filter.Kinds, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kinds = append(kinds, k)
			}
		}
		if len(kinds) > 0 {
			q = q.Where("kind IN ?", kinds)
		}
	}
	if filter.GoalID != "" {
		if goalID, err := uuid.Parse(filter.GoalID); err == nil {
			q = q.Where("goal_id = ?", goalID)
		}
	}
	if filter.From != "" {
		if from, err := time.Parse("2006-01-02", filter.From); err == nil {
			q = q.Where("created_at >= ?", from)
		}
	}
	if filter.To != "" {
		if to, err := time.Parse("2006-01-02", filter.To); err == nil {
			q = q.Where("created_at < ?", to.AddDate(0, 0, 1))
		}
	}
	return q
}

func (r *activityRepository) FindVideo(id uuid.UUID) (*entity.Video, error) {
	var video entity.Video
	if err := r.db.First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *activityRepository) FindCourse(id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	if err := r.db.First(&course, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *activityRepository) FindQuiz(id uuid.UUID) (*entity.Quiz, error) {
	var quiz entity.Quiz
	if err := r.db.First(&quiz, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *activityRepository) FindGoal(id uuid.UUID) (*entity.Goal, error) {
	var goal entity.Goal
	if err := r.db.First(&goal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

func (r *activityRepository) FindProfile(userID uuid.UUID) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.db.First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}
