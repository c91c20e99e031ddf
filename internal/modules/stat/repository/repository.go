package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
)

type StatRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CountPublishedCourses(ctx context.Context) (int64, error)
	CountEnrollments(ctx context.Context) (int64, error)
	CountActivities(ctx context.Context) (int64, error)
	CountUnreviewedReflections(ctx context.Context) (int64, error)
	// CountAssignmentsByStatus breaks down a user's goal history.
	CountAssignmentsByStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	// CountActivitiesSince counts a user's feed entries created after the
	// given time, grouped by kind.
	CountActivitiesSince(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]int64, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).Count(&count).Error
	return count, err
}

func (r *statRepository) CountPublishedCourses(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Course{}).
		Where("is_published = ?", true).
		Count(&count).Error
	return count, err
}

func (r *statRepository) CountEnrollments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Enrollment{}).Count(&count).Error
	return count, err
}

func (r *statRepository) CountActivities(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ActivityRecord{}).Count(&count).Error
	return count, err
}

func (r *statRepository) CountUnreviewedReflections(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Reflection{}).
		Where("reviewed_at IS NULL").
		Count(&count).Error
	return count, err
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *statRepository) CountAssignmentsByStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.WithContext(ctx).Model(&entity.TrackAssignment{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type kindCount struct {
	Kind  string
	Count int64
}

func (r *statRepository) CountActivitiesSince(ctx context.Context, userID uuid.UUID, since time.Time) (map[string]int64, error) {
	var rows []kindCount
	err := r.db.WithContext(ctx).Model(&entity.ActivityRecord{}).
		Select("kind, COUNT(*) as count").
		Where("user_id = ? AND created_at >= ?", userID, since).
		Group("kind").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}
