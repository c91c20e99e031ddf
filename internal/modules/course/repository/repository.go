package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyloop/backend/internal/config"
	"github.com/studyloop/backend/internal/entity"
	"github.com/studyloop/backend/pkg/dto"
)

type CourseRepository interface {
	Create(course *entity.Course) error
	Update(course *entity.Course) error
	Delete(id uuid.UUID) error
	FindByID(id uuid.UUID) (*entity.Course, error)
	FindBySlug(slug string) (*entity.Course, error)
	List(filter dto.CourseFilter, publishedOnly bool) ([]entity.Course, int64, error)

	CreateVideo(video *entity.Video) error
	UpdateVideo(video *entity.Video) error
	DeleteVideo(id uuid.UUID) error
	FindVideo(id uuid.UUID) (*entity.Video, error)

	Enroll(userID, courseID uuid.UUID) (*entity.Enrollment, error)
	GetEnrollment(userID, courseID uuid.UUID) (*entity.Enrollment, error)
	ListEnrollments(userID uuid.UUID) ([]entity.Enrollment, error)

	// UpdateProgress advances an enrollment's progress. Progress never
	// moves backwards; CompletedAt is stamped the first time progress
	// reaches the completion threshold. The bool reports whether this
	// call crossed that edge.
	UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, percent float64) (*entity.Enrollment, bool, error)
}

type courseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(course *entity.Course) error {
	return r.db.Create(course).Error
}

func (r *courseRepository) Update(course *entity.Course) error {
	return r.db.Save(course).Error
}

func (r *courseRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.Course{}, "id = ?", id).Error
}

func (r *courseRepository) FindByID(id uuid.UUID) (*entity.Course, error) {
	var course entity.Course
	err := r.db.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Preload("Instructor", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "avatar_url")
	}).First(&course, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindBySlug(slug string) (*entity.Course, error) {
	var course entity.Course
	err := r.db.Preload("Videos", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Preload("Instructor", func(db *gorm.DB) *gorm.DB {
		return db.Select("id", "username", "avatar_url")
	}).First(&course, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) List(filter dto.CourseFilter, publishedOnly bool) ([]entity.Course, int64, error) {
	q := r.db.Model(&entity.Course{})
	if publishedOnly {
		q = q.Where("is_published = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where("title LIKE ? OR description LIKE ?", pattern, pattern)
	}

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

	order := "created_at desc"
	if filter.SortBy == "popular" {
		order = "(SELECT count(*) FROM enrollments WHERE enrollments.course_id = courses.id) desc"
	}

	var courses []entity.Course
	err := q.Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Preload("Instructor", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "username", "avatar_url")
		}).
		Find(&courses).Error
	return courses, total, err
}

func (r *courseRepository) CreateVideo(video *entity.Video) error {
	return r.db.Create(video).Error
}

func (r *courseRepository) UpdateVideo(video *entity.Video) error {
	return r.db.Save(video).Error
}

func (r *courseRepository) DeleteVideo(id uuid.UUID) error {
	return r.db.Delete(&entity.Video{}, "id = ?", id).Error
}

func (r *courseRepository) FindVideo(id uuid.UUID) (*entity.Video, error) {
	var video entity.Video
	if err := r.db.First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}

func (r *courseRepository) Enroll(userID, courseID uuid.UUID) (*entity.Enrollment, error) {
	enrollment := &entity.Enrollment{
		UserID:   userID,
		CourseID: courseID,
	}
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(enrollment)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Already enrolled; return the existing row.
		return r.GetEnrollment(userID, courseID)
	}
	return enrollment, nil
}

func (r *courseRepository) GetEnrollment(userID, courseID uuid.UUID) (*entity.Enrollment, error) {
	var enrollment entity.Enrollment
	err := r.db.Preload("Course").
		First(&enrollment, "user_id = ? AND course_id = ?", userID, courseID).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *courseRepository) ListEnrollments(userID uuid.UUID) ([]entity.Enrollment, error) {
	var enrollments []entity.Enrollment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Preload("Course").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *courseRepository) UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, percent float64) (*entity.Enrollment, bool, error) {
	var enrollment entity.Enrollment
	completedNow := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("user_id = ? AND course_id = ?", userID, courseID)
		if r.db.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&enrollment).Error; err != nil {
			return err
		}

		if percent < enrollment.ProgressPercent {
			// Progress is monotonic; re-watching does not rewind it.
			return nil
		}

		updates := map[string]interface{}{
			"progress_percent": percent,
		}
		if enrollment.CompletedAt == nil && percent >= config.CompletionThresholdPercent {
			now := time.Now()
			updates["completed_at"] = now
			enrollment.CompletedAt = &now
			completedNow = true
		}
		enrollment.ProgressPercent = percent

		return tx.Model(&entity.Enrollment{}).
			Where("id = ?", enrollment.ID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, false, err
	}
	return &enrollment, completedNow, nil
}
