package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	courseDto "github.com/studyloop/backend/internal/modules/course/dto"
	courseRepo "github.com/studyloop/backend/internal/modules/course/repository"
	searchService "github.com/studyloop/backend/internal/modules/search/service"
	"github.com/studyloop/backend/pkg/apperror"
	commonDto "github.com/studyloop/backend/pkg/dto"
)

type CourseService interface {
	CreateCourse(instructorID uuid.UUID, req courseDto.CreateCourseRequest) (*entity.Course, error)
	UpdateCourse(userID uuid.UUID, role string, courseID uuid.UUID, req courseDto.UpdateCourseRequest) (*entity.Course, error)
	DeleteCourse(userID uuid.UUID, role string, courseID uuid.UUID) error
	GetCourseBySlug(slug string, role string) (*entity.Course, error)
	ListCourses(filter commonDto.CourseFilter, role string) ([]entity.Course, int64, error)

	AddVideo(userID uuid.UUID, role string, courseID uuid.UUID, req courseDto.CreateVideoRequest) (*entity.Video, error)
	UpdateVideo(userID uuid.UUID, role string, videoID uuid.UUID, req courseDto.UpdateVideoRequest) (*entity.Video, error)
	DeleteVideo(userID uuid.UUID, role string, videoID uuid.UUID) error

	Enroll(userID, courseID uuid.UUID) (*courseDto.EnrollmentResponse, error)
	ListMyEnrollments(userID uuid.UUID) ([]courseDto.EnrollmentResponse, error)

	// UpdateProgress records playback progress and, the first time it
	// crosses the completion threshold, projects a course-completion feed
	// record. Repeat calls past the threshold never project again.
	UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, percent float64) (*courseDto.EnrollmentResponse, error)
}

type courseService struct {
	repo       courseRepo.CourseRepository
	search     searchService.SearchService
	activities activityService.ActivityService
}

func NewCourseService(repo courseRepo.CourseRepository, search searchService.SearchService, activities activityService.ActivityService) CourseService {
	return &courseService{
		repo:       repo,
		search:     search,
		activities: activities,
	}
}

func (s *courseService) CreateCourse(instructorID uuid.UUID, req courseDto.CreateCourseRequest) (*entity.Course, error) {
	course := &entity.Course{
		InstructorID: instructorID,
		Title:        req.Title,
		Slug:         s.generateUniqueSlug(req.Title),
		Description:  req.Description,
	}
	if err := s.repo.Create(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) UpdateCourse(userID uuid.UUID, role string, courseID uuid.UUID, req courseDto.UpdateCourseRequest) (*entity.Course, error) {
	course, err := s.findOwnedCourse(userID, role, courseID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	}
	if err := s.repo.Update(course); err != nil {
		return nil, err
	}

	// Keep the search index in sync in the background.
	if s.search != nil {
		go func(c entity.Course) {
			if c.IsPublished {
				if err := s.search.IndexCourse(&c); err != nil {
					log.Printf("❌ course: failed to index course %s: %v", c.ID, err)
				}
			} else {
				if err := s.search.DeleteCourse(c.ID.String()); err != nil {
					log.Printf("❌ course: failed to deindex course %s: %v", c.ID, err)
				}
			}
		}(*course)
	}

	return course, nil
}

func (s *courseService) DeleteCourse(userID uuid.UUID, role string, courseID uuid.UUID) error {
	if _, err := s.findOwnedCourse(userID, role, courseID); err != nil {
		return err
	}
	if err := s.repo.Delete(courseID); err != nil {
		return err
	}

	if s.search != nil {
		go func() {
			if err := s.search.DeleteCourse(courseID.String()); err != nil {
				log.Printf("❌ course: failed to deindex course %s: %v", courseID, err)
			}
		}()
	}
	return nil
}

func (s *courseService) GetCourseBySlug(slug string, role string) (*entity.Course, error) {
	course, err := s.repo.FindBySlug(slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !course.IsPublished && role != entity.RoleAdmin && role != entity.RoleInstructor {
		return nil, apperror.ErrNotFound
	}
	return course, nil
}

func (s *courseService) ListCourses(filter commonDto.CourseFilter, role string) ([]entity.Course, int64, error) {
	publishedOnly := role != entity.RoleAdmin && role != entity.RoleInstructor
	return s.repo.List(filter, publishedOnly)
}

func (s *courseService) AddVideo(userID uuid.UUID, role string, courseID uuid.UUID, req courseDto.CreateVideoRequest) (*entity.Video, error) {
	if _, err := s.findOwnedCourse(userID, role, courseID); err != nil {
		return nil, err
	}

	video := &entity.Video{
		CourseID:    courseID,
		Title:       req.Title,
		Position:    req.Position,
		DurationSec: req.DurationSec,
		PlaybackURL: req.PlaybackURL,
	}
	if err := s.repo.CreateVideo(video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *courseService) UpdateVideo(userID uuid.UUID, role string, videoID uuid.UUID, req courseDto.UpdateVideoRequest) (*entity.Video, error) {
	video, err := s.repo.FindVideo(videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.findOwnedCourse(userID, role, video.CourseID); err != nil {
		return nil, err
	}

	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Position != nil {
		video.Position = *req.Position
	}
	if req.DurationSec != nil {
		video.DurationSec = *req.DurationSec
	}
	if req.PlaybackURL != nil {
		video.PlaybackURL = *req.PlaybackURL
	}
	if err := s.repo.UpdateVideo(video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *courseService) DeleteVideo(userID uuid.UUID, role string, videoID uuid.UUID) error {
	video, err := s.repo.FindVideo(videoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := s.findOwnedCourse(userID, role, video.CourseID); err != nil {
		return err
	}
	return s.repo.DeleteVideo(videoID)
}

func (s *courseService) Enroll(userID, courseID uuid.UUID) (*courseDto.EnrollmentResponse, error) {
	course, err := s.repo.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !course.IsPublished {
		return nil, fmt.Errorf("%w: course is not published", apperror.ErrForbidden)
	}

	enrollment, err := s.repo.Enroll(userID, courseID)
	if err != nil {
		return nil, err
	}
	resp := toEnrollmentResponse(enrollment)
	resp.CourseTitle = course.Title
	resp.CourseSlug = course.Slug
	return &resp, nil
}

func (s *courseService) ListMyEnrollments(userID uuid.UUID) ([]courseDto.EnrollmentResponse, error) {
	enrollments, err := s.repo.ListEnrollments(userID)
	if err != nil {
		return nil, err
	}
	responses := make([]courseDto.EnrollmentResponse, 0, len(enrollments))
	for i := range enrollments {
		responses = append(responses, toEnrollmentResponse(&enrollments[i]))
	}
	return responses, nil
}

func (s *courseService) UpdateProgress(ctx context.Context, userID, courseID uuid.UUID, percent float64) (*courseDto.EnrollmentResponse, error) {
	enrollment, completedNow, err := s.repo.UpdateProgress(ctx, userID, courseID, percent)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: not enrolled", apperror.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if completedNow && s.activities != nil {
		if err := s.activities.ProjectCompletion(ctx, enrollment, *enrollment.CompletedAt); err != nil {
			log.Printf("❌ course: failed to project completion for enrollment %s: %v", enrollment.ID, err)
		}
	}

	resp := toEnrollmentResponse(enrollment)
	return &resp, nil
}

func (s *courseService) findOwnedCourse(userID uuid.UUID, role string, courseID uuid.UUID) (*entity.Course, error) {
	course, err := s.repo.FindByID(courseID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if course.InstructorID != userID && role != entity.RoleAdmin {
		return nil, apperror.ErrForbidden
	}
	return course, nil
}

func toEnrollmentResponse(e *entity.Enrollment) courseDto.EnrollmentResponse {
	return courseDto.EnrollmentResponse{
		ID:              e.ID,
		CourseID:        e.CourseID,
		CourseTitle:     e.Course.Title,
		CourseSlug:      e.Course.Slug,
		ProgressPercent: e.ProgressPercent,
		CompletedAt:     e.CompletedAt,
		EnrolledAt:      e.CreatedAt,
	}
}

var slugInvalidChars = regexp.MustCompile("[^a-z0-9 ]+")

func (s *courseService) generateUniqueSlug(title string) string {
	slug := strings.ToLower(title)
	slug = slugInvalidChars.ReplaceAllString(slug, "")
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.Trim(slug, "-")

	existing, _ := s.repo.FindBySlug(slug)
	if existing != nil {
		slug = fmt.Sprintf("%s-%s", slug, uuid.New().String()[:8])
	}
	return slug
}
