package testutil

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studyloop/backend/internal/entity"
)

// OpenDB returns an isolated in-memory database carrying the full schema.
// A single connection keeps the memory database alive for the whole test.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_foreign_keys=1"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&entity.Role{},
		&entity.User{},
		&entity.Profile{},
		&entity.Track{},
		&entity.Goal{},
		&entity.TrackAssignment{},
		&entity.Course{},
		&entity.Video{},
		&entity.Enrollment{},
		&entity.Reflection{},
		&entity.Quiz{},
		&entity.QuizAttempt{},
		&entity.VideoAIConversation{},
		&entity.Conversation{},
		&entity.ConversationMessage{},
		&entity.Resource{},
		&entity.Attachment{},
		&entity.ActivityRecord{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

// CreateUser inserts a user with an empty profile.
func CreateUser(t *testing.T, db *gorm.DB, username string) *entity.User {
	t.Helper()

	user := &entity.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	profile := &entity.Profile{
		UserID:   user.ID,
		FullName: username,
	}
	if err := db.Create(profile).Error; err != nil {
		t.Fatalf("create profile for %s: %v", username, err)
	}
	user.Profile = profile
	return user
}

// CreateCourse inserts a course owned by the given instructor.
func CreateCourse(t *testing.T, db *gorm.DB, instructorID uuid.UUID, title string, published bool) *entity.Course {
	t.Helper()

	course := &entity.Course{
		InstructorID: instructorID,
		Title:        title,
		Slug:         title + "-" + uuid.New().String()[:8],
		IsPublished:  published,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create course %s: %v", title, err)
	}
	return course
}

// CreateVideo inserts a video into the given course.
func CreateVideo(t *testing.T, db *gorm.DB, courseID uuid.UUID, title string) *entity.Video {
	t.Helper()

	video := &entity.Video{
		CourseID: courseID,
		Title:    title,
	}
	if err := db.Create(video).Error; err != nil {
		t.Fatalf("create video %s: %v", title, err)
	}
	return video
}

// CreateTrackWithGoals inserts a track with one goal per title, positioned
// in order.
func CreateTrackWithGoals(t *testing.T, db *gorm.DB, name string, goalTitles ...string) (*entity.Track, []entity.Goal) {
	t.Helper()

	track := &entity.Track{
		Name: name,
		Slug: name + "-" + uuid.New().String()[:8],
	}
	if err := db.Create(track).Error; err != nil {
		t.Fatalf("create track %s: %v", name, err)
	}

	goals := make([]entity.Goal, 0, len(goalTitles))
	for i, title := range goalTitles {
		goal := entity.Goal{
			TrackID:  track.ID,
			Title:    title,
			Position: i,
		}
		if err := db.Create(&goal).Error; err != nil {
			t.Fatalf("create goal %s: %v", title, err)
		}
		goals = append(goals, goal)
	}
	return track, goals
}
