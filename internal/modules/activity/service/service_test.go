package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityRepo "github.com/studyloop/backend/internal/modules/activity/repository"
	"github.com/studyloop/backend/internal/testutil"
	"github.com/studyloop/backend/pkg/dto"
)

func newTestService(t *testing.T) (ActivityService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	return NewActivityService(activityRepo.NewActivityRepository(db), nil), db
}

func firstRecord(t *testing.T, db *gorm.DB) *entity.ActivityRecord {
	t.Helper()
	var record entity.ActivityRecord
	require.NoError(t, db.First(&record).Error)
	return &record
}

func TestProjectReflectionDenormalizesContext(t *testing.T) {
	svc, db := newTestService(t)

	user := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, user.ID, "go-basics", true)
	video := testutil.CreateVideo(t, db, course.ID, "Interfaces in depth")

	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")
	now := time.Now()
	require.NoError(t, db.Model(&entity.Profile{}).Where("user_id = ?", user.ID).Updates(map[string]interface{}{
		"current_track_id": track.ID,
		"current_goal_id":  goals[0].ID,
		"goal_assigned_at": now,
	}).Error)

	reflection := &entity.Reflection{
		UserID:  user.ID,
		VideoID: &video.ID,
		Kind:    entity.ReflectionKindText,
		Content: "interfaces finally click",
	}
	require.NoError(t, db.Create(reflection).Error)

	require.NoError(t, svc.ProjectReflection(context.Background(), reflection))

	record := firstRecord(t, db)
	assert.Equal(t, entity.ActivityKindReflectionText, record.Kind)
	assert.Equal(t, "interfaces finally click", record.ContentPreview)
	require.NotNil(t, record.VideoTitle)
	assert.Equal(t, "Interfaces in depth", *record.VideoTitle)
	require.NotNil(t, record.GoalID)
	assert.Equal(t, goals[0].ID, *record.GoalID)
	require.NotNil(t, record.GoalTitle)
	assert.Equal(t, "First API", *record.GoalTitle)
	assert.Equal(t, entity.VisibilityPrivate, record.Visibility)
	assert.WithinDuration(t, reflection.CreatedAt, record.CreatedAt, time.Second)
}

func TestProjectReflectionReplayIsNoop(t *testing.T) {
	svc, db := newTestService(t)

	user := testutil.CreateUser(t, db, "alice")
	reflection := &entity.Reflection{UserID: user.ID, Kind: entity.ReflectionKindText, Content: "once"}
	require.NoError(t, db.Create(reflection).Error)

	require.NoError(t, svc.ProjectReflection(context.Background(), reflection))
	require.NoError(t, svc.ProjectReflection(context.Background(), reflection))

	var count int64
	require.NoError(t, db.Model(&entity.ActivityRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestProjectQuizAttemptResolvesVideoThroughQuiz(t *testing.T) {
	svc, db := newTestService(t)

	user := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, user.ID, "go-basics", true)
	video := testutil.CreateVideo(t, db, course.ID, "Goroutines")

	quiz := &entity.Quiz{VideoID: video.ID, Title: "Goroutines quiz"}
	require.NoError(t, db.Create(quiz).Error)
	attempt := &entity.QuizAttempt{UserID: user.ID, QuizID: quiz.ID, Score: 8, Total: 10}
	require.NoError(t, db.Create(attempt).Error)

	require.NoError(t, svc.ProjectQuizAttempt(context.Background(), attempt))

	record := firstRecord(t, db)
	assert.Equal(t, entity.ActivityKindQuiz, record.Kind)
	assert.Equal(t, "Scored 8/10 (80%)", record.ContentPreview)
	require.NotNil(t, record.VideoTitle)
	assert.Equal(t, "Goroutines", *record.VideoTitle)
}

func TestProjectMessageRejectsDraftsAndChat(t *testing.T) {
	svc, _ := newTestService(t)

	draft := &entity.ConversationMessage{Type: entity.MessageTypeDailyNote, IsDraft: true}
	assert.Error(t, svc.ProjectMessage(context.Background(), draft, time.Now()))

	chat := &entity.ConversationMessage{Type: entity.MessageTypeChat}
	assert.Error(t, svc.ProjectMessage(context.Background(), chat, time.Now()))
}

func TestProjectCompletionIsPublicWithCourseTitle(t *testing.T) {
	svc, db := newTestService(t)

	user := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, user.ID, "go-basics", true)
	enrollment := &entity.Enrollment{UserID: user.ID, CourseID: course.ID, ProgressPercent: 100}
	require.NoError(t, db.Create(enrollment).Error)

	completedAt := time.Now()
	require.NoError(t, svc.ProjectCompletion(context.Background(), enrollment, completedAt))

	record := firstRecord(t, db)
	assert.Equal(t, entity.ActivityKindCourseCompletion, record.Kind)
	assert.Equal(t, entity.VisibilityPublic, record.Visibility)
	require.NotNil(t, record.CourseTitle)
	assert.Equal(t, course.Title, *record.CourseTitle)
	assert.WithinDuration(t, completedAt, record.CreatedAt, time.Second)
}

func TestProjectGoalTransitionValidatesKind(t *testing.T) {
	svc, db := newTestService(t)

	user := testutil.CreateUser(t, db, "alice")
	_, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	err := svc.ProjectGoalTransition(context.Background(), user.ID, entity.ActivityKindQuiz, goals[0].ID, time.Now())
	assert.Error(t, err)

	require.NoError(t, svc.ProjectGoalTransition(context.Background(), user.ID, entity.ActivityKindGoalAchieved, goals[0].ID, time.Now()))

	record := firstRecord(t, db)
	assert.Equal(t, entity.ActivityKindGoalAchieved, record.Kind)
	assert.Equal(t, "Achieved goal: First API", record.ContentPreview)
}

func TestGetUserFeedHidesPrivateFromOthers(t *testing.T) {
	svc, db := newTestService(t)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	private := &entity.Reflection{UserID: alice.ID, Kind: entity.ReflectionKindText, Content: "private note"}
	require.NoError(t, db.Create(private).Error)
	require.NoError(t, svc.ProjectReflection(context.Background(), private))

	course := testutil.CreateCourse(t, db, alice.ID, "go-basics", true)
	enrollment := &entity.Enrollment{UserID: alice.ID, CourseID: course.ID, ProgressPercent: 100}
	require.NoError(t, db.Create(enrollment).Error)
	require.NoError(t, svc.ProjectCompletion(context.Background(), enrollment, time.Now()))

	own, err := svc.GetUserFeed(alice.ID, alice.ID, dto.ActivityFilter{})
	require.NoError(t, err)
	assert.Len(t, own.Data, 2)

	other, err := svc.GetUserFeed(bob.ID, alice.ID, dto.ActivityFilter{})
	require.NoError(t, err)
	require.Len(t, other.Data, 1)
	assert.Equal(t, entity.ActivityKindCourseCompletion, other.Data[0].Kind)
}
