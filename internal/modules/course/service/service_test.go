package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityRepo "github.com/studyloop/backend/internal/modules/activity/repository"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	courseRepo "github.com/studyloop/backend/internal/modules/course/repository"
	"github.com/studyloop/backend/internal/testutil"
	"github.com/studyloop/backend/pkg/apperror"
)

func newTestService(t *testing.T) (CourseService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	activities := activityService.NewActivityService(activityRepo.NewActivityRepository(db), nil)
	return NewCourseService(courseRepo.NewCourseRepository(db), nil, activities), db
}

func countCompletionRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&entity.ActivityRecord{}).
		Where("kind = ?", entity.ActivityKindCourseCompletion).
		Count(&count).Error)
	return count
}

func TestEnrollRejectsUnpublishedCourse(t *testing.T) {
	svc, db := newTestService(t)

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	draft := testutil.CreateCourse(t, db, instructor.ID, "wip-course", false)

	_, err := svc.Enroll(student.ID, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUpdateProgressProjectsCompletionExactlyOnce(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, instructor.ID, "go-basics", true)

	_, err := svc.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	resp, err := svc.UpdateProgress(ctx, student.ID, course.ID, 80)
	require.NoError(t, err)
	assert.Nil(t, resp.CompletedAt)
	assert.EqualValues(t, 0, countCompletionRecords(t, db))

	resp, err = svc.UpdateProgress(ctx, student.ID, course.ID, 96)
	require.NoError(t, err)
	require.NotNil(t, resp.CompletedAt)
	assert.EqualValues(t, 1, countCompletionRecords(t, db))

	// Crossing again never projects a second record.
	_, err = svc.UpdateProgress(ctx, student.ID, course.ID, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countCompletionRecords(t, db))

	record := &entity.ActivityRecord{}
	require.NoError(t, db.First(record, "kind = ?", entity.ActivityKindCourseCompletion).Error)
	assert.Equal(t, entity.VisibilityPublic, record.Visibility)
	require.NotNil(t, record.CourseTitle)
	assert.Equal(t, "go-basics", *record.CourseTitle)
}

func TestUpdateProgressWithoutEnrollment(t *testing.T) {
	svc, db := newTestService(t)

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, instructor.ID, "go-basics", true)

	_, err := svc.UpdateProgress(context.Background(), student.ID, course.ID, 10)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
