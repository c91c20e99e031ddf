package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/testutil"
)

func TestEnrollTwiceReturnsExistingRow(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewCourseRepository(db)

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, instructor.ID, "go-basics", true)

	first, err := repo.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	second, err := repo.Enroll(student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	enrollments, err := repo.ListEnrollments(student.ID)
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, instructor.ID, "go-basics", true)
	_, err := repo.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	enrollment, completed, err := repo.UpdateProgress(ctx, student.ID, course.ID, 50)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.EqualValues(t, 50, enrollment.ProgressPercent)

	// Re-watching an earlier section does not rewind progress.
	enrollment, completed, err = repo.UpdateProgress(ctx, student.ID, course.ID, 30)
	require.NoError(t, err)
	assert.False(t, completed)
	assert.EqualValues(t, 50, enrollment.ProgressPercent)

	stored, err := repo.GetEnrollment(student.ID, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 50, stored.ProgressPercent)
}

func TestUpdateProgressStampsCompletionOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewCourseRepository(db)
	ctx := context.Background()

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, instructor.ID, "go-basics", true)
	_, err := repo.Enroll(student.ID, course.ID)
	require.NoError(t, err)

	enrollment, completed, err := repo.UpdateProgress(ctx, student.ID, course.ID, 96)
	require.NoError(t, err)
	assert.True(t, completed, "first crossing of the threshold")
	require.NotNil(t, enrollment.CompletedAt)
	firstStamp := *enrollment.CompletedAt

	time.Sleep(10 * time.Millisecond)

	enrollment, completed, err = repo.UpdateProgress(ctx, student.ID, course.ID, 99)
	require.NoError(t, err)
	assert.False(t, completed, "already completed")
	require.NotNil(t, enrollment.CompletedAt)
	assert.WithinDuration(t, firstStamp, *enrollment.CompletedAt, 5*time.Millisecond)
	assert.EqualValues(t, 99, enrollment.ProgressPercent)
}

func TestUpdateProgressRequiresEnrollment(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewCourseRepository(db)

	instructor := testutil.CreateUser(t, db, "teach")
	student := testutil.CreateUser(t, db, "alice")
	course := testutil.CreateCourse(t, db, instructor.ID, "go-basics", true)

	_, _, err := repo.UpdateProgress(context.Background(), student.ID, course.ID, 10)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
