package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	"github.com/studyloop/backend/internal/testutil"
)

func loadProfile(t *testing.T, db *gorm.DB, userID uuid.UUID) *entity.Profile {
	t.Helper()
	var profile entity.Profile
	require.NoError(t, db.First(&profile, "user_id = ?", userID).Error)
	return &profile
}

func countActive(t *testing.T, db *gorm.DB, userID uuid.UUID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&entity.TrackAssignment{}).
		Where("user_id = ? AND status = ?", userID, entity.AssignmentStatusActive).
		Count(&count).Error)
	return count
}

func TestActivateDemotesPreviousAndMovesPointer(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API", "First deploy")

	first, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	require.NotNil(t, first.Activated)
	assert.Empty(t, first.Demoted)

	second, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[1].ID)
	require.NoError(t, err)
	require.NotNil(t, second.Activated)
	require.Len(t, second.Demoted, 1)
	assert.Equal(t, goals[0].ID, second.Demoted[0].GoalID)

	assert.EqualValues(t, 1, countActive(t, db, user.ID))

	var demoted entity.TrackAssignment
	require.NoError(t, db.First(&demoted, "goal_id = ?", goals[0].ID).Error)
	assert.Equal(t, entity.AssignmentStatusChanged, demoted.Status)

	profile := loadProfile(t, db, user.ID)
	require.NotNil(t, profile.CurrentGoalID)
	assert.Equal(t, goals[1].ID, *profile.CurrentGoalID)
	require.NotNil(t, profile.CurrentTrackID)
	assert.Equal(t, track.ID, *profile.CurrentTrackID)
	assert.NotNil(t, profile.GoalAssignedAt)
}

func TestReactivateCurrentGoalIsNoop(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	_, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)

	result, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	assert.Nil(t, result.Activated, "no transition when already on the goal")
	assert.Empty(t, result.Demoted)
	require.NotNil(t, result.Pointer)
	assert.Equal(t, goals[0].ID, result.Pointer.GoalID)

	var count int64
	require.NoError(t, db.Model(&entity.TrackAssignment{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count, "no duplicate history row")
}

func TestRepickingOldGoalRevivesRow(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API", "First deploy")

	_, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	_, err = repo.MarkActiveCompleted(ctx, user.ID, time.Now())
	require.NoError(t, err)
	_, err = repo.ActivateAssignment(ctx, user.ID, track.ID, goals[1].ID)
	require.NoError(t, err)

	result, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	require.NotNil(t, result.Activated)
	assert.Equal(t, goals[0].ID, result.Activated.GoalID)

	var count int64
	require.NoError(t, db.Model(&entity.TrackAssignment{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count, "revived, not duplicated")

	var revived entity.TrackAssignment
	require.NoError(t, db.First(&revived, "goal_id = ?", goals[0].ID).Error)
	assert.Equal(t, entity.AssignmentStatusActive, revived.Status)
	assert.Nil(t, revived.CompletedAt, "completion resets on restart")

	assert.EqualValues(t, 1, countActive(t, db, user.ID))
}

func TestDeactivateActiveClearsPointer(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	_, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)

	result, err := repo.DeactivateActive(ctx, user.ID, entity.AssignmentStatusAbandoned)
	require.NoError(t, err)
	require.Len(t, result.Demoted, 1)
	assert.Nil(t, result.Pointer)

	profile := loadProfile(t, db, user.ID)
	assert.Nil(t, profile.CurrentGoalID)
	assert.Nil(t, profile.CurrentTrackID)
	assert.Nil(t, profile.GoalAssignedAt)

	_, err = repo.DeactivateActive(ctx, user.ID, entity.AssignmentStatusAbandoned)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMarkActiveCompletedStampsOnce(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	_, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assignment, err := repo.MarkActiveCompleted(ctx, user.ID, first)
	require.NoError(t, err)
	require.NotNil(t, assignment.CompletedAt)
	assert.Equal(t, entity.AssignmentStatusActive, assignment.Status, "completion does not end the assignment")

	// A second stamp keeps the original time.
	_, err = repo.MarkActiveCompleted(ctx, user.ID, first.Add(time.Hour))
	require.NoError(t, err)

	var row entity.TrackAssignment
	require.NoError(t, db.First(&row, "goal_id = ?", goals[0].ID).Error)
	require.NotNil(t, row.CompletedAt)
	assert.WithinDuration(t, first, *row.CompletedAt, time.Second)
}

func TestDeleteActiveAssignmentResyncsPointer(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API", "First deploy")

	_, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	second, err := repo.ActivateAssignment(ctx, user.ID, track.ID, goals[1].ID)
	require.NoError(t, err)

	result, err := repo.DeleteAssignment(ctx, second.Activated.ID)
	require.NoError(t, err)
	require.Len(t, result.Demoted, 1)
	assert.Nil(t, result.Pointer, "remaining rows are all demoted")

	profile := loadProfile(t, db, user.ID)
	assert.Nil(t, profile.CurrentGoalID)
}

func TestCountActiveViolations(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewGoalRepository(db)

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API", "First deploy")

	// Force the invariant violation directly; the repository API cannot
	// produce it.
	for _, goal := range goals {
		require.NoError(t, db.Create(&entity.TrackAssignment{
			UserID:     user.ID,
			TrackID:    track.ID,
			GoalID:     goal.ID,
			Status:     entity.AssignmentStatusActive,
			AssignedAt: time.Now(),
		}).Error)
	}

	violators, err := repo.CountActiveViolations()
	require.NoError(t, err)
	require.Len(t, violators, 1)
	assert.Equal(t, user.ID, violators[0])
}
