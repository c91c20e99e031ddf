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
	goalRepo "github.com/studyloop/backend/internal/modules/goal/repository"
	"github.com/studyloop/backend/internal/testutil"
	"github.com/studyloop/backend/pkg/apperror"
)

func newTestService(t *testing.T) (GoalService, *gorm.DB) {
	t.Helper()
	db := testutil.OpenDB(t)
	activities := activityService.NewActivityService(activityRepo.NewActivityRepository(db), nil)
	return NewGoalService(goalRepo.NewGoalRepository(db), activities), db
}

func feedKinds(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var kinds []string
	require.NoError(t, db.Model(&entity.ActivityRecord{}).
		Order("created_at asc, id asc").
		Pluck("kind", &kinds).Error)
	return kinds
}

func TestAssignGoalValidatesTrackMembership(t *testing.T) {
	svc, db := newTestService(t)

	user := testutil.CreateUser(t, db, "alice")
	trackA, goalsA := testutil.CreateTrackWithGoals(t, db, "backend", "First API")
	trackB, _ := testutil.CreateTrackWithGoals(t, db, "frontend", "First page")

	_, err := svc.AssignGoal(context.Background(), user.ID, trackB.ID, goalsA[0].ID)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = svc.AssignGoal(context.Background(), user.ID, trackA.ID, trackB.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAssignGoalProjectsTransitions(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API", "First deploy")

	resp, err := svc.AssignGoal(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entity.AssignmentStatusActive, resp.Status)
	assert.Equal(t, []string{entity.ActivityKindNewGoalStarted}, feedKinds(t, db))

	// Complete, then move on: the achieved record fires at the switch.
	_, err = svc.CompleteActiveGoal(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{entity.ActivityKindNewGoalStarted}, feedKinds(t, db),
		"completion alone does not project")

	_, err = svc.AssignGoal(ctx, user.ID, track.ID, goals[1].ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		entity.ActivityKindNewGoalStarted,
		entity.ActivityKindGoalAchieved,
		entity.ActivityKindNewGoalStarted,
	}, feedKinds(t, db))
}

func TestAssignSameGoalTwiceProjectsNothingNew(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	_, err := svc.AssignGoal(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	_, err = svc.AssignGoal(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)

	assert.Equal(t, []string{entity.ActivityKindNewGoalStarted}, feedKinds(t, db))
}

func TestAbandonWithoutCompletionProjectsNothing(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	_, err := svc.AssignGoal(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	require.NoError(t, svc.AbandonActiveGoal(ctx, user.ID))

	assert.Equal(t, []string{entity.ActivityKindNewGoalStarted}, feedKinds(t, db))

	_, err = svc.GetActiveAssignment(user.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.ErrorIs(t, svc.AbandonActiveGoal(ctx, user.ID), apperror.ErrNotFound)
}

func TestAbandonAfterCompletionProjectsAchieved(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API")

	_, err := svc.AssignGoal(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	_, err = svc.CompleteActiveGoal(ctx, user.ID)
	require.NoError(t, err)
	require.NoError(t, svc.AbandonActiveGoal(ctx, user.ID))

	assert.ElementsMatch(t, []string{
		entity.ActivityKindNewGoalStarted,
		entity.ActivityKindGoalAchieved,
	}, feedKinds(t, db))
}

func TestAssignmentHistoryNewestFirst(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "alice")
	track, goals := testutil.CreateTrackWithGoals(t, db, "backend", "First API", "First deploy")

	_, err := svc.AssignGoal(ctx, user.ID, track.ID, goals[0].ID)
	require.NoError(t, err)
	_, err = svc.AssignGoal(ctx, user.ID, track.ID, goals[1].ID)
	require.NoError(t, err)

	history, err := svc.GetAssignmentHistory(user.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, goals[1].ID, history[0].GoalID)
	assert.Equal(t, entity.AssignmentStatusActive, history[0].Status)
	assert.Equal(t, entity.AssignmentStatusChanged, history[1].Status)
}
