package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	"github.com/studyloop/backend/internal/testutil"
	"github.com/studyloop/backend/pkg/dto"
)

func seedReflection(t *testing.T, db *gorm.DB, user *entity.User, createdAt time.Time) *entity.Reflection {
	t.Helper()
	r := &entity.Reflection{
		UserID:  user.ID,
		Kind:    entity.ReflectionKindText,
		Content: "note",
	}
	require.NoError(t, db.Create(r).Error)
	if !createdAt.IsZero() {
		require.NoError(t, db.Model(r).Update("created_at", createdAt).Error)
		r.CreatedAt = createdAt
	}
	return r
}

func TestAppendIsIdempotent(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewActivityRepository(db)

	user := testutil.CreateUser(t, db, "alice")
	reflection := seedReflection(t, db, user, time.Time{})

	created, err := repo.Append(entity.NewReflectionActivity(reflection, entity.ActivityKindReflectionText))
	require.NoError(t, err)
	assert.True(t, created)

	// Replaying the same source event collides on the back-reference.
	created, err = repo.Append(entity.NewReflectionActivity(reflection, entity.ActivityKindReflectionText))
	require.NoError(t, err)
	assert.False(t, created)

	var count int64
	require.NoError(t, db.Model(&entity.ActivityRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestListForUserFiltersAndOrders(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewActivityRepository(db)

	user := testutil.CreateUser(t, db, "alice")
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		reflection := seedReflection(t, db, user, base.AddDate(0, 0, i))
		_, err := repo.Append(entity.NewReflectionActivity(reflection, entity.ActivityKindReflectionText))
		require.NoError(t, err)
	}

	records, total, err := repo.ListForUser(user.ID, dto.ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, records, 3)
	assert.True(t, records[0].CreatedAt.After(records[1].CreatedAt), "newest first")
	assert.True(t, records[1].CreatedAt.After(records[2].CreatedAt))
	assert.Equal(t, "alice", records[0].User.Username)

	// Date window keeps only the middle day.
	records, total, err = repo.ListForUser(user.ID, dto.ActivityFilter{From: "2026-03-02", To: "2026-03-02"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)

	// Kind filter excludes everything here.
	_, total, err = repo.ListForUser(user.ID, dto.ActivityFilter{Kinds: "quiz,ai_chat"})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestPublicListingsScopeVisibility(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewActivityRepository(db)

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")

	private := entity.NewReflectionActivity(seedReflection(t, db, alice, time.Time{}), entity.ActivityKindReflectionText)
	_, err := repo.Append(private)
	require.NoError(t, err)

	public := entity.NewReflectionActivity(seedReflection(t, db, alice, time.Time{}), entity.ActivityKindReflectionText)
	public.Visibility = entity.VisibilityPublic
	_, err = repo.Append(public)
	require.NoError(t, err)

	bobPublic := entity.NewReflectionActivity(seedReflection(t, db, bob, time.Time{}), entity.ActivityKindReflectionText)
	bobPublic.Visibility = entity.VisibilityPublic
	_, err = repo.Append(bobPublic)
	require.NoError(t, err)

	_, total, err := repo.ListPublic(dto.ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	records, total, err := repo.ListPublicForUser(alice.ID, dto.ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, entity.VisibilityPublic, records[0].Visibility)

	_, total, err = repo.ListForUser(alice.ID, dto.ActivityFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "owner listing includes private entries")
}

func TestDeletingSourceRowsCascadesToFeed(t *testing.T) {
	db := testutil.OpenDB(t)
	repo := NewActivityRepository(db)

	user := testutil.CreateUser(t, db, "alice")
	first := seedReflection(t, db, user, time.Time{})
	_, err := repo.Append(entity.NewReflectionActivity(first, entity.ActivityKindReflectionText))
	require.NoError(t, err)
	second := seedReflection(t, db, user, time.Time{})
	_, err = repo.Append(entity.NewReflectionActivity(second, entity.ActivityKindReflectionText))
	require.NoError(t, err)

	// Deleting a source event takes its feed record with it.
	require.NoError(t, db.Delete(&entity.Reflection{}, "id = ?", first.ID).Error)
	var count int64
	require.NoError(t, db.Model(&entity.ActivityRecord{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Deleting the user wipes their remaining sources and feed rows.
	require.NoError(t, db.Delete(&entity.User{}, "id = ?", user.ID).Error)
	require.NoError(t, db.Model(&entity.Reflection{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
	require.NoError(t, db.Model(&entity.ActivityRecord{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}
