package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/studyloop/backend/internal/entity"
	activityRepo "github.com/studyloop/backend/internal/modules/activity/repository"
	activityService "github.com/studyloop/backend/internal/modules/activity/service"
	messageDto "github.com/studyloop/backend/internal/modules/message/dto"
	messageRepo "github.com/studyloop/backend/internal/modules/message/repository"
	"github.com/studyloop/backend/internal/testutil"
	"github.com/studyloop/backend/pkg/apperror"
)

type fixture struct {
	svc          MessageService
	db           *gorm.DB
	student      *entity.User
	instructor   *entity.User
	conversation uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.OpenDB(t)
	activities := activityService.NewActivityService(activityRepo.NewActivityRepository(db), nil)
	svc := NewMessageService(messageRepo.NewMessageRepository(db), activities, nil)

	student := testutil.CreateUser(t, db, "alice")
	instructor := testutil.CreateUser(t, db, "coach")
	conversation, err := svc.StartConversation(student.ID, instructor.ID)
	require.NoError(t, err)

	return &fixture{
		svc:          svc,
		db:           db,
		student:      student,
		instructor:   instructor,
		conversation: conversation.ID,
	}
}

func countActivityRecords(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&entity.ActivityRecord{}).Count(&count).Error)
	return count
}

func TestStartConversationIsIdempotentPerPair(t *testing.T) {
	f := newFixture(t)

	again, err := f.svc.StartConversation(f.student.ID, f.instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, f.conversation, again.ID)

	_, err = f.svc.StartConversation(f.student.ID, f.student.ID)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestDraftIsInvisibleToOtherPartyAndNeverProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.SendMessage(ctx, f.student.ID, f.conversation, messageDto.SendMessageRequest{
		Type:    entity.MessageTypeDailyNote,
		Body:    "shipped the login page today",
		IsDraft: true,
	})
	require.NoError(t, err)
	assert.True(t, draft.IsDraft)
	assert.EqualValues(t, 0, countActivityRecords(t, f.db))

	// The sender sees their own draft.
	mine, _, err := f.svc.ListMessages(f.conversation, f.student.ID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	// The other party does not.
	theirs, _, err := f.svc.ListMessages(f.conversation, f.instructor.ID, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

func TestPublishDraftProjectsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.SendMessage(ctx, f.student.ID, f.conversation, messageDto.SendMessageRequest{
		Type:    entity.MessageTypeDailyNote,
		Body:    "shipped the login page today",
		IsDraft: true,
	})
	require.NoError(t, err)

	published, err := f.svc.PublishDraft(ctx, f.student.ID, draft.ID)
	require.NoError(t, err)
	assert.False(t, published.IsDraft)
	assert.EqualValues(t, 1, countActivityRecords(t, f.db))

	record := &entity.ActivityRecord{}
	require.NoError(t, f.db.First(record).Error)
	assert.Equal(t, entity.ActivityKindDailyNote, record.Kind)

	// A published message is no longer a draft; publishing again fails.
	_, err = f.svc.PublishDraft(ctx, f.student.ID, draft.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.EqualValues(t, 1, countActivityRecords(t, f.db))

	// And both parties now see it.
	theirs, _, err := f.svc.ListMessages(f.conversation, f.instructor.ID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestChatMessagesNeverProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SendMessage(ctx, f.instructor.ID, f.conversation, messageDto.SendMessageRequest{
		Type: entity.MessageTypeChat,
		Body: "how did the deploy go?",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, countActivityRecords(t, f.db))

	_, err = f.svc.SendMessage(ctx, f.instructor.ID, f.conversation, messageDto.SendMessageRequest{
		Type:    entity.MessageTypeChat,
		Body:    "draft of a chat",
		IsDraft: true,
	})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestNonParticipantIsRejected(t *testing.T) {
	f := newFixture(t)
	outsider := testutil.CreateUser(t, f.db, "mallory")

	_, err := f.svc.SendMessage(context.Background(), outsider.ID, f.conversation, messageDto.SendMessageRequest{
		Type: entity.MessageTypeChat,
		Body: "let me in",
	})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, _, err = f.svc.ListMessages(f.conversation, outsider.ID, 1, 50)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
