package room

import (
	"context"
	"testing"
	"time"

	"chatroom/internal/models"
	"chatroom/internal/store"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st, err := store.NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewService(st, nil)
}

func Test_Join_Then_List_Contains_Exactly_One_Record(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))

	participants, err := svc.ListParticipants(ctx)
	req.NoError(err)
	req.Len(participants, 1)
	req.Equal("alice", participants[0].Name)
}

func Test_Join_Empty_Name_Fails_Validation(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	err := svc.Join(context.Background(), models.JoinRequest{Name: ""})
	var verr *ValidationError
	req.ErrorAs(err, &verr)
	req.NotEmpty(verr.Fields)
}

func Test_Join_Duplicate_Name_Conflicts(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))
	req.ErrorIs(svc.Join(ctx, models.JoinRequest{Name: "alice"}), ErrConflict)

	participants, err := svc.ListParticipants(ctx)
	req.NoError(err)
	req.Len(participants, 1)
}

func Test_Join_Appends_Arrival_Notice(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))

	messages, err := svc.GetMessages(ctx, "anyone", 0)
	req.NoError(err)
	req.Len(messages, 1)
	req.Equal("alice", messages[0].From)
	req.Equal(models.Everyone, messages[0].To)
	req.Equal(models.MessageTypeStatus, messages[0].Type)
	req.NotEmpty(messages[0].Time)
}

func Test_Heartbeat_Unknown_Participant_NotFound(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.ErrorIs(svc.Heartbeat(ctx, "ghost"), ErrNotFound)

	participants, err := svc.ListParticipants(ctx)
	req.NoError(err)
	req.Empty(participants)
}

func Test_Heartbeat_Refreshes_LastSeen_And_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	joinedAt := time.Now().Add(-time.Minute)
	svc.now = func() time.Time { return joinedAt }
	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))

	refreshedAt := time.Now()
	svc.now = func() time.Time { return refreshedAt }
	req.NoError(svc.Heartbeat(ctx, "alice"))
	req.NoError(svc.Heartbeat(ctx, "alice"))
	req.NoError(svc.Heartbeat(ctx, "alice"))

	participants, err := svc.ListParticipants(ctx)
	req.NoError(err)
	req.Len(participants, 1)
	req.WithinDuration(refreshedAt, participants[0].LastSeen, time.Second)
}

func Test_PostMessage_Broadcast_Readable_By_Everyone(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))
	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "bob"}))
	req.NoError(svc.PostMessage(ctx, models.PostMessageRequest{
		From: "alice", To: models.Everyone, Text: "hi", Type: models.MessageTypeMessage,
	}))

	forBob, err := svc.GetMessages(ctx, "bob", 0)
	req.NoError(err)
	req.Equal("hi", forBob[len(forBob)-1].Text)

	// charlie never joined, but a broadcast is visible to any viewer.
	forCharlie, err := svc.GetMessages(ctx, "charlie", 0)
	req.NoError(err)
	req.Equal("hi", forCharlie[len(forCharlie)-1].Text)
}

func Test_PostMessage_Private_Scoped_To_Pair(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))
	req.NoError(svc.PostMessage(ctx, models.PostMessageRequest{
		From: "alice", To: "bob", Text: "secret", Type: models.MessageTypePrivate,
	}))

	hasSecret := func(msgs []*models.Message) bool {
		for _, m := range msgs {
			if m.Text == "secret" {
				return true
			}
		}
		return false
	}

	forAlice, err := svc.GetMessages(ctx, "alice", 0)
	req.NoError(err)
	req.True(hasSecret(forAlice))

	forBob, err := svc.GetMessages(ctx, "bob", 0)
	req.NoError(err)
	req.True(hasSecret(forBob))

	forCharlie, err := svc.GetMessages(ctx, "charlie", 0)
	req.NoError(err)
	req.False(hasSecret(forCharlie))
}

func Test_PostMessage_Rejects_NonLive_Sender(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	err := svc.PostMessage(context.Background(), models.PostMessageRequest{
		From: "ghost", To: models.Everyone, Text: "boo", Type: models.MessageTypeMessage,
	})
	req.ErrorIs(err, ErrSenderNotPresent)
}

func Test_PostMessage_Collects_All_Violations(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	err := svc.PostMessage(context.Background(), models.PostMessageRequest{
		From: "", To: "", Text: "", Type: "shout",
	})
	var verr *ValidationError
	req.ErrorAs(err, &verr)
	req.Len(verr.Fields, 4)
}

func Test_GetMessages_Empty_Result_Is_NoMessages(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)

	_, err := svc.GetMessages(context.Background(), "anyone", 0)
	req.ErrorIs(err, ErrNoMessages)
}

func Test_GetMessages_Limit_Returns_Most_Recent(t *testing.T) {
	req := require.New(t)
	svc := newTestService(t)
	ctx := context.Background()

	req.NoError(svc.Join(ctx, models.JoinRequest{Name: "alice"}))
	for _, text := range []string{"one", "two", "three"} {
		req.NoError(svc.PostMessage(ctx, models.PostMessageRequest{
			From: "alice", To: models.Everyone, Text: text, Type: models.MessageTypeMessage,
		}))
	}

	messages, err := svc.GetMessages(ctx, "bob", 2)
	req.NoError(err)
	req.Len(messages, 2)
	req.Equal("two", messages[0].Text)
	req.Equal("three", messages[1].Text)
}
