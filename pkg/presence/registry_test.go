package presence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/korjavin/curfewbot/pkg/models"
)

func TestRegistry_JoinLeave(t *testing.T) {
	r := NewRegistry()

	r.Join(1, models.Participant{UserID: 100, Username: "alice"})
	r.Join(1, models.Participant{UserID: 200, Username: "bob"})
	r.Join(2, models.Participant{UserID: 100, Username: "alice"})

	require.ElementsMatch(t, []int64{1, 2}, r.Chats())
	require.Len(t, r.Participants(1), 2)
	require.Len(t, r.Participants(2), 1)

	require.True(t, r.Leave(1, 100))
	require.Len(t, r.Participants(1), 1)

	require.False(t, r.Leave(1, 100), "leaving twice is a no-op")
	require.False(t, r.Leave(99, 100), "unknown chat")
}

func TestRegistry_RejoinKeepsJoinTime(t *testing.T) {
	r := NewRegistry()
	r.Join(1, models.Participant{UserID: 100, Username: "alice"})
	first := r.Participants(1)[0].JoinedAt

	r.Join(1, models.Participant{UserID: 100, Username: "alice"})
	require.Equal(t, first, r.Participants(1)[0].JoinedAt)
}

func TestRegistry_ClearChat(t *testing.T) {
	r := NewRegistry()
	r.Join(1, models.Participant{UserID: 100})
	r.Join(1, models.Participant{UserID: 200})

	r.ClearChat(1)
	require.Empty(t, r.Participants(1))
	require.Empty(t, r.Chats())
}

func TestRegistry_EmptyChatDropped(t *testing.T) {
	r := NewRegistry()
	r.Join(1, models.Participant{UserID: 100})
	r.Leave(1, 100)
	require.Empty(t, r.Chats())
}

type fakeKicker struct {
	kicked []int64
	err    error
}

func (k *fakeKicker) KickFromVoiceChat(_ context.Context, _ int64, userID int64) error {
	if k.err != nil {
		return k.err
	}
	k.kicked = append(k.kicked, userID)
	return nil
}

func TestGateway_DisconnectRemovesParticipant(t *testing.T) {
	r := NewRegistry()
	r.Join(1, models.Participant{UserID: 100, Username: "alice"})
	kicker := &fakeKicker{}
	g := NewGateway(r, kicker)

	require.NoError(t, g.Disconnect(context.Background(), 1, 100))
	require.Equal(t, []int64{100}, kicker.kicked)
	require.Empty(t, g.Participants(1))
}

func TestGateway_DisconnectFailureKeepsParticipant(t *testing.T) {
	r := NewRegistry()
	r.Join(1, models.Participant{UserID: 100, Username: "alice"})
	g := NewGateway(r, &fakeKicker{err: errors.New("no permission")})

	err := g.Disconnect(context.Background(), 1, 100)
	require.Error(t, err)
	require.Len(t, g.Participants(1), 1, "failed kick must not drop the tracked participant")
}
