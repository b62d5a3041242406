package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterm/internal/app/user"
	"chatterm/internal/pkg/errs"
)

func conv(id, peerID int64, name string, online bool) Conversation {
	return Conversation{ID: id, Participant: user.Participant{ID: peerID, Username: name, IsOnline: online}}
}

func TestAppendMessageIsIdempotent(t *testing.T) {
	s := NewStore()
	msg := Message{ID: 10, Body: "hello", SenderID: 9, ConversationID: 1}

	s.AppendMessage(1, msg)
	s.AppendMessage(1, msg)
	s.AppendMessage(1, Message{ID: 10, Body: "different body, same id", ConversationID: 1})

	require.Len(t, s.Messages(1), 1)
	assert.Equal(t, "hello", s.Messages(1)[0].Body)
}

func TestAppendMessageKeepsReceiptOrder(t *testing.T) {
	s := NewStore()
	now := time.Now()

	s.AppendMessage(1, Message{ID: 3, CreatedAt: now})
	s.AppendMessage(1, Message{ID: 1, CreatedAt: now.Add(-time.Hour)})
	s.AppendMessage(1, Message{ID: 2, CreatedAt: now.Add(-time.Minute)})

	ids := []int64{}
	for _, m := range s.Messages(1) {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestAppendMessageClearsTyping(t *testing.T) {
	for _, prior := range []bool{true, false} {
		s := NewStore()
		s.SetTyping(4, prior)
		s.AppendMessage(4, Message{ID: 1})

		assert.False(t, s.Snapshot().Typing[4], "prior=%v", prior)
		assert.NotContains(t, s.Snapshot().Typing, int64(4))
	}
}

func TestSetTypingStoresOnlyTrue(t *testing.T) {
	s := NewStore()

	s.SetTyping(2, true)
	assert.Equal(t, map[int64]bool{2: true}, s.Snapshot().Typing)

	s.SetTyping(2, false)
	assert.Empty(t, s.Snapshot().Typing)
}

func TestParticipantComesOnline(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{conv(1, 9, "ayse", false)})

	s.SetParticipantOnline(9, true)

	p, ok := s.Participant(1)
	require.True(t, ok)
	assert.True(t, p.IsOnline)
}

func TestSetParticipantOnlineUpdatesEveryMatch(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{
		conv(1, 9, "ayse", false),
		conv(2, 7, "bora", false),
		conv(3, 9, "ayse", false),
	})

	s.SetParticipantOnline(9, true)

	convs := s.Conversations("")
	assert.True(t, convs[0].Participant.IsOnline)
	assert.False(t, convs[1].Participant.IsOnline)
	assert.True(t, convs[2].Participant.IsOnline)
}

func TestSetOnlineFriendSetIsAuthoritative(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{
		conv(1, 9, "ayse", true),
		conv(2, 7, "bora", false),
		conv(3, 5, "cem", true),
	})

	s.SetOnlineFriendSet([]int64{7, 42})

	for _, c := range s.Conversations("") {
		assert.Equal(t, c.Participant.ID == 7, c.Participant.IsOnline, "participant %d", c.Participant.ID)
	}

	s.SetOnlineFriendSet(nil)
	for _, c := range s.Conversations("") {
		assert.False(t, c.Participant.IsOnline)
	}
}

func TestRecordFetchedConversationsReplacesLocalPresence(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{conv(1, 9, "ayse", false)})
	s.SetParticipantOnline(9, true)

	s.RecordFetchedConversations([]Conversation{conv(1, 9, "ayse", false)})

	p, _ := s.Participant(1)
	assert.False(t, p.IsOnline)
	assert.Equal(t, StatusSucceeded, s.Status())
}

func TestUnknownActiveConversationYieldsEmptyView(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{conv(1, 9, "ayse", false)})

	s.SetActiveConversation(999)

	_, ok := s.ActiveConversation()
	assert.False(t, ok)
	assert.NotNil(t, s.ActiveMessages())
	assert.Empty(t, s.ActiveMessages())
	assert.False(t, s.ActiveTyping())
	assert.Equal(t, int64(999), s.ActiveID())
}

func TestOptimisticMessageRemovedByFetch(t *testing.T) {
	s := NewStore()
	emitter := &recordingEmitter{err: errs.NewError(errs.ErrNotConnected)}
	c := NewComposer(s, emitter, func() int64 { return 1 }, time.Second)
	defer c.Close()

	sent, err := c.Send(5, "hi")
	assert.True(t, errs.Is(err, errs.ErrNotConnected))

	log := s.Messages(5)
	require.Len(t, log, 1)
	assert.Equal(t, "hi", log[0].Body)
	assert.True(t, log[0].Pending())
	assert.Equal(t, sent.ID, log[0].ID)

	s.RecordFetchedMessages(5, []Message{{ID: 100, Body: "earlier", ConversationID: 5}})

	log = s.Messages(5)
	require.Len(t, log, 1)
	assert.Equal(t, int64(100), log[0].ID)
}

func TestEchoWithClientTokenReplacesOptimisticMessage(t *testing.T) {
	s := NewStore()
	optimistic := Message{ID: -5, Body: "hi", ConversationID: 5, ClientToken: "3f0e6f6c-0f55-4b43-9a39-0ce2ad4ba2d1"}
	s.AppendMessage(5, Message{ID: 1, Body: "before", ConversationID: 5})
	s.AppendMessage(5, optimistic)
	s.AppendMessage(5, Message{ID: 2, Body: "after", ConversationID: 5})

	echo := optimistic
	echo.ID = 77
	s.AppendMessage(5, echo)

	log := s.Messages(5)
	require.Len(t, log, 3)
	assert.Equal(t, int64(77), log[1].ID)
	assert.False(t, log[1].Pending())
}

func TestAcknowledgeMessage(t *testing.T) {
	token := "3f0e6f6c-0f55-4b43-9a39-0ce2ad4ba2d1"
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("rewrites optimistic entry", func(t *testing.T) {
		s := NewStore()
		s.AppendMessage(5, Message{ID: -1, Body: "hi", ClientToken: token})

		s.AcknowledgeMessage(5, token, 42, created)

		log := s.Messages(5)
		require.Len(t, log, 1)
		assert.Equal(t, int64(42), log[0].ID)
		assert.Equal(t, created, log[0].CreatedAt)

		// a late echo of the same message is now a duplicate
		s.AppendMessage(5, Message{ID: 42, Body: "hi", ClientToken: token})
		assert.Len(t, s.Messages(5), 1)
	})

	t.Run("drops optimistic entry when echo came first", func(t *testing.T) {
		s := NewStore()
		s.AppendMessage(5, Message{ID: -1, Body: "hi", ClientToken: token})
		s.AppendMessage(5, Message{ID: 42, Body: "hi"})

		s.AcknowledgeMessage(5, token, 42, created)

		log := s.Messages(5)
		require.Len(t, log, 1)
		assert.Equal(t, int64(42), log[0].ID)
	})

	t.Run("unknown token is ignored", func(t *testing.T) {
		s := NewStore()
		ch, unsubscribe := s.Subscribe()
		defer unsubscribe()

		s.AcknowledgeMessage(5, token, 42, created)

		assert.Empty(t, s.Messages(5))
		assert.Len(t, ch, 0)
	})
}

func TestConversationsFilter(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{
		conv(1, 9, "Ayse", false),
		conv(2, 7, "bora", false),
		conv(3, 5, "aysel", false),
	})

	got := s.Conversations("AYS")
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)

	assert.Len(t, s.Conversations("  "), 3)
	assert.Empty(t, s.Conversations("zz"))
}

func TestSnapshotDoesNotAlias(t *testing.T) {
	s := NewStore()
	last := Message{ID: 1, Body: "original"}
	s.RecordFetchedConversations([]Conversation{{ID: 1, LastMessage: &last}})
	s.AppendMessage(1, Message{ID: 2, Body: "original"})

	snap := s.Snapshot()
	snap.Conversations[0].LastMessage.Body = "changed"
	snap.Messages[1][0].Body = "changed"
	snap.Typing[1] = true

	again := s.Snapshot()
	assert.Equal(t, "original", again.Conversations[0].LastMessage.Body)
	assert.Equal(t, "original", again.Messages[1][0].Body)
	assert.Empty(t, again.Typing)
}

func TestFetchStatusLifecycle(t *testing.T) {
	s := NewStore()
	assert.Equal(t, StatusIdle, s.Status())

	s.Dispatch(ConversationsRequested{})
	assert.Equal(t, StatusLoading, s.Status())

	failure := errs.NewError(errs.ErrServer)
	s.Dispatch(ConversationsFailed{Err: failure})
	assert.Equal(t, StatusFailed, s.Status())
	assert.Same(t, failure, s.Err())

	s.RecordFetchedConversations(nil)
	assert.Equal(t, StatusSucceeded, s.Status())
	assert.Nil(t, s.Err())
	assert.NotNil(t, s.Snapshot().Conversations)
}

func TestResetClearsEverything(t *testing.T) {
	s := NewStore()
	s.RecordFetchedConversations([]Conversation{conv(1, 9, "ayse", true)})
	s.SetActiveConversation(1)
	s.AppendMessage(1, Message{ID: 1})
	s.SetTyping(1, true)

	s.Reset()

	snap := s.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.Empty(t, snap.Messages)
	assert.Empty(t, snap.Typing)
	assert.Zero(t, snap.ActiveID)
	assert.Equal(t, StatusIdle, snap.Status)
}

func TestSubscribeCoalescesNotifications(t *testing.T) {
	s := NewStore()
	ch, unsubscribe := s.Subscribe()

	for i := int64(1); i <= 10; i++ {
		s.AppendMessage(1, Message{ID: i})
	}

	assert.Len(t, ch, 1)
	<-ch

	// no-op actions do not notify
	s.SetTyping(1, false)
	assert.Len(t, ch, 0)

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)

	// dispatching after unsubscribe must not panic
	s.AppendMessage(1, Message{ID: 11})
}
