package store

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/slack"
	"github.com/debot-app/debot-backend/internal/store/mock"
	"github.com/debot-app/debot-backend/pkg/logger"
)

var (
	generalChannel = slack.Channel{ID: "C001", Name: "general", IsChannel: true, IsMember: true}
	dealsChannel   = slack.Channel{ID: "C002", Name: "flight-deals", IsChannel: true, IsMember: true}
	lurkerChannel  = slack.Channel{ID: "C404", Name: "announcements", IsChannel: true, IsMember: false}
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

// newTestStore must be called after gomock.NewController so the store stops,
// and its background resolutions drain, before the controller verifies.
func newTestStore(t *testing.T, api ChatAPI) *MessageStore {
	t.Helper()
	s := New(api, nil, testLogger())
	t.Cleanup(s.Stop)
	return s
}

func rawMsg(ts, user, text string) slack.RawMessage {
	return slack.RawMessage{Type: "message", User: user, Text: text, TS: ts}
}

func anyProfile(api *mock.MockChatAPI) {
	api.EXPECT().
		UserInfo(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id string) (*slack.User, error) {
			return &slack.User{ID: id, Name: "user-" + id}, nil
		}).
		AnyTimes()
}

func nextEvent(t *testing.T, events <-chan model.StoreEvent, want model.EventType) model.StoreEvent {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event channel closed")
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s event", want)
		}
	}
}

func TestLoadBuildsSortedFeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9", User: "debot"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400001.000100", "U1", "first"),
		{Type: "presence_change", User: "U1", TS: "1716400009.000100"},
		{Type: "message", Text: "authorless bot note", TS: "1716400008.000100"},
		rawMsg("1716400003.000200", "U2", "third"),
		rawMsg("1716400002.000100", "U1", "second"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	messages := s.Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, "third", messages[0].Text)
	assert.Equal(t, "second", messages[1].Text)
	assert.Equal(t, "first", messages[2].Text)
	for _, m := range messages {
		assert.Equal(t, "C001", m.ChannelID)
		assert.Equal(t, "general", m.ChannelName)
		assert.False(t, m.Read)
	}

	assert.True(t, s.Connected())
	assert.NoError(t, s.LastError())
	assert.Equal(t, 3, s.UnreadCount())

	channels := s.Channels()
	require.Len(t, channels, 1)
	assert.Equal(t, "general", channels[0].Name)
}

func TestLoadResolvesAuthorsAsynchronously(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	release := make(chan struct{})
	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400001.000100", "U1", "hello"),
		rawMsg("1716400002.000100", "U1", "again"),
	}, nil)
	// One lookup serves every message by the same author.
	api.EXPECT().
		UserInfo(gomock.Any(), "U1").
		DoAndReturn(func(ctx context.Context, id string) (*slack.User, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &slack.User{
				ID:   "U1",
				Name: "jane",
				Profile: slack.Profile{
					DisplayName: "Jane",
					Image72:     "https://avatars.test/jane_72.png",
				},
			}, nil
		}).
		Times(1)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	messages := s.Messages()
	require.Len(t, messages, 2)
	for _, m := range messages {
		assert.Equal(t, model.PlaceholderAuthor, m.UserName)
	}

	close(release)
	require.Eventually(t, func() bool {
		for _, m := range s.Messages() {
			if m.UserName != "Jane" {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, "https://avatars.test/jane_72.png", s.Messages()[0].UserAvatar)
}

func TestLoadPartialChannelFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel, dealsChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return(nil, &slack.TransportError{Status: 500})
	api.EXPECT().History(gomock.Any(), "C002").Return([]slack.RawMessage{
		rawMsg("1716400011.000100", "U1", "cheap fares to LIS"),
		rawMsg("1716400012.000100", "U2", "booked it"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	messages := s.Messages()
	require.Len(t, messages, 2)
	for _, m := range messages {
		assert.Equal(t, "C002", m.ChannelID)
	}
	assert.True(t, s.Connected(), "a single failed channel must not disconnect the feed")
	assert.NoError(t, s.LastError())
}

func TestLoadChannelListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return(nil, &slack.TransportError{Status: 502})

	s := newTestStore(t, api)
	err := s.Load(context.Background())
	require.Error(t, err)

	assert.Empty(t, s.Messages())
	assert.False(t, s.Connected())

	var transportErr *slack.TransportError
	require.ErrorAs(t, s.LastError(), &transportErr)
	assert.Equal(t, 502, transportErr.Status)
}

func TestLoadJoinsChannelOnHistoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{lurkerChannel}, nil)
	gomock.InOrder(
		api.EXPECT().History(gomock.Any(), "C404").
			Return(nil, &slack.APIError{Method: "conversations.history", Code: "not_in_channel"}),
		api.EXPECT().JoinChannel(gomock.Any(), "C404").Return(nil),
		api.EXPECT().History(gomock.Any(), "C404").Return([]slack.RawMessage{
			rawMsg("1716400021.000100", "U3", "welcome"),
		}, nil),
	)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "welcome", messages[0].Text)
	assert.True(t, s.Connected())
}

func TestLoadJoinsChannelOnEmptyHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{lurkerChannel}, nil)
	gomock.InOrder(
		api.EXPECT().History(gomock.Any(), "C404").Return(nil, nil),
		api.EXPECT().JoinChannel(gomock.Any(), "C404").Return(nil),
		api.EXPECT().History(gomock.Any(), "C404").Return([]slack.RawMessage{
			rawMsg("1716400022.000100", "U3", "now visible"),
		}, nil),
	)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))
	require.Len(t, s.Messages(), 1)
	assert.Equal(t, "now visible", s.Messages()[0].Text)
}

func TestLoadSkipsChannelWhenJoinFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{lurkerChannel, generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C404").
		Return(nil, &slack.APIError{Method: "conversations.history", Code: "not_in_channel"})
	api.EXPECT().JoinChannel(gomock.Any(), "C404").
		Return(&slack.APIError{Method: "conversations.join", Code: "missing_scope"})
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400031.000100", "U1", "still here"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "C001", messages[0].ChannelID)
	assert.True(t, s.Connected())
}

func TestLoadReplacesPreviousFeed(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil).Times(2)
	gomock.InOrder(
		api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
			rawMsg("1716400041.000100", "U1", "old"),
		}, nil),
		api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
			rawMsg("1716400042.000100", "U1", "new"),
		}, nil),
	)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))
	require.NoError(t, s.Load(context.Background()))

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "new", messages[0].Text)
}

func TestReadFlagsSurviveReload(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	history := []slack.RawMessage{
		rawMsg("1716400051.000100", "U1", "one"),
		rawMsg("1716400052.000100", "U1", "two"),
	}
	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil).Times(2)
	api.EXPECT().History(gomock.Any(), "C001").Return(history, nil).Times(2)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	s.MarkRead("1716400051.000100")
	require.Equal(t, 1, s.UnreadCount())

	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, 1, s.UnreadCount())
	for _, m := range s.Messages() {
		assert.Equal(t, m.ID == "1716400051.000100", m.Read)
	}
}

func TestMarkReadAndUnreadCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400061.000100", "U1", "a"),
		rawMsg("1716400062.000100", "U1", "b"),
		rawMsg("1716400063.000100", "U2", "c"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, 3, s.UnreadCount())

	s.MarkRead("1716400062.000100")
	assert.Equal(t, 2, s.UnreadCount())

	// Marking twice, or marking an unknown id, changes nothing.
	s.MarkRead("1716400062.000100")
	s.MarkRead("9999999999.000000")
	assert.Equal(t, 2, s.UnreadCount())
}

func TestMarkAllRead(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel, dealsChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400071.000100", "U1", "a"),
	}, nil)
	api.EXPECT().History(gomock.Any(), "C002").Return([]slack.RawMessage{
		rawMsg("1716400072.000100", "U2", "b"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, 2, s.UnreadCount())

	s.MarkAllRead()
	assert.Equal(t, 0, s.UnreadCount())
}

func TestThreadMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	parentTS := "1716400081.000100"
	parent := slack.RawMessage{
		Type: "message", User: "U1", Text: "anyone up for SFO-LIS?",
		TS: parentTS, ThreadTS: parentTS, ReplyCount: 2,
	}
	replyLate := slack.RawMessage{
		Type: "message", User: "U2", Text: "count me in",
		TS: "1716400085.000100", ThreadTS: parentTS,
	}
	replyEarly := slack.RawMessage{
		Type: "message", User: "U3", Text: "which dates?",
		TS: "1716400083.000100", ThreadTS: parentTS,
	}
	noise := rawMsg("1716400084.000100", "U4", "unrelated")

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").
		Return([]slack.RawMessage{parent, replyLate, replyEarly, noise}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	// The feed itself stays newest first.
	assert.Equal(t, "count me in", s.Messages()[0].Text)

	thread := s.ThreadMessages(parentTS)
	require.Len(t, thread, 3)
	assert.Equal(t, "anyone up for SFO-LIS?", thread[0].Text)
	assert.Equal(t, "which dates?", thread[1].Text)
	assert.Equal(t, "count me in", thread[2].Text)

	assert.True(t, thread[0].IsThreadParent())
	assert.False(t, thread[0].IsThreadReply())
	assert.True(t, thread[1].IsThreadReply())
	assert.False(t, thread[1].IsThreadParent())

	assert.Empty(t, s.ThreadMessages("1716400084.000100"), "a plain message has no thread parent id")
}

func TestToggleReactionAdds(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	ts := "1716400091.000100"
	msg := rawMsg(ts, "U2", "wheels up")
	msg.Reactions = []slack.Reaction{{Name: "airplane", Count: 1, Users: []string{"U2"}}}

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U1"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil).Times(2)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{msg}, nil).Times(2)
	api.EXPECT().AddReaction(gomock.Any(), "C001", ts, "airplane").Return(nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	action, err := s.ToggleReaction(context.Background(), ts, "airplane")
	require.NoError(t, err)
	assert.Equal(t, ReactionAdded, action)
}

func TestToggleReactionRemoves(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	ts := "1716400092.000100"
	msg := rawMsg(ts, "U2", "wheels up")
	msg.Reactions = []slack.Reaction{{Name: "airplane", Count: 2, Users: []string{"U1", "U2"}}}

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U1"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil).Times(2)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{msg}, nil).Times(2)
	api.EXPECT().RemoveReaction(gomock.Any(), "C001", ts, "airplane").Return(nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))

	action, err := s.ToggleReaction(context.Background(), ts, "airplane")
	require.NoError(t, err)
	assert.Equal(t, ReactionRemoved, action)
}

func TestToggleReactionUnknownMessage(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	s := newTestStore(t, api)
	action, err := s.ToggleReaction(context.Background(), "1716400093.000100", "airplane")
	require.ErrorIs(t, err, ErrMessageNotFound)
	assert.Empty(t, action)
}

func TestToggleReactionFailureDisconnects(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	ts := "1716400094.000100"
	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U1"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{rawMsg(ts, "U2", "hi")}, nil)
	api.EXPECT().AddReaction(gomock.Any(), "C001", ts, "airplane").
		Return(&slack.TransportError{Status: 500})
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))
	require.True(t, s.Connected())

	_, err := s.ToggleReaction(context.Background(), ts, "airplane")
	require.Error(t, err)
	assert.False(t, s.Connected())
	assert.Error(t, s.LastError())

	// The failed toggle must not trigger a reload, and the feed keeps
	// serving the last good data.
	assert.Len(t, s.Messages(), 1)
}

func TestLoadContinuesWhenIdentityLookupFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	ts := "1716400095.000100"
	msg := rawMsg(ts, "U2", "boarding now")
	msg.Reactions = []slack.Reaction{{Name: "airplane", Count: 1, Users: []string{"U1"}}}

	// The lookup fails on the first load and is retried on the reload the
	// toggle triggers; the self id stays unknown throughout.
	api.EXPECT().AuthTest(gomock.Any()).Return(nil, &slack.TransportError{Status: 500}).Times(2)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil).Times(2)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{msg}, nil).Times(2)
	api.EXPECT().AddReaction(gomock.Any(), "C001", ts, "airplane").Return(nil)
	anyProfile(api)

	s := newTestStore(t, api)
	require.NoError(t, s.Load(context.Background()))
	require.True(t, s.Connected())
	require.Len(t, s.Messages(), 1)

	// With no self id the membership scan cannot match, so the toggle takes
	// the add path even though U1 appears in the reaction's user list.
	action, err := s.ToggleReaction(context.Background(), ts, "airplane")
	require.NoError(t, err)
	assert.Equal(t, ReactionAdded, action)
}

func TestSendPostsAndReloads(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U1"}, nil)
	api.EXPECT().PostMessage(gomock.Any(), "C001", "safe travels").
		Return("1716400101.000500", nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400101.000500", "U1", "safe travels"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	id, err := s.Send(context.Background(), "C001", "safe travels")
	require.NoError(t, err)
	assert.Equal(t, "1716400101.000500", id)

	messages := s.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, "safe travels", messages[0].Text)
}

func TestSendFailureDisconnects(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().PostMessage(gomock.Any(), "C001", "safe travels").
		Return("", &slack.APIError{Method: "chat.postMessage", Code: "channel_not_found"})

	s := newTestStore(t, api)
	_, err := s.Send(context.Background(), "C001", "safe travels")
	require.Error(t, err)
	assert.False(t, s.Connected())
}

func TestSubscribeStreamsReloadEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return([]slack.RawMessage{
		rawMsg("1716400111.000100", "U1", "a"),
		rawMsg("1716400112.000100", "U2", "b"),
	}, nil)
	anyProfile(api)

	s := newTestStore(t, api)
	id, events := s.Subscribe()
	defer s.Unsubscribe(id)

	require.NoError(t, s.Load(context.Background()))

	started := nextEvent(t, events, model.EventTypeReloadStarted)
	assert.NotEmpty(t, started.ID)
	assert.False(t, started.CreatedAt.IsZero())

	batch := nextEvent(t, events, model.EventTypeMessageBatch)
	assert.Equal(t, "C001", batch.ChannelID)
	assert.Equal(t, 2, batch.Count)

	complete := nextEvent(t, events, model.EventTypeReloadComplete)
	assert.Equal(t, 2, complete.Count)
}

func TestJournalReceivesEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)
	journal := mock.NewMockJournal(ctrl)

	api.EXPECT().AuthTest(gomock.Any()).Return(&slack.Identity{UserID: "U9"}, nil)
	api.EXPECT().ListChannels(gomock.Any()).Return([]slack.Channel{generalChannel}, nil)
	api.EXPECT().History(gomock.Any(), "C001").Return(nil, nil)

	published := make(chan model.StoreEvent, 16)
	journal.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, ev model.StoreEvent) { published <- ev }).
		AnyTimes()

	s := New(api, journal, testLogger())
	t.Cleanup(s.Stop)

	require.NoError(t, s.Load(context.Background()))

	types := map[model.EventType]bool{}
	deadline := time.After(2 * time.Second)
	for !types[model.EventTypeReloadComplete] {
		select {
		case ev := <-published:
			types[ev.Type] = true
		case <-deadline:
			t.Fatal("journal never saw the reload complete event")
		}
	}
	assert.True(t, types[model.EventTypeReloadStarted])
}

func TestStopIsIdempotentAndQuiesces(t *testing.T) {
	ctrl := gomock.NewController(t)
	api := mock.NewMockChatAPI(ctrl)

	s := newTestStore(t, api)
	s.Stop()
	s.Stop()

	// Operations after Stop are silent no-ops.
	s.MarkRead("1716400121.000100")
	s.MarkAllRead()
	assert.Empty(t, s.Messages())
}
