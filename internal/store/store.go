// Package store implements the message store and reconciler: it assembles
// the chat feed from the remote chat API, resolves author profiles
// asynchronously, and serves consistent snapshots of the result.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/slack"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

//go:generate mockgen -source=store.go -destination=mock/store.go -package=mock

// ChatAPI is the remote chat surface the store consumes.
type ChatAPI interface {
	ListChannels(ctx context.Context) ([]slack.Channel, error)
	History(ctx context.Context, channelID string) ([]slack.RawMessage, error)
	JoinChannel(ctx context.Context, channelID string) error
	PostMessage(ctx context.Context, channelID, text string) (string, error)
	AddReaction(ctx context.Context, channelID, timestamp, name string) error
	RemoveReaction(ctx context.Context, channelID, timestamp, name string) error
	UserInfo(ctx context.Context, userID string) (*slack.User, error)
	AuthTest(ctx context.Context) (*slack.Identity, error)
}

// Journal receives store events for out-of-process consumers. Publish must
// not block the caller.
type Journal interface {
	Publish(ctx context.Context, event model.StoreEvent)
}

// ErrMessageNotFound indicates the message id is not in the current feed.
var ErrMessageNotFound = errors.New("store: message not found")

const (
	// ReactionAdded and ReactionRemoved name the two toggle outcomes.
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
)

// Snapshot is an immutable view of store state.
type Snapshot struct {
	Messages  []model.Message
	Channels  []model.Channel
	Connected bool
	Err       error
}

// MessageStore owns the authoritative message list. All state mutations run
// on a single coordinating goroutine fed by an operation channel; readers
// are served from the last published snapshot.
type MessageStore struct {
	api     ChatAPI
	journal Journal
	logger  *logger.Logger

	ops  chan func()
	done chan struct{}

	// baseCtx outlives any single Load so profile resolutions spawned by a
	// superseded load can still land; it is canceled only by Stop.
	baseCtx    context.Context
	baseCancel context.CancelFunc

	loadMu    sync.Mutex
	resolveWG sync.WaitGroup
	journalWG sync.WaitGroup
	stopOnce  sync.Once

	mu       sync.RWMutex
	snapshot Snapshot

	// Coordinator-owned state, touched only from the ops goroutine.
	messages  []model.Message
	channels  []model.Channel
	connected bool
	lastErr   error
	profiles  map[string]*slack.User
	pending   map[string]bool
	readCarry map[string]bool
	selfID    string

	subsMu  sync.Mutex
	subs    map[int]chan model.StoreEvent
	nextSub int
}

// New creates a message store backed by api. journal may be nil.
func New(api ChatAPI, journal Journal, log *logger.Logger) *MessageStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &MessageStore{
		api:        api,
		journal:    journal,
		logger:     log,
		ops:        make(chan func()),
		done:       make(chan struct{}),
		baseCtx:    ctx,
		baseCancel: cancel,
		profiles:   make(map[string]*slack.User),
		pending:    make(map[string]bool),
		subs:       make(map[int]chan model.StoreEvent),
	}
	go s.run()
	return s
}

func (s *MessageStore) run() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.done:
			return
		}
	}
}

// do runs op on the coordinating goroutine and waits for it to finish.
// After Stop it is a no-op.
func (s *MessageStore) do(op func()) {
	ran := make(chan struct{})
	wrapped := func() {
		op()
		close(ran)
	}
	select {
	case s.ops <- wrapped:
		<-ran
	case <-s.done:
	}
}

// Stop cancels in-flight profile resolutions, waits for them and for
// pending journal publishes to land, and shuts the coordinator down.
func (s *MessageStore) Stop() {
	s.stopOnce.Do(func() {
		s.baseCancel()
		s.resolveWG.Wait()
		s.journalWG.Wait()
		close(s.done)
	})
}

// Messages returns the current feed, newest first.
func (s *MessageStore) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Messages
}

// Channels returns the channels the feed is assembled from.
func (s *MessageStore) Channels() []model.Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Channels
}

// Connected reports whether the last remote operation succeeded.
func (s *MessageStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Connected
}

// LastError returns the error surfaced by the last failed operation, or
// nil.
func (s *MessageStore) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Err
}

// UnreadCount reports how many messages are unread, recomputed from the
// full list on every call.
func (s *MessageStore) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, m := range s.snapshot.Messages {
		if !m.Read {
			count++
		}
	}
	return count
}

// ThreadMessages returns the thread for a parent message: the parent plus
// all of its replies, in ascending timestamp order.
func (s *MessageStore) ThreadMessages(parentID string) []model.Message {
	s.mu.RLock()
	messages := s.snapshot.Messages
	s.mu.RUnlock()

	var thread []model.Message
	for _, m := range messages {
		if m.ID == parentID || m.ThreadParentID == parentID {
			thread = append(thread, m)
		}
	}
	sort.SliceStable(thread, func(i, j int) bool {
		if thread[i].Timestamp.Equal(thread[j].Timestamp) {
			return thread[i].ID < thread[j].ID
		}
		return thread[i].Timestamp.Before(thread[j].Timestamp)
	})
	return thread
}

// Subscribe registers an event listener and returns its id and channel.
// Events are dropped for subscribers that fall behind.
func (s *MessageStore) Subscribe() (int, <-chan model.StoreEvent) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan model.StoreEvent, 32)
	s.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (s *MessageStore) Unsubscribe(id int) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
}

func (s *MessageStore) emit(event model.StoreEvent) {
	event.ID = uuid.Must(uuid.NewV7()).String()
	event.CreatedAt = time.Now()

	s.subsMu.Lock()
	for _, ch := range s.subs {
		select {
		case ch <- event:
		default:
		}
	}
	s.subsMu.Unlock()

	if s.journal != nil {
		s.journalWG.Add(1)
		go func() {
			defer s.journalWG.Done()
			s.journal.Publish(s.baseCtx, event)
		}()
	}
}

// publish copies coordinator state into the read snapshot. It must run on
// the coordinating goroutine.
func (s *MessageStore) publish() {
	messages := make([]model.Message, len(s.messages))
	copy(messages, s.messages)
	channels := make([]model.Channel, len(s.channels))
	copy(channels, s.channels)

	unread := 0
	for _, m := range messages {
		if !m.Read {
			unread++
		}
	}

	s.mu.Lock()
	s.snapshot = Snapshot{
		Messages:  messages,
		Channels:  channels,
		Connected: s.connected,
		Err:       s.lastErr,
	}
	s.mu.Unlock()

	metrics.SetStoreSize(len(messages), unread)
}

func (s *MessageStore) sortAndPublish() {
	sortFeed(s.messages)
	s.publish()
}

// sortFeed orders the feed newest first, with the id as a tie-break so the
// order is stable across reloads.
func sortFeed(messages []model.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].ID > messages[j].ID
		}
		return messages[i].Timestamp.After(messages[j].Timestamp)
	})
}
