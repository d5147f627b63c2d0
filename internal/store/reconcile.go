package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/internal/slack"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

var tracer = otel.Tracer("github.com/debot-app/debot-backend/internal/store")

// Load rebuilds the feed from the remote chat API. A failure on one channel
// is logged and that channel skipped; only failed channel enumeration
// aborts the load. Author names start out as placeholders and resolve
// asynchronously after Load returns. Read flags carry over by message id.
func (s *MessageStore) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	ctx, span := tracer.Start(ctx, "store.load")
	defer span.End()

	start := time.Now()
	s.emit(model.StoreEvent{Type: model.EventTypeReloadStarted})

	s.ensureIdentity(ctx)

	rawChannels, err := s.api.ListChannels(ctx)
	if err != nil {
		span.RecordError(err)
		s.fail("list channels", err)
		return err
	}

	channels := make([]model.Channel, 0, len(rawChannels))
	for _, ch := range rawChannels {
		channels = append(channels, model.Channel{
			ID:        ch.ID,
			Name:      ch.Name,
			IsPrivate: ch.IsPrivate,
			IsMember:  ch.IsMember,
		})
	}

	// Reset the feed before the per-channel pass so readers never see old
	// and new generations mixed together.
	s.do(func() {
		readCarry := make(map[string]bool, len(s.messages))
		for _, m := range s.messages {
			if m.Read {
				readCarry[m.ID] = true
			}
		}
		s.readCarry = readCarry
		s.messages = nil
		s.channels = channels
		s.connected = true
		s.lastErr = nil
		s.publish()
	})

	loaded := 0
	for _, ch := range rawChannels {
		raw, err := s.fetchHistory(ctx, ch)
		if err != nil {
			s.logger.Warn("channel fetch failed, skipping",
				zap.String("channel_id", ch.ID),
				zap.String("channel", ch.Name),
				zap.Error(err),
			)
			continue
		}
		loaded += s.ingest(raw, ch)
	}

	metrics.ObserveReload(time.Since(start).Seconds())
	s.emit(model.StoreEvent{Type: model.EventTypeReloadComplete, Count: loaded})
	s.logger.Info("feed reloaded",
		zap.Int("channels", len(channels)),
		zap.Int("messages", loaded),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

// ensureIdentity resolves the authenticated user id once per store
// lifetime. It decides reaction-toggle membership; on failure it stays
// empty, which always selects the add path.
func (s *MessageStore) ensureIdentity(ctx context.Context) {
	var have bool
	s.do(func() { have = s.selfID != "" })
	if have {
		return
	}

	identity, err := s.api.AuthTest(ctx)
	if err != nil {
		s.logger.Warn("identity lookup failed", zap.Error(err))
		return
	}
	s.do(func() { s.selfID = identity.UserID })
	s.logger.Info("authenticated",
		zap.String("user_id", identity.UserID),
		zap.String("team", identity.Team),
	)
}

// fetchHistory fetches one channel's history. For channels the user is not
// a member of, an error or an empty page triggers a single join-and-retry.
func (s *MessageStore) fetchHistory(ctx context.Context, ch slack.Channel) ([]slack.RawMessage, error) {
	raw, err := s.api.History(ctx, ch.ID)
	if err == nil && (len(raw) > 0 || ch.IsMember) {
		return raw, nil
	}
	if ch.IsMember {
		return raw, err
	}

	if joinErr := s.api.JoinChannel(ctx, ch.ID); joinErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, joinErr
	}
	s.logger.Info("joined channel",
		zap.String("channel_id", ch.ID),
		zap.String("channel", ch.Name),
	)
	return s.api.History(ctx, ch.ID)
}

// ingest converts raw history into feed messages, appends them, and spawns
// profile resolution for authors seen for the first time.
func (s *MessageStore) ingest(raw []slack.RawMessage, ch slack.Channel) int {
	added := 0
	s.do(func() {
		var unresolved []string
		for _, rm := range raw {
			if rm.Type != "message" || rm.User == "" {
				continue
			}
			msg, err := convertMessage(rm, ch)
			if err != nil {
				s.logger.Debug("dropping malformed message",
					zap.String("channel_id", ch.ID),
					zap.Error(err),
				)
				continue
			}
			if s.readCarry[msg.ID] {
				msg.Read = true
			}
			if profile, ok := s.profiles[rm.User]; ok {
				applyProfile(&msg, profile)
			} else if !s.pending[rm.User] {
				s.pending[rm.User] = true
				unresolved = append(unresolved, rm.User)
			}
			s.messages = append(s.messages, msg)
			added++
		}
		s.sortAndPublish()

		for _, userID := range unresolved {
			s.resolveProfile(userID)
		}
	})
	if added > 0 {
		s.emit(model.StoreEvent{Type: model.EventTypeMessageBatch, ChannelID: ch.ID, Count: added})
	}
	return added
}

// resolveProfile fetches one author's profile in the background and applies
// it to every message from that author, current and future. It must be
// called from the coordinating goroutine with the author already pending.
func (s *MessageStore) resolveProfile(userID string) {
	s.resolveWG.Add(1)
	go func() {
		defer s.resolveWG.Done()

		profile, err := s.api.UserInfo(s.baseCtx, userID)
		if err != nil {
			s.logger.Warn("profile resolution failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
			s.do(func() { delete(s.pending, userID) })
			return
		}

		s.do(func() {
			s.profiles[userID] = profile
			delete(s.pending, userID)
			for i := range s.messages {
				if s.messages[i].UserID == userID {
					applyProfile(&s.messages[i], profile)
				}
			}
			s.sortAndPublish()
		})
		s.emit(model.StoreEvent{Type: model.EventTypeUserResolved, UserID: userID})
	}()
}

func convertMessage(rm slack.RawMessage, ch slack.Channel) (model.Message, error) {
	ts, err := slack.ParseTimestamp(rm.TS)
	if err != nil {
		return model.Message{}, err
	}

	msg := model.Message{
		ID:          rm.TS,
		UserID:      rm.User,
		UserName:    model.PlaceholderAuthor,
		ChannelID:   ch.ID,
		ChannelName: ch.Name,
		Text:        rm.Text,
		Timestamp:   ts,
		ReplyCount:  rm.ReplyCount,
	}
	// A reply carries its parent's id; a thread parent references itself
	// and is normalized to empty.
	if rm.ThreadTS != "" && rm.ThreadTS != rm.TS {
		msg.ThreadParentID = rm.ThreadTS
	}
	for _, r := range rm.Reactions {
		msg.Reactions = append(msg.Reactions, model.Reaction{
			Name:  r.Name,
			Count: r.Count,
			Users: r.Users,
		})
	}
	for _, f := range rm.Files {
		msg.Attachments = append(msg.Attachments, model.Attachment{
			ID:       f.ID,
			Title:    f.Name,
			URL:      f.URLPrivate,
			MimeType: f.Mimetype,
		})
	}
	return msg, nil
}

func applyProfile(msg *model.Message, profile *slack.User) {
	msg.UserName = profile.DisplayName()
	msg.UserAvatar = profile.Profile.Image72
}

// fail records a whole-operation failure: connectivity is cleared and the
// error surfaced for display.
func (s *MessageStore) fail(op string, err error) {
	s.logger.Error("store operation failed",
		zap.String("op", op),
		zap.Error(err),
	)
	s.do(func() {
		s.connected = false
		s.lastErr = err
		s.publish()
	})
	s.emit(model.StoreEvent{Type: model.EventTypeError, Error: err.Error()})
}
