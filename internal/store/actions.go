package store

import (
	"context"

	"github.com/debot-app/debot-backend/internal/model"
)

// MarkRead marks one message as read. Unknown ids are ignored.
func (s *MessageStore) MarkRead(id string) {
	s.do(func() {
		for i := range s.messages {
			if s.messages[i].ID != id {
				continue
			}
			if !s.messages[i].Read {
				s.messages[i].Read = true
				s.publish()
				s.emit(model.StoreEvent{Type: model.EventTypeReadChanged, MessageID: id, Count: 1})
			}
			return
		}
	})
}

// MarkAllRead marks every message in the feed as read.
func (s *MessageStore) MarkAllRead() {
	s.do(func() {
		changed := 0
		for i := range s.messages {
			if !s.messages[i].Read {
				s.messages[i].Read = true
				changed++
			}
		}
		if changed > 0 {
			s.publish()
			s.emit(model.StoreEvent{Type: model.EventTypeReadChanged, Count: changed})
		}
	})
}

// ToggleReaction adds the authenticated user's reaction to a message, or
// removes it when already present, then reloads the feed so reaction counts
// reflect the server's view. The returned action is ReactionAdded or
// ReactionRemoved.
func (s *MessageStore) ToggleReaction(ctx context.Context, messageID, emoji string) (string, error) {
	var (
		found     bool
		channelID string
		reacted   bool
	)
	s.do(func() {
		for _, m := range s.messages {
			if m.ID == messageID {
				found = true
				channelID = m.ChannelID
				reacted = m.HasReaction(emoji, s.selfID)
				break
			}
		}
	})
	if !found {
		return "", ErrMessageNotFound
	}

	action := ReactionAdded
	var err error
	if reacted {
		action = ReactionRemoved
		err = s.api.RemoveReaction(ctx, channelID, messageID, emoji)
	} else {
		err = s.api.AddReaction(ctx, channelID, messageID, emoji)
	}
	if err != nil {
		s.fail("toggle reaction", err)
		return "", err
	}

	s.emit(model.StoreEvent{Type: model.EventTypeReactionToggled, ChannelID: channelID, MessageID: messageID})
	// No optimistic update; the reload fetches the authoritative state.
	return action, s.Load(ctx)
}

// Send posts text to a channel, then reloads the feed so the new message
// appears with its server-assigned id.
func (s *MessageStore) Send(ctx context.Context, channelID, text string) (string, error) {
	id, err := s.api.PostMessage(ctx, channelID, text)
	if err != nil {
		s.fail("send message", err)
		return "", err
	}

	s.emit(model.StoreEvent{Type: model.EventTypeMessageSent, ChannelID: channelID, MessageID: id})
	return id, s.Load(ctx)
}
