package model

import (
	"time"
)

// PlaceholderAuthor is the author name a message carries until its user
// profile resolves.
const PlaceholderAuthor = "Loading User…"

// Reaction represents an emoji reaction on a message.
type Reaction struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// Attachment represents a file attached to a message.
type Attachment struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Message represents one chat message in the feed.
type Message struct {
	// Identity: the source timestamp string, unique within a channel and
	// stable across fetches.
	ID string `json:"id"`

	// Author
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	UserAvatar string `json:"user_avatar,omitempty"`

	// Origin
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`

	// Content
	Text        string       `json:"text"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Reactions   []Reaction   `json:"reactions,omitempty"`

	// Threading. ThreadParentID is set only on replies.
	ThreadParentID string `json:"thread_parent_id,omitempty"`
	ReplyCount     int    `json:"reply_count,omitempty"`

	// Client state
	Read bool `json:"read"`
}

// IsThreadParent reports whether the message has replies.
func (m Message) IsThreadParent() bool {
	return m.ReplyCount > 0
}

// IsThreadReply reports whether the message belongs to another message's
// thread.
func (m Message) IsThreadReply() bool {
	return m.ThreadParentID != ""
}

// HasReaction reports whether userID has reacted to the message with the
// named emoji.
func (m Message) HasReaction(name, userID string) bool {
	for _, r := range m.Reactions {
		if r.Name != name {
			continue
		}
		for _, u := range r.Users {
			if u == userID {
				return true
			}
		}
	}
	return false
}

// FeedResponse is the response for reading the message feed.
type FeedResponse struct {
	Messages    []Message `json:"messages"`
	UnreadCount int       `json:"unread_count"`
	Connected   bool      `json:"connected"`
	Error       string    `json:"error,omitempty"`
}

// ThreadResponse is the response for reading a thread.
type ThreadResponse struct {
	Messages []Message `json:"messages"`
}

// UnreadCountResponse is the response for the unread counter.
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// SendMessageRequest is the request to post a message to a channel.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// SendMessageResponse is the response after posting a message.
type SendMessageResponse struct {
	ID string `json:"id"`
}

// ToggleReactionRequest is the request to toggle an emoji reaction.
type ToggleReactionRequest struct {
	Emoji string `json:"emoji"`
}

// ToggleReactionResponse reports which reaction operation was performed.
type ToggleReactionResponse struct {
	Action string `json:"action"`
}
