package middleware

import (
	"errors"
	"regexp"
	"unicode/utf8"
)

var (
	// messageIDPattern matches Slack message timestamps, e.g. 1716400001.000100.
	messageIDPattern = regexp.MustCompile(`^\d+\.\d+$`)

	// channelIDPattern matches Slack conversation ids, e.g. C0123456789.
	channelIDPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{2,20}$`)

	// emojiPattern matches emoji short names, e.g. thumbsup or +1.
	emojiPattern = regexp.MustCompile(`^[a-z0-9_+\-]{1,64}$`)
)

// ValidateMessageContent validates outgoing message text.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > 40000 {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateMessageID validates a message id.
func ValidateMessageID(id string) error {
	if !messageIDPattern.MatchString(id) {
		return errors.New("invalid message ID format")
	}
	return nil
}

// ValidateChannelID validates a channel id.
func ValidateChannelID(id string) error {
	if !channelIDPattern.MatchString(id) {
		return errors.New("invalid channel ID format")
	}
	return nil
}

// ValidateEmojiName validates an emoji short name.
func ValidateEmojiName(name string) error {
	if !emojiPattern.MatchString(name) {
		return errors.New("invalid emoji name")
	}
	return nil
}
