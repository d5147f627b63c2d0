// Package model defines data structures for the Debot backend.
package model

// Channel represents a chat channel the feed is assembled from.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPrivate bool   `json:"is_private"`
	IsMember  bool   `json:"is_member"`
}

// ListChannelsResponse is the response for listing channels.
type ListChannelsResponse struct {
	Channels []Channel `json:"channels"`
	Total    int       `json:"total"`
}
