package slack

// apiResponse is the success envelope common to all Web API replies.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (r *apiResponse) envelope() *apiResponse { return r }

// apiReply is implemented by every decoded Web API response.
type apiReply interface {
	envelope() *apiResponse
}

// Channel is a conversations.list entry.
type Channel struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsChannel bool   `json:"is_channel"`
	IsPrivate bool   `json:"is_private"`
	IsMember  bool   `json:"is_member"`
}

// Reaction is an emoji reaction as returned by the history API.
type Reaction struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Users []string `json:"users"`
}

// File is an uploaded file reference on a message.
type File struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Mimetype   string `json:"mimetype"`
	URLPrivate string `json:"url_private"`
}

// RawMessage is a conversations.history entry before reconciliation.
type RawMessage struct {
	Type       string     `json:"type"`
	Subtype    string     `json:"subtype,omitempty"`
	User       string     `json:"user"`
	Text       string     `json:"text"`
	TS         string     `json:"ts"`
	ThreadTS   string     `json:"thread_ts,omitempty"`
	ReplyCount int        `json:"reply_count,omitempty"`
	Reactions  []Reaction `json:"reactions,omitempty"`
	Files      []File     `json:"files,omitempty"`
}

// Profile holds the display fields of a user record.
type Profile struct {
	RealName    string `json:"real_name"`
	DisplayName string `json:"display_name"`
	Image72     string `json:"image_72"`
}

// User is a users.info profile record.
type User struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Profile Profile `json:"profile"`
}

// DisplayName returns the best human-readable name for the user.
func (u User) DisplayName() string {
	if u.Profile.DisplayName != "" {
		return u.Profile.DisplayName
	}
	if u.Profile.RealName != "" {
		return u.Profile.RealName
	}
	return u.Name
}

// Identity describes the authenticated user.
type Identity struct {
	UserID string
	User   string
	Team   string
}

type responseMetadata struct {
	NextCursor string `json:"next_cursor"`
}

type conversationsListResponse struct {
	apiResponse
	Channels         []Channel        `json:"channels"`
	ResponseMetadata responseMetadata `json:"response_metadata"`
}

type historyResponse struct {
	apiResponse
	Messages         []RawMessage     `json:"messages"`
	HasMore          bool             `json:"has_more"`
	ResponseMetadata responseMetadata `json:"response_metadata"`
}

type joinResponse struct {
	apiResponse
	Channel Channel `json:"channel"`
}

type postMessageResponse struct {
	apiResponse
	TS string `json:"ts"`
}

type userInfoResponse struct {
	apiResponse
	User User `json:"user"`
}

type authTestResponse struct {
	apiResponse
	UserID string `json:"user_id"`
	User   string `json:"user"`
	Team   string `json:"team"`
}
