// Package slack implements the subset of the Slack Web API the message
// store consumes: channel enumeration, history, joins, posting, reactions,
// and user-profile lookups.
package slack

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

const (
	// DefaultBaseURL is the public Slack Web API endpoint.
	DefaultBaseURL = "https://slack.com/api"

	// DefaultHistoryLimit caps how many messages are fetched per channel.
	DefaultHistoryLimit = 100

	// pageSize is the per-request limit for cursor-paginated methods.
	pageSize = 200
)

var tracer = otel.Tracer("github.com/debot-app/debot-backend/internal/slack")

// Config holds Slack client configuration.
type Config struct {
	Token             string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	HistoryLimit      int
}

// Client is a rate-limited Slack Web API client. A client built without a
// token is usable but fails every call with ErrNotAuthenticated.
type Client struct {
	http         *resty.Client
	limiter      *rate.Limiter
	logger       *logger.Logger
	token        string
	historyLimit int
}

// NewClient creates a Slack client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		httpClient.SetAuthToken(cfg.Token)
	}

	return &Client{
		http:         httpClient,
		limiter:      rate.NewLimiter(rate.Limit(rps), 1),
		logger:       log,
		token:        cfg.Token,
		historyLimit: historyLimit,
	}
}

// ListChannels enumerates the conversations visible to the token, following
// cursor pagination to the end.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var channels []Channel
	cursor := ""
	for {
		query := map[string]string{
			"limit":            strconv.Itoa(pageSize),
			"types":            "public_channel,private_channel",
			"exclude_archived": "true",
		}
		if cursor != "" {
			query["cursor"] = cursor
		}

		var out conversationsListResponse
		if err := c.call(ctx, "conversations.list", query, nil, &out); err != nil {
			return nil, err
		}
		channels = append(channels, out.Channels...)

		cursor = out.ResponseMetadata.NextCursor
		if cursor == "" {
			return channels, nil
		}
	}
}

// History fetches up to the configured limit of messages for a channel,
// newest page first, following the cursor while the API reports more.
func (c *Client) History(ctx context.Context, channelID string) ([]RawMessage, error) {
	var messages []RawMessage
	cursor := ""
	for {
		remaining := c.historyLimit - len(messages)
		if remaining <= 0 {
			return messages, nil
		}
		limit := remaining
		if limit > pageSize {
			limit = pageSize
		}

		query := map[string]string{
			"channel": channelID,
			"limit":   strconv.Itoa(limit),
		}
		if cursor != "" {
			query["cursor"] = cursor
		}

		var out historyResponse
		if err := c.call(ctx, "conversations.history", query, nil, &out); err != nil {
			return nil, err
		}
		messages = append(messages, out.Messages...)

		cursor = out.ResponseMetadata.NextCursor
		if !out.HasMore || cursor == "" {
			return messages, nil
		}
	}
}

// JoinChannel joins a public channel.
func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	var out joinResponse
	return c.call(ctx, "conversations.join", nil, map[string]string{
		"channel": channelID,
	}, &out)
}

// PostMessage posts text to a channel and returns the new message id.
func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	var out postMessageResponse
	err := c.call(ctx, "chat.postMessage", nil, map[string]string{
		"channel": channelID,
		"text":    text,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.TS, nil
}

// AddReaction adds the named emoji to a message.
func (c *Client) AddReaction(ctx context.Context, channelID, timestamp, name string) error {
	var out apiResponse
	return c.call(ctx, "reactions.add", nil, map[string]string{
		"channel":   channelID,
		"timestamp": timestamp,
		"name":      name,
	}, &out)
}

// RemoveReaction removes the named emoji from a message.
func (c *Client) RemoveReaction(ctx context.Context, channelID, timestamp, name string) error {
	var out apiResponse
	return c.call(ctx, "reactions.remove", nil, map[string]string{
		"channel":   channelID,
		"timestamp": timestamp,
		"name":      name,
	}, &out)
}

// UserInfo fetches the profile for a user id.
func (c *Client) UserInfo(ctx context.Context, userID string) (*User, error) {
	var out userInfoResponse
	if err := c.call(ctx, "users.info", map[string]string{"user": userID}, nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// AuthTest returns the identity behind the configured token.
func (c *Client) AuthTest(ctx context.Context) (*Identity, error) {
	var out authTestResponse
	if err := c.call(ctx, "auth.test", nil, map[string]string{}, &out); err != nil {
		return nil, err
	}
	return &Identity{UserID: out.UserID, User: out.User, Team: out.Team}, nil
}

// call performs one Web API request. A non-nil form selects POST, otherwise
// the method is issued as GET.
func (c *Client) call(ctx context.Context, method string, query, form map[string]string, out apiReply) error {
	if c.token == "" {
		return ErrNotAuthenticated
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("slack: %s: %w", method, err)
	}

	ctx, span := tracer.Start(ctx, "slack."+method,
		trace.WithAttributes(attribute.String("slack.method", method)))
	defer span.End()

	start := time.Now()
	err := c.roundTrip(ctx, method, query, form, out)
	metrics.RecordSlackRequest(method, outcomeLabel(err), time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		c.logger.Debug("slack api call failed",
			zap.String("method", method),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method string, query, form map[string]string, out apiReply) error {
	req := c.http.R().
		SetContext(ctx).
		SetResult(out)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	var (
		resp *resty.Response
		err  error
	)
	if form != nil {
		resp, err = req.SetFormData(form).Post("/" + method)
	} else {
		resp, err = req.Get("/" + method)
	}
	if err != nil {
		return fmt.Errorf("slack: %s: %w", method, err)
	}
	if resp.IsError() {
		return &TransportError{Status: resp.StatusCode()}
	}

	env := out.envelope()
	if !env.OK {
		if authErrorCodes[env.Error] {
			return fmt.Errorf("%w: %s", ErrNotAuthenticated, env.Error)
		}
		return &APIError{Method: method, Code: env.Error}
	}
	return nil
}

func outcomeLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, ErrNotAuthenticated) {
		return "auth"
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "transport"
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return "api_error"
	}
	return "error"
}

// ParseTimestamp converts a Slack "seconds.fraction" timestamp into a UTC
// time. The fractional part is zero-padded to nanosecond precision.
func ParseTimestamp(ts string) (time.Time, error) {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("slack: bad timestamp %q: %w", ts, err)
	}

	var ns int64
	if frac != "" {
		f, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("slack: bad timestamp %q: %w", ts, err)
		}
		for i := len(frac); i < 9; i++ {
			f *= 10
		}
		ns = f
	}
	return time.Unix(s, ns).UTC(), nil
}
