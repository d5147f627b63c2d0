// Package flight implements the flight-data API client and the caching
// service in front of it.
package flight

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

const (
	// DefaultBaseURL is the aviationstack-compatible API endpoint.
	DefaultBaseURL = "https://api.aviationstack.com/v1"

	// searchLimit caps how many records a parametric search requests.
	searchLimit = 25

	// randomBatchSize is how many current flights Random samples from.
	randomBatchSize = 100
)

var tracer = otel.Tracer("github.com/debot-app/debot-backend/internal/flight")

// ErrNoData indicates the API returned no flights for the query.
var ErrNoData = errors.New("flight: no data")

// ErrNotConfigured indicates no API key is configured.
var ErrNotConfigured = errors.New("flight: api key not configured")

// TransportError indicates a non-success HTTP status from the flight API.
type TransportError struct {
	Status int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("flight: http status %d", e.Status)
}

// APIError is an error object returned by the flight API.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flight: %s: %s", e.Code, e.Message)
}

// Query selects flights by flight number or by route endpoints.
type Query struct {
	FlightIATA    string
	DepartureIATA string
	ArrivalIATA   string
}

// IsZero reports whether the query carries no criteria.
func (q Query) IsZero() bool {
	return strings.TrimSpace(q.FlightIATA) == "" &&
		strings.TrimSpace(q.DepartureIATA) == "" &&
		strings.TrimSpace(q.ArrivalIATA) == ""
}

// Key returns the cache key for the query. Case and outer whitespace are
// normalized by the cache itself.
func (q Query) Key() string {
	if f := strings.TrimSpace(q.FlightIATA); f != "" {
		return "flight:" + f
	}
	return "route:" + strings.TrimSpace(q.DepartureIATA) + "-" + strings.TrimSpace(q.ArrivalIATA)
}

// Config holds flight API client configuration.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is an aviationstack-compatible REST client. A client built without
// an API key fails every call with ErrNotConfigured.
type Client struct {
	http    *resty.Client
	apiKey  string
	logger  *logger.Logger
	randInt func(n int) int
}

// NewClient creates a flight API client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		apiKey:  cfg.APIKey,
		logger:  log,
		randInt: rand.Intn,
	}
}

// Search returns flights matching the query.
func (c *Client) Search(ctx context.Context, q Query) ([]model.Flight, error) {
	params := map[string]string{
		"limit": strconv.Itoa(searchLimit),
	}
	if f := strings.ToUpper(strings.TrimSpace(q.FlightIATA)); f != "" {
		params["flight_iata"] = f
	}
	if d := strings.ToUpper(strings.TrimSpace(q.DepartureIATA)); d != "" {
		params["dep_iata"] = d
	}
	if a := strings.ToUpper(strings.TrimSpace(q.ArrivalIATA)); a != "" {
		params["arr_iata"] = a
	}

	data, err := c.fetch(ctx, "search", params)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}

	flights := make([]model.Flight, 0, len(data))
	for _, rf := range data {
		flights = append(flights, rf.toModel())
	}
	return flights, nil
}

// Random fetches a batch of current flights and picks one at random.
func (c *Client) Random(ctx context.Context) (*model.Flight, error) {
	data, err := c.fetch(ctx, "random", map[string]string{
		"limit": strconv.Itoa(randomBatchSize),
	})
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrNoData
	}

	f := data[c.randInt(len(data))].toModel()
	c.logger.Debug("random flight picked",
		zap.String("flight", f.FlightIATA),
		zap.String("airline", f.Airline),
	)
	return &f, nil
}

func (c *Client) fetch(ctx context.Context, operation string, params map[string]string) ([]rawFlight, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	ctx, span := tracer.Start(ctx, "flight."+operation)
	defer span.End()

	var out flightsResponse
	var errOut errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("access_key", c.apiKey).
		SetQueryParams(params).
		SetResult(&out).
		SetError(&errOut).
		Get("/flights")
	if err != nil {
		metrics.RecordFlightRequest(operation, "error")
		span.RecordError(err)
		return nil, fmt.Errorf("flight: %s: %w", operation, err)
	}
	if resp.IsError() {
		if errOut.Error.Code != "" {
			metrics.RecordFlightRequest(operation, "api_error")
			apiErr := &APIError{Code: errOut.Error.Code, Message: errOut.Error.Message}
			span.RecordError(apiErr)
			return nil, apiErr
		}
		metrics.RecordFlightRequest(operation, "transport")
		transportErr := &TransportError{Status: resp.StatusCode()}
		span.RecordError(transportErr)
		return nil, transportErr
	}

	metrics.RecordFlightRequest(operation, "ok")
	return out.Data, nil
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiErrorBody `json:"error"`
}

type flightsResponse struct {
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
		Total  int `json:"total"`
	} `json:"pagination"`
	Data []rawFlight `json:"data"`
}

type rawEndpoint struct {
	Airport   string `json:"airport"`
	IATA      string `json:"iata"`
	Scheduled string `json:"scheduled"`
}

type rawFlight struct {
	FlightDate   string      `json:"flight_date"`
	FlightStatus string      `json:"flight_status"`
	Departure    rawEndpoint `json:"departure"`
	Arrival      rawEndpoint `json:"arrival"`
	Airline      struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
	} `json:"airline"`
	Flight struct {
		Number string `json:"number"`
		IATA   string `json:"iata"`
	} `json:"flight"`
	Live *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Altitude  float64 `json:"altitude"`
	} `json:"live"`
}

func (rf rawFlight) toModel() model.Flight {
	f := model.Flight{
		FlightIATA:       rf.Flight.IATA,
		FlightNumber:     rf.Flight.Number,
		FlightDate:       rf.FlightDate,
		Airline:          rf.Airline.Name,
		Status:           rf.FlightStatus,
		DepartureIATA:    rf.Departure.IATA,
		DepartureAirport: rf.Departure.Airport,
		ArrivalIATA:      rf.Arrival.IATA,
		ArrivalAirport:   rf.Arrival.Airport,
	}
	if t, err := time.Parse(time.RFC3339, rf.Departure.Scheduled); err == nil {
		f.DepartureTime = &t
	}
	if t, err := time.Parse(time.RFC3339, rf.Arrival.Scheduled); err == nil {
		f.ArrivalTime = &t
	}
	if rf.Live != nil {
		lat, lon, alt := rf.Live.Latitude, rf.Live.Longitude, rf.Live.Altitude
		f.Latitude, f.Longitude, f.Altitude = &lat, &lon, &alt
	}
	return f
}
