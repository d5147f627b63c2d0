package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/debot-app/debot-backend/internal/model"
	"github.com/debot-app/debot-backend/pkg/logger"
	"github.com/debot-app/debot-backend/pkg/metrics"
)

const (
	// StreamName is the name of the store event stream.
	StreamName = "DEBOT_EVENTS"

	// SubjectPrefix is the prefix for all store event subjects.
	SubjectPrefix = "debot.events"

	// publishTimeout bounds a single journal write so a slow broker can
	// never stall the store.
	publishTimeout = 5 * time.Second
)

// Journal persists store events to JetStream for out-of-process consumers.
type Journal struct {
	client *Client
	logger *logger.Logger
}

// NewJournal creates a journal on top of an established NATS client.
func NewJournal(client *Client, log *logger.Logger) *Journal {
	return &Journal{client: client, logger: log}
}

// EventSubject returns the subject for a store event.
func EventSubject(eventType model.EventType) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, eventType)
}

// EnsureStream ensures the event stream exists with proper configuration.
func (j *Journal) EnsureStream(ctx context.Context) error {
	js := j.client.JetStream()

	// Check if stream exists
	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		MaxBytes:    1024 * 1024 * 1024, // 1GB
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Message store change events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// Publish writes one store event to the journal. Failures are logged and
// counted but never surfaced to the store; the journal is best effort.
func (j *Journal) Publish(ctx context.Context, event model.StoreEvent) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	data, err := json.Marshal(event)
	if err != nil {
		j.logger.Warn("failed to marshal store event", zap.Error(err))
		return
	}

	if _, err := j.client.JetStream().Publish(ctx, EventSubject(event.Type), data); err != nil {
		j.logger.Warn("failed to journal store event",
			zap.String("type", string(event.Type)),
			zap.String("event_id", event.ID),
			zap.Error(err),
		)
		return
	}

	metrics.RecordJournalEvent(string(event.Type))
}
