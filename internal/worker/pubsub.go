package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Message attributes read when a message has no body. Cloud Scheduler
// publishes this way.
const (
	attrJobType     = "job_type"
	attrLocationIDs = "location_ids"
)

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	Jobs             *Jobs
	Logger           zerolog.Logger
}

// PubSubHandler runs refresh jobs delivered on a Pub/Sub subscription.
type PubSubHandler struct {
	client     *pubsub.Client
	subscriber *pubsub.Subscriber
	name       string
	jobs       *Jobs
	logger     zerolog.Logger
}

// NewPubSubHandler connects to the subscription named in cfg.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	sub := client.Subscriber(cfg.SubscriptionName)
	// A full refresh can take a while; keep few messages outstanding.
	sub.ReceiveSettings.MaxOutstandingMessages = 4
	sub.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:     client,
		subscriber: sub,
		name:       cfg.SubscriptionName,
		jobs:       cfg.Jobs,
		logger:     cfg.Logger.With().Str("subscription", cfg.SubscriptionName).Logger(),
	}, nil
}

// Start receives messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().Msg("starting pubsub handler")
	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().Str("message_id", msg.ID).Logger()
		if process(ctx, h.jobs, msg.Data, msg.Attributes, logger) == ack {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

type outcome int

const (
	ack outcome = iota
	nack
)

// decodeMessage reads a RefreshMessage from a JSON body, or from attributes
// when the body is empty.
func decodeMessage(data []byte, attrs map[string]string) (RefreshMessage, error) {
	var msg RefreshMessage
	if len(strings.TrimSpace(string(data))) == 0 {
		msg.JobType = attrs[attrJobType]
		if ids := attrs[attrLocationIDs]; ids != "" {
			for _, id := range strings.Split(ids, ",") {
				if id = strings.TrimSpace(id); id != "" {
					msg.LocationIDs = append(msg.LocationIDs, id)
				}
			}
		}
	} else if err := json.Unmarshal(data, &msg); err != nil {
		return RefreshMessage{}, err
	}
	if msg.JobType == "" {
		return RefreshMessage{}, errors.New("message has no job_type")
	}
	return msg, nil
}

// process runs one message. Messages that can never succeed (malformed, or of
// an unknown job type) are acknowledged so they are not redelivered; failed
// jobs are retried through redelivery.
func process(ctx context.Context, jobs *Jobs, data []byte, attrs map[string]string, logger zerolog.Logger) outcome {
	msg, err := decodeMessage(data, attrs)
	if err != nil {
		logger.Error().Err(err).Msg("dropping malformed message")
		return ack
	}

	logger = logger.With().Str("job_type", msg.JobType).Logger()
	start := time.Now()
	if err := jobs.Handle(ctx, msg); err != nil {
		if errors.Is(err, ErrUnknownJobType) {
			logger.Warn().Msg("dropping message with unknown job type")
			return ack
		}
		logger.Error().Err(err).Msg("job failed")
		return nack
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("job completed")
	return ack
}
