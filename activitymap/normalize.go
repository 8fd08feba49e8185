package activitymap

import (
	"context"
	"log/slog"
	"strings"
	"time"

	ipbauth "github.com/goliatone/go-ipb-auth"
)

const (
	// MetadataKeyReason stores the failure reason code of a rejected login.
	MetadataKeyReason = "reason"
)

const (
	defaultChannel    = "ipb"
	defaultObjectType = "member"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
}

// Normalize converts an ipbauth.ActivityEvent into a generic normalized shape.
func Normalize(event ipbauth.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	username := strings.TrimSpace(event.Username)
	actorID := username
	if actorID == "" {
		actorID = options.actorFallback
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: options.objectType,
		ObjectID:   username,
		Channel:    options.channel,
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when the event has no username.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// NewLogSink returns an ActivitySink writing normalized records to logger
// at info level.
func NewLogSink(logger *slog.Logger, opts ...Option) ipbauth.ActivitySink {
	if logger == nil {
		logger = slog.Default()
	}

	return ipbauth.ActivitySinkFunc(func(ctx context.Context, event ipbauth.ActivityEvent) error {
		out := Normalize(event, opts...)
		logger.InfoContext(ctx, "activity",
			"actor_id", out.ActorID,
			"verb", out.Verb,
			"object_type", out.ObjectType,
			"object_id", out.ObjectID,
			"channel", out.Channel,
			"metadata", out.Metadata,
			"occurred_at", out.OccurredAt,
		)
		return nil
	})
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func normalizeMetadata(event ipbauth.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	if reason := strings.TrimSpace(event.Reason); reason != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[MetadataKeyReason] = reason
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
