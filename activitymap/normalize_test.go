package activitymap_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	ipbauth "github.com/goliatone/go-ipb-auth"
	"github.com/goliatone/go-ipb-auth/activitymap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := ipbauth.ActivityEvent{
		EventType: ipbauth.ActivityEventProfileSynced,
		Username:  "John doe",
		Metadata: map[string]any{
			"member_id": int64(42),
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	assert.Equal(t, "John doe", out.ActorID)
	assert.Equal(t, string(ipbauth.ActivityEventProfileSynced), out.Verb)
	assert.Equal(t, "member", out.ObjectType)
	assert.Equal(t, "John doe", out.ObjectID)
	assert.Equal(t, "ipb", out.Channel)
	assert.True(t, out.OccurredAt.Equal(ts))
	assert.Equal(t, int64(42), out.Metadata["member_id"])
	assert.NotContains(t, out.Metadata, activitymap.MetadataKeyReason)
}

func TestNormalizeFailureReason(t *testing.T) {
	t.Parallel()

	event := ipbauth.ActivityEvent{
		EventType: ipbauth.ActivityEventLoginFailure,
		Username:  "mallory",
		Reason:    ipbauth.ReasonNoUser,
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel("security"),
		activitymap.WithDefaultObjectType("account"),
	)

	assert.Equal(t, "security", out.Channel)
	assert.Equal(t, "account", out.ObjectType)
	assert.Equal(t, ipbauth.ReasonNoUser, out.Metadata[activitymap.MetadataKeyReason])
	assert.False(t, out.OccurredAt.IsZero(), "occurred_at is set when input is zero")
	assert.Nil(t, event.Metadata, "source metadata is left alone")
}

func TestNormalizeActorFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		event  ipbauth.ActivityEvent
		opts   []activitymap.Option
		expect string
	}{
		{
			name:   "uses username when present",
			event:  ipbauth.ActivityEvent{Username: "alice"},
			expect: "alice",
		},
		{
			name:   "uses default fallback without username",
			event:  ipbauth.ActivityEvent{Username: "  "},
			expect: "anonymous",
		},
		{
			name:   "uses configured fallback",
			event:  ipbauth.ActivityEvent{},
			opts:   []activitymap.Option{activitymap.WithActorFallback("cli")},
			expect: "cli",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			out := activitymap.Normalize(tc.event, tc.opts...)
			assert.Equal(t, tc.expect, out.ActorID)
		})
	}
}

func TestNewLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := activitymap.NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Record(context.Background(), ipbauth.ActivityEvent{
		EventType: ipbauth.ActivityEventLoginSuccess,
		Username:  "Jane roe",
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "activity", entry["msg"])
	assert.Equal(t, "Jane roe", entry["actor_id"])
	assert.Equal(t, string(ipbauth.ActivityEventLoginSuccess), entry["verb"])
}
