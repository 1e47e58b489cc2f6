package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Format: "json", Output: &buf})

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithContextAddsIDs(t *testing.T) {
	var buf bytes.Buffer
	previous := log.Logger
	t.Cleanup(func() { log.Logger = previous })
	SetGlobalLogger(New(Config{Level: "debug", Output: &buf}))

	ctx := WithUserID(WithRequestID(context.Background(), "req-1"), "u1")
	WithContext(ctx).Info().Msg("toggled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "u1", entry["user_id"])
	assert.Equal(t, "toggled", entry["message"])
}

func TestContextAccessorsOnEmptyContext(t *testing.T) {
	assert.Empty(t, RequestID(context.Background()))
	assert.Empty(t, UserID(context.Background()))
}
