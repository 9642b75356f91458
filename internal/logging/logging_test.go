package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "debug", Format: "json", Out: &buf})
	log.Debug().Str("ticker", "AAPL").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "AAPL", line["ticker"])
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "hello", line["message"])
}

func TestNewLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Level: "warn", Format: "json", Out: &buf})
	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())
	assert.Equal(t, zerolog.WarnLevel, log.GetLevel())
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	log := New(Options{Level: "chatty", Out: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, log.GetLevel())
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Format: "text", Out: &buf})
	log.Info().Msg("scan finished")
	assert.Contains(t, buf.String(), "scan finished")
	assert.NotContains(t, buf.String(), `"message"`)
}
