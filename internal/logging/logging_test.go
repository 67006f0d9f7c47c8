package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/fintrack/internal/logging"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer

	logger, err := logging.New(&buf, "debug", "json")
	require.NoError(t, err)

	logger.Debug("hello", "user_id", 7)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, float64(7), line["user_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer

	logger, err := logging.New(&buf, "warn", "text")
	require.NoError(t, err)

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_Invalid(t *testing.T) {
	_, err := logging.New(&bytes.Buffer{}, "loud", "text")
	assert.Error(t, err)

	_, err = logging.New(&bytes.Buffer{}, "info", "xml")
	assert.Error(t, err)
}
