package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("warn", FormatConsole, &buf)
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", zap.String("k", "v"))
	require.NoError(t, l.Sync())

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"k": "v"`)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("DEBUG", FormatJSON, &buf)
	require.NoError(t, err)

	l.Debug("stored blob", zap.String("id", "abc"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["L"])
	assert.Equal(t, "stored blob", entry["M"])
	assert.Equal(t, "abc", entry["id"])
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", FormatConsole, &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.NotNil(t, From(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, From(With(context.Background(), l)))
}
