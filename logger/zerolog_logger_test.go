package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	require.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()

	l := New("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLogger_JSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "engine", "info")

	l.Infof("run %s finished", "abc")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "run abc finished", entry["message"])
}

func TestZerologLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewZerologLoggerTo(&buf, "engine", "warn")

	l.Infof("hidden")
	l.Debugw("hidden", map[string]any{"k": 1})
	assert.Zero(t, buf.Len())

	l.Warnf("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNopLogger(t *testing.T) {
	var l Logger = NopLogger{}
	l.Infof("nothing")
	l.Debugw("nothing", nil)
}
