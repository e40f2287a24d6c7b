package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		format        string
		expectedLevel logrus.Level
		jsonFormatter bool
	}{
		{"debug text", "debug", "text", logrus.DebugLevel, false},
		{"info json", "info", "json", logrus.InfoLevel, true},
		{"upper case", "WARN", "JSON", logrus.WarnLevel, true},
		{"error", "error", "text", logrus.ErrorLevel, false},
		{"invalid level falls back to info", "verbose", "text", logrus.InfoLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLogrusAdapterWithOutput(tt.level, tt.format, &buf)
			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)

			assert.Equal(t, tt.expectedLevel, adapter.logger.GetLevel())
			_, isJSON := adapter.logger.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.jsonFormatter, isJSON)
		})
	}
}

func TestNewLogrusAdapterFromLogger(t *testing.T) {
	base := logrus.New()
	logger := NewLogrusAdapterFromLogger(base)
	adapter, ok := logger.(*LogrusAdapter)
	require.True(t, ok)
	assert.Same(t, base, adapter.logger)

	fallback := NewLogrusAdapterFromLogger(nil)
	assert.NotNil(t, fallback.(*LogrusAdapter).logger)
}

func TestLogrusAdapter_LoggingMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("debug", "json", &buf)

	tests := []struct {
		level string
		log   func(msg string, fields ...Field)
	}{
		{"debug", logger.Debug},
		{"info", logger.Info},
		{"warning", logger.Warn},
		{"error", logger.Error},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf.Reset()
			tt.log("rendered receipt", F(FieldRow, 3), F(FieldTemplate, "hydrogen"))

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "rendered receipt", entry["msg"])
			assert.Equal(t, float64(3), entry[FieldRow])
			assert.Equal(t, "hydrogen", entry[FieldTemplate])
		})
	}
}

func TestLogrusAdapter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("warn", "text", &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogrusAdapter_WithError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("info", "json", &buf)

	logger.WithError(errors.New("capture failed")).Error("batch aborted")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "capture failed", entry["error"])
}

func TestLogrusAdapter_WithFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogrusAdapterWithOutput("info", "json", &buf)

	scoped := logger.WithField(FieldBatch, "b-1").WithFields(F(FieldCount, 2), F(FieldBackend, "canvas"))
	scoped.Info("archive written")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "b-1", entry[FieldBatch])
	assert.Equal(t, float64(2), entry[FieldCount])
	assert.Equal(t, "canvas", entry[FieldBackend])

	// the parent logger is unchanged
	buf.Reset()
	logger.Info("plain")
	assert.NotContains(t, buf.String(), FieldBatch)
}

func TestConvertFields(t *testing.T) {
	fields := convertFields([]Field{F("a", 1), F("b", "two")})
	assert.Equal(t, logrus.Fields{"a": 1, "b": "two"}, fields)
	assert.Empty(t, convertFields(nil))
}

func TestMockLogger_CapturesEntries(t *testing.T) {
	mock := NewMockLogger()
	scoped := mock.WithField(FieldRow, 1).WithError(errors.New("boom"))

	mock.Info("start")
	scoped.Warn("logo fallback", F(FieldFilename, "logo.png"))

	entries := mock.GetEntries()
	require.Len(t, entries, 2)
	assert.True(t, mock.HasEntry("INFO", "start"))
	assert.True(t, mock.HasEntry("WARN", "logo fallback"))

	warn := mock.GetEntriesByLevel("WARN")
	require.Len(t, warn, 1)
	assert.EqualError(t, warn[0].Error, "boom")
	assert.Equal(t, []Field{F(FieldRow, 1), F(FieldFilename, "logo.png")}, warn[0].Fields)
}

func TestMockLogger_Concurrent(t *testing.T) {
	mock := NewMockLogger()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mock.WithField(FieldRow, i).Debug("captured")
		}(i)
	}
	wg.Wait()
	assert.Len(t, mock.GetEntriesByLevel("DEBUG"), 16)
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
}
