package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	Init()
	assert.NotNil(t, log)
}

func TestInfo(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Info("bike reserved", "bike_id", 7)

	output := buf.String()
	assert.Contains(t, output, "bike reserved")
	assert.Contains(t, output, "bike_id")
}

func TestError(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Error("reservation failed")

	assert.Contains(t, buf.String(), "reservation failed")
}

func TestDebug(t *testing.T) {
	var buf bytes.Buffer
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	log = New(NewJSONHandler(&buf, opts))

	Debug("admission check passed")

	assert.Contains(t, buf.String(), "admission check passed")
}

func TestInfof(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Infof("server starting on port %s", "8080")

	assert.Contains(t, buf.String(), "server starting on port 8080")
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	log = New(NewJSONHandler(&buf, nil))

	Errorf("geocode failed for %q", "main street")

	assert.Contains(t, buf.String(), "main street")
}
