package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/theMK2k/update-db/logger"
	"go.uber.org/zap/zapcore"
)

func TestConfigNewLogfmt(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.Config{Format: "logfmt"}.New(&buf)
	require.NoError(t, err)

	log.Info("started")
	require.NoError(t, log.Sync())

	out := buf.String()
	require.Contains(t, out, "level=info")
	require.Contains(t, out, "msg=started")
}

func TestConfigNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.Config{Format: "json"}.New(&buf)
	require.NoError(t, err)

	log.Info("started")
	require.NoError(t, log.Sync())

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line["level"])
	require.Equal(t, "started", line["msg"])
}

func TestConfigNewAutoFallsBackToLogfmt(t *testing.T) {
	t.Parallel()

	// A bytes.Buffer is not a terminal, so auto selects logfmt.
	var buf bytes.Buffer
	log, err := logger.Config{Format: "auto"}.New(&buf)
	require.NoError(t, err)

	log.Info("started")
	require.NoError(t, log.Sync())
	require.Contains(t, buf.String(), "msg=started")
}

func TestConfigNewUnknownFormat(t *testing.T) {
	t.Parallel()

	_, err := logger.Config{Format: "xml"}.New(&bytes.Buffer{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown logging format")
}

func TestConfigNewRespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := logger.Config{Format: "logfmt", Level: zapcore.WarnLevel}.New(&buf)
	require.NoError(t, err)

	log.Info("quiet")
	log.Warn("loud")
	require.NoError(t, log.Sync())

	out := buf.String()
	require.NotContains(t, out, "msg=quiet")
	require.Contains(t, out, "msg=loud")
}

func TestNewWritesConsole(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(&buf)
	log.Debug("started")
	require.NoError(t, log.Sync())
	require.Contains(t, buf.String(), "started")
}
