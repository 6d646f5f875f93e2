package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/intro-match/internal/config"
)

func initBuffered(t *testing.T, c Config) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	c.Output = &buf
	Init(c)
	t.Cleanup(func() {
		require.NoError(t, Close())
		Init(Config{})
	})
	return &buf
}

func TestLogger_TextFormat(t *testing.T) {
	buf := initBuffered(t, Config{Level: "debug", Format: FormatText, Component: "swipe_engine"})

	Info("decision recorded", "actor", 7)

	out := buf.String()
	assert.Contains(t, out, `msg="decision recorded"`)
	assert.Contains(t, out, "component=swipe_engine")
	assert.Contains(t, out, "actor=7")
	assert.Regexp(t, `time="?\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3}`, out)
}

func TestLogger_JSONFormat(t *testing.T) {
	buf := initBuffered(t, Config{Level: "info", Format: FormatJSON, Component: "json_test"})

	Info("pair matched", "company", "1", "agent", "2")

	out := buf.String()
	assert.Contains(t, out, `"msg":"pair matched"`)
	assert.Contains(t, out, `"component":"json_test"`)
	assert.Contains(t, out, `"company":"1"`)
}

func TestLogger_LevelFilter(t *testing.T) {
	buf := initBuffered(t, Config{Level: "error", Format: FormatText})

	Info("should not appear")
	Warn("should not appear either")
	Error("invariant broken")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "invariant broken")
}

func TestLogger_WithAddsFields(t *testing.T) {
	buf := initBuffered(t, Config{Level: "debug", Format: FormatText})

	With("req_id", "123").Debug("processing request")

	assert.Contains(t, buf.String(), "req_id=123")
}

func TestLogger_FileFanout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")
	buf := initBuffered(t, Config{Level: "info", Format: FormatText, Component: "fanout", File: path})

	Info("fanned out", "pair", "1:2")
	require.NoError(t, Close())

	assert.Contains(t, buf.String(), "fanned out")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"fanned out"`)
	assert.Contains(t, string(b), `"pair":"1:2"`)
	assert.Contains(t, string(b), `"component":"fanout"`)
}

func TestLogger_UnwritableFileKeepsPrimary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "engine.log")
	buf := initBuffered(t, Config{Level: "info", File: path})

	Info("still logged")

	assert.Contains(t, buf.String(), "failed to open log file")
	assert.Contains(t, buf.String(), "still logged")
}

func TestInitFromConfig(t *testing.T) {
	c := &config.Config{}
	c.Log.Level = "warn"
	c.Log.Format = "JSON"
	c.Log.Component = "cfg"

	InitFromConfig(c)
	t.Cleanup(func() { Init(Config{}) })
	assert.True(t, L().Enabled(t.Context(), parseLevel("warn")))
	assert.False(t, L().Enabled(t.Context(), parseLevel("info")))

	InitFromConfig(nil)
	assert.NotNil(t, L())
}

func TestDiscard(t *testing.T) {
	assert.False(t, Discard().Enabled(t.Context(), parseLevel("error")))
}
