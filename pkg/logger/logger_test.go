package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, cfg *Config, opts ...Option) (*BaseLogger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	opts = append(opts, WithConsoleWriter(&buf))
	l, err := New(cfg, opts...)
	require.NoError(t, err)
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{name: "nil config uses default", cfg: nil},
		{name: "json console", cfg: &Config{Format: JSONFormat}},
		{name: "file without path", cfg: &Config{EnableFile: true}, wantErr: ErrInvalidOutputPath},
		{name: "bad level", cfg: &Config{Level: "verbose"}, wantErr: ErrInvalidLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestKeyValueFields(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{Format: JSONFormat, Level: DebugLevel})

	l.Named("service.hunt").Info("relic dropped", "owner_id", 42, "grade", "dragon")
	l.Debug("odd", "dangling")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "relic dropped", lines[0]["msg"])
	assert.Equal(t, "service.hunt", lines[0]["logger"])
	assert.EqualValues(t, 42, lines[0]["owner_id"])
	assert.Equal(t, "dragon", lines[0]["grade"])
	assert.Equal(t, "dangling", lines[1]["!BADKEY"])
}

func TestLevelFilter(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{Format: JSONFormat, Level: WarnLevel})

	l.Info("dropped")
	l.Warn("kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestWithFieldsAndContext(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{Format: JSONFormat}, WithContextExtractor(FieldsFromContext))

	ctx := ContextWithFields(context.Background(), "request_id", "r-1")
	l.WithFields("owner_id", 7).InfoContext(ctx, "equip")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "r-1", lines[0]["request_id"])
	assert.EqualValues(t, 7, lines[0]["owner_id"])
}

func TestRedactKeys(t *testing.T) {
	l, buf := newBufferLogger(t, &Config{Format: JSONFormat, RedactKeys: []string{"password"}})

	l.Info("connect", "password", "hunter2", "host", "db")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "***REDACTED***", lines[0]["password"])
	assert.Equal(t, "db", lines[0]["host"])
}

func TestNewRotationWriter(t *testing.T) {
	out := filepath.Join(t.TempDir(), "mosoul.log")

	for _, typ := range []RotationType{RotationBySize, RotationByTime, ""} {
		w, err := NewRotationWriter(&RotationConfig{Type: typ, MaxSize: 1, RotationTime: "1h"}, out)
		require.NoError(t, err, typ)
		assert.NotNil(t, w)
	}
}

func TestNoop(t *testing.T) {
	var l Logger = NewNoop()
	assert.Same(t, l, l.Named("x"))
	assert.NoError(t, l.Sync())
}
