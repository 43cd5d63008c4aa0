package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextAttrsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "json", "info")

	ctx := Ctx(context.Background(), slog.Int64("feed_id", 7))
	ctx = Ctx(ctx, slog.String("request_id", "abc"))
	l.InfoContext(ctx, "updated feed", "added", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "updated feed", rec["msg"])
	assert.EqualValues(t, 7, rec["feed_id"])
	assert.Equal(t, "abc", rec["request_id"])
	assert.EqualValues(t, 2, rec["added"])
}

func TestCtx_SiblingsDoNotShareAttrs(t *testing.T) {
	parent := Ctx(context.Background(), slog.String("a", "1"))
	left := Ctx(parent, slog.String("b", "2"))
	right := Ctx(parent, slog.String("c", "3"))

	assert.Len(t, left.Value(attrKey).([]slog.Attr), 2)
	assert.Equal(t, "c", right.Value(attrKey).([]slog.Attr)[1].Key)
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "text", "warn")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}
