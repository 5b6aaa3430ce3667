package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestNewAndNop(t *testing.T) {
	l, err := New("test", "debug")
	require.NoError(t, err)
	l.With(String("source", "guardian")).Debug("fetched", Int("articles", 3), Error(errors.New("x")))

	n := NewNop()
	n.Warn("ignored")
	assert.Equal(t, n, n.With(String("k", "v")))
	assert.NoError(t, n.Sync())
}
