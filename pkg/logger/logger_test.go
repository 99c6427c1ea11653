package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(buf *bytes.Buffer, level LogLevel) *Logger {
	return New(Config{Level: level, Output: buf})
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, WARN)

	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "[WARN] shown 3")
	assert.Contains(t, out, "[ERROR] shown 4")
}

func TestWithSharesOutput(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, DEBUG)
	child := l.With("[trips]").With("[plans]")

	child.Infof("posted %s", "p1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "[trips] [plans] posted p1")
}

func TestFatalCallsExit(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, INFO)
	code := -1
	l.exit = func(c int) { code = c }

	l.Fatalf("boom")

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] boom")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		"":        INFO,
		"warning": WARN,
		" error ": ERROR,
		"fatal":   FATAL,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestColorize(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: INFO, Output: &buf, Colorize: true})
	l.Errorf("red")
	assert.Contains(t, buf.String(), colorRed+"[ERROR]"+colorReset)
}

func TestShowCallerReportsCallSite(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: DEBUG, Output: &buf, ShowCaller: true})

	l.Infof("method %d", 1)
	l.Warn("plain")

	def := GetLogger()
	prevLevel := def.Level()
	def.SetOutput(&buf)
	def.SetShowCaller(true)
	def.SetLevel(DEBUG)
	t.Cleanup(func() {
		def.SetOutput(os.Stderr)
		def.SetShowCaller(false)
		def.SetLevel(prevLevel)
	})
	Errorf("package %d", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Contains(t, line, "logger_test.go:", line)
		assert.NotContains(t, line, "logger.go:", line)
	}
}
