package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects the logger to a buffer in text mode without color and
// restores stdout/INFO afterwards.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	InitWithWriter(buf, "INFO", "text", false)
	t.Cleanup(func() {
		InitWithWriter(os.Stdout, "INFO", "text", false)
	})
	return buf
}

func decodeJSONLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry), buf.String())
	return entry
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"DEBUG", []string{"debug msg", "info msg", "warn msg", "error msg"}, nil},
		{"INFO", []string{"info msg", "warn msg", "error msg"}, []string{"debug msg"}},
		{"WARN", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"ERROR", []string{"error msg"}, []string{"debug msg", "info msg", "warn msg"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := capture(t)
			SetLevel(tt.level)

			Debug("debug msg")
			Info("info msg")
			Warn("warn msg")
			Error("error msg")

			out := buf.String()
			for _, s := range tt.visible {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.hidden {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	t.Run("CaseInsensitive", func(t *testing.T) {
		capture(t)
		SetLevel("debug")
		assert.Equal(t, "DEBUG", GetLevel())
		SetLevel("Warning")
		assert.Equal(t, "WARN", GetLevel())
	})

	t.Run("InvalidIgnored", func(t *testing.T) {
		capture(t)
		SetLevel("ERROR")
		SetLevel("LOUD")
		assert.Equal(t, "ERROR", GetLevel())
	})

	t.Run("ParseAndSetLevelReportsUnknown", func(t *testing.T) {
		capture(t)
		assert.Error(t, ParseAndSetLevel("verbose"))
		assert.NoError(t, ParseAndSetLevel("debug"))
		assert.True(t, Enabled(slog.LevelDebug))
	})

	t.Run("ChangeAppliesWithoutRebuild", func(t *testing.T) {
		buf := capture(t)
		l := With("component", "test")

		SetLevel("ERROR")
		l.Info("hidden")
		SetLevel("INFO")
		l.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestTextFormat(t *testing.T) {
	t.Run("TimestampLevelAndMessage", func(t *testing.T) {
		buf := capture(t)
		Info("link opened")

		line := buf.String()
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\.\d{3} INFO  link opened\n$`, line)
	})

	t.Run("AttributesAndQuoting", func(t *testing.T) {
		buf := capture(t)
		Info("reply", "path", "/logs/a b.bin", KeyChannel, 2, "ok", true)

		line := buf.String()
		assert.Contains(t, line, `path="/logs/a b.bin"`)
		assert.Contains(t, line, "channel=2")
		assert.Contains(t, line, "ok=true")
	})

	t.Run("GroupsArePrefixed", func(t *testing.T) {
		buf := capture(t)
		With("link", "telem1").WithGroup("tx").Info("stats", "frames", 3)

		line := buf.String()
		assert.Contains(t, line, "link=telem1")
		assert.Contains(t, line, "tx.frames=3")
	})

	t.Run("EmptyAttrSkipped", func(t *testing.T) {
		buf := capture(t)
		Info("done", Err(nil))
		assert.NotContains(t, buf.String(), "error=")
	})
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t)
	SetFormat("json")

	Info("request", "opcode", "OpenFileRO", "size", 42)

	entry := decodeJSONLine(t, buf)
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "OpenFileRO", entry["opcode"])
	assert.Equal(t, float64(42), entry["size"])
	assert.Contains(t, entry, "time")
}

func TestFormatSwitching(t *testing.T) {
	buf := capture(t)

	Info("as text")
	assert.Contains(t, buf.String(), "INFO  as text")
	buf.Reset()

	SetFormat("xml")
	Info("still text")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
	buf.Reset()

	SetFormat("JSON")
	Info("as json")
	assert.True(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}

func TestContextLogging(t *testing.T) {
	t.Run("LogContextFieldsPrefixed", func(t *testing.T) {
		buf := capture(t)
		SetFormat("json")

		lc := NewLogContext(1, 255, 190, 3).WithOpcode("ReadFile").WithTrace("abc", "def")
		lc.Link = "telem1"
		ctx := WithContext(context.Background(), lc)

		InfoCtx(ctx, "handled", "extra", "v")

		entry := decodeJSONLine(t, buf)
		assert.Equal(t, "abc", entry[KeyTraceID])
		assert.Equal(t, "def", entry[KeySpanID])
		assert.Equal(t, "telem1", entry[KeyLink])
		assert.Equal(t, float64(1), entry[KeyChannel])
		assert.Equal(t, float64(255), entry[KeySysID])
		assert.Equal(t, float64(190), entry[KeyCompID])
		assert.Equal(t, float64(3), entry[KeySession])
		assert.Equal(t, "ReadFile", entry[KeyOpcode])
		assert.Equal(t, "v", entry["extra"])
	})

	t.Run("MissingContextHandled", func(t *testing.T) {
		buf := capture(t)
		//nolint:staticcheck // nil context is tolerated
		InfoCtx(nil, "no ctx")
		InfoCtx(context.Background(), "empty ctx")
		assert.Contains(t, buf.String(), "no ctx")
		assert.Contains(t, buf.String(), "empty ctx")
	})
}

func TestLogContext(t *testing.T) {
	t.Run("CloneIsIndependent", func(t *testing.T) {
		lc := NewLogContext(0, 1, 1, 0)
		c := lc.WithOpcode("Rename")
		assert.Empty(t, lc.Opcode)
		assert.Equal(t, "Rename", c.Opcode)
	})

	t.Run("NilSafe", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithOpcode("x"))
		assert.Zero(t, lc.DurationMs())
	})

	t.Run("Duration", func(t *testing.T) {
		lc := NewLogContext(0, 1, 1, 0)
		lc.StartTime = time.Now().Add(-20 * time.Millisecond)
		assert.GreaterOrEqual(t, lc.DurationMs(), 20.0)
	})
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, "boom", Err(errors.New("boom")).Value.String())
	assert.Equal(t, int64(7), Channel(7).Value.Int64())
	assert.Equal(t, int64(-1), Session(-1).Value.Int64())
	assert.NotEmpty(t, Errno(syscall.ENOENT).Value.String())
}

func TestInitOutputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkfs.log")
	t.Cleanup(func() { InitWithWriter(os.Stdout, "INFO", "text", false) })

	require.NoError(t, Init(Config{Level: "DEBUG", Format: "text", Output: path}))
	Debug("to file", "n", 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file n=1")
	assert.NotContains(t, string(data), "\033[")
}

func TestInitRejectsBadValues(t *testing.T) {
	t.Cleanup(func() { InitWithWriter(os.Stdout, "INFO", "text", false) })

	assert.Error(t, Init(Config{Format: "yaml"}))
	assert.Error(t, Init(Config{Level: "chatty"}))
	assert.Error(t, Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")}))
}

func TestConcurrentLogging(t *testing.T) {
	buf := capture(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info("burst", "worker", i, "n", j)
				if j%10 == 0 {
					SetLevel("INFO")
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 400, strings.Count(buf.String(), "\n"))
}
