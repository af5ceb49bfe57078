package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/orizon-lang/typekernel/internal/kernel"
	"github.com/orizon-lang/typekernel/internal/testrunner/assert"
)

var _ kernel.Logger = (*Logger)(nil)

func TestLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		debug   bool
		want    []string
	}{
		{"quiet", false, false, []string{"[WARN]", "[ERROR]"}},
		{"verbose", true, false, []string{"[INFO]", "[WARN]", "[ERROR]"}},
		{"debug", false, true, []string{"[DEBUG]", "[WARN]", "[ERROR]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewLogger(tt.verbose, tt.debug)
			l.SetOutput(&buf)
			l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

			l.Info("checking %s", "term")
			l.Debug("solved %d constraints", 3)
			l.Warn("slow")
			l.Error("failed: %v", "boom")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if !assert.Len(t, lines, len(tt.want)) {
				return
			}
			for i, prefix := range tt.want {
				assert.True(t, strings.HasPrefix(lines[i], prefix+" 03:04:05: "), "line %d: %q", i, lines[i])
			}
		})
	}
}

func TestPrintVersion(t *testing.T) {
	var text bytes.Buffer
	PrintVersion(&text, "typekernel-smoke", false)
	assert.Contains(t, text.String(), "typekernel-smoke v"+Version)

	var js bytes.Buffer
	PrintVersion(&js, "typekernel-smoke", true)
	var decoded struct {
		Tool        string      `json:"tool"`
		VersionInfo VersionInfo `json:"version_info"`
	}
	if assert.NoError(t, json.Unmarshal(js.Bytes(), &decoded)) {
		assert.Equal(t, decoded.Tool, "typekernel-smoke")
		assert.Equal(t, decoded.VersionInfo.Version, Version)
	}
}
