package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	SetOutput(buf)
	prevLevel := GetLogLevel()
	t.Cleanup(func() {
		SetOutput(nil)
		SetTagFilter("")
		SetLogLevel(prevLevel)
	})
	return buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}
	return records
}

func TestNew_WritesTaggedJSON(t *testing.T) {
	buf := captureOutput(t)
	SetLogLevel(LogLevelInfo)

	New("task:purge").Infof("Executing: %s", "DELETE FROM sessions")

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "info", records[0]["level"])
	assert.Equal(t, "task:purge", records[0]["tag"])
	assert.Equal(t, "Executing: DELETE FROM sessions", records[0]["message"])
}

func TestLogLevel_FiltersLowerSeverity(t *testing.T) {
	buf := captureOutput(t)
	SetLogLevel(LogLevelWarn)

	log := New("hook")
	log.Info("hidden")
	log.Debug("hidden")
	log.Warn("shown")
	log.Success("always shown")

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	assert.Equal(t, "shown", records[0]["message"])
	assert.Equal(t, "always shown", records[1]["message"])
	assert.Equal(t, true, records[1]["success"])
}

func TestSetLogLevel_IgnoresOutOfRange(t *testing.T) {
	captureOutput(t)
	SetLogLevel(LogLevelDebug)
	SetLogLevel(9)
	assert.Equal(t, LogLevelDebug, GetLogLevel())
	SetLogLevel(0)
	assert.Equal(t, LogLevelDebug, GetLogLevel())
}

func TestShouldLogTag(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		tag    string
		want   bool
	}{
		{name: "no filter", filter: "", tag: "hook", want: true},
		{name: "included exact", filter: "task", tag: "task", want: true},
		{name: "included child", filter: "task", tag: "task:purge", want: true},
		{name: "not included", filter: "task", tag: "hook", want: false},
		{name: "excluded child", filter: "-hook", tag: "hook:postgres", want: false},
		{name: "exclusion only keeps others", filter: "-hook", tag: "task:purge", want: true},
		{name: "exclusion wins over inclusion", filter: "task,-task:purge", tag: "task:purge", want: false},
		{name: "prefix is not a child", filter: "task", tag: "tasks", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetTagFilter(tt.filter)
			t.Cleanup(func() { SetTagFilter("") })
			assert.Equal(t, tt.want, shouldLogTag(tt.tag))
		})
	}
}

func TestNew_FilteredTagIsNoOp(t *testing.T) {
	buf := captureOutput(t)
	SetTagFilter("-connections")

	New("connections").Error("dropped")

	assert.Empty(t, buf.String())
}

func TestPrintValidationErrors(t *testing.T) {
	buf := captureOutput(t)
	SetLogLevel(LogLevelInfo)

	New("parser").PrintValidationErrors([]string{"first", "second"})

	records := decodeLines(t, buf)
	require.Len(t, records, 3)
	assert.Equal(t, "Validation Errors (2)", records[0]["message"])
	assert.Equal(t, "  2. second", records[2]["message"])
}
