package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(DEBUG)
	SetRedactPII(true)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(INFO)
	})
	return &buf
}

func TestLog_RedactsEmailFields(t *testing.T) {
	buf := capture(t)

	Warn("send failed", "email", "john.doe@example.com", "error", errors.New("smtp 554 for jane@co.com"), "row_index", 4)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "send failed", entry["msg"])
	assert.Equal(t, "jo***@example.com", entry["email"])
	assert.Equal(t, "smtp 554 for ja***@co.com", entry["error"])
	assert.Equal(t, "4", entry["row_index"])
}

func TestLog_LevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("hidden")
	Error("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john.doe@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-email"))
	assert.Equal(t, "***@***", RedactEmail("a@b@c"))
	assert.Equal(t, "jö***@example.com", RedactEmail(" jörg@example.com "))
}

func TestRedactText(t *testing.T) {
	assert.Equal(t, "", RedactText(""))
	assert.Equal(t, "[redacted 5 chars]", RedactText("Alice"))
	assert.Equal(t, "[redacted 12 chars]", RedactText("hello, world"))
}

func TestLog_RedactsFormFields(t *testing.T) {
	buf := capture(t)

	Info("contact received", "name", "Alice Smith", "message", "call me", "row_index", 7)

	var entry map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "[redacted 11 chars]", entry["name"])
	assert.Equal(t, "[redacted 7 chars]", entry["message"])
	assert.Equal(t, "7", entry["row_index"])
}
