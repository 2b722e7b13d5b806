package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/raysh454/centinela/internal/logging"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("line is not JSON: %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestStdoutLogger_WritesJSONLines(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewStdoutLogger("test").SetOutput(&buf)

	logger.Info("hello", logging.Field{Key: "url", Value: "https://example.com"})

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0]["level"] != "info" || lines[0]["msg"] != "hello" || lines[0]["component"] != "test" {
		t.Errorf("unexpected entry: %v", lines[0])
	}
	fields, _ := lines[0]["fields"].(map[string]any)
	if fields["url"] != "https://example.com" {
		t.Errorf("expected url field, got %v", fields)
	}
}

func TestStdoutLogger_LevelFilter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger := logging.NewStdoutLogger("test").SetOutput(&buf).SetLevel(logging.LevelWarn)

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w")
	logger.Error("e")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[0]["msg"] != "w" || lines[1]["msg"] != "e" {
		t.Errorf("unexpected messages: %v", lines)
	}
}

func TestStdoutLogger_WithComponentAndFields(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	root := logging.NewStdoutLogger("root").SetOutput(&buf)

	child := root.With(
		logging.Field{Key: "component", Value: "orchestrator"},
		logging.Field{Key: "session", Value: "abc"},
	)
	child.Info("transition", logging.Field{Key: "phase", Value: "submitting"})

	lines := decodeLines(t, &buf)
	if lines[0]["component"] != "orchestrator" {
		t.Errorf("expected component orchestrator, got %v", lines[0]["component"])
	}
	fields, _ := lines[0]["fields"].(map[string]any)
	if fields["session"] != "abc" || fields["phase"] != "submitting" {
		t.Errorf("expected persistent and call fields, got %v", fields)
	}
	if _, ok := fields["component"]; ok {
		t.Errorf("component should not be repeated as a field")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in      string
		want    logging.Level
		wantErr bool
	}{
		{"", logging.LevelInfo, false},
		{"DEBUG", logging.LevelDebug, false},
		{"warning", logging.LevelWarn, false},
		{" error ", logging.LevelError, false},
		{"verbose", logging.LevelInfo, true},
	}
	for _, tc := range cases {
		got, err := logging.ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseLevel(%q) err=%v, wantErr=%v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q)=%v, want %v", tc.in, got, tc.want)
		}
	}
}
