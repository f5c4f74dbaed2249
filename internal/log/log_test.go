package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"debug", slog.LevelDebug, false},
		{"WARN", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
		if got != tc.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Fatalf("expected json, got %q %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Fatalf("expected text default, got %q %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}

func decode(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLoggerComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Output: &buf})

	logger.Info("started")
	logger.WithComponent(ComponentWorker).Debug("consumed", FieldQueue, "requests")

	records := decode(t, &buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0][FieldComponent] != ComponentApp {
		t.Fatalf("expected app component, got %v", records[0][FieldComponent])
	}
	if records[1][FieldComponent] != ComponentWorker || records[1][FieldQueue] != "requests" {
		t.Fatalf("unexpected record %v", records[1])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Format: FormatJSON, Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	if records := decode(t, &buf); len(records) != 1 || records[0]["msg"] != "shown" {
		t.Fatalf("expected only the warning, got %v", records)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))
	ctx := context.Background()

	sl.LogProjectionCompleted(ctx, "abc", "household", 5, 12)
	sl.LogError(ctx, "export failed", errors.New("quota"), ComponentSheets, OpExport, nil)

	records := decode(t, &buf)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0][FieldComponent] != ComponentProjection || records[0][FieldScenario] != "household" {
		t.Fatalf("unexpected projection record %v", records[0])
	}
	if records[1][FieldComponent] != ComponentSheets || records[1][FieldError] != "quota" {
		t.Fatalf("unexpected error record %v", records[1])
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	logger := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	var got *Logger
	h := Middleware(logger)(ComponentMiddleware(ComponentTrace)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got == nil || got.Component() != ComponentTrace {
		t.Fatalf("expected trace logger in context, got %v", got)
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Fatalf("expected default logger outside requests")
	}
}
