package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   string
	}{
		{"/activities/1", http.StatusOK, "level=INFO"},
		{"/activities/1", http.StatusNotFound, "level=WARN"},
		{"/activities/1", http.StatusInternalServerError, "level=ERROR"},
		{"/health", http.StatusOK, "level=DEBUG"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			w.Write([]byte("hello"))
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.path, nil))

		line := buf.String()
		if !strings.Contains(line, tt.want) {
			t.Errorf("%s %d: log %q missing %q", tt.path, tt.status, line, tt.want)
		}
		if !strings.Contains(line, "bytes=5") {
			t.Errorf("log %q missing byte count", line)
		}
	}
}

func TestStatusRecorderUnwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec}
	if sr.Unwrap() != rec {
		t.Error("Unwrap must return the wrapped writer")
	}
}
