package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSetupLogger(t *testing.T) {
	originalLogger := defaultLogger
	defer func() {
		defaultLogger = originalLogger
	}()

	testCases := []struct {
		name          string
		level         LogLevel
		expectedLevel slog.Level
	}{
		{
			name:          "Debug level",
			level:         LevelDebug,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "Info level",
			level:         LevelInfo,
			expectedLevel: slog.LevelInfo,
		},
		{
			name:          "Warn level",
			level:         LevelWarn,
			expectedLevel: slog.LevelWarn,
		},
		{
			name:          "Error level",
			level:         LevelError,
			expectedLevel: slog.LevelError,
		},
		{
			name:          "Invalid level defaults to Info",
			level:         LogLevel("invalid"),
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			SetupLogger(&buf, tc.level)

			if defaultLogger == nil {
				t.Fatal("defaultLogger is nil after setup")
			}

			Debug("debug message")
			Info("info message")

			output := buf.String()
			if tc.expectedLevel > slog.LevelDebug && strings.Contains(output, "debug message") {
				t.Errorf("debug message should be suppressed at %s, got: %s", tc.level, output)
			}
			if tc.expectedLevel <= slog.LevelInfo && !strings.Contains(output, "info message") {
				t.Errorf("expected info message in output, got: %s", output)
			}
		})
	}
}

func TestOpenLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	w, err := OpenLogFile(path)
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	if f, ok := w.(*os.File); ok {
		defer f.Close()
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(contents) != "hello\n" {
		t.Errorf("unexpected contents %q", contents)
	}
}

func TestOpenLogFileStderr(t *testing.T) {
	w, err := OpenLogFile("-")
	if err != nil {
		t.Fatalf("OpenLogFile: %v", err)
	}
	if w != os.Stderr {
		t.Error("expected stderr for '-'")
	}
}

func TestMaskSensitive(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty value",
			input:    "",
			expected: "<not set>",
		},
		{
			name:     "Short value",
			input:    "abc",
			expected: "<set>",
		},
		{
			name:     "Long value",
			input:    "super-secret",
			expected: "supe...***",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaskSensitive(tc.input); got != tc.expected {
				t.Errorf("MaskSensitive(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}
