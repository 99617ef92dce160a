package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fluxyoga/batchcaption/pkg/logger"
)

func TestCreateLogger(t *testing.T) {
	log := logger.CreateLogger("info")
	if log == nil {
		t.Fatal("expected logger to be created")
	}
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("debug", &buf)

	log.Debug("debug message")
	log.Info("info message")
	log.Warn("warn message")
	log.Error("error message")

	output := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("warn", &buf)

	log.Info("quiet")
	log.Warn("loud")

	output := buf.String()
	if strings.Contains(output, "quiet") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(output, "loud") {
		t.Error("warn message missing from output")
	}
}

func TestLogger_WithScope(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	scoped := log.WithScope("florence-2")
	scoped.Info("caption generated")

	output := buf.String()
	if !strings.Contains(output, "florence-2") {
		t.Error("expected scope name in log output")
	}
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Info("processed",
		logger.WithField("file", "cat.jpg"),
		logger.WithField("elapsed", "3s"))

	output := buf.String()
	if !strings.Contains(output, "file=cat.jpg") {
		t.Error("expected file field in log output")
	}
	if !strings.Contains(output, "elapsed=3s") {
		t.Error("expected elapsed field in log output")
	}
}

func TestLogger_Success(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("info", &buf)

	log.Success("run complete")

	if !strings.Contains(buf.String(), "run complete") {
		t.Error("expected success message in log output")
	}
}
