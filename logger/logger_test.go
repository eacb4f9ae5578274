package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, logrus.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, logrus.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, logrus.InfoLevel, parseLogLevel("bogus"))
}

func TestInitLoggerWritesToConfiguredFiles(t *testing.T) {
	dir := t.TempDir()
	infoPath := filepath.Join(dir, "info.log")
	errPath := filepath.Join(dir, "error.log")

	assert.NoError(t, InitLogger(LogConfig{
		InfoLogPath:  infoPath,
		ErrorLogPath: errPath,
		LogLevel:     "debug",
	}))

	Infof("hello %s", "world")
	Errorf("boom %d", 42)

	infoContents, err := os.ReadFile(infoPath)
	assert.NoError(t, err)
	assert.Contains(t, string(infoContents), "hello world")

	errContents, err := os.ReadFile(errPath)
	assert.NoError(t, err)
	assert.Contains(t, string(errContents), "boom 42")
}

func TestInitLoggerDefaultsToStdoutWithoutPaths(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{
		InfoLogPath:  "",
		ErrorLogPath: "",
		LogLevel:     "info",
	}))
	assert.Equal(t, os.Stdout, InfoLogger.Out)
}
