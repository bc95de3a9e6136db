package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestConfigure_ConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	logger := log.New()

	closeLog, err := Configure(logger, Options{Console: &console})
	require.NoError(t, err)
	defer closeLog()

	logger.Debug("hidden detail")
	logger.Info("bot started")

	require.Contains(t, console.String(), "bot started")
	require.NotContains(t, console.String(), "hidden detail")
}

func TestConfigure_FileGetsDebug(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "bot.log")
	logger := log.New()

	closeLog, err := Configure(logger, Options{Console: &console, File: path})
	require.NoError(t, err)

	logger.Debug("lookup BTC")
	logger.WithField("chat_id", 42).Warn("send failed")
	require.NoError(t, closeLog())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "lookup BTC")
	require.Contains(t, string(data), "chat_id=42")

	require.Contains(t, console.String(), "send failed")
	require.NotContains(t, console.String(), "lookup BTC")
}

func TestConfigure_DebugConsole(t *testing.T) {
	var console bytes.Buffer
	logger := log.New()

	closeLog, err := Configure(logger, Options{Console: &console, Debug: true})
	require.NoError(t, err)
	defer closeLog()

	logger.Debug("lookup ETH")
	require.Contains(t, console.String(), "lookup ETH")
}

func TestConfigure_ReplacesHooks(t *testing.T) {
	var first, second bytes.Buffer
	logger := log.New()

	_, err := Configure(logger, Options{Console: &first})
	require.NoError(t, err)
	_, err = Configure(logger, Options{Console: &second})
	require.NoError(t, err)

	logger.Info("once")
	require.Empty(t, first.String())
	require.Equal(t, 1, bytes.Count(second.Bytes(), []byte("once")))
}
