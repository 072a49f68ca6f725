package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, GetLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, GetLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, GetLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, GetLevel("error"))
	assert.Equal(t, logrus.TraceLevel, GetLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, GetLevel("info"))
	assert.Equal(t, logrus.InfoLevel, GetLevel(""))
	assert.Equal(t, logrus.InfoLevel, GetLevel("whatever"))
}

func TestSetup_WritesToFile(t *testing.T) {
	prevOut, prevLevel, prevFormatter := logrus.StandardLogger().Out, logrus.GetLevel(), logrus.StandardLogger().Formatter
	t.Cleanup(func() {
		logrus.SetOutput(prevOut)
		logrus.SetLevel(prevLevel)
		logrus.SetFormatter(prevFormatter)
	})

	path := filepath.Join(t.TempDir(), "runcoach") // suffix is added
	closer := Setup(LoggerSetupParams{
		LogFileName:   path,
		LogLevel:      "warn",
		LogFormatJSON: true,
	})

	logrus.Info("dropped")
	logrus.WithField("event", "10k").Warn("kept")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path + ".log")
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), `"msg":"kept"`)
	assert.Contains(t, string(data), `"event":"10k"`)
}

func TestSetup_NoFile(t *testing.T) {
	prevOut := logrus.StandardLogger().Out
	t.Cleanup(func() { logrus.SetOutput(prevOut) })

	closer := Setup(LoggerSetupParams{LogLevel: "info"})
	assert.NoError(t, closer.Close())
}
