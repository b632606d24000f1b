package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"animius/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupAppliesLevelAndFormat(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set(config.LogLevel, "debug")
	viper.Set(config.LogJSON, true)
	require.NoError(t, Setup())
	t.Cleanup(func() {
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
		SetLevel(logrus.WarnLevel)
	})

	var buf bytes.Buffer
	SetOutput(&buf)
	WithField("source", "agedm").Debug("fetching document")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agedm", entry["source"])
	assert.Equal(t, "fetching document", entry["msg"])
}

func TestSetupUnknownLevelFallsBackToWarn(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set(config.LogLevel, "chatty")
	require.NoError(t, Setup())

	var buf bytes.Buffer
	SetOutput(&buf)
	Infof("hidden")
	Warnf("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
