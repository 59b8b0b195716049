package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pirouette/studio/pkg/logger"
)

func TestConfigureLogging(t *testing.T) {
	restore := logger.Replace(nil)
	t.Cleanup(func() { restore() })

	require.NoError(t, ConfigureLogging("studio-test", "debug", "production"))
	require.True(t, logger.Logger().Core().Enabled(-1))

	require.NoError(t, ConfigureLogging("studio-test", "", "development"))
	require.False(t, logger.Logger().Core().Enabled(-1))
}
