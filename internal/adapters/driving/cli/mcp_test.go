package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMCPServeCmd_Flags(t *testing.T) {
	assert.Equal(t, "serve", mcpServeCmd.Use)

	port := mcpServeCmd.Flags().Lookup("port")
	require.NotNil(t, port)
	assert.Equal(t, "0", port.DefValue)
	assert.Equal(t, "p", port.Shorthand)

	host := mcpServeCmd.Flags().Lookup("host")
	require.NotNil(t, host)
	assert.Equal(t, "localhost", host.DefValue)
}

func TestMCPServeCmd_NotConfigured(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()
	modelService = nil

	_, err := execute("mcp", "serve")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model service not configured")
}
