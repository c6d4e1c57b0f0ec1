package cli

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/intelligence-layer/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server, exposing completion, instruction
and keyword extraction as tools and datasets and evaluations as resources.

By default, the server communicates over stdio using JSON-RPC.
Use --port to serve over streamable HTTP instead. The HTTP listener binds to
localhost unless --host says otherwise.

Examples:
  ilayer mcp serve
  ilayer mcp serve --port 8080
  ilayer mcp serve --port 8080 --host 0.0.0.0`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().String("host", "localhost", "HTTP bind address")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	host, err := cmd.Flags().GetString("host")
	if err != nil {
		return fmt.Errorf("getting host flag: %w", err)
	}
	if modelService == nil || keywordService == nil {
		return errors.New("model service not configured: set the model token first")
	}

	ports := &mcp.Ports{
		Model:       modelService,
		Keywords:    keywordService,
		Datasets:    datasetService,
		Evaluations: evaluationService,
	}

	server, err := mcp.NewServer(ports, mcp.WithVersion(version))
	if err != nil {
		return err
	}

	if port > 0 {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		cmd.Printf("MCP server listening on http://%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
