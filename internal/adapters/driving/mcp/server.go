package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/intelligence-layer/internal/logger"
)

// DefaultVersion is reported when no version is configured.
const DefaultVersion = "dev"

// shutdownTimeout bounds how long in-flight HTTP requests may finish.
const shutdownTimeout = 5 * time.Second

// Server exposes the model, keyword extraction and evaluation data over MCP.
type Server struct {
	ports   *Ports
	version string
	server  *mcp.Server
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported to clients.
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// NewServer creates a server. Model and Keywords are required; without
// Datasets or Evaluations the corresponding resources report nothing.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: DefaultVersion}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "intelligence-layer", Version: s.version},
		&mcp.ServerOptions{Instructions: s.Instructions()},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Version returns the version reported to clients.
func (s *Server) Version() string {
	return s.version
}

// Instructions describes what the server offers, given its ports.
func (s *Server) Instructions() string {
	var b strings.Builder
	b.WriteString("Language model tasks and their evaluation data.\n")
	b.WriteString("Use 'complete' to continue a prompt and 'instruct' to follow an instruction.\n")

	languages := s.ports.Keywords.SupportedLanguages()
	codes := make([]string, len(languages))
	for i, language := range languages {
		codes[i] = language.String()
	}
	fmt.Fprintf(&b, "Use 'extract_keywords' for texts in: %s.\n", strings.Join(codes, ", "))

	if s.ports.Datasets != nil {
		b.WriteString("Datasets are listed by 'list_datasets' and readable as resources.\n")
	}
	if s.ports.Evaluations != nil {
		b.WriteString("Finished evaluations are readable as resources.\n")
	}
	return b.String()
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("MCP server %s serving on stdio", s.version)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns the streamable HTTP handler serving this server.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)
}

// RunHTTP serves streamable HTTP on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("MCP server shutdown: %v", err)
		}
	}()

	logger.Debug("MCP server %s listening on %s", s.version, addr)
	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
