// Package mcp exposes the uiground engine over the Model Context
// Protocol, so automation agents can ingest UI snapshots and query them
// through stdio JSON-RPC.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/uiground/internal/config"
	"github.com/Aman-CERP/uiground/internal/semantic"
	"github.com/Aman-CERP/uiground/internal/snapshot"
	"github.com/Aman-CERP/uiground/pkg/version"
)

// Server bridges MCP clients with the snapshot query engine.
type Server struct {
	mcp    *mcp.Server
	engine *semantic.Engine
	config *config.Config
	logger *slog.Logger
}

// IngestInput defines the input schema for the ingest_snapshot tool.
type IngestInput struct {
	Records []snapshot.Record `json:"records" jsonschema:"UI element records captured from the live page"`
}

// IngestOutput defines the output schema for the ingest_snapshot tool.
type IngestOutput struct {
	Indexed int `json:"indexed" jsonschema:"number of records now in the index"`
}

// QueryInput defines the input schema for the query tool.
type QueryInput struct {
	Query map[string]any `json:"query" jsonschema:"query document with where clauses, orderBy, limit, offset and optional semantic block"`
}

// QueryOutput defines the output schema for the query tool.
type QueryOutput struct {
	Matches []snapshot.Match `json:"matches" jsonschema:"ranked matching elements"`
	Total   int              `json:"total" jsonschema:"candidate count before pagination"`
}

// GetRecordInput defines the input schema for the get_record tool.
type GetRecordInput struct {
	ID uint32 `json:"id" jsonschema:"snapshot id of the record to fetch"`
}

// GetRecordOutput defines the output schema for the get_record tool.
type GetRecordOutput struct {
	Record *snapshot.Record `json:"record,omitempty" jsonschema:"the record, absent when the id is unknown"`
	Found  bool             `json:"found" jsonschema:"whether the id resolved to a record"`
}

// StatusOutput defines the output schema for the status tool.
type StatusOutput struct {
	Version         string `json:"version" jsonschema:"server version"`
	Records         int    `json:"records" jsonschema:"number of indexed records"`
	CachedVectors   int    `json:"cached_vectors" jsonschema:"embeddings held in the fingerprint cache"`
	SemanticEnabled bool   `json:"semantic_enabled" jsonschema:"whether semantic re-ranking is configured"`
}

// statusInput is empty; the status tool takes no arguments.
type statusInput struct{}

// warmInput is empty; warm_embeddings takes no arguments.
type warmInput struct{}

// WarmOutput defines the output schema for the warm_embeddings tool.
type WarmOutput struct {
	Embedded int `json:"embedded" jsonschema:"number of embeddings computed"`
}

// NewServer creates the MCP server over an engine.
func NewServer(engine *semantic.Engine, cfg *config.Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	s := &Server{
		engine: engine,
		config: cfg,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "uiground",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ingest_snapshot",
		Description: "Replace the indexed UI snapshot with a fresh set of element records. Call after every page mutation you care about; queries always run against the latest ingested snapshot.",
	}, s.handleIngest)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "query",
		Description: "Find UI elements in the current snapshot. Supports role, state, fuzzy name, context, attribute and proximity filters, plus optional semantic re-ranking by meaning.",
	}, s.handleQuery)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_record",
		Description: "Fetch a single element record by the snapshot id a previous query returned.",
	}, s.handleGetRecord)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "warm_embeddings",
		Description: "Precompute embeddings for every indexed record so semantic queries answer from cache.",
	}, s.handleWarm)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "status",
		Description: "Report index size, embedding cache usage and semantic availability.",
	}, s.handleStatus)

	s.logger.Info("MCP tools registered", slog.Int("count", 5))
}

func (s *Server) handleIngest(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (
	*mcp.CallToolResult,
	IngestOutput,
	error,
) {
	s.engine.Ingest(input.Records)
	s.logger.Info("snapshot ingested", slog.Int("records", len(input.Records)))
	return nil, IngestOutput{Indexed: s.engine.Size()}, nil
}

func (s *Server) handleQuery(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (
	*mcp.CallToolResult,
	QueryOutput,
	error,
) {
	if input.Query == nil {
		return nil, QueryOutput{}, NewInvalidParamsError("query parameter is required")
	}

	raw, err := json.Marshal(input.Query)
	if err != nil {
		return nil, QueryOutput{}, NewInvalidParamsError(fmt.Sprintf("encode query: %v", err))
	}

	result, err := s.engine.Query(ctx, raw)
	if err != nil {
		return nil, QueryOutput{}, MapError(err)
	}
	return nil, QueryOutput{Matches: result.Matches, Total: result.Total}, nil
}

func (s *Server) handleGetRecord(_ context.Context, _ *mcp.CallToolRequest, input GetRecordInput) (
	*mcp.CallToolResult,
	GetRecordOutput,
	error,
) {
	rec := s.engine.GetRecord(input.ID)
	return nil, GetRecordOutput{Record: rec, Found: rec != nil}, nil
}

func (s *Server) handleWarm(ctx context.Context, _ *mcp.CallToolRequest, _ warmInput) (
	*mcp.CallToolResult,
	WarmOutput,
	error,
) {
	n, err := s.engine.ComputeAllEmbeddings(ctx)
	if err != nil {
		return nil, WarmOutput{}, MapError(err)
	}
	return nil, WarmOutput{Embedded: n}, nil
}

func (s *Server) handleStatus(_ context.Context, _ *mcp.CallToolRequest, _ statusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	return nil, StatusOutput{
		Version:         version.Version,
		Records:         s.engine.Size(),
		CachedVectors:   s.engine.CacheSize(),
		SemanticEnabled: s.config.Semantic.Enabled,
	}, nil
}

// Serve runs the server over the given transport until ctx is canceled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && err != context.Canceled {
			s.logger.Error("MCP server stopped with error",
				slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("MCP server stopped gracefully")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}
