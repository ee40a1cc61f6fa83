package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/uiground/internal/embed"
	"github.com/Aman-CERP/uiground/internal/output"
	"github.com/Aman-CERP/uiground/internal/semantic"
	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	recordsPath string
	limit       int
	explain     bool
}

// newQueryCmd creates the query command.
func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <query-json>",
		Short: "Run a one-shot query against a records file",
		Long: `Run a query against UI element records loaded from a JSON file.

The query is a JSON document with where clauses, ordering and pagination.
Pass '-' to read the query from stdin.

Examples:
  uiground query '{"where":[{"role":"button"},{"name":"submit"}]}' --records page.json
  uiground query '{"where":[{"role":"textbox"},{"state":{"visible":true}}],"limit":5}' -r page.json
  cat query.json | uiground query - --records page.json --explain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.recordsPath, "records", "r", "", "Path to the records JSON file (required)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Override the query's result limit")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "Include execution diagnostics in the output")
	_ = cmd.MarkFlagRequired("records")

	return cmd
}

func runQuery(cmd *cobra.Command, queryArg string, opts queryOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	queryJSON := []byte(queryArg)
	if strings.TrimSpace(queryArg) == "-" {
		queryJSON, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read query from stdin: %w", err)
		}
	}

	records, err := loadRecords(opts.recordsPath)
	if err != nil {
		return err
	}

	var embedder embed.Embedder
	if cfg.Semantic.Enabled {
		embedder = embed.NewStaticEmbedder(embed.DefaultDimensions)
	}
	engine := semantic.NewEngine(embedder, cfg.Cache.Capacity,
		semantic.WithQueryTuning(cfg.Query.DefaultLimit, cfg.Query.NearRadius),
		semantic.WithSemanticDefaults(cfg.Semantic.Threshold, cfg.Semantic.TopK),
		semantic.WithBatchSize(cfg.Semantic.BatchSize),
	)
	engine.Ingest(records)

	if opts.limit > 0 {
		queryJSON, err = overrideLimit(queryJSON, opts.limit)
		if err != nil {
			return err
		}
	}

	result, err := engine.Query(cmd.Context(), queryJSON)
	if err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	if opts.explain {
		return out.JSON(result)
	}
	return out.JSON(struct {
		Matches []snapshot.Match `json:"matches"`
		Total   int              `json:"total"`
	}{result.Matches, result.Total})
}

// loadRecords reads and decodes a records JSON file: either a bare array
// or an object with a "records" key.
func loadRecords(path string) ([]snapshot.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}

	var records []snapshot.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Records []snapshot.Record `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse records file %s: %w", path, err)
	}
	return wrapped.Records, nil
}

// overrideLimit rewrites the query's limit field.
func overrideLimit(queryJSON []byte, limit int) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(queryJSON, &doc); err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	raw, err := json.Marshal(limit)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	doc["limit"] = raw
	return json.Marshal(doc)
}
