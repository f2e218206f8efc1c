package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanmcp/internal/config"
	"github.com/Aman-CERP/amanmcp/internal/output"
	"github.com/Aman-CERP/amanmcp/internal/querydriver"
	"github.com/Aman-CERP/amanmcp/internal/ranker"
	"github.com/Aman-CERP/amanmcp/internal/security"
	"github.com/Aman-CERP/amanmcp/internal/stats"
	"github.com/Aman-CERP/amanmcp/internal/store"
)

// queryOptions holds CLI flags shared by `query` and `explain`.
type queryOptions struct {
	limit int
}

func newQueryCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <expression>",
		Short: "Run a GCL-style boolean query against the BM25 term index",
		Long: `Run a boolean query expression through the term-position query driver.

Supports phrase queries ("new york"), required/excluded terms
(+required -excluded term), and plain OR of bare terms - the same
query-string grammar Bleve's query parser accepts.

Requires a Bleve-backed index (amanmcp index --bm25-backend bleve),
since only Bleve's term locations expose the token positions the query
driver's phrase and proximity matching need.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd, strings.Join(args, " "), opts, false)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 uses the configured default)")
	return cmd
}

func newExplainCmd() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "explain <expression>",
		Short: "Run a query and print per-result offsets and scores",
		Long: `Like query, but prints every ranked extent's document, offset
range, and BM25 score instead of just the document list - useful for
understanding why a result ranked where it did.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd.Context(), cmd, strings.Join(args, " "), opts, true)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum number of results (0 uses the configured default)")
	return cmd
}

// runQuery wires a querydriver.Driver over the project's Bleve BM25
// index and runs one query under a full-access (god) security
// context: there is no multi-principal session to scope to from a
// local CLI invocation.
func runQuery(ctx context.Context, cmd *cobra.Command, queryString string, opts queryOptions, explain bool) error {
	out := output.New(cmd.OutOrStdout())

	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	dataDir := filepath.Join(root, ".amanmcp")
	blevePath := store.GetBM25IndexPath(dataDir, string(store.BM25BackendBleve))
	if store.DetectBM25Backend(filepath.Join(dataDir, "bm25")) != store.BM25BackendBleve {
		return fmt.Errorf("query/explain require a Bleve-backed BM25 index at %s; run 'amanmcp index --bm25-backend bleve' first", blevePath)
	}

	idx, err := store.NewBleveBM25Index(blevePath, store.DefaultBM25Config())
	if err != nil {
		return fmt.Errorf("failed to open BM25 index: %w", err)
	}
	defer func() { _ = idx.Close() }()

	offsets, err := store.BuildOffsetIndex(idx, cfg.Codec.Granularity)
	if err != nil {
		return fmt.Errorf("failed to build offset index: %w", err)
	}

	resolver := &store.BleveTermResolver{Index: idx, Offsets: offsets}
	secResolver := security.NewResolver(offsets.FullVisibility())
	driver := querydriver.New(resolver, secResolver, stats.NewCache(), stats.Params{
		K1: cfg.Ranker.K1,
		B:  cfg.Ranker.B,
	}, nil)

	secCtx := security.NewContext("cli")
	secCtx.God = true

	limit := opts.limit
	if limit <= 0 {
		limit = cfg.Ranker.TopK
	}

	results, err := driver.Query(ctx, secCtx, querydriver.Input{
		QueryString: queryString,
		Container:   offsets,
		Options: ranker.Options{
			TopK:              limit,
			UseIDF:            cfg.Ranker.UseIDF,
			UseProximity:      cfg.Ranker.UseProximity,
			ProximityExponent: cfg.Ranker.ProximityExponent,
			DocumentLevel:     cfg.Codec.DocumentLevel,
		},
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if len(results) == 0 {
		out.Status("", "No matches.")
		return nil
	}

	for i, r := range results {
		docID, _ := offsets.DocIDFor(r.From)
		if explain {
			out.Statusf("", "%2d. %-40s score=%.4f  offset=[%d,%d]", i+1, docID, r.Score, r.From, r.To)
		} else {
			out.Statusf("", "%2d. %s", i+1, docID)
		}
	}
	return nil
}
