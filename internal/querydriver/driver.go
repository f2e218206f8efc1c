// Package querydriver ties together query parsing, term resolution,
// security filtering, collection statistics, and ranking into the
// single entry point a caller uses to run a query (spec §6's "the
// query driver accepts a tree built by an external parser").
package querydriver

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/amanmcp/internal/errors"
	"github.com/Aman-CERP/amanmcp/internal/operator"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/ranker"
	"github.com/Aman-CERP/amanmcp/internal/security"
	"github.com/Aman-CERP/amanmcp/internal/stats"
	"github.com/Aman-CERP/amanmcp/internal/visibility"
)

// Container supplies the candidate-document list a query ranks
// against (one extent per rankable unit) along with enough collection
// metadata to build or fetch its stats.Entry.
type Container interface {
	List() postings.List
	Fingerprint() uint64
	DocCount() (int64, int64) // (N, totalTokenLength), passed to stats.Cache.Get's build func
}

// Driver runs queries: parse -> resolve terms -> compose the boolean
// tree -> resolve the caller's visibility -> restrict every list the
// ranker will touch -> rank -> release.
type Driver struct {
	Resolver     TermResolver
	Security     *security.Resolver
	Stats        *stats.Cache
	Log          *slog.Logger
	RankerParams stats.Params
}

// New builds a Driver from its collaborators. log may be nil, in which
// case a discard logger is used.
func New(resolver TermResolver, sec *security.Resolver, statsCache *stats.Cache, params stats.Params, log *slog.Logger) *Driver {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Driver{Resolver: resolver, Security: sec, Stats: statsCache, RankerParams: params, Log: log}
}

// Input is one query request.
type Input struct {
	QueryString string
	Container   Container
	Options     ranker.Options
}

// Query runs one query string against cont under the given security
// context, returning the top-K ranked extents. Every list the ranker
// ultimately touches — the candidate container and every per-term
// list — is wrapped in the caller's visibility restriction before
// ranking begins; that wrapping is applied last and unconditionally,
// so no operator bug earlier in the tree can leak an invisible extent
// (spec §7).
func (d *Driver) Query(ctx context.Context, secCtx security.Context, in Input) ([]ranker.ScoredExtent, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.CancelledError("query cancelled before start", err)
	}

	ast, err := parseQueryString(in.QueryString)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveTerms(ctx, ast, d.Resolver)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.CancelledError("query cancelled while resolving terms", ctx.Err())
		}
		return nil, errors.New(errors.ErrCodeQueryInternal, "failed to resolve query terms", err)
	}

	boolTree, termInputs, err := buildTree(ast, resolved)
	if err != nil {
		return nil, err
	}

	visible, err := d.Security.Resolve(secCtx)
	if err != nil {
		return nil, err
	}
	defer visible.Release()

	securedContainer := visibility.Restrict(in.Container.List(), visible)
	securedTree := boolTree.MakeAlmostSecure(visible)
	for i, t := range termInputs {
		termInputs[i].List = visibility.Restrict(t.List, visible)
	}

	candidate := &operator.Containment{A: securedContainer, B: securedTree, Kind: operator.Contains}

	n, totalLen := in.Container.DocCount()
	entry, err := d.Stats.Get(in.Container.Fingerprint(), d.RankerParams, func() (int64, int64) { return n, totalLen })
	if err != nil {
		return nil, errors.New(errors.ErrCodeQueryInternal, "failed to build collection statistics", err)
	}

	opts := in.Options
	if opts.K1 == 0 {
		opts.K1 = d.RankerParams.K1
	}
	if opts.B == 0 {
		opts.B = d.RankerParams.B
	}

	results, err := ranker.Rank(ctx, candidate, termInputs, entry, opts)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.CancelledError("query cancelled during ranking", ctx.Err())
		}
		return nil, errors.New(errors.ErrCodeQueryInternal, "ranking failed", err)
	}

	d.Log.Debug("query ranked", "trace_id", secCtx.TraceID, "user_id", secCtx.UserID, "terms", len(termInputs), "results", len(results))
	return results, nil
}
