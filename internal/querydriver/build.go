package querydriver

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/amanmcp/internal/operator"
	"github.com/Aman-CERP/amanmcp/internal/postings"
	"github.com/Aman-CERP/amanmcp/internal/ranker"
)

// resolvedTerm is one distinct term name's posting list plus its
// document frequency, looked up exactly once no matter how many times
// the term appears in the parsed tree (e.g. "foo AND foo bar").
type resolvedTerm struct {
	list postings.List
	df   int64
}

// resolveTerms walks node once to collect every distinct term name,
// then resolves them concurrently via resolver. A query referencing a
// handful of terms pays one round-trip's worth of latency rather than
// one per occurrence.
func resolveTerms(ctx context.Context, node *astNode, resolver TermResolver) (map[string]resolvedTerm, error) {
	names := make(map[string]struct{})
	node.leaves(names)

	out := make(map[string]resolvedTerm, len(names))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for name := range names {
		name := name
		g.Go(func() error {
			list, df, err := resolver.Resolve(gctx, name)
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = resolvedTerm{list: list, df: df}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// buildTree walks node a second time (pure — no resolver calls) to
// produce both the operator.List tree bleve's grammar describes and
// the flat slice of ranker.TermInput leaves the ranker scores against.
// Phrase words are wrapped in an operator.Sequence; AND/OR map onto
// operator.And/Or directly.
func buildTree(node *astNode, resolved map[string]resolvedTerm) (postings.List, []ranker.TermInput, error) {
	var terms []ranker.TermInput
	seen := make(map[string]bool)
	collect := func(name string) postings.List {
		r := resolved[name]
		if !seen[name] {
			seen[name] = true
			terms = append(terms, ranker.TermInput{Name: name, List: r.list, Weight: 1.0, DF: r.df})
		}
		return r.list
	}

	var walk func(n *astNode) postings.List
	walk = func(n *astNode) postings.List {
		switch n.op {
		case astTerm:
			return collect(n.term)
		case astPhrase:
			children := make([]postings.List, len(n.phrase))
			for i, w := range n.phrase {
				children[i] = collect(w)
			}
			return &operator.Sequence{Children: children}
		case astAnd:
			children := make([]postings.List, len(n.children))
			for i, c := range n.children {
				children[i] = walk(c)
			}
			return &operator.And{Children: children}
		case astOr:
			children := make([]postings.List, len(n.children))
			for i, c := range n.children {
				children[i] = walk(c)
			}
			return &operator.Or{Children: children}
		}
		return nil
	}

	tree := walk(node)
	return tree, terms, nil
}
