package querydriver

import (
	"context"

	"github.com/Aman-CERP/amanmcp/internal/postings"
)

// TermResolver looks up the posting list and document frequency for a
// single query term. The driver never touches index storage directly
// — it only knows how to turn a parsed query tree into calls against
// whatever TermResolver the caller wires in (an in-memory index, a
// segment reader, a cache-backed lookup — the driver doesn't care).
type TermResolver interface {
	Resolve(ctx context.Context, term string) (list postings.List, df int64, err error)
}

// TermResolverFunc adapts a plain function to TermResolver.
type TermResolverFunc func(ctx context.Context, term string) (postings.List, int64, error)

func (f TermResolverFunc) Resolve(ctx context.Context, term string) (postings.List, int64, error) {
	return f(ctx, term)
}
