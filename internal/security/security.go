// Package security maps a principal to the extents it may see and
// stamps every query with a traceable identity (spec §4.7, §6's
// "Security context: (userId) → VisibleExtents").
package security

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Aman-CERP/amanmcp/internal/errors"
	"github.com/Aman-CERP/amanmcp/internal/visibility"
)

// God, when set on a Context, tells the driver to bypass visibility
// composition entirely (spec §6: "the driver composes this
// automatically unless the query is flagged GOD"). It exists for
// offline tooling and tests, never for a request that crossed a
// network boundary.
type Context struct {
	UserID  string
	God     bool
	TraceID string
}

// NewContext starts a Context for userID, stamping it with a fresh
// query-trace id so every log line and ranked result touched by this
// query can be correlated after the fact.
func NewContext(userID string) Context {
	return Context{UserID: userID, TraceID: uuid.NewString()}
}

// Resolver maps user ids to the visible-extents table that bounds
// their queries. One Resolver is shared by every query driver
// instance serving the same index; tables are reference-counted so a
// long-running query keeps its table alive even if the resolver
// refreshes the mapping underneath it.
type Resolver struct {
	mu      sync.RWMutex
	tables  map[string]*visibility.Table
	fullSet *visibility.Table
}

// NewResolver creates an empty Resolver. fullSet, if non-nil, is the
// table returned for a God-flagged Context instead of bypassing
// visibility altogether — callers that want a literal bypass should
// check Context.God themselves before calling Resolve.
func NewResolver(fullSet *visibility.Table) *Resolver {
	return &Resolver{tables: make(map[string]*visibility.Table), fullSet: fullSet}
}

// Grant installs or replaces the visible-extents table for userID.
// The Resolver takes the Retain the table already holds from
// NewTable/Retain; call Revoke (or let the query driver Release) to
// drop the Resolver's hold.
func (r *Resolver) Grant(userID string, table *visibility.Table) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.tables[userID]; ok && old != table {
		old.Release()
	}
	r.tables[userID] = table
}

// Revoke removes userID's table, releasing the Resolver's hold on it.
func (r *Resolver) Revoke(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.tables[userID]; ok {
		old.Release()
		delete(r.tables, userID)
	}
}

// Resolve returns the VisibleExtents table for ctx, retaining an
// additional reference on the caller's behalf — the caller must
// Release it when the query completes. A God context returns the
// resolver's fullSet (if configured) with no per-user lookup.
func (r *Resolver) Resolve(ctx Context) (*visibility.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if ctx.God {
		if r.fullSet == nil {
			return nil, errors.AccessDeniedError("no unrestricted table configured for a GOD query")
		}
		r.fullSet.Retain()
		return r.fullSet, nil
	}

	t, ok := r.tables[ctx.UserID]
	if !ok {
		return nil, errors.AccessDeniedError("no visible-extents table granted for user " + ctx.UserID)
	}
	t.Retain()
	return t, nil
}
