package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/amanmcp/internal/errors"
	"github.com/Aman-CERP/amanmcp/internal/offset"
	"github.com/Aman-CERP/amanmcp/internal/visibility"
)

func newTable() *visibility.Table {
	return visibility.NewTable([]visibility.Range{
		{FileID: 1, StartOffset: 0, TokenCount: 100, DocumentType: visibility.DocumentTypeSource},
	})
}

func TestNewContextStampsDistinctTraceIDs(t *testing.T) {
	a := NewContext("alice")
	b := NewContext("alice")
	assert.Equal(t, "alice", a.UserID)
	assert.NotEmpty(t, a.TraceID)
	assert.NotEqual(t, a.TraceID, b.TraceID)
}

func TestResolverGrantAndResolve(t *testing.T) {
	r := NewResolver(nil)
	table := newTable()
	r.Grant("alice", table)

	got, err := r.Resolve(NewContext("alice"))
	require.NoError(t, err)
	assert.True(t, got.ContainsExtent(offset.Extent{From: 0, To: 10}))
	got.Release()
}

func TestResolverDeniesUnknownUser(t *testing.T) {
	r := NewResolver(nil)
	_, err := r.Resolve(NewContext("mallory"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAccessDenied, errors.GetCode(err))
}

func TestResolverRevokeReleasesTable(t *testing.T) {
	r := NewResolver(nil)
	table := newTable()
	r.Grant("alice", table)
	r.Revoke("alice")

	_, err := r.Resolve(NewContext("alice"))
	assert.Error(t, err)
}

func TestResolverGodBypassesPerUserLookup(t *testing.T) {
	full := newTable()
	r := NewResolver(full)

	ctx := NewContext("anyone")
	ctx.God = true

	got, err := r.Resolve(ctx)
	require.NoError(t, err)
	assert.Same(t, full, got)
	got.Release()
}

func TestResolverGodWithoutFullSetIsDenied(t *testing.T) {
	r := NewResolver(nil)
	ctx := NewContext("anyone")
	ctx.God = true

	_, err := r.Resolve(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeAccessDenied, errors.GetCode(err))
}
