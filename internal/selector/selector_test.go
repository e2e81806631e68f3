package selector_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeql/treeql/internal/selector"
)

func TestByUpdateTableNoDateSelectsAll(t *testing.T) {
	p, err := selector.ByUpdateTable(selector.UpdateTableOptions{Table: "users", ID: "id"})
	require.NoError(t, err)
	assert.True(t, p.Empty())
}

func TestByUpdateTableRequiresUpdatedColumn(t *testing.T) {
	_, err := selector.ByUpdateTable(selector.UpdateTableOptions{
		Table: "users",
		Date:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, selector.ErrUpdatedColumnRequired)
}

func TestByUpdateTableFragment(t *testing.T) {
	p, err := selector.ByUpdateTable(selector.UpdateTableOptions{
		Table:   "users",
		Updated: "updated_at",
		Date:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "users.updated_at > ?", p.Frag)
	assert.Equal(t, []any{"2026-01-01 00:00:00"}, p.Args)
}

func TestByDeltaOrsAcrossColumns(t *testing.T) {
	p := selector.ByDelta(selector.DeltaOptions{
		Fields: []string{"users/updated_at", "users/created_at"},
		Date:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "users/updated_at > ? OR users/created_at > ?", p.Frag)
	assert.Len(t, p.Args, 2)
}

func TestByExpiryNumericAge(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	p := selector.ByExpiry(selector.ExpiryOptions{Field: "users/created_at", AgeDays: 5}, now)
	assert.Equal(t, []any{"2026-01-05 00:00:00"}, p.Args)
}

func TestByIDsPreservesOrder(t *testing.T) {
	p := selector.ByIDs("users.id", []any{3, 1, 2})
	assert.Equal(t, "users.id IN (?, ?, ?)", p.Frag)
	assert.Equal(t, []any{3, 1, 2}, p.Args)
}

func TestResolvePrecedence(t *testing.T) {
	now := time.Now()
	opts := selector.Options{
		IDs:         []any{1},
		UpdateTable: &selector.UpdateTableOptions{Table: "t", Updated: "u", Date: now},
	}
	p, err := selector.Resolve("users.id", opts, now)
	require.NoError(t, err)
	assert.Contains(t, p.Frag, "IN (")
}

func TestResolveNoOptionsSelectsAll(t *testing.T) {
	p, err := selector.Resolve("users.id", selector.Options{}, time.Now())
	require.NoError(t, err)
	assert.True(t, p.Empty())
}
