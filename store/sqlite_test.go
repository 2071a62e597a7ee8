package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "requests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRequestRoundTrip(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	id, err := s.InsertRequest(ctx, "sess-1", map[string]any{"message": "need a jet"})
	require.NoError(t, err)

	r, err := s.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", r.SessionID)
	assert.Equal(t, "pending", r.Status)
	assert.Equal(t, "need a jet", r.Payload["message"])
	assert.WithinDuration(t, time.Now().UTC(), r.CreatedAt, time.Minute)
}

func TestSQLiteGetRequestNotFound(t *testing.T) {
	s := newSQLite(t)
	_, err := s.GetRequest(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestSQLiteUpdateRequestStatus(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	id, err := s.InsertRequest(ctx, "sess-1", nil)
	require.NoError(t, err)

	require.NoError(t, s.UpdateRequestStatus(ctx, id, "failed", "marketplace unreachable"))

	r, err := s.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "failed", r.Status)
	assert.Equal(t, "marketplace unreachable", r.ErrorMessage)

	err = s.UpdateRequestStatus(ctx, "missing", "failed", "")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestSQLiteTransitionsOrdered(t *testing.T) {
	s := newSQLite(t)
	ctx := context.Background()

	id, err := s.InsertRequest(ctx, "sess-1", nil)
	require.NoError(t, err)

	chain := [][2]string{
		{"CREATED", "ANALYZING"},
		{"ANALYZING", "FETCHING_CLIENT_DATA"},
		{"FETCHING_CLIENT_DATA", "SEARCHING_FLIGHTS"},
	}
	for _, pair := range chain {
		require.NoError(t, s.RecordTransition(ctx, Transition{
			RequestID: id,
			FromState: pair[0],
			ToState:   pair[1],
			AgentID:   "agent-1",
			Timestamp: time.Now().UTC(),
		}))
	}

	rows, err := s.ListTransitions(ctx, id)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, pair := range chain {
		assert.Equal(t, pair[0], rows[i].FromState)
		assert.Equal(t, pair[1], rows[i].ToState)
		assert.Equal(t, id, rows[i].RequestID)
	}
}
