package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/tribunal/internal/model"
)

func TestAcquireRun_Exclusive(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s)
	until := time.Now().Add(time.Minute)

	err := s.AcquireRun(ctx, c.ID, "run-a", until, model.StatusDebateInProgress, model.StatusDebateInProgress)
	require.NoError(t, err)

	err = s.AcquireRun(ctx, c.ID, "run-b", until, model.StatusDebateInProgress, model.StatusDebateInProgress)
	assert.ErrorIs(t, err, ErrRunLocked)

	holder, ok, err := s.RunHolder(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "run-a", holder)

	// a stale holder cannot release someone else's lock
	require.NoError(t, s.ReleaseRun(ctx, c.ID, "run-b"))
	_, ok, _ = s.RunHolder(ctx, c.ID)
	assert.True(t, ok)

	require.NoError(t, s.ReleaseRun(ctx, c.ID, "run-a"))
	_, ok, _ = s.RunHolder(ctx, c.ID)
	assert.False(t, ok)

	err = s.AcquireRun(ctx, c.ID, "run-b", until, model.StatusDebateInProgress, model.StatusDebateInProgress)
	assert.NoError(t, err)
}

func TestAcquireRun_ExpiredLockIsReclaimable(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s)

	require.NoError(t, s.AcquireRun(ctx, c.ID, "crashed", time.Now().Add(-time.Second), model.StatusDebateInProgress, model.StatusDebateInProgress))

	err := s.AcquireRun(ctx, c.ID, "fresh", time.Now().Add(time.Minute), model.StatusDebateInProgress, model.StatusDebateInProgress)
	assert.NoError(t, err)
}

func TestAcquireRun_StatusMismatch(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s) // DEBATE_IN_PROGRESS

	err := s.AcquireRun(ctx, c.ID, "run", time.Now().Add(time.Minute), model.StatusDebateInProgress, model.StatusTimedOut)
	assert.ErrorIs(t, err, ErrStatusMismatch)

	err = s.AcquireRun(ctx, "missing", "run", time.Now().Add(time.Minute), model.StatusDebateInProgress, model.StatusDebateInProgress)
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestAcquireRun_MovesStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := &model.Claim{Status: model.StatusTimedOut}
	require.NoError(t, s.CreateClaim(ctx, c))

	require.NoError(t, s.AcquireRun(ctx, c.ID, "retry", time.Now().Add(time.Minute), model.StatusDebateInProgress, model.StatusTimedOut, model.StatusPendingAnalysis))

	got, err := s.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDebateInProgress, got.Status)
}
