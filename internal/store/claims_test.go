package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/tribunal/internal/model"
)

func TestCreateClaim_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	c := createTestClaim(t, s)
	require.NotEmpty(t, c.ID)

	got, err := s.GetClaim(ctx, c.ID)
	require.NoError(t, err)

	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, model.StatusDebateInProgress, got.Status)
	assert.Equal(t, c.InitialAnalysis, got.InitialAnalysis)
	assert.Equal(t, "0xclaimant", got.ClaimantAddress)
	assert.Equal(t, 50.0, got.BondAmount)
	assert.Equal(t, c.Evidence, got.Evidence)
	assert.Nil(t, got.VoiceAnalysis)
	assert.Nil(t, got.PayoutPercent)
	assert.Nil(t, got.Settlement)
	assert.True(t, c.CreatedAt.Equal(got.CreatedAt))
}

func TestCreateClaim_DefaultsStatus(t *testing.T) {
	s := createTestStore(t)
	c := &model.Claim{}
	require.NoError(t, s.CreateClaim(context.Background(), c))
	assert.Equal(t, model.StatusPendingAnalysis, c.Status)

	bad := &model.Claim{Status: "LIMBO"}
	assert.Error(t, s.CreateClaim(context.Background(), bad))
}

func TestGetClaim_NotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.GetClaim(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrClaimNotFound)
}

func TestPatchClaim(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s)

	status := model.StatusApproved
	payout := 80
	verdict := "DECISION: APPROVED | PAYOUT: 80% | REASONING: consistent"
	voiceRef := "testimony.webm"
	err := s.PatchClaim(ctx, c.ID, model.ClaimPatch{
		Status:           &status,
		PayoutPercent:    &payout,
		Verdict:          &verdict,
		VoiceEvidenceRef: &voiceRef,
		VoiceAnalysis:    &model.VoiceAnalysis{Transcript: "I hit a pole", ConsistencyScore: 85, IsReal: true},
		Settlement:       &model.Settlement{Chain: "LEDGER_B", Amount: 800, ProofID: "0xtx"},
	})
	require.NoError(t, err)

	got, err := s.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	require.NotNil(t, got.PayoutPercent)
	assert.Equal(t, 80, *got.PayoutPercent)
	assert.Equal(t, verdict, got.Verdict)
	assert.Equal(t, voiceRef, got.VoiceEvidenceRef)
	require.NotNil(t, got.VoiceAnalysis)
	assert.Equal(t, 85, got.VoiceAnalysis.ConsistencyScore)
	require.NotNil(t, got.Settlement)
	assert.Equal(t, 800.0, got.Settlement.Amount)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	// untouched fields survive
	assert.Equal(t, c.InitialAnalysis, got.InitialAnalysis)
	assert.Equal(t, 1000.0, got.CoverageAmount)
}

func TestPatchClaim_EmptyAndMissing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	assert.NoError(t, s.PatchClaim(ctx, "missing", model.ClaimPatch{}))

	status := model.StatusRejected
	err := s.PatchClaim(ctx, "missing", model.ClaimPatch{Status: &status})
	assert.ErrorIs(t, err, ErrClaimNotFound)

	c := createTestClaim(t, s)
	bogus := model.ClaimStatus("LIMBO")
	assert.Error(t, s.PatchClaim(ctx, c.ID, model.ClaimPatch{Status: &bogus}))
}

func TestCompareAndSetStatus(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s) // DEBATE_IN_PROGRESS

	ok, err := s.CompareAndSetStatus(ctx, c.ID, model.StatusDebateInProgress, model.StatusPendingAnalysis)
	require.NoError(t, err)
	assert.False(t, ok, "swap must fail when current status is not expected")

	ok, err = s.CompareAndSetStatus(ctx, c.ID, model.StatusTimedOut, model.StatusPendingAnalysis, model.StatusDebateInProgress)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetClaim(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusTimedOut, got.Status)

	_, err = s.CompareAndSetStatus(ctx, "missing", model.StatusApproved, model.StatusDebateInProgress)
	assert.ErrorIs(t, err, ErrClaimNotFound)

	_, err = s.CompareAndSetStatus(ctx, c.ID, model.StatusApproved)
	assert.Error(t, err)
}

func TestListClaims_Filter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createTestClaim(t, s)
	b := createTestClaim(t, s)
	status := model.StatusApproved
	require.NoError(t, s.PatchClaim(ctx, b.ID, model.ClaimPatch{Status: &status}))

	all, err := s.ListClaims(ctx, ClaimFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID, "newest first")

	approved, err := s.ListClaims(ctx, ClaimFilter{Status: model.StatusApproved})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, b.ID, approved[0].ID)

	limited, err := s.ListClaims(ctx, ClaimFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestClaims_NeverDeleted(t *testing.T) {
	s := createTestStore(t)
	c := createTestClaim(t, s)

	_, err := s.db.Exec("DELETE FROM claims WHERE id = ?", c.ID)
	assert.Error(t, err)
}
