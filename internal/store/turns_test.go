package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/tribunal/internal/model"
)

func insert(t *testing.T, s *Store, turn model.Turn) model.Turn {
	t.Helper()
	require.NoError(t, s.InsertTurn(context.Background(), &turn))
	return turn
}

func TestInsertTurn_AssignsIdentity(t *testing.T) {
	s := createTestStore(t)
	c := createTestClaim(t, s)

	turn := insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleLawyer, AgentName: "Advocate", Round: 1, Content: "pay in full"})

	assert.NotEmpty(t, turn.ID)
	assert.NotZero(t, turn.Seq)
	assert.False(t, turn.CreatedAt.IsZero())
}

func TestInsertTurn_Rejections(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s)
	other := createTestClaim(t, s)

	root := insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleSystem, Round: 2})
	foreign := insert(t, s, model.Turn{ClaimID: other.ID, AgentRole: model.RoleSystem, Round: 0})

	tests := []struct {
		name    string
		turn    model.Turn
		wantErr error
	}{
		{"unknown claim", model.Turn{ClaimID: "missing", AgentRole: model.RoleSystem}, ErrClaimNotFound},
		{"unknown role", model.Turn{ClaimID: c.ID, AgentRole: "JURY"}, ErrTurnRejected},
		{"branch without parent", model.Turn{ClaimID: c.ID, AgentRole: model.RoleSystem, Round: 1, BranchType: model.BranchLegal}, ErrTurnRejected},
		{"missing parent", model.Turn{ClaimID: c.ID, AgentRole: model.RoleLawyer, Round: 3, ParentID: "nope"}, ErrTurnRejected},
		{"parent from other claim", model.Turn{ClaimID: c.ID, AgentRole: model.RoleLawyer, Round: 3, ParentID: foreign.ID}, ErrTurnRejected},
		{"round before parent", model.Turn{ClaimID: c.ID, AgentRole: model.RoleLawyer, Round: 1, ParentID: root.ID}, ErrTurnRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := tt.turn
			err := s.InsertTurn(ctx, &turn)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	turns, err := s.GetTurns(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, turns, 1, "rejected turns must not be written")
}

func TestGetTurns_OrderingAndIdempotence(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	c := createTestClaim(t, s)

	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleVerdict, Round: 3, CreatedAt: at})
	insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleLawyer, Round: 1, CreatedAt: at.Add(time.Second)})
	insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleSystem, Round: 2.5, CreatedAt: at})
	first := insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleAuditor, Round: 2, CreatedAt: at, Content: "first"})
	second := insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleAuditor, Round: 2, CreatedAt: at, Content: "second"})

	turns, err := s.GetTurns(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, turns, 5)

	rounds := make([]float64, len(turns))
	for i, turn := range turns {
		rounds[i] = turn.Round
	}
	assert.Equal(t, []float64{1, 2, 2, 2.5, 3}, rounds)
	assert.Equal(t, first.ID, turns[1].ID, "equal round and time fall back to insertion order")
	assert.Equal(t, second.ID, turns[2].ID)

	again, err := s.GetTurns(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, turns, again)
}

func TestGetTurns_Empty(t *testing.T) {
	s := createTestStore(t)
	turns, err := s.GetTurns(context.Background(), "nothing")
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestTurns_AppendOnly(t *testing.T) {
	s := createTestStore(t)
	c := createTestClaim(t, s)
	turn := insert(t, s, model.Turn{ClaimID: c.ID, AgentRole: model.RoleLawyer, Round: 1, Content: "original"})

	_, err := s.db.Exec("UPDATE turns SET content = 'edited' WHERE id = ?", turn.ID)
	assert.Error(t, err)

	_, err = s.db.Exec("DELETE FROM turns WHERE id = ?", turn.ID)
	assert.Error(t, err)

	turns, err := s.GetTurns(context.Background(), c.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "original", turns[0].Content)
}
