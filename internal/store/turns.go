package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/tribunal/internal/model"
)

const turnColumns = `seq, id, claim_id, parent_id, agent_role, agent_name, content, round,
	branch_type, is_on_chain, proof_id, created_at`

// InsertTurn appends a turn to the message log. The claim and parent checks
// and the insert run in one transaction. ID, CreatedAt and Seq are filled in.
func (s *Store) InsertTurn(ctx context.Context, t *model.Turn) error {
	if t.ID == "" {
		t.ID = uuid.Must(uuid.NewV7()).String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM claims WHERE id = ?`, t.ClaimID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("insert turn: %w: %s", ErrClaimNotFound, t.ClaimID)
		}
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}

		var parent *model.Turn
		if t.ParentID != "" {
			row := tx.QueryRowContext(ctx, `SELECT `+turnColumns+` FROM turns WHERE id = ?`, t.ParentID)
			p, err := scanTurn(row)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("insert turn: load parent: %w", err)
			}
			parent = p
		}

		if err := model.ValidateTurn(*t, parent); err != nil {
			return fmt.Errorf("insert turn: %w: %w", ErrTurnRejected, err)
		}

		res, err := tx.ExecContext(ctx, `INSERT INTO turns
			(id, claim_id, parent_id, agent_role, agent_name, content, round, branch_type, is_on_chain, proof_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID,
			t.ClaimID,
			nullableString(t.ParentID),
			string(t.AgentRole),
			t.AgentName,
			t.Content,
			t.Round,
			string(t.BranchType),
			t.IsOnChain,
			t.ProofID,
			t.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}

		seq, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert turn: %w", err)
		}
		t.Seq = seq
		return nil
	})
}

// GetTurns returns a claim's turns ordered by round, then creation
func (s *Store) GetTurns(ctx context.Context, claimID string) ([]model.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+turnColumns+` FROM turns WHERE claim_id = ? ORDER BY round ASC, created_at ASC, seq ASC`,
		claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	turns := []model.Turn{}
	for rows.Next() {
		t, err := scanTurn(rows)
		if err != nil {
			return nil, fmt.Errorf("get turns: %w", err)
		}
		turns = append(turns, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	return turns, nil
}

func scanTurn(row rowScanner) (*model.Turn, error) {
	var (
		t          model.Turn
		parentID   sql.NullString
		role       string
		branchType string
		createdAt  int64
	)

	err := row.Scan(
		&t.Seq,
		&t.ID,
		&t.ClaimID,
		&parentID,
		&role,
		&t.AgentName,
		&t.Content,
		&t.Round,
		&branchType,
		&t.IsOnChain,
		&t.ProofID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.ParentID = parentID.String
	t.AgentRole = model.AgentRole(role)
	t.BranchType = model.BranchType(branchType)
	t.CreatedAt = time.Unix(0, createdAt).UTC()
	return &t, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
