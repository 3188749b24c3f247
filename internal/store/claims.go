package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/tribunal/internal/model"
)

// ClaimFilter narrows ListClaims
type ClaimFilter struct {
	Status model.ClaimStatus // empty matches every status
	Limit  int               // 0 means no limit
}

const claimColumns = `id, status, initial_analysis, claimant_address, bond_amount, stake_proof_id,
	coverage_amount, evidence, voice_analysis, voice_evidence_ref, payout_percent, verdict,
	settlement, created_at, updated_at`

// CreateClaim inserts a new claim. An empty ID is filled with a UUIDv7 and an
// empty status defaults to PENDING_ANALYSIS.
func (s *Store) CreateClaim(ctx context.Context, c *model.Claim) error {
	if c.ID == "" {
		c.ID = uuid.Must(uuid.NewV7()).String()
	}
	if c.Status == "" {
		c.Status = model.StatusPendingAnalysis
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("create claim: unknown status %q", c.Status)
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = c.CreatedAt

	analysis, err := json.Marshal(c.InitialAnalysis)
	if err != nil {
		return fmt.Errorf("create claim: marshal analysis: %w", err)
	}
	evidence, err := json.Marshal(c.Evidence)
	if err != nil {
		return fmt.Errorf("create claim: marshal evidence: %w", err)
	}
	voice, err := marshalNullable(c.VoiceAnalysis)
	if err != nil {
		return fmt.Errorf("create claim: %w", err)
	}
	settlement, err := marshalNullable(c.Settlement)
	if err != nil {
		return fmt.Errorf("create claim: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO claims (`+claimColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		string(c.Status),
		string(analysis),
		c.ClaimantAddress,
		c.BondAmount,
		c.StakeProofID,
		c.CoverageAmount,
		string(evidence),
		voice,
		c.VoiceEvidenceRef,
		nullableInt(c.PayoutPercent),
		c.Verdict,
		settlement,
		c.CreatedAt.UnixNano(),
		c.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("create claim: %w", err)
	}
	return nil
}

// GetClaim returns the claim with the given id
func (s *Store) GetClaim(ctx context.Context, id string) (*model.Claim, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrClaimNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// ListClaims returns claims newest first
func (s *Store) ListClaims(ctx context.Context, filter ClaimFilter) ([]model.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var claims []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("list claims: %w", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	return claims, nil
}

// PatchClaim applies the non-nil fields of patch and bumps updated_at
func (s *Store) PatchClaim(ctx context.Context, id string, patch model.ClaimPatch) error {
	if patch.IsEmpty() {
		return nil
	}

	var sets []string
	var args []any
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return fmt.Errorf("patch claim: unknown status %q", *patch.Status)
		}
		set("status", string(*patch.Status))
	}
	if patch.VoiceAnalysis != nil {
		voice, err := marshalNullable(patch.VoiceAnalysis)
		if err != nil {
			return fmt.Errorf("patch claim: %w", err)
		}
		set("voice_analysis", voice)
	}
	if patch.VoiceEvidenceRef != nil {
		set("voice_evidence_ref", *patch.VoiceEvidenceRef)
	}
	if patch.PayoutPercent != nil {
		set("payout_percent", *patch.PayoutPercent)
	}
	if patch.Verdict != nil {
		set("verdict", *patch.Verdict)
	}
	if patch.StakeProofID != nil {
		set("stake_proof_id", *patch.StakeProofID)
	}
	if patch.Settlement != nil {
		settlement, err := marshalNullable(patch.Settlement)
		if err != nil {
			return fmt.Errorf("patch claim: %w", err)
		}
		set("settlement", settlement)
	}
	set("updated_at", time.Now().UTC().UnixNano())
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, `UPDATE claims SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("patch claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("patch claim: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrClaimNotFound, id)
	}
	return nil
}

// CompareAndSetStatus moves the claim to status `to` only if its current
// status is one of `from`. It reports whether the swap happened.
func (s *Store) CompareAndSetStatus(ctx context.Context, id string, to model.ClaimStatus, from ...model.ClaimStatus) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("compare and set status: no expected status")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	args := []any{string(to), time.Now().UTC().UnixNano(), id}
	for _, st := range from {
		args = append(args, string(st))
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE claims SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("compare and set status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("compare and set status: %w", err)
	}
	if n == 1 {
		return true, nil
	}

	if _, err := s.GetClaim(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*model.Claim, error) {
	var (
		c          model.Claim
		status     string
		analysis   string
		evidence   string
		voice      sql.NullString
		payout     sql.NullInt64
		settlement sql.NullString
		createdAt  int64
		updatedAt  int64
	)

	err := row.Scan(
		&c.ID,
		&status,
		&analysis,
		&c.ClaimantAddress,
		&c.BondAmount,
		&c.StakeProofID,
		&c.CoverageAmount,
		&evidence,
		&voice,
		&c.VoiceEvidenceRef,
		&payout,
		&c.Verdict,
		&settlement,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.Status = model.ClaimStatus(status)
	if err := json.Unmarshal([]byte(analysis), &c.InitialAnalysis); err != nil {
		return nil, fmt.Errorf("decode initial analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(evidence), &c.Evidence); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}
	if voice.Valid {
		c.VoiceAnalysis = &model.VoiceAnalysis{}
		if err := json.Unmarshal([]byte(voice.String), c.VoiceAnalysis); err != nil {
			return nil, fmt.Errorf("decode voice analysis: %w", err)
		}
	}
	if payout.Valid {
		p := int(payout.Int64)
		c.PayoutPercent = &p
	}
	if settlement.Valid {
		c.Settlement = &model.Settlement{}
		if err := json.Unmarshal([]byte(settlement.String), c.Settlement); err != nil {
			return nil, fmt.Errorf("decode settlement: %w", err)
		}
	}
	c.CreatedAt = time.Unix(0, createdAt).UTC()
	c.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &c, nil
}

// marshalNullable encodes v as JSON, or SQL NULL when v is a nil pointer
func marshalNullable[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal %T: %w", v, err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
