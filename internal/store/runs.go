package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/tribunal/internal/model"
)

var (
	// ErrRunLocked is returned when another live run holds the claim
	ErrRunLocked = errors.New("claim is locked by another run")

	// ErrStatusMismatch is returned when the claim is not in an expected status
	ErrStatusMismatch = errors.New("claim status does not match")
)

// AcquireRun atomically takes the run lock on a claim and moves it to status
// `to`, provided its status is one of `from` and no unexpired run holds it.
// The lock lapses at `until` so a crashed process cannot wedge the claim.
func (s *Store) AcquireRun(ctx context.Context, id, runID string, until time.Time, to model.ClaimStatus, from ...model.ClaimStatus) error {
	if len(from) == 0 {
		return fmt.Errorf("acquire run: no expected status")
	}

	now := time.Now().UTC()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")
	args := []any{string(to), runID, until.UnixNano(), now.UnixNano(), id, now.UnixNano()}
	for _, st := range from {
		args = append(args, string(st))
	}

	res, err := s.db.ExecContext(ctx, `UPDATE claims
		SET status = ?, active_run = ?, run_expires = ?, updated_at = ?
		WHERE id = ?
		  AND (active_run = '' OR run_expires < ?)
		  AND status IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("acquire run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("acquire run: %w", err)
	}
	if n == 1 {
		return nil
	}

	var (
		status  string
		holder  string
		expires int64
	)
	err = s.db.QueryRowContext(ctx, `SELECT status, active_run, run_expires FROM claims WHERE id = ?`, id).
		Scan(&status, &holder, &expires)
	if err != nil {
		if _, getErr := s.GetClaim(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("acquire run: %w", err)
	}
	if holder != "" && expires >= now.UnixNano() {
		return fmt.Errorf("%w: %s held by %s", ErrRunLocked, id, holder)
	}
	return fmt.Errorf("%w: %s is %s", ErrStatusMismatch, id, status)
}

// ReleaseRun drops the run lock if runID still holds it
func (s *Store) ReleaseRun(ctx context.Context, id, runID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE claims SET active_run = '', run_expires = 0 WHERE id = ? AND active_run = ?`,
		id, runID,
	)
	if err != nil {
		return fmt.Errorf("release run: %w", err)
	}
	return nil
}

// RunHolder returns the holder of a claim's unexpired run lock, if any
func (s *Store) RunHolder(ctx context.Context, id string) (string, bool, error) {
	var (
		holder  string
		expires int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT active_run, run_expires FROM claims WHERE id = ?`, id).Scan(&holder, &expires)
	if err != nil {
		if _, getErr := s.GetClaim(ctx, id); getErr != nil {
			return "", false, getErr
		}
		return "", false, fmt.Errorf("run holder: %w", err)
	}
	if holder == "" || expires < time.Now().UTC().UnixNano() {
		return "", false, nil
	}
	return holder, true, nil
}
