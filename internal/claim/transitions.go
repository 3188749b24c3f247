// Package claim owns the claim lifecycle. Guards and transition checks are
// pure functions; Machine applies them against the store.
package claim

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/tribunal/internal/model"
)

// ErrIllegalTransition is returned by ValidateTransition for edges outside the lifecycle
var ErrIllegalTransition = errors.New("illegal status transition")

var allowedTransitions = map[model.ClaimStatus]map[model.ClaimStatus]struct{}{
	model.StatusPendingAnalysis: {
		model.StatusDebateInProgress: {},
	},
	model.StatusDebateInProgress: {
		model.StatusInterrogationPending: {},
		model.StatusApproved:             {},
		model.StatusRejected:             {},
		model.StatusTimedOut:             {},
	},
	model.StatusInterrogationPending: {
		model.StatusDebateInProgress:      {},
		model.StatusRejectedFraudDetected: {},
	},
	model.StatusTimedOut: {
		model.StatusDebateInProgress: {},
	},
	model.StatusApproved: {
		model.StatusSettled: {},
	},
	model.StatusRejected:              {},
	model.StatusRejectedFraudDetected: {},
	model.StatusSettled:               {},
}

// ValidateStatus checks that status is part of the lifecycle
func ValidateStatus(status model.ClaimStatus) error {
	if _, ok := allowedTransitions[status]; !ok {
		return fmt.Errorf("invalid claim status: %q", status)
	}
	return nil
}

// ValidateTransition checks that from -> to is a lifecycle edge
func ValidateTransition(from, to model.ClaimStatus) error {
	if err := ValidateStatus(from); err != nil {
		return err
	}
	if err := ValidateStatus(to); err != nil {
		return err
	}
	if _, ok := allowedTransitions[from][to]; !ok {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}

// IsTerminal reports whether no transition leaves status
func IsTerminal(status model.ClaimStatus) bool {
	next, ok := allowedTransitions[status]
	return ok && len(next) == 0
}

// NextStatuses lists the statuses reachable from status in one step
func NextStatuses(status model.ClaimStatus) []model.ClaimStatus {
	var out []model.ClaimStatus
	for _, candidate := range model.AllStatuses() {
		if _, ok := allowedTransitions[status][candidate]; ok {
			out = append(out, candidate)
		}
	}
	return out
}

// ApplyTransition returns c moved to status `to`, and the patch that
// persists the move. It does not check legality.
func ApplyTransition(c model.Claim, to model.ClaimStatus, now time.Time) (model.Claim, model.ClaimPatch) {
	c.Status = to
	c.UpdatedAt = now
	status := to
	return c, model.ClaimPatch{Status: &status}
}
