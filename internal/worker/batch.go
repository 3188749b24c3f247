package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/tribunal/internal/model"
)

// Adjudicator runs one orchestration strategy to completion for a claim
// and reports the status the claim ended in
type Adjudicator interface {
	Adjudicate(ctx context.Context, claimID string) (model.ClaimStatus, error)
}

// ClaimJob adjudicates a single claim
type ClaimJob struct {
	Index       int
	ClaimID     string
	Adjudicator Adjudicator
}

// Execute executes the adjudication job
func (j *ClaimJob) Execute(ctx context.Context) Result {
	start := time.Now()
	status, err := j.Adjudicator.Adjudicate(ctx, j.ClaimID)
	return &ClaimResult{
		Index:    j.Index,
		ClaimID:  j.ClaimID,
		Status:   status,
		Duration: time.Since(start),
		Error:    err,
	}
}

// ClaimResult represents the result of an adjudication job
type ClaimResult struct {
	Index    int
	ClaimID  string
	Status   model.ClaimStatus
	Duration time.Duration
	Error    error
}

// GetError returns the error from the adjudication
func (r *ClaimResult) GetError() error {
	return r.Error
}

// BatchProcessor adjudicates many independent claims concurrently
type BatchProcessor struct {
	adjudicator Adjudicator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(adjudicator Adjudicator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		adjudicator: adjudicator,
		concurrency: concurrency,
	}
}

// ProcessClaims adjudicates the claims and returns one result per claim,
// in input order. Claims left unadjudicated because ctx ended carry the
// context error.
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claimIDs []string) []*ClaimResult {
	claimResults := make([]*ClaimResult, len(claimIDs))
	if len(claimIDs) == 0 {
		return claimResults
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, id := range claimIDs {
		if !pool.Submit(&ClaimJob{Index: i, ClaimID: id, Adjudicator: b.adjudicator}) {
			break
		}
	}

	for _, result := range pool.Wait() {
		r := result.(*ClaimResult)
		claimResults[r.Index] = r
	}

	for i, r := range claimResults {
		if r != nil {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		claimResults[i] = &ClaimResult{
			Index:   i,
			ClaimID: claimIDs[i],
			Error:   fmt.Errorf("not adjudicated: %w", err),
		}
	}
	return claimResults
}

// ProcessFile reads claim ids from a file and adjudicates them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ClaimResult, error) {
	ids, err := ReadClaimIDsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claim ids: %w", err)
	}

	return b.ProcessClaims(ctx, ids), nil
}

// ReadClaimIDsFromFile reads claim ids from a file (one per line)
func ReadClaimIDsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var ids []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// A claim must only be adjudicated once per batch
		if !seen[line] {
			seen[line] = true
			ids = append(ids, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return ids, nil
}

// Summary counts batch results by final status
func Summary(results []*ClaimResult) (byStatus map[model.ClaimStatus]int, failed int) {
	byStatus = make(map[model.ClaimStatus]int)
	for _, r := range results {
		if r.Error != nil {
			failed++
			continue
		}
		byStatus[r.Status]++
	}
	return byStatus, failed
}
