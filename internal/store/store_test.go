package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/tribunal/internal/model"
)

// createTestStore opens a fresh database in a temp dir
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// createTestClaim inserts a claim with a SEVERE/90 initial analysis
func createTestClaim(t *testing.T, s *Store) *model.Claim {
	t.Helper()
	c := &model.Claim{
		InitialAnalysis: model.InitialAnalysis{
			DetectedObject:  "sedan",
			DamageLevel:     model.DamageSevere,
			ConfidenceScore: 90,
			Description:     "front bumper crushed",
		},
		Status:          model.StatusDebateInProgress,
		ClaimantAddress: "0xclaimant",
		BondAmount:      50,
		CoverageAmount:  1000,
		Evidence:        model.Evidence{Ref: "evidence/car.jpg", Kind: model.EvidenceKindImage},
	}
	require.NoError(t, s.CreateClaim(context.Background(), c))
	return c
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "Open() iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	for _, table := range []string{"claims", "turns"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q not found", table)
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	createTestClaim(t, s)
	claims, err := s.ListClaims(context.Background(), ClaimFilter{})
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}
