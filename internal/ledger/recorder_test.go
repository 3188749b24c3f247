package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/tribunal/internal/cache"
)

// fakeAdapter implements Adapter
type fakeAdapter struct {
	fail  bool
	calls map[string]int
}

func (f *fakeAdapter) count(op string) (string, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
	if f.fail {
		return "", errors.New("ledger unreachable")
	}
	return op + "-proof", nil
}

func (f *fakeAdapter) Name() string { return "FAKE" }
func (f *fakeAdapter) LogEvidence(ctx context.Context, payload string) (string, error) {
	return f.count("log")
}
func (f *fakeAdapter) PayoutClaim(ctx context.Context, amount float64, recipient string) (string, error) {
	return f.count("payout")
}
func (f *fakeAdapter) Stake(ctx context.Context, user string, amount float64) (string, error) {
	return f.count("stake")
}
func (f *fakeAdapter) Slash(ctx context.Context, user string, amount float64) (string, error) {
	return f.count("slash")
}
func (f *fakeAdapter) ReturnStake(ctx context.Context, user string, amount float64) (string, error) {
	return f.count("return")
}

func TestRecorder_Disabled(t *testing.T) {
	r := NewRecorder(nil, nil, 0, nil)
	if r.Enabled() || r.Backend() != "" {
		t.Error("expected disabled recorder")
	}
	if p := r.Mirror(context.Background(), "x"); p.OK || p.ID != "" {
		t.Errorf("expected empty proof, got %+v", p)
	}
	if p := r.Slash(context.Background(), "alice", 1); p.OK {
		t.Errorf("expected empty proof, got %+v", p)
	}
	if _, err := r.Payout(context.Background(), 1, "alice"); !errors.Is(err, ErrDisabled) {
		t.Errorf("expected ErrDisabled, got %v", err)
	}
}

func TestRecorder_MirrorFailureIsAbsorbed(t *testing.T) {
	adapter := &fakeAdapter{fail: true}
	r := NewRecorder(adapter, nil, 0, nil)

	p := r.Mirror(context.Background(), "turn")
	if p.OK || p.ID != "" {
		t.Errorf("expected failed proof, got %+v", p)
	}
	if p := r.Slash(context.Background(), "alice", 10); p.OK {
		t.Errorf("expected failed slash proof, got %+v", p)
	}
	if _, err := r.Payout(context.Background(), 10, "alice"); err == nil {
		t.Error("expected payout failure to be returned")
	}
}

func TestRecorder_MirrorReusesCachedProof(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRecorder(adapter, cache.NewProofCache("", time.Hour), time.Hour, nil)

	first := r.Mirror(context.Background(), "same payload")
	second := r.Mirror(context.Background(), "same payload")
	third := r.Mirror(context.Background(), "other payload")

	if !first.OK || first.ID != "log-proof" {
		t.Errorf("unexpected first proof: %+v", first)
	}
	if second != first {
		t.Errorf("expected cached proof, got %+v", second)
	}
	if !third.OK {
		t.Errorf("unexpected third proof: %+v", third)
	}
	if adapter.calls["log"] != 2 {
		t.Errorf("expected 2 ledger calls, got %d", adapter.calls["log"])
	}
}

func TestRecorder_FailureIsNotCached(t *testing.T) {
	adapter := &fakeAdapter{fail: true}
	r := NewRecorder(adapter, cache.NewProofCache("", time.Hour), time.Hour, nil)

	_ = r.Mirror(context.Background(), "payload")
	adapter.fail = false
	if p := r.Mirror(context.Background(), "payload"); !p.OK {
		t.Errorf("expected retry after failure to reach the ledger, got %+v", p)
	}
}

func TestRecorder_BondOperations(t *testing.T) {
	adapter := &fakeAdapter{}
	r := NewRecorder(adapter, nil, 0, nil)
	ctx := context.Background()

	if p := r.Stake(ctx, "alice", 5); p.ID != "stake-proof" {
		t.Errorf("unexpected stake proof: %+v", p)
	}
	if p := r.Slash(ctx, "alice", 5); p.ID != "slash-proof" {
		t.Errorf("unexpected slash proof: %+v", p)
	}
	if p := r.ReturnStake(ctx, "alice", 5); p.ID != "return-proof" {
		t.Errorf("unexpected return proof: %+v", p)
	}
	p, err := r.Payout(ctx, 5, "alice")
	if err != nil || p.ID != "payout-proof" {
		t.Errorf("unexpected payout: %+v, %v", p, err)
	}
}
