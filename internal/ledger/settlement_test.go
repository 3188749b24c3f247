package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func settlementServer(t *testing.T, handle func(req transferRequest) transferResponse) (*httptest.Server, *[]transferRequest) {
	t.Helper()
	var seen []transferRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/transactions" {
			t.Errorf("Expected path /v1/transactions, got %s", r.URL.Path)
		}
		var req transferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		seen = append(seen, req)
		_ = json.NewEncoder(w).Encode(handle(req))
	}))
	return server, &seen
}

func TestSettlement_Transfers(t *testing.T) {
	server, seen := settlementServer(t, func(req transferRequest) transferResponse {
		return transferResponse{TxHash: "0x" + req.Kind, Success: true}
	})
	defer server.Close()

	s, err := NewSettlement(Config{Mode: ModeSettlement, BaseURL: server.URL, Treasury: "treasury"})
	if err != nil {
		t.Fatalf("NewSettlement failed: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		call     func() (string, error)
		wantKind string
		wantFrom string
		wantTo   string
	}{
		{"memo", func() (string, error) { return s.LogEvidence(ctx, "payload") }, "MEMO", "treasury", "treasury"},
		{"payout", func() (string, error) { return s.PayoutClaim(ctx, 800, "alice") }, "PAYOUT", "treasury", "alice"},
		{"stake", func() (string, error) { return s.Stake(ctx, "alice", 50) }, "STAKE", "alice", "treasury"},
		{"slash", func() (string, error) { return s.Slash(ctx, "alice", 50) }, "SLASH", "treasury", "treasury"},
		{"return", func() (string, error) { return s.ReturnStake(ctx, "alice", 50) }, "RETURN_STAKE", "treasury", "alice"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := tt.call()
			if err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if id != "0x"+tt.wantKind {
				t.Errorf("Unexpected tx hash: %s", id)
			}
			req := (*seen)[i]
			if req.Kind != tt.wantKind || req.From != tt.wantFrom || req.To != tt.wantTo {
				t.Errorf("Unexpected transfer: %+v", req)
			}
		})
	}
}

func TestSettlement_Rejected(t *testing.T) {
	server, _ := settlementServer(t, func(req transferRequest) transferResponse {
		return transferResponse{Success: false, Reason: "insufficient bond"}
	})
	defer server.Close()

	s, _ := NewSettlement(Config{Mode: ModeSettlement, BaseURL: server.URL, Treasury: "treasury"})
	if _, err := s.Slash(context.Background(), "alice", 50); err == nil {
		t.Fatal("Expected error for rejected transfer")
	}
}

func TestSettlement_PayoutValidation(t *testing.T) {
	s, err := NewSettlement(Config{Mode: ModeSettlement, BaseURL: "http://127.0.0.1:1", Treasury: "treasury"})
	if err != nil {
		t.Fatalf("NewSettlement failed: %v", err)
	}
	if _, err := s.PayoutClaim(context.Background(), 0, "alice"); err == nil {
		t.Error("Expected error for zero amount")
	}
	if _, err := s.PayoutClaim(context.Background(), 10, ""); err == nil {
		t.Error("Expected error without recipient")
	}
}

func TestNewSettlement_RequiresTreasury(t *testing.T) {
	if _, err := NewSettlement(Config{Mode: ModeSettlement, BaseURL: "http://x"}); err == nil {
		t.Fatal("Expected error without treasury")
	}
}
