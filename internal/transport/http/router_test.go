package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"updown-admin/internal/config"
	"updown-admin/internal/store"
	"updown-admin/internal/testutil"
)

func openRouter(t *testing.T) (*httptest.Server, *store.Store, func()) {
	t.Helper()
	st, cleanup := testutil.OpenTestStore(t)
	cfg := config.ServerConfig{
		AdminAPIKey:      "test-key",
		PayoutMultiplier: 2,
		SessionMinutes:   5,
	}
	srv := httptest.NewServer(NewRouter(st, cfg))
	return srv, st, func() {
		srv.Close()
		cleanup()
	}
}

func doJSON(t *testing.T, method, url string, body any, auth bool) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if auth {
		req.Header.Set("X-Admin-Key", "test-key")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp, out
}

func TestAdminRoutesRequireAuth(t *testing.T) {
	srv, _, cleanup := openRouter(t)
	defer cleanup()

	resp, out := doJSON(t, http.MethodGet, srv.URL+"/api/admin/users", nil, false)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", resp.StatusCode)
	}
	if out["error"] != "unauthorized" {
		t.Fatalf("unexpected body: %+v", out)
	}

	// healthz is open.
	hresp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	hresp.Body.Close()
	if hresp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status %d", hresp.StatusCode)
	}
}

func TestCreateUserValidation(t *testing.T) {
	srv, _, cleanup := openRouter(t)
	defer cleanup()

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/admin/users",
		map[string]any{"username": "ab"}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for short username, got %d", resp.StatusCode)
	}
	if out["error"] != "invalid_request" {
		t.Fatalf("unexpected body: %+v", out)
	}

	// Unknown fields are rejected outright.
	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/users",
		map[string]any{"username": "alice", "role": "root"}, true)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 for unknown field, got %d", resp.StatusCode)
	}
	if out["error"] != "invalid_json" {
		t.Fatalf("unexpected body: %+v", out)
	}

	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/api/admin/users",
		map[string]any{"username": "alice", "initial_balance": 1000}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create user: %d", resp.StatusCode)
	}
	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/users",
		map[string]any{"username": "alice"}, true)
	if resp.StatusCode != http.StatusConflict || out["error"] != "username_taken" {
		t.Fatalf("duplicate username: %d %+v", resp.StatusCode, out)
	}
}

// End-to-end operator flow: seed a user by deposit, place a bet, resolve
// the session, then pay the winnings out.
func TestAdminScenario(t *testing.T) {
	srv, _, cleanup := openRouter(t)
	defer cleanup()

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/admin/users",
		map[string]any{"username": "trader1"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create user: %d %+v", resp.StatusCode, out)
	}
	userID := out["data"].(map[string]any)["id"].(string)

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/deposits",
		map[string]any{"user_id": userID, "amount": 150000}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create deposit: %d %+v", resp.StatusCode, out)
	}
	depID := out["data"].(map[string]any)["id"].(string)

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/deposits/"+depID+"/transition",
		map[string]any{"status": "approved"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve deposit: %d %+v", resp.StatusCode, out)
	}

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/sessions",
		map[string]any{"starts_at": time.Now().Format(time.RFC3339)}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create session: %d %+v", resp.StatusCode, out)
	}
	sessionID := out["data"].(map[string]any)["id"].(string)

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/bets",
		map[string]any{"user_id": userID, "session_id": sessionID, "direction": "up", "amount": 20000}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("place bet: %d %+v", resp.StatusCode, out)
	}

	resp, bal := doJSON(t, http.MethodGet, srv.URL+"/api/admin/users/"+userID, nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get user: %d", resp.StatusCode)
	}
	checkBalance(t, bal, 130000, 20000)

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/sessions/"+sessionID+"/resolve",
		map[string]any{"result": "up"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve session: %d %+v", resp.StatusCode, out)
	}
	data := out["data"].(map[string]any)
	if data["settled"].(float64) != 1 || data["failed"].(float64) != 0 {
		t.Fatalf("unexpected resolve result: %+v", data)
	}

	_, bal = doJSON(t, http.MethodGet, srv.URL+"/api/admin/users/"+userID, nil, true)
	checkBalance(t, bal, 170000, 0)

	// Re-resolving is a conflict, not a double settlement.
	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/sessions/"+sessionID+"/resolve",
		map[string]any{"result": "down"}, true)
	if resp.StatusCode != http.StatusConflict || out["error"] != "already_resolved" {
		t.Fatalf("re-resolve: %d %+v", resp.StatusCode, out)
	}

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/withdrawals",
		map[string]any{"user_id": userID, "amount": 170000}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create withdrawal: %d %+v", resp.StatusCode, out)
	}
	wdrID := out["data"].(map[string]any)["id"].(string)

	resp, out = doJSON(t, http.MethodPost, srv.URL+"/api/admin/withdrawals/"+wdrID+"/transition",
		map[string]any{"status": "approved"}, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve withdrawal: %d %+v", resp.StatusCode, out)
	}
	_, bal = doJSON(t, http.MethodGet, srv.URL+"/api/admin/users/"+userID, nil, true)
	checkBalance(t, bal, 0, 0)

	resp, out = doJSON(t, http.MethodGet, srv.URL+"/api/admin/transactions?user_id="+userID, nil, true)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list transactions: %d", resp.StatusCode)
	}
	// deposit, bet_win, withdrawal
	if items := out["items"].([]any); len(items) != 3 {
		t.Fatalf("want 3 records, got %d: %+v", len(items), items)
	}
}

func TestBetOverdraftMapsToInsufficientFunds(t *testing.T) {
	srv, st, cleanup := openRouter(t)
	defer cleanup()

	ctx := context.Background()
	userID, err := st.CreateUser(ctx, "broke", 100)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	starts := time.Now().Truncate(time.Minute)
	sessionID := "S" + starts.UTC().Format("20060102150405")
	if err := st.CreateSession(ctx, sessionID, starts, starts.Add(5*time.Minute), store.SessionActive); err != nil {
		t.Fatalf("create session: %v", err)
	}

	resp, out := doJSON(t, http.MethodPost, srv.URL+"/api/admin/bets",
		map[string]any{"user_id": userID, "session_id": sessionID, "direction": "up", "amount": 5000}, true)
	if resp.StatusCode != http.StatusBadRequest || out["error"] != "insufficient_funds" {
		t.Fatalf("overdraft: %d %+v", resp.StatusCode, out)
	}
}

func checkBalance(t *testing.T, user map[string]any, available, frozen int64) {
	t.Helper()
	b, ok := user["balance"].(map[string]any)
	if !ok {
		t.Fatalf("no balance in %+v", user)
	}
	if got := int64(b["available"].(float64)); got != available {
		t.Fatalf("available = %d, want %d", got, available)
	}
	if got := int64(b["frozen"].(float64)); got != frozen {
		t.Fatalf("frozen = %d, want %d", got, frozen)
	}
}
