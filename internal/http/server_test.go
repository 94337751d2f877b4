package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cofre/internal/cache"
	"cofre/internal/core"
	"cofre/internal/middleware/auth"
	"cofre/internal/services"
	"cofre/internal/storage"
)

type testAPI struct {
	t   *testing.T
	srv *Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	users := cache.NewLRUCache[core.User](10, time.Minute)
	projector := services.NewBalanceProjector(repo)
	deps := Dependencies{
		Store:        repo,
		Tokens:       tokens,
		Auth:         services.NewAuthService(repo, tokens, users),
		Accounts:     services.NewAccountService(repo, projector),
		Categories:   services.NewCategoryService(repo),
		Transactions: services.NewTransactionService(repo, projector, nil),
		Goals:        services.NewGoalService(repo),
		SavingsBoxes: services.NewSavingsBoxService(repo),
		Dashboard:    services.NewDashboardService(repo),
		Projector:    projector,
		UserCache:    users,
	}
	srv, err := NewServer(DefaultConfig(), deps, nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(func() {
		srv.apiLimiter.Stop()
		srv.loginLimiter.Stop()
	})
	return &testAPI{t: t, srv: srv}
}

// do sends a request and decodes the envelope.
func (a *testAPI) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.srv.Handler.ServeHTTP(w, req)

	var env map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("%s %s: invalid JSON %q", method, path, w.Body.String())
		}
	}
	return w, env
}

// mustData asserts a successful envelope with the wanted status and returns its data.
func (a *testAPI) mustData(method, path, token string, body any, status int) map[string]any {
	a.t.Helper()
	w, env := a.do(method, path, token, body)
	if w.Code != status || env["success"] != true {
		a.t.Fatalf("%s %s: status = %d, body = %s", method, path, w.Code, w.Body.String())
	}
	data, _ := env["data"].(map[string]any)
	return data
}

func (a *testAPI) mustFail(method, path, token string, body any, status int) string {
	a.t.Helper()
	w, env := a.do(method, path, token, body)
	if w.Code != status || env["success"] != false {
		a.t.Fatalf("%s %s: status = %d, want %d, body = %s", method, path, w.Code, status, w.Body.String())
	}
	msg, _ := env["error"].(string)
	return msg
}

func (a *testAPI) register(email string) string {
	a.t.Helper()
	data := a.mustData(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "correct horse", "name": "Ana",
	}, http.StatusCreated)
	token, _ := data["token"].(string)
	if token == "" {
		a.t.Fatal("register returned no token")
	}
	return token
}

func today() string {
	return time.Now().UTC().Format(core.DateLayout)
}

func TestHealthReadyAndMetrics(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		w, env := api.do(http.MethodGet, path, "", nil)
		if w.Code != http.StatusOK || env["success"] != true {
			t.Fatalf("%s status=%d body=%s", path, w.Code, w.Body.String())
		}
	}

	w, _ := api.do(http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status=%d", w.Code)
	}
	for _, want := range []string{"http_requests_total 2", "balance_projections_total", "cache_hits_total", "uptime_seconds"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestGlobalMiddleware(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.do(http.MethodGet, "/api/nothing-here", "", nil)
	if w.Code != http.StatusNotFound || env["success"] != false {
		t.Errorf("unknown route: status=%d body=%s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers should apply to every response")
	}
	if !strings.HasPrefix(w.Header().Get("X-Request-ID"), "req_") {
		t.Error("request id header missing")
	}

	w, _ = api.do(http.MethodDelete, "/healthz", "", nil)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE /healthz status=%d, want 405", w.Code)
	}
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if body := decodeEnvelope(t, w); body["success"] != false || body["error"] != "internal server error" {
		t.Errorf("body = %v", body)
	}
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ana@example.com")

	msg := api.mustFail(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ANA@example.com", "password": "another one", "name": "Ana",
	}, http.StatusBadRequest)
	if msg != core.ErrEmailTaken.Error() {
		t.Errorf("duplicate register error = %q", msg)
	}
	api.mustFail(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "bob@example.com", "password": "short", "name": "Bob",
	}, http.StatusBadRequest)

	api.mustFail(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "wrong password",
	}, http.StatusUnauthorized)
	login := api.mustData(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ana@example.com", "password": "correct horse",
	}, http.StatusOK)
	if login["token"] == "" {
		t.Error("login returned no token")
	}

	api.mustFail(http.MethodGet, "/api/auth/me", "", nil, http.StatusUnauthorized)
	api.mustFail(http.MethodGet, "/api/auth/me", "not-a-jwt", nil, http.StatusUnauthorized)

	me := api.mustData(http.MethodGet, "/api/auth/me", token, nil, http.StatusOK)
	if me["email"] != "ana@example.com" {
		t.Errorf("me = %v", me)
	}
	me = api.mustData(http.MethodPut, "/api/auth/me", token, map[string]string{"name": "Ana Maria"}, http.StatusOK)
	if me["name"] != "Ana Maria" {
		t.Errorf("updated name = %v", me["name"])
	}
	me = api.mustData(http.MethodGet, "/api/auth/me", token, nil, http.StatusOK)
	if me["name"] != "Ana Maria" {
		t.Errorf("cached user should be invalidated, name = %v", me["name"])
	}
}

func TestLoginRateLimit(t *testing.T) {
	api := newTestAPI(t)
	creds := map[string]string{"email": "nobody@example.com", "password": "whatever1"}

	for i := 0; i < DefaultConfig().AuthRateLimit; i++ {
		api.mustFail(http.MethodPost, "/api/auth/login", "", creds, http.StatusUnauthorized)
	}
	w, env := api.do(http.MethodPost, "/api/auth/login", "", creds)
	if w.Code != http.StatusTooManyRequests || env["success"] != false {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Error("Retry-After header missing")
	}
}

func TestLedgerProjectionOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ana@example.com")

	account := api.mustData(http.MethodPost, "/api/accounts", token, map[string]string{"name": "Checking"}, http.StatusCreated)
	accountID := account["id"].(string)
	if account["type"] != "bank" || account["currency"] != "BRL" || account["balance"] != 0.0 {
		t.Errorf("account defaults = %v", account)
	}

	future := time.Now().UTC().AddDate(0, 0, 30).Format(core.DateLayout)
	for _, tx := range []map[string]any{
		{"account_id": accountID, "amount": 100, "type": "INCOME", "date": today(), "description": "salary"},
		{"account_id": accountID, "amount": "30,00", "type": "expense", "date": today()},
		{"account_id": accountID, "amount": "50.00", "type": "INCOME", "date": future},
	} {
		api.mustData(http.MethodPost, "/api/transactions", token, tx, http.StatusCreated)
	}

	account = api.mustData(http.MethodGet, "/api/accounts/"+accountID, token, nil, http.StatusOK)
	if account["balance"] != 70.0 {
		t.Errorf("balance = %v, want 70", account["balance"])
	}

	dash := api.mustData(http.MethodGet, "/api/dashboard", token, nil, http.StatusOK)
	fut := dash["future"].(map[string]any)
	if fut["income"] != 50.0 || fut["expense"] != 0.0 || dash["total_balance"] != 70.0 {
		t.Errorf("dashboard = %v", dash)
	}
	api.mustFail(http.MethodGet, "/api/dashboard?month=13", token, nil, http.StatusBadRequest)

	w, env := api.do(http.MethodGet, "/api/transactions?type=EXPENSE", token, nil)
	if list := env["data"].([]any); w.Code != http.StatusOK || len(list) != 1 {
		t.Errorf("filtered list = %s", w.Body.String())
	}

	msg := api.mustFail(http.MethodPost, "/api/transactions", token, map[string]any{
		"account_id": accountID, "amount": 0, "type": "INCOME", "date": today(),
	}, http.StatusBadRequest)
	if msg != core.ErrInvalidAmount.Error() {
		t.Errorf("zero amount error = %q", msg)
	}

	repaired := api.mustData(http.MethodPost, "/api/accounts/"+accountID+"/reproject", token, nil, http.StatusOK)
	if repaired["balance"] != 70.0 {
		t.Errorf("reprojected balance = %v", repaired["balance"])
	}
}

func TestOwnershipIsolation(t *testing.T) {
	api := newTestAPI(t)
	ana := api.register("ana@example.com")
	bob := api.register("bob@example.com")

	account := api.mustData(http.MethodPost, "/api/accounts", ana, map[string]string{"name": "Private"}, http.StatusCreated)
	path := "/api/accounts/" + account["id"].(string)

	api.mustFail(http.MethodGet, path, bob, nil, http.StatusNotFound)
	api.mustFail(http.MethodDelete, path, bob, nil, http.StatusNotFound)
	api.mustFail(http.MethodPost, "/api/transactions", bob, map[string]any{
		"account_id": account["id"], "amount": 1, "type": "INCOME", "date": today(),
	}, http.StatusNotFound)
	api.mustData(http.MethodGet, path, ana, nil, http.StatusOK)
}

func TestGoalContributionOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ana@example.com")

	goal := api.mustData(http.MethodPost, "/api/goals", token, map[string]any{
		"name": "Trip", "target_amount": 100, "current_amount": 90,
	}, http.StatusCreated)
	if goal["target_amount"] != 100.0 || goal["current_amount"] != 90.0 || goal["remaining_amount"] != 10.0 {
		t.Errorf("goal amounts = %v", goal)
	}
	if goal["is_completed"] != false || goal["progress"] != 90.0 {
		t.Errorf("goal = %v", goal)
	}

	goal = api.mustData(http.MethodPost, "/api/goals/contribute", token, map[string]any{
		"id": goal["id"], "amount": 20,
	}, http.StatusOK)
	if goal["current_amount"] != 110.0 || goal["is_completed"] != true || goal["progress"] != 100.0 {
		t.Errorf("after contribution = %v", goal)
	}

	api.mustFail(http.MethodPost, "/api/goals/contribute", token, map[string]any{"amount": 20}, http.StatusBadRequest)
	api.mustFail(http.MethodPost, "/api/goals/contribute", token, map[string]any{"id": goal["id"], "amount": -5}, http.StatusBadRequest)
	api.mustFail(http.MethodPost, "/api/goals", token, map[string]any{"name": "", "target_amount": 10}, http.StatusBadRequest)
}

func TestSavingsBoxLifecycleOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ana@example.com")

	box := api.mustData(http.MethodPost, "/api/savings-boxes", token, map[string]any{
		"name": "Emergency", "current_amount": 5,
	}, http.StatusCreated)
	path := "/api/savings-boxes/" + box["id"].(string)
	if box["active"] != true || box["color"] != core.DefaultBoxColor || box["current_amount"] != 5.0 {
		t.Errorf("box defaults = %v", box)
	}

	msg := api.mustFail(http.MethodDelete, path, token, nil, http.StatusBadRequest)
	if msg != core.ErrBoxHasBalance.Error() {
		t.Errorf("delete error = %q", msg)
	}
	api.mustFail(http.MethodPost, path+"/withdraw", token, map[string]any{"amount": 6}, http.StatusBadRequest)

	box = api.mustData(http.MethodPost, path+"/withdraw", token, map[string]any{"amount": 5}, http.StatusOK)
	if box["current_amount"] != 0.0 {
		t.Errorf("current_amount = %v", box["current_amount"])
	}
	api.mustData(http.MethodDelete, path, token, nil, http.StatusOK)

	_, env := api.do(http.MethodGet, "/api/savings-boxes", token, nil)
	if list := env["data"].([]any); len(list) != 0 {
		t.Errorf("active list = %v", list)
	}
	_, env = api.do(http.MethodGet, "/api/savings-boxes?include_inactive=true", token, nil)
	list := env["data"].([]any)
	if len(list) != 1 || list[0].(map[string]any)["active"] != false {
		t.Errorf("inactive list = %v", list)
	}
	api.mustFail(http.MethodPost, path+"/deposit", token, map[string]any{"amount": 1}, http.StatusBadRequest)
}

func TestSavingsBoxTransferAndStatsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ana@example.com")

	from := api.mustData(http.MethodPost, "/api/savings-boxes", token, map[string]any{"name": "A", "current_amount": 100, "target_amount": 100}, http.StatusCreated)
	to := api.mustData(http.MethodPost, "/api/savings-boxes", token, map[string]any{"name": "B", "target_amount": 100}, http.StatusCreated)

	moved := api.mustData(http.MethodPost, "/api/savings-boxes/transfer", token, map[string]any{
		"from_id": from["id"], "to_id": to["id"], "amount": "40",
	}, http.StatusOK)
	if moved["from"].(map[string]any)["current_amount"] != 60.0 || moved["to"].(map[string]any)["current_amount"] != 40.0 {
		t.Errorf("transfer = %v", moved)
	}
	api.mustFail(http.MethodPost, "/api/savings-boxes/transfer", token, map[string]any{
		"from_id": from["id"], "to_id": from["id"], "amount": 1,
	}, http.StatusBadRequest)
	api.mustFail(http.MethodPost, "/api/savings-boxes/transfer", token, map[string]any{
		"from_id": to["id"], "to_id": from["id"], "amount": 41,
	}, http.StatusBadRequest)

	stats := api.mustData(http.MethodGet, "/api/savings-boxes/stats", token, nil, http.StatusOK)
	if stats["total_boxes"] != 2.0 || stats["total_amount"] != 100.0 || stats["average_progress"] != 50.0 {
		t.Errorf("stats = %v", stats)
	}
}

func TestSavingsBoxAmountsOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ana@example.com")

	box := api.mustData(http.MethodPost, "/api/savings-boxes", token, map[string]any{
		"name": "Box", "target_amount": 50, "current_amount": 5,
	}, http.StatusCreated)
	if box["current_amount"] != 5.0 || box["target_amount"] != 50.0 || box["progress"] != 10.0 {
		t.Fatalf("box = %v", box)
	}
	path := "/api/savings-boxes/" + box["id"].(string)

	for _, target := range []any{0, -1, "0.00"} {
		msg := api.mustFail(http.MethodPost, "/api/savings-boxes", token, map[string]any{
			"name": "Box0", "target_amount": target,
		}, http.StatusBadRequest)
		if msg != core.ErrInvalidTarget.Error() {
			t.Errorf("create target=%v error = %q", target, msg)
		}
		api.mustFail(http.MethodPut, path, token, map[string]any{"target_amount": target}, http.StatusBadRequest)
	}

	box = api.mustData(http.MethodGet, path, token, nil, http.StatusOK)
	if box["target_amount"] != 50.0 {
		t.Errorf("target after rejected updates = %v", box["target_amount"])
	}

	box = api.mustData(http.MethodPut, path, token, map[string]any{"target_amount": 80}, http.StatusOK)
	if box["target_amount"] != 80.0 {
		t.Errorf("target after update = %v", box["target_amount"])
	}

	box = api.mustData(http.MethodPut, path, token, map[string]any{"name": "Renamed"}, http.StatusOK)
	if box["target_amount"] != 80.0 {
		t.Errorf("target dropped by unrelated update: %v", box)
	}

	box = api.mustData(http.MethodPut, path, token, map[string]any{"target_amount": nil}, http.StatusOK)
	if _, ok := box["target_amount"]; ok {
		t.Errorf("target not cleared: %v", box)
	}

	untargeted := api.mustData(http.MethodPost, "/api/savings-boxes", token, map[string]any{
		"name": "Loose", "target_amount": nil,
	}, http.StatusCreated)
	if _, ok := untargeted["target_amount"]; ok {
		t.Errorf("null target on create = %v", untargeted)
	}
}
