package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"budget/internal/core"
	"budget/internal/services"
	"budget/internal/sheets/memory"
)

const sampleCSV = "Date,Type,Category,Amount,Description\n" +
	"2025-01-15,Income,Salary,1000.00,\n" +
	"2025-02-03,Expense,Bills,75.00,rent\n" +
	"2025-01-20,Expense,Food,150.50,groceries\n"

func newTestServer(t *testing.T, cfg Config, ledger *services.LedgerService) *Server {
	t.Helper()
	if ledger == nil {
		ledger = services.NewLedgerService(nil, nil)
	}
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 1000
	}
	srv := NewServer(cfg, ledger)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz = %d %q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("request id header missing")
	}

	rr = do(t, srv, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz = %d", rr.Code)
	}

	notReady := newTestServer(t, Config{Ready: func(context.Context) error { return errors.New("broker down") }}, nil)
	if rr := do(t, notReady, http.MethodGet, "/readyz", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz = %d, want 503", rr.Code)
	}
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	rr := do(t, srv, http.MethodGet, "/api/categories", "", "")
	body := decode[map[string][]string](t, rr)

	if len(body["categories"]) != 6 || body["categories"][0] != "Food" {
		t.Errorf("categories = %v", body["categories"])
	}
	if len(body["months"]) != 13 || body["months"][0] != "All Time" || body["months"][12] != "December" {
		t.Errorf("months = %v", body["months"])
	}
}

func TestCreateTransactionScenario(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json",
		`{"date":"2025-01-15","type":"Income","category":"Salary","amount":"1000"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create income = %d %s", rr.Code, rr.Body.String())
	}
	rec := decode[recordJSON](t, rr)
	if rec.Amount != "1000.00" || rec.Type != "Income" {
		t.Errorf("record = %+v", rec)
	}

	rr = do(t, srv, http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded",
		"date=2025-01-16&type=Expense&category=Food&amount=150.50&description=groceries")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create expense = %d %s", rr.Code, rr.Body.String())
	}

	sum := decode[summaryJSON](t, do(t, srv, http.MethodGet, "/api/summary", "", ""))
	if sum.BalanceLabel != "Balance: $849.50" {
		t.Errorf("balance label = %q", sum.BalanceLabel)
	}
	if len(sum.ByCategory) != 1 || sum.ByCategory[0] != (categoryJSON{Name: "Food", Amount: "150.50"}) {
		t.Errorf("by category = %+v", sum.ByCategory)
	}
	if sum.Month != "All Time" || sum.Count != 2 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"bad amount", `{"date":"2025-01-15","type":"Expense","category":"Food","amount":"abc"}`, "amount"},
		{"zero amount", `{"date":"2025-01-15","type":"Expense","category":"Food","amount":"0"}`, "amount"},
		{"bad date", `{"date":"2025-02-30","type":"Expense","category":"Food","amount":"5"}`, "date"},
		{"bad type", `{"date":"2025-01-15","type":"Refund","category":"Food","amount":"5"}`, "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json", tt.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rr.Code)
			}
			body := decode[errorBody](t, rr)
			if body.Field != tt.wantField || body.Error == "" {
				t.Errorf("body = %+v, want field %q", body, tt.wantField)
			}
		})
	}

	list := decode[map[string]any](t, do(t, srv, http.MethodGet, "/api/transactions", "", ""))
	if txs, _ := list["transactions"].([]any); len(txs) != 0 {
		t.Errorf("ledger should be empty after rejected input, got %v", txs)
	}
}

func TestCreateTransactionDefaultsDateToToday(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json",
		`{"type":"Expense","category":"Food","amount":12.5}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	rec := decode[recordJSON](t, rr)
	if rec.Date != core.Today().String() || rec.Amount != "12.50" {
		t.Errorf("record = %+v", rec)
	}
}

func TestCreateTransactionMalformedJSON(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json", `{"amount":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestListTransactionsByMonth(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	if rr := do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV); rr.Code != http.StatusOK {
		t.Fatalf("import = %d %s", rr.Code, rr.Body.String())
	}

	type listResp struct {
		Month        string       `json:"month"`
		Transactions []recordJSON `json:"transactions"`
	}
	jan := decode[listResp](t, do(t, srv, http.MethodGet, "/api/transactions?month=January", "", ""))
	if jan.Month != "January" || len(jan.Transactions) != 2 || jan.Transactions[1].Category != "Food" {
		t.Errorf("january = %+v", jan)
	}

	feb := decode[summaryJSON](t, do(t, srv, http.MethodGet, "/api/summary?month=2", "", ""))
	if feb.BalanceLabel != "Balance: -$75.00" {
		t.Errorf("february = %+v", feb)
	}

	if rr := do(t, srv, http.MethodGet, "/api/transactions?month=13", "", ""); rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid month = %d, want 422", rr.Code)
	}
}

func TestImportRejectsBadCSVAndKeepsLedger(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV)

	bad := "Date,Type,Category,Amount,Description\n2025-01-15,Income,Salary,1000.00,\n2025-01-16,Expense,Food,-3,\n"
	rr := do(t, srv, http.MethodPost, "/api/import", "text/csv", bad)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	body := decode[errorBody](t, rr)
	if body.Line != 3 || body.Field != "amount" {
		t.Errorf("body = %+v, want line 3 field amount", body)
	}

	rr = do(t, srv, http.MethodPost, "/api/import", "text/csv", "date,type\n")
	if rr.Code != http.StatusUnprocessableEntity || decode[errorBody](t, rr).Line != 1 {
		t.Errorf("header mismatch = %d %s", rr.Code, rr.Body.String())
	}

	sum := decode[summaryJSON](t, do(t, srv, http.MethodGet, "/api/summary", "", ""))
	if sum.Count != 3 {
		t.Errorf("ledger changed after rejected import: %+v", sum)
	}
}

func TestImportMultipart(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "ledger.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte(sampleCSV))
	_ = mw.Close()

	rr := do(t, srv, http.MethodPost, "/api/import", mw.FormDataContentType(), buf.String())
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d %s", rr.Code, rr.Body.String())
	}
	if got := decode[map[string]int](t, rr)["imported"]; got != 3 {
		t.Errorf("imported = %d, want 3", got)
	}

	var empty bytes.Buffer
	mw = multipart.NewWriter(&empty)
	_ = mw.Close()
	if rr := do(t, srv, http.MethodPost, "/api/import", mw.FormDataContentType(), empty.String()); rr.Code != http.StatusBadRequest {
		t.Errorf("missing file = %d, want 400", rr.Code)
	}
}

func TestImportMultipartTooLarge(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "ledger.csv")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(bytes.Repeat([]byte("a"), maxBodyBytes+1))
	_ = mw.Close()

	rr := do(t, srv, http.MethodPost, "/api/import", mw.FormDataContentType(), buf.String())
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rr.Code)
	}
	if n := srv.ledger.Len(); n != 0 {
		t.Errorf("ledger has %d records after rejected upload", n)
	}
}

func TestExportCSVRoundTrip(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV)

	rr := do(t, srv, http.MethodGet, "/api/export.csv", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if rr.Body.String() != sampleCSV {
		t.Errorf("export = %q", rr.Body.String())
	}
}

func TestClearTransactions(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV)

	if rr := do(t, srv, http.MethodDelete, "/api/transactions", "", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("clear = %d", rr.Code)
	}
	sum := decode[summaryJSON](t, do(t, srv, http.MethodGet, "/api/summary", "", ""))
	if sum.Count != 0 || sum.BalanceLabel != "Balance: $0.00" {
		t.Errorf("summary after clear = %+v", sum)
	}
}

func TestExportSheet(t *testing.T) {
	disabled := newTestServer(t, Config{}, nil)
	if rr := do(t, disabled, http.MethodPost, "/api/export/sheet", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled export = %d, want 503", rr.Code)
	}

	store := memory.New()
	srv := newTestServer(t, Config{}, services.NewLedgerService(nil, store))
	do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV)

	rr := do(t, srv, http.MethodPost, "/api/export/sheet", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export = %d %s", rr.Code, rr.Body.String())
	}
	if ref := decode[map[string]string](t, rr)["ref"]; ref != "mem:1:3" {
		t.Errorf("ref = %q", ref)
	}
	if len(store.Rows()) != 4 {
		t.Errorf("rows = %v", store.Rows())
	}
}

func TestSaveAndLoadLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	srv := newTestServer(t, Config{LedgerCSVPath: path}, nil)
	do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV)

	if rr := do(t, srv, http.MethodPost, "/api/ledger/save", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("save = %d %s", rr.Code, rr.Body.String())
	}
	do(t, srv, http.MethodDelete, "/api/transactions", "", "")

	rr := do(t, srv, http.MethodPost, "/api/ledger/load", "", "")
	if rr.Code != http.StatusOK || decode[map[string]int](t, rr)["loaded"] != 3 {
		t.Fatalf("load = %d %s", rr.Code, rr.Body.String())
	}

	unconfigured := newTestServer(t, Config{}, nil)
	if rr := do(t, unconfigured, http.MethodPost, "/api/ledger/save", "", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("save without path = %d, want 503", rr.Code)
	}
}

func TestCharts(t *testing.T) {
	srv := newTestServer(t, Config{ChartCacheTTL: time.Minute}, nil)

	for _, path := range []string{"/api/chart/categories.png", "/api/chart/totals.png"} {
		if rr := do(t, srv, http.MethodGet, path, "", ""); rr.Code != http.StatusNoContent {
			t.Fatalf("%s on empty ledger = %d, want 204", path, rr.Code)
		}
	}

	do(t, srv, http.MethodPost, "/api/import", "text/csv", sampleCSV)

	rr := do(t, srv, http.MethodGet, "/api/chart/categories.png?month=1", "", "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("categories chart = %d %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("\x89PNG")) {
		t.Error("body is not a PNG")
	}

	do(t, srv, http.MethodGet, "/api/chart/categories.png?month=1", "", "")
	if st := srv.charts.Stats(); st.Hits != 1 {
		t.Errorf("cache stats = %+v, want one hit", st)
	}

	// March has no records
	if rr := do(t, srv, http.MethodGet, "/api/chart/totals.png?month=3", "", ""); rr.Code != http.StatusNoContent {
		t.Errorf("totals for empty month = %d, want 204", rr.Code)
	}
	if rr := do(t, srv, http.MethodGet, "/api/chart/totals.png?month=2", "", ""); rr.Code != http.StatusOK {
		t.Errorf("totals for february = %d, want 200", rr.Code)
	}
}

func TestRateLimitAppliesToMutationsOnly(t *testing.T) {
	srv := newTestServer(t, Config{RateLimitPerMinute: 1}, nil)
	body := `{"date":"2025-01-15","type":"Expense","category":"Food","amount":"1"}`

	if rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json", body); rr.Code != http.StatusCreated {
		t.Fatalf("first = %d", rr.Code)
	}
	rr := do(t, srv, http.MethodPost, "/api/transactions", "application/json", body)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("second = %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	for i := 0; i < 3; i++ {
		if rr := do(t, srv, http.MethodGet, "/api/summary", "", ""); rr.Code != http.StatusOK {
			t.Fatalf("GET limited: %d", rr.Code)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Config{}, nil)
	if rr := do(t, srv, http.MethodPut, "/api/summary", "", ""); rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT /api/summary = %d, want 405", rr.Code)
	}
}
