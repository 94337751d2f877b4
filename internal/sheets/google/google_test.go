package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"cofre/internal/core"
	ports "cofre/internal/sheets"

	goption "google.golang.org/api/option"
)

// fakeSheets answers values:append calls the way the Sheets API does.
type fakeSheets struct {
	mu     sync.Mutex
	paths  []string
	rows   [][]any
	status int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, r.URL.Path+"?"+r.URL.RawQuery)

	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`)
		return
	}
	var body struct {
		Values [][]any `json:"values"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.rows = append(f.rows, body.Values...)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"spreadsheetId": "sheet-1",
		"updates": map[string]any{
			"updatedRange": "'2025 Ledger'!A2:H2",
			"updatedRows":  1,
		},
	})
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func sampleRow() ports.LedgerRow {
	return ports.LedgerRow{
		Transaction: core.Transaction{
			ID:          "tx-1",
			AccountID:   "acc-1",
			Amount:      core.Money{Cents: 3000},
			Type:        core.Expense,
			Date:        core.NewDate(2025, 3, 14),
			Description: "groceries",
		},
		Account:  "Checking",
		Category: "Food",
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "  "})
	if !errors.Is(err, ErrMissingSpreadsheetID) {
		t.Fatalf("err = %v, want ErrMissingSpreadsheetID", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{
		SpreadsheetID:   "sheet-1",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("err = %v", err)
	}
}

func TestCredentialOptions(t *testing.T) {
	file := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name   string
		config Config
		want   int
	}{
		{"adc", Config{}, 1},
		{"inline", Config{CredentialsJSON: `{"type":"service_account"}`}, 2},
		{"file", Config{CredentialsFile: file}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := credentialOptions(context.Background(), tt.config)
			if err != nil {
				t.Fatalf("credentialOptions() error = %v", err)
			}
			if len(opts) != tt.want {
				t.Errorf("len(opts) = %d, want %d", len(opts), tt.want)
			}
		})
	}
}

func TestAppendTransaction(t *testing.T) {
	fake := &fakeSheets{}
	c := newFakeClient(t, fake)

	ref, err := c.AppendTransaction(context.Background(), sampleRow())
	if err != nil {
		t.Fatalf("AppendTransaction() error = %v", err)
	}
	if ref != "'2025 Ledger'!A2:H2" {
		t.Errorf("ref = %q", ref)
	}
	if c.Appended() != 1 {
		t.Errorf("Appended() = %d", c.Appended())
	}

	if len(fake.paths) != 1 {
		t.Fatalf("requests = %v", fake.paths)
	}
	path := fake.paths[0]
	for _, want := range []string{"/v4/spreadsheets/sheet-1/values/", "2025 Ledger", ":append", "valueInputOption=USER_ENTERED", "insertDataOption=INSERT_ROWS"} {
		if !strings.Contains(path, want) {
			t.Errorf("request %q missing %q", path, want)
		}
	}

	if len(fake.rows) != 1 {
		t.Fatalf("rows = %v", fake.rows)
	}
	got := fake.rows[0]
	want := []any{"2025-03-14", "tx-1", "Checking", "Food", "EXPENSE", "groceries", "-30.00", ""}
	if len(got) != len(want) {
		t.Fatalf("row = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("col %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAppendTransaction_Errors(t *testing.T) {
	fake := &fakeSheets{status: http.StatusForbidden}
	c := newFakeClient(t, fake)

	if _, err := c.AppendTransaction(context.Background(), sampleRow()); err == nil || !strings.Contains(err.Error(), "append to sheet 2025 Ledger") {
		t.Errorf("err = %v", err)
	}

	bad := sampleRow()
	bad.Transaction.Amount = core.Money{}
	if _, err := c.AppendTransaction(context.Background(), bad); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("err = %v, want ErrInvalidAmount", err)
	}

	var nilSvc Client
	if _, err := nilSvc.AppendTransaction(context.Background(), sampleRow()); err == nil {
		t.Error("expected error without a service")
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{" Ledger ", 2024, "2024 Ledger"},
		{"2023 Ledger", 2025, "2023 Ledger"},
		{"", 2025, ""},
		{"12345", 2025, "2025 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestA1Range(t *testing.T) {
	if got := a1Range("2025 Ledger", "A:H"); got != "'2025 Ledger'!A:H" {
		t.Errorf("a1Range() = %q", got)
	}
	if got := a1Range("Ana's", "A1"); got != "'Ana''s'!A1" {
		t.Errorf("a1Range() = %q", got)
	}
}

func TestTransactionRow_IncomeIsPositive(t *testing.T) {
	row := sampleRow()
	row.Transaction.Type = core.Income
	row.Transaction.IsRecurring = true
	row.Transaction.Recurrence = core.Monthly
	cols := transactionRow(row)
	if len(cols) != len(Header) {
		t.Fatalf("row has %d columns, header %d", len(cols), len(Header))
	}
	if cols[6] != "30.00" || cols[7] != "monthly" {
		t.Errorf("row = %v", cols)
	}
}
