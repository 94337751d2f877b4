package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	ports "cofre/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// DefaultSheetName is the base tab name; the transaction year is prefixed.
const DefaultSheetName = "Ledger"

var ErrMissingSpreadsheetID = errors.New("missing spreadsheet id")

// Config selects the spreadsheet and the service account used to write it.
type Config struct {
	SpreadsheetID string
	// SheetName is the tab base name without year (e.g. "Ledger").
	SheetName string
	// CredentialsJSON takes precedence over CredentialsFile. With neither set
	// Application Default Credentials are used.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	appended      int64
}

// Ensure interface conformance
var _ ports.LedgerMirror = (*Client)(nil)

// New creates a Sheets client. Extra options are appended after the
// credential options, so tests can point the client at a local endpoint.
func New(ctx context.Context, config Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(config.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheetID
	}
	base := strings.TrimSpace(config.SheetName)
	if base == "" {
		base = DefaultSheetName
	}

	clientOpts, err := credentialOptions(ctx, config)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets mirror ready",
		"spreadsheet_id", spreadsheetID,
		"sheet", base)
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetBase: base}, nil
}

func credentialOptions(ctx context.Context, config Config) ([]goption.ClientOption, error) {
	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	credentialsJSON := strings.TrimSpace(config.CredentialsJSON)
	credentialsFile := strings.TrimSpace(config.CredentialsFile)
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		opts = append(opts, goption.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", credentialsFile)
		opts = append(opts, goption.WithCredentialsJSON(data))
	default:
		slog.InfoContext(ctx, "No service account configured, using application default credentials")
	}
	return opts, nil
}

// AppendTransaction writes one row to the tab of the transaction's year and
// returns the A1 range that was written.
func (c *Client) AppendTransaction(ctx context.Context, row ports.LedgerRow) (string, error) {
	if err := row.Transaction.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.sheetBase, row.Transaction.Date.Year())
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(row)}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, a1Range(sheet, "A:H"), vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", sheet, err)
	}
	atomic.AddInt64(&c.appended, 1)

	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return sheet, nil
}

// Appended returns the number of rows written since start.
func (c *Client) Appended() int64 {
	return atomic.LoadInt64(&c.appended)
}
