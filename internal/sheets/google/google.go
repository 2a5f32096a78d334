// Package google exports transactions to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
)

const valueInputOption = "USER_ENTERED"

// Config selects the spreadsheet and the service account used to reach it.
type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsJSON string
	CredentialsFile string
}

// Client appends transactions to a per-year sheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetBase     string
	logger        *log.Logger
}

var _ sheets.Exporter = (*Client)(nil)

// New creates a client authenticated with service account credentials.
// Extra options are appended after the credentials; tests use them to
// point the client at a local server.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	base := strings.TrimSpace(cfg.SheetName)
	if base == "" {
		base = "Transactions"
	}

	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	var all []goption.ClientOption
	if creds != nil {
		logger.DebugContext(ctx, "Using service account credentials", "size", len(creds))
		all = append(all, goption.WithCredentialsJSON(creds), goption.WithScopes(gsheet.SpreadsheetsScope))
	} else if len(opts) == 0 {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	all = append(all, opts...)

	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetBase: base, logger: logger}, nil
}

func credentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		return []byte(cfg.CredentialsJSON), nil
	case strings.TrimSpace(cfg.CredentialsFile) != "":
		b, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, nil
}

// Export appends the period's transactions that the sheet does not hold yet.
// The year's sheet is created, with a header row, when missing.
func (c *Client) Export(ctx context.Context, period core.Period, ts []core.Transaction) (sheets.Result, error) {
	sheet := sheets.SheetName(c.sheetBase, period.Year)
	res := sheets.Result{Sheet: sheet}

	created, err := c.ensureSheet(ctx, sheet)
	if err != nil {
		return res, err
	}

	existing := map[string]struct{}{}
	withHeader := created
	if !created {
		if existing, err = c.readIDs(ctx, sheet); err != nil {
			return res, err
		}
		withHeader = len(existing) == 0 && !c.hasHeader(ctx, sheet)
	}

	rows, skipped := sheets.Pending(period, ts, existing)
	res.Skipped = skipped
	res.Appended = len(rows)
	if withHeader {
		rows = append([][]any{sheets.Header}, rows...)
	}
	if len(rows) == 0 {
		return res, nil
	}

	rng := fmt.Sprintf("%s!A:%s", sheet, sheets.IDColumn)
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return sheets.Result{Sheet: sheet}, fmt.Errorf("append to %s: %w", sheet, err)
	}

	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Exported transactions to sheet",
		"sheet", sheet, "range", updated, log.FieldCount, res.Appended, "skipped", res.Skipped)
	return res, nil
}

// ensureSheet adds the sheet when the spreadsheet lacks it and reports
// whether it did.
func (c *Client) ensureSheet(ctx context.Context, sheet string) (bool, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.Title == sheet {
			return false, nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return false, fmt.Errorf("add sheet %s: %w", sheet, err)
	}
	c.logger.InfoContext(ctx, "Created sheet", "sheet", sheet)
	return true, nil
}

// readIDs returns the ids already in the sheet's id column.
func (c *Client) readIDs(ctx context.Context, sheet string) (map[string]struct{}, error) {
	col, err := c.readCol(ctx, sheet, fmt.Sprintf("%[1]s2:%[1]s", sheets.IDColumn))
	if err != nil {
		return nil, err
	}
	ids := make(map[string]struct{}, len(col))
	for _, v := range col {
		ids[v] = struct{}{}
	}
	return ids, nil
}

func (c *Client) hasHeader(ctx context.Context, sheet string) bool {
	col, err := c.readCol(ctx, sheet, "A1:A1")
	return err == nil && len(col) > 0
}

func (c *Client) readCol(ctx context.Context, sheet, cols string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s", sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []string
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if v := strings.TrimSpace(fmt.Sprint(row[0])); v != "" {
			out = append(out, v)
		}
	}
	return out, nil
}
