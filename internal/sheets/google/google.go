// Package google mirrors ledger records into a Google Sheets tab.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"khetbook/internal/ledger"
	"khetbook/internal/log"
	ports "khetbook/internal/sheets"
)

var _ ports.Ledger = (*Client)(nil)

// Config selects the spreadsheet and the service account used to reach it.
// ServiceAccountJSON wins over ServiceAccountFile; with neither set the
// GOOGLE_APPLICATION_CREDENTIALS file is used.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountFile string
	ServiceAccountJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger

	// Serialises find-then-write so two events for one record cannot both
	// append.
	mu            sync.Mutex
	headerWritten bool
}

func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}
	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case file == "":
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		"credentials_size", len(creds),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// UpsertRecord rewrites the row whose column A holds r.ID, or appends a new
// row when there is none.
func (c *Client) UpsertRecord(ctx context.Context, accountID string, r ledger.Record) error {
	if r.ID == "" {
		return errors.New("record without id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	if err := c.ensureHeader(ctx, ids); err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]any{ports.Row(accountID, r)}}
	if row := findRow(ids, r.ID); row > 0 {
		rng := rowRange(c.sheet, row)
		_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		c.logger.DebugContext(ctx, "Sheet row updated", log.FieldRecordID, r.ID, "range", rng)
		return nil
	}

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.sheet+"!A:I", vr).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheet, err)
	}
	c.logger.DebugContext(ctx, "Sheet row appended", log.FieldRecordID, r.ID)
	return nil
}

// DeleteRecord clears the record's row. Clearing instead of removing keeps
// the row numbers of other records stable.
func (c *Client) DeleteRecord(ctx context.Context, recordID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := findRow(ids, recordID)
	if row == 0 {
		return nil
	}
	rng := rowRange(c.sheet, row)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	c.logger.DebugContext(ctx, "Sheet row cleared", log.FieldRecordID, recordID, "range", rng)
	return nil
}

func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := c.sheet + "!A:A"
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return firstColumn(resp.Values), nil
}

func (c *Client) ensureHeader(ctx context.Context, ids []string) error {
	if c.headerWritten {
		return nil
	}
	// Row 1 is left alone once it holds anything.
	if len(ids) > 0 {
		c.headerWritten = true
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{ports.Header}}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rowRange(c.sheet, 1), vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	c.headerWritten = true
	return nil
}

func firstColumn(values [][]interface{}) []string {
	out := make([]string, len(values))
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		out[i] = strings.TrimSpace(fmt.Sprint(row[0]))
	}
	return out
}

// findRow returns the 1-based sheet row holding id, or 0.
func findRow(ids []string, id string) int {
	if id == "" {
		return 0
	}
	for i, v := range ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:I%d", sheet, row, row)
}
