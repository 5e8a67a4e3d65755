package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"zodiac/internal/catalog"
	"zodiac/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads the sign table from a spreadsheet range.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	signsRange    string
}

// Ensure interface conformance
var _ catalog.TableLoader = (*Client)(nil)

// Options configures a Client. Exactly one of CredentialsJSON and
// CredentialsFile is needed; JSON wins when both are set.
type Options struct {
	SpreadsheetID   string
	SignsRange      string
	CredentialsJSON string
	CredentialsFile string
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	signsRange := strings.TrimSpace(opts.SignsRange)
	if signsRange == "" {
		return nil, errors.New("missing signs range")
	}

	credentialsJSON, err := loadCredentials(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created successfully",
		"spreadsheet_id", spreadsheetID,
		"range", signsRange)

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		signsRange:    signsRange,
	}, nil
}

func loadCredentials(ctx context.Context, opts Options) ([]byte, error) {
	serviceAccountJSON := strings.TrimSpace(opts.CredentialsJSON)
	serviceAccountFile := strings.TrimSpace(opts.CredentialsFile)

	switch {
	case serviceAccountJSON != "":
		slog.DebugContext(ctx, "Using inline JSON credentials")
		return []byte(serviceAccountJSON), nil
	case serviceAccountFile != "":
		slog.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// LoadTable reads the configured range and converts it into a table.
func (c *Client) LoadTable(ctx context.Context) (core.Table, error) {
	if c.svc == nil {
		return core.Table{}, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.signsRange).Context(ctx).Do()
	if err != nil {
		return core.Table{}, fmt.Errorf("read %s: %w", c.signsRange, err)
	}
	signs, err := parseSigns(resp.Values)
	if err != nil {
		return core.Table{}, fmt.Errorf("parse %s: %w", c.signsRange, err)
	}
	return core.NewTable(signs), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
