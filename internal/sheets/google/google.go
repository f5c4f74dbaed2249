// Package google writes tables to a Google Sheets spreadsheet using a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finplan/internal/log"
	"finplan/internal/sheets"
)

var ErrNotInitialized = errors.New("sheets service not initialized")

// Config selects the spreadsheet and the credentials used to reach it.
// Endpoint overrides the API base URL; it is meant for emulators and tests
// and skips authentication.
type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
	Endpoint           string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger

	mu     sync.Mutex
	titles map[string]bool
}

var _ sheets.TableWriter = (*Client)(nil)

// New creates a Sheets client. Credentials come from cfg, falling back to
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		titles:        make(map[string]bool),
	}, nil
}

func newSheetsService(ctx context.Context, cfg Config, logger *log.Logger) (*gsheet.Service, error) {
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		logger.InfoContext(ctx, "Using custom Sheets endpoint", "endpoint", endpoint)
		return gsheet.NewService(ctx,
			goption.WithEndpoint(endpoint),
			goption.WithHTTPClient(newHTTPClientWithPooling()))
	}

	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		logger.DebugContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		var err error
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	logger.InfoContext(ctx, "Google Sheets service created")
	return service, nil
}

// newHTTPClientWithPooling creates an HTTP client with connection pooling
// and bounded timeouts for the Sheets API.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// WriteTable replaces the sheet titled t.Title with t, creating the sheet
// when the spreadsheet does not have it yet.
func (c *Client) WriteTable(ctx context.Context, t sheets.Table) (string, error) {
	if c.svc == nil {
		return "", ErrNotInitialized
	}
	if t.Title == "" {
		return "", errors.New("table title is required")
	}

	if err := c.ensureSheet(ctx, t.Title); err != nil {
		return "", err
	}

	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheets.QuoteTitle(t.Title), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear sheet %s: %w", t.Title, err)
	}

	values := t.Values()
	rng := sheets.A1Range(t.Title, len(values), len(t.Header))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Table written",
		log.FieldSheet, t.Title,
		log.FieldRows, len(t.Rows))
	return rng, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.titles[title] {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			c.titles[s.Properties.Title] = true
		}
	}
	if c.titles[title] {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.titles[title] = true
	c.logger.InfoContext(ctx, "Sheet created", log.FieldSheet, title)
	return nil
}
