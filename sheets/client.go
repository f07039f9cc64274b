package sheets

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	gsheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"
)

// CellUpdate addresses a single cell of a sheet tab in A1 notation ("E3").
type CellUpdate struct {
	Sheet string
	Ref   string
	Value string
}

// API is the raw spreadsheet surface the gateway needs. The production
// implementation talks to Google Sheets; tests substitute an in-memory sheet.
type API interface {
	SheetTitles(ctx context.Context) ([]string, error)
	ColumnValues(ctx context.Context, sheet, column string) ([]string, error)
	BatchUpdateCells(ctx context.Context, updates []CellUpdate) error
	UpdateCell(ctx context.Context, sheet, ref, value string) error
}

var spreadsheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// Client implements API against the Google Sheets v4 API.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// NewClient authenticates with a service-account credentials file and resolves
// the spreadsheet from its URL. Any misconfiguration is fatal to the caller:
// the bot cannot run without its inventory.
func NewClient(ctx context.Context, credentialsFile, spreadsheetURL string) (*Client, error) {
	if credentialsFile == "" {
		return nil, errors.New("GOOGLE_SHEETS_CREDENTIALS_FILE is empty")
	}
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, errors.Wrapf(err, "credentials file not found at %s", credentialsFile)
	}
	if spreadsheetURL == "" {
		return nil, errors.New("GOOGLE_SHEETS_URL is empty")
	}
	m := spreadsheetIDRe.FindStringSubmatch(spreadsheetURL)
	if m == nil {
		return nil, errors.Errorf("cannot extract spreadsheet id from URL %q", spreadsheetURL)
	}

	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, errors.Wrap(err, "initializing Google Sheets service")
	}

	logrus.Infof("sheets: connected to spreadsheet %s", m[1])
	return &Client{svc: svc, spreadsheetID: m[1]}, nil
}

func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			titles = append(titles, sh.Properties.Title)
		}
	}
	return titles, nil
}

func (c *Client) ColumnValues(ctx context.Context, sheet, column string) ([]string, error) {
	rng := fmt.Sprintf("%s!%s:%s", quoteSheet(sheet), column, column)
	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(vr.Values))
	for _, row := range vr.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(row[0]))
	}
	return values, nil
}

func (c *Client) BatchUpdateCells(ctx context.Context, updates []CellUpdate) error {
	data := make([]*gsheets.ValueRange, 0, len(updates))
	for _, u := range updates {
		data = append(data, &gsheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s", quoteSheet(u.Sheet), u.Ref),
			Values: [][]interface{}{{u.Value}},
		})
	}
	_, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, &gsheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	return err
}

func (c *Client) UpdateCell(ctx context.Context, sheet, ref, value string) error {
	rng := fmt.Sprintf("%s!%s", quoteSheet(sheet), ref)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// quoteSheet wraps a tab title in single quotes so titles with spaces or
// special characters stay valid in A1 notation.
func quoteSheet(sheet string) string {
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}
