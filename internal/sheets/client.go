// Package sheets exposes one tab of a Google spreadsheet as a row table for
// the contact store.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/microlearning/site-api/internal/config"
	"github.com/microlearning/site-api/internal/domain"
	"github.com/microlearning/site-api/internal/repository/rowstore"
)

// Scope grants read/write access to spreadsheets.
const Scope = sheetsapi.SpreadsheetsScope

// lastColumn is the column letter of the final record column.
const lastColumn = "I"

var updatedRowRe = regexp.MustCompile(`![A-Z]+(\d+)`)

// Client talks to one tab of one spreadsheet.
type Client struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheets  *sheetsapi.SpreadsheetsService
	spreadsheetID string
	sheetName     string
}

var _ rowstore.Table = (*Client)(nil)

// NewClient creates a client authenticated as the configured service account.
func NewClient(ctx context.Context, cfg config.SheetsConfig) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: sheets spreadsheet id not configured", domain.ErrStoreUnavailable)
	}

	var ts oauth2.TokenSource
	switch {
	case cfg.CredentialsJSON != "":
		jwtCfg, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), Scope)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing service account credentials: %v", domain.ErrStoreUnavailable, err)
		}
		ts = jwtCfg.TokenSource(ctx)
	case cfg.ClientEmail != "" && cfg.PrivateKey != "":
		jwtCfg := &jwt.Config{
			Email:      cfg.ClientEmail,
			PrivateKey: []byte(cfg.Key()),
			Scopes:     []string{Scope},
			TokenURL:   google.JWTTokenURL,
		}
		ts = jwtCfg.TokenSource(ctx)
	default:
		return nil, fmt.Errorf("%w: sheets credentials not configured", domain.ErrStoreUnavailable)
	}

	httpClient := oauth2.NewClient(ctx, ts)
	httpClient.Timeout = cfg.Timeout()

	return NewClientWithHTTP(ctx, httpClient, cfg.BaseURL, cfg.SpreadsheetID, cfg.SheetName)
}

// NewClientWithHTTP creates a client that sends requests through httpClient
// as-is. The caller is responsible for authentication. An empty baseURL
// means the public Sheets endpoint.
func NewClientWithHTTP(ctx context.Context, httpClient *http.Client, baseURL, spreadsheetID, sheetName string) (*Client, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if baseURL != "" {
		opts = append(opts, option.WithEndpoint(strings.TrimRight(baseURL, "/")+"/"))
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: creating sheets service: %v", domain.ErrStoreUnavailable, err)
	}
	return &Client{
		values:        svc.Spreadsheets.Values,
		spreadsheets:  svc.Spreadsheets,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// ReadAll returns every row of the tab across columns A:I.
func (c *Client) ReadAll(ctx context.Context) ([][]string, error) {
	rng := c.columnsRange()
	vr, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, unavailable(rng, err)
	}
	return toStrings(vr.Values), nil
}

// ReadRow returns the cells of a single row, or nil when the row is empty
// or past the end of the grid.
func (c *Client) ReadRow(ctx context.Context, rowIndex int) ([]string, error) {
	rng := c.rowRange(rowIndex)
	vr, err := c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if isBeyondGrid(err) {
			return nil, nil
		}
		return nil, unavailable(rng, err)
	}
	rows := toStrings(vr.Values)
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// AppendRow appends cells below the last row of the table and returns the
// row number reported by the API. Zero means the response did not include
// a parsable range.
func (c *Client) AppendRow(ctx context.Context, cells []string) (int, error) {
	rng := c.columnsRange()
	body := &sheetsapi.ValueRange{Values: [][]interface{}{toValues(cells)}}

	resp, err := c.values.Append(c.spreadsheetID, rng, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, unavailable(rng, err)
	}
	if resp.Updates == nil {
		return 0, nil
	}
	return parseUpdatedRow(resp.Updates.UpdatedRange), nil
}

// WriteRow overwrites columns A:I of one row.
func (c *Client) WriteRow(ctx context.Context, rowIndex int, cells []string) error {
	rng := c.rowRange(rowIndex)
	body := &sheetsapi.ValueRange{
		Range:          rng,
		MajorDimension: "ROWS",
		Values:         [][]interface{}{toValues(cells)},
	}

	if _, err := c.values.Update(c.spreadsheetID, rng, body).ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return unavailable(rng, err)
	}
	return nil
}

// SheetTitles lists the tab names of the spreadsheet.
func (c *Client) SheetTitles(ctx context.Context) ([]string, error) {
	resp, err := c.spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: listing sheets: %v", domain.ErrStoreUnavailable, err)
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return titles, nil
}

// SheetName returns the configured tab name.
func (c *Client) SheetName() string { return c.sheetName }

func (c *Client) columnsRange() string {
	return fmt.Sprintf("%s!A:%s", quoteSheet(c.sheetName), lastColumn)
}

func (c *Client) rowRange(rowIndex int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(c.sheetName), rowIndex, lastColumn, rowIndex)
}

func unavailable(rng string, err error) error {
	return fmt.Errorf("%w: sheets range %s: %w", domain.ErrStoreUnavailable, rng, err)
}

// isBeyondGrid matches the 400 the API returns for ranges past the last row.
func isBeyondGrid(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(apiErr.Message), "exceeds grid limits")
}

// quoteSheet wraps tab names that are not plain identifiers in A1 quotes.
func quoteSheet(name string) string {
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_') {
			return "'" + strings.ReplaceAll(name, "'", "''") + "'"
		}
	}
	return name
}

func parseUpdatedRow(updatedRange string) int {
	m := updatedRowRe.FindStringSubmatch(updatedRange)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func toValues(cells []string) []interface{} {
	out := make([]interface{}, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func toStrings(values [][]interface{}) [][]string {
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch tv := v.(type) {
			case nil:
			case string:
				cells[j] = tv
			default:
				cells[j] = fmt.Sprint(tv)
			}
		}
		rows[i] = cells
	}
	return rows
}
