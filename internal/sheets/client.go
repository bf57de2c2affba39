// Package sheets talks to the remote Google Sheet that mirrors the local
// entries: one row per date, fixed columns per time slot.
package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/netx"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

// ClientSource returns an authorized HTTP client for an account.
type ClientSource interface {
	Client(ctx context.Context, identity string) (*http.Client, error)
}

// GoogleClient implements the remote sheet store on the Sheets and Drive
// APIs. Each call is an independent request.
type GoogleClient struct {
	source  ClientSource
	tab     string
	opts    []option.ClientOption
	pingURL string
	logger  logging.Logger
}

type Option func(*GoogleClient)

// WithClientOptions adds API client options, e.g. a test endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *GoogleClient) { c.opts = append(c.opts, opts...) }
}

// WithPingURL overrides the URL probed by Ping.
func WithPingURL(url string) Option {
	return func(c *GoogleClient) { c.pingURL = url }
}

func NewGoogleClient(source ClientSource, tab string, logger logging.Logger, opts ...Option) *GoogleClient {
	c := &GoogleClient{
		source:  source,
		tab:     tab,
		pingURL: "https://sheets.googleapis.com/",
		logger:  logger.With("module", "sheets"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *GoogleClient) clientOptions(ctx context.Context, identity string) ([]option.ClientOption, error) {
	httpc, err := c.source.Client(ctx, identity)
	if err != nil {
		return nil, err
	}
	return append([]option.ClientOption{option.WithHTTPClient(httpc)}, c.opts...), nil
}

func (c *GoogleClient) sheetsService(ctx context.Context, identity string) (*gsheets.Service, error) {
	opts, err := c.clientOptions(ctx, identity)
	if err != nil {
		return nil, mapError(err)
	}
	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return srv, nil
}

func (c *GoogleClient) driveService(ctx context.Context, identity string) (*drive.Service, error) {
	opts, err := c.clientOptions(ctx, identity)
	if err != nil {
		return nil, mapError(err)
	}
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return srv, nil
}

// a1 qualifies ref with the quoted tab name, so names with spaces or
// quotes stay valid A1 notation.
func (c *GoogleClient) a1(ref string) string {
	return "'" + strings.ReplaceAll(c.tab, "'", "''") + "'!" + ref
}

// ReadAll returns every data row of the sheet.
func (c *GoogleClient) ReadAll(ctx context.Context, loc Location, identity string) ([]models.RemoteRow, error) {
	srv, err := c.sheetsService(ctx, identity)
	if err != nil {
		return nil, err
	}

	resp, err := srv.Spreadsheets.Values.Get(loc.SpreadsheetID, c.a1(DateColumn+":"+LastColumn)).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapError(err)
	}

	rows := ParseRows(resp.Values)
	c.logger.Debug(ctx, "sheet read", "rows", len(rows))
	return rows, nil
}

// WriteCell writes a single value. Values are stored raw so timestamps stay
// numbers and dates stay text.
func (c *GoogleClient) WriteCell(ctx context.Context, loc Location, identity string, cell CellAddress, value any) error {
	srv, err := c.sheetsService(ctx, identity)
	if err != nil {
		return err
	}

	_, err = srv.Spreadsheets.Values.Update(loc.SpreadsheetID, c.a1(string(cell)), &gsheets.ValueRange{
		Values: [][]any{{value}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return mapError(err)
	}
	c.logger.Debug(ctx, "cell written", "cell", string(cell))
	return nil
}

// AppendRow appends values after the last non-empty row.
func (c *GoogleClient) AppendRow(ctx context.Context, loc Location, identity string, values []any) error {
	srv, err := c.sheetsService(ctx, identity)
	if err != nil {
		return err
	}

	_, err = srv.Spreadsheets.Values.Append(loc.SpreadsheetID, c.a1(DateColumn+"1"), &gsheets.ValueRange{
		Values: [][]any{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return mapError(err)
}

// FindByTitle looks for a spreadsheet named title visible to the account.
func (c *GoogleClient) FindByTitle(ctx context.Context, identity, title string) (Location, bool, error) {
	srv, err := c.driveService(ctx, identity)
	if err != nil {
		return Location{}, false, err
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", escapeQuery(title), spreadsheetMimeType)
	resp, err := srv.Files.List().
		Q(q).
		Spaces("drive").
		Fields(googleapi.Field("files(id, name, webViewLink)")).
		PageSize(10).
		Context(ctx).
		Do()
	if err != nil {
		return Location{}, false, mapError(err)
	}
	if len(resp.Files) == 0 {
		return Location{}, false, nil
	}
	if len(resp.Files) > 1 {
		c.logger.Warn(ctx, "several sheets share the title, using the first", "title", title, "count", len(resp.Files))
	}

	f := resp.Files[0]
	url := f.WebViewLink
	if url == "" {
		url = URLForID(f.Id)
	}
	return Location{URL: url, SpreadsheetID: f.Id}, true, nil
}

// Create makes a new spreadsheet with a single tab named after the
// configured data tab.
func (c *GoogleClient) Create(ctx context.Context, identity, title string) (Location, error) {
	srv, err := c.sheetsService(ctx, identity)
	if err != nil {
		return Location{}, err
	}

	resp, err := srv.Spreadsheets.Create(&gsheets.Spreadsheet{
		Properties: &gsheets.SpreadsheetProperties{Title: title},
		Sheets: []*gsheets.Sheet{
			{Properties: &gsheets.SheetProperties{Title: c.tab}},
		},
	}).Fields(googleapi.Field("spreadsheetId,spreadsheetUrl")).Context(ctx).Do()
	if err != nil {
		return Location{}, mapError(err)
	}

	url := resp.SpreadsheetUrl
	if url == "" {
		url = URLForID(resp.SpreadsheetId)
	}
	c.logger.Info(ctx, "sheet created", "title", title, "id", resp.SpreadsheetId)
	return Location{URL: url, SpreadsheetID: resp.SpreadsheetId}, nil
}

// Ping reports whether the Sheets endpoint answers at all. Any HTTP
// response counts as reachable.
func (c *GoogleClient) Ping(ctx context.Context) error {
	if err := netx.Probe(ctx, nil, c.pingURL); err != nil {
		return mapError(err)
	}
	return nil
}

func escapeQuery(s string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(s)
}
