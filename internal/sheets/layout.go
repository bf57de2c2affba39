package sheets

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/models"
)

// Fixed sheet layout: A is the date, B..E hold severity labels and F..I the
// epoch-millisecond timestamps, both in TimeSlot order.
const (
	DateColumn = "A"
	LastColumn = "I"

	firstSeverityCol  = 'B'
	firstTimestampCol = 'F'
	slotCount         = 4
)

// HeaderRow is written once when a sheet is created.
var HeaderRow = []any{
	"Date",
	"Morning", "Afternoon", "Evening", "Night",
	"Morning Timestamp", "Afternoon Timestamp", "Evening Timestamp", "Night Timestamp",
}

// SeverityColumn returns the column letter holding slot's severity label.
func SeverityColumn(slot models.TimeSlot) string {
	return string(rune(firstSeverityCol + int(slot)))
}

// TimestampColumn returns the column letter holding slot's timestamp.
func TimestampColumn(slot models.TimeSlot) string {
	return string(rune(firstTimestampCol + int(slot)))
}

// CellAddress is a column letter immediately followed by a one-based row
// number, e.g. "F7".
type CellAddress string

func Cell(column string, row int) CellAddress {
	return CellAddress(column + strconv.Itoa(row))
}

// NextRow returns the one-based row number for a new date given the rows
// already present. Row 1 is the header.
func NextRow(rows []models.RemoteRow) int {
	maxIdx := -1
	for _, r := range rows {
		if r.RowIndex > maxIdx {
			maxIdx = r.RowIndex
		}
	}
	if maxIdx < 1 {
		return 2
	}
	return maxIdx + 2
}

// Location addresses one remote spreadsheet.
type Location struct {
	URL           string
	SpreadsheetID string
}

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// ParseLocation extracts the spreadsheet id from a sheet URL.
func ParseLocation(url string) (Location, error) {
	m := spreadsheetIDPattern.FindStringSubmatch(url)
	if m == nil {
		return Location{}, fmt.Errorf("%w: %q", common.ErrInvalidSheetURL, url)
	}
	return Location{URL: url, SpreadsheetID: m[1]}, nil
}

// URLForID builds the canonical edit URL for a spreadsheet id.
func URLForID(id string) string {
	return "https://docs.google.com/spreadsheets/d/" + id + "/edit"
}

// ParseRows converts the raw A:I value grid into RemoteRows. Row 0 is the
// header and is skipped, as are rows without a date. Labels are kept exactly
// as read; validation of labels and timestamps is left to
// models.RemoteRow.Value.
func ParseRows(values [][]any) []models.RemoteRow {
	rows := make([]models.RemoteRow, 0, len(values))
	for i, raw := range values {
		if i == 0 || len(raw) == 0 {
			continue
		}
		date := dateValue(raw[0])
		if date == "" {
			continue
		}

		row := models.RemoteRow{Date: date, RowIndex: i, Cells: make(map[models.TimeSlot]models.RemoteCell)}
		for _, slot := range models.TimeSlots {
			label := stringValue(at(raw, 1+int(slot)))
			ts := int64Value(at(raw, 1+slotCount+int(slot)))
			if strings.TrimSpace(label) == "" && ts == 0 {
				continue
			}
			row.Cells[slot] = models.RemoteCell{Label: label, Timestamp: ts}
		}
		rows = append(rows, row)
	}
	return rows
}

func at(raw []any, i int) any {
	if i < len(raw) {
		return raw[i]
	}
	return nil
}

func stringValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func int64Value(v any) int64 {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0
		}
		return int64(x)
	case int64:
		return x
	case int:
		return int64(x)
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f)
		}
	}
	return 0
}

// sheetsEpoch is day zero of spreadsheet serial dates.
var sheetsEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// dateValue accepts the ISO text we write and, for rows typed by hand, the
// serial number an unformatted read returns for date cells.
func dateValue(v any) string {
	switch x := v.(type) {
	case float64:
		if x <= 0 {
			return ""
		}
		return sheetsEpoch.AddDate(0, 0, int(x)).Format(common.DateLayout)
	default:
		return strings.TrimSpace(stringValue(v))
	}
}
