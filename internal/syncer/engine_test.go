package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/logging"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = sheets.Location{URL: sheets.URLForID("sheet123"), SpreadsheetID: "sheet123"}

const testIdentity = "user@example.com"

func newTestEngine(entries *memEntries, sheet *memSheet) *Engine {
	return NewEngine(entries, sheet, &memSettings{}, common.DefaultSheetTitle, logging.Nop())
}

func unsynced(date string, slot models.TimeSlot, sev models.Severity, ts int64) models.Entry {
	return models.Entry{Date: date, Slot: slot, Severity: sev, UpdatedAt: ts}
}

// sheetRow builds a full A:I row from per-slot label/timestamp pairs.
func sheetRow(date string, cells map[models.TimeSlot]models.RemoteCell) []any {
	row := []any{date, "", "", "", "", "", "", "", ""}
	for slot, c := range cells {
		row[1+int(slot)] = c.Label
		row[5+int(slot)] = c.Timestamp
	}
	return row
}

func TestExecuteSync_NewDateOnEmptySheet(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Mild, 1000))
	sheet := newMemSheet()

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, []string{"A2", "B2", "F2"}, sheet.writes())
	assert.Equal(t, models.SyncStats{Appended: 1, Writes: 3}, stats)

	row := sheet.row(2)
	require.Len(t, row, 6)
	assert.Equal(t, "2024-01-15", row[0])
	assert.Equal(t, "Mild", row[1])
	assert.Equal(t, int64(1000), row[5])

	assert.True(t, entries.get("2024-01-15", models.Morning).Synced)
}

func TestExecuteSync_Idempotent(t *testing.T) {
	entries := newMemEntries(
		unsynced("2024-01-15", models.Morning, models.Mild, 1000),
		unsynced("2024-01-15", models.Night, models.Severe, 1100),
		unsynced("2024-01-16", models.Evening, models.NoPain, 1200),
	)
	sheet := newMemSheet()
	eng := newTestEngine(entries, sheet)

	_, err := eng.ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)
	first := sheet.writes()
	require.NotEmpty(t, first)

	stats, err := eng.ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, first, sheet.writes(), "second pass must not write")
	assert.Equal(t, models.SyncStats{}, stats)
	assert.Equal(t, 2, sheet.reads)
}

func TestExecuteSync_LocalNewerOverwritesCell(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Severe, 2000))
	sheet := newMemSheet(sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{
		models.Morning: {Label: "Mild", Timestamp: 1000},
	}))

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, []string{"B2", "F2"}, sheet.writes())
	assert.Equal(t, 1, stats.Pushed)
	assert.Equal(t, "Severe", sheet.row(2)[1])
	assert.Equal(t, int64(2000), sheet.row(2)[5])

	got := entries.get("2024-01-15", models.Morning)
	assert.True(t, got.Synced)
	assert.Equal(t, models.Severe, got.Severity)
}

func TestExecuteSync_RemoteNewerWinsOnPull(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Mild, 1000))
	sheet := newMemSheet(sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{
		models.Morning: {Label: "Severe", Timestamp: 2000},
	}))

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Empty(t, sheet.writes())
	assert.Equal(t, 1, stats.Pulled)

	want := &models.Entry{Date: "2024-01-15", Slot: models.Morning, Severity: models.Severe, UpdatedAt: 2000, Synced: true}
	if diff := cmp.Diff(want, entries.get("2024-01-15", models.Morning)); diff != "" {
		t.Errorf("local entry mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteSync_EqualTimestampsMarkSynced(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Mild, 1000))
	sheet := newMemSheet(sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{
		models.Morning: {Label: "Moderate", Timestamp: 1000},
	}))

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Empty(t, sheet.writes())
	assert.Equal(t, models.SyncStats{Marked: 1}, stats)

	got := entries.get("2024-01-15", models.Morning)
	assert.True(t, got.Synced)
	assert.Equal(t, models.Mild, got.Severity)
}

func TestExecuteSync_TwoNewDatesGetConsecutiveRows(t *testing.T) {
	entries := newMemEntries(
		unsynced("2024-01-15", models.Morning, models.Mild, 1000),
		unsynced("2024-01-16", models.Evening, models.Severe, 1001),
	)
	sheet := newMemSheet()

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, []string{"A2", "B2", "F2", "A3", "D3", "H3"}, sheet.writes())
	assert.Equal(t, 2, stats.Appended)
	assert.Equal(t, 6, stats.Writes)
	assert.Equal(t, "2024-01-16", sheet.row(3)[0])
}

func TestExecuteSync_SecondSlotOfNewDateReusesRow(t *testing.T) {
	entries := newMemEntries(
		unsynced("2024-01-15", models.Morning, models.Mild, 1000),
		unsynced("2024-01-15", models.Afternoon, models.Moderate, 1001),
	)
	sheet := newMemSheet()

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, []string{"A2", "B2", "F2", "C2", "G2"}, sheet.writes())
	assert.Equal(t, 1, stats.Appended)
	assert.Equal(t, 1, stats.Pushed)
	assert.Nil(t, sheet.row(3))
}

func TestExecuteSync_NewRowAfterHighestIndex(t *testing.T) {
	entries := newMemEntries(unsynced("2024-02-01", models.Night, models.NoPain, 5000))
	sheet := newMemSheet(
		sheetRow("2024-01-15", nil),
		nil,
		sheetRow("2024-01-17", nil),
	)

	_, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, []string{"A5", "E5", "I5"}, sheet.writes())
}

func TestExecuteSync_PullCreatesAndSkipsMalformed(t *testing.T) {
	entries := newMemEntries()
	sheet := newMemSheet(sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{
		models.Morning:   {Label: "Moderate", Timestamp: 1500},
		models.Afternoon: {Label: "Extreme", Timestamp: 1600},
		models.Evening:   {Label: "Mild", Timestamp: 0},
		models.Night:     {Label: "mild", Timestamp: 1700},
	}))

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Empty(t, sheet.writes())
	assert.Equal(t, 1, stats.Pulled)
	assert.Equal(t, 3, stats.Skipped)

	got := entries.get("2024-01-15", models.Morning)
	require.NotNil(t, got)
	assert.Equal(t, models.Moderate, got.Severity)
	assert.Equal(t, int64(1500), got.UpdatedAt)
	assert.True(t, got.Synced)

	for _, slot := range []models.TimeSlot{models.Afternoon, models.Evening, models.Night} {
		assert.Nil(t, entries.get("2024-01-15", slot), slot.String())
	}
}

func TestExecuteSync_PullKeepsNewerLocal(t *testing.T) {
	local := models.Entry{Date: "2024-01-15", Slot: models.Morning, Severity: models.Mild, UpdatedAt: 3000, Synced: true}
	entries := newMemEntries(local)
	sheet := newMemSheet(sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{
		models.Morning: {Label: "Severe", Timestamp: 2000},
	}))

	stats, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Zero(t, stats.Pulled)
	if diff := cmp.Diff(&local, entries.get("2024-01-15", models.Morning)); diff != "" {
		t.Errorf("local entry changed (-want +got):\n%s", diff)
	}
}

func TestExecuteSync_ReadErrorPropagates(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Mild, 1000))
	sheet := newMemSheet()
	sheet.readErr = common.ErrUnavailable

	_, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.ErrorIs(t, err, common.ErrUnavailable)

	assert.Empty(t, sheet.writes())
	assert.False(t, entries.get("2024-01-15", models.Morning).Synced)
}

func TestExecuteSync_WriteErrorLeavesEntryPending(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Mild, 1000))
	sheet := newMemSheet()
	sheet.writeErr = common.ErrRateLimited
	sheet.failAt = 1

	_, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.ErrorIs(t, err, common.ErrRateLimited)

	assert.Equal(t, []string{"A2"}, sheet.writes())
	assert.False(t, entries.get("2024-01-15", models.Morning).Synced)
}

func TestExecuteSync_LocalStoreError(t *testing.T) {
	boom := errors.New("disk gone")
	entries := newMemEntries()
	entries.listErr = boom

	_, err := newTestEngine(entries, newMemSheet()).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.ErrorIs(t, err, boom)
}

func TestExecuteSync_CanceledContext(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Mild, 1000))
	sheet := newMemSheet()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestEngine(entries, sheet).ExecuteSync(ctx, testLoc, testIdentity)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sheet.writes())
}

func TestExecuteSync_DuplicateDateRowsUseFirst(t *testing.T) {
	entries := newMemEntries(unsynced("2024-01-15", models.Morning, models.Severe, 2000))
	sheet := newMemSheet(
		sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{models.Morning: {Label: "Mild", Timestamp: 1000}}),
		sheetRow("2024-01-15", map[models.TimeSlot]models.RemoteCell{models.Morning: {Label: "Mild", Timestamp: 9000}}),
	)

	_, err := newTestEngine(entries, sheet).ExecuteSync(context.Background(), testLoc, testIdentity)
	require.NoError(t, err)

	assert.Equal(t, []string{"B2", "F2"}, sheet.writes())
	assert.Equal(t, int64(2000), entries.get("2024-01-15", models.Morning).UpdatedAt)
}
