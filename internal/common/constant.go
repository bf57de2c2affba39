package common

// DefaultSheetTitle is the title used to find or create the remote sheet.
const DefaultSheetTitle = "HealthTrend Data"

// DateLayout is the layout of entry dates, both locally and in column A.
const DateLayout = "2006-01-02"

// Settings keys.
const (
	SettingSheetURL = "sheet_url"
	SettingIdentity = "account_identity"
)

// SyncWorkName keys the single sync job; a trigger for the same name while
// a run is in flight is dropped.
const SyncWorkName = "healthtrend-sync"
