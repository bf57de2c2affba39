package models

// RemoteCell is a slot's severity label and timestamp as read from the sheet.
type RemoteCell struct {
	Label     string
	Timestamp int64
}

// RemoteRow is one date's worth of remote data. RowIndex is zero-based with
// row 0 being the header, so sheet row number = RowIndex + 1.
type RemoteRow struct {
	Date     string
	RowIndex int
	Cells    map[TimeSlot]RemoteCell
}

// Timestamp returns the remote timestamp for slot, or 0 if the cell is absent.
func (r *RemoteRow) Timestamp(slot TimeSlot) int64 {
	if r == nil {
		return 0
	}
	return r.Cells[slot].Timestamp
}

// Value returns the slot's severity and timestamp. ok is false when the cell
// is absent, the label is unknown or the timestamp is not positive.
func (r *RemoteRow) Value(slot TimeSlot) (sev Severity, ts int64, ok bool) {
	if r == nil {
		return 0, 0, false
	}
	c, present := r.Cells[slot]
	if !present || c.Timestamp <= 0 {
		return 0, 0, false
	}
	sev, ok = ParseSeverityLabel(c.Label)
	if !ok {
		return 0, 0, false
	}
	return sev, c.Timestamp, true
}
