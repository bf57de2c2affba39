// Package models contains the domain types shared by storage, the sync
// engine and the services.
package models

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
)

// Entry is one severity observation for a date and time slot.
// (Date, Slot) is unique; ID is a local surrogate key only.
type Entry struct {
	ID        int64
	Date      string
	Slot      TimeSlot
	Severity  Severity
	UpdatedAt int64
	Synced    bool
}

// Key identifies an entry independent of its surrogate id.
type Key struct {
	Date string
	Slot TimeSlot
}

func (e *Entry) Key() Key {
	return Key{Date: e.Date, Slot: e.Slot}
}

// ValidateDate checks that d is a calendar date in DateLayout.
func ValidateDate(d string) error {
	if _, err := time.Parse(common.DateLayout, d); err != nil {
		return fmt.Errorf("%w: %q", common.ErrInvalidDate, d)
	}
	return nil
}
