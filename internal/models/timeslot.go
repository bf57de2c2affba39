package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/healthtrend/internal/common"
)

// TimeSlot is one of the four daily periods. Declaration order is the
// column order in the remote sheet.
type TimeSlot int

const (
	Morning TimeSlot = iota
	Afternoon
	Evening
	Night
)

// TimeSlots lists every slot in declaration order.
var TimeSlots = []TimeSlot{Morning, Afternoon, Evening, Night}

var slotNames = [...]string{"Morning", "Afternoon", "Evening", "Night"}

func (t TimeSlot) String() string {
	if t.Valid() {
		return slotNames[t]
	}
	return fmt.Sprintf("TimeSlot(%d)", int(t))
}

func (t TimeSlot) Valid() bool {
	return t >= Morning && t <= Night
}

// ParseTimeSlot accepts the slot name in any case, or its one-letter prefix.
func ParseTimeSlot(in string) (TimeSlot, error) {
	in = strings.ToLower(strings.TrimSpace(in))
	for _, t := range TimeSlots {
		name := strings.ToLower(t.String())
		if in == name || (len(in) == 1 && strings.HasPrefix(name, in)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", common.ErrInvalidSlot, in)
}
