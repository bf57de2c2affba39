package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/healthtrend/internal/common"
)

// Severity is the ordered symptom intensity. The numeric value is used for
// ordering and averaging.
type Severity int

const (
	NoPain Severity = iota
	Mild
	Moderate
	Severe
)

// Severities lists every severity in ascending order.
var Severities = []Severity{NoPain, Mild, Moderate, Severe}

var severityLabels = map[Severity]string{
	NoPain:   "No Pain",
	Mild:     "Mild",
	Moderate: "Moderate",
	Severe:   "Severe",
}

// Label is the exact display string exchanged with the remote sheet.
func (s Severity) Label() string {
	if l, ok := severityLabels[s]; ok {
		return l
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

func (s Severity) String() string {
	return s.Label()
}

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	_, ok := severityLabels[s]
	return ok
}

// ParseSeverityLabel maps an exact remote label back to a Severity.
// Anything else, including different casing, is rejected.
func ParseSeverityLabel(label string) (Severity, bool) {
	for s, l := range severityLabels {
		if l == label {
			return s, true
		}
	}
	return 0, false
}

// ParseSeverity is the lenient parser used for user input. It accepts the
// ordinal ("2"), the label in any case ("no pain") and the compact name
// ("nopain").
func ParseSeverity(in string) (Severity, error) {
	in = strings.TrimSpace(in)
	if n, err := strconv.Atoi(in); err == nil {
		s := Severity(n)
		if s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("%w: %q", common.ErrInvalidSeverity, in)
	}

	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(in))
	for _, s := range Severities {
		if strings.ToLower(strings.ReplaceAll(s.Label(), " ", "")) == norm {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", common.ErrInvalidSeverity, in)
}

// RoundSeverity rounds an average ordinal half-up and clamps it into range.
func RoundSeverity(avg float64) Severity {
	s := Severity(int(avg + 0.5))
	if s < NoPain {
		return NoPain
	}
	if s > Severe {
		return Severe
	}
	return s
}
