package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/entries"
)

type EntryService interface {
	Log(ctx context.Context, date string, slot models.TimeSlot, sev models.Severity) (*models.Entry, error)
	List(ctx context.Context, from, to string) ([]*models.Entry, error)
	Day(ctx context.Context, date string) ([]*models.Entry, error)
	Trends(ctx context.Context, from, to string) ([]models.DailySummary, error)
}

type entryService struct {
	entryRepo entries.Repository
	onWrite   func(ctx context.Context)
	now       func() time.Time
}

// NewEntryService returns an EntryService. onWrite, if not nil, is called
// after every successful Log.
func NewEntryService(entryRepo entries.Repository, onWrite func(ctx context.Context)) EntryService {
	return &entryService{entryRepo: entryRepo, onWrite: onWrite, now: time.Now}
}

func (s *entryService) Log(ctx context.Context, date string, slot models.TimeSlot, sev models.Severity) (*models.Entry, error) {
	if err := models.ValidateDate(date); err != nil {
		return nil, err
	}
	if !slot.Valid() {
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidSlot, int(slot))
	}
	if !sev.Valid() {
		return nil, fmt.Errorf("%w: %d", common.ErrInvalidSeverity, int(sev))
	}

	// The repository bumps UpdatedAt past the stored value in the same
	// statement, so an edit always supersedes what it replaced.
	e := &models.Entry{
		Date:      date,
		Slot:      slot,
		Severity:  sev,
		UpdatedAt: s.now().UnixMilli(),
		Synced:    false,
	}
	if err := s.entryRepo.Upsert(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}

	if s.onWrite != nil {
		s.onWrite(ctx)
	}
	return e, nil
}

func (s *entryService) List(ctx context.Context, from, to string) ([]*models.Entry, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}
	rows, err := s.entryRepo.ListByDateRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("error listing entries: %w", err)
	}
	return rows, nil
}

func (s *entryService) Day(ctx context.Context, date string) ([]*models.Entry, error) {
	if err := models.ValidateDate(date); err != nil {
		return nil, err
	}
	return s.List(ctx, date, date)
}

func (s *entryService) Trends(ctx context.Context, from, to string) ([]models.DailySummary, error) {
	rows, err := s.List(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return Summarize(rows), nil
}

// Summarize groups entries by date, in date order. Dates without entries
// do not appear.
func Summarize(rows []*models.Entry) []models.DailySummary {
	byDate := make(map[string]*models.DailySummary)
	sums := make(map[string]int)

	for _, e := range rows {
		d, ok := byDate[e.Date]
		if !ok {
			d = &models.DailySummary{Date: e.Date, Peak: e.Severity}
			byDate[e.Date] = d
		}
		d.Count++
		sums[e.Date] += int(e.Severity)
		if e.Severity > d.Peak {
			d.Peak = e.Severity
		}
	}

	out := make([]models.DailySummary, 0, len(byDate))
	for date, d := range byDate {
		d.Average = float64(sums[date]) / float64(d.Count)
		d.Rounded = models.RoundSeverity(d.Average)
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

func validateRange(from, to string) error {
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if err := models.ValidateDate(d); err != nil {
			return err
		}
	}
	if from != "" && to != "" && from > to {
		return fmt.Errorf("%w: range %s..%s is reversed", common.ErrInvalidDate, from, to)
	}
	return nil
}
