package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"github.com/dmitrijs2005/healthtrend/internal/models"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/entries"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/settings"
	"github.com/dmitrijs2005/healthtrend/internal/repositories/syncruns"
	"github.com/dmitrijs2005/healthtrend/internal/sheets"
	"github.com/dmitrijs2005/healthtrend/internal/storage"
)

// CredentialForgetter drops stored credentials for an account.
type CredentialForgetter interface {
	Forget(identity string) error
}

// Transactor runs fn with repositories bound to a single transaction.
type Transactor interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos *storage.Repositories) error) error
}

// Status is a snapshot of the local sync state.
type Status struct {
	Identity string
	SheetURL string
	Entries  int
	Pending  int
	LastRun  *models.SyncRun
}

type SettingsService interface {
	SignIn(ctx context.Context, identity string) error
	SignOut(ctx context.Context) error
	SetSheetURL(ctx context.Context, url string) error
	SheetURL(ctx context.Context) (string, error)
	Identity(ctx context.Context) (string, error)
	Status(ctx context.Context) (*Status, error)
}

type settingsService struct {
	tx           Transactor
	settingsRepo settings.Repository
	entryRepo    entries.Repository
	runRepo      syncruns.Repository
	creds        CredentialForgetter
}

// NewSettingsService returns a SettingsService. Account changes touch
// several keys and run inside tx; a nil tx writes through settingsRepo.
func NewSettingsService(tx Transactor, settingsRepo settings.Repository, entryRepo entries.Repository, runRepo syncruns.Repository, creds CredentialForgetter) SettingsService {
	return &settingsService{tx: tx, settingsRepo: settingsRepo, entryRepo: entryRepo, runRepo: runRepo, creds: creds}
}

func (s *settingsService) inTx(ctx context.Context, fn func(ctx context.Context, repo settings.Repository) error) error {
	if s.tx == nil {
		return fn(ctx, s.settingsRepo)
	}
	return s.tx.WithTx(ctx, func(ctx context.Context, repos *storage.Repositories) error {
		return fn(ctx, repos.Settings)
	})
}

// SignIn records identity as the active account. Switching to a different
// account forgets the sheet URL, since the new account may not see it.
func (s *settingsService) SignIn(ctx context.Context, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return common.ErrNotSignedIn
	}

	return s.inTx(ctx, func(ctx context.Context, repo settings.Repository) error {
		current, err := readSetting(ctx, repo, common.SettingIdentity)
		if err != nil {
			return err
		}
		if current != "" && current != identity {
			if err := repo.Delete(ctx, common.SettingSheetURL); err != nil {
				return fmt.Errorf("error clearing sheet url: %w", err)
			}
		}
		if err := repo.Set(ctx, common.SettingIdentity, identity); err != nil {
			return fmt.Errorf("error saving identity: %w", err)
		}
		return nil
	})
}

// SignOut clears the account and its sheet together, then drops the stored
// credentials.
func (s *settingsService) SignOut(ctx context.Context) error {
	var identity string
	err := s.inTx(ctx, func(ctx context.Context, repo settings.Repository) error {
		var err error
		if identity, err = readSetting(ctx, repo, common.SettingIdentity); err != nil {
			return err
		}
		for _, key := range []string{common.SettingIdentity, common.SettingSheetURL} {
			if err := repo.Delete(ctx, key); err != nil {
				return fmt.Errorf("error clearing %s: %w", key, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if identity != "" && s.creds != nil {
		if err := s.creds.Forget(identity); err != nil {
			return fmt.Errorf("error removing credentials: %w", err)
		}
	}
	return nil
}

func (s *settingsService) SetSheetURL(ctx context.Context, url string) error {
	loc, err := sheets.ParseLocation(strings.TrimSpace(url))
	if err != nil {
		return err
	}
	if err := s.settingsRepo.Set(ctx, common.SettingSheetURL, loc.URL); err != nil {
		return fmt.Errorf("error saving sheet url: %w", err)
	}
	return nil
}

func (s *settingsService) SheetURL(ctx context.Context) (string, error) {
	return s.get(ctx, common.SettingSheetURL)
}

func (s *settingsService) Identity(ctx context.Context) (string, error) {
	return s.get(ctx, common.SettingIdentity)
}

func (s *settingsService) get(ctx context.Context, key string) (string, error) {
	return readSetting(ctx, s.settingsRepo, key)
}

func readSetting(ctx context.Context, repo settings.Repository, key string) (string, error) {
	v, err := repo.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", key, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (s *settingsService) Status(ctx context.Context) (*Status, error) {
	st := &Status{}
	var err error

	if st.Identity, err = s.Identity(ctx); err != nil {
		return nil, err
	}
	if st.SheetURL, err = s.SheetURL(ctx); err != nil {
		return nil, err
	}
	if st.Entries, err = s.entryRepo.Count(ctx); err != nil {
		return nil, err
	}
	if st.Pending, err = s.entryRepo.CountUnsynced(ctx); err != nil {
		return nil, err
	}

	runs, err := s.runRepo.Latest(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) > 0 {
		st.LastRun = runs[0]
	}
	return st, nil
}
