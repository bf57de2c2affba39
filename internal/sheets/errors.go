package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/healthtrend/internal/common"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

// mapError converts Google API and transport errors into the shared
// sentinels, keeping the original error text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, common.ErrUnauthorized) || errors.Is(err, common.ErrNoCredentials) {
		return err
	}

	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	}

	switch {
	case gerr.Code == http.StatusTooManyRequests || isRateLimitReason(gerr):
		return fmt.Errorf("%w: %v", common.ErrRateLimited, err)
	case gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden:
		return fmt.Errorf("%w: %v", common.ErrUnauthorized, err)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %v", common.ErrSheetNotFound, err)
	case gerr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %v", common.ErrUnavailable, err)
	default:
		return fmt.Errorf("remote request failed: %w", err)
	}
}

func isRateLimitReason(gerr *googleapi.Error) bool {
	for _, item := range gerr.Errors {
		switch item.Reason {
		case "rateLimitExceeded", "userRateLimitExceeded", "quotaExceeded":
			return true
		}
	}
	return false
}
