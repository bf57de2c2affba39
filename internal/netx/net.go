// Package netx holds small HTTP helpers.
package netx

import (
	"context"
	"io"
	"net/http"
)

// Probe sends a HEAD request to url. Any HTTP response, whatever its
// status, means the host is reachable; only transport failures are
// returned. A nil client means http.DefaultClient.
func Probe(ctx context.Context, client *http.Client, url string) error {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
