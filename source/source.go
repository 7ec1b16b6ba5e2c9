// Package source fetches an input PDF from wherever it lives before the
// pipeline rasterizes it: a bare URL, a Google Drive file, or an OoDrive
// share item.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/stampwise/stampwise/observability"
)

// Reference identifies a PDF to fetch. Exactly one of the ID-bearing fields
// is meaningful for a given Fetcher implementation.
type Reference struct {
	// URL is used by the URL fetcher.
	URL string
	// FileID is a Google Drive file ID or an OoDrive item ID.
	FileID string
	// AccessToken is the bearer/OAuth2 token for Drive and OoDrive.
	AccessToken string
}

// Fetcher retrieves the bytes of a source PDF.
type Fetcher interface {
	Fetch(ctx context.Context, ref Reference) (io.ReadCloser, error)
}

// HTTPDoer is the subset of *http.Client that fetchers depend on, so tests
// can substitute a stub transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return fmt.Errorf("source: unexpected status %s", resp.Status)
	}
	return nil
}

// URL fetches a PDF from a plain HTTP(S) URL.
type URL struct {
	Client HTTPDoer
	Logger observability.Logger
}

func (f URL) client() HTTPDoer {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f URL) logger() observability.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return observability.NopLogger{}
}

// Fetch downloads ref.URL and returns its body unread.
func (f URL) Fetch(ctx context.Context, ref Reference) (io.ReadCloser, error) {
	if ref.URL == "" {
		return nil, fmt.Errorf("source: empty URL reference")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		f.logger().Error("source: download failed", observability.String("url", ref.URL), observability.Error("err", err))
		return nil, fmt.Errorf("source: download %s: %w", ref.URL, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	f.logger().Info("source: download succeeded", observability.String("url", ref.URL))
	return resp.Body, nil
}

// Drive fetches a file from Google Drive via its v3 download endpoint, using
// a caller-supplied OAuth2 access token rather than a service-account
// credential flow, mirroring the original's request-scoped bearer token.
type Drive struct {
	Client HTTPDoer
	Logger observability.Logger
}

func (f Drive) client() HTTPDoer {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f Drive) logger() observability.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return observability.NopLogger{}
}

// Fetch downloads ref.FileID from Google Drive using ref.AccessToken.
func (f Drive) Fetch(ctx context.Context, ref Reference) (io.ReadCloser, error) {
	if ref.FileID == "" {
		return nil, fmt.Errorf("source: empty Drive file id")
	}
	if ref.AccessToken == "" {
		return nil, fmt.Errorf("source: empty Drive access token")
	}
	endpoint := fmt.Sprintf("https://www.googleapis.com/drive/v3/files/%s?alt=media", ref.FileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+ref.AccessToken)

	resp, err := f.client().Do(req)
	if err != nil {
		f.logger().Error("source: drive download failed", observability.String("fileID", ref.FileID), observability.Error("err", err))
		return nil, fmt.Errorf("source: download drive file %s: %w", ref.FileID, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	f.logger().Info("source: drive download succeeded", observability.String("fileID", ref.FileID))
	return resp.Body, nil
}

// OoDrive fetches a shared item from Oodrive's sharing API.
type OoDrive struct {
	Client   HTTPDoer
	Logger   observability.Logger
	ClientID string
}

func (f OoDrive) client() HTTPDoer {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f OoDrive) logger() observability.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return observability.NopLogger{}
}

func (f OoDrive) clientID() string {
	if f.ClientID != "" {
		return f.ClientID
	}
	return "broker-defense"
}

// Fetch downloads ref.FileID from Oodrive's sharing API using ref.AccessToken.
func (f OoDrive) Fetch(ctx context.Context, ref Reference) (io.ReadCloser, error) {
	if ref.FileID == "" {
		return nil, fmt.Errorf("source: empty OoDrive item id")
	}
	endpoint := fmt.Sprintf("https://sharing.oodrive.com/share/api/v1/io/items/%s", ref.FileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("source: build request: %w", err)
	}
	req.Header.Set("XClientId", f.clientID())
	req.Header.Set("Authorization", "Bearer "+ref.AccessToken)

	resp, err := f.client().Do(req)
	if err != nil {
		f.logger().Error("source: oodrive download failed", observability.String("itemID", ref.FileID), observability.Error("err", err))
		return nil, fmt.Errorf("source: download oodrive item %s: %w", ref.FileID, err)
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	f.logger().Info("source: oodrive download succeeded", observability.String("itemID", ref.FileID))
	return resp.Body, nil
}
