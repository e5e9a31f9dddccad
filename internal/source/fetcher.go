package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// FetchError reports which stage of a source fetch failed. The fetcher never
// retries; callers decide whether to rerun the whole operation.
type FetchError struct {
	Stage string // "metadata" or "download"
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher resolves a build source against the package registry and downloads
// its latest tarball.
type Fetcher struct {
	client   *http.Client
	registry string
	log      zerolog.Logger
}

// NewFetcher creates a fetcher against the given registry base URL.
func NewFetcher(registry string, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client:   &http.Client{Timeout: 60 * time.Second},
		registry: registry,
		log:      log.With().Str("component", "fetcher").Logger(),
	}
}

// packageMetadata is the slice of the registry document we care about.
type packageMetadata struct {
	Version string `json:"version"`
	Dist    struct {
		Tarball string `json:"tarball"`
	} `json:"dist"`
}

// FetchLatest looks up the source's latest version metadata and downloads
// the referenced tarball.
func (f *Fetcher) FetchLatest(ctx context.Context, source string) ([]byte, error) {
	meta, err := f.fetchMetadata(ctx, source)
	if err != nil {
		return nil, &FetchError{Stage: "metadata", Err: err}
	}

	f.log.Info().Str("source", source).Str("version", meta.Version).Msg("resolved latest package")

	archive, err := f.download(ctx, meta.Dist.Tarball)
	if err != nil {
		return nil, &FetchError{Stage: "download", Err: err}
	}
	return archive, nil
}

func (f *Fetcher) fetchMetadata(ctx context.Context, source string) (*packageMetadata, error) {
	endpoint := fmt.Sprintf("%s/%s/latest", f.registry, url.PathEscape(source))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	var meta packageMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("malformed metadata: %w", err)
	}
	if meta.Dist.Tarball == "" {
		return nil, fmt.Errorf("metadata has no tarball url")
	}
	return &meta, nil
}

func (f *Fetcher) download(ctx context.Context, tarball string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tarball, nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tarball download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
