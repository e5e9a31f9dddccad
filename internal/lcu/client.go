// Package lcu talks to the local League client API: credential discovery,
// authenticated REST requests, the websocket event feed, and rune pages.
package lcu

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

var (
	ErrLockfileNotFound = errors.New("lockfile not found")
	ErrClientNotRunning = errors.New("league client is not running")
)

// Credentials holds the LCU connection details parsed from the lockfile.
type Credentials struct {
	ProcessName string
	PID         string
	Port        string
	Password    string
	Protocol    string
}

// Client is an authenticated session against the local client API. It owns
// the credentials and the HTTP transport; the websocket feed is created per
// subscription in feed.go.
type Client struct {
	log           zerolog.Logger
	httpClient    *http.Client
	lockfilePaths []string

	mu          sync.RWMutex
	credentials *Credentials
	baseURL     string
	authHeader  string
}

// Option configures a Client.
type Option func(*Client)

// WithLockfilePaths overrides the candidate lockfile locations.
func WithLockfilePaths(paths ...string) Option {
	return func(c *Client) {
		c.lockfilePaths = paths
	}
}

// WithHTTPClient overrides the HTTP client used for REST requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a disconnected client.
func NewClient(log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		log:           log.With().Str("component", "lcu").Logger(),
		lockfilePaths: DefaultLockfilePaths(),
		httpClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					// The client API serves a self-signed cert on loopback;
					// skipping verification is intentional and scoped to this
					// transport only.
					InsecureSkipVerify: true,
				},
			},
			// Short timeout for quick disconnect detection.
			Timeout: 2 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultLockfilePaths returns the common League install locations to probe
// for the lockfile.
func DefaultLockfilePaths() []string {
	paths := []string{
		"C:/Riot Games/League of Legends/lockfile",
		"D:/Riot Games/League of Legends/lockfile",
		"C:/Program Files/Riot Games/League of Legends/lockfile",
		"C:/Program Files (x86)/Riot Games/League of Legends/lockfile",
	}
	for _, drive := range []string{"E:", "F:", "G:"} {
		paths = append(paths, filepath.Join(drive, "Riot Games/League of Legends/lockfile"))
	}
	return paths
}

// ParseLockfile parses lockfile content of the form
// LeagueClient:pid:port:password:protocol.
func ParseLockfile(content string) (*Credentials, error) {
	parts := strings.Split(strings.TrimSpace(content), ":")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid lockfile format: expected 5 parts, got %d", len(parts))
	}
	return &Credentials{
		ProcessName: parts[0],
		PID:         parts[1],
		Port:        parts[2],
		Password:    parts[3],
		Protocol:    parts[4],
	}, nil
}

func (c *Client) findCredentials() (*Credentials, error) {
	for _, path := range c.lockfilePaths {
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		return ParseLockfile(string(content))
	}
	return nil, ErrLockfileNotFound
}

// Connect polls for the lockfile and probes the API with exponential
// backoff until the client is reachable or ctx is cancelled. The client not
// running yet is the expected steady state before launch, and a lockfile can
// outlive its process after a crash or exist before the API starts serving,
// so both stages retry forever.
func (c *Client) Connect(ctx context.Context) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 0

	var creds *Credentials
	err := backoff.Retry(func() error {
		found, err := c.findCredentials()
		if err != nil {
			return err
		}

		c.mu.Lock()
		c.credentials = found
		c.baseURL = fmt.Sprintf("https://127.0.0.1:%s", found.Port)
		c.authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte("riot:"+found.Password))
		c.mu.Unlock()

		if err := c.probe(ctx); err != nil {
			c.Disconnect()
			c.log.Debug().Err(err).Msg("client API not reachable yet")
			return err
		}
		creds = found
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return err
	}

	c.log.Info().Str("port", creds.Port).Msg("connected to league client")
	return nil
}

// probe verifies the discovered credentials actually reach the client API.
func (c *Client) probe(ctx context.Context) error {
	resp, err := c.Do(ctx, http.MethodGet, "/lol-summoner/v1/current-summoner", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

// Disconnect drops the credentials. Subsequent requests fail with
// ErrClientNotRunning until Connect succeeds again.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.credentials = nil
	c.baseURL = ""
	c.authHeader = ""
	c.mu.Unlock()
}

// Credentials returns the active credentials, or nil when disconnected.
func (c *Client) Credentials() *Credentials {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credentials
}

// Do performs an authenticated request against the client API. body, when
// non-nil, is JSON encoded.
func (c *Client) Do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	c.mu.RLock()
	baseURL, authHeader := c.baseURL, c.authHeader
	connected := c.credentials != nil
	c.mu.RUnlock()

	if !connected {
		return nil, ErrClientNotRunning
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", authHeader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.httpClient.Do(req)
}

// getJSON performs a GET and decodes the response body.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GameflowPhase returns the current gameflow phase string.
func (c *Client) GameflowPhase(ctx context.Context) (string, error) {
	var phase string
	if err := c.getJSON(ctx, "/lol-gameflow/v1/gameflow-phase", &phase); err != nil {
		return "", err
	}
	return phase, nil
}

// RegionLocale holds the client's region and locale classification.
type RegionLocale struct {
	Region    string `json:"region"`
	Locale    string `json:"locale"`
	WebRegion string `json:"webRegion"`
}

// RegionLocale returns the region the client is logged in to.
func (c *Client) RegionLocale(ctx context.Context) (*RegionLocale, error) {
	var rl RegionLocale
	if err := c.getJSON(ctx, "/riotclient/region-locale", &rl); err != nil {
		return nil, err
	}
	return &rl, nil
}
