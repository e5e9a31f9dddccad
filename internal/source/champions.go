package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const dataDragonBase = "https://ddragon.leagueoflegends.com"

// championEntry is the Data Dragon champion record.
type championEntry struct {
	ID   string `json:"id"` // alias, e.g. "MonkeyKing"
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ChampionRegistry maps numeric champion ids to the aliases build sources
// key their descriptor files on. Lazy-loaded from Data Dragon.
type ChampionRegistry struct {
	client  *http.Client
	baseURL string

	mu      sync.RWMutex
	aliases map[int]string
	names   map[int]string
	version string
	loaded  bool
}

// RegistryOption configures a ChampionRegistry.
type RegistryOption func(*ChampionRegistry)

// WithDataDragonURL overrides the Data Dragon base URL.
func WithDataDragonURL(url string) RegistryOption {
	return func(r *ChampionRegistry) {
		r.baseURL = url
	}
}

// NewChampionRegistry creates an empty registry.
func NewChampionRegistry(opts ...RegistryOption) *ChampionRegistry {
	r := &ChampionRegistry{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: dataDragonBase,
		aliases: make(map[int]string),
		names:   make(map[int]string),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load fetches the latest champion list from Data Dragon.
func (r *ChampionRegistry) Load(ctx context.Context) error {
	var versions []string
	if err := r.getJSON(ctx, r.baseURL+"/api/versions.json", &versions); err != nil {
		return fmt.Errorf("failed to fetch versions: %w", err)
	}
	if len(versions) == 0 {
		return fmt.Errorf("no versions available")
	}
	version := versions[0]

	var champData struct {
		Data map[string]championEntry `json:"data"`
	}
	url := fmt.Sprintf("%s/cdn/%s/data/en_US/champion.json", r.baseURL, version)
	if err := r.getJSON(ctx, url, &champData); err != nil {
		return fmt.Errorf("failed to fetch champions: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for alias, champ := range champData.Data {
		key, err := strconv.Atoi(champ.Key)
		if err != nil {
			continue
		}
		r.aliases[key] = alias
		r.names[key] = champ.Name
	}
	r.version = version
	r.loaded = true
	return nil
}

func (r *ChampionRegistry) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Alias returns the descriptor-file alias for a champion id.
func (r *ChampionRegistry) Alias(id int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	alias, ok := r.aliases[id]
	return alias, ok
}

// Name returns the display name for a champion id.
func (r *ChampionRegistry) Name(id int) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if name, ok := r.names[id]; ok {
		return name
	}
	return fmt.Sprintf("Champion %d", id)
}

// IsLoaded reports whether the registry has been loaded.
func (r *ChampionRegistry) IsLoaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}
