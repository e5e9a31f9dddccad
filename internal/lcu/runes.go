package lcu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// ErrBusy is returned when an apply is already in flight. The request is not
// queued; the caller decides whether to resubmit once the prior call settles.
var ErrBusy = errors.New("rune page apply already in flight")

// RunePage describes a rune page to create and activate.
type RunePage struct {
	ChampionID      int
	Name            string `json:"name"`
	PrimaryStyleID  int    `json:"primaryStyleId"`
	SubStyleID      int    `json:"subStyleId"`
	SelectedPerkIDs []int  `json:"selectedPerkIds"`
	Current         bool   `json:"current"`
}

// ApplyError reports a failed apply. Partial means the page was created but
// not activated; the caller must treat it as applied-but-not-selected and
// must not retry the create.
type ApplyError struct {
	Partial bool
	Err     error
}

func (e *ApplyError) Error() string {
	if e.Partial {
		return fmt.Sprintf("rune page created but not activated: %v", e.Err)
	}
	return fmt.Sprintf("rune page apply failed: %v", e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// perkPage is the client API's view of a stored rune page.
type perkPage struct {
	ID          int64 `json:"id"`
	IsDeletable bool  `json:"isDeletable"`
	IsValid     bool  `json:"isValid"`
}

// Applier issues rune-page create/activate calls against the client API.
// At most one apply may be in flight; concurrent calls fail with ErrBusy.
// It never retries on its own.
type Applier struct {
	client *Client
	log    zerolog.Logger
	mu     sync.Mutex
}

// NewApplier creates an Applier on top of an established client session.
func NewApplier(client *Client, log zerolog.Logger) *Applier {
	return &Applier{
		client: client,
		log:    log.With().Str("component", "runes").Logger(),
	}
}

// Apply creates the page server-side and makes it the active page.
func (a *Applier) Apply(ctx context.Context, page RunePage) error {
	if !a.mu.TryLock() {
		return ErrBusy
	}
	defer a.mu.Unlock()

	page.Current = true
	if page.Name == "" {
		page.Name = fmt.Sprintf("Runeforge %d", page.ChampionID)
	}

	id, err := a.createPage(ctx, page)
	if err != nil {
		return &ApplyError{Err: err}
	}

	if err := a.activatePage(ctx, id); err != nil {
		return &ApplyError{Partial: true, Err: err}
	}

	a.log.Info().Int("champion", page.ChampionID).Int64("page", id).Msg("rune page applied")
	return nil
}

// createPage posts the page. A 4xx rejection means the account's page
// inventory is full; evict one deletable page and try again, once. Any other
// failure is returned as is so a transport blip never costs a stored page.
func (a *Applier) createPage(ctx context.Context, page RunePage) (int64, error) {
	id, status, err := a.postPage(ctx, page)
	if err == nil {
		return id, nil
	}
	if status < http.StatusBadRequest || status >= http.StatusInternalServerError {
		return 0, err
	}

	if delErr := a.deleteOnePage(ctx); delErr != nil {
		return 0, err
	}
	id, _, err = a.postPage(ctx, page)
	return id, err
}

func (a *Applier) postPage(ctx context.Context, page RunePage) (int64, int, error) {
	resp, err := a.client.Do(ctx, http.MethodPost, "/lol-perks/v1/pages", page)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return 0, resp.StatusCode, fmt.Errorf("create page returned status %d", resp.StatusCode)
	}

	var created perkPage
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, resp.StatusCode, fmt.Errorf("decode created page: %w", err)
	}
	return created.ID, resp.StatusCode, nil
}

// deleteOnePage removes the first deletable stored page to make room.
func (a *Applier) deleteOnePage(ctx context.Context) error {
	var pages []perkPage
	if err := a.client.getJSON(ctx, "/lol-perks/v1/pages", &pages); err != nil {
		return err
	}

	for _, p := range pages {
		if !p.IsDeletable {
			continue
		}
		resp, err := a.client.Do(ctx, http.MethodDelete, fmt.Sprintf("/lol-perks/v1/pages/%d", p.ID), nil)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("delete page %d returned status %d", p.ID, resp.StatusCode)
		}
		a.log.Debug().Int64("page", p.ID).Msg("evicted rune page")
		return nil
	}
	return errors.New("no deletable rune page")
}

func (a *Applier) activatePage(ctx context.Context, id int64) error {
	resp, err := a.client.Do(ctx, http.MethodPut, "/lol-perks/v1/currentpage", id)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("activate page returned status %d", resp.StatusCode)
	}
	return nil
}
