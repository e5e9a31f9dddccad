package watcher

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"runeforge/internal/lcu"
)

// Feed URIs the watcher recognizes. Everything else on the firehose is
// ignored.
const (
	uriChampSelect   = "/lol-champ-select/v1/session"
	uriGameflowPhase = "/lol-gameflow/v1/gameflow-phase"
	uriGameflowSess  = "/lol-gameflow/v1/session"
)

// Watcher runs the match-phase state machine over the client's push feed.
// Events are processed strictly in arrival order on a single loop; listeners
// are invoked synchronously, so no two events are ever delivered
// concurrently.
type Watcher struct {
	client *lcu.Client
	log    zerolog.Logger

	mu           sync.Mutex
	phase        MatchPhase
	lastSignaled int // champion already announced this champ select; 0 = none

	championListeners []func(championID int)
	phaseListeners    []func(MatchPhase)
	endedListeners    []func()
}

// New creates a watcher on top of a client session.
func New(client *lcu.Client, log zerolog.Logger) *Watcher {
	return &Watcher{
		client: client,
		log:    log.With().Str("component", "watcher").Logger(),
	}
}

// OnChampionSelected registers a listener for champion-pick changes.
func (w *Watcher) OnChampionSelected(fn func(championID int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.championListeners = append(w.championListeners, fn)
}

// OnPhaseChanged registers a listener for phase transitions.
func (w *Watcher) OnPhaseChanged(fn func(MatchPhase)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.phaseListeners = append(w.phaseListeners, fn)
}

// OnMatchEnded registers a listener for end-of-match signals.
func (w *Watcher) OnMatchEnded(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endedListeners = append(w.endedListeners, fn)
}

// Phase returns the current match phase.
func (w *Watcher) Phase() MatchPhase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// ResetDedup clears the champion-dedup memory so the next pick re-emits
// even for an unchanged champion. Used when the consumer bypasses its cache.
func (w *Watcher) ResetDedup() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastSignaled = 0
}

// Run connects, drains the feed, and reconnects on transport failure until
// ctx is cancelled. Listeners observe a gap in events across a reconnect,
// never an error.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		// Connect retries discovery and probing internally; an error here
		// means ctx ended.
		if err := w.client.Connect(ctx); err != nil {
			return err
		}

		w.syncPhase(ctx)

		feed, err := w.client.EventFeed(ctx)
		if err != nil {
			// REST is up but the feed is not ready yet; give it a moment.
			w.log.Debug().Err(err).Msg("event feed not ready")
			w.client.Disconnect()
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for ev := range feed {
			w.handleEvent(ev)
		}

		// Feed closed: the client went away. Drop the stale credentials and
		// re-enter discovery.
		w.client.Disconnect()
		w.log.Info().Msg("league client disconnected, waiting for relaunch")

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// syncPhase seeds the state machine from the REST phase endpoint so a
// watcher started mid-match picks up the current state.
func (w *Watcher) syncPhase(ctx context.Context) {
	raw, err := w.client.GameflowPhase(ctx)
	if err != nil {
		w.log.Debug().Err(err).Msg("initial gameflow phase unavailable")
		return
	}
	if phase, ok := normalizePhase(raw); ok {
		w.mu.Lock()
		w.phase = phase
		w.mu.Unlock()
		w.log.Info().Stringer("phase", phase).Msg("initial gameflow phase")
	}
}

// handleEvent advances the state machine for one feed message.
func (w *Watcher) handleEvent(ev lcu.FeedEvent) {
	switch ev.URI {
	case uriChampSelect:
		w.handleChampSelect(ev)
	case uriGameflowPhase:
		w.handleGameflowPhase(ev)
	case uriGameflowSess:
		if ev.EventType == "Delete" {
			w.handleSessionEnded()
		}
	}
}

func (w *Watcher) handleChampSelect(ev lcu.FeedEvent) {
	if ev.EventType == "Delete" {
		return
	}

	var session lcu.ChampSelectSession
	if err := json.Unmarshal(ev.Data, &session); err != nil {
		w.log.Debug().Err(err).Msg("unparseable champ select payload")
		return
	}

	championID := session.LocalChampionID()
	if championID == 0 {
		return
	}

	w.mu.Lock()
	if championID == w.lastSignaled {
		w.mu.Unlock()
		return
	}
	w.lastSignaled = championID
	listeners := w.championListeners
	w.mu.Unlock()

	w.log.Info().Int("champion", championID).Msg("champion selected")
	for _, fn := range listeners {
		fn(championID)
	}
}

func (w *Watcher) handleGameflowPhase(ev lcu.FeedEvent) {
	var raw string
	if err := json.Unmarshal(ev.Data, &raw); err != nil {
		w.log.Debug().Err(err).Msg("unparseable gameflow payload")
		return
	}

	phase, ok := normalizePhase(raw)
	if !ok {
		w.log.Debug().Str("phase", raw).Msg("untracked gameflow phase")
		return
	}

	w.mu.Lock()
	prev := w.phase
	if phase == prev {
		w.mu.Unlock()
		return
	}
	w.phase = phase
	ended := phase == PhaseInGame || phase.Terminal()
	if ended {
		w.lastSignaled = 0
	}
	phaseListeners := w.phaseListeners
	endedListeners := w.endedListeners
	w.mu.Unlock()

	w.log.Info().Stringer("from", prev).Stringer("to", phase).Msg("gameflow phase changed")
	for _, fn := range phaseListeners {
		fn(phase)
	}
	if ended {
		for _, fn := range endedListeners {
			fn()
		}
	}
}

func (w *Watcher) handleSessionEnded() {
	w.mu.Lock()
	w.phase = PhaseNone
	w.lastSignaled = 0
	listeners := w.endedListeners
	w.mu.Unlock()

	w.log.Info().Msg("gameflow session ended")
	for _, fn := range listeners {
		fn()
	}
}
