// Package watcher consumes the client's push feed, tracks the match phase,
// and fans domain events out to registered listeners.
package watcher

// MatchPhase is the normalized gameflow phase.
type MatchPhase int

const (
	PhaseNone MatchPhase = iota
	PhaseLobby
	PhaseChampSelect
	PhaseInGame
	PhasePostGame
	PhaseTerminated
)

func (p MatchPhase) String() string {
	switch p {
	case PhaseNone:
		return "None"
	case PhaseLobby:
		return "Lobby"
	case PhaseChampSelect:
		return "ChampSelect"
	case PhaseInGame:
		return "InGame"
	case PhasePostGame:
		return "PostGame"
	case PhaseTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Terminal reports whether the phase marks the match as over.
func (p MatchPhase) Terminal() bool {
	return p == PhasePostGame || p == PhaseTerminated
}

// normalizePhase maps raw gameflow strings onto MatchPhase. ok is false for
// strings we do not track, in which case the previous phase is kept.
func normalizePhase(raw string) (MatchPhase, bool) {
	switch raw {
	case "None":
		return PhaseNone, true
	case "Lobby", "Matchmaking", "ReadyCheck":
		return PhaseLobby, true
	case "ChampSelect":
		return PhaseChampSelect, true
	case "GameStart", "InProgress":
		return PhaseInGame, true
	case "WaitingForStats", "PreEndOfGame", "EndOfGame":
		return PhasePostGame, true
	case "TerminatedInError":
		return PhaseTerminated, true
	default:
		return PhaseNone, false
	}
}
