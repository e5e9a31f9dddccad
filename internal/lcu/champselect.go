package lcu

// ChampSelectSession is the champ-select session payload carried on the
// event feed.
type ChampSelectSession struct {
	GameID            int64               `json:"gameId"`
	LocalPlayerCellID int                 `json:"localPlayerCellId"`
	MyTeam            []ChampSelectPlayer `json:"myTeam"`
}

// ChampSelectPlayer is one seat in the champ-select session.
type ChampSelectPlayer struct {
	CellID           int    `json:"cellId"`
	ChampionID       int    `json:"championId"`
	AssignedPosition string `json:"assignedPosition"`
}

// LocalChampionID returns the champion picked in the local player's seat,
// or 0 when nothing is selected yet.
func (s *ChampSelectSession) LocalChampionID() int {
	for _, p := range s.MyTeam {
		if p.CellID == s.LocalPlayerCellID {
			return p.ChampionID
		}
	}
	return 0
}
