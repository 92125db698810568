package domain

// Report is the outbound document POSTed to the dashboard. One report is
// built per player per update cycle; an empty roster still produces a single
// report with an empty players array so the dashboard can observe "server
// empty".
type Report struct {
	ScoreCT int            `json:"score_ct"`
	ScoreT  int            `json:"score_t"`
	Players []PlayerRecord `json:"players"`
}

// PlayerRecord is one player's entry in a report.
type PlayerRecord struct {
	Name      string `json:"name"`
	SteamID   string `json:"steamid"`
	Kills     int    `json:"kills"`
	Assists   int    `json:"assists"`
	Death     int    `json:"death"`
	Headshots int    `json:"headshots"`
	Rank      int    `json:"rank"`
	Playtime  int    `json:"playtime"`
}
