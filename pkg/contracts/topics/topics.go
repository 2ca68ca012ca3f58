package topics

const (
	// Lotes de snapshots produzidos a cada ciclo do scraper
	MatchSnapshots = "match_snapshots"
)
