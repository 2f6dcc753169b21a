package domain

// DailySummary is the consolidated result of folding one day of
// attributed mail into a bounded-size summary. It is cached, not
// persisted.
type DailySummary struct {
	Date    string   `json:"date"`
	Summary string   `json:"summary"`
	Tasks   []string `json:"tasks"`
}

// SearchResult is one semantic search hit: the best-matching chunk of a
// message, after per-message deduplication.
type SearchResult struct {
	UID      uint32  `json:"uid"`
	Subject  string  `json:"subject"`
	Sender   string  `json:"sender"`
	Date     string  `json:"date"`
	Gist     string  `json:"gist,omitempty"`
	Distance float64 `json:"distance"`
}
