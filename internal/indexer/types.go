package indexer

// Window is one overlapping slice of a page's normalized text.
// Start and End are rune offsets into the normalized page text.
type Window struct {
	Page  int
	Start int
	End   int
	Text  string
}

// Chunk represents a window of the source document plus its entity tags.
type Chunk struct {
	ID       int                 `json:"id"`   // Sequential across the whole document (starts at 0)
	Page     int                 `json:"page"` // 1-based page number
	Systems  []string            `json:"systems"`
	Factions []string            `json:"factions"`
	Dates    []string            `json:"dates"`
	Entities map[string][]string `json:"entities,omitempty"` // Custom tagger kinds
	Text     string              `json:"text"`
}

// Index holds smoothed inverse document frequencies for every token seen.
type Index struct {
	IDF map[string]float64 `json:"idf"`
	N   int                `json:"N"`
	// DF is the document frequency behind each IDF weight.
	DF map[string]int `json:"-"`
}
