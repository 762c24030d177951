package domain

// CatalogEntry is a read-only snapshot of one storefront catalog item
// as returned by the upstream provider. Entries are never mutated after
// retrieval.
type CatalogEntry struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle,omitempty"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	IconURL     string  `json:"icon_url,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	RatingCount int64   `json:"rating_count,omitempty"`
	Price       float64 `json:"price"`
	URL         string  `json:"url,omitempty"`
}

// ResultSet is the outcome of discovery: exactly one target plus zero
// or more competitors in upstream rank order. Ordering is significant.
type ResultSet struct {
	Target      CatalogEntry   `json:"target"`
	Competitors []CatalogEntry `json:"competitors"`
	Category    string         `json:"category,omitempty"`
}

// KeywordSource identifies where a candidate keyword came from.
type KeywordSource string

const (
	// SourceMetadata marks terms tokenized from title/subtitle/description.
	SourceMetadata KeywordSource = "metadata"
	// SourceSemantic marks terms derived from semantic expansion.
	SourceSemantic KeywordSource = "semantic"
	// SourceCompetitor marks terms harvested from competitor metadata.
	SourceCompetitor KeywordSource = "competitor"
	// SourceCategory marks category seed terms.
	SourceCategory KeywordSource = "category"
	// SourceTrending marks externally trending terms.
	SourceTrending KeywordSource = "trending"
)

// CandidateKeyword is one extracted keyword with its relevance score.
// Candidates live only for the duration of a single analysis.
type CandidateKeyword struct {
	Text           string        `json:"text"`
	Source         KeywordSource `json:"source"`
	RelevanceScore float64       `json:"relevance_score"`
}
