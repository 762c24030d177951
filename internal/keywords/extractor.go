// Package keywords derives candidate keyword strings from a catalog
// entry's textual metadata plus category seed terms. Extraction is
// deterministic: repeated calls on an unchanged entry return the same
// candidates in the same order.
package keywords

import (
	"sort"
	"strings"
	"unicode"

	"github.com/jonesrussell/storerank/internal/domain"
)

// Relevance tiers in priority order. Phrases derived from the title
// sit above everything else so truncation keeps them first.
const (
	titleTier       = 1.0
	subtitleTier    = 0.85
	categoryTier    = 0.7
	descriptionTier = 0.55
)

// Extraction bounds.
const (
	minTokenLength     = 3
	maxKeywordLength   = 30
	maxPhraseWords     = 3
	descriptionWindow  = 200
	defaultMaxKeywords = 25
)

// productSuffixWord is filtered out of candidates: "budget app" tells
// us nothing the category doesn't.
const productSuffixWord = "app"

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "your": true,
	"you": true, "are": true, "this": true, "that": true, "from": true,
	"has": true, "have": true, "will": true, "can": true, "all": true,
	"new": true, "get": true, "our": true, "more": true, "best": true,
	"most": true, "its": true, "into": true,
}

// categorySeeds maps storefront category names to domain seed terms.
var categorySeeds = map[string][]string{
	"Finance":          {"budget planner", "money manager", "expense tracker", "savings"},
	"Health & Fitness": {"workout", "meditation", "sleep tracker", "calorie counter"},
	"Productivity":     {"task manager", "notes", "calendar planner", "todo list"},
	"Games":            {"puzzle", "arcade", "strategy game", "multiplayer"},
	"Education":        {"learning", "flashcards", "language course", "study planner"},
	"Photo & Video":    {"photo editor", "video maker", "collage", "filters"},
	"Music":            {"music player", "equalizer", "playlist", "radio"},
	"Travel":           {"trip planner", "flight deals", "hotel booking", "city guide"},
	"Weather":          {"forecast", "radar", "storm alerts", "temperature"},
}

// Extractor derives candidate keywords from catalog entries.
type Extractor struct {
	maxKeywords int
}

// NewExtractor creates an extractor capped at maxKeywords candidates.
func NewExtractor(maxKeywords int) *Extractor {
	if maxKeywords <= 0 {
		maxKeywords = defaultMaxKeywords
	}
	return &Extractor{maxKeywords: maxKeywords}
}

// Extract returns candidate keywords for an entry, deduplicated by
// normalized text (highest relevance wins) and sorted so longer, more
// specific phrases precede generic single words.
func (e *Extractor) Extract(entry domain.CatalogEntry) []domain.CandidateKeyword {
	byText := make(map[string]domain.CandidateKeyword)
	var order []string

	add := func(text string, source domain.KeywordSource, score float64) {
		text = domain.NormalizeTerm(text)
		if !acceptable(text) {
			return
		}
		existing, seen := byText[text]
		if !seen {
			order = append(order, text)
			byText[text] = domain.CandidateKeyword{Text: text, Source: source, RelevanceScore: score}
			return
		}
		if score > existing.RelevanceScore {
			existing.Source = source
			existing.RelevanceScore = score
			byText[text] = existing
		}
	}

	for _, term := range tokenize(entry.Title) {
		add(term, domain.SourceMetadata, titleTier)
	}
	for _, term := range tokenize(entry.Subtitle) {
		add(term, domain.SourceMetadata, subtitleTier)
	}

	desc := entry.Description
	if len(desc) > descriptionWindow {
		desc = desc[:descriptionWindow]
	}
	for _, term := range tokenize(desc) {
		add(term, domain.SourceMetadata, descriptionTier)
	}

	for _, seed := range categorySeeds[entry.Category] {
		add(seed, domain.SourceCategory, categoryTier)
	}

	candidates := make([]domain.CandidateKeyword, 0, len(order))
	for _, text := range order {
		candidates = append(candidates, byText[text])
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		wi := len(strings.Fields(candidates[i].Text))
		wj := len(strings.Fields(candidates[j].Text))
		if wi != wj {
			return wi > wj
		}
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		return len(candidates[i].Text) > len(candidates[j].Text)
	})

	if len(candidates) > e.maxKeywords {
		candidates = candidates[:e.maxKeywords]
	}
	return candidates
}

// tokenize splits text into cleaned unigrams plus 2-3 word contiguous
// phrases, dropping stop-words and short tokens.
func tokenize(text string) []string {
	words := splitWords(text)

	cleaned := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(w)
		if len(w) < minTokenLength || stopWords[w] {
			continue
		}
		cleaned = append(cleaned, w)
	}

	terms := make([]string, 0, len(cleaned)*maxPhraseWords)
	terms = append(terms, cleaned...)
	for size := 2; size <= maxPhraseWords; size++ {
		for i := 0; i+size <= len(cleaned); i++ {
			terms = append(terms, strings.Join(cleaned[i:i+size], " "))
		}
	}
	return terms
}

// splitWords breaks text on anything that is not a letter or digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// acceptable filters out pure numbers, terms carrying the product
// suffix word, over-long terms and empties.
func acceptable(text string) bool {
	if text == "" || len(text) > maxKeywordLength {
		return false
	}
	if isNumeric(text) {
		return false
	}
	for _, f := range strings.Fields(text) {
		if f == productSuffixWord {
			return false
		}
	}
	return true
}

func isNumeric(text string) bool {
	hasDigit := false
	for _, r := range text {
		if unicode.IsDigit(r) {
			hasDigit = true
			continue
		}
		if r != ' ' {
			return false
		}
	}
	return hasDigit
}
