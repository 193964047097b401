package domain

import "strings"

// ArticleType is the closed classification applied to every article.
type ArticleType string

// Article types.
const (
	ArticleTypePerson       ArticleType = "person"
	ArticleTypePlace        ArticleType = "place"
	ArticleTypeEvent        ArticleType = "event"
	ArticleTypeConcept      ArticleType = "concept"
	ArticleTypeTheory       ArticleType = "theory"
	ArticleTypeOrganization ArticleType = "organization"
	ArticleTypeObject       ArticleType = "object"
	ArticleTypeWork         ArticleType = "work"
	ArticleTypePeriod       ArticleType = "period"
	ArticleTypeOther        ArticleType = "other"
)

// ArticleTypes lists every article type in display order.
var ArticleTypes = []ArticleType{
	ArticleTypePerson, ArticleTypePlace, ArticleTypeEvent, ArticleTypeConcept,
	ArticleTypeTheory, ArticleTypeOrganization, ArticleTypeObject, ArticleTypeWork,
	ArticleTypePeriod, ArticleTypeOther,
}

// IsValid returns true if the article type is recognised.
func (t ArticleType) IsValid() bool {
	for _, known := range ArticleTypes {
		if t == known {
			return true
		}
	}
	return false
}

// String returns the string representation.
func (t ArticleType) String() string {
	return string(t)
}

// ParseArticleType maps free-form LLM output onto an ArticleType.
// Anything unrecognised maps to ArticleTypeOther.
func ParseArticleType(s string) ArticleType {
	t := ArticleType(strings.Trim(strings.ToLower(strings.TrimSpace(s)), ".\"'`*"))
	if t.IsValid() {
		return t
	}
	return ArticleTypeOther
}

// DatePrecision describes how exact a DateEvent is.
type DatePrecision string

// Date precisions.
const (
	DatePrecisionExact       DatePrecision = "exact"
	DatePrecisionYear        DatePrecision = "year"
	DatePrecisionCentury     DatePrecision = "century"
	DatePrecisionApproximate DatePrecision = "approximate"
)

// LocationType is the closed classification for extracted locations.
type LocationType string

// Location types.
const (
	LocationTypeCity           LocationType = "city"
	LocationTypeRegion         LocationType = "region"
	LocationTypeCountry        LocationType = "country"
	LocationTypeLandmark       LocationType = "landmark"
	LocationTypeHistoricalName LocationType = "historical_name"
)

// ParseLocationType maps free-form LLM output onto a LocationType.
// Unrecognised strings fall back to LocationTypeHistoricalName.
func ParseLocationType(s string) LocationType {
	switch LocationType(strings.ToLower(strings.TrimSpace(s))) {
	case LocationTypeCity:
		return LocationTypeCity
	case LocationTypeRegion:
		return LocationTypeRegion
	case LocationTypeCountry:
		return LocationTypeCountry
	case LocationTypeLandmark:
		return LocationTypeLandmark
	default:
		return LocationTypeHistoricalName
	}
}

// KeyFact is a single labelled fact about the article subject.
type KeyFact struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// DateEvent is a dated event. Year is negative for BCE and nil when unknown.
type DateEvent struct {
	Event     string        `json:"event"`
	Date      string        `json:"date"`
	Year      *int          `json:"year,omitempty"`
	Precision DatePrecision `json:"precision"`
}

// Location is a place associated with the article subject.
type Location struct {
	Name       string       `json:"name"`
	Type       LocationType `json:"type"`
	ModernName string       `json:"modern_name,omitempty"`
}

// EnrichmentResult holds all LLM-derived augmentation for one article.
// It is either fully populated or the fallback; never partially filled.
type EnrichmentResult struct {
	Summary       string      `json:"summary"`
	ArticleType   ArticleType `json:"article_type"`
	KeyFacts      []KeyFact   `json:"key_facts"`
	Dates         []DateEvent `json:"dates"`
	Locations     []Location  `json:"locations"`
	RelatedTopics []string    `json:"related_topics"`
}

// FallbackEnrichment is the non-AI result: the lead paragraph as summary,
// type other, and no facts, dates, locations or topics.
func FallbackEnrichment(doc *ParsedDocument) EnrichmentResult {
	summary := ""
	if doc != nil {
		summary = doc.FirstParagraph
	}
	return EnrichmentResult{
		Summary:       summary,
		ArticleType:   ArticleTypeOther,
		KeyFacts:      []KeyFact{},
		Dates:         []DateEvent{},
		Locations:     []Location{},
		RelatedTopics: []string{},
	}
}
