package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArticleType(t *testing.T) {
	tests := []struct {
		in   string
		want ArticleType
	}{
		{"person", ArticleTypePerson},
		{"  Place\n", ArticleTypePlace},
		{"ORGANIZATION.", ArticleTypeOrganization},
		{"\"event\"", ArticleTypeEvent},
		{"a famous person", ArticleTypeOther},
		{"", ArticleTypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArticleType(tt.in))
		})
	}
}

func TestParseLocationType(t *testing.T) {
	assert.Equal(t, LocationTypeCity, ParseLocationType("City"))
	assert.Equal(t, LocationTypeCountry, ParseLocationType(" country "))
	assert.Equal(t, LocationTypeHistoricalName, ParseLocationType("province"))
}

func TestFallbackEnrichment(t *testing.T) {
	doc := &ParsedDocument{FirstParagraph: "Lead paragraph."}

	got := FallbackEnrichment(doc)

	assert.Equal(t, "Lead paragraph.", got.Summary)
	assert.Equal(t, ArticleTypeOther, got.ArticleType)
	assert.Empty(t, got.KeyFacts)
	assert.NotNil(t, got.Dates)
	assert.NotNil(t, got.Locations)
	assert.NotNil(t, got.RelatedTopics)

	assert.Equal(t, "", FallbackEnrichment(nil).Summary)
}
