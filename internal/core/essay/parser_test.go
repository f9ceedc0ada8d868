package essay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleEssay = "I grew up fixing radios. Fixing radios taught me patience. Radios were my first laboratory."

func TestParseWellFormedResponse(t *testing.T) {
	response := `---HIGHLIGHTED_PARTS---
Fixing radios|||Strong concrete opening image.
my first laboratory|||Nice metaphor, consider extending it.
---OVERALL_FEEDBACK---
A vivid, personal essay. The through-line from hobby to vocation works well.
---RATINGS---
clarity: 8
structure: 7
voice: 9
grammar: 8
relevance: 7
impact: 8
overall: 8`

	a := Parse(sampleEssay, response)

	require.Len(t, a.Highlights, 2)
	assert.Equal(t, "Fixing radios", a.Highlights[0].Excerpt)
	assert.Equal(t, 25, a.Highlights[0].Start) // exact-case match, not the lowercase "fixing radios"
	assert.Equal(t, "Strong concrete opening image.", a.Highlights[0].Comment)
	assert.Equal(t, len(sampleEssay)-len("my first laboratory")-1, a.Highlights[1].Start)

	assert.Equal(t, "A vivid, personal essay. The through-line from hobby to vocation works well.", a.Feedback)
	assert.Equal(t, 8, a.Ratings.Clarity)
	assert.Equal(t, 9, a.Ratings.Voice)
	assert.Equal(t, 8, a.Ratings.Overall)
}

func TestParseRepeatedExcerptConsumesOccurrences(t *testing.T) {
	essay := "The sea. The sea. The sea."
	response := `---HIGHLIGHTED_PARTS---
The sea.|||first
The sea.|||second
The sea.|||third
The sea.|||exhausted
---OVERALL_FEEDBACK---
fine
---RATINGS---
overall: 6`

	a := Parse(essay, response)
	require.Len(t, a.Highlights, 4)
	assert.Equal(t, 0, a.Highlights[0].Start)
	assert.Equal(t, 9, a.Highlights[1].Start)
	assert.Equal(t, 18, a.Highlights[2].Start)
	// No occurrences left: unmatched, not re-matched.
	assert.Equal(t, -1, a.Highlights[3].Start)
}

func TestParseExcerptNotInEssay(t *testing.T) {
	response := `---HIGHLIGHTED_PARTS---
this text was paraphrased by the model|||comment
---OVERALL_FEEDBACK---
ok
---RATINGS---
overall: 5`

	a := Parse(sampleEssay, response)
	require.Len(t, a.Highlights, 1)
	assert.Equal(t, -1, a.Highlights[0].Start)
	assert.Equal(t, -1, a.Highlights[0].End)
}

func TestParseMissingDelimitersFailsSoft(t *testing.T) {
	response := "Here is my essay feedback, free-form, ignoring your format."

	a := Parse(sampleEssay, response)
	assert.Empty(t, a.Highlights)
	assert.Equal(t, response, a.Feedback)
	assert.Equal(t, defaultRatings(), a.Ratings)
}

func TestParseMissingRatingsSection(t *testing.T) {
	response := `---HIGHLIGHTED_PARTS---
patience|||good word choice
---OVERALL_FEEDBACK---
Decent draft.`

	a := Parse(sampleEssay, response)
	require.Len(t, a.Highlights, 1)
	assert.Equal(t, "Decent draft.", a.Feedback)
	assert.Equal(t, defaultRatings(), a.Ratings)
}

func TestParseRatingsOutOfRangeIgnored(t *testing.T) {
	response := `---HIGHLIGHTED_PARTS---
---OVERALL_FEEDBACK---
fb
---RATINGS---
clarity: 11
structure: 0
voice: seven
grammar: 3`

	a := Parse(sampleEssay, response)
	assert.Equal(t, placeholderScore, a.Ratings.Clarity)
	assert.Equal(t, placeholderScore, a.Ratings.Structure)
	assert.Equal(t, placeholderScore, a.Ratings.Voice)
	assert.Equal(t, 3, a.Ratings.Grammar)
}

func TestParseSkipsMalformedHighlightLines(t *testing.T) {
	response := `---HIGHLIGHTED_PARTS---
no separator on this line
|||comment with empty excerpt
patience|||kept
---OVERALL_FEEDBACK---
fb
---RATINGS---
overall: 7`

	a := Parse(sampleEssay, response)
	require.Len(t, a.Highlights, 1)
	assert.Equal(t, "patience", a.Highlights[0].Excerpt)
}
