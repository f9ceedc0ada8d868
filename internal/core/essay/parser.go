// Package essay turns a free-text model completion into structured essay
// feedback. The model is only informally constrained by the prompt, so the
// parser is best-effort by construction: match literally, fail soft, never
// return an error to the caller.
package essay

import (
	"strconv"
	"strings"

	"github.com/markdave123-py/Admitly/internal/models"
)

const (
	highlightsDelim = "---HIGHLIGHTED_PARTS---"
	feedbackDelim   = "---OVERALL_FEEDBACK---"
	ratingsDelim    = "---RATINGS---"

	pairSep = "|||"
)

// placeholderScore is used for any rating the response did not supply.
const placeholderScore = 5

// Analysis is the parsed result of one completion.
type Analysis struct {
	Highlights []models.Highlight
	Feedback   string
	Ratings    models.Ratings
}

func defaultRatings() models.Ratings {
	return models.Ratings{
		Clarity:   placeholderScore,
		Structure: placeholderScore,
		Voice:     placeholderScore,
		Grammar:   placeholderScore,
		Relevance: placeholderScore,
		Impact:    placeholderScore,
		Overall:   placeholderScore,
	}
}

// Parse splits a completion into highlights, feedback and ratings. Any
// structural mismatch degrades to the raw response shown as unsegmented
// feedback with placeholder ratings.
func Parse(essayText, response string) Analysis {
	if !strings.Contains(response, feedbackDelim) {
		return Analysis{Feedback: strings.TrimSpace(response), Ratings: defaultRatings()}
	}

	highlightsPart := section(response, highlightsDelim, feedbackDelim)
	feedbackPart := section(response, feedbackDelim, ratingsDelim)
	ratingsPart := ""
	if idx := strings.Index(response, ratingsDelim); idx >= 0 {
		ratingsPart = response[idx+len(ratingsDelim):]
	}

	return Analysis{
		Highlights: parseHighlights(essayText, highlightsPart),
		Feedback:   strings.TrimSpace(feedbackPart),
		Ratings:    parseRatings(ratingsPart),
	}
}

// section returns the text between the end of `from` and the start of `to`;
// a missing `to` extends the section to the end of the response.
func section(s, from, to string) string {
	start := strings.Index(s, from)
	if start < 0 {
		return ""
	}
	start += len(from)
	rest := s[start:]
	if end := strings.Index(rest, to); end >= 0 {
		return rest[:end]
	}
	return rest
}

// parseHighlights locates each quoted excerpt in the essay by literal
// substring search. Occurrences are consumed left-to-right in response
// order, so a repeated excerpt can only claim each occurrence once; an
// excerpt that cannot be found keeps Start/End of -1.
func parseHighlights(essayText, part string) []models.Highlight {
	var out []models.Highlight
	nextStart := map[string]int{}

	for _, line := range strings.Split(part, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, pairSep) {
			continue
		}
		excerpt, comment, _ := strings.Cut(line, pairSep)
		excerpt = strings.TrimSpace(excerpt)
		comment = strings.TrimSpace(comment)
		if excerpt == "" {
			continue
		}

		h := models.Highlight{Excerpt: excerpt, Comment: comment, Start: -1, End: -1}
		from := nextStart[excerpt]
		if from <= len(essayText) {
			if idx := strings.Index(essayText[from:], excerpt); idx >= 0 {
				h.Start = from + idx
				h.End = h.Start + len(excerpt)
				nextStart[excerpt] = h.End
			}
		}
		out = append(out, h)
	}
	return out
}

func parseRatings(part string) models.Ratings {
	r := defaultRatings()
	for _, line := range strings.Split(part, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 1 || n > 10 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "clarity":
			r.Clarity = n
		case "structure":
			r.Structure = n
		case "voice":
			r.Voice = n
		case "grammar":
			r.Grammar = n
		case "relevance":
			r.Relevance = n
		case "impact":
			r.Impact = n
		case "overall":
			r.Overall = n
		}
	}
	return r
}
