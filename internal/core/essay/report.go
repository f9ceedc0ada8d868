package essay

import (
	"fmt"
	"strings"

	"github.com/markdave123-py/Admitly/internal/models"
)

// RenderReport produces the plain-text export of an analysis, uploaded to
// object storage so the UI can hand out a download link.
func RenderReport(a *models.EssayAnalysis) string {
	var b strings.Builder

	b.WriteString("ESSAY FEEDBACK REPORT\n")
	b.WriteString("Generated: " + a.CreatedAt.UTC().Format("2006-01-02 15:04 UTC") + "\n\n")

	b.WriteString("RATINGS\n")
	fmt.Fprintf(&b, "  Clarity:   %d/10\n", a.Ratings.Clarity)
	fmt.Fprintf(&b, "  Structure: %d/10\n", a.Ratings.Structure)
	fmt.Fprintf(&b, "  Voice:     %d/10\n", a.Ratings.Voice)
	fmt.Fprintf(&b, "  Grammar:   %d/10\n", a.Ratings.Grammar)
	fmt.Fprintf(&b, "  Relevance: %d/10\n", a.Ratings.Relevance)
	fmt.Fprintf(&b, "  Impact:    %d/10\n", a.Ratings.Impact)
	fmt.Fprintf(&b, "  Overall:   %d/10\n\n", a.Ratings.Overall)

	b.WriteString("OVERALL FEEDBACK\n")
	b.WriteString(a.Feedback + "\n\n")

	if len(a.Highlights) > 0 {
		b.WriteString("HIGHLIGHTED PASSAGES\n")
		for i, h := range a.Highlights {
			fmt.Fprintf(&b, "%d. %q\n   %s\n", i+1, h.Excerpt, h.Comment)
		}
		b.WriteString("\n")
	}

	b.WriteString("ESSAY\n")
	b.WriteString(a.EssayText + "\n")

	return b.String()
}
