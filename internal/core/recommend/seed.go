package recommend

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/models"
)

// seedCatalogue is the starter university set; descriptions are what get
// embedded, so they carry the signal the matcher works from.
var seedCatalogue = []models.University{
	{Name: "Massachusetts Institute of Technology", Country: "USA", TuitionUSD: 57986, Description: "World-leading engineering and computer science research university with a hands-on maker culture, strong startup ecosystem, and need-based financial aid for international students."},
	{Name: "Stanford University", Country: "USA", TuitionUSD: 58416, Description: "Elite private research university in Silicon Valley known for computer science, entrepreneurship, and interdisciplinary programs spanning engineering, humanities, and design."},
	{Name: "University of Toronto", Country: "Canada", TuitionUSD: 45000, Description: "Large public research university with top programs in computer science, life sciences, and engineering; co-op options and a diverse international student body."},
	{Name: "University of British Columbia", Country: "Canada", TuitionUSD: 32000, Description: "Public research university in Vancouver strong in forestry, earth sciences, computer science, and business, with generous merit scholarships for international students."},
	{Name: "University of Oxford", Country: "UK", TuitionUSD: 40000, Description: "Ancient collegiate university with tutorial-based teaching, world-class humanities, law, medicine, and mathematics; highly selective with interview-based admissions."},
	{Name: "Imperial College London", Country: "UK", TuitionUSD: 43000, Description: "Science, engineering, medicine and business focused university in London with intense quantitative programs and strong industry placement."},
	{Name: "ETH Zurich", Country: "Switzerland", TuitionUSD: 1600, Description: "Premier European technical university with very low tuition, rigorous mathematics, physics, and engineering programs taught partly in German."},
	{Name: "National University of Singapore", Country: "Singapore", TuitionUSD: 30000, Description: "Asia's leading comprehensive university, strong in computing, engineering, and business, with extensive exchange programs and regional industry ties."},
	{Name: "University of Melbourne", Country: "Australia", TuitionUSD: 35000, Description: "Top Australian university using a broad undergraduate curriculum followed by specialized graduate degrees; strong in biomedicine, law, and arts."},
	{Name: "Technical University of Munich", Country: "Germany", TuitionUSD: 300, Description: "Tuition-free German technical university with excellent engineering, informatics, and natural sciences; many English-taught masters and growing English bachelor options."},
	{Name: "University of Amsterdam", Country: "Netherlands", TuitionUSD: 16000, Description: "Research university in a bike-friendly capital with many English-taught programs in social sciences, economics, AI, and media studies."},
	{Name: "KAIST", Country: "South Korea", TuitionUSD: 7000, Description: "Korea's top science and technology institute, fully English-taught engineering and computer science degrees with substantial scholarships for international students."},
}

// SeedCatalogue embeds and inserts the starter universities when the table
// is empty. Safe to call on every startup.
func SeedCatalogue(ctx context.Context, dbclient core.DbClient, embedder core.EmbeddingProvider) error {
	n, err := dbclient.CountUniversities(ctx)
	if err != nil {
		return fmt.Errorf("count universities: %w", err)
	}
	if n > 0 {
		return nil
	}

	texts := make([]string, len(seedCatalogue))
	for i, u := range seedCatalogue {
		texts[i] = u.Description
	}
	vecs, err := embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed catalogue: %w", err)
	}
	if len(vecs) != len(seedCatalogue) {
		return fmt.Errorf("embed catalogue: got %d vectors for %d universities", len(vecs), len(seedCatalogue))
	}

	rows := make([]models.University, len(seedCatalogue))
	copy(rows, seedCatalogue)
	for i := range rows {
		rows[i].ID = uuid.NewString()
		rows[i].Embedding = vecs[i]
	}
	if err := dbclient.InsertUniversities(ctx, rows); err != nil {
		return fmt.Errorf("insert universities: %w", err)
	}
	log.Printf("Seeded %d universities into the catalogue.", len(rows))
	return nil
}
