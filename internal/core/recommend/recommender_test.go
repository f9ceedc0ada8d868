package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Admitly/internal/models"
)

type fakeCatalogue struct {
	universities []models.University
	saved        []models.SavedUniversity
	searchErr    error

	gotMaxTuition int
}

func (f *fakeCatalogue) SearchUniversities(_ context.Context, _ []float32, maxTuition, limit int) ([]models.University, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.gotMaxTuition = maxTuition
	if len(f.universities) > limit {
		return f.universities[:limit], nil
	}
	return f.universities, nil
}

func (f *fakeCatalogue) ListSavedUniversities(_ context.Context, _ string) ([]models.SavedUniversity, error) {
	return f.saved, nil
}

type fakeEmbedder struct {
	err error
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Generate(_ context.Context, _, _ string) (string, error) {
	return f.response, f.err
}

func testProfile() *models.Profile {
	return &models.Profile{
		UserID:   "u1",
		Country:  "Nigeria",
		GradYear: 2027,
		Preferences: models.Preferences{
			IntendedMajor: "Computer Science",
			BudgetUSD:     40000,
			GPA:           3.8,
			SATScore:      1480,
		},
	}
}

func catalogueOf(names ...string) []models.University {
	out := make([]models.University, len(names))
	for i, n := range names {
		out[i] = models.University{ID: "id-" + n, Name: n, Country: "X", Description: n + " description"}
	}
	return out
}

func TestRunOrdersByModelResponse(t *testing.T) {
	cat := &fakeCatalogue{universities: catalogueOf("Alpha", "Beta", "Gamma")}
	llm := &fakeLLM{response: "Gamma|||great CS labs\nAlpha|||fits the budget"}
	r := NewRecommender(cat, &fakeEmbedder{}, llm)

	recs, err := r.Run(context.Background(), testProfile())
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "Gamma", recs[0].University.Name)
	assert.Equal(t, "great CS labs", recs[0].Reason)
	assert.Equal(t, "Alpha", recs[1].University.Name)
	// Skipped by the model: appended with no reason.
	assert.Equal(t, "Beta", recs[2].University.Name)
	assert.Empty(t, recs[2].Reason)

	assert.Equal(t, 40000, cat.gotMaxTuition, "budget should cap the vector search")
}

func TestRunExcludesSavedUniversities(t *testing.T) {
	cat := &fakeCatalogue{
		universities: catalogueOf("Alpha", "Beta"),
		saved:        []models.SavedUniversity{{UniversityID: "id-Alpha"}},
	}
	r := NewRecommender(cat, &fakeEmbedder{}, &fakeLLM{})

	recs, err := r.Run(context.Background(), testProfile())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Beta", recs[0].University.Name)
}

func TestRunModelFailureKeepsVectorOrder(t *testing.T) {
	cat := &fakeCatalogue{universities: catalogueOf("Alpha", "Beta")}
	r := NewRecommender(cat, &fakeEmbedder{}, &fakeLLM{err: errors.New("model unavailable")})

	recs, err := r.Run(context.Background(), testProfile())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Alpha", recs[0].University.Name)
	assert.Equal(t, "Beta", recs[1].University.Name)
}

func TestRunIgnoresHallucinatedNames(t *testing.T) {
	cat := &fakeCatalogue{universities: catalogueOf("Alpha")}
	llm := &fakeLLM{response: "Hogwarts|||magical\nAlpha|||real"}
	r := NewRecommender(cat, &fakeEmbedder{}, llm)

	recs, err := r.Run(context.Background(), testProfile())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Alpha", recs[0].University.Name)
	assert.Equal(t, "real", recs[0].Reason)
}

func TestRunEmptyProfileErrors(t *testing.T) {
	r := NewRecommender(&fakeCatalogue{}, &fakeEmbedder{}, &fakeLLM{})
	_, err := r.Run(context.Background(), &models.Profile{UserID: "u1"})
	assert.Error(t, err)
}

func TestRunEmbedFailure(t *testing.T) {
	cat := &fakeCatalogue{universities: catalogueOf("Alpha")}
	r := NewRecommender(cat, &fakeEmbedder{err: errors.New("quota exceeded")}, &fakeLLM{})

	_, err := r.Run(context.Background(), testProfile())
	assert.Error(t, err)
}

func TestProfileSummaryIncludesSignal(t *testing.T) {
	s := ProfileSummary(testProfile())
	assert.Contains(t, s, "Computer Science")
	assert.Contains(t, s, "Nigeria")
	assert.Contains(t, s, "1480")
	assert.Contains(t, s, "40000")
}
