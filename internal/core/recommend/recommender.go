// Package recommend matches an academic profile against the university
// catalogue: the profile is summarized, embedded, shortlisted by vector
// similarity, then the model ranks and justifies the shortlist.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Admitly/internal/core"
	"github.com/markdave123-py/Admitly/internal/models"
)

const (
	shortlistSize = 8
	resultSize    = 5

	pairSep = "|||"
)

// Catalogue is the slice of core.DbClient the recommender needs.
type Catalogue interface {
	SearchUniversities(ctx context.Context, queryVec []float32, maxTuition, limit int) ([]models.University, error)
	ListSavedUniversities(ctx context.Context, userID string) ([]models.SavedUniversity, error)
}

type Recommender struct {
	catalogue Catalogue
	embedder  core.EmbeddingProvider
	llm       core.LLMProvider
}

func NewRecommender(catalogue Catalogue, embedder core.EmbeddingProvider, llm core.LLMProvider) *Recommender {
	return &Recommender{catalogue: catalogue, embedder: embedder, llm: llm}
}

// ProfileSummary flattens a profile into the text that gets embedded and
// shown to the model.
func ProfileSummary(p *models.Profile) string {
	var b strings.Builder
	prefs := p.Preferences
	if prefs.IntendedMajor != "" {
		fmt.Fprintf(&b, "Intended major: %s. ", prefs.IntendedMajor)
	}
	if p.Country != "" {
		fmt.Fprintf(&b, "From %s. ", p.Country)
	}
	if p.GradYear > 0 {
		fmt.Fprintf(&b, "Graduating %d. ", p.GradYear)
	}
	if prefs.Curriculum != "" {
		fmt.Fprintf(&b, "Curriculum: %s. ", prefs.Curriculum)
	}
	if prefs.GPA > 0 {
		fmt.Fprintf(&b, "GPA %.2f. ", prefs.GPA)
	}
	if prefs.SATScore > 0 {
		fmt.Fprintf(&b, "SAT %d. ", prefs.SATScore)
	}
	if prefs.IELTSBand > 0 {
		fmt.Fprintf(&b, "IELTS %.1f. ", prefs.IELTSBand)
	}
	if prefs.BudgetUSD > 0 {
		fmt.Fprintf(&b, "Annual budget USD %d. ", prefs.BudgetUSD)
	}
	if len(prefs.Extracurriculars) > 0 {
		fmt.Fprintf(&b, "Extracurriculars: %s. ", strings.Join(prefs.Extracurriculars, ", "))
	}
	if prefs.PersonalNote != "" {
		b.WriteString(prefs.PersonalNote)
	}
	return strings.TrimSpace(b.String())
}

// Run produces ranked recommendations for a profile. Universities the user
// already saved are excluded from the shortlist.
func (r *Recommender) Run(ctx context.Context, profile *models.Profile) ([]models.Recommendation, error) {
	summary := ProfileSummary(profile)
	if summary == "" {
		return nil, fmt.Errorf("profile is empty; fill in preferences first")
	}

	var (
		queryVec []float32
		saved    []models.SavedUniversity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vecs, err := r.embedder.EmbedTexts(gctx, []string{summary})
		if err != nil {
			return fmt.Errorf("embed profile: %w", err)
		}
		if len(vecs) == 0 {
			return fmt.Errorf("embed profile: empty response")
		}
		queryVec = vecs[0]
		return nil
	})
	g.Go(func() error {
		var err error
		saved, err = r.catalogue.ListSavedUniversities(gctx, profile.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	candidates, err := r.catalogue.SearchUniversities(ctx, queryVec, profile.Preferences.BudgetUSD, shortlistSize)
	if err != nil {
		return nil, fmt.Errorf("search universities: %w", err)
	}

	savedIDs := map[string]bool{}
	for _, s := range saved {
		savedIDs[s.UniversityID] = true
	}
	var fresh []models.University
	for _, u := range candidates {
		if !savedIDs[u.ID] {
			fresh = append(fresh, u)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	reasons := r.rank(ctx, summary, fresh)
	return orderByResponse(fresh, reasons), nil
}

// rank asks the model to order the shortlist and explain each pick. A model
// or format failure is non-fatal: the vector ordering stands and reasons
// stay empty.
func (r *Recommender) rank(ctx context.Context, summary string, candidates []models.University) []rankedReason {
	var b strings.Builder
	b.WriteString("Student profile:\n" + summary + "\n\nCandidate universities:\n")
	for _, u := range candidates {
		fmt.Fprintf(&b, "- %s (%s, tuition USD %d/year): %s\n", u.Name, u.Country, u.TuitionUSD, u.Description)
	}
	fmt.Fprintf(&b,
		"\nPick the best %d matches for this student, best first. Respond with one line per pick, in exactly this format:\n<university name>%s<one-sentence reason it fits this student>",
		resultSize, pairSep,
	)

	system := "You are a college-admissions consultant recommending universities to a student. Only pick from the candidate list given."
	resp, err := r.llm.Generate(ctx, system, b.String())
	if err != nil {
		return nil
	}

	var out []rankedReason
	for _, line := range strings.Split(resp, "\n") {
		name, reason, ok := strings.Cut(strings.TrimSpace(line), pairSep)
		if !ok {
			continue
		}
		out = append(out, rankedReason{
			name:   strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(name), "-")),
			reason: strings.TrimSpace(reason),
		})
	}
	return out
}

type rankedReason struct {
	name   string
	reason string
}

// orderByResponse returns recommendations in the model's order, appending
// any shortlisted university the model skipped, capped at resultSize.
func orderByResponse(candidates []models.University, ranked []rankedReason) []models.Recommendation {
	byName := map[string]int{}
	for i, u := range candidates {
		byName[strings.ToLower(u.Name)] = i
	}

	var out []models.Recommendation
	taken := map[int]bool{}
	for _, rr := range ranked {
		idx, ok := byName[strings.ToLower(rr.name)]
		if !ok || taken[idx] {
			continue
		}
		taken[idx] = true
		out = append(out, models.Recommendation{University: candidates[idx], Reason: rr.reason})
		if len(out) == resultSize {
			return out
		}
	}
	for i, u := range candidates {
		if taken[i] {
			continue
		}
		out = append(out, models.Recommendation{University: u})
		if len(out) == resultSize {
			break
		}
	}
	return out
}
