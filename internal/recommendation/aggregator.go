package recommendation

import (
	"context"
	"fmt"
	"strings"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/models"

	"golang.org/x/sync/errgroup"
)

// DefaultCategory is searched when the user picks no category.
const DefaultCategory = "음식점"

var ErrUpstreamSearchFailed = apperrors.NewSentinel(apperrors.ErrCodeUpstreamSearchFailed)

// SearchFunc runs one category-scoped keyword search.
type SearchFunc func(ctx context.Context, category string) ([]models.PlaceRecord, error)

// Aggregator merges per-category search results into one candidate set.
type Aggregator struct {
	defaultCategory string
	maxConcurrent   int
}

func NewAggregator(defaultCategory string, maxConcurrent int) *Aggregator {
	if defaultCategory == "" {
		defaultCategory = DefaultCategory
	}
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Aggregator{defaultCategory: defaultCategory, maxConcurrent: maxConcurrent}
}

// Aggregate calls search once per category and concatenates the results in
// category order, keeping the first record seen for each ID. Searches run
// concurrently but any failure fails the whole aggregation.
func (a *Aggregator) Aggregate(ctx context.Context, categories []string, search SearchFunc) (models.CandidateSet, error) {
	categories = NormalizeCategories(categories, a.defaultCategory)

	results := make([][]models.PlaceRecord, len(categories))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	for i, category := range categories {
		g.Go(func() error {
			places, err := search(gctx, category)
			if err != nil {
				return fmt.Errorf("%w: category %q: %w", ErrUpstreamSearchFailed, category, err)
			}
			results[i] = places
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := 0
	for _, r := range results {
		total += len(r)
	}
	merged := make([]models.PlaceRecord, 0, total)
	for _, r := range results {
		merged = append(merged, r...)
	}
	return Dedup(merged), nil
}

// Dedup keeps the first occurrence of every ID, preserving order.
func Dedup(places []models.PlaceRecord) models.CandidateSet {
	seen := make(map[string]struct{}, len(places))
	out := make(models.CandidateSet, 0, len(places))
	for _, p := range places {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		out = append(out, p)
	}
	return out
}

// NormalizeCategories trims labels and drops blanks and repeats. An empty
// result falls back to def.
func NormalizeCategories(categories []string, def string) []string {
	seen := make(map[string]struct{}, len(categories))
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	if len(out) == 0 {
		return []string{def}
	}
	return out
}
