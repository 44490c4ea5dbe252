package services

import (
	"context"

	"foodieconnect/models"
)

const statsPopularLimit = 5

type StatsService struct {
	base
}

type CuisineShare struct {
	Cuisine    string `json:"cuisine"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

type CategoryCount struct {
	Category   string `json:"category"`
	GroupCount int    `json:"groupCount"`
}

type RecipeStat struct {
	Title      string `json:"title"`
	LikesCount int    `json:"likesCount"`
	Author     string `json:"author"`
	Cuisine    string `json:"cuisine"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

func (s *StatsService) Overview(ctx context.Context) (*models.Stats, error) {
	st, err := s.store.Overview(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	return st, nil
}

// Cuisines returns the recipe count per cuisine with rounded percentages.
func (s *StatsService) Cuisines(ctx context.Context) ([]CuisineShare, error) {
	buckets, err := s.store.CuisineDistribution(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	out := make([]CuisineShare, 0, len(buckets))
	for _, b := range buckets {
		name := b.Name
		if name == "" {
			name = "Other"
		}
		pct := 0
		if total > 0 {
			pct = (b.Count*200 + total) / (2 * total)
		}
		out = append(out, CuisineShare{Cuisine: name, Count: b.Count, Percentage: pct})
	}
	return out, nil
}

func (s *StatsService) GroupCategories(ctx context.Context) ([]CategoryCount, error) {
	buckets, err := s.store.GroupCategoryDistribution(ctx)
	if err != nil {
		return nil, translate(err, nil)
	}
	out := make([]CategoryCount, 0, len(buckets))
	for _, b := range buckets {
		name := b.Name
		if name == "" {
			name = "Other"
		}
		out = append(out, CategoryCount{Category: name, GroupCount: b.Count})
	}
	return out, nil
}

// PopularRecipes returns the most liked recipes in chart form.
func (s *StatsService) PopularRecipes(ctx context.Context) ([]RecipeStat, error) {
	recipes, err := s.store.PopularRecipes(ctx, statsPopularLimit)
	if err != nil {
		return nil, translate(err, nil)
	}
	out := make([]RecipeStat, 0, len(recipes))
	for _, r := range recipes {
		author := r.Author.FullName
		if author == "" {
			author = r.Author.Username
		}
		if author == "" {
			author = "Unknown"
		}
		out = append(out, RecipeStat{
			Title:      r.Title,
			LikesCount: len(r.Likes),
			Author:     author,
			Cuisine:    r.Cuisine,
			Category:   r.Category,
			Difficulty: r.Difficulty,
		})
	}
	return out, nil
}
