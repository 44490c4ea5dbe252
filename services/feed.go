package services

import (
	"context"

	"foodieconnect/feed"
	"foodieconnect/models"
)

type FeedService struct {
	base
	agg *feed.Aggregator
}

// FeedPage is one page of a user's feed with 1-based paging fields.
type FeedPage struct {
	Posts       []models.FeedEntry    `json:"posts"`
	TotalPosts  int                   `json:"totalPosts"`
	CurrentPage int                   `json:"currentPage"`
	TotalPages  int                   `json:"totalPages"`
	HasNext     bool                  `json:"hasNext"`
	HasPrev     bool                  `json:"hasPrev"`
	UserGroups  []models.GroupSummary `json:"userGroups"`
}

// Build returns page (1-based) of userID's feed.
func (s *FeedService) Build(ctx context.Context, userID string, page, limit int) (*FeedPage, error) {
	if _, err := s.actor(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.agg.Build(ctx, userID, page-1, limit)
	if err != nil {
		err = translate(err, nil)
		logFailure("build feed", err, "user_id", userID)
		return nil, err
	}
	return &FeedPage{
		Posts:       p.Entries,
		TotalPosts:  p.TotalCount,
		CurrentPage: page,
		TotalPages:  p.TotalPages,
		HasNext:     page < p.TotalPages,
		HasPrev:     page > 1,
		UserGroups:  p.Groups,
	}, nil
}
