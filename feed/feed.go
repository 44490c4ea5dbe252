// Package feed builds a user's personalised recipe feed from three sources:
// recipes of the groups they belong to, their own recent recipes, and their
// friends' recipes.
package feed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"foodieconnect/apperr"
	"foodieconnect/models"
)

// Source is the narrow read contract the aggregator needs.
type Source interface {
	FriendIDs(ctx context.Context, userID string) ([]string, error)
	MemberGroups(ctx context.Context, userID string) ([]models.GroupSummary, error)
	RecipesByGroups(ctx context.Context, groupIDs []string, since time.Time) ([]models.Recipe, error)
	RecipesByAuthors(ctx context.Context, authorIDs []string, since time.Time) ([]models.Recipe, error)
}

// Windows bounds how far back each source reaches. Zero means unbounded.
type Windows struct {
	Group    time.Duration
	Personal time.Duration
	Friend   time.Duration
}

func DefaultWindows() Windows {
	return Windows{Personal: 7 * 24 * time.Hour}
}

type Page struct {
	Entries    []models.FeedEntry
	TotalCount int
	TotalPages int
	// Groups are the viewer's groups, resolved while building the feed.
	Groups []models.GroupSummary
}

type Aggregator struct {
	src     Source
	windows Windows
	now     func() time.Time
}

type Option func(*Aggregator)

func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

func NewAggregator(src Source, windows Windows, opts ...Option) *Aggregator {
	a := &Aggregator{src: src, windows: windows, now: time.Now}
	for _, o := range opts {
		o(a)
	}
	return a
}

func (a *Aggregator) since(window time.Duration, now time.Time) time.Time {
	if window <= 0 {
		return time.Time{}
	}
	return now.Add(-window)
}

// Build returns page (0-based) of the merged feed for userID.
func (a *Aggregator) Build(ctx context.Context, userID string, page, pageSize int) (*Page, error) {
	if pageSize <= 0 {
		return nil, apperr.Validation("page size must be positive")
	}
	if page < 0 {
		return nil, apperr.Validation("page must not be negative")
	}

	entries, groups, err := a.collect(ctx, userID)
	if err != nil {
		return nil, err
	}

	total := len(entries)
	out := &Page{
		Entries:    paginate(entries, page, pageSize),
		TotalCount: total,
		TotalPages: (total + pageSize - 1) / pageSize,
		Groups:     groups,
	}
	return out, nil
}

func (a *Aggregator) collect(ctx context.Context, userID string) ([]models.FeedEntry, []models.GroupSummary, error) {
	var (
		friendIDs []string
		groups    []models.GroupSummary
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := a.src.FriendIDs(gctx, userID)
		if err != nil {
			return fmt.Errorf("resolve friends: %w", err)
		}
		friendIDs = ids
		return nil
	})
	g.Go(func() error {
		gs, err := a.src.MemberGroups(gctx, userID)
		if err != nil {
			return fmt.Errorf("resolve groups: %w", err)
		}
		groups = gs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	groupIDs := make([]string, 0, len(groups))
	groupByID := make(map[string]models.GroupSummary, len(groups))
	for _, gs := range groups {
		groupIDs = append(groupIDs, gs.ID)
		groupByID[gs.ID] = gs
	}

	now := a.now()
	var groupRecipes, ownRecipes, friendRecipes []models.Recipe
	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		if len(groupIDs) == 0 {
			return nil
		}
		rs, err := a.src.RecipesByGroups(gctx, groupIDs, a.since(a.windows.Group, now))
		if err != nil {
			return fmt.Errorf("load group recipes: %w", err)
		}
		groupRecipes = rs
		return nil
	})
	g.Go(func() error {
		rs, err := a.src.RecipesByAuthors(gctx, []string{userID}, a.since(a.windows.Personal, now))
		if err != nil {
			return fmt.Errorf("load own recipes: %w", err)
		}
		ownRecipes = rs
		return nil
	})
	g.Go(func() error {
		if len(friendIDs) == 0 {
			return nil
		}
		rs, err := a.src.RecipesByAuthors(gctx, friendIDs, a.since(a.windows.Friend, now))
		if err != nil {
			return fmt.Errorf("load friend recipes: %w", err)
		}
		friendRecipes = rs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if groups == nil {
		groups = []models.GroupSummary{}
	}
	return merge(groupRecipes, ownRecipes, friendRecipes, groupByID), groups, nil
}

// merge deduplicates by recipe id with precedence group > own > friend and
// sorts newest first, ties by recipe id.
func merge(group, own, friend []models.Recipe, groups map[string]models.GroupSummary) []models.FeedEntry {
	seen := make(map[string]bool, len(group)+len(own)+len(friend))
	entries := make([]models.FeedEntry, 0, len(group)+len(own)+len(friend))

	for i := range group {
		r := &group[i]
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		e := models.FeedEntry{
			ID:        "group_recipe_" + r.ID,
			Recipe:    r,
			CreatedAt: r.CreatedAt,
			Type:      models.SourceGroupRecipe,
		}
		if gs, ok := groups[r.GroupID]; ok {
			e.Group = &gs
		} else if r.Group != nil {
			e.Group = r.Group
		}
		entries = append(entries, e)
	}

	add := func(rs []models.Recipe, typ models.SourceType) {
		for i := range rs {
			r := &rs[i]
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			entries = append(entries, models.FeedEntry{
				ID:        "recipe_" + r.ID,
				Recipe:    r,
				Group:     r.Group,
				CreatedAt: r.CreatedAt,
				Type:      typ,
			})
		}
	}
	add(own, models.SourcePersonalRecipe)
	add(friend, models.SourceFriendRecipe)

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].Recipe.ID < entries[j].Recipe.ID
	})
	return entries
}

func paginate(entries []models.FeedEntry, page, pageSize int) []models.FeedEntry {
	start := page * pageSize
	if start >= len(entries) {
		return []models.FeedEntry{}
	}
	end := min(start+pageSize, len(entries))
	return entries[start:end]
}
