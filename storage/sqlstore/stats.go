package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"foodieconnect/models"
)

func (s *Store) Overview(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	counts := []struct {
		table string
		dst   *int
	}{
		{"users", &st.TotalUsers},
		{"recipes", &st.TotalRecipes},
		{"cooking_groups", &st.TotalGroups},
		{"recipe_likes", &st.TotalLikes},
	}
	for _, c := range counts {
		n, err := s.count(ctx, s.sb().Select("COUNT(*)").From(c.table))
		if err != nil {
			return nil, wrap("count "+c.table, err)
		}
		*c.dst = n
	}
	return &st, nil
}

func (s *Store) CuisineDistribution(ctx context.Context) ([]models.CountBucket, error) {
	return s.buckets(ctx, s.sb().Select("cuisine", "COUNT(*)").From("recipes").GroupBy("cuisine"))
}

func (s *Store) GroupCategoryDistribution(ctx context.Context) ([]models.CountBucket, error) {
	return s.buckets(ctx, s.sb().Select("category", "COUNT(*)").From("cooking_groups").GroupBy("category"))
}

func (s *Store) buckets(ctx context.Context, b sq.SelectBuilder) ([]models.CountBucket, error) {
	rows, err := b.OrderBy("2 DESC", "1").QueryContext(ctx)
	if err != nil {
		return nil, wrap("load distribution", err)
	}
	defer rows.Close()

	out := []models.CountBucket{}
	for rows.Next() {
		var bk models.CountBucket
		if err := rows.Scan(&bk.Name, &bk.Count); err != nil {
			return nil, wrap("scan distribution", err)
		}
		out = append(out, bk)
	}
	return out, rows.Err()
}
