package models

import "time"

type SourceType string

const (
	SourceGroupRecipe    SourceType = "group_recipe"
	SourcePersonalRecipe SourceType = "personal_recipe"
	SourceFriendRecipe   SourceType = "friend_recipe"
)

// FeedEntry is computed per request and never persisted.
type FeedEntry struct {
	ID        string        `json:"id"`
	Recipe    *Recipe       `json:"recipe"`
	Group     *GroupSummary `json:"group,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Type      SourceType    `json:"type"`
}

type Stats struct {
	TotalUsers   int `json:"totalUsers"`
	TotalRecipes int `json:"totalRecipes"`
	TotalGroups  int `json:"totalGroups"`
	TotalLikes   int `json:"totalLikes"`
}

type CountBucket struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
