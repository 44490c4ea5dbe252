package models

import (
	"slices"
	"time"
)

var GroupCategories = []string{
	"Italian Cooking",
	"Asian Cuisine",
	"Vegan",
	"Vegetarian",
	"Baking",
	"Healthy Eating",
	"Quick Meals",
	"Fine Dining",
	"BBQ & Grilling",
	"Desserts",
	"International",
	"Other",
}

func IsGroupCategory(c string) bool {
	return slices.Contains(GroupCategories, c)
}

type Group struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	IsPrivate   bool      `json:"isPrivate"`
	CoverImage  string    `json:"coverImage"`
	Rules       []string  `json:"rules"`
	AdminID     string    `json:"adminId"`
	Version     int64     `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Members is ordered by join position; Members[0] is the longest-standing member.
	Members         []string `json:"members"`
	PendingRequests []string `json:"pendingRequests"`
}

func (g *Group) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

func (g *Group) HasPending(userID string) bool {
	return slices.Contains(g.PendingRequests, userID)
}

type GroupSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

func (g *Group) ToSummary() GroupSummary {
	return GroupSummary{ID: g.ID, Name: g.Name, Category: g.Category}
}

// GroupListItem is the list/search view of a group, without posts.
type GroupListItem struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	IsPrivate   bool        `json:"isPrivate"`
	CoverImage  string      `json:"coverImage"`
	Admin       UserSummary `json:"admin"`
	MemberCount int         `json:"memberCount"`
	CreatedAt   time.Time   `json:"createdAt"`
}

type GroupDetail struct {
	ID              string        `json:"id"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Category        string        `json:"category"`
	IsPrivate       bool          `json:"isPrivate"`
	CoverImage      string        `json:"coverImage"`
	Rules           []string      `json:"rules"`
	Admin           UserSummary   `json:"admin"`
	Members         []UserSummary `json:"members"`
	PendingRequests []UserSummary `json:"pendingRequests"`
	MemberCount     int           `json:"memberCount"`
	Posts           []GroupPost   `json:"posts"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type GroupFilter struct {
	Category   string
	Search     string
	IsPrivate  *bool
	MinMembers int
	MaxMembers int
	Offset     int
	Limit      int
}
