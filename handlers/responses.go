package handlers

import (
	"foodieconnect/models"
	"foodieconnect/services"
)

type AuthResponse struct {
	models.UserResponse
	Token string `json:"token"`
}

type ListFilters struct {
	Search     string `json:"search,omitempty"`
	Location   string `json:"location,omitempty"`
	Experience string `json:"experience,omitempty"`
	Category   string `json:"category,omitempty"`
	MinMembers int    `json:"minMembers,omitempty"`
	MaxMembers int    `json:"maxMembers,omitempty"`
	IsPrivate  *bool  `json:"isPrivate,omitempty"`
	Cuisine    string `json:"cuisine,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	MaxPrep    int    `json:"maxPrepTime,omitempty"`
	Tags       string `json:"tags,omitempty"`
	Ingredient string `json:"ingredient,omitempty"`
}

type UserListResponse struct {
	Users       []*models.UserResponse `json:"users"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
	Total       int                    `json:"total"`
	Filters     *ListFilters           `json:"filters,omitempty"`
}

type FriendsResponse struct {
	Friends []models.FriendWithUser `json:"friends"`
}

type FriendRequestsResponse struct {
	Requests []models.FriendWithUser `json:"requests"`
}

type GroupListResponse struct {
	Groups      []models.GroupListItem `json:"groups"`
	TotalPages  int                    `json:"totalPages"`
	CurrentPage int                    `json:"currentPage"`
	Total       int                    `json:"total"`
	Filters     *ListFilters           `json:"filters,omitempty"`
}

type PendingRequestsResponse struct {
	Requests []models.UserSummary `json:"requests"`
}

type PostLikeResponse struct {
	Message    string `json:"message"`
	LikesCount int    `json:"likesCount"`
	IsLiked    bool   `json:"isLiked"`
}

type CommentResponse struct {
	Message string              `json:"message"`
	Comment *models.PostComment `json:"comment"`
}

type RecipeListResponse struct {
	Recipes     []models.Recipe `json:"recipes"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Total       int             `json:"total"`
	Filters     *ListFilters    `json:"filters,omitempty"`
}

type RecipeLikeResponse struct {
	Message string `json:"message"`
	Likes   int    `json:"likes"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unreadCount"`
}

type ReadAllResponse struct {
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// DataResponse wraps chart data for the stats endpoints.
type DataResponse[T any] struct {
	Data T `json:"data"`
}

type FileResponse struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// FeedResponse is the paged feed; currentPage is 1-based.
type FeedResponse = services.FeedPage
