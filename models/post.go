package models

import "time"

type GroupPost struct {
	ID        string        `json:"id"`
	GroupID   string        `json:"groupId"`
	AuthorID  string        `json:"authorId"`
	Author    UserSummary   `json:"author"`
	Content   string        `json:"content"`
	Images    []string      `json:"images"`
	RecipeID  string        `json:"recipeId,omitempty"`
	Likes     []string      `json:"likes"`
	Comments  []PostComment `json:"comments"`
	CreatedAt time.Time     `json:"createdAt"`
}

type PostComment struct {
	ID        string      `json:"id"`
	PostID    string      `json:"postId"`
	UserID    string      `json:"userId"`
	User      UserSummary `json:"user"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
}
