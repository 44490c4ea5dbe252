package models

import (
	"slices"
	"time"
)

var (
	RecipeCategories = []string{"Appetizer", "Main Dish", "Side Dish", "Dessert", "Breakfast", "Snack", "Beverage"}
	Cuisines         = []string{"Italian", "Asian", "Mediterranean", "Mexican", "American", "French", "Indian", "Middle Eastern", "Other"}
	Difficulties     = []string{"Easy", "Medium", "Hard"}
)

func IsRecipeCategory(c string) bool { return slices.Contains(RecipeCategories, c) }
func IsCuisine(c string) bool        { return slices.Contains(Cuisines, c) }
func IsDifficulty(d string) bool     { return slices.Contains(Difficulties, d) }

type Ingredient struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

type Recipe struct {
	ID           string       `json:"id"`
	AuthorID     string       `json:"authorId"`
	GroupID      string       `json:"groupId,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     string       `json:"category"`
	Cuisine      string       `json:"cuisine"`
	Difficulty   string       `json:"difficulty"`
	PrepTime     int          `json:"prepTime"`
	CookTime     int          `json:"cookTime"`
	Servings     int          `json:"servings"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	Images       []string     `json:"images"`
	Tags         []string     `json:"tags"`
	VideoURL     string       `json:"videoUrl"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`

	// Populated on read.
	Author    UserSummary     `json:"author"`
	Group     *GroupSummary   `json:"group,omitempty"`
	Likes     []string        `json:"likes"`
	Comments  []RecipeComment `json:"comments"`
	LikeCount int             `json:"likeCount"`
}

type RecipeComment struct {
	ID        string      `json:"id"`
	RecipeID  string      `json:"recipeId"`
	UserID    string      `json:"userId"`
	User      UserSummary `json:"user"`
	Text      string      `json:"text"`
	CreatedAt time.Time   `json:"createdAt"`
}

// RecipeFilter narrows recipe listings. Zero values mean "any".
type RecipeFilter struct {
	Search      string
	Category    string
	Cuisine     string
	Difficulty  string
	MaxPrepTime int
	Tags        []string
	Ingredient  string
	AuthorID    string
	GroupID     string
	Offset      int
	Limit       int
}
