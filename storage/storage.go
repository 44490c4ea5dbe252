// Package storage defines the persistence contract used by the services.
// Implementations translate driver errors into the sentinel errors below.
package storage

import (
	"context"
	"errors"
	"time"

	"foodieconnect/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrVersionConflict = errors.New("version conflict")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
	UpdateUser(ctx context.Context, u *models.User) error
	SetUserRole(ctx context.Context, id string, role models.Role) error
	DeleteUser(ctx context.Context, id string) error
	// ListUsers excludes group admins, matching the public directory.
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, int, error)
	UserSummaries(ctx context.Context, ids []string) (map[string]models.UserSummary, error)

	AddFavorite(ctx context.Context, userID, recipeID string, at time.Time) error
	RemoveFavorite(ctx context.Context, userID, recipeID string) error
	ListFavorites(ctx context.Context, userID string) ([]string, error)
}

type FriendStore interface {
	CreateFriendEntry(ctx context.Context, e *models.FriendEntry) error
	GetFriendEntry(ctx context.Context, id string) (*models.FriendEntry, error)
	// FindFriendEntries returns the entries between a and b in either direction.
	FindFriendEntries(ctx context.Context, a, b string) ([]models.FriendEntry, error)
	// AcceptFriendEntry flips a pending entry owned by ownerID to accepted.
	// It returns ErrNotFound when no such pending entry exists.
	AcceptFriendEntry(ctx context.Context, id, ownerID string, at time.Time) error
	DeleteFriendEntry(ctx context.Context, id string) error
	DeleteFriendship(ctx context.Context, a, b string) (int64, error)
	ListFriendEntries(ctx context.Context, ownerID string, status models.FriendStatus) ([]models.FriendEntry, error)
	FriendIDs(ctx context.Context, userID string) ([]string, error)
}

type GroupStore interface {
	// CreateGroup inserts the group and its admin as the first member.
	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	GetGroupByName(ctx context.Context, name string) (*models.Group, error)
	UpdateGroup(ctx context.Context, g *models.Group) error
	DeleteGroup(ctx context.Context, id string) error
	// BumpGroupVersion increments the version iff it still equals expected.
	BumpGroupVersion(ctx context.Context, id string, expected int64, at time.Time) error
	SetGroupAdmin(ctx context.Context, groupID, adminID string) error

	AddMember(ctx context.Context, groupID, userID string, at time.Time) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	AddJoinRequest(ctx context.Context, groupID, userID string, at time.Time) error
	RemoveJoinRequest(ctx context.Context, groupID, userID string) (bool, error)

	ListGroups(ctx context.Context, f models.GroupFilter) ([]models.GroupListItem, int, error)
	MemberGroups(ctx context.Context, userID string) ([]models.GroupSummary, error)
	MemberGroupItems(ctx context.Context, userID string) ([]models.GroupListItem, error)
	AdminGroups(ctx context.Context, userID string) ([]models.Group, error)
}

type RecipeStore interface {
	CreateRecipe(ctx context.Context, r *models.Recipe) error
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, r *models.Recipe) error
	DeleteRecipe(ctx context.Context, id string) error
	ListRecipes(ctx context.Context, f models.RecipeFilter) ([]models.Recipe, int, error)
	PopularRecipes(ctx context.Context, limit int) ([]models.Recipe, error)
	// RecipesByGroups and RecipesByAuthors return newest first; a zero since
	// means no lower bound.
	RecipesByGroups(ctx context.Context, groupIDs []string, since time.Time) ([]models.Recipe, error)
	RecipesByAuthors(ctx context.Context, authorIDs []string, since time.Time) ([]models.Recipe, error)

	ToggleRecipeLike(ctx context.Context, recipeID, userID string, at time.Time) (bool, error)
	AddRecipeComment(ctx context.Context, c *models.RecipeComment) error
	GetRecipeComment(ctx context.Context, id string) (*models.RecipeComment, error)
	DeleteRecipeComment(ctx context.Context, id string) error
}

type PostStore interface {
	CreatePost(ctx context.Context, p *models.GroupPost) error
	GetPost(ctx context.Context, id string) (*models.GroupPost, error)
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, groupID string) ([]models.GroupPost, error)
	TogglePostLike(ctx context.Context, postID, userID string, at time.Time) (bool, error)
	AddPostComment(ctx context.Context, c *models.PostComment) error
	GetPostComment(ctx context.Context, id string) (*models.PostComment, error)
	DeletePostComment(ctx context.Context, id string) error
}

type ChatStore interface {
	CreateMessage(ctx context.Context, m *models.ChatMessage) error
	// ChatHistory returns the latest limit messages between a and b, oldest first.
	ChatHistory(ctx context.Context, a, b string, limit int) ([]models.ChatMessage, error)
	MarkRead(ctx context.Context, senderID, receiverID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// MessagesFor returns every message sent or received by userID, newest first.
	MessagesFor(ctx context.Context, userID string) ([]models.ChatMessage, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string, at time.Time) error
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int64, error)
}

type StatsStore interface {
	Overview(ctx context.Context) (*models.Stats, error)
	CuisineDistribution(ctx context.Context) ([]models.CountBucket, error)
	GroupCategoryDistribution(ctx context.Context) ([]models.CountBucket, error)
}

type Store interface {
	UserStore
	FriendStore
	GroupStore
	RecipeStore
	PostStore
	ChatStore
	NotificationStore
	StatsStore

	// WithTx runs fn against a transactional view of the store. Nested calls
	// reuse the outer transaction.
	WithTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
	Close() error
}
