package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodieconnect/database"
	"foodieconnect/models"
	"foodieconnect/storage"
)

var base = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	db, err := database.Open(ctx, database.Options{Engine: database.EngineSQLite, URI: "file:" + path, ConnTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.EngineSQLite, 0))
	return New(db)
}

func seedUser(t *testing.T, s *Store, name string) *models.User {
	t.Helper()
	u := &models.User{
		ID:         "u-" + name,
		Username:   name,
		Email:      name + "@example.com",
		Password:   "hash",
		FullName:   "Chef " + name,
		Experience: "Beginner",
		Role:       models.RoleUser,
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedGroup(t *testing.T, s *Store, name, adminID string, private bool) *models.Group {
	t.Helper()
	g := &models.Group{
		ID:          "g-" + name,
		Name:        name,
		Description: "about " + name,
		Category:    "Baking",
		IsPrivate:   private,
		Rules:       []string{"be kind"},
		AdminID:     adminID,
		Version:     1,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
	require.NoError(t, s.CreateGroup(context.Background(), g))
	return g
}

func seedRecipe(t *testing.T, s *Store, id, authorID, groupID string, at time.Time) *models.Recipe {
	t.Helper()
	r := &models.Recipe{
		ID:           id,
		AuthorID:     authorID,
		GroupID:      groupID,
		Title:        "Recipe " + id,
		Description:  "tasty",
		Category:     "Dessert",
		Cuisine:      "French",
		Difficulty:   "Easy",
		PrepTime:     10,
		CookTime:     20,
		Servings:     2,
		Ingredients:  []models.Ingredient{{Name: "flour", Amount: "200", Unit: "g"}},
		Instructions: []string{"mix", "bake"},
		Tags:         []string{"sweet"},
		CreatedAt:    at,
		UpdatedAt:    at,
	}
	require.NoError(t, s.CreateRecipe(context.Background(), r))
	return r
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")

	got, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, models.RoleUser, got.Role)

	exists, err := s.UserExists(ctx, "alice", "other@example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	err = s.CreateUser(ctx, &models.User{ID: "dup", Username: "alice", Email: "x@example.com", CreatedAt: base, UpdatedAt: base})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got.Bio = "loves bread"
	got.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.UpdateUser(ctx, got))

	users, total, err := s.ListUsers(ctx, models.UserFilter{Search: "bread"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, users, 1)
	assert.Equal(t, alice.ID, users[0].ID)

	require.NoError(t, s.SetUserRole(ctx, alice.ID, models.RoleGroupAdmin))
	_, total, err = s.ListUsers(ctx, models.UserFilter{})
	require.NoError(t, err)
	assert.Zero(t, total, "group admins are hidden from the directory")
}

func TestSearchEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	seedUser(t, s, "under_score")
	seedUser(t, s, "underxscore")

	users, _, err := s.ListUsers(ctx, models.UserFilter{Search: "under_"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "under_score", users[0].Username)
}

func TestFriendEntries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedUser(t, s, "a")
	b := seedUser(t, s, "b")

	entry := &models.FriendEntry{ID: "f1", OwnerID: b.ID, PeerID: a.ID, Status: models.FriendPending, CreatedAt: base, UpdatedAt: base}
	require.NoError(t, s.CreateFriendEntry(ctx, entry))
	crossed := &models.FriendEntry{ID: "f2", OwnerID: a.ID, PeerID: b.ID, Status: models.FriendPending, CreatedAt: base, UpdatedAt: base}
	assert.ErrorIs(t, s.CreateFriendEntry(ctx, crossed), storage.ErrDuplicate, "one pending request per pair")

	assert.ErrorIs(t, s.AcceptFriendEntry(ctx, "f1", a.ID, base), storage.ErrNotFound, "only the owner may accept")
	require.NoError(t, s.AcceptFriendEntry(ctx, "f1", b.ID, base))
	assert.ErrorIs(t, s.AcceptFriendEntry(ctx, "f1", b.ID, base), storage.ErrNotFound, "already accepted")

	ids, err := s.FriendIDs(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids)

	found, err := s.FindFriendEntries(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	n, err := s.DeleteFriendship(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGroupMembershipOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin")
	m1 := seedUser(t, s, "m1")
	m2 := seedUser(t, s, "m2")
	g := seedGroup(t, s, "Bakers", admin.ID, false)

	require.NoError(t, s.AddMember(ctx, g.ID, m2.ID, base.Add(time.Minute)))
	require.NoError(t, s.AddMember(ctx, g.ID, m1.ID, base.Add(2*time.Minute)))
	assert.ErrorIs(t, s.AddMember(ctx, g.ID, m1.ID, base), storage.ErrDuplicate)

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID, m2.ID, m1.ID}, got.Members)
	assert.Equal(t, []string{"be kind"}, got.Rules)
	assert.Equal(t, int64(1), got.Version)

	require.NoError(t, s.RemoveMember(ctx, g.ID, m2.ID))
	assert.ErrorIs(t, s.RemoveMember(ctx, g.ID, m2.ID), storage.ErrNotFound)

	require.NoError(t, s.AddMember(ctx, g.ID, m2.ID, base.Add(3*time.Minute)))
	got, err = s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{admin.ID, m1.ID, m2.ID}, got.Members, "rejoining moves to the end")
}

func TestBumpGroupVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin")
	g := seedGroup(t, s, "Grill", admin.ID, false)

	require.NoError(t, s.BumpGroupVersion(ctx, g.ID, 1, base))
	assert.ErrorIs(t, s.BumpGroupVersion(ctx, g.ID, 1, base), storage.ErrVersionConflict)

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestJoinRequests(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin")
	u := seedUser(t, s, "u")
	g := seedGroup(t, s, "Secret", admin.ID, true)

	require.NoError(t, s.AddJoinRequest(ctx, g.ID, u.ID, base))
	assert.ErrorIs(t, s.AddJoinRequest(ctx, g.ID, u.ID, base), storage.ErrDuplicate)

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{u.ID}, got.PendingRequests)

	removed, err := s.RemoveJoinRequest(ctx, g.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.RemoveJoinRequest(ctx, g.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestListGroupsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin")
	other := seedUser(t, s, "other")
	open := seedGroup(t, s, "Open Kitchen", admin.ID, false)
	seedGroup(t, s, "Closed Kitchen", admin.ID, true)
	require.NoError(t, s.AddMember(ctx, open.ID, other.ID, base))

	items, total, err := s.ListGroups(ctx, models.GroupFilter{Search: "kitchen"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	private := false
	items, total, err = s.ListGroups(ctx, models.GroupFilter{IsPrivate: &private})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].ID)
	assert.Equal(t, 2, items[0].MemberCount)
	assert.Equal(t, "admin", items[0].Admin.Username)

	items, _, err = s.ListGroups(ctx, models.GroupFilter{MinMembers: 2})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, open.ID, items[0].ID)

	groups, err := s.MemberGroups(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.GroupSummary{{ID: open.ID, Name: open.Name, Category: open.Category}}, groups)

	owned, err := s.AdminGroups(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, owned, 2)
	for _, g := range owned {
		if g.ID == open.ID {
			assert.Equal(t, []string{admin.ID, other.ID}, g.Members)
		} else {
			assert.Equal(t, []string{admin.ID}, g.Members)
		}
	}
}

func TestDeleteGroupUntagsRecipes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	admin := seedUser(t, s, "admin")
	g := seedGroup(t, s, "Soups", admin.ID, false)
	r := seedRecipe(t, s, "r1", admin.ID, g.ID, base)

	post := &models.GroupPost{ID: "p1", GroupID: g.ID, AuthorID: admin.ID, Content: "hi", CreatedAt: base}
	require.NoError(t, s.CreatePost(ctx, post))

	require.NoError(t, s.DeleteGroup(ctx, g.ID))
	_, err := s.GetGroup(ctx, g.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	got, err := s.GetRecipe(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.GroupID)
	assert.Nil(t, got.Group)
}

func TestRecipeHydrationAndLikes(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	g := seedGroup(t, s, "Pastry", alice.ID, false)
	r := seedRecipe(t, s, "r1", alice.ID, g.ID, base)

	liked, err := s.ToggleRecipeLike(ctx, r.ID, bob.ID, base)
	require.NoError(t, err)
	assert.True(t, liked)

	require.NoError(t, s.AddRecipeComment(ctx, &models.RecipeComment{ID: "c1", RecipeID: r.ID, UserID: bob.ID, Text: "yum", CreatedAt: base}))

	got, err := s.GetRecipe(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Author.Username)
	require.NotNil(t, got.Group)
	assert.Equal(t, "Pastry", got.Group.Name)
	assert.Equal(t, []string{bob.ID}, got.Likes)
	assert.Equal(t, 1, got.LikeCount)
	require.Len(t, got.Comments, 1)
	assert.Equal(t, "bob", got.Comments[0].User.Username)
	assert.Equal(t, []models.Ingredient{{Name: "flour", Amount: "200", Unit: "g"}}, got.Ingredients)

	liked, err = s.ToggleRecipeLike(ctx, r.ID, bob.ID, base)
	require.NoError(t, err)
	assert.False(t, liked)

	require.NoError(t, s.DeleteRecipe(ctx, r.ID))
	_, err = s.GetRecipeComment(ctx, "c1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListRecipeFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	seedRecipe(t, s, "r1", alice.ID, "", base)
	r2 := seedRecipe(t, s, "r2", alice.ID, "", base.Add(time.Hour))
	r2.Tags = []string{"savory"}
	r2.Ingredients = []models.Ingredient{{Name: "salt"}}
	r2.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, s.UpdateRecipe(ctx, r2))

	recipes, total, err := s.ListRecipes(ctx, models.RecipeFilter{Tags: []string{"savory"}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, "r2", recipes[0].ID)

	recipes, _, err = s.ListRecipes(ctx, models.RecipeFilter{Ingredient: "flour"})
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, "r1", recipes[0].ID)

	recipes, total, err = s.ListRecipes(ctx, models.RecipeFilter{AuthorID: alice.ID, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, recipes, 1)
	assert.Equal(t, "r2", recipes[0].ID, "newest first")
}

func TestRecipesSinceWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	for i := range 3 {
		seedRecipe(t, s, fmt.Sprintf("r%d", i), alice.ID, "", base.Add(time.Duration(i)*24*time.Hour))
	}

	all, err := s.RecipesByAuthors(ctx, []string{alice.ID}, time.Time{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "r2", all[0].ID)

	recent, err := s.RecipesByAuthors(ctx, []string{alice.ID}, base.Add(36*time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "r2", recent[0].ID)

	none, err := s.RecipesByGroups(ctx, nil, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestChatHistoryAndRead(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a := seedUser(t, s, "a")
	b := seedUser(t, s, "b")

	for i := range 5 {
		from, to := a.ID, b.ID
		if i%2 == 1 {
			from, to = b.ID, a.ID
		}
		require.NoError(t, s.CreateMessage(ctx, &models.ChatMessage{
			ID: fmt.Sprintf("m%d", i), SenderID: from, ReceiverID: to,
			Message: fmt.Sprintf("msg %d", i), CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	history, err := s.ChatHistory(ctx, a.ID, b.ID, 3)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{"m2", "m3", "m4"}, []string{history[0].ID, history[1].ID, history[2].ID})
	assert.Equal(t, "a", history[0].Sender.Username)

	unread, err := s.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	n, err := s.MarkRead(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	unread, err = s.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestNotifications(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "u")

	for i := range 2 {
		require.NoError(t, s.CreateNotification(ctx, &models.Notification{
			ID: fmt.Sprintf("n%d", i), UserID: u.ID, Type: models.NotifyFriendRequest,
			Title: "Friend request", Message: "hello", Payload: []byte(`{"k":1}`),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	require.NoError(t, s.MarkNotificationRead(ctx, "n0", u.ID, base))
	assert.ErrorIs(t, s.MarkNotificationRead(ctx, "n0", "someone-else", base), storage.ErrNotFound)

	unread, err := s.ListNotifications(ctx, u.ID, true, 0)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "n1", unread[0].ID)
	assert.JSONEq(t, `{"k":1}`, string(unread[0].Payload))

	n, err := s.MarkAllNotificationsRead(ctx, u.ID, base)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := s.ListNotifications(ctx, u.ID, false, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.NotNil(t, all[0].ReadAt)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice := seedUser(t, s, "alice")
	seedGroup(t, s, "Cakes", alice.ID, false)
	seedRecipe(t, s, "r1", alice.ID, "", base)
	seedRecipe(t, s, "r2", alice.ID, "", base)

	st, err := s.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalUsers: 1, TotalRecipes: 2, TotalGroups: 1}, *st)

	cuisines, err := s.CuisineDistribution(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CountBucket{{Name: "French", Count: 2}}, cuisines)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(tx storage.Store) error {
		require.NoError(t, tx.CreateUser(ctx, &models.User{ID: "x", Username: "x", Email: "x@e", CreatedAt: base, UpdatedAt: base}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetUser(ctx, "x")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
