package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodieconnect/apperr"
	"foodieconnect/database"
	"foodieconnect/feed"
	"foodieconnect/models"
	"foodieconnect/notify"
	"foodieconnect/policy"
	"foodieconnect/storage"
	"foodieconnect/storage/sqlstore"
)

type pushed struct {
	users []string
	event string
	data  any
}

type recordingPusher struct {
	mu     sync.Mutex
	events []pushed
}

func (p *recordingPusher) Push(_ context.Context, userIDs []string, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, pushed{users: userIDs, event: event, data: data})
	return nil
}

func (p *recordingPusher) find(event string) []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pushed
	for _, e := range p.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

// steppingClock advances one second per reading so records get distinct,
// ordered timestamps.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

type staticTokens struct{}

func (staticTokens) Generate(userID string) (string, error) { return "token-" + userID, nil }

type env struct {
	svc    *Services
	store  storage.Store
	pusher *recordingPusher
}

func newEnv(t *testing.T, mode policy.Mode) *env {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "services.db")
	db, err := database.Open(ctx, database.Options{Engine: database.EngineSQLite, URI: "file:" + path, ConnTimeout: 5 * time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db, database.EngineSQLite, 0))

	store := sqlstore.New(db)
	pusher := &recordingPusher{}
	clock := &steppingClock{t: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc := New(Deps{
		Store:    store,
		Policy:   policy.New(mode),
		Notifier: notify.NewDispatcher(store, pusher),
		Tokens:   staticTokens{},
		Windows:  feed.DefaultWindows(),
		Now:      clock.Now,
	})
	return &env{svc: svc, store: store, pusher: pusher}
}

func (e *env) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{
		ID:         "u-" + name,
		Username:   name,
		Email:      name + "@example.com",
		Password:   "x",
		FullName:   "Chef " + name,
		Experience: "Beginner",
		Role:       models.RoleUser,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u
}

func (e *env) group(t *testing.T, adminID, name, category string, private bool) *models.GroupDetail {
	t.Helper()
	g, err := e.svc.Groups.Create(context.Background(), adminID, GroupInput{
		Name:        name,
		Description: "All about " + name,
		Category:    category,
		IsPrivate:   private,
	})
	require.NoError(t, err)
	return g
}

func recipeInput(title string) RecipeInput {
	return RecipeInput{
		Title:        title,
		Description:  "A " + title,
		Category:     "Main Dish",
		Cuisine:      "Mediterranean",
		Difficulty:   "Easy",
		PrepTime:     10,
		CookTime:     15,
		Servings:     2,
		Ingredients:  []models.Ingredient{{Name: "chickpeas", Amount: "400", Unit: "g"}},
		Instructions: []string{"Blend everything"},
		Tags:         []string{"vegan"},
	}
}

func memberIDs(d *models.GroupDetail) []string {
	ids := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

func pendingIDs(d *models.GroupDetail) []string {
	ids := make([]string, 0, len(d.PendingRequests))
	for _, m := range d.PendingRequests {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice := e.user(t, "alice")

	g := e.group(t, alice.ID, "Pasta Lab", "Italian Cooking", false)
	assert.Equal(t, alice.ID, g.Admin.ID)
	assert.Equal(t, []string{alice.ID}, memberIDs(g))

	u, err := e.store.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGroupAdmin, u.Role)

	_, err = e.svc.Groups.Create(ctx, alice.ID, GroupInput{Name: "Pasta Lab", Description: "again", Category: "Other"})
	assert.ErrorIs(t, err, apperr.ErrGroupNameTaken)

	_, err = e.svc.Groups.Create(ctx, alice.ID, GroupInput{Name: "No Category", Description: "x", Category: "Knitting"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestJoinPublicGroup(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Open Kitchen", "Quick Meals", false)

	msg, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgJoined, msg)

	got, err := e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, memberIDs(got))
	assert.Empty(t, got.PendingRequests)

	_, err = e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrAlreadyMember)
}

func TestJoinPrivateGroupApproveAndReject(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice.ID, "Secret Sauce", "Fine Dining", true)

	msg, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgJoinRequested, msg)
	_, err = e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = e.svc.Groups.RequestJoin(ctx, carol.ID, g.ID)
	require.NoError(t, err)

	got, err := e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{bob.ID, carol.ID}, pendingIDs(got))
	assert.Equal(t, []string{alice.ID}, memberIDs(got))

	_, err = e.svc.Groups.Get(ctx, bob.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrPrivateGroup)

	require.NoError(t, e.svc.Groups.Approve(ctx, alice.ID, g.ID, bob.ID))
	require.NoError(t, e.svc.Groups.Reject(ctx, alice.ID, g.ID, carol.ID))
	assert.ErrorIs(t, e.svc.Groups.Approve(ctx, alice.ID, g.ID, carol.ID), apperr.ErrNoPendingRequest)

	got, err = e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, memberIDs(got))
	assert.Empty(t, got.PendingRequests)

	// bob is a member now and sees the group, but not its pending requests
	got, err = e.svc.Groups.Get(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PendingRequests)

	requests := e.pusher.find(models.NotifyGroupJoinRequest)
	require.Len(t, requests, 2)
	assert.Equal(t, []string{alice.ID}, requests[0].users)
	data := requests[0].data.(map[string]any)
	assert.Equal(t, g.ID, data["groupId"])
	assert.Equal(t, "Secret Sauce", data["groupName"])
	assert.Equal(t, bob.ID, data["userId"])
	assert.Equal(t, "New join request for group: Secret Sauce", data["message"])

	notes, err := e.svc.Notifications.List(ctx, alice.ID, true)
	require.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Len(t, e.pusher.find(models.NotifyGroupJoinApproved), 1)
	assert.Len(t, e.pusher.find(models.NotifyGroupJoinRejected), 1)
}

func TestMakingGroupPublicClearsJoinRequests(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Flip", "Baking", true)

	_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	public := false
	updated, err := e.svc.Groups.Update(ctx, alice.ID, g.ID, GroupUpdate{IsPrivate: &public})
	require.NoError(t, err)
	assert.False(t, updated.IsPrivate)
	assert.Empty(t, updated.PendingRequests)

	msg, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgJoined, msg)

	got, err := e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID, bob.ID}, memberIDs(got))
	assert.Empty(t, got.PendingRequests)
}

func TestJoinPublicGroupConsumesStaleRequest(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Open Oven", "Baking", false)
	require.NoError(t, e.store.AddJoinRequest(ctx, g.ID, bob.ID, time.Now()))

	_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	got, err := e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Contains(t, memberIDs(got), bob.ID)
	assert.NotContains(t, pendingIDs(got), bob.ID)
}

func TestPolicyModeForForeignGroupAdmin(t *testing.T) {
	for _, tc := range []struct {
		mode    policy.Mode
		allowed bool
	}{
		{policy.GroupScoped, false},
		{policy.RoleGlobal, true},
	} {
		t.Run(tc.mode.String(), func(t *testing.T) {
			e := newEnv(t, tc.mode)
			ctx := context.Background()
			alice, bob, dan := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "dan")
			g := e.group(t, alice.ID, "Dumplings", "Asian Cuisine", true)
			e.group(t, dan.ID, "Tacos", "International", false)

			_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
			require.NoError(t, err)

			err = e.svc.Groups.Approve(ctx, dan.ID, g.ID, bob.ID)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.True(t, apperr.Is(err, apperr.KindForbidden))
			}

			// update stays owner-only in every mode
			name := "Hijacked"
			_, err = e.svc.Groups.Update(ctx, dan.ID, g.ID, GroupUpdate{Name: &name})
			assert.True(t, apperr.Is(err, apperr.KindForbidden))
		})
	}
}

func TestAdminLeaveTransfersOwnership(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice.ID, "BBQ Masters", "BBQ & Grilling", false)
	for _, u := range []*models.User{bob, carol} {
		_, err := e.svc.Groups.RequestJoin(ctx, u.ID, g.ID)
		require.NoError(t, err)
	}

	msg, err := e.svc.Groups.Leave(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgLeft, msg)

	got, err := e.svc.Groups.Get(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.Admin.ID)
	assert.Equal(t, []string{bob.ID, carol.ID}, memberIDs(got))

	u, err := e.store.GetUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleGroupAdmin, u.Role)
	assert.Len(t, e.pusher.find(models.NotifyGroupOwnershipMove), 1)

	_, err = e.svc.Groups.Leave(ctx, alice.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrNotMember)
}

func TestSoleAdminLeaveDeletesGroup(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice := e.user(t, "alice")
	g := e.group(t, alice.ID, "Lonely Loaf", "Baking", false)

	msg, err := e.svc.Groups.Leave(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, MsgGroupDissolved, msg)

	_, err = e.svc.Groups.Get(ctx, alice.ID, g.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRemoveMember(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice.ID, "Soup Club", "Healthy Eating", false)
	_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, e.svc.Groups.RemoveMember(ctx, alice.ID, g.ID, alice.ID), apperr.ErrCannotRemoveAdmin)
	assert.True(t, apperr.Is(e.svc.Groups.RemoveMember(ctx, bob.ID, g.ID, alice.ID), apperr.KindForbidden))
	assert.True(t, apperr.Is(e.svc.Groups.RemoveMember(ctx, alice.ID, g.ID, carol.ID), apperr.KindNotFound))

	require.NoError(t, e.svc.Groups.RemoveMember(ctx, alice.ID, g.ID, bob.ID))
	got, err := e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{alice.ID}, memberIDs(got))
}

func TestDeleteGroupNotifiesMembers(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Short Lived", "Other", false)
	_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	assert.True(t, apperr.Is(e.svc.Groups.Delete(ctx, bob.ID, g.ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Groups.Delete(ctx, alice.ID, g.ID))

	deleted := e.pusher.find(models.NotifyGroupDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, []string{bob.ID}, deleted[0].users)
	data := deleted[0].data.(map[string]any)
	assert.Equal(t, "Short Lived", data["groupName"])

	_, err = e.svc.Groups.Get(ctx, alice.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrGroupNotFound)
}

// staleStore hands out groups with an outdated version, as if another writer
// committed between our read and our write.
type staleStore struct {
	storage.Store
}

func (s staleStore) WithTx(ctx context.Context, fn func(storage.Store) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Store) error {
		return fn(staleStore{tx})
	})
}

func (s staleStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	g, err := s.Store.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Version--
	return g, nil
}

func TestConcurrentMutationIsRejected(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Race Track", "Other", true)

	racing := New(Deps{Store: staleStore{e.store}, Windows: feed.DefaultWindows()})
	_, err := racing.Groups.RequestJoin(ctx, bob.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrConcurrentUpdate)

	got, err := e.svc.Groups.Get(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PendingRequests)
}

func TestFriendshipLifecycle(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	assert.ErrorIs(t, e.svc.Friends.SendRequest(ctx, alice.ID, alice.ID), apperr.ErrSelfFriend)
	assert.ErrorIs(t, e.svc.Friends.SendRequest(ctx, alice.ID, "u-ghost"), apperr.ErrUserNotFound)

	require.NoError(t, e.svc.Friends.SendRequest(ctx, alice.ID, bob.ID))
	assert.ErrorIs(t, e.svc.Friends.SendRequest(ctx, alice.ID, bob.ID), apperr.ErrDuplicateFriend)
	assert.ErrorIs(t, e.svc.Friends.SendRequest(ctx, bob.ID, alice.ID), apperr.ErrDuplicateFriend)

	pending, err := e.svc.Friends.Pending(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, alice.ID, pending[0].User.ID)

	assert.ErrorIs(t, e.svc.Friends.Accept(ctx, alice.ID, pending[0].ID), apperr.ErrRequestNotFound)
	require.NoError(t, e.svc.Friends.Accept(ctx, bob.ID, pending[0].ID))

	entries, err := e.store.FindFriendEntries(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, en := range entries {
		assert.Equal(t, models.FriendAccepted, en.Status)
	}
	for _, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		friends, err := e.svc.Friends.Friends(ctx, pair[0])
		require.NoError(t, err)
		require.Len(t, friends, 1)
		assert.Equal(t, pair[1], friends[0].User.ID)
	}
	assert.Len(t, e.pusher.find(models.NotifyFriendAccepted), 1)

	require.NoError(t, e.svc.Friends.Remove(ctx, alice.ID, bob.ID))
	entries, err = e.store.FindFriendEntries(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, apperr.Is(e.svc.Friends.Remove(ctx, alice.ID, bob.ID), apperr.KindNotFound))
}

func TestFriendRejectLeavesNoTrace(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	require.NoError(t, e.svc.Friends.SendRequest(ctx, alice.ID, bob.ID))
	pending, err := e.svc.Friends.Pending(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, e.svc.Friends.Reject(ctx, bob.ID, pending[0].ID))
	entries, err := e.store.FindFriendEntries(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// a rejected requester may ask again
	assert.NoError(t, e.svc.Friends.SendRequest(ctx, alice.ID, bob.ID))
}

func TestCrossedFriendRequestsLeaveOnePending(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = e.svc.Friends.SendRequest(ctx, pair[0], pair[1])
		}()
	}
	wg.Wait()

	var failed int
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, apperr.ErrDuplicateFriend)
			failed++
		}
	}
	assert.Equal(t, 1, failed)

	entries, err := e.store.FindFriendEntries(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	receiver := entries[0].OwnerID
	require.NoError(t, e.svc.Friends.Accept(ctx, receiver, entries[0].ID))
	friends, err := e.svc.Friends.Friends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, bob.ID, friends[0].User.ID)
}

func TestVeganPowerFeedScenario(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Vegan Power", "Vegan", true)

	_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	before, err := e.svc.Recipes.Create(ctx, alice.ID, recipeInput("Hummus"))
	require.NoError(t, err)
	require.Equal(t, g.ID, before.GroupID, "group admin recipes are tagged with their group")

	page, err := e.svc.Feed.Build(ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Posts)
	assert.Empty(t, page.UserGroups)

	require.NoError(t, e.svc.Groups.Approve(ctx, alice.ID, g.ID, bob.ID))
	after, err := e.svc.Recipes.CreateInGroup(ctx, alice.ID, g.ID, recipeInput("Falafel"))
	require.NoError(t, err)

	page, err = e.svc.Feed.Build(ctx, bob.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, after.ID, page.Posts[0].Recipe.ID)
	assert.Equal(t, before.ID, page.Posts[1].Recipe.ID)
	for _, p := range page.Posts {
		assert.Equal(t, models.SourceGroupRecipe, p.Type)
		require.NotNil(t, p.Group)
		assert.Equal(t, "Vegan Power", p.Group.Name)
	}
	require.Len(t, page.UserGroups, 1)
	assert.Equal(t, g.ID, page.UserGroups[0].ID)
}

func TestFeedDedupPrefersGroupSource(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, fred, viv := e.user(t, "alice"), e.user(t, "fred"), e.user(t, "viv")
	g := e.group(t, alice.ID, "Shared Table", "International", false)
	for _, u := range []*models.User{fred, viv} {
		_, err := e.svc.Groups.RequestJoin(ctx, u.ID, g.ID)
		require.NoError(t, err)
	}
	require.NoError(t, e.svc.Friends.SendRequest(ctx, fred.ID, viv.ID))
	pending, err := e.svc.Friends.Pending(ctx, viv.ID)
	require.NoError(t, err)
	require.NoError(t, e.svc.Friends.Accept(ctx, viv.ID, pending[0].ID))

	shared, err := e.svc.Recipes.CreateInGroup(ctx, fred.ID, g.ID, recipeInput("Paella"))
	require.NoError(t, err)
	own, err := e.svc.Recipes.Create(ctx, fred.ID, recipeInput("Gazpacho"))
	require.NoError(t, err)

	page, err := e.svc.Feed.Build(ctx, viv.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, 2, page.TotalPosts)

	byRecipe := map[string]models.FeedEntry{}
	for _, p := range page.Posts {
		byRecipe[p.Recipe.ID] = p
	}
	assert.Equal(t, models.SourceGroupRecipe, byRecipe[shared.ID].Type)
	assert.Equal(t, models.SourceFriendRecipe, byRecipe[own.ID].Type)
}

func TestFeedPaging(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice := e.user(t, "alice")
	g := e.group(t, alice.ID, "Many Recipes", "Other", false)
	for _, title := range []string{"One", "Two", "Three", "Four", "Five"} {
		_, err := e.svc.Recipes.CreateInGroup(ctx, alice.ID, g.ID, recipeInput(title))
		require.NoError(t, err)
	}

	var seen []string
	for p := 1; p <= 3; p++ {
		page, err := e.svc.Feed.Build(ctx, alice.ID, p, 2)
		require.NoError(t, err)
		assert.Equal(t, 5, page.TotalPosts)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, p, page.CurrentPage)
		assert.Equal(t, p < 3, page.HasNext)
		assert.Equal(t, p > 1, page.HasPrev)
		for _, entry := range page.Posts {
			seen = append(seen, entry.Recipe.Title)
		}
	}
	assert.Equal(t, []string{"Five", "Four", "Three", "Two", "One"}, seen)

	_, err := e.svc.Feed.Build(ctx, alice.ID, 1, 0)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPostsAndModeration(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob, eve := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "eve")
	g := e.group(t, alice.ID, "Bread Heads", "Baking", false)
	_, err := e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	_, err = e.svc.Posts.Create(ctx, eve.ID, g.ID, PostInput{Content: "let me in"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	post, err := e.svc.Posts.Create(ctx, bob.ID, g.ID, PostInput{Content: "First loaf!", NewRecipe: ptr(recipeInput("Sourdough"))})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, post.Author.ID)
	require.NotEmpty(t, post.RecipeID)
	r, err := e.svc.Recipes.Get(ctx, post.RecipeID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, r.GroupID)

	like, err := e.svc.Posts.ToggleLike(ctx, alice.ID, g.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikesCount: 1}, *like)
	like, err = e.svc.Posts.ToggleLike(ctx, alice.ID, g.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikesCount: 0}, *like)

	c, err := e.svc.Posts.AddComment(ctx, alice.ID, g.ID, post.ID, "Nice crumb")
	require.NoError(t, err)
	assert.Equal(t, "alice", c.User.Username)
	assert.True(t, apperr.Is(e.svc.Posts.DeleteComment(ctx, eve.ID, g.ID, post.ID, c.ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Posts.DeleteComment(ctx, alice.ID, g.ID, post.ID, c.ID))

	assert.True(t, apperr.Is(e.svc.Posts.Delete(ctx, eve.ID, g.ID, post.ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Posts.Delete(ctx, alice.ID, g.ID, post.ID))
	assert.ErrorIs(t, e.svc.Posts.Delete(ctx, alice.ID, g.ID, post.ID), apperr.ErrPostNotFound)
}

func ptr[T any](v T) *T { return &v }

func TestRecipeLifecycle(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")

	bad := recipeInput("Broken")
	bad.VideoURL = "ftp://example.com/video"
	_, err := e.svc.Recipes.Create(ctx, alice.ID, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	bad = recipeInput("Broken")
	bad.Ingredients = nil
	_, err = e.svc.Recipes.Create(ctx, alice.ID, bad)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	r, err := e.svc.Recipes.Create(ctx, alice.ID, recipeInput("Shakshuka"))
	require.NoError(t, err)
	assert.Empty(t, r.GroupID)
	assert.Equal(t, "alice", r.Author.Username)

	upd := recipeInput("Green Shakshuka")
	_, err = e.svc.Recipes.Update(ctx, bob.ID, r.ID, upd)
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	r, err = e.svc.Recipes.Update(ctx, alice.ID, r.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "Green Shakshuka", r.Title)

	like, err := e.svc.Recipes.ToggleLike(ctx, bob.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, like.Liked)

	comments, err := e.svc.Recipes.AddComment(ctx, bob.ID, r.ID, "Spicy!")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, apperr.Is(e.svc.Recipes.DeleteComment(ctx, alice.ID, r.ID, comments[0].ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Recipes.DeleteComment(ctx, bob.ID, r.ID, comments[0].ID))

	popular, err := e.svc.Recipes.Popular(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, popular)
	assert.Equal(t, r.ID, popular[0].ID)

	found, total, err := e.svc.Recipes.Search(ctx, models.RecipeFilter{Cuisine: "Mediterranean", Tags: []string{"vegan"}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, found, 1)

	assert.True(t, apperr.Is(e.svc.Recipes.Delete(ctx, bob.ID, r.ID), apperr.KindForbidden))
	require.NoError(t, e.svc.Recipes.Delete(ctx, alice.ID, r.ID))
	_, err = e.svc.Recipes.Get(ctx, r.ID)
	assert.ErrorIs(t, err, apperr.ErrRecipeNotFound)
}

func TestPrivateGroupRecipesHidden(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	g := e.group(t, alice.ID, "Hidden Pantry", "Other", true)
	_, err := e.svc.Recipes.CreateInGroup(ctx, alice.ID, g.ID, recipeInput("Secret Stew"))
	require.NoError(t, err)

	_, err = e.svc.Recipes.CreateInGroup(ctx, bob.ID, g.ID, recipeInput("Intruder Pie"))
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = e.svc.Recipes.ByGroup(ctx, "", g.ID)
	assert.ErrorIs(t, err, apperr.ErrPrivateGroup)
	_, err = e.svc.Recipes.ByGroup(ctx, bob.ID, g.ID)
	assert.ErrorIs(t, err, apperr.ErrPrivateGroup)

	recipes, err := e.svc.Recipes.ByGroup(ctx, alice.ID, g.ID)
	require.NoError(t, err)
	assert.Len(t, recipes, 1)
}

func TestChat(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	require.NoError(t, e.svc.Friends.SendRequest(ctx, alice.ID, carol.ID))
	pending, err := e.svc.Friends.Pending(ctx, carol.ID)
	require.NoError(t, err)
	require.NoError(t, e.svc.Friends.Accept(ctx, carol.ID, pending[0].ID))

	_, err = e.svc.Chat.Send(ctx, alice.ID, alice.ID, "hi me")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = e.svc.Chat.Send(ctx, alice.ID, "u-ghost", "hello?")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)

	m, err := e.svc.Chat.Send(ctx, bob.ID, alice.ID, "hey alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", m.Sender.Username)
	_, err = e.svc.Chat.Send(ctx, bob.ID, alice.ID, "you there?")
	require.NoError(t, err)

	received := e.pusher.find(models.EventReceiveMessage)
	require.Len(t, received, 2)
	assert.Equal(t, []string{alice.ID}, received[0].users)
	assert.Len(t, e.pusher.find(models.EventMessageSent), 2)

	n, err := e.svc.Chat.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	convs, err := e.svc.Chat.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, bob.ID, convs[0].User.ID)
	assert.Equal(t, "you there?", convs[0].LastMessage)
	assert.Equal(t, 2, convs[0].UnreadCount)
	assert.Equal(t, carol.ID, convs[1].User.ID)
	assert.Nil(t, convs[1].LastMessageDate)

	history, err := e.svc.Chat.History(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "hey alice", history[0].Message)

	n, err = e.svc.Chat.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	read := e.pusher.find(models.EventMessagesRead)
	require.Len(t, read, 1)
	assert.Equal(t, []string{bob.ID}, read[0].users)
}

func TestUsersRegisterLoginDelete(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()

	in := RegisterInput{Username: "nina", Email: "Nina@Example.com", Password: "secret1", FullName: "Nina Chef"}
	sess, err := e.svc.Users.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "nina@example.com", sess.User.Email)
	assert.Equal(t, "token-"+sess.User.ID, sess.Token)
	assert.Equal(t, "Beginner", sess.User.Experience)

	_, err = e.svc.Users.Register(ctx, in)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = e.svc.Users.Register(ctx, RegisterInput{Username: "x", Email: "not-an-email", Password: "secret1", FullName: "X"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = e.svc.Users.Login(ctx, "nina@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrBadCredentials)
	_, err = e.svc.Users.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, apperr.ErrBadCredentials)
	sess, err = e.svc.Users.Login(ctx, " NINA@example.com ", "secret1")
	require.NoError(t, err)
	id := sess.User.ID

	prof, err := e.svc.Users.UpdateProfile(ctx, id, ProfileUpdate{Bio: "I bake", Password: "secret2"})
	require.NoError(t, err)
	assert.Equal(t, "I bake", prof.Bio)
	_, err = e.svc.Users.Login(ctx, "nina@example.com", "secret2")
	require.NoError(t, err)

	bob := e.user(t, "bob")
	g := e.group(t, id, "Nina's Nook", "Desserts", false)
	_, err = e.svc.Groups.RequestJoin(ctx, bob.ID, g.ID)
	require.NoError(t, err)

	public, err := e.svc.Users.Get(ctx, bob.ID, id)
	require.NoError(t, err)
	assert.Empty(t, public.Email)

	assert.True(t, apperr.Is(e.svc.Users.Delete(ctx, bob.ID, id), apperr.KindForbidden))
	require.NoError(t, e.svc.Users.Delete(ctx, id, id))

	got, err := e.svc.Groups.Get(ctx, bob.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.Admin.ID)
	_, err = e.svc.Users.Profile(ctx, id)
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestNotificationsMarkRead(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	require.NoError(t, e.svc.Friends.SendRequest(ctx, alice.ID, bob.ID))

	notes, err := e.svc.Notifications.List(ctx, bob.ID, true)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyFriendRequest, notes[0].Type)

	assert.ErrorIs(t, e.svc.Notifications.MarkRead(ctx, alice.ID, notes[0].ID), apperr.ErrNotificationAbsent)
	require.NoError(t, e.svc.Notifications.MarkRead(ctx, bob.ID, notes[0].ID))

	notes, err = e.svc.Notifications.List(ctx, bob.ID, true)
	require.NoError(t, err)
	assert.Empty(t, notes)

	n, err := e.svc.Notifications.MarkAllRead(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStats(t *testing.T) {
	e := newEnv(t, policy.GroupScoped)
	ctx := context.Background()
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	e.group(t, alice.ID, "Stat Group", "Vegan", false)

	r, err := e.svc.Recipes.Create(ctx, bob.ID, recipeInput("Counted"))
	require.NoError(t, err)
	other := recipeInput("Pizza")
	other.Cuisine = "Italian"
	_, err = e.svc.Recipes.Create(ctx, bob.ID, other)
	require.NoError(t, err)
	_, err = e.svc.Recipes.Create(ctx, bob.ID, recipeInput("Counted Again"))
	require.NoError(t, err)
	_, err = e.svc.Recipes.ToggleLike(ctx, alice.ID, r.ID)
	require.NoError(t, err)

	ov, err := e.svc.Stats.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Stats{TotalUsers: 2, TotalRecipes: 3, TotalGroups: 1, TotalLikes: 1}, *ov)

	cuisines, err := e.svc.Stats.Cuisines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CuisineShare{
		{Cuisine: "Mediterranean", Count: 2, Percentage: 67},
		{Cuisine: "Italian", Count: 1, Percentage: 33},
	}, cuisines)

	cats, err := e.svc.Stats.GroupCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []CategoryCount{{Category: "Vegan", GroupCount: 1}}, cats)

	top, err := e.svc.Stats.PopularRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, RecipeStat{
		Title: "Counted", LikesCount: 1, Author: "Chef bob",
		Cuisine: "Mediterranean", Category: "Main Dish", Difficulty: "Easy",
	}, top[0])
}
