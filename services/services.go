// Package services holds the application operations. Each service validates
// input, asks the policy, runs the store calls (in a transaction when several
// rows change together) and emits notifications after commit.
package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"foodieconnect/apperr"
	"foodieconnect/feed"
	"foodieconnect/models"
	"foodieconnect/notify"
	"foodieconnect/policy"
	"foodieconnect/storage"
)

// TokenIssuer signs access tokens for a user id.
type TokenIssuer interface {
	Generate(userID string) (string, error)
}

type Deps struct {
	Store    storage.Store
	Policy   *policy.Policy
	Notifier *notify.Dispatcher
	Tokens   TokenIssuer
	Windows  feed.Windows
	Now      func() time.Time
}

// Services bundles every service built from the same dependencies.
type Services struct {
	Users         *UserService
	Friends       *FriendService
	Groups        *GroupService
	Posts         *PostService
	Recipes       *RecipeService
	Chat          *ChatService
	Notifications *NotificationService
	Stats         *StatsService
	Feed          *FeedService
}

func New(d Deps) *Services {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Policy == nil {
		d.Policy = policy.New(policy.GroupScoped)
	}
	b := base{store: d.Store, policy: d.Policy, notifier: d.Notifier, now: func() time.Time { return d.Now().UTC() }}

	groups := &GroupService{base: b}
	recipes := &RecipeService{base: b}
	return &Services{
		Users:         &UserService{base: b, tokens: d.Tokens, groups: groups},
		Friends:       &FriendService{base: b},
		Groups:        groups,
		Posts:         &PostService{base: b, recipes: recipes},
		Recipes:       recipes,
		Chat:          &ChatService{base: b},
		Notifications: &NotificationService{base: b},
		Stats:         &StatsService{base: b},
		Feed:          &FeedService{base: b, agg: feed.NewAggregator(d.Store, d.Windows, feed.WithClock(d.Now))},
	}
}

type base struct {
	store    storage.Store
	policy   *policy.Policy
	notifier *notify.Dispatcher
	now      func() time.Time
}

func newID() string {
	return uuid.New().String()
}

// translate turns store errors into apperr kinds. notFound is returned for
// storage.ErrNotFound; a nil notFound falls back to a generic message.
func translate(err error, notFound *apperr.Error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		if notFound != nil {
			return notFound
		}
		return apperr.NotFound("Not found")
	case errors.Is(err, storage.ErrVersionConflict):
		return apperr.ErrConcurrentUpdate
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.KindInternal, "Request cancelled", err)
	}
	return apperr.Wrap(apperr.KindInternal, "Server error", err)
}

func (b base) actor(ctx context.Context, userID string) (*models.User, error) {
	u, err := b.store.GetUser(ctx, userID)
	if err != nil {
		return nil, translate(err, apperr.ErrUserNotFound)
	}
	return u, nil
}

func (b base) group(ctx context.Context, st storage.Store, id string) (*models.Group, error) {
	g, err := st.GetGroup(ctx, id)
	if err != nil {
		return nil, translate(err, apperr.ErrGroupNotFound)
	}
	return g, nil
}

func requireText(field, value string, max int) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", apperr.Validation(field + " is required")
	}
	if max > 0 && len([]rune(v)) > max {
		return "", apperr.Validation(field + " is too long")
	}
	return v, nil
}

func logFailure(op string, err error, attrs ...any) {
	if apperr.KindOf(err) == apperr.KindInternal {
		slog.Error(op+" failed", append([]any{"error", err}, attrs...)...)
	}
}

// PageBounds converts a 1-based page and limit into an offset, clamping limit.
func PageBounds(page, limit, def, max int) (offset, size int) {
	if limit <= 0 {
		limit = def
	}
	if max > 0 && limit > max {
		limit = max
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}
