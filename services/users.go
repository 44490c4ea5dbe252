package services

import (
	"context"
	"errors"
	"net/mail"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"foodieconnect/apperr"
	"foodieconnect/models"
	"foodieconnect/storage"
)

type UserService struct {
	base
	tokens TokenIssuer
	groups *GroupService
}

type RegisterInput struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"fullName"`
	Bio        string `json:"bio"`
	Location   string `json:"location"`
	Experience string `json:"experience"`
}

type ProfileUpdate struct {
	FullName       string `json:"fullName"`
	Bio            string `json:"bio"`
	Location       string `json:"location"`
	Experience     string `json:"experience"`
	ProfilePicture string `json:"profilePicture"`
	Password       string `json:"password"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *models.UserResponse
	Token string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	var err error
	if in.Username, err = requireText("Username", in.Username, 30); err != nil {
		return nil, err
	}
	if in.FullName, err = requireText("Full name", in.FullName, 100); err != nil {
		return nil, err
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, apperr.Validation("Invalid email address")
	}
	if len(in.Password) < 6 {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}
	if in.Experience == "" {
		in.Experience = models.Experiences[0]
	} else if !slices.Contains(models.Experiences, in.Experience) {
		return nil, apperr.Validation("Invalid experience level")
	}

	exists, err := s.store.UserExists(ctx, in.Username, in.Email)
	if err != nil {
		return nil, translate(err, nil)
	}
	if exists {
		return nil, apperr.Validation("User already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Server error", err)
	}

	now := s.now()
	u := &models.User{
		ID:         newID(),
		Username:   in.Username,
		Email:      in.Email,
		Password:   string(hash),
		FullName:   in.FullName,
		Bio:        strings.TrimSpace(in.Bio),
		Location:   strings.TrimSpace(in.Location),
		Experience: in.Experience,
		Role:       models.RoleUser,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Validation("User already exists")
		}
		err = translate(err, nil)
		logFailure("register user", err)
		return nil, err
	}
	return s.session(u)
}

func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.ErrBadCredentials
	}
	if err != nil {
		return nil, translate(err, nil)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, apperr.ErrBadCredentials
	}
	return s.session(u)
}

// Refresh issues a new token for an authenticated user.
func (s *UserService) Refresh(ctx context.Context, userID string) (*Session, error) {
	u, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

func (s *UserService) session(u *models.User) (*Session, error) {
	token, err := s.tokens.Generate(u.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Server error", err)
	}
	return &Session{User: u.ToResponse(), Token: token}, nil
}

func (s *UserService) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	u, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups, err := s.store.MemberGroups(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	friends, err := s.store.ListFriendEntries(ctx, userID, models.FriendAccepted)
	if err != nil {
		return nil, translate(err, nil)
	}
	favorites, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	return &models.Profile{
		UserResponse:    *u.ToResponse(),
		JoinedGroups:    groups,
		Friends:         friends,
		FavoriteRecipes: favorites,
	}, nil
}

// UpdateProfile changes the non-empty fields of in.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.Profile, error) {
	u, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.FullName); v != "" {
		u.FullName = v
	}
	if v := strings.TrimSpace(in.Bio); v != "" {
		u.Bio = v
	}
	if v := strings.TrimSpace(in.Location); v != "" {
		u.Location = v
	}
	if in.Experience != "" {
		if !slices.Contains(models.Experiences, in.Experience) {
			return nil, apperr.Validation("Invalid experience level")
		}
		u.Experience = in.Experience
	}
	if in.ProfilePicture != "" {
		u.ProfilePicture = in.ProfilePicture
	}
	if in.Password != "" {
		if len(in.Password) < 6 {
			return nil, apperr.Validation("Password must be at least 6 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Server error", err)
		}
		u.Password = string(hash)
	}
	u.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, u); err != nil {
		err = translate(err, apperr.ErrUserNotFound)
		logFailure("update profile", err, "user_id", userID)
		return nil, err
	}
	return s.Profile(ctx, userID)
}

// Get returns another user's public profile.
func (s *UserService) Get(ctx context.Context, viewerID, userID string) (*models.UserResponse, error) {
	u, err := s.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if viewerID == userID {
		return u.ToResponse(), nil
	}
	return u.ToPublic(), nil
}

func (s *UserService) List(ctx context.Context, f models.UserFilter) ([]*models.UserResponse, int, error) {
	users, total, err := s.store.ListUsers(ctx, f)
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	out := make([]*models.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, users[i].ToPublic())
	}
	return out, total, nil
}

// Delete removes the caller's own account. Groups they belong to are left
// first so admin rights move on or empty groups go away.
func (s *UserService) Delete(ctx context.Context, actorID, userID string) error {
	if actorID != userID {
		return apperr.Forbidden("Not authorized to delete this user")
	}
	if _, err := s.actor(ctx, userID); err != nil {
		return err
	}
	groups, err := s.store.MemberGroups(ctx, userID)
	if err != nil {
		return translate(err, nil)
	}
	for _, g := range groups {
		if _, err := s.groups.Leave(ctx, userID, g.ID); err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
	}
	if err := s.store.DeleteUser(ctx, userID); err != nil {
		err = translate(err, apperr.ErrUserNotFound)
		logFailure("delete user", err, "user_id", userID)
		return err
	}
	return nil
}

func (s *UserService) AddFavorite(ctx context.Context, userID, recipeID string) error {
	if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
		return translate(err, apperr.ErrRecipeNotFound)
	}
	err := s.store.AddFavorite(ctx, userID, recipeID, s.now())
	if err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return translate(err, nil)
	}
	return nil
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	return translate(s.store.RemoveFavorite(ctx, userID, recipeID), nil)
}
