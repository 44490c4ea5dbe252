package models

import "time"

type Role string

const (
	RoleUser       Role = "user"
	RoleGroupAdmin Role = "group_admin"
)

var Experiences = []string{"Beginner", "Intermediate", "Advanced", "Professional"}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Password       string    `json:"-"`
	FullName       string    `json:"fullName"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Experience     string    `json:"experience"`
	ProfilePicture string    `json:"profilePicture"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type UserResponse struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	FullName       string    `json:"fullName"`
	Bio            string    `json:"bio"`
	Location       string    `json:"location"`
	Experience     string    `json:"experience"`
	ProfilePicture string    `json:"profilePicture"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"createdAt"`
}

// UserSummary is the embedded author/peer shape.
type UserSummary struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	FullName       string `json:"fullName"`
	ProfilePicture string `json:"profilePicture"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		FullName:       u.FullName,
		Bio:            u.Bio,
		Location:       u.Location,
		Experience:     u.Experience,
		ProfilePicture: u.ProfilePicture,
		Role:           u.Role,
		CreatedAt:      u.CreatedAt,
	}
}

// ToPublic hides the email of someone else's profile.
func (u *User) ToPublic() *UserResponse {
	r := u.ToResponse()
	r.Email = ""
	return r
}

func (u *User) ToSummary() UserSummary {
	return UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		FullName:       u.FullName,
		ProfilePicture: u.ProfilePicture,
	}
}

// Profile is the full view of a user: account, groups, friends, favorites.
type Profile struct {
	UserResponse
	JoinedGroups    []GroupSummary `json:"joinedGroups"`
	Friends         []FriendEntry  `json:"friends"`
	FavoriteRecipes []string       `json:"favoriteRecipes"`
}

type UserFilter struct {
	Search     string
	Location   string
	Experience string
	Offset     int
	Limit      int
}
