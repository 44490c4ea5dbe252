// Package policy decides whether an actor may perform an action. Every check is a
// pure function of the actor, the resource and the configured Mode; callers turn
// a false result into a Forbidden error.
package policy

import (
	"fmt"

	"foodieconnect/models"
)

// Mode selects how far the group_admin role reaches.
type Mode int

const (
	// GroupScoped treats only a group's own admin as its administrator.
	GroupScoped Mode = iota
	// RoleGlobal lets any group_admin manage requests, members and content of
	// every group.
	RoleGlobal
)

func (m Mode) String() string {
	if m == RoleGlobal {
		return "role-global"
	}
	return "group-scoped"
}

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "group-scoped":
		return GroupScoped, nil
	case "role-global":
		return RoleGlobal, nil
	default:
		return GroupScoped, fmt.Errorf("unknown authz mode: %q", s)
	}
}

type Action string

const (
	ActionView           Action = "view"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionManageRequests Action = "manage_requests"
	ActionRemoveMember   Action = "remove_member"
	ActionPost           Action = "post"
	ActionModerate       Action = "moderate"
)

func IsOwner(actorID, ownerID string) bool {
	return actorID != "" && actorID == ownerID
}

func IsMember(actorID string, g *models.Group) bool {
	return g != nil && g.HasMember(actorID)
}

func HasAdminRole(actor *models.User) bool {
	return actor != nil && actor.Role == models.RoleGroupAdmin
}

type Policy struct {
	mode Mode
}

func New(mode Mode) *Policy {
	return &Policy{mode: mode}
}

func (p *Policy) Mode() Mode {
	return p.mode
}

// IsAuthorizedForGroup is the single decision point for group-level actions.
func (p *Policy) IsAuthorizedForGroup(actor *models.User, g *models.Group, action Action) bool {
	if actor == nil || g == nil {
		return false
	}
	owner := IsOwner(actor.ID, g.AdminID)

	switch action {
	case ActionView:
		return !g.IsPrivate || owner || IsMember(actor.ID, g)
	case ActionUpdate, ActionDelete:
		return owner
	case ActionPost:
		return owner || IsMember(actor.ID, g)
	case ActionManageRequests, ActionRemoveMember, ActionModerate:
		return owner || (p.mode == RoleGlobal && HasAdminRole(actor))
	default:
		return false
	}
}

// CanModerate reports whether actor may delete a post or comment written by authorID.
func (p *Policy) CanModerate(actor *models.User, g *models.Group, authorID string) bool {
	if actor == nil {
		return false
	}
	return IsOwner(actor.ID, authorID) || p.IsAuthorizedForGroup(actor, g, ActionModerate)
}

// CanEditRecipe has no admin override.
func (p *Policy) CanEditRecipe(actor *models.User, r *models.Recipe) bool {
	return actor != nil && r != nil && IsOwner(actor.ID, r.AuthorID)
}
