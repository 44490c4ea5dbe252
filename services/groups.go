package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"foodieconnect/apperr"
	"foodieconnect/models"
	"foodieconnect/notify"
	"foodieconnect/policy"
	"foodieconnect/storage"
)

const (
	MsgJoined         = "Joined group successfully"
	MsgJoinRequested  = "Join request sent. Waiting for approval."
	MsgApproved       = "User approved and added to group"
	MsgRejected       = "Join request rejected"
	MsgLeft           = "Left group successfully"
	MsgGroupDissolved = "Group deleted as admin was the only member"
	MsgMemberRemoved  = "Member removed successfully"
	MsgGroupDeleted   = "Group deleted successfully"
)

// GroupService is the membership and role engine.
type GroupService struct {
	base
}

type GroupInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	IsPrivate   bool     `json:"isPrivate"`
	CoverImage  string   `json:"coverImage"`
	Rules       []string `json:"rules"`
}

func (in *GroupInput) normalize() error {
	var err error
	if in.Name, err = requireText("Group name", in.Name, 50); err != nil {
		return err
	}
	if in.Description, err = requireText("Description", in.Description, 500); err != nil {
		return err
	}
	if !models.IsGroupCategory(in.Category) {
		return apperr.Validation("Invalid group category")
	}
	return nil
}

// GroupUpdate carries the fields to change; nil leaves a field alone.
type GroupUpdate struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	IsPrivate   *bool     `json:"isPrivate"`
	CoverImage  *string   `json:"coverImage"`
	Rules       *[]string `json:"rules"`
}

// mutate loads the group inside a transaction, claims its version and runs fn.
// A concurrent writer that claimed the same version makes the call fail with
// apperr.ErrConcurrentUpdate.
func (s *GroupService) mutate(ctx context.Context, groupID string, fn func(tx storage.Store, g *models.Group) error) error {
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		g, err := s.group(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if err := tx.BumpGroupVersion(ctx, g.ID, g.Version, s.now()); err != nil {
			return err
		}
		g.Version++
		return fn(tx, g)
	})
	return translate(err, apperr.ErrGroupNotFound)
}

// Create makes creator the admin and first member of a new group and grants
// them the group_admin role.
func (s *GroupService) Create(ctx context.Context, creatorID string, in GroupInput) (*models.GroupDetail, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	creator, err := s.actor(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetGroupByName(ctx, in.Name); err == nil {
		return nil, apperr.ErrGroupNameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, translate(err, nil)
	}

	now := s.now()
	g := &models.Group{
		ID:          newID(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		IsPrivate:   in.IsPrivate,
		CoverImage:  in.CoverImage,
		Rules:       cleanList(in.Rules),
		AdminID:     creator.ID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := tx.CreateGroup(ctx, g); err != nil {
			return err
		}
		if creator.Role != models.RoleGroupAdmin {
			return tx.SetUserRole(ctx, creator.ID, models.RoleGroupAdmin)
		}
		return nil
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return nil, apperr.ErrGroupNameTaken
	}
	if err != nil {
		err = translate(err, nil)
		logFailure("create group", err, "user_id", creatorID)
		return nil, err
	}
	creator.Role = models.RoleGroupAdmin

	g.Members = []string{creator.ID}
	g.PendingRequests = []string{}
	return s.detail(ctx, creator, g)
}

// Get returns the group with members and posts. Private groups are only
// visible to their members.
func (s *GroupService) Get(ctx context.Context, actorID, groupID string) (*models.GroupDetail, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionView) {
		return nil, apperr.ErrPrivateGroup
	}
	return s.detail(ctx, actor, g)
}

func (s *GroupService) detail(ctx context.Context, actor *models.User, g *models.Group) (*models.GroupDetail, error) {
	pending := []string{}
	if s.policy.IsAuthorizedForGroup(actor, g, policy.ActionManageRequests) {
		pending = g.PendingRequests
	}

	ids := append([]string{g.AdminID}, g.Members...)
	users, err := s.store.UserSummaries(ctx, append(ids, pending...))
	if err != nil {
		return nil, translate(err, nil)
	}
	posts, err := s.store.ListPosts(ctx, g.ID)
	if err != nil {
		return nil, translate(err, nil)
	}

	d := &models.GroupDetail{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		Category:        g.Category,
		IsPrivate:       g.IsPrivate,
		CoverImage:      g.CoverImage,
		Rules:           g.Rules,
		Admin:           summary(users, g.AdminID),
		Members:         summaries(users, g.Members),
		PendingRequests: summaries(users, pending),
		MemberCount:     len(g.Members),
		Posts:           posts,
		CreatedAt:       g.CreatedAt,
		UpdatedAt:       g.UpdatedAt,
	}
	if d.Rules == nil {
		d.Rules = []string{}
	}
	return d, nil
}

func (s *GroupService) List(ctx context.Context, f models.GroupFilter) ([]models.GroupListItem, int, error) {
	items, total, err := s.store.ListGroups(ctx, f)
	if err != nil {
		return nil, 0, translate(err, nil)
	}
	return items, total, nil
}

func (s *GroupService) MyGroups(ctx context.Context, userID string) ([]models.GroupListItem, error) {
	items, err := s.store.MemberGroupItems(ctx, userID)
	if err != nil {
		return nil, translate(err, nil)
	}
	return items, nil
}

func (s *GroupService) Update(ctx context.Context, actorID, groupID string, in GroupUpdate) (*models.GroupDetail, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var updated *models.Group
	err = s.mutate(ctx, groupID, func(tx storage.Store, g *models.Group) error {
		if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionUpdate) {
			return apperr.Forbidden("Not authorized to update this group")
		}
		next := GroupInput{
			Name: g.Name, Description: g.Description, Category: g.Category,
			IsPrivate: g.IsPrivate, CoverImage: g.CoverImage, Rules: g.Rules,
		}
		applyGroupUpdate(&next, in)
		if err := next.normalize(); err != nil {
			return err
		}
		if !strings.EqualFold(next.Name, g.Name) {
			if _, err := tx.GetGroupByName(ctx, next.Name); err == nil {
				return apperr.ErrGroupNameTaken
			} else if !errors.Is(err, storage.ErrNotFound) {
				return err
			}
		}

		// A public group has no join queue; requesters may join directly.
		if g.IsPrivate && !next.IsPrivate {
			for _, id := range g.PendingRequests {
				if _, err := tx.RemoveJoinRequest(ctx, g.ID, id); err != nil {
					return err
				}
			}
			g.PendingRequests = nil
		}
		g.Name, g.Description, g.Category = next.Name, next.Description, next.Category
		g.IsPrivate, g.CoverImage, g.Rules = next.IsPrivate, next.CoverImage, cleanList(next.Rules)
		g.UpdatedAt = s.now()
		if err := tx.UpdateGroup(ctx, g); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return apperr.ErrGroupNameTaken
			}
			return err
		}
		updated = g
		return nil
	})
	if err != nil {
		logFailure("update group", err, "group_id", groupID)
		return nil, err
	}
	return s.detail(ctx, actor, updated)
}

func applyGroupUpdate(dst *GroupInput, in GroupUpdate) {
	if in.Name != nil {
		dst.Name = *in.Name
	}
	if in.Description != nil {
		dst.Description = *in.Description
	}
	if in.Category != nil {
		dst.Category = *in.Category
	}
	if in.IsPrivate != nil {
		dst.IsPrivate = *in.IsPrivate
	}
	if in.CoverImage != nil {
		dst.CoverImage = *in.CoverImage
	}
	if in.Rules != nil {
		dst.Rules = *in.Rules
	}
}

// Delete removes the group and tells its former members.
func (s *GroupService) Delete(ctx context.Context, actorID, groupID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}

	var deleted *models.Group
	err = s.mutate(ctx, groupID, func(tx storage.Store, g *models.Group) error {
		if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionDelete) {
			return apperr.Forbidden("Not authorized to delete this group")
		}
		deleted = g
		return tx.DeleteGroup(ctx, g.ID)
	})
	if err != nil {
		logFailure("delete group", err, "group_id", groupID)
		return err
	}

	s.notifyGroupDeleted(ctx, deleted, actorID)
	return nil
}

func (s *GroupService) notifyGroupDeleted(ctx context.Context, g *models.Group, except string) {
	recipients := slices.DeleteFunc(slices.Clone(g.Members), func(id string) bool { return id == except })
	msg := fmt.Sprintf("The group %q has been deleted by the administrator.", g.Name)
	s.notifier.Notify(ctx, recipients, notify.Notice{
		Type:    models.NotifyGroupDeleted,
		Title:   "Group deleted",
		Message: msg,
		RefType: "group",
		RefID:   g.ID,
		Data:    map[string]any{"groupId": g.ID, "groupName": g.Name, "message": msg},
	})
}

// RequestJoin adds the user to a public group, or files a join request for a
// private one and notifies its admin.
func (s *GroupService) RequestJoin(ctx context.Context, userID, groupID string) (string, error) {
	user, err := s.actor(ctx, userID)
	if err != nil {
		return "", err
	}

	var (
		msg    string
		target *models.Group
	)
	err = s.mutate(ctx, groupID, func(tx storage.Store, g *models.Group) error {
		target = g
		if g.HasMember(user.ID) {
			return apperr.ErrAlreadyMember
		}
		if !g.IsPrivate {
			msg = MsgJoined
			if g.HasPending(user.ID) {
				if _, err := tx.RemoveJoinRequest(ctx, g.ID, user.ID); err != nil {
					return err
				}
			}
			return tx.AddMember(ctx, g.ID, user.ID, s.now())
		}
		if g.HasPending(user.ID) {
			return apperr.ErrDuplicateJoin
		}
		msg = MsgJoinRequested
		if err := tx.AddJoinRequest(ctx, g.ID, user.ID, s.now()); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				return apperr.ErrDuplicateJoin
			}
			return err
		}
		return nil
	})
	if err != nil {
		logFailure("join group", err, "group_id", groupID, "user_id", userID)
		return "", err
	}

	if msg == MsgJoinRequested {
		text := "New join request for group: " + target.Name
		s.notifier.Notify(ctx, []string{target.AdminID}, notify.Notice{
			Type:    models.NotifyGroupJoinRequest,
			Title:   "New join request",
			Message: text,
			RefType: "group",
			RefID:   target.ID,
			Data: map[string]any{
				"groupId":   target.ID,
				"groupName": target.Name,
				"userId":    user.ID,
				"userName":  user.Username,
				"message":   text,
			},
		})
	}
	return msg, nil
}

func (s *GroupService) PendingRequests(ctx context.Context, actorID, groupID string) ([]models.UserSummary, error) {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	g, err := s.group(ctx, s.store, groupID)
	if err != nil {
		return nil, err
	}
	if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionManageRequests) {
		return nil, apperr.ErrNotAuthorized
	}
	users, err := s.store.UserSummaries(ctx, g.PendingRequests)
	if err != nil {
		return nil, translate(err, nil)
	}
	return summaries(users, g.PendingRequests), nil
}

// Approve moves userID from the pending requests into the members.
func (s *GroupService) Approve(ctx context.Context, actorID, groupID, userID string) error {
	return s.resolveRequest(ctx, actorID, groupID, userID, true)
}

// Reject drops the pending request of userID.
func (s *GroupService) Reject(ctx context.Context, actorID, groupID, userID string) error {
	return s.resolveRequest(ctx, actorID, groupID, userID, false)
}

func (s *GroupService) resolveRequest(ctx context.Context, actorID, groupID, userID string, approve bool) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}

	var target *models.Group
	err = s.mutate(ctx, groupID, func(tx storage.Store, g *models.Group) error {
		if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionManageRequests) {
			return apperr.ErrNotAuthorized
		}
		target = g
		removed, err := tx.RemoveJoinRequest(ctx, g.ID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return apperr.ErrNoPendingRequest
		}
		if !approve || g.HasMember(userID) {
			return nil
		}
		return tx.AddMember(ctx, g.ID, userID, s.now())
	})
	if err != nil {
		logFailure("resolve join request", err, "group_id", groupID, "user_id", userID)
		return err
	}

	n := notify.Notice{
		Type:    models.NotifyGroupJoinRejected,
		Title:   "Join request rejected",
		Message: fmt.Sprintf("Your request to join %q was rejected.", target.Name),
		RefType: "group",
		RefID:   target.ID,
	}
	if approve {
		n.Type = models.NotifyGroupJoinApproved
		n.Title = "Join request approved"
		n.Message = fmt.Sprintf("You are now a member of %q.", target.Name)
	}
	n.Data = map[string]any{"groupId": target.ID, "groupName": target.Name, "message": n.Message}
	s.notifier.Notify(ctx, []string{userID}, n)
	return nil
}

// Leave removes userID from the group. An admin hands the group to the
// longest-standing remaining member, or deletes it when nobody is left.
func (s *GroupService) Leave(ctx context.Context, userID, groupID string) (string, error) {
	var (
		msg      string
		target   *models.Group
		newAdmin string
	)
	err := s.mutate(ctx, groupID, func(tx storage.Store, g *models.Group) error {
		target = g
		if !g.HasMember(userID) {
			return apperr.ErrNotMember
		}
		msg = MsgLeft
		if g.AdminID == userID {
			rest := slices.DeleteFunc(slices.Clone(g.Members), func(id string) bool { return id == userID })
			if len(rest) == 0 {
				msg = MsgGroupDissolved
				return tx.DeleteGroup(ctx, g.ID)
			}
			newAdmin = rest[0]
			if err := tx.SetGroupAdmin(ctx, g.ID, newAdmin); err != nil {
				return err
			}
			if err := tx.SetUserRole(ctx, newAdmin, models.RoleGroupAdmin); err != nil {
				return err
			}
		}
		return tx.RemoveMember(ctx, g.ID, userID)
	})
	if err != nil {
		logFailure("leave group", err, "group_id", groupID, "user_id", userID)
		return "", err
	}

	if newAdmin != "" {
		text := fmt.Sprintf("You are now the admin of %q.", target.Name)
		s.notifier.Notify(ctx, []string{newAdmin}, notify.Notice{
			Type:    models.NotifyGroupOwnershipMove,
			Title:   "Group ownership transferred",
			Message: text,
			RefType: "group",
			RefID:   target.ID,
			Data:    map[string]any{"groupId": target.ID, "groupName": target.Name, "message": text},
		})
	}
	return msg, nil
}

// RemoveMember expels userID. The group admin cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, actorID, groupID, userID string) error {
	actor, err := s.actor(ctx, actorID)
	if err != nil {
		return err
	}

	var target *models.Group
	err = s.mutate(ctx, groupID, func(tx storage.Store, g *models.Group) error {
		if !s.policy.IsAuthorizedForGroup(actor, g, policy.ActionRemoveMember) {
			return apperr.ErrNotAuthorized
		}
		if g.AdminID == userID {
			return apperr.ErrCannotRemoveAdmin
		}
		target = g
		if err := tx.RemoveMember(ctx, g.ID, userID); err != nil {
			return translate(err, apperr.NotFound("User is not a member of this group"))
		}
		return nil
	})
	if err != nil {
		logFailure("remove member", err, "group_id", groupID, "user_id", userID)
		return err
	}

	text := fmt.Sprintf("You were removed from %q.", target.Name)
	s.notifier.Notify(ctx, []string{userID}, notify.Notice{
		Type:    models.NotifyMemberRemoved,
		Title:   "Removed from group",
		Message: text,
		RefType: "group",
		RefID:   target.ID,
		Data:    map[string]any{"groupId": target.ID, "groupName": target.Name, "message": text},
	})
	return nil
}

func summary(users map[string]models.UserSummary, id string) models.UserSummary {
	if u, ok := users[id]; ok {
		return u
	}
	return models.UserSummary{ID: id}
}

func summaries(users map[string]models.UserSummary, ids []string) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, summary(users, id))
	}
	return out
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
