// Package group manages the sets of users who share lists, including
// the membership checks gating every list operation.
package group

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/ladle/internal/apperr"
	"github.com/dukerupert/ladle/internal/model"
	"github.com/dukerupert/ladle/internal/rtdb"
)

// DefaultGroupName is the private group auto-provisioned for a user who
// owns no group yet.
const DefaultGroupName = "My Lists"

// Service reads and writes groups in the hierarchical store.
type Service struct {
	store  *rtdb.Store
	logger *slog.Logger
}

func NewService(store *rtdb.Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// IsMember reports whether uid belongs to the group.
func (s *Service) IsMember(ctx context.Context, groupID, uid string) (bool, error) {
	var member bool
	ok, err := s.store.Read(ctx, "groups/"+groupID+"/members/"+uid, &member)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	return ok && member, nil
}

// IsOwner reports whether uid owns the group.
func (s *Service) IsOwner(ctx context.Context, groupID, uid string) (bool, error) {
	var owner string
	ok, err := s.store.Read(ctx, "groups/"+groupID+"/owner", &owner)
	if err != nil {
		return false, fmt.Errorf("check owner: %w", err)
	}
	return ok && owner == uid, nil
}

// Get returns one group, or a not-found error.
func (s *Service) Get(ctx context.Context, groupID string) (*model.Group, error) {
	var g model.Group
	ok, err := s.store.Read(ctx, "groups/"+groupID, &g)
	if err != nil {
		return nil, fmt.Errorf("get group: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("group %s not found", groupID)
	}
	g.ID = groupID
	return &g, nil
}

// ListForUser returns every group uid belongs to, sorted by name. A user
// must always own at least one group: when none of the memberships is an
// owned group, a private default group is created first.
func (s *Service) ListForUser(ctx context.Context, uid string) ([]model.Group, error) {
	docs, err := s.store.ReadAll(ctx, "groups")
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	groups := make([]model.Group, 0, len(docs))
	ownsOne := false
	for id, raw := range docs {
		var g model.Group
		if err := json.Unmarshal(raw, &g); err != nil {
			s.logger.Warn("skipping malformed group document", "group_id", id, "error", err)
			continue
		}
		if !g.Members[uid] {
			continue
		}
		g.ID = id
		groups = append(groups, g)
		if g.Owner == uid {
			ownsOne = true
		}
	}

	if !ownsOne {
		created, err := s.Create(ctx, uid, DefaultGroupName)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *created)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// Create makes a new group owned by uid, with uid as its only member.
func (s *Service) Create(ctx context.Context, uid, name string) (*model.Group, error) {
	if name == "" {
		return nil, apperr.Validation("name is required")
	}
	g := model.Group{
		ID:        uuid.NewString(),
		Name:      name,
		Owner:     uid,
		Members:   map[string]bool{uid: true},
		CreatedAt: time.Now().UnixMilli(),
	}
	if err := s.store.Write(ctx, "groups/"+g.ID, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	return &g, nil
}

// Rename updates the group's display name without touching members.
func (s *Service) Rename(ctx context.Context, groupID, name string) error {
	if name == "" {
		return apperr.Validation("name is required")
	}
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	if err := s.store.Patch(ctx, "groups/"+groupID, map[string]any{"name": name}); err != nil {
		return fmt.Errorf("rename group: %w", err)
	}
	return nil
}

// Delete removes a group. Only the owner may delete; lists under the
// group are left in place for out-of-band cleanup.
func (s *Service) Delete(ctx context.Context, groupID, uid string) error {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.Owner != uid {
		return apperr.Forbidden("only the group owner can delete the group")
	}
	if err := s.store.Delete(ctx, "groups/"+groupID); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
