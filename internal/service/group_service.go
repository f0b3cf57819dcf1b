package service

import (
	"context"
	"log/slog"

	"github.com/tallyhq/tally/internal/errs"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/money"
	"github.com/tallyhq/tally/internal/storage"
)

// GroupService manages expense groups: the member lists and base currency
// the ledger engine operates against.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a new group with the given members and base currency.
func (s *GroupService) CreateGroup(ctx context.Context, name, baseCurrency string, memberIDs []string) (*models.Group, error) {
	if name == "" {
		return nil, errs.Validationf("group name required")
	}
	if !money.ValidCurrency(baseCurrency) {
		return nil, errs.Validationf("unknown base currency %q", baseCurrency)
	}
	members, err := parseMembers(memberIDs)
	if err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:         name,
		Members:      members,
		BaseCurrency: baseCurrency,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, err
	}

	slog.Info("Group created", "group_id", group.ID, "base_currency", baseCurrency, "members_count", len(members))
	return group, nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return s.store.GetGroup(ctx, groupID)
}

// ListGroups retrieves all groups.
func (s *GroupService) ListGroups(ctx context.Context) ([]*models.Group, error) {
	return s.store.ListGroups(ctx)
}

// AddMembers appends members to a group. Members already present are
// skipped; their balances are unaffected.
func (s *GroupService) AddMembers(ctx context.Context, groupID string, memberIDs []string) (*models.Group, error) {
	members, err := parseMembers(memberIDs)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddGroupMembers(ctx, groupID, members); err != nil {
		slog.Error("AddMembers failed", "group_id", groupID, "error", err)
		return nil, err
	}
	slog.Info("Members added", "group_id", groupID, "members_count", len(members))
	return s.store.GetGroup(ctx, groupID)
}

// parseMembers parses wire-form member IDs, rejecting duplicates.
func parseMembers(memberIDs []string) ([]models.MemberID, error) {
	members := make([]models.MemberID, 0, len(memberIDs))
	seen := make(map[models.MemberID]bool, len(memberIDs))
	for _, raw := range memberIDs {
		member, err := models.ParseMemberID(raw)
		if err != nil {
			return nil, err
		}
		if seen[member] {
			return nil, errs.Validationf("duplicate member %s", member)
		}
		seen[member] = true
		members = append(members, member)
	}
	return members, nil
}
