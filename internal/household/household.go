// Package household manages households, their members and invites.
package household

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/apperr"
	"github.com/dukerupert/chores/internal/clock"
	"github.com/dukerupert/chores/internal/invite"
	"github.com/dukerupert/chores/internal/model"
	"github.com/dukerupert/chores/internal/store"
)

type Member struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Household struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Members []Member  `json:"members"`
}

// Invitation is returned once to the inviting member. The secret cannot be
// recovered later.
type Invitation struct {
	InviteCode uuid.UUID `json:"inviteCode"`
	Secret     string    `json:"secret"`
	ValidUntil time.Time `json:"validUntil"`
}

type Service struct {
	households *store.HouseholdStore
	invites    *store.InviteStore
	clock      clock.Clock
	inviteTTL  time.Duration
	logger     *slog.Logger
}

func NewService(households *store.HouseholdStore, invites *store.InviteStore, c clock.Clock, inviteTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{
		households: households,
		invites:    invites,
		clock:      c,
		inviteTTL:  inviteTTL,
		logger:     logger,
	}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Invalid("name must not be empty")
	}
	return name, nil
}

// Create makes a household with userID as its only member.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, name string) (Household, error) {
	name, err := validateName(name)
	if err != nil {
		return Household{}, err
	}
	h, err := s.households.Create(ctx, name, userID)
	if err != nil {
		return Household{}, fmt.Errorf("create household: %w", err)
	}
	return s.withMembers(ctx, h)
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Household, error) {
	households, err := s.households.ListHouseholdsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list households: %w", err)
	}
	out := make([]Household, 0, len(households))
	for i := range households {
		h, err := s.withMembers(ctx, &households[i])
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, householdID uuid.UUID) (Household, error) {
	h, err := s.households.GetByID(ctx, householdID)
	if err != nil {
		return Household{}, fmt.Errorf("get household: %w", err)
	}
	if h == nil {
		return Household{}, apperr.NotFound("household")
	}
	return s.withMembers(ctx, h)
}

func (s *Service) Rename(ctx context.Context, householdID uuid.UUID, name string) (Household, error) {
	name, err := validateName(name)
	if err != nil {
		return Household{}, err
	}
	h, err := s.households.Update(ctx, householdID, name)
	if err != nil {
		return Household{}, fmt.Errorf("rename household: %w", err)
	}
	return s.withMembers(ctx, h)
}

func (s *Service) Leave(ctx context.Context, householdID, userID uuid.UUID) error {
	removed, err := s.households.RemoveMember(ctx, householdID, userID)
	if err != nil {
		return fmt.Errorf("leave household: %w", err)
	}
	if !removed {
		return apperr.ErrNotInHousehold
	}
	return nil
}

// Invite issues a new invite to householdID, valid for the configured TTL.
func (s *Service) Invite(ctx context.Context, householdID, userID uuid.UUID) (Invitation, error) {
	secret, err := invite.Generate()
	if err != nil {
		return Invitation{}, fmt.Errorf("create invite: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return Invitation{}, fmt.Errorf("generate invite id: %w", err)
	}

	inv := &model.Invite{
		ID:           id,
		HouseholdID:  householdID,
		SecretDigest: secret.Digest,
		CreatedBy:    &userID,
		ValidUntil:   s.clock.Now().Add(s.inviteTTL).UTC(),
	}
	if err := s.invites.Create(ctx, inv); err != nil {
		return Invitation{}, fmt.Errorf("create invite: %w", err)
	}

	s.logger.Info("invite created", "household_id", householdID, "invite_id", id, "valid_until", inv.ValidUntil)
	return Invitation{InviteCode: id, Secret: secret.Secret, ValidUntil: inv.ValidUntil}, nil
}

// Join adds userID to the household an invite belongs to. Unknown, expired
// and mismatched invites are indistinguishable to the caller.
func (s *Service) Join(ctx context.Context, userID uuid.UUID, inviteCode, secret string) (Household, error) {
	id, err := uuid.Parse(inviteCode)
	if err != nil {
		return Household{}, apperr.NotFound("invite")
	}
	inv, err := s.invites.GetValid(ctx, id, s.clock.Now())
	if err != nil {
		return Household{}, fmt.Errorf("join household: %w", err)
	}
	if inv == nil {
		return Household{}, apperr.NotFound("invite")
	}
	if !invite.Verify(secret, inv.SecretDigest) {
		s.logger.Warn("invite secret mismatch", "invite_id", inv.ID)
		return Household{}, apperr.NotFound("invite")
	}

	member, err := s.households.IsMember(ctx, inv.HouseholdID, userID)
	if err != nil {
		return Household{}, fmt.Errorf("join household: %w", err)
	}
	if member {
		return Household{}, apperr.Conflict("already a member of this household")
	}
	if err := s.households.AddMember(ctx, inv.HouseholdID, userID, &inv.ID); err != nil {
		return Household{}, fmt.Errorf("join household: %w", err)
	}

	s.logger.Info("member joined", "household_id", inv.HouseholdID, "user_id", userID, "invite_id", inv.ID)
	return s.Get(ctx, inv.HouseholdID)
}

// IsMember satisfies middleware.MembershipChecker.
func (s *Service) IsMember(ctx context.Context, userID, householdID uuid.UUID) (bool, error) {
	return s.households.IsMember(ctx, householdID, userID)
}

// DeleteExpiredInvites removes invites whose validity has passed.
func (s *Service) DeleteExpiredInvites(ctx context.Context) (int64, error) {
	return s.invites.DeleteExpired(ctx, s.clock.Now())
}

func (s *Service) withMembers(ctx context.Context, h *model.Household) (Household, error) {
	users, err := s.households.ListMembers(ctx, h.ID)
	if err != nil {
		return Household{}, fmt.Errorf("list members: %w", err)
	}
	members := make([]Member, 0, len(users))
	for _, u := range users {
		members = append(members, Member{ID: u.ID, Name: u.DisplayName})
	}
	return Household{ID: h.ID, Name: h.Name, Members: members}, nil
}
