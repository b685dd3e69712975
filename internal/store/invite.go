package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/model"
)

type InviteStore struct {
	db *sql.DB
}

func NewInviteStore(db *sql.DB) *InviteStore {
	return &InviteStore{db: db}
}

const inviteCols = `id, household_id, secret_digest, created_by, valid_until`

func (s *InviteStore) Create(ctx context.Context, inv *model.Invite) error {
	var createdBy uuid.NullUUID
	if inv.CreatedBy != nil {
		createdBy = uuid.NullUUID{UUID: *inv.CreatedBy, Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO invites (`+inviteCols+`) VALUES (?, ?, ?, ?, ?)`,
		inv.ID, inv.HouseholdID, inv.SecretDigest, createdBy, inv.ValidUntil.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert invite: %w", err)
	}
	return nil
}

// GetValid returns the invite if it exists and has not expired at now.
func (s *InviteStore) GetValid(ctx context.Context, id uuid.UUID, now time.Time) (*model.Invite, error) {
	var inv model.Invite
	var createdBy uuid.NullUUID
	err := s.db.QueryRowContext(ctx,
		`SELECT `+inviteCols+` FROM invites WHERE id = ? AND valid_until > ?`,
		id, now.UTC(),
	).Scan(&inv.ID, &inv.HouseholdID, &inv.SecretDigest, &createdBy, &inv.ValidUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invite: %w", err)
	}
	if createdBy.Valid {
		inv.CreatedBy = &createdBy.UUID
	}
	return &inv, nil
}

// DeleteExpired removes invites that expired before now. Memberships keep
// their household but lose the invite reference.
func (s *InviteStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM invites WHERE valid_until <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired invites: %w", err)
	}
	return res.RowsAffected()
}
