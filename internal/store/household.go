package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const householdCols = `id, name`

// Create inserts the household and makes creatorID its first member.
func (s *HouseholdStore) Create(ctx context.Context, name string, creatorID uuid.UUID) (*model.Household, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate household id: %w", err)
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO households (id, name) VALUES (?, ?)`, id, name); err != nil {
			return fmt.Errorf("insert household: %w", err)
		}
		if err := addMember(ctx, tx, id, creatorID, nil); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &model.Household{ID: id, Name: name}, nil
}

func (s *HouseholdStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Household, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

func (s *HouseholdStore) Update(ctx context.Context, id uuid.UUID, name string) (*model.Household, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE households SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	if err := requireRow(res, "household"); err != nil {
		return nil, err
	}
	return &model.Household{ID: id, Name: name}, nil
}

func (s *HouseholdStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}

// AddMember fails with apperr.ErrConflict if the user is already a member.
func (s *HouseholdStore) AddMember(ctx context.Context, householdID, userID uuid.UUID, inviteID *uuid.UUID) error {
	return addMember(ctx, s.db, householdID, userID, inviteID)
}

func addMember(ctx context.Context, q DBTX, householdID, userID uuid.UUID, inviteID *uuid.UUID) error {
	var via uuid.NullUUID
	if inviteID != nil {
		via = uuid.NullUUID{UUID: *inviteID, Valid: true}
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO household_members (user_id, household_id, joined_via_invite) VALUES (?, ?, ?)`,
		userID, householdID, via,
	)
	if err != nil {
		return fmt.Errorf("add member: %w", classify(err))
	}
	return nil
}

// RemoveMember reports whether a membership was deleted.
func (s *HouseholdStore) RemoveMember(ctx context.Context, householdID, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	)
	if err != nil {
		return false, fmt.Errorf("remove member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *HouseholdStore) GetMember(ctx context.Context, householdID, userID uuid.UUID) (*model.HouseholdMember, error) {
	var m model.HouseholdMember
	var via uuid.NullUUID
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, household_id, joined_via_invite FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	).Scan(&m.UserID, &m.HouseholdID, &via)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	if via.Valid {
		m.JoinedViaInvite = &via.UUID
	}
	return &m, nil
}

func (s *HouseholdStore) IsMember(ctx context.Context, householdID, userID uuid.UUID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM household_members WHERE household_id = ? AND user_id = ?`,
		householdID, userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check member: %w", err)
	}
	return true, nil
}

// ListMembers returns the users of a household in join order.
func (s *HouseholdStore) ListMembers(ctx context.Context, householdID uuid.UUID) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.display_name
		 FROM users u
		 JOIN household_members hm ON u.id = hm.user_id
		 WHERE hm.household_id = ?
		 ORDER BY hm.joined_at ASC, u.id ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *u)
	}
	return members, rows.Err()
}

func (s *HouseholdStore) ListHouseholdsForUser(ctx context.Context, userID uuid.UUID) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT h.id, h.name
		 FROM households h
		 JOIN household_members hm ON h.id = hm.household_id
		 WHERE hm.user_id = ?
		 ORDER BY h.name ASC, h.id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list households for user: %w", err)
	}
	defer rows.Close()

	households := []model.Household{}
	for rows.Next() {
		h, err := scanHousehold(rows)
		if err != nil {
			return nil, fmt.Errorf("scan household: %w", err)
		}
		households = append(households, *h)
	}
	return households, rows.Err()
}
