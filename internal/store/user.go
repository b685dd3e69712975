package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dukerupert/chores/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := scanner.Scan(&u.ID, &u.DisplayName)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const userCols = `id, display_name`

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// GetOrRegister returns the user linked to an identity provider subject,
// registering one on first sight. A changed display name is saved.
func (s *UserStore) GetOrRegister(ctx context.Context, subject, displayName string) (*model.User, error) {
	var user *model.User
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT u.id, u.display_name FROM users u JOIN oidc_users o ON o.user_id = u.id WHERE o.subject = ?`,
			subject,
		)
		u, err := scanUser(row)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			u, err = registerUser(ctx, tx, subject, displayName)
			if err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("get user by subject: %w", err)
		case u.DisplayName != displayName:
			if _, err := tx.ExecContext(ctx, `UPDATE users SET display_name = ? WHERE id = ?`, displayName, u.ID); err != nil {
				return fmt.Errorf("update display name: %w", err)
			}
			u.DisplayName = displayName
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func registerUser(ctx context.Context, tx *sql.Tx, subject, displayName string) (*model.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate user id: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, display_name) VALUES (?, ?)`, id, displayName); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO oidc_users (subject, user_id) VALUES (?, ?)`, subject, id); err != nil {
		return nil, fmt.Errorf("insert oidc user: %w", classify(err))
	}
	return &model.User{ID: id, DisplayName: displayName}, nil
}

func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
