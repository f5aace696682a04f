package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"simpleblog/api/internal/util"
)

var ErrUserNotFound = errors.New("user not found")

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// GetUserByCurrentName finds the user that holds name now. Former names do
// not match.
func (s *SQLStore) GetUserByCurrentName(ctx context.Context, name string) (User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return User{}, ErrUserNotFound
	}
	return s.scanUser(ctx, `SELECT id, name, is_blocked, can_edit FROM users WHERE name = $1`, name)
}

// GetUserByName finds a user by current name, falling back to names the
// user was known by before a rename.
func (s *SQLStore) GetUserByName(ctx context.Context, name string) (User, error) {
	name = strings.TrimSpace(name)
	user, err := s.GetUserByCurrentName(ctx, name)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return User{}, err
	}
	return s.scanUser(ctx, `
		SELECT u.id, u.name, u.is_blocked, u.can_edit
		FROM user_aliases a
		JOIN users u ON u.id = a.user_id
		WHERE a.alias = $1
	`, name)
}

func (s *SQLStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	return s.scanUser(ctx, `SELECT id, name, is_blocked, can_edit FROM users WHERE id = $1`, userID)
}

// UpsertUser inserts the user or updates the flags of the user with the same
// name. The stored row is returned, so an existing user keeps its ID.
func (s *SQLStore) UpsertUser(ctx context.Context, user User) (User, error) {
	if strings.TrimSpace(user.Name) == "" {
		return User{}, fmt.Errorf("upsert user: name is required")
	}
	if user.ID == "" {
		user.ID = util.NewID("usr")
	}
	var stored User
	err := s.db.QueryRowContext(ctx, rebind(s.db, `
		INSERT INTO users (id, name, is_blocked, can_edit)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			is_blocked = EXCLUDED.is_blocked,
			can_edit = EXCLUDED.can_edit,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id, name, is_blocked, can_edit
	`), user.ID, strings.TrimSpace(user.Name), user.IsBlocked, user.CanEdit).Scan(&stored.ID, &stored.Name, &stored.IsBlocked, &stored.CanEdit)
	if err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return stored, nil
}

// RenameUser moves userID to newName and keeps the old name as an alias so
// that history recorded under it still resolves. It returns every former
// name of the user after the rename.
func (s *SQLStore) RenameUser(ctx context.Context, userID, newName string) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rename tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var oldName string
	if err := tx.QueryRowContext(ctx, rebind(s.db, `SELECT name FROM users WHERE id = $1`), userID).Scan(&oldName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("read user name: %w", err)
	}
	if oldName != newName {
		if _, err := tx.ExecContext(ctx, rebind(s.db, `UPDATE users SET name = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`), newName, userID); err != nil {
			return nil, fmt.Errorf("rename user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, rebind(s.db, `
			INSERT INTO user_aliases (alias, user_id)
			VALUES ($1, $2)
			ON CONFLICT (alias) DO UPDATE SET user_id = EXCLUDED.user_id
		`), oldName, userID); err != nil {
			return nil, fmt.Errorf("record user alias: %w", err)
		}
		if _, err := tx.ExecContext(ctx, rebind(s.db, `DELETE FROM user_aliases WHERE alias = $1`), newName); err != nil {
			return nil, fmt.Errorf("clear user alias: %w", err)
		}
	}

	aliases, err := listAliases(ctx, tx, rebind(s.db, `SELECT alias FROM user_aliases WHERE user_id = $1 ORDER BY alias`), userID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rename: %w", err)
	}
	return aliases, nil
}

func listAliases(ctx context.Context, tx *sql.Tx, query, userID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list user aliases: %w", err)
	}
	defer rows.Close()

	aliases := []string{}
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, fmt.Errorf("scan user alias: %w", err)
		}
		aliases = append(aliases, alias)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user aliases: %w", err)
	}
	return aliases, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) scanUser(ctx context.Context, query string, arg string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, rebind(s.db, query), arg).Scan(&user.ID, &user.Name, &user.IsBlocked, &user.CanEdit)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}
