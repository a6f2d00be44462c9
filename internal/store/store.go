// Package store keeps the local sqlite state: OAuth tokens per account and a
// small key-value table for settings.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

const schemaName = "gcalagenda"

// ErrNoToken is returned by LoadToken when the account never logged in.
var ErrNoToken = errors.New("no token stored for account")

type Store struct {
	db *sqlx.DB
}

type tokenRow struct {
	AccountName string `db:"account_name"`
	Token       string `db:"token"`
}

// migrations[i] moves the schema from version i to i+1.
var migrations = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS tokens (
			account_name TEXT PRIMARY KEY,
			token TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL)`,
	},
}

// Open connects to the database at path, creating and migrating it when
// needed.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Version reports the schema version currently applied.
func (s *Store) Version(ctx context.Context) (int, error) {
	var version int
	err := s.db.GetContext(ctx, &version, `SELECT version FROM db_version WHERE name = ?`, schemaName)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS db_version (
		name TEXT PRIMARY KEY,
		version INTEGER)`); err != nil {
		return fmt.Errorf("failed to create db_version table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO db_version (name, version) VALUES (?, 0)`, schemaName); err != nil {
		return fmt.Errorf("failed to initialize db_version table: %w", err)
	}

	version, err := s.Version(ctx)
	if err != nil {
		return err
	}

	for ; version < len(migrations); version++ {
		tx, err := s.db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version+1, err)
		}
		for _, stmt := range migrations[version] {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", version+1, err)
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE db_version SET version = ? WHERE name = ?`, version+1, schemaName); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update db_version table: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version+1, err)
		}
	}
	return nil
}

func (s *Store) LoadToken(ctx context.Context, account string) (*oauth2.Token, error) {
	var row tokenRow
	err := s.db.GetContext(ctx, &row, `SELECT account_name, token FROM tokens WHERE account_name = ?`, account)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", account, ErrNoToken)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load token for %s: %w", account, err)
	}

	var token oauth2.Token
	if err := json.Unmarshal([]byte(row.Token), &token); err != nil {
		return nil, fmt.Errorf("failed to decode token for %s: %w", account, err)
	}
	return &token, nil
}

func (s *Store) SaveToken(ctx context.Context, account string, token *oauth2.Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	_, err = s.db.NamedExecContext(ctx,
		`INSERT OR REPLACE INTO tokens (account_name, token) VALUES (:account_name, :token)`,
		tokenRow{AccountName: account, Token: string(payload)})
	if err != nil {
		return fmt.Errorf("failed to save token for %s: %w", account, err)
	}
	return nil
}

// DeleteToken forgets the account's token. Deleting a missing token is not an
// error.
func (s *Store) DeleteToken(ctx context.Context, account string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM tokens WHERE account_name = ?`, account); err != nil {
		return fmt.Errorf("failed to delete token for %s: %w", account, err)
	}
	return nil
}

func (s *Store) GetValue(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM settings WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) SetValue(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
