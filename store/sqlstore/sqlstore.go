// Package sqlstore implements the identity and session stores on
// database/sql. Postgres is reached through the pgx stdlib driver and SQLite
// through the pure-Go modernc driver; the schema is managed by goose.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/MrEthical07/authcore/permission"
	"github.com/MrEthical07/authcore/store"
)

// Store implements store.IdentityStore and store.SessionStore.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var (
	_ store.IdentityStore = (*Store)(nil)
	_ store.SessionStore  = (*Store)(nil)
)

// New wraps an open database. now may be nil.
func New(db *sql.DB, dialect Dialect, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{db: db, dialect: dialect, now: now}
}

// Open opens dsn with the driver for dialect, pings it and applies
// migrations.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("sqlstore: dsn is required")
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open: %w", err)
	}
	if dialect == DialectSQLite {
		// SQLite serialises writers; a single connection also keeps
		// :memory: databases coherent.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: ping: %w", err)
	}
	if err := Migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return New(db, dialect, nil), nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) q(query string) string { return s.dialect.rebind(query) }

func (s *Store) Create(ctx context.Context, id store.Identity) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO identities (id, username, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`),
		id.ID, id.Username, strings.ToLower(id.Email), id.PasswordHash, string(id.Role), id.CreatedAt.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrConflict
		}
		return fmt.Errorf("sqlstore: insert identity: %w", err)
	}
	return nil
}

const identityColumns = `id, username, email, password_hash, role, created_at`

func scanIdentity(row interface{ Scan(...any) error }) (store.Identity, error) {
	var (
		out     store.Identity
		role    string
		created int64
	)
	if err := row.Scan(&out.ID, &out.Username, &out.Email, &out.PasswordHash, &role, &created); err != nil {
		return store.Identity{}, err
	}
	r, err := permission.ParseRole(role)
	if err != nil {
		r = permission.DefaultRole
	}
	out.Role = r
	out.CreatedAt = time.UnixMilli(created).UTC()
	return out, nil
}

func (s *Store) ByID(ctx context.Context, id string) (store.Identity, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+identityColumns+` FROM identities WHERE id = ?`), id)
	out, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Identity{}, store.ErrNotFound
		}
		return store.Identity{}, fmt.Errorf("sqlstore: identity by id: %w", err)
	}
	return out, nil
}

func (s *Store) ByLogin(ctx context.Context, login string) (store.Identity, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		SELECT `+identityColumns+` FROM identities
		WHERE username = ? OR email = ?
		ORDER BY CASE WHEN username = ? THEN 0 ELSE 1 END
		LIMIT 1`), login, strings.ToLower(login), login)
	out, err := scanIdentity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.Identity{}, store.ErrNotFound
		}
		return store.Identity{}, fmt.Errorf("sqlstore: identity by login: %w", err)
	}
	return out, nil
}

func (s *Store) List(ctx context.Context) ([]store.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+identityColumns+` FROM identities ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: list identities: %w", err)
	}
	defer rows.Close()

	var out []store.Identity
	for rows.Next() {
		id, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: scan identity: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE identities SET password_hash = ? WHERE id = ?`), hash, id)
	if err != nil {
		return fmt.Errorf("sqlstore: update password: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Add(ctx context.Context, identityID, digest string, ttl time.Duration) error {
	now := s.now()
	var exp sql.NullInt64
	if ttl > 0 {
		exp = sql.NullInt64{Int64: now.Add(ttl).UnixMilli(), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlstore: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`
		DELETE FROM refresh_tokens
		WHERE identity_id = ? AND expires_at IS NOT NULL AND expires_at <= ?`),
		identityID, now.UnixMilli()); err != nil {
		return fmt.Errorf("sqlstore: prune: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO refresh_tokens (digest, identity_id, created_at, expires_at)
		VALUES (?, ?, ?, ?)`),
		digest, identityID, now.UnixMilli(), exp); err != nil {
		return fmt.Errorf("sqlstore: insert refresh token: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlstore: commit: %w", err)
	}
	return nil
}

func (s *Store) Owner(ctx context.Context, digest string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT identity_id FROM refresh_tokens WHERE digest = ?`), digest).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("sqlstore: owner: %w", err)
	}
	return owner, nil
}

// Consume deletes the row in a single statement; the database guarantees
// that only one caller gets it back.
func (s *Store) Consume(ctx context.Context, identityID, digest string) (store.ConsumeStatus, error) {
	var exp sql.NullInt64
	err := s.db.QueryRowContext(ctx, s.q(`
		DELETE FROM refresh_tokens
		WHERE identity_id = ? AND digest = ?
		RETURNING expires_at`), identityID, digest).Scan(&exp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.ConsumeMissing, nil
		}
		return store.ConsumeMissing, fmt.Errorf("sqlstore: consume: %w", err)
	}
	if exp.Valid && exp.Int64 <= s.now().UnixMilli() {
		return store.ConsumeExpired, nil
	}
	return store.ConsumeOK, nil
}

func (s *Store) Remove(ctx context.Context, digest string) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM refresh_tokens WHERE digest = ?`), digest)
	if err != nil {
		return false, fmt.Errorf("sqlstore: remove: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *Store) RemoveAll(ctx context.Context, identityID string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM refresh_tokens WHERE identity_id = ?`), identityID)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: remove all: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) PruneExpired(ctx context.Context, identityID string) (int, error) {
	res, err := s.db.ExecContext(ctx, s.q(`
		DELETE FROM refresh_tokens
		WHERE identity_id = ? AND expires_at IS NOT NULL AND expires_at <= ?`),
		identityID, s.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlstore: prune: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *Store) Entries(ctx context.Context, identityID string) ([]store.RefreshTokenEntry, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`
		SELECT digest, created_at, expires_at FROM refresh_tokens
		WHERE identity_id = ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY created_at`), identityID, s.now().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("sqlstore: entries: %w", err)
	}
	defer rows.Close()

	var out []store.RefreshTokenEntry
	for rows.Next() {
		var (
			e       store.RefreshTokenEntry
			created int64
			exp     sql.NullInt64
		)
		if err := rows.Scan(&e.Digest, &created, &exp); err != nil {
			return nil, fmt.Errorf("sqlstore: scan entry: %w", err)
		}
		e.IdentityID = identityID
		e.CreatedAt = time.UnixMilli(created).UTC()
		if exp.Valid {
			t := time.UnixMilli(exp.Int64).UTC()
			e.ExpiresAt = &t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
