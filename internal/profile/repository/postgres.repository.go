package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"naskahweb/internal/profile/model"
	"naskahweb/pkg/logger"
)

const createProfilesTable = `
	CREATE TABLE IF NOT EXISTS session_profiles (
		owner_id   TEXT NOT NULL,
		id         TEXT NOT NULL,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		avatar_url TEXT NOT NULL DEFAULT '',
		color      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (owner_id, id)
	)`

// PostgresStore keeps resolved profiles in a single table keyed by owner and
// user id. Rows older than TTL read as misses; a zero TTL never expires.
type PostgresStore struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{DB: db, TTL: ttl}
}

// Migrate creates the profiles table when it is missing.
func (r *PostgresStore) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, createProfilesTable)
	if err != nil {
		logger.Sugar.Errorf("Failed to create session_profiles table: %v", err)
	}
	return err
}

func (r *PostgresStore) cutoff() time.Time {
	if r.TTL <= 0 {
		return time.Time{}
	}
	return time.Now().Add(-r.TTL)
}

func (r *PostgresStore) Get(ctx context.Context, owner, id string) (model.UserProfile, bool, error) {
	var p model.UserProfile
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, name, email, avatar_url, color FROM session_profiles
		WHERE owner_id = $1 AND id = $2 AND updated_at > $3`, owner, id, r.cutoff(),
	).Scan(&p.ID, &p.Name, &p.Email, &p.Avatar, &p.Color)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserProfile{}, false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get profile %s: %v", id, err)
		return model.UserProfile{}, false, err
	}
	return p, true, nil
}

func (r *PostgresStore) Put(ctx context.Context, owner string, p model.UserProfile) error {
	_, err := r.DB.ExecContext(ctx, `INSERT INTO session_profiles (owner_id, id, name, email, avatar_url, color, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (owner_id, id) DO UPDATE SET name = $3, email = $4, avatar_url = $5, color = $6, updated_at = NOW()`,
		owner, p.ID, p.Name, p.Email, p.Avatar, p.Color)
	if err != nil {
		logger.Sugar.Errorf("Failed to save profile %s: %v", p.ID, err)
	}
	return err
}

// Purge deletes rows that have outlived TTL.
func (r *PostgresStore) Purge(ctx context.Context) (int64, error) {
	if r.TTL <= 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, "DELETE FROM session_profiles WHERE updated_at <= $1", r.cutoff())
	if err != nil {
		logger.Sugar.Errorf("Failed to purge expired profiles: %v", err)
		return 0, err
	}
	return res.RowsAffected()
}
