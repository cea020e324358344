package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/tosembanda/internal/domain/chat/entity"
)

// DirectoryPostgres looks up announcements and profiles owned by the rest of the app
type DirectoryPostgres struct {
	pool *pgxpool.Pool
}

// NewDirectoryPostgres creates a new directory reader
func NewDirectoryPostgres(pool *pgxpool.Pool) *DirectoryPostgres {
	return &DirectoryPostgres{pool: pool}
}

// GetListing retrieves an announcement by ID
func (r *DirectoryPostgres) GetListing(ctx context.Context, id string) (*entity.Listing, error) {
	query := `SELECT id::text, user_id::text, title FROM announcements WHERE id = $1`

	var l entity.Listing
	err := r.pool.QueryRow(ctx, query, id).Scan(&l.ID, &l.OwnerID, &l.Title)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting listing: %w", err)
	}

	return &l, nil
}

// GetProfile retrieves a profile by user ID
func (r *DirectoryPostgres) GetProfile(ctx context.Context, id string) (*entity.Profile, error) {
	query := `
		SELECT id::text, COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(avatar_key, '')
		FROM profiles
		WHERE id = $1
	`

	var p entity.Profile
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.FirstName, &p.LastName, &p.AvatarKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting profile: %w", err)
	}

	return &p, nil
}
