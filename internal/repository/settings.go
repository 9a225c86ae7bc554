package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/BY1502/ai-interview-service/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository persists per-client preferences in client_settings.
type SettingsRepository struct {
	db *pgxpool.Pool
}

var _ store.Preferences = (*SettingsRepository)(nil)

// BackendURL returns the backend URL the client chose, or store.ErrNotFound.
func (r *SettingsRepository) BackendURL(ctx context.Context, clientID string) (string, error) {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return "", store.ErrNotFound
	}
	const q = `
SELECT backend_url
FROM client_settings
WHERE client_id = $1
`
	var u string
	if err := r.db.QueryRow(ctx, q, id.String()).Scan(&u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", fmt.Errorf("scan backend url: %w", err)
	}
	return u, nil
}

// SetBackendURL inserts or replaces the client's backend URL.
func (r *SettingsRepository) SetBackendURL(ctx context.Context, clientID, backendURL string) error {
	id, err := uuid.Parse(clientID)
	if err != nil {
		return fmt.Errorf("invalid client id: %w", err)
	}
	const q = `
INSERT INTO client_settings (client_id, backend_url, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (client_id) DO UPDATE
SET backend_url = EXCLUDED.backend_url, updated_at = now()
`
	if _, err := r.db.Exec(ctx, q, id.String(), backendURL); err != nil {
		return fmt.Errorf("upsert backend url: %w", err)
	}
	return nil
}
