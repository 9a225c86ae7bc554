package repository

import "github.com/jackc/pgx/v5/pgxpool"

type Repository struct {
	Settings SettingsRepository
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{
		Settings: SettingsRepository{db: db},
	}
}
