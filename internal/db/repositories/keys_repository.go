package repositories

import (
	"context"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/models/entities"

	"github.com/jmoiron/sqlx"
)

type KeysRepo struct {
	db *sqlx.DB
}

func NewApiKeysRepo(db *sqlx.DB) *KeysRepo {
	return &KeysRepo{db}
}

func (r *KeysRepo) GetStatus(ctx context.Context, key string) (*entities.ApiKey, error) {
	var keyRes entities.ApiKey

	err := r.db.QueryRowxContext(ctx, r.db.Rebind(constants.GetStatusByApiKey), key).StructScan(&keyRes)

	if err != nil {
		return nil, err
	}

	return &keyRes, nil
}

func (r *KeysRepo) Insert(ctx context.Context, key entities.NewApiKey) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(constants.InsertApiKey), key.ID, key.Label)
	return err
}

// Ping checks the shared connection for the health endpoint.
func (r *KeysRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
