package persistence

import (
	"context"
	"database/sql"
	"time"

	"postqueue/domain/model"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Upsert(ctx context.Context, c *model.AppCredential) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	q := `INSERT INTO app_credentials (user_id, platform, client_id, client_secret, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6)
		  ON CONFLICT (user_id, platform) DO UPDATE SET
			client_id=EXCLUDED.client_id,
			client_secret=EXCLUDED.client_secret,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, c.UserID, c.Platform, c.ClientID, c.ClientSecret, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CredentialRepository) Get(ctx context.Context, userID string, platform model.Platform) (*model.AppCredential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, platform, client_id, client_secret, created_at, updated_at
		 FROM app_credentials WHERE user_id=$1 AND platform=$2`, userID, platform)
	c := &model.AppCredential{}
	err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.ClientID, &c.ClientSecret, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, userID string, platform model.Platform) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM app_credentials WHERE user_id=$1 AND platform=$2`, userID, platform)
	return err
}
