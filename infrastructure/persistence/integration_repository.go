package persistence

import (
	"context"
	"database/sql"
	"time"

	"postqueue/domain/model"
)

type IntegrationRepository struct {
	db *sql.DB
}

func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

const integrationColumns = `id, user_id, platform, external_id, external_name, access_token, refresh_token, expires_at, created_at, updated_at`

func (r *IntegrationRepository) Upsert(ctx context.Context, in *model.Integration) (*model.Integration, error) {
	now := time.Now().UTC()
	if in.CreatedAt.IsZero() {
		in.CreatedAt = now
	}
	in.UpdatedAt = now
	q := `INSERT INTO integrations (user_id, platform, external_id, external_name, access_token, refresh_token, expires_at, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		  ON CONFLICT (user_id, platform, external_id) DO UPDATE SET
			external_name=EXCLUDED.external_name,
			access_token=EXCLUDED.access_token,
			refresh_token=EXCLUDED.refresh_token,
			expires_at=EXCLUDED.expires_at,
			updated_at=EXCLUDED.updated_at
		  RETURNING id`
	err := r.db.QueryRowContext(ctx, q,
		in.UserID, in.Platform, in.ExternalID, in.ExternalName, in.AccessToken,
		in.RefreshToken, in.ExpiresAt, in.CreatedAt, in.UpdatedAt,
	).Scan(&in.ID)
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (r *IntegrationRepository) GetByID(ctx context.Context, id int64) (*model.Integration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+integrationColumns+` FROM integrations WHERE id=$1`, id)
	return scanIntegration(row)
}

func (r *IntegrationRepository) GetByUser(ctx context.Context, userID string) ([]*model.Integration, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+integrationColumns+` FROM integrations WHERE user_id=$1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.Integration
	for rows.Next() {
		in, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, in)
	}
	return list, rows.Err()
}

// Delete removes the integration; its posts follow via ON DELETE CASCADE.
func (r *IntegrationRepository) Delete(ctx context.Context, id int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM integrations WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanIntegration(row rowScanner) (*model.Integration, error) {
	in := &model.Integration{}
	var refreshToken sql.NullString
	var expiresAt sql.NullTime
	err := row.Scan(&in.ID, &in.UserID, &in.Platform, &in.ExternalID, &in.ExternalName,
		&in.AccessToken, &refreshToken, &expiresAt, &in.CreatedAt, &in.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if refreshToken.Valid {
		v := refreshToken.String
		in.RefreshToken = &v
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		in.ExpiresAt = &t
	}
	return in, nil
}
