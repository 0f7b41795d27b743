package persistence

import (
	"context"
	"database/sql"
	"time"

	"postqueue/domain/model"
)

type DestinationRepository struct {
	db *sql.DB
}

func NewDestinationRepository(db *sql.DB) *DestinationRepository {
	return &DestinationRepository{db: db}
}

func (r *DestinationRepository) Upsert(ctx context.Context, d *model.RecentDestination) error {
	now := time.Now().UTC()
	if d.LastUsedAt.IsZero() {
		d.LastUsedAt = now
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	q := `INSERT INTO recent_destinations (user_id, platform, destination_id, dtype, name, metadata, description, use_count, last_used_at, created_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,1,$8,$9)
		  ON CONFLICT (user_id, platform, destination_id) DO UPDATE SET
			use_count = recent_destinations.use_count + 1,
			dtype = EXCLUDED.dtype,
			name = EXCLUDED.name,
			metadata = EXCLUDED.metadata,
			description = EXCLUDED.description,
			last_used_at = EXCLUDED.last_used_at`
	_, err := r.db.ExecContext(ctx, q,
		d.UserID, d.Platform, d.DestinationID, d.Type, d.Name, d.Metadata, d.Description, d.LastUsedAt, d.CreatedAt)
	return err
}

func (r *DestinationRepository) GetRecent(ctx context.Context, userID string, platform model.Platform, limit int) ([]*model.RecentDestination, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, platform, destination_id, dtype, name, metadata, description, use_count, last_used_at, created_at
		 FROM recent_destinations WHERE user_id=$1 AND platform=$2
		 ORDER BY last_used_at DESC LIMIT $3`, userID, platform, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.RecentDestination
	for rows.Next() {
		d := &model.RecentDestination{}
		var metadata, description sql.NullString
		if err := rows.Scan(&d.ID, &d.UserID, &d.Platform, &d.DestinationID, &d.Type, &d.Name,
			&metadata, &description, &d.UseCount, &d.LastUsedAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		if metadata.Valid {
			v := metadata.String
			d.Metadata = &v
		}
		if description.Valid {
			v := description.String
			d.Description = &v
		}
		list = append(list, d)
	}
	return list, rows.Err()
}
