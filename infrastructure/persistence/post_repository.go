package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"postqueue/domain/model"
)

const postColumns = `id, user_id, integration_id, content, status, scheduled_at, posted_at, post_url,
	fail_count, fail_reason, destination, additional_fields, media_ref, source, created_at, updated_at`

// PostRepository implements post persistence on PostgreSQL.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository { return &PostRepository{db: db} }

func (r *PostRepository) Create(ctx context.Context, post *model.Post) (*model.Post, error) {
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	destJSON, err := marshalNullable(post.Destination)
	if err != nil {
		return nil, err
	}
	fieldsJSON, err := marshalNullable(post.AdditionalFields)
	if err != nil {
		return nil, err
	}
	q := `INSERT INTO posts (user_id, integration_id, content, status, scheduled_at, posted_at, post_url,
			fail_count, fail_reason, destination, additional_fields, media_ref, source, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$14)
		  RETURNING id`
	err = r.db.QueryRowContext(ctx, q,
		post.UserID, post.IntegrationID, post.Content, post.Status, post.ScheduledAt, post.PostedAt,
		post.PostURL, post.FailCount, post.FailReason, destJSON, fieldsJSON, post.MediaRef, post.Source, now,
	).Scan(&post.ID)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id=$1`, id)
	return scanPost(row)
}

func (r *PostRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (r *PostRepository) Delete(ctx context.Context, id int64, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ClaimForPublish is the compare-and-swap guard against double dispatch:
// whichever caller flips the row into publishing wins, everyone else sees
// zero affected rows.
func (r *PostRepository) ClaimForPublish(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE posts SET status=$1, updated_at=$2 WHERE id=$3 AND status IN ($4,$5,$6)`,
		model.PostStatusPublishing, time.Now().UTC(), id,
		model.PostStatusDraft, model.PostStatusScheduled, model.PostStatusFailed)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PostRepository) MarkPosted(ctx context.Context, id int64, postURL string, postedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET status=$1, posted_at=$2, post_url=$3, fail_reason=NULL, updated_at=$4 WHERE id=$5`,
		model.PostStatusPosted, postedAt.UTC(), postURL, time.Now().UTC(), id)
	return err
}

func (r *PostRepository) MarkFailed(ctx context.Context, id int64, reason string, countFailure bool) error {
	if countFailure {
		_, err := r.db.ExecContext(ctx,
			`UPDATE posts SET status=$1, fail_reason=$2, fail_count=fail_count+1, updated_at=$3 WHERE id=$4`,
			model.PostStatusFailed, reason, time.Now().UTC(), id)
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE posts SET status=$1, fail_reason=$2, updated_at=$3 WHERE id=$4`,
		model.PostStatusFailed, reason, time.Now().UTC(), id)
	return err
}

// FetchDue returns posts ready for the scheduler: due scheduled posts plus
// previously failed scheduled posts still under the retry cap.
func (r *PostRepository) FetchDue(ctx context.Context, now time.Time, failCap, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE status IN ($1,$2) AND scheduled_at IS NOT NULL AND scheduled_at <= $3 AND fail_count < $4
		 ORDER BY scheduled_at ASC LIMIT $5`,
		model.PostStatusScheduled, model.PostStatusFailed, now.UTC(), failCap, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

func (r *PostRepository) HasPostedContent(ctx context.Context, integrationID int64, content string) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM posts WHERE integration_id=$1 AND status=$2 AND content=$3 LIMIT 1`,
		integrationID, model.PostStatusPosted, content)
}

func (r *PostRepository) HasPostedURL(ctx context.Context, integrationID int64, url string) (bool, error) {
	return r.exists(ctx,
		`SELECT 1 FROM posts WHERE integration_id=$1 AND status=$2 AND post_url=$3 LIMIT 1`,
		integrationID, model.PostStatusPosted, url)
}

func (r *PostRepository) exists(ctx context.Context, q string, args ...interface{}) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, q, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	var scheduledAt, postedAt sql.NullTime
	var postURL, failReason, destJSON, fieldsJSON, mediaRef sql.NullString
	err := row.Scan(&p.ID, &p.UserID, &p.IntegrationID, &p.Content, &p.Status, &scheduledAt, &postedAt,
		&postURL, &p.FailCount, &failReason, &destJSON, &fieldsJSON, &mediaRef, &p.Source, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if scheduledAt.Valid {
		t := scheduledAt.Time
		p.ScheduledAt = &t
	}
	if postedAt.Valid {
		t := postedAt.Time
		p.PostedAt = &t
	}
	if postURL.Valid {
		v := postURL.String
		p.PostURL = &v
	}
	if failReason.Valid {
		v := failReason.String
		p.FailReason = &v
	}
	if mediaRef.Valid {
		v := mediaRef.String
		p.MediaRef = &v
	}
	// Stored blobs are best-effort: a corrupt destination or field set must
	// not make the post unreadable.
	if destJSON.Valid && destJSON.String != "" {
		var d model.Destination
		if json.Unmarshal([]byte(destJSON.String), &d) == nil {
			p.Destination = &d
		}
	}
	if fieldsJSON.Valid && fieldsJSON.String != "" {
		var f map[string]string
		if json.Unmarshal([]byte(fieldsJSON.String), &f) == nil {
			p.AdditionalFields = f
		}
	}
	return p, nil
}

func scanPosts(rows *sql.Rows) ([]*model.Post, error) {
	var list []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func marshalNullable(v interface{}) (*string, error) {
	switch t := v.(type) {
	case *model.Destination:
		if t == nil {
			return nil, nil
		}
	case map[string]string:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}
