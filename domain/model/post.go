package model

import "time"

type PostStatus string

const (
	PostStatusDraft      PostStatus = "draft"
	PostStatusScheduled  PostStatus = "scheduled"
	PostStatusPublishing PostStatus = "publishing" // transient claim held by an in-flight dispatch
	PostStatusPosted     PostStatus = "posted"
	PostStatusFailed     PostStatus = "failed"
)

type PostSource string

const (
	PostSourceNative   PostSource = "native"
	PostSourceImported PostSource = "imported"
)

// Post is a unit of content targeted at one integration.
// Destination and AdditionalFields are stored as opaque JSON text columns;
// the adapter for the post's platform owns their decoding.
type Post struct {
	ID               int64             `json:"id"`
	UserID           string            `json:"user_id"`
	IntegrationID    int64             `json:"integration_id"`
	Content          string            `json:"content"`
	Status           PostStatus        `json:"status"`
	ScheduledAt      *time.Time        `json:"scheduled_at,omitempty"`
	PostedAt         *time.Time        `json:"posted_at,omitempty"`
	PostURL          *string           `json:"post_url,omitempty"`
	FailCount        int               `json:"fail_count"`
	FailReason       *string           `json:"fail_reason,omitempty"`
	Destination      *Destination      `json:"destination,omitempty"`
	AdditionalFields map[string]string `json:"additional_fields,omitempty"`
	MediaRef         *string           `json:"media_ref,omitempty"`
	Source           PostSource        `json:"source"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Media is a binary attachment for a post, stored outside the relational row.
type Media struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// PostContent is the slice of a Post handed to a platform adapter.
type PostContent struct {
	PostID           int64
	Text             string
	Destination      *Destination
	AdditionalFields map[string]string
	Media            *Media
}

// PostResult is the normalized outcome of a platform publish attempt.
// Adapters never return errors from posting; every failure mode lands here.
type PostResult struct {
	Success bool   `json:"success"`
	PostURL string `json:"post_url,omitempty"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Failure codes carried in PostResult.Code so callers can distinguish
// "set up your app credentials" from "re-authorize" from plain API failure.
const (
	ResultCodeCredentialsMissing = "credentials_missing"
	ResultCodeCredentialsInvalid = "credentials_invalid"
	ResultCodePlatformError      = "platform_error"
	ResultCodeNotImplemented     = "not_implemented"
)

// RemotePost is a historical post fetched back from a platform.
type RemotePost struct {
	ExternalID string     `json:"external_id"`
	Content    string     `json:"content"`
	URL        string     `json:"url"`
	PostedAt   *time.Time `json:"posted_at,omitempty"`
}
