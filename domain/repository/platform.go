package repository

import (
	"context"

	"postqueue/domain/model"
)

// ISocialPlatform is the contract every platform adapter implements.
// Posting and token validation never return Go errors for platform-side
// failures; PostContent captures everything into a PostResult and
// ValidateCredentials answers false on any failure, so the dispatch
// service can treat all platforms identically.
type ISocialPlatform interface {
	Platform() model.Platform

	// ValidateCredentials performs a cheap read-only call with the stored
	// access token. False on any failure, including a malformed token.
	ValidateCredentials(ctx context.Context, accessToken string, creds *model.ResolvedCredential) bool

	// PostContent performs the publish call. Never panics or errors; all
	// failure modes are folded into the result.
	PostContent(ctx context.Context, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) *model.PostResult

	// ValidateAppCredentials live-checks an OAuth app credential pair
	// (client id/secret) without persisting anything. Error text must not
	// contain the secret.
	ValidateAppCredentials(ctx context.Context, clientID, clientSecret string) error

	// StartAuthorization begins the platform's OAuth flow for a user.
	StartAuthorization(ctx context.Context, userID string, creds *model.ResolvedCredential) (*model.AuthSession, error)
	// CompleteAuthorization finishes the flow; the returned integration has
	// token material and external account identity filled in, ownership is
	// set by the caller.
	CompleteAuthorization(ctx context.Context, cb *model.AuthCallback, creds *model.ResolvedCredential) (*model.Integration, error)

	SupportsDestinations() bool
	RequiresDestination() bool
	SupportsFetchingRecentPosts() bool

	// CreateDestinationFromInput normalizes free-text user input into a
	// destination, enriching with live metadata when a token is available
	// and degrading to a minimal destination when enrichment fails.
	CreateDestinationFromInput(ctx context.Context, rawInput, accessToken string) (*model.Destination, error)
	SearchDestinations(ctx context.Context, query, accessToken string) ([]*model.Destination, error)

	// RequiredFields names platform-specific additional fields a post must
	// carry (e.g. reddit's "title").
	RequiredFields() []string
	MaxCharacterLimit() int

	FetchRecentPosts(ctx context.Context, accessToken string, creds *model.ResolvedCredential) ([]*model.RemotePost, error)
}
