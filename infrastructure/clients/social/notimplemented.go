package social

import (
	"context"
	"fmt"

	"postqueue/domain/model"
)

// NotImplemented is the placeholder adapter for platforms that are
// registered but not yet wired to a real API. Posting fails with an
// explicit result instead of silently succeeding.
type NotImplemented struct {
	platform model.Platform
}

func NewNotImplemented(platform model.Platform) *NotImplemented {
	return &NotImplemented{platform: platform}
}

func (n *NotImplemented) Platform() model.Platform { return n.platform }

func (n *NotImplemented) ValidateCredentials(ctx context.Context, accessToken string, creds *model.ResolvedCredential) bool {
	return false
}

func (n *NotImplemented) PostContent(ctx context.Context, content *model.PostContent, accessToken string, creds *model.ResolvedCredential) *model.PostResult {
	return failure(model.ResultCodeNotImplemented, "posting to %s is not implemented yet", n.platform)
}

func (n *NotImplemented) ValidateAppCredentials(ctx context.Context, clientID, clientSecret string) error {
	return fmt.Errorf("%s app credential validation is not implemented yet", n.platform)
}

func (n *NotImplemented) StartAuthorization(ctx context.Context, userID string, creds *model.ResolvedCredential) (*model.AuthSession, error) {
	return nil, fmt.Errorf("%s authorization is not implemented yet", n.platform)
}

func (n *NotImplemented) CompleteAuthorization(ctx context.Context, cb *model.AuthCallback, creds *model.ResolvedCredential) (*model.Integration, error) {
	return nil, fmt.Errorf("%s authorization is not implemented yet", n.platform)
}

func (n *NotImplemented) SupportsDestinations() bool { return false }

func (n *NotImplemented) RequiresDestination() bool { return false }

func (n *NotImplemented) SupportsFetchingRecentPosts() bool { return false }

func (n *NotImplemented) RequiredFields() []string { return nil }

func (n *NotImplemented) MaxCharacterLimit() int { return 0 }

func (n *NotImplemented) CreateDestinationFromInput(ctx context.Context, rawInput, accessToken string) (*model.Destination, error) {
	return nil, fmt.Errorf("%s destinations are not implemented yet", n.platform)
}

func (n *NotImplemented) SearchDestinations(ctx context.Context, query, accessToken string) ([]*model.Destination, error) {
	return nil, fmt.Errorf("%s destinations are not implemented yet", n.platform)
}

func (n *NotImplemented) FetchRecentPosts(ctx context.Context, accessToken string, creds *model.ResolvedCredential) ([]*model.RemotePost, error) {
	return nil, fmt.Errorf("fetching %s posts is not implemented yet", n.platform)
}
